package espeak

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/bnema/roland/internal/ports"
)

var ErrUnavailable = errors.New("espeak command unavailable")

type runFunc func(ctx context.Context, args ...string) (stderr string, err error)

// binaries are tried in order; espeak-ng ships an espeak compatible CLI.
var binaries = []string{"espeak-ng", "espeak"}

type Speaker struct {
	run   runFunc
	voice string
}

var _ ports.Speaker = (*Speaker)(nil)

func NewSpeaker(voice string) *Speaker {
	return &Speaker{run: runEspeak, voice: voice}
}

func (s *Speaker) Speak(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	args := make([]string, 0, 4)
	if s.voice != "" {
		args = append(args, "-v", s.voice)
	}
	args = append(args, "--", text)

	stderr, err := s.run(ctx, args...)
	if err != nil {
		if stderr == "" {
			return fmt.Errorf("espeak speak: %w", err)
		}
		return fmt.Errorf("espeak speak: %w: %s", err, stderr)
	}

	return nil
}

func runEspeak(ctx context.Context, args ...string) (string, error) {
	var path string
	for _, name := range binaries {
		if resolved, err := exec.LookPath(name); err == nil {
			path = resolved
			break
		}
	}
	if path == "" {
		return "", ErrUnavailable
	}

	cmd := exec.CommandContext(ctx, path, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	return strings.TrimSpace(stderr.String()), err
}

package console

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/bnema/roland/internal/ports"
)

type Speaker struct {
	mu     sync.Mutex
	out    io.Writer
	prefix string
}

var _ ports.Speaker = (*Speaker)(nil)

func NewSpeaker(out io.Writer, prefix string) *Speaker {
	return &Speaker{out: out, prefix: prefix}
}

func (s *Speaker) Speak(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := fmt.Fprintf(s.out, "%s%s\n", s.prefix, text); err != nil {
		return fmt.Errorf("write speech: %w", err)
	}
	return nil
}

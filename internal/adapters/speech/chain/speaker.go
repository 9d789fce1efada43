package chain

import (
	"context"
	"errors"
	"fmt"

	"github.com/bnema/roland/internal/ports"
)

// Speaker tries primary first and falls back when it fails for any reason
// other than the caller giving up.
type Speaker struct {
	primary  ports.Speaker
	fallback ports.Speaker
}

var _ ports.Speaker = (*Speaker)(nil)

var (
	errNilPrimarySpeaker  = errors.New("primary speaker is nil")
	errNilFallbackSpeaker = errors.New("fallback speaker is nil")
)

func NewSpeaker(primary ports.Speaker, fallback ports.Speaker) (*Speaker, error) {
	if primary == nil {
		return nil, errNilPrimarySpeaker
	}
	if fallback == nil {
		return nil, errNilFallbackSpeaker
	}

	return &Speaker{primary: primary, fallback: fallback}, nil
}

func (s *Speaker) Speak(ctx context.Context, text string) error {
	err := s.primary.Speak(ctx, text)
	if err == nil {
		return nil
	}
	if shouldSkipFallback(err) {
		return err
	}

	fallbackErr := s.fallback.Speak(ctx, text)
	if fallbackErr == nil {
		return nil
	}

	return fmt.Errorf("primary speaker failed: %w; fallback speaker failed: %w", err, fallbackErr)
}

func shouldSkipFallback(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

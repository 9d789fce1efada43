// Package keys holds the timing shared by every key injector: how long a
// press lasts, how a hold is bounded and in which order keys are released.
package keys

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/bnema/roland/internal/domain"
)

const (
	DefaultPressDuration = 50 * time.Millisecond
	DefaultHoldDuration  = time.Second
)

var ErrNotFocused = errors.New("game window is not focused")

type Timing struct {
	Press time.Duration
	// Hold applies when a hold action carries no duration of its own.
	Hold time.Duration
}

func (t Timing) withDefaults() Timing {
	if t.Press <= 0 {
		t.Press = DefaultPressDuration
	}
	if t.Hold <= 0 {
		t.Hold = DefaultHoldDuration
	}
	return t
}

// Device is the minimal surface a backend provides.
type Device interface {
	Down(ctx context.Context, keys []string) error
	Up(ctx context.Context, keys []string) error
}

// Perform runs action against device. Keys go down in order and come up in
// reverse; once anything is down it is always released, even when ctx is
// cancelled mid-hold.
func Perform(ctx context.Context, device Device, action domain.ActionRef, timing Timing) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := domain.ValidateKeys(action.Kind, action.Keys); err != nil {
		return err
	}
	timing = timing.withDefaults()

	wait := timing.Press
	if action.Kind == domain.ActionHold {
		wait = action.Duration
		if wait <= 0 {
			wait = timing.Hold
		}
	}

	if err := device.Down(ctx, action.Keys); err != nil {
		// A partial keydown may have landed.
		_ = device.Up(context.WithoutCancel(ctx), reversed(action.Keys))
		return fmt.Errorf("key down: %w", err)
	}

	waitErr := sleep(ctx, wait)

	if err := device.Up(context.WithoutCancel(ctx), reversed(action.Keys)); err != nil {
		return fmt.Errorf("key up: %w", err)
	}

	return waitErr
}

func reversed(keys []string) []string {
	out := slices.Clone(keys)
	slices.Reverse(out)
	return out
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

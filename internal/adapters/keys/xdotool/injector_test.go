package xdotool

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bnema/roland/internal/adapters/keys"
	"github.com/bnema/roland/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu    sync.Mutex
	calls [][]string
}

func (r *recorder) run(stdout string, err error) runFunc {
	return func(_ context.Context, args ...string) (string, string, error) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.calls = append(r.calls, args)
		if args[0] == "getactivewindow" {
			return stdout, "", nil
		}
		if err != nil {
			return "", "no display", err
		}
		return "", "", nil
	}
}

func (r *recorder) recorded() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]string(nil), r.calls...)
}

func fastTiming() keys.Timing {
	return keys.Timing{Press: time.Millisecond, Hold: time.Millisecond}
}

func TestInjectComboUsesKeysyms(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	injector := &Injector{run: rec.run("", nil), opts: Options{Timing: fastTiming()}}

	err := injector.Inject(context.Background(), domain.ActionRef{Kind: domain.ActionCombo, Keys: []string{"ctrl", "n"}})
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"keydown", "Control_L", "n"},
		{"keyup", "n", "Control_L"},
	}, rec.recorded())
}

func TestInjectHoldFunctionKey(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	injector := &Injector{run: rec.run("", nil), opts: Options{Timing: fastTiming()}}

	err := injector.Inject(context.Background(), domain.ActionRef{Kind: domain.ActionHold, Keys: []string{"f5"}, Duration: 5 * time.Millisecond})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"keydown", "F5"}, {"keyup", "F5"}}, rec.recorded())
}

func TestInjectReturnsClearError(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	injector := &Injector{run: rec.run("", errors.New("exit status 1")), opts: Options{Timing: fastTiming()}}

	err := injector.Inject(context.Background(), domain.ActionRef{Kind: domain.ActionPress, Keys: []string{"r"}})
	require.Error(t, err)
	assert.ErrorContains(t, err, "xdotool keydown")
	assert.ErrorContains(t, err, "no display")
}

func TestInjectBlockedWithoutFocus(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	injector := &Injector{run: rec.run("Firefox\n", nil), opts: Options{Timing: fastTiming(), FocusWindow: "Star Citizen"}}

	err := injector.Inject(context.Background(), domain.ActionRef{Kind: domain.ActionPress, Keys: []string{"n"}})
	require.ErrorIs(t, err, keys.ErrNotFocused)
	assert.Len(t, rec.recorded(), 1)
}

func TestInjectWithFocus(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	injector := &Injector{run: rec.run("Star Citizen\n", nil), opts: Options{Timing: fastTiming(), FocusWindow: "star citizen"}}

	err := injector.Inject(context.Background(), domain.ActionRef{Kind: domain.ActionPress, Keys: []string{"n"}})
	require.NoError(t, err)
	assert.Len(t, rec.recorded(), 3)
}

func TestKeysym(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"a":         "a",
		"7":         "7",
		"f12":       "F12",
		"page_down": "Next",
		"esc":       "Escape",
		"[":         "bracketleft",
	}
	for name, want := range tests {
		got, err := Keysym(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := Keysym("hyper")
	require.ErrorIs(t, err, domain.ErrUnknownKey)
}

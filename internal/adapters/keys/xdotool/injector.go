package xdotool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/bnema/roland/internal/adapters/keys"
	"github.com/bnema/roland/internal/domain"
	"github.com/bnema/roland/internal/ports"
)

var ErrUnavailable = errors.New("xdotool command unavailable")

type runFunc func(ctx context.Context, args ...string) (stdout string, stderr string, err error)

var keysyms = map[string]string{
	"ctrl": "Control_L", "ctrl_l": "Control_L", "ctrl_r": "Control_R",
	"alt": "Alt_L", "alt_l": "Alt_L", "alt_r": "Alt_R",
	"shift": "Shift_L", "shift_l": "Shift_L", "shift_r": "Shift_R",
	"space": "space", "enter": "Return", "tab": "Tab", "esc": "Escape",
	"backspace": "BackSpace", "delete": "Delete", "insert": "Insert",
	"up": "Up", "down": "Down", "left": "Left", "right": "Right",
	"home": "Home", "end": "End", "page_up": "Prior", "page_down": "Next",
	"[": "bracketleft", "]": "bracketright", "'": "apostrophe", "\\": "backslash",
	",": "comma", ".": "period", "/": "slash", ";": "semicolon",
	"-": "minus", "=": "equal", "`": "grave",
}

type Options struct {
	Timing keys.Timing
	// FocusWindow, when set, blocks input unless the active window title
	// contains it (case-insensitive).
	FocusWindow string
}

type Injector struct {
	run  runFunc
	opts Options
}

var _ ports.KeyInjector = (*Injector)(nil)

func NewInjector(opts Options) *Injector {
	return &Injector{run: runXdotool, opts: opts}
}

func (i *Injector) Inject(ctx context.Context, action domain.ActionRef) error {
	if err := i.checkFocus(ctx); err != nil {
		return err
	}

	return keys.Perform(ctx, device{run: i.run}, action, i.opts.Timing)
}

func (i *Injector) checkFocus(ctx context.Context) error {
	if i.opts.FocusWindow == "" {
		return nil
	}

	stdout, stderr, err := i.run(ctx, "getactivewindow", "getwindowname")
	if err != nil {
		return formatError("getactivewindow", err, stderr)
	}
	if !strings.Contains(strings.ToLower(stdout), strings.ToLower(i.opts.FocusWindow)) {
		return fmt.Errorf("%w: active window %q", keys.ErrNotFocused, strings.TrimSpace(stdout))
	}

	return nil
}

type device struct {
	run runFunc
}

func (d device) Down(ctx context.Context, names []string) error {
	return d.send(ctx, "keydown", names)
}

func (d device) Up(ctx context.Context, names []string) error {
	return d.send(ctx, "keyup", names)
}

func (d device) send(ctx context.Context, op string, names []string) error {
	args := make([]string, 0, len(names)+1)
	args = append(args, op)
	for _, name := range names {
		sym, err := Keysym(name)
		if err != nil {
			return err
		}
		args = append(args, sym)
	}

	if _, stderr, err := d.run(ctx, args...); err != nil {
		return formatError(op, err, stderr)
	}
	return nil
}

// Keysym maps a canonical key name onto the X keysym xdotool expects.
func Keysym(name string) (string, error) {
	if sym, ok := keysyms[name]; ok {
		return sym, nil
	}
	if !domain.IsAllowedKey(name) {
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownKey, name)
	}
	if len(name) > 1 && name[0] == 'f' {
		return "F" + name[1:], nil
	}
	return name, nil
}

func runXdotool(ctx context.Context, args ...string) (string, string, error) {
	path, err := exec.LookPath("xdotool")
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", "", ErrUnavailable
		}
		return "", "", fmt.Errorf("locate xdotool command: %w", err)
	}

	cmd := exec.CommandContext(ctx, path, args...)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	return stdout.String(), strings.TrimSpace(stderr.String()), err
}

func formatError(op string, err error, stderr string) error {
	if stderr == "" {
		return fmt.Errorf("xdotool %s: %w", op, err)
	}

	return fmt.Errorf("xdotool %s: %w: %s", op, err, stderr)
}

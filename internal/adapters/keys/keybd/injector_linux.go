//go:build linux

package keybd

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bnema/roland/internal/adapters/keys"
	"github.com/bnema/roland/internal/domain"
	"github.com/bnema/roland/internal/ports"
	"github.com/micmonay/keybd_event"
)

var virtualKeys = func() map[string]int {
	vks := map[string]int{
		"a": keybd_event.VK_A, "b": keybd_event.VK_B, "c": keybd_event.VK_C, "d": keybd_event.VK_D,
		"e": keybd_event.VK_E, "f": keybd_event.VK_F, "g": keybd_event.VK_G, "h": keybd_event.VK_H,
		"i": keybd_event.VK_I, "j": keybd_event.VK_J, "k": keybd_event.VK_K, "l": keybd_event.VK_L,
		"m": keybd_event.VK_M, "n": keybd_event.VK_N, "o": keybd_event.VK_O, "p": keybd_event.VK_P,
		"q": keybd_event.VK_Q, "r": keybd_event.VK_R, "s": keybd_event.VK_S, "t": keybd_event.VK_T,
		"u": keybd_event.VK_U, "v": keybd_event.VK_V, "w": keybd_event.VK_W, "x": keybd_event.VK_X,
		"y": keybd_event.VK_Y, "z": keybd_event.VK_Z,
		"0": keybd_event.VK_0, "1": keybd_event.VK_1, "2": keybd_event.VK_2, "3": keybd_event.VK_3,
		"4": keybd_event.VK_4, "5": keybd_event.VK_5, "6": keybd_event.VK_6, "7": keybd_event.VK_7,
		"8": keybd_event.VK_8, "9": keybd_event.VK_9,
		"f1": keybd_event.VK_F1, "f2": keybd_event.VK_F2, "f3": keybd_event.VK_F3, "f4": keybd_event.VK_F4,
		"f5": keybd_event.VK_F5, "f6": keybd_event.VK_F6, "f7": keybd_event.VK_F7, "f8": keybd_event.VK_F8,
		"f9": keybd_event.VK_F9, "f10": keybd_event.VK_F10, "f11": keybd_event.VK_F11, "f12": keybd_event.VK_F12,
		"esc": keybd_event.VK_ESC, "enter": keybd_event.VK_ENTER, "tab": keybd_event.VK_TAB,
		"space": keybd_event.VK_SPACE, "backspace": keybd_event.VK_BACKSPACE,
		"up": keybd_event.VK_UP, "down": keybd_event.VK_DOWN,
		"left": keybd_event.VK_LEFT, "right": keybd_event.VK_RIGHT,
	}
	return vks
}()

// bonding is the part of keybd_event.KeyBonding the injector drives.
type bonding interface {
	Clear()
	SetKeys(keys ...int)
	HasCTRL(bool)
	HasCTRLR(bool)
	HasALT(bool)
	HasALTGR(bool)
	HasSHIFT(bool)
	HasSHIFTR(bool)
	Press() error
	Release() error
}

type Injector struct {
	mu     sync.Mutex
	kb     bonding
	timing keys.Timing
}

var _ ports.KeyInjector = (*Injector)(nil)

// NewInjector opens the uinput device and waits for it to settle.
func NewInjector(ctx context.Context, timing keys.Timing) (*Injector, error) {
	kb, err := keybd_event.NewKeyBonding()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	timer := time.NewTimer(settleDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}

	return &Injector{kb: &kb, timing: timing}, nil
}

func (i *Injector) Inject(ctx context.Context, action domain.ActionRef) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	return keys.Perform(ctx, i, action, i.timing)
}

// Down configures the bonding for every key and presses them together.
func (i *Injector) Down(_ context.Context, names []string) error {
	if err := i.configure(names); err != nil {
		return err
	}
	return i.kb.Press()
}

// Up releases whatever the last Down configured; the order of names does not
// matter to uinput.
func (i *Injector) Up(_ context.Context, names []string) error {
	if err := i.configure(names); err != nil {
		return err
	}
	return i.kb.Release()
}

func (i *Injector) configure(names []string) error {
	i.kb.Clear()

	var codes []int
	for _, name := range names {
		switch name {
		case "ctrl", "ctrl_l":
			i.kb.HasCTRL(true)
		case "ctrl_r":
			i.kb.HasCTRLR(true)
		case "alt", "alt_l":
			i.kb.HasALT(true)
		case "alt_r":
			i.kb.HasALTGR(true)
		case "shift", "shift_l":
			i.kb.HasSHIFT(true)
		case "shift_r":
			i.kb.HasSHIFTR(true)
		default:
			code, err := VirtualKey(name)
			if err != nil {
				return err
			}
			codes = append(codes, code)
		}
	}
	i.kb.SetKeys(codes...)

	return nil
}

// VirtualKey returns the uinput code for a canonical non-modifier key.
func VirtualKey(name string) (int, error) {
	if code, ok := virtualKeys[name]; ok {
		return code, nil
	}
	return 0, fmt.Errorf("%w: %q has no uinput mapping", domain.ErrUnknownKey, name)
}

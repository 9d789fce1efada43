package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// DefaultMaxHold caps how long a single hold may keep keys down.
const DefaultMaxHold = 5 * time.Second

type ActionKind string

const (
	ActionPress ActionKind = "press"
	ActionHold  ActionKind = "hold"
	ActionCombo ActionKind = "combo"
)

func (k ActionKind) Valid() bool {
	switch k {
	case ActionPress, ActionHold, ActionCombo:
		return true
	default:
		return false
	}
}

type ActionSource string

const (
	SourceBuiltin ActionSource = "builtin"
	SourceMacro   ActionSource = "macro"
)

// ActionRef is the executable form of a resolved action. It is what the
// context tracker remembers and what key injectors consume.
type ActionRef struct {
	Source   ActionSource
	Name     string
	MacroID  MacroID
	Keys     []string
	Kind     ActionKind
	Duration time.Duration
}

func (a ActionRef) String() string {
	keys := strings.Join(a.Keys, "+")
	if a.Kind == ActionHold && a.Duration > 0 {
		return fmt.Sprintf("%s %s %s", a.Kind, keys, a.Duration)
	}

	return fmt.Sprintf("%s %s", a.Kind, keys)
}

// HoldFromSeconds converts a hold length in seconds. Zero means the injector
// default. Anything outside 0..limit, NaN included, is rejected before the
// conversion can overflow.
func HoldFromSeconds(seconds float64, limit time.Duration) (time.Duration, error) {
	if limit <= 0 {
		limit = DefaultMaxHold
	}
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return 0, fmt.Errorf("%w: bad hold duration %g", ErrUnparseableAction, seconds)
	}
	if seconds > limit.Seconds() {
		return 0, fmt.Errorf("%w: hold of %gs exceeds %s", ErrUnparseableAction, seconds, limit)
	}

	return time.Duration(seconds * float64(time.Second)), nil
}

// CheckHold applies the HoldFromSeconds bound to an already converted value.
func CheckHold(d, limit time.Duration) error {
	if limit <= 0 {
		limit = DefaultMaxHold
	}
	if d < 0 || d > limit {
		return fmt.Errorf("%w: hold of %s outside 0..%s", ErrUnparseableAction, d, limit)
	}
	return nil
}

func (a ActionRef) Clone() ActionRef {
	out := a
	out.Keys = append([]string(nil), a.Keys...)
	return out
}

// KeybindAction is a built-in binding loaded from the keybind catalog.
type KeybindAction struct {
	Name     string
	Category string
	Keys     []string
	Kind     ActionKind
	Duration time.Duration
	Aliases  []string
	Response string
}

func (k KeybindAction) Ref() ActionRef {
	return ActionRef{
		Source:   SourceBuiltin,
		Name:     k.Name,
		Keys:     append([]string(nil), k.Keys...),
		Kind:     k.Kind,
		Duration: k.Duration,
	}
}

// AllAliases returns the normalized name and aliases without duplicates.
func (k KeybindAction) AllAliases() []string {
	return uniquePhrases(append([]string{k.Name}, k.Aliases...))
}

func (k KeybindAction) Validate() error {
	if NormalizePhrase(k.Name) == "" {
		return fmt.Errorf("keybind name is required")
	}
	if !k.Kind.Valid() {
		return fmt.Errorf("keybind %q: %w: %q", k.Name, ErrInvalidActionKind, k.Kind)
	}
	if err := ValidateKeys(k.Kind, k.Keys); err != nil {
		return fmt.Errorf("keybind %q: %w", k.Name, err)
	}

	return nil
}

func uniquePhrases(phrases []string) []string {
	seen := make(map[string]struct{}, len(phrases))
	out := make([]string, 0, len(phrases))
	for _, phrase := range phrases {
		normalized := NormalizePhrase(phrase)
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}

	return out
}

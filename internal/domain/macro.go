package domain

import (
	"fmt"
	"time"
)

type MacroID string

type Macro struct {
	ID        MacroID
	Trigger   string
	Keys      []string
	Kind      ActionKind
	Duration  time.Duration
	Aliases   []string
	Response  string
	CreatedAt time.Time
	LastUsed  time.Time
	UseCount  int
}

// AllAliases returns the trigger followed by explicit aliases, normalized
// and without duplicates.
func (m Macro) AllAliases() []string {
	return uniquePhrases(append([]string{m.Trigger}, m.Aliases...))
}

func (m Macro) Ref() ActionRef {
	return ActionRef{
		Source:   SourceMacro,
		Name:     m.Trigger,
		MacroID:  m.ID,
		Keys:     append([]string(nil), m.Keys...),
		Kind:     m.Kind,
		Duration: m.Duration,
	}
}

func (m Macro) Clone() Macro {
	out := m
	out.Keys = append([]string(nil), m.Keys...)
	out.Aliases = append([]string(nil), m.Aliases...)
	return out
}

func (m Macro) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("macro id is required")
	}
	if NormalizePhrase(m.Trigger) == "" {
		return ErrEmptyPhrase
	}
	if !m.Kind.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidActionKind, m.Kind)
	}

	return ValidateKeys(m.Kind, m.Keys)
}

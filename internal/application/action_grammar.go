package application

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bnema/roland/internal/domain"
)

type ActionSpec struct {
	Keys     []string
	Kind     domain.ActionKind
	Duration time.Duration
}

var actionVerbs = map[string]domain.ActionKind{
	"press":       domain.ActionPress,
	"tap":         domain.ActionPress,
	"push":        domain.ActionPress,
	"hit":         domain.ActionPress,
	"hold":        domain.ActionHold,
	"combo":       domain.ActionCombo,
	"combination": domain.ActionCombo,
}

var keySeparators = map[string]struct{}{
	"and":  {},
	"plus": {},
	"then": {},
	"with": {},
}

var numberWords = map[string]float64{
	"a": 1, "an": 1, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10, "half": 0.5,
}

// ActionGrammar parses spoken key actions. A zero MaxHold means
// domain.DefaultMaxHold.
type ActionGrammar struct {
	MaxHold time.Duration
}

// ParseAction parses text with the default hold bound.
func ParseAction(text string) (ActionSpec, error) {
	return ActionGrammar{}.Parse(text)
}

// Parse understands a small spoken grammar:
//
//	press X | hold X [for N seconds] | combo X and Y | X plus Y
//
// Multiple keys after press become a combo.
func (g ActionGrammar) Parse(text string) (ActionSpec, error) {
	tokens := actionTokens(text)
	if len(tokens) == 0 {
		return ActionSpec{}, fmt.Errorf("%w: empty action", domain.ErrUnparseableAction)
	}

	kind, explicit := actionVerbs[tokens[0]]
	if explicit {
		tokens = tokens[1:]
		if kind == domain.ActionHold && len(tokens) > 0 && tokens[0] == "down" {
			tokens = tokens[1:]
		}
	}

	var duration time.Duration
	if kind == domain.ActionHold {
		var err error
		tokens, duration, err = splitDuration(tokens, g.MaxHold)
		if err != nil {
			return ActionSpec{}, err
		}
	}

	keys, err := parseKeys(tokens)
	if err != nil {
		return ActionSpec{}, err
	}

	switch {
	case !explicit && len(keys) > 1:
		kind = domain.ActionCombo
	case !explicit:
		kind = domain.ActionPress
	case kind == domain.ActionPress && len(keys) > 1:
		kind = domain.ActionCombo
	}

	if err := domain.ValidateKeys(kind, keys); err != nil {
		return ActionSpec{}, unparseable(err)
	}

	return ActionSpec{Keys: keys, Kind: kind, Duration: duration}, nil
}

func actionTokens(text string) []string {
	replacer := strings.NewReplacer("+", " plus ", ",", " ", "!", " ", "?", " ", "\"", " ")
	cleaned := replacer.Replace(strings.ToLower(text))
	fields := strings.Fields(cleaned)
	for i, field := range fields {
		fields[i] = strings.TrimSuffix(field, ".")
	}

	out := fields[:0]
	for _, field := range fields {
		if field == "" || field == "the" || field == "key" || field == "keys" || field == "button" {
			continue
		}
		out = append(out, field)
	}

	return out
}

func splitDuration(tokens []string, maxHold time.Duration) ([]string, time.Duration, error) {
	for i, token := range tokens {
		if token != "for" {
			continue
		}

		rest := tokens[i+1:]
		duration, err := parseDuration(rest, maxHold)
		if err != nil {
			return nil, 0, err
		}
		return tokens[:i], duration, nil
	}

	return tokens, 0, nil
}

func parseDuration(tokens []string, maxHold time.Duration) (time.Duration, error) {
	if len(tokens) == 0 {
		return 0, fmt.Errorf("%w: missing duration", domain.ErrUnparseableAction)
	}

	if len(tokens) >= 2 && tokens[0] == "half" && (tokens[1] == "a" || tokens[1] == "an") {
		tokens = append([]string{"half"}, tokens[2:]...)
	}

	value, ok := numberWords[tokens[0]]
	if !ok {
		parsed, err := strconv.ParseFloat(tokens[0], 64)
		if err != nil || parsed <= 0 {
			return 0, fmt.Errorf("%w: bad duration %q", domain.ErrUnparseableAction, tokens[0])
		}
		value = parsed
	}

	unit := time.Second
	if len(tokens) > 1 {
		switch tokens[1] {
		case "second", "seconds", "sec", "secs", "s":
		case "millisecond", "milliseconds", "ms":
			unit = time.Millisecond
		default:
			return 0, fmt.Errorf("%w: bad duration unit %q", domain.ErrUnparseableAction, tokens[1])
		}
	}

	return domain.HoldFromSeconds(value*unit.Seconds(), maxHold)
}

func parseKeys(tokens []string) ([]string, error) {
	var (
		keys  []string
		group []string
	)

	flush := func() error {
		if len(group) == 0 {
			return nil
		}
		defer func() { group = group[:0] }()

		key, err := domain.CanonicalKey(strings.Join(group, " "))
		if err == nil {
			keys = append(keys, key)
			return nil
		}
		if len(group) == 1 {
			return unparseable(err)
		}

		// "ctrl n" without a separator: every word must be a key on its own.
		for _, word := range group {
			single, singleErr := domain.CanonicalKey(word)
			if singleErr != nil {
				return unparseable(err)
			}
			keys = append(keys, single)
		}
		return nil
	}

	for _, token := range tokens {
		if _, ok := keySeparators[token]; ok {
			if err := flush(); err != nil {
				return nil, err
			}
			continue
		}
		group = append(group, token)
	}
	if err := flush(); err != nil {
		return nil, err
	}

	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: no keys", domain.ErrUnparseableAction)
	}

	return keys, nil
}

func unparseable(err error) error {
	if errors.Is(err, domain.ErrUnparseableAction) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrUnparseableAction, err)
}

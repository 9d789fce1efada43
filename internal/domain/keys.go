package domain

import (
	"fmt"
	"strings"
)

var allowedKeys = func() map[string]struct{} {
	keys := []string{
		"ctrl", "ctrl_l", "ctrl_r",
		"alt", "alt_l", "alt_r",
		"shift", "shift_l", "shift_r",
		"space", "enter", "tab", "esc", "backspace", "delete",
		"up", "down", "left", "right",
		"home", "end", "page_up", "page_down", "insert",
		"[", "]", "'", "\\", ",", ".", "/", ";", "-", "=", "`",
	}
	for r := 'a'; r <= 'z'; r++ {
		keys = append(keys, string(r))
	}
	for r := '0'; r <= '9'; r++ {
		keys = append(keys, string(r))
	}
	for i := 1; i <= 12; i++ {
		keys = append(keys, fmt.Sprintf("f%d", i))
	}

	set := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		set[key] = struct{}{}
	}
	return set
}()

var keyAliases = map[string]string{
	"control":       "ctrl",
	"escape":        "esc",
	"return":        "enter",
	"spacebar":      "space",
	"space bar":     "space",
	"page up":       "page_up",
	"pageup":        "page_up",
	"page down":     "page_down",
	"pagedown":      "page_down",
	"left control":  "ctrl_l",
	"right control": "ctrl_r",
	"left ctrl":     "ctrl_l",
	"right ctrl":    "ctrl_r",
	"left alt":      "alt_l",
	"right alt":     "alt_r",
	"left shift":    "shift_l",
	"right shift":   "shift_r",
	"up arrow":      "up",
	"down arrow":    "down",
	"left arrow":    "left",
	"right arrow":   "right",
	"del":           "delete",
	"ins":           "insert",
	"comma":         ",",
	"period":        ".",
	"dot":           ".",
	"slash":         "/",
	"backslash":     "\\",
	"semicolon":     ";",
	"minus":         "-",
	"dash":          "-",
	"equals":        "=",
	"apostrophe":    "'",
	"quote":         "'",
	"backtick":      "`",
	"tilde":         "`",
	"left bracket":  "[",
	"right bracket": "]",
	"zero":          "0",
	"one":           "1",
	"two":           "2",
	"three":         "3",
	"four":          "4",
	"five":          "5",
	"six":           "6",
	"seven":         "7",
	"eight":         "8",
	"nine":          "9",
}

var functionKeyWords = map[string]string{
	"one": "1", "two": "2", "three": "3", "four": "4", "five": "5", "six": "6",
	"seven": "7", "eight": "8", "nine": "9", "ten": "10", "eleven": "11", "twelve": "12",
}

func IsAllowedKey(key string) bool {
	_, ok := allowedKeys[key]
	return ok
}

func IsModifierKey(key string) bool {
	switch key {
	case "ctrl", "ctrl_l", "ctrl_r", "alt", "alt_l", "alt_r", "shift", "shift_l", "shift_r":
		return true
	default:
		return false
	}
}

// CanonicalKey maps a spoken or written key name onto the allowed key table.
func CanonicalKey(raw string) (string, error) {
	key := strings.Join(strings.Fields(strings.ToLower(raw)), " ")
	key = strings.TrimPrefix(key, "the ")
	key = strings.TrimSuffix(key, " key")
	if alias, ok := keyAliases[key]; ok {
		key = alias
	}
	if rest, ok := strings.CutPrefix(key, "f "); ok {
		if digits, ok := functionKeyWords[rest]; ok {
			key = "f" + digits
		} else {
			key = "f" + rest
		}
	}
	if !IsAllowedKey(key) {
		return "", fmt.Errorf("%w: %q", ErrUnknownKey, raw)
	}

	return key, nil
}

func ValidateKeys(kind ActionKind, keys []string) error {
	if len(keys) == 0 {
		return fmt.Errorf("%w: no keys", ErrUnparseableAction)
	}
	for _, key := range keys {
		if !IsAllowedKey(key) {
			return fmt.Errorf("%w: %q", ErrUnknownKey, key)
		}
	}
	switch kind {
	case ActionPress:
		if len(keys) != 1 {
			return fmt.Errorf("%w: press takes exactly one key", ErrUnparseableAction)
		}
	case ActionCombo:
		if len(keys) < 2 {
			return fmt.Errorf("%w: combo needs at least two keys", ErrUnparseableAction)
		}
	}

	return nil
}

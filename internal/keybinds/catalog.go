// Package keybinds loads the built-in keybind catalog.
package keybinds

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/bnema/roland/internal/domain"
	"gopkg.in/yaml.v3"
)

const PathKey = "keybinds.path"

//go:embed default.yaml
var defaultCatalog []byte

type bindingSchema struct {
	Keys     []string `yaml:"keys"`
	Action   string   `yaml:"action"`
	Duration float64  `yaml:"duration"`
	Aliases  []string `yaml:"aliases"`
	Response string   `yaml:"response"`
}

// Default returns the embedded catalog.
func Default() ([]domain.KeybindAction, error) {
	return Parse(defaultCatalog, domain.DefaultMaxHold)
}

// Load reads a catalog file, or the embedded default when path is empty.
// Hold durations above maxHold are rejected; zero means domain.DefaultMaxHold.
func Load(path string, maxHold time.Duration) ([]domain.KeybindAction, error) {
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keybinds file: %w", err)
	}

	return Parse(data, maxHold)
}

// Parse decodes a category -> name -> binding document. File order is kept so
// listings match what the user wrote.
func Parse(data []byte, maxHold time.Duration) ([]domain.KeybindAction, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("decode keybinds: %w", err)
	}
	if len(root.Content) == 0 {
		return nil, nil
	}

	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		return nil, errors.New("decode keybinds: top level must be a mapping of categories")
	}

	var actions []domain.KeybindAction
	for i := 0; i+1 < len(doc.Content); i += 2 {
		category := doc.Content[i].Value
		binds := doc.Content[i+1]
		if binds.Kind != yaml.MappingNode {
			continue
		}

		for j := 0; j+1 < len(binds.Content); j += 2 {
			name := binds.Content[j].Value

			var binding bindingSchema
			if err := binds.Content[j+1].Decode(&binding); err != nil {
				return nil, fmt.Errorf("decode keybind %q: %w", name, err)
			}

			action, err := binding.toDomain(category, name, maxHold)
			if err != nil {
				return nil, err
			}
			actions = append(actions, action)
		}
	}

	return actions, nil
}

func (b bindingSchema) toDomain(category, name string, maxHold time.Duration) (domain.KeybindAction, error) {
	kind := domain.ActionKind(b.Action)
	if b.Action == "" {
		kind = domain.ActionPress
	}

	keys := make([]string, 0, len(b.Keys))
	for _, raw := range b.Keys {
		key, err := domain.CanonicalKey(raw)
		if err != nil {
			return domain.KeybindAction{}, fmt.Errorf("keybind %q: %w", name, err)
		}
		keys = append(keys, key)
	}

	duration, err := domain.HoldFromSeconds(b.Duration, maxHold)
	if err != nil {
		return domain.KeybindAction{}, fmt.Errorf("keybind %q: %w", name, err)
	}

	action := domain.KeybindAction{
		Name:     name,
		Category: category,
		Keys:     keys,
		Kind:     kind,
		Duration: duration,
		Aliases:  append([]string(nil), b.Aliases...),
		Response: b.Response,
	}
	if err := action.Validate(); err != nil {
		return domain.KeybindAction{}, err
	}

	return action, nil
}

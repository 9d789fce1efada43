package toml

import "fmt"

const currentSchemaVersion = 1

type fileSchema struct {
	Version int           `toml:"version"`
	Macros  []macroSchema `toml:"macros"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported macros schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

type macroSchema struct {
	ID        string   `toml:"id"`
	Trigger   string   `toml:"trigger_phrase"`
	Keys      []string `toml:"keys"`
	Action    string   `toml:"action_type"`
	Duration  string   `toml:"duration,omitempty"`
	Aliases   []string `toml:"aliases,omitempty"`
	Response  string   `toml:"response,omitempty"`
	CreatedAt string   `toml:"created_at"`
	LastUsed  string   `toml:"last_used,omitempty"`
	UseCount  int      `toml:"use_count,omitempty"`
}

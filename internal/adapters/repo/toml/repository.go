package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bnema/roland/internal/domain"
	"github.com/bnema/roland/internal/ports"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	MacrosPathKey    = "macros.path"
	macrosFileMode   = 0o600
	macrosDirMode    = 0o700
	macrosConfigDir  = ".roland"
	macrosConfigFile = "macros.toml"
	tempFilePattern  = ".macros-*.toml.tmp"
)

type Repository struct {
	macrosPath string
	mu         *sync.RWMutex
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var _ ports.MacroRepository = (*Repository)(nil)

func NewRepository(cfg *viper.Viper) (*Repository, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	macrosPath := cfg.GetString(MacrosPathKey)
	if macrosPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		macrosPath = filepath.Join(homeDir, macrosConfigDir, macrosConfigFile)
	}

	macrosPath, err := normalizeMacrosPath(macrosPath)
	if err != nil {
		return nil, err
	}

	return &Repository{macrosPath: macrosPath, mu: lockForPath(macrosPath)}, nil
}

func (r *Repository) Path() string {
	return r.macrosPath
}

func (r *Repository) Load(ctx context.Context) ([]domain.Macro, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return nil, err
	}

	macros := make([]domain.Macro, 0, len(file.Macros))
	for _, entry := range file.Macros {
		macros = append(macros, fromSchema(entry))
	}

	return macros, nil
}

func (r *Repository) Insert(ctx context.Context, macro domain.Macro) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}

	for _, entry := range file.Macros {
		if entry.ID == string(macro.ID) {
			return fmt.Errorf("macro id %q already stored", macro.ID)
		}
		if entry.Trigger == macro.Trigger {
			return &domain.AliasConflictError{Alias: macro.Trigger, OwnerKind: domain.OwnerMacro, OwnerName: entry.Trigger}
		}
	}
	file.Macros = append(file.Macros, toSchema(macro))

	if err := ctx.Err(); err != nil {
		return err
	}

	return r.writeSchema(file)
}

func (r *Repository) Update(ctx context.Context, macro domain.Macro) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}

	updated := false
	for i := range file.Macros {
		if file.Macros[i].ID == string(macro.ID) {
			file.Macros[i] = toSchema(macro)
			updated = true
			break
		}
	}
	if !updated {
		return fmt.Errorf("%w: %q", domain.ErrMacroNotFound, macro.ID)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	return r.writeSchema(file)
}

func (r *Repository) Delete(ctx context.Context, id domain.MacroID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return false, err
	}

	kept := file.Macros[:0]
	removed := false
	for _, entry := range file.Macros {
		if entry.ID == string(id) {
			removed = true
			continue
		}
		kept = append(kept, entry)
	}
	if !removed {
		return false, nil
	}
	file.Macros = kept

	if err := r.writeSchema(file); err != nil {
		return false, err
	}

	return true, nil
}

func (r *Repository) Close() error {
	return nil
}

func (r *Repository) readSchema() (fileSchema, error) {
	data, err := os.ReadFile(r.macrosPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fileSchema{Version: currentSchemaVersion}, nil
		}
		return fileSchema{}, fmt.Errorf("read macros file: %w", err)
	}

	var file fileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return fileSchema{}, fmt.Errorf("decode macros file: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return fileSchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

func normalizeMacrosPath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve macros path: %w", err)
	}

	return filepath.Clean(absPath), nil
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}

// writeSchema replaces the file atomically and syncs it before the rename so
// a crash leaves either the old or the new file on disk.
func (r *Repository) writeSchema(file fileSchema) error {
	file.applyDefaults()

	if err := os.MkdirAll(filepath.Dir(r.macrosPath), macrosDirMode); err != nil {
		return fmt.Errorf("create macros directory: %w", err)
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode macros file: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(r.macrosPath), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp macros file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp macros file: %w", err)
	}

	if err := tempFile.Chmod(macrosFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp macros file: %w", err)
	}

	if err := tempFile.Sync(); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("sync temp macros file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp macros file: %w", err)
	}

	if err := os.Rename(tempName, r.macrosPath); err != nil {
		return fmt.Errorf("replace macros file: %w", err)
	}

	cleanup = false

	return nil
}

func toSchema(macro domain.Macro) macroSchema {
	entry := macroSchema{
		ID:        string(macro.ID),
		Trigger:   macro.Trigger,
		Keys:      append([]string(nil), macro.Keys...),
		Action:    string(macro.Kind),
		Aliases:   append([]string(nil), macro.Aliases...),
		Response:  macro.Response,
		CreatedAt: formatTime(macro.CreatedAt),
		LastUsed:  formatTime(macro.LastUsed),
		UseCount:  macro.UseCount,
	}
	if macro.Duration > 0 {
		entry.Duration = macro.Duration.String()
	}

	return entry
}

func fromSchema(entry macroSchema) domain.Macro {
	macro := domain.Macro{
		ID:        domain.MacroID(entry.ID),
		Trigger:   entry.Trigger,
		Keys:      append([]string(nil), entry.Keys...),
		Kind:      domain.ActionKind(entry.Action),
		Response:  entry.Response,
		CreatedAt: parseTime(entry.CreatedAt),
		LastUsed:  parseTime(entry.LastUsed),
		UseCount:  entry.UseCount,
	}
	if len(entry.Aliases) > 0 {
		macro.Aliases = append([]string(nil), entry.Aliases...)
	}
	if entry.Duration != "" {
		if duration, err := time.ParseDuration(entry.Duration); err == nil {
			macro.Duration = duration
		}
	}

	return macro
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}

	parsed, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}

	return parsed.UTC()
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}

	return value.UTC().Format(time.RFC3339Nano)
}

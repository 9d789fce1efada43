package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/boltdb/bolt"
	"github.com/bnema/roland/internal/domain"
	"github.com/bnema/roland/internal/ports"
)

var macrosBucketName = []byte("macros")

const openTimeout = 2 * time.Second

type Repository struct {
	boltConn  *bolt.DB
	closeOnce sync.Once
	closeErr  error
}

var _ ports.MacroRepository = (*Repository)(nil)

type macroRecord struct {
	ID         string   `json:"id"`
	Trigger    string   `json:"trigger_phrase"`
	Keys       []string `json:"keys"`
	Action     string   `json:"action_type"`
	DurationNS int64    `json:"duration_ns,omitempty"`
	Aliases    []string `json:"aliases,omitempty"`
	Response   string   `json:"response,omitempty"`
	CreatedAt  string   `json:"created_at"`
	LastUsed   string   `json:"last_used,omitempty"`
	UseCount   int      `json:"use_count,omitempty"`
}

// NewRepository opens the bolt file, creating it and the macros bucket when
// missing.
func NewRepository(path string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create macros directory: %w", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, fmt.Errorf("open macros database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(macrosBucketName); err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Repository{boltConn: db}, nil
}

func (r *Repository) Load(ctx context.Context) ([]domain.Macro, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var records []macroRecord
	err := r.boltConn.View(func(tx *bolt.Tx) error {
		return tx.Bucket(macrosBucketName).ForEach(func(_, value []byte) error {
			var record macroRecord
			if err := json.Unmarshal(value, &record); err != nil {
				return fmt.Errorf("decode macro: %w", err)
			}
			records = append(records, record)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].CreatedAt != records[j].CreatedAt {
			return parseTime(records[i].CreatedAt).Before(parseTime(records[j].CreatedAt))
		}
		return records[i].ID < records[j].ID
	})

	macros := make([]domain.Macro, 0, len(records))
	for _, record := range records {
		macros = append(macros, record.toDomain())
	}

	return macros, nil
}

// Insert checks trigger uniqueness inside the write transaction, which bolt
// serializes with every other writer.
func (r *Repository) Insert(ctx context.Context, macro domain.Macro) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	encoded, err := json.Marshal(toRecord(macro))
	if err != nil {
		return fmt.Errorf("encode macro: %w", err)
	}

	return r.boltConn.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(macrosBucketName)
		if bucket.Get([]byte(macro.ID)) != nil {
			return fmt.Errorf("macro id %q already stored", macro.ID)
		}
		if err := ensureTriggerFree(bucket, macro); err != nil {
			return err
		}
		return bucket.Put([]byte(macro.ID), encoded)
	})
}

func (r *Repository) Update(ctx context.Context, macro domain.Macro) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	encoded, err := json.Marshal(toRecord(macro))
	if err != nil {
		return fmt.Errorf("encode macro: %w", err)
	}

	return r.boltConn.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(macrosBucketName)
		if bucket.Get([]byte(macro.ID)) == nil {
			return fmt.Errorf("%w: %q", domain.ErrMacroNotFound, macro.ID)
		}
		if err := ensureTriggerFree(bucket, macro); err != nil {
			return err
		}
		return bucket.Put([]byte(macro.ID), encoded)
	})
}

func (r *Repository) Delete(ctx context.Context, id domain.MacroID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	removed := false
	err := r.boltConn.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(macrosBucketName)
		if bucket.Get([]byte(id)) == nil {
			return nil
		}
		removed = true
		return bucket.Delete([]byte(id))
	})
	if err != nil {
		return false, fmt.Errorf("delete macro: %w", err)
	}

	return removed, nil
}

func (r *Repository) Close() error {
	r.closeOnce.Do(func() {
		r.closeErr = r.boltConn.Close()
	})
	return r.closeErr
}

func ensureTriggerFree(bucket *bolt.Bucket, macro domain.Macro) error {
	return bucket.ForEach(func(key, value []byte) error {
		if string(key) == string(macro.ID) {
			return nil
		}
		var other macroRecord
		if err := json.Unmarshal(value, &other); err != nil {
			return fmt.Errorf("decode macro: %w", err)
		}
		if other.Trigger == macro.Trigger {
			return &domain.AliasConflictError{Alias: macro.Trigger, OwnerKind: domain.OwnerMacro, OwnerName: other.Trigger}
		}
		return nil
	})
}

func toRecord(macro domain.Macro) macroRecord {
	return macroRecord{
		ID:         string(macro.ID),
		Trigger:    macro.Trigger,
		Keys:       macro.Keys,
		Action:     string(macro.Kind),
		DurationNS: int64(macro.Duration),
		Aliases:    macro.Aliases,
		Response:   macro.Response,
		CreatedAt:  formatTime(macro.CreatedAt),
		LastUsed:   formatTime(macro.LastUsed),
		UseCount:   macro.UseCount,
	}
}

func (record macroRecord) toDomain() domain.Macro {
	macro := domain.Macro{
		ID:        domain.MacroID(record.ID),
		Trigger:   record.Trigger,
		Keys:      record.Keys,
		Kind:      domain.ActionKind(record.Action),
		Duration:  time.Duration(record.DurationNS),
		Response:  record.Response,
		CreatedAt: parseTime(record.CreatedAt),
		LastUsed:  parseTime(record.LastUsed),
		UseCount:  record.UseCount,
	}
	if len(record.Aliases) > 0 {
		macro.Aliases = record.Aliases
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

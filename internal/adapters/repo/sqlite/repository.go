package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bnema/roland/internal/domain"
	"github.com/bnema/roland/internal/ports"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS macros (
	id             TEXT PRIMARY KEY,
	trigger_phrase TEXT NOT NULL UNIQUE,
	keys           TEXT NOT NULL,
	action_type    TEXT NOT NULL,
	duration_ns    INTEGER NOT NULL DEFAULT 0,
	aliases        TEXT NOT NULL DEFAULT '[]',
	response       TEXT NOT NULL DEFAULT '',
	created_at     TEXT NOT NULL,
	last_used      TEXT NOT NULL DEFAULT '',
	use_count      INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_macros_created_at ON macros(created_at);
`

type Repository struct {
	db        *sql.DB
	closeOnce sync.Once
	closeErr  error
}

var _ ports.MacroRepository = (*Repository)(nil)

func NewRepository(path string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create macros directory: %w", err)
	}

	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=synchronous(FULL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open macros database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize macros schema: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Load(ctx context.Context) ([]domain.Macro, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, trigger_phrase, keys, action_type, duration_ns, aliases, response, created_at, last_used, use_count
		FROM macros
		ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("query macros: %w", err)
	}
	defer rows.Close()

	var macros []domain.Macro
	for rows.Next() {
		var (
			row                 macroRow
			keysJSON, aliasJSON string
		)
		if err := rows.Scan(&row.id, &row.trigger, &keysJSON, &row.action, &row.durationNS, &aliasJSON, &row.response, &row.createdAt, &row.lastUsed, &row.useCount); err != nil {
			return nil, fmt.Errorf("scan macro: %w", err)
		}
		if err := json.Unmarshal([]byte(keysJSON), &row.keys); err != nil {
			return nil, fmt.Errorf("decode keys of macro %q: %w", row.id, err)
		}
		if err := json.Unmarshal([]byte(aliasJSON), &row.aliases); err != nil {
			return nil, fmt.Errorf("decode aliases of macro %q: %w", row.id, err)
		}
		macros = append(macros, row.toDomain())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate macros: %w", err)
	}

	return macros, nil
}

func (r *Repository) Insert(ctx context.Context, macro domain.Macro) error {
	keys, aliases, err := encodeLists(macro)
	if err != nil {
		return err
	}

	return r.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO macros (id, trigger_phrase, keys, action_type, duration_ns, aliases, response, created_at, last_used, use_count)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			string(macro.ID), macro.Trigger, keys, string(macro.Kind), int64(macro.Duration), aliases,
			macro.Response, formatTime(macro.CreatedAt), formatTime(macro.LastUsed), macro.UseCount,
		)
		if err != nil {
			return mapConstraint(err, macro)
		}
		return nil
	})
}

func (r *Repository) Update(ctx context.Context, macro domain.Macro) error {
	keys, aliases, err := encodeLists(macro)
	if err != nil {
		return err
	}

	return r.inTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE macros
			SET trigger_phrase = ?, keys = ?, action_type = ?, duration_ns = ?, aliases = ?,
			    response = ?, created_at = ?, last_used = ?, use_count = ?
			WHERE id = ?`,
			macro.Trigger, keys, string(macro.Kind), int64(macro.Duration), aliases,
			macro.Response, formatTime(macro.CreatedAt), formatTime(macro.LastUsed), macro.UseCount,
			string(macro.ID),
		)
		if err != nil {
			return mapConstraint(err, macro)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("read affected rows: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("%w: %q", domain.ErrMacroNotFound, macro.ID)
		}
		return nil
	})
}

func (r *Repository) Delete(ctx context.Context, id domain.MacroID) (bool, error) {
	removed := false
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM macros WHERE id = ?`, string(id))
		if err != nil {
			return fmt.Errorf("delete macro: %w", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("read affected rows: %w", err)
		}
		removed = affected > 0
		return nil
	})
	if err != nil {
		return false, err
	}

	return removed, nil
}

func (r *Repository) Close() error {
	r.closeOnce.Do(func() {
		r.closeErr = r.db.Close()
	})
	return r.closeErr
}

func (r *Repository) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			return errors.Join(err, fmt.Errorf("rollback: %w", rollbackErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

type macroRow struct {
	id         string
	trigger    string
	keys       []string
	action     string
	durationNS int64
	aliases    []string
	response   string
	createdAt  string
	lastUsed   string
	useCount   int
}

func (row macroRow) toDomain() domain.Macro {
	macro := domain.Macro{
		ID:        domain.MacroID(row.id),
		Trigger:   row.trigger,
		Keys:      row.keys,
		Kind:      domain.ActionKind(row.action),
		Duration:  time.Duration(row.durationNS),
		Response:  row.response,
		CreatedAt: parseTime(row.createdAt),
		LastUsed:  parseTime(row.lastUsed),
		UseCount:  row.useCount,
	}
	if len(row.aliases) > 0 {
		macro.Aliases = row.aliases
	}

	return macro
}

func encodeLists(macro domain.Macro) (string, string, error) {
	keys, err := json.Marshal(macro.Keys)
	if err != nil {
		return "", "", fmt.Errorf("encode keys: %w", err)
	}

	aliases := macro.Aliases
	if aliases == nil {
		aliases = []string{}
	}
	encodedAliases, err := json.Marshal(aliases)
	if err != nil {
		return "", "", fmt.Errorf("encode aliases: %w", err)
	}

	return string(keys), string(encodedAliases), nil
}

func mapConstraint(err error, macro domain.Macro) error {
	if strings.Contains(err.Error(), "UNIQUE constraint failed: macros.trigger_phrase") {
		return &domain.AliasConflictError{Alias: macro.Trigger, OwnerKind: domain.OwnerMacro, OwnerName: macro.Trigger}
	}
	return fmt.Errorf("write macro %q: %w", macro.ID, err)
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

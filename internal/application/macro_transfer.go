package application

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/bnema/roland/internal/domain"
	"go.uber.org/zap"
)

// MacroRecord is the portable form of a macro. Durations are seconds so the
// file stays readable and editable by hand. CreatedAt is informational; an
// imported macro is stamped when it is created.
type MacroRecord struct {
	Trigger   string            `json:"trigger_phrase"`
	Kind      domain.ActionKind `json:"action_type"`
	Keys      []string          `json:"keys"`
	Duration  float64           `json:"duration,omitempty"`
	Aliases   []string          `json:"aliases,omitempty"`
	Response  string            `json:"response,omitempty"`
	CreatedAt time.Time         `json:"created_at,omitzero"`
}

type ImportSkip struct {
	Trigger string
	Err     error
}

type ImportReport struct {
	Imported int
	Skipped  []ImportSkip
}

// ExportMacros converts macros to records in iteration order.
func ExportMacros(macros iter.Seq[domain.Macro]) []MacroRecord {
	records := []MacroRecord{}
	for macro := range macros {
		records = append(records, MacroRecord{
			Trigger:   macro.Trigger,
			Kind:      macro.Kind,
			Keys:      append([]string(nil), macro.Keys...),
			Duration:  macro.Duration.Seconds(),
			Aliases:   append([]string(nil), macro.Aliases...),
			Response:  macro.Response,
			CreatedAt: macro.CreatedAt,
		})
	}
	return records
}

// Import creates one macro per record through Create, so alias conflicts, the
// macro limit and hold bounds apply as usual. Records the user could fix are
// skipped and reported; a repository failure stops the import. With overwrite,
// a macro already answering to the record's trigger is deleted first.
func (s *MacroStore) Import(ctx context.Context, records []MacroRecord, overwrite bool) (ImportReport, error) {
	var report ImportReport

	for _, record := range records {
		skip := func(err error) {
			report.Skipped = append(report.Skipped, ImportSkip{Trigger: record.Trigger, Err: err})
			s.logger.Debug("macro import skipped", zap.String("trigger", record.Trigger), zap.Error(err))
		}

		spec, err := s.recordSpec(record)
		if err != nil {
			skip(err)
			continue
		}

		if overwrite {
			if _, err := s.Delete(ctx, spec.Trigger); err != nil {
				return report, err
			}
		}

		if _, err := s.Create(ctx, spec); err != nil {
			if !correctable(err) {
				return report, err
			}
			skip(err)
			continue
		}
		report.Imported++
	}

	s.logger.Info("macros imported", zap.Int("imported", report.Imported), zap.Int("skipped", len(report.Skipped)))
	return report, nil
}

// recordSpec checks a record before anything is deleted on its behalf.
func (s *MacroStore) recordSpec(record MacroRecord) (MacroSpec, error) {
	trigger := domain.NormalizePhrase(record.Trigger)
	if trigger == "" {
		return MacroSpec{}, domain.ErrEmptyPhrase
	}
	if !record.Kind.Valid() {
		return MacroSpec{}, fmt.Errorf("%w: %q", domain.ErrInvalidActionKind, record.Kind)
	}

	keys := make([]string, 0, len(record.Keys))
	for _, raw := range record.Keys {
		key, err := domain.CanonicalKey(raw)
		if err != nil {
			return MacroSpec{}, err
		}
		keys = append(keys, key)
	}
	if err := domain.ValidateKeys(record.Kind, keys); err != nil {
		return MacroSpec{}, err
	}

	duration, err := domain.HoldFromSeconds(record.Duration, s.maxHold)
	if err != nil {
		return MacroSpec{}, err
	}

	return MacroSpec{
		Trigger:  trigger,
		Keys:     keys,
		Kind:     record.Kind,
		Duration: duration,
		Aliases:  record.Aliases,
		Response: record.Response,
	}, nil
}

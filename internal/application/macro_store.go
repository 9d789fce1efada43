package application

import (
	"context"
	"fmt"
	"iter"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bnema/roland/internal/domain"
	"github.com/bnema/roland/internal/ports"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const DefaultMacroLimit = 100

type MacroSpec struct {
	Trigger  string
	Keys     []string
	Kind     domain.ActionKind
	Duration time.Duration
	Aliases  []string
	Response string
}

type MacroStoreOptions struct {
	Limit int
	// MaxHold bounds macro hold durations; zero means domain.DefaultMaxHold.
	MaxHold time.Duration
	Clock   ports.Clock
	NewID   func() domain.MacroID
	Logger  *zap.Logger
}

// MacroStore owns the user macros. Writers are serialized and re-read the
// repository before checking alias uniqueness, so another process editing the
// same file is seen before the check. Readers load the published namespace
// and never wait for a writer.
type MacroStore struct {
	repo    ports.MacroRepository
	base    *AliasNamespace
	limit   int
	maxHold time.Duration
	clock   ports.Clock
	newID   func() domain.MacroID
	logger  *zap.Logger

	mu       sync.Mutex
	snapshot atomic.Pointer[AliasNamespace]
}

func NewMacroStore(repo ports.MacroRepository, builtins []domain.KeybindAction, opts MacroStoreOptions) (*MacroStore, error) {
	base, err := NewAliasNamespace(builtins)
	if err != nil {
		return nil, fmt.Errorf("build alias namespace: %w", err)
	}

	if opts.Limit == 0 {
		opts.Limit = DefaultMacroLimit
	}
	if opts.Clock == nil {
		opts.Clock = ports.SystemClock{}
	}
	if opts.NewID == nil {
		opts.NewID = func() domain.MacroID { return domain.MacroID(uuid.NewString()) }
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	store := &MacroStore{
		repo:    repo,
		base:    base,
		limit:   opts.Limit,
		maxHold: opts.MaxHold,
		clock:   opts.Clock,
		newID:   opts.NewID,
		logger:  opts.Logger,
	}
	store.snapshot.Store(base)

	return store, nil
}

func (s *MacroStore) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.reloadLocked(ctx)
	return err
}

// Refresh re-reads the repository, e.g. after the backing file changed.
func (s *MacroStore) Refresh(ctx context.Context) error {
	return s.Load(ctx)
}

func (s *MacroStore) Create(ctx context.Context, spec MacroSpec) (domain.Macro, error) {
	macro, err := s.newMacro(spec)
	if err != nil {
		return domain.Macro{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ns, err := s.reloadLocked(ctx)
	if err != nil {
		return domain.Macro{}, err
	}

	if err := ns.Conflicts("", macro.AllAliases()...); err != nil {
		return domain.Macro{}, err
	}
	if s.limit > 0 && ns.MacroCount() >= s.limit {
		return domain.Macro{}, fmt.Errorf("%w: maximum is %d", domain.ErrMacroLimit, s.limit)
	}

	if err := s.repo.Insert(ctx, macro); err != nil {
		return domain.Macro{}, fmt.Errorf("persist macro: %w", err)
	}

	s.snapshot.Store(ns.withMacro(macro))
	s.logger.Info("macro created", zap.String("id", string(macro.ID)), zap.String("trigger", macro.Trigger))

	return macro.Clone(), nil
}

// Delete removes the macro named by id, trigger or alias. A missing macro is
// reported as false with a nil error.
func (s *MacroStore) Delete(ctx context.Context, identifier string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ns, err := s.reloadLocked(ctx)
	if err != nil {
		return false, err
	}

	macro, ok := ns.LookupMacro(identifier)
	if !ok {
		return false, nil
	}

	removed, err := s.repo.Delete(ctx, macro.ID)
	if err != nil {
		return false, fmt.Errorf("delete macro: %w", err)
	}

	s.snapshot.Store(ns.withoutMacro(macro.ID))
	if removed {
		s.logger.Info("macro deleted", zap.String("id", string(macro.ID)), zap.String("trigger", macro.Trigger))
	}

	return removed, nil
}

func (s *MacroStore) Rename(ctx context.Context, identifier string, newTrigger string) (domain.Macro, error) {
	trigger := domain.NormalizePhrase(newTrigger)
	if trigger == "" {
		return domain.Macro{}, domain.ErrEmptyPhrase
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ns, err := s.reloadLocked(ctx)
	if err != nil {
		return domain.Macro{}, err
	}

	macro, ok := ns.LookupMacro(identifier)
	if !ok {
		return domain.Macro{}, fmt.Errorf("%w: %q", domain.ErrMacroNotFound, identifier)
	}

	updated := macro.Clone()
	updated.Trigger = trigger
	if err := ns.Conflicts(macro.ID, updated.AllAliases()...); err != nil {
		return domain.Macro{}, err
	}

	if err := s.repo.Update(ctx, updated); err != nil {
		return domain.Macro{}, fmt.Errorf("persist renamed macro: %w", err)
	}

	s.snapshot.Store(ns.withoutMacro(macro.ID).withMacro(updated))

	return updated, nil
}

// RecordUse bumps the usage statistics of a macro.
func (s *MacroStore) RecordUse(ctx context.Context, id domain.MacroID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ns := s.snapshot.Load()
	macro, ok := ns.Macro(id)
	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrMacroNotFound, id)
	}

	macro.UseCount++
	macro.LastUsed = s.clock.Now().UTC()
	if err := s.repo.Update(ctx, macro); err != nil {
		return fmt.Errorf("persist macro usage: %w", err)
	}

	s.snapshot.Store(ns.withoutMacro(id).withMacro(macro))

	return nil
}

// List yields macros in creation order. Every range walks the namespace that
// is current when the range starts, so the sequence can be restarted.
func (s *MacroStore) List() iter.Seq[domain.Macro] {
	return func(yield func(domain.Macro) bool) {
		ns := s.snapshot.Load()
		for _, macro := range ns.macros {
			if !yield(macro.Clone()) {
				return
			}
		}
	}
}

func (s *MacroStore) FindByAlias(phrase string) (domain.Macro, bool) {
	ns := s.snapshot.Load()
	owner, ok := ns.Owner(phrase)
	if !ok || owner.Kind != domain.OwnerMacro {
		return domain.Macro{}, false
	}

	return ns.Macro(owner.MacroID)
}

func (s *MacroStore) Get(id domain.MacroID) (domain.Macro, bool) {
	return s.snapshot.Load().Macro(id)
}

func (s *MacroStore) Lookup(identifier string) (domain.Macro, bool) {
	return s.snapshot.Load().LookupMacro(identifier)
}

func (s *MacroStore) Namespace() *AliasNamespace {
	return s.snapshot.Load()
}

func (s *MacroStore) Limit() int {
	return s.limit
}

func (s *MacroStore) reloadLocked(ctx context.Context) (*AliasNamespace, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	macros, err := s.repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load macros: %w", err)
	}

	ns, conflicts := s.base.withMacros(macros)
	for _, conflict := range conflicts {
		s.logger.Warn("skipping stored macro", zap.Error(conflict))
	}
	s.snapshot.Store(ns)

	return ns, nil
}

func (s *MacroStore) newMacro(spec MacroSpec) (domain.Macro, error) {
	trigger := domain.NormalizePhrase(spec.Trigger)
	if trigger == "" {
		return domain.Macro{}, domain.ErrEmptyPhrase
	}

	aliases := make([]string, 0, len(spec.Aliases))
	for _, alias := range spec.Aliases {
		if normalized := domain.NormalizePhrase(alias); normalized != "" && normalized != trigger {
			aliases = append(aliases, normalized)
		}
	}

	macro := domain.Macro{
		ID:        s.newID(),
		Trigger:   trigger,
		Keys:      append([]string(nil), spec.Keys...),
		Kind:      spec.Kind,
		Duration:  spec.Duration,
		Aliases:   aliases,
		Response:  spec.Response,
		CreatedAt: s.clock.Now().UTC(),
	}
	if err := macro.Validate(); err != nil {
		return domain.Macro{}, err
	}
	if err := domain.CheckHold(macro.Duration, s.maxHold); err != nil {
		return domain.Macro{}, err
	}

	return macro, nil
}

package application

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bnema/roland/internal/domain"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testEpoch = time.Date(2026, 10, 19, 20, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: testEpoch}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// memoryRepo mirrors the file backends: trigger phrases are unique and every
// call honors a canceled context.
type memoryRepo struct {
	mu     sync.Mutex
	macros []domain.Macro
}

func (r *memoryRepo) Load(ctx context.Context) ([]domain.Macro, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.Macro, 0, len(r.macros))
	for _, macro := range r.macros {
		out = append(out, macro.Clone())
	}
	return out, nil
}

func (r *memoryRepo) Insert(ctx context.Context, macro domain.Macro) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.macros {
		if existing.Trigger == macro.Trigger {
			return &domain.AliasConflictError{Alias: macro.Trigger, OwnerKind: domain.OwnerMacro, OwnerName: existing.Trigger}
		}
	}
	r.macros = append(r.macros, macro.Clone())
	return nil
}

func (r *memoryRepo) Update(ctx context.Context, macro domain.Macro) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.macros {
		if r.macros[i].ID == macro.ID {
			r.macros[i] = macro.Clone()
			return nil
		}
	}
	return fmt.Errorf("%w: %q", domain.ErrMacroNotFound, macro.ID)
}

func (r *memoryRepo) Delete(ctx context.Context, id domain.MacroID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.macros {
		if r.macros[i].ID == id {
			r.macros = append(r.macros[:i], r.macros[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryRepo) Close() error {
	return nil
}

func (r *memoryRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.macros)
}

func testBuiltins() []domain.KeybindAction {
	return []domain.KeybindAction{
		{
			Name:     "landing_gear",
			Category: "flight",
			Keys:     []string{"n"},
			Kind:     domain.ActionPress,
			Aliases:  []string{"landing gear", "lower the landing gear", "gear down"},
			Response: "Landing gear deployed, Commander.",
		},
		{
			Name:     "flight_ready",
			Category: "flight",
			Keys:     []string{"r"},
			Kind:     domain.ActionPress,
			Aliases:  []string{"flight ready", "power up the ship"},
		},
		{
			Name:     "quantum_drive",
			Category: "flight",
			Keys:     []string{"b"},
			Kind:     domain.ActionHold,
			Duration: 800 * time.Millisecond,
			Aliases:  []string{"quantum drive", "engage quantum drive"},
		},
		{
			Name:     "request_landing",
			Category: "flight",
			Keys:     []string{"ctrl", "n"},
			Kind:     domain.ActionCombo,
			Aliases:  []string{"request landing"},
		},
	}
}

func sequentialIDs() func() domain.MacroID {
	var (
		mu   sync.Mutex
		next int
	)
	return func() domain.MacroID {
		mu.Lock()
		defer mu.Unlock()
		next++
		return domain.MacroID(fmt.Sprintf("m-%d", next))
	}
}

// tickingClock advances a little on every read so macros created back to
// back get distinct creation times.
type tickingClock struct {
	*fakeClock
}

func (c tickingClock) Now() time.Time {
	c.fakeClock.Advance(time.Millisecond)
	return c.fakeClock.Now()
}

func newTestStore(t *testing.T, repo *memoryRepo, opts MacroStoreOptions) *MacroStore {
	t.Helper()

	if opts.Clock == nil {
		opts.Clock = tickingClock{newFakeClock()}
	}
	if opts.NewID == nil {
		opts.NewID = sequentialIDs()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	store, err := NewMacroStore(repo, testBuiltins(), opts)
	require.NoError(t, err)
	require.NoError(t, store.Load(context.Background()))
	return store
}

func mustCreate(t *testing.T, store *MacroStore, trigger string, keys ...string) domain.Macro {
	t.Helper()

	kind := domain.ActionPress
	if len(keys) > 1 {
		kind = domain.ActionCombo
	}
	macro, err := store.Create(context.Background(), MacroSpec{Trigger: trigger, Keys: keys, Kind: kind})
	require.NoError(t, err)
	return macro
}

func mockAnyContext() interface{} {
	return mock.Anything
}

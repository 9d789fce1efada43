// Package repotest holds the behaviour every macro repository backend must
// share.
package repotest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bnema/roland/internal/domain"
	"github.com/bnema/roland/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Opener opens the repository stored at path. Calling it twice with the same
// path must reach the same data.
type Opener func(t *testing.T, path string) ports.MacroRepository

func Fixture(id, trigger string, createdAt time.Time) domain.Macro {
	return domain.Macro{
		ID:        domain.MacroID(id),
		Trigger:   trigger,
		Keys:      []string{"c"},
		Kind:      domain.ActionPress,
		CreatedAt: createdAt,
	}
}

func Run(t *testing.T, path func(t *testing.T) string, open Opener) {
	t.Helper()
	base := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	t.Run("empty load", func(t *testing.T) {
		repo := open(t, path(t))

		macros, err := repo.Load(context.Background())
		require.NoError(t, err)
		assert.Empty(t, macros)
	})

	t.Run("insert round trip", func(t *testing.T) {
		repo := open(t, path(t))
		macro := domain.Macro{
			ID:        "m-1",
			Trigger:   "quick eject",
			Keys:      []string{"alt", "y"},
			Kind:      domain.ActionHold,
			Duration:  1500 * time.Millisecond,
			Aliases:   []string{"bail out"},
			Response:  "Ejecting, Commander.",
			CreatedAt: base,
			LastUsed:  base.Add(time.Minute),
			UseCount:  3,
		}

		require.NoError(t, repo.Insert(context.Background(), macro))

		macros, err := repo.Load(context.Background())
		require.NoError(t, err)
		require.Len(t, macros, 1)
		assert.Equal(t, macro, macros[0])
	})

	t.Run("persists across reopen", func(t *testing.T) {
		location := path(t)
		first := open(t, location)
		require.NoError(t, first.Insert(context.Background(), Fixture("m-1", "panic mode", base)))
		require.NoError(t, first.Close())

		second := open(t, location)
		macros, err := second.Load(context.Background())
		require.NoError(t, err)
		require.Len(t, macros, 1)
		assert.Equal(t, "panic mode", macros[0].Trigger)
	})

	t.Run("duplicate trigger is a conflict", func(t *testing.T) {
		repo := open(t, path(t))
		require.NoError(t, repo.Insert(context.Background(), Fixture("m-1", "boost", base)))

		err := repo.Insert(context.Background(), Fixture("m-2", "boost", base.Add(time.Second)))
		require.ErrorIs(t, err, domain.ErrAliasConflict)

		macros, err := repo.Load(context.Background())
		require.NoError(t, err)
		assert.Len(t, macros, 1)
	})

	t.Run("update", func(t *testing.T) {
		repo := open(t, path(t))
		macro := Fixture("m-1", "boost", base)
		require.NoError(t, repo.Insert(context.Background(), macro))

		macro.Trigger = "afterburner"
		macro.UseCount = 7
		require.NoError(t, repo.Update(context.Background(), macro))

		macros, err := repo.Load(context.Background())
		require.NoError(t, err)
		require.Len(t, macros, 1)
		assert.Equal(t, "afterburner", macros[0].Trigger)
		assert.Equal(t, 7, macros[0].UseCount)

		missing := Fixture("m-404", "ghost", base)
		require.ErrorIs(t, repo.Update(context.Background(), missing), domain.ErrMacroNotFound)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		repo := open(t, path(t))
		require.NoError(t, repo.Insert(context.Background(), Fixture("m-1", "boost", base)))
		require.NoError(t, repo.Insert(context.Background(), Fixture("m-2", "boosted", base.Add(time.Second))))

		removed, err := repo.Delete(context.Background(), "m-1")
		require.NoError(t, err)
		assert.True(t, removed)

		removed, err = repo.Delete(context.Background(), "m-1")
		require.NoError(t, err)
		assert.False(t, removed)

		macros, err := repo.Load(context.Background())
		require.NoError(t, err)
		require.Len(t, macros, 1)
		assert.Equal(t, domain.MacroID("m-2"), macros[0].ID)
	})

	t.Run("canceled context", func(t *testing.T) {
		repo := open(t, path(t))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		require.ErrorIs(t, repo.Insert(ctx, Fixture("m-1", "boost", base)), context.Canceled)
	})

	t.Run("concurrent inserts", func(t *testing.T) {
		repo := open(t, path(t))

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				id := string(rune('a' + i))
				assert.NoError(t, repo.Insert(context.Background(), Fixture("m-"+id, "macro "+id, base.Add(time.Duration(i)*time.Second))))
			}(i)
		}
		wg.Wait()

		macros, err := repo.Load(context.Background())
		require.NoError(t, err)
		assert.Len(t, macros, 8)
	})
}

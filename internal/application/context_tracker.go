package application

import (
	"sync/atomic"
	"time"

	"github.com/bnema/roland/internal/domain"
	"github.com/bnema/roland/internal/ports"
)

const DefaultContextTTL = 10 * time.Second

// ContextTracker remembers the last executed action for "do that again".
// The entry is swapped atomically so concurrent dispatches stay safe.
type ContextTracker struct {
	ttl   time.Duration
	clock ports.Clock
	entry atomic.Pointer[domain.ContextEntry]
}

func NewContextTracker(ttl time.Duration, clock ports.Clock) *ContextTracker {
	if ttl <= 0 {
		ttl = DefaultContextTTL
	}
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &ContextTracker{ttl: ttl, clock: clock}
}

func (t *ContextTracker) Record(action domain.ActionRef) {
	t.entry.Store(&domain.ContextEntry{
		Action:      action.Clone(),
		ExpressedAt: t.clock.Now(),
		TTL:         t.ttl,
	})
}

func (t *ContextTracker) Recall() (domain.ActionRef, bool) {
	entry := t.entry.Load()
	if entry == nil || !entry.Live(t.clock.Now()) {
		return domain.ActionRef{}, false
	}

	return entry.Action.Clone(), true
}

func (t *ContextTracker) Clear() {
	t.entry.Store(nil)
}

func (t *ContextTracker) TTL() time.Duration {
	return t.ttl
}

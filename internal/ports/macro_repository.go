package ports

import (
	"context"

	"github.com/bnema/roland/internal/domain"
)

// MacroRepository is the durable record of user macros. Every mutating call
// must be committed to storage before it returns nil.
type MacroRepository interface {
	Load(ctx context.Context) ([]domain.Macro, error)
	Insert(ctx context.Context, macro domain.Macro) error
	Update(ctx context.Context, macro domain.Macro) error
	Delete(ctx context.Context, id domain.MacroID) (bool, error)
	Close() error
}

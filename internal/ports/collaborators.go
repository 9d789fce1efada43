package ports

import (
	"context"

	"github.com/bnema/roland/internal/domain"
)

// Suggester asks the language model for a structured hint. A nil suggestion
// with a nil error means the model had nothing useful to say.
type Suggester interface {
	Suggest(ctx context.Context, transcript string) (*domain.Suggestion, error)
}

type KeyInjector interface {
	Inject(ctx context.Context, action domain.ActionRef) error
}

type Speaker interface {
	Speak(ctx context.Context, text string) error
}

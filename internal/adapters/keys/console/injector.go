// Package console prints actions instead of pressing keys. It backs dry runs
// and machines without an input device.
package console

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/bnema/roland/internal/domain"
	"github.com/bnema/roland/internal/ports"
)

type Injector struct {
	mu  sync.Mutex
	out io.Writer
}

var _ ports.KeyInjector = (*Injector)(nil)

func NewInjector(out io.Writer) *Injector {
	return &Injector{out: out}
}

func (i *Injector) Inject(ctx context.Context, action domain.ActionRef) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := domain.ValidateKeys(action.Kind, action.Keys); err != nil {
		return err
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	if _, err := fmt.Fprintf(i.out, "[keys] %s\n", action); err != nil {
		return fmt.Errorf("write action: %w", err)
	}
	return nil
}

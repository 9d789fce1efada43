//go:build !linux

package keybd

import (
	"context"
	"fmt"
	"runtime"

	"github.com/bnema/roland/internal/adapters/keys"
	"github.com/bnema/roland/internal/domain"
)

type Injector struct{}

func NewInjector(context.Context, keys.Timing) (*Injector, error) {
	return nil, fmt.Errorf("%w on %s", ErrUnavailable, runtime.GOOS)
}

func (*Injector) Inject(context.Context, domain.ActionRef) error {
	return ErrUnavailable
}

package domain

import (
	"errors"
	"fmt"
)

var (
	ErrAliasConflict     = errors.New("alias conflict")
	ErrEmptyPhrase       = errors.New("empty phrase")
	ErrUnparseableAction = errors.New("unparseable action")
	ErrUnknownKey        = errors.New("unknown key")
	ErrInvalidActionKind = errors.New("invalid action kind")
	ErrMacroNotFound     = errors.New("macro not found")
	ErrMacroLimit        = errors.New("macro limit reached")
)

type OwnerKind string

const (
	OwnerBuiltin  OwnerKind = "builtin"
	OwnerMacro    OwnerKind = "macro"
	OwnerReserved OwnerKind = "reserved"
)

// AliasConflictError names the alias that collided and who already owns it.
type AliasConflictError struct {
	Alias     string
	OwnerKind OwnerKind
	OwnerName string
}

func (e *AliasConflictError) Error() string {
	return fmt.Sprintf("alias %q already used by %s %q", e.Alias, e.OwnerKind, e.OwnerName)
}

func (e *AliasConflictError) Is(target error) bool {
	return target == ErrAliasConflict
}

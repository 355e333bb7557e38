package persona

import (
	"context"
	"errors"
)

// ErrNotFound is returned by a Store when no persona has the given id.
var ErrNotFound = errors.New("persona not found")

// Store persists custom personas.
type Store interface {
	Save(ctx context.Context, p Persona) error
	Get(ctx context.Context, id string) (Persona, error)
	List(ctx context.Context) ([]Persona, error)
	Delete(ctx context.Context, id string) error
}

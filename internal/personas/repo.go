package personas

import (
	"context"
	"errors"
)

// ErrNotFound indicates an unknown persona id.
var ErrNotFound = errors.New("persona not found")

// Repo provides read access to the persona catalog.
type Repo interface {
	List(ctx context.Context) ([]Persona, error)
	GetByID(ctx context.Context, id string) (Persona, error)
}

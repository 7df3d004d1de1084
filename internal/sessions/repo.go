package sessions

import (
	"context"
	"errors"
)

// ErrNotFound indicates a session that does not exist or belongs to another
// user.
var ErrNotFound = errors.New("session not found")

// Repo defines persistence operations for interview sessions. All reads and
// writes are scoped to the owning user.
type Repo interface {
	Create(ctx context.Context, s Session) error
	GetByID(ctx context.Context, userID, sessionID string) (Session, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Session, error)
	Update(ctx context.Context, s Session) error
	DeleteByUser(ctx context.Context, userID string) error
}

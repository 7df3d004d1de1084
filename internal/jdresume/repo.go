package jdresume

import (
	"context"
	"errors"
)

// ErrNotFound indicates the user has not saved a JD/resume pair yet.
var ErrNotFound = errors.New("jd/resume text not found")

// Repo persists one JD/resume text pair per user.
type Repo interface {
	GetByUser(ctx context.Context, userID string) (JdResumeText, error)
	Upsert(ctx context.Context, rec JdResumeText) (JdResumeText, error)
	DeleteByUser(ctx context.Context, userID string) error
}

package jdresume

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]JdResumeText // userId -> pair
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]JdResumeText)}
}

// GetByUser returns the user's JD/resume pair.
func (r *MemoryRepo) GetByUser(ctx context.Context, userID string) (JdResumeText, error) {
	if err := ctx.Err(); err != nil {
		return JdResumeText{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.data[userID]
	if !ok {
		return JdResumeText{}, ErrNotFound
	}
	return rec, nil
}

// Upsert inserts or replaces the user's pair and returns the stored row.
func (r *MemoryRepo) Upsert(ctx context.Context, rec JdResumeText) (JdResumeText, error) {
	if err := ctx.Err(); err != nil {
		return JdResumeText{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	if existing, ok := r.data[rec.UserID]; ok {
		existing.JdText = rec.JdText
		existing.ResumeText = rec.ResumeText
		existing.UpdatedAt = now
		r.data[rec.UserID] = existing
		return existing, nil
	}
	rec.CreatedAt = now
	rec.UpdatedAt = now
	r.data[rec.UserID] = rec
	return rec, nil
}

// DeleteByUser removes the user's pair.
func (r *MemoryRepo) DeleteByUser(ctx context.Context, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.data, userID)
	return nil
}

// ClaimGuest moves a guest's pair to an authenticated user. A pair the
// authenticated user already saved wins; the guest row goes away either way.
func (r *MemoryRepo) ClaimGuest(ctx context.Context, guestUserID, authedUserID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.data[guestUserID]
	if !ok {
		return 0, nil
	}
	delete(r.data, guestUserID)
	if _, taken := r.data[authedUserID]; taken {
		return 0, nil
	}
	rec.UserID = authedUserID
	rec.UpdatedAt = time.Now().UTC()
	r.data[authedUserID] = rec
	return 1, nil
}

var _ Repo = (*MemoryRepo)(nil)

package jdresume

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PGRepo is a Postgres-backed Repo.
type PGRepo struct {
	DB *sql.DB
}

// NewPGRepo constructs a PGRepo.
func NewPGRepo(db *sql.DB) *PGRepo {
	return &PGRepo{DB: db}
}

// GetByUser returns the user's JD/resume pair.
func (r *PGRepo) GetByUser(ctx context.Context, userID string) (JdResumeText, error) {
	const query = `
SELECT id, user_id, jd_text, resume_text, created_at, updated_at
FROM jd_resume_texts
WHERE user_id = $1
LIMIT 1`
	var rec JdResumeText
	err := r.DB.QueryRowContext(ctx, query, userID).Scan(
		&rec.ID,
		&rec.UserID,
		&rec.JdText,
		&rec.ResumeText,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return JdResumeText{}, ErrNotFound
		}
		return JdResumeText{}, fmt.Errorf("get jd/resume: %w", err)
	}
	return rec, nil
}

// Upsert inserts or replaces the user's pair and returns the stored row.
// The user_id unique constraint keeps it to one pair per user.
func (r *PGRepo) Upsert(ctx context.Context, rec JdResumeText) (JdResumeText, error) {
	const query = `
INSERT INTO jd_resume_texts (id, user_id, jd_text, resume_text, created_at, updated_at)
VALUES ($1, $2, $3, $4, now(), now())
ON CONFLICT (user_id) DO UPDATE SET
  jd_text = EXCLUDED.jd_text,
  resume_text = EXCLUDED.resume_text,
  updated_at = now()
RETURNING id, user_id, jd_text, resume_text, created_at, updated_at`
	var out JdResumeText
	err := r.DB.QueryRowContext(ctx, query,
		rec.ID,
		rec.UserID,
		rec.JdText,
		rec.ResumeText,
	).Scan(
		&out.ID,
		&out.UserID,
		&out.JdText,
		&out.ResumeText,
		&out.CreatedAt,
		&out.UpdatedAt,
	)
	if err != nil {
		return JdResumeText{}, fmt.Errorf("upsert jd/resume: %w", err)
	}
	return out, nil
}

// DeleteByUser removes the user's pair. Missing rows are not an error.
func (r *PGRepo) DeleteByUser(ctx context.Context, userID string) error {
	const query = `DELETE FROM jd_resume_texts WHERE user_id = $1`
	if _, err := r.DB.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("delete jd/resume: %w", err)
	}
	return nil
}

// ClaimGuest moves a guest's pair to an authenticated user. A pair the
// authenticated user already saved wins; the guest row goes away either way.
func (r *PGRepo) ClaimGuest(ctx context.Context, guestUserID, authedUserID string) (int, error) {
	const move = `
UPDATE jd_resume_texts
SET user_id = $1, updated_at = now()
WHERE user_id = $2
  AND NOT EXISTS (SELECT 1 FROM jd_resume_texts WHERE user_id = $1)`
	res, err := r.DB.ExecContext(ctx, move, authedUserID, guestUserID)
	if err != nil {
		return 0, fmt.Errorf("claim jd/resume: %w", err)
	}
	moved, _ := res.RowsAffected()
	if _, err := r.DB.ExecContext(ctx, `DELETE FROM jd_resume_texts WHERE user_id = $1`, guestUserID); err != nil {
		return 0, fmt.Errorf("claim jd/resume cleanup: %w", err)
	}
	return int(moved), nil
}

var _ Repo = (*PGRepo)(nil)

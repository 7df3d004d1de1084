package sessions

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// PGRepo implements Repo using Postgres. Segments and the cached assessment
// are stored as jsonb.
type PGRepo struct {
	DB *sql.DB
}

// NewPGRepo constructs a PGRepo.
func NewPGRepo(db *sql.DB) *PGRepo {
	return &PGRepo{DB: db}
}

// Create inserts a new session.
func (r *PGRepo) Create(ctx context.Context, s Session) error {
	const query = `
INSERT INTO interview_sessions (
	id, user_id, persona_id, jd_resume_id, duration_in_seconds,
	start_time, end_time, current_question_index, question_segments,
	overall_assessment, created_at, updated_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), now())`

	segments, err := marshalSegments(s.QuestionSegments)
	if err != nil {
		return err
	}
	assessment, err := marshalAssessment(s.OverallAssessment)
	if err != nil {
		return err
	}

	_, err = r.DB.ExecContext(ctx, query,
		s.ID,
		s.UserID,
		s.PersonaID,
		s.JdResumeID,
		s.DurationInSeconds,
		s.StartTime,
		nullableTime(s.EndTime),
		s.CurrentQuestionIndex,
		segments,
		assessment,
	)
	return err
}

// GetByID returns a session by id for a user.
func (r *PGRepo) GetByID(ctx context.Context, userID, sessionID string) (Session, error) {
	const query = `
SELECT id, user_id, persona_id, jd_resume_id, duration_in_seconds,
       start_time, end_time, current_question_index, question_segments,
       overall_assessment, created_at, updated_at
FROM interview_sessions
WHERE id = $1 AND user_id = $2
LIMIT 1`
	s, err := scanSession(r.DB.QueryRowContext(ctx, query, sessionID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, ErrNotFound
		}
		return Session{}, err
	}
	return s, nil
}

// ListByUser lists sessions for a user ordered newest-first.
func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Session, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	const query = `
SELECT id, user_id, persona_id, jd_resume_id, duration_in_seconds,
       start_time, end_time, current_question_index, question_segments,
       overall_assessment, created_at, updated_at
FROM interview_sessions
WHERE user_id = $1
ORDER BY start_time DESC
LIMIT $2 OFFSET $3`

	rows, err := r.DB.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Update persists the mutable session fields.
func (r *PGRepo) Update(ctx context.Context, s Session) error {
	const query = `
UPDATE interview_sessions
SET duration_in_seconds = $1,
    end_time = $2,
    current_question_index = $3,
    question_segments = $4::jsonb,
    overall_assessment = $5::jsonb,
    updated_at = now()
WHERE id = $6 AND user_id = $7`

	segments, err := marshalSegments(s.QuestionSegments)
	if err != nil {
		return err
	}
	assessment, err := marshalAssessment(s.OverallAssessment)
	if err != nil {
		return err
	}

	res, err := r.DB.ExecContext(ctx, query,
		s.DurationInSeconds,
		nullableTime(s.EndTime),
		s.CurrentQuestionIndex,
		segments,
		assessment,
		s.ID,
		s.UserID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByUser removes all sessions for a user.
func (r *PGRepo) DeleteByUser(ctx context.Context, userID string) error {
	const query = `DELETE FROM interview_sessions WHERE user_id = $1`
	_, err := r.DB.ExecContext(ctx, query, userID)
	return err
}

// ClaimGuest reassigns sessions owned by a guest user to an authenticated user.
func (r *PGRepo) ClaimGuest(ctx context.Context, guestUserID, authedUserID string) (int, error) {
	const query = `
UPDATE interview_sessions
SET user_id = $1, updated_at = now()
WHERE user_id = $2`
	res, err := r.DB.ExecContext(ctx, query, authedUserID, guestUserID)
	if err != nil {
		return 0, err
	}
	updated, _ := res.RowsAffected()
	return int(updated), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (Session, error) {
	var s Session
	var endTime sql.NullTime
	var segments []byte
	var assessment sql.NullString
	if err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.PersonaID,
		&s.JdResumeID,
		&s.DurationInSeconds,
		&s.StartTime,
		&endTime,
		&s.CurrentQuestionIndex,
		&segments,
		&assessment,
		&s.CreatedAt,
		&s.UpdatedAt,
	); err != nil {
		return Session{}, err
	}
	if endTime.Valid {
		s.EndTime = &endTime.Time
	}
	if len(segments) > 0 {
		if err := json.Unmarshal(segments, &s.QuestionSegments); err != nil {
			return Session{}, err
		}
	}
	if assessment.Valid && assessment.String != "" {
		var a OverallAssessment
		if err := json.Unmarshal([]byte(assessment.String), &a); err != nil {
			return Session{}, err
		}
		s.OverallAssessment = &a
	}
	return s, nil
}

func marshalSegments(segments []QuestionSegment) ([]byte, error) {
	if segments == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(segments)
}

func marshalAssessment(a *OverallAssessment) (any, error) {
	if a == nil {
		return nil, nil
	}
	payload, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return payload, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

var _ Repo = (*PGRepo)(nil)

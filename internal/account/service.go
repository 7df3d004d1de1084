package account

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"interview-backend/internal/jdresume"
	"interview-backend/internal/sessions"
	"interview-backend/internal/shared/telemetry"
	"interview-backend/internal/usage"
	"interview-backend/internal/users"
)

type Service struct {
	SessionsRepo sessions.Repo
	JdResumeRepo jdresume.Repo
	Users        *users.Service
	Usage        *usage.Service
}

type ClaimResult struct {
	MigratedSessions int `json:"migratedSessions"`
	MigratedJdResume int `json:"migratedJdResume"`
}

func NewService(sessionsRepo sessions.Repo, jdResumeRepo jdresume.Repo) *Service {
	return &Service{SessionsRepo: sessionsRepo, JdResumeRepo: jdResumeRepo}
}

func (s *Service) ClaimGuest(ctx context.Context, guestUserID, authedUserID string) (ClaimResult, error) {
	if strings.TrimSpace(guestUserID) == "" || strings.TrimSpace(authedUserID) == "" {
		return ClaimResult{}, errors.New("guestUserID and authedUserID are required")
	}

	if sessPG, ok := s.SessionsRepo.(*sessions.PGRepo); ok && sessPG != nil && sessPG.DB != nil {
		if jdPG, ok := s.JdResumeRepo.(*jdresume.PGRepo); ok && jdPG != nil && jdPG.DB != nil {
			return claimWithTx(ctx, sessPG.DB, guestUserID, authedUserID)
		}
	}

	sessionCount, err := claimSessions(ctx, s.SessionsRepo, guestUserID, authedUserID)
	if err != nil {
		return ClaimResult{}, err
	}
	jdCount, err := claimJdResume(ctx, s.JdResumeRepo, guestUserID, authedUserID)
	if err != nil {
		return ClaimResult{}, err
	}
	return ClaimResult{MigratedSessions: sessionCount, MigratedJdResume: jdCount}, nil
}

// DeleteAccount removes everything stored for a user: sessions, the saved
// JD/resume pair, the usage row, and the identity itself.
func (s *Service) DeleteAccount(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return errors.New("userID is required")
	}
	if err := s.SessionsRepo.DeleteByUser(ctx, userID); err != nil {
		return err
	}
	if err := s.JdResumeRepo.DeleteByUser(ctx, userID); err != nil {
		return err
	}
	if s.Usage != nil {
		if err := s.Usage.Delete(ctx, userID); err != nil {
			return err
		}
	}
	if s.Users != nil {
		if err := s.Users.Delete(ctx, userID); err != nil {
			return err
		}
	}
	telemetry.Info("account.deleted", map[string]any{"user_id": userID})
	return nil
}

func claimWithTx(ctx context.Context, db *sql.DB, guestUserID, authedUserID string) (ClaimResult, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return ClaimResult{}, err
	}
	defer tx.Rollback()

	sessRes, err := tx.ExecContext(ctx, `UPDATE interview_sessions SET user_id = $1, updated_at = now() WHERE user_id = $2`, authedUserID, guestUserID)
	if err != nil {
		return ClaimResult{}, err
	}
	sessionCount, _ := sessRes.RowsAffected()

	// The guest's pair only moves when the signed-in user has none saved.
	jdRes, err := tx.ExecContext(ctx, `
UPDATE jd_resume_texts
SET user_id = $1, updated_at = now()
WHERE user_id = $2
  AND NOT EXISTS (SELECT 1 FROM jd_resume_texts WHERE user_id = $1)`, authedUserID, guestUserID)
	if err != nil {
		return ClaimResult{}, err
	}
	jdCount, _ := jdRes.RowsAffected()

	if _, err := tx.ExecContext(ctx, `DELETE FROM jd_resume_texts WHERE user_id = $1`, guestUserID); err != nil {
		return ClaimResult{}, err
	}

	if err := tx.Commit(); err != nil {
		return ClaimResult{}, err
	}
	return ClaimResult{MigratedSessions: int(sessionCount), MigratedJdResume: int(jdCount)}, nil
}

type guestSessionClaimer interface {
	ClaimGuest(ctx context.Context, guestUserID, authedUserID string) (int, error)
}

type guestJdResumeClaimer interface {
	ClaimGuest(ctx context.Context, guestUserID, authedUserID string) (int, error)
}

func claimSessions(ctx context.Context, repo sessions.Repo, guestUserID, authedUserID string) (int, error) {
	if claimer, ok := repo.(guestSessionClaimer); ok {
		return claimer.ClaimGuest(ctx, guestUserID, authedUserID)
	}
	return 0, errors.New("sessions repo does not support claim")
}

func claimJdResume(ctx context.Context, repo jdresume.Repo, guestUserID, authedUserID string) (int, error) {
	if claimer, ok := repo.(guestJdResumeClaimer); ok {
		return claimer.ClaimGuest(ctx, guestUserID, authedUserID)
	}
	return 0, errors.New("jd/resume repo does not support claim")
}

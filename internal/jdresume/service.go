package jdresume

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"interview-backend/internal/extract"
)

// ErrInvalidInput indicates a validation failure on caller-supplied text.
var ErrInvalidInput = errors.New("invalid input")

// Both texts end up inside the interview prompt, so keep them bounded.
const maxTextBytes = 100 << 10 // 100KB per field

// UploadTargetJd and UploadTargetResume select which field a file upload fills.
const (
	UploadTargetJd     = "jd"
	UploadTargetResume = "resume"
)

// Service contains business logic for the JD/resume pair.
type Service struct {
	Repo Repo
}

// NewService constructs a Service.
func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

// Get returns the user's saved pair.
func (s *Service) Get(ctx context.Context, userID string) (JdResumeText, error) {
	if s == nil || s.Repo == nil {
		return JdResumeText{}, errors.New("jdresume service not configured")
	}
	if userID == "" {
		return JdResumeText{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	return s.Repo.GetByUser(ctx, userID)
}

// Save replaces both texts for the user. Both must be non-empty since an
// interview cannot start without them.
func (s *Service) Save(ctx context.Context, userID, jdText, resumeText string) (JdResumeText, error) {
	if s == nil || s.Repo == nil {
		return JdResumeText{}, errors.New("jdresume service not configured")
	}
	if userID == "" {
		return JdResumeText{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}

	jdText = strings.TrimSpace(jdText)
	resumeText = strings.TrimSpace(resumeText)
	if jdText == "" {
		return JdResumeText{}, fmt.Errorf("%w: jdText is required", ErrInvalidInput)
	}
	if resumeText == "" {
		return JdResumeText{}, fmt.Errorf("%w: resumeText is required", ErrInvalidInput)
	}
	if len(jdText) > maxTextBytes {
		return JdResumeText{}, fmt.Errorf("%w: jdText exceeds %d bytes", ErrInvalidInput, maxTextBytes)
	}
	if len(resumeText) > maxTextBytes {
		return JdResumeText{}, fmt.Errorf("%w: resumeText exceeds %d bytes", ErrInvalidInput, maxTextBytes)
	}

	return s.Repo.Upsert(ctx, JdResumeText{
		ID:         uuid.NewString(),
		UserID:     userID,
		JdText:     jdText,
		ResumeText: resumeText,
	})
}

// ApplyUpload extracts text from an uploaded file and fills one field of the
// pair, preserving the other field if a pair already exists.
func (s *Service) ApplyUpload(ctx context.Context, userID, target, fileName, mimeType string, data []byte) (JdResumeText, error) {
	if s == nil || s.Repo == nil {
		return JdResumeText{}, errors.New("jdresume service not configured")
	}
	if userID == "" {
		return JdResumeText{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if target != UploadTargetJd && target != UploadTargetResume {
		return JdResumeText{}, fmt.Errorf("%w: target must be %q or %q", ErrInvalidInput, UploadTargetJd, UploadTargetResume)
	}

	text, err := extract.ExtractTextFromBytes(ctx, data, mimeType, fileName)
	if err != nil {
		return JdResumeText{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return JdResumeText{}, fmt.Errorf("%w: no text could be extracted from %s", ErrInvalidInput, fileName)
	}
	if len(text) > maxTextBytes {
		return JdResumeText{}, fmt.Errorf("%w: extracted text exceeds %d bytes", ErrInvalidInput, maxTextBytes)
	}

	rec, err := s.Repo.GetByUser(ctx, userID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return JdResumeText{}, err
		}
		rec = JdResumeText{ID: uuid.NewString(), UserID: userID}
	}

	switch target {
	case UploadTargetJd:
		rec.JdText = text
	case UploadTargetResume:
		rec.ResumeText = text
	}

	return s.Repo.Upsert(ctx, rec)
}

// DeleteForUser removes the stored pair, used by account deletion.
func (s *Service) DeleteForUser(ctx context.Context, userID string) error {
	if s == nil || s.Repo == nil {
		return errors.New("jdresume service not configured")
	}
	if userID == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	return s.Repo.DeleteByUser(ctx, userID)
}

package sessions

import "errors"

var (
	// ErrSessionEnded rejects turns against a session whose EndTime is set.
	ErrSessionEnded = errors.New("session already ended")
	// ErrEmptyAnswer rejects blank answer submissions.
	ErrEmptyAnswer = errors.New("answer text is required")
	// ErrNoOpeningQuestion indicates the model reply at session start carried
	// no question, so the interview cannot begin.
	ErrNoOpeningQuestion = errors.New("model did not produce an opening question")
	// ErrSessionStillActive indicates an assessment was requested for a
	// session that has not ended. Jobs for active sessions are unrecoverable.
	ErrSessionStillActive = errors.New("session still active")
	// ErrAssessmentInvalid indicates the model reply could not be parsed into
	// an assessment.
	ErrAssessmentInvalid = errors.New("assessment reply invalid")
)

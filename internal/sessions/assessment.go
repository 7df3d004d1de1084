package sessions

import (
	"context"
	"fmt"
	"strings"
	"time"

	"interview-backend/internal/interview"
	"interview-backend/internal/llm"
	"interview-backend/internal/shared/metrics"
	"interview-backend/internal/shared/telemetry"
)

const assessmentInstruction = `You are reviewing the full transcript of a simulated job interview. Write an overall assessment of the candidate's performance across all their answers.

Reply using exactly this tagged format and nothing else:

<SUMMARY>two or three sentences summarizing the overall performance</SUMMARY>
<STRENGTHS>
- one strength per line
</STRENGTHS>
<IMPROVEMENTS>
- one improvement area per line
</IMPROVEMENTS>`

// GenerateAssessment produces the overall assessment for an ended
// session and stores it on the session row. Safe to call repeatedly:
// a session that already carries an assessment is left untouched, so
// queue redeliveries are harmless.
func (s *Service) GenerateAssessment(ctx context.Context, userID, sessionID string) error {
	sess, err := s.Repo.GetByID(ctx, userID, sessionID)
	if err != nil {
		return err
	}
	if sess.Active() {
		return ErrSessionStillActive
	}
	if sess.OverallAssessment != nil {
		return nil
	}

	start := metrics.NowMillis()
	stream, err := s.LLM.GenerateStream(ctx, []llm.Content{
		{Role: llm.RoleUser, Text: buildAssessmentPrompt(sess)},
	})
	if err != nil {
		return fmt.Errorf("assessment model call: %w", err)
	}
	raw, err := llm.Collect(stream)
	if err != nil {
		return fmt.Errorf("assessment model call: %w", err)
	}

	summary := interview.ExtractTag(raw, "SUMMARY")
	if summary == "" {
		return fmt.Errorf("%w: reply carried no summary", ErrAssessmentInvalid)
	}

	sess.OverallAssessment = &OverallAssessment{
		Summary:      summary,
		Strengths:    splitBulletLines(interview.ExtractTag(raw, "STRENGTHS")),
		Improvements: splitBulletLines(interview.ExtractTag(raw, "IMPROVEMENTS")),
		GeneratedAt:  time.Now().UTC(),
	}
	if err := s.Repo.Update(ctx, sess); err != nil {
		return fmt.Errorf("save assessment: %w", err)
	}

	telemetry.Info("session.assessment_ready", map[string]any{
		"request_id":  requestIDFromContext(ctx),
		"user_id":     userID,
		"session_id":  sessionID,
		"strengths":   len(sess.OverallAssessment.Strengths),
		"duration_ms": metrics.NowMillis() - start,
	})
	return nil
}

// buildAssessmentPrompt renders the whole interview as a single user
// message: the reviewer instruction followed by the transcript laid out
// question by question.
func buildAssessmentPrompt(sess Session) string {
	var b strings.Builder
	b.WriteString(assessmentInstruction)
	b.WriteString("\n\nTranscript:\n\n")
	for _, seg := range sess.QuestionSegments {
		fmt.Fprintf(&b, "Question %d: %s\n", seg.QuestionNumber, seg.Question)
		for _, turn := range seg.Conversation {
			switch {
			case turn.Role == RoleUser:
				fmt.Fprintf(&b, "Candidate: %s\n", turn.Text)
			case turn.Analysis != "":
				fmt.Fprintf(&b, "Interviewer notes: %s\n", turn.Analysis)
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

// splitBulletLines turns a tag body into one entry per non-empty line,
// stripping a leading "- " bullet where present.
func splitBulletLines(body string) []string {
	var out []string
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimSpace(strings.TrimPrefix(line, "-"))
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

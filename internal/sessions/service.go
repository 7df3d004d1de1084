package sessions

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"interview-backend/internal/interview"
	"interview-backend/internal/jdresume"
	"interview-backend/internal/llm"
	"interview-backend/internal/personas"
	"interview-backend/internal/queue"
	"interview-backend/internal/shared/metrics"
	"interview-backend/internal/shared/telemetry"
	"interview-backend/internal/usage"
)

// kickoffMessage is the synthetic first user input. It never appears in
// the stored conversation; it only prompts the model to open with the
// first question.
const kickoffMessage = "Please begin the interview and ask your first question."

// Service owns the interview session lifecycle: creation, dialogue
// turns, completion and the overall assessment that follows.
type Service struct {
	Repo       Repo
	Personas   *personas.Service
	JdResume   *jdresume.Service
	Controller *interview.Controller

	// LLM handles the one-shot assessment call after a session ends.
	LLM llm.Client
	// Usage, when set, enforces the per-user session quota.
	Usage *usage.Service
	// Queue, when set, hands assessment jobs to the background worker.
	// Without it assessments are generated on an in-process goroutine.
	Queue queue.Client
}

// NewService constructs a Service. Usage and Queue are optional and are
// wired by the caller when configured.
func NewService(repo Repo, personasSvc *personas.Service, jdResumeSvc *jdresume.Service, ctrl *interview.Controller, llmClient llm.Client) *Service {
	return &Service{
		Repo:       repo,
		Personas:   personasSvc,
		JdResume:   jdResumeSvc,
		Controller: ctrl,
		LLM:        llmClient,
	}
}

// Create starts a new interview session for the user. The persona and a
// saved JD/resume pair must exist, and the quota (when enforced) must
// have room. The model's opening reply seeds the first question segment.
func (s *Service) Create(ctx context.Context, userID, personaID string) (Session, error) {
	persona, err := s.Personas.GetByID(ctx, personaID)
	if err != nil {
		return Session{}, err
	}
	jdRes, err := s.JdResume.Get(ctx, userID)
	if err != nil {
		return Session{}, err
	}

	if s.Usage != nil {
		ok, _, err := s.Usage.CanConsume(ctx, userID, 1)
		if err != nil {
			return Session{}, fmt.Errorf("check usage: %w", err)
		}
		if !ok {
			return Session{}, usage.ErrLimitReached
		}
	}

	result, err := s.Controller.ContinueInterview(ctx, jdRes, persona, nil, kickoffMessage)
	if err != nil {
		return Session{}, err
	}
	if result.NextQuestion == "" {
		telemetry.Error("session.no_opening_question", map[string]any{
			"request_id": requestIDFromContext(ctx),
			"user_id":    userID,
			"persona_id": personaID,
		})
		return Session{}, ErrNoOpeningQuestion
	}

	now := time.Now().UTC()
	sess := Session{
		ID:         uuid.NewString(),
		UserID:     userID,
		PersonaID:  personaID,
		JdResumeID: jdRes.ID,
		StartTime:  now,
		QuestionSegments: []QuestionSegment{
			newQuestionSegment(1, result, now),
		},
	}
	if err := s.Repo.Create(ctx, sess); err != nil {
		return Session{}, fmt.Errorf("create session: %w", err)
	}

	if s.Usage != nil {
		if _, err := s.Usage.Consume(ctx, userID, 1); err != nil {
			telemetry.Warn("session.usage_consume_failed", map[string]any{
				"user_id": userID,
				"error":   telemetry.SanitizeError(err),
			})
		}
	}

	metrics.IncSessionStarted()
	telemetry.Info("session.started", map[string]any{
		"request_id": requestIDFromContext(ctx),
		"user_id":    userID,
		"session_id": sess.ID,
		"persona_id": personaID,
	})
	return sess, nil
}

// Get returns one session scoped to the owning user.
func (s *Service) Get(ctx context.Context, userID, sessionID string) (Session, error) {
	return s.Repo.GetByID(ctx, userID, sessionID)
}

// List returns the user's sessions, most recently started first.
func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]Session, error) {
	return s.Repo.ListByUser(ctx, userID, limit, offset)
}

// SubmitAnswer records the user's answer, runs one dialogue turn and
// applies the outcome: either a new question segment or, when the model
// returns an empty question, session completion. Nothing is persisted
// when the model call fails, so the turn can simply be retried.
func (s *Service) SubmitAnswer(ctx context.Context, userID, sessionID, answerText string) (Session, interview.TurnResult, error) {
	answerText = strings.TrimSpace(answerText)
	if answerText == "" {
		return Session{}, interview.TurnResult{}, ErrEmptyAnswer
	}

	sess, err := s.Repo.GetByID(ctx, userID, sessionID)
	if err != nil {
		return Session{}, interview.TurnResult{}, err
	}
	if !sess.Active() {
		return Session{}, interview.TurnResult{}, ErrSessionEnded
	}
	seg := sess.CurrentSegment()
	if seg == nil {
		return Session{}, interview.TurnResult{}, fmt.Errorf("session %s has no current question", sessionID)
	}

	persona, err := s.Personas.GetByID(ctx, sess.PersonaID)
	if err != nil {
		return Session{}, interview.TurnResult{}, fmt.Errorf("load persona: %w", err)
	}
	jdRes, err := s.JdResume.Get(ctx, userID)
	if err != nil {
		return Session{}, interview.TurnResult{}, fmt.Errorf("load jd/resume: %w", err)
	}

	result, err := s.Controller.ContinueInterview(ctx, jdRes, persona, flattenHistory(sess), answerText)
	if err != nil {
		return Session{}, interview.TurnResult{}, err
	}

	now := time.Now().UTC()
	seg.Conversation = append(seg.Conversation, ConversationTurn{
		Role:      RoleUser,
		Text:      answerText,
		Timestamp: now,
	})

	completed := false
	if result.NextQuestion != "" {
		sess.QuestionSegments = append(sess.QuestionSegments,
			newQuestionSegment(len(sess.QuestionSegments)+1, result, now))
		sess.CurrentQuestionIndex = len(sess.QuestionSegments) - 1
	} else {
		// Closing reply: feedback on the final answer, no next question.
		seg.Conversation = append(seg.Conversation, modelTurn(result, now))
		s.finishSession(ctx, &sess, now)
		completed = true
	}

	if err := s.Repo.Update(ctx, sess); err != nil {
		return Session{}, interview.TurnResult{}, fmt.Errorf("update session: %w", err)
	}
	if completed {
		s.scheduleAssessment(ctx, sess)
	}
	return sess, result, nil
}

// SaveVoiceTurn persists the outcome of one live voice turn on the
// current question segment. Voice turns never advance the question; the
// next question is always delivered through a text turn.
func (s *Service) SaveVoiceTurn(ctx context.Context, userID, sessionID, transcript, modelReply string, timedOut bool) (Session, error) {
	sess, err := s.Repo.GetByID(ctx, userID, sessionID)
	if err != nil {
		return Session{}, err
	}
	if !sess.Active() {
		return Session{}, ErrSessionEnded
	}
	seg := sess.CurrentSegment()
	if seg == nil {
		return Session{}, fmt.Errorf("session %s has no current question", sessionID)
	}

	now := time.Now().UTC()
	appended := false
	if transcript = strings.TrimSpace(transcript); transcript != "" {
		seg.Conversation = append(seg.Conversation, ConversationTurn{
			Role:      RoleUser,
			Text:      transcript,
			Timestamp: now,
		})
		appended = true
	}
	if modelReply = strings.TrimSpace(modelReply); modelReply != "" {
		seg.Conversation = append(seg.Conversation, ConversationTurn{
			Role:              RoleModel,
			Text:              modelReply,
			RawAIResponseText: modelReply,
			Timestamp:         now,
		})
		appended = true
	}
	if !appended {
		return sess, nil
	}

	if err := s.Repo.Update(ctx, sess); err != nil {
		return Session{}, fmt.Errorf("update session: %w", err)
	}
	telemetry.Info("session.voice_turn_saved", map[string]any{
		"request_id": requestIDFromContext(ctx),
		"user_id":    userID,
		"session_id": sessionID,
		"question":   seg.QuestionNumber,
		"timed_out":  timedOut,
	})
	return sess, nil
}

// CurrentQuestion returns the text of the question the session is on.
func (s *Service) CurrentQuestion(ctx context.Context, userID, sessionID string) (string, error) {
	sess, err := s.Repo.GetByID(ctx, userID, sessionID)
	if err != nil {
		return "", err
	}
	if !sess.Active() {
		return "", ErrSessionEnded
	}
	seg := sess.CurrentSegment()
	if seg == nil {
		return "", fmt.Errorf("session %s has no current question", sessionID)
	}
	return seg.Question, nil
}

// End closes the session early. Ending an already ended session is a
// no-op returning the stored state, so retries are safe.
func (s *Service) End(ctx context.Context, userID, sessionID string) (Session, error) {
	sess, err := s.Repo.GetByID(ctx, userID, sessionID)
	if err != nil {
		return Session{}, err
	}
	if !sess.Active() {
		return sess, nil
	}

	s.finishSession(ctx, &sess, time.Now().UTC())
	if err := s.Repo.Update(ctx, sess); err != nil {
		return Session{}, fmt.Errorf("update session: %w", err)
	}
	s.scheduleAssessment(ctx, sess)
	return sess, nil
}

// DeleteForUser removes all of the user's sessions.
func (s *Service) DeleteForUser(ctx context.Context, userID string) error {
	return s.Repo.DeleteByUser(ctx, userID)
}

func (s *Service) finishSession(ctx context.Context, sess *Session, now time.Time) {
	end := now
	sess.EndTime = &end
	sess.DurationInSeconds = int(now.Sub(sess.StartTime).Seconds())
	metrics.IncSessionCompleted()
	telemetry.Info("session.completed", map[string]any{
		"request_id": requestIDFromContext(ctx),
		"user_id":    sess.UserID,
		"session_id": sess.ID,
		"questions":  len(sess.QuestionSegments),
		"duration_s": sess.DurationInSeconds,
	})
}

// scheduleAssessment hands the ended session off for assessment. With a
// queue the worker picks it up; otherwise a goroutine generates it
// in-process. Called only after the ended state is persisted, so the
// consumer always sees the final transcript.
func (s *Service) scheduleAssessment(ctx context.Context, sess Session) {
	if s.Queue != nil {
		msg := queue.NewAssessmentMessage(sess.ID, sess.UserID, requestIDFromContext(ctx))
		err := s.Queue.Send(ctx, msg)
		if err == nil {
			return
		}
		telemetry.Error("session.assessment_enqueue_failed", map[string]any{
			"session_id": sess.ID,
			"error":      telemetry.SanitizeError(err),
		})
		// Fall through to in-process generation so the report still
		// lands despite the queue outage.
	}
	go func(ctx context.Context) {
		if err := s.GenerateAssessment(ctx, sess.UserID, sess.ID); err != nil {
			telemetry.Error("session.assessment_failed", map[string]any{
				"user_id":    sess.UserID,
				"session_id": sess.ID,
				"error":      telemetry.SanitizeError(err),
			})
		}
	}(backgroundWithRequestID(ctx))
}

func newQuestionSegment(number int, result interview.TurnResult, now time.Time) QuestionSegment {
	return QuestionSegment{
		QuestionID:     uuid.NewString(),
		QuestionNumber: number,
		Question:       result.NextQuestion,
		KeyPoints:      []string{},
		Conversation:   []ConversationTurn{modelTurn(result, now)},
	}
}

func modelTurn(result interview.TurnResult, now time.Time) ConversationTurn {
	return ConversationTurn{
		Role:                 RoleModel,
		Text:                 result.NextQuestion,
		RawAIResponseText:    result.RawAIResponseText,
		Analysis:             result.Analysis,
		FeedbackPoints:       result.FeedbackPoints,
		SuggestedAlternative: result.SuggestedAlternative,
		Timestamp:            now,
	}
}

// flattenHistory lays the per-segment conversations out as one ordered
// turn list for the prompt builder.
func flattenHistory(sess Session) []interview.Turn {
	var history []interview.Turn
	for _, seg := range sess.QuestionSegments {
		for _, turn := range seg.Conversation {
			history = append(history, interview.Turn{
				Role:              turn.Role,
				Text:              turn.Text,
				RawAIResponseText: turn.RawAIResponseText,
			})
		}
	}
	return history
}

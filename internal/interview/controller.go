package interview

import (
	"context"
	"strings"

	"interview-backend/internal/jdresume"
	"interview-backend/internal/llm"
	"interview-backend/internal/personas"
	"interview-backend/internal/shared/metrics"
	"interview-backend/internal/shared/telemetry"
)

// Controller drives text-mode dialogue turns against the model.
type Controller struct {
	LLM llm.Client
}

// NewController constructs a Controller.
func NewController(client llm.Client) *Controller {
	return &Controller{LLM: client}
}

// ContinueInterview submits the user's answer on top of the full prior
// history and returns the parsed next turn. The model reply is consumed
// as a stream but only acted on once fully concatenated.
//
// The caller owns the side effects: appending the turn to the segment
// conversation and stamping session completion when NextQuestion is
// empty. Callers also keep at most one call in flight per session; the
// controller does not serialize.
func (c *Controller) ContinueInterview(ctx context.Context, jdResume jdresume.JdResumeText, persona personas.Persona, history []Turn, userResponseText string) (TurnResult, error) {
	contents := BuildPromptContents(jdResume, persona, history)
	contents = append(contents, llm.Content{Role: llm.RoleUser, Text: userResponseText})

	start := metrics.NowMillis()
	stream, err := c.LLM.GenerateStream(ctx, contents)
	if err != nil {
		telemetry.Error("interview.model_call_failed", map[string]any{
			"persona_id": persona.ID,
			"error":      telemetry.SanitizeError(err),
		})
		metrics.IncTurnFailed()
		return TurnResult{}, ErrModelCallFailed
	}

	raw, err := llm.Collect(stream)
	if err != nil {
		telemetry.Error("interview.model_call_failed", map[string]any{
			"persona_id": persona.ID,
			"error":      telemetry.SanitizeError(err),
		})
		metrics.IncTurnFailed()
		return TurnResult{}, ErrModelCallFailed
	}

	if strings.TrimSpace(raw) == "" {
		telemetry.Error("interview.empty_model_response", map[string]any{
			"persona_id": persona.ID,
		})
		metrics.IncTurnFailed()
		return TurnResult{}, ErrEmptyModelResponse
	}

	parsed := ParseResponse(raw)
	metrics.IncTurnCompleted()
	metrics.ObserveTurnDurationMs(metrics.NowMillis() - start)

	return TurnResult{
		NextQuestion:         parsed.NextQuestion,
		Analysis:             parsed.Analysis,
		FeedbackPoints:       parsed.FeedbackPoints,
		SuggestedAlternative: parsed.SuggestedAlternative,
		RawAIResponseText:    raw,
	}, nil
}

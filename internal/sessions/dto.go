package sessions

import (
	"github.com/gin-gonic/gin"

	"interview-backend/internal/interview"
)

type createSessionRequest struct {
	PersonaID string `json:"personaId"`
}

type submitAnswerRequest struct {
	AnswerText string `json:"answerText"`
}

// sessionResponse is the full session view including the per-question
// conversation history.
func sessionResponse(s Session) gin.H {
	resp := gin.H{
		"id":                   s.ID,
		"personaId":            s.PersonaID,
		"jdResumeId":           s.JdResumeID,
		"startTime":            s.StartTime,
		"endTime":              s.EndTime,
		"durationInSeconds":    s.DurationInSeconds,
		"currentQuestionIndex": s.CurrentQuestionIndex,
		"questionSegments":     s.QuestionSegments,
	}
	if s.OverallAssessment != nil {
		resp["overallAssessment"] = s.OverallAssessment
	}
	return resp
}

// sessionListItem is the compact history view. Conversations are left
// out; clients fetch a single session for the full transcript.
func sessionListItem(s Session) gin.H {
	return gin.H{
		"id":                s.ID,
		"personaId":         s.PersonaID,
		"startTime":         s.StartTime,
		"endTime":           s.EndTime,
		"durationInSeconds": s.DurationInSeconds,
		"questionCount":     len(s.QuestionSegments),
		"hasAssessment":     s.OverallAssessment != nil,
	}
}

// turnResponse is the outcome of one dialogue turn. An empty
// nextQuestion together with interviewComplete=true tells the client
// the interview is over.
func turnResponse(s Session, r interview.TurnResult) gin.H {
	return gin.H{
		"sessionId":            s.ID,
		"interviewComplete":    r.NextQuestion == "",
		"nextQuestion":         r.NextQuestion,
		"analysis":             r.Analysis,
		"feedbackPoints":       r.FeedbackPoints,
		"suggestedAlternative": r.SuggestedAlternative,
		"currentQuestionIndex": s.CurrentQuestionIndex,
	}
}

package sessions

import "time"

// Conversation turn roles.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// ConversationTurn is one exchange entry inside a question segment. Model
// turns keep the raw tagged reply alongside the parsed fields so later
// prompts can replay it verbatim.
type ConversationTurn struct {
	Role                 string    `json:"role"`
	Text                 string    `json:"text"`
	RawAIResponseText    string    `json:"rawAiResponseText,omitempty"`
	Analysis             string    `json:"analysis,omitempty"`
	FeedbackPoints       []string  `json:"feedbackPoints,omitempty"`
	SuggestedAlternative string    `json:"suggestedAlternative,omitempty"`
	Timestamp            time.Time `json:"timestamp"`
}

// QuestionSegment groups the conversation that followed one interviewer
// question. The first turn is always the model turn presenting the question.
type QuestionSegment struct {
	QuestionID     string             `json:"questionId"`
	QuestionNumber int                `json:"questionNumber"`
	Question       string             `json:"question"`
	KeyPoints      []string           `json:"keyPoints"`
	Conversation   []ConversationTurn `json:"conversation"`
}

// OverallAssessment is the cached end-of-interview report generated by the
// worker after a session ends.
type OverallAssessment struct {
	Summary      string    `json:"summary"`
	Strengths    []string  `json:"strengths"`
	Improvements []string  `json:"improvements"`
	GeneratedAt  time.Time `json:"generatedAt"`
}

// Session is one interview run. EndTime nil means the session is active;
// once set, the session is immutable except for the cached assessment.
type Session struct {
	ID                   string
	UserID               string
	PersonaID            string
	JdResumeID           string
	DurationInSeconds    int
	StartTime            time.Time
	EndTime              *time.Time
	CurrentQuestionIndex int
	QuestionSegments     []QuestionSegment
	OverallAssessment    *OverallAssessment
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Active reports whether the session is still accepting turns.
func (s *Session) Active() bool {
	return s.EndTime == nil
}

// CurrentSegment returns the segment the interview is positioned at, or nil
// when the index is out of range.
func (s *Session) CurrentSegment() *QuestionSegment {
	if s.CurrentQuestionIndex < 0 || s.CurrentQuestionIndex >= len(s.QuestionSegments) {
		return nil
	}
	return &s.QuestionSegments[s.CurrentQuestionIndex]
}

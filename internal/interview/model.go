package interview

// Turn is one prior exchange supplied to the prompt builder. Model turns
// carry the untouched tagged reply in RawAIResponseText.
type Turn struct {
	Role              string // "user" or "model"
	Text              string
	RawAIResponseText string
}

// TurnResult is the outcome of one completed dialogue turn. An empty
// NextQuestion signals that the interview is complete.
type TurnResult struct {
	NextQuestion         string
	Analysis             string
	FeedbackPoints       []string
	SuggestedAlternative string
	RawAIResponseText    string
}

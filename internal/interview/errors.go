package interview

import "errors"

// Turn failures. Handlers surface both as the same generic "failed to
// get next question" message; the precise cause is logged, not exposed.
var (
	ErrEmptyModelResponse = errors.New("empty model response")
	ErrModelCallFailed    = errors.New("model call failed")
)

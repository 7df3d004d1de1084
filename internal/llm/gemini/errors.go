package gemini

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Error represents an API error from Gemini.
type Error struct {
	HTTPStatus int
	Status     string
	Message    string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("gemini: %s: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("gemini: %s", e.Message)
}

// IsRetryable returns true if the error is worth retrying.
func (e *Error) IsRetryable() bool {
	switch e.Status {
	case "RESOURCE_EXHAUSTED", "UNAVAILABLE", "INTERNAL":
		return true
	}
	switch e.HTTPStatus {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return true
	}
	return false
}

// geminiError represents an error response from the Gemini API.
type geminiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// parseError parses an error response from Gemini.
func parseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var parsed geminiError
	if err := json.Unmarshal(body, &parsed); err != nil || parsed.Error.Message == "" {
		return &Error{
			HTTPStatus: resp.StatusCode,
			Message:    fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, string(body)),
		}
	}
	return &Error{
		HTTPStatus: resp.StatusCode,
		Status:     parsed.Error.Status,
		Message:    parsed.Error.Message,
	}
}

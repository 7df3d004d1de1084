package gemini

import "interview-backend/internal/llm"

// geminiRequest is the Gemini API request format.
// Note: Gemini API uses camelCase for JSON field names.
type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

// geminiContent represents a content object in Gemini format.
type geminiContent struct {
	Role  string       `json:"role,omitempty"` // "user" or "model"
	Parts []geminiPart `json:"parts"`
}

// geminiPart represents a single part within content.
type geminiPart struct {
	Text string `json:"text,omitempty"`
}

// buildRequest converts llm contents to a Gemini request.
func buildRequest(contents []llm.Content) *geminiRequest {
	req := &geminiRequest{
		Contents: make([]geminiContent, 0, len(contents)),
	}
	for _, content := range contents {
		req.Contents = append(req.Contents, geminiContent{
			Role:  content.Role,
			Parts: []geminiPart{{Text: content.Text}},
		})
	}
	return req
}

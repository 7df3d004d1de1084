package gemini

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"
)

// streamChunk represents a streaming chunk from Gemini.
type streamChunk struct {
	Candidates []geminiCandidate `json:"candidates"`
}

// geminiCandidate is one candidate within a response chunk.
type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason,omitempty"`
}

// textStream implements llm.Stream over a Gemini SSE response body.
type textStream struct {
	reader   *bufio.Reader
	closer   io.Closer
	err      error
	finished bool
}

func newTextStream(body io.ReadCloser) *textStream {
	return &textStream{
		reader: bufio.NewReader(body),
		closer: body,
	}
}

// Next returns the next text chunk from the stream.
// Returns io.EOF when the stream is complete.
func (s *textStream) Next() (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if s.finished {
		return "", io.EOF
	}

	for {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				s.finished = true
				return "", io.EOF
			}
			s.err = err
			return "", err
		}

		line = strings.TrimSpace(line)

		// Skip empty lines and non-data SSE fields
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		data := strings.TrimPrefix(line, "data: ")

		// Check for stream end markers
		if data == "[DONE]" || data == "" {
			s.finished = true
			return "", io.EOF
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			continue // Skip unparseable chunks
		}
		if len(chunk.Candidates) == 0 {
			continue
		}

		text := candidateText(chunk.Candidates[0])
		if text == "" {
			continue
		}
		return text, nil
	}
}

// Close releases resources associated with the stream.
func (s *textStream) Close() error {
	return s.closer.Close()
}

func candidateText(candidate geminiCandidate) string {
	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		b.WriteString(part.Text)
	}
	return b.String()
}

package interview

import "strings"

// ParsedResponse holds the structured fields extracted from a raw tagged
// model reply.
type ParsedResponse struct {
	NextQuestion         string
	Analysis             string
	FeedbackPoints       []string
	SuggestedAlternative string
}

// ParseResponse extracts the tagged fields from a raw model reply.
// Malformed input never fails: missing tags degrade to empty values. An
// empty NextQuestion means the interviewer has no further question; the
// caller decides whether a wholly empty raw string is an error.
func ParseResponse(raw string) ParsedResponse {
	parsed := ParsedResponse{
		NextQuestion:         ExtractTag(raw, "QUESTION"),
		Analysis:             ExtractTag(raw, "ANALYSIS"),
		SuggestedAlternative: ExtractTag(raw, "SUGGESTED_ALTERNATIVE"),
	}

	for _, line := range strings.Split(ExtractTag(raw, "FEEDBACK"), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			parsed.FeedbackPoints = append(parsed.FeedbackPoints, line)
		}
	}

	// The model reports "no alternative" as a literal N/A.
	if parsed.SuggestedAlternative == "N/A" {
		parsed.SuggestedAlternative = ""
	}
	return parsed
}

// ExtractTag returns the trimmed contents of the first <tag>...</tag>
// pair, or "" when either side of the pair is missing.
func ExtractTag(raw, tag string) string {
	open := "<" + tag + ">"
	closing := "</" + tag + ">"

	start := strings.Index(raw, open)
	if start == -1 {
		return ""
	}
	start += len(open)

	end := strings.Index(raw[start:], closing)
	if end == -1 {
		return ""
	}
	return strings.TrimSpace(raw[start : start+end])
}

package interview

import (
	"reflect"
	"testing"
)

func TestParseResponseFullReply(t *testing.T) {
	raw := `Some preamble the model should not emit.
<QUESTION>  What was the hardest bug you fixed?  </QUESTION>
<ANALYSIS>
Good detail on the debugging process.
</ANALYSIS>
<FEEDBACK>
- Strong ownership of the fix.

* Mentioned the root cause explicitly.
Explain how you verified the fix.
</FEEDBACK>
<SUGGESTED_ALTERNATIVE>I once tracked a race condition down to an unguarded map write.</SUGGESTED_ALTERNATIVE>`

	got := ParseResponse(raw)

	if got.NextQuestion != "What was the hardest bug you fixed?" {
		t.Fatalf("unexpected question %q", got.NextQuestion)
	}
	if got.Analysis != "Good detail on the debugging process." {
		t.Fatalf("unexpected analysis %q", got.Analysis)
	}
	wantFeedback := []string{
		"- Strong ownership of the fix.",
		"* Mentioned the root cause explicitly.",
		"Explain how you verified the fix.",
	}
	if !reflect.DeepEqual(got.FeedbackPoints, wantFeedback) {
		t.Fatalf("unexpected feedback %#v", got.FeedbackPoints)
	}
	if got.SuggestedAlternative != "I once tracked a race condition down to an unguarded map write." {
		t.Fatalf("unexpected alternative %q", got.SuggestedAlternative)
	}
}

func TestParseResponseMissingQuestionMeansComplete(t *testing.T) {
	raw := `<ANALYSIS>Great closing answer.</ANALYSIS>
<FEEDBACK>
- Finished on a strong note.
</FEEDBACK>
<SUGGESTED_ALTERNATIVE>N/A</SUGGESTED_ALTERNATIVE>`

	got := ParseResponse(raw)
	if got.NextQuestion != "" {
		t.Fatalf("expected empty question, got %q", got.NextQuestion)
	}
	if got.Analysis != "Great closing answer." {
		t.Fatalf("unexpected analysis %q", got.Analysis)
	}
}

func TestParseResponseEmptyQuestionTag(t *testing.T) {
	got := ParseResponse("<QUESTION>   </QUESTION><ANALYSIS>done</ANALYSIS>")
	if got.NextQuestion != "" {
		t.Fatalf("expected empty question, got %q", got.NextQuestion)
	}
}

func TestParseResponseSuggestedAlternative(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "missing tag", raw: "<QUESTION>q</QUESTION>", want: ""},
		{name: "literal N/A", raw: "<SUGGESTED_ALTERNATIVE>N/A</SUGGESTED_ALTERNATIVE>", want: ""},
		{name: "padded N/A", raw: "<SUGGESTED_ALTERNATIVE>  N/A  </SUGGESTED_ALTERNATIVE>", want: ""},
		{name: "empty tag", raw: "<SUGGESTED_ALTERNATIVE></SUGGESTED_ALTERNATIVE>", want: ""},
		{name: "real alternative", raw: "<SUGGESTED_ALTERNATIVE>Try the STAR format.</SUGGESTED_ALTERNATIVE>", want: "Try the STAR format."},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseResponse(tt.raw).SuggestedAlternative; got != tt.want {
				t.Fatalf("SuggestedAlternative = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseResponseMalformedInputNeverFails(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "empty", raw: ""},
		{name: "plain prose", raw: "I think you did fine."},
		{name: "unclosed tag", raw: "<QUESTION>never closed"},
		{name: "closing before opening", raw: "</QUESTION>backwards<QUESTION>"},
		{name: "nested noise", raw: "<FEEDBACK><FEEDBACK>"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got := ParseResponse(tt.raw)
			if got.NextQuestion != "" || got.Analysis != "" || got.SuggestedAlternative != "" {
				t.Fatalf("expected zero fields, got %+v", got)
			}
			if len(got.FeedbackPoints) != 0 {
				t.Fatalf("expected no feedback, got %#v", got.FeedbackPoints)
			}
		})
	}
}

func TestParseResponseUsesFirstTagPair(t *testing.T) {
	raw := "<QUESTION>first</QUESTION><QUESTION>second</QUESTION>"
	if got := ParseResponse(raw).NextQuestion; got != "first" {
		t.Fatalf("expected first pair, got %q", got)
	}
}

func TestParseResponseBlankFeedbackTag(t *testing.T) {
	got := ParseResponse("<FEEDBACK>\n\n   \n</FEEDBACK>")
	if len(got.FeedbackPoints) != 0 {
		t.Fatalf("expected no feedback points, got %#v", got.FeedbackPoints)
	}
}

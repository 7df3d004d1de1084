package interview

import (
	"fmt"
	"strings"

	"interview-backend/internal/jdresume"
	"interview-backend/internal/llm"
	"interview-backend/internal/personas"
)

// Delimiters marking the candidate documents inside the opening message.
const (
	jdBlockOpen      = "=== JOB DESCRIPTION START ==="
	jdBlockClose     = "=== JOB DESCRIPTION END ==="
	resumeBlockOpen  = "=== RESUME START ==="
	resumeBlockClose = "=== RESUME END ==="
)

const systemInstructionTemplate = `You are %s, an interviewer conducting a simulated job interview with a candidate.

%s

Ask exactly one question per turn. After every candidate answer you must reply using exactly this tagged format and nothing else:

<QUESTION>the next interview question, or leave this tag empty when the interview is over</QUESTION>
<ANALYSIS>a short analysis of the candidate's latest answer</ANALYSIS>
<FEEDBACK>
- one concrete feedback point per line
</FEEDBACK>
<SUGGESTED_ALTERNATIVE>a stronger sample answer, or N/A if the answer was already strong</SUGGESTED_ALTERNATIVE>

%s`

const responseFormatExample = `Example of a correctly formatted reply:

<QUESTION>Can you walk me through a project where you owned the technical direction?</QUESTION>
<ANALYSIS>The answer covered the situation well but did not quantify the result.</ANALYSIS>
<FEEDBACK>
- Clear structure: context, then actions, then outcome.
- Add concrete numbers to show the scale of the impact.
</FEEDBACK>
<SUGGESTED_ALTERNATIVE>N/A</SUGGESTED_ALTERNATIVE>`

// BuildSystemInstruction renders the standing instructions for the given
// persona, including the required reply format and a worked example.
func BuildSystemInstruction(persona personas.Persona) string {
	return fmt.Sprintf(systemInstructionTemplate,
		persona.Name,
		strings.TrimSpace(persona.SystemPrompt),
		responseFormatExample,
	)
}

// BuildPromptContents assembles the ordered message list for a dialogue
// turn: one opening user message carrying the system instruction and the
// candidate documents, then one message per history turn.
//
// Model turns carry their raw tagged reply verbatim, not the display
// text. The model must see the tags in its own prior output or it stops
// honoring the format on later turns.
func BuildPromptContents(jdResume jdresume.JdResumeText, persona personas.Persona, history []Turn) []llm.Content {
	var first strings.Builder
	first.WriteString(BuildSystemInstruction(persona))
	first.WriteString("\n\n")
	first.WriteString(jdBlockOpen)
	first.WriteString("\n")
	first.WriteString(jdResume.JdText)
	first.WriteString("\n")
	first.WriteString(jdBlockClose)
	first.WriteString("\n\n")
	first.WriteString(resumeBlockOpen)
	first.WriteString("\n")
	first.WriteString(jdResume.ResumeText)
	first.WriteString("\n")
	first.WriteString(resumeBlockClose)
	first.WriteString("\n\n")
	first.WriteString(responseFormatExample)

	contents := make([]llm.Content, 0, len(history)+1)
	contents = append(contents, llm.Content{Role: llm.RoleUser, Text: first.String()})

	for _, turn := range history {
		if turn.Role == llm.RoleModel {
			contents = append(contents, llm.Content{Role: llm.RoleModel, Text: turn.RawAIResponseText})
			continue
		}
		contents = append(contents, llm.Content{Role: llm.RoleUser, Text: turn.Text})
	}
	return contents
}

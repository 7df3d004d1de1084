package main

// Run a real interview against the configured Gemini model from the
// terminal. Answers are read from stdin; the session ends when the
// model stops asking questions or stdin closes.
//
//   go run ./cmd/prompttest -jd jd.txt -resume resume.pdf

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"interview-backend/internal/extract"
	"interview-backend/internal/interview"
	"interview-backend/internal/jdresume"
	"interview-backend/internal/llm"
	"interview-backend/internal/llm/gemini"
	"interview-backend/internal/personas"
	"interview-backend/internal/shared/config"
)

func main() {
	cfg := config.Load()

	jdPath := flag.String("jd", "", "Path to job description text file")
	resumePath := flag.String("resume", "", "Path to resume file (pdf, docx, or txt)")
	personaID := flag.String("persona", "technical-lead", "Interviewer persona id")
	model := flag.String("model", cfg.GeminiModel, "Gemini model")
	showRaw := flag.Bool("raw", false, "Print the raw tagged reply for each turn")
	flag.Parse()

	if strings.TrimSpace(*jdPath) == "" || strings.TrimSpace(*resumePath) == "" {
		exitErr("both -jd and -resume are required")
	}

	jdBytes, err := os.ReadFile(*jdPath)
	if err != nil {
		exitErr(fmt.Sprintf("read job description: %v", err))
	}

	resumeText, err := loadResume(*resumePath)
	if err != nil {
		exitErr(err.Error())
	}

	persona, err := findPersona(*personaID)
	if err != nil {
		exitErr(err.Error())
	}

	client, err := gemini.NewClient(os.Getenv("GEMINI_API_KEY"), *model, cfg.GeminiLiveModel)
	if err != nil {
		exitErr(err.Error())
	}
	ctrl := interview.NewController(client)

	jdRes := jdresume.JdResumeText{JdText: string(jdBytes), ResumeText: resumeText}
	ctx := context.Background()

	var history []interview.Turn
	input := "Please begin the interview and ask your first question."
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for turn := 1; ; turn++ {
		result, err := ctrl.ContinueInterview(ctx, jdRes, persona, history, input)
		if err != nil {
			exitErr(fmt.Sprintf("turn %d: %v", turn, err))
		}

		if *showRaw {
			fmt.Printf("--- raw reply %d ---\n%s\n--- end raw ---\n", turn, result.RawAIResponseText)
		}
		printTurn(turn, result)

		if result.NextQuestion == "" {
			fmt.Println("Interview complete.")
			return
		}

		history = append(history,
			interview.Turn{Role: llm.RoleUser, Text: input},
			interview.Turn{Role: llm.RoleModel, Text: result.NextQuestion, RawAIResponseText: result.RawAIResponseText},
		)

		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return
		}
		input = strings.TrimSpace(scanner.Text())
		if input == "" {
			fmt.Println("empty answer, exiting")
			return
		}
	}
}

func printTurn(turn int, result interview.TurnResult) {
	if result.Analysis != "" {
		fmt.Printf("[analysis] %s\n", result.Analysis)
	}
	for _, point := range result.FeedbackPoints {
		fmt.Printf("[feedback] %s\n", point)
	}
	if result.SuggestedAlternative != "" {
		fmt.Printf("[alternative] %s\n", result.SuggestedAlternative)
	}
	if result.NextQuestion != "" {
		fmt.Printf("\nQ%d: %s\n", turn, result.NextQuestion)
	}
}

func loadResume(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read resume: %v", err)
	}
	mimeType, err := mimeFromExt(path)
	if err != nil {
		return "", err
	}
	text, err := extract.ExtractTextFromBytes(context.Background(), data, mimeType, filepath.Base(path))
	if err != nil {
		return "", fmt.Errorf("extract resume text: %v", err)
	}
	return text, nil
}

func findPersona(id string) (personas.Persona, error) {
	for _, p := range personas.DefaultPersonas() {
		if p.ID == id {
			return p, nil
		}
	}
	var ids []string
	for _, p := range personas.DefaultPersonas() {
		ids = append(ids, p.ID)
	}
	return personas.Persona{}, fmt.Errorf("unknown persona %q (available: %s)", id, strings.Join(ids, ", "))
}

func mimeFromExt(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return "application/pdf", nil
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document", nil
	case ".txt":
		return "text/plain", nil
	default:
		return "", fmt.Errorf("unsupported resume file type: %s", filepath.Ext(path))
	}
}

func exitErr(msg string) {
	_, _ = fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}

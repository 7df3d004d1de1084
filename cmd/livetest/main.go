package main

// Smoke-test the live voice path against the real Gemini live endpoint:
// stream a PCM file as one spoken answer and print the model's reaction.
//
//   go run ./cmd/livetest -audio answer.pcm -question "Tell me about yourself."
//
// The audio file must be raw 16-bit PCM at 16kHz, the format the live
// API expects for input.

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"interview-backend/internal/live"
	"interview-backend/internal/llm"
	"interview-backend/internal/llm/gemini"
	"interview-backend/internal/shared/config"
)

func main() {
	cfg := config.Load()

	audioPath := flag.String("audio", "", "Path to raw PCM audio file")
	question := flag.String("question", "Tell me about yourself.", "Interview question for this turn")
	chunkSize := flag.Int("chunk", 8192, "Audio chunk size in bytes")
	pace := flag.Duration("pace", 50*time.Millisecond, "Delay between chunks")
	timeout := flag.Duration("timeout", 2*time.Minute, "Overall turn timeout")
	transcribeOnly := flag.Bool("transcribe", false, "Only transcribe the audio, no interview turn")
	flag.Parse()

	if strings.TrimSpace(*audioPath) == "" {
		exitErr("-audio is required")
	}
	audio, err := os.ReadFile(*audioPath)
	if err != nil {
		exitErr(fmt.Sprintf("read audio: %v", err))
	}

	client, err := gemini.NewClient(os.Getenv("GEMINI_API_KEY"), cfg.GeminiModel, cfg.GeminiLiveModel)
	if err != nil {
		exitErr(err.Error())
	}
	mgr := live.NewManager(client, *timeout)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if *transcribeOnly {
		text, err := mgr.TranscribeAudioOnce(ctx, audio)
		if err != nil {
			exitErr(fmt.Sprintf("transcribe: %v", err))
		}
		fmt.Printf("transcript: %s\n", text)
		return
	}

	turn, err := mgr.Open(ctx, *question)
	if err != nil {
		exitErr(fmt.Sprintf("open turn: %v", err))
	}
	defer turn.Close()

	go func() {
		for offset := 0; offset < len(audio); offset += *chunkSize {
			end := offset + *chunkSize
			if end > len(audio) {
				end = len(audio)
			}
			if err := turn.SendAudioChunk(audio[offset:end]); err != nil {
				fmt.Fprintf(os.Stderr, "send chunk: %v\n", err)
				return
			}
			time.Sleep(*pace)
		}
		turn.StopTurn()
	}()

	for msg := range turn.Events() {
		switch msg.Type {
		case llm.LiveText:
			fmt.Print(msg.Text)
		case llm.LiveTurnComplete:
			fmt.Printf("\n[turn complete, timed out: %v]\n", turn.TimedOut())
			fmt.Printf("transcript: %s\n", turn.Transcript())
			return
		}
	}

	// Events closed without a turn-complete marker.
	fmt.Printf("\n[connection ended]\ntranscript: %s\n", turn.Transcript())
}

func exitErr(msg string) {
	_, _ = fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}

// Package live manages voice turns over streaming model connections.
// Each turn is scoped to a single interview question and is bounded by
// an explicit stop, a per-question timeout, or Close.
package live

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"interview-backend/internal/llm"
	"interview-backend/internal/shared/metrics"
	"interview-backend/internal/shared/telemetry"
)

// DefaultTurnTimeout bounds how long a single question's capture phase
// may run before the turn is force-stopped.
const DefaultTurnTimeout = 10 * time.Minute

// ErrStreamingConnectionFailed is returned when a live connection cannot
// be established. Handlers surface it as a generic failure; the cause is
// logged, not exposed.
var ErrStreamingConnectionFailed = errors.New("streaming connection failed")

// State is the lifecycle phase of a live voice turn.
type State int32

const (
	StateConnecting State = iota
	StateOpen
	StateCapturing
	StateFinalizing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateCapturing:
		return "capturing"
	case StateFinalizing:
		return "finalizing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

const liveInstructionTemplate = `You are conducting one question of a live spoken job interview. The current question is:

"%s"

Listen to the candidate's full spoken answer. When they finish, give a short conversational reaction to what they said. Do not ask a new question; the next question is delivered separately.`

const transcribeInstruction = `Transcribe the user's spoken audio exactly as said. Do not answer, comment or add anything.`

// Manager opens live voice turns against the model.
type Manager struct {
	dialer      llm.LiveDialer
	turnTimeout time.Duration
}

// NewManager constructs a Manager. A non-positive timeout falls back to
// DefaultTurnTimeout.
func NewManager(dialer llm.LiveDialer, turnTimeout time.Duration) *Manager {
	if turnTimeout <= 0 {
		turnTimeout = DefaultTurnTimeout
	}
	return &Manager{dialer: dialer, turnTimeout: turnTimeout}
}

// Turn is one live voice turn bound to a single question.
type Turn struct {
	conn  llm.LiveConn
	timer *time.Timer

	state    atomic.Int32
	timedOut atomic.Bool

	events chan llm.LiveMessage
	done   chan struct{}

	mu         sync.Mutex
	transcript strings.Builder
}

// Open establishes a live connection whose system instruction embeds the
// literal question text, so the spoken exchange is scoped to exactly one
// question. The per-question timeout starts immediately.
func (m *Manager) Open(ctx context.Context, questionText string) (*Turn, error) {
	conn, err := m.dialer.DialLive(ctx, fmt.Sprintf(liveInstructionTemplate, questionText))
	if err != nil {
		telemetry.Error("live.connection_failed", map[string]any{"error": err.Error()})
		metrics.IncLiveFailed()
		return nil, ErrStreamingConnectionFailed
	}

	t := &Turn{
		conn:   conn,
		events: make(chan llm.LiveMessage, 64),
		done:   make(chan struct{}),
	}
	t.state.Store(int32(StateOpen))
	t.timer = time.AfterFunc(m.turnTimeout, t.timeoutTurn)
	metrics.IncLiveOpened()
	go t.readLoop()
	return t, nil
}

// SendAudioChunk forwards one audio chunk to the connection. The first
// chunk moves the turn into Capturing. Chunks arriving after the turn
// has begun finalizing are dropped without error.
func (t *Turn) SendAudioChunk(chunk []byte) error {
	state := State(t.state.Load())
	if state != StateOpen && state != StateCapturing {
		return nil
	}
	t.state.CompareAndSwap(int32(StateOpen), int32(StateCapturing))
	if err := t.conn.SendAudio(chunk); err != nil {
		return fmt.Errorf("send audio chunk: %w", err)
	}
	return nil
}

// StopTurn ends the capture phase. Idempotent: the end-of-turn signal is
// sent at most once, by whichever of StopTurn or the timeout wins.
func (t *Turn) StopTurn() {
	t.finalize(false)
}

func (t *Turn) timeoutTurn() {
	t.finalize(true)
}

func (t *Turn) finalize(fromTimeout bool) {
	if !t.beginFinalize() {
		return
	}
	if fromTimeout {
		t.timedOut.Store(true)
		telemetry.Info("live.timeout_forced", map[string]any{"timeout": true})
		metrics.IncLiveTimedOut()
	} else {
		t.timer.Stop()
	}
	if err := t.conn.SendAudioStop(); err != nil {
		telemetry.Error("live.stop_send_failed", map[string]any{"error": err.Error()})
	}
}

// beginFinalize moves the turn into Finalizing exactly once. The loser
// of a stop/timeout race sees the state already advanced and backs off.
func (t *Turn) beginFinalize() bool {
	for {
		cur := t.state.Load()
		if cur >= int32(StateFinalizing) {
			return false
		}
		if t.state.CompareAndSwap(cur, int32(StateFinalizing)) {
			return true
		}
	}
}

// Close releases the connection unconditionally. Safe from any state and
// safe to call multiple times.
func (t *Turn) Close() {
	t.state.Store(int32(StateClosed))
	if t.timer != nil {
		t.timer.Stop()
	}
	_ = t.conn.Close()
}

// Events yields model text and turn-complete messages. Transcript
// fragments are accumulated internally and never surfaced here; spoken
// input is not echoed back to the user. The channel closes when the
// connection terminates.
func (t *Turn) Events() <-chan llm.LiveMessage {
	return t.events
}

// Transcript returns the transcript text accumulated so far. It is
// retained for persistence only.
func (t *Turn) Transcript() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.transcript.String()
}

// TimedOut reports whether the turn was ended by the timeout rather than
// an explicit stop.
func (t *Turn) TimedOut() bool {
	return t.timedOut.Load()
}

// State returns the current lifecycle phase.
func (t *Turn) State() State {
	return State(t.state.Load())
}

// Done is closed once the connection's message stream has ended.
func (t *Turn) Done() <-chan struct{} {
	return t.done
}

func (t *Turn) readLoop() {
	defer close(t.done)
	defer close(t.events)

	for msg := range t.conn.Messages() {
		switch msg.Type {
		case llm.LiveTranscript:
			t.mu.Lock()
			t.transcript.WriteString(msg.Text)
			t.mu.Unlock()
		case llm.LiveText, llm.LiveTurnComplete:
			t.emit(msg)
		}
	}

	if err := t.conn.Err(); err != nil && State(t.state.Load()) != StateClosed {
		telemetry.Error("live.connection_failed", map[string]any{"error": err.Error()})
		metrics.IncLiveFailed()
	}
}

func (t *Turn) emit(msg llm.LiveMessage) {
	select {
	case t.events <- msg:
	default:
		// Avoid blocking the read loop if the caller stops consuming.
	}
}

// TranscribeAudioOnce transcribes a single utterance over a short-lived
// live connection: send the audio, signal end of turn, wait for the
// first transcript fragment, release the connection.
func (m *Manager) TranscribeAudioOnce(ctx context.Context, audio []byte) (string, error) {
	conn, err := m.dialer.DialLive(ctx, transcribeInstruction)
	if err != nil {
		telemetry.Error("live.connection_failed", map[string]any{"error": err.Error()})
		metrics.IncLiveFailed()
		return "", ErrStreamingConnectionFailed
	}
	defer conn.Close()

	if err := conn.SendAudio(audio); err != nil {
		return "", fmt.Errorf("send audio: %w", err)
	}
	if err := conn.SendAudioStop(); err != nil {
		return "", fmt.Errorf("send audio stop: %w", err)
	}

	for {
		select {
		case msg, ok := <-conn.Messages():
			if !ok {
				if err := conn.Err(); err != nil {
					return "", fmt.Errorf("live connection: %w", err)
				}
				return "", fmt.Errorf("no transcript received")
			}
			if msg.Type == llm.LiveTranscript {
				metrics.IncTranscribe()
				return msg.Text, nil
			}
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

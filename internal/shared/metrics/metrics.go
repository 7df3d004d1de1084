package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	sessionsStartedTotal   atomic.Uint64
	sessionsCompletedTotal atomic.Uint64

	turnsCompletedTotal atomic.Uint64
	turnsFailedTotal    atomic.Uint64

	liveOpenedTotal   atomic.Uint64
	liveTimedOutTotal atomic.Uint64
	liveFailedTotal   atomic.Uint64

	transcribeTotal atomic.Uint64

	assessmentJobsReceivedTotal             atomic.Uint64
	assessmentJobsCompletedTotal            atomic.Uint64
	assessmentJobsFailedTotal               atomic.Uint64
	assessmentJobsDeletedUnrecoverableTotal atomic.Uint64

	turnDuration = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000})
)

// IncSessionStarted increments the sessions-started counter.
func IncSessionStarted() {
	sessionsStartedTotal.Add(1)
}

// IncSessionCompleted increments the sessions-completed counter.
func IncSessionCompleted() {
	sessionsCompletedTotal.Add(1)
}

// IncTurnCompleted increments the completed-turns counter.
func IncTurnCompleted() {
	turnsCompletedTotal.Add(1)
}

// IncTurnFailed increments the failed-turns counter.
func IncTurnFailed() {
	turnsFailedTotal.Add(1)
}

// IncLiveOpened increments the live-connections-opened counter.
func IncLiveOpened() {
	liveOpenedTotal.Add(1)
}

// IncLiveTimedOut increments the live-turn-timeout counter.
func IncLiveTimedOut() {
	liveTimedOutTotal.Add(1)
}

// IncLiveFailed increments the live-connection-failure counter.
func IncLiveFailed() {
	liveFailedTotal.Add(1)
}

// IncTranscribe increments the one-shot-transcription counter.
func IncTranscribe() {
	transcribeTotal.Add(1)
}

// IncAssessmentJobsReceived increments the assessment jobs received counter.
func IncAssessmentJobsReceived() {
	assessmentJobsReceivedTotal.Add(1)
}

// IncAssessmentJobsCompleted increments the assessment jobs completed counter.
func IncAssessmentJobsCompleted() {
	assessmentJobsCompletedTotal.Add(1)
}

// IncAssessmentJobsFailed increments the assessment jobs failed counter.
func IncAssessmentJobsFailed() {
	assessmentJobsFailedTotal.Add(1)
}

// IncAssessmentJobsDeletedUnrecoverable increments the counter for jobs
// dropped without processing because their payload was unusable.
func IncAssessmentJobsDeletedUnrecoverable() {
	assessmentJobsDeletedUnrecoverableTotal.Add(1)
}

// ObserveTurnDurationMs records one dialogue turn's duration in milliseconds.
func ObserveTurnDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	turnDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "interview_sessions_started_total", "Total interview sessions started", sessionsStartedTotal.Load())
	writeCounter(&buf, "interview_sessions_completed_total", "Total interview sessions completed", sessionsCompletedTotal.Load())
	writeCounter(&buf, "interview_turns_completed_total", "Total dialogue turns completed", turnsCompletedTotal.Load())
	writeCounter(&buf, "interview_turns_failed_total", "Total dialogue turns failed", turnsFailedTotal.Load())
	writeCounter(&buf, "live_connections_opened_total", "Total live voice connections opened", liveOpenedTotal.Load())
	writeCounter(&buf, "live_turns_timed_out_total", "Total live turns ended by timeout", liveTimedOutTotal.Load())
	writeCounter(&buf, "live_connections_failed_total", "Total live connection failures", liveFailedTotal.Load())
	writeCounter(&buf, "transcriptions_total", "Total one-shot transcriptions", transcribeTotal.Load())
	writeCounter(&buf, "assessment_jobs_received_total", "Total assessment jobs received", assessmentJobsReceivedTotal.Load())
	writeCounter(&buf, "assessment_jobs_completed_total", "Total assessment jobs completed", assessmentJobsCompletedTotal.Load())
	writeCounter(&buf, "assessment_jobs_failed_total", "Total assessment jobs failed", assessmentJobsFailedTotal.Load())
	writeCounter(&buf, "assessment_jobs_deleted_unrecoverable_total", "Total assessment jobs dropped as unrecoverable", assessmentJobsDeletedUnrecoverableTotal.Load())
	writeHistogram(&buf, "turn_duration_ms", "Dialogue turn duration in milliseconds", turnDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			break
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
	return out
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// NowMillis returns current time in milliseconds, useful for callers without time utilities.
func NowMillis() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Millisecond)
}

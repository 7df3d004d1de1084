package sessions

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"interview-backend/internal/interview"
	"interview-backend/internal/jdresume"
	"interview-backend/internal/live"
	"interview-backend/internal/llm"
	"interview-backend/internal/personas"
)

func newSessionRouter(t *testing.T, h *Handler, asGuest bool) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		if asGuest {
			c.Set("userId", "guest:test-guest")
			c.Set("isGuest", true)
		} else {
			c.Set("userId", testUser)
			c.Set("isGuest", false)
		}
		c.Next()
	})
	api := router.Group("/api/v1")
	h.RegisterRoutes(api)
	return router
}

func postJSON(t *testing.T, router *gin.Engine, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func getPath(t *testing.T, router *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func errorCode(t *testing.T, resp *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body.Error.Code
}

func TestCreateSessionEndpoint(t *testing.T) {
	svc, _, _ := newTestService(t, testUser, openingReply)
	router := newSessionRouter(t, NewHandler(svc, nil, nil), false)

	resp := postJSON(t, router, "/api/v1/sessions", map[string]string{"personaId": "technical-lead"})
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}

	var created struct {
		ID               string `json:"id"`
		PersonaID        string `json:"personaId"`
		QuestionSegments []struct {
			Question string `json:"question"`
		} `json:"questionSegments"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.ID == "" || created.PersonaID != "technical-lead" {
		t.Fatalf("unexpected session body: %+v", created)
	}
	if len(created.QuestionSegments) != 1 || created.QuestionSegments[0].Question == "" {
		t.Fatalf("expected the opening question in the response")
	}

	got := getPath(t, router, "/api/v1/sessions/"+created.ID)
	if got.Code != http.StatusOK {
		t.Fatalf("expected status 200 on fetch, got %d", got.Code)
	}
}

func TestCreateSessionRequiresPersonaID(t *testing.T) {
	svc, _, _ := newTestService(t, testUser)
	router := newSessionRouter(t, NewHandler(svc, nil, nil), false)

	resp := postJSON(t, router, "/api/v1/sessions", map[string]string{})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
	if code := errorCode(t, resp); code != "validation_error" {
		t.Fatalf("expected validation_error, got %q", code)
	}
}

func TestCreateSessionWithoutJdResume(t *testing.T) {
	repo := NewMemoryRepo()
	client := &scriptedLLM{}
	svc := NewService(repo,
		personas.NewService(personas.NewMemoryRepo()),
		jdresume.NewService(jdresume.NewMemoryRepo()),
		interview.NewController(client),
		client,
	)
	router := newSessionRouter(t, NewHandler(svc, nil, nil), false)

	resp := postJSON(t, router, "/api/v1/sessions", map[string]string{"personaId": "technical-lead"})
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", resp.Code)
	}
	if code := errorCode(t, resp); code != "jd_resume_missing" {
		t.Fatalf("expected jd_resume_missing, got %q", code)
	}
}

func TestSubmitTurnEndpoint(t *testing.T) {
	svc, _, _ := newTestService(t, testUser, openingReply, followUpReply)
	router := newSessionRouter(t, NewHandler(svc, nil, nil), false)

	created, err := svc.Create(context.Background(), testUser, "technical-lead")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	resp := postJSON(t, router, "/api/v1/sessions/"+created.ID+"/turns",
		map[string]string{"answerText": "We rebuilt the billing pipeline."})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var turn struct {
		InterviewComplete    bool     `json:"interviewComplete"`
		NextQuestion         string   `json:"nextQuestion"`
		FeedbackPoints       []string `json:"feedbackPoints"`
		CurrentQuestionIndex int      `json:"currentQuestionIndex"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &turn); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if turn.InterviewComplete {
		t.Fatalf("expected interview to continue")
	}
	if turn.NextQuestion != "How did you measure the impact?" {
		t.Fatalf("unexpected next question: %q", turn.NextQuestion)
	}
	if len(turn.FeedbackPoints) != 1 || turn.CurrentQuestionIndex != 1 {
		t.Fatalf("unexpected turn body: %+v", turn)
	}
}

func TestSubmitTurnModelFailure(t *testing.T) {
	svc, _, _ := newTestService(t, testUser, openingReply)
	router := newSessionRouter(t, NewHandler(svc, nil, nil), false)

	created, err := svc.Create(context.Background(), testUser, "technical-lead")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	resp := postJSON(t, router, "/api/v1/sessions/"+created.ID+"/turns",
		map[string]string{"answerText": "An answer."})
	if resp.Code != http.StatusBadGateway {
		t.Fatalf("expected status 502, got %d", resp.Code)
	}
	if code := errorCode(t, resp); code != "turn_failed" {
		t.Fatalf("expected turn_failed, got %q", code)
	}
}

func TestListSessionsGuestRequiresLogin(t *testing.T) {
	svc, _, _ := newTestService(t, "guest:test-guest")
	router := newSessionRouter(t, NewHandler(svc, nil, nil), true)

	resp := getPath(t, router, "/api/v1/sessions")
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", resp.Code)
	}
	if code := errorCode(t, resp); code != "login_required" {
		t.Fatalf("expected login_required, got %q", code)
	}
}

func TestListSessionsReturnsCompactItems(t *testing.T) {
	svc, _, _ := newTestService(t, testUser, openingReply, openingReply)
	router := newSessionRouter(t, NewHandler(svc, nil, nil), false)

	for i := 0; i < 2; i++ {
		if _, err := svc.Create(context.Background(), testUser, "technical-lead"); err != nil {
			t.Fatalf("Create %d: %v", i, err)
		}
	}

	resp := getPath(t, router, "/api/v1/sessions")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}

	var items []map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(items))
	}
	for _, item := range items {
		if item["questionCount"] != float64(1) {
			t.Fatalf("expected questionCount 1, got %v", item["questionCount"])
		}
		if _, heavy := item["questionSegments"]; heavy {
			t.Fatalf("list items must not carry full conversations")
		}
	}
}

func TestReportLifecycle(t *testing.T) {
	svc, _, _ := newTestService(t, testUser, openingReply, assessmentReply)
	svc.Queue = &captureQueue{}
	router := newSessionRouter(t, NewHandler(svc, nil, nil), false)

	created, err := svc.Create(context.Background(), testUser, "technical-lead")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	resp := getPath(t, router, "/api/v1/sessions/"+created.ID+"/report")
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected status 409 while active, got %d", resp.Code)
	}

	if end := postJSON(t, router, "/api/v1/sessions/"+created.ID+"/end", nil); end.Code != http.StatusOK {
		t.Fatalf("expected status 200 on end, got %d", end.Code)
	}

	resp = getPath(t, router, "/api/v1/sessions/"+created.ID+"/report")
	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected status 202 while pending, got %d", resp.Code)
	}

	// The queue is stubbed, so generate the assessment the way the
	// worker would.
	if err := svc.GenerateAssessment(context.Background(), testUser, created.ID); err != nil {
		t.Fatalf("GenerateAssessment: %v", err)
	}

	resp = getPath(t, router, "/api/v1/sessions/"+created.ID+"/report")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200 when ready, got %d", resp.Code)
	}
	var report struct {
		Status     string `json:"status"`
		Assessment struct {
			Summary string `json:"summary"`
		} `json:"assessment"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.Status != "ready" || report.Assessment.Summary == "" {
		t.Fatalf("unexpected report: %+v", report)
	}
}

func TestVoiceTurnEndpointNeverEchoesTranscript(t *testing.T) {
	svc, repo, _ := newTestService(t, testUser, openingReply, followUpReply)
	transcript := "We shipped the migration in six weeks."
	mgr := live.NewManager(fakeLiveDialer{transcript: transcript}, time.Minute)
	router := newSessionRouter(t, NewHandler(svc, mgr, nil), false)

	created, err := svc.Create(context.Background(), testUser, "technical-lead")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("audio", "answer.pcm")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte("fake-pcm-bytes")); err != nil {
		t.Fatalf("write audio: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/"+created.ID+"/voice-turns", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if strings.Contains(resp.Body.String(), transcript) {
		t.Fatalf("response must not echo the transcript")
	}

	var turn struct {
		NextQuestion string `json:"nextQuestion"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &turn); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if turn.NextQuestion != "How did you measure the impact?" {
		t.Fatalf("unexpected next question: %q", turn.NextQuestion)
	}

	stored, err := repo.GetByID(context.Background(), testUser, created.ID)
	if err != nil {
		t.Fatalf("reload session: %v", err)
	}
	answer := stored.QuestionSegments[0].Conversation[1]
	if answer.Role != RoleUser || answer.Text != transcript {
		t.Fatalf("expected transcript stored as the answer, got %+v", answer)
	}
}

// fakeLiveDialer hands out connections that transcribe any audio to a
// fixed string.
type fakeLiveDialer struct {
	transcript string
}

func (d fakeLiveDialer) DialLive(ctx context.Context, systemInstruction string) (llm.LiveConn, error) {
	return newFakeLiveConn(d.transcript, nil), nil
}

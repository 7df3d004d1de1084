package sessions

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"interview-backend/internal/interview"
	"interview-backend/internal/jdresume"
	"interview-backend/internal/live"
	"interview-backend/internal/personas"
	"interview-backend/internal/shared/server/middleware"
	"interview-backend/internal/shared/server/respond"
	"interview-backend/internal/shared/storage/object"
	"interview-backend/internal/usage"
)

// maxAudioUploadSize bounds one-shot voice answer uploads.
const maxAudioUploadSize = 15 << 20

// Handler wires HTTP handlers to the sessions service.
type Handler struct {
	Svc   *Service
	Live  *live.Manager
	Store object.ObjectStore
}

// NewHandler constructs a Handler. Live and Store back the voice
// endpoints and may be nil when voice mode is not configured.
func NewHandler(svc *Service, liveMgr *live.Manager, store object.ObjectStore) *Handler {
	return &Handler{Svc: svc, Live: liveMgr, Store: store}
}

// RegisterRoutes attaches session routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/sessions", h.createSession)
	rg.GET("/sessions", h.listSessions)
	rg.GET("/sessions/:id", h.getSession)
	rg.POST("/sessions/:id/turns", h.submitTurn)
	rg.POST("/sessions/:id/voice-turns", h.submitVoiceTurn)
	rg.POST("/sessions/:id/end", h.endSession)
	rg.GET("/sessions/:id/report", h.getReport)
	rg.GET("/sessions/:id/live", h.liveTurn)
}

// reqCtx carries the request id onto the service context so logs and
// enqueued jobs stay correlated with the HTTP request.
func reqCtx(c *gin.Context) context.Context {
	return WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
}

func (h *Handler) createSession(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.PersonaID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "personaId is required", nil)
		return
	}
	log.Printf("Starting interview session for user %s with persona %s", userID, req.PersonaID)

	sess, err := h.Svc.Create(reqCtx(c), userID, req.PersonaID)
	if err != nil {
		switch {
		case errors.Is(err, personas.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "persona not found", nil)
		case errors.Is(err, jdresume.ErrNotFound):
			respond.Error(c, http.StatusConflict, "jd_resume_missing", "Save your job description and resume before starting an interview.", nil)
		case errors.Is(err, usage.ErrLimitReached):
			respond.Error(c, http.StatusTooManyRequests, "limit_reached", "You've reached your interview limit. Come back when your quota resets.", []map[string]string{
				{"field": "usage", "issue": "limit_reached"},
			})
		case errors.Is(err, interview.ErrModelCallFailed),
			errors.Is(err, interview.ErrEmptyModelResponse),
			errors.Is(err, ErrNoOpeningQuestion):
			respond.Error(c, http.StatusBadGateway, "model_error", "failed to start the interview", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to start the interview", nil)
		}
		return
	}

	respond.JSON(c, http.StatusCreated, sessionResponse(sess))
}

func (h *Handler) getSession(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	sessionID := c.Param("id")

	sess, err := h.Svc.Get(c.Request.Context(), userID, sessionID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "session not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch session", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, sessionResponse(sess))
}

func (h *Handler) listSessions(c *gin.Context) {
	if isGuest, ok := c.Get("isGuest"); ok {
		if guest, ok2 := isGuest.(bool); ok2 && guest {
			respond.Error(c, http.StatusUnauthorized, "login_required", "Login required to view history", nil)
			return
		}
	}

	userID := middleware.UserIDFromContext(c)

	limit := 20
	offset := 0

	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if limit < 0 {
		limit = 0
	}

	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}
	if offset < 0 {
		offset = 0
	}

	sessions, err := h.Svc.List(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list sessions", nil)
		return
	}

	resp := make([]gin.H, 0, len(sessions))
	for _, s := range sessions {
		resp = append(resp, sessionListItem(s))
	}

	respond.JSON(c, http.StatusOK, resp)
}

func (h *Handler) submitTurn(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	sessionID := c.Param("id")

	var req submitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "answerText is required", nil)
		return
	}

	sess, result, err := h.Svc.SubmitAnswer(reqCtx(c), userID, sessionID, req.AnswerText)
	if err != nil {
		h.respondTurnError(c, err)
		return
	}

	respond.JSON(c, http.StatusOK, turnResponse(sess, result))
}

// submitVoiceTurn accepts one recorded spoken answer, transcribes it
// over a short-lived live connection and runs a normal dialogue turn
// with the transcript. The reply carries the turn outcome only; the
// recognized text itself is never echoed back.
func (h *Handler) submitVoiceTurn(c *gin.Context) {
	if h.Live == nil {
		respond.Error(c, http.StatusServiceUnavailable, "voice_unavailable", "voice mode is not configured", nil)
		return
	}

	userID := middleware.UserIDFromContext(c)
	sessionID := c.Param("id")

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxAudioUploadSize)
	file, header, err := c.Request.FormFile("audio")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "audio file is required", nil)
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil || len(audio) == 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "could not read audio", nil)
		return
	}

	if h.Store != nil {
		if _, _, _, err := h.Store.Save(c.Request.Context(), userID, header.Filename, bytes.NewReader(audio)); err != nil {
			log.Printf("voice turn audio save failed for session %s: %v", sessionID, err)
		}
	}

	transcript, err := h.Live.TranscribeAudioOnce(c.Request.Context(), audio)
	if err != nil {
		respond.Error(c, http.StatusBadGateway, "transcription_failed", "failed to transcribe audio", nil)
		return
	}

	sess, result, err := h.Svc.SubmitAnswer(reqCtx(c), userID, sessionID, transcript)
	if err != nil {
		h.respondTurnError(c, err)
		return
	}

	respond.JSON(c, http.StatusOK, turnResponse(sess, result))
}

func (h *Handler) endSession(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	sessionID := c.Param("id")

	sess, err := h.Svc.End(reqCtx(c), userID, sessionID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "session not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to end session", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, sessionResponse(sess))
}

func (h *Handler) getReport(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	sessionID := c.Param("id")

	sess, err := h.Svc.Get(c.Request.Context(), userID, sessionID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "session not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch report", nil)
		}
		return
	}

	if sess.Active() {
		respond.Error(c, http.StatusConflict, "session_active", "end the session before requesting the report", nil)
		return
	}
	if sess.OverallAssessment == nil {
		respond.JSON(c, http.StatusAccepted, gin.H{"status": "pending"})
		return
	}

	respond.JSON(c, http.StatusOK, gin.H{
		"status":     "ready",
		"assessment": sess.OverallAssessment,
	})
}

func (h *Handler) respondTurnError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "session not found", nil)
	case errors.Is(err, ErrSessionEnded):
		respond.Error(c, http.StatusConflict, "session_ended", "this session has already ended", nil)
	case errors.Is(err, ErrEmptyAnswer):
		respond.Error(c, http.StatusBadRequest, "validation_error", "answerText is required", nil)
	case errors.Is(err, jdresume.ErrNotFound):
		respond.Error(c, http.StatusConflict, "jd_resume_missing", "Save your job description and resume before continuing.", nil)
	case errors.Is(err, interview.ErrModelCallFailed), errors.Is(err, interview.ErrEmptyModelResponse):
		respond.Error(c, http.StatusBadGateway, "turn_failed", "failed to get next question", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to process turn", nil)
	}
}

package personas

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"interview-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the persona catalog.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches persona routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/personas", h.listPersonas)
	rg.GET("/personas/:id", h.getPersona)
}

func (h *Handler) listPersonas(c *gin.Context) {
	list, err := h.Svc.List(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list personas", nil)
		return
	}

	resp := make([]gin.H, 0, len(list))
	for _, p := range list {
		resp = append(resp, personaResponse(p))
	}
	respond.JSON(c, http.StatusOK, resp)
}

func (h *Handler) getPersona(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "persona id is required", nil)
		return
	}

	p, err := h.Svc.GetByID(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "persona not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch persona", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, personaResponse(p))
}

// personaResponse shapes the public view of a persona. The system prompt
// stays server-side; clients only need the display name and greeting.
func personaResponse(p Persona) gin.H {
	return gin.H{
		"id":       p.ID,
		"name":     p.Name,
		"greeting": p.Greeting,
	}
}

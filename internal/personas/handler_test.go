package personas

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	handler := NewHandler(NewService(NewMemoryRepo()))

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("userId", "user-1")
		c.Set("isGuest", false)
		c.Next()
	})
	api := router.Group("/api/v1")
	handler.RegisterRoutes(api)
	return router
}

func TestListPersonasReturnsCatalog(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/personas", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}

	var body []map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(body) != 3 {
		t.Fatalf("expected 3 personas, got %d", len(body))
	}

	wantNames := []string{"Behavioral Coach", "Hiring Manager", "Technical Lead"}
	for i, item := range body {
		if item["name"] != wantNames[i] {
			t.Fatalf("persona %d: expected name %q, got %v", i, wantNames[i], item["name"])
		}
		if item["id"] == "" {
			t.Fatalf("persona %d: missing id", i)
		}
		if item["greeting"] == "" {
			t.Fatalf("persona %d: missing greeting", i)
		}
		if _, leaked := item["systemPrompt"]; leaked {
			t.Fatalf("persona %d: system prompt must not be exposed", i)
		}
	}
}

func TestGetPersonaByID(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/personas/hiring-manager", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["id"] != "hiring-manager" {
		t.Fatalf("expected id hiring-manager, got %v", body["id"])
	}
	if body["name"] != "Hiring Manager" {
		t.Fatalf("expected name Hiring Manager, got %v", body["name"])
	}
	if _, leaked := body["systemPrompt"]; leaked {
		t.Fatal("system prompt must not be exposed")
	}
}

func TestGetPersonaNotFound(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/personas/ghost", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", resp.Code)
	}
}

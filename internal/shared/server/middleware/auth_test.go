package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"interview-backend/internal/shared/auth"
)

func TestAuthAllowsOptionsWithoutIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Auth("dev"))
	router.OPTIONS("/api/v1/sessions", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/sessions", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
}

func TestAuthGuestHeaderSetsIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Auth("dev"))

	var gotUserID string
	var gotGuest any
	router.GET("/api/v1/sessions", func(c *gin.Context) {
		gotUserID = UserIDFromContext(c)
		gotGuest, _ = c.Get("isGuest")
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions", nil)
	req.Header.Set("X-Guest-Id", "guest1")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if gotUserID != "guest:guest1" {
		t.Fatalf("expected userId guest:guest1, got %q", gotUserID)
	}
	if gotGuest != true {
		t.Fatalf("expected isGuest true, got %v", gotGuest)
	}
}

func TestAuthBearerTokenSetsClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	token, err := auth.SignJWT(auth.Claims{
		Sub:   "google:sub-1",
		Email: "dev@example.com",
		Name:  "Dev User",
	})
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	router := gin.New()
	router.Use(Auth("dev"))

	var gotUserID, gotEmail string
	var gotGuest any
	router.GET("/api/v1/sessions", func(c *gin.Context) {
		gotUserID = UserIDFromContext(c)
		gotEmail = UserEmailFromContext(c)
		gotGuest, _ = c.Get("isGuest")
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if gotUserID != "google:sub-1" {
		t.Fatalf("expected userId google:sub-1, got %q", gotUserID)
	}
	if gotEmail != "dev@example.com" {
		t.Fatalf("expected email from claims, got %q", gotEmail)
	}
	if gotGuest != false {
		t.Fatalf("expected isGuest false, got %v", gotGuest)
	}
}

func TestAuthRejectsMissingIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Auth("dev"))
	router.GET("/api/v1/sessions", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestAuthRejectsMalformedToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Auth("dev"))
	router.GET("/api/v1/sessions", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions", nil)
	req.Header.Set("Authorization", "Bearer not.a.jwt")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestAuthSkipsGoogleRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Auth("dev"))
	router.GET("/api/v1/auth/google/start", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/start", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 without identity on auth routes, got %d", resp.Code)
	}
}

func TestAuthWebsocketUpgradeAcceptsQueryGuest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Auth("dev"))

	var gotUserID string
	router.GET("/api/v1/sessions/s1/live", func(c *gin.Context) {
		gotUserID = UserIDFromContext(c)
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/s1/live?guest_id=guest1", nil)
	req.Header.Set("Upgrade", "websocket")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if gotUserID != "guest:guest1" {
		t.Fatalf("expected userId guest:guest1, got %q", gotUserID)
	}
}

func TestAuthWebsocketUpgradeAcceptsQueryToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	token, err := auth.SignJWT(auth.Claims{Sub: "google:sub-ws"})
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	router := gin.New()
	router.Use(Auth("dev"))

	var gotUserID string
	router.GET("/api/v1/sessions/s1/live", func(c *gin.Context) {
		gotUserID = UserIDFromContext(c)
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/s1/live?access_token="+token, nil)
	req.Header.Set("Upgrade", "websocket")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if gotUserID != "google:sub-ws" {
		t.Fatalf("expected userId google:sub-ws, got %q", gotUserID)
	}
}

func TestAuthQueryCredentialsIgnoredWithoutUpgrade(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Auth("dev"))
	router.GET("/api/v1/sessions", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions?guest_id=guest1", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for query credentials on a plain request, got %d", resp.Code)
	}
}

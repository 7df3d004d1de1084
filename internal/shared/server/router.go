package server

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"interview-backend/internal/account"
	googleauth "interview-backend/internal/auth"
	"interview-backend/internal/jdresume"
	"interview-backend/internal/personas"
	"interview-backend/internal/sessions"
	"interview-backend/internal/shared/config"
	"interview-backend/internal/shared/metrics"
	"interview-backend/internal/shared/server/middleware"
	"interview-backend/internal/shared/server/respond"
	"interview-backend/internal/usage"
	"interview-backend/internal/users"
)

// RouterDeps carries the handlers and shared resources the router wires up.
type RouterDeps struct {
	Config          config.Config
	DB              *sql.DB
	GoogleAuth      *googleauth.GoogleService
	UsersHandler    *users.Handler
	PersonasHandler *personas.Handler
	JdResumeHandler *jdresume.Handler
	SessionsHandler *sessions.Handler
	UsageHandler    *usage.Handler
	AccountHandler  *account.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	cfg := deps.Config
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
		middleware.Auth(cfg.Env),
		middleware.RateLimit(rateLimitConfig()),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		if deps.DB != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := deps.DB.PingContext(ctx); err != nil {
				respond.Error(c, http.StatusServiceUnavailable, "db_unavailable", "database unreachable", nil)
				return
			}
		}
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})

	if deps.GoogleAuth != nil {
		deps.GoogleAuth.RegisterRoutes(api)
	}
	if deps.UsersHandler != nil {
		deps.UsersHandler.RegisterRoutes(api)
	}
	if deps.PersonasHandler != nil {
		deps.PersonasHandler.RegisterRoutes(api)
	}
	if deps.JdResumeHandler != nil {
		deps.JdResumeHandler.RegisterRoutes(api)
	}
	if deps.SessionsHandler != nil {
		deps.SessionsHandler.RegisterRoutes(api)
	}
	if deps.UsageHandler != nil {
		deps.UsageHandler.RegisterRoutes(api)
		if cfg.Env == "dev" {
			dev := api.Group("/dev")
			deps.UsageHandler.RegisterDevRoutes(dev)
		}
	}
	if deps.AccountHandler != nil {
		deps.AccountHandler.RegisterRoutes(api)
	}

	return r
}

const (
	rateGroupTurns = "TURNS"
	rateGroupLive  = "LIVE"
)

func rateLimitConfig() middleware.RateLimitConfig {
	return middleware.RateLimitConfig{
		Rules: map[string]middleware.RateLimitRule{
			rateGroupTurns: {Rate: 0.5, Burst: 5},
			rateGroupLive:  {Rate: 0.2, Burst: 3},
		},
		GroupFor: func(c *gin.Context) string {
			path := c.Request.URL.Path
			switch {
			case strings.HasSuffix(path, "/live"):
				return rateGroupLive
			case strings.HasSuffix(path, "/turns") || strings.HasSuffix(path, "/voice-turns"):
				return rateGroupTurns
			default:
				return ""
			}
		},
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}

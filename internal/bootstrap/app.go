package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"interview-backend/internal/account"
	googleauth "interview-backend/internal/auth"
	"interview-backend/internal/interview"
	"interview-backend/internal/jdresume"
	"interview-backend/internal/live"
	"interview-backend/internal/llm"
	"interview-backend/internal/llm/gemini"
	"interview-backend/internal/personas"
	"interview-backend/internal/queue"
	"interview-backend/internal/sessions"
	"interview-backend/internal/shared/config"
	"interview-backend/internal/shared/server"
	"interview-backend/internal/shared/storage/db"
	"interview-backend/internal/shared/storage/object"
	localstore "interview-backend/internal/shared/storage/object/local"
	s3store "interview-backend/internal/shared/storage/object/s3"
	"interview-backend/internal/usage"
	"interview-backend/internal/users"
)

// App holds shared dependencies. Router is wired last so tests can swap
// services before routes are registered.
type App struct {
	Config              config.Config
	Router              *gin.Engine
	DB                  *sql.DB
	Store               object.ObjectStore
	Queue               queue.Client
	PersonasRepo        personas.Repo
	JdResumeRepo        jdresume.Repo
	SessionsRepo        sessions.Repo
	UsersRepo           users.Repo
	LiveManager         *live.Manager
	PersonasService     *personas.Service
	JdResumeService     *jdresume.Service
	SessionsService     *sessions.Service
	UsageService        *usage.Service
	UsersService        *users.Service
	AccountService      *account.Service
	AssessmentProcessor AssessmentProcessor
	PersonasHandler     *personas.Handler
	JdResumeHandler     *jdresume.Handler
	SessionsHandler     *sessions.Handler
	UsageHandler        *usage.Handler
	UsersHandler        *users.Handler
	AccountHandler      *account.Handler
	GoogleAuth          *googleauth.GoogleService
}

// AssessmentProcessor allows callers to override assessment processing for tests.
type AssessmentProcessor interface {
	GenerateAssessment(ctx context.Context, userID, sessionID string) error
}

// Build prepares shared dependencies and wires the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	queueClient, err := buildQueue(ctx)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		Router: nil,
		DB:     sqlDB,
		Store:  store,
		Queue:  queueClient,
	}

	if err := buildServices(app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          app.Config,
		DB:              app.DB,
		GoogleAuth:      app.GoogleAuth,
		UsersHandler:    app.UsersHandler,
		PersonasHandler: app.PersonasHandler,
		JdResumeHandler: app.JdResumeHandler,
		SessionsHandler: app.SessionsHandler,
		UsageHandler:    app.UsageHandler,
		AccountHandler:  app.AccountHandler,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	var (
		sqlDB *sql.DB
		err   error
	)
	if db.IsLambdaRuntime() {
		opts := db.OptionsFromEnv(db.DefaultLambdaOptions())
		sqlDB, err = db.GetSingleton(ctx, cfg.DatabaseURL, opts)
	} else {
		opts := db.OptionsFromEnv(db.DefaultServerOptions())
		sqlDB, err = db.Connect(ctx, cfg.DatabaseURL, opts)
	}
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildQueue(ctx context.Context) (queue.Client, error) {
	if strings.TrimSpace(os.Getenv("SQS_QUEUE_URL")) == "" {
		return nil, nil
	}
	return queue.NewSQSClient(ctx)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func buildServices(app *App) error {
	var personasRepo personas.Repo
	var jdResumeRepo jdresume.Repo
	var sessionsRepo sessions.Repo
	var userRepo users.Repo

	if app.DB != nil {
		personasRepo = &personas.PGRepo{DB: app.DB}
		jdResumeRepo = &jdresume.PGRepo{DB: app.DB}
		sessionsRepo = &sessions.PGRepo{DB: app.DB}
		userRepo = &users.PGRepo{DB: app.DB}
	} else {
		personasRepo = personas.NewMemoryRepo()
		jdResumeRepo = jdresume.NewMemoryRepo()
		sessionsRepo = sessions.NewMemoryRepo()
		userRepo = users.NewMemoryRepo()
	}

	var usageSvc *usage.Service
	if app.DB != nil {
		usageSvc = usage.NewPostgresService(usage.NewPGStore(app.DB))
	} else {
		usageSvc = usage.NewService()
	}

	llmClient := llm.Client(llm.PlaceholderClient{})
	liveDialer := llm.LiveDialer(llm.PlaceholderClient{})
	if app.Config.LLMProvider == "gemini" {
		apiKey := os.Getenv("GEMINI_API_KEY")
		if strings.TrimSpace(apiKey) == "" {
			log.Printf("bootstrap: GEMINI_API_KEY empty; interview turns will fail until configured")
		} else {
			geminiClient, err := gemini.NewClient(apiKey, app.Config.GeminiModel, app.Config.GeminiLiveModel)
			if err != nil {
				return err
			}
			llmClient = geminiClient
			liveDialer = geminiClient
		}
	}

	liveMgr := live.NewManager(liveDialer, time.Duration(app.Config.LiveTurnTimeoutSeconds)*time.Second)

	personasSvc := personas.NewService(personasRepo)
	jdResumeSvc := jdresume.NewService(jdResumeRepo)
	controller := interview.NewController(llmClient)

	sessionsSvc := sessions.NewService(sessionsRepo, personasSvc, jdResumeSvc, controller, llmClient)
	sessionsSvc.Usage = usageSvc
	sessionsSvc.Queue = app.Queue

	userSvc := users.NewService(userRepo)
	googleAuthSvc := googleauth.NewGoogleService(
		app.Config.GoogleClientID,
		app.Config.GoogleClientSecret,
		app.Config.GoogleRedirectURL,
		app.Config.UIRedirectURL,
		userSvc,
	)

	accountSvc := account.NewService(sessionsRepo, jdResumeRepo)
	accountSvc.Users = userSvc
	accountSvc.Usage = usageSvc

	app.PersonasRepo = personasRepo
	app.JdResumeRepo = jdResumeRepo
	app.SessionsRepo = sessionsRepo
	app.UsersRepo = userRepo
	app.LiveManager = liveMgr
	app.PersonasService = personasSvc
	app.JdResumeService = jdResumeSvc
	app.SessionsService = sessionsSvc
	app.UsageService = usageSvc
	app.UsersService = userSvc
	app.AccountService = accountSvc
	app.AssessmentProcessor = sessionsSvc
	app.PersonasHandler = personas.NewHandler(personasSvc)
	app.JdResumeHandler = jdresume.NewHandler(jdResumeSvc)
	app.SessionsHandler = sessions.NewHandler(sessionsSvc, liveMgr, app.Store)
	app.UsageHandler = usage.NewHandler(usageSvc)
	app.UsersHandler = users.NewHandler(userSvc)
	app.AccountHandler = account.NewHandler(accountSvc)
	app.GoogleAuth = googleAuthSvc

	if app.SessionsHandler == nil || app.PersonasHandler == nil || app.UsageHandler == nil {
		return errors.New("failed to initialize handlers")
	}

	return nil
}

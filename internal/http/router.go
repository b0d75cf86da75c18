package http

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/Abhinav5603/generator-1/internal/config"
	"github.com/Abhinav5603/generator-1/internal/http/handlers"
	"github.com/Abhinav5603/generator-1/internal/http/middlewares"
	"github.com/Abhinav5603/generator-1/internal/observability"
	"github.com/Abhinav5603/generator-1/internal/storage"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// SessionManager is what the router needs from auth.Sessions: the handler
// side issues and revokes, the middleware side validates.
type SessionManager interface {
	handlers.SessionIssuer
	middlewares.SessionValidator
}

type Deps struct {
	Accounts  handlers.AccountService
	Sessions  SessionManager
	Questions handlers.QuestionService
	Feedback  handlers.FeedbackService

	// optional
	Files  storage.Store
	Prom   *observability.Prom
	Checks map[string]handlers.PingFunc
}

const (
	authRateLimit     = 10
	generateRateLimit = 20
	rateWindow        = time.Minute

	// multipart framing on top of the file itself
	multipartSlack = 1 << 20
)

func NewRouter(log *slog.Logger, cfg config.Config, deps Deps) (*gin.Engine, error) {
	if cfg.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// ClientIP keys the rate limits, so forwarded headers only count from
	// configured proxies
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	if cfg.OtelEnabled {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.RequestLogger(log))
	r.Use(middlewares.SecurityHeaders(cfg.IsProd()))
	r.Use(middlewares.CORSMiddleware(cfg.CORSAllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(cfg.MaxUploadBytes + multipartSlack))

	r.NoRoute(func(ctx *gin.Context) {
		handlers.RespondNotFound(ctx, "Route not found")
	})

	// health + metrics
	h := handlers.NewHealthHandler(deps.Checks)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)
	if deps.Prom != nil {
		r.GET("/metrics", gin.WrapH(deps.Prom.Handler()))
	}

	authMW := middlewares.NewAuthMiddleware(deps.Sessions, log)
	authLimiter := middlewares.NewRateLimiter(authRateLimit, rateWindow)
	generateLimiter := middlewares.NewRateLimiter(generateRateLimit, rateWindow)

	authHandler := handlers.NewAuthHandler(deps.Accounts, deps.Sessions, cfg.IsProd(), log)
	questionsHandler := handlers.NewQuestionsHandler(deps.Questions, deps.Files, cfg.MaxUploadBytes, log)
	answersHandler := handlers.NewAnswersHandler(deps.Feedback)

	api := r.Group("/api")

	// accounts
	api.POST("/register", authLimiter.RateLimiterMiddleware(middlewares.KeyByIP), middlewares.RequireJSON(), authHandler.Register)
	api.POST("/login", authLimiter.RateLimiterMiddleware(middlewares.KeyByIP), middlewares.RequireJSON(), authHandler.Login)
	api.POST("/logout", authMW.OptionalAuth(), authHandler.Logout)
	api.GET("/profile", authMW.RequireAuth(), authHandler.Profile)
	api.POST("/change-password", authMW.RequireAuth(), middlewares.RequireJSON(), authHandler.ChangePassword)

	// generation
	generate := generateLimiter.RateLimiterMiddleware(middlewares.KeyByUserOrIP)

	api.POST("/upload-resume", authMW.RequireAuth(), generate, questionsHandler.UploadResume)
	api.POST("/upload-resume-public", generate, questionsHandler.UploadResumePublic)
	api.POST("/process-voice", authMW.RequireAuth(), generate, middlewares.RequireJSON(), questionsHandler.ProcessVoice)
	api.POST("/process-voice-public", generate, middlewares.RequireJSON(), questionsHandler.ProcessVoicePublic)

	// question sets
	api.GET("/question-history", authMW.RequireAuth(), questionsHandler.History)
	api.GET("/question-history-public", questionsHandler.HistoryPublic)
	api.GET("/get-question-set/:id", questionsHandler.GetQuestionSet)

	// answers
	api.POST("/submit-answer", authMW.OptionalAuth(), generate, middlewares.RequireJSON(), answersHandler.SubmitAnswer)
	api.GET("/get-answers", authMW.RequireAuth(), answersHandler.GetAnswers)

	return r, nil
}

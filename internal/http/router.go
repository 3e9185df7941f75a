// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns:
// tracing, correlation IDs, redacting logs, panic recovery, compression,
// metrics, idempotency, rate limiting, CORS, and security headers.
//
// Middleware order matters and is documented on RegisterRoutes.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/akontos/go-progress-backend/internal/config"
	"github.com/akontos/go-progress-backend/internal/domain"
	"github.com/akontos/go-progress-backend/internal/http/handlers"
	"github.com/akontos/go-progress-backend/internal/http/middleware"
	"github.com/akontos/go-progress-backend/internal/repo"
	"github.com/akontos/go-progress-backend/internal/services"
)

// userRepoShim adapts the repository free functions to the services.AuthRepo
// interface. It keeps AuthService decoupled from the concrete repo package
// while reusing its functions.
type userRepoShim struct{}

func (userRepoShim) CreateUser(ctx context.Context, db *gorm.DB, username, email, passwordHash string) (*domain.User, error) {
	return repo.CreateUser(ctx, db, username, email, passwordHash)
}

func (userRepoShim) GetUserByUsername(ctx context.Context, db *gorm.DB, username string) (*domain.User, error) {
	return repo.GetUserByUsername(ctx, db, username)
}

// RegisterRoutes attaches all middleware and endpoints to the Gin engine.
//
// Middleware order:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with secret scrubbing
//  4. Recovery: capture panics after logging
//  5. Body size limiter
//  6. Gzip compression for JSON payloads
//  7. Metrics
//  8. CORS and security headers
//
// Authentication, idempotency, and rate limiting are applied per route
// group: /auth/* is public, everything else requires a bearer token, and
// the idempotency validator runs after auth so lookups see the
// authenticated user. The rate limiter runs last in the authed chain so
// idempotent replays skip token consumption.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{}))
	r.Use(middleware.Recovery())
	r.Use(limitBody(1 << 20))
	r.Use(gzip.Gzip(gzip.DefaultCompression))
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	registerCORS(r, cfg)

	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeBadRequest, "method not allowed")
	})

	// Liveness
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db/config
	loc := cfg.Location()
	authSvc := &services.AuthService{
		DB:         db,
		Repo:       userRepoShim{},
		JWTSecret:  cfg.Auth.JWTSecret,
		TokenTTL:   cfg.Auth.TokenTTL,
		BcryptCost: cfg.Auth.BcryptCost,
	}
	subSvc := &services.SubmissionService{
		DB:              db,
		Loc:             loc,
		MaxProblemRunes: 255,
		MaxNotesRunes:   4000,
		IdempotencyTTL:  cfg.IdempotencyTTL,
	}
	progSvc := &services.ProgressService{DB: db, Loc: loc}
	h := handlers.New(authSvc, subSvc, progSvc)

	api := groupWithPrefix(r, cfg.APIBasePath)
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())

	// Public account endpoints, throttled by client IP.
	api.POST("/auth/register", rl.Handler(), h.Register)
	api.POST("/auth/login", rl.Handler(), h.Login)

	// Everything else requires a bearer token.
	authed := api.Group("", middleware.RequireAuth(cfg.Auth.JWTSecret))
	authed.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{MaxLen: 200},
		func(ctx context.Context, userID, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, userID, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	))
	authed.Use(rl.Handler())
	{
		// Profile and progress
		authed.GET("/me", h.Me)
		authed.GET("/me/streaks", h.Streaks)
		authed.GET("/me/heatmap", h.Heatmap)

		// Submissions
		authed.POST("/submissions", h.CreateSubmission)
		authed.GET("/submissions", h.ListSubmissions)
		authed.GET("/submissions/search", h.SearchSubmissions)
		authed.GET("/submissions/:id", h.GetSubmission)
		authed.PUT("/submissions/:id", h.UpdateSubmission)
		authed.DELETE("/submissions/:id", h.DeleteSubmission)
	}
}

// registerCORS installs the CORS posture: allow-all when no origins are
// configured, an explicit allowlist otherwise.
func registerCORS(r *gin.Engine, cfg config.Config) {
	allowHeaders := []string{
		"Origin", "Content-Type", "Accept", "Authorization",
		middleware.HeaderIdempotencyKey, "If-None-Match",
	}

	if len(cfg.CORS.AllowedOrigins) == 0 {
		// ACAO: * even without an Origin header, which keeps curl and health
		// probes unsurprising.
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    []string{"X-Request-ID", "ETag", "Content-Length"},
			AllowCredentials: false, // must stay false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
		return
	}

	allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
	for _, o := range cfg.CORS.AllowedOrigins {
		allowed[o] = struct{}{}
	}
	r.Use(func(c *gin.Context) {
		if origin := c.GetHeader("Origin"); origin != "" {
			if _, ok := allowed[origin]; ok {
				h := c.Writer.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
			}
		}
		c.Next()
	})
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     allowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "ETag", "Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))
}

// limitBody caps every request body at maxBytes via http.MaxBytesReader;
// oversized bodies error on read.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}

// Auth HTTP handlers.
//
// This file exposes the public account endpoints:
//   - POST /auth/register  (create an account)
//   - POST /auth/login     (exchange credentials for a bearer token)
//
// It also hosts the Handlers wiring shared by every endpoint in this
// package: handlers depend on narrow service interfaces so transport
// concerns stay separate from business logic.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/akontos/go-progress-backend/internal/domain"
	"github.com/akontos/go-progress-backend/internal/http/middleware"
	"github.com/akontos/go-progress-backend/internal/services"
	"github.com/akontos/go-progress-backend/internal/streak"
)

//
// Service contracts (context-aware)
//

// AuthService defines the account operations consumed by HTTP handlers.
type AuthService interface {
	// Register creates an account after validating identifiers and password.
	Register(ctx context.Context, username, email, password string) (*domain.User, error)
	// Login verifies credentials and returns the account with a signed token.
	Login(ctx context.Context, username, password string) (*domain.User, string, error)
}

// SubmissionService defines the submission lifecycle operations consumed by
// HTTP handlers. Implementations must honor the provided context.
type SubmissionService interface {
	// Create persists a submission; a non-empty idemKey deduplicates retries.
	Create(ctx context.Context, userID string, in services.SubmissionInput, idemKey string) (*domain.Submission, bool, error)
	// Get fetches one submission owned by userID.
	Get(ctx context.Context, userID, id string) (*domain.Submission, error)
	// ListPage returns a page of submissions plus the total count.
	ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Submission, int64, error)
	// Update applies a partial update to an owned submission.
	Update(ctx context.Context, userID, id string, in services.SubmissionInput) (*domain.Submission, error)
	// Delete removes an owned submission.
	Delete(ctx context.Context, userID, id string) error
	// Search ranks the user's submissions against a free-text query.
	Search(ctx context.Context, userID, query string, limit int) ([]domain.Submission, error)
}

// ProgressService defines the derived-progress operations consumed by HTTP
// handlers.
type ProgressService interface {
	// GetSummary returns profile, counts, and reconciled streaks.
	GetSummary(ctx context.Context, userID string) (*services.Summary, error)
	// Refresh recomputes and reconciles the user's streak state.
	Refresh(ctx context.Context, userID string) (streak.State, error)
	// Heatmap returns per-day submission counts within [from, to).
	Heatmap(ctx context.Context, userID string, from, to time.Time) (map[string]int, error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints for accounts, submissions, and progress.
type Handlers struct {
	authSvc AuthService
	subSvc  SubmissionService
	progSvc ProgressService
}

// New constructs a Handlers instance bound to the given services.
func New(authSvc AuthService, subSvc SubmissionService, progSvc ProgressService) *Handlers {
	return &Handlers{authSvc: authSvc, subSvc: subSvc, progSvc: progSvc}
}

// userID returns the authenticated user id placed in the context by the auth
// middleware; empty for unauthenticated routes.
func userID(c *gin.Context) string {
	return middleware.UserIDFrom(c)
}

//
// DTOs
//

// RegisterRequest is the JSON payload for creating an account.
type RegisterRequest struct {
	// Username is 3-32 characters of letters, digits, underscore, or hyphen.
	Username string `json:"username" binding:"required" example:"alice_01"`
	Email    string `json:"email" binding:"required" example:"alice@example.com"`
	// Password must be at least 8 characters.
	Password string `json:"password" binding:"required" example:"correct-horse"`
}

// LoginRequest is the JSON payload for exchanging credentials for a token.
type LoginRequest struct {
	Username string `json:"username" binding:"required" example:"alice_01"`
	Password string `json:"password" binding:"required" example:"correct-horse"`
}

// AuthResponse carries the account and, after login, its bearer token.
type AuthResponse struct {
	User *domain.User `json:"user"`
	// Token is present on login responses only.
	Token string `json:"token,omitempty"`
}

//
// Handlers
//

// Register godoc
// @ID          register
// @Summary     Create an account
// @Description Registers a new user. Usernames and emails are stored lowercase.
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.RegisterRequest  true  "Account payload"
// @Success     201  {object}  handlers.AuthResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid username, email, or password"
// @Failure     409  {object}  handlers.ErrorResponse  "Username or email already taken"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /auth/register [post]
func (h *Handlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "username, email, and password required")
		return
	}

	u, err := h.authSvc.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidUsername):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "username must be 3-32 characters of letters, digits, _ or -")
		case errors.Is(err, services.ErrInvalidEmail):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid email address")
		case errors.Is(err, services.ErrWeakPassword):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "password must be at least 8 characters")
		case errors.Is(err, services.ErrUserExists):
			fail(c, http.StatusConflict, ErrCodeConflict, "username or email already taken")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeRegisterFailed, err.Error())
		}
		return
	}

	ok(c, http.StatusCreated, AuthResponse{User: u})
}

// Login godoc
// @ID          login
// @Summary     Log in
// @Description Verifies credentials and returns a bearer token for the API.
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.LoginRequest  true  "Credentials"
// @Success     200  {object}  handlers.AuthResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Missing credentials"
// @Failure     401  {object}  handlers.ErrorResponse  "Unknown user or wrong password"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /auth/login [post]
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "username and password required")
		return
	}

	u, token, err := h.authSvc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid credentials")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeLoginFailed, err.Error())
		return
	}

	ok(c, http.StatusOK, AuthResponse{User: u, Token: token})
}

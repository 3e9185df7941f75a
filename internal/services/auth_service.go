// Package services – AuthService
//
// This file implements AuthService, which owns account registration and
// login. It validates and normalizes identifiers, hashes passwords with
// bcrypt, and issues JWTs on successful login. Credential failures collapse
// into a single ErrInvalidCredentials so responses never reveal whether a
// username exists.
package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/akontos/go-progress-backend/internal/auth"
	"github.com/akontos/go-progress-backend/internal/domain"
	"github.com/akontos/go-progress-backend/internal/repo"
)

var (
	// usernameRE restricts usernames to a URL- and log-safe charset.
	usernameRE = regexp.MustCompile(`^[A-Za-z0-9_\-]{3,32}$`)
	// emailRE is a light syntactic check; deliverability is not our problem.
	emailRE = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// AuthRepo defines the repository contract required by AuthService.
type AuthRepo interface {
	// CreateUser inserts a new account row.
	CreateUser(ctx context.Context, db *gorm.DB, username, email, passwordHash string) (*domain.User, error)

	// GetUserByUsername fetches an account for login.
	GetUserByUsername(ctx context.Context, db *gorm.DB, username string) (*domain.User, error)
}

// AuthService provides registration and login on top of the user repository.
type AuthService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the user repository used by this service.
	Repo AuthRepo

	// JWTSecret signs issued tokens.
	JWTSecret string
	// TokenTTL is the issued token lifetime.
	TokenTTL time.Duration
	// BcryptCost tunes password hashing; 0 falls back to bcrypt.DefaultCost.
	BcryptCost int
}

// Register validates inputs, hashes the password, and creates the account.
// Username and email are lowercased before storage so lookups stay
// case-insensitive.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*domain.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	email = strings.ToLower(strings.TrimSpace(email))

	if !usernameRE.MatchString(username) {
		return nil, ErrInvalidUsername
	}
	if !emailRE.MatchString(email) {
		return nil, ErrInvalidEmail
	}
	if len(password) < 8 {
		return nil, ErrWeakPassword
	}

	cost := s.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return nil, err
	}

	u, err := s.Repo.CreateUser(ctx, s.DB, username, email, string(hash))
	if err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, err
	}
	return u, nil
}

// Login verifies credentials and returns the account plus a signed token.
// Unknown users and wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.User, string, error) {
	username = strings.ToLower(strings.TrimSpace(username))

	u, err := s.Repo.GetUserByUsername(ctx, s.DB, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, "", ErrInvalidCredentials
	}

	ttl := s.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	token, err := auth.GenerateToken(s.JWTSecret, u.ID, u.Username, ttl)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

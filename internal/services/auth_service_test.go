package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/akontos/go-progress-backend/internal/auth"
	"github.com/akontos/go-progress-backend/internal/domain"
	"github.com/akontos/go-progress-backend/internal/repo"
)

// ----- Fake repo -----

type fakeAuthRepo struct {
	createUsername string
	createEmail    string
	createHash     string
	createErr      error

	getUsername string
	getUser     *domain.User
	getErr      error
}

func (r *fakeAuthRepo) CreateUser(ctx context.Context, db *gorm.DB, username, email, passwordHash string) (*domain.User, error) {
	r.createUsername, r.createEmail, r.createHash = username, email, passwordHash
	if r.createErr != nil {
		return nil, r.createErr
	}
	return &domain.User{ID: "u1", Username: username, Email: email, PasswordHash: passwordHash}, nil
}

func (r *fakeAuthRepo) GetUserByUsername(ctx context.Context, db *gorm.DB, username string) (*domain.User, error) {
	r.getUsername = username
	return r.getUser, r.getErr
}

func newAuthSvc(r *fakeAuthRepo) *AuthService {
	return &AuthService{
		Repo:       r,
		JWTSecret:  "test-secret",
		TokenTTL:   time.Hour,
		BcryptCost: bcrypt.MinCost, // keep the test fast
	}
}

// ----- Tests -----

func TestRegister_Success_NormalizesAndHashes(t *testing.T) {
	fr := &fakeAuthRepo{}
	svc := newAuthSvc(fr)

	u, err := svc.Register(context.Background(), "  Alice_01 ", "Alice@Example.COM", "correct-horse")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.Username != "alice_01" || fr.createEmail != "alice@example.com" {
		t.Fatalf("identifiers not normalized: %+v / %q", u, fr.createEmail)
	}
	if fr.createHash == "correct-horse" {
		t.Fatalf("password stored in clear")
	}
	if bcrypt.CompareHashAndPassword([]byte(fr.createHash), []byte("correct-horse")) != nil {
		t.Fatalf("stored hash does not verify")
	}
}

func TestRegister_Validation(t *testing.T) {
	svc := newAuthSvc(&fakeAuthRepo{})
	cases := []struct {
		name                      string
		username, email, password string
		want                      error
	}{
		{"short username", "ab", "a@b.co", "longenough", ErrInvalidUsername},
		{"bad charset", "has space", "a@b.co", "longenough", ErrInvalidUsername},
		{"bad email", "alice", "nope", "longenough", ErrInvalidEmail},
		{"weak password", "alice", "a@b.co", "short", ErrWeakPassword},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Register(context.Background(), tc.username, tc.email, tc.password); !errors.Is(err, tc.want) {
				t.Fatalf("want %v, got %v", tc.want, err)
			}
		})
	}
}

func TestRegister_DuplicateMapsToUserExists(t *testing.T) {
	svc := newAuthSvc(&fakeAuthRepo{createErr: repo.ErrDuplicate})
	if _, err := svc.Register(context.Background(), "alice", "a@b.co", "longenough"); !errors.Is(err, ErrUserExists) {
		t.Fatalf("want ErrUserExists, got %v", err)
	}
}

func TestLogin_Success_IssuesValidToken(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("hunter2hunter2"), bcrypt.MinCost)
	fr := &fakeAuthRepo{getUser: &domain.User{ID: "u1", Username: "alice", PasswordHash: string(hash)}}
	svc := newAuthSvc(fr)

	u, tok, err := svc.Login(context.Background(), "ALICE", "hunter2hunter2")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if u.ID != "u1" || fr.getUsername != "alice" {
		t.Fatalf("unexpected user/lookup: %+v / %q", u, fr.getUsername)
	}
	claims, err := auth.ParseToken("test-secret", tok)
	if err != nil || claims.UserID != "u1" {
		t.Fatalf("issued token invalid: %v / %+v", err, claims)
	}
}

func TestLogin_Failures_Indistinguishable(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("rightpassword"), bcrypt.MinCost)

	unknown := newAuthSvc(&fakeAuthRepo{getErr: gorm.ErrRecordNotFound})
	_, _, errUnknown := unknown.Login(context.Background(), "ghost", "whatever")

	wrongPw := newAuthSvc(&fakeAuthRepo{getUser: &domain.User{ID: "u1", PasswordHash: string(hash)}})
	_, _, errWrong := wrongPw.Login(context.Background(), "alice", "wrongpassword")

	if !errors.Is(errUnknown, ErrInvalidCredentials) || !errors.Is(errWrong, ErrInvalidCredentials) {
		t.Fatalf("both failures must be ErrInvalidCredentials: %v / %v", errUnknown, errWrong)
	}
}

func TestLogin_RepoErrorPropagates(t *testing.T) {
	boom := errors.New("db down")
	svc := newAuthSvc(&fakeAuthRepo{getErr: boom})
	if _, _, err := svc.Login(context.Background(), "alice", "x"); !errors.Is(err, boom) {
		t.Fatalf("want raw repo error, got %v", err)
	}
}

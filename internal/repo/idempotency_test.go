package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/akontos/go-progress-backend/internal/domain"
)

func TestIdempotency_CreateAndGet(t *testing.T) {
	db := newRepoDB(t, &domain.Idempotency{})
	now := time.Now().UTC()

	rec, err := CreateIdempotency(context.Background(), db, "u1", "k1", "sub-1", 201, time.Hour)
	if err != nil {
		t.Fatalf("CreateIdempotency: %v", err)
	}
	if rec.ID == "" || rec.SubmissionID != "sub-1" || rec.Status != 201 {
		t.Fatalf("unexpected record: %+v", rec)
	}

	got, err := GetIdempotency(context.Background(), db, "u1", "k1", now)
	if err != nil {
		t.Fatalf("GetIdempotency: %v", err)
	}
	if got.SubmissionID != "sub-1" {
		t.Fatalf("lookup mismatch: %+v", got)
	}
}

func TestIdempotency_Duplicate(t *testing.T) {
	db := newRepoDB(t, &domain.Idempotency{})
	if _, err := CreateIdempotency(context.Background(), db, "u1", "k1", "sub-1", 201, time.Hour); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := CreateIdempotency(context.Background(), db, "u1", "k1", "sub-2", 201, time.Hour); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("want ErrDuplicate, got %v", err)
	}
	// Same key under another user is a distinct tuple.
	if _, err := CreateIdempotency(context.Background(), db, "u2", "k1", "sub-3", 201, time.Hour); err != nil {
		t.Fatalf("same key, different user: %v", err)
	}
}

func TestIdempotency_ExpiryHonored(t *testing.T) {
	db := newRepoDB(t, &domain.Idempotency{})
	if _, err := CreateIdempotency(context.Background(), db, "u1", "k1", "sub-1", 201, time.Millisecond); err != nil {
		t.Fatalf("seed: %v", err)
	}
	future := time.Now().UTC().Add(time.Minute)
	if _, err := GetIdempotency(context.Background(), db, "u1", "k1", future); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expired record should be invisible, got %v", err)
	}
}

func TestIdempotency_MissingKey(t *testing.T) {
	db := newRepoDB(t, &domain.Idempotency{})
	if _, err := GetIdempotency(context.Background(), db, "u1", "nope", time.Now().UTC()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

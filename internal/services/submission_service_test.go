package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/akontos/go-progress-backend/internal/domain"
	"github.com/akontos/go-progress-backend/internal/repo"
)

// newSvcDB opens a throwaway SQLite database with the full schema.
func newSvcDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("svc_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username string) *domain.User {
	t.Helper()
	u, err := repo.CreateUser(context.Background(), db, username, username+"@example.com", "hash")
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

// fixedNow is a deterministic clock used by the services under test.
var fixedNow = time.Date(2025, 6, 15, 13, 45, 0, 0, time.UTC)

func newSubSvc(db *gorm.DB) *SubmissionService {
	return &SubmissionService{
		DB:  db,
		Loc: time.UTC,
		Now: func() time.Time { return fixedNow },
	}
}

func TestSubmissionCreate_NormalizesInput(t *testing.T) {
	db := newSvcDB(t)
	u := seedUser(t, db, "alice")
	svc := newSubSvc(db)

	sub, replayed, err := svc.Create(context.Background(), u.ID, SubmissionInput{
		Problem:    "  Two Sum ",
		Difficulty: " EASY ",
		Topic:      "dynamic programming",
		URL:        "https://leetcode.com/problems/two-sum",
		Notes:      " hash map trick ",
	}, "")
	if err != nil || replayed {
		t.Fatalf("Create: err=%v replayed=%v", err, replayed)
	}
	if sub.Problem != "Two Sum" || sub.Difficulty != "easy" {
		t.Fatalf("problem/difficulty not normalized: %+v", sub)
	}
	if sub.Topic != "Dynamic Programming" {
		t.Fatalf("topic not title-cased: %q", sub.Topic)
	}
	if sub.Notes != "hash map trick" {
		t.Fatalf("notes not trimmed: %q", sub.Notes)
	}
	if !sub.SubmittedAt.Equal(fixedNow) {
		t.Fatalf("zero SubmittedAt should default to now: %v", sub.SubmittedAt)
	}
}

func TestSubmissionCreate_Validation(t *testing.T) {
	svc := newSubSvc(newSvcDB(t))
	cases := []struct {
		name string
		in   SubmissionInput
		want error
	}{
		{"blank problem", SubmissionInput{Problem: "   ", Difficulty: "easy"}, ErrEmptyProblem},
		{"bad difficulty", SubmissionInput{Problem: "p", Difficulty: "brutal"}, ErrInvalidDifficulty},
		{"future date", SubmissionInput{Problem: "p", Difficulty: "easy", SubmittedAt: fixedNow.Add(time.Hour)}, ErrFutureSubmission},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, err := svc.Create(context.Background(), "u", tc.in, ""); !errors.Is(err, tc.want) {
				t.Fatalf("want %v, got %v", tc.want, err)
			}
		})
	}
}

func TestSubmissionCreate_ClockSkewGrace(t *testing.T) {
	db := newSvcDB(t)
	u := seedUser(t, db, "alice")
	svc := newSubSvc(db)

	// Two minutes ahead of the server clock is accepted.
	if _, _, err := svc.Create(context.Background(), u.ID, SubmissionInput{
		Problem: "p", Difficulty: "easy", SubmittedAt: fixedNow.Add(2 * time.Minute),
	}, ""); err != nil {
		t.Fatalf("within grace: %v", err)
	}
}

func TestSubmissionCreate_DropsUnparseableURL(t *testing.T) {
	db := newSvcDB(t)
	u := seedUser(t, db, "alice")
	svc := newSubSvc(db)

	sub, _, err := svc.Create(context.Background(), u.ID, SubmissionInput{
		Problem: "p", Difficulty: "easy", URL: "javascript:alert(1)",
	}, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if sub.URL != "" {
		t.Fatalf("non-http(s) URL should be dropped, got %q", sub.URL)
	}
}

func TestSubmissionCreate_IdempotencyReplay(t *testing.T) {
	db := newSvcDB(t)
	u := seedUser(t, db, "alice")
	svc := newSubSvc(db)

	first, replayed, err := svc.Create(context.Background(), u.ID, SubmissionInput{
		Problem: "Two Sum", Difficulty: "easy",
	}, "key-1")
	if err != nil || replayed {
		t.Fatalf("first create: err=%v replayed=%v", err, replayed)
	}

	second, replayed, err := svc.Create(context.Background(), u.ID, SubmissionInput{
		Problem: "Completely Different", Difficulty: "hard",
	}, "key-1")
	if err != nil {
		t.Fatalf("replay create: %v", err)
	}
	if !replayed || second.ID != first.ID || second.Problem != "Two Sum" {
		t.Fatalf("expected replay of first submission, got replayed=%v %+v", replayed, second)
	}

	// The replay must not have created a second row.
	total, err := repo.CountSubmissions(context.Background(), db, u.ID)
	if err != nil || total != 1 {
		t.Fatalf("want 1 submission, got %d (err=%v)", total, err)
	}
}

func TestSubmissionCreate_DifferentKeysCreateRows(t *testing.T) {
	db := newSvcDB(t)
	u := seedUser(t, db, "alice")
	svc := newSubSvc(db)

	for _, key := range []string{"k1", "k2"} {
		if _, _, err := svc.Create(context.Background(), u.ID, SubmissionInput{
			Problem: "p", Difficulty: "easy",
		}, key); err != nil {
			t.Fatalf("create %s: %v", key, err)
		}
	}
	total, _ := repo.CountSubmissions(context.Background(), db, u.ID)
	if total != 2 {
		t.Fatalf("want 2 submissions, got %d", total)
	}
}

func TestSubmissionGet_NotFoundAndOwnership(t *testing.T) {
	db := newSvcDB(t)
	alice := seedUser(t, db, "alice")
	mallory := seedUser(t, db, "mallory")
	svc := newSubSvc(db)

	sub, _, err := svc.Create(context.Background(), alice.ID, SubmissionInput{Problem: "p", Difficulty: "easy"}, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.Get(context.Background(), mallory.ID, sub.ID); !errors.Is(err, ErrSubmissionNotFound) {
		t.Fatalf("cross-user read must look like missing: %v", err)
	}
	if _, err := svc.Get(context.Background(), alice.ID, "no-such-id"); !errors.Is(err, ErrSubmissionNotFound) {
		t.Fatalf("missing id: %v", err)
	}
}

func TestSubmissionListPage_OrderAndTotals(t *testing.T) {
	db := newSvcDB(t)
	u := seedUser(t, db, "alice")
	svc := newSubSvc(db)

	for i := 0; i < 5; i++ {
		if _, _, err := svc.Create(context.Background(), u.ID, SubmissionInput{
			Problem:     fmt.Sprintf("problem-%d", i),
			Difficulty:  "medium",
			SubmittedAt: fixedNow.Add(-time.Duration(i) * time.Hour),
		}, ""); err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
	}

	items, total, err := svc.ListPage(context.Background(), u.ID, 1, 2)
	if err != nil {
		t.Fatalf("ListPage: %v", err)
	}
	if total != 5 || len(items) != 2 {
		t.Fatalf("want total=5 page=2, got total=%d page=%d", total, len(items))
	}
	// Most recent first.
	if items[0].Problem != "problem-0" || items[1].Problem != "problem-1" {
		t.Fatalf("wrong order: %q, %q", items[0].Problem, items[1].Problem)
	}

	// Garbage paging falls back to defaults.
	items, _, err = svc.ListPage(context.Background(), u.ID, -3, 0)
	if err != nil || len(items) != 5 {
		t.Fatalf("default paging: err=%v len=%d", err, len(items))
	}
}

func TestSubmissionUpdate_PartialMerge(t *testing.T) {
	db := newSvcDB(t)
	u := seedUser(t, db, "alice")
	svc := newSubSvc(db)

	sub, _, err := svc.Create(context.Background(), u.ID, SubmissionInput{
		Problem: "Two Sum", Difficulty: "easy", Topic: "arrays", Notes: "first pass",
	}, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := svc.Update(context.Background(), u.ID, sub.ID, SubmissionInput{Difficulty: "medium"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Difficulty != "medium" {
		t.Fatalf("difficulty not updated: %q", updated.Difficulty)
	}
	if updated.Problem != "Two Sum" || updated.Notes != "first pass" {
		t.Fatalf("untouched fields must survive: %+v", updated)
	}

	// Merged result still passes validation.
	if _, err := svc.Update(context.Background(), u.ID, sub.ID, SubmissionInput{Difficulty: "brutal"}); !errors.Is(err, ErrInvalidDifficulty) {
		t.Fatalf("want ErrInvalidDifficulty, got %v", err)
	}
}

func TestSubmissionDelete_ThenGone(t *testing.T) {
	db := newSvcDB(t)
	u := seedUser(t, db, "alice")
	svc := newSubSvc(db)

	sub, _, err := svc.Create(context.Background(), u.ID, SubmissionInput{Problem: "p", Difficulty: "easy"}, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := svc.Delete(context.Background(), u.ID, sub.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := svc.Delete(context.Background(), u.ID, sub.ID); !errors.Is(err, ErrSubmissionNotFound) {
		t.Fatalf("second delete: %v", err)
	}
	if _, err := svc.Get(context.Background(), u.ID, sub.ID); !errors.Is(err, ErrSubmissionNotFound) {
		t.Fatalf("deleted submission still readable: %v", err)
	}
}

func TestSubmissionSearch_RanksRelevantFirst(t *testing.T) {
	db := newSvcDB(t)
	u := seedUser(t, db, "alice")
	svc := newSubSvc(db)

	seed := []SubmissionInput{
		{Problem: "Binary Tree Level Order Traversal", Difficulty: "medium", Topic: "trees"},
		{Problem: "Two Sum", Difficulty: "easy", Topic: "arrays", Notes: "hash map"},
		{Problem: "Merge Two Sorted Lists", Difficulty: "easy", Topic: "linked lists"},
	}
	for _, in := range seed {
		if _, _, err := svc.Create(context.Background(), u.ID, in, ""); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	got, err := svc.Search(context.Background(), u.ID, "binary tree traversal", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) == 0 || got[0].Problem != "Binary Tree Level Order Traversal" {
		t.Fatalf("wrong ranking: %+v", got)
	}

	if _, err := svc.Search(context.Background(), u.ID, "   ", 10); !errors.Is(err, ErrEmptyQuery) {
		t.Fatalf("blank query: %v", err)
	}
}

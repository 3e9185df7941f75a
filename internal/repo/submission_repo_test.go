package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/akontos/go-progress-backend/internal/domain"
)

func subAt(id, userID string, at time.Time) domain.Submission {
	return domain.Submission{
		ID:          id,
		UserID:      userID,
		Problem:     "Problem " + id,
		Difficulty:  domain.DifficultyMedium,
		SubmittedAt: at,
	}
}

func TestCreateSubmission_GeneratesID(t *testing.T) {
	db := newRepoDB(t, &domain.Submission{})

	s := &domain.Submission{
		UserID:      "u1",
		Problem:     "Two Sum",
		Difficulty:  domain.DifficultyEasy,
		SubmittedAt: time.Now().UTC(),
	}
	if err := CreateSubmission(context.Background(), db, s); err != nil {
		t.Fatalf("CreateSubmission: %v", err)
	}
	if s.ID == "" {
		t.Fatalf("ID should be generated")
	}
	var got domain.Submission
	if err := db.First(&got, "id = ?", s.ID).Error; err != nil {
		t.Fatalf("round-trip: %v", err)
	}
	if got.Problem != "Two Sum" || got.Difficulty != domain.DifficultyEasy {
		t.Fatalf("round-trip mismatch: %+v", got)
	}
}

func TestGetSubmission_OwnershipEnforced(t *testing.T) {
	db := newRepoDB(t, &domain.Submission{})
	now := time.Now().UTC()
	for _, s := range []domain.Submission{subAt("s1", "u1", now), subAt("s2", "u2", now)} {
		s := s
		if err := db.Create(&s).Error; err != nil {
			t.Fatalf("seed %s: %v", s.ID, err)
		}
	}

	if got, err := GetSubmission(context.Background(), db, "s1", "u1"); err != nil || got.ID != "s1" {
		t.Fatalf("GetSubmission: %+v, %v", got, err)
	}
	// Someone else's submission is invisible.
	if _, err := GetSubmission(context.Background(), db, "s2", "u1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound for foreign submission, got %v", err)
	}
}

func TestListSubmissionsPage_OrderAndPaging(t *testing.T) {
	db := newRepoDB(t, &domain.Submission{})
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		s := subAt(id, "u1", base.AddDate(0, 0, i)) // "c" is newest
		if err := db.Create(&s).Error; err != nil {
			t.Fatalf("seed %s: %v", id, err)
		}
	}

	total, err := CountSubmissions(context.Background(), db, "u1")
	if err != nil || total != 3 {
		t.Fatalf("CountSubmissions: %d, %v", total, err)
	}

	page, err := ListSubmissionsPage(context.Background(), db, "u1", 0, 2)
	if err != nil {
		t.Fatalf("ListSubmissionsPage: %v", err)
	}
	if len(page) != 2 || page[0].ID != "c" || page[1].ID != "b" {
		t.Fatalf("unexpected page: %#v", page)
	}

	rest, err := ListSubmissionsPage(context.Background(), db, "u1", 2, 2)
	if err != nil || len(rest) != 1 || rest[0].ID != "a" {
		t.Fatalf("unexpected tail page: %#v, %v", rest, err)
	}
}

func TestUpdateSubmission(t *testing.T) {
	db := newRepoDB(t, &domain.Submission{})
	s := subAt("s1", "u1", time.Now().UTC())
	if err := db.Create(&s).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	err := UpdateSubmission(context.Background(), db, "s1", "u1", map[string]any{
		"problem":    "Three Sum",
		"difficulty": domain.DifficultyHard,
	})
	if err != nil {
		t.Fatalf("UpdateSubmission: %v", err)
	}
	got, err := GetSubmission(context.Background(), db, "s1", "u1")
	if err != nil || got.Problem != "Three Sum" || got.Difficulty != domain.DifficultyHard {
		t.Fatalf("update not applied: %+v, %v", got, err)
	}

	// Missing or foreign rows report not found.
	if err := UpdateSubmission(context.Background(), db, "s1", "u2", map[string]any{"problem": "X"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	// Empty field set is a no-op.
	if err := UpdateSubmission(context.Background(), db, "s1", "u1", nil); err != nil {
		t.Fatalf("no-op update: %v", err)
	}
}

func TestDeleteSubmission_SoftDeletesAndHidesFromStreakInput(t *testing.T) {
	db := newRepoDB(t, &domain.Submission{})
	now := time.Now().UTC()
	for _, id := range []string{"s1", "s2"} {
		s := subAt(id, "u1", now)
		if err := db.Create(&s).Error; err != nil {
			t.Fatalf("seed %s: %v", id, err)
		}
	}

	if err := DeleteSubmission(context.Background(), db, "s1", "u1"); err != nil {
		t.Fatalf("DeleteSubmission: %v", err)
	}
	if err := DeleteSubmission(context.Background(), db, "s1", "u1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete should be not found, got %v", err)
	}

	times, err := ListSubmissionTimes(context.Background(), db, "u1")
	if err != nil {
		t.Fatalf("ListSubmissionTimes: %v", err)
	}
	if len(times) != 1 {
		t.Fatalf("deleted row still feeds the streak input: %v", times)
	}
}

func TestListSubmissionTimes_AscendingAllRows(t *testing.T) {
	db := newRepoDB(t, &domain.Submission{})
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	// Insert out of order; two on the same day.
	for i, id := range []string{"c", "a", "b", "b2"} {
		at := base.AddDate(0, 0, 2-i)
		if id == "b2" {
			at = base.AddDate(0, 0, 1).Add(4 * time.Hour)
		}
		s := subAt(id, "u1", at)
		if err := db.Create(&s).Error; err != nil {
			t.Fatalf("seed %s: %v", id, err)
		}
	}

	times, err := ListSubmissionTimes(context.Background(), db, "u1")
	if err != nil {
		t.Fatalf("ListSubmissionTimes: %v", err)
	}
	if len(times) != 4 {
		t.Fatalf("expected 4 instants, got %d", len(times))
	}
	for i := 1; i < len(times); i++ {
		if times[i].Before(times[i-1]) {
			t.Fatalf("not ascending: %v", times)
		}
	}
}

func TestListSubmissionTimesRange_Window(t *testing.T) {
	db := newRepoDB(t, &domain.Submission{})
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		s := subAt(id, "u1", base.AddDate(0, 0, i))
		if err := db.Create(&s).Error; err != nil {
			t.Fatalf("seed %s: %v", id, err)
		}
	}

	from := base.AddDate(0, 0, 1).Truncate(24 * time.Hour)
	to := from.AddDate(0, 0, 1)
	times, err := ListSubmissionTimesRange(context.Background(), db, "u1", from, to)
	if err != nil {
		t.Fatalf("ListSubmissionTimesRange: %v", err)
	}
	if len(times) != 1 {
		t.Fatalf("expected exactly the middle day, got %v", times)
	}
}

package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestTableNames(t *testing.T) {
	if got := (User{}).TableName(); got != "users" {
		t.Fatalf("User table: %q", got)
	}
	if got := (Submission{}).TableName(); got != "submissions" {
		t.Fatalf("Submission table: %q", got)
	}
	if got := (Idempotency{}).TableName(); got != "idempotency" {
		t.Fatalf("Idempotency table: %q", got)
	}
}

func TestValidDifficulty(t *testing.T) {
	for _, d := range []string{DifficultyEasy, DifficultyMedium, DifficultyHard} {
		if !ValidDifficulty(d) {
			t.Fatalf("expected %q to be valid", d)
		}
	}
	for _, d := range []string{"", "EASY", "extreme", "med"} {
		if ValidDifficulty(d) {
			t.Fatalf("expected %q to be invalid", d)
		}
	}
}

func TestUserJSON_HidesPasswordHash(t *testing.T) {
	u := User{
		ID:           "u1",
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "$2a$10$secret",
		CreatedAt:    time.Now().UTC(),
	}
	b, err := json.Marshal(u)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(b), "secret") || strings.Contains(string(b), "password") {
		t.Fatalf("password hash leaked into JSON: %s", b)
	}
	if !strings.Contains(string(b), `"current_streak":0`) {
		t.Fatalf("streak fields missing from JSON: %s", b)
	}
}

func TestSubmissionJSON_OmitsEmptyOptionals(t *testing.T) {
	s := Submission{ID: "s1", UserID: "u1", Problem: "Two Sum", Difficulty: DifficultyEasy}
	b, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(b), `"url"`) || strings.Contains(string(b), `"notes"`) {
		t.Fatalf("empty optionals should be omitted: %s", b)
	}
}

// Package domain defines the persistence models for users and problem
// submissions. These types are mapped with GORM and form the core data layer
// of the progress-tracking application.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Difficulty labels accepted on a submission. Enforced by a DB check
// constraint in addition to service-level validation.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// User represents an account in the tracker. The streak columns are a
// derived cache over the user's submission history: they are recomputed
// from the full history on each read and overwritten whenever the stored
// values drift (self-healing, never authoritative).
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - Username / Email: unique login identifiers.
//   - PasswordHash: bcrypt hash; never serialized to JSON.
//   - CurrentStreak / LongestStreak: reconciled streak aggregates.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//   - DeletedAt: soft deletion marker.
type User struct {
	ID            string         `json:"id"             gorm:"type:char(36);primaryKey"`
	Username      string         `json:"username"       gorm:"type:varchar(32);not null;uniqueIndex:ux_users_username"`
	Email         string         `json:"email"          gorm:"type:varchar(255);not null;uniqueIndex:ux_users_email"`
	PasswordHash  string         `json:"-"              gorm:"type:varchar(255);not null"`
	CurrentStreak int            `json:"current_streak" gorm:"not null;default:0"`
	LongestStreak int            `json:"longest_streak" gorm:"not null;default:0"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"-"              gorm:"index"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Submission is one logged problem attempt. Several submissions may land on
// the same calendar day; the streak calculator collapses them while the
// heatmap counts each one.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - UserID: foreign key to the owning user (composite index with SubmittedAt).
//   - Problem: human-readable problem title.
//   - Difficulty: easy | medium | hard (DB check constraint).
//   - Topic: normalized topic tag, e.g. "Dynamic Programming".
//   - URL: optional link to the problem statement.
//   - Notes: optional free-form notes about the approach.
//   - SubmittedAt: the instant the problem was solved; the streak input.
//   - DeletedAt: soft deletion marker (deleted rows leave the streak input,
//     which the next reconciliation absorbs).
type Submission struct {
	ID          string         `json:"id"              gorm:"type:char(36);primaryKey"`
	UserID      string         `json:"user_id"         gorm:"type:char(36);not null;index:idx_user_submissions,priority:1"`
	Problem     string         `json:"problem"         gorm:"type:varchar(255);not null"`
	Difficulty  string         `json:"difficulty"      gorm:"type:varchar(16);not null;check:difficulty IN ('easy','medium','hard')"`
	Topic       string         `json:"topic"           gorm:"type:varchar(64);not null;default:''"`
	URL         string         `json:"url,omitempty"   gorm:"type:varchar(512);not null;default:''"`
	Notes       string         `json:"notes,omitempty" gorm:"type:text;not null;default:''"`
	SubmittedAt time.Time      `json:"submitted_at"    gorm:"not null;index:idx_user_submissions,priority:2"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-"               gorm:"index"`

	// User is the owning account. Submissions are cascade-deleted when the
	// account is removed.
	User User `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Submission.
func (Submission) TableName() string { return "submissions" }

// ValidDifficulty reports whether d is one of the accepted difficulty labels.
func ValidDifficulty(d string) bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

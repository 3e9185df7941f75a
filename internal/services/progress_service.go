// Package services – ProgressService
//
// This file implements ProgressService, which owns the streak refresh
// operation: fetch the user's full submission history, recompute the streak
// state, and write the result back to the profile row only when it differs
// from what is stored. The stored aggregates are a cache, never a source of
// truth; this read-path reconciliation is what keeps them honest after late
// submissions or deletions.
//
// The refresh is one logical step per call. Concurrent refreshes for the
// same user are not coordinated: the computation is idempotent, so
// last-write-wins is safe and any stale write heals on the next read.
package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/akontos/go-progress-backend/internal/domain"
	"github.com/akontos/go-progress-backend/internal/repo"
	"github.com/akontos/go-progress-backend/internal/streak"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ProgressService derives streak state and heatmap data from submission
// history, reconciling the stored aggregates as a side effect of reads.
type ProgressService struct {
	DB *gorm.DB

	// Loc is the reference timezone for every calendar-day decision,
	// including "today". Nil means UTC.
	Loc *time.Location

	// Now is a clock seam for tests; nil means time.Now.
	Now func() time.Time
}

func (s *ProgressService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *ProgressService) loc() *time.Location {
	if s.Loc != nil {
		return s.Loc
	}
	return time.UTC
}

// Refresh recomputes the user's streak state from the full submission
// history and writes it back only when the stored values have drifted.
// It returns the freshly computed state, which callers should prefer over
// the (possibly just-healed) stored columns.
//
// I/O failures are returned to the caller and leave both the stored row and
// the computed result untouched; the computation itself cannot fail.
func (s *ProgressService) Refresh(ctx context.Context, userID string) (streak.State, error) {
	tr := otel.Tracer("services/ProgressService")
	ctx, span := tr.Start(ctx, "Refresh",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	u, err := repo.GetUserByID(ctx, s.DB, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return streak.State{}, ErrUserNotFound
		}
		return streak.State{}, err
	}

	times, err := repo.ListSubmissionTimes(ctx, s.DB, userID)
	if err != nil {
		return streak.State{}, err
	}

	computed := streak.Calculate(times, s.now(), s.loc())
	stored := streak.State{Current: u.CurrentStreak, Longest: u.LongestStreak}

	if streak.Reconcile(stored, computed) {
		span.SetAttributes(
			attribute.Int("streak.current", computed.Current),
			attribute.Int("streak.longest", computed.Longest),
		)
		if err := repo.UpdateUserStreaks(ctx, s.DB, userID, computed.Current, computed.Longest); err != nil {
			return streak.State{}, err
		}
	}
	return computed, nil
}

// Summary is a profile snapshot with freshly reconciled streaks.
type Summary struct {
	User        *domain.User `json:"user"`
	Streaks     streak.State `json:"streaks"`
	Submissions int64        `json:"submissions"`
}

// GetSummary returns the user's profile, total submission count, and the
// reconciled streak state. The embedded user carries the just-written
// aggregates so the response is internally consistent.
func (s *ProgressService) GetSummary(ctx context.Context, userID string) (*Summary, error) {
	state, err := s.Refresh(ctx, userID)
	if err != nil {
		return nil, err
	}
	u, err := repo.GetUserByID(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}
	total, err := repo.CountSubmissions(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}
	return &Summary{User: u, Streaks: state, Submissions: total}, nil
}

// Heatmap returns per-day submission counts within [from, to) in the
// reference timezone, keyed by "YYYY-MM-DD". A zero from/to defaults to the
// trailing 52 weeks ending tomorrow, matching the usual contribution graph.
func (s *ProgressService) Heatmap(ctx context.Context, userID string, from, to time.Time) (map[string]int, error) {
	tr := otel.Tracer("services/ProgressService")
	ctx, span := tr.Start(ctx, "Heatmap",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	if to.IsZero() {
		to = streak.Day(s.now(), s.loc()).AddDate(0, 0, 1)
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -52*7)
	}

	times, err := repo.ListSubmissionTimesRange(ctx, s.DB, userID, from, to)
	if err != nil {
		return nil, err
	}
	return streak.Heatmap(times, s.loc()), nil
}

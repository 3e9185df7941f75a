// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Submission
// model.
//
// Functions:
//
//   - CreateSubmission(ctx, db, sub) -> error
//     Inserts a new Submission row (UUID primary key assigned by caller or
//     generated here when empty).
//
//   - GetSubmission(ctx, db, id, userID) -> *domain.Submission, error
//     Fetches a single submission by ID/userID, or ErrNotFound.
//
//   - CountSubmissions / ListSubmissionsPage
//     Pagination pair ordered by SubmittedAt descending.
//
//   - UpdateSubmission(ctx, db, id, userID, fields) -> error
//     Partial update enforcing user ownership.
//
//   - DeleteSubmission(ctx, db, id, userID) -> error
//     Soft delete enforcing user ownership.
//
//   - ListSubmissionTimes(ctx, db, userID) -> []time.Time, error
//     All SubmittedAt instants for a user; the streak calculator's input.
//
//   - ListSubmissionTimesRange(ctx, db, userID, from, to)
//     Range-scoped variant backing the heatmap endpoint.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/akontos/go-progress-backend/internal/domain"
)

// CreateSubmission inserts a new Submission row. A UUID is generated when
// the caller did not assign one; CreatedAt is set to UTC.
func CreateSubmission(ctx context.Context, db *gorm.DB, sub *domain.Submission) error {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(sub).Error
}

// GetSubmission fetches a single submission by its ID and owner (userID).
// If the record does not exist, it returns ErrNotFound.
func GetSubmission(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Submission, error) {
	var s domain.Submission
	err := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// CountSubmissions returns the total number of submissions owned by userID.
func CountSubmissions(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Submission{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	return total, err
}

// ListSubmissionsPage returns a paginated slice of submissions for userID,
// most recent first. Use CountSubmissions for pagination metadata.
func ListSubmissionsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Submission, error) {
	var out []domain.Submission
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("submitted_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// ListSubmissions returns every submission for userID, most recent first.
// Prefer ListSubmissionsPage on hot paths; this backs the search index.
func ListSubmissions(ctx context.Context, db *gorm.DB, userID string) ([]domain.Submission, error) {
	var out []domain.Submission
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("submitted_at desc").
		Find(&out).Error
	return out, err
}

// UpdateSubmission applies a partial update to a submission identified by id
// and owned by userID. If no rows are affected (missing or not owned), it
// returns ErrNotFound.
func UpdateSubmission(ctx context.Context, db *gorm.DB, id, userID string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	res := db.WithContext(ctx).
		Model(&domain.Submission{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteSubmission soft-deletes a submission, enforcing user ownership.
// Returns ErrNotFound when nothing matched. Deleted rows drop out of the
// streak input; the next reconciliation heals the stored aggregates.
func DeleteSubmission(ctx context.Context, db *gorm.DB, id, userID string) error {
	res := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&domain.Submission{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListSubmissionTimes returns every SubmittedAt instant for a user, in
// ascending order. This is the full history the streak calculator consumes.
func ListSubmissionTimes(ctx context.Context, db *gorm.DB, userID string) ([]time.Time, error) {
	var rows []struct {
		SubmittedAt time.Time
	}
	err := db.WithContext(ctx).
		Model(&domain.Submission{}).
		Select("submitted_at").
		Where("user_id = ?", userID).
		Order("submitted_at asc").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]time.Time, len(rows))
	for i, r := range rows {
		out[i] = r.SubmittedAt
	}
	return out, nil
}

// ListSubmissionTimesRange returns SubmittedAt instants within [from, to),
// ascending. Backs the heatmap endpoint's window queries.
func ListSubmissionTimesRange(ctx context.Context, db *gorm.DB, userID string, from, to time.Time) ([]time.Time, error) {
	var rows []struct {
		SubmittedAt time.Time
	}
	err := db.WithContext(ctx).
		Model(&domain.Submission{}).
		Select("submitted_at").
		Where("user_id = ? AND submitted_at >= ? AND submitted_at < ?", userID, from, to).
		Order("submitted_at asc").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]time.Time, len(rows))
	for i, r := range rows {
		out[i] = r.SubmittedAt
	}
	return out, nil
}

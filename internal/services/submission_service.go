// Package services – SubmissionService
//
// This file implements SubmissionService, the application-level component
// that owns the lifecycle of problem submissions. It validates input at the
// boundary (so the streak calculator downstream never sees malformed dates),
// normalizes topic tags, and supports idempotent creation via
// Idempotency-Key replay records.
//
// Observability: public methods are OpenTelemetry-instrumented; spans include
// user identifiers and pagination parameters where applicable.
package services

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/akontos/go-progress-backend/internal/domain"
	"github.com/akontos/go-progress-backend/internal/repo"
	"github.com/akontos/go-progress-backend/internal/search"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// topicCaser title-cases topic tags ("dynamic programming" -> "Dynamic
// Programming") so the same topic never splits across spellings.
var topicCaser = cases.Title(language.English)

// SubmissionInput carries the caller-supplied fields for creating or
// updating a submission. SubmittedAt may be zero on create, in which case
// the current instant is used.
type SubmissionInput struct {
	Problem     string
	Difficulty  string
	Topic       string
	URL         string
	Notes       string
	SubmittedAt time.Time
}

// SubmissionService coordinates submission persistence and validation.
type SubmissionService struct {
	DB *gorm.DB

	// Loc is the reference timezone; future-dating checks use it.
	Loc *time.Location

	// Optional guards
	MaxProblemRunes int
	MaxNotesRunes   int

	// IdempotencyTTL bounds how long a replay record stays valid.
	IdempotencyTTL time.Duration

	// now is a clock seam for tests; nil means time.Now.
	Now func() time.Time
}

func (s *SubmissionService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// validate normalizes in place and rejects malformed input. This is the
// input boundary the streak core relies on: past here, dates are well-formed.
func (s *SubmissionService) validate(in *SubmissionInput) error {
	in.Problem = strings.TrimSpace(in.Problem)
	if in.Problem == "" {
		return ErrEmptyProblem
	}
	if s.MaxProblemRunes > 0 && utf8.RuneCountInString(in.Problem) > s.MaxProblemRunes {
		return ErrProblemTooLong
	}
	in.Difficulty = strings.ToLower(strings.TrimSpace(in.Difficulty))
	if !domain.ValidDifficulty(in.Difficulty) {
		return ErrInvalidDifficulty
	}
	in.Topic = topicCaser.String(strings.TrimSpace(in.Topic))
	in.URL = strings.TrimSpace(in.URL)
	if in.URL != "" {
		if u, err := url.Parse(in.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			in.URL = "" // drop unparseable links instead of failing the log entry
		}
	}
	if s.MaxNotesRunes > 0 && utf8.RuneCountInString(in.Notes) > s.MaxNotesRunes {
		in.Notes = string([]rune(in.Notes)[:s.MaxNotesRunes])
	}

	now := s.now()
	if in.SubmittedAt.IsZero() {
		in.SubmittedAt = now
	}
	// A small grace absorbs client clock skew without accepting "tomorrow".
	if in.SubmittedAt.After(now.Add(5 * time.Minute)) {
		return ErrFutureSubmission
	}
	return nil
}

// Create validates the input and persists a new submission for userID.
//
// When idemKey is non-empty, a still-valid replay record for (user, key)
// short-circuits to the originally created submission with replayed=true;
// otherwise the new submission is recorded under that key. A concurrent
// first-writer race resolves to the winner's submission.
func (s *SubmissionService) Create(ctx context.Context, userID string, in SubmissionInput, idemKey string) (sub *domain.Submission, replayed bool, err error) {
	tr := otel.Tracer("services/SubmissionService")
	ctx, span := tr.Start(ctx, "Create",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	if err := s.validate(&in); err != nil {
		return nil, false, err
	}

	// Replay check before doing any work.
	if idemKey != "" {
		if rec, err := repo.GetIdempotency(ctx, s.DB, userID, idemKey, s.now().UTC()); err == nil {
			prev, err := repo.GetSubmission(ctx, s.DB, rec.SubmissionID, userID)
			if err == nil {
				return prev, true, nil
			}
			// The recorded submission has since been deleted; fall through
			// and treat the request as fresh.
		}
	}

	sub = &domain.Submission{
		UserID:      userID,
		Problem:     in.Problem,
		Difficulty:  in.Difficulty,
		Topic:       in.Topic,
		URL:         in.URL,
		Notes:       strings.TrimSpace(in.Notes),
		SubmittedAt: in.SubmittedAt.UTC(),
	}
	if err := repo.CreateSubmission(ctx, s.DB, sub); err != nil {
		return nil, false, err
	}

	if idemKey != "" {
		ttl := s.IdempotencyTTL
		if ttl <= 0 {
			ttl = 24 * time.Hour
		}
		if _, err := repo.CreateIdempotency(ctx, s.DB, userID, idemKey, sub.ID, 201, ttl); err != nil && errors.Is(err, repo.ErrDuplicate) {
			// Lost the race: surface the first writer's submission.
			if rec, lerr := repo.GetIdempotency(ctx, s.DB, userID, idemKey, s.now().UTC()); lerr == nil {
				if prev, gerr := repo.GetSubmission(ctx, s.DB, rec.SubmissionID, userID); gerr == nil {
					_ = repo.DeleteSubmission(ctx, s.DB, sub.ID, userID)
					return prev, true, nil
				}
			}
		}
	}

	return sub, false, nil
}

// Get returns a single submission owned by userID.
func (s *SubmissionService) Get(ctx context.Context, userID, id string) (*domain.Submission, error) {
	sub, err := repo.GetSubmission(ctx, s.DB, id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, err
	}
	return sub, nil
}

// ListPage returns a page of submissions for a user, most recent first,
// along with the total count. Invalid page/pageSize values fall back to
// defaults.
func (s *SubmissionService) ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Submission, int64, error) {
	tr := otel.Tracer("services/SubmissionService")
	ctx, span := tr.Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := repo.CountSubmissions(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Submission{}, 0, nil
	}

	items, err := repo.ListSubmissionsPage(ctx, s.DB, userID, offset, pageSize)
	return items, total, err
}

// Update applies a partial update to a submission owned by userID. Supplied
// fields pass through the same validation as Create; zero-valued fields are
// left untouched.
func (s *SubmissionService) Update(ctx context.Context, userID, id string, in SubmissionInput) (*domain.Submission, error) {
	current, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	merged := SubmissionInput{
		Problem:     firstNonEmpty(in.Problem, current.Problem),
		Difficulty:  firstNonEmpty(in.Difficulty, current.Difficulty),
		Topic:       firstNonEmpty(in.Topic, current.Topic),
		URL:         firstNonEmpty(in.URL, current.URL),
		Notes:       firstNonEmpty(in.Notes, current.Notes),
		SubmittedAt: current.SubmittedAt,
	}
	if !in.SubmittedAt.IsZero() {
		merged.SubmittedAt = in.SubmittedAt
	}
	if err := s.validate(&merged); err != nil {
		return nil, err
	}

	fields := map[string]any{
		"problem":      merged.Problem,
		"difficulty":   merged.Difficulty,
		"topic":        merged.Topic,
		"url":          merged.URL,
		"notes":        strings.TrimSpace(merged.Notes),
		"submitted_at": merged.SubmittedAt.UTC(),
	}
	if err := repo.UpdateSubmission(ctx, s.DB, id, userID, fields); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, err
	}
	return s.Get(ctx, userID, id)
}

// Delete removes a submission owned by userID. The stored streak aggregates
// are not touched here: the next progress refresh recomputes them from the
// shrunken history and heals the difference.
func (s *SubmissionService) Delete(ctx context.Context, userID, id string) error {
	if err := repo.DeleteSubmission(ctx, s.DB, id, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSubmissionNotFound
		}
		return err
	}
	return nil
}

// Search ranks the user's submissions against a free-text query over
// problem title, topic, and notes. Results preserve the index's ranking.
func (s *SubmissionService) Search(ctx context.Context, userID, query string, limit int) ([]domain.Submission, error) {
	tr := otel.Tracer("services/SubmissionService")
	ctx, span := tr.Start(ctx, "Search",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 {
		limit = 10
	}

	subs, err := repo.ListSubmissions(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}

	docs := make([]search.Doc, len(subs))
	byID := make(map[string]domain.Submission, len(subs))
	for i, sub := range subs {
		docs[i] = search.Doc{
			ID:   sub.ID,
			Text: strings.Join([]string{sub.Problem, sub.Topic, sub.Notes}, " "),
		}
		byID[sub.ID] = sub
	}
	idx := search.NewIndex(docs, search.WithStopwords(search.DefaultStopwords))

	out := make([]domain.Submission, 0, limit)
	for _, r := range idx.TopK(query, limit) {
		out = append(out, byID[r.ID])
	}
	return out, nil
}

// firstNonEmpty returns the first string with non-blank content.
func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// Submission HTTP handlers.
//
// This file exposes the REST endpoints for problem submissions:
//   - POST   /submissions          (create, idempotent via Idempotency-Key)
//   - GET    /submissions          (list, paginated, ETag support)
//   - GET    /submissions/search   (free-text search over problem/topic/notes)
//   - GET    /submissions/{id}     (fetch one)
//   - PUT    /submissions/{id}     (partial update)
//   - DELETE /submissions/{id}     (remove)
//
// Handlers are transport-thin: they parse and clamp inputs, delegate to
// SubmissionService, and translate service errors into the standard envelope.
// When a create replays a previously recorded Idempotency-Key, the response
// is the original submission with status 200 and Idempotency-Replayed: true
// instead of a fresh 201.
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/akontos/go-progress-backend/internal/domain"
	"github.com/akontos/go-progress-backend/internal/http/middleware"
	"github.com/akontos/go-progress-backend/internal/repo"
	"github.com/akontos/go-progress-backend/internal/services"
	"github.com/akontos/go-progress-backend/internal/utils"
)

//
// DTOs
//

// SubmissionRequest is the JSON payload for creating or updating a
// submission. On update, absent fields keep their stored values.
type SubmissionRequest struct {
	// Problem is the problem title. Required on create.
	Problem string `json:"problem" example:"Two Sum"`
	// Difficulty is one of easy, medium, hard (case-insensitive).
	Difficulty string `json:"difficulty" example:"easy"`
	Topic      string `json:"topic,omitempty" example:"arrays"`
	URL        string `json:"url,omitempty" example:"https://leetcode.com/problems/two-sum"`
	Notes      string `json:"notes,omitempty" example:"one pass with a hash map"`
	// SubmittedAt is RFC 3339 or "2006-01-02"; empty means now.
	SubmittedAt string `json:"submitted_at,omitempty" example:"2025-06-15T13:45:00Z"`
}

// SubmissionResponse wraps a single submission.
type SubmissionResponse struct {
	Submission *domain.Submission `json:"submission"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListSubmissionsResponse contains one page of submissions plus metadata.
type ListSubmissionsResponse struct {
	Submissions []domain.Submission `json:"submissions"`
	Pagination  Pagination          `json:"pagination"`
}

// SearchSubmissionsResponse contains ranked search results.
type SearchSubmissionsResponse struct {
	Query   string              `json:"query"`
	Results []domain.Submission `json:"results"`
}

//
// Helpers
//

// clampPagination parses page/page_size query parameters with defaults and a
// hard cap on page size.
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// toInput converts the transport DTO into the service input, parsing the
// optional timestamp. Malformed timestamps surface as a zero time, which the
// service treats as "now" on create; callers that need strictness should
// validate before converting.
func (r SubmissionRequest) toInput(loc *time.Location) services.SubmissionInput {
	return services.SubmissionInput{
		Problem:     r.Problem,
		Difficulty:  r.Difficulty,
		Topic:       r.Topic,
		URL:         r.URL,
		Notes:       r.Notes,
		SubmittedAt: utils.ParseTimeDefault(r.SubmittedAt, loc, time.Time{}),
	}
}

// failSubmission maps service errors onto the standard envelope.
func failSubmission(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrSubmissionNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "submission not found")
	case errors.Is(err, services.ErrEmptyProblem):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "problem title required")
	case errors.Is(err, services.ErrProblemTooLong):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "problem title too long")
	case errors.Is(err, services.ErrInvalidDifficulty):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "difficulty must be easy, medium, or hard")
	case errors.Is(err, services.ErrFutureSubmission):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "submitted_at may not be in the future")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}

// serviceLoc exposes the reference timezone of the concrete service, UTC when
// the handler was wired with something else (tests use fakes).
func (h *Handlers) serviceLoc() *time.Location {
	if svc, isConcrete := h.subSvc.(*services.SubmissionService); isConcrete && svc.Loc != nil {
		return svc.Loc
	}
	return time.UTC
}

//
// Handlers
//

// CreateSubmission godoc
// @ID          createSubmission
// @Summary     Record a solved problem
// @Description Creates a submission for the authenticated user. Supplying an
// @Description Idempotency-Key makes retries safe: a repeat of a recorded key
// @Description returns the original submission with status 200.
// @Tags        Submissions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       Idempotency-Key  header  string  false  "Idempotency key for safe retries"
// @Param       body  body  handlers.SubmissionRequest  true  "Submission payload"
// @Success     201  {object}  handlers.SubmissionResponse  "Created"
// @Success     200  {object}  handlers.SubmissionResponse  "Replayed"
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     401  {object}  handlers.ErrorResponse
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /submissions [post]
func (h *Handlers) CreateSubmission(c *gin.Context) {
	var req SubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid submission payload")
		return
	}
	if req.SubmittedAt != "" {
		if parsed := utils.ParseTimeDefault(req.SubmittedAt, h.serviceLoc(), time.Time{}); parsed.IsZero() {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "submitted_at must be RFC 3339 or YYYY-MM-DD")
			return
		}
	}

	idemKey, _ := middleware.GetIdempotencyKey(c)
	sub, replayed, err := h.subSvc.Create(c.Request.Context(), userID(c), req.toInput(h.serviceLoc()), idemKey)
	if err != nil {
		if errors.Is(err, services.ErrEmptyProblem) ||
			errors.Is(err, services.ErrProblemTooLong) ||
			errors.Is(err, services.ErrInvalidDifficulty) ||
			errors.Is(err, services.ErrFutureSubmission) {
			failSubmission(c, err)
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		return
	}

	if replayed {
		c.Header("Idempotency-Replayed", "true")
		ok(c, http.StatusOK, SubmissionResponse{Submission: sub})
		return
	}
	ok(c, http.StatusCreated, SubmissionResponse{Submission: sub})
}

// ListSubmissions godoc
// @ID          listSubmissions
// @Summary     List submissions
// @Description Returns the authenticated user's submissions, most recent
// @Description first. Supports conditional requests via a weak ETag.
// @Tags        Submissions
// @Produce     json
// @Security    BearerAuth
// @Param       page       query  int  false  "Page number"    minimum(1) default(1)
// @Param       page_size  query  int  false  "Items per page" minimum(1) maximum(100) default(20)
// @Success     200  {object}  handlers.ListSubmissionsResponse
// @Failure     401  {object}  handlers.ErrorResponse
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /submissions [get]
func (h *Handlers) ListSubmissions(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)

	// ETag pre-check, best effort: two cheap aggregate queries beat
	// serializing a page the client already holds.
	if svc, isConcrete := h.subSvc.(*services.SubmissionService); isConcrete && svc.DB != nil {
		if count, maxTS, err := repo.SubmissionsStats(ctx, svc.DB, uid); err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"submissions:%s:%d:%d"`, uid, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	page, pageSize := clampPagination(c)
	items, total, err := h.subSvc.ListPage(ctx, uid, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, ListSubmissionsResponse{
		Submissions: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// SearchSubmissions godoc
// @ID          searchSubmissions
// @Summary     Search submissions
// @Description Ranks the user's submissions against a free-text query over
// @Description problem title, topic, and notes.
// @Tags        Submissions
// @Produce     json
// @Security    BearerAuth
// @Param       q      query  string  true   "Search query"
// @Param       limit  query  int     false  "Maximum results"  default(10)
// @Success     200  {object}  handlers.SearchSubmissionsResponse
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     401  {object}  handlers.ErrorResponse
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /submissions/search [get]
func (h *Handlers) SearchSubmissions(c *gin.Context) {
	query := c.Query("q")
	limit := utils.AtoiDefault(c.Query("limit"), 10)
	if limit < 1 || limit > 100 {
		limit = 10
	}

	results, err := h.subSvc.Search(c.Request.Context(), userID(c), query, limit)
	if err != nil {
		if errors.Is(err, services.ErrEmptyQuery) {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "query parameter q required")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeSearchFailed, err.Error())
		return
	}
	if results == nil {
		results = []domain.Submission{}
	}
	ok(c, http.StatusOK, SearchSubmissionsResponse{Query: query, Results: results})
}

// GetSubmission godoc
// @ID          getSubmission
// @Summary     Fetch one submission
// @Tags        Submissions
// @Produce     json
// @Security    BearerAuth
// @Param       id  path  string  true  "Submission ID (UUID)"  format(uuid)
// @Success     200  {object}  handlers.SubmissionResponse
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /submissions/{id} [get]
func (h *Handlers) GetSubmission(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "submission id must be a UUID")
		return
	}

	sub, err := h.subSvc.Get(c.Request.Context(), userID(c), id)
	if err != nil {
		failSubmission(c, err)
		return
	}
	ok(c, http.StatusOK, SubmissionResponse{Submission: sub})
}

// UpdateSubmission godoc
// @ID          updateSubmission
// @Summary     Update a submission
// @Description Applies a partial update; absent fields keep their values.
// @Tags        Submissions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id    path  string  true  "Submission ID (UUID)"  format(uuid)
// @Param       body  body  handlers.SubmissionRequest  true  "Fields to change"
// @Success     200  {object}  handlers.SubmissionResponse
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /submissions/{id} [put]
func (h *Handlers) UpdateSubmission(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "submission id must be a UUID")
		return
	}
	var req SubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid submission payload")
		return
	}

	sub, err := h.subSvc.Update(c.Request.Context(), userID(c), id, req.toInput(h.serviceLoc()))
	if err != nil {
		failSubmission(c, err)
		return
	}
	ok(c, http.StatusOK, SubmissionResponse{Submission: sub})
}

// DeleteSubmission godoc
// @ID          deleteSubmission
// @Summary     Delete a submission
// @Description Removes a submission. Streak aggregates self-correct on the
// @Description next progress read.
// @Tags        Submissions
// @Security    BearerAuth
// @Param       id  path  string  true  "Submission ID (UUID)"  format(uuid)
// @Success     204  "Deleted"
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /submissions/{id} [delete]
func (h *Handlers) DeleteSubmission(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "submission id must be a UUID")
		return
	}
	if err := h.subSvc.Delete(c.Request.Context(), userID(c), id); err != nil {
		failSubmission(c, err)
		return
	}
	noContent(c)
}

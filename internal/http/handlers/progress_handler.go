// Progress HTTP handlers.
//
// This file exposes the derived-progress endpoints:
//   - GET /me           (profile summary with reconciled streaks)
//   - GET /me/streaks   (current and longest streak only)
//   - GET /me/heatmap   (per-day submission counts for a date window)
//
// Every read recomputes streaks from the full submission history, so the
// values returned here are always current even after backdated entries or
// deletions.
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/akontos/go-progress-backend/internal/services"
	"github.com/akontos/go-progress-backend/internal/streak"
	"github.com/akontos/go-progress-backend/internal/utils"
)

// HeatmapResponse carries per-day submission counts keyed by "YYYY-MM-DD".
type HeatmapResponse struct {
	From string `json:"from"`
	To   string `json:"to"`
	// Days maps calendar dates to submission counts; dates without
	// submissions are absent.
	Days map[string]int `json:"days"`
}

// failProgress maps progress service errors onto the standard envelope.
func failProgress(c *gin.Context, err error) {
	if errors.Is(err, services.ErrUserNotFound) {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "user not found")
		return
	}
	fail(c, http.StatusInternalServerError, ErrCodeStreakFailed, err.Error())
}

// Me godoc
// @ID          me
// @Summary     Profile summary
// @Description Returns the authenticated user's profile, submission count,
// @Description and streak state, freshly recomputed from history.
// @Tags        Progress
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object}  services.Summary
// @Failure     401  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /me [get]
func (h *Handlers) Me(c *gin.Context) {
	sum, err := h.progSvc.GetSummary(c.Request.Context(), userID(c))
	if err != nil {
		failProgress(c, err)
		return
	}
	ok(c, http.StatusOK, sum)
}

// Streaks godoc
// @ID          streaks
// @Summary     Current and longest streak
// @Description Recomputes the streak state from the full submission history
// @Description and returns it. Stored aggregates are reconciled as a side
// @Description effect when they have drifted.
// @Tags        Progress
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object}  streak.State
// @Failure     401  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /me/streaks [get]
func (h *Handlers) Streaks(c *gin.Context) {
	state, err := h.progSvc.Refresh(c.Request.Context(), userID(c))
	if err != nil {
		failProgress(c, err)
		return
	}
	ok(c, http.StatusOK, state)
}

// Heatmap godoc
// @ID          heatmap
// @Summary     Submission heatmap
// @Description Returns per-day submission counts for [from, to). Defaults to
// @Description the trailing 52 weeks when the window is not given.
// @Tags        Progress
// @Produce     json
// @Security    BearerAuth
// @Param       from  query  string  false  "Window start (YYYY-MM-DD, inclusive)"
// @Param       to    query  string  false  "Window end (YYYY-MM-DD, exclusive)"
// @Success     200  {object}  handlers.HeatmapResponse
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     401  {object}  handlers.ErrorResponse
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /me/heatmap [get]
func (h *Handlers) Heatmap(c *gin.Context) {
	loc := h.progressLoc()

	from := utils.ParseDateDefault(c.Query("from"), loc, time.Time{})
	to := utils.ParseDateDefault(c.Query("to"), loc, time.Time{})
	if c.Query("from") != "" && from.IsZero() {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "from must be YYYY-MM-DD")
		return
	}
	if c.Query("to") != "" && to.IsZero() {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "to must be YYYY-MM-DD")
		return
	}
	if !from.IsZero() && !to.IsZero() && !from.Before(to) {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "from must be before to")
		return
	}

	days, err := h.progSvc.Heatmap(c.Request.Context(), userID(c), from, to)
	if err != nil {
		failProgress(c, err)
		return
	}

	resp := HeatmapResponse{Days: days}
	if !from.IsZero() {
		resp.From = streak.Day(from, loc).Format("2006-01-02")
	}
	if !to.IsZero() {
		resp.To = streak.Day(to, loc).Format("2006-01-02")
	}
	ok(c, http.StatusOK, resp)
}

// progressLoc exposes the reference timezone of the concrete service, UTC
// when the handler was wired with a fake.
func (h *Handlers) progressLoc() *time.Location {
	if svc, isConcrete := h.progSvc.(*services.ProgressService); isConcrete && svc.Loc != nil {
		return svc.Loc
	}
	return time.UTC
}

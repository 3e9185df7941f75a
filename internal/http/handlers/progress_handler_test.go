package handlers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/akontos/go-progress-backend/internal/domain"
	"github.com/akontos/go-progress-backend/internal/services"
	"github.com/akontos/go-progress-backend/internal/streak"
)

func TestMe_Summary(t *testing.T) {
	fp := &fakeProgSvc{summary: &services.Summary{
		User:        &domain.User{ID: "u1", Username: "alice"},
		Streaks:     streak.State{Current: 3, Longest: 7},
		Submissions: 42,
	}}
	r := newTestRouter(New(&fakeAuthSvc{}, &fakeSubSvc{}, fp))

	w := doJSON(t, r, http.MethodGet, "/me", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var sum services.Summary
	if err := json.Unmarshal(w.Body.Bytes(), &sum); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sum.Streaks.Current != 3 || sum.Streaks.Longest != 7 || sum.Submissions != 42 {
		t.Fatalf("summary = %+v", sum)
	}
}

func TestMe_UserNotFound(t *testing.T) {
	fp := &fakeProgSvc{summaryErr: services.ErrUserNotFound}
	r := newTestRouter(New(&fakeAuthSvc{}, &fakeSubSvc{}, fp))

	w := doJSON(t, r, http.MethodGet, "/me", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
	var er ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil || er.Code != ErrCodeNotFound {
		t.Fatalf("body = %s", w.Body.String())
	}
}

func TestStreaks_JSONShape(t *testing.T) {
	fp := &fakeProgSvc{state: streak.State{Current: 2, Longest: 9}}
	r := newTestRouter(New(&fakeAuthSvc{}, &fakeSubSvc{}, fp))

	w := doJSON(t, r, http.MethodGet, "/me/streaks", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var got map[string]int
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["current_streak"] != 2 || got["longest_streak"] != 9 {
		t.Fatalf("wire keys wrong: %v", got)
	}
}

func TestHeatmap_WindowParsing(t *testing.T) {
	fp := &fakeProgSvc{days: map[string]int{"2025-06-14": 2}}
	r := newTestRouter(New(&fakeAuthSvc{}, &fakeSubSvc{}, fp))

	w := doJSON(t, r, http.MethodGet, "/me/heatmap?from=2025-06-01&to=2025-06-16", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	if !fp.gotFrom.Equal(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)) ||
		!fp.gotTo.Equal(time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("window passthrough: %v .. %v", fp.gotFrom, fp.gotTo)
	}

	var resp HeatmapResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.From != "2025-06-01" || resp.To != "2025-06-16" || resp.Days["2025-06-14"] != 2 {
		t.Fatalf("response = %+v", resp)
	}
}

func TestHeatmap_DefaultWindowOmitsBounds(t *testing.T) {
	fp := &fakeProgSvc{days: map[string]int{}}
	r := newTestRouter(New(&fakeAuthSvc{}, &fakeSubSvc{}, fp))

	w := doJSON(t, r, http.MethodGet, "/me/heatmap", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !fp.gotFrom.IsZero() || !fp.gotTo.IsZero() {
		t.Fatalf("default window must pass zero times: %v %v", fp.gotFrom, fp.gotTo)
	}
}

func TestHeatmap_BadWindows(t *testing.T) {
	r := newTestRouter(New(&fakeAuthSvc{}, &fakeSubSvc{}, &fakeProgSvc{}))

	cases := map[string]string{
		"bad from":  "/me/heatmap?from=June",
		"bad to":    "/me/heatmap?to=June",
		"inverted":  "/me/heatmap?from=2025-06-16&to=2025-06-01",
		"collapsed": "/me/heatmap?from=2025-06-01&to=2025-06-01",
	}
	for name, path := range cases {
		t.Run(name, func(t *testing.T) {
			if w := doJSON(t, r, http.MethodGet, path, nil); w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d", w.Code)
			}
		})
	}
}

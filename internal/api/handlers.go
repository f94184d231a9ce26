package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/farmstats/farmbot/internal/ledger"
	"github.com/farmstats/farmbot/internal/report"
)

func (a *API) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}

type leaderboardEntry struct {
	Rank           int    `json:"rank"`
	UserID         string `json:"user_id"`
	Total          int64  `json:"total"`
	FormattedTotal string `json:"formatted_total"`
	Events         int    `json:"events"`
}

func (a *API) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	rows := report.CompileLeaderboard(a.ledger.Snapshot())

	entries := make([]leaderboardEntry, len(rows))
	for i, row := range rows {
		entries[i] = leaderboardEntry{
			Rank:           i + 1,
			UserID:         row.UserID,
			Total:          row.Total,
			FormattedTotal: report.FormatValue(row.Total),
			Events:         row.Events,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}

type horizonSummary struct {
	Total          int64          `json:"total"`
	FormattedTotal string         `json:"formatted_total"`
	Events         int            `json:"events"`
	Categories     map[string]int `json:"categories,omitempty"`
}

type userSummary struct {
	UserID  string          `json:"user_id"`
	Period  *horizonSummary `json:"period,omitempty"`
	AllTime *horizonSummary `json:"all_time,omitempty"`
}

func (a *API) handleMySummary(w http.ResponseWriter, r *http.Request) {
	claims := r.Context().Value(claimsKey{}).(*Claims)

	snap := a.ledger.Snapshot()
	summary := userSummary{
		UserID:  claims.UserID,
		Period:  summarize(snap.Period, claims.UserID),
		AllTime: summarize(snap.AllTime, claims.UserID),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summary)
}

func summarize(horizon map[string]ledger.EntrySnapshot, userID string) *horizonSummary {
	e, ok := horizon[userID]
	if !ok {
		return nil
	}
	return &horizonSummary{
		Total:          e.Total,
		FormattedTotal: report.FormatValue(e.Total),
		Events:         e.Events,
		Categories:     e.EventsByCategory,
	}
}

func (a *API) handlePublishReports(w http.ResponseWriter, r *http.Request) {
	// Bound the publish call so a slow Discord edge cannot hold the HTTP
	// handler open indefinitely.
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	if err := a.publisher.PublishReports(ctx); err != nil {
		http.Error(w, "failed to publish reports", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"message": "reports published",
	})
}

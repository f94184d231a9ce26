package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/farmstats/farmbot/internal/category"
	"github.com/farmstats/farmbot/internal/ledger"
)

func TestHandleHealthz(t *testing.T) {
	api := &API{}

	req := httptest.NewRequest("GET", "/healthz", nil)
	w := httptest.NewRecorder()

	api.handleHealthz(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if w.Body.String() != "ok" {
		t.Errorf("body = %q, want \"ok\"", w.Body.String())
	}
}

func TestHandleLeaderboard(t *testing.T) {
	store := ledger.NewStore()
	store.Apply(ledger.Contribution{UserID: "u1", Amount: 1500, Category: category.CayoPerico, Role: ledger.RoleHost, CountEvent: true})
	store.Apply(ledger.Contribution{UserID: "u2", Amount: 500000, Category: category.Vicent, Role: ledger.RoleHost, CountEvent: true})

	api := &API{ledger: store}

	req := httptest.NewRequest("GET", "/api/leaderboard", nil)
	w := httptest.NewRecorder()

	api.handleLeaderboard(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var entries []leaderboardEntry
	if err := json.Unmarshal(w.Body.Bytes(), &entries); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].UserID != "u2" || entries[0].Rank != 1 {
		t.Errorf("first entry = %+v, want u2 at rank 1", entries[0])
	}
	if entries[0].FormattedTotal != "500.000 MIL" {
		t.Errorf("formatted total = %q, want \"500.000 MIL\"", entries[0].FormattedTotal)
	}
	if entries[1].Total != 1500 {
		t.Errorf("second entry total = %d, want 1500", entries[1].Total)
	}
}

func TestHandleLeaderboardEmpty(t *testing.T) {
	api := &API{ledger: ledger.NewStore()}

	req := httptest.NewRequest("GET", "/api/leaderboard", nil)
	w := httptest.NewRecorder()

	api.handleLeaderboard(w, req)

	var entries []leaderboardEntry
	if err := json.Unmarshal(w.Body.Bytes(), &entries); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("entries = %d, want 0", len(entries))
	}
}

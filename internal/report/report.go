// Package report derives per-user report content and the community ranking
// from a ledger snapshot. It is a pure read-side projection.
package report

import (
	"sort"

	"github.com/farmstats/farmbot/internal/category"
	"github.com/farmstats/farmbot/internal/ledger"
)

// CategoryCount is one (category, event count) line of a user report.
// Display carries the registered display tag, empty for unregistered
// categories.
type CategoryCount struct {
	Category category.Category
	Count    int
	Display  string
}

// UserReport is the period-horizon report content for one user.
type UserReport struct {
	UserID     string
	Total      int64
	Categories []CategoryCount
	Supporters []string
}

// Row is one leaderboard line over the all-time horizon.
type Row struct {
	UserID string `json:"user_id"`
	Total  int64  `json:"total"`
	Events int    `json:"events"`
}

// CompileUserReports renders one report per user appearing as a host or as a
// paid supporter in the period ledger, in first-seen order. Users with no
// period entry are skipped.
func CompileUserReports(snap ledger.Snapshot) []UserReport {
	include := make(map[string]bool, len(snap.Period))
	for id, e := range snap.Period {
		include[id] = true
		for supporterID := range e.Supporters {
			include[supporterID] = true
		}
	}

	var reports []UserReport
	for _, id := range snap.Order {
		if !include[id] {
			continue
		}
		e, ok := snap.Period[id]
		if !ok {
			continue
		}
		reports = append(reports, UserReport{
			UserID:     id,
			Total:      e.Total,
			Categories: sortedCategories(e.EventsByCategory),
			Supporters: sortedSupporters(e.Supporters),
		})
	}
	return reports
}

func sortedCategories(counts map[string]int) []CategoryCount {
	out := make([]CategoryCount, 0, len(counts))
	for name, n := range counts {
		cat := category.Category(name)
		display, _ := cat.DisplayTag()
		out = append(out, CategoryCount{Category: cat, Count: n, Display: display})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Category < out[j].Category
	})
	return out
}

func sortedSupporters(supporters map[string]int64) []string {
	out := make([]string, 0, len(supporters))
	for id := range supporters {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// CompileLeaderboard ranks all-time entries by descending total. The sort is
// stable over first-seen order, so ties keep their arrival order.
func CompileLeaderboard(snap ledger.Snapshot) []Row {
	rows := make([]Row, 0, len(snap.AllTime))
	for _, id := range snap.Order {
		e, ok := snap.AllTime[id]
		if !ok {
			continue
		}
		rows = append(rows, Row{UserID: id, Total: e.Total, Events: e.Events})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Total > rows[j].Total
	})
	return rows
}

// LeaderChanged reports the new leader when the top-ranked identity differs
// from prevLeaderID. A changed total with an unchanged leader is not a change.
func LeaderChanged(prevLeaderID string, rows []Row) (string, bool) {
	if len(rows) == 0 {
		return "", false
	}
	if rows[0].UserID == prevLeaderID {
		return "", false
	}
	return rows[0].UserID, true
}

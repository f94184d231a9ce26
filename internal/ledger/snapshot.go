package ledger

import (
	"sort"

	"github.com/farmstats/farmbot/internal/category"
)

// EntrySnapshot is the persistence/read form of an Entry.
type EntrySnapshot struct {
	Total            int64            `json:"total"`
	Events           int              `json:"events"`
	EventsByCategory map[string]int   `json:"events_by_category,omitempty"`
	HostAmounts      map[string]int64 `json:"host_amounts,omitempty"`
	Supporters       map[string]int64 `json:"supporters,omitempty"`
}

// Snapshot is a full copy of the store, used both for persistence handoff and
// as the read side for report compilation.
type Snapshot struct {
	Period  map[string]EntrySnapshot `json:"period"`
	AllTime map[string]EntrySnapshot `json:"all_time"`
	Order   []string                 `json:"user_order,omitempty"`
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Period:  make(map[string]EntrySnapshot, len(s.period)),
		AllTime: make(map[string]EntrySnapshot, len(s.allTime)),
		Order:   append([]string(nil), s.order...),
	}
	for id, e := range s.period {
		snap.Period[id] = snapshotEntry(e)
	}
	for id, e := range s.allTime {
		snap.AllTime[id] = snapshotEntry(e)
	}
	return snap
}

// Restore replaces the full store contents with snap.
func (s *Store) Restore(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.period = make(map[string]*Entry, len(snap.Period))
	s.allTime = make(map[string]*Entry, len(snap.AllTime))
	s.order = nil

	seen := make(map[string]bool, len(snap.AllTime))
	for _, id := range snap.Order {
		if _, ok := snap.AllTime[id]; ok && !seen[id] {
			s.order = append(s.order, id)
			seen[id] = true
		}
	}
	// Snapshots written before the order list existed: fall back to a sorted
	// remainder so restores stay deterministic.
	var rest []string
	for id := range snap.AllTime {
		if !seen[id] {
			rest = append(rest, id)
		}
	}
	sort.Strings(rest)
	s.order = append(s.order, rest...)

	for id, e := range snap.AllTime {
		s.allTime[id] = restoreEntry(e)
	}
	for id, e := range snap.Period {
		s.period[id] = restoreEntry(e)
		if _, ok := s.allTime[id]; !ok {
			s.allTime[id] = newEntry()
			s.order = append(s.order, id)
		}
	}
}

func snapshotEntry(e *Entry) EntrySnapshot {
	out := EntrySnapshot{Total: e.Total, Events: e.Events}
	if len(e.EventsByCategory) > 0 {
		out.EventsByCategory = make(map[string]int, len(e.EventsByCategory))
		for c, n := range e.EventsByCategory {
			out.EventsByCategory[string(c)] = n
		}
	}
	if len(e.HostAmounts) > 0 {
		out.HostAmounts = make(map[string]int64, len(e.HostAmounts))
		for c, v := range e.HostAmounts {
			out.HostAmounts[string(c)] = v
		}
	}
	if len(e.Supporters) > 0 {
		out.Supporters = make(map[string]int64, len(e.Supporters))
		for id, v := range e.Supporters {
			out.Supporters[id] = v
		}
	}
	return out
}

func restoreEntry(e EntrySnapshot) *Entry {
	entry := newEntry()
	entry.Total = e.Total
	entry.Events = e.Events
	for c, n := range e.EventsByCategory {
		entry.EventsByCategory[category.Resolve(c)] += n
	}
	for c, v := range e.HostAmounts {
		entry.HostAmounts[category.Resolve(c)] += v
	}
	for id, v := range e.Supporters {
		entry.Supporters[id] = v
	}
	return entry
}

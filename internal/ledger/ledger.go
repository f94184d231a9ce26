// Package ledger accumulates per-user earnings over two horizons: a
// resettable period ledger and an all-time ledger that only grows.
package ledger

import (
	"sync"

	"github.com/farmstats/farmbot/internal/category"
)

// Role of a user within a contribution.
type Role int

const (
	RoleHost Role = iota
	RoleSupporter
)

// Entry is one user's aggregate for one horizon. HostAmounts and Supporters
// are only maintained on the period horizon.
type Entry struct {
	Total            int64
	Events           int
	EventsByCategory map[category.Category]int
	HostAmounts      map[category.Category]int64
	Supporters       map[string]int64
}

func newEntry() *Entry {
	return &Entry{
		EventsByCategory: make(map[category.Category]int),
		HostAmounts:      make(map[category.Category]int64),
		Supporters:       make(map[string]int64),
	}
}

// Contribution is the single mutation applied to the store. CountEvent
// decouples event counting from payout: callers must set it at most once per
// (declaration, user) pair. For RoleSupporter, HostID names the host whose
// period entry records the payout relation; an empty HostID (bonus payouts)
// records no relation.
type Contribution struct {
	UserID     string
	Amount     int64
	Category   category.Category
	Role       Role
	HostID     string
	CountEvent bool
}

// Store owns all ledger entries. All mutation goes through Apply.
type Store struct {
	mu      sync.Mutex
	period  map[string]*Entry
	allTime map[string]*Entry
	order   []string // user ids in first-seen order, for stable ranking ties
}

func NewStore() *Store {
	return &Store{
		period:  make(map[string]*Entry),
		allTime: make(map[string]*Entry),
	}
}

// InitUser idempotently ensures both horizon entries exist for id.
func (s *Store) InitUser(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initUserLocked(id)
}

func (s *Store) initUserLocked(id string) {
	if _, ok := s.allTime[id]; !ok {
		s.allTime[id] = newEntry()
		s.order = append(s.order, id)
	}
	if _, ok := s.period[id]; !ok {
		s.period[id] = newEntry()
	}
}

// Apply adds a contribution to both horizons. Amount is added to the totals;
// CountEvent bumps the event count and the per-category count; host payouts
// are additionally recorded under the period host-amount map, and supporter
// payouts under the host's period supporter map (most recent amount wins).
func (s *Store) Apply(c Contribution) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initUserLocked(c.UserID)
	periodEntry := s.period[c.UserID]
	allTimeEntry := s.allTime[c.UserID]

	periodEntry.Total += c.Amount
	allTimeEntry.Total += c.Amount

	if c.CountEvent {
		periodEntry.Events++
		periodEntry.EventsByCategory[c.Category]++
		allTimeEntry.Events++
		allTimeEntry.EventsByCategory[c.Category]++
	}

	switch c.Role {
	case RoleHost:
		if c.Amount != 0 {
			periodEntry.HostAmounts[c.Category] += c.Amount
		}
	case RoleSupporter:
		if c.HostID != "" {
			s.initUserLocked(c.HostID)
			s.period[c.HostID].Supporters[c.UserID] = c.Amount
		}
	}
}

// ResetPeriod discards all period entries; the all-time horizon is untouched.
// Idempotent under repeated calls.
func (s *Store) ResetPeriod() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.period = make(map[string]*Entry)
}

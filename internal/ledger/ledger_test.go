package ledger

import (
	"testing"

	"github.com/farmstats/farmbot/internal/category"
)

func TestApplyAddsToBothHorizons(t *testing.T) {
	s := NewStore()
	s.Apply(Contribution{UserID: "u1", Amount: 70000, Category: category.CayoPerico, Role: RoleHost, CountEvent: true})

	snap := s.Snapshot()
	for _, horizon := range []map[string]EntrySnapshot{snap.Period, snap.AllTime} {
		e, ok := horizon["u1"]
		if !ok {
			t.Fatal("entry missing for u1")
		}
		if e.Total != 70000 {
			t.Errorf("total = %d, want 70000", e.Total)
		}
		if e.Events != 1 {
			t.Errorf("events = %d, want 1", e.Events)
		}
		if e.EventsByCategory[string(category.CayoPerico)] != 1 {
			t.Errorf("category count = %d, want 1", e.EventsByCategory[string(category.CayoPerico)])
		}
	}
}

func TestApplyOrderIndependentTotals(t *testing.T) {
	contributions := []Contribution{
		{UserID: "u1", Amount: 10000, Category: category.CayoPerico, Role: RoleHost, CountEvent: true},
		{UserID: "u2", Amount: 20000, Category: category.CayoPerico, Role: RoleSupporter, HostID: "u1"},
		{UserID: "u1", Amount: 5000, Category: category.CassinoDiamond, Role: RoleHost, CountEvent: true},
	}

	forward := NewStore()
	for _, c := range contributions {
		forward.Apply(c)
	}
	backward := NewStore()
	for i := len(contributions) - 1; i >= 0; i-- {
		backward.Apply(contributions[i])
	}

	a, b := forward.Snapshot(), backward.Snapshot()
	for _, id := range []string{"u1", "u2"} {
		if a.AllTime[id].Total != b.AllTime[id].Total {
			t.Errorf("user %s: totals differ by arrival order: %d vs %d", id, a.AllTime[id].Total, b.AllTime[id].Total)
		}
		if a.AllTime[id].Events != b.AllTime[id].Events {
			t.Errorf("user %s: event counts differ by arrival order", id)
		}
	}
}

func TestCountEventDecoupledFromAmount(t *testing.T) {
	s := NewStore()
	// Count at dialog creation, pay at resolution.
	s.Apply(Contribution{UserID: "u1", Category: category.BancoFleeca, Role: RoleHost, CountEvent: true})
	s.Apply(Contribution{UserID: "u1", Amount: 80000, Category: category.BancoFleeca, Role: RoleHost})

	e := s.Snapshot().AllTime["u1"]
	if e.Events != 1 {
		t.Errorf("events = %d, want 1", e.Events)
	}
	if e.Total != 80000 {
		t.Errorf("total = %d, want 80000", e.Total)
	}
}

func TestSupporterRelationRecordedOnHost(t *testing.T) {
	s := NewStore()
	s.Apply(Contribution{UserID: "u2", Amount: 15000, Category: category.CayoPerico, Role: RoleSupporter, HostID: "u1"})
	s.Apply(Contribution{UserID: "u2", Amount: 20000, Category: category.CayoPerico, Role: RoleSupporter, HostID: "u1"})

	snap := s.Snapshot()
	if got := snap.Period["u1"].Supporters["u2"]; got != 20000 {
		t.Errorf("host supporter record = %d, want most recent 20000", got)
	}
	if len(snap.Period["u2"].Supporters) != 0 {
		t.Error("supporter's own entry should not record the relation")
	}
	// Bonus payouts carry no host relation.
	s.Apply(Contribution{UserID: "u3", Amount: 50000, Category: category.CayoPerico, Role: RoleSupporter})
	if _, ok := s.Snapshot().Period["u3"]; !ok {
		t.Error("bonus recipient should still get an entry")
	}
}

func TestAliasSharesBucket(t *testing.T) {
	s := NewStore()
	s.Apply(Contribution{UserID: "u1", Amount: 100, Category: category.Resolve("CASSINO"), Role: RoleHost, CountEvent: true})
	s.Apply(Contribution{UserID: "u1", Amount: 100, Category: category.Resolve("CASSINO DIAMOND"), Role: RoleHost, CountEvent: true})

	e := s.Snapshot().AllTime["u1"]
	if len(e.EventsByCategory) != 1 {
		t.Fatalf("expected a single category bucket, got %v", e.EventsByCategory)
	}
	if e.EventsByCategory[string(category.CassinoDiamond)] != 2 {
		t.Errorf("bucket count = %d, want 2", e.EventsByCategory[string(category.CassinoDiamond)])
	}
}

func TestResetPeriod(t *testing.T) {
	s := NewStore()
	s.Apply(Contribution{UserID: "u1", Amount: 500, Category: category.Vicent, Role: RoleHost, CountEvent: true})
	s.ResetPeriod()

	snap := s.Snapshot()
	if len(snap.Period) != 0 {
		t.Errorf("period entries should be empty after reset, got %d", len(snap.Period))
	}
	if snap.AllTime["u1"].Total != 500 {
		t.Errorf("all-time total lost on reset: %d", snap.AllTime["u1"].Total)
	}

	// Idempotent.
	s.ResetPeriod()
	if len(s.Snapshot().Period) != 0 {
		t.Error("repeated reset should be a no-op")
	}
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	s := NewStore()
	s.Apply(Contribution{UserID: "u1", Amount: 1000, Category: category.CayoPerico, Role: RoleHost, CountEvent: true})
	s.Apply(Contribution{UserID: "u2", Amount: 300, Category: category.CayoPerico, Role: RoleSupporter, HostID: "u1", CountEvent: true})

	restored := NewStore()
	restored.Restore(s.Snapshot())

	a, b := s.Snapshot(), restored.Snapshot()
	for _, id := range []string{"u1", "u2"} {
		if a.AllTime[id].Total != b.AllTime[id].Total || a.Period[id].Events != b.Period[id].Events {
			t.Errorf("user %s: snapshot round trip lost data", id)
		}
	}
	if b.Period["u1"].Supporters["u2"] != 300 {
		t.Error("supporter relation lost in round trip")
	}
	if len(b.Order) != 2 || b.Order[0] != "u1" || b.Order[1] != "u2" {
		t.Errorf("user order lost in round trip: %v", b.Order)
	}
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	s := NewStore()
	s.Apply(Contribution{UserID: "u1", Amount: 10, Category: category.Vicent, Role: RoleHost, CountEvent: true})

	snap := s.Snapshot()
	snap.AllTime["u1"].EventsByCategory[string(category.Vicent)] = 99

	if s.Snapshot().AllTime["u1"].EventsByCategory[string(category.Vicent)] != 1 {
		t.Error("mutating a snapshot leaked into the store")
	}
}

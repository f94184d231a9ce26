package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/farmstats/farmbot/internal/category"
	"github.com/farmstats/farmbot/internal/db"
	"github.com/farmstats/farmbot/internal/ledger"
)

type fakeSession struct {
	nextID   int
	sent     map[string][]*discordgo.MessageEmbed // channelID -> embeds, in send order
	edited   map[string]*discordgo.MessageEmbed   // messageID -> latest embed
	deleted  []string
	failSend bool
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		sent:   make(map[string][]*discordgo.MessageEmbed),
		edited: make(map[string]*discordgo.MessageEmbed),
	}
}

func (f *fakeSession) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	if f.failSend {
		return nil, errors.New("send failed")
	}
	f.nextID++
	f.sent[channelID] = append(f.sent[channelID], embed)
	return &discordgo.Message{ID: fmt.Sprintf("msg-%d", f.nextID)}, nil
}

func (f *fakeSession) ChannelMessageEditEmbed(channelID, messageID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.edited[messageID] = embed
	return &discordgo.Message{ID: messageID}, nil
}

func (f *fakeSession) ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error {
	f.deleted = append(f.deleted, messageID)
	return nil
}

func (f *fakeSession) User(userID string, options ...discordgo.RequestOption) (*discordgo.User, error) {
	return &discordgo.User{ID: userID, Username: "user-" + userID}, nil
}

func testSnapshot(t *testing.T, apply func(s *ledger.Store)) ledger.Snapshot {
	t.Helper()
	store := ledger.NewStore()
	apply(store)
	return store.Snapshot()
}

func TestPublishCreatesAndUpserts(t *testing.T) {
	session := newFakeSession()
	p := newPresenter(session, "report", "announce")

	snap := testSnapshot(t, func(s *ledger.Store) {
		s.Apply(ledger.Contribution{UserID: "u1", Amount: 70000, Category: category.CayoPerico, Role: ledger.RoleHost, CountEvent: true})
	})

	p.publish(context.Background(), snap)

	// One user report, one leaderboard, one leader notice.
	if got := len(session.sent["report"]); got != 2 {
		t.Fatalf("report channel messages = %d, want 2", got)
	}
	if got := len(session.sent["announce"]); got != 1 {
		t.Fatalf("announce channel messages = %d, want 1", got)
	}
	if p.lastLeaderID != "u1" {
		t.Errorf("lastLeaderID = %q, want u1", p.lastLeaderID)
	}
	firstLeaderboardID := p.leaderboardMessageID

	// Second publication edits the user report, replaces the leaderboard and
	// posts no new leader notice.
	p.publish(context.Background(), snap)
	if len(session.edited) != 1 {
		t.Errorf("edited messages = %d, want 1 (user report upsert)", len(session.edited))
	}
	if got := len(session.sent["announce"]); got != 1 {
		t.Errorf("announce messages after republish = %d, want still 1", got)
	}
	deletedOld := false
	for _, id := range session.deleted {
		if id == firstLeaderboardID {
			deletedOld = true
		}
	}
	if !deletedOld {
		t.Error("previous leaderboard message should be deleted on republish")
	}
}

func TestUserReportEmbedContent(t *testing.T) {
	session := newFakeSession()
	p := newPresenter(session, "report", "announce")

	snap := testSnapshot(t, func(s *ledger.Store) {
		s.Apply(ledger.Contribution{UserID: "host", Amount: 1500, Category: category.CayoPerico, Role: ledger.RoleHost, CountEvent: true})
		s.Apply(ledger.Contribution{UserID: "u1", Amount: 500, Category: category.CayoPerico, Role: ledger.RoleSupporter, HostID: "host", CountEvent: true})
	})

	p.publish(context.Background(), snap)

	var hostEmbed *discordgo.MessageEmbed
	for _, e := range session.sent["report"] {
		if strings.Contains(e.Title, "USER-HOST") {
			hostEmbed = e
		}
	}
	if hostEmbed == nil {
		t.Fatal("host report embed not sent")
	}
	if !strings.Contains(hostEmbed.Description, "1.500 MIL") {
		t.Errorf("description missing formatted total: %q", hostEmbed.Description)
	}
	if !strings.Contains(hostEmbed.Description, "Apoiadores:") || !strings.Contains(hostEmbed.Description, "<@u1>") {
		t.Errorf("description missing supporters line: %q", hostEmbed.Description)
	}
	// Registered category renders as a role mention.
	if !strings.Contains(hostEmbed.Description, "<@&1408190721847988275>") {
		t.Errorf("description missing category display tag: %q", hostEmbed.Description)
	}
}

func TestLeaderboardEmbedSeparatesTopThree(t *testing.T) {
	snap := testSnapshot(t, func(s *ledger.Store) {
		for i, amount := range []int64{500, 400, 300, 200, 100} {
			s.Apply(ledger.Contribution{UserID: fmt.Sprintf("u%d", i+1), Amount: amount, Category: category.Vicent, Role: ledger.RoleHost, CountEvent: true})
		}
	})

	session := newFakeSession()
	p := newPresenter(session, "report", "announce")
	p.publish(context.Background(), snap)

	embeds := session.sent["report"]
	leaderboard := embeds[len(embeds)-1]
	if !strings.Contains(leaderboard.Description, "\n\n") {
		t.Error("leaderboard should separate the top three with a blank line")
	}
	if !strings.Contains(leaderboard.Description, "4.") {
		t.Error("fourth place should use a numeric rank")
	}
}

func TestLeaderChangeReplacesNotice(t *testing.T) {
	session := newFakeSession()
	p := newPresenter(session, "report", "announce")

	store := ledger.NewStore()
	store.Apply(ledger.Contribution{UserID: "u1", Amount: 100, Category: category.Vicent, Role: ledger.RoleHost, CountEvent: true})
	p.publish(context.Background(), store.Snapshot())
	firstNotice := p.lastLeaderNoticeID

	store.Apply(ledger.Contribution{UserID: "u2", Amount: 900, Category: category.Vicent, Role: ledger.RoleHost, CountEvent: true})
	p.publish(context.Background(), store.Snapshot())

	if p.lastLeaderID != "u2" {
		t.Errorf("lastLeaderID = %q, want u2", p.lastLeaderID)
	}
	if p.lastLeaderNoticeID == firstNotice {
		t.Error("leader notice should be replaced on takeover")
	}
	deletedOld := false
	for _, id := range session.deleted {
		if id == firstNotice {
			deletedOld = true
		}
	}
	if !deletedOld {
		t.Error("previous leader notice should be deleted")
	}
}

func TestRetractUserReports(t *testing.T) {
	session := newFakeSession()
	p := newPresenter(session, "report", "announce")
	p.reportMessages["u1"] = "msg-a"
	p.reportMessages["u2"] = "msg-b"

	p.retractUserReports(context.Background())
	if len(p.reportMessages) != 0 {
		t.Errorf("report messages not cleared: %v", p.reportMessages)
	}
	if len(session.deleted) != 2 {
		t.Errorf("deleted = %v, want both report messages", session.deleted)
	}

	// Idempotent.
	p.retractUserReports(context.Background())
	if len(session.deleted) != 2 {
		t.Error("repeated retraction should delete nothing")
	}
}

func TestRetractStaleLeaderboard(t *testing.T) {
	session := newFakeSession()
	p := newPresenter(session, "report", "announce")

	now := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	p.leaderboardMessageID = "msg-lb"
	p.leaderboardCreatedAt = now.Add(-leaderboardRetention + time.Hour)

	if p.retractStaleLeaderboard(context.Background(), now) {
		t.Error("fresh leaderboard should not be retracted")
	}

	p.leaderboardCreatedAt = now.Add(-leaderboardRetention - time.Hour)
	if !p.retractStaleLeaderboard(context.Background(), now) {
		t.Fatal("stale leaderboard should be retracted")
	}
	if p.leaderboardMessageID != "" || !p.leaderboardCreatedAt.IsZero() {
		t.Error("leaderboard handle should be cleared after retraction")
	}

	// Idempotent.
	if p.retractStaleLeaderboard(context.Background(), now) {
		t.Error("repeated retention check should be a no-op")
	}
}

func TestStateRoundTrip(t *testing.T) {
	session := newFakeSession()
	p := newPresenter(session, "report", "announce")
	p.reportMessages["u1"] = "msg-a"
	p.leaderboardMessageID = "msg-lb"
	p.leaderboardCreatedAt = time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	p.lastLeaderID = "u1"
	p.lastLeaderNoticeID = "msg-n"

	var st db.State
	p.fillState(&st)

	restored := newPresenter(session, "report", "announce")
	restored.restoreState(&st)

	if restored.reportMessages["u1"] != "msg-a" ||
		restored.leaderboardMessageID != "msg-lb" ||
		!restored.leaderboardCreatedAt.Equal(p.leaderboardCreatedAt) ||
		restored.lastLeaderID != "u1" ||
		restored.lastLeaderNoticeID != "msg-n" {
		t.Errorf("state round trip mismatch: %+v", restored)
	}
}

func TestPresentationFailureKeepsGoing(t *testing.T) {
	session := newFakeSession()
	session.failSend = true
	p := newPresenter(session, "report", "announce")

	snap := testSnapshot(t, func(s *ledger.Store) {
		s.Apply(ledger.Contribution{UserID: "u1", Amount: 100, Category: category.Vicent, Role: ledger.RoleHost, CountEvent: true})
	})

	// Must not panic and must not record handles for failed sends.
	p.publish(context.Background(), snap)
	if len(p.reportMessages) != 0 {
		t.Errorf("failed sends must not record message handles: %v", p.reportMessages)
	}
	if p.leaderboardMessageID != "" {
		t.Error("failed leaderboard send must clear the handle")
	}
}

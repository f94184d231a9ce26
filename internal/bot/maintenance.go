package bot

import (
	"context"
	"log"
	"time"
)

// maintenanceWorker drives the two retention policies: the weekly period
// reset (Sunday 08:00 UTC) and the daily stale-leaderboard check. Both run
// through the bot's event lock, so they never race an in-flight attribution.
type maintenanceWorker struct {
	bot      *Bot
	stopChan chan struct{}
	ticker   *time.Ticker
	interval time.Duration

	nextReset     time.Time
	nextRetention time.Time
}

func newMaintenanceWorker(b *Bot) *maintenanceWorker {
	now := time.Now().UTC()
	return &maintenanceWorker{
		bot:           b,
		stopChan:      make(chan struct{}),
		interval:      time.Minute,
		nextReset:     nextWeeklyReset(now),
		nextRetention: nextMidnight(now),
	}
}

func (w *maintenanceWorker) start() {
	if w == nil {
		return
	}
	w.ticker = time.NewTicker(w.interval)
	go w.loop()
}

func (w *maintenanceWorker) stop() {
	if w == nil {
		return
	}
	close(w.stopChan)
	if w.ticker != nil {
		w.ticker.Stop()
	}
}

func (w *maintenanceWorker) loop() {
	ctx := context.Background()
	for {
		select {
		case <-w.ticker.C:
			w.tick(ctx, time.Now().UTC())
		case <-w.stopChan:
			return
		}
	}
}

func (w *maintenanceWorker) tick(ctx context.Context, now time.Time) {
	if !now.Before(w.nextReset) {
		w.bot.onPeriodBoundary(ctx)
		w.nextReset = nextWeeklyReset(now)
	}
	if !now.Before(w.nextRetention) {
		w.bot.onRetentionCheck(ctx, now)
		w.nextRetention = nextMidnight(now)
	}
}

// onPeriodBoundary resets the period ledger and retracts every per-user
// report artifact. The all-time ledger is untouched.
func (b *Bot) onPeriodBoundary(ctx context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.ledger.ResetPeriod()
	b.presenter.retractUserReports(ctx)
	b.saveStateLocked(ctx)
	log.Println("maintenance: period ledger reset, weekly reports retracted")
}

// onRetentionCheck retracts the leaderboard artifact once it has outlived the
// retention window.
func (b *Bot) onRetentionCheck(ctx context.Context, now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.presenter.retractStaleLeaderboard(ctx, now) {
		b.saveStateLocked(ctx)
		log.Println("maintenance: stale leaderboard retracted")
	}
}

// nextWeeklyReset returns the first Sunday 08:00 UTC strictly after now.
func nextWeeklyReset(now time.Time) time.Time {
	candidate := time.Date(now.Year(), now.Month(), now.Day(), 8, 0, 0, 0, time.UTC)
	daysUntilSunday := (int(time.Sunday) - int(now.Weekday()) + 7) % 7
	candidate = candidate.AddDate(0, 0, daysUntilSunday)
	if !candidate.After(now) {
		candidate = candidate.AddDate(0, 0, 7)
	}
	return candidate
}

// nextMidnight returns the first 00:00 UTC strictly after now.
func nextMidnight(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
}

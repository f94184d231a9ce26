// Package bot connects the attribution core to Discord: it ingests
// declarations from the farm channel, runs the clarification dialogs through
// buttons and modals, publishes report embeds and persists state snapshots.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/farmstats/farmbot/internal/attribution"
	"github.com/farmstats/farmbot/internal/config"
	"github.com/farmstats/farmbot/internal/db"
	"github.com/farmstats/farmbot/internal/ledger"
)

type Bot struct {
	session      *discordgo.Session
	db           *db.DB
	cfg          *config.Config
	ledger       *ledger.Store
	attributions *attribution.Service
	presenter    *presenter
	maintenance  *maintenanceWorker

	// Serializes declaration/clarification processing, report publication
	// and state persistence: a single logical writer over the ledger.
	mu sync.Mutex
}

func New(cfg *config.Config, database *db.DB, store *ledger.Store) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}

	bot := &Bot{
		session:      session,
		db:           database,
		cfg:          cfg,
		ledger:       store,
		attributions: attribution.NewService(store),
		presenter:    newPresenter(session, cfg.ReportChannelID, cfg.AnnounceChannelID),
	}
	bot.maintenance = newMaintenanceWorker(bot)

	// Register event handlers
	session.AddHandler(bot.onReady)
	session.AddHandler(bot.onMessageCreate)
	session.AddHandler(bot.onInteractionCreate)

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentMessageContent

	return bot, nil
}

func (b *Bot) Start() error {
	if err := b.restoreState(context.Background()); err != nil {
		return err
	}
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}
	b.maintenance.start()
	log.Println("Discord bot is running")
	return nil
}

func (b *Bot) Stop() error {
	b.maintenance.stop()

	b.mu.Lock()
	b.saveStateLocked(context.Background())
	b.mu.Unlock()

	return b.session.Close()
}

func (b *Bot) onReady(s *discordgo.Session, event *discordgo.Ready) {
	log.Printf("%s is connected!", event.User.Username)

	embed := &discordgo.MessageEmbed{
		Color: embedColorReport,
		Description: "<:verified:1405172419827732530> **Bot Online!** pronto para **monitorar**, " +
			"**registrar**, **calcular** e **divulgar** valores de golpes e serviços dos membros da comunidade! " +
			"<a:moneybag:1405178051935076392>",
	}
	if _, err := s.ChannelMessageSendEmbed(b.cfg.FarmChannelID, embed); err != nil {
		log.Printf("bot: failed to post online notice: %v", err)
	}
}

// restoreState loads the persisted snapshot. Corrupt state resets to an empty
// ledger instead of failing startup.
func (b *Bot) restoreState(ctx context.Context) error {
	st, err := b.db.LoadState(ctx)
	if errors.Is(err, db.ErrCorruptState) {
		log.Printf("bot: %v, starting from an empty ledger", err)
		return nil
	}
	if err != nil {
		return err
	}
	if st == nil {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.ledger.Restore(st.Ledger)
	b.presenter.restoreState(st)
	return nil
}

// saveStateLocked persists the current snapshot. Persistence failures are
// logged, never fatal: the in-memory ledger stays authoritative.
func (b *Bot) saveStateLocked(ctx context.Context) {
	st := &db.State{Ledger: b.ledger.Snapshot()}
	b.presenter.fillState(st)

	saveCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := b.db.SaveState(saveCtx, st); err != nil {
		log.Printf("bot: failed to save state: %v", err)
	}
}

// PublishReports regenerates and publishes every report artifact. It is the
// manual trigger behind the !relatorio command and the web API.
func (b *Bot) PublishReports(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.presenter.publish(ctx, b.ledger.Snapshot())
	b.saveStateLocked(ctx)
	return nil
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionMessageComponent:
		b.handleComponent(s, i)
	case discordgo.InteractionModalSubmit:
		b.handleModalSubmit(s, i)
	}
}

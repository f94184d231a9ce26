package bot

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/farmstats/farmbot/internal/db"
	"github.com/farmstats/farmbot/internal/ledger"
	"github.com/farmstats/farmbot/internal/report"
)

const (
	embedColorReport      = 0xFFEC00
	embedColorLeaderboard = 0xFFD700

	// Leaderboard artifacts older than this are retracted.
	leaderboardRetention = 60 * 24 * time.Hour

	presentationTimeout = 12 * time.Second
)

// Minimal session surface the presenter needs; *discordgo.Session satisfies
// it, tests use a fake.
type presenterSession interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEditEmbed(channelID, messageID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
	User(userID string, options ...discordgo.RequestOption) (*discordgo.User, error)
}

// presenter owns the externally-addressable report artifacts: one embed per
// user, the leaderboard embed and the leader-change notice. Ledger mutation
// always completes before publish is called; failures here are logged and
// never roll anything back.
type presenter struct {
	session           presenterSession
	reportChannelID   string
	announceChannelID string

	reportMessages       map[string]string
	leaderboardMessageID string
	leaderboardCreatedAt time.Time
	lastLeaderID         string
	lastLeaderNoticeID   string

	now func() time.Time
}

func newPresenter(session presenterSession, reportChannelID, announceChannelID string) *presenter {
	return &presenter{
		session:           session,
		reportChannelID:   reportChannelID,
		announceChannelID: announceChannelID,
		reportMessages:    make(map[string]string),
		now:               time.Now,
	}
}

func (p *presenter) restoreState(st *db.State) {
	p.reportMessages = st.ReportMessages
	if p.reportMessages == nil {
		p.reportMessages = make(map[string]string)
	}
	p.leaderboardMessageID = st.LeaderboardMessageID
	if st.LeaderboardCreatedAt != nil {
		p.leaderboardCreatedAt = *st.LeaderboardCreatedAt
	}
	p.lastLeaderID = st.LastLeaderID
	p.lastLeaderNoticeID = st.LastLeaderNoticeID
}

func (p *presenter) fillState(st *db.State) {
	st.ReportMessages = p.reportMessages
	st.LeaderboardMessageID = p.leaderboardMessageID
	if !p.leaderboardCreatedAt.IsZero() {
		createdAt := p.leaderboardCreatedAt
		st.LeaderboardCreatedAt = &createdAt
	}
	st.LastLeaderID = p.lastLeaderID
	st.LastLeaderNoticeID = p.lastLeaderNoticeID
}

// publish re-derives all report artifacts from snap and upserts them.
func (p *presenter) publish(ctx context.Context, snap ledger.Snapshot) {
	for _, r := range report.CompileUserReports(snap) {
		p.upsertUserReport(ctx, r)
	}
	rows := report.CompileLeaderboard(snap)
	p.replaceLeaderboard(ctx, rows)
	p.announceLeaderChange(ctx, rows)
}

func (p *presenter) upsertUserReport(ctx context.Context, r report.UserReport) {
	user := p.fetchUser(ctx, r.UserID)
	if user == nil {
		return
	}

	embed := userReportEmbed(r, user)
	if msgID, ok := p.reportMessages[r.UserID]; ok {
		if _, err := p.editEmbedWithRetry(ctx, p.reportChannelID, msgID, embed); err == nil {
			return
		}
		// Edit failed (likely a deleted message); fall through to a fresh send.
	}
	msg, err := p.sendEmbedWithRetry(ctx, p.reportChannelID, embed)
	if err != nil {
		log.Printf("presenter: failed to upsert report for user %s: %v", r.UserID, err)
		return
	}
	p.reportMessages[r.UserID] = msg.ID
}

func userReportEmbed(r report.UserReport, user *discordgo.User) *discordgo.MessageEmbed {
	lines := make([]string, 0, len(r.Categories))
	for _, c := range r.Categories {
		name := string(c.Category)
		if c.Display != "" {
			name = "<@&" + c.Display + ">"
		}
		lines = append(lines, fmt.Sprintf("%s ( %d )", name, c.Count))
	}
	categoriesText := strings.Join(lines, " — ")
	if categoriesText == "" {
		categoriesText = "Nenhum golpe registrado esta semana."
	}

	description := fmt.Sprintf("**<:1397premiumbot:1410472705869742080> Dinheiro conquistado:** %s\n**Serviço|Golpe:** %s",
		report.FormatValue(r.Total), categoriesText)

	if len(r.Supporters) > 0 {
		mentions := make([]string, len(r.Supporters))
		for i, id := range r.Supporters {
			mentions[i] = "<@" + id + ">"
		}
		description += "\n**Apoiadores:** " + strings.Join(mentions, ", ")
	}

	embed := &discordgo.MessageEmbed{
		Title:       "RELATÓRIO SEMANAL " + strings.ToUpper(user.Username),
		Description: description,
		Color:       embedColorReport,
	}
	if avatar := user.AvatarURL(""); avatar != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: avatar}
	}
	return embed
}

// replaceLeaderboard deletes the previous ranking embed and posts a fresh one.
func (p *presenter) replaceLeaderboard(ctx context.Context, rows []report.Row) {
	if p.leaderboardMessageID != "" {
		p.deleteMessage(ctx, p.reportChannelID, p.leaderboardMessageID)
	}

	msg, err := p.sendEmbedWithRetry(ctx, p.reportChannelID, leaderboardEmbed(rows))
	if err != nil {
		log.Printf("presenter: failed to post leaderboard: %v", err)
		p.leaderboardMessageID = ""
		p.leaderboardCreatedAt = time.Time{}
		return
	}
	p.leaderboardMessageID = msg.ID
	p.leaderboardCreatedAt = p.now()
}

func leaderboardEmbed(rows []report.Row) *discordgo.MessageEmbed {
	lines := make([]string, 0, len(rows))
	for i, row := range rows {
		var medal string
		switch i {
		case 0:
			medal = "<:medal261:1410341499031257313>"
		case 1:
			medal = "<:IOS_2stPlaceMedal21:1410341609790378134>"
		case 2:
			medal = "<:IOS_3stPlaceMedal5:1410341626361938112>"
		default:
			medal = fmt.Sprintf("%d.", i+1)
		}
		lines = append(lines, fmt.Sprintf("%s — <@%s> ﾠ%s ﾠ ( S|G %d )", medal, row.UserID, report.FormatValue(row.Total), row.Events))
	}

	description := strings.Join(lines, "\n")
	if len(lines) > 3 {
		description = strings.Join(lines[:3], "\n") + "\n\n" + strings.Join(lines[3:], "\n")
	}
	if description == "" {
		description = "Nenhum registro."
	}

	return &discordgo.MessageEmbed{
		Title:       "<a:trophywinchampcu:1410341650391236751> RANKING DE VALORES REGISTRADOS NA COMUNIDADE! <a:moneybag:1405178051935076392>",
		Description: description,
		Color:       embedColorLeaderboard,
	}
}

// announceLeaderChange posts a congratulations notice when the top-ranked
// identity changed, replacing the previous notice. A grown total with an
// unchanged leader is not a change.
func (p *presenter) announceLeaderChange(ctx context.Context, rows []report.Row) {
	leaderID, changed := report.LeaderChanged(p.lastLeaderID, rows)
	if !changed {
		return
	}

	user := p.fetchUser(ctx, leaderID)
	if user == nil {
		return
	}

	if p.lastLeaderNoticeID != "" {
		p.deleteMessage(ctx, p.announceChannelID, p.lastLeaderNoticeID)
		p.lastLeaderNoticeID = ""
	}

	embed := &discordgo.MessageEmbed{
		Title: "<:medal261:1410341499031257313> NOVO LÍDER NO RANKING DE VALORES!",
		Description: fmt.Sprintf("<a:confetiss:1410158284001771530> **Parabéns!** <@%s> **conquistou o primeiro lugar** no ranking de valores da comunidade, **%s.** <a:moneybag:1405178051935076392>",
			leaderID, report.FormatValue(rows[0].Total)),
		Color: embedColorReport,
	}
	if avatar := user.AvatarURL(""); avatar != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: avatar}
	}

	msg, err := p.sendEmbedWithRetry(ctx, p.announceChannelID, embed)
	if err != nil {
		log.Printf("presenter: failed to post leader notice for %s: %v", leaderID, err)
		return
	}
	p.lastLeaderNoticeID = msg.ID
	p.lastLeaderID = leaderID
}

// retractUserReports deletes every per-user report artifact. Idempotent.
func (p *presenter) retractUserReports(ctx context.Context) {
	for userID, msgID := range p.reportMessages {
		p.deleteMessage(ctx, p.reportChannelID, msgID)
		delete(p.reportMessages, userID)
	}
}

// retractStaleLeaderboard deletes the ranking artifact once it is older than
// the retention window. Reports whether anything changed. Idempotent.
func (p *presenter) retractStaleLeaderboard(ctx context.Context, now time.Time) bool {
	if p.leaderboardCreatedAt.IsZero() {
		return false
	}
	if now.Sub(p.leaderboardCreatedAt) <= leaderboardRetention {
		return false
	}
	if p.leaderboardMessageID != "" {
		p.deleteMessage(ctx, p.reportChannelID, p.leaderboardMessageID)
	}
	p.leaderboardMessageID = ""
	p.leaderboardCreatedAt = time.Time{}
	return true
}

func (p *presenter) fetchUser(ctx context.Context, userID string) *discordgo.User {
	callCtx, cancel := context.WithTimeout(ctx, presentationTimeout)
	defer cancel()
	user, err := p.session.User(userID, discordgo.WithContext(callCtx))
	if err != nil {
		log.Printf("presenter: failed to fetch user %s: %v", userID, err)
		return nil
	}
	return user
}

// Presentation calls are retried at most once; the ledger mutation already
// completed, so a persistent failure only delays the artifact update.
func (p *presenter) sendEmbedWithRetry(ctx context.Context, channelID string, embed *discordgo.MessageEmbed) (*discordgo.Message, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, presentationTimeout)
		msg, err := p.session.ChannelMessageSendEmbed(channelID, embed, discordgo.WithContext(callCtx))
		cancel()
		if err == nil {
			return msg, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func (p *presenter) editEmbedWithRetry(ctx context.Context, channelID, messageID string, embed *discordgo.MessageEmbed) (*discordgo.Message, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, presentationTimeout)
		msg, err := p.session.ChannelMessageEditEmbed(channelID, messageID, embed, discordgo.WithContext(callCtx))
		cancel()
		if err == nil {
			return msg, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func (p *presenter) deleteMessage(ctx context.Context, channelID, messageID string) {
	callCtx, cancel := context.WithTimeout(ctx, presentationTimeout)
	defer cancel()
	if err := p.session.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(callCtx)); err != nil {
		log.Printf("presenter: failed to delete message %s: %v", messageID, err)
	}
}

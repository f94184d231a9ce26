package bot

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/farmstats/farmbot/internal/attribution"
)

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	// Ignore bot messages
	if m.Author.Bot {
		return
	}

	content := strings.ToLower(strings.TrimSpace(m.Content))
	if strings.HasPrefix(content, "!relatorio") || strings.HasPrefix(content, "!relatório") {
		b.handleReportCommand(context.Background(), strings.Contains(content, "teste"))
		return
	}

	if m.ChannelID != b.cfg.FarmChannelID {
		return
	}
	b.handleDeclaration(context.Background(), s, m)
}

// handleReportCommand republishes all report artifacts on demand. The test
// variant skips the snapshot save afterwards.
func (b *Bot) handleReportCommand(ctx context.Context, test bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.presenter.publish(ctx, b.ledger.Snapshot())
	if !test {
		b.saveStateLocked(ctx)
	}
}

func (b *Bot) handleDeclaration(ctx context.Context, s *discordgo.Session, m *discordgo.MessageCreate) {
	mentioned := make([]string, 0, len(m.Mentions))
	for _, u := range m.Mentions {
		mentioned = append(mentioned, u.ID)
	}

	decl, ok := attribution.NewDeclaration(m.ID, m.Author.ID, m.Content, mentioned)
	if !ok {
		// Not a reportable event; nothing enters the ledger.
		log.Printf("parser: no amount in message %s: %q", m.ID, m.Content)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	prompt := b.attributions.Open(decl)
	switch prompt {
	case attribution.PromptSingleAnswer:
		b.sendDialogButton(s, m,
			fmt.Sprintf("<@%s>, clique para responder o questionário do golpe Vicent", decl.HostID),
			"Responder Vicent", "vicent_open:"+decl.ID)
	case attribution.PromptSplit:
		label := string(decl.Category)
		if tag, ok := decl.Category.DisplayTag(); ok {
			label = "<@&" + tag + ">"
		}
		b.sendDialogButton(s, m,
			fmt.Sprintf("<@%s>, **defina a porcentagem** que cada apoiador @mencionado recebeu do seu golpe %s", decl.HostID, label),
			"Definir porcentagem", "split_open:"+decl.ID)
	case attribution.PromptNone:
		// Resolved on the spot: the host was credited the full amount.
	}

	b.presenter.publish(ctx, b.ledger.Snapshot())
	b.saveStateLocked(ctx)
}

func (b *Bot) sendDialogButton(s *discordgo.Session, m *discordgo.MessageCreate, content, label, customID string) {
	_, err := s.ChannelMessageSendComplex(m.ChannelID, &discordgo.MessageSend{
		Content:   content,
		Reference: m.Reference(),
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{
						Label:    label,
						Style:    discordgo.PrimaryButton,
						CustomID: customID,
					},
				},
			},
		},
	})
	if err != nil {
		log.Printf("bot: failed to send clarification prompt for declaration %s: %v", m.ID, err)
	}
}

package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/farmstats/farmbot/internal/attribution"
	"github.com/farmstats/farmbot/internal/report"
)

func (b *Bot) handleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {
	customID := i.MessageComponentData().CustomID
	prefix, declID, ok := strings.Cut(customID, ":")
	if !ok {
		return
	}

	switch prefix {
	case "vicent_open":
		b.showVicentModal(s, i, declID)
	case "split_open":
		b.showSplitModal(s, i, declID)
	case "mode_open":
		b.showModeModal(s, i, declID)
	}
}

func (b *Bot) handleModalSubmit(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ModalSubmitData()
	prefix, declID, ok := strings.Cut(data.CustomID, ":")
	if !ok {
		return
	}
	values := modalValues(data)

	switch prefix {
	case "vicent":
		b.submitVicent(s, i, declID, values)
	case "split":
		b.submitSplit(s, i, declID, values)
	case "mode":
		b.submitMode(s, i, declID, values)
	}
}

func (b *Bot) showVicentModal(s *discordgo.Session, i *discordgo.InteractionCreate, declID string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: "vicent:" + declID,
			Title:    "Vicent — Cluckin' Bell",
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.TextInput{
							CustomID: "primeira_vez",
							Label:    "Primeira vez realizando o golpe? (Sim/Não)",
							Style:    discordgo.TextInputShort,
							Required: true,
						},
					},
				},
			},
		},
	})
	if err != nil {
		log.Printf("bot: failed to show vicent modal: %v", err)
	}
}

func (b *Bot) showSplitModal(s *discordgo.Session, i *discordgo.InteractionCreate, declID string) {
	decl, stage, ok := b.attributions.Declaration(declID)
	if !ok || stage != attribution.StageAwaitingSplit {
		respondEphemeral(s, i, "Este registro não está mais aguardando porcentagens.")
		return
	}

	components := make([]discordgo.MessageComponent, 0, len(decl.Participants)+1)
	for _, uid := range decl.Participants {
		components = append(components, discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.TextInput{
					CustomID:    "percent:" + uid,
					Label:       fmt.Sprintf("Porcentagem de %s (%%)", b.username(uid)),
					Style:       discordgo.TextInputShort,
					Placeholder: "15",
					Required:    true,
				},
			},
		})
	}
	components = append(components, discordgo.ActionsRow{
		Components: []discordgo.MessageComponent{
			discordgo.TextInput{
				CustomID: "elite",
				Label:    "Desafio de elite completado? (Sim/Não)",
				Style:    discordgo.TextInputShort,
				Required: true,
			},
		},
	})

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID:   "split:" + declID,
			Title:      "Definir porcentagem",
			Components: components,
		},
	})
	if err != nil {
		log.Printf("bot: failed to show split modal: %v", err)
	}
}

func (b *Bot) showModeModal(s *discordgo.Session, i *discordgo.InteractionCreate, declID string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: "mode:" + declID,
			Title:    "Definir modo do golpe",
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.TextInput{
							CustomID: "modo",
							Label:    "Modo do golpe (Normal/Difícil)",
							Style:    discordgo.TextInputShort,
							Required: true,
						},
					},
				},
			},
		},
	})
	if err != nil {
		log.Printf("bot: failed to show mode modal: %v", err)
	}
}

func (b *Bot) submitVicent(s *discordgo.Session, i *discordgo.InteractionCreate, declID string, values map[string]string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	res, err := b.attributions.AnswerFirstTime(declID, values["primeira_vez"])
	if err != nil {
		b.respondClarificationError(s, i, declID, err)
		return
	}

	respondEphemeral(s, i, fmt.Sprintf("✅ Valores aplicados: Host recebeu %s e cada apoiador recebeu %s.",
		report.FormatValue(res.HostAmount), report.FormatValue(res.SupporterAmount)))

	ctx := context.Background()
	b.presenter.publish(ctx, b.ledger.Snapshot())
	b.saveStateLocked(ctx)
}

func (b *Bot) submitSplit(s *discordgo.Session, i *discordgo.InteractionCreate, declID string, values map[string]string) {
	percents := make(map[string]float64)
	for key, value := range values {
		uid, found := strings.CutPrefix(key, "percent:")
		if !found {
			continue
		}
		// Unparsable input counts as 0%.
		if p, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			percents[uid] = p
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	res, err := b.attributions.SubmitSplit(declID, percents, values["elite"])
	if err != nil {
		b.respondClarificationError(s, i, declID, err)
		return
	}

	switch {
	case res.NeedsMode:
		respondEphemeralWithButton(s, i,
			"⚠️ **Clique para definir o modo do golpe e receber o bônus**.",
			"Definir modo do golpe", "mode_open:"+declID)
	case res.Bonus > 0:
		respondEphemeral(s, i, fmt.Sprintf("✅ ELITE FEITO! Bônus de %s aplicado para todos.", report.FormatValue(res.Bonus)))
	default:
		respondEphemeral(s, i, "✅ Valores aplicados sem bônus de elite.")
	}

	ctx := context.Background()
	b.presenter.publish(ctx, b.ledger.Snapshot())
	b.saveStateLocked(ctx)
}

func (b *Bot) submitMode(s *discordgo.Session, i *discordgo.InteractionCreate, declID string, values map[string]string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	res, err := b.attributions.ChooseMode(declID, interactionUserID(i), values["modo"])
	if err != nil {
		b.respondClarificationError(s, i, declID, err)
		return
	}

	respondEphemeral(s, i, fmt.Sprintf("✅ Bônus de elite aplicado! Cada participante recebeu %s.", report.FormatValue(res.Bonus)))

	ctx := context.Background()
	b.presenter.publish(ctx, b.ledger.Snapshot())
	b.saveStateLocked(ctx)
}

// respondClarificationError maps attribution errors to user feedback. Stale
// and unknown inputs are ignored by the core; the ledger is never touched.
func (b *Bot) respondClarificationError(s *discordgo.Session, i *discordgo.InteractionCreate, declID string, err error) {
	switch {
	case errors.Is(err, attribution.ErrAlreadyResolved):
		log.Printf("attribution: stale input for resolved declaration %s", declID)
		respondEphemeral(s, i, "Este registro já foi processado.")
	case errors.Is(err, attribution.ErrUnknownDeclaration):
		log.Printf("attribution: input for unknown declaration %s", declID)
		respondEphemeral(s, i, "Não encontrei um registro pendente para esta mensagem.")
	default:
		log.Printf("attribution: rejected input for declaration %s: %v", declID, err)
		respondEphemeral(s, i, "Esta resposta não corresponde à etapa atual do registro.")
	}
}

// username fetches a display name for modal labels, falling back to the raw
// id when Discord cannot be reached in time.
func (b *Bot) username(userID string) string {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	user, err := b.session.User(userID, discordgo.WithContext(ctx))
	if err != nil {
		return userID
	}
	return user.Username
}

func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

func modalValues(data discordgo.ModalSubmitInteractionData) map[string]string {
	values := make(map[string]string)
	for _, component := range data.Components {
		actionRow, ok := component.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, c := range actionRow.Components {
			if input, ok := c.(*discordgo.TextInput); ok {
				values[input.CustomID] = input.Value
			}
		}
	}
	return values
}

func respondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.Printf("bot: failed to respond to interaction: %v", err)
	}
}

func respondEphemeralWithButton(s *discordgo.Session, i *discordgo.InteractionCreate, content, label, customID string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
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
		},
	})
	if err != nil {
		log.Printf("bot: failed to respond to interaction: %v", err)
	}
}

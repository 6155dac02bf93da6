package bot

import (
	"context"
	"log"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/dmehra/khatabot/internal/commands"
	"github.com/dmehra/khatabot/internal/convo"
	"github.com/dmehra/khatabot/internal/session"
)

// Button custom IDs. Disambiguation choices append the obligation id after
// a second colon.
const (
	customIDYes          = "khata:yes"
	customIDNo           = "khata:no"
	customIDCancel       = "khata:cancel"
	customIDChoicePrefix = "khata:choice:"
)

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author.Bot {
		return
	}

	text := strings.TrimSpace(m.Content)
	if voice := firstVoiceAttachment(m.Message); voice != nil {
		transcript, err := b.transcribeAttachment(voice)
		if err != nil {
			log.Printf("Failed to transcribe voice note: %v", err)
			s.ChannelMessageSend(m.ChannelID, "I couldn't make out that voice note — could you type it instead?")
			return
		}
		text = transcript
	}
	if text == "" {
		return
	}

	// One conversation per channel.
	out := b.orch.Handle(context.Background(), convo.Input{ConvID: m.ChannelID, Text: text})
	b.send(s, m.ChannelID, out)
}

func firstVoiceAttachment(m *discordgo.Message) *discordgo.MessageAttachment {
	for _, att := range m.Attachments {
		if strings.HasPrefix(att.ContentType, "audio/") {
			return att
		}
	}
	return nil
}

func (b *Bot) transcribeAttachment(att *discordgo.MessageAttachment) (string, error) {
	if b.transcriber == nil {
		return "", errTranscriptionDisabled
	}
	return b.transcriber.TranscribeURL(context.Background(), att.URL, att.Filename)
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		b.handleApplicationCommand(s, i)
	case discordgo.InteractionMessageComponent:
		b.handleComponent(s, i)
	}
}

func (b *Bot) handleApplicationCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.ApplicationCommandData().Name {
	case "pending":
		commands.HandlePending(s, i, b.store)
	case "settled":
		commands.HandleSettled(s, i, b.store)
	case "help":
		commands.HandleHelp(s, i)
	}
}

func (b *Bot) handleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {
	customID := i.MessageComponentData().CustomID

	in := convo.Input{ConvID: i.ChannelID}
	switch {
	case customID == customIDYes:
		in.Signal = convo.SignalYes
	case customID == customIDNo:
		in.Signal = convo.SignalNo
	case customID == customIDCancel:
		in.Signal = convo.SignalCancel
	case strings.HasPrefix(customID, customIDChoicePrefix):
		in.Signal = convo.SignalChoice
		in.ChoiceID = strings.TrimPrefix(customID, customIDChoicePrefix)
	default:
		return
	}

	out := b.orch.Handle(context.Background(), in)

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content:    out.Reply,
			Components: componentsFor(out),
		},
	})
	if err != nil {
		log.Printf("Failed to respond to component interaction: %v", err)
	}
}

func (b *Bot) send(s *discordgo.Session, channelID string, out convo.Output) {
	_, err := s.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content:    out.Reply,
		Components: componentsFor(out),
	})
	if err != nil {
		log.Printf("Failed to send message: %v", err)
	}
}

// componentsFor renders the orchestrator's affordance: Yes/No buttons for a
// pending confirmation, a numbered pick list plus Cancel for disambiguation.
func componentsFor(out convo.Output) []discordgo.MessageComponent {
	switch {
	case out.Confirm:
		return []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{Label: "Yes", Style: discordgo.SuccessButton, CustomID: customIDYes},
					discordgo.Button{Label: "No", Style: discordgo.DangerButton, CustomID: customIDNo},
				},
			},
		}
	case len(out.Choices) > 0:
		return choiceRows(out.Choices)
	}
	return nil
}

// choiceRows lays choice buttons out five per row, the Discord limit, with
// Cancel on the final row.
func choiceRows(choices []session.Choice) []discordgo.MessageComponent {
	buttons := make([]discordgo.MessageComponent, 0, len(choices)+1)
	for _, c := range choices {
		buttons = append(buttons, discordgo.Button{
			Label:    truncateLabel(c.Label),
			Style:    discordgo.PrimaryButton,
			CustomID: customIDChoicePrefix + c.ID,
		})
	}
	buttons = append(buttons, discordgo.Button{
		Label:    "Cancel",
		Style:    discordgo.SecondaryButton,
		CustomID: customIDCancel,
	})

	var rows []discordgo.MessageComponent
	for len(buttons) > 0 {
		n := len(buttons)
		if n > 5 {
			n = 5
		}
		rows = append(rows, discordgo.ActionsRow{Components: buttons[:n]})
		buttons = buttons[n:]
	}
	return rows
}

// Discord caps button labels at 80 characters.
func truncateLabel(label string) string {
	if len(label) <= 80 {
		return label
	}
	return label[:77] + "..."
}

package commands

import (
	"context"
	"log"

	"github.com/bwmarrin/discordgo"

	"github.com/dmehra/khatabot/internal/ledger"
)

const helpText = `Just talk to me in plain language — I keep your khata.

**Recording:** "Rahul owes me 500 for dinner", "Gave Sunita 5k advance, deduct 1k monthly", "Dinner with Rahul and Priya, I paid 3200"
**Payments:** "Rahul paid 500", "Sunita settled up"
**Asking:** "Who owes me money?", "How much does Priya owe?"

I always show you what I understood and wait for a Yes before writing anything down. Voice notes work too.`

func HandlePending(s *discordgo.Session, i *discordgo.InteractionCreate, store ledger.Store) {
	obligations, err := fetch(store, i, ledger.StatusActive)
	if err != nil {
		log.Printf("Failed to list pending obligations: %v", err)
		respond(s, i, "Something went wrong on my side — please try that again.")
		return
	}
	respond(s, i, ledger.PendingSummary(obligations))
}

func HandleSettled(s *discordgo.Session, i *discordgo.InteractionCreate, store ledger.Store) {
	obligations, err := fetch(store, i, ledger.StatusSettled)
	if err != nil {
		log.Printf("Failed to list settled obligations: %v", err)
		respond(s, i, "Something went wrong on my side — please try that again.")
		return
	}
	respond(s, i, ledger.SettledSummary(obligations))
}

func HandleHelp(s *discordgo.Session, i *discordgo.InteractionCreate) {
	respond(s, i, helpText)
}

func fetch(store ledger.Store, i *discordgo.InteractionCreate, status ledger.Status) ([]ledger.Obligation, error) {
	if person := stringOption(i.ApplicationCommandData(), "person"); person != "" {
		return store.ByPerson(context.Background(), person, status)
	}
	return store.ByStatus(context.Background(), status)
}

func stringOption(data discordgo.ApplicationCommandInteractionData, name string) string {
	for _, opt := range data.Options {
		if opt.Name == name {
			return opt.StringValue()
		}
	}
	return ""
}

func respond(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
		},
	})
	if err != nil {
		log.Printf("Failed to respond to interaction: %v", err)
	}
}

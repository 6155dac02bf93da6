// Package bot is the Discord transport: free-form messages and voice notes
// flow into the conversation orchestrator, and its confirmation prompts
// come back as button rows.
package bot

import (
	"errors"
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"

	"github.com/dmehra/khatabot/internal/commands"
	"github.com/dmehra/khatabot/internal/convo"
	"github.com/dmehra/khatabot/internal/ledger"
	"github.com/dmehra/khatabot/internal/transcribe"
)

var errTranscriptionDisabled = errors.New("voice transcription not configured")

type Bot struct {
	session     *discordgo.Session
	orch        *convo.Orchestrator
	store       ledger.Store
	transcriber *transcribe.Client // nil disables voice notes
}

func New(token string, orch *convo.Orchestrator, store ledger.Store, transcriber *transcribe.Client) (*Bot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}

	bot := &Bot{
		session:     session,
		orch:        orch,
		store:       store,
		transcriber: transcriber,
	}

	// Register event handlers
	session.AddHandler(bot.onReady)
	session.AddHandler(bot.onGuildCreate)
	session.AddHandler(bot.onMessageCreate)
	session.AddHandler(bot.onInteractionCreate)

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent

	return bot, nil
}

func (b *Bot) Start() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}
	log.Println("Discord bot is running")
	return nil
}

func (b *Bot) Stop() error {
	return b.session.Close()
}

func (b *Bot) onReady(s *discordgo.Session, event *discordgo.Ready) {
	log.Printf("%s is connected!", event.User.Username)

	for _, guild := range event.Guilds {
		if err := b.registerGuildCommands(guild.ID); err != nil {
			log.Printf("Failed to register commands for guild %s: %v", guild.ID, err)
		}
	}
}

func (b *Bot) onGuildCreate(s *discordgo.Session, event *discordgo.GuildCreate) {
	log.Printf("Guild available/joined: %s (id=%s) — ensuring commands", event.Name, event.ID)
	if err := b.registerGuildCommands(event.ID); err != nil {
		log.Printf("Failed to register commands for guild %s: %v", event.ID, err)
	}
}

func (b *Bot) registerGuildCommands(guildID string) error {
	_, err := b.session.ApplicationCommandBulkOverwrite(b.session.State.User.ID, guildID, commands.Definitions())
	if err != nil {
		return err
	}
	log.Printf("Registered application commands for guild %s", guildID)
	return nil
}

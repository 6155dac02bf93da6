package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmehra/khatabot/internal/api"
	"github.com/dmehra/khatabot/internal/bot"
	"github.com/dmehra/khatabot/internal/config"
	"github.com/dmehra/khatabot/internal/convo"
	"github.com/dmehra/khatabot/internal/db"
	"github.com/dmehra/khatabot/internal/intent"
	"github.com/dmehra/khatabot/internal/session"
	"github.com/dmehra/khatabot/internal/transcribe"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Connect to database
	database, err := db.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	// Run migrations
	if err := database.RunMigrations(context.Background()); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Intent extraction and conversation state
	extractor := intent.NewClient(cfg.OpenRouterAPIKey, cfg.LLMBaseURL, cfg.LLMModel, cfg.LLMTimeout)
	sessions := session.NewManager()
	orch := convo.New(database, extractor, sessions)

	// Voice transcription is optional
	var transcriber *transcribe.Client
	if cfg.OpenAIAPIKey != "" {
		transcriber = transcribe.NewClient(cfg.OpenAIAPIKey)
	} else {
		log.Println("OPENAI_API_KEY not set — voice notes disabled")
	}

	// Discord bot is optional: without a token only the web API runs
	if cfg.DiscordToken != "" {
		discordBot, err := bot.New(cfg.DiscordToken, orch, database, transcriber)
		if err != nil {
			log.Fatalf("Failed to create discord bot: %v", err)
		}
		if err := discordBot.Start(); err != nil {
			log.Fatalf("Failed to start discord bot: %v", err)
		}
		defer discordBot.Stop()
	} else {
		log.Println("DISCORD_TOKEN not set — running web API only")
	}

	// Start API server
	apiServer := api.New(cfg, database, extractor, orch)
	go func() {
		if err := apiServer.Start(); err != nil {
			log.Printf("API server error: %v", err)
		}
	}()

	// Wait for signal to stop
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down...")
}

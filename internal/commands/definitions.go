package commands

import "github.com/bwmarrin/discordgo"

// Definitions is the slash command set registered on every guild.
func Definitions() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "pending",
			Description: "Show all active obligations",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "person",
					Description: "Only show obligations for this person",
					Required:    false,
				},
			},
		},
		{
			Name:        "settled",
			Description: "Show settled obligations",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "person",
					Description: "Only show settled obligations for this person",
					Required:    false,
				},
			},
		},
		{
			Name:        "help",
			Description: "How to talk to the khata bot",
		},
	}
}

package handlers

import (
	"lemmy-automod/bot"

	"github.com/bwmarrin/discordgo"
)

func respond(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

// CommandDispatcher is the central handler for all application command interactions.
// Commands are only accepted from the configured admin channel.
func CommandDispatcher(b *bot.Bot, s *discordgo.Session, i *discordgo.InteractionCreate) {
	commandName := i.ApplicationCommandData().Name

	if commandName != "ping" && i.ChannelID != b.Config.Bot.AdminChannelID {
		respond(s, i, "🚫 This command can only be used in the admin channel.")
		return
	}

	switch commandName {
	case "rules":
		HandleRules(b, s, i)
	case "status":
		HandleStatus(b, s, i)
	case "ping":
		HandlePing(s, i)
	default:
		respond(s, i, "🚫 Internal error: unknown command.")
	}
}

package command

import "github.com/bwmarrin/discordgo"

// RulesCommand defines the structure for the /rules command.
type RulesCommand struct{}

// Definition returns the application command definition.
func (c *RulesCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "rules",
		Description: "Show the automod rules stored for a community",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:         "community",
				Description:  "The community name",
				Type:         discordgo.ApplicationCommandOptionString,
				Required:     true,
				Autocomplete: true,
			},
		},
	}
}

// StatusCommand defines the structure for the /status command.
type StatusCommand struct{}

// Definition returns the application command definition.
func (c *StatusCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "status",
		Description: "Show the bot account and the communities it moderates",
	}
}

// PingCommand defines the structure for the /ping command.
type PingCommand struct{}

// Definition returns the application command definition.
func (c *PingCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "ping",
		Description: "Responds with Pong!",
	}
}

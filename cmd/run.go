package cmd

import (
	"lemmy-automod/bot"
	"lemmy-automod/command"
	"lemmy-automod/handlers"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Log in and start moderating",
	RunE: func(cmd *cobra.Command, args []string) error {
		return bot.Run(handlers.Register, command.AllCommands)
	},
}

// Package cmd is the automod command line.
package cmd

import (
	"fmt"
	"os"

	"lemmy-automod/config"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version is set at build time with -ldflags "-X lemmy-automod/cmd.Version=...".
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:           "automod",
	Short:         "Rule based moderation bot for Lemmy communities",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String("grpc-addr", "", "operator API address (default: grpc.listen)")
	rootCmd.PersistentFlags().String("api-key", "", "operator API key (default: first of grpc.api_key)")

	rootCmd.AddCommand(runCmd, validateCmd, submitCmd, rulesCmd, versionCmd)
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// operatorEndpoint returns the operator API address and key, flags first,
// then configuration.
func operatorEndpoint(cmd *cobra.Command) (string, string) {
	config.LoadConfig()

	addr, _ := cmd.Flags().GetString("grpc-addr")
	if addr == "" {
		addr = viper.GetString("grpc.listen")
	}
	key, _ := cmd.Flags().GetString("api-key")
	if key == "" {
		if keys := viper.GetStringSlice("grpc.api_key"); len(keys) > 0 {
			key = keys[0]
		}
	}
	return addr, key
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "automod", Version)
	},
}

package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ynme",
	Short: "ynme sync service: media-status bus, playback rooms, STT pipeline",
	Long:  `HTTP + WebSocket coordination hub and device agent. Commands: api, agent, migrate, seed.`,
	RunE:  runAPI, // default: run API (same as "ynme api")
}

func init() {
	rootCmd.AddCommand(apiCmd)
	rootCmd.AddCommand(agentCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
}

// Execute runs the root command and returns the error (for main to log.Fatal).
func Execute() error {
	return rootCmd.Execute()
}

// Package cmd provides the command-line interface for playline.
package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use: "playline",
	Short: "Playline CLI tool can play authored event schedules and " +
		"monitor their playback.",
	Long: `Playline CLI tool can play authored event schedules and monitor ` +
		`their playback. A schedule is a JSON list of timed messages that ` +
		`are printed when the playhead reaches them.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	// A .env file can provide defaults such as PLAYLINE_MONITOR_PORT.
	_ = godotenv.Load()

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

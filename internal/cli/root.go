// Package cli implements the fitquest command-line interface using Cobra.
// Commands open the local store directly; only "feedback" talks to a
// running daemon, since feedback queues live in its memory.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "fitquest",
	Short: "fitquest: XP, levels, streaks and badges for your workouts",
	Long: `fitquest is a local gamification engine for fitness tracking.
Log activity to earn XP, level up, keep daily streaks alive and collect
tiered badges and loot.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	userID     string
	jsonOutput bool
)

func init() {
	def := os.Getenv("FITQUEST_USER")
	if def == "" {
		def = "local"
	}
	rootCmd.PersistentFlags().StringVarP(&userID, "user", "u", def, "User id (env FITQUEST_USER)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print JSON instead of text")
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

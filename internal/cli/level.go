package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(levelCmd)
}

var levelCmd = &cobra.Command{
	Use:   "level",
	Short: "Show level, rank, multiplier and progress",
	RunE:  runLevel,
}

func runLevel(cmd *cobra.Command, args []string) error {
	d, e, err := openEngine()
	if err != nil {
		return err
	}
	defer d.Close()

	info, err := e.Level(cmd.Context())
	if err != nil {
		return err
	}
	basic, err := e.BasicLevel(cmd.Context())
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(map[string]interface{}{"level": info, "basic": basic})
	}

	fmt.Printf("Level %d %s (%s)\n", info.Level, info.Rank, basic.Rank)
	fmt.Printf("  XP:         %d\n", info.XP)
	fmt.Printf("  Next level: %s XP to go\n", info.XPToNextLabel())
	fmt.Printf("  Multiplier: x%.2f\n", info.Multiplier)
	fmt.Printf("  %s\n", renderBar(info.ProgressPct))
	if len(info.Perks) > 0 {
		fmt.Printf("  Perks:      %s\n", strings.Join(info.Perks, ", "))
	}
	return nil
}

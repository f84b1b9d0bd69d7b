package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/fitquest/fitquest/internal/app/gamification"
	"github.com/fitquest/fitquest/internal/domain"
)

func init() {
	streakCmd.Flags().StringVar(&streakDate, "date", "", "Day to record (YYYY-MM-DD, default today)")
	rootCmd.AddCommand(streakCmd)
}

var streakDate string

var streakCmd = &cobra.Command{
	Use:   "streak [workout|meal|water]",
	Short: "Show streaks, or record today's activity in a category",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStreak,
}

func runStreak(cmd *cobra.Command, args []string) error {
	d, e, err := openEngine()
	if err != nil {
		return err
	}
	defer d.Close()

	if len(args) == 0 {
		streaks, err := e.Streaks(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(streaks)
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "CATEGORY\tCURRENT\tLONGEST\tLAST LOG")
		for _, s := range streaks {
			last := s.LastLogDate
			if last == "" {
				last = "never"
			}
			fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", s.Category, s.Current, s.Longest, last)
		}
		return w.Flush()
	}

	today := time.Now()
	if streakDate != "" {
		today, err = time.ParseInLocation(domain.DateLayout, streakDate, time.Local)
		if err != nil {
			return fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
		}
	}

	upd, err := e.UpdateStreak(cmd.Context(), domain.StreakCategory(args[0]), today)
	if err != nil && upd.Outcome == "" {
		return err
	}
	if jsonOutput {
		return printJSON(upd)
	}

	switch upd.Outcome {
	case gamification.StreakSameDay:
		fmt.Printf("Already logged %s today (%d days)\n", args[0], upd.Streak.Current)
	case gamification.StreakReset:
		fmt.Printf("%s streak restarted (was %d days)\n", args[0], upd.Previous.Current)
	default:
		fmt.Printf("%s streak: %d days (best %d)\n", args[0], upd.Streak.Current, upd.Streak.Longest)
	}
	drainFeedback(os.Stdout, e)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
	return nil
}

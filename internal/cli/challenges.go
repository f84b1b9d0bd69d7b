package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fitquest/fitquest/internal/domain"
)

func init() {
	challengesCmd.AddCommand(challengesProgressCmd)
	rootCmd.AddCommand(challengesCmd)
}

var challengesCmd = &cobra.Command{
	Use:     "challenges",
	Aliases: []string{"ch"},
	Short:   "Show this week's challenges, generating them if needed",
	RunE:    runChallenges,
}

var challengesProgressCmd = &cobra.Command{
	Use:   "progress METRIC DELTA",
	Short: "Add progress to challenges on a metric (e.g. workout_count 1)",
	Args:  cobra.ExactArgs(2),
	RunE:  runChallengesProgress,
}

func runChallenges(cmd *cobra.Command, args []string) error {
	d, e, err := openEngine()
	if err != nil {
		return err
	}
	defer d.Close()

	if _, err := e.Challenges().GenerateWeekly(cmd.Context()); err != nil {
		return err
	}
	active, err := e.Challenges().Active(cmd.Context())
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(active)
	}
	if len(active) == 0 {
		fmt.Println("All challenges done for this week.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CHALLENGE\tPROGRESS\tREWARD\tEXPIRES")
	for _, c := range active {
		fmt.Fprintf(w, "%s\t%s %d/%d\t%d XP\t%s\n",
			c.Description,
			renderBar(c.ProgressPct()),
			c.Progress, c.Target,
			c.RewardXP,
			c.ExpiresAt.Local().Format("Mon 2006-01-02"),
		)
	}
	return w.Flush()
}

func runChallengesProgress(cmd *cobra.Command, args []string) error {
	metric := domain.Metric(args[0])
	if !metric.Known() {
		return fmt.Errorf("%w: %q", domain.ErrUnknownMetric, args[0])
	}
	delta, err := strconv.Atoi(args[1])
	if err != nil || delta <= 0 {
		return fmt.Errorf("delta must be a positive integer")
	}

	d, e, err := openEngine()
	if err != nil {
		return err
	}
	defer d.Close()

	done, err := e.Challenges().RecordProgress(cmd.Context(), metric, delta)
	if errors.Is(err, domain.ErrRewardPending) {
		fmt.Fprintf(os.Stderr, "warning: challenge xp delayed until your next award: %v\n", err)
	} else if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(done)
	}
	for _, c := range done {
		fmt.Printf("Challenge complete: %s\n", c.Description)
	}
	drainFeedback(os.Stdout, e)
	return nil
}

package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fitquest/fitquest/internal/domain"
)

func init() {
	awardCmd.Flags().StringVarP(&awardReason, "reason", "r", "", "Reason shown in the XP toast")
	awardCmd.Flags().StringVarP(&awardSource, "source", "s", string(domain.XPGeneral), "XP source (meal_logged, workout_set, workout_completed, ...)")
	awardCmd.Flags().StringSliceVarP(&awardBadges, "badge", "b", nil, "Badge metric as name=value; repeat to evaluate badges")
	rootCmd.AddCommand(awardCmd)
}

var (
	awardReason string
	awardSource string
	awardBadges []string
)

var awardCmd = &cobra.Command{
	Use:   "award AMOUNT",
	Short: "Grant XP to the user",
	Long: `Grant XP. The amount is scaled by the current level multiplier.
Pass --badge metric=value (e.g. --badge workout_count=12) to evaluate badges
after the grant.`,
	Args: cobra.ExactArgs(1),
	RunE: runAward,
}

func runAward(cmd *cobra.Command, args []string) error {
	amount, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("amount must be an integer: %w", err)
	}
	badges, err := parseBadgeFlags(awardBadges)
	if err != nil {
		return err
	}

	d, e, err := openEngine()
	if err != nil {
		return err
	}
	defer d.Close()

	res, err := e.AwardXP(cmd.Context(), domain.Award{
		Amount: amount,
		Reason: awardReason,
		Source: domain.XPSource(awardSource),
		Badges: badges,
	})
	if err != nil && !res.Committed() {
		return err
	}
	if jsonOutput {
		return printJSON(res)
	}

	drainFeedback(os.Stdout, e)
	fmt.Printf("Total: %d XP (level %d, %s)\n", res.After.XP, res.After.Level, res.After.Rank)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
	return nil
}

// parseBadgeFlags turns ["workout_count=12", "early_adopter=true"] into a
// badge context. Nil when no flags are given, which skips evaluation.
func parseBadgeFlags(flags []string) (domain.BadgeContext, error) {
	if len(flags) == 0 {
		return nil, nil
	}
	raw := make(map[string]any, len(flags))
	for _, f := range flags {
		name, value, ok := strings.Cut(f, "=")
		if !ok {
			return nil, fmt.Errorf("badge flag %q: want metric=value", f)
		}
		if !domain.Metric(name).Known() {
			return nil, fmt.Errorf("badge flag %q: %w", f, domain.ErrUnknownMetric)
		}
		raw[name] = value
	}
	return domain.ParseBadgeContext(raw), nil
}

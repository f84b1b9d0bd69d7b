package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func init() {
	badgesCmd.Flags().BoolVar(&badgesEarnedOnly, "earned", false, "Only show earned badges")
	rootCmd.AddCommand(badgesCmd)
}

var badgesEarnedOnly bool

var badgesCmd = &cobra.Command{
	Use:   "badges",
	Short: "List badges with tier and progress",
	RunE:  runBadges,
}

func runBadges(cmd *cobra.Command, args []string) error {
	d, e, err := openEngine()
	if err != nil {
		return err
	}
	defer d.Close()

	badges, err := e.Badges(cmd.Context())
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(badges)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BADGE\tCATEGORY\tTIER\tVALUE\tNEXT")
	for _, b := range badges {
		if b.Earned == nil {
			if badgesEarnedOnly {
				continue
			}
			fmt.Fprintf(w, "%s %s\t%s\t-\t0\t%.0f\n",
				b.Badge.Icon, b.Badge.Name, b.Badge.Category, b.Badge.Tiers[0].Threshold)
			continue
		}
		next := "done"
		if i := b.Earned.TierIndex + 1; i < len(b.Badge.Tiers) {
			next = fmt.Sprintf("%.0f (%d%%)", b.Badge.Tiers[i].Threshold, b.Earned.ProgressPct)
		}
		fmt.Fprintf(w, "%s %s\t%s\t%s\t%.0f\t%s\n",
			b.Badge.Icon, b.Badge.Name, b.Badge.Category, b.Earned.Tier, b.Earned.Value, next)
	}
	return w.Flush()
}

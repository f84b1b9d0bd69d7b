package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of entries")
	rootCmd.AddCommand(historyCmd)
}

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent XP grants, newest first",
	RunE:  runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	d, e, err := openEngine()
	if err != nil {
		return err
	}
	defer d.Close()

	entries, err := e.History(cmd.Context(), historyLimit)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(entries)
	}
	if len(entries) == 0 {
		fmt.Println("No XP yet. Run 'fitquest award 10 -r \"first workout\"' to get started.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tXP\tSOURCE\tREASON")
	for _, en := range entries {
		fmt.Fprintf(w, "%s\t+%d\t%s\t%s\n",
			en.CreatedAt.Local().Format("2006-01-02 15:04"),
			en.Amount,
			en.Source,
			en.Reason,
		)
	}
	return w.Flush()
}

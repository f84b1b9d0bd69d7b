package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func init() {
	lootCmd.AddCommand(lootUseCmd)
	rootCmd.AddCommand(lootCmd)
}

var lootCmd = &cobra.Command{
	Use:   "loot",
	Short: "List loot unlocked from level-up chests",
	RunE:  runLoot,
}

var lootUseCmd = &cobra.Command{
	Use:   "use LOOT_ID",
	Short: "Mark a loot item as used",
	Args:  cobra.ExactArgs(1),
	RunE:  runLootUse,
}

func runLoot(cmd *cobra.Command, args []string) error {
	d, e, err := openEngine()
	if err != nil {
		return err
	}
	defer d.Close()

	items, err := e.Inventory(cmd.Context())
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(items)
	}
	if len(items) == 0 {
		levels := make([]string, len(d.Catalog.Chests))
		for i, c := range d.Catalog.Chests {
			levels[i] = strconv.Itoa(c.Level)
		}
		fmt.Printf("No loot yet. Chests open at levels %s.\n", strings.Join(levels, ", "))
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tITEM\tRARITY\tTYPE\tUSED\tUNLOCKED")
	for _, it := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\t%s\n",
			it.ID,
			it.Item.Name,
			it.Item.Rarity,
			it.Item.Type,
			it.Used,
			it.UnlockedAt.Local().Format("2006-01-02 15:04"),
		)
	}
	return w.Flush()
}

func runLootUse(cmd *cobra.Command, args []string) error {
	d, e, err := openEngine()
	if err != nil {
		return err
	}
	defer d.Close()

	if err := e.UseLoot(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Printf("Used %s\n", args[0])
	return nil
}

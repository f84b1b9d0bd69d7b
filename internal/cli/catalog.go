package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fitquest/fitquest/internal/daemon"
	"github.com/fitquest/fitquest/internal/infra/catalog"
)

func init() {
	catalogCmd.AddCommand(catalogValidateCmd)
	catalogCmd.AddCommand(catalogShowCmd)
	rootCmd.AddCommand(catalogCmd)
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the level, badge and loot catalog",
}

var catalogValidateCmd = &cobra.Command{
	Use:   "validate [FILE]",
	Short: "Validate a catalog override file (default: engine.catalog_file)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCatalogValidate,
}

var catalogShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective catalog as JSON",
	RunE:  runCatalogShow,
}

// catalogPath returns args[0] or the configured override file.
func catalogPath(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	cfg, err := daemon.LoadConfig()
	if err != nil {
		return "", err
	}
	return cfg.Engine.CatalogFile, nil
}

func runCatalogValidate(cmd *cobra.Command, args []string) error {
	path, err := catalogPath(args)
	if err != nil {
		return err
	}
	c, err := catalog.Load(path)
	if err != nil {
		return err
	}
	if path == "" {
		path = "built-in catalog"
	}
	fmt.Printf("%s OK: %d levels, %d badges, %d loot items, %d chests, %d challenges\n",
		path, len(c.Levels), len(c.Badges), len(c.Loot), len(c.Chests), len(c.Challenges))
	return nil
}

func runCatalogShow(cmd *cobra.Command, args []string) error {
	path, err := catalogPath(nil)
	if err != nil {
		return err
	}
	c, err := catalog.Load(path)
	if err != nil {
		return err
	}
	return printJSON(c)
}

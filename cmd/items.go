package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"pedtrack/internal/refdata"
)

var itemsCmd = &cobra.Command{
	Use:   "items",
	Short: "Manage the static item/blueprint reference catalog",
}

var itemsImportCmd = &cobra.Command{
	Use:   "import <seed.yaml>",
	Short: "Migrate a YAML reference-data seed into the catalog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := openCatalog()
		if err != nil {
			return err
		}

		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening seed file: %w", err)
		}
		defer f.Close()

		st, err := catalog.ImportYAML(f)
		if err != nil {
			return err
		}
		fmt.Printf("Imported %d items and %d blueprints", st.Items, st.Blueprints)
		if st.Skipped > 0 {
			fmt.Printf(" (%d rows skipped: malformed values)", st.Skipped)
		}
		fmt.Println(".")
		return nil
	},
}

var itemsLookupCmd = &cobra.Command{
	Use:   "lookup <name>",
	Short: "Print the catalog entry for an item or blueprint",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := openCatalog()
		if err != nil {
			return err
		}
		name := args[0]

		if tt, ok := catalog.LookupItem(name); ok {
			fmt.Printf("%s: TT %s\n", name, tt.Format())
			return nil
		}
		if bp, ok := catalog.LookupBlueprint(name); ok {
			fmt.Printf("%s (blueprint): result %s, TT %s\n", bp.Name, bp.ResultItem, bp.ResultTT.Format())
			for _, m := range bp.Materials {
				fmt.Printf("  %dx %s\n", m.Quantity, m.Item)
			}
			return nil
		}
		return fmt.Errorf("%q not found in the catalog", name)
	},
}

func openCatalog() (*refdata.Catalog, error) {
	dataDir, err := resolveDataDir()
	if err != nil {
		return nil, err
	}
	return refdata.Open(filepath.Join(dataDir, "catalog.db"))
}

func init() {
	itemsCmd.AddCommand(itemsImportCmd)
	itemsCmd.AddCommand(itemsLookupCmd)
	rootCmd.AddCommand(itemsCmd)
}

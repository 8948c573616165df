package cli

import (
	"github.com/spf13/cobra"

	"github.com/mcoot/sortinghat/internal/catalog"
)

func newCatalogCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Print the house, personality and skill tables",
		Long: `Print the catalog without contacting the server. Uses the built-in
catalog unless --file points at a YAML override.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat := catalog.Default()
			if path != "" {
				loaded, err := catalog.LoadFile(path)
				if err != nil {
					return err
				}
				cat = loaded
			}

			outputFor(cmd).Print(cat)
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "file", "", "Catalog YAML file")

	return cmd
}

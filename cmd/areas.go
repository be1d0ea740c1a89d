package cmd

import (
	"fmt"
	"sort"

	"github.com/glottolab/areal/internal/catalog"
	"github.com/glottolab/areal/internal/sample"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(areasCmd)
}

var areasCmd = &cobra.Command{
	Use:   "areas",
	Short: "Show the macroarea genus distribution of the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := catalog.OpenSQLite(dbPath)
		if err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
		dist := sample.NewContext(store).MacroareaDistribution(nil)

		names := make([]string, 0, len(dist))
		for name := range dist {
			names = append(names, name)
		}
		sort.Strings(names)

		total := 0
		for _, name := range names {
			fmt.Printf("%-20s %6d genera\n", name, dist[name])
			total += dist[name]
		}
		fmt.Printf("%-20s %6d (genera counted once per macroarea touched)\n", "total", total)
		return nil
	},
}

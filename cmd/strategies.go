package cmd

import (
	"fmt"

	"github.com/glottolab/areal/api"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(strategiesCmd)
}

var strategiesCmd = &cobra.Command{
	Use:   "strategies",
	Short: "List the available sampling strategies",
	Run: func(cmd *cobra.Command, args []string) {
		rows := []struct {
			name api.Strategy
			desc string
		}{
			{api.StrategyGenus, "one language per genus, no size target"},
			{api.StrategyCore, "genus with the usable-sources gate"},
			{api.StrategyPrimary, "macroarea-stratified, size-constrained"},
			{api.StrategyRestricted, "primary confined to the given macroareas"},
			{api.StrategyRandom, "genus draw ignoring macroareas"},
			{api.StrategyDiversity, "budget split by genealogical diversity values"},
		}
		for _, r := range rows {
			fmt.Printf("%-16s %s\n", r.name, r.desc)
		}
	},
}

// Package cmd implements the areal command line interface.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
)

var (
	dbPath  string
	verbose bool
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "sql.db", "Path to the catalog SQLite database")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

var rootCmd = &cobra.Command{
	Use:   "areal",
	Short: "Areal: genealogically and areally balanced language sampling",
	Long: `Areal draws statistically controlled samples of languages from a
typological catalog, balancing genealogical (genus, family tree) and
geographic (macroarea) axes under caller-supplied constraints.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(
			tint.NewHandler(os.Stderr, &tint.Options{Level: level}),
		))
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

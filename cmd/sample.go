package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/glottolab/areal/api"
	"github.com/glottolab/areal/internal/catalog"
	"github.com/glottolab/areal/internal/reqfile"
	"github.com/glottolab/areal/internal/sample"
	"github.com/glottolab/areal/internal/scorecache"
	"github.com/ohler55/ojg/oj"
	"github.com/spf13/cobra"
)

var (
	requestPath string
	cachePath   string

	flagSize     int
	flagStrategy string
	flagAreas    []string
	flagInclude  []string
	flagExclude  []string
	flagDocLangs []string
	flagRanking  string
	flagDocTypes []string
	flagSeed     int64
	flagWALS     []string
	flagGrambank []string
)

func init() {
	sampleCmd.Flags().StringVarP(&requestPath, "request", "r", "", "HCL request file (overrides the flags below)")
	sampleCmd.Flags().StringVar(&cachePath, "score-cache", "", "Path to a persistent ranking score cache")
	sampleCmd.Flags().IntVarP(&flagSize, "size", "n", 0, "Target sample size")
	sampleCmd.Flags().StringVarP(&flagStrategy, "strategy", "s", string(api.StrategyPrimary), "Sampling strategy (genus, core, restricted, primary, random, diversity-value)")
	sampleCmd.Flags().StringSliceVar(&flagAreas, "macroareas", nil, "Restrict to these macroareas")
	sampleCmd.Flags().StringSliceVar(&flagInclude, "include", nil, "Glottocodes forced into the sample")
	sampleCmd.Flags().StringSliceVar(&flagExclude, "exclude", nil, "Glottocodes kept out of the sample")
	sampleCmd.Flags().StringSliceVar(&flagDocLangs, "doc-languages", nil, "Required documentation languages (ISO 639-3)")
	sampleCmd.Flags().StringVar(&flagRanking, "ranking", "", "Ranking key (source_count, year_ranking, pages_ranking, descriptive_ranking)")
	sampleCmd.Flags().StringSliceVar(&flagDocTypes, "document-types", nil, "Document types counted by the ranking engine")
	sampleCmd.Flags().Int64Var(&flagSeed, "seed", 0, "Random seed (0 = nondeterministic)")
	sampleCmd.Flags().StringSliceVar(&flagWALS, "wals", nil, "WALS feature constraint, CODE=v1|v2")
	sampleCmd.Flags().StringSliceVar(&flagGrambank, "grambank", nil, "Grambank feature constraint, CODE=v1|v2")
	rootCmd.AddCommand(sampleCmd)
}

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Draw a language sample from the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		reqs, err := buildRequests()
		if err != nil {
			return err
		}

		store, err := catalog.OpenSQLite(dbPath)
		if err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
		sampler := sample.New(store)
		sampler.Logger = slog.Default()

		var fileCache *scorecache.FileStore
		if cachePath != "" {
			fileCache, err = scorecache.NewOSFileStore(cachePath)
			if err != nil {
				return err
			}
			sampler.Cache = fileCache
		}

		for _, req := range reqs {
			result, err := sampler.Run(req)
			if err != nil {
				return err
			}
			if result != nil && len(result.Languages) < req.Size && req.Size > 0 {
				slog.Warn("catalog could not satisfy the requested size",
					"requested", req.Size, "selected", len(result.Languages))
			}
			out, err := oj.Marshal(result, 2)
			if err != nil {
				return fmt.Errorf("encode result: %w", err)
			}
			fmt.Println(string(out))
		}

		if fileCache != nil {
			if err := fileCache.Flush(); err != nil {
				// Cache trouble is never a sampling failure.
				slog.Warn("score cache not persisted", "err", err)
			}
		}
		return nil
	},
}

// buildRequests assembles the request list from the file or the flags.
func buildRequests() ([]api.SampleRequest, error) {
	if requestPath != "" {
		return reqfile.Load(requestPath)
	}
	strategy, err := api.ParseStrategy(flagStrategy)
	if err != nil {
		return nil, err
	}
	wals, err := parseFeatureFlags(flagWALS)
	if err != nil {
		return nil, err
	}
	grambank, err := parseFeatureFlags(flagGrambank)
	if err != nil {
		return nil, err
	}
	return []api.SampleRequest{{
		Size:             flagSize,
		Strategy:         strategy,
		Macroareas:       flagAreas,
		Include:          flagInclude,
		Exclude:          flagExclude,
		WALSFeatures:     wals,
		GrambankFeatures: grambank,
		DocLanguages:     flagDocLangs,
		RankingKey:       api.RankingKey(flagRanking),
		DocumentTypes:    flagDocTypes,
		Seed:             flagSeed,
	}}, nil
}

// parseFeatureFlags parses repeated CODE=v1|v2 constraints.
func parseFeatureFlags(flags []string) (map[string][]string, error) {
	if len(flags) == 0 {
		return nil, nil
	}
	m := make(map[string][]string, len(flags))
	for _, f := range flags {
		code, vals, ok := strings.Cut(f, "=")
		if !ok || code == "" || vals == "" {
			return nil, fmt.Errorf("malformed feature constraint %q, want CODE=v1|v2", f)
		}
		m[code] = append(m[code], strings.Split(vals, "|")...)
	}
	return m, nil
}

// Package reqfile reads sampling requests from HCL files, the boundary
// format the CLI accepts alongside plain flags.
//
//	sample {
//	  size       = 30
//	  strategy   = "primary"
//	  macroareas = ["Africa", "Eurasia"]
//	  ranking_key = "descriptive_ranking"
//
//	  wals_feature "81A" { values = ["1", "2"] }
//	  grambank_feature "GB020" { values = ["0"] }
//	}
package reqfile

import (
	"fmt"
	"os"

	"github.com/glottolab/areal/api"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

type requestFile struct {
	Samples []sampleBlock `hcl:"sample,block"`
}

type sampleBlock struct {
	Size          int            `hcl:"size,optional"`
	Strategy      string         `hcl:"strategy"`
	Macroareas    []string       `hcl:"macroareas,optional"`
	Include       []string       `hcl:"include,optional"`
	Exclude       []string       `hcl:"exclude,optional"`
	DocLanguages  []string       `hcl:"doc_languages,optional"`
	RankingKey    string         `hcl:"ranking_key,optional"`
	DocumentTypes []string       `hcl:"document_types,optional"`
	Seed          int64          `hcl:"seed,optional"`
	WALS          []featureBlock `hcl:"wals_feature,block"`
	Grambank      []featureBlock `hcl:"grambank_feature,block"`
}

type featureBlock struct {
	Code   string   `hcl:"code,label"`
	Values []string `hcl:"values"`
}

// Parse decodes the sample blocks of an HCL document. Strategy names are
// validated here, at the boundary, so the core never sees an unknown one.
func Parse(src []byte, filename string) ([]api.SampleRequest, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse %s: %w", filename, diags)
	}
	var rf requestFile
	if diags := gohcl.DecodeBody(file.Body, nil, &rf); diags.HasErrors() {
		return nil, fmt.Errorf("decode %s: %w", filename, diags)
	}
	if len(rf.Samples) == 0 {
		return nil, fmt.Errorf("%s: no sample block", filename)
	}

	reqs := make([]api.SampleRequest, 0, len(rf.Samples))
	for _, b := range rf.Samples {
		strategy, err := api.ParseStrategy(b.Strategy)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
		reqs = append(reqs, api.SampleRequest{
			Size:             b.Size,
			Strategy:         strategy,
			Macroareas:       b.Macroareas,
			Include:          b.Include,
			Exclude:          b.Exclude,
			WALSFeatures:     featureMap(b.WALS),
			GrambankFeatures: featureMap(b.Grambank),
			DocLanguages:     b.DocLanguages,
			RankingKey:       api.RankingKey(b.RankingKey),
			DocumentTypes:    b.DocumentTypes,
			Seed:             b.Seed,
		})
	}
	return reqs, nil
}

// Load reads and parses a request file from disk.
func Load(path string) ([]api.SampleRequest, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read request file: %w", err)
	}
	return Parse(src, path)
}

func featureMap(blocks []featureBlock) map[string][]string {
	if len(blocks) == 0 {
		return nil
	}
	m := make(map[string][]string, len(blocks))
	for _, b := range blocks {
		m[b.Code] = append(m[b.Code], b.Values...)
	}
	return m
}

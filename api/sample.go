package api

import "fmt"

// Strategy names a sampling strategy.
type Strategy string

const (
	// StrategyGenus selects one language per genus, no size target.
	StrategyGenus Strategy = "genus"
	// StrategyCore is StrategyGenus with a usable-sources gate on languages.
	StrategyCore Strategy = "core"
	// StrategyRestricted is the macroarea-stratified allocator confined to a
	// caller-specified macroarea subset. Mechanically identical to
	// StrategyPrimary, which also honors the subset; the name is kept for
	// callers that treat restriction as a distinct mode.
	StrategyRestricted Strategy = "restricted"
	// StrategyPrimary is the macroarea-stratified, size-constrained allocator.
	StrategyPrimary Strategy = "primary"
	// StrategyRandom draws genera uniformly, ignoring macroareas.
	StrategyRandom Strategy = "random"
	// StrategyDiversity distributes the budget down the genealogical forest
	// proportional to diversity values.
	StrategyDiversity Strategy = "diversity-value"
)

// ParseStrategy validates a strategy name from the request boundary.
func ParseStrategy(s string) (Strategy, error) {
	switch st := Strategy(s); st {
	case StrategyGenus, StrategyCore, StrategyRestricted, StrategyPrimary,
		StrategyRandom, StrategyDiversity:
		return st, nil
	}
	return "", fmt.Errorf("unknown sampling strategy %q", s)
}

// RankingKey names the criterion used to score languages within a genus or
// leaf pool. An unknown or empty key degrades to random scoring, never to an
// error.
type RankingKey string

const (
	RankNone        RankingKey = "none"
	RankSourceCount RankingKey = "source_count"
	RankYear        RankingKey = "year_ranking"
	RankPages       RankingKey = "pages_ranking"
	RankDescriptive RankingKey = "descriptive_ranking"
)

// SampleRequest is the full configuration of one sampling call, consumed
// from the boundary layer (CLI flags or an HCL request file).
type SampleRequest struct {
	// Size is the target sample size. Best-effort: the result may be smaller
	// when the catalog cannot supply enough qualifying genera or leaves.
	// Ignored by the unconstrained genus/core strategies.
	Size int `json:"size"`
	// Strategy selects the allocator.
	Strategy Strategy `json:"strategy"`
	// Macroareas restricts sampling to the named macroareas. Empty = all.
	Macroareas []string `json:"macroareas,omitempty"`
	// Include lists glottocodes forced into the sample, bypassing filters.
	Include []string `json:"include,omitempty"`
	// Exclude lists glottocodes that must never appear. Exclude wins over
	// Include on conflict.
	Exclude []string `json:"exclude,omitempty"`
	// WALSFeatures and GrambankFeatures map feature codes to allowed value
	// codes. A language missing a requested feature is filtered out.
	WALSFeatures     map[string][]string `json:"wals_features,omitempty"`
	GrambankFeatures map[string][]string `json:"grambank_features,omitempty"`
	// DocLanguages keeps only languages documented in at least one of the
	// given ISO 639-3 codes.
	DocLanguages []string `json:"doc_languages,omitempty"`
	// RankingKey scores candidates; empty or "none" means uniform random.
	RankingKey RankingKey `json:"ranking_key,omitempty"`
	// DocumentTypes restricts which sources count toward ranking scores.
	DocumentTypes []string `json:"document_types,omitempty"`
	// Seed makes the draw reproducible. Zero means seed from entropy.
	Seed int64 `json:"seed,omitempty"`
}

// SamplingResult is the output aggregate of one sampling call.
type SamplingResult struct {
	// Languages are the selected languages, duplicate-free.
	Languages []Language `json:"languages"`
	// Genera are the names of the genera represented in the sample. For the
	// diversity-value strategy they are reconstructed from each selected
	// language's genus membership.
	Genera []string `json:"genera,omitempty"`
	// TargetMacroareaDistribution is the per-macroarea slot allocation the
	// stratified allocator aimed for; its values sum to the requested size.
	TargetMacroareaDistribution map[string]int `json:"target_macroarea_distribution,omitempty"`
	// ActualMacroareaDistribution counts selected languages by their own
	// macroarea. It diverges from the target when genus or language
	// unavailability forces substitutions.
	ActualMacroareaDistribution map[string]int `json:"actual_macroarea_distribution,omitempty"`
}

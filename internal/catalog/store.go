// Package catalog provides read-only access to the typological catalog: the
// genealogical classification, macroareas, WALS/Grambank feature assignments,
// and bibliographic sources the sampler draws from.
package catalog

import (
	"sort"
	"strings"

	"github.com/glottolab/areal/api"
)

// Store is the read-only contract the sampling core needs from the catalog.
// Implementations must be safe for concurrent readers.
type Store interface {
	// Languages enumerates every language leaf, macroarea and genus pre-joined.
	Languages() []api.Language
	// Genera enumerates all genera with their member glottocodes.
	Genera() []api.Genus
	// TreeNodes enumerates the full genealogical forest.
	TreeNodes() []api.TreeNode
	// LanguageByGlottocode looks a language up by its stable identifier.
	LanguageByGlottocode(glottocode string) (api.Language, bool)
	// LanguageByISO looks a language up by ISO 639-3 code.
	LanguageByISO(iso string) (api.Language, bool)
	// FeaturesBySource lists features from one source ("WALS", "Grambank");
	// an empty source lists all.
	FeaturesBySource(source string) []api.Feature
	// FeatureValues lists the enumerated values of one feature.
	FeatureValues(featureCode string) []api.FeatureValue
	// LanguageFeature returns the value assigned to a language for a feature.
	LanguageFeature(glottocode, featureCode string) (string, bool)
	// Sources enumerates a language's bibliographic sources, narrowed by the
	// filter.
	Sources(glottocode string, f api.SourceFilter) []api.Source
}

// Snapshot is an immutable in-memory catalog. Built once by a loader (or the
// Builder in tests) and then only read, so concurrent sampling requests can
// share one snapshot without locking.
type Snapshot struct {
	languages []api.Language
	byGlotto  map[string]int
	byISO     map[string]int

	genera []api.Genus
	nodes  []api.TreeNode

	features      []api.Feature
	featureValues map[string][]api.FeatureValue
	// assignments: glottocode → feature code → value code
	assignments map[string]map[string]string

	sources map[string][]api.Source
}

var _ Store = (*Snapshot)(nil)

// Languages returns all language leaves. The slice is shared; callers must
// not mutate it.
func (s *Snapshot) Languages() []api.Language { return s.languages }

// Genera returns all genera sorted by name.
func (s *Snapshot) Genera() []api.Genus { return s.genera }

// TreeNodes returns the genealogical forest.
func (s *Snapshot) TreeNodes() []api.TreeNode { return s.nodes }

// LanguageByGlottocode looks a language up by identifier.
func (s *Snapshot) LanguageByGlottocode(glottocode string) (api.Language, bool) {
	i, ok := s.byGlotto[glottocode]
	if !ok {
		return api.Language{}, false
	}
	return s.languages[i], true
}

// LanguageByISO looks a language up by ISO 639-3 code.
func (s *Snapshot) LanguageByISO(iso string) (api.Language, bool) {
	i, ok := s.byISO[iso]
	if !ok {
		return api.Language{}, false
	}
	return s.languages[i], true
}

// FeaturesBySource lists features filtered by source database.
func (s *Snapshot) FeaturesBySource(source string) []api.Feature {
	if source == "" {
		return s.features
	}
	var out []api.Feature
	for _, f := range s.features {
		if f.Source == source {
			out = append(out, f)
		}
	}
	return out
}

// FeatureValues lists the enumerated values of one feature.
func (s *Snapshot) FeatureValues(featureCode string) []api.FeatureValue {
	return s.featureValues[featureCode]
}

// LanguageFeature returns the value code a language carries for a feature.
func (s *Snapshot) LanguageFeature(glottocode, featureCode string) (string, bool) {
	vals, ok := s.assignments[glottocode]
	if !ok {
		return "", false
	}
	v, ok := vals[featureCode]
	return v, ok
}

// Sources enumerates a language's sources, narrowed by document type and
// documentation language.
func (s *Snapshot) Sources(glottocode string, f api.SourceFilter) []api.Source {
	all := s.sources[glottocode]
	if len(f.DocumentTypes) == 0 && len(f.DocLanguages) == 0 {
		return all
	}
	types := toSet(f.DocumentTypes)
	docs := toSet(f.DocLanguages)
	var out []api.Source
	for _, src := range all {
		if len(types) > 0 && !docTypeMatches(types, src.DocumentType) {
			continue
		}
		if len(docs) > 0 && !intersects(docs, src.DocLanguages) {
			continue
		}
		out = append(out, src)
	}
	return out
}

// Builder accumulates catalog entities and freezes them into a Snapshot.
// Used by the SQLite loader and by tests building synthetic catalogs.
type Builder struct {
	snap Snapshot
	// genus name → member glottocodes, ordered by insertion
	genusMembers map[string][]string
	genusOrder   []string
}

// NewBuilder returns an empty catalog builder.
func NewBuilder() *Builder {
	return &Builder{
		snap: Snapshot{
			byGlotto:      make(map[string]int),
			byISO:         make(map[string]int),
			featureValues: make(map[string][]api.FeatureValue),
			assignments:   make(map[string]map[string]string),
			sources:       make(map[string][]api.Source),
		},
		genusMembers: make(map[string][]string),
	}
}

// AddLanguage registers a language leaf. Later duplicates of a glottocode
// are ignored.
func (b *Builder) AddLanguage(l api.Language) *Builder {
	if _, dup := b.snap.byGlotto[l.Glottocode]; dup {
		return b
	}
	b.snap.byGlotto[l.Glottocode] = len(b.snap.languages)
	if l.ISO != "" {
		if _, dup := b.snap.byISO[l.ISO]; !dup {
			b.snap.byISO[l.ISO] = len(b.snap.languages)
		}
	}
	b.snap.languages = append(b.snap.languages, l)
	if l.Genus != "" {
		if _, seen := b.genusMembers[l.Genus]; !seen {
			b.genusOrder = append(b.genusOrder, l.Genus)
		}
		b.genusMembers[l.Genus] = append(b.genusMembers[l.Genus], l.Glottocode)
	}
	return b
}

// AddTreeNode registers one node of the genealogical forest.
func (b *Builder) AddTreeNode(n api.TreeNode) *Builder {
	b.snap.nodes = append(b.snap.nodes, n)
	return b
}

// AddFeature registers a feature definition.
func (b *Builder) AddFeature(f api.Feature) *Builder {
	b.snap.features = append(b.snap.features, f)
	return b
}

// AddFeatureValue registers one enumerated value of a feature.
func (b *Builder) AddFeatureValue(v api.FeatureValue) *Builder {
	b.snap.featureValues[v.FeatureCode] = append(b.snap.featureValues[v.FeatureCode], v)
	return b
}

// SetLanguageFeature assigns a feature value to a language.
func (b *Builder) SetLanguageFeature(glottocode, featureCode, valueCode string) *Builder {
	m, ok := b.snap.assignments[glottocode]
	if !ok {
		m = make(map[string]string)
		b.snap.assignments[glottocode] = m
	}
	m[featureCode] = valueCode
	return b
}

// AddSource attaches a bibliographic source to a language.
func (b *Builder) AddSource(src api.Source) *Builder {
	b.snap.sources[src.Glottocode] = append(b.snap.sources[src.Glottocode], src)
	return b
}

// Build freezes the accumulated entities into a Snapshot. The builder must
// not be reused afterwards.
func (b *Builder) Build() *Snapshot {
	sort.Strings(b.genusOrder)
	b.snap.genera = make([]api.Genus, 0, len(b.genusOrder))
	for _, name := range b.genusOrder {
		b.snap.genera = append(b.snap.genera, api.Genus{
			Name:      name,
			Languages: b.genusMembers[name],
		})
	}
	return &b.snap
}

func toSet(items []string) map[string]bool {
	if len(items) == 0 {
		return nil
	}
	m := make(map[string]bool, len(items))
	for _, it := range items {
		m[it] = true
	}
	return m
}

func intersects(set map[string]bool, items []string) bool {
	for _, it := range items {
		if set[it] {
			return true
		}
	}
	return false
}

// docTypeMatches handles the importer's comma-separated document_type column
// ("grammar,dictionary"): the gate passes if any listed type is allowed.
func docTypeMatches(allowed map[string]bool, documentType string) bool {
	for _, t := range strings.Split(documentType, ",") {
		if allowed[strings.TrimSpace(t)] {
			return true
		}
	}
	return false
}

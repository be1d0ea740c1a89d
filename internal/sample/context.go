// Package sample implements the sampling and allocation engine: the filter
// pipeline, the ranking engine, the macroarea-stratified genus allocator and
// the genealogical diversity-value allocator.
package sample

import (
	"sort"

	"github.com/RoaringBitmap/roaring"
	"github.com/glottolab/areal/api"
	"github.com/glottolab/areal/internal/catalog"
)

// Context is the immutable sampling context: every index the allocators need,
// built once from a catalog store and then only read. Sharing one Context
// across concurrent requests is safe because all per-request state (selection
// bitmaps, the random generator) lives outside it.
//
// Languages are interned: each language leaf gets a dense uint32 index into
// langs, and every derived set (per macroarea, per genus, per documentation
// language) is a roaring bitmap over those indices. Filtering then reduces
// to bitmap intersection.
type Context struct {
	store catalog.Store

	langs []api.Language
	index map[string]uint32 // glottocode → dense index

	genera  []api.Genus
	byGenus map[string]*roaring.Bitmap // genus name → member languages

	areas  []string // sorted macroarea names
	byArea map[string]*roaring.Bitmap // macroarea name → languages

	byDocLang map[string]*roaring.Bitmap // doc language code → documented languages

	// genusAreas: genus name → macroareas it touches (each counted once).
	genusAreas map[string][]string
}

// NewContext builds a sampling context from a catalog store.
func NewContext(store catalog.Store) *Context {
	langs := store.Languages()
	c := &Context{
		store:      store,
		langs:      langs,
		index:      make(map[string]uint32, len(langs)),
		genera:     store.Genera(),
		byGenus:    make(map[string]*roaring.Bitmap),
		byArea:     make(map[string]*roaring.Bitmap),
		byDocLang:  make(map[string]*roaring.Bitmap),
		genusAreas: make(map[string][]string),
	}

	for i, l := range langs {
		idx := uint32(i)
		c.index[l.Glottocode] = idx
		if l.Macroarea != "" {
			bm, ok := c.byArea[l.Macroarea]
			if !ok {
				bm = roaring.New()
				c.byArea[l.Macroarea] = bm
				c.areas = append(c.areas, l.Macroarea)
			}
			bm.Add(idx)
		}
		for _, code := range c.docLanguagesOf(l.Glottocode) {
			bm, ok := c.byDocLang[code]
			if !ok {
				bm = roaring.New()
				c.byDocLang[code] = bm
			}
			bm.Add(idx)
		}
	}
	sort.Strings(c.areas)

	for _, g := range c.genera {
		bm := roaring.New()
		seen := make(map[string]bool)
		for _, glottocode := range g.Languages {
			idx, ok := c.index[glottocode]
			if !ok {
				continue
			}
			bm.Add(idx)
			if area := c.langs[idx].Macroarea; area != "" && !seen[area] {
				seen[area] = true
				c.genusAreas[g.Name] = append(c.genusAreas[g.Name], area)
			}
		}
		c.byGenus[g.Name] = bm
		sort.Strings(c.genusAreas[g.Name])
	}
	return c
}

// Language returns the language at a dense index.
func (c *Context) Language(i uint32) api.Language { return c.langs[int(i)] }

// Len is the number of language leaves in the catalog.
func (c *Context) Len() int { return len(c.langs) }

// Index resolves a glottocode to its dense index.
func (c *Context) Index(glottocode string) (uint32, bool) {
	i, ok := c.index[glottocode]
	return i, ok
}

// All returns a fresh bitmap containing every language leaf.
func (c *Context) All() *roaring.Bitmap {
	bm := roaring.New()
	bm.AddRange(0, uint64(len(c.langs)))
	return bm
}

// Genera returns the working genus list.
func (c *Context) Genera() []api.Genus { return c.genera }

// GenusMembers returns the member bitmap of a genus. The bitmap is shared;
// callers must clone before mutating.
func (c *Context) GenusMembers(name string) *roaring.Bitmap {
	bm, ok := c.byGenus[name]
	if !ok {
		return roaring.New()
	}
	return bm
}

// AreaMembers returns the bitmap of languages in a macroarea (shared, do not
// mutate).
func (c *Context) AreaMembers(name string) *roaring.Bitmap {
	bm, ok := c.byArea[name]
	if !ok {
		return roaring.New()
	}
	return bm
}

// MacroareaDistribution counts, per macroarea, the genera that have at least
// one language there. A genus counts toward every macroarea it touches, so
// the counts intentionally overlap. When restrict is non-empty only the named
// macroareas are reported.
func (c *Context) MacroareaDistribution(restrict []string) map[string]int {
	allowed := map[string]bool{}
	for _, a := range restrict {
		allowed[a] = true
	}
	dist := make(map[string]int)
	for _, g := range c.genera {
		for _, area := range c.genusAreas[g.Name] {
			if len(allowed) > 0 && !allowed[area] {
				continue
			}
			dist[area]++
		}
	}
	return dist
}

// docLanguagesOf unions the documentation-language codes across all of a
// language's sources.
func (c *Context) docLanguagesOf(glottocode string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, src := range c.store.Sources(glottocode, api.SourceFilter{}) {
		for _, code := range src.DocLanguages {
			if !seen[code] {
				seen[code] = true
				out = append(out, code)
			}
		}
	}
	return out
}

// featureValue delegates a feature lookup to the catalog.
func (c *Context) featureValue(i uint32, featureCode string) (string, bool) {
	return c.store.LanguageFeature(c.langs[int(i)].Glottocode, featureCode)
}

// sources enumerates a language's sources through the catalog's filter.
func (c *Context) sources(i uint32, f api.SourceFilter) []api.Source {
	return c.store.Sources(c.langs[int(i)].Glottocode, f)
}

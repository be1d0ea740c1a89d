package sample

import (
	"github.com/RoaringBitmap/roaring"
	"github.com/glottolab/areal/api"
)

// Filters is the per-request narrowing configuration. Zero-valued fields are
// no-ops, so an empty Filters passes every language through.
type Filters struct {
	// Macroareas keeps only languages whose macroarea is listed.
	Macroareas []string
	// DocLanguages keeps languages documented in at least one listed code.
	DocLanguages []string
	// WALS and Grambank map feature codes to allowed value codes. A language
	// missing a requested feature fails the filter. Conjunction across all
	// requested codes of both sources.
	WALS     map[string][]string
	Grambank map[string][]string
	// Exclude strikes languages by glottocode.
	Exclude []string
}

// filtersFromRequest lifts the request's filter fields.
func filtersFromRequest(req api.SampleRequest) Filters {
	return Filters{
		Macroareas:   req.Macroareas,
		DocLanguages: req.DocLanguages,
		WALS:         req.WALSFeatures,
		Grambank:     req.GrambankFeatures,
		Exclude:      req.Exclude,
	}
}

// Filter narrows a candidate set through the pipeline: macroarea,
// documentation language, feature conjunction, exclude. The input bitmap is
// not modified. Mandatory includes are handled separately by
// ResolveIncludes and never pass through here.
func (c *Context) Filter(candidates *roaring.Bitmap, f Filters) *roaring.Bitmap {
	out := candidates.Clone()

	if len(f.Macroareas) > 0 {
		allowed := roaring.New()
		for _, area := range f.Macroareas {
			allowed.Or(c.AreaMembers(area))
		}
		out.And(allowed)
	}

	if len(f.DocLanguages) > 0 {
		documented := roaring.New()
		for _, code := range f.DocLanguages {
			if bm, ok := c.byDocLang[code]; ok {
				documented.Or(bm)
			}
		}
		out.And(documented)
	}

	c.filterFeatures(out, f.WALS)
	c.filterFeatures(out, f.Grambank)

	for _, glottocode := range f.Exclude {
		if i, ok := c.index[glottocode]; ok {
			out.Remove(i)
		}
	}
	return out
}

// filterFeatures removes, in place, languages whose assigned value for any
// requested feature is missing or outside the allowed set.
func (c *Context) filterFeatures(candidates *roaring.Bitmap, features map[string][]string) {
	for code, values := range features {
		allowed := make(map[string]bool, len(values))
		for _, v := range values {
			allowed[v] = true
		}
		var drop []uint32
		iter := candidates.Iterator()
		for iter.HasNext() {
			i := iter.Next()
			v, ok := c.featureValue(i, code)
			if !ok || !allowed[v] {
				drop = append(drop, i)
			}
		}
		for _, i := range drop {
			candidates.Remove(i)
		}
	}
}

// ResolveIncludes resolves mandatory-include identifiers against the catalog,
// trying glottocode first and ISO code second. Unresolvable identifiers are
// silently dropped. A language listed in both include and exclude is dropped:
// exclude wins.
func (c *Context) ResolveIncludes(include, exclude []string) []uint32 {
	excluded := make(map[string]bool, len(exclude))
	for _, g := range exclude {
		excluded[g] = true
	}
	seen := make(map[uint32]bool)
	var out []uint32
	for _, id := range include {
		l, ok := c.store.LanguageByGlottocode(id)
		if !ok {
			l, ok = c.store.LanguageByISO(id)
		}
		if !ok || excluded[l.Glottocode] {
			continue
		}
		i, ok := c.index[l.Glottocode]
		if !ok || seen[i] {
			continue
		}
		seen[i] = true
		out = append(out, i)
	}
	return out
}

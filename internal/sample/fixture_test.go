package sample

import (
	"fmt"
	mathrand "math/rand/v2"

	"github.com/RoaringBitmap/roaring"
	"github.com/glottolab/areal/api"
	"github.com/glottolab/areal/internal/catalog"
)

func testRand() *mathrand.Rand {
	return mathrand.New(mathrand.NewPCG(7, 11))
}

// areaCatalog builds a synthetic catalog with three macroareas holding 10, 5
// and 5 single-language genera. Glottocodes are <area><nn>00, genus names
// <area>-genus-<nn>.
func areaCatalog() *catalog.Snapshot {
	b := catalog.NewBuilder()
	addArea := func(area string, n int) {
		for i := 1; i <= n; i++ {
			b.AddLanguage(api.Language{
				Glottocode: fmt.Sprintf("%s%02d00", area, i),
				Name:       fmt.Sprintf("%s language %d", area, i),
				Genus:      fmt.Sprintf("%s-genus-%02d", area, i),
				Macroarea:  area,
			})
		}
	}
	addArea("alfa", 10)
	addArea("brav", 5)
	addArea("char", 5)
	return b.Build()
}

// docCatalog builds a small catalog with differentiated sources for ranking
// and documentation-language tests.
func docCatalog() *catalog.Snapshot {
	b := catalog.NewBuilder()
	b.AddLanguage(api.Language{Glottocode: "rich0001", Name: "Rich", Genus: "G1", Macroarea: "alfa"})
	b.AddLanguage(api.Language{Glottocode: "poor0001", Name: "Poor", Genus: "G1", Macroarea: "alfa"})
	b.AddLanguage(api.Language{Glottocode: "bare0001", Name: "Bare", Genus: "G2", Macroarea: "alfa"})

	b.AddSource(api.Source{Glottocode: "rich0001", Title: "Reference Grammar", Year: 2000, Pages: 500,
		DocumentType: "grammar", DocLanguages: []string{"eng"}})
	b.AddSource(api.Source{Glottocode: "rich0001", Title: "Dictionary", Year: 2010, Pages: 300,
		DocumentType: "dictionary", DocLanguages: []string{"eng", "deu"}})
	b.AddSource(api.Source{Glottocode: "poor0001", Title: "Sketch", Year: 1950, Pages: 40,
		DocumentType: "grammar_sketch", DocLanguages: []string{"rus"}})
	return b.Build()
}

// forestCatalog builds a two-family genealogical forest:
//
//	famA ── brnA ── a1, a2, a3  (languages)
//	famB ── b1, b2              (languages)
//
// Every language sits in its own genus so genus bookkeeping stays visible.
func forestCatalog() *catalog.Snapshot {
	b := catalog.NewBuilder()
	addLang := func(code, genus string) {
		b.AddLanguage(api.Language{Glottocode: code, Name: code, Genus: genus, Macroarea: "alfa"})
	}
	addLang("aaaa0001", "GA1")
	addLang("aaaa0002", "GA2")
	addLang("aaaa0003", "GA3")
	addLang("bbbb0001", "GB1")
	addLang("bbbb0002", "GB2")

	b.AddTreeNode(api.TreeNode{Glottocode: "fama0000", Name: "Family A"})
	b.AddTreeNode(api.TreeNode{Glottocode: "brna0000", Name: "Branch A", Parent: "fama0000"})
	b.AddTreeNode(api.TreeNode{Glottocode: "aaaa0001", Parent: "brna0000", IsLanguage: true})
	b.AddTreeNode(api.TreeNode{Glottocode: "aaaa0002", Parent: "brna0000", IsLanguage: true})
	b.AddTreeNode(api.TreeNode{Glottocode: "aaaa0003", Parent: "brna0000", IsLanguage: true})
	b.AddTreeNode(api.TreeNode{Glottocode: "famb0000", Name: "Family B"})
	b.AddTreeNode(api.TreeNode{Glottocode: "bbbb0001", Parent: "famb0000", IsLanguage: true})
	b.AddTreeNode(api.TreeNode{Glottocode: "bbbb0002", Parent: "famb0000", IsLanguage: true})
	return b.Build()
}

// newTestDraw wires a draw over a context the way Sampler.Run does.
func newTestDraw(ctx *Context, req api.SampleRequest) *draw {
	rng := testRand()
	d := &draw{
		ctx:        ctx,
		rng:        rng,
		ranker:     NewRanker(ctx, rng, req, nil),
		selected:   roaring.New(),
		usedGenera: make(map[string]bool),
	}
	d.available = ctx.Filter(ctx.All(), filtersFromRequest(req))
	for _, i := range ctx.ResolveIncludes(req.Include, req.Exclude) {
		d.take(i, ctx.Language(i).Genus)
	}
	return d
}

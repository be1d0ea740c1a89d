package sample

import (
	"fmt"
	"testing"

	"github.com/glottolab/areal/api"
	"github.com/glottolab/areal/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocateTargets(t *testing.T) {
	// A(10), B(5), C(5) genera, size 10. Raw shares are 5.0, 2.5, 2.5; after
	// rounding the residual lands on A.
	targets := allocateTargets(10, map[string]int{"A": 10, "B": 5, "C": 5})

	sum := 0
	for _, v := range targets {
		sum += v
	}
	assert.Equal(t, 10, sum)
	assert.GreaterOrEqual(t, targets["A"], 4)
	assert.LessOrEqual(t, targets["A"], 6)
	for _, area := range []string{"B", "C"} {
		assert.GreaterOrEqual(t, targets[area], 2)
		assert.LessOrEqual(t, targets[area], 3)
	}
}

func TestAllocateTargetsAlwaysSumsToSize(t *testing.T) {
	dists := []map[string]int{
		{"A": 1},
		{"A": 3, "B": 3, "C": 3},
		{"A": 7, "B": 11, "C": 2, "D": 1},
		{"A": 100, "B": 1},
	}
	for _, dist := range dists {
		for size := 1; size <= 25; size++ {
			targets := allocateTargets(size, dist)
			sum := 0
			for _, v := range targets {
				sum += v
			}
			assert.Equal(t, size, sum, "size=%d dist=%v", size, dist)
		}
	}
}

func TestAllocateTargetsZeroGenera(t *testing.T) {
	assert.Empty(t, allocateTargets(10, map[string]int{}))
	assert.Empty(t, allocateTargets(10, map[string]int{"A": 0}))
}

func TestPrimaryRoundTrip(t *testing.T) {
	// 20 distinct single-language genera, no filters: a size-10 draw returns
	// exactly 10 languages from 10 distinct genera.
	ctx := NewContext(areaCatalog())
	d := newTestDraw(ctx, api.SampleRequest{})
	targets := d.runPrimary(10, nil)

	assert.Equal(t, 10, d.count())
	assert.Len(t, d.usedGenera, 10)
	sum := 0
	for _, v := range targets {
		sum += v
	}
	assert.Equal(t, 10, sum)
}

func TestPrimaryRespectsMacroareaRestriction(t *testing.T) {
	ctx := NewContext(areaCatalog())
	req := api.SampleRequest{Macroareas: []string{"brav"}}
	d := newTestDraw(ctx, req)
	targets := d.runPrimary(3, req.Macroareas)

	assert.Equal(t, 3, d.count())
	assert.Equal(t, []string{"brav"}, sortedKeys(targets))
	for _, i := range d.order {
		assert.Equal(t, "brav", ctx.Language(i).Macroarea)
	}
}

func TestPrimaryShortfallIsBestEffort(t *testing.T) {
	// Only 5 languages exist in the restricted area; a size-10 draw returns
	// all 5 and stops. Soft target, not an error.
	ctx := NewContext(areaCatalog())
	req := api.SampleRequest{Macroareas: []string{"char"}}
	d := newTestDraw(ctx, req)
	d.runPrimary(10, req.Macroareas)
	assert.Equal(t, 5, d.count())
}

func TestPrimaryZeroGeneraReturnsEmpty(t *testing.T) {
	ctx := NewContext(catalog.NewBuilder().Build())
	d := newTestDraw(ctx, api.SampleRequest{})
	targets := d.runPrimary(10, nil)
	assert.Empty(t, targets)
	assert.Zero(t, d.count())
}

func TestPrimaryTopUpBreaksGenusGrouping(t *testing.T) {
	// 2 genera but 6 languages: a size-4 draw must top up beyond one
	// language per genus.
	b := catalog.NewBuilder()
	for i := 1; i <= 6; i++ {
		genus := "G1"
		if i > 3 {
			genus = "G2"
		}
		b.AddLanguage(api.Language{
			Glottocode: fmt.Sprintf("lang%04d", i),
			Genus:      genus,
			Macroarea:  "alfa",
		})
	}
	ctx := NewContext(b.Build())
	d := newTestDraw(ctx, api.SampleRequest{})
	d.runPrimary(4, nil)
	assert.Equal(t, 4, d.count())
}

func TestPrimaryMandatoryConsumesSlots(t *testing.T) {
	ctx := NewContext(areaCatalog())
	req := api.SampleRequest{Include: []string{"alfa0100"}}
	d := newTestDraw(ctx, req)
	require.Equal(t, 1, d.count())

	d.runPrimary(5, nil)
	assert.Equal(t, 5, d.count())

	// The mandatory language's genus is not drawn again.
	got := map[string]int{}
	for _, i := range d.order {
		got[ctx.Language(i).Genus]++
	}
	assert.Equal(t, 1, got["alfa-genus-01"])
}

func TestRankedDrawPrefersBetterDocumentedGenera(t *testing.T) {
	// Five single-language genera whose source counts are 1..5. A ranked
	// size-2 draw must spend its slots on the two best-documented genera.
	b := catalog.NewBuilder()
	for i := 1; i <= 5; i++ {
		code := fmt.Sprintf("lang%04d", i)
		b.AddLanguage(api.Language{Glottocode: code, Genus: fmt.Sprintf("G%d", i), Macroarea: "alfa"})
		for s := 0; s < i; s++ {
			b.AddSource(api.Source{Glottocode: code, Title: fmt.Sprintf("src %d", s)})
		}
	}
	ctx := NewContext(b.Build())
	d := newTestDraw(ctx, api.SampleRequest{RankingKey: api.RankSourceCount})
	d.runRandom(2)

	require.Equal(t, 2, d.count())
	got := map[string]bool{}
	for _, i := range d.order {
		got[ctx.Language(i).Glottocode] = true
	}
	assert.True(t, got["lang0005"])
	assert.True(t, got["lang0004"])
}

func TestRunRandomIgnoresMacroareas(t *testing.T) {
	ctx := NewContext(areaCatalog())
	d := newTestDraw(ctx, api.SampleRequest{})
	d.runRandom(12)
	assert.Equal(t, 12, d.count())
	assert.Len(t, d.usedGenera, 12)
}

func TestRunGenusOnePerGenus(t *testing.T) {
	ctx := NewContext(areaCatalog())
	d := newTestDraw(ctx, api.SampleRequest{})
	d.runGenus(false)

	assert.Equal(t, 20, d.count())
	assert.Len(t, d.usedGenera, 20)
}

func TestRunGenusAndCoreEquivalentToday(t *testing.T) {
	ctx := NewContext(areaCatalog())

	dGenus := newTestDraw(ctx, api.SampleRequest{})
	dGenus.runGenus(false)
	dCore := newTestDraw(ctx, api.SampleRequest{})
	dCore.runGenus(true)

	assert.Equal(t, dGenus.count(), dCore.count())
}

func TestRunGenusSkipsMandatoryGenera(t *testing.T) {
	ctx := NewContext(areaCatalog())
	req := api.SampleRequest{Include: []string{"brav0100"}}
	d := newTestDraw(ctx, req)
	d.runGenus(false)

	// Still one language per genus: the mandatory pick covers its genus.
	assert.Equal(t, 20, d.count())
	got := map[string]int{}
	for _, i := range d.order {
		got[ctx.Language(i).Genus]++
	}
	assert.Equal(t, 1, got["brav-genus-01"])
}

func TestActualDistributionCountsSelections(t *testing.T) {
	ctx := NewContext(areaCatalog())
	req := api.SampleRequest{Macroareas: []string{"alfa"}}
	d := newTestDraw(ctx, req)
	d.runPrimary(4, req.Macroareas)
	assert.Equal(t, map[string]int{"alfa": 4}, d.actualDistribution())
}

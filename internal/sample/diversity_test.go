package sample

import (
	"testing"

	"github.com/glottolab/areal/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDepthWeight(t *testing.T) {
	assert.Equal(t, float64(1024), depthWeight(0))
	assert.Equal(t, float64(512), depthWeight(1))
	assert.Equal(t, float64(2), depthWeight(9))
	assert.Equal(t, float64(1), depthWeight(10))
	assert.Equal(t, float64(1), depthWeight(15))
}

func TestAllocateByWeight(t *testing.T) {
	// Roots with DV 40 and 10 split a budget of 10 into 8 and 2.
	assert.Equal(t, []int{8, 2}, allocateByWeight(10, []float64{40, 10}))

	// Residual correction lands on the largest weight.
	alloc := allocateByWeight(10, []float64{1, 1, 1})
	sum := 0
	for _, a := range alloc {
		sum += a
	}
	assert.Equal(t, 10, sum)

	assert.Nil(t, allocateByWeight(10, []float64{0, 0}))
	assert.Nil(t, allocateByWeight(10, nil))
}

func TestForestStructure(t *testing.T) {
	ctx := NewContext(forestCatalog())
	f := buildForest(ctx, ctx.All())

	famA := f.byID["fama0000"]
	brnA := f.byID["brna0000"]
	famB := f.byID["famb0000"]

	// Leaves propagate to every ancestor.
	assert.EqualValues(t, 3, f.leaves[famA].GetCardinality())
	assert.EqualValues(t, 3, f.leaves[brnA].GetCardinality())
	assert.EqualValues(t, 2, f.leaves[famB].GetCardinality())

	assert.Equal(t, 0, f.nodeDepth(famA))
	assert.Equal(t, 1, f.nodeDepth(brnA))
	leaf := f.byID["aaaa0001"]
	assert.Equal(t, 2, f.nodeDepth(leaf))

	roots := f.roots()
	require.Len(t, roots, 2)
	assert.Equal(t, "fama0000", f.nodes[roots[0]].Glottocode)
}

func TestDiversityValues(t *testing.T) {
	ctx := NewContext(forestCatalog())
	f := buildForest(ctx, ctx.All())

	// Leaves score 1. Branch A (depth 1, 3 leaf children, mean DV 1):
	// 3 × 2^9 × 1 = 1536. Family A (depth 0, 1 child): 1 × 2^10 × 1536.
	leaf := f.byID["aaaa0001"]
	assert.Equal(t, float64(1), f.diversityValue(leaf))

	brnA := f.byID["brna0000"]
	assert.Equal(t, float64(3*512), f.diversityValue(brnA))

	famA := f.byID["fama0000"]
	assert.Equal(t, float64(1024*3*512), f.diversityValue(famA))

	// Family B (depth 0, 2 leaf children): 2 × 2^10 × 1 = 2048.
	famB := f.byID["famb0000"]
	assert.Equal(t, float64(2*1024), f.diversityValue(famB))
}

func TestForestIgnoresFilteredLeaves(t *testing.T) {
	ctx := NewContext(forestCatalog())
	avail := ctx.Filter(ctx.All(), Filters{Exclude: []string{"bbbb0001", "bbbb0002"}})
	f := buildForest(ctx, avail)

	famB := f.byID["famb0000"]
	assert.True(t, f.leaves[famB].IsEmpty())

	roots := f.roots()
	require.Len(t, roots, 1)
	assert.Equal(t, "fama0000", f.nodes[roots[0]].Glottocode)
}

func TestRunDiversitySelectsBudget(t *testing.T) {
	ctx := NewContext(forestCatalog())
	d := newTestDraw(ctx, api.SampleRequest{})
	d.runDiversity(4)

	assert.Equal(t, 4, d.count())
	seen := map[string]bool{}
	for _, i := range d.order {
		code := ctx.Language(i).Glottocode
		assert.False(t, seen[code])
		seen[code] = true
	}
}

func TestRunDiversityExhaustsPoolGracefully(t *testing.T) {
	// Only 5 leaves exist; a size-10 draw returns all 5.
	ctx := NewContext(forestCatalog())
	d := newTestDraw(ctx, api.SampleRequest{})
	d.runDiversity(10)
	assert.Equal(t, 5, d.count())
}

func TestRunDiversityHonorsMandatoryBudget(t *testing.T) {
	ctx := NewContext(forestCatalog())
	req := api.SampleRequest{Include: []string{"aaaa0001"}}
	d := newTestDraw(ctx, req)
	require.Equal(t, 1, d.count())

	d.runDiversity(3)
	assert.Equal(t, 3, d.count())
}

func TestRunDiversityEmptyForest(t *testing.T) {
	// A catalog without tree nodes yields no roots and an empty result.
	ctx := NewContext(areaCatalog())
	d := newTestDraw(ctx, api.SampleRequest{})
	d.runDiversity(5)
	assert.Zero(t, d.count())
}

package sample

import (
	"math"
	"sort"

	"github.com/RoaringBitmap/roaring"
	"github.com/glottolab/areal/api"
)

// depthWeightCutoff is the depth beyond which the exponential bias toward
// high-level genealogical splits bottoms out.
const depthWeightCutoff = 10

// depthWeight biases diversity values toward nodes near the forest root:
// 2^max(0, cutoff−depth). Top-level family splits thereby dominate the
// allocation, approximating the classical diversity-value method.
func depthWeight(depth int) float64 {
	if depth >= depthWeightCutoff {
		return 1
	}
	return float64(uint64(1) << uint(depthWeightCutoff-depth))
}

// forest is the genealogical forest prepared for one diversity-value draw:
// child adjacency, per-node available leaves, and memoized depth and
// diversity values. All traversals are iterative with explicit stacks so a
// deep or malformed classification cannot blow the call stack.
type forest struct {
	ctx   *Context
	nodes []api.TreeNode
	byID  map[string]int // glottocode → node position

	parent   []int   // -1 for forest roots (or dangling parent references)
	children [][]int

	// leaves[n] holds the available (filtered, selectable) language indices
	// in n's subtree, propagated from every leaf to all its ancestors.
	leaves []*roaring.Bitmap

	depth []int
	dv    []float64
}

// buildForest assembles the forest from the catalog's tree nodes and marks
// each node's available leaf set from the filtered language pool.
func buildForest(ctx *Context, available *roaring.Bitmap) *forest {
	nodes := ctx.store.TreeNodes()
	f := &forest{
		ctx:      ctx,
		nodes:    nodes,
		byID:     make(map[string]int, len(nodes)),
		parent:   make([]int, len(nodes)),
		children: make([][]int, len(nodes)),
		leaves:   make([]*roaring.Bitmap, len(nodes)),
		depth:    make([]int, len(nodes)),
		dv:       make([]float64, len(nodes)),
	}
	for n, node := range nodes {
		f.byID[node.Glottocode] = n
		f.leaves[n] = roaring.New()
		f.depth[n] = -1
		f.dv[n] = -1
	}
	for n, node := range nodes {
		p := -1
		if node.Parent != "" {
			if pi, ok := f.byID[node.Parent]; ok && pi != n {
				p = pi
			}
		}
		f.parent[n] = p
		if p >= 0 {
			f.children[p] = append(f.children[p], n)
		}
	}

	// Propagate every available leaf up its ancestor chain. The walk is
	// bounded by the node count to survive a corrupt parent cycle.
	iter := available.Iterator()
	for iter.HasNext() {
		li := iter.Next()
		n, ok := f.byID[f.ctx.Language(li).Glottocode]
		if !ok || !f.nodes[n].IsLanguage {
			continue
		}
		for steps := 0; n >= 0 && steps <= len(f.nodes); steps++ {
			f.leaves[n].Add(li)
			n = f.parent[n]
		}
	}
	return f
}

// nodeDepth computes a node's distance from its forest root, memoizing the
// whole chain on the way down.
func (f *forest) nodeDepth(n int) int {
	if f.depth[n] >= 0 {
		return f.depth[n]
	}
	var chain []int
	m := n
	for m >= 0 && f.depth[m] < 0 && len(chain) <= len(f.nodes) {
		chain = append(chain, m)
		m = f.parent[m]
	}
	d := 0
	if m >= 0 {
		d = f.depth[m] + 1
	}
	for i := len(chain) - 1; i >= 0; i-- {
		f.depth[chain[i]] = d + (len(chain) - 1 - i)
	}
	return f.depth[n]
}

// qualifyingChildren are the children that still carry at least one available
// leaf; only they participate in diversity values and allocation.
func (f *forest) qualifyingChildren(n int) []int {
	var out []int
	for _, c := range f.children[n] {
		if !f.leaves[c].IsEmpty() {
			out = append(out, c)
		}
	}
	return out
}

// diversityValue computes a node's diversity value with an explicit post-order
// stack: a terminal node has DV 1; an internal node has
// DV = #children × depthWeight(depth) × mean(child DVs).
func (f *forest) diversityValue(n int) float64 {
	if f.dv[n] >= 0 {
		return f.dv[n]
	}
	type frame struct {
		node     int
		expanded bool
	}
	stack := []frame{{node: n}}
	for len(stack) > 0 {
		fr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if f.dv[fr.node] >= 0 {
			continue
		}
		quals := f.qualifyingChildren(fr.node)
		if len(quals) == 0 {
			f.dv[fr.node] = 1
			continue
		}
		if !fr.expanded {
			stack = append(stack, frame{node: fr.node, expanded: true})
			for _, c := range quals {
				if f.dv[c] < 0 {
					stack = append(stack, frame{node: c})
				}
			}
			continue
		}
		sum := 0.0
		for _, c := range quals {
			sum += f.dv[c]
		}
		mean := sum / float64(len(quals))
		f.dv[fr.node] = float64(len(quals)) * depthWeight(f.nodeDepth(fr.node)) * mean
	}
	return f.dv[n]
}

// roots returns the forest roots that still have available leaves, sorted by
// glottocode for a deterministic base order.
func (f *forest) roots() []int {
	var out []int
	for n := range f.nodes {
		if f.parent[n] < 0 && !f.leaves[n].IsEmpty() {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(a, b int) bool {
		return f.nodes[out[a]].Glottocode < f.nodes[out[b]].Glottocode
	})
	return out
}

// runDiversity implements the tree-based strategy: allocate the remaining
// budget across forest roots proportional to their diversity values, push
// each allocation down the tree, then recover any shortfall from the full
// leaf pool.
func (d *draw) runDiversity(size int) {
	budget := size - d.count()
	if budget <= 0 {
		return
	}
	f := buildForest(d.ctx, d.available)

	roots := f.roots()
	if len(roots) == 0 {
		return
	}
	weights := make([]float64, len(roots))
	for i, r := range roots {
		weights[i] = f.diversityValue(r)
	}
	alloc := allocateByWeight(budget, weights)
	if alloc == nil {
		return
	}

	for i, r := range roots {
		d.pushDown(f, r, alloc[i])
	}

	// Shortfall recovery: substitutions may be unavailable under one root
	// while leaves remain elsewhere; draw the difference from the whole pool.
	for round := 0; d.count() < size && round < maxRecoveryRounds; round++ {
		pool := d.available.Clone()
		pool.AndNot(d.selected)
		i, ok := d.ranker.SelectBest(pool)
		if !ok {
			break
		}
		d.take(i, d.ctx.Language(i).Genus)
	}
}

// allocateByWeight distributes a budget proportionally to weights:
// round(budget × w/Σw) per entry, then the rounding residual is corrected
// onto the largest weight so the shares sum exactly to the budget. Returns
// nil when the weights carry no mass.
func allocateByWeight(budget int, weights []float64) []int {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return nil
	}
	alloc := make([]int, len(weights))
	sum := 0
	largest := 0
	for i, w := range weights {
		alloc[i] = int(math.Round(float64(budget) * w / total))
		sum += alloc[i]
		if w > weights[largest] {
			largest = i
		}
	}
	alloc[largest] += budget - sum
	return alloc
}

// pushDown distributes an allocation through a subtree. At a terminal node
// the allocation is spent on its own available leaves; at an internal node
// the children are shuffled (random tie-break between equal weights), sorted
// by descending diversity value, and given proportional shares with the last
// child absorbing the rounding remainder.
func (d *draw) pushDown(f *forest, n, count int) {
	if count <= 0 {
		return
	}
	quals := f.qualifyingChildren(n)
	if len(quals) == 0 {
		d.selectLeaves(f.leaves[n], count)
		return
	}

	d.rng.Shuffle(len(quals), func(i, j int) {
		quals[i], quals[j] = quals[j], quals[i]
	})
	sort.SliceStable(quals, func(a, b int) bool {
		return f.diversityValue(quals[a]) > f.diversityValue(quals[b])
	})

	total := 0.0
	for _, c := range quals {
		total += f.diversityValue(c)
	}
	remaining := count
	for i, c := range quals {
		share := remaining
		if i < len(quals)-1 && total > 0 {
			share = int(math.Round(float64(count) * f.diversityValue(c) / total))
			if share > remaining {
				share = remaining
			}
		}
		d.pushDown(f, c, share)
		remaining -= share
		if remaining <= 0 {
			break
		}
	}
}

// selectLeaves spends an allocation on a leaf pool via the ranking engine,
// skipping leaves already selected.
func (d *draw) selectLeaves(pool *roaring.Bitmap, count int) {
	for ; count > 0; count-- {
		avail := pool.Clone()
		avail.AndNot(d.selected)
		i, ok := d.ranker.SelectBest(avail)
		if !ok {
			return
		}
		d.take(i, d.ctx.Language(i).Genus)
	}
}

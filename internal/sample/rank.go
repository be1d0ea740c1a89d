package sample

import (
	"math/rand/v2"
	"sort"
	"strings"

	"github.com/RoaringBitmap/roaring"
	"github.com/glottolab/areal/api"
	"github.com/glottolab/areal/internal/scorecache"
)

// scoreJitter is added to every score so repeated calls over the same
// candidates do not tie fully deterministically.
const scoreJitter = 1e-6

// topKPick is how many top scorers the selection draws uniformly from. Picking
// among the top 3 instead of the strict maximum deliberately spreads repeated
// draws across near-equally documented languages.
const topKPick = 3

// Ranker scores languages by one ranking key over their qualifying sources.
// Base scores are memoized per ranker and optionally shared through an
// external cache keyed by (ranking key, document types, doc languages,
// glottocode); jitter is applied per call, after the cache.
type Ranker struct {
	ctx *Context
	rng *rand.Rand
	key api.RankingKey

	srcFilter api.SourceFilter
	cache     scorecache.Store // nil disables external caching
	prefix    string           // cache key prefix for this parameter combination

	memo map[uint32]float64
}

// NewRanker builds a ranker for one request. cache may be nil.
func NewRanker(ctx *Context, rng *rand.Rand, req api.SampleRequest, cache scorecache.Store) *Ranker {
	r := &Ranker{
		ctx: ctx,
		rng: rng,
		key: req.RankingKey,
		srcFilter: api.SourceFilter{
			DocumentTypes: req.DocumentTypes,
			DocLanguages:  req.DocLanguages,
		},
		cache: cache,
		memo:  make(map[uint32]float64),
	}
	r.prefix = cachePrefix(req.RankingKey, req.DocumentTypes, req.DocLanguages)
	return r
}

// ranked reports whether a real ranking criterion is active. Unknown keys
// degrade to unranked (uniform random) rather than failing.
func (r *Ranker) ranked() bool {
	switch r.key {
	case api.RankSourceCount, api.RankYear, api.RankPages, api.RankDescriptive:
		return true
	}
	return false
}

// Score returns a language's jittered score under the active key. Unranked
// scoring is pure jitter, which makes downstream argmax a uniform choice.
func (r *Ranker) Score(i uint32) float64 {
	return r.baseScore(i) + r.rng.Float64()*scoreJitter
}

func (r *Ranker) baseScore(i uint32) float64 {
	if !r.ranked() {
		return 0
	}
	if s, ok := r.memo[i]; ok {
		return s
	}
	key := r.prefix + r.ctx.Language(i).Glottocode
	if r.cache != nil {
		if s, ok := r.cache.Get(key); ok {
			r.memo[i] = s
			return s
		}
	}
	s := r.compute(i)
	r.memo[i] = s
	if r.cache != nil {
		r.cache.Put(key, s)
	}
	return s
}

// compute aggregates the qualifying sources under the ranking key.
func (r *Ranker) compute(i uint32) float64 {
	var count int
	var years, pages float64
	for _, src := range r.ctx.sources(i, r.srcFilter) {
		count++
		years += float64(src.Year)
		pages += float64(src.Pages)
	}
	switch r.key {
	case api.RankSourceCount:
		return float64(count)
	case api.RankYear:
		return years
	case api.RankPages:
		return pages
	case api.RankDescriptive:
		// Composite "extensiveness": recency-weighted years plus bulk.
		return 0.5*years + 2.0*pages
	}
	return 0
}

// SelectBest picks one language from a candidate set: uniformly at random
// when unranked, otherwise uniformly among the top-scoring candidates (up to
// topKPick of them). Returns ok=false on an empty set.
func (r *Ranker) SelectBest(candidates *roaring.Bitmap) (uint32, bool) {
	n := int(candidates.GetCardinality())
	if n == 0 {
		return 0, false
	}
	if !r.ranked() {
		return pickNth(candidates, r.rng.IntN(n)), true
	}

	type scored struct {
		idx   uint32
		score float64
	}
	top := make([]scored, 0, topKPick+1)
	iter := candidates.Iterator()
	for iter.HasNext() {
		i := iter.Next()
		top = append(top, scored{i, r.Score(i)})
		sort.Slice(top, func(a, b int) bool { return top[a].score > top[b].score })
		if len(top) > topKPick {
			top = top[:topKPick]
		}
	}
	return top[r.rng.IntN(len(top))].idx, true
}

// GenusScore is the genus's rank: the maximum jittered score among its
// available languages. Returns 0 for an empty set.
func (r *Ranker) GenusScore(members *roaring.Bitmap) float64 {
	var best float64
	first := true
	iter := members.Iterator()
	for iter.HasNext() {
		s := r.Score(iter.Next())
		if first || s > best {
			best = s
			first = false
		}
	}
	return best
}

// pickNth returns the n-th set bit of a bitmap (0-based).
func pickNth(bm *roaring.Bitmap, n int) uint32 {
	iter := bm.Iterator()
	for ; n > 0; n-- {
		iter.Next()
	}
	return iter.Next()
}

// cachePrefix builds the stable cache-key prefix for a ranking parameter
// combination.
func cachePrefix(key api.RankingKey, docTypes, docLangs []string) string {
	types := append([]string(nil), docTypes...)
	langs := append([]string(nil), docLangs...)
	sort.Strings(types)
	sort.Strings(langs)
	return string(key) + "|" + strings.Join(types, ",") + "|" + strings.Join(langs, ",") + "|"
}

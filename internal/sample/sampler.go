package sample

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	mathrand "math/rand/v2"
	"sort"
	"sync"

	"github.com/RoaringBitmap/roaring"
	"github.com/glottolab/areal/api"
	"github.com/glottolab/areal/internal/catalog"
	"github.com/glottolab/areal/internal/scorecache"
)

// ErrUnknownStrategy is returned when a request names a strategy the engine
// does not implement. Unknown ranking keys, by contrast, degrade to random
// scoring and never fail.
var ErrUnknownStrategy = errors.New("unknown sampling strategy")

// Sampler runs sampling requests against one catalog. The derived sampling
// context is built lazily on first use and shared by all subsequent requests;
// each request gets its own random generator and selection state, so a
// Sampler is safe for concurrent use.
type Sampler struct {
	Store catalog.Store
	// Cache optionally persists ranking scores across requests. Nil is fine.
	Cache scorecache.Store
	// Logger receives per-request progress at debug level. Nil means silent.
	Logger *slog.Logger

	ctxOnce sync.Once
	ctx     *Context
}

// New returns a Sampler over a catalog store.
func New(store catalog.Store) *Sampler {
	return &Sampler{Store: store}
}

func (s *Sampler) context() *Context {
	s.ctxOnce.Do(func() { s.ctx = NewContext(s.Store) })
	return s.ctx
}

func (s *Sampler) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.New(slog.DiscardHandler)
}

// draw is the mutable state of one sampling run.
type draw struct {
	ctx    *Context
	rng    *mathrand.Rand
	ranker *Ranker

	// available is the filtered candidate pool; mandatory includes bypass it.
	available *roaring.Bitmap
	selected  *roaring.Bitmap
	order     []uint32 // selection order, for stable output

	usedGenera map[string]bool
}

// take records a selection. Selecting the same language twice is a no-op, so
// the no-duplicates invariant holds by construction.
func (d *draw) take(i uint32, genus string) {
	if d.selected.Contains(i) {
		return
	}
	d.selected.Add(i)
	d.order = append(d.order, i)
	if genus != "" {
		d.usedGenera[genus] = true
	}
}

func (d *draw) count() int { return len(d.order) }

// Run executes one sampling request and assembles the result. The result
// size is a best-effort target: it is smaller than requested when the catalog
// cannot supply enough qualifying genera or leaves.
func (s *Sampler) Run(req api.SampleRequest) (*api.SamplingResult, error) {
	strategy, err := api.ParseStrategy(string(req.Strategy))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, req.Strategy)
	}

	ctx := s.context()
	rng := newRand(req.Seed)
	d := &draw{
		ctx:        ctx,
		rng:        rng,
		ranker:     NewRanker(ctx, rng, req, s.Cache),
		selected:   roaring.New(),
		usedGenera: make(map[string]bool),
	}
	d.available = ctx.Filter(ctx.All(), filtersFromRequest(req))

	// Mandatory includes enter first, bypassing all filters, and consume
	// slots from the target size. Exclude has already won any conflict.
	for _, i := range ctx.ResolveIncludes(req.Include, req.Exclude) {
		d.take(i, ctx.Language(i).Genus)
	}

	var targets map[string]int
	switch strategy {
	case api.StrategyGenus:
		d.runGenus(false)
	case api.StrategyCore:
		d.runGenus(true)
	case api.StrategyPrimary, api.StrategyRestricted:
		targets = d.runPrimary(req.Size, req.Macroareas)
	case api.StrategyRandom:
		d.runRandom(req.Size)
	case api.StrategyDiversity:
		d.runDiversity(req.Size)
	}

	s.logger().Debug("sampling run complete",
		"strategy", string(strategy),
		"requested", req.Size,
		"selected", d.count(),
		"pool", d.available.GetCardinality())

	return d.result(targets), nil
}

// result assembles the output aggregate: selected languages in draw order,
// represented genera (reconstructed from language membership where the
// strategy does not track them), and the two macroarea distributions.
func (d *draw) result(targets map[string]int) *api.SamplingResult {
	res := &api.SamplingResult{
		Languages:                   make([]api.Language, 0, len(d.order)),
		TargetMacroareaDistribution: targets,
		ActualMacroareaDistribution: d.actualDistribution(),
	}
	generaSet := make(map[string]bool, len(d.usedGenera))
	for _, i := range d.order {
		l := d.ctx.Language(i)
		res.Languages = append(res.Languages, l)
		if l.Genus != "" {
			generaSet[l.Genus] = true
		}
	}
	for g := range d.usedGenera {
		generaSet[g] = true
	}
	res.Genera = make([]string, 0, len(generaSet))
	for g := range generaSet {
		res.Genera = append(res.Genera, g)
	}
	sort.Strings(res.Genera)
	return res
}

// newRand builds the request-scoped generator. A zero seed draws one from
// crypto entropy; any other seed reproduces the draw exactly.
func newRand(seed int64) *mathrand.Rand {
	if seed == 0 {
		var b [8]byte
		if _, err := rand.Read(b[:]); err == nil {
			seed = int64(binary.LittleEndian.Uint64(b[:]))
		} else {
			seed = 1 // entropy exhausted; still deterministic, never panics
		}
	}
	return mathrand.New(mathrand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))
}

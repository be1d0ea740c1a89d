package sample

import (
	"math"
	"sort"

	"github.com/RoaringBitmap/roaring"
)

// maxRecoveryRounds caps every shortfall loop. The loops also break on a full
// pass without progress, so the cap only matters for pathological catalogs.
const maxRecoveryRounds = 1000

// runGenus implements the unconstrained one-language-per-genus strategies.
// When core is set the usable-sources gate is applied to each genus's
// available languages; the gate currently admits every language, keeping
// genus and core equivalent until the intended semantics are pinned down.
func (d *draw) runGenus(core bool) {
	for _, g := range d.ctx.Genera() {
		if d.usedGenera[g.Name] {
			continue
		}
		avail := d.genusAvailable(g.Name, nil)
		if core {
			avail = usableSourcesGate(d.ctx, avail)
		}
		i, ok := d.ranker.SelectBest(avail)
		if !ok {
			continue
		}
		d.take(i, g.Name)
	}
}

// usableSourcesGate is the core_sample language-level gate. The observed
// behavior admits all languages; the hook keeps the distinction expressible
// without forking the allocator.
func usableSourcesGate(_ *Context, avail *roaring.Bitmap) *roaring.Bitmap {
	return avail
}

// runPrimary implements the macroarea-stratified, size-constrained strategy:
// proportional per-area genus targets with rounding correction, shuffled (or
// genus-score-ordered) genus selection per area, a bounded shortfall recovery
// loop, and a final genus-agnostic top-up. Returns the target distribution
// for reporting.
func (d *draw) runPrimary(size int, restrict []string) map[string]int {
	dist := d.ctx.MacroareaDistribution(restrict)
	if len(dist) == 0 {
		return map[string]int{}
	}
	targets := allocateTargets(size, dist)

	// Deterministic area order; run-to-run diversity comes from the genus
	// ordering and the per-area random picks.
	areaNames := sortedKeys(dist)
	genusOrder := d.orderedGenera()

	for _, area := range areaNames {
		need := targets[area]
		for _, g := range genusOrder {
			if need == 0 || d.count() >= size {
				break
			}
			if d.addFromGenusInArea(g, area) {
				need--
			}
		}
	}

	// Shortfall recovery: one more genus/language pair per area per round,
	// until the target is met, nothing qualifies anywhere, or the cap trips.
	for round := 0; d.count() < size && round < maxRecoveryRounds; round++ {
		progress := false
		for _, area := range areaNames {
			if d.count() >= size {
				break
			}
			for _, g := range genusOrder {
				if d.addFromGenusInArea(g, area) {
					progress = true
					break
				}
			}
		}
		if !progress {
			break
		}
	}

	d.topUp(size)
	return targets
}

// runRandom is the non-stratified size-constrained strategy: genera are drawn
// from the whole filtered pool with the same shortfall mechanics, macroareas
// ignored.
func (d *draw) runRandom(size int) {
	genusOrder := d.orderedGenera()
	for round := 0; d.count() < size && round < maxRecoveryRounds; round++ {
		progress := false
		for _, g := range genusOrder {
			if d.count() >= size {
				break
			}
			if d.addFromGenus(g) {
				progress = true
			}
		}
		if !progress {
			break
		}
	}
	d.topUp(size)
}

// addFromGenusInArea selects one language for a genus, restricted to one
// macroarea. Returns false when the genus is used up or has no qualifying
// language there.
func (d *draw) addFromGenusInArea(genus, area string) bool {
	if d.usedGenera[genus] {
		return false
	}
	avail := d.genusAvailable(genus, d.ctx.AreaMembers(area))
	i, ok := d.ranker.SelectBest(avail)
	if !ok {
		return false
	}
	d.take(i, genus)
	return true
}

// addFromGenus is addFromGenusInArea without the area restriction.
func (d *draw) addFromGenus(genus string) bool {
	if d.usedGenera[genus] {
		return false
	}
	avail := d.genusAvailable(genus, nil)
	i, ok := d.ranker.SelectBest(avail)
	if !ok {
		return false
	}
	d.take(i, genus)
	return true
}

// topUp draws languages from the full filtered pool ignoring genus grouping
// until size is reached or the pool is empty. Used when too few distinct
// genera exist; the result size stays a best-effort target.
func (d *draw) topUp(size int) {
	for d.count() < size {
		pool := d.available.Clone()
		pool.AndNot(d.selected)
		i, ok := d.ranker.SelectBest(pool)
		if !ok {
			return
		}
		d.take(i, d.ctx.Language(i).Genus)
	}
}

// genusAvailable is a genus's filtered, not-yet-selected member set,
// optionally intersected with a restriction bitmap.
func (d *draw) genusAvailable(genus string, restrict *roaring.Bitmap) *roaring.Bitmap {
	avail := d.ctx.GenusMembers(genus).Clone()
	avail.And(d.available)
	avail.AndNot(d.selected)
	if restrict != nil {
		avail.And(restrict)
	}
	return avail
}

// orderedGenera returns the genus names shuffled and, when a ranking key is
// active, reordered by descending genus score so better-documented genera are
// tried first. The shuffle survives as the tie-break among equally scored
// genera.
func (d *draw) orderedGenera() []string {
	genera := d.ctx.Genera()
	names := make([]string, len(genera))
	for i, g := range genera {
		names[i] = g.Name
	}
	d.rng.Shuffle(len(names), func(i, j int) {
		names[i], names[j] = names[j], names[i]
	})
	if !d.ranker.ranked() {
		return names
	}
	scores := make(map[string]float64, len(names))
	for _, name := range names {
		scores[name] = d.ranker.GenusScore(d.genusAvailable(name, nil))
	}
	sort.SliceStable(names, func(i, j int) bool {
		return scores[names[i]] > scores[names[j]]
	})
	return names
}

// allocateTargets turns the macroarea genus distribution into per-area slot
// targets: round(size × areaGenera/totalGenera), then the rounding residual
// is added to the macroarea with the largest genus count so the targets sum
// exactly to size.
func allocateTargets(size int, dist map[string]int) map[string]int {
	total := 0
	for _, n := range dist {
		total += n
	}
	targets := make(map[string]int, len(dist))
	if total == 0 {
		return targets
	}

	sum := 0
	largest := ""
	for _, area := range sortedKeys(dist) {
		t := int(math.Round(float64(size) * float64(dist[area]) / float64(total)))
		targets[area] = t
		sum += t
		if largest == "" || dist[area] > dist[largest] {
			largest = area
		}
	}
	targets[largest] += size - sum
	return targets
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// actualDistribution counts selected languages by their own macroarea.
func (d *draw) actualDistribution() map[string]int {
	out := make(map[string]int)
	for _, i := range d.order {
		if area := d.ctx.Language(i).Macroarea; area != "" {
			out[area]++
		}
	}
	return out
}

package afli

import (
	"math"
	"sort"
)

// conflictInfo is the output of the conflict analyzer: for a fitted model
// over a sorted batch, the list of (position, count) pairs in strictly
// increasing position order, plus the slot space size the model predicts
// into.
type conflictInfo struct {
	positions []uint32
	counts    []uint32
	maxSize   uint32
}

// fitLinearModel fits a linear model to a sorted, unique batch and predicts
// the conflict structure it induces, per spec §4.1-4.2. ok is false when no
// useful model exists (degenerate key range or a near-zero slope), in which
// case the caller must fall back to a dense node.
func fitLinearModel[K Key, V Value](kvs []Pair[K, V], sizeAmp float64) (*linearModel[K], conflictInfo, bool) {
	size := len(kvs)
	if size < 2 {
		return nil, conflictInfo{}, false
	}
	minKey := kvs[0].Key
	maxKey := kvs[size-1].Key
	if minKey == maxKey {
		return nil, conflictInfo{}, false
	}

	var b modelBuilder[K]
	for i, kv := range kvs {
		b.add(kv.Key, float64(i))
	}
	slope, intercept, ok := b.build()
	if !ok || slope == 0 {
		return nil, conflictInfo{}, false
	}

	model := &linearModel[K]{slope: slope, intercept: -slope*toFloat64(minKey) + 0.5}

	maxSize := uint32(math.Ceil(float64(size) * sizeAmp))
	if maxSize == 0 {
		maxSize = 1
	}
	predictedSize := model.predict(maxKey) + 1
	if predictedSize > 1 && uint32(predictedSize) < maxSize {
		maxSize = uint32(predictedSize)
	}

	clamp := func(p int64) uint32 {
		if p < 0 {
			return 0
		}
		if p > int64(maxSize)-1 {
			return maxSize - 1
		}
		return uint32(p)
	}

	firstPos := clamp(model.predict(minKey))
	lastPos := clamp(model.predict(maxKey))
	if lastPos == firstPos {
		model.slope = float64(size) / (toFloat64(maxKey) - toFloat64(minKey))
		model.intercept = -model.slope*toFloat64(minKey) + 0.5
	}

	ci := conflictInfo{maxSize: maxSize}
	pLast := clamp(model.predict(kvs[0].Key))
	conflict := uint32(1)
	for i := 1; i < size; i++ {
		p := clamp(model.predict(kvs[i].Key))
		if p == pLast {
			conflict++
		} else {
			ci.positions = append(ci.positions, pLast)
			ci.counts = append(ci.counts, conflict)
			pLast = p
			conflict = 1
		}
	}
	ci.positions = append(ci.positions, pLast)
	ci.counts = append(ci.counts, conflict)
	return model, ci, true
}

// TailConflicts computes the 99th-percentile tail conflict over a sorted,
// unique batch of bare keys (spec §4.9), for callers such as the nf
// package's auto-switch decision that have no payload to attach yet.
func TailConflicts[K Key](keys []K, sizeAmp, tailPercent float64) uint32 {
	kvs := make([]Pair[K, struct{}], len(keys))
	for i, k := range keys {
		kvs[i].Key = k
	}
	return computeTailConflicts(kvs, sizeAmp, tailPercent)
}

// computeTailConflicts returns the 99th-percentile collision count (minus
// one) over a model fitted to kvs with the given size amplification, per
// spec §4.9. A batch with no usable model (dense fallback territory)
// reports zero tail conflicts rather than following the original source's
// undefined behavior in that case.
func computeTailConflicts[K Key, V Value](kvs []Pair[K, V], sizeAmp float64, tailPercent float64) uint32 {
	_, ci, ok := fitLinearModel(kvs, sizeAmp)
	if !ok || len(ci.counts) == 0 {
		return 0
	}
	sorted := append([]uint32(nil), ci.counts...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	rank := int(float64(len(sorted))*tailPercent) - 1
	if rank < 0 {
		rank = 0
	}
	if sorted[rank] == 0 {
		return 0
	}
	return sorted[rank] - 1
}

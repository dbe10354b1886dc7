package afli

import "math"

// linearModel predicts a slot index for a key with a single regression
// line fitted over (key, rank-in-batch) pairs. Predictions are always
// truncated toward negative infinity and returned as a signed 64-bit slot,
// clamping to a valid range is the caller's responsibility (node.go does it
// at every use site, per spec).
type linearModel[K Key] struct {
	slope     float64
	intercept float64
}

// predict returns floor(slope*key + intercept) as a signed 64-bit slot,
// unclamped.
func (m *linearModel[K]) predict(k K) int64 {
	return int64(math.Floor(m.slope*toFloat64(k) + m.intercept))
}

// modelBuilder accumulates the ordinary-least-squares sums needed to fit
// position ~= slope*key + intercept over a batch, where position is the
// key's rank within the sorted batch (not a scaled slot).
type modelBuilder[K Key] struct {
	n    float64
	sumX float64
	sumY float64
	sumXY float64
	sumXX float64
}

func (b *modelBuilder[K]) add(key K, rank float64) {
	x := toFloat64(key)
	b.n++
	b.sumX += x
	b.sumY += rank
	b.sumXY += x * rank
	b.sumXX += x * x
}

// build fits the closed-form OLS slope/intercept. It reports ok=false if
// the denominator is too close to zero to trust (a near-vertical or
// degenerate fit), signaling "unfittable" to the caller exactly as the
// conflict analyzer's build_linear_model does when model->slope_ == 0.
func (b *modelBuilder[K]) build() (slope, intercept float64, ok bool) {
	denom := b.n*b.sumXX - b.sumX*b.sumX
	if math.Abs(denom) < 1e-9 {
		return 0, 0, false
	}
	slope = (b.n*b.sumXY - b.sumX*b.sumY) / denom
	intercept = (b.sumY - slope*b.sumX) / b.n
	return slope, intercept, true
}

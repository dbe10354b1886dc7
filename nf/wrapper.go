// Package nf implements the numerical-flow wrapper around an Index: an
// optional learned key transformer that can be switched on when it reduces
// tail conflicts enough to be worth its own cost, per spec §4.10.
package nf

import (
	"sort"

	"github.com/aflidb/afli"
	"github.com/aflidb/afli/flow"
)

const (
	rawSizeAmplification   = 1.5
	autoSwitchTailPercent  = 0.99
	autoSwitchBatchSize    = 4096
	autoSwitchMinReduction = 0.1
)

// Wrapper holds either a raw Index[K,V] or, once auto-switch enables the
// flow, a transformed Index[float64, afli.Pair[K,V]] keyed by the
// network's scalar output and carrying the original pair as payload.
type Wrapper[K afli.Key, V afli.Value] struct {
	net        *flow.Network
	mean, varr float64

	enabled bool
	raw     *afli.Index[K, V]
	tran    *afli.Index[float64, afli.Pair[K, V]]

	batch []afli.Pair[float64, afli.Pair[K, V]]
}

// NewWrapper wraps a loaded flow network and the mean/variance constants
// from its weights file (spec §6: "<mean> <var>" header line).
func NewWrapper[K afli.Key, V afli.Value](net *flow.Network, mean, varr float64) *Wrapper[K, V] {
	return &Wrapper[K, V]{net: net, mean: mean, varr: varr}
}

// Enabled reports whether the last AutoSwitch call turned the flow on.
func (w *Wrapper[K, V]) Enabled() bool { return w.enabled }

func (w *Wrapper[K, V]) normalize(keys []K) []float64 {
	out := make([]float64, len(keys))
	for i, k := range keys {
		out[i] = (toFloat(k) - w.mean) / w.varr
	}
	return out
}

func toFloat[K afli.Key](k K) float64 { return float64(k) }

// transformKeys runs keys through the flow network in fixed-size batches,
// amortizing the matrix-multiply cost per spec §4.10.
func (w *Wrapper[K, V]) transformKeys(keys []K) []float64 {
	normalized := w.normalize(keys)
	out := make([]float64, 0, len(normalized))
	for l := 0; l < len(normalized); l += autoSwitchBatchSize {
		r := l + autoSwitchBatchSize
		if r > len(normalized) {
			r = len(normalized)
		}
		out = append(out, w.net.Transform(normalized[l:r])...)
	}
	return out
}

// AutoSwitch decides whether to enable the flow, per spec §4.10: compute
// the raw tail conflict with A=1.5, transform and sort the keys, compute
// the transformed tail conflict the same way, and enable iff the
// transformed figure is both smaller and at least 10% better. It returns
// the tail conflict of whichever index will actually be built.
func (w *Wrapper[K, V]) AutoSwitch(keys []K) uint32 {
	cRaw := afli.TailConflicts(keys, rawSizeAmplification, autoSwitchTailPercent)

	transformed := w.transformKeys(keys)
	sort.Float64s(transformed)
	cTran := afli.TailConflicts(transformed, rawSizeAmplification, autoSwitchTailPercent)

	w.enabled = cTran < cRaw && (float64(cRaw)-float64(cTran)) >= autoSwitchMinReduction*float64(cRaw)
	if w.enabled {
		return cTran
	}
	return cRaw
}

// BulkLoad builds the underlying index. When the flow is enabled, pairs
// are transformed and re-sorted by the transformed scalar before loading;
// a batch whose transformed keys are not strictly unique panics the same
// way afli.Index.BulkLoad does on any unsorted/duplicate input.
func (w *Wrapper[K, V]) BulkLoad(pairs []afli.Pair[K, V], bucketSize uint8, aggregateSize uint32) {
	if !w.enabled {
		w.raw = afli.NewIndex[K, V]()
		w.raw.BulkLoad(pairs, bucketSize, aggregateSize)
		return
	}

	keys := make([]K, len(pairs))
	for i, p := range pairs {
		keys[i] = p.Key
	}
	transformed := w.transformKeys(keys)

	tp := make([]afli.Pair[float64, afli.Pair[K, V]], len(pairs))
	for i, p := range pairs {
		tp[i] = afli.Pair[float64, afli.Pair[K, V]]{Key: transformed[i], Value: p}
	}
	sort.Slice(tp, func(i, j int) bool { return tp[i].Key < tp[j].Key })

	w.tran = afli.NewIndex[float64, afli.Pair[K, V]]()
	w.tran.BulkLoad(tp, bucketSize, aggregateSize)
}

// Find looks up key directly, for use when the flow is disabled.
func (w *Wrapper[K, V]) Find(key K) (*V, bool) {
	return w.raw.Find(key)
}

// Update overwrites kv's value directly, for use when the flow is disabled.
func (w *Wrapper[K, V]) Update(kv afli.Pair[K, V]) bool {
	return w.raw.Update(kv)
}

// Insert adds kv directly, for use when the flow is disabled.
func (w *Wrapper[K, V]) Insert(kv afli.Pair[K, V]) {
	w.raw.Insert(kv)
}

// Remove deletes key directly, for use when the flow is disabled.
func (w *Wrapper[K, V]) Remove(key K) uint32 {
	return w.raw.Remove(key)
}

// TransformBatch populates the internal transformed-pairs buffer, per spec
// §6's two-phase NF wrapper API: call this once per batch before any of
// the *At methods, which then index by offset into this batch rather than
// by key.
func (w *Wrapper[K, V]) TransformBatch(keys []K, values []V) {
	transformed := w.transformKeys(keys)
	w.batch = make([]afli.Pair[float64, afli.Pair[K, V]], len(keys))
	for i := range keys {
		w.batch[i] = afli.Pair[float64, afli.Pair[K, V]]{
			Key:   transformed[i],
			Value: afli.Pair[K, V]{Key: keys[i], Value: values[i]},
		}
	}
}

// FindAt looks up the batch entry at offset i in the transformed index.
func (w *Wrapper[K, V]) FindAt(i int) (*V, bool) {
	p, ok := w.tran.Find(w.batch[i].Key)
	if !ok {
		return nil, false
	}
	return &p.Value, true
}

// UpdateAt overwrites the value for the batch entry at offset i.
func (w *Wrapper[K, V]) UpdateAt(i int, value V) bool {
	return w.tran.Update(afli.Pair[float64, afli.Pair[K, V]]{
		Key:   w.batch[i].Key,
		Value: afli.Pair[K, V]{Key: w.batch[i].Value.Key, Value: value},
	})
}

// InsertAt inserts the batch entry at offset i.
func (w *Wrapper[K, V]) InsertAt(i int) {
	w.tran.Insert(w.batch[i])
}

// RemoveAt removes the batch entry at offset i.
func (w *Wrapper[K, V]) RemoveAt(i int) uint32 {
	return w.tran.Remove(w.batch[i].Key)
}

// ModelSize reports structural overhead of the active index, plus the
// loaded network weights when the flow is enabled.
func (w *Wrapper[K, V]) ModelSize() uint64 {
	base := w.net.Size()
	if w.enabled {
		return base + w.tran.ModelSize()
	}
	return w.raw.ModelSize()
}

// IndexSize reports structural overhead plus payload of the active index,
// plus the loaded network weights when the flow is enabled.
func (w *Wrapper[K, V]) IndexSize() uint64 {
	base := w.net.Size()
	if w.enabled {
		return base + w.tran.IndexSize()
	}
	return w.raw.IndexSize()
}

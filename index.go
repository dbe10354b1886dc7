package afli

import "sort"

// tailPercentile is the percentile used by bucket-size auto-compute
// (spec §4.9). The nf package's auto-switch uses its own constant of the
// same value.
const tailPercentile = 0.99

// Index is the root façade over a recursive learned tree, generic over any
// Key-constrained scalar and an arbitrary payload type (spec §3-4).
//
// An Index is not safe for concurrent use: spec §5 specifies a
// single-threaded cooperative model with no internal locking, so unlike
// the teacher's MultiMap this type carries no sync.RWMutex.
type Index[K Key, V Value] struct {
	root         *node[K, V]
	built        bool
	bucketSize   uint8
	aggregateSize uint32
	maxAggregate uint32
	count        uint32
}

// NewIndex returns an empty, unbuilt index. Call BulkLoad before any other
// operation.
func NewIndex[K Key, V Value]() *Index[K, V] {
	return &Index[K, V]{}
}

// AutoBucketSize computes the bucket-size hyper-parameter B from a sorted,
// unique batch per spec §4.9: fit with A=2.0, take the 99th-percentile tail
// conflict, clamp to [1, 6].
func AutoBucketSize[K Key, V Value](kvs []Pair[K, V]) uint8 {
	tail := computeTailConflicts(kvs, sizeAmplificationBuild, tailPercentile)
	if tail < 1 {
		return 1
	}
	if tail > 6 {
		return 6
	}
	return uint8(tail)
}

// BulkLoad builds the index from a sorted, duplicate-free batch (spec
// §4.8). bucketSize of 0 requests auto-compute (§4.9); aggregateSize of 0
// means unbounded aggregation runs.
func (idx *Index[K, V]) BulkLoad(kvs []Pair[K, V], bucketSize uint8, aggregateSize uint32) {
	requireEmpty(idx.built)
	requireSorted(kvs)

	if bucketSize == 0 {
		if len(kvs) == 0 {
			bucketSize = 1
		} else {
			bucketSize = AutoBucketSize(kvs)
		}
	}
	requireNonZero(bucketSize)

	idx.bucketSize = bucketSize
	idx.aggregateSize = aggregateSize
	idx.maxAggregate = 0
	idx.count = uint32(len(kvs))
	idx.built = true

	if len(kvs) == 0 {
		idx.root = &node[K, V]{}
		return
	}
	idx.root = buildNode(kvs, bucketSize, aggregateSize, 1, &idx.maxAggregate)
}

// Find returns a pointer to the stored value for key, or (nil, false).
func (idx *Index[K, V]) Find(key K) (*V, bool) {
	if idx.root == nil {
		return nil, false
	}
	return idx.root.find(key)
}

// Update overwrites the value for an existing key, reporting whether key
// was present.
func (idx *Index[K, V]) Update(kv Pair[K, V]) bool {
	if idx.root == nil {
		return false
	}
	return idx.root.update(kv)
}

// Remove deletes key, reporting how many entries were removed (0 or 1).
func (idx *Index[K, V]) Remove(key K) uint32 {
	if idx.root == nil {
		return 0
	}
	removed := idx.root.remove(key)
	idx.count -= removed
	return removed
}

// Insert adds a new pair. kv.Key must be absent; inserting a duplicate key
// is undefined behavior per spec §6, mirroring the original's contract.
//
// A bucket overflow or dense-node saturation triggers exactly one rebuild,
// sorted once at this façade level regardless of the recursion depth at
// which it originated (spec §4.7's single top-level sort).
func (idx *Index[K, V]) Insert(kv Pair[K, V]) {
	if idx.root == nil {
		idx.root = &node[K, V]{}
	}
	req := idx.root.insert(kv, 1, idx.bucketSize)
	idx.count++
	if req == nil {
		return
	}
	sort.Slice(req.pairs, func(i, j int) bool { return req.pairs[i].Key < req.pairs[j].Key })
	rebuildInto(req.node, req.pairs, idx.bucketSize, idx.aggregateSize, req.depth, &idx.maxAggregate)
}

// ModelSize reports the structural-overhead byte total (spec §4.11,
// §6 model_size).
func (idx *Index[K, V]) ModelSize() uint64 {
	return collectTreeStats(idx.root).ModelSizeBytes
}

// IndexSize reports the structural-plus-payload byte total (spec §4.11,
// §6 index_size).
func (idx *Index[K, V]) IndexSize() uint64 {
	return collectTreeStats(idx.root).IndexSizeBytes
}

// Stats runs a full statistics walk over the tree (spec §4.11).
func (idx *Index[K, V]) Stats() Stats {
	return collectTreeStats(idx.root)
}

// MaxAggregate reports the longest aggregated child run encountered
// anywhere in the tree since the last BulkLoad, including the rebuilds
// triggered by later inserts.
func (idx *Index[K, V]) MaxAggregate() uint32 {
	return idx.maxAggregate
}

// Len reports the number of live pairs the index believes it holds,
// maintained incrementally rather than recomputed on each call.
func (idx *Index[K, V]) Len() uint32 {
	return idx.count
}

// BucketSize reports the bucket-size hyper-parameter in effect, whether
// user-supplied or auto-computed by the last BulkLoad.
func (idx *Index[K, V]) BucketSize() uint8 {
	return idx.bucketSize
}

// Diagnostics reports summary figures useful for tuning, modeled on the
// original source's assess_data pass: the incremental live count vs. a
// recount of the tree, the tree-wide conflict average, the longest
// aggregated child run, and the leaf-node count.
type Diagnostics struct {
	Len           uint32
	CountedLive   uint32
	AvgConflicts  float64
	MaxAggregate  uint32
	NumLeafNodes  uint64
}

// Diagnostics cross-checks the incremental Len() against a brute-force
// recount (node.countLivePairs), alongside the tree-wide conflict average.
func (idx *Index[K, V]) Diagnostics() Diagnostics {
	st := idx.Stats()
	var counted uint32
	if idx.root != nil {
		counted = idx.root.countLivePairs()
	}
	return Diagnostics{
		Len:          idx.count,
		CountedLive:  counted,
		AvgConflicts: st.AvgConflicts(),
		MaxAggregate: idx.maxAggregate,
		NumLeafNodes: st.NumLeafNodes,
	}
}

package afli

import "sort"

// sizeAmplificationBuild is the size-amplification hyper-parameter A used
// when bulk-building a node's slot space (spec §4.1). The NF auto-switch
// compare uses a smaller amplification (nf package).
const sizeAmplificationBuild = 2.0

// entry is a tagged-union-by-bitmap slot payload: exactly one of pair,
// bucket, child is meaningful, selected by the owning node's tagBitmap at
// that slot index. Go has no native union, so the three alternatives live
// side by side; pair is stored inline (zero extra allocation for the
// common case), bucket/child are pointers.
type entry[K Key, V Value] struct {
	pair   Pair[K, V]
	bucket *bucket[K, V]
	child  *node[K, V]
}

// node is a tree node in one of the two shapes spec §3 describes. model
// nil means a dense node (sorted array fallback); model non-nil means a
// model node (slot array routed by linear prediction). Keeping both shapes
// in one type mirrors the original TNode, where model_ == nullptr is the
// dense discriminant.
type node[K Key, V Value] struct {
	model   *linearModel[K]
	tags    tagBitmap
	entries []entry[K, V]
	size    uint32 // live direct data slots (model node only)

	dense []Pair[K, V] // sorted array; len is live size, cap is dense capacity

	sizeSubTree uint32 // recursive total element count below this node, inclusive
}

func (n *node[K, V]) isDense() bool { return n.model == nil }

// clampSlot clamps a raw model prediction into a valid slot index, per the
// "predictions are clamped to [0, M-1] before use at any site" rule in
// spec §4.1.
func clampSlot(p int64, capacity int) uint32 {
	if p < 0 {
		return 0
	}
	if p > int64(capacity)-1 {
		return uint32(capacity - 1)
	}
	return uint32(p)
}

// buildNode recursively builds a subtree from a sorted, unique batch, per
// spec §4.3. maxAggregate accumulates the longest aggregated child run
// encountered anywhere in the subtree, for Index.MaxAggregate().
func buildNode[K Key, V Value](kvs []Pair[K, V], bucketSize uint8, aggregateSize uint32, depth uint32, maxAggregate *uint32) *node[K, V] {
	model, ci, ok := fitLinearModel(kvs, sizeAmplificationBuild)
	if !ok {
		return buildDenseNode(kvs, bucketSize)
	}

	n := &node[K, V]{
		model:       model,
		tags:        newTagBitmap(ci.maxSize),
		entries:     make([]entry[K, V], ci.maxSize),
		sizeSubTree: uint32(len(kvs)),
	}

	j := 0
	for i := 0; i < len(ci.positions); i++ {
		p := ci.positions[i]
		c := ci.counts[i]
		switch {
		case c == 0:
			continue
		case c == 1:
			n.tags.set(p, tagData)
			n.entries[p].pair = kvs[j]
			n.size++
			j++
		case c <= uint32(bucketSize):
			n.tags.set(p, tagBucket)
			n.entries[p].bucket = newBucket(kvs[j:j+int(c)], bucketSize)
			j += int(c)
		default:
			k := i + 1
			segSize := c
			end := len(ci.positions)
			if aggregateSize != 0 && uint32(i)+aggregateSize < uint32(end) {
				end = i + int(aggregateSize)
			}
			for k < end && ci.positions[k] == ci.positions[k-1]+1 && ci.counts[k] > uint32(bucketSize)+1 {
				segSize += ci.counts[k]
				k++
			}
			if int(segSize) == len(kvs) {
				// Every remaining input collapses back to this node: build a
				// distinct subtree per aggregated position to avoid looping
				// forever on the same partition. A single-position run whose
				// count is the entire batch is the one case that rule does
				// not shrink (the "child" would see exactly the same batch
				// again); fall back to a dense node there instead of
				// recursing.
				if k-i == 1 {
					pu := ci.positions[i]
					n.tags.set(pu, tagChild)
					n.entries[pu].child = buildDenseNode(kvs[j:j+int(segSize)], bucketSize)
					j += int(segSize)
				} else {
					for u := i; u < k; u++ {
						pu := ci.positions[u]
						cu := ci.counts[u]
						n.tags.set(pu, tagChild)
						n.entries[pu].child = buildNode(kvs[j:j+int(cu)], bucketSize, aggregateSize, depth+1, maxAggregate)
						j += int(cu)
					}
				}
			} else {
				if run := uint32(k - i); run > *maxAggregate {
					*maxAggregate = run
				}
				child := buildNode(kvs[j:j+int(segSize)], bucketSize, aggregateSize, depth+1, maxAggregate)
				for u := i; u < k; u++ {
					pu := ci.positions[u]
					n.tags.set(pu, tagChild)
					n.entries[pu].child = child
				}
				j += int(segSize)
			}
			i = k - 1
		}
	}
	return n
}

// buildDenseNode allocates the canonical plain-sorted-array dense node
// (spec §4.3's "preferred canonical design"), with capacity = N+B slack
// for subsequent in-place inserts.
func buildDenseNode[K Key, V Value](kvs []Pair[K, V], bucketSize uint8) *node[K, V] {
	dense := make([]Pair[K, V], len(kvs), len(kvs)+int(bucketSize))
	copy(dense, kvs)
	return &node[K, V]{dense: dense, sizeSubTree: uint32(len(kvs))}
}

func (n *node[K, V]) find(key K) (*V, bool) {
	if !n.isDense() {
		idx := clampSlot(n.model.predict(key), len(n.entries))
		switch n.tags.get(idx) {
		case tagData:
			if n.entries[idx].pair.Key == key {
				return &n.entries[idx].pair.Value, true
			}
			return nil, false
		case tagBucket:
			return n.entries[idx].bucket.find(key)
		case tagChild:
			return n.entries[idx].child.find(key)
		default:
			return nil, false
		}
	}
	i := sort.Search(len(n.dense), func(i int) bool { return !(n.dense[i].Key < key) })
	if i < len(n.dense) && n.dense[i].Key == key {
		return &n.dense[i].Value, true
	}
	return nil, false
}

func (n *node[K, V]) update(kv Pair[K, V]) bool {
	if !n.isDense() {
		idx := clampSlot(n.model.predict(kv.Key), len(n.entries))
		switch n.tags.get(idx) {
		case tagData:
			if n.entries[idx].pair.Key == kv.Key {
				n.entries[idx].pair.Value = kv.Value
				return true
			}
			return false
		case tagBucket:
			return n.entries[idx].bucket.update(kv)
		case tagChild:
			return n.entries[idx].child.update(kv)
		default:
			return false
		}
	}
	i := sort.Search(len(n.dense), func(i int) bool { return !(n.dense[i].Key < kv.Key) })
	if i < len(n.dense) && n.dense[i].Key == kv.Key {
		n.dense[i].Value = kv.Value
		return true
	}
	return false
}

func (n *node[K, V]) remove(key K) uint32 {
	if !n.isDense() {
		idx := clampSlot(n.model.predict(key), len(n.entries))
		switch n.tags.get(idx) {
		case tagData:
			if n.entries[idx].pair.Key == key {
				n.tags.set(idx, tagEmpty)
				n.entries[idx] = entry[K, V]{}
				n.size--
				n.sizeSubTree--
				return 1
			}
			return 0
		case tagBucket:
			removed := n.entries[idx].bucket.remove(key)
			n.sizeSubTree -= removed
			return removed
		case tagChild:
			removed := n.entries[idx].child.remove(key)
			n.sizeSubTree -= removed
			return removed
		default:
			return 0
		}
	}
	i := sort.Search(len(n.dense), func(i int) bool { return !(n.dense[i].Key < key) })
	if i < len(n.dense) && n.dense[i].Key == key {
		copy(n.dense[i:], n.dense[i+1:])
		n.dense = n.dense[:len(n.dense)-1]
		n.sizeSubTree--
		return 1
	}
	return 0
}

// rebuildRequest asks the caller (ultimately the Index façade) to sort
// pairs and rebuild node from them at the given depth. It is produced when
// a bucket overflows (node is a freshly allocated, still-empty child) or a
// dense node saturates (node is this same node, to be rebuilt in place).
type rebuildRequest[K Key, V Value] struct {
	node  *node[K, V]
	pairs []Pair[K, V]
	depth uint32
}

// insert performs the navigation of spec §4.7. It never sorts pairs
// itself: the facade sorts once, after the single rebuild (if any) that an
// insert call can trigger, matching the original's single top-level sort.
func (n *node[K, V]) insert(kv Pair[K, V], depth uint32, bucketSize uint8) *rebuildRequest[K, V] {
	n.sizeSubTree++
	if !n.isDense() {
		idx := clampSlot(n.model.predict(kv.Key), len(n.entries))
		tag := n.tags.get(idx)
		switch tag {
		case tagEmpty:
			n.entries[idx].pair = kv
			n.tags.set(idx, tagData)
			n.size++
			return nil
		case tagData, tagBucket:
			if tag == tagData {
				existing := n.entries[idx].pair
				n.entries[idx] = entry[K, V]{bucket: newBucket([]Pair[K, V]{existing}, bucketSize)}
				n.tags.set(idx, tagBucket)
				n.size--
			}
			if n.entries[idx].bucket.insert(kv) {
				return nil
			}
			collected := n.entries[idx].bucket.pairs()
			collected = append(collected, kv)
			child := &node[K, V]{}
			n.entries[idx] = entry[K, V]{child: child}
			n.tags.set(idx, tagChild)
			return &rebuildRequest[K, V]{node: child, pairs: collected, depth: depth + 1}
		default: // tagChild
			return n.entries[idx].child.insert(kv, depth+1, bucketSize)
		}
	}

	idx := sort.Search(len(n.dense), func(i int) bool { return !(n.dense[i].Key < kv.Key) })
	if len(n.dense) < cap(n.dense) {
		n.dense = append(n.dense, kv)
		copy(n.dense[idx+1:], n.dense[idx:len(n.dense)-1])
		n.dense[idx] = kv
		return nil
	}
	collected := make([]Pair[K, V], len(n.dense), len(n.dense)+1)
	copy(collected, n.dense)
	collected = append(collected, kv)
	return &rebuildRequest[K, V]{node: n, pairs: collected, depth: depth}
}

// rebuildInto rebuilds target in place from kvs, overwriting its content
// the way the original destroys-then-rebuilds a saturated node; in Go this
// is a plain struct overwrite since the garbage collector reclaims the
// previous entries/bucket/child graph once nothing references it.
func rebuildInto[K Key, V Value](target *node[K, V], kvs []Pair[K, V], bucketSize uint8, aggregateSize uint32, depth uint32, maxAggregate *uint32) {
	*target = *buildNode(kvs, bucketSize, aggregateSize, depth, maxAggregate)
}

// countLivePairs walks the subtree counting live pairs by brute force,
// correctly visiting an aliased child run only once. It is used by
// Index.Diagnostics and by tests to check live counts against an
// independent computation, and is not on any hot path.
func (n *node[K, V]) countLivePairs() uint32 {
	if n.isDense() {
		return uint32(len(n.dense))
	}
	var total uint32
	for i := 0; i < len(n.entries); {
		switch n.tags.get(uint32(i)) {
		case tagData:
			total++
			i++
		case tagBucket:
			total += uint32(n.entries[i].bucket.size)
			i++
		case tagChild:
			child := n.entries[i].child
			total += child.countLivePairs()
			j := i + 1
			for j < len(n.entries) && n.tags.get(uint32(j)) == tagChild && n.entries[j].child == child {
				j++
			}
			i = j
		default:
			i++
		}
	}
	return total
}

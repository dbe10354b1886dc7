package afli

// bucket is a small fixed-capacity leaf holding up to cap(bucket) collided
// pairs, in the spirit of the teacher's node5/node51 — a flat array sized
// to the index-wide hyper-parameter B rather than to a cache line, since a
// generic value type has no fixed byte width to pack against. Keys within a
// bucket need not be sorted; the invariant that matters is that every
// stored key predicts to the same slot of the parent model (spec §3).
type bucket[K Key, V Value] struct {
	data []Pair[K, V]
	size uint8
}

// newBucket allocates a bucket of the given capacity and copies kvs into
// it. kvs must not exceed capacity.
func newBucket[K Key, V Value](kvs []Pair[K, V], capacity uint8) *bucket[K, V] {
	b := &bucket[K, V]{data: make([]Pair[K, V], capacity)}
	b.size = uint8(copy(b.data, kvs))
	return b
}

func (b *bucket[K, V]) find(key K) (*V, bool) {
	for i := 0; i < int(b.size); i++ {
		if b.data[i].Key == key {
			return &b.data[i].Value, true
		}
	}
	return nil, false
}

// update overwrites the value for an existing key. It returns false, and
// leaves the bucket untouched, when the key is absent — this is the
// corrected behavior spec §9 calls out: one source path for bucket update
// reports success without writing, which this implementation does not
// reproduce.
func (b *bucket[K, V]) update(kv Pair[K, V]) bool {
	for i := 0; i < int(b.size); i++ {
		if b.data[i].Key == kv.Key {
			b.data[i].Value = kv.Value
			return true
		}
	}
	return false
}

// remove compacts the bucket in place, returning 1 if key was present and
// removed, 0 otherwise.
func (b *bucket[K, V]) remove(key K) uint32 {
	for i := 0; i < int(b.size); i++ {
		if b.data[i].Key == key {
			copy(b.data[i:b.size-1], b.data[i+1:b.size])
			b.size--
			return 1
		}
	}
	return 0
}

// insert appends kv if there is room, reporting whether it fit. A full
// bucket is the caller's cue to promote the slot to a child node (§4.7).
func (b *bucket[K, V]) insert(kv Pair[K, V]) bool {
	if int(b.size) >= len(b.data) {
		return false
	}
	b.data[b.size] = kv
	b.size++
	return true
}

// pairs returns the live contents of the bucket as a fresh slice, used when
// a full bucket must be collected for rebuild.
func (b *bucket[K, V]) pairs() []Pair[K, V] {
	out := make([]Pair[K, V], b.size)
	copy(out, b.data[:b.size])
	return out
}

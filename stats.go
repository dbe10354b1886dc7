package afli

import (
	"unsafe"

	set3 "github.com/TomTonic/Set3"
)

// Stats is the result of a statistics walk over an index, per spec §4.11.
// ModelSizeBytes counts structural overhead only; IndexSizeBytes adds
// payload (entries and bucket capacity) on top, per SPEC_FULL.md E.4.1.
type Stats struct {
	NumModelNodes uint64
	NumDenseNodes uint64
	NumBuckets    uint64
	NumLeafNodes  uint64

	NumDataModel uint64 // data slots stored directly in model nodes
	NumDataBucket uint64 // live pairs across all buckets
	NumDataDense uint64 // live pairs across all dense nodes

	SumDepth uint64
	MaxDepth uint32

	// NodeConflictsSum is the sum, over every model node, of that node's
	// own average conflict-group size (spec §4.11's node_conflicts_
	// accumulator). Divide by NumModelNodes for a tree-wide average.
	NodeConflictsSum float64

	ModelSizeBytes uint64
	IndexSizeBytes uint64
}

// AvgConflicts returns the tree-wide average of each model node's local
// average conflict-group size, or 0 if the tree has no model nodes.
func (s Stats) AvgConflicts() float64 {
	if s.NumModelNodes == 0 {
		return 0
	}
	return s.NodeConflictsSum / float64(s.NumModelNodes)
}

type statsCollector[K Key, V Value] struct {
	stats Stats
	// seenChildren prevents counting the same aliased child twice: a
	// contiguous run of equal child pointers (spec §3, aggregation aliasing)
	// must be walked once. A Set3 of the child's address is the natural
	// idiom here, the same generic-set type the teacher already depends on
	// for membership tests (see multi_map.go's value sets).
	seenChildren *set3.Set3[uintptr]
}

// collectStats walks the subtree rooted at n and returns its conflict total,
// mirroring collect_tree_statistics's return value: a dense node returns its
// pair count; a model node returns, for each bucket, its size minus one,
// plus the conflict total of each distinct child.
func (sc *statsCollector[K, V]) collectStats(n *node[K, V], depth uint32) uint32 {
	var nodeOverhead, entryOverhead uint64
	{
		var e entry[K, V]
		entryOverhead = uint64(unsafe.Sizeof(e))
	}
	var modelOverhead uint64
	{
		var m linearModel[K]
		modelOverhead = uint64(unsafe.Sizeof(m))
	}
	var pairSize uint64
	{
		var p Pair[K, V]
		pairSize = uint64(unsafe.Sizeof(p))
	}
	var bucketOverhead uint64
	{
		var b bucket[K, V]
		bucketOverhead = uint64(unsafe.Sizeof(b))
	}
	nodeOverhead = uint64(unsafe.Sizeof(*n))

	if n.isDense() {
		sc.stats.NumDenseNodes++
		sc.stats.NumDataDense += uint32ToU64(uint32(len(n.dense)))
		sc.stats.ModelSizeBytes += nodeOverhead
		sc.stats.IndexSizeBytes += nodeOverhead + uint64(cap(n.dense))*pairSize
		sc.stats.NumLeafNodes++
		sc.stats.SumDepth += uint64(depth)
		if depth > sc.stats.MaxDepth {
			sc.stats.MaxDepth = depth
		}
		return uint32(len(n.dense))
	}

	sc.stats.NumModelNodes++
	sc.stats.ModelSizeBytes += nodeOverhead + modelOverhead
	sc.stats.IndexSizeBytes += nodeOverhead + modelOverhead + uint64(n.tags.byteLen()) + uint64(len(n.entries))*entryOverhead

	isLeaf := true
	var totConflicts uint64
	var numConflictGroups uint64

	for i := 0; i < len(n.entries); {
		switch n.tags.get(uint32(i)) {
		case tagEmpty:
			i++
		case tagData:
			sc.stats.NumDataModel++
			sc.stats.SumDepth += uint64(depth)
			i++
		case tagBucket:
			b := n.entries[i].bucket
			sc.stats.NumBuckets++
			sc.stats.NumDataBucket += uint64(b.size)
			sc.stats.ModelSizeBytes += bucketOverhead
			sc.stats.IndexSizeBytes += bucketOverhead + uint64(cap(b.data))*pairSize
			sc.stats.SumDepth += uint64(depth+1) * uint64(b.size)
			if b.size > 0 {
				totConflicts += uint64(b.size) - 1
			}
			numConflictGroups++
			i++
		case tagChild:
			child := n.entries[i].child
			isLeaf = false
			addr := uintptr(unsafe.Pointer(child))
			if !sc.seenChildren.Contains(addr) {
				sc.seenChildren.Add(addr)
				childLive := sc.collectStats(child, depth+1)
				totConflicts += uint64(childLive)
			}
			numConflictGroups++
			// Skip the rest of this contiguous aliased run.
			j := i + 1
			for j < len(n.entries) && n.tags.get(uint32(j)) == tagChild && n.entries[j].child == child {
				numConflictGroups++
				j++
			}
			i = j
		default:
			i++
		}
	}

	if numConflictGroups > 0 {
		sc.stats.NodeConflictsSum += float64(totConflicts) / float64(numConflictGroups)
	}
	if isLeaf {
		sc.stats.NumLeafNodes++
		if depth > sc.stats.MaxDepth {
			sc.stats.MaxDepth = depth
		}
	}
	return totConflicts
}

func uint32ToU64(v uint32) uint64 { return uint64(v) }

// collectTreeStats runs a full statistics walk over root, per spec §4.11.
func collectTreeStats[K Key, V Value](root *node[K, V]) Stats {
	sc := &statsCollector[K, V]{seenChildren: set3.Empty[uintptr]()}
	if root != nil {
		sc.collectStats(root, 0)
	}
	return sc.stats
}

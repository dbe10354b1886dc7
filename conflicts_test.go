package afli

import "testing"

func sortedPairs(keys []int) []Pair[int, int] {
	out := make([]Pair[int, int], len(keys))
	for i, k := range keys {
		out[i] = Pair[int, int]{Key: k, Value: k}
	}
	return out
}

func TestFitLinearModelUniformKeysNoConflicts(t *testing.T) {
	kvs := sortedPairs([]int{0, 1, 2, 3, 4, 5, 6, 7})
	_, ci, ok := fitLinearModel(kvs, 2.0)
	if !ok {
		t.Fatalf("expected a fittable model over uniform keys")
	}
	var total uint32
	for _, c := range ci.counts {
		if c != 1 {
			t.Fatalf("uniform keys produced a conflict group of size %d", c)
		}
		total += c
	}
	if total != uint32(len(kvs)) {
		t.Fatalf("conflict counts sum to %d, want %d", total, len(kvs))
	}
}

func TestFitLinearModelDegenerateRange(t *testing.T) {
	kvs := []Pair[int, int]{{Key: 5, Value: 0}, {Key: 5, Value: 1}}
	_, _, ok := fitLinearModel(kvs, 2.0)
	if ok {
		t.Fatalf("equal min/max key must not produce a fittable model")
	}
}

func TestFitLinearModelSingleElement(t *testing.T) {
	_, _, ok := fitLinearModel(sortedPairs([]int{1}), 2.0)
	if ok {
		t.Fatalf("a single-element batch must fall back to a dense node")
	}
}

func TestComputeTailConflictsClustered(t *testing.T) {
	keys := make([]int, 0, 100)
	for i := 0; i < 90; i++ {
		keys = append(keys, i)
	}
	for i := 0; i < 10; i++ {
		keys = append(keys, 1000+i/2)
	}
	kvs := sortedPairs(keys)
	tail := computeTailConflicts(kvs, 2.0, 0.99)
	if tail == 0 {
		t.Fatalf("expected a non-zero tail conflict for a clustered tail")
	}
}

func TestTailConflictsOnBareKeys(t *testing.T) {
	keys := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	tail := TailConflicts(keys, 1.5, 0.99)
	_ = tail // just confirm it does not panic on a clean, uniform batch
}

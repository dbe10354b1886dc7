package afli

import "testing"

func TestStatsCountsDenseFallback(t *testing.T) {
	idx := NewIndex[int, int]()
	idx.BulkLoad(sortedPairs([]int{1}), 1, 0)
	st := idx.Stats()
	if st.NumDenseNodes != 1 {
		t.Fatalf("NumDenseNodes = %d, want 1", st.NumDenseNodes)
	}
	if st.NumDataDense != 1 {
		t.Fatalf("NumDataDense = %d, want 1", st.NumDataDense)
	}
	if st.NumModelNodes != 0 {
		t.Fatalf("NumModelNodes = %d, want 0", st.NumModelNodes)
	}
}

func TestStatsAccountsAllLiveData(t *testing.T) {
	keys := make([]int, 500)
	for i := range keys {
		keys[i] = i * 13
	}
	idx := NewIndex[int, int]()
	idx.BulkLoad(sortedPairs(keys), 3, 0)

	st := idx.Stats()
	total := st.NumDataModel + st.NumDataBucket + st.NumDataDense
	if total != uint32ToU64(uint32(len(keys))) {
		t.Fatalf("stats account for %d pairs, want %d", total, len(keys))
	}
	if st.ModelSizeBytes == 0 || st.IndexSizeBytes == 0 {
		t.Fatalf("expected non-zero size totals")
	}
	if st.IndexSizeBytes < st.ModelSizeBytes {
		t.Fatalf("index_size (%d) must be >= model_size (%d)", st.IndexSizeBytes, st.ModelSizeBytes)
	}
}

func TestStatsSkipsAliasedChildRunOnce(t *testing.T) {
	keys := make([]int, 0, 300)
	for i := 0; i < 50; i++ {
		keys = append(keys, i*100)
	}
	for i := 0; i < 250; i++ {
		keys = append(keys, 1_000_000+i)
	}
	idx := NewIndex[int, int]()
	idx.BulkLoad(sortedPairs(keys), 2, 0)

	st := idx.Stats()
	total := st.NumDataModel + st.NumDataBucket + st.NumDataDense
	if total != uint32ToU64(uint32(len(keys))) {
		t.Fatalf("aliased children must be counted once: total=%d want=%d", total, len(keys))
	}
}

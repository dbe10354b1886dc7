package workload

import (
	"bytes"
	"testing"
)

func TestInt64CodecRoundTrip(t *testing.T) {
	records := []Record[int64, int64]{
		{Op: OpBulkLoad, Key: 1, Value: 10},
		{Op: OpBulkLoad, Key: 2, Value: 20},
		{Op: OpQuery, Key: 1, Value: 0},
		{Op: OpUpdate, Key: 2, Value: 99},
		{Op: OpInsert, Key: 3, Value: 30},
		{Op: OpDelete, Key: 1, Value: 0},
	}

	codec := Int64Codec()
	var buf bytes.Buffer
	if err := codec.WriteFile(&buf, records); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := codec.ReadFile(&buf)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(got) != len(records) {
		t.Fatalf("got %d records, want %d", len(got), len(records))
	}
	for i, rec := range records {
		if got[i] != rec {
			t.Fatalf("record %d = %+v, want %+v", i, got[i], rec)
		}
	}
}

func TestFloat64CodecRoundTrip(t *testing.T) {
	records := []Record[float64, int64]{
		{Op: OpBulkLoad, Key: 1.5, Value: 1},
		{Op: OpQuery, Key: -2.25, Value: 0},
	}
	codec := Float64Codec()
	var buf bytes.Buffer
	if err := codec.WriteFile(&buf, records); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := codec.ReadFile(&buf)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	for i, rec := range records {
		if got[i] != rec {
			t.Fatalf("record %d = %+v, want %+v", i, got[i], rec)
		}
	}
}

func TestReadFileRejectsNegativeCount(t *testing.T) {
	buf := bytes.NewBuffer([]byte{0xff, 0xff, 0xff, 0xff})
	codec := Int64Codec()
	if _, err := codec.ReadFile(buf); err == nil {
		t.Fatalf("expected an error for a negative record count")
	}
}

func TestOpString(t *testing.T) {
	if OpBulkLoad.String() != "bulk_load" {
		t.Fatalf("OpBulkLoad.String() = %q", OpBulkLoad.String())
	}
	if Op(99).String() == "" {
		t.Fatalf("unknown op should still stringify to something non-empty")
	}
}

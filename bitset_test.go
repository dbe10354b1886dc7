package afli

import "testing"

func TestTagBitmapSetGet(t *testing.T) {
	bm := newTagBitmap(200)
	tags := []slotTag{tagEmpty, tagData, tagBucket, tagChild}
	for i := uint32(0); i < 200; i++ {
		bm.set(i, tags[i%4])
	}
	for i := uint32(0); i < 200; i++ {
		if got := bm.get(i); got != tags[i%4] {
			t.Fatalf("slot %d: got %v, want %v", i, got, tags[i%4])
		}
	}
}

func TestTagBitmapOverwrite(t *testing.T) {
	bm := newTagBitmap(10)
	bm.set(3, tagChild)
	if bm.get(3) != tagChild {
		t.Fatalf("expected tagChild after set")
	}
	bm.set(3, tagEmpty)
	if bm.get(3) != tagEmpty {
		t.Fatalf("expected tagEmpty after overwrite")
	}
	// Neighboring slots must be untouched.
	bm.set(4, tagBucket)
	if bm.get(3) != tagEmpty {
		t.Fatalf("setting slot 4 disturbed slot 3")
	}
}

func TestTagBitmapCrossesWordBoundary(t *testing.T) {
	bm := newTagBitmap(130)
	bm.set(63, tagChild)
	bm.set(64, tagData)
	bm.set(65, tagBucket)
	if bm.get(63) != tagChild || bm.get(64) != tagData || bm.get(65) != tagBucket {
		t.Fatalf("word-boundary slots corrupted: %v %v %v", bm.get(63), bm.get(64), bm.get(65))
	}
}

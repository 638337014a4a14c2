package xv6fs

import "testing"

func TestBallocBfree(t *testing.T) {
	im := newTestImage(t, 1024, 200, 30)

	b1, err := im.Balloc()
	if err != nil {
		t.Fatalf("Balloc: %v", err)
	}
	if !im.ValidDataBlock(b1) {
		t.Fatalf("Balloc returned %d, not a valid data block", b1)
	}

	b2, err := im.Balloc()
	if err != nil {
		t.Fatalf("Balloc: %v", err)
	}
	if b1 == b2 {
		t.Fatalf("Balloc returned the same block twice: %d", b1)
	}

	if err := im.Bfree(b1); err != nil {
		t.Fatalf("Bfree: %v", err)
	}
	b3, err := im.Balloc()
	if err != nil {
		t.Fatalf("Balloc: %v", err)
	}
	if b3 != b1 {
		t.Errorf("Balloc after Bfree returned %d, want reused block %d", b3, b1)
	}
}

func TestBallocZerosBlock(t *testing.T) {
	im := newTestImage(t, 1024, 200, 30)
	b, err := im.Balloc()
	if err != nil {
		t.Fatalf("Balloc: %v", err)
	}
	blk := im.Block(b)
	for i := range blk {
		blk[i] = 0xff
	}
	if err := im.Bfree(b); err != nil {
		t.Fatalf("Bfree: %v", err)
	}
	b2, err := im.Balloc()
	if err != nil {
		t.Fatalf("Balloc: %v", err)
	}
	if b2 != b {
		t.Fatalf("expected to reuse block %d, got %d", b, b2)
	}
	for i, v := range im.Block(b2) {
		if v != 0 {
			t.Fatalf("byte %d of reallocated block = %#x, want 0", i, v)
		}
	}
}

func TestBfreeOutOfRange(t *testing.T) {
	im := newTestImage(t, 1024, 200, 30)
	if err := im.Bfree(0); err != ErrOutOfRange {
		t.Errorf("Bfree(0) = %v, want ErrOutOfRange", err)
	}
}

func TestExhaustBlocks(t *testing.T) {
	im := newTestImage(t, 40, 16, 2)
	var fatal *FatalError
	for i := 0; i < 1000; i++ {
		if _, err := im.Balloc(); err != nil {
			if !asFatal(err, &fatal) {
				t.Fatalf("Balloc returned non-fatal error: %v", err)
			}
			if fatal.Kind != NoFreeBlock {
				t.Fatalf("fatal kind = %v, want NoFreeBlock", fatal.Kind)
			}
			return
		}
	}
	t.Fatal("Balloc never exhausted the image")
}

func asFatal(err error, target **FatalError) bool {
	fe, ok := err.(*FatalError)
	if !ok {
		return false
	}
	*target = fe
	return true
}

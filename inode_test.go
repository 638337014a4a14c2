package xv6fs

import (
	"bytes"
	"testing"
)

func TestIWriteIReadRoundtrip(t *testing.T) {
	im := newTestImage(t, 1024, 200, 30)
	inum, err := im.IAlloc(FileKind)
	if err != nil {
		t.Fatalf("IAlloc: %v", err)
	}

	data := bytes.Repeat([]byte("xv6"), 100)
	if n, err := im.IWrite(inum, 0, data); err != nil || n != len(data) {
		t.Fatalf("IWrite = (%d, %v), want (%d, nil)", n, err, len(data))
	}

	buf := make([]byte, len(data))
	n, err := im.IRead(inum, 0, buf)
	if err != nil {
		t.Fatalf("IRead: %v", err)
	}
	if n != len(data) || !bytes.Equal(buf, data) {
		t.Fatalf("IRead round-trip mismatch")
	}
}

func TestIWriteSpansIndirectBlock(t *testing.T) {
	im := newTestImage(t, 4096, 200, 30)
	inum, err := im.IAlloc(FileKind)
	if err != nil {
		t.Fatalf("IAlloc: %v", err)
	}

	size := (NDirect + 5) * BSize
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i)
	}
	if _, err := im.IWrite(inum, 0, data); err != nil {
		t.Fatalf("IWrite: %v", err)
	}

	d, err := im.GetDinode(inum)
	if err != nil {
		t.Fatalf("GetDinode: %v", err)
	}
	if d.Addrs[NDirect] == 0 {
		t.Fatal("indirect block pointer not allocated for a file spanning past NDirect blocks")
	}

	buf := make([]byte, size)
	if _, err := im.IRead(inum, 0, buf); err != nil {
		t.Fatalf("IRead: %v", err)
	}
	if !bytes.Equal(buf, data) {
		t.Fatal("round-trip through the indirect block corrupted data")
	}
}

func TestIWriteRejectsHoles(t *testing.T) {
	im := newTestImage(t, 1024, 200, 30)
	inum, err := im.IAlloc(FileKind)
	if err != nil {
		t.Fatalf("IAlloc: %v", err)
	}
	if _, err := im.IWrite(inum, BSize*4, []byte("hi")); err != ErrOutOfRange {
		t.Errorf("IWrite past current size = %v, want ErrOutOfRange", err)
	}
}

// TestIReadStopsAtInvalidDataBlock exercises a direct Addrs[n] pointer
// that has been hand-corrupted (as modfs's inode.addrs editor permits)
// to a value outside the data region. IRead must degrade to a short read
// returning whatever was read before the bad block, not panic.
func TestIReadStopsAtInvalidDataBlock(t *testing.T) {
	im := newTestImage(t, 1024, 200, 30)
	inum, err := im.IAlloc(FileKind)
	if err != nil {
		t.Fatalf("IAlloc: %v", err)
	}
	if _, err := im.IWrite(inum, 0, []byte("hello world")); err != nil {
		t.Fatalf("IWrite: %v", err)
	}

	d, err := im.GetDinode(inum)
	if err != nil {
		t.Fatalf("GetDinode: %v", err)
	}
	d.Addrs[0] = 999999999
	if err := im.PutDinode(inum, d); err != nil {
		t.Fatalf("PutDinode: %v", err)
	}

	buf := make([]byte, 11)
	n, err := im.IRead(inum, 0, buf)
	if err != nil {
		t.Fatalf("IRead: %v", err)
	}
	if n != 0 {
		t.Errorf("IRead past a corrupted block pointer returned n=%d, want 0 (short read)", n)
	}
}

// TestIWriteStopsAtInvalidDataBlock is the write-side counterpart: a
// corrupted indirect block pointer must make IWrite degrade to a short
// write instead of panicking.
func TestIWriteStopsAtInvalidDataBlock(t *testing.T) {
	im := newTestImage(t, 4096, 200, 30)
	inum, err := im.IAlloc(FileKind)
	if err != nil {
		t.Fatalf("IAlloc: %v", err)
	}
	size := (NDirect + 5) * BSize
	if _, err := im.IWrite(inum, 0, make([]byte, size)); err != nil {
		t.Fatalf("IWrite: %v", err)
	}

	d, err := im.GetDinode(inum)
	if err != nil {
		t.Fatalf("GetDinode: %v", err)
	}
	d.Addrs[NDirect] = 999999999 // corrupt the indirect block pointer itself
	if err := im.PutDinode(inum, d); err != nil {
		t.Fatalf("PutDinode: %v", err)
	}

	n, err := im.IWrite(inum, NDirect*BSize, make([]byte, BSize))
	if err != nil {
		t.Fatalf("IWrite: %v", err)
	}
	if n != 0 {
		t.Errorf("IWrite past a corrupted indirect pointer returned n=%d, want 0 (short write)", n)
	}
}

func TestITruncateGrowAndShrink(t *testing.T) {
	im := newTestImage(t, 1024, 200, 30)
	inum, err := im.IAlloc(FileKind)
	if err != nil {
		t.Fatalf("IAlloc: %v", err)
	}
	if _, err := im.IWrite(inum, 0, []byte("hello world")); err != nil {
		t.Fatalf("IWrite: %v", err)
	}

	if err := im.ITruncate(inum, BSize*3); err != nil {
		t.Fatalf("ITruncate grow: %v", err)
	}
	d, err := im.GetDinode(inum)
	if err != nil {
		t.Fatalf("GetDinode: %v", err)
	}
	if d.Size != BSize*3 {
		t.Fatalf("Size after grow = %d, want %d", d.Size, BSize*3)
	}

	if err := im.ITruncate(inum, 0); err != nil {
		t.Fatalf("ITruncate shrink: %v", err)
	}
	d, err = im.GetDinode(inum)
	if err != nil {
		t.Fatalf("GetDinode: %v", err)
	}
	if d.Size != 0 {
		t.Fatalf("Size after shrink = %d, want 0", d.Size)
	}
	for i, a := range d.Addrs {
		if a != 0 {
			t.Errorf("Addrs[%d] = %d after full truncate, want 0", i, a)
		}
	}
}

func TestIAllocExhaustion(t *testing.T) {
	im := newTestImage(t, 1024, 4, 2)
	var lastErr error
	for i := 0; i < 10; i++ {
		_, lastErr = im.IAlloc(FileKind)
		if lastErr != nil {
			break
		}
	}
	fe, ok := lastErr.(*FatalError)
	if !ok {
		t.Fatalf("IAlloc exhaustion error = %v, want *FatalError", lastErr)
	}
	if fe.Kind != NoFreeInode {
		t.Errorf("fatal kind = %v, want NoFreeInode", fe.Kind)
	}
}

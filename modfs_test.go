package xv6fs

import (
	"bytes"
	"strings"
	"testing"
)

func TestSuperblockFieldGetSet(t *testing.T) {
	im := newTestImage(t, 1024, 200, 30)
	v, ok := im.SuperblockField("ninodes")
	if !ok || v != 200 {
		t.Fatalf("SuperblockField(ninodes) = (%d, %v), want (200, true)", v, ok)
	}
	if !im.SetSuperblockField("ninodes", 64) {
		t.Fatal("SetSuperblockField(ninodes) = false")
	}
	v, ok = im.SuperblockField("ninodes")
	if !ok || v != 64 {
		t.Fatalf("SuperblockField(ninodes) after set = (%d, %v), want (64, true)", v, ok)
	}
	if _, ok := im.SuperblockField("bogus"); ok {
		t.Error("SuperblockField(bogus) = true, want false")
	}
	if im.SetSuperblockField("bogus", 1) {
		t.Error("SetSuperblockField(bogus) = true, want false")
	}
}

func TestBitmapGetSet(t *testing.T) {
	im := newTestImage(t, 1024, 200, 30)
	// Block DStart() holds the root directory's "." and ".." entries,
	// written by Format; the next data block is still free.
	free := im.Superblock().DStart() + 1

	set, err := im.Bitmap(free)
	if err != nil {
		t.Fatalf("Bitmap: %v", err)
	}
	if set {
		t.Fatal("freshly formatted data block reported allocated")
	}
	if err := im.SetBitmap(free, true); err != nil {
		t.Fatalf("SetBitmap: %v", err)
	}
	set, err = im.Bitmap(free)
	if err != nil {
		t.Fatalf("Bitmap: %v", err)
	}
	if !set {
		t.Fatal("SetBitmap(true) did not stick")
	}
	if _, err := im.Bitmap(im.Superblock().Size()); err != ErrOutOfRange {
		t.Errorf("Bitmap(out of range) = %v, want ErrOutOfRange", err)
	}
}

func TestInodeFieldAccessors(t *testing.T) {
	im := newTestImage(t, 1024, 200, 30)
	inum, err := im.Icreat(RootInodeNumber, "f", FileKind, nil)
	if err != nil {
		t.Fatalf("Icreat: %v", err)
	}

	if err := im.SetInodeSize(inum, 4096); err != nil {
		t.Fatalf("SetInodeSize: %v", err)
	}
	size, err := im.InodeSize(inum)
	if err != nil {
		t.Fatalf("InodeSize: %v", err)
	}
	if size != 4096 {
		t.Errorf("InodeSize = %d, want 4096", size)
	}

	if err := im.SetInodeNlink(inum, 7); err != nil {
		t.Fatalf("SetInodeNlink: %v", err)
	}
	nlink, err := im.InodeNlink(inum)
	if err != nil {
		t.Fatalf("InodeNlink: %v", err)
	}
	if nlink != 7 {
		t.Errorf("InodeNlink = %d, want 7", nlink)
	}

	if err := im.SetInodeType(inum, uint16(DevType)); err != nil {
		t.Fatalf("SetInodeType: %v", err)
	}
	typ, err := im.InodeType(inum)
	if err != nil {
		t.Fatalf("InodeType: %v", err)
	}
	if FileType(typ) != DevType {
		t.Errorf("InodeType = %v, want DevType", FileType(typ))
	}

	if err := im.SetInodeAddr(inum, 3, 555); err != nil {
		t.Fatalf("SetInodeAddr: %v", err)
	}
	addr, err := im.InodeAddr(inum, 3)
	if err != nil {
		t.Fatalf("InodeAddr: %v", err)
	}
	if addr != 555 {
		t.Errorf("InodeAddr(3) = %d, want 555", addr)
	}

	if _, err := im.InodeType(0); err != ErrOutOfRange {
		t.Errorf("InodeType(0) = %v, want ErrOutOfRange", err)
	}
}

func TestInodeIndirectAddr(t *testing.T) {
	im := newTestImage(t, 4096, 200, 30)
	inum, err := im.Icreat(RootInodeNumber, "big", FileKind, nil)
	if err != nil {
		t.Fatalf("Icreat: %v", err)
	}
	ib, err := im.Balloc()
	if err != nil {
		t.Fatalf("Balloc: %v", err)
	}
	if err := im.SetInodeIndirect(inum, ib); err != nil {
		t.Fatalf("SetInodeIndirect: %v", err)
	}
	if got, err := im.InodeIndirect(inum); err != nil || got != ib {
		t.Fatalf("InodeIndirect = (%d, %v), want (%d, nil)", got, err, ib)
	}
	if err := im.SetInodeAddr(inum, NDirect+2, 777); err != nil {
		t.Fatalf("SetInodeAddr(indirect): %v", err)
	}
	got, err := im.InodeAddr(inum, NDirect+2)
	if err != nil {
		t.Fatalf("InodeAddr(indirect): %v", err)
	}
	if got != 777 {
		t.Errorf("InodeAddr(NDirect+2) = %d, want 777", got)
	}
}

func TestDirentGetSetDelete(t *testing.T) {
	im := newTestImage(t, 1024, 200, 30)
	a, err := im.Icreat(RootInodeNumber, "a", FileKind, nil)
	if err != nil {
		t.Fatalf("Icreat a: %v", err)
	}
	b, err := im.Icreat(RootInodeNumber, "b", FileKind, nil)
	if err != nil {
		t.Fatalf("Icreat b: %v", err)
	}

	got, err := im.Dirent(".", "a")
	if err != nil {
		t.Fatalf("Dirent: %v", err)
	}
	if got != a {
		t.Fatalf("Dirent(a) = %d, want %d", got, a)
	}

	if err := im.SetDirent(".", "a", b); err != nil {
		t.Fatalf("SetDirent: %v", err)
	}
	got, err = im.Dirent(".", "a")
	if err != nil {
		t.Fatalf("Dirent after SetDirent: %v", err)
	}
	if got != b {
		t.Fatalf("Dirent(a) after SetDirent = %d, want %d", got, b)
	}

	if err := im.DeleteDirent(".", "a"); err != nil {
		t.Fatalf("DeleteDirent: %v", err)
	}
	if _, err := im.Dirent(".", "a"); err != ErrNotFound {
		t.Errorf("Dirent after delete = %v, want ErrNotFound", err)
	}

	if _, err := im.Dirent(".", "missing"); err != ErrNotFound {
		t.Errorf("Dirent(missing) = %v, want ErrNotFound", err)
	}
}

func TestDirentRejectsNonDirectory(t *testing.T) {
	im := newTestImage(t, 1024, 200, 30)
	if err := im.Put("f", strings.NewReader("x")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, err := im.Dirent("f", "anything"); err != ErrNotDirectory {
		t.Errorf("Dirent through a file = %v, want ErrNotDirectory", err)
	}
}

// TestSetInodeAddrThenGetDegradesToShortRead reproduces the exact corrupt-
// then-read sequence modfs is meant to allow: an unchecked direct-slot
// write through SetInodeAddr, followed by an ordinary opfs Get, must
// degrade to a short read rather than panic.
func TestSetInodeAddrThenGetDegradesToShortRead(t *testing.T) {
	im := newTestImage(t, 1024, 200, 30)
	if err := im.Put("f", strings.NewReader("hello world")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	if err := im.SetInodeAddr(2, 0, 999999999); err != nil {
		t.Fatalf("SetInodeAddr: %v", err)
	}

	var buf bytes.Buffer
	if err := im.Get(&buf, "f"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("Get after corrupting addrs[0] = %q, want empty (short read)", buf.String())
	}
}

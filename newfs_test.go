package xv6fs

import "testing"

func TestFormatLayout(t *testing.T) {
	im := newTestImage(t, 1024, 200, 30)
	sb := im.Superblock()

	if !sb.Valid() {
		t.Fatal("superblock magic not set")
	}
	if sb.Size() != 1024 {
		t.Errorf("Size() = %d, want 1024", sb.Size())
	}
	if sb.NInodes() != 200 {
		t.Errorf("NInodes() = %d, want 200", sb.NInodes())
	}
	if sb.NLog() != 30 {
		t.Errorf("NLog() = %d, want 30", sb.NLog())
	}
	if got, want := sb.LogStart(), uint32(2); got != want {
		t.Errorf("LogStart() = %d, want %d", got, want)
	}
	if got, want := sb.InodeStart(), uint32(32); got != want {
		t.Errorf("InodeStart() = %d, want %d", got, want)
	}
}

func TestFormatRootDirectory(t *testing.T) {
	im := newTestImage(t, 1024, 200, 30)

	d, err := im.GetDinode(RootInodeNumber)
	if err != nil {
		t.Fatalf("GetDinode(root): %v", err)
	}
	if d.FileType() != DirType {
		t.Fatalf("root inode type = %v, want DirType", d.FileType())
	}

	ents, err := im.ReadDir(RootInodeNumber)
	if err != nil {
		t.Fatalf("ReadDir(root): %v", err)
	}
	if len(ents) != 2 {
		t.Fatalf("root directory has %d entries, want 2", len(ents))
	}
	for _, de := range ents {
		if de.NameString() != "." && de.NameString() != ".." {
			t.Errorf("unexpected root entry %q", de.NameString())
		}
		if de.Inum != RootInodeNumber {
			t.Errorf("entry %q points at inode %d, want %d", de.NameString(), de.Inum, RootInodeNumber)
		}
	}
}

func TestFormatReportString(t *testing.T) {
	im := newTestImage(t, 1024, 200, 30)
	report, err := Format(im, 1024, 200, 30)
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if report.NiBlocks != 26 {
		t.Errorf("NiBlocks = %d, want 26", report.NiBlocks)
	}
	if report.NmBlocks != 1 {
		t.Errorf("NmBlocks = %d, want 1", report.NmBlocks)
	}
}

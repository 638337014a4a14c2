package xv6fs

import (
	"bytes"
	"encoding/binary"
)

// Dirent is one fixed-size directory entry: a 14-byte, NUL-padded name and
// the inode number it names. Inum 0 marks a free (reusable) slot, the same
// convention the original's dirlookup/dirlink use.
type Dirent struct {
	Inum uint16
	Name [DirSiz]byte
}

// NameString returns the entry's name with trailing NUL bytes trimmed.
func (de *Dirent) NameString() string {
	n := bytes.IndexByte(de.Name[:], 0)
	if n == -1 {
		n = DirSiz
	}
	return string(de.Name[:n])
}

func decodeDirent(b []byte) Dirent {
	var de Dirent
	de.Inum = binary.LittleEndian.Uint16(b[0:2])
	copy(de.Name[:], b[2:2+DirSiz])
	return de
}

func encodeDirent(de Dirent) []byte {
	b := make([]byte, direntSize)
	binary.LittleEndian.PutUint16(b[0:2], de.Inum)
	copy(b[2:2+DirSiz], de.Name[:])
	return b
}

func makeDirent(inum uint32, name string) Dirent {
	var de Dirent
	de.Inum = uint16(inum)
	copy(de.Name[:], name) // truncates silently past DirSiz, as the original's strncpy does
	return de
}

// readDirentAt reads the entry at byte offset off within directory inode
// dirInum.
func (im *Image) readDirentAt(dirInum uint32, off uint32) (Dirent, error) {
	buf := make([]byte, direntSize)
	n, err := im.IRead(dirInum, off, buf)
	if err != nil {
		return Dirent{}, err
	}
	if n < direntSize {
		return Dirent{}, nil
	}
	return decodeDirent(buf), nil
}

func (im *Image) writeDirentAt(dirInum uint32, off uint32, de Dirent) error {
	_, err := im.IWrite(dirInum, off, encodeDirent(de))
	return err
}

// ReadDir returns every in-use (Inum != 0) entry of directory inode
// dirInum, in on-disk order.
func (im *Image) ReadDir(dirInum uint32) ([]Dirent, error) {
	d, err := im.GetDinode(dirInum)
	if err != nil {
		return nil, err
	}
	if d.FileType() != DirType {
		return nil, ErrNotDirectory
	}
	var out []Dirent
	for off := uint32(0); off+direntSize <= d.Size; off += direntSize {
		de, err := im.readDirentAt(dirInum, off)
		if err != nil {
			return nil, err
		}
		if de.Inum != 0 {
			out = append(out, de)
		}
	}
	return out, nil
}

// Dlookup searches directory inode dirInum for name, returning the inode
// number it names, the byte offset of its entry, and whether it was
// found. It never special-cases "." or ".." — those are ordinary entries
// written by PopulateDir (or by Format for the root), exactly as in the
// original's dirlookup.
func (im *Image) Dlookup(dirInum uint32, name string) (inum uint32, off uint32, found bool, err error) {
	d, err := im.GetDinode(dirInum)
	if err != nil {
		return 0, 0, false, err
	}
	if d.FileType() != DirType {
		return 0, 0, false, ErrNotDirectory
	}
	for o := uint32(0); o+direntSize <= d.Size; o += direntSize {
		de, err := im.readDirentAt(dirInum, o)
		if err != nil {
			return 0, 0, false, err
		}
		if de.Inum != 0 && de.NameString() == name {
			return uint32(de.Inum), o, true, nil
		}
	}
	return 0, 0, false, nil
}

// Daddent writes a new (name, inum) entry into directory inode dirInum,
// reusing the first free slot if one exists and appending a fresh one
// otherwise, mirroring daddent's scan-then-append behavior. Unless name is
// ".", it also bumps inum's own link count, the same side effect daddent
// has in the original (a self-link never counts towards its own nlink).
// It returns ErrExists if name is already present.
func (im *Image) Daddent(dirInum uint32, name string, inum uint32) error {
	d, err := im.GetDinode(dirInum)
	if err != nil {
		return err
	}
	if d.FileType() != DirType {
		return ErrNotDirectory
	}

	var off uint32
	found := false
	for o := uint32(0); o+direntSize <= d.Size; o += direntSize {
		de, err := im.readDirentAt(dirInum, o)
		if err != nil {
			return err
		}
		if de.Inum == 0 {
			if !found {
				off = o
				found = true
			}
			continue
		}
		if de.NameString() == name {
			return ErrExists
		}
	}
	if !found {
		off = d.Size
	}
	if err := im.writeDirentAt(dirInum, off, makeDirent(inum, name)); err != nil {
		return err
	}
	if name != "." {
		target, err := im.GetDinode(inum)
		if err != nil {
			return err
		}
		target.Nlink++
		if err := im.PutDinode(inum, target); err != nil {
			return err
		}
	}
	return nil
}

// PopulateDir writes the "." and ".." entries a freshly allocated empty
// directory inode needs, as icreat does right after ialloc for a new
// directory.
func (im *Image) PopulateDir(dirInum, parentInum uint32) error {
	if err := im.Daddent(dirInum, ".", dirInum); err != nil {
		return err
	}
	return im.Daddent(dirInum, "..", parentInum)
}

// Dmkparlink re-parents an existing directory inode cInum by rewriting
// its ".." entry to point at pInum and bumping pInum's link count, the
// way mv reattaches a moved directory to its new parent. It does not
// adjust the old parent's link count; the caller is responsible for that
// (mv's do_mv decrements the old parent's nlink separately).
func (im *Image) Dmkparlink(pInum, cInum uint32) error {
	pd, err := im.GetDinode(pInum)
	if err != nil {
		return err
	}
	if pd.FileType() != DirType {
		return ErrNotDirectory
	}
	cd, err := im.GetDinode(cInum)
	if err != nil {
		return err
	}
	if cd.FileType() != DirType {
		return ErrNotDirectory
	}
	_, off, found, err := im.Dlookup(cInum, "..")
	if err != nil {
		return err
	}
	if !found {
		off = cd.Size
	}
	if err := im.writeDirentAt(cInum, off, makeDirent(pInum, "..")); err != nil {
		return err
	}
	pd.Nlink++
	return im.PutDinode(pInum, pd)
}

// EmptyDir reports whether directory inode dirInum contains only "." and
// "..", the precondition rmdir checks before unlinking a directory.
func (im *Image) EmptyDir(dirInum uint32) (bool, error) {
	ents, err := im.ReadDir(dirInum)
	if err != nil {
		return false, err
	}
	for _, de := range ents {
		n := de.NameString()
		if n != "." && n != ".." {
			return false, nil
		}
	}
	return true, nil
}

// Dunlink clears the entry at byte offset off within directory inode
// dirInum, turning its slot free for reuse by a later Daddent.
func (im *Image) Dunlink(dirInum, off uint32) error {
	return im.writeDirentAt(dirInum, off, Dirent{})
}

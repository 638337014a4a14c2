package xv6fs

import "encoding/binary"

// modfs.go implements the ckfs/modfs verb set: direct, unchecked reads and
// writes of individual on-disk fields — superblock fields, single bitmap
// bits, per-inode fields, and directory-entry inode numbers — for probing
// and deliberately corrupting an image in ways the structured opfs verbs
// would refuse. Every getter/setter here goes straight through Image,
// Superblock and DInode's own re-read/re-write accessors, so a change
// made through one of these is immediately visible to every other
// operation run against the same *Image afterwards.

// SuperblockField reads a named superblock field. ok is false for an
// unrecognized name.
func (im *Image) SuperblockField(name string) (uint32, bool) {
	return im.Superblock().Field(name)
}

// SetSuperblockField writes a named superblock field. ok is false for an
// unrecognized name.
func (im *Image) SetSuperblockField(name string, v uint32) bool {
	return im.Superblock().SetField(name, v)
}

// Bitmap reads the allocation bit for block bnum. It fails if bnum is not
// less than the superblock's total block count.
func (im *Image) Bitmap(bnum uint32) (bool, error) {
	if bnum >= im.Superblock().Size() {
		return false, ErrOutOfRange
	}
	return im.bitSet(bnum), nil
}

// SetBitmap sets or clears the allocation bit for block bnum.
func (im *Image) SetBitmap(bnum uint32, v bool) error {
	if bnum >= im.Superblock().Size() {
		return ErrOutOfRange
	}
	if v {
		im.setBit(bnum)
	} else {
		im.clearBit(bnum)
	}
	return nil
}

func (im *Image) checkInum(inum uint32) error {
	if inum < 1 || inum >= im.Superblock().NInodes() {
		return ErrOutOfRange
	}
	return nil
}

// InodeType reads inode inum's raw type field.
func (im *Image) InodeType(inum uint32) (uint16, error) {
	if err := im.checkInum(inum); err != nil {
		return 0, err
	}
	d, err := im.GetDinode(inum)
	if err != nil {
		return 0, err
	}
	return d.Type, nil
}

// SetInodeType writes inode inum's raw type field, bypassing IAlloc's
// free-slot bookkeeping entirely — callers get exactly the corruption
// they ask for.
func (im *Image) SetInodeType(inum uint32, t uint16) error {
	if err := im.checkInum(inum); err != nil {
		return err
	}
	d, err := im.GetDinode(inum)
	if err != nil {
		return err
	}
	d.Type = t
	return im.PutDinode(inum, d)
}

// InodeNlink reads inode inum's link count.
func (im *Image) InodeNlink(inum uint32) (uint16, error) {
	if err := im.checkInum(inum); err != nil {
		return 0, err
	}
	d, err := im.GetDinode(inum)
	if err != nil {
		return 0, err
	}
	return d.Nlink, nil
}

// SetInodeNlink writes inode inum's link count directly.
func (im *Image) SetInodeNlink(inum uint32, n uint16) error {
	if err := im.checkInum(inum); err != nil {
		return err
	}
	d, err := im.GetDinode(inum)
	if err != nil {
		return err
	}
	d.Nlink = n
	return im.PutDinode(inum, d)
}

// InodeSize reads inode inum's size field.
func (im *Image) InodeSize(inum uint32) (uint32, error) {
	if err := im.checkInum(inum); err != nil {
		return 0, err
	}
	d, err := im.GetDinode(inum)
	if err != nil {
		return 0, err
	}
	return d.Size, nil
}

// SetInodeSize writes inode inum's size field directly, without freeing
// or zero-filling any blocks the way ITruncate would.
func (im *Image) SetInodeSize(inum uint32, size uint32) error {
	if err := im.checkInum(inum); err != nil {
		return err
	}
	d, err := im.GetDinode(inum)
	if err != nil {
		return err
	}
	d.Size = size
	return im.PutDinode(inum, d)
}

// InodeIndirect reads inode inum's single indirect block pointer
// (addrs[NDirect]).
func (im *Image) InodeIndirect(inum uint32) (uint32, error) {
	if err := im.checkInum(inum); err != nil {
		return 0, err
	}
	d, err := im.GetDinode(inum)
	if err != nil {
		return 0, err
	}
	return d.Addrs[NDirect], nil
}

// SetInodeIndirect writes inode inum's indirect block pointer directly.
func (im *Image) SetInodeIndirect(inum, addr uint32) error {
	if err := im.checkInum(inum); err != nil {
		return err
	}
	d, err := im.GetDinode(inum)
	if err != nil {
		return err
	}
	d.Addrs[NDirect] = addr
	return im.PutDinode(inum, d)
}

// InodeAddr reads inode inum's n-th block address: a direct addrs[n]
// entry when n < NDirect, or the n-NDirect-th entry of its indirect block
// otherwise. It fails if the indirect block pointer does not itself name
// a valid data block.
func (im *Image) InodeAddr(inum, n uint32) (uint32, error) {
	if err := im.checkInum(inum); err != nil {
		return 0, err
	}
	d, err := im.GetDinode(inum)
	if err != nil {
		return 0, err
	}
	if n < NDirect {
		return d.Addrs[n], nil
	}
	if n >= NDirect+NIndirect {
		return 0, ErrOutOfRange
	}
	ib := d.Addrs[NDirect]
	if !im.ValidDataBlock(ib) {
		return 0, ErrOutOfRange
	}
	return binary.LittleEndian.Uint32(im.Block(ib)[(n-NDirect)*4:]), nil
}

// SetInodeAddr writes inode inum's n-th block address, following the same
// direct/indirect split as InodeAddr.
func (im *Image) SetInodeAddr(inum, n, addr uint32) error {
	if err := im.checkInum(inum); err != nil {
		return err
	}
	d, err := im.GetDinode(inum)
	if err != nil {
		return err
	}
	if n < NDirect {
		d.Addrs[n] = addr
		return im.PutDinode(inum, d)
	}
	if n >= NDirect+NIndirect {
		return ErrOutOfRange
	}
	ib := d.Addrs[NDirect]
	if !im.ValidDataBlock(ib) {
		return ErrOutOfRange
	}
	binary.LittleEndian.PutUint32(im.Block(ib)[(n-NDirect)*4:], addr)
	return nil
}

// Dirent returns the inode number that name resolves to within the
// directory named by path.
func (im *Image) Dirent(path, name string) (uint32, error) {
	dinum, err := im.Ilookup(RootInodeNumber, path)
	if err != nil {
		return 0, err
	}
	d, err := im.GetDinode(dinum)
	if err != nil {
		return 0, err
	}
	if d.FileType() != DirType {
		return 0, ErrNotDirectory
	}
	inum, _, found, err := im.Dlookup(dinum, name)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, ErrNotFound
	}
	return inum, nil
}

// SetDirent overwrites the inode number an existing entry points to,
// without touching link counts — unlike Daddent/Iunlink, this can point
// two names at the same inode, or at an inode number that doesn't exist,
// entirely uncheck.
func (im *Image) SetDirent(path, name string, inum uint32) error {
	dinum, err := im.Ilookup(RootInodeNumber, path)
	if err != nil {
		return err
	}
	d, err := im.GetDinode(dinum)
	if err != nil {
		return err
	}
	if d.FileType() != DirType {
		return ErrNotDirectory
	}
	_, off, found, err := im.Dlookup(dinum, name)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}
	de, err := im.readDirentAt(dinum, off)
	if err != nil {
		return err
	}
	de.Inum = uint16(inum)
	return im.writeDirentAt(dinum, off, de)
}

// DeleteDirent clears an existing entry's slot entirely, the same raw
// zero-fill do_dirent's "delete" sub-command performs.
func (im *Image) DeleteDirent(path, name string) error {
	dinum, err := im.Ilookup(RootInodeNumber, path)
	if err != nil {
		return err
	}
	d, err := im.GetDinode(dinum)
	if err != nil {
		return err
	}
	if d.FileType() != DirType {
		return ErrNotDirectory
	}
	_, off, found, err := im.Dlookup(dinum, name)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}
	return im.Dunlink(dinum, off)
}

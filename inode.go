package xv6fs

import (
	"bytes"
	"encoding/binary"
)

// DInode is the in-memory form of one on-disk inode record (64 bytes):
// four uint16 fields, a uint32 size, then NDirect+1 block addresses (the
// last one being the single level of indirection). Decoded and encoded
// field by field with encoding/binary, the same sequential-read idiom the
// teacher uses in GetInodeRef, rather than an unsafe struct overlay.
type DInode struct {
	Type  uint16
	Major uint16
	Minor uint16
	Nlink uint16
	Size  uint32
	Addrs [NDirect + 1]uint32
}

// FileType reports the inode's type as the package's FileType enum.
func (d *DInode) FileType() FileType { return FileType(d.Type) }

// inodeAddr returns the block number holding inode inum and its byte
// offset within that block, following the original's IBLOCK(i) macro:
// inodestart + i/IPB, with the record living at offset (i%IPB)*dinodeSize.
func inodeAddr(sb *Superblock, inum uint32) (blk uint32, off int) {
	blk = sb.InodeStart() + inum/IPB
	off = int(inum%IPB) * dinodeSize
	return
}

// GetDinode decodes inode number inum. It does not validate that inum is
// in range or that the slot is in use; callers that care check Type
// themselves, matching the original's iget which hands back whatever bytes
// are on disk.
func (im *Image) GetDinode(inum uint32) (*DInode, error) {
	sb := im.Superblock()
	blk, off := inodeAddr(sb, inum)
	r := bytes.NewReader(im.Block(blk)[off : off+dinodeSize])

	d := &DInode{}
	for _, f := range []any{&d.Type, &d.Major, &d.Minor, &d.Nlink, &d.Size} {
		if err := binary.Read(r, binary.LittleEndian, f); err != nil {
			return nil, err
		}
	}
	for i := range d.Addrs {
		if err := binary.Read(r, binary.LittleEndian, &d.Addrs[i]); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// PutDinode encodes d back over inode number inum's on-disk record.
func (im *Image) PutDinode(inum uint32, d *DInode) error {
	sb := im.Superblock()
	blk, off := inodeAddr(sb, inum)
	var buf bytes.Buffer
	for _, f := range []any{d.Type, d.Major, d.Minor, d.Nlink, d.Size} {
		if err := binary.Write(&buf, binary.LittleEndian, f); err != nil {
			return err
		}
	}
	for _, a := range d.Addrs {
		if err := binary.Write(&buf, binary.LittleEndian, a); err != nil {
			return err
		}
	}
	copy(im.Block(blk)[off:off+dinodeSize], buf.Bytes())
	return nil
}

// IAlloc scans inode numbers 1..NInodes-1 for one whose type is TFree,
// marks it with the given type and zero-length, and returns its number.
// It fails fatally (NoFreeInode) if every inode is in use, mirroring
// ialloc's fatal() call in the original.
func (im *Image) IAlloc(t FileType) (uint32, error) {
	sb := im.Superblock()
	n := sb.NInodes()
	for inum := uint32(1); inum < n; inum++ {
		d, err := im.GetDinode(inum)
		if err != nil {
			return 0, err
		}
		if d.FileType() != FreeType {
			continue
		}
		*d = DInode{Type: uint16(t)}
		if err := im.PutDinode(inum, d); err != nil {
			return 0, err
		}
		return inum, nil
	}
	return 0, fatalf(NoFreeInode, "ialloc: no free inodes")
}

// IFree marks inode inum as free, after releasing none of its blocks —
// callers that want the blocks reclaimed call ITruncate first, matching
// the original's separation between ifree (drop the slot) and itrunc
// (drop the data). A positive link count on a freed inode is logged as a
// debug warning rather than rejected, since the original's ifree does not
// itself enforce Nlink==0.
func (im *Image) IFree(inum uint32) error {
	d, err := im.GetDinode(inum)
	if err != nil {
		return err
	}
	if d.Nlink != 0 {
		dwarn("ifree: inode %d: freed with nlink=%d", inum, d.Nlink)
	}
	*d = DInode{}
	return im.PutDinode(inum, d)
}

// blockForRead returns the data block number holding file-relative block
// index bn of d, or 0 if that part of the file has never been written
// (a hole, read back as zeroes). It never allocates.
func (im *Image) blockForRead(d *DInode, bn uint32) (uint32, error) {
	if bn < NDirect {
		return d.Addrs[bn], nil
	}
	bn -= NDirect
	if bn >= NIndirect {
		return 0, ErrOutOfRange
	}
	ib := d.Addrs[NDirect]
	if ib == 0 {
		return 0, nil
	}
	if !im.ValidDataBlock(ib) {
		// A corrupted or hand-edited indirect pointer (e.g. via modfs's
		// inode.indirect editor); hand it back unread so the caller's own
		// ValidDataBlock check rejects it instead of indexing Image.Block
		// out of range.
		return ib, nil
	}
	return binary.LittleEndian.Uint32(im.Block(ib)[bn*4:]), nil
}

// blockForWrite is like blockForRead but allocates a block (and, for
// indirect indices, the indirect block itself) the first time file-
// relative index bn is touched, recording the new address into d. The
// caller is responsible for persisting d with PutDinode afterwards.
func (im *Image) blockForWrite(d *DInode, bn uint32) (uint32, error) {
	if bn < NDirect {
		if d.Addrs[bn] == 0 {
			nb, err := im.Balloc()
			if err != nil {
				return 0, err
			}
			d.Addrs[bn] = nb
		}
		return d.Addrs[bn], nil
	}
	bn -= NDirect
	if bn >= NIndirect {
		return 0, ErrOutOfRange
	}
	if d.Addrs[NDirect] == 0 {
		nb, err := im.Balloc()
		if err != nil {
			return 0, err
		}
		d.Addrs[NDirect] = nb
	}
	ib := d.Addrs[NDirect]
	if !im.ValidDataBlock(ib) {
		return ib, nil
	}
	iblk := im.Block(ib)
	addr := binary.LittleEndian.Uint32(iblk[bn*4:])
	if addr == 0 {
		nb, err := im.Balloc()
		if err != nil {
			return 0, err
		}
		binary.LittleEndian.PutUint32(iblk[bn*4:], nb)
		addr = nb
	}
	return addr, nil
}

// IRead copies min(len(buf), Size-off) bytes from inode inum starting at
// off into buf, returning the number of bytes copied. Reading at or past
// the current size returns 0, nil, matching readi's "off > size" short
// circuit rather than an error.
func (im *Image) IRead(inum uint32, off uint32, buf []byte) (int, error) {
	d, err := im.GetDinode(inum)
	if err != nil {
		return 0, err
	}
	if d.FileType() == DevType {
		return 0, ErrIsDevice
	}
	if off >= d.Size {
		return 0, nil
	}
	if uint32(len(buf)) > d.Size-off {
		buf = buf[:d.Size-off]
	}
	n := 0
	for n < len(buf) {
		bn, err := im.blockForRead(d, off/BSize)
		if err != nil {
			return n, err
		}
		if bn != 0 && !im.ValidDataBlock(bn) {
			// Matches original_source/opfs.c's iread: a block number that
			// fails valid_data_block() (a corrupted inode, or one hand-
			// edited through modfs) silently ends the read here instead
			// of propagating an error, returning whatever was read so far.
			break
		}
		boff := off % BSize
		m := BSize - boff
		if want := uint32(len(buf) - n); m > want {
			m = want
		}
		if bn == 0 {
			for i := uint32(0); i < m; i++ {
				buf[n+int(i)] = 0
			}
		} else {
			copy(buf[n:n+int(m)], im.Block(bn)[boff:boff+m])
		}
		n += int(m)
		off += m
	}
	return n, nil
}

// IWrite copies buf into inode inum starting at off, allocating blocks as
// needed and growing Size when the write extends past the current end. It
// rejects the write with ErrOutOfRange — rather than creating a hole — if
// off is past the current end of the file, or if it would cross
// MaxFileSize, matching writei's upfront bounds checks; growing a file
// with zero-filled holes is ITruncate's job, not IWrite's.
func (im *Image) IWrite(inum uint32, off uint32, buf []byte) (int, error) {
	d, err := im.GetDinode(inum)
	if err != nil {
		return 0, err
	}
	if d.FileType() == DevType {
		return 0, ErrIsDevice
	}
	if off > d.Size || uint64(off)+uint64(len(buf)) > MaxFileSize {
		return 0, ErrOutOfRange
	}
	n := 0
	for n < len(buf) {
		bn, err := im.blockForWrite(d, off/BSize)
		if err != nil {
			return n, err
		}
		if !im.ValidDataBlock(bn) {
			// Matches original_source/opfs.c's iwrite: a block number that
			// fails valid_data_block() (reachable when modfs has pointed a
			// direct or indirect slot at an out-of-range address) silently
			// ends the write here instead of propagating an error,
			// returning whatever was written so far.
			break
		}
		boff := off % BSize
		m := BSize - boff
		if want := uint32(len(buf) - n); m > want {
			m = want
		}
		copy(im.Block(bn)[boff:boff+m], buf[n:n+int(m)])
		n += int(m)
		off += m
	}
	if off > d.Size {
		d.Size = off
	}
	if err := im.PutDinode(inum, d); err != nil {
		return n, err
	}
	return n, nil
}

func ceilDiv(x, y uint32) uint32 {
	if x == 0 {
		return 0
	}
	return (x-1)/y + 1
}

func minU32(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}

func maxU32(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}

// ITruncate resizes inode inum's data to size, which must not exceed
// MaxFileSize. Shrinking frees every direct and indirect block beyond the
// new end (and the indirect block itself, once nothing in it survives);
// growing zero-fills the new tail, the same two branches itrunc takes.
func (im *Image) ITruncate(inum uint32, size uint32) error {
	if size > MaxFileSize {
		return ErrOutOfRange
	}
	d, err := im.GetDinode(inum)
	if err != nil {
		return err
	}
	if d.FileType() == DevType {
		return ErrIsDevice
	}

	if size < d.Size {
		n := ceilDiv(d.Size, BSize) // blocks currently in use
		k := ceilDiv(size, BSize)   // blocks to keep
		nd := minU32(n, NDirect)
		kd := minU32(k, NDirect)
		for i := kd; i < nd; i++ {
			if d.Addrs[i] != 0 {
				if err := im.Bfree(d.Addrs[i]); err != nil {
					return err
				}
				d.Addrs[i] = 0
			}
		}
		if n > NDirect {
			ib := d.Addrs[NDirect]
			iblk := im.Block(ib)
			ni := maxU32(n, NDirect) - NDirect
			ki := maxU32(k, NDirect) - NDirect
			for i := ki; i < ni; i++ {
				addr := binary.LittleEndian.Uint32(iblk[i*4:])
				if addr != 0 {
					if err := im.Bfree(addr); err != nil {
						return err
					}
					binary.LittleEndian.PutUint32(iblk[i*4:], 0)
				}
			}
			if ki == 0 {
				if err := im.Bfree(ib); err != nil {
					return err
				}
				d.Addrs[NDirect] = 0
			}
		}
	} else if size > d.Size {
		for off := d.Size; off < size; {
			bn, err := im.blockForWrite(d, off/BSize)
			if err != nil {
				return err
			}
			boff := off % BSize
			m := minU32(size-off, BSize-boff)
			blk := im.Block(bn)
			for i := uint32(0); i < m; i++ {
				blk[boff+i] = 0
			}
			off += m
		}
	}

	d.Size = size
	return im.PutDinode(inum, d)
}

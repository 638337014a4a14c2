package xv6fs

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

// Commands implements the opfs verb set: diskinfo, info, ls, get, put, rm,
// cp, mv, ln, mkdir, rmdir. Each operates on an already-formatted image
// through the Image/DInode/Dirent/path layers; none of them open a file
// or know about mmap — that is the cmd/ harness's job.

// putBufSize matches the original's BUFSIZE streaming chunk for get/put/cp.
const putBufSize = 1024

func bitcount(b byte) int {
	n := 0
	for b != 0 {
		n += int(b & 1)
		b >>= 1
	}
	return n
}

// DiskInfo writes the same report as the original's do_diskinfo. Its
// printed block ranges deliberately use the historical "inode blocks start
// at block 2" formula rather than the superblock's own LogStart/InodeStart/
// BmapStart fields, so that they match what opfs has always printed for an
// image built with a log immediately after the superblock. The used-block
// and used-inode counts are taken from the bitmap and inode blocks the
// superblock actually names.
func (im *Image) DiskInfo(w io.Writer) error {
	sb := im.Superblock()
	n := sb.Size()
	ni := sb.NInodes()/IPB + 1
	nm := n/BPB + 1
	nd := sb.NBlocks()
	nl := sb.NLog()

	fmt.Fprintf(w, "total blocks: %d (%d bytes)\n", n, n*BSize)
	fmt.Fprintf(w, "inode blocks: #%d-#%d (%d blocks, %d inodes)\n", 2, ni+1, ni, sb.NInodes())
	fmt.Fprintf(w, "bitmap blocks: #%d-#%d (%d blocks)\n", ni+2, ni+nm+1, nm)
	fmt.Fprintf(w, "data blocks: #%d-#%d (%d blocks)\n", ni+nm+2, ni+nm+nd+1, nd)
	fmt.Fprintf(w, "log blocks: #%d-#%d (%d blocks)\n", ni+nm+nd+2, ni+nm+nd+nl+1, nl)
	fmt.Fprintf(w, "maximum file size (bytes): %d\n", MaxFileSize)

	used := 0
	for b := sb.BmapStart(); b < sb.BmapStart()+sb.NmBlocks(); b++ {
		for _, by := range im.Block(b) {
			used += bitcount(by)
		}
	}
	fmt.Fprintf(w, "# of used blocks: %d\n", used)

	nDirs, nFiles, nDevs := 0, 0, 0
	for b := sb.InodeStart(); b < sb.InodeStart()+sb.NiBlocks(); b++ {
		blk := im.Block(b)
		for i := 0; i < IPB; i++ {
			t := binary.LittleEndian.Uint16(blk[i*dinodeSize:])
			switch FileType(t) {
			case DirType:
				nDirs++
			case FileKind:
				nFiles++
			case DevType:
				nDevs++
			}
		}
	}
	fmt.Fprintf(w, "# of used inodes: %d (dirs: %d, files: %d, devs: %d)\n", nDirs+nFiles+nDevs, nDirs, nFiles, nDevs)
	return nil
}

// Info writes inode metadata for path, as do_info does.
func (im *Image) Info(w io.Writer, path string) error {
	inum, err := im.Ilookup(RootInodeNumber, path)
	if err != nil {
		return err
	}
	d, err := im.GetDinode(inum)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "inode: %d\n", inum)
	fmt.Fprintf(w, "type: %d (%s)\n", d.Type, TypeName(d.Type))
	fmt.Fprintf(w, "nlink: %d\n", d.Nlink)
	fmt.Fprintf(w, "size: %d\n", d.Size)
	if d.Size > 0 {
		fmt.Fprintf(w, "data blocks:")
		bcount := 0
		for i := 0; i < NDirect && d.Addrs[i] != 0; i++ {
			fmt.Fprintf(w, " %d", d.Addrs[i])
			bcount++
		}
		if ia := d.Addrs[NDirect]; ia != 0 {
			fmt.Fprintf(w, " %d", ia)
			bcount++
			iblk := im.Block(ia)
			for i := 0; i < BSize/4; i++ {
				a := binary.LittleEndian.Uint32(iblk[i*4:])
				if a == 0 {
					break
				}
				fmt.Fprintf(w, " %d", a)
				bcount++
			}
		}
		fmt.Fprintf(w, "\n")
		fmt.Fprintf(w, "# of data blocks: %d\n", bcount)
	}
	return nil
}

// Ls lists path: every in-use entry if it is a directory, or a single
// summary line if it names a file or device, as do_ls does.
func (im *Image) Ls(w io.Writer, path string) error {
	inum, err := im.Ilookup(RootInodeNumber, path)
	if err != nil {
		return err
	}
	d, err := im.GetDinode(inum)
	if err != nil {
		return err
	}
	if d.FileType() != DirType {
		fmt.Fprintf(w, "%s %d %d %d\n", path, d.Type, inum, d.Size)
		return nil
	}
	ents, err := im.ReadDir(inum)
	if err != nil {
		return err
	}
	for _, de := range ents {
		cd, err := im.GetDinode(uint32(de.Inum))
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s %d %d %d\n", de.NameString(), cd.Type, de.Inum, cd.Size)
	}
	return nil
}

// Get streams path's content to w, as do_get does.
func (im *Image) Get(w io.Writer, path string) error {
	inum, err := im.Ilookup(RootInodeNumber, path)
	if err != nil {
		return err
	}
	d, err := im.GetDinode(inum)
	if err != nil {
		return err
	}
	buf := make([]byte, putBufSize)
	for off := uint32(0); off < d.Size; off += putBufSize {
		n, err := im.IRead(inum, off, buf)
		if err != nil {
			return err
		}
		if _, err := w.Write(buf[:n]); err != nil {
			return err
		}
	}
	return nil
}

// Put creates path (or truncates it, if it already exists as a plain
// file) and fills it from r, up to MaxFileSize, as do_put does.
func (im *Image) Put(path string, r io.Reader) error {
	inum, err := im.Ilookup(RootInodeNumber, path)
	if err != nil {
		if err != ErrNotFound {
			return err
		}
		inum, err = im.Icreat(RootInodeNumber, path, FileKind, nil)
		if err != nil {
			return err
		}
	} else {
		d, err := im.GetDinode(inum)
		if err != nil {
			return err
		}
		if d.FileType() == DevType {
			return ErrIsDevice
		}
		if d.FileType() != FileKind {
			return ErrIsDirectory
		}
		if err := im.ITruncate(inum, 0); err != nil {
			return err
		}
	}
	return im.fillFrom(inum, r)
}

func (im *Image) fillFrom(inum uint32, r io.Reader) error {
	buf := make([]byte, putBufSize)
	br := bufio.NewReader(r)
	for off := uint32(0); off < MaxFileSize; {
		n, err := br.Read(buf[:minU32(putBufSize, MaxFileSize-off)])
		if n > 0 {
			if _, werr := im.IWrite(inum, off, buf[:n]); werr != nil {
				return werr
			}
			off += uint32(n)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Rm unlinks a non-directory at path, as do_rm does.
func (im *Image) Rm(path string) error {
	inum, err := im.Ilookup(RootInodeNumber, path)
	if err != nil {
		return err
	}
	d, err := im.GetDinode(inum)
	if err != nil {
		return err
	}
	if d.FileType() == DirType {
		return ErrIsDirectory
	}
	return im.Iunlink(RootInodeNumber, path)
}

// Cp copies the plain file at spath into dpath, creating it (or, if dpath
// names an existing directory, creating spath's base name inside it; or,
// if it names an existing plain file, truncating and overwriting it), as
// do_cp does.
func (im *Image) Cp(spath, dpath string) error {
	sinum, err := im.Ilookup(RootInodeNumber, spath)
	if err != nil {
		return err
	}
	sd, err := im.GetDinode(sinum)
	if err != nil {
		return err
	}
	if sd.FileType() == DevType {
		return ErrIsDevice
	}
	if sd.FileType() != FileKind {
		return ErrIsDirectory
	}

	dinum, derr := im.Ilookup(RootInodeNumber, dpath)
	var dinumFinal uint32
	if derr != nil {
		if derr != ErrNotFound {
			return derr
		}
		ddir, dname := Splitpath(dpath)
		if dname == "" {
			return ErrNotFound
		}
		ddinum, err := im.Ilookup(RootInodeNumber, ddir)
		if err != nil {
			return err
		}
		dd, err := im.GetDinode(ddinum)
		if err != nil {
			return err
		}
		if dd.FileType() != DirType {
			return ErrNotDirectory
		}
		dinumFinal, err = im.Icreat(ddinum, dname, FileKind, nil)
		if err != nil {
			return err
		}
	} else {
		dd, err := im.GetDinode(dinum)
		if err != nil {
			return err
		}
		switch dd.FileType() {
		case DirType:
			_, sname := Splitpath(spath)
			dinumFinal, err = im.Icreat(dinum, sname, FileKind, nil)
			if err != nil {
				return err
			}
		case FileKind:
			if err := im.ITruncate(dinum, 0); err != nil {
				return err
			}
			dinumFinal = dinum
		case DevType:
			return ErrIsDevice
		}
	}

	buf := make([]byte, putBufSize)
	for off := uint32(0); off < sd.Size; off += putBufSize {
		n, err := im.IRead(sinum, off, buf)
		if err != nil {
			return err
		}
		if _, err := im.IWrite(dinumFinal, off, buf[:n]); err != nil {
			return err
		}
	}
	return nil
}

// Mv renames/moves spath to dpath, covering the four shapes the original
// supports: dpath doesn't exist (plain rename/move), dpath names a
// directory (move spath inside it, overriding a same-named empty dir or
// file already there), or dpath names an existing plain file (overwrite).
// The root directory may not be moved.
func (im *Image) Mv(spath, dpath string) error {
	sinum, err := im.Ilookup(RootInodeNumber, spath)
	if err != nil {
		return err
	}
	if sinum == RootInodeNumber {
		return ErrIsRoot
	}
	sd, err := im.GetDinode(sinum)
	if err != nil {
		return err
	}

	dinum, derr := im.Ilookup(RootInodeNumber, dpath)
	ddir, dname := Splitpath(dpath)

	if derr == nil {
		dd, err := im.GetDinode(dinum)
		if err != nil {
			return err
		}
		switch dd.FileType() {
		case DirType:
			_, sname := Splitpath(spath)
			existInum, _, found, err := im.Dlookup(dinum, sname)
			if err != nil {
				return err
			}
			if found {
				ed, err := im.GetDinode(existInum)
				if err != nil {
					return err
				}
				switch ed.FileType() {
				case DirType:
					if sd.FileType() != DirType {
						return ErrNotDirectory
					}
					empty, err := im.EmptyDir(existInum)
					if err != nil {
						return err
					}
					if !empty {
						return ErrNotEmpty
					}
					if err := im.Iunlink(dinum, sname); err != nil {
						return err
					}
					if err := im.Daddent(dinum, sname, sinum); err != nil {
						return err
					}
					if err := im.Iunlink(RootInodeNumber, spath); err != nil {
						return err
					}
					return im.Dmkparlink(dinum, sinum)
				case FileKind:
					if sd.FileType() != FileKind {
						return ErrIsDirectory
					}
					if err := im.Iunlink(dinum, sname); err != nil {
						return err
					}
					if err := im.Daddent(dinum, sname, sinum); err != nil {
						return err
					}
					return im.Iunlink(RootInodeNumber, spath)
				default:
					return ErrIsDevice
				}
			}
			if err := im.Daddent(dinum, sname, sinum); err != nil {
				return err
			}
			if err := im.Iunlink(RootInodeNumber, spath); err != nil {
				return err
			}
			if sd.FileType() == DirType {
				return im.Dmkparlink(dinum, sinum)
			}
			return nil
		case FileKind:
			if sd.FileType() != FileKind {
				return ErrNotDirectory
			}
			if err := im.Iunlink(RootInodeNumber, dpath); err != nil {
				return err
			}
			pinum, err := im.Ilookup(RootInodeNumber, ddir)
			if err != nil {
				return err
			}
			if err := im.Daddent(pinum, dname, sinum); err != nil {
				return err
			}
			return im.Iunlink(RootInodeNumber, spath)
		default:
			return ErrIsDevice
		}
	}

	if derr != ErrNotFound {
		return derr
	}
	if dname == "" {
		return ErrNotFound
	}
	pinum, err := im.Ilookup(RootInodeNumber, ddir)
	if err != nil {
		return err
	}
	pd, err := im.GetDinode(pinum)
	if err != nil {
		return err
	}
	if pd.FileType() != DirType {
		return ErrNotDirectory
	}
	if err := im.Daddent(pinum, dname, sinum); err != nil {
		return err
	}
	if err := im.Iunlink(RootInodeNumber, spath); err != nil {
		return err
	}
	if sd.FileType() == DirType {
		return im.Dmkparlink(pinum, sinum)
	}
	return nil
}

// Ln creates dpath as a hard link to the plain file at spath, as do_ln
// does. dpath may name an existing directory, in which case the link is
// created inside it under spath's base name.
func (im *Image) Ln(spath, dpath string) error {
	sinum, err := im.Ilookup(RootInodeNumber, spath)
	if err != nil {
		return err
	}
	sd, err := im.GetDinode(sinum)
	if err != nil {
		return err
	}
	if sd.FileType() == DevType {
		return ErrIsDevice
	}
	if sd.FileType() != FileKind {
		return ErrIsDirectory
	}

	ddir, dname := Splitpath(dpath)
	dinum, err := im.Ilookup(RootInodeNumber, ddir)
	if err != nil {
		return err
	}
	dd, err := im.GetDinode(dinum)
	if err != nil {
		return err
	}
	if dd.FileType() != DirType {
		return ErrNotDirectory
	}

	if dname == "" {
		_, base := Splitpath(spath)
		dname = base
		if _, _, found, err := im.Dlookup(dinum, dname); err != nil {
			return err
		} else if found {
			return ErrExists
		}
	} else if existInum, _, found, err := im.Dlookup(dinum, dname); err != nil {
		return err
	} else if found {
		ed, err := im.GetDinode(existInum)
		if err != nil {
			return err
		}
		if ed.FileType() != DirType {
			return ErrExists
		}
		_, base := Splitpath(spath)
		dname = base
		dinum = existInum
	}
	return im.Daddent(dinum, dname, sinum)
}

// Mkdir creates path as a new, empty directory, as do_mkdir does.
func (im *Image) Mkdir(path string) error {
	if _, err := im.Ilookup(RootInodeNumber, path); err == nil {
		return ErrExists
	} else if err != ErrNotFound {
		return err
	}
	_, err := im.Icreat(RootInodeNumber, path, DirType, nil)
	return err
}

// Rmdir removes the empty directory at path, as do_rmdir does.
func (im *Image) Rmdir(path string) error {
	inum, err := im.Ilookup(RootInodeNumber, path)
	if err != nil {
		return err
	}
	d, err := im.GetDinode(inum)
	if err != nil {
		return err
	}
	if d.FileType() != DirType {
		return ErrNotDirectory
	}
	empty, err := im.EmptyDir(inum)
	if err != nil {
		return err
	}
	if !empty {
		return ErrNotEmpty
	}
	return im.Iunlink(RootInodeNumber, path)
}

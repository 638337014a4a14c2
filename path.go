package xv6fs

import "strings"

// Skipelem consumes the next path element of path, returning it and the
// remainder. Leading separators are skipped; an element longer than
// DirSiz is silently truncated, matching the original's skipelem (which
// copies at most DIRSIZ bytes out of an arbitrarily long element).
func Skipelem(path string) (elem, rest string) {
	for len(path) > 0 && path[0] == '/' {
		path = path[1:]
	}
	i := strings.IndexByte(path, '/')
	if i == -1 {
		elem, rest = path, ""
	} else {
		elem, rest = path[:i], path[i:]
	}
	if len(elem) > DirSiz {
		elem = elem[:DirSiz]
	}
	return elem, rest
}

// Splitpath splits path into its final element (the base name) and
// everything before it (the containing directory's path), the way
// splitpath does for commands that need both independently (cp, mv, ln).
func Splitpath(path string) (dir, base string) {
	i := strings.LastIndexByte(path, '/')
	if i == -1 {
		return "", path
	}
	return path[:i], path[i+1:]
}

// Ilookup resolves path against directory inode rootInum, following one
// element at a time with Skipelem the way ilookup does. An empty path (or
// one consisting only of separators) resolves to rootInum itself. It
// fails with ErrNotFound if any element is missing, or ErrNotDirectory if
// a non-final element names something other than a directory.
func (im *Image) Ilookup(rootInum uint32, path string) (uint32, error) {
	rp := rootInum
	for {
		d, err := im.GetDinode(rp)
		if err != nil {
			return 0, err
		}
		if d.FileType() != DirType {
			return 0, ErrNotDirectory
		}
		elem, rest := Skipelem(path)
		if elem == "" {
			return rp, nil
		}
		inum, _, found, err := im.Dlookup(rp, elem)
		if err != nil {
			return 0, err
		}
		if !found {
			return 0, ErrNotFound
		}
		if rest == "" {
			return inum, nil
		}
		rp = inum
		path = rest
	}
}

// Icreat creates a new inode of type t at path, relative to directory
// inode rootInum, creating it in whatever directory the path's non-final
// elements resolve to. If dirInumOut is non-nil, the containing
// directory's inode number is stored into it. Newly
// created directories are populated with "." and ".." via PopulateDir,
// matching icreat in the original.
func (im *Image) Icreat(rootInum uint32, path string, t FileType, dirInumOut *uint32) (uint32, error) {
	rp := rootInum
	for {
		d, err := im.GetDinode(rp)
		if err != nil {
			return 0, err
		}
		if d.FileType() != DirType {
			return 0, ErrNotDirectory
		}
		elem, rest := Skipelem(path)
		if elem == "" {
			return 0, ErrInvalidName
		}
		inum, _, found, err := im.Dlookup(rp, elem)
		if err != nil {
			return 0, err
		}
		if rest == "" {
			if found {
				return 0, ErrExists
			}
			newInum, err := im.IAlloc(t)
			if err != nil {
				return 0, err
			}
			if err := im.Daddent(rp, elem, newInum); err != nil {
				return 0, err
			}
			if t == DirType {
				if err := im.PopulateDir(newInum, rp); err != nil {
					return 0, err
				}
			}
			if dirInumOut != nil {
				*dirInumOut = rp
			}
			return newInum, nil
		}
		if !found {
			return 0, ErrNotFound
		}
		cd, err := im.GetDinode(inum)
		if err != nil {
			return 0, err
		}
		if cd.FileType() != DirType {
			return 0, ErrNotDirectory
		}
		rp = inum
		path = rest
	}
}

// Iunlink removes the entry named by the final element of path from
// whatever directory its leading elements resolve to (relative to
// rootInum), clearing the directory slot and dropping the target
// inode's link count. When the link count reaches zero the inode's data
// is truncated (devices excepted, matching the original) and its slot is
// freed. Unlinking "." or ".." is rejected with ErrInvalidName.
func (im *Image) Iunlink(rootInum uint32, path string) error {
	rp := rootInum
	for {
		d, err := im.GetDinode(rp)
		if err != nil {
			return err
		}
		if d.FileType() != DirType {
			return ErrNotDirectory
		}
		elem, rest := Skipelem(path)
		if elem == "" {
			return ErrInvalidName
		}
		inum, off, found, err := im.Dlookup(rp, elem)
		if err != nil {
			return err
		}
		if found && rest == "" {
			if elem == "." || elem == ".." {
				return ErrInvalidName
			}
			if err := im.Dunlink(rp, off); err != nil {
				return err
			}
			cd, err := im.GetDinode(inum)
			if err != nil {
				return err
			}
			if cd.FileType() == DirType {
				parentOfChild, _, ok, err := im.Dlookup(inum, "..")
				if err != nil {
					return err
				}
				if ok && parentOfChild == rp {
					pd, err := im.GetDinode(rp)
					if err != nil {
						return err
					}
					pd.Nlink--
					if err := im.PutDinode(rp, pd); err != nil {
						return err
					}
				}
			}
			cd.Nlink--
			if err := im.PutDinode(inum, cd); err != nil {
				return err
			}
			if cd.Nlink == 0 {
				if cd.FileType() != DevType {
					if err := im.ITruncate(inum, 0); err != nil {
						return err
					}
				}
				if err := im.IFree(inum); err != nil {
					return err
				}
			}
			return nil
		}
		if !found || rest == "" {
			return ErrNotFound
		}
		cd, err := im.GetDinode(inum)
		if err != nil {
			return err
		}
		if cd.FileType() != DirType {
			return ErrNotDirectory
		}
		rp = inum
		path = rest
	}
}

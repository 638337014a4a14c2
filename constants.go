package xv6fs

// On-disk layout constants. These are fixed by the xv6 fs.h/stat.h
// definitions this package stays bit-for-bit compatible with; none of them
// are configurable per image.
const (
	// BSize is the size in bytes of every block in an image, including
	// the boot block, the superblock, inode blocks, bitmap blocks, data
	// blocks and log blocks.
	BSize = 512

	// FSMagic identifies a block 1 as holding a valid xv6 superblock.
	FSMagic = 0x10203040

	// DirSiz is the maximum length of a path component / directory entry
	// name, in bytes. Names are not NUL-terminated when exactly DirSiz
	// bytes long.
	DirSiz = 14

	// NDirect is the number of direct block pointers in a dinode's addrs
	// array. addrs[NDirect] holds the single indirect block pointer.
	NDirect = 12

	// NIndirect is the number of block pointers held in one indirect
	// block.
	NIndirect = BSize / 4

	// MaxFile is the largest file size expressed in blocks.
	MaxFile = NDirect + NIndirect

	// MaxFileSize is the largest file size expressed in bytes.
	MaxFileSize = MaxFile * BSize

	// dinodeSize is the on-disk size of one inode record.
	dinodeSize = 64

	// IPB is the number of inode records packed into one block.
	IPB = BSize / dinodeSize

	// direntSize is the on-disk size of one directory entry record.
	direntSize = 16

	// BPB is the number of bits (blocks) tracked by one bitmap block.
	BPB = BSize * 8
)

// File types stored in a dinode's Type field. Type 0 means the inode slot
// is free.
const (
	TFree = 0
	TDir  = 1
	TFile = 2
	TDev  = 3
)

// TypeName returns a human-readable name for an inode type, as printed by
// the info command.
func TypeName(t uint16) string {
	switch t {
	case TDir:
		return "directory"
	case TFile:
		return "file"
	case TDev:
		return "device"
	default:
		return "unknown"
	}
}

// RootInodeNumber is the inode number of the filesystem root directory.
// newfs always allocates it first, and ialloc's scan order guarantees it.
const RootInodeNumber = 1

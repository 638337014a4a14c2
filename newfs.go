package xv6fs

import "fmt"

// FormatReport summarizes a freshly formatted image, mirroring the six
// counters setupfs prints to stdout in the original newfs.
type FormatReport struct {
	Size       uint32
	NInodes    uint32
	NLog       uint32
	NiBlocks   uint32
	NmBlocks   uint32
	NDataBlocks uint32
}

func (r *FormatReport) String() string {
	return fmt.Sprintf(
		"# of blocks: %d\n# of inodes: %d\n# of log blocks: %d\n# of inode blocks: %d\n# of bitmap blocks: %d\n# of data blocks: %d\n",
		r.Size, r.NInodes, r.NLog, r.NiBlocks, r.NmBlocks, r.NDataBlocks,
	)
}

// Format lays out a brand new filesystem across im's backing region,
// which must already be exactly size*BSize bytes (the harness's job, not
// this function's — it only ever works through Image/Block). It zeroes
// every block, writes the superblock, marks every block before the data
// region as allocated in the bitmap, and creates the root directory as
// inode 1 with "." and ".." entries pointing at itself, following
// setupfs step for step.
func Format(im *Image, size, ninodes, nlog uint32) (*FormatReport, error) {
	niblocks := ninodes/IPB + 1
	nmblocks := size/BPB + 1
	const logstart = 2
	inodestart := logstart + nlog
	bmapstart := inodestart + niblocks
	dstart := bmapstart + nmblocks
	nblocks := size - (2 + nlog + niblocks + nmblocks)

	buf := im.Bytes()
	for i := range buf {
		buf[i] = 0
	}

	copy(im.Block(1), encodeSuperblock(FSMagic, size, nblocks, ninodes, nlog, logstart, inodestart, bmapstart))

	for b := uint32(0); b < dstart; b += BPB {
		blk := bmapstart + b/BPB
		bp := im.Block(blk)
		for bi := uint32(0); bi < BPB && b+bi < dstart; bi++ {
			bp[bi/8] |= 1 << (bi % 8)
		}
	}

	root, err := im.IAlloc(DirType)
	if err != nil {
		return nil, err
	}
	if root != RootInodeNumber {
		return nil, fatalf(CorruptSuperblock, "setupfs: root inode allocated as %d, expected %d", root, RootInodeNumber)
	}
	if err := im.Daddent(root, ".", root); err != nil {
		return nil, err
	}
	if err := im.Daddent(root, "..", root); err != nil {
		return nil, err
	}

	return &FormatReport{
		Size:        size,
		NInodes:     ninodes,
		NLog:        nlog,
		NiBlocks:    niblocks,
		NmBlocks:    nmblocks,
		NDataBlocks: nblocks,
	}, nil
}

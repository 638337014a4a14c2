package xv6fs

// Image is a byte-addressable view over an xv6 disk image: exactly
// size*BSize bytes, treated as an array of fixed-size blocks. It performs
// no I/O of its own — the harness (cmd/, or a test) is responsible for
// producing the backing []byte, typically by mmap'ing a file, and for
// flushing it back on return. This mirrors the teacher's Superblock, which
// never opens a file itself, only reads through an io.ReaderAt handed to
// it by New.
type Image struct {
	buf []byte
}

// NewImage wraps buf, whose length must be a multiple of BSize, as an
// Image. The caller retains ownership of buf; mutations made through the
// Image alias it directly.
func NewImage(buf []byte) *Image {
	return &Image{buf: buf}
}

// Bytes returns the backing region.
func (im *Image) Bytes() []byte {
	return im.buf
}

// NumBlocks returns the total number of blocks in the image.
func (im *Image) NumBlocks() uint32 {
	return uint32(len(im.buf) / BSize)
}

// Block returns a mutable slice aliasing block b. Every higher layer
// addresses the image exclusively through block numbers returned from
// here, never through raw byte offsets.
func (im *Image) Block(b uint32) []byte {
	off := uint64(b) * BSize
	return im.buf[off : off+BSize]
}

// Superblock decodes and returns a handle to the superblock record stored
// in block 1. The handle is a thin accessor — see super.go — and always
// reflects the live contents of block 1.
func (im *Image) Superblock() *Superblock {
	return &Superblock{im: im}
}

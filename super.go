package xv6fs

import (
	"bytes"
	"encoding/binary"
)

// Superblock is a thin accessor over the fixed record stored in block 1 of
// an image. Unlike the teacher's Superblock (which decodes once in New and
// caches the Go struct for the lifetime of the open image), every getter
// here re-reads straight from the backing block and every setter
// re-encodes straight back into it: modfs's structural editors mutate one
// field per invocation, and every other command run against the same
// image afterwards must observe the change immediately — nothing may be
// cached across calls (see SPEC_FULL.md §3).
type Superblock struct {
	im *Image
}

// sbField indexes the eight on-disk superblock fields, each a
// little-endian uint32, in their fixed record order.
type sbField int

const (
	sbMagic sbField = iota
	sbSize
	sbNblocks
	sbNinodes
	sbNlog
	sbLogstart
	sbInodestart
	sbBmapstart
	sbFieldCount
)

var sbFieldNames = map[string]sbField{
	"magic":      sbMagic,
	"size":       sbSize,
	"nblocks":    sbNblocks,
	"ninodes":    sbNinodes,
	"nlog":       sbNlog,
	"logstart":   sbLogstart,
	"inodestart": sbInodestart,
	"bmapstart":  sbBmapstart,
}

func (sb *Superblock) raw() []byte {
	return sb.im.Block(1)
}

func (sb *Superblock) get(f sbField) uint32 {
	return binary.LittleEndian.Uint32(sb.raw()[int(f)*4:])
}

func (sb *Superblock) set(f sbField, v uint32) {
	binary.LittleEndian.PutUint32(sb.raw()[int(f)*4:], v)
}

func (sb *Superblock) Magic() uint32      { return sb.get(sbMagic) }
func (sb *Superblock) Size() uint32       { return sb.get(sbSize) }
func (sb *Superblock) NBlocks() uint32    { return sb.get(sbNblocks) }
func (sb *Superblock) NInodes() uint32    { return sb.get(sbNinodes) }
func (sb *Superblock) NLog() uint32       { return sb.get(sbNlog) }
func (sb *Superblock) LogStart() uint32   { return sb.get(sbLogstart) }
func (sb *Superblock) InodeStart() uint32 { return sb.get(sbInodestart) }
func (sb *Superblock) BmapStart() uint32  { return sb.get(sbBmapstart) }

func (sb *Superblock) SetMagic(v uint32)      { sb.set(sbMagic, v) }
func (sb *Superblock) SetSize(v uint32)       { sb.set(sbSize, v) }
func (sb *Superblock) SetNBlocks(v uint32)    { sb.set(sbNblocks, v) }
func (sb *Superblock) SetNInodes(v uint32)    { sb.set(sbNinodes, v) }
func (sb *Superblock) SetNLog(v uint32)       { sb.set(sbNlog, v) }
func (sb *Superblock) SetLogStart(v uint32)   { sb.set(sbLogstart, v) }
func (sb *Superblock) SetInodeStart(v uint32) { sb.set(sbInodestart, v) }
func (sb *Superblock) SetBmapStart(v uint32)  { sb.set(sbBmapstart, v) }

// Field gets a named superblock field, for the modfs "superblock.<field>"
// editor. ok is false for an unrecognized field name.
func (sb *Superblock) Field(name string) (uint32, bool) {
	f, ok := sbFieldNames[name]
	if !ok {
		return 0, false
	}
	return sb.get(f), true
}

// SetField sets a named superblock field. ok is false for an unrecognized
// field name.
func (sb *Superblock) SetField(name string, v uint32) bool {
	f, ok := sbFieldNames[name]
	if !ok {
		return false
	}
	sb.set(f, v)
	return true
}

// Valid reports whether the superblock carries the expected magic number.
func (sb *Superblock) Valid() bool {
	return sb.Magic() == FSMagic
}

// NiBlocks returns the number of inode blocks, using the same
// non-ceiling arithmetic as original_source/newfs.c (ninodes/IPB + 1),
// preserved exactly for on-disk compatibility even though it over-
// allocates by one block when ninodes is a multiple of IPB.
func (sb *Superblock) NiBlocks() uint32 {
	return sb.NInodes()/IPB + 1
}

// NmBlocks returns the number of bitmap blocks, using the same
// non-ceiling arithmetic as original_source/newfs.c (size/(BSize*8) + 1).
func (sb *Superblock) NmBlocks() uint32 {
	return sb.Size()/BPB + 1
}

// DStart returns the first data block number, computed from the
// authoritative BmapStart field rather than re-derived from a fixed
// boot+super+inode+bitmap layout assumption — this is what lets the
// engine work correctly regardless of how much log space newfs placed
// before the inode table (see SPEC_FULL.md §4.7).
func (sb *Superblock) DStart() uint32 {
	return sb.BmapStart() + sb.NmBlocks()
}

// encodeSuperblock serializes the eight fields in on-disk order into a
// fresh sbFieldCount*4-byte record, for use by newfs when formatting a
// blank image. Kept as a free function (rather than a Superblock method)
// since at format time there is no valid superblock yet to read back
// through.
func encodeSuperblock(magic, size, nblocks, ninodes, nlog, logstart, inodestart, bmapstart uint32) []byte {
	var buf bytes.Buffer
	for _, v := range []uint32{magic, size, nblocks, ninodes, nlog, logstart, inodestart, bmapstart} {
		var tmp [4]byte
		binary.LittleEndian.PutUint32(tmp[:], v)
		buf.Write(tmp[:])
	}
	return buf.Bytes()
}

// Package inode implements the fixed-size inode record and the operations
// built on top of the block addressing engine: read, write, truncate, and
// reference-count lifecycle.
package inode

import (
	"bytes"
	"encoding/binary"
	"io/fs"
)

// Inode is the decoded, mutable form of the 32-byte on-medium record. A
// caller loads one with Load, mutates it, and writes it back with Store.
type Inode struct {
	Ino  uint16 // self index when live; next-free index when on the free list
	Uid  uint8
	Gid  uint8
	Mode uint16 // (POSIX type bits >> 3) | permission bits
	Refs uint16
	Size uint32
	Time uint32

	Block   [6]uint16 // direct block indices
	BlockP  uint16     // single-indirect block
	BlockPP uint16     // double-indirect block
}

// modeTypeShift is how far the POSIX file-type nibble (S_IFMT, e.g. S_IFDIR
// = 0x4000) is shifted down so it coexists with the 9 permission bits in a
// 16-bit field.
const modeTypeShift = 3

const permMask = 0x1FF // 9 permission bits (rwxrwxrwx)

// SetMode packs a standard fs.FileMode (type bits + permission bits) into
// the on-medium Mode field.
func (ino *Inode) SetMode(m fs.FileMode) {
	unix := ModeToUnix(m)
	ino.Mode = uint16((unix&S_IFMT)>>modeTypeShift) | uint16(unix&permMask)
}

// FileMode unpacks the on-medium Mode field into a standard fs.FileMode.
func (ino *Inode) FileMode() fs.FileMode {
	typeBits := uint32(ino.Mode&^permMask) << modeTypeShift
	perm := uint32(ino.Mode) & permMask
	return UnixToMode(typeBits | perm)
}

// IsDir reports whether the inode is a directory.
func (ino *Inode) IsDir() bool {
	return ino.FileMode()&fs.ModeDir != 0
}

// IsSymlink reports whether the inode is a symbolic link.
func (ino *Inode) IsSymlink() bool {
	return ino.FileMode()&fs.ModeSymlink != 0
}

// SetPerm updates the permission bits of Mode, leaving the file-type bits
// untouched.
func (ino *Inode) SetPerm(perm fs.FileMode) {
	ino.Mode = (ino.Mode &^ permMask) | uint16(perm.Perm())
}

// Direct returns direct block pointer i (blockio.PointerTree).
func (ino *Inode) Direct(i int) uint16 { return ino.Block[i] }

// SetDirect sets direct block pointer i.
func (ino *Inode) SetDirect(i int, v uint16) { ino.Block[i] = v }

// Single returns the single-indirect block pointer.
func (ino *Inode) Single() uint16 { return ino.BlockP }

// SetSingle sets the single-indirect block pointer.
func (ino *Inode) SetSingle(v uint16) { ino.BlockP = v }

// Double returns the double-indirect block pointer.
func (ino *Inode) Double() uint16 { return ino.BlockPP }

// SetDouble sets the double-indirect block pointer.
func (ino *Inode) SetDouble(v uint16) { ino.BlockPP = v }

// fields lists Inode's fields in on-medium order, the same reflection-free
// way writer.go hand-lists struct fields for serializeInode.
func (ino *Inode) fields() []interface{} {
	return []interface{}{
		&ino.Ino, &ino.Uid, &ino.Gid, &ino.Mode, &ino.Refs, &ino.Size, &ino.Time,
		&ino.Block[0], &ino.Block[1], &ino.Block[2], &ino.Block[3], &ino.Block[4], &ino.Block[5],
		&ino.BlockP, &ino.BlockPP,
	}
}

// MarshalBinary encodes the inode into its fixed 32-byte on-medium record.
func (ino *Inode) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	for _, f := range ino.fields() {
		if err := binary.Write(&buf, binary.LittleEndian, f); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary decodes an inode from its 32-byte on-medium record.
func (ino *Inode) UnmarshalBinary(data []byte) error {
	r := bytes.NewReader(data)
	for _, f := range ino.fields() {
		if err := binary.Read(r, binary.LittleEndian, f); err != nil {
			return err
		}
	}
	return nil
}

// Zero resets every field to its just-allocated state: zero metadata, every
// block pointer set to the invalid sentinel (the zero value already is 0 =
// image.InvalidBlock).
func (ino *Inode) Zero(self uint16) {
	*ino = Inode{Ino: self}
}

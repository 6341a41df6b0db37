// Package image maps a raw byte region onto the on-medium layout of an sfs
// image: one header block, an inode table, and a data-block region. It owns
// the geometry constants and the free-list allocator.
package image

import "errors"

// Fixed geometry constants for the on-medium format. All integers in the
// image are little-endian.
const (
	// BlockSize is the size in bytes of a single block, including the
	// header block.
	BlockSize = 512

	// InodeSize is the on-medium size of one inode record.
	InodeSize = 32

	// InodesPerBlock is how many inode records fit in one block.
	InodesPerBlock = BlockSize / InodeSize

	// PtrsPerBlock is how many 16-bit block pointers fit in one indirect
	// block (B/2).
	PtrsPerBlock = BlockSize / 2

	// DirectBlocks is the number of direct block pointers stored in the
	// inode itself.
	DirectBlocks = 6

	// DefaultInodeBlocks (I) is the default size, in blocks, of the inode
	// table.
	DefaultInodeBlocks = 64

	// DefaultDiskSize is the default total image size: 1 MiB, i.e. 2048
	// blocks of 512 bytes.
	DefaultDiskSize = 1 << 20

	// MaxPathLen bounds the length in bytes of an absolute path accepted
	// by path resolution.
	MaxPathLen = 256

	// FSDirMax bounds the scratch buffer used to read a directory's
	// entries in full.
	FSDirMax = 1024

	// InvalidBlock is the sentinel block index; block 0 is never used for
	// live data and always points at itself on the free list.
	InvalidBlock uint16 = 0

	// InvalidInode is the sentinel inode index; inode 0 is never live and
	// always points at itself on the free list.
	InvalidInode uint16 = 0

	// RootIno is the inode index of the filesystem root directory.
	RootIno uint16 = 1
)

var (
	// ErrNoSpace is returned by the allocator when no free block or inode
	// remains.
	ErrNoSpace = errors.New("sfs: no space left on image")

	// ErrTooSmall is returned when a region is too small to hold even the
	// header and a minimal inode table.
	ErrTooSmall = errors.New("sfs: image region too small")

	// ErrBadMagic is returned by Mount when the region does not look like
	// a valid sfs image.
	ErrBadMagic = errors.New("sfs: invalid image header")

	// ErrCorrupt is returned when enumeration encounters a block pointer
	// that cannot be explained by the inode's declared size.
	ErrCorrupt = errors.New("sfs: filesystem corruption detected")
)

// MaxFileBlocks is the largest number of data-block slots a single inode's
// pointer tree can address: 6 direct, PtrsPerBlock single-indirect, and
// PtrsPerBlock*PtrsPerBlock double-indirect leaves. Triple-indirect is a
// documented extension point and is not enumerated by this engine.
const MaxFileBlocks = DirectBlocks + PtrsPerBlock + PtrsPerBlock*PtrsPerBlock

// MaxFileSize is MaxFileBlocks expressed in bytes.
const MaxFileSize = uint64(MaxFileBlocks) * BlockSize

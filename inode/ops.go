package inode

import (
	"github.com/oliverkovacs/sfs/blockio"
	"github.com/oliverkovacs/sfs/bytesx"
	"github.com/oliverkovacs/sfs/image"
)

// Load decodes the inode at index ino from the image's inode table.
func Load(img *image.Image, ino uint16) (*Inode, error) {
	n := &Inode{}
	if err := n.UnmarshalBinary(img.InodeBytes(ino)); err != nil {
		return nil, err
	}
	return n, nil
}

// Store encodes ino back into its slot in the image's inode table.
func Store(img *image.Image, ino *Inode) error {
	buf, err := ino.MarshalBinary()
	if err != nil {
		return err
	}
	bytesx.Copy(img.InodeBytes(ino.Ino), buf)
	return nil
}

// Alloc takes an inode from the free list, zeroes it, and stores it. It
// returns image.ErrNoSpace if none remain.
func Alloc(img *image.Image) (*Inode, error) {
	idx := img.AllocInode()
	if idx == image.InvalidInode {
		return nil, image.ErrNoSpace
	}
	n := &Inode{}
	n.Zero(idx)
	if err := Store(img, n); err != nil {
		return nil, err
	}
	return n, nil
}

func blocksFor(size uint32) int {
	if size == 0 {
		return 0
	}
	return int((uint64(size) + image.BlockSize - 1) / image.BlockSize)
}

// Truncate is the canonical size-changing primitive: it walks the pointer
// tree once, allocating leaves/indirects needed to grow from old size to
// new, or freeing leaves/indirects no longer needed to shrink. It fails
// with image.ErrNoSpace when an allocation is exhausted; partial work from
// before the failure is left in place (no rollback), as prescribed.
func Truncate(img *image.Image, ino *Inode, newSize uint32) error {
	if uint64(newSize) > image.MaxFileSize {
		return image.ErrCorrupt
	}

	oldBlocks := blocksFor(ino.Size)
	newBlocks := blocksFor(newSize)
	limit := oldBlocks
	if newBlocks > limit {
		limit = newBlocks
	}

	var failed error

	blockio.Walk(img, ino, limit, func(slot blockio.Slot, pos int, phase blockio.Phase) bool {
		switch phase {
		case blockio.Leaf:
			oldLeft := int64(ino.Size) - int64(pos)*image.BlockSize
			newLeft := int64(newSize) - int64(pos)*image.BlockSize
			switch {
			case oldLeft > 0 && newLeft > 0:
				// keep
			case oldLeft > 0 && newLeft <= 0:
				if b := slot.Get(); b != image.InvalidBlock {
					img.FreeBlock(b)
					slot.Set(image.InvalidBlock)
				}
			case oldLeft <= 0 && newLeft > 0:
				b := img.AllocBlock()
				if b == image.InvalidBlock {
					failed = image.ErrNoSpace
					return false
				}
				img.ZeroBlock(b)
				slot.Set(b)
			default:
				return false // past both old and new extents: stop
			}
		case blockio.PreIndirect:
			if slot.Get() == image.InvalidBlock && newBlocks > oldBlocks {
				// Only allocate the indirect block itself if this
				// traversal will reach at least one leaf under it; Walk
				// only calls us at all when pos < limit, which already
				// guarantees that.
				b := img.AllocBlock()
				if b == image.InvalidBlock {
					failed = image.ErrNoSpace
					return false
				}
				img.ZeroBlock(b)
				slot.Set(b)
			}
		case blockio.PostIndirect:
			if slot.Get() != image.InvalidBlock && newBlocks < oldBlocks {
				if indirectBlockEmpty(img, slot.Get()) {
					b := slot.Get()
					img.FreeBlock(b)
					slot.Set(image.InvalidBlock)
				}
			}
		}
		return true
	})

	if failed != nil {
		return failed
	}

	ino.Size = newSize
	return Store(img, ino)
}

// indirectBlockEmpty reports whether every pointer slot of an indirect
// block is the invalid sentinel, i.e. it has no live children left.
func indirectBlockEmpty(img *image.Image, blk uint16) bool {
	for i := 0; i < image.PtrsPerBlock; i++ {
		if img.BlockU16(blk, i) != image.InvalidBlock {
			return false
		}
	}
	return true
}

// Read copies up to len(dst) bytes, or the inode's size (whichever is
// smaller), into dst starting from the beginning of the file. Offsets are
// not honored; see the filesystem-operations layer.
func Read(img *image.Image, ino *Inode, dst []byte) (int, error) {
	m := int(ino.Size)
	if len(dst) < m {
		m = len(dst)
	}
	if m == 0 {
		return 0, nil
	}

	n := 0
	var corrupt error
	blockio.Walk(img, ino, blocksFor(uint32(m)), func(slot blockio.Slot, pos int, phase blockio.Phase) bool {
		if phase != blockio.Leaf {
			return true
		}
		left := m - pos*image.BlockSize
		if left <= 0 {
			return false
		}
		b := slot.Get()
		if b == image.InvalidBlock {
			corrupt = image.ErrCorrupt
			return false
		}
		n += bytesx.Copy(dst[pos*image.BlockSize:pos*image.BlockSize+min(left, image.BlockSize)], img.DataBlock(b))
		return true
	})
	if corrupt != nil {
		return n, corrupt
	}
	return n, nil
}

// Write truncates the inode to exactly len(src) bytes, allocating or
// freeing blocks as needed, then copies src into the newly sized pointer
// tree. This is "truncate then write": the simpler of the two semantics
// documented as an explicit open question upstream.
func Write(img *image.Image, ino *Inode, src []byte, now uint32) (int, error) {
	if err := Truncate(img, ino, uint32(len(src))); err != nil {
		return 0, err
	}

	n := 0
	blockio.Walk(img, ino, blocksFor(uint32(len(src))), func(slot blockio.Slot, pos int, phase blockio.Phase) bool {
		if phase != blockio.Leaf {
			return true
		}
		left := len(src) - pos*image.BlockSize
		if left <= 0 {
			return false
		}
		b := slot.Get()
		n += bytesx.Copy(img.DataBlock(b), src[pos*image.BlockSize:pos*image.BlockSize+min(left, image.BlockSize)])
		return true
	})

	ino.Time = now
	if err := Store(img, ino); err != nil {
		return n, err
	}
	return n, nil
}

// RefsInc increments the inode's reference count.
func RefsInc(img *image.Image, ino *Inode) error {
	ino.Refs++
	return Store(img, ino)
}

// RefsDec decrements the inode's reference count and, once it reaches zero,
// releases the inode's blocks and returns it to the free-inode list.
func RefsDec(img *image.Image, ino *Inode) error {
	ino.Refs--
	if ino.Refs > 0 {
		return Store(img, ino)
	}

	if err := Truncate(img, ino, 0); err != nil {
		return err
	}
	img.FreeInode(ino.Ino)
	return nil
}

// Package blockio implements the block addressing engine: the single
// traversal over an inode's direct, single-indirect, and double-indirect
// block-pointer tree that read, write, truncate, and free are all built out
// of. Triple-indirect is a documented extension point (see Walk) and is not
// enumerated by this engine.
package blockio

import "github.com/oliverkovacs/sfs/image"

// Phase distinguishes why Visit was called for a given slot.
type Phase int

const (
	// Leaf identifies a data-block slot.
	Leaf Phase = iota
	// PreIndirect is visited before descending into a newly referenced
	// indirect block.
	PreIndirect
	// PostIndirect is visited after ascending out of an indirect block,
	// once all of its children have been visited.
	PostIndirect
)

// Slot is a mutable reference to one 16-bit block pointer, whether it lives
// in the inode itself (a direct slot, block_p, or block_pp) or inside an
// indirect block's payload.
type Slot struct {
	get func() uint16
	set func(uint16)
}

// Get returns the current block index stored in the slot.
func (s Slot) Get() uint16 { return s.get() }

// Set stores a new block index in the slot.
func (s Slot) Set(v uint16) { s.set(v) }

// Visitor is called once per logical slot in order. position is the
// inode-relative logical block index for Leaf phases and is meaningless
// (-1) for Pre/PostIndirect phases, since those describe an indirect block
// rather than a single leaf. Returning false stops the traversal
// immediately.
type Visitor func(slot Slot, position int, phase Phase) bool

// PointerTree is the minimal view over an inode's block pointers that the
// engine needs. It is implemented by *inode.Inode; keeping it as an
// interface here avoids blockio depending on the inode package.
type PointerTree interface {
	Direct(i int) uint16
	SetDirect(i int, v uint16)
	Single() uint16
	SetSingle(v uint16)
	Double() uint16
	SetDouble(v uint16)
}

func directSlot(t PointerTree, i int) Slot {
	return Slot{
		get: func() uint16 { return t.Direct(i) },
		set: func(v uint16) { t.SetDirect(i, v) },
	}
}

func singleSlot(t PointerTree) Slot {
	return Slot{get: t.Single, set: t.SetSingle}
}

func doubleSlot(t PointerTree) Slot {
	return Slot{get: t.Double, set: t.SetDouble}
}

func blockSlot(img *image.Image, blk uint16, idx int) Slot {
	return Slot{
		get: func() uint16 { return img.BlockU16(blk, idx) },
		set: func(v uint16) { img.SetBlockU16(blk, idx, v) },
	}
}

// Walk enumerates the logical block slots of an inode's pointer tree in
// order: six direct slots (logical positions 0..5), then the PtrsPerBlock
// slots of the single-indirect block, then the PtrsPerBlock*PtrsPerBlock
// leaf slots reachable through the double-indirect block. Triple-indirect
// is not enumerated: the traversal ends after the double-indirect leaves.
// limit bounds how many logical positions are visited (inode.Truncate
// passes max(oldSize, newSize) in blocks; inode.Read and inode.Write pass
// the block count of the byte range they copy); Walk never visits past it.
//
// visit's PreIndirect/PostIndirect calls for the single- and
// double-indirect blocks are where write/truncate allocate an indirect
// block before descending into it, and where truncate frees an indirect
// block once its children are gone. Walk itself performs no allocation: it
// only reads the current slot value via Slot.Get() to decide whether to
// descend, so a visitor that leaves a slot at image.InvalidBlock will see
// no further descent.
func Walk(img *image.Image, tree PointerTree, limit int, visit Visitor) {
	if limit <= 0 {
		return
	}

	pos := 0
	for i := 0; i < image.DirectBlocks && pos < limit; i++ {
		if !visit(directSlot(tree, i), pos, Leaf) {
			return
		}
		pos++
	}
	if pos >= limit {
		return
	}

	if !walkIndirect(img, singleSlot(tree), 1, &pos, limit, visit) {
		return
	}
	if pos >= limit {
		return
	}

	walkIndirect(img, doubleSlot(tree), 2, &pos, limit, visit)
}

// walkIndirect visits one indirect block at the given depth (1 = its
// children are leaves, 2 = its children are themselves single-indirect
// blocks). It returns false if the visitor asked to stop.
func walkIndirect(img *image.Image, ptr Slot, depth int, pos *int, limit int, visit Visitor) bool {
	if !visit(ptr, -1, PreIndirect) {
		return false
	}

	blk := ptr.Get()
	if blk != image.InvalidBlock {
		for i := 0; i < image.PtrsPerBlock && *pos < limit; i++ {
			child := blockSlot(img, blk, i)
			if depth == 1 {
				if !visit(child, *pos, Leaf) {
					return false
				}
				*pos++
			} else {
				if !walkIndirect(img, child, depth-1, pos, limit, visit) {
					return false
				}
			}
		}
	}

	return visit(ptr, -1, PostIndirect)
}

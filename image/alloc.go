package image

// AllocBlock pops the head of the free-block list in O(1). It returns
// InvalidBlock when the list is exhausted; it never clears the returned
// block's contents.
func (img *Image) AllocBlock() uint16 {
	blk := img.Header.FreeBlk
	if blk == InvalidBlock {
		return InvalidBlock
	}
	img.Header.FreeBlk = img.blockNext(blk)
	img.Header.AllocBlocks++
	img.writeHeader()
	return blk
}

// FreeBlock pushes blk back onto the free-block list. blk must not be
// InvalidBlock.
func (img *Image) FreeBlock(blk uint16) {
	if blk == InvalidBlock {
		return
	}
	img.setBlockNext(blk, img.Header.FreeBlk)
	img.Header.FreeBlk = blk
	img.Header.AllocBlocks--
	img.writeHeader()
}

// AllocInode pops the head of the free-inode list in O(1). It returns
// InvalidInode when the list is exhausted.
func (img *Image) AllocInode() uint16 {
	ino := img.Header.FreeIno
	if ino == InvalidInode {
		return InvalidInode
	}
	img.Header.FreeIno = img.inodeNext(ino)
	img.Header.AllocInodes++
	img.writeHeader()
	return ino
}

// FreeInode pushes ino back onto the free-inode list. ino must not be
// InvalidInode. Callers must have already released the inode's blocks
// (truncated to 0) before calling this.
func (img *Image) FreeInode(ino uint16) {
	if ino == InvalidInode {
		return
	}
	img.setInodeNext(ino, img.Header.FreeIno)
	img.Header.FreeIno = ino
	img.Header.AllocInodes--
	img.writeHeader()
}

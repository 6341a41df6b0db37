package image

import (
	"encoding/binary"

	"github.com/google/uuid"

	"github.com/oliverkovacs/sfs/bytesx"
)

// Image maps a raw byte region onto header, inode table, and data blocks. It
// owns no I/O of its own: persistence (reading/writing a host file) lives one
// layer up, outside the core.
type Image struct {
	Header Header

	region    []byte // the entire backing region, header included
	inodeOfft int    // byte offset of the inode table within region
	dataOfft  int    // byte offset of the data-block region within region
}

// Region returns the full backing byte slice. Callers that persist the image
// (load/save) work directly against this.
func (img *Image) Region() []byte { return img.region }

// Create initializes a fresh filesystem in-place over region, partitioned
// into blockCount blocks of BlockSize bytes, with inodeBlocks blocks reserved
// for the inode table.
func Create(region []byte, blockCount, inodeBlocks int) (*Image, error) {
	if blockCount < inodeBlocks+2 {
		return nil, ErrTooSmall
	}
	if len(region) < blockCount*BlockSize {
		return nil, ErrTooSmall
	}

	bytesx.Fill(region, 0)

	img := &Image{
		region:    region,
		inodeOfft: BlockSize,
		dataOfft:  BlockSize * (1 + inodeBlocks),
	}

	totalInodes := inodeBlocks * InodesPerBlock
	dataBlocks := blockCount - 1 - inodeBlocks

	h := &img.Header
	h.Magic = headerMagic
	h.TotalBlocks = uint16(blockCount)
	h.HeaderBlocks = 1
	h.InodeBlocks = uint16(inodeBlocks)
	h.DataBlocks = uint16(dataBlocks)
	h.AllocBlocks = 0
	h.TotalInodes = uint16(totalInodes)
	h.AllocInodes = 0
	h.HeaderBytes = BlockSize
	h.InodeBytes = InodeSize
	h.BlockBytes = BlockSize
	h.PtrsPerBlock = PtrsPerBlock
	h.MaxIno = uint16(totalInodes - 1)
	h.RootIno = RootIno
	h.MaxPathLen = MaxPathLen
	id := uuid.New()
	copy(h.VolumeID[:], id[:])

	img.initFreeBlocks(dataBlocks)
	img.initFreeInodes(totalInodes)

	img.writeHeader()

	return img, nil
}

// initFreeBlocks links every data block index 1..dataBlocks-1 into the
// free-block list; block 0 is the reserved sentinel and points at itself.
func (img *Image) initFreeBlocks(dataBlocks int) {
	img.setBlockNext(InvalidBlock, InvalidBlock)
	if dataBlocks <= 1 {
		img.Header.FreeBlk = InvalidBlock
		return
	}
	for i := 1; i < dataBlocks-1; i++ {
		img.setBlockNext(uint16(i), uint16(i+1))
	}
	img.setBlockNext(uint16(dataBlocks-1), InvalidBlock)
	img.Header.FreeBlk = 1
}

// initFreeInodes links inode indices 2..totalInodes-1 into the free-inode
// list. Inode 0 is the reserved sentinel and points at itself; inode 1 (root)
// is left for the caller to initialize as the empty root directory.
func (img *Image) initFreeInodes(totalInodes int) {
	img.setInodeNext(InvalidInode, InvalidInode)
	if totalInodes <= 2 {
		img.Header.FreeIno = InvalidInode
		return
	}
	for i := 2; i < totalInodes-1; i++ {
		img.setInodeNext(uint16(i), uint16(i+1))
	}
	img.setInodeNext(uint16(totalInodes-1), InvalidInode)
	img.Header.FreeIno = 2
}

// Mount assumes region already contains a valid image and recomputes the
// in-memory offsets to header, inode table, and block region without
// touching their contents.
func Mount(region []byte) (*Image, error) {
	if len(region) < BlockSize {
		return nil, ErrTooSmall
	}

	img := &Image{region: region}
	if err := img.Header.UnmarshalBinary(region[:BlockSize]); err != nil {
		return nil, err
	}
	if !img.Header.Valid() {
		return nil, ErrBadMagic
	}

	img.inodeOfft = BlockSize
	img.dataOfft = BlockSize * (1 + int(img.Header.InodeBlocks))

	if int(img.Header.TotalBlocks)*BlockSize > len(region) {
		return nil, ErrTooSmall
	}

	return img, nil
}

// writeHeader serializes img.Header back into the region's first block.
// Callers mutate Header in place and call this once they're done, the way
// inode mutations are written back to the inode table after a batch of
// field changes.
func (img *Image) writeHeader() {
	buf, _ := img.Header.MarshalBinary()
	copy(img.region[:BlockSize], buf)
}

// Sync flushes the in-memory header back into the region. It must be called
// before persisting the image to a host file if Header fields were mutated
// directly (AllocBlocks, FreeBlk, ...); the allocator calls it automatically.
func (img *Image) Sync() { img.writeHeader() }

// InodeBytes returns the raw InodeSize-byte record for inode index ino
// within the inode table, ino must be in [0, TotalInodes).
func (img *Image) InodeBytes(ino uint16) []byte {
	off := img.inodeOfft + int(ino)*InodeSize
	return img.region[off : off+InodeSize]
}

// DataBlock returns the raw BlockSize-byte slice for data block index blk.
// blk must be in [0, DataBlocks).
func (img *Image) DataBlock(blk uint16) []byte {
	off := img.dataOfft + int(blk)*BlockSize
	return img.region[off : off+BlockSize]
}

// BlockU16 reads the little-endian uint16 stored at 2*idx within block blk;
// used to address entries of an indirect block.
func (img *Image) BlockU16(blk uint16, idx int) uint16 {
	b := img.DataBlock(blk)
	return binary.LittleEndian.Uint16(b[idx*2 : idx*2+2])
}

// SetBlockU16 writes v as the little-endian uint16 at 2*idx within block blk.
func (img *Image) SetBlockU16(blk uint16, idx int, v uint16) {
	b := img.DataBlock(blk)
	binary.LittleEndian.PutUint16(b[idx*2:idx*2+2], v)
}

// setBlockNext stores next as the free-list pointer at offset 0 of block
// blk's payload (fs_block.free.next in the original design).
func (img *Image) setBlockNext(blk, next uint16) {
	img.SetBlockU16(blk, 0, next)
}

// blockNext reads the free-list pointer at offset 0 of block blk's payload.
func (img *Image) blockNext(blk uint16) uint16 {
	return img.BlockU16(blk, 0)
}

// setInodeNext stores next into the ino field of a free inode record (the
// intrusive free-inode list reuses the live "ino" field as "next").
func (img *Image) setInodeNext(ino, next uint16) {
	binary.LittleEndian.PutUint16(img.InodeBytes(ino)[0:2], next)
}

// inodeNext reads the next-free pointer out of a free inode record.
func (img *Image) inodeNext(ino uint16) uint16 {
	return binary.LittleEndian.Uint16(img.InodeBytes(ino)[0:2])
}

// ZeroBlock clears a data block's payload. The allocator never clears on its
// own; callers (the block engine, on first allocation during write/truncate)
// are responsible for this.
func (img *Image) ZeroBlock(blk uint16) {
	bytesx.Fill(img.DataBlock(blk), 0)
}

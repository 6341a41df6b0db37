package image

import (
	"bytes"
	"encoding/binary"
	"reflect"
)

// headerMagic identifies the first block of an sfs image.
var headerMagic = [4]byte{'s', 'f', 's', '1'}

// Header is the fixed-size record stored at block 0 of the image. All
// integer fields are little-endian. Field order here is the on-medium field
// order.
type Header struct {
	Magic [4]byte

	TotalBlocks  uint16 // total blocks in the image (header + inode table + data)
	HeaderBlocks uint16 // always 1
	InodeBlocks  uint16 // I
	DataBlocks   uint16 // TotalBlocks - HeaderBlocks - InodeBlocks
	AllocBlocks  uint16 // data blocks currently in use
	TotalInodes  uint16 // InodeBlocks * InodesPerBlock
	AllocInodes  uint16 // inodes currently in use

	HeaderBytes  uint16 // sizeof(Header) on medium
	InodeBytes   uint16 // InodeSize
	BlockBytes   uint16 // BlockSize
	PtrsPerBlock uint16 // BlockSize / 2

	MaxIno     uint16 // TotalInodes - 1
	RootIno    uint16 // always 1
	FreeIno    uint16 // head of the free-inode list
	FreeBlk    uint16 // head of the free-block list
	MaxPathLen uint16 // longest absolute path accepted by path resolution

	VolumeID [16]byte // stamped once at create() time
}

// fields lists the header's fields in on-medium order for (un)marshaling. Using
// reflection here walks the exported fields by declaration order instead of
// hand listing binary.Write calls.
func (h *Header) fields() []interface{} {
	v := reflect.ValueOf(h).Elem()
	out := make([]interface{}, 0, v.NumField())
	for i := 0; i < v.NumField(); i++ {
		out = append(out, v.Field(i).Addr().Interface())
	}
	return out
}

// MarshalBinary encodes the header into a BlockSize buffer.
func (h *Header) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	for _, f := range h.fields() {
		if err := binary.Write(&buf, binary.LittleEndian, f); err != nil {
			return nil, err
		}
	}
	out := make([]byte, BlockSize)
	copy(out, buf.Bytes())
	return out, nil
}

// UnmarshalBinary decodes the header from its block. It does not validate
// the magic; callers use Valid() for that.
func (h *Header) UnmarshalBinary(data []byte) error {
	r := bytes.NewReader(data)
	for _, f := range h.fields() {
		if err := binary.Read(r, binary.LittleEndian, f); err != nil {
			return err
		}
	}
	return nil
}

// Valid reports whether the header carries the sfs magic.
func (h *Header) Valid() bool {
	return h.Magic == headerMagic
}

package image_test

import (
	"testing"

	"github.com/oliverkovacs/sfs/image"
)

func newTestImage(t *testing.T) *image.Image {
	t.Helper()
	region := make([]byte, 64*image.BlockSize)
	img, err := image.Create(region, 64, 4)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return img
}

func TestCreateGeometry(t *testing.T) {
	img := newTestImage(t)
	h := img.Header

	if !h.Valid() {
		t.Fatal("header not valid after Create")
	}
	if h.TotalBlocks != 64 {
		t.Errorf("TotalBlocks = %d, want 64", h.TotalBlocks)
	}
	if h.InodeBlocks != 4 {
		t.Errorf("InodeBlocks = %d, want 4", h.InodeBlocks)
	}
	wantInodes := uint16(4 * image.InodesPerBlock)
	if h.TotalInodes != wantInodes {
		t.Errorf("TotalInodes = %d, want %d", h.TotalInodes, wantInodes)
	}
	wantData := uint16(64 - 1 - 4)
	if h.DataBlocks != wantData {
		t.Errorf("DataBlocks = %d, want %d", h.DataBlocks, wantData)
	}
	if h.AllocBlocks != 0 || h.AllocInodes != 0 {
		t.Errorf("fresh image should have zero allocations, got blocks=%d inodes=%d", h.AllocBlocks, h.AllocInodes)
	}
}

func TestCreateTooSmall(t *testing.T) {
	region := make([]byte, 4*image.BlockSize)
	if _, err := image.Create(region, 4, 4); err != image.ErrTooSmall {
		t.Fatalf("Create with insufficient blocks: got %v, want ErrTooSmall", err)
	}
}

func TestMountRoundTrip(t *testing.T) {
	img := newTestImage(t)
	region := img.Region()

	mounted, err := image.Mount(region)
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}
	if mounted.Header.Magic != img.Header.Magic {
		t.Errorf("Magic mismatch after Mount")
	}
	if mounted.Header.TotalBlocks != img.Header.TotalBlocks {
		t.Errorf("TotalBlocks mismatch after Mount")
	}
}

func TestMountBadMagic(t *testing.T) {
	region := make([]byte, 64*image.BlockSize)
	if _, err := image.Mount(region); err != image.ErrBadMagic {
		t.Fatalf("Mount of zeroed region: got %v, want ErrBadMagic", err)
	}
}

func TestAllocFreeBlock(t *testing.T) {
	img := newTestImage(t)

	b1 := img.AllocBlock()
	if b1 == image.InvalidBlock {
		t.Fatal("AllocBlock returned InvalidBlock on a fresh image")
	}
	if img.Header.AllocBlocks != 1 {
		t.Errorf("AllocBlocks = %d, want 1", img.Header.AllocBlocks)
	}

	img.FreeBlock(b1)
	if img.Header.AllocBlocks != 0 {
		t.Errorf("AllocBlocks after free = %d, want 0", img.Header.AllocBlocks)
	}

	b2 := img.AllocBlock()
	if b2 != b1 {
		t.Errorf("expected freed block %d to be reused, got %d", b1, b2)
	}
}

func TestAllocExhaustion(t *testing.T) {
	region := make([]byte, 6*image.BlockSize)
	img, err := image.Create(region, 6, 1)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	var allocated []uint16
	for {
		b := img.AllocBlock()
		if b == image.InvalidBlock {
			break
		}
		allocated = append(allocated, b)
	}
	if len(allocated) == 0 {
		t.Fatal("expected at least one block to be allocatable")
	}
	if got := img.AllocBlock(); got != image.InvalidBlock {
		t.Errorf("AllocBlock after exhaustion = %d, want InvalidBlock", got)
	}
}

func TestAllocFreeInode(t *testing.T) {
	img := newTestImage(t)

	i1 := img.AllocInode()
	if i1 == image.InvalidInode {
		t.Fatal("AllocInode returned InvalidInode on a fresh image")
	}
	img.FreeInode(i1)
	i2 := img.AllocInode()
	if i2 != i1 {
		t.Errorf("expected freed inode %d to be reused, got %d", i1, i2)
	}
}

func TestBlockU16RoundTrip(t *testing.T) {
	img := newTestImage(t)
	b := img.AllocBlock()
	img.SetBlockU16(b, 3, 0xBEEF)
	if got := img.BlockU16(b, 3); got != 0xBEEF {
		t.Errorf("BlockU16 = %x, want 0xBEEF", got)
	}
}

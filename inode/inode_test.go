package inode_test

import (
	"io/fs"
	"testing"

	"github.com/oliverkovacs/sfs/image"
	"github.com/oliverkovacs/sfs/inode"
)

func newTestImage(t *testing.T) *image.Image {
	t.Helper()
	region := make([]byte, 256*image.BlockSize)
	img, err := image.Create(region, 256, 8)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return img
}

func TestSetModeFileMode(t *testing.T) {
	var n inode.Inode
	n.SetMode(fs.ModeDir | 0755)
	if !n.IsDir() {
		t.Error("expected IsDir true after SetMode(ModeDir)")
	}
	if got := n.FileMode().Perm(); got != 0755 {
		t.Errorf("Perm() = %o, want %o", got, 0755)
	}

	n.SetMode(0644)
	if n.IsDir() {
		t.Error("expected IsDir false for a regular file")
	}
	if got := n.FileMode().Perm(); got != 0644 {
		t.Errorf("Perm() = %o, want %o", got, 0644)
	}
}

func TestSetPermPreservesType(t *testing.T) {
	var n inode.Inode
	n.SetMode(fs.ModeDir | 0755)
	n.SetPerm(0700)
	if !n.IsDir() {
		t.Error("SetPerm must not clear the directory bit")
	}
	if got := n.FileMode().Perm(); got != 0700 {
		t.Errorf("Perm() after SetPerm = %o, want %o", got, 0700)
	}
}

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	var n inode.Inode
	n.Zero(5)
	n.SetMode(0644)
	n.Uid, n.Gid = 12, 34
	n.Size = 9000
	n.Time = 123456
	n.Block[0] = 7

	buf, err := n.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	if len(buf) != image.InodeSize {
		t.Fatalf("marshaled size = %d, want %d", len(buf), image.InodeSize)
	}

	var got inode.Inode
	if err := got.UnmarshalBinary(buf); err != nil {
		t.Fatalf("UnmarshalBinary: %v", err)
	}
	if got != n {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, n)
	}
}

func TestAllocStoreLoad(t *testing.T) {
	img := newTestImage(t)

	n, err := inode.Alloc(img)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	n.SetMode(0644)
	n.Size = 42
	if err := inode.Store(img, n); err != nil {
		t.Fatalf("Store: %v", err)
	}

	loaded, err := inode.Load(img, n.Ino)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Size != 42 {
		t.Errorf("Size = %d, want 42", loaded.Size)
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	img := newTestImage(t)
	n, err := inode.Alloc(img)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}

	data := make([]byte, 5000)
	for i := range data {
		data[i] = byte(i)
	}

	written, err := inode.Write(img, n, data, 111)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if written != len(data) {
		t.Fatalf("Write returned %d, want %d", written, len(data))
	}
	if int(n.Size) != len(data) {
		t.Errorf("Size after Write = %d, want %d", n.Size, len(data))
	}

	wantBlocks := (len(data) + image.BlockSize - 1) / image.BlockSize
	if blocks := img.Header.AllocBlocks; int(blocks)-2 < wantBlocks-1 {
		// 5000 bytes take 10 data blocks plus the one single-indirect
		// block, so at least wantBlocks+1 allocations are expected.
		t.Errorf("AllocBlocks = %d, expected at least around %d data blocks", blocks, wantBlocks)
	}

	dst := make([]byte, len(data))
	rn, err := inode.Read(img, n, dst)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if rn != len(data) {
		t.Fatalf("Read returned %d, want %d", rn, len(data))
	}
	for i := range data {
		if dst[i] != data[i] {
			t.Fatalf("byte %d mismatch: got %d, want %d", i, dst[i], data[i])
		}
	}
}

func TestTruncateShrinkFreesBlocks(t *testing.T) {
	img := newTestImage(t)
	n, err := inode.Alloc(img)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}

	if _, err := inode.Write(img, n, make([]byte, 10*image.BlockSize), 0); err != nil {
		t.Fatalf("Write: %v", err)
	}
	grownAlloc := img.Header.AllocBlocks

	if err := inode.Truncate(img, n, 0); err != nil {
		t.Fatalf("Truncate: %v", err)
	}
	if n.Size != 0 {
		t.Errorf("Size after truncate to 0 = %d, want 0", n.Size)
	}
	if img.Header.AllocBlocks >= grownAlloc {
		t.Errorf("AllocBlocks did not decrease after truncating to 0: before=%d after=%d", grownAlloc, img.Header.AllocBlocks)
	}
}

func TestRefsLifecycle(t *testing.T) {
	img := newTestImage(t)
	n, err := inode.Alloc(img)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	ino := n.Ino

	if err := inode.RefsInc(img, n); err != nil {
		t.Fatalf("RefsInc: %v", err)
	}
	if n.Refs != 1 {
		t.Fatalf("Refs = %d, want 1", n.Refs)
	}

	if err := inode.RefsDec(img, n); err != nil {
		t.Fatalf("RefsDec: %v", err)
	}
	if n.Refs != 0 {
		t.Fatalf("Refs after dec = %d, want 0", n.Refs)
	}

	// the inode should now be back on the free list and reusable
	reused, err := inode.Alloc(img)
	if err != nil {
		t.Fatalf("Alloc after free: %v", err)
	}
	if reused.Ino != ino {
		t.Errorf("expected freed inode %d to be reused, got %d", ino, reused.Ino)
	}
}

package sfs_test

import (
	"testing"

	"github.com/oliverkovacs/sfs"
	"github.com/oliverkovacs/sfs/image"
)

func newTestFS(t *testing.T) *sfs.FS {
	t.Helper()
	f, err := sfs.New(sfs.WithBlockCount(256), sfs.WithInodeBlocks(8))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return f
}

func TestNewRootIsEmptyDir(t *testing.T) {
	f := newTestFS(t)

	at, err := f.Getattr("/")
	if err != nil {
		t.Fatalf("Getattr(/): %v", err)
	}
	if !at.Mode.IsDir() {
		t.Fatal("root must be a directory")
	}

	var names []string
	if err := f.Readdir("/", func(name string, ino uint16) bool {
		names = append(names, name)
		return true
	}); err != nil {
		t.Fatalf("Readdir(/): %v", err)
	}
	if len(names) != 2 || names[0] != "." || names[1] != ".." {
		t.Fatalf("root entries = %v, want [. ..]", names)
	}
}

func TestMkdirAndGetattr(t *testing.T) {
	f := newTestFS(t)
	if err := f.Mkdir("/dir", 0755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}

	at, err := f.Getattr("/dir")
	if err != nil {
		t.Fatalf("Getattr: %v", err)
	}
	if !at.Mode.IsDir() {
		t.Error("expected /dir to be a directory")
	}
	if at.Mode.Perm() != 0755 {
		t.Errorf("Perm = %o, want 0755", at.Mode.Perm())
	}
}

func TestMkdirNestedAndDuplicate(t *testing.T) {
	f := newTestFS(t)
	if err := f.Mkdir("/a", 0755); err != nil {
		t.Fatalf("Mkdir /a: %v", err)
	}
	if err := f.Mkdir("/a/b", 0755); err != nil {
		t.Fatalf("Mkdir /a/b: %v", err)
	}
	if err := f.Mkdir("/a", 0755); err == nil {
		t.Fatal("expected Mkdir of existing path to fail")
	}
}

func TestMknodWriteReadRoundTrip(t *testing.T) {
	f := newTestFS(t)
	if err := f.Mknod("/file.txt", 0644, 0); err != nil {
		t.Fatalf("Mknod: %v", err)
	}

	data := make([]byte, 5000)
	for i := range data {
		data[i] = byte(i % 251)
	}
	n, err := f.Write("/file.txt", data)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if n != len(data) {
		t.Fatalf("Write returned %d, want %d", n, len(data))
	}

	at, err := f.Getattr("/file.txt")
	if err != nil {
		t.Fatalf("Getattr: %v", err)
	}
	if int(at.Size) != len(data) {
		t.Errorf("Size = %d, want %d", at.Size, len(data))
	}

	dst := make([]byte, len(data))
	rn, err := f.Read("/file.txt", dst)
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

func TestUnlinkRejectsDirectory(t *testing.T) {
	f := newTestFS(t)
	if err := f.Mkdir("/dir", 0755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	if err := f.Unlink("/dir"); err != sfs.ErrIsDir {
		t.Fatalf("Unlink(dir): got %v, want ErrIsDir", err)
	}
}

func TestUnlinkFile(t *testing.T) {
	f := newTestFS(t)
	if err := f.Mknod("/file.txt", 0644, 0); err != nil {
		t.Fatalf("Mknod: %v", err)
	}
	if err := f.Unlink("/file.txt"); err != nil {
		t.Fatalf("Unlink: %v", err)
	}
	if _, err := f.Getattr("/file.txt"); err == nil {
		t.Fatal("expected Getattr of unlinked file to fail")
	}
}

func TestRmdirRequiresEmpty(t *testing.T) {
	f := newTestFS(t)
	if err := f.Mkdir("/dir", 0755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	if err := f.Mknod("/dir/file.txt", 0644, 0); err != nil {
		t.Fatalf("Mknod: %v", err)
	}
	if err := f.Rmdir("/dir"); err != sfs.ErrNotEmpty {
		t.Fatalf("Rmdir(non-empty): got %v, want ErrNotEmpty", err)
	}

	if err := f.Unlink("/dir/file.txt"); err != nil {
		t.Fatalf("Unlink: %v", err)
	}
	if err := f.Rmdir("/dir"); err != nil {
		t.Fatalf("Rmdir(empty): %v", err)
	}
}

func TestRenameMovesEntry(t *testing.T) {
	f := newTestFS(t)
	if err := f.Mknod("/a.txt", 0644, 0); err != nil {
		t.Fatalf("Mknod: %v", err)
	}
	if _, err := f.Write("/a.txt", []byte("hello")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if err := f.Rename("/a.txt", "/b.txt"); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if _, err := f.Getattr("/a.txt"); err == nil {
		t.Fatal("expected /a.txt to no longer exist after Rename")
	}
	at, err := f.Getattr("/b.txt")
	if err != nil {
		t.Fatalf("Getattr(/b.txt): %v", err)
	}
	if int(at.Size) != len("hello") {
		t.Errorf("Size after Rename = %d, want %d", at.Size, len("hello"))
	}
}

func TestLinkSharesInode(t *testing.T) {
	f := newTestFS(t)
	if err := f.Mknod("/a.txt", 0644, 0); err != nil {
		t.Fatalf("Mknod: %v", err)
	}
	if err := f.Link("/a.txt", "/b.txt"); err != nil {
		t.Fatalf("Link: %v", err)
	}

	if _, err := f.Write("/a.txt", []byte("shared")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	at, err := f.Getattr("/b.txt")
	if err != nil {
		t.Fatalf("Getattr(/b.txt): %v", err)
	}
	if int(at.Size) != len("shared") {
		t.Errorf("Size via hard link = %d, want %d", at.Size, len("shared"))
	}
	if at.Nlink != 2 {
		t.Errorf("Nlink = %d, want 2", at.Nlink)
	}
}

func TestChmodPreservesType(t *testing.T) {
	f := newTestFS(t)
	if err := f.Mknod("/f", 0644, 0); err != nil {
		t.Fatalf("Mknod: %v", err)
	}
	if err := f.Chmod("/f", 0600); err != nil {
		t.Fatalf("Chmod: %v", err)
	}
	at, err := f.Getattr("/f")
	if err != nil {
		t.Fatalf("Getattr: %v", err)
	}
	if at.Mode.Perm() != 0600 {
		t.Errorf("Perm = %o, want 0600", at.Mode.Perm())
	}
	if at.Mode.IsDir() {
		t.Error("Chmod must not turn a regular file into a directory")
	}
}

func TestTruncateGrowsAndShrinks(t *testing.T) {
	f := newTestFS(t)
	if err := f.Mknod("/f", 0644, 0); err != nil {
		t.Fatalf("Mknod: %v", err)
	}
	if err := f.Truncate("/f", 1000); err != nil {
		t.Fatalf("Truncate grow: %v", err)
	}
	at, err := f.Getattr("/f")
	if err != nil {
		t.Fatalf("Getattr: %v", err)
	}
	if at.Size != 1000 {
		t.Errorf("Size after grow = %d, want 1000", at.Size)
	}

	if err := f.Truncate("/f", 10); err != nil {
		t.Fatalf("Truncate shrink: %v", err)
	}
	at, err = f.Getattr("/f")
	if err != nil {
		t.Fatalf("Getattr: %v", err)
	}
	if at.Size != 10 {
		t.Errorf("Size after shrink = %d, want 10", at.Size)
	}
}

func TestStatfsReflectsAllocation(t *testing.T) {
	f := newTestFS(t)
	before := f.Statfs()

	if err := f.Mknod("/f", 0644, 0); err != nil {
		t.Fatalf("Mknod: %v", err)
	}
	if _, err := f.Write("/f", make([]byte, 2*image.BlockSize)); err != nil {
		t.Fatalf("Write: %v", err)
	}

	after := f.Statfs()
	if after.InodesFree >= before.InodesFree {
		t.Errorf("InodesFree did not decrease: before=%d after=%d", before.InodesFree, after.InodesFree)
	}
	if after.BlocksFree >= before.BlocksFree {
		t.Errorf("BlocksFree did not decrease: before=%d after=%d", before.BlocksFree, after.BlocksFree)
	}
}

func TestDumpMountRoundTrip(t *testing.T) {
	f := newTestFS(t)
	if err := f.Mkdir("/dir", 0755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	if err := f.Mknod("/dir/file.txt", 0644, 0); err != nil {
		t.Fatalf("Mknod: %v", err)
	}
	if _, err := f.Write("/dir/file.txt", []byte("persisted")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	region := f.Dump()
	regionCopy := make([]byte, len(region))
	copy(regionCopy, region)

	reloaded, err := sfs.Mount(regionCopy)
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}

	dst := make([]byte, len("persisted"))
	if _, err := reloaded.Read("/dir/file.txt", dst); err != nil {
		t.Fatalf("Read after Mount: %v", err)
	}
	if string(dst) != "persisted" {
		t.Errorf("content after Mount = %q, want %q", dst, "persisted")
	}
}

func TestUtimens(t *testing.T) {
	f := newTestFS(t)
	if err := f.Mknod("/f", 0644, 0); err != nil {
		t.Fatalf("Mknod: %v", err)
	}
	if err := f.Utimens("/f", 999); err != nil {
		t.Fatalf("Utimens: %v", err)
	}
	at, err := f.Getattr("/f")
	if err != nil {
		t.Fatalf("Getattr: %v", err)
	}
	if at.Mtime != 999 {
		t.Errorf("Mtime = %d, want 999", at.Mtime)
	}
}

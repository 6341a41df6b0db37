package sfs

import (
	"io/fs"
	"time"

	"github.com/oliverkovacs/sfs/dirent"
	"github.com/oliverkovacs/sfs/image"
	"github.com/oliverkovacs/sfs/inode"
	"github.com/oliverkovacs/sfs/internal/hostuid"
	"github.com/oliverkovacs/sfs/pathfs"
)

// FS is a mounted sfs image: the image layout plus the high-level
// operations built on top of it. The zero value is not usable; construct
// one with New, Load, or Mount.
type FS struct {
	img *image.Image
}

// New creates a fresh filesystem image in memory, sized and shaped by opts.
func New(opts ...Option) (*FS, error) {
	cfg := createConfig{
		blockCount:  image.DefaultDiskSize / image.BlockSize,
		inodeBlocks: image.DefaultInodeBlocks,
	}
	for _, o := range opts {
		if err := o(&cfg); err != nil {
			return nil, err
		}
	}

	region := make([]byte, cfg.blockCount*image.BlockSize)
	img, err := image.Create(region, cfg.blockCount, cfg.inodeBlocks)
	if err != nil {
		return nil, err
	}

	if err := initRoot(img); err != nil {
		return nil, err
	}

	return &FS{img: img}, nil
}

// initRoot pre-initializes inode 1 as an empty root directory whose ".."
// points at itself, the way image.Create's design note describes but
// leaves to the caller since it needs the inode-operations and
// directory-entry layers above it.
func initRoot(img *image.Image) error {
	root := &inode.Inode{}
	root.Zero(image.RootIno)
	root.SetMode(fs.ModeDir | 0755)
	uid, gid := hostuid.Current()
	root.Uid, root.Gid = uint8(uid), uint8(gid)
	root.Time = now()
	if err := inode.Store(img, root); err != nil {
		return err
	}
	img.Header.AllocInodes++
	img.Sync()

	return dirent.InitDir(img, root, root, now())
}

// Mount wraps an already-initialized image region (e.g. one just loaded
// from a host file) without touching its contents.
func Mount(region []byte) (*FS, error) {
	img, err := image.Mount(region)
	if err != nil {
		return nil, err
	}
	return &FS{img: img}, nil
}

// Dump returns the backing byte region, header synced, ready to be
// persisted to a host file.
func (f *FS) Dump() []byte {
	f.img.Sync()
	return f.img.Region()
}

func now() uint32 { return uint32(time.Now().Unix()) }

func (f *FS) resolve(path string) (*inode.Inode, error) {
	return pathfs.Resolve(f.img, image.RootIno, path)
}

func (f *FS) parentOf(path string) (*inode.Inode, error) {
	p, err := pathfs.ParentIno(f.img, image.RootIno, path)
	if err != nil {
		return nil, err
	}
	if !p.IsDir() {
		return nil, pathfs.ErrNotDir
	}
	return p, nil
}

// Mkdir creates a new empty directory at path with the given permission
// bits, then populates it with "." and ".." entries.
func (f *FS) Mkdir(path string, perm fs.FileMode) error {
	parent, err := f.parentOf(path)
	if err != nil {
		return err
	}
	leaf, err := pathfs.LeafName(path)
	if err != nil {
		return err
	}

	dir, err := inode.Alloc(f.img)
	if err != nil {
		return err
	}
	dir.SetMode(fs.ModeDir | perm.Perm())
	uid, gid := hostuid.Current()
	dir.Uid, dir.Gid = uint8(uid), uint8(gid)
	dir.Time = now()
	if err := inode.Store(f.img, dir); err != nil {
		return err
	}

	if err := dirent.Link(f.img, parent, dir, leaf, now()); err != nil {
		return err
	}
	return dirent.InitDir(f.img, dir, parent, now())
}

// Mknod creates a new regular file at path. dev is accepted for interface
// symmetry with the adapter surface and is ignored, as specified.
func (f *FS) Mknod(path string, perm fs.FileMode, dev uint64) error {
	parent, err := f.parentOf(path)
	if err != nil {
		return err
	}
	leaf, err := pathfs.LeafName(path)
	if err != nil {
		return err
	}

	n, err := inode.Alloc(f.img)
	if err != nil {
		return err
	}
	n.SetMode(perm.Perm())
	uid, gid := hostuid.Current()
	n.Uid, n.Gid = uint8(uid), uint8(gid)
	n.Time = now()
	if err := inode.Store(f.img, n); err != nil {
		return err
	}

	return dirent.Link(f.img, parent, n, leaf, now())
}

// Unlink removes the directory entry at path and releases its inode once
// no entries reference it. It fails with ErrIsDir if path names a
// directory.
func (f *FS) Unlink(path string) error {
	target, err := f.resolve(path)
	if err != nil {
		return err
	}
	if target.IsDir() {
		return ErrIsDir
	}
	parent, err := f.parentOf(path)
	if err != nil {
		return err
	}
	leaf, err := pathfs.LeafName(path)
	if err != nil {
		return err
	}
	return dirent.Unlink(f.img, parent, target, leaf, now())
}

// Rmdir removes an empty directory at path. It fails with ErrNotEmpty if
// path contains any entry other than "." or "..".
func (f *FS) Rmdir(path string) error {
	target, err := f.resolve(path)
	if err != nil {
		return err
	}
	if !target.IsDir() {
		return pathfs.ErrNotDir
	}
	empty, err := dirent.Empty(f.img, target)
	if err != nil {
		return err
	}
	if !empty {
		return ErrNotEmpty
	}
	parent, err := f.parentOf(path)
	if err != nil {
		return err
	}
	leaf, err := pathfs.LeafName(path)
	if err != nil {
		return err
	}
	return dirent.Unlink(f.img, parent, target, leaf, now())
}

// Rename links src's inode under dst's name, then unlinks src. The
// reference count is bumped then dropped so the inode is never transiently
// orphaned.
func (f *FS) Rename(src, dst string) error {
	srcInode, err := f.resolve(src)
	if err != nil {
		return err
	}

	dstParent, err := f.parentOf(dst)
	if err != nil {
		return err
	}
	dstLeaf, err := pathfs.LeafName(dst)
	if err != nil {
		return err
	}
	if err := dirent.Link(f.img, dstParent, srcInode, dstLeaf, now()); err != nil {
		return err
	}

	srcParent, err := f.parentOf(src)
	if err != nil {
		return err
	}
	srcLeaf, err := pathfs.LeafName(src)
	if err != nil {
		return err
	}
	return dirent.Unlink(f.img, srcParent, srcInode, srcLeaf, now())
}

// Link binds dst's existing inode under a new name, src.
func (f *FS) Link(dst, src string) error {
	dstInode, err := f.resolve(dst)
	if err != nil {
		return err
	}
	srcParent, err := f.parentOf(src)
	if err != nil {
		return err
	}
	srcLeaf, err := pathfs.LeafName(src)
	if err != nil {
		return err
	}
	return dirent.Link(f.img, srcParent, dstInode, srcLeaf, now())
}

// Chmod updates path's permission bits, leaving its file type untouched.
func (f *FS) Chmod(path string, perm fs.FileMode) error {
	n, err := f.resolve(path)
	if err != nil {
		return err
	}
	n.SetPerm(perm)
	return inode.Store(f.img, n)
}

// Chown updates path's owner and group.
func (f *FS) Chown(path string, uid, gid uint32) error {
	n, err := f.resolve(path)
	if err != nil {
		return err
	}
	n.Uid, n.Gid = uint8(uid), uint8(gid)
	return inode.Store(f.img, n)
}

// Truncate resizes path's content to exactly length bytes.
func (f *FS) Truncate(path string, length uint32) error {
	n, err := f.resolve(path)
	if err != nil {
		return err
	}
	if err := inode.Truncate(f.img, n, length); err != nil {
		return err
	}
	n.Time = now()
	return inode.Store(f.img, n)
}

// Read copies path's full content (or as much as fits in dst) into dst.
// Offsets are not honored: the present design treats read as a whole-file
// operation, per the open design question upstream.
func (f *FS) Read(path string, dst []byte) (int, error) {
	n, err := f.resolve(path)
	if err != nil {
		return 0, err
	}
	return inode.Read(f.img, n, dst)
}

// Write replaces path's content with data in full.
func (f *FS) Write(path string, data []byte) (int, error) {
	n, err := f.resolve(path)
	if err != nil {
		return 0, err
	}
	return inode.Write(f.img, n, data, now())
}

// Utimens stamps path's modification time.
func (f *FS) Utimens(path string, sec uint32) error {
	n, err := f.resolve(path)
	if err != nil {
		return err
	}
	n.Time = sec
	return inode.Store(f.img, n)
}

// Readdir calls visit once per entry of the directory at path, stopping
// early if visit returns false.
func (f *FS) Readdir(path string, visit func(name string, ino uint16) bool) error {
	n, err := f.resolve(path)
	if err != nil {
		return err
	}
	if !n.IsDir() {
		return pathfs.ErrNotDir
	}
	return dirent.Iterate(f.img, n, func(e dirent.Entry) bool {
		return visit(e.Name, e.Ino)
	})
}

// Attr is the subset of inode metadata getattr reports.
type Attr struct {
	Mode  fs.FileMode
	Nlink uint16
	Size  uint32
	Uid   uint8
	Gid   uint8
	Atime uint32
	Mtime uint32
	Ctime uint32
}

// Getattr reports path's metadata.
func (f *FS) Getattr(path string) (Attr, error) {
	n, err := f.resolve(path)
	if err != nil {
		return Attr{}, err
	}
	return Attr{
		Mode:  n.FileMode(),
		Nlink: n.Refs,
		Size:  n.Size,
		Uid:   n.Uid,
		Gid:   n.Gid,
		Atime: n.Time,
		Mtime: n.Time,
		Ctime: n.Time,
	}, nil
}

// StatFS reports filesystem-wide geometry and usage, per §4.7 statfs.
type StatFS struct {
	BlockSize  uint32
	Blocks     uint16
	BlocksFree uint16
	Inodes     uint16
	InodesFree uint16
	NameLen    uint16
}

// Statfs reports block size, total/free blocks and inodes, and maximum
// path length from the header.
func (f *FS) Statfs() StatFS {
	h := f.img.Header
	return StatFS{
		BlockSize:  image.BlockSize,
		Blocks:     h.DataBlocks,
		BlocksFree: h.DataBlocks - h.AllocBlocks,
		Inodes:     h.TotalInodes,
		InodesFree: h.TotalInodes - h.AllocInodes,
		NameLen:    h.MaxPathLen,
	}
}

// VolumeID returns the UUID stamped into the header at create() time.
func (f *FS) VolumeID() [16]byte { return f.img.Header.VolumeID }

//go:build fuse

// Package fuseadapter exposes an sfs.FS over a userspace filesystem mount,
// translating go-fuse's Inode-based callbacks onto the high-level
// operations of the root sfs package.
package fuseadapter

import (
	"context"
	iofs "io/fs"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/oliverkovacs/sfs"
)

// Node is a single mounted path backed by the shared filesystem image. Every
// Node knows only its own absolute path; all state lives in the shared
// *sfs.FS, so a Node can be recreated cheaply on every Lookup.
type Node struct {
	fs.Inode
	img  *sfs.FS
	path string
}

var (
	_ fs.InodeEmbedder = (*Node)(nil)

	_ fs.NodeGetattrer = (*Node)(nil)
	_ fs.NodeSetattrer = (*Node)(nil)
	_ fs.NodeLookuper  = (*Node)(nil)
	_ fs.NodeReaddirer = (*Node)(nil)
	_ fs.NodeMkdirer   = (*Node)(nil)
	_ fs.NodeCreater   = (*Node)(nil)
	_ fs.NodeUnlinker  = (*Node)(nil)
	_ fs.NodeRmdirer   = (*Node)(nil)
	_ fs.NodeRenamer   = (*Node)(nil)
	_ fs.NodeLinker    = (*Node)(nil)
	_ fs.NodeOpener    = (*Node)(nil)
)

// Root constructs the root node of the mount, backed by img.
func Root(img *sfs.FS) *Node {
	return &Node{img: img, path: "/"}
}

func join(dir, name string) string {
	if dir == "/" {
		return "/" + name
	}
	return dir + "/" + name
}

func (n *Node) child(name string) *Node {
	return &Node{img: n.img, path: join(n.path, name)}
}

// errno translates a sentinel error from the sfs/pathfs/dirent/image layers
// into the syscall.Errno go-fuse expects back from every callback.
func errno(err error) syscall.Errno {
	if err == nil {
		return 0
	}
	return syscall.Errno(-sfs.Errno(err))
}

func fillAttr(a *fuse.Attr, at sfs.Attr) {
	a.Mode = uint32(at.Mode.Perm())
	switch {
	case at.Mode&iofs.ModeDir != 0:
		a.Mode |= fuse.S_IFDIR
	case at.Mode&iofs.ModeSymlink != 0:
		a.Mode |= syscall.S_IFLNK
	default:
		a.Mode |= fuse.S_IFREG
	}
	a.Size = uint64(at.Size)
	a.Nlink = uint32(at.Nlink)
	a.Uid = uint32(at.Uid)
	a.Gid = uint32(at.Gid)
	a.Atime = uint64(at.Atime)
	a.Mtime = uint64(at.Mtime)
	a.Ctime = uint64(at.Ctime)
}

func stable(at sfs.Attr, ino uint64) fs.StableAttr {
	mode := uint32(fuse.S_IFREG)
	if at.Mode&iofs.ModeDir != 0 {
		mode = fuse.S_IFDIR
	}
	return fs.StableAttr{Mode: mode, Ino: ino}
}

func (n *Node) attr() (sfs.Attr, syscall.Errno) {
	at, err := n.img.Getattr(n.path)
	return at, errno(err)
}

// Getattr reports path's metadata, translated from sfs.Attr.
func (n *Node) Getattr(ctx context.Context, f fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	at, eno := n.attr()
	if eno != 0 {
		return eno
	}
	fillAttr(&out.Attr, at)
	return 0
}

// Setattr applies whichever of mode, owner, size, and mtime the kernel
// requested; each field arrives independently so only the ones present in
// in are changed.
func (n *Node) Setattr(ctx context.Context, f fs.FileHandle, in *fuse.SetAttrIn, out *fuse.AttrOut) syscall.Errno {
	if mode, ok := in.GetMode(); ok {
		if err := n.img.Chmod(n.path, iofs.FileMode(mode&0o777)); err != nil {
			return errno(err)
		}
	}
	uid, uidOK := in.GetUID()
	gid, gidOK := in.GetGID()
	if uidOK || gidOK {
		at, eno := n.attr()
		if eno != 0 {
			return eno
		}
		if !uidOK {
			uid = uint32(at.Uid)
		}
		if !gidOK {
			gid = uint32(at.Gid)
		}
		if err := n.img.Chown(n.path, uid, gid); err != nil {
			return errno(err)
		}
	}
	if sz, ok := in.GetSize(); ok {
		if err := n.img.Truncate(n.path, uint32(sz)); err != nil {
			return errno(err)
		}
	}
	if mt, ok := in.GetMTime(); ok {
		if err := n.img.Utimens(n.path, uint32(mt.Unix())); err != nil {
			return errno(err)
		}
	}
	return n.Getattr(ctx, f, out)
}

// Lookup resolves name within the directory node n and returns the matching
// child Inode, or ENOENT if it doesn't exist.
func (n *Node) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	child := n.child(name)
	at, eno := child.attr()
	if eno != 0 {
		return nil, eno
	}
	fillAttr(&out.Attr, at)
	childInode := n.NewInode(ctx, child, stable(at, uint64(out.Attr.Ino)))
	return childInode, 0
}

// dirStream adapts sfs.FS.Readdir's visitor callback onto go-fuse's
// pull-based fs.DirStream.
type dirStream struct {
	entries []fuse.DirEntry
	pos     int
}

func (d *dirStream) HasNext() bool { return d.pos < len(d.entries) }
func (d *dirStream) Next() (fuse.DirEntry, syscall.Errno) {
	e := d.entries[d.pos]
	d.pos++
	return e, 0
}
func (d *dirStream) Close() {}

// Readdir lists n's directory entries, matching the "." and ".." plus
// stored-entry sequence the on-disk directory layer produces.
func (n *Node) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	ds := &dirStream{}
	err := n.img.Readdir(n.path, func(name string, ino uint16) bool {
		ds.entries = append(ds.entries, fuse.DirEntry{Name: name, Ino: uint64(ino)})
		return true
	})
	if err != nil {
		return nil, errno(err)
	}
	return ds, 0
}

// Mkdir creates a directory named name under n.
func (n *Node) Mkdir(ctx context.Context, name string, mode uint32, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	child := n.child(name)
	if err := n.img.Mkdir(child.path, iofs.FileMode(mode&0o777)); err != nil {
		return nil, errno(err)
	}
	at, eno := child.attr()
	if eno != 0 {
		return nil, eno
	}
	fillAttr(&out.Attr, at)
	return n.NewInode(ctx, child, stable(at, out.Attr.Ino)), 0
}

// Create makes a new regular file named name under n and opens it.
func (n *Node) Create(ctx context.Context, name string, flags uint32, mode uint32, out *fuse.EntryOut) (*fs.Inode, fs.FileHandle, uint32, syscall.Errno) {
	child := n.child(name)
	if err := n.img.Mknod(child.path, iofs.FileMode(mode&0o777), 0); err != nil {
		return nil, nil, 0, errno(err)
	}
	at, eno := child.attr()
	if eno != 0 {
		return nil, nil, 0, eno
	}
	fillAttr(&out.Attr, at)
	inode := n.NewInode(ctx, child, stable(at, out.Attr.Ino))
	return inode, &fileHandle{node: child}, 0, 0
}

// Unlink removes the directory entry name under n.
func (n *Node) Unlink(ctx context.Context, name string) syscall.Errno {
	return errno(n.img.Unlink(n.child(name).path))
}

// Rmdir removes the empty directory named name under n.
func (n *Node) Rmdir(ctx context.Context, name string) syscall.Errno {
	return errno(n.img.Rmdir(n.child(name).path))
}

// Rename moves name (a child of n) to newName (a child of newParent).
func (n *Node) Rename(ctx context.Context, name string, newParent fs.InodeEmbedder, newName string, flags uint32) syscall.Errno {
	dst, ok := newParent.(*Node)
	if !ok {
		return syscall.EINVAL
	}
	return errno(n.img.Rename(n.child(name).path, dst.child(newName).path))
}

// Link creates newName under n pointing at the same inode as target.
func (n *Node) Link(ctx context.Context, target fs.InodeEmbedder, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	src, ok := target.(*Node)
	if !ok {
		return nil, syscall.EINVAL
	}
	child := n.child(name)
	if err := n.img.Link(src.path, child.path); err != nil {
		return nil, errno(err)
	}
	at, eno := child.attr()
	if eno != 0 {
		return nil, eno
	}
	fillAttr(&out.Attr, at)
	return n.NewInode(ctx, child, stable(at, out.Attr.Ino)), 0
}

// Open hands back a fileHandle for n with no open flags set; content lives
// entirely in memory, so there is no backing descriptor to hand back.
func (n *Node) Open(ctx context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {
	return &fileHandle{node: n}, 0, 0
}

// fileHandle reads and writes a node's content in full on every call; the
// in-memory filesystem has no concept of a partial-write descriptor beyond
// what inode.Read/inode.Write already provide.
type fileHandle struct {
	node *Node
}

var (
	_ fs.FileReader = (*fileHandle)(nil)
	_ fs.FileWriter = (*fileHandle)(nil)
)

// Read returns up to len(dst) bytes of the file's content starting at off,
// and no data when off is at or past the end of the file.
func (h *fileHandle) Read(ctx context.Context, dst []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	at, eno := h.node.attr()
	if eno != 0 {
		return nil, eno
	}
	if off >= int64(at.Size) {
		return fuse.ReadResultData(nil), 0
	}

	full := make([]byte, at.Size)
	n, err := h.node.img.Read(h.node.path, full)
	if err != nil {
		return nil, errno(err)
	}
	full = full[:n]

	end := off + int64(len(dst))
	if end > int64(len(full)) {
		end = int64(len(full))
	}
	return fuse.ReadResultData(full[off:end]), 0
}

// Write replaces the file's full content, splicing data into the image at
// off and preserving any bytes the write didn't cover, matching a
// whole-file-resident design where offset writes still compose onto the
// existing content.
func (h *fileHandle) Write(ctx context.Context, data []byte, off int64) (uint32, syscall.Errno) {
	at, eno := h.node.attr()
	if eno != 0 {
		return 0, eno
	}

	end := off + int64(len(data))
	size := int64(at.Size)
	if end > size {
		size = end
	}

	buf := make([]byte, size)
	if at.Size > 0 {
		if _, err := h.node.img.Read(h.node.path, buf[:at.Size]); err != nil {
			return 0, errno(err)
		}
	}
	copy(buf[off:], data)

	if _, err := h.node.img.Write(h.node.path, buf); err != nil {
		return 0, errno(err)
	}
	return uint32(len(data)), 0
}

// Package dirent implements the directory entry layer: the variable-length
// dentry encoding, linear search, insertion, deletion, and iteration over a
// directory inode's byte stream.
package dirent

import (
	"encoding/binary"
	"errors"

	"github.com/oliverkovacs/sfs/bytesx"
	"github.com/oliverkovacs/sfs/image"
	"github.com/oliverkovacs/sfs/inode"
)

// Sentinel errors surfaced by this layer; the filesystem-operations layer
// maps these onto syscall.Errno values at the adapter boundary.
var (
	ErrExist    = errors.New("sfs: name already exists")
	ErrNotExist = errors.New("sfs: name not found")
	ErrTooBig   = errors.New("sfs: directory exceeds scratch buffer")
)

// Entry is one decoded directory entry: a name bound to an inode index.
type Entry struct {
	Ino  uint16
	Name string
}

// encodedSize is the on-medium size of one entry: 2 bytes inode index, 2
// bytes name length, the name, and a trailing NUL.
func encodedSize(name string) int { return 5 + len(name) }

// Encode appends one dentry record (ino, len, name, NUL) to buf.
func Encode(buf []byte, ino uint16, name string) []byte {
	var head [4]byte
	binary.LittleEndian.PutUint16(head[0:2], ino)
	binary.LittleEndian.PutUint16(head[2:4], uint16(len(name)))
	buf = append(buf, head[:]...)
	buf = append(buf, name...)
	buf = append(buf, 0)
	return buf
}

// decode reads one dentry at the start of buf, returning the entry and the
// number of bytes it occupied.
func decode(buf []byte) (Entry, int) {
	ino := binary.LittleEndian.Uint16(buf[0:2])
	l := binary.LittleEndian.Uint16(buf[2:4])
	name := string(buf[4 : 4+l])
	return Entry{Ino: ino, Name: name}, 5 + int(l)
}

// read loads a directory inode's full byte stream into a scratch buffer no
// larger than image.FSDirMax. It fails with ErrTooBig if the directory has
// grown past that bound.
func read(img *image.Image, dir *inode.Inode) ([]byte, error) {
	if dir.Size > image.FSDirMax {
		return nil, ErrTooBig
	}
	buf := make([]byte, dir.Size)
	if _, err := inode.Read(img, dir, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// Iterate calls visit once per entry in dir, in on-medium order, stopping
// early if visit returns false.
func Iterate(img *image.Image, dir *inode.Inode, visit func(Entry) bool) error {
	buf, err := read(img, dir)
	if err != nil {
		return err
	}
	for len(buf) > 0 {
		e, n := decode(buf)
		if !visit(e) {
			return nil
		}
		buf = buf[n:]
	}
	return nil
}

// Search linearly scans dir for name, returning its entry if present.
func Search(img *image.Image, dir *inode.Inode, name string) (Entry, bool, error) {
	var found Entry
	ok := false
	err := Iterate(img, dir, func(e Entry) bool {
		if e.Name == name {
			found, ok = e, true
			return false
		}
		return true
	})
	return found, ok, err
}

// Link appends a new entry (ino, name) to parent's directory stream,
// failing with ErrExist if name is already present, then increments ino's
// reference count. now is the modification timestamp stamped on the
// directory write.
func Link(img *image.Image, parent *inode.Inode, target *inode.Inode, name string, now uint32) error {
	buf, err := read(img, parent)
	if err != nil {
		return err
	}

	if _, ok, err := Search(img, parent, name); err != nil {
		return err
	} else if ok {
		return ErrExist
	}

	if int(parent.Size)+encodedSize(name) > image.FSDirMax {
		return ErrTooBig
	}

	buf = Encode(buf, target.Ino, name)
	if _, err := inode.Write(img, parent, buf, now); err != nil {
		return err
	}

	return inode.RefsInc(img, target)
}

// Unlink removes the entry named name from parent's directory stream and
// decrements the referenced inode's reference count. It fails with
// ErrNotExist if name is absent. The removal is a forward memmove of the
// bytes following the entry, matching the in-place deletion scheme of the
// original design: the destination precedes the source so overlap is safe.
func Unlink(img *image.Image, parent *inode.Inode, target *inode.Inode, name string, now uint32) error {
	buf, err := read(img, parent)
	if err != nil {
		return err
	}

	pos := 0
	removedAt := -1
	removedLen := 0
	for pos < len(buf) {
		e, n := decode(buf[pos:])
		if e.Name == name {
			removedAt = pos
			removedLen = n
			break
		}
		pos += n
	}
	if removedAt < 0 {
		return ErrNotExist
	}

	tail := buf[removedAt+removedLen:]
	bytesx.Copy(buf[removedAt:], tail)
	buf = buf[:len(buf)-removedLen]

	if _, err := inode.Write(img, parent, buf, now); err != nil {
		return err
	}

	return inode.RefsDec(img, target)
}

// InitDir populates a freshly allocated directory inode with the mandatory
// "." (self) and ".." (parent) entries, per the invariant that every
// directory's first two entries are exactly these, in this order.
func InitDir(img *image.Image, dir *inode.Inode, parent *inode.Inode, now uint32) error {
	buf := Encode(nil, dir.Ino, ".")
	buf = Encode(buf, parent.Ino, "..")
	if _, err := inode.Write(img, dir, buf, now); err != nil {
		return err
	}
	if err := inode.RefsInc(img, dir); err != nil { // "." points at self
		return err
	}
	if parent.Ino == dir.Ino {
		return inode.RefsInc(img, dir) // root's ".." also points at self
	}
	return inode.RefsInc(img, parent)
}

// Empty reports whether dir contains only its mandatory "." and ".."
// entries.
func Empty(img *image.Image, dir *inode.Inode) (bool, error) {
	hasExtra := false
	err := Iterate(img, dir, func(e Entry) bool {
		if e.Name != "." && e.Name != ".." {
			hasExtra = true
			return false
		}
		return true
	})
	if err != nil {
		return false, err
	}
	return !hasExtra, nil
}

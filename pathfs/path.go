// Package pathfs implements path resolution: splitting an absolute path
// into components, walking the directory tree, and separating a path into
// its parent directory and leaf name.
package pathfs

import (
	"errors"
	"strings"

	"github.com/oliverkovacs/sfs/dirent"
	"github.com/oliverkovacs/sfs/image"
	"github.com/oliverkovacs/sfs/inode"
)

// Sentinel errors surfaced by path resolution.
var (
	ErrInvalid     = errors.New("sfs: path must be absolute")
	ErrNotExist    = errors.New("sfs: no such file or directory")
	ErrNotDir      = errors.New("sfs: not a directory")
	ErrNameTooLong = errors.New("sfs: path exceeds maximum length")
)

// split breaks path into its non-empty "/"-delimited components.
func split(path string) []string {
	parts := strings.Split(path, "/")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// LeafName returns the substring of path after its final "/". It fails
// with ErrInvalid if path contains no "/" at all (i.e. is not absolute).
func LeafName(path string) (string, error) {
	idx := strings.LastIndexByte(path, '/')
	if idx < 0 {
		return "", ErrInvalid
	}
	return path[idx+1:], nil
}

// ParentIno walks from root through every component of path except the
// last, returning the inode of the directory that should contain path's
// leaf name.
func ParentIno(img *image.Image, root uint16, path string) (*inode.Inode, error) {
	if len(path) == 0 || path[0] != '/' {
		return nil, ErrInvalid
	}
	if len(path) > image.MaxPathLen {
		return nil, ErrNameTooLong
	}

	comps := split(path)
	if len(comps) > 0 {
		comps = comps[:len(comps)-1]
	}

	cur, err := inode.Load(img, root)
	if err != nil {
		return nil, err
	}

	for _, name := range comps {
		if !cur.IsDir() {
			return nil, ErrNotDir
		}
		e, ok, err := dirent.Search(img, cur, name)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrNotExist
		}
		cur, err = inode.Load(img, e.Ino)
		if err != nil {
			return nil, err
		}
	}

	return cur, nil
}

// Resolve looks up the inode named by an absolute path, starting from root.
func Resolve(img *image.Image, root uint16, path string) (*inode.Inode, error) {
	if path == "/" {
		return inode.Load(img, root)
	}

	parent, err := ParentIno(img, root, path)
	if err != nil {
		return nil, err
	}
	if !parent.IsDir() {
		return nil, ErrNotDir
	}

	name, err := LeafName(path)
	if err != nil {
		return nil, err
	}

	e, ok, err := dirent.Search(img, parent, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotExist
	}
	return inode.Load(img, e.Ino)
}

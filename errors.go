// Package sfs implements a small, in-memory-backed POSIX-style filesystem:
// mkdir, mknod, unlink, rmdir, rename, link, chmod, chown, truncate, read,
// write, readdir, utimens, statfs, and getattr, each a composition of the
// image, allocator, block-addressing, inode, directory, and path layers.
package sfs

import (
	"errors"
	"syscall"

	"github.com/oliverkovacs/sfs/dirent"
	"github.com/oliverkovacs/sfs/image"
	"github.com/oliverkovacs/sfs/pathfs"
)

// toErrno maps an internal error from the lower layers onto the
// negative-errno convention of §6/§7: ENOENT, ENOTDIR/EISDIR, EEXIST,
// ENOTEMPTY, ENOSPC, EFBIG, ENAMETOOLONG, EINVAL, EIO.
func toErrno(err error) syscall.Errno {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, pathfs.ErrNotExist):
		return syscall.ENOENT
	case errors.Is(err, pathfs.ErrNotDir):
		return syscall.ENOTDIR
	case errors.Is(err, pathfs.ErrInvalid):
		return syscall.EINVAL
	case errors.Is(err, pathfs.ErrNameTooLong):
		return syscall.ENAMETOOLONG
	case errors.Is(err, dirent.ErrExist):
		return syscall.EEXIST
	case errors.Is(err, dirent.ErrNotExist):
		return syscall.ENOENT
	case errors.Is(err, dirent.ErrTooBig):
		return syscall.EFBIG
	case errors.Is(err, image.ErrNoSpace):
		return syscall.ENOSPC
	case errors.Is(err, image.ErrCorrupt):
		return syscall.EIO
	case errors.Is(err, ErrIsDir):
		return syscall.EISDIR
	case errors.Is(err, ErrNotEmpty):
		return syscall.ENOTEMPTY
	default:
		return syscall.EIO
	}
}

// Errno extracts a negative errno-style integer from err for adapter
// callback surfaces that return int, as §6 specifies; 0 for nil/success.
func Errno(err error) int {
	if err == nil {
		return 0
	}
	return -int(toErrno(err))
}

// Sentinel errors for conditions specific to the high-level operations
// layer; lower layers raise their own (dirent.Err*, pathfs.Err*,
// image.Err*), which toErrno also understands.
var (
	ErrIsDir    = errors.New("sfs: is a directory")
	ErrNotEmpty = errors.New("sfs: directory not empty")
)

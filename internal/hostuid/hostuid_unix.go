//go:build linux || darwin

// Package hostuid resolves the host process's uid/gid, split by platform
// since the underlying syscalls differ.
package hostuid

import "golang.org/x/sys/unix"

// Current returns the uid/gid of the process mounting the filesystem, used
// to stamp the owner of newly created inodes.
func Current() (uid, gid uint32) {
	return uint32(unix.Getuid()), uint32(unix.Getgid())
}

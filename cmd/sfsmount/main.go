//go:build fuse

// Command sfsmount mounts an in-memory sfs image as a userspace filesystem.
// It loads ./disk at startup if present, creates a fresh image otherwise,
// and writes the image back to disk on a clean unmount.
package main

import (
	"flag"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/oliverkovacs/sfs"
	"github.com/oliverkovacs/sfs/internal/fuseadapter"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
)

func main() {
	debug := flag.Bool("debug", false, "print FUSE debug trace")
	disk := flag.String("disk", "./disk", "path to the image file")
	blocks := flag.Int("blocks", 0, "block count for a freshly created image (0 = default)")
	flag.Parse()

	if flag.NArg() < 1 {
		logrus.Fatal("usage: sfsmount [flags] MOUNTPOINT")
	}
	mountpoint := flag.Arg(0)

	img, err := loadOrCreate(*disk, *blocks)
	if err != nil {
		logrus.WithError(err).Fatal("failed to prepare image")
	}

	root := fuseadapter.Root(img)
	server, err := fs.Mount(mountpoint, root, &fs.Options{
		MountOptions: fuseOptions(*debug),
	})
	if err != nil {
		logrus.WithError(err).Fatal("mount failed")
	}

	logrus.WithFields(logrus.Fields{"mountpoint": mountpoint, "disk": *disk}).Info("mounted")
	server.Wait()

	if err := img.Save(*disk); err != nil {
		logrus.WithError(err).Fatal("failed to save image on unmount")
	}
	logrus.WithField("disk", *disk).Info("saved")
}

func fuseOptions(debug bool) fuse.MountOptions {
	return fuse.MountOptions{Debug: debug}
}

func loadOrCreate(disk string, blocks int) (*sfs.FS, error) {
	if _, err := os.Stat(disk); err == nil {
		return sfs.Load(disk)
	}

	var opts []sfs.Option
	if blocks > 0 {
		opts = append(opts, sfs.WithBlockCount(blocks))
	}
	return sfs.New(opts...)
}

package sfs

import (
	"io"
	"os"
)

// Load reads an on-disk image from path and mounts it, the way a mount
// command loads a pre-populated disk file at startup.
func Load(path string) (*FS, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Mount(data)
}

// Save writes the full image region to path, creating or truncating it as
// needed.
func (f *FS) Save(path string) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := out.Write(f.Dump()); err != nil {
		return err
	}
	return out.Sync()
}

// ReadFrom mounts an image read in full from r, for callers that already
// hold an open reader rather than a path.
func ReadFrom(r io.Reader) (*FS, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Mount(data)
}

// WriteTo writes the full image region to w.
func (f *FS) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(f.Dump())
	return int64(n), err
}

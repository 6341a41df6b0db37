package sfs

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// Codec compresses and decompresses a full image region for snapshot
// persistence. Registered by the build-tag-gated comp_*.go files
// (comp_xz.go, comp_zstd.go) from their init() functions.
type Codec struct {
	Compress   func([]byte) ([]byte, error)
	Decompress func(io.Reader) (io.ReadCloser, error)
}

var codecs = map[string]Codec{}

// RegisterCodec makes a named compression codec available to SaveCompressed
// and LoadCompressed. Called from init() in build-tag-gated files.
func RegisterCodec(name string, c Codec) {
	codecs[name] = c
}

const compHeaderLen = 16 // fixed-width codec name, NUL-padded

// SaveCompressed writes the image region to path, compressed with the named
// codec, preceded by a fixed-width header naming the codec so LoadCompressed
// can recover it without out-of-band information.
func (f *FS) SaveCompressed(path, codec string) error {
	c, ok := codecs[codec]
	if !ok {
		return fmt.Errorf("sfs: unknown compression codec %q", codec)
	}

	compressed, err := c.Compress(f.Dump())
	if err != nil {
		return err
	}

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()

	var hdr [compHeaderLen]byte
	copy(hdr[:], codec)
	if _, err := out.Write(hdr[:]); err != nil {
		return err
	}
	if _, err := out.Write(compressed); err != nil {
		return err
	}
	return out.Sync()
}

// LoadCompressed reads a SaveCompressed-produced file and mounts the
// decompressed image.
func LoadCompressed(path string) (*FS, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(raw) < compHeaderLen {
		return nil, fmt.Errorf("sfs: compressed image truncated")
	}

	name := string(bytes.TrimRight(raw[:compHeaderLen], "\x00"))
	c, ok := codecs[name]
	if !ok {
		return nil, fmt.Errorf("sfs: compressed image uses unregistered codec %q (build with its tag)", name)
	}

	rc, err := c.Decompress(bytes.NewReader(raw[compHeaderLen:]))
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	region, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}
	return Mount(region)
}

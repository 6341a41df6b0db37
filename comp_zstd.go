//go:build zstd

package sfs

import (
	"io"

	"github.com/klauspost/compress/zstd"
)

func zstdCompress(buf []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(buf, nil), nil
}

// zstdReader adapts *zstd.Decoder's Read/Close (the latter taking no error)
// to io.ReadCloser.
type zstdReader struct{ *zstd.Decoder }

func (z zstdReader) Close() error {
	z.Decoder.Close()
	return nil
}

func init() {
	RegisterCodec("zstd", Codec{
		Compress: zstdCompress,
		Decompress: func(r io.Reader) (io.ReadCloser, error) {
			dec, err := zstd.NewReader(r)
			if err != nil {
				return nil, err
			}
			return zstdReader{dec}, nil
		},
	})
}

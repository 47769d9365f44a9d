package diskcache

import (
	"io"

	"github.com/klauspost/compress/zstd"
)

// payloadCodec wraps a raw file handle so Put/Get can transparently
// compress and decompress entry payloads.
type payloadCodec interface {
	wrapWriter(w io.Writer) (io.WriteCloser, error)
	wrapReader(r io.Reader) (io.ReadCloser, error)
}

// zstdCodec has no state of its own: encoders and decoders are not safe to
// share across concurrent Put/Get calls, so each wrap call mints its own.
type zstdCodec struct{}

func newZstdCodec() (*zstdCodec, error) {
	return &zstdCodec{}, nil
}

func (c *zstdCodec) wrapWriter(w io.Writer) (io.WriteCloser, error) {
	enc, err := zstd.NewWriter(w)
	if err != nil {
		return nil, err
	}
	return enc, nil
}

func (c *zstdCodec) wrapReader(r io.Reader) (io.ReadCloser, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	return dec.IOReadCloser(), nil
}

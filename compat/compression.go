package compat

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies a stream compression format.
type Compression uint8

const (
	// CompressionNone indicates an uncompressed stream.
	CompressionNone Compression = iota
	// CompressionZSTD indicates a zstd frame.
	CompressionZSTD
	// CompressionLZ4 indicates an LZ4 frame.
	CompressionLZ4
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionZSTD:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("Compression(%d)", uint8(c))
	}
}

var (
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	lz4Magic  = []byte{0x04, 0x22, 0x4d, 0x18}
)

// Detect reports the compression of a stream from its first bytes.
func Detect(prefix []byte) Compression {
	switch {
	case bytes.HasPrefix(prefix, zstdMagic):
		return CompressionZSTD
	case bytes.HasPrefix(prefix, lz4Magic):
		return CompressionLZ4
	default:
		return CompressionNone
	}
}

type readCloser struct {
	io.Reader
	close func() error
}

func (rc *readCloser) Close() error { return rc.close() }

// Decompress wraps r in a decompressor if it starts with a zstd or LZ4 frame.
// Closing the result releases the decompressor but not r.
func Decompress(r io.Reader) (io.ReadCloser, error) {
	br := bufio.NewReaderSize(r, 64<<10)
	prefix, err := br.Peek(4)
	if err != nil && err != io.EOF {
		return nil, err
	}

	switch Detect(prefix) {
	case CompressionZSTD:
		dec, err := zstd.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("compat: zstd: %w", err)
		}
		return &readCloser{Reader: dec, close: func() error { dec.Close(); return nil }}, nil
	case CompressionLZ4:
		return io.NopCloser(lz4.NewReader(br)), nil
	default:
		return io.NopCloser(br), nil
	}
}

// Open opens the file at path for reading, decompressing it if needed.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	rc, err := Decompress(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &readCloser{Reader: rc, close: func() error {
		_ = rc.Close()
		return f.Close()
	}}, nil
}

package container

import (
	"errors"
	"fmt"
	"io"

	"github.com/hupe1980/embedstore/metadata"
)

// ErrInvalidMetadata is returned when the metadata chunk is not valid TOML.
var ErrInvalidMetadata = errors.New("container: invalid metadata")

func writeMetadata(e *encoder, text string) error {
	e.chunk(ChunkMetadata, int64(len(text)))
	e.raw([]byte(text))
	return e.err
}

// ReadMetadata decodes a metadata chunk.
func ReadMetadata(r io.ReaderAt, c Chunk) (metadata.Metadata, error) {
	if c.ID != ChunkMetadata {
		return nil, fmt.Errorf("%w: %s is not a metadata chunk", ErrFormat, c.ID)
	}
	d := newDecoder(r, c)
	text := d.bytes(int(c.Len))
	if d.err != nil {
		return nil, d.err
	}
	md, err := metadata.Parse(string(text))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMetadata, err)
	}
	return md, nil
}

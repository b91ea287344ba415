package container

import (
	"fmt"
	"io"

	"github.com/hupe1980/embedstore/storage"
)

const normsHeaderLen = 12

func writeNorms(e *encoder, n *storage.Norms) error {
	values := n.Values()
	pad := paddedLen(e.pos, normsHeaderLen)
	e.chunk(ChunkNdNorms, normsHeaderLen+pad+int64(len(values))*4)
	e.u64(uint64(len(values)))
	e.u32(typeF32)
	e.zeros(pad)
	e.f32s(values)
	return e.err
}

// ReadNorms decodes a norms chunk.
func ReadNorms(r io.ReaderAt, c Chunk) (*storage.Norms, error) {
	if c.ID != ChunkNdNorms {
		return nil, fmt.Errorf("%w: %s is not a norms chunk", ErrFormat, c.ID)
	}
	d := newDecoder(r, c)
	n := d.u64()
	d.expectType(typeF32)
	d.align()
	if d.err == nil && n > uint64(d.remaining())/4 {
		return nil, fmt.Errorf("%w: %d norms exceed payload", ErrFormat, n)
	}
	values := d.f32s(int(n))
	if d.err != nil {
		return nil, d.err
	}
	return storage.NewNorms(values), nil
}

package container

import (
	"fmt"
	"io"

	"github.com/hupe1980/embedstore/internal/mmap"
	"github.com/hupe1980/embedstore/quantization"
	"github.com/hupe1980/embedstore/storage"
)

const (
	ndArrayHeaderLen   = 16
	quantizedHeaderLen = 36
)

func writeStorage(e *encoder, s storage.Storage) error {
	if q, ok := s.(*storage.QuantizedArray); ok {
		return writeQuantized(e, q)
	}

	rows, dims := s.Shape()
	pad := paddedLen(e.pos, ndArrayHeaderLen)
	e.chunk(ChunkNdArray, ndArrayHeaderLen+pad+int64(rows)*int64(dims)*4)
	e.u64(uint64(rows))
	e.u32(uint32(dims))
	e.u32(typeF32)
	e.zeros(pad)

	if v, ok := s.(storage.View); ok {
		e.f32s(v.Matrix())
		return e.err
	}

	buf := make([]float32, dims)
	for i := 0; i < rows && e.err == nil; i++ {
		s.EmbeddingInto(i, buf)
		e.f32s(buf)
	}
	return e.err
}

func writeQuantized(e *encoder, q *storage.QuantizedArray) error {
	pq := q.Quantizer()
	rows, dims := q.Shape()
	projection := pq.Projection()
	norms := q.Norms()

	pad := paddedLen(e.pos, quantizedHeaderLen)
	length := quantizedHeaderLen + pad +
		int64(len(projection))*4 +
		int64(len(pq.Centroids()))*4 +
		int64(len(norms))*4 +
		int64(len(q.Codes()))

	e.chunk(ChunkQuantizedArray, length)
	e.u32(boolU32(projection != nil))
	e.u32(boolU32(norms != nil))
	e.u32(uint32(pq.NumSubvectors()))
	e.u32(uint32(dims))
	e.u32(uint32(pq.NumCentroids()))
	e.u64(uint64(rows))
	e.u32(typeU8)
	e.u32(typeF32)
	e.zeros(pad)
	e.f32s(projection)
	e.f32s(pq.Centroids())
	e.f32s(norms)
	e.raw(q.Codes())
	return e.err
}

func boolU32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

// ndArrayHeader reads the dense matrix header and leaves d at the first float.
func ndArrayHeader(d *decoder) (rows, dims int, err error) {
	switch d.id {
	case ChunkNdArray:
	case ChunkQuantizedArray:
		return 0, 0, ErrQuantizedStorage
	default:
		return 0, 0, fmt.Errorf("%w: %s is not a storage chunk", ErrFormat, d.id)
	}

	r := d.u64()
	c := d.u32()
	d.expectType(typeF32)
	d.align()
	if d.err != nil {
		return 0, 0, d.err
	}
	if c > 0 && r > uint64(d.remaining())/(4*uint64(c)) {
		return 0, 0, fmt.Errorf("%w: NdArray of %d×%d exceeds payload", ErrFormat, r, c)
	}
	return int(r), int(c), nil
}

// ReadNdArray decodes a dense matrix into memory. It returns
// ErrQuantizedStorage if the chunk holds a quantized matrix.
func ReadNdArray(r io.ReaderAt, c Chunk) (*storage.NdArray, error) {
	d := newDecoder(r, c)
	rows, dims, err := ndArrayHeader(d)
	if err != nil {
		return nil, err
	}
	data := d.f32s(rows * dims)
	if d.err != nil {
		return nil, d.err
	}
	return storage.NewNdArray(data, rows, dims)
}

// MapNdArray views a dense matrix in place. The returned array owns m. It
// returns ErrQuantizedStorage if the chunk holds a quantized matrix, in which
// case m is left open.
func MapNdArray(m *mmap.Mapping, c Chunk) (*storage.MmapArray, error) {
	d := newDecoder(m, c)
	rows, dims, err := ndArrayHeader(d)
	if err != nil {
		return nil, err
	}
	return storage.NewMmapArray(m, int(d.pos), rows, dims)
}

type quantizedHeader struct {
	pq       *quantization.ProductQuantizer
	norms    []float32
	rows     int
	codesLen int
}

func readQuantizedHeader(d *decoder) (*quantizedHeader, error) {
	if d.id != ChunkQuantizedArray {
		return nil, fmt.Errorf("%w: %s is not a quantized storage chunk", ErrFormat, d.id)
	}

	hasProjection := d.u32() != 0
	hasNorms := d.u32() != 0
	quantizedLen := int(d.u32())
	dims := int(d.u32())
	centroids := int(d.u32())
	rows := d.u64()
	d.expectType(typeU8)
	d.expectType(typeF32)
	d.align()
	if d.err != nil {
		return nil, d.err
	}
	if quantizedLen == 0 || dims%quantizedLen != 0 {
		return nil, fmt.Errorf("%w: %d dimensions in %d subquantizers", ErrFormat, dims, quantizedLen)
	}
	if centroids < 1 || centroids > 256 {
		return nil, fmt.Errorf("%w: %d centroids, need 1..256", ErrFormat, centroids)
	}
	if int64(dims) > d.remaining()/4/int64(centroids) {
		return nil, fmt.Errorf("%w: %d centroids of %d dimensions exceed payload", ErrFormat, centroids, dims)
	}
	if hasProjection && int64(dims) > d.remaining()/4/int64(dims) {
		return nil, fmt.Errorf("%w: %d×%d projection exceeds payload", ErrFormat, dims, dims)
	}
	if rows > uint64(d.remaining())/uint64(quantizedLen) {
		return nil, fmt.Errorf("%w: %d quantized rows exceed payload", ErrFormat, rows)
	}

	var projection []float32
	if hasProjection {
		projection = d.f32s(dims * dims)
	}
	table := d.f32s(centroids * dims)
	var norms []float32
	if hasNorms {
		norms = d.f32s(int(rows))
	}
	if d.err != nil {
		return nil, d.err
	}

	pq, err := quantization.NewProductQuantizerFromCentroids(dims, quantizedLen, centroids, table, projection)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}

	return &quantizedHeader{pq: pq, norms: norms, rows: int(rows), codesLen: int(rows) * quantizedLen}, nil
}

// ReadQuantizedArray decodes a quantized matrix into memory.
func ReadQuantizedArray(r io.ReaderAt, c Chunk) (*storage.QuantizedArray, error) {
	d := newDecoder(r, c)
	h, err := readQuantizedHeader(d)
	if err != nil {
		return nil, err
	}
	codes := d.bytes(h.codesLen)
	if d.err != nil {
		return nil, d.err
	}
	q, err := storage.NewQuantizedArray(h.pq, codes, h.norms)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	return q, nil
}

// MapQuantizedArray reads the quantizer into memory and views the codes in
// place. The returned array owns m.
func MapQuantizedArray(m *mmap.Mapping, c Chunk) (*storage.QuantizedArray, error) {
	d := newDecoder(m, c)
	h, err := readQuantizedHeader(d)
	if err != nil {
		return nil, err
	}
	region, err := m.Region(int(d.pos), h.codesLen)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	_ = region.Advise(mmap.AccessRandom)

	q, err := storage.NewQuantizedArray(h.pq, region.Bytes(), h.norms)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	return q.WithCloser(m), nil
}

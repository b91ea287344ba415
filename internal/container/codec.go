package container

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"unicode/utf8"
)

const ioBufferSize = 64 << 10

// encoder writes little-endian values and tracks the absolute offset. The
// first error sticks and turns later writes into no-ops.
type encoder struct {
	w   *bufio.Writer
	pos int64
	err error
	buf [4096]byte
}

func newEncoder(w io.Writer) *encoder {
	return &encoder{w: bufio.NewWriterSize(w, ioBufferSize)}
}

func (e *encoder) raw(p []byte) {
	if e.err != nil {
		return
	}
	n, err := e.w.Write(p)
	e.pos += int64(n)
	e.err = err
}

func (e *encoder) u32(v uint32) {
	binary.LittleEndian.PutUint32(e.buf[:4], v)
	e.raw(e.buf[:4])
}

func (e *encoder) u64(v uint64) {
	binary.LittleEndian.PutUint64(e.buf[:8], v)
	e.raw(e.buf[:8])
}

func (e *encoder) zeros(n int64) {
	clear(e.buf[:n])
	e.raw(e.buf[:n])
}

// align pads to the next 4-byte offset.
func (e *encoder) align() {
	e.zeros(padding(e.pos))
}

func (e *encoder) f32s(vs []float32) {
	for len(vs) > 0 && e.err == nil {
		n := min(len(vs), len(e.buf)/4)
		for i, v := range vs[:n] {
			binary.LittleEndian.PutUint32(e.buf[i*4:], math.Float32bits(v))
		}
		e.raw(e.buf[:n*4])
		vs = vs[n:]
	}
}

func (e *encoder) str(s string) {
	e.u32(uint32(len(s)))
	if e.err != nil {
		return
	}
	n, err := e.w.WriteString(s)
	e.pos += int64(n)
	e.err = err
}

// chunk writes a chunk frame. length is the payload length.
func (e *encoder) chunk(id ChunkID, length int64) {
	e.u32(uint32(id))
	e.u64(uint64(length))
}

func (e *encoder) flush() error {
	if e.err != nil {
		return e.err
	}
	return e.w.Flush()
}

// paddedLen returns the padding a float array needs when the chunk frame is
// written at pos and headerLen payload bytes precede the array.
func paddedLen(pos, headerLen int64) int64 {
	return padding(pos + 12 + headerLen)
}

// decoder reads one chunk payload. Reads past the payload fail with ErrFormat.
type decoder struct {
	r   *bufio.Reader
	id  ChunkID
	pos int64
	end int64
	err error
	buf [4096]byte
}

func newDecoder(r io.ReaderAt, c Chunk) *decoder {
	return &decoder{
		r:   bufio.NewReaderSize(io.NewSectionReader(r, c.Offset, c.Len), ioBufferSize),
		id:  c.ID,
		pos: c.Offset,
		end: c.Offset + c.Len,
	}
}

func (d *decoder) fail(format string, args ...any) {
	if d.err == nil {
		d.err = fmt.Errorf("%w: %s chunk: %s", ErrFormat, d.id, fmt.Sprintf(format, args...))
	}
}

func (d *decoder) remaining() int64 { return d.end - d.pos }

// need fails unless n more bytes are available.
func (d *decoder) need(n int64) bool {
	if d.err != nil {
		return false
	}
	if n < 0 || n > d.remaining() {
		d.fail("need %d bytes, %d left", n, d.remaining())
		return false
	}
	return true
}

func (d *decoder) read(p []byte) {
	if !d.need(int64(len(p))) {
		return
	}
	n, err := io.ReadFull(d.r, p)
	d.pos += int64(n)
	if err != nil {
		d.fail("%v", err)
	}
}

func (d *decoder) u32() uint32 {
	d.read(d.buf[:4])
	if d.err != nil {
		return 0
	}
	return binary.LittleEndian.Uint32(d.buf[:4])
}

func (d *decoder) u64() uint64 {
	d.read(d.buf[:8])
	if d.err != nil {
		return 0
	}
	return binary.LittleEndian.Uint64(d.buf[:8])
}

// count reads a u64 element count and checks that at least minBytes per
// element remain, so corrupt counts cannot trigger huge allocations.
func (d *decoder) count(minBytes int64) int {
	n := d.u64()
	if d.err != nil {
		return 0
	}
	if minBytes > 0 && n > uint64(d.remaining()/minBytes) {
		d.fail("count %d exceeds payload", n)
		return 0
	}
	return int(n)
}

func (d *decoder) align() {
	n := padding(d.pos)
	d.read(d.buf[:n])
}

func (d *decoder) expectType(want uint32) {
	if got := d.u32(); d.err == nil && got != want {
		d.fail("element type %d, want %d", got, want)
	}
}

func (d *decoder) f32s(n int) []float32 {
	if d.err != nil {
		return nil
	}
	if n < 0 || int64(n) > d.remaining()/4 {
		d.fail("%d floats exceed payload, %d bytes left", n, d.remaining())
		return nil
	}
	out := make([]float32, n)
	for i := 0; i < n && d.err == nil; {
		m := min(n-i, len(d.buf)/4)
		d.read(d.buf[:m*4])
		for j := 0; j < m; j++ {
			out[i+j] = math.Float32frombits(binary.LittleEndian.Uint32(d.buf[j*4:]))
		}
		i += m
	}
	return out
}

func (d *decoder) bytes(n int) []byte {
	if !d.need(int64(n)) {
		return nil
	}
	out := make([]byte, n)
	d.read(out)
	return out
}

func (d *decoder) str() string {
	n := d.u32()
	b := d.bytes(int(n))
	if d.err != nil {
		return ""
	}
	if !utf8.Valid(b) {
		d.fail("invalid UTF-8 string")
		return ""
	}
	return string(b)
}

// skip advances n bytes without reading them into memory.
func (d *decoder) skip(n int64) {
	if !d.need(n) {
		return
	}
	discarded, err := d.r.Discard(int(n))
	d.pos += int64(discarded)
	if err != nil {
		d.fail("%v", err)
	}
}

package container

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Magic identifies container files.
const Magic = "FiFu"

// Version is the only supported format version.
const Version = 0

// ChunkID identifies the kind of a chunk.
type ChunkID uint32

// Known chunk kinds.
const (
	ChunkHeader               ChunkID = 0
	ChunkSimpleVocab          ChunkID = 1
	ChunkNdArray              ChunkID = 2
	ChunkBucketSubwordVocab   ChunkID = 3
	ChunkQuantizedArray       ChunkID = 4
	ChunkMetadata             ChunkID = 5
	ChunkNdNorms              ChunkID = 6
	ChunkFastTextSubwordVocab ChunkID = 7
	ChunkExplicitSubwordVocab ChunkID = 8
)

func (id ChunkID) String() string {
	switch id {
	case ChunkHeader:
		return "Header"
	case ChunkSimpleVocab:
		return "SimpleVocab"
	case ChunkNdArray:
		return "NdArray"
	case ChunkBucketSubwordVocab:
		return "BucketSubwordVocab"
	case ChunkQuantizedArray:
		return "QuantizedArray"
	case ChunkMetadata:
		return "Metadata"
	case ChunkNdNorms:
		return "NdNorms"
	case ChunkFastTextSubwordVocab:
		return "FastTextSubwordVocab"
	case ChunkExplicitSubwordVocab:
		return "ExplicitSubwordVocab"
	default:
		return fmt.Sprintf("ChunkID(%d)", uint32(id))
	}
}

// IsVocab reports whether the chunk holds a vocabulary.
func (id ChunkID) IsVocab() bool {
	switch id {
	case ChunkSimpleVocab, ChunkBucketSubwordVocab, ChunkFastTextSubwordVocab, ChunkExplicitSubwordVocab:
		return true
	}
	return false
}

// IsStorage reports whether the chunk holds an embedding matrix.
func (id ChunkID) IsStorage() bool {
	return id == ChunkNdArray || id == ChunkQuantizedArray
}

// Element type ids.
const (
	typeU8  uint32 = 1
	typeF32 uint32 = 10
)

var (
	// ErrFormat is returned for malformed files.
	ErrFormat = errors.New("container: malformed file")
	// ErrQuantizedStorage is returned when a dense matrix is requested but the
	// storage chunk is quantized.
	ErrQuantizedStorage = errors.New("container: storage is quantized")
	// ErrMissingChunk is returned when a required chunk is absent.
	ErrMissingChunk = errors.New("container: missing chunk")
	// ErrUnsupported is returned when a component has no chunk encoding.
	ErrUnsupported = errors.New("container: unsupported component")
)

// Chunk locates a chunk's payload within a file.
type Chunk struct {
	ID ChunkID
	// Offset is the absolute offset of the payload.
	Offset int64
	// Len is the payload length.
	Len int64
}

// Index lists the chunks of a file.
type Index struct {
	Chunks []Chunk
}

// First returns the first chunk matching pred.
func (ix *Index) First(pred func(ChunkID) bool) (Chunk, bool) {
	for _, c := range ix.Chunks {
		if pred(c.ID) {
			return c, true
		}
	}
	return Chunk{}, false
}

// Find returns the first chunk with the given id.
func (ix *Index) Find(id ChunkID) (Chunk, bool) {
	return ix.First(func(c ChunkID) bool { return c == id })
}

const headerFixedLen = 12

// Scan reads the header of a file of the given size and locates every chunk.
func Scan(r io.ReaderAt, size int64) (*Index, error) {
	var fixed [headerFixedLen]byte
	if _, err := r.ReadAt(fixed[:], 0); err != nil {
		return nil, fmt.Errorf("%w: header: %w", ErrFormat, err)
	}
	if string(fixed[:4]) != Magic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrFormat, fixed[:4])
	}
	if v := binary.LittleEndian.Uint32(fixed[4:8]); v != Version {
		return nil, fmt.Errorf("%w: unknown version %d", ErrFormat, v)
	}
	n := int64(binary.LittleEndian.Uint32(fixed[8:12]))
	if headerFixedLen+4*n > size {
		return nil, fmt.Errorf("%w: header lists %d chunks", ErrFormat, n)
	}

	ids := make([]byte, 4*n)
	if _, err := r.ReadAt(ids, headerFixedLen); err != nil {
		return nil, fmt.Errorf("%w: chunk ids: %w", ErrFormat, err)
	}

	ix := &Index{Chunks: make([]Chunk, 0, n)}
	off := headerFixedLen + 4*n
	for i := int64(0); i < n; i++ {
		var frame [12]byte
		if _, err := r.ReadAt(frame[:], off); err != nil {
			return nil, fmt.Errorf("%w: chunk %d frame: %w", ErrFormat, i, err)
		}
		id := ChunkID(binary.LittleEndian.Uint32(frame[:4]))
		if want := ChunkID(binary.LittleEndian.Uint32(ids[4*i:])); id != want {
			return nil, fmt.Errorf("%w: chunk %d is %s, header says %s", ErrFormat, i, id, want)
		}
		length := binary.LittleEndian.Uint64(frame[4:])
		payload := off + 12
		if length > uint64(size-payload) {
			return nil, fmt.Errorf("%w: %s chunk of %d bytes exceeds file", ErrFormat, id, length)
		}
		ix.Chunks = append(ix.Chunks, Chunk{ID: id, Offset: payload, Len: int64(length)})
		off = payload + int64(length)
	}

	return ix, nil
}

// padding returns the number of bytes needed to align pos to 4 bytes.
func padding(pos int64) int64 {
	return (4 - pos%4) % 4
}

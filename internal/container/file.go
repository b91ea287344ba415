package container

import (
	"fmt"
	"io"

	"github.com/hupe1980/embedstore/metadata"
	"github.com/hupe1980/embedstore/storage"
	"github.com/hupe1980/embedstore/vocab"
)

// File groups the components written to a container. Norms and Metadata are
// optional.
type File struct {
	Vocab    vocab.Vocab
	Storage  storage.Storage
	Norms    *storage.Norms
	Metadata metadata.Metadata
}

// ChunkIDs returns the chunk ids f is written as, in file order.
func (f *File) ChunkIDs() ([]ChunkID, error) {
	vocabID, err := vocabChunkID(f.Vocab)
	if err != nil {
		return nil, err
	}
	storageID := ChunkNdArray
	if _, ok := f.Storage.(*storage.QuantizedArray); ok {
		storageID = ChunkQuantizedArray
	}

	ids := []ChunkID{vocabID, storageID}
	if f.Norms != nil {
		ids = append(ids, ChunkNdNorms)
	}
	if f.Metadata != nil {
		ids = append(ids, ChunkMetadata)
	}
	return ids, nil
}

// Write serializes f to w. Nothing is written if f cannot be encoded.
func Write(w io.Writer, f *File) error {
	if f.Vocab == nil || f.Storage == nil {
		return fmt.Errorf("%w: vocabulary and storage are required", ErrMissingChunk)
	}
	ids, err := f.ChunkIDs()
	if err != nil {
		return err
	}
	var mdText string
	if f.Metadata != nil {
		if mdText, err = f.Metadata.Encode(); err != nil {
			return err
		}
	}

	e := newEncoder(w)
	e.raw([]byte(Magic))
	e.u32(Version)
	e.u32(uint32(len(ids)))
	for _, id := range ids {
		e.u32(uint32(id))
	}

	if err := writeVocab(e, f.Vocab); err != nil {
		return err
	}
	if err := writeStorage(e, f.Storage); err != nil {
		return err
	}
	if f.Norms != nil {
		if err := writeNorms(e, f.Norms); err != nil {
			return err
		}
	}
	if f.Metadata != nil {
		if err := writeMetadata(e, mdText); err != nil {
			return err
		}
	}

	return e.flush()
}

// Vocab returns the vocabulary chunk.
func (ix *Index) Vocab() (Chunk, error) {
	c, ok := ix.First(ChunkID.IsVocab)
	if !ok {
		return Chunk{}, fmt.Errorf("%w: vocabulary", ErrMissingChunk)
	}
	return c, nil
}

// Storage returns the storage chunk.
func (ix *Index) Storage() (Chunk, error) {
	c, ok := ix.First(ChunkID.IsStorage)
	if !ok {
		return Chunk{}, fmt.Errorf("%w: storage", ErrMissingChunk)
	}
	return c, nil
}

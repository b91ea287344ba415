package embedstore

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	"github.com/hupe1980/embedstore/blobstore"
	"github.com/hupe1980/embedstore/compat"
	"github.com/hupe1980/embedstore/internal/container"
	"github.com/hupe1980/embedstore/internal/mmap"
	"github.com/hupe1980/embedstore/metadata"
	"github.com/hupe1980/embedstore/resource"
	"github.com/hupe1980/embedstore/storage"
)

// Open reads embeddings in the native container format from path. With
// WithMmap(true) the storage matrix is mapped instead of copied to the heap.
func Open(path string, opts ...Option) (*Embeddings, error) {
	o := applyOptions(opts)
	return load(context.Background(), path, o, func(ctx context.Context) (*Embeddings, error) {
		if o.mmap {
			return openMapped(path, o)
		}
		return openFile(ctx, path, o)
	})
}

// Read reads embeddings in the native container format from the first size
// bytes of r. The storage is always copied into memory.
func Read(r io.ReaderAt, size int64, opts ...Option) (*Embeddings, error) {
	o := applyOptions(opts)
	return load(context.Background(), "reader", o, func(ctx context.Context) (*Embeddings, error) {
		return readContainer(ctx, resource.NewRateLimitedReaderAt(ctx, r, o.resources), size, nil, o)
	})
}

// OpenBlob reads embeddings in the native container format from a blob. With
// WithMmap(true) blobs backed by a local mapping are used in place; all
// other blobs are read into memory.
func OpenBlob(ctx context.Context, store blobstore.BlobStore, name string, opts ...Option) (*Embeddings, error) {
	o := applyOptions(opts)
	return load(ctx, name, o, func(ctx context.Context) (*Embeddings, error) {
		blob, err := store.Open(ctx, name)
		if err != nil {
			return nil, ioError("open blob", err)
		}

		if mappable, ok := blob.(blobstore.Mappable); ok && o.mmap {
			m := mappable.Mapping()
			e, err := readContainer(ctx, m, int64(m.Size()), m, o)
			if err != nil {
				_ = blob.Close()
			}
			return e, err
		}
		if o.mmap {
			o.logger.DebugContext(ctx, "blob cannot be mapped, reading into memory", "blob", name)
		}

		defer blob.Close()
		r := resource.NewRateLimitedReaderAt(ctx, blobstore.ReaderAt(ctx, blob), o.resources)
		return readContainer(ctx, r, blob.Size(), nil, o)
	})
}

// ReadMetadata reads only the metadata of the embeddings stored at path. It
// returns nil if the file has no metadata.
func ReadMetadata(path string) (metadata.Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ioError("open", err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, ioError("stat", err)
	}

	ix, err := container.Scan(f, fi.Size())
	if err != nil {
		return nil, ioError("read header", err)
	}
	c, ok := ix.Find(container.ChunkMetadata)
	if !ok {
		return nil, nil
	}
	md, err := container.ReadMetadata(f, c)
	if err != nil {
		return nil, ioError("read metadata", err)
	}
	return md, nil
}

// ReadText reads embeddings in the plain text format: one word per line
// followed by its components. Compressed files are detected and decompressed.
func ReadText(path string, opts ...Option) (*Embeddings, error) {
	return readLegacy(path, compat.ReadText, opts)
}

// ReadTextDims reads embeddings in the text format with a leading
// "rows dims" header line.
func ReadTextDims(path string, opts ...Option) (*Embeddings, error) {
	return readLegacy(path, compat.ReadTextDims, opts)
}

// ReadWord2Vec reads embeddings in the binary word2vec format.
func ReadWord2Vec(path string, opts ...Option) (*Embeddings, error) {
	return readLegacy(path, compat.ReadWord2Vec, opts)
}

// ReadFastText reads a fastText binary model. Words outside the vocabulary
// resolve through fastText's n-gram buckets.
func ReadFastText(path string, opts ...Option) (*Embeddings, error) {
	return readLegacy(path, compat.ReadFastText, opts)
}

func readLegacy(path string, read func(io.Reader) (*compat.Result, error), opts []Option) (*Embeddings, error) {
	o := applyOptions(opts)
	return load(context.Background(), path, o, func(ctx context.Context) (*Embeddings, error) {
		rc, err := compat.Open(path)
		if err != nil {
			return nil, ioError("open", err)
		}
		defer rc.Close()

		res, err := read(resource.NewRateLimitedReader(ctx, rc, o.resources))
		if err != nil {
			return nil, ioError("read", err)
		}

		reserved := matrixBytes(res.Storage)
		if err := o.resources.AcquireMemory(ctx, reserved); err != nil {
			return nil, ioError("reserve memory", err)
		}
		e, err := newEmbeddings(res.Vocab, res.Storage, res.Norms, res.Metadata, o)
		if err != nil {
			o.resources.ReleaseMemory(reserved)
			return nil, ioError("assemble", err)
		}
		e.reserved = reserved
		return e, nil
	})
}

// load runs read and reports its outcome to the logger and the metrics
// collector.
func load(ctx context.Context, source string, o options, read func(context.Context) (*Embeddings, error)) (*Embeddings, error) {
	start := time.Now()
	e, err := read(ctx)
	o.metricsCollector.RecordLoad(time.Since(start), err)
	o.logger.LogLoad(ctx, source, e, err)
	return e, err
}

func openFile(ctx context.Context, path string, o options) (*Embeddings, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ioError("open", err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, ioError("stat", err)
	}
	return readContainer(ctx, resource.NewRateLimitedReaderAt(ctx, f, o.resources), fi.Size(), nil, o)
}

func openMapped(path string, o options) (*Embeddings, error) {
	m, err := mmap.Open(path)
	if err != nil {
		return nil, ioError("map", err)
	}
	e, err := readContainer(context.Background(), m, int64(m.Size()), m, o)
	if err != nil {
		_ = m.Close()
	}
	return e, err
}

// readContainer decodes a container file. If m is not nil, r is m and the
// storage is mapped from it; the storage then owns m on success.
func readContainer(ctx context.Context, r io.ReaderAt, size int64, m *mmap.Mapping, o options) (*Embeddings, error) {
	ix, err := container.Scan(r, size)
	if err != nil {
		return nil, ioError("read header", err)
	}

	vc, err := ix.Vocab()
	if err != nil {
		return nil, ioError("read vocabulary", err)
	}
	v, err := container.ReadVocab(r, vc)
	if err != nil {
		return nil, ioError("read vocabulary", err)
	}

	var norms *storage.Norms
	if c, ok := ix.Find(container.ChunkNdNorms); ok {
		if norms, err = container.ReadNorms(r, c); err != nil {
			return nil, ioError("read norms", err)
		}
	}

	var md metadata.Metadata
	if c, ok := ix.Find(container.ChunkMetadata); ok {
		if md, err = container.ReadMetadata(r, c); err != nil {
			return nil, ioError("read metadata", err)
		}
	}

	sc, err := ix.Storage()
	if err != nil {
		return nil, ioError("read storage", err)
	}

	var reserved int64
	if m == nil {
		reserved = sc.Len
		if err := o.resources.AcquireMemory(ctx, reserved); err != nil {
			return nil, ioError("reserve memory", err)
		}
	}

	s, err := readStorage(ctx, r, sc, m, o)
	if err != nil {
		o.resources.ReleaseMemory(reserved)
		return nil, ioError("read storage", err)
	}

	e, err := newEmbeddings(v, s, norms, md, o)
	if err != nil {
		_ = s.Close()
		o.resources.ReleaseMemory(reserved)
		return nil, ioError("assemble", err)
	}
	e.reserved = reserved
	return e, nil
}

// readStorage reads the storage chunk as a dense matrix first. Only when the
// chunk turns out to be quantized is it read again with the quantized reader.
func readStorage(ctx context.Context, r io.ReaderAt, c container.Chunk, m *mmap.Mapping, o options) (storage.Storage, error) {
	var (
		s   storage.Storage
		err error
	)
	if m != nil {
		s, err = container.MapNdArray(m, c)
	} else {
		s, err = container.ReadNdArray(r, c)
	}
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, container.ErrQuantizedStorage) {
		return nil, err
	}

	o.logger.DebugContext(ctx, "storage is quantized", "chunk", c.ID.String())
	if m != nil {
		return container.MapQuantizedArray(m, c)
	}
	return container.ReadQuantizedArray(r, c)
}

func matrixBytes(s storage.Storage) int64 {
	rows, dims := s.Shape()
	return int64(rows) * int64(dims) * 4
}

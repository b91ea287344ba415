package embedstore

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/hupe1980/embedstore/blobstore"
	"github.com/hupe1980/embedstore/internal/container"
	"github.com/hupe1980/embedstore/internal/fs"
	"github.com/hupe1980/embedstore/resource"
)

// Write stores the embeddings at path in the native container format. The
// file is written to a temporary sibling and renamed into place, so path is
// either replaced completely or left untouched.
func (e *Embeddings) Write(path string) error {
	ctx := context.Background()
	var n int64
	return e.write(ctx, path, &n, func() error {
		return fs.WriteFileAtomic(e.opts.fileSystem, path, func(w io.Writer) error {
			var err error
			n, err = e.encode(ctx, w)
			return err
		})
	})
}

// WriteTo writes the embeddings to w in the native container format. It
// implements io.WriterTo.
func (e *Embeddings) WriteTo(w io.Writer) (int64, error) {
	ctx := context.Background()
	var n int64
	err := e.write(ctx, "writer", &n, func() error {
		var err error
		n, err = e.encode(ctx, w)
		return err
	})
	return n, err
}

// WriteBlob stores the embeddings as blob name. On failure the partial blob
// is discarded.
func (e *Embeddings) WriteBlob(ctx context.Context, store blobstore.BlobStore, name string) error {
	var n int64
	return e.write(ctx, name, &n, func() error {
		wb, err := store.Create(ctx, name)
		if err != nil {
			return err
		}
		if n, err = e.encode(ctx, wb); err != nil {
			_ = wb.Abort()
			return err
		}
		return wb.Close()
	})
}

func (e *Embeddings) write(ctx context.Context, dest string, n *int64, run func() error) error {
	start := time.Now()
	err := run()
	if err != nil {
		err = fmt.Errorf("%w: write %s: %w", ErrIO, dest, err)
	}
	e.opts.metricsCollector.RecordWrite(*n, time.Since(start), err)
	e.opts.logger.LogWrite(ctx, dest, *n, err)
	return err
}

// encode serializes the embeddings under the read lock.
func (e *Embeddings) encode(ctx context.Context, w io.Writer) (int64, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	cw := &countingWriter{w: resource.NewRateLimitedWriter(ctx, w, e.opts.resources)}
	err := container.Write(cw, &container.File{
		Vocab:    e.vocab,
		Storage:  e.storage,
		Norms:    e.norms,
		Metadata: e.metadata,
	})
	return cw.n, err
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

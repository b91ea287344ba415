package blobstore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStores(t *testing.T) map[string]BlobStore {
	return map[string]BlobStore{
		"Local":  NewLocalStore(t.TempDir()),
		"Memory": NewMemoryStore(),
	}
}

func TestBlobStore_Lifecycle(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			data := []byte("hello world, this is a test blob")

			w, err := store.Create(ctx, "models/a.fifu")
			require.NoError(t, err)
			n, err := w.Write(data)
			require.NoError(t, err)
			require.Equal(t, len(data), n)
			require.NoError(t, w.Sync())
			require.NoError(t, w.Close())
			assert.Error(t, w.Close())

			require.NoError(t, store.Put(ctx, "models/b.fifu", []byte("0123456789")))
			require.NoError(t, store.Put(ctx, "other.txt", []byte("x")))

			blob, err := store.Open(ctx, "models/a.fifu")
			require.NoError(t, err)
			defer blob.Close()
			require.Equal(t, int64(len(data)), blob.Size())

			buf := make([]byte, 5)
			n, err = blob.ReadAt(ctx, buf, 6)
			require.NoError(t, err)
			require.Equal(t, 5, n)
			assert.Equal(t, "world", string(buf))

			n, err = blob.ReadAt(ctx, make([]byte, 10), int64(len(data))-4)
			assert.Equal(t, 4, n)
			assert.ErrorIs(t, err, io.EOF)

			r, err := blob.ReadRange(ctx, 13, 4)
			require.NoError(t, err)
			content, err := io.ReadAll(r)
			require.NoError(t, err)
			require.NoError(t, r.Close())
			assert.Equal(t, "this", string(content))

			_, err = blob.ReadRange(ctx, 100, 4)
			assert.ErrorIs(t, err, io.EOF)

			names, err := store.List(ctx, "models/")
			require.NoError(t, err)
			assert.Equal(t, []string{"models/a.fifu", "models/b.fifu"}, names)

			require.NoError(t, store.Delete(ctx, "models/b.fifu"))
			require.NoError(t, store.Delete(ctx, "models/b.fifu"))
			_, err = store.Open(ctx, "models/b.fifu")
			assert.ErrorIs(t, err, ErrNotFound)

			names, err = store.List(ctx, "")
			require.NoError(t, err)
			assert.Equal(t, []string{"models/a.fifu", "other.txt"}, names)
		})
	}
}

func TestBlobStore_Abort(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			w, err := store.Create(ctx, "partial.fifu")
			require.NoError(t, err)
			_, err = w.Write([]byte("half a file"))
			require.NoError(t, err)
			require.NoError(t, w.Abort())
			assert.Error(t, w.Close())

			_, err = store.Open(ctx, "partial.fifu")
			assert.ErrorIs(t, err, ErrNotFound)

			names, err := store.List(ctx, "")
			require.NoError(t, err)
			assert.Empty(t, names)
		})
	}
}

func TestReaderAt(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Put(ctx, "blob", []byte("0123456789")))

	blob, err := store.Open(ctx, "blob")
	require.NoError(t, err)

	r := io.NewSectionReader(ReaderAt(ctx, blob), 2, 5)
	content, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "23456", string(content))
}

func TestLocalStore_Mappable(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := NewLocalStore(dir)
	require.NoError(t, store.Put(ctx, "blob", []byte("mapped")))

	blob, err := store.Open(ctx, "blob")
	require.NoError(t, err)

	m, ok := blob.(Mappable)
	require.True(t, ok)
	assert.Equal(t, []byte("mapped"), m.Mapping().Bytes())
	require.NoError(t, blob.Close())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary files must not be left behind")
	assert.Equal(t, "blob", entries[0].Name())

	_, err = os.Stat(filepath.Join(dir, "blob"))
	require.NoError(t, err)
}

func TestMemoryStore_PutCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	data := []byte("abc")
	require.NoError(t, store.Put(ctx, "blob", data))
	data[0] = 'x'

	blob, err := store.Open(ctx, "blob")
	require.NoError(t, err)
	buf := make([]byte, 3)
	_, err = blob.ReadAt(ctx, buf, 0)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(buf))
}

package resource

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestController_Memory(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 100})

	require.NoError(t, c.AcquireMemory(context.Background(), 50))
	assert.Equal(t, int64(50), c.MemoryUsage())

	require.NoError(t, c.AcquireMemory(context.Background(), 40))
	assert.Equal(t, int64(90), c.MemoryUsage())

	// TryAcquire 20 (should fail)
	assert.ErrorIs(t, c.TryAcquireMemory(20), ErrMemoryLimit)
	assert.Equal(t, int64(90), c.MemoryUsage())

	// Acquire 20 (should block/timeout)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, c.AcquireMemory(ctx, 20), context.DeadlineExceeded)

	c.ReleaseMemory(50)
	assert.Equal(t, int64(40), c.MemoryUsage())

	require.NoError(t, c.AcquireMemory(context.Background(), 20))
	assert.Equal(t, int64(60), c.MemoryUsage())

	// Larger than the whole budget never succeeds.
	assert.ErrorIs(t, c.AcquireMemory(context.Background(), 101), ErrMemoryLimit)
	assert.ErrorIs(t, c.TryAcquireMemory(101), ErrMemoryLimit)
}

func TestController_UnlimitedMemory(t *testing.T) {
	c := NewController(Config{})

	require.NoError(t, c.AcquireMemory(context.Background(), 1000))
	assert.Equal(t, int64(1000), c.MemoryUsage())
	require.NoError(t, c.TryAcquireMemory(1000))

	c.ReleaseMemory(1500)
	assert.Equal(t, int64(500), c.MemoryUsage())
}

func TestController_Nil(t *testing.T) {
	var c *Controller
	require.NoError(t, c.AcquireMemory(context.Background(), 10))
	require.NoError(t, c.TryAcquireMemory(10))
	c.ReleaseMemory(10)
	assert.Zero(t, c.MemoryUsage())
	require.NoError(t, c.AcquireQuery(context.Background()))
	assert.True(t, c.TryAcquireQuery())
	c.ReleaseQuery()
	require.NoError(t, c.AcquireIO(context.Background(), 1<<20))
	assert.Equal(t, Config{}, c.Config())
}

func TestController_Queries(t *testing.T) {
	c := NewController(Config{MaxConcurrentQueries: 2})

	require.NoError(t, c.AcquireQuery(context.Background()))
	require.NoError(t, c.AcquireQuery(context.Background()))
	assert.False(t, c.TryAcquireQuery())

	c.ReleaseQuery()
	assert.True(t, c.TryAcquireQuery())
}

func TestController_IO(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 1 << 20})

	// Larger than the burst, must not fail.
	require.NoError(t, c.AcquireIO(context.Background(), 1<<20+1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, c.AcquireIO(ctx, 1<<20))
}

func TestRateLimitedIO(t *testing.T) {
	ctx := context.Background()
	c := NewController(Config{IOLimitBytesPerSec: 1 << 20})

	var buf bytes.Buffer
	w := NewRateLimitedWriter(ctx, &buf, c)
	_, err := io.Copy(w, strings.NewReader("embedding bytes"))
	require.NoError(t, err)
	assert.Equal(t, "embedding bytes", buf.String())

	r := NewRateLimitedReader(ctx, strings.NewReader("embedding bytes"), c)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "embedding bytes", string(got))

	ra := NewRateLimitedReaderAt(ctx, strings.NewReader("embedding bytes"), c)
	p := make([]byte, 5)
	_, err = ra.ReadAt(p, 10)
	require.NoError(t, err)
	assert.Equal(t, "bytes", string(p))
}

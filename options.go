package embedstore

import (
	"log/slog"

	"github.com/hupe1980/embedstore/internal/fs"
	"github.com/hupe1980/embedstore/resource"
)

type options struct {
	mmap             bool
	parallelism      int
	metricsCollector MetricsCollector
	logger           *Logger
	resources        *resource.Controller
	fileSystem       fs.FileSystem
}

// Option configures how embeddings are loaded, queried and written.
type Option func(*options)

// WithMmap requests memory-mapped storage when reading the native format.
// Row data is then paged in from the file on demand instead of being copied
// to the heap. Readers that cannot map (streams, remote blobs, legacy
// formats) fall back to owned storage.
func WithMmap(enabled bool) Option {
	return func(o *options) {
		o.mmap = enabled
	}
}

// WithParallelism bounds the number of goroutines a single similarity query
// fans out to. Values below 1 use GOMAXPROCS.
func WithParallelism(n int) Option {
	return func(o *options) {
		o.parallelism = n
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &embedstore.BasicMetricsCollector{}
//	e, _ := embedstore.Open("model.fifu", embedstore.WithMetricsCollector(metrics))
//	// ... use e ...
//	stats := metrics.GetStats()
//	fmt.Printf("Queries: %d, Avg latency: %dns\n", stats.QueryCount, stats.QueryAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := embedstore.NewJSONLogger(slog.LevelInfo)
//	e, _ := embedstore.Open("model.fifu", embedstore.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithResourceController bounds heap materialization, concurrent queries and
// read/write bandwidth. A nil controller imposes no limits.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.resources = rc
	}
}

// WithFileSystem replaces the file system used by Write.
func WithFileSystem(fsys fs.FileSystem) Option {
	return func(o *options) {
		if fsys == nil {
			fsys = fs.Default
		}
		o.fileSystem = fsys
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		fileSystem:       fs.Default,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

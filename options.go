package segmend

import (
	"log/slog"
	"time"

	"github.com/hupe1980/segmend/codec"
)

type options struct {
	codec            codec.Codec
	metricsCollector MetricsCollector
	logger           *Logger
	parallelism      int
	ioLimit          int64
	memoryLimit      int64
	continueOnError  bool
	now              func() time.Time
}

// Option configures Open and Create.
type Option func(*options)

// WithCodec configures the codec used for JSON manifests and the V3
// index map.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithMetricsCollector configures a metrics collector for monitoring passes.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &segmend.BasicMetricsCollector{}
//	r, _ := segmend.Open(ctx, store, segmend.WithMetricsCollector(metrics))
//	// ... reconcile ...
//	stats := metrics.GetStats()
//	fmt.Printf("Added: %d, Removed: %d\n", stats.AddCount, stats.RemoveCount)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for passes.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := segmend.NewJSONLogger(slog.LevelInfo)
//	r, _ := segmend.Open(ctx, store, segmend.WithLogger(logger))
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

// WithParallelism bounds the number of columns processed at once.
// Values below 1 mean 1.
func WithParallelism(n int) Option {
	return func(o *options) {
		o.parallelism = n
	}
}

// WithIOLimit throttles artifact writes to bytesPerSec. Zero disables
// throttling.
func WithIOLimit(bytesPerSec int64) Option {
	return func(o *options) {
		o.ioLimit = bytesPerSec
	}
}

// WithMemoryLimit caps the bytes of artifacts staged in memory before they
// are flushed. Zero means unlimited. Only V3 segments stage artifacts.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.memoryLimit = bytes
	}
}

// WithContinueOnError keeps a pass going after a column fails. By default
// the first failure stops the pass and the remaining columns are skipped.
func WithContinueOnError(enabled bool) Option {
	return func(o *options) {
		o.continueOnError = enabled
	}
}

// WithClock sets the time source for manifest timestamps and durations.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		codec:            codec.Default,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		parallelism:      1,
		now:              time.Now,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.parallelism < 1 {
		o.parallelism = 1
	}
	return o
}

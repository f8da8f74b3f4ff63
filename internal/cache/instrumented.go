package cache

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	metricsOnce sync.Once
	operations  metric.Int64Counter
	duration    metric.Float64Histogram
)

func initMetrics() {
	metricsOnce.Do(func() {
		meter := otel.Meter("github.com/glyphd/glyphd/internal/cache")

		var err error
		operations, err = meter.Int64Counter(
			"avatar.hotcache.operations",
			metric.WithDescription("Hot cache operations by result"),
		)
		if err != nil {
			otel.Handle(err)
		}

		duration, err = meter.Float64Histogram(
			"avatar.hotcache.duration",
			metric.WithDescription("Hot cache operation duration"),
			metric.WithUnit("s"),
		)
		if err != nil {
			otel.Handle(err)
		}
	})
}

// Instrumented wraps a Cache with hit/miss metrics.
type Instrumented[T any] struct {
	wrapped Cache[T]
	name    string
}

// NewInstrumented creates an instrumented cache wrapper. The name
// labels the cache in emitted metrics.
func NewInstrumented[T any](wrapped Cache[T], name string) *Instrumented[T] {
	initMetrics()
	return &Instrumented[T]{wrapped: wrapped, name: name}
}

func (i *Instrumented[T]) Get(ctx context.Context, key string) (T, bool, error) {
	start := time.Now()
	value, found, err := i.wrapped.Get(ctx, key)

	status := "miss"
	switch {
	case err != nil:
		status = "error"
	case found:
		status = "hit"
	}
	i.record(ctx, "get", status, time.Since(start))

	return value, found, err
}

func (i *Instrumented[T]) Set(ctx context.Context, key string, value T) error {
	start := time.Now()
	err := i.wrapped.Set(ctx, key, value)
	i.record(ctx, "set", statusOf(err), time.Since(start))
	return err
}

func (i *Instrumented[T]) Invalidate(ctx context.Context, key string) error {
	start := time.Now()
	err := i.wrapped.Invalidate(ctx, key)
	i.record(ctx, "invalidate", statusOf(err), time.Since(start))
	return err
}

func (i *Instrumented[T]) Close() error {
	return i.wrapped.Close()
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func (i *Instrumented[T]) record(ctx context.Context, op, status string, elapsed time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("cache.name", i.name),
		attribute.String("cache.operation", op),
		attribute.String("cache.status", status),
	)

	if operations != nil {
		operations.Add(ctx, 1, attrs)
	}
	if duration != nil {
		duration.Record(ctx, elapsed.Seconds(), attrs)
	}
}

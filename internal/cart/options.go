package cart

import (
	"github.com/nikolayk812/cartkeeper/internal/metrics"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"
	"time"
)

type Option func(*Store)

// WithKey sets the storage key holding the snapshot. Defaults to DefaultSnapshotKey.
func WithKey(key string) Option {
	return func(s *Store) {
		s.key = key
	}
}

func WithLogger(logger *log.Entry) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(s *Store) {
		if provider != nil {
			s.tracer = provider.Tracer(tracerName)
		}
	}
}

func WithMetrics(m *metrics.StoreMetrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

// WithWriteDebounce coalesces snapshot writes that happen within delay of each other.
// Mutations then return before the write; write errors surface from Flush and Close.
// Zero disables debouncing, so every mutation performs exactly one write.
func WithWriteDebounce(delay time.Duration) Option {
	return func(s *Store) {
		s.debounce = delay
	}
}

// WithSerialWrites holds a writer lock across each mutation and its snapshot write,
// so overlapping callers cannot leave an older snapshot as the durable one.
func WithSerialWrites(enabled bool) Option {
	return func(s *Store) {
		s.serialWrites = enabled
	}
}

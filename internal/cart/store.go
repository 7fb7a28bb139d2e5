// Package cart holds the in-memory shopping cart and keeps a snapshot of it in a SnapshotStorage.
package cart

import (
	"context"
	"fmt"
	"github.com/nikolayk812/cartkeeper/internal/domain"
	"github.com/nikolayk812/cartkeeper/internal/metrics"
	"github.com/nikolayk812/cartkeeper/internal/port"
	"github.com/nikolayk812/cartkeeper/internal/snapshot"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"sync"
	"time"
)

// DefaultSnapshotKey is compatible with carts persisted by earlier clients.
const DefaultSnapshotKey = "@goMarketplace: card"

const tracerName = "github.com/nikolayk812/cartkeeper/internal/cart"

const (
	opAdd       = "add"
	opIncrement = "increment"
	opDecrement = "decrement"
)

type Store struct {
	storage port.SnapshotStorage
	key     string
	logger  *log.Entry
	tracer  trace.Tracer
	metrics *metrics.StoreMetrics

	debounce     time.Duration
	flusher      *flusher
	serialWrites bool
	writeMu      sync.Mutex

	// initMu serializes Initialize calls across the storage read.
	initMu sync.Mutex
	// states are numbered under mu and delivered to subscribers in that order
	notifyMu   sync.Mutex
	notifyCond *sync.Cond
	delivered  uint64

	mu          sync.RWMutex
	cart        domain.Cart
	initialized bool
	closed      bool
	subscribers map[uint64]func(domain.Cart)
	nextSubID   uint64
	seq         uint64
}

// NewStore returns an empty store. Call Initialize to hydrate it from storage.
func NewStore(storage port.SnapshotStorage, opts ...Option) (*Store, error) {
	if storage == nil {
		return nil, fmt.Errorf("storage is nil")
	}

	s := &Store{
		storage:     storage,
		key:         DefaultSnapshotKey,
		logger:      log.WithField("component", "cart-store"),
		tracer:      otel.Tracer(tracerName),
		subscribers: make(map[uint64]func(domain.Cart)),
	}
	s.notifyCond = sync.NewCond(&s.notifyMu)
	for _, opt := range opts {
		opt(s)
	}

	if s.key == "" {
		return nil, fmt.Errorf("snapshot key is empty")
	}
	if s.debounce < 0 {
		return nil, fmt.Errorf("write debounce is negative: %s", s.debounce)
	}

	if s.debounce > 0 {
		s.flusher = newFlusher(s.debounce, func(ctx context.Context) error {
			return s.persist(ctx, s.Current())
		}, s.logger)
	}

	return s, nil
}

// Initialize replaces the cart with the stored snapshot, if there is one.
// It does not write back. A failed Initialize may be retried; concurrent calls
// wait for the one in flight and then see its outcome.
func (s *Store) Initialize(ctx context.Context) (err error) {
	s.initMu.Lock()
	defer s.initMu.Unlock()

	s.mu.Lock()
	switch {
	case s.closed:
		s.mu.Unlock()
		return domain.ErrStoreClosed
	case s.initialized:
		s.mu.Unlock()
		return domain.ErrAlreadyInitialized
	}
	s.initialized = true
	s.mu.Unlock()

	defer func() {
		if err != nil {
			s.mu.Lock()
			s.initialized = false
			s.mu.Unlock()
		}
	}()

	ctx, span := s.tracer.Start(ctx, "cart.Initialize", trace.WithAttributes(
		attribute.String("cart.key", s.key),
	))
	defer func() { endSpan(span, err) }()

	raw, found, err := s.storage.Get(ctx, s.key)
	if err != nil {
		return &domain.PersistenceError{Op: "get", Key: s.key, Err: err}
	}
	if !found {
		s.logger.WithField("key", s.key).Debug("no cart snapshot stored")
		return nil
	}

	cart, err := snapshot.Decode(raw)
	if err != nil {
		return fmt.Errorf("snapshot.Decode: %w", err)
	}

	s.mu.Lock()
	s.cart = cart
	subs := s.subscribersLocked()
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	s.metrics.SetCartSize(len(cart.Items), cart.Count())
	s.notify(seq, subs, cart)

	s.logger.WithFields(log.Fields{
		"key":   s.key,
		"items": len(cart.Items),
	}).Debug("cart hydrated")

	return nil
}

// AddToCart adds product with quantity 1, or increments it when already present.
func (s *Store) AddToCart(ctx context.Context, product domain.Product) error {
	if err := product.Validate(); err != nil {
		return fmt.Errorf("product.Validate: %w", err)
	}

	return s.mutate(ctx, opAdd, func(c domain.Cart) domain.Cart {
		return c.Add(product)
	})
}

func (s *Store) Increment(ctx context.Context, id string) error {
	return s.mutate(ctx, opIncrement, func(c domain.Cart) domain.Cart {
		return c.Increment(id)
	})
}

// Decrement never drops a quantity below 1.
func (s *Store) Decrement(ctx context.Context, id string) error {
	return s.mutate(ctx, opDecrement, func(c domain.Cart) domain.Cart {
		return c.Decrement(id)
	})
}

// Current returns a copy of the cart.
func (s *Store) Current() domain.Cart {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.cart.Clone()
}

func (s *Store) Products() []domain.LineItem {
	return s.Current().Items
}

// Subscribe registers fn to be called with a copy of the cart after every state change.
// fn runs on the goroutine that changed the state, one notification at a time and in
// the order the states were produced. fn must not mutate the store synchronously.
func (s *Store) Subscribe(fn func(domain.Cart)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		delete(s.subscribers, id)
	}
}

// Flush writes a pending debounced snapshot. Without debouncing it is a no-op.
func (s *Store) Flush(ctx context.Context) error {
	if s.flusher == nil {
		return nil
	}
	return s.flusher.flush(ctx)
}

// Close ends the store lifetime. Pending debounced writes are flushed first.
// The last written snapshot stays in storage.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	if s.flusher == nil {
		return nil
	}
	return s.flusher.close(ctx)
}

func (s *Store) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.closed
}

func (s *Store) mutate(ctx context.Context, op string, fn func(domain.Cart) domain.Cart) error {
	if s.serialWrites {
		s.writeMu.Lock()
		defer s.writeMu.Unlock()
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.ErrStoreClosed
	}
	next := fn(s.cart)
	s.cart = next
	subs := s.subscribersLocked()
	if s.flusher != nil {
		// under mu, so a concurrent Close either flushes this change or is seen above
		s.flusher.schedule()
	}
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	s.metrics.RecordMutation(op)
	s.metrics.SetCartSize(len(next.Items), next.Count())
	s.notify(seq, subs, next)

	if s.flusher != nil {
		return nil
	}

	return s.persist(ctx, next)
}

func (s *Store) persist(ctx context.Context, cart domain.Cart) (err error) {
	ctx, span := s.tracer.Start(ctx, "cart.persist", trace.WithAttributes(
		attribute.String("cart.key", s.key),
		attribute.Int("cart.items", len(cart.Items)),
	))
	defer func() { endSpan(span, err) }()

	payload, err := snapshot.Encode(cart)
	if err != nil {
		return fmt.Errorf("snapshot.Encode: %w", err)
	}

	start := time.Now()
	err = s.storage.Set(ctx, s.key, payload)
	s.metrics.RecordWrite(time.Since(start), err)
	if err != nil {
		s.logger.WithError(err).WithField("key", s.key).Warn("cart snapshot write failed")
		return &domain.PersistenceError{Op: "set", Key: s.key, Err: err}
	}

	s.logger.WithFields(log.Fields{
		"key":   s.key,
		"items": len(cart.Items),
	}).Debug("cart snapshot written")

	return nil
}

func (s *Store) subscribersLocked() []func(domain.Cart) {
	subs := make([]func(domain.Cart), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	return subs
}

// notify waits until the state numbered seq-1 has been delivered, then delivers cart.
// Every seq taken under mu must reach notify, or later deliveries block forever.
func (s *Store) notify(seq uint64, subs []func(domain.Cart), cart domain.Cart) {
	s.notifyMu.Lock()
	for s.delivered != seq-1 {
		s.notifyCond.Wait()
	}
	s.notifyMu.Unlock()

	for _, fn := range subs {
		fn(cart.Clone())
	}

	s.notifyMu.Lock()
	s.delivered = seq
	s.notifyCond.Broadcast()
	s.notifyMu.Unlock()
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

var _ port.CartHandle = (*Store)(nil)

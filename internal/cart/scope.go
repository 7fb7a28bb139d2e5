package cart

import (
	"context"
	"errors"
	"fmt"
	"github.com/nikolayk812/cartkeeper/internal/domain"
	"github.com/nikolayk812/cartkeeper/internal/port"
)

type storeKey struct{}

// NewContext returns a copy of ctx that carries store.
func NewContext(ctx context.Context, store *Store) context.Context {
	return context.WithValue(ctx, storeKey{}, store)
}

// FromContext returns the handle of the store carried by ctx.
// It fails with domain.ErrNoStoreScope when ctx carries no store or the store was closed.
func FromContext(ctx context.Context) (port.CartHandle, error) {
	store, ok := ctx.Value(storeKey{}).(*Store)
	if !ok || store == nil || store.isClosed() {
		return nil, domain.ErrNoStoreScope
	}
	return store, nil
}

// Run hydrates store, runs fn with a context carrying it and closes the store when fn returns.
func Run(ctx context.Context, store *Store, fn func(ctx context.Context) error) (err error) {
	if store == nil {
		return fmt.Errorf("store is nil")
	}

	if err := store.Initialize(ctx); err != nil {
		return fmt.Errorf("store.Initialize: %w", err)
	}

	defer func() {
		if closeErr := store.Close(context.WithoutCancel(ctx)); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("store.Close: %w", closeErr))
		}
	}()

	return fn(NewContext(ctx, store))
}

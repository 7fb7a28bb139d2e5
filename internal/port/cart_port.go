package port

import (
	"context"
	"github.com/nikolayk812/cartkeeper/internal/domain"
)

// CartHandle is what UI code sees of a live cart store.
type CartHandle interface {
	Products() []domain.LineItem
	AddToCart(ctx context.Context, product domain.Product) error
	Increment(ctx context.Context, id string) error
	Decrement(ctx context.Context, id string) error
}

package domain_test

import (
	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/nikolayk812/cartkeeper/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/currency"
	"testing"
)

func TestCart_Add(t *testing.T) {
	p1 := randomProduct()
	p2 := randomProduct()

	tests := []struct {
		name     string
		cart     domain.Cart
		product  domain.Product
		wantCart domain.Cart
	}{
		{
			name:     "add to empty cart: quantity 1",
			cart:     domain.Cart{},
			product:  p1,
			wantCart: domain.Cart{Items: []domain.LineItem{{Product: p1, Quantity: 1}}},
		},
		{
			name:    "add new product: appended at the end",
			cart:    domain.Cart{Items: []domain.LineItem{{Product: p1, Quantity: 3}}},
			product: p2,
			wantCart: domain.Cart{Items: []domain.LineItem{
				{Product: p1, Quantity: 3},
				{Product: p2, Quantity: 1},
			}},
		},
		{
			name:    "add existing product: incremented in place",
			cart:    domain.Cart{Items: []domain.LineItem{{Product: p1, Quantity: 1}, {Product: p2, Quantity: 2}}},
			product: p1,
			wantCart: domain.Cart{Items: []domain.LineItem{
				{Product: p1, Quantity: 2},
				{Product: p2, Quantity: 2},
			}},
		},
		{
			name: "add existing product with other fields: first add wins",
			cart: domain.Cart{Items: []domain.LineItem{{Product: p1, Quantity: 1}}},
			product: domain.Product{
				ID:       p1.ID,
				Title:    "renamed",
				ImageURL: "https://example.com/other.png",
				Price:    p1.Price.Add(decimal.NewFromInt(10)),
			},
			wantCart: domain.Cart{Items: []domain.LineItem{{Product: p1, Quantity: 2}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := tt.cart.Clone()

			got := tt.cart.Add(tt.product)

			assertCart(t, tt.wantCart, got)
			assertCart(t, before, tt.cart)
			require.NoError(t, got.Validate())
		})
	}
}

func TestCart_Increment(t *testing.T) {
	p1 := randomProduct()
	p2 := randomProduct()
	cart := domain.Cart{Items: []domain.LineItem{{Product: p1, Quantity: 1}, {Product: p2, Quantity: 5}}}

	tests := []struct {
		name     string
		id       string
		wantCart domain.Cart
	}{
		{
			name:     "increment existing: +1",
			id:       p2.ID,
			wantCart: domain.Cart{Items: []domain.LineItem{{Product: p1, Quantity: 1}, {Product: p2, Quantity: 6}}},
		},
		{
			name:     "increment unknown: unchanged",
			id:       gofakeit.UUID(),
			wantCart: cart,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cart.Increment(tt.id)
			assertCart(t, tt.wantCart, got)
		})
	}
}

func TestCart_Decrement(t *testing.T) {
	p1 := randomProduct()
	p2 := randomProduct()

	tests := []struct {
		name     string
		cart     domain.Cart
		id       string
		wantCart domain.Cart
	}{
		{
			name:     "decrement from 3: 2",
			cart:     domain.Cart{Items: []domain.LineItem{{Product: p1, Quantity: 3}}},
			id:       p1.ID,
			wantCart: domain.Cart{Items: []domain.LineItem{{Product: p1, Quantity: 2}}},
		},
		{
			name:     "decrement from 1: stays at 1",
			cart:     domain.Cart{Items: []domain.LineItem{{Product: p1, Quantity: 1}, {Product: p2, Quantity: 4}}},
			id:       p1.ID,
			wantCart: domain.Cart{Items: []domain.LineItem{{Product: p1, Quantity: 1}, {Product: p2, Quantity: 4}}},
		},
		{
			name:     "decrement unknown: unchanged",
			cart:     domain.Cart{Items: []domain.LineItem{{Product: p1, Quantity: 2}}},
			id:       gofakeit.UUID(),
			wantCart: domain.Cart{Items: []domain.LineItem{{Product: p1, Quantity: 2}}},
		},
		{
			name:     "decrement on empty cart: unchanged",
			cart:     domain.Cart{},
			id:       p1.ID,
			wantCart: domain.Cart{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.cart.Decrement(tt.id)
			assertCart(t, tt.wantCart, got)
		})
	}
}

func TestCart_InvariantsHoldForRandomSequences(t *testing.T) {
	products := []domain.Product{randomProduct(), randomProduct(), randomProduct()}

	var cart domain.Cart
	for range 500 {
		p := products[gofakeit.IntN(len(products))]
		switch gofakeit.IntN(3) {
		case 0:
			cart = cart.Add(p)
		case 1:
			cart = cart.Increment(p.ID)
		default:
			cart = cart.Decrement(p.ID)
		}
		require.NoError(t, cart.Validate())
	}
}

func TestCart_CountAndTotal(t *testing.T) {
	cart := domain.Cart{Items: []domain.LineItem{
		{Product: domain.Product{ID: "a", Price: decimal.RequireFromString("10.50")}, Quantity: 2},
		{Product: domain.Product{ID: "b", Price: decimal.RequireFromString("0.99")}, Quantity: 3},
	}}

	assert.Equal(t, 5, cart.Count())

	total := cart.Total(currency.BRL)
	assert.True(t, decimal.RequireFromString("23.97").Equal(total.Amount), total.Amount.String())
	assert.Equal(t, "BRL 23.97", total.String())

	empty := domain.Cart{}.Total(currency.USD)
	assert.True(t, empty.Amount.IsZero())
}

func TestCart_Validate(t *testing.T) {
	p := randomProduct()

	tests := []struct {
		name    string
		cart    domain.Cart
		wantErr error
	}{
		{
			name: "valid cart: ok",
			cart: domain.Cart{Items: []domain.LineItem{{Product: p, Quantity: 1}}},
		},
		{
			name:    "zero quantity: error",
			cart:    domain.Cart{Items: []domain.LineItem{{Product: p, Quantity: 0}}},
			wantErr: domain.ErrQuantityInvalid,
		},
		{
			name:    "duplicate id: error",
			cart:    domain.Cart{Items: []domain.LineItem{{Product: p, Quantity: 1}, {Product: p, Quantity: 2}}},
			wantErr: domain.ErrDuplicateItem,
		},
		{
			name:    "empty id: error",
			cart:    domain.Cart{Items: []domain.LineItem{{Quantity: 1}}},
			wantErr: domain.ErrProductIDRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cart.Validate()
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestProduct_Validate(t *testing.T) {
	p := randomProduct()
	require.NoError(t, p.Validate())

	p.Price = decimal.NewFromInt(-1)
	require.ErrorIs(t, p.Validate(), domain.ErrPriceNegative)

	p.ID = ""
	require.ErrorIs(t, p.Validate(), domain.ErrProductIDRequired)
}

func randomProduct() domain.Product {
	return domain.Product{
		ID:       gofakeit.UUID(),
		Title:    gofakeit.ProductName(),
		ImageURL: gofakeit.URL(),
		Price:    decimal.NewFromFloat(gofakeit.Price(1, 100)),
	}
}

func assertCart(t *testing.T, expected, actual domain.Cart) {
	t.Helper()

	opts := cmp.Options{
		cmp.Comparer(func(x, y decimal.Decimal) bool {
			return x.Equal(y)
		}),
		cmpopts.EquateEmpty(),
	}

	diff := cmp.Diff(expected, actual, opts)
	assert.Empty(t, diff)
}

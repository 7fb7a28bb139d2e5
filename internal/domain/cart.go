package domain

import (
	"fmt"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"slices"
)

// Product describes a catalog entry as it is handed to the cart. It carries no quantity.
type Product struct {
	ID       string
	Title    string
	ImageURL string
	Price    decimal.Decimal
}

type LineItem struct {
	Product

	Quantity int
}

// Cart is an ordered collection of line items, unique by product ID.
// Every mutating method returns a new Cart and leaves the receiver untouched.
type Cart struct {
	Items []LineItem
}

func (p Product) Validate() error {
	if p.ID == "" {
		return ErrProductIDRequired
	}
	if p.Price.IsNegative() {
		return ErrPriceNegative
	}
	return nil
}

// Add appends p with quantity 1, or increments the existing entry with the same ID.
// Fields of an existing entry are never overwritten by p.
func (c Cart) Add(p Product) Cart {
	if c.indexOf(p.ID) != -1 {
		return c.Increment(p.ID)
	}

	items := make([]LineItem, 0, len(c.Items)+1)
	items = append(items, c.Items...)
	items = append(items, LineItem{Product: p, Quantity: 1})

	return Cart{Items: items}
}

// Increment raises the quantity of the entry with the given ID by one.
// An unknown ID yields an equal cart.
func (c Cart) Increment(id string) Cart {
	return c.update(id, func(item LineItem) LineItem {
		item.Quantity++
		return item
	})
}

// Decrement lowers the quantity of the entry with the given ID by one, never below 1.
func (c Cart) Decrement(id string) Cart {
	return c.update(id, func(item LineItem) LineItem {
		if item.Quantity > 1 {
			item.Quantity--
		}
		return item
	})
}

func (c Cart) Find(id string) (LineItem, bool) {
	i := c.indexOf(id)
	if i == -1 {
		return LineItem{}, false
	}
	return c.Items[i], true
}

func (c Cart) Clone() Cart {
	return Cart{Items: slices.Clone(c.Items)}
}

// Count returns the number of units in the cart.
func (c Cart) Count() int {
	var n int
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

// Total returns the sum of price*quantity over all items.
func (c Cart) Total(unit currency.Unit) Money {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return Money{Amount: total, Currency: unit}
}

// Validate reports whether the cart holds unique IDs and positive quantities.
func (c Cart) Validate() error {
	seen := make(map[string]struct{}, len(c.Items))
	for i, item := range c.Items {
		if item.ID == "" {
			return fmt.Errorf("item[%d]: %w", i, ErrProductIDRequired)
		}
		if item.Quantity < 1 {
			return fmt.Errorf("item[%s] quantity %d: %w", item.ID, item.Quantity, ErrQuantityInvalid)
		}
		if _, ok := seen[item.ID]; ok {
			return fmt.Errorf("item[%s]: %w", item.ID, ErrDuplicateItem)
		}
		seen[item.ID] = struct{}{}
	}
	return nil
}

func (c Cart) indexOf(id string) int {
	return slices.IndexFunc(c.Items, func(item LineItem) bool {
		return item.ID == id
	})
}

func (c Cart) update(id string, fn func(LineItem) LineItem) Cart {
	items := make([]LineItem, len(c.Items))
	for i, item := range c.Items {
		if item.ID == id {
			item = fn(item)
		}
		items[i] = item
	}
	return Cart{Items: items}
}

// Package snapshot encodes a Cart into the JSON array persisted under the cart key.
package snapshot

import (
	"encoding/json"
	"fmt"
	"github.com/nikolayk812/cartkeeper/internal/domain"
	"github.com/shopspring/decimal"
)

type lineItem struct {
	ID       string      `json:"id"`
	Title    string      `json:"title"`
	ImageURL string      `json:"image_url"`
	Price    json.Number `json:"price"`
	Quantity int         `json:"quantity"`
}

func Encode(cart domain.Cart) (string, error) {
	items := make([]lineItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		items = append(items, mapDomainToLineItem(item))
	}

	data, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("json.Marshal: %w", err)
	}

	return string(data), nil
}

// Decode parses a snapshot. Any failure wraps domain.ErrSnapshotCorrupt.
func Decode(raw string) (domain.Cart, error) {
	var items []lineItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return domain.Cart{}, fmt.Errorf("%w: json.Unmarshal: %w", domain.ErrSnapshotCorrupt, err)
	}

	cart, err := mapLineItemsToDomain(items)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("%w: %w", domain.ErrSnapshotCorrupt, err)
	}

	if err := cart.Validate(); err != nil {
		return domain.Cart{}, fmt.Errorf("%w: %w", domain.ErrSnapshotCorrupt, err)
	}

	return cart, nil
}

func mapDomainToLineItem(item domain.LineItem) lineItem {
	return lineItem{
		ID:       item.ID,
		Title:    item.Title,
		ImageURL: item.ImageURL,
		Price:    json.Number(item.Price.String()),
		Quantity: item.Quantity,
	}
}

func mapLineItemToDomain(item lineItem) (domain.LineItem, error) {
	price := decimal.Zero
	if item.Price != "" {
		parsed, err := decimal.NewFromString(item.Price.String())
		if err != nil {
			return domain.LineItem{}, fmt.Errorf("price[%s] is not valid: %w", item.Price, err)
		}
		price = parsed
	}

	return domain.LineItem{
		Product: domain.Product{
			ID:       item.ID,
			Title:    item.Title,
			ImageURL: item.ImageURL,
			Price:    price,
		},
		Quantity: item.Quantity,
	}, nil
}

func mapLineItemsToDomain(items []lineItem) (domain.Cart, error) {
	var cart domain.Cart

	for _, item := range items {
		domainItem, err := mapLineItemToDomain(item)
		if err != nil {
			return domain.Cart{}, fmt.Errorf("mapLineItemToDomain: %w", err)
		}

		cart.Items = append(cart.Items, domainItem)
	}

	return cart, nil
}

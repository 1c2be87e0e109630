package pricing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrNegativePrice is returned when an item is constructed with a price below zero.
var ErrNegativePrice = errors.New("price must not be negative")

// Money represents an exact decimal monetary value.
type Money = decimal.Decimal

// SKU identifies a product type.
type SKU string

// Item describes a scanned product. Items are plain values; many may share a SKU.
type Item struct {
	SKU   SKU    `json:"sku"`
	Name  string `json:"name"`
	Price Money  `json:"price"`
}

// NewItem builds an item from a textual decimal price.
func NewItem(sku, name, price string) (Item, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return Item{}, errors.New("sku is required")
	}
	p, err := decimal.NewFromString(strings.TrimSpace(price))
	if err != nil {
		return Item{}, fmt.Errorf("parse price for %s: %w", sku, err)
	}
	if p.IsNegative() {
		return Item{}, fmt.Errorf("%s: %w", sku, ErrNegativePrice)
	}
	return Item{SKU: SKU(sku), Name: name, Price: p}, nil
}

// MustItem behaves like NewItem but panics on error. Useful for fixtures.
func MustItem(sku, name, price string) Item {
	it, err := NewItem(sku, name, price)
	if err != nil {
		panic(err)
	}
	return it
}

// Summary aggregates computed pricing components.
type Summary struct {
	Subtotal Money
	Discount Money
	Total    Money
}

// Sum returns the gross price of the provided items.
func Sum(items []Item) Money {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Price)
	}
	return total
}

// Compute calculates cart totals given the items and the discount to subtract.
// The discount is not clamped; an over-generous rule set can yield a negative total.
func Compute(items []Item, discount Money) Summary {
	if len(items) == 0 {
		return Summary{Subtotal: decimal.Zero, Discount: decimal.Zero, Total: decimal.Zero}
	}
	subtotal := Sum(items)
	return Summary{
		Subtotal: subtotal,
		Discount: discount,
		Total:    subtotal.Sub(discount),
	}
}

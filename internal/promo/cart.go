package promo

import "github.com/noah-isme/toko-promo/internal/pricing"

// IndexedCart groups cart items by SKU. Each group keeps scan order so that
// "first N" selection is deterministic.
type IndexedCart map[pricing.SKU][]pricing.Item

// Index groups items by SKU preserving insertion order within each group.
func Index(items []pricing.Item) IndexedCart {
	cart := make(IndexedCart)
	for _, it := range items {
		cart[it.SKU] = append(cart[it.SKU], it)
	}
	return cart
}

// Count returns the number of units of sku present.
func (c IndexedCart) Count(sku pricing.SKU) int {
	return len(c[sku])
}

// First returns up to n items of sku in scan order.
func (c IndexedCart) First(sku pricing.SKU, n int) []pricing.Item {
	items := c[sku]
	if n <= 0 || len(items) == 0 {
		return nil
	}
	if n > len(items) {
		n = len(items)
	}
	return items[:n:n]
}

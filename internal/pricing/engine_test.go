package pricing

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestNewItemParsesDecimalPrice(t *testing.T) {
	mbp, err := NewItem("mbp", "MacBook Pro", "1399.99")
	require.NoError(t, err)
	require.Equal(t, SKU("mbp"), mbp.SKU)
	require.Equal(t, "MacBook Pro", mbp.Name)
	require.True(t, mbp.Price.Equal(decimal.RequireFromString("1399.99")))
}

func TestNewItemRejectsInvalidInput(t *testing.T) {
	_, err := NewItem("ipd", "Super iPad", "-1")
	require.True(t, errors.Is(err, ErrNegativePrice))

	_, err = NewItem("ipd", "Super iPad", "cheap")
	require.Error(t, err)

	_, err = NewItem("  ", "blank", "1")
	require.Error(t, err)
}

func TestComputeSubtractsDiscount(t *testing.T) {
	items := []Item{
		MustItem("atv", "Apple TV", "109.50"),
		MustItem("atv", "Apple TV", "109.50"),
		MustItem("vga", "VGA adapter", "30.00"),
	}
	summary := Compute(items, decimal.RequireFromString("109.50"))
	require.True(t, summary.Subtotal.Equal(decimal.RequireFromString("249.00")))
	require.True(t, summary.Total.Equal(decimal.RequireFromString("139.50")))
}

func TestComputeEmptyCartIsZero(t *testing.T) {
	summary := Compute(nil, decimal.NewFromInt(10))
	require.True(t, summary.Total.IsZero())
	require.True(t, summary.Discount.IsZero())
}

func TestSumIsExact(t *testing.T) {
	items := make([]Item, 0, 10)
	for i := 0; i < 10; i++ {
		items = append(items, MustItem("x", "ten cents", "0.1"))
	}
	require.True(t, Sum(items).Equal(decimal.NewFromInt(1)))
}

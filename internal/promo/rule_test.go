package promo

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-promo/internal/pricing"
)

var (
	mbp = pricing.MustItem("mbp", "MacBook Pro", "1399.99")
	ipd = pricing.MustItem("ipd", "Super iPad", "549.99")
	atv = pricing.MustItem("atv", "Apple TV", "109.50")
	vga = pricing.MustItem("vga", "VGA adapter", "30.00")

	now = time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)
)

func dec(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func money(v string) *pricing.Money {
	d := dec(v)
	return &d
}

func requireMoney(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, dec(want).Equal(got), "expected %s, got %s", want, got)
}

func TestAppliesWithinPeriod(t *testing.T) {
	rule := Rule{Period: &Period{Start: "25/01/2000", End: "25/01/3000"}}
	ok, err := rule.Applies(IndexedCart{}, now)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestAppliesOutsidePeriod(t *testing.T) {
	rule := Rule{Period: &Period{Start: "25/01/1900", End: "25/01/2000"}}
	ok, err := rule.Applies(IndexedCart{}, now)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestPeriodBoundsAreInclusive(t *testing.T) {
	period := Period{Start: "14/03/2026", End: "15/03/2026"}

	ok, err := period.Contains(time.Date(2026, time.March, 14, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = period.Contains(time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = period.Contains(time.Date(2026, time.March, 13, 23, 59, 59, 0, time.UTC))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestPeriodIsDayMonthYear(t *testing.T) {
	start, end, err := Period{Start: "02/01/2020", End: "5/1/2020"}.Bounds()
	require.NoError(t, err)
	require.Equal(t, time.January, start.Month())
	require.Equal(t, 2, start.Day())
	require.Equal(t, 5, end.Day())

	// 25 is not a month, so month/day/year input must be rejected.
	_, _, err = Period{Start: "01/25/2020", End: "01/01/2021"}.Bounds()
	require.Error(t, err)
}

func TestAppliesMalformedPeriod(t *testing.T) {
	rule := Rule{Period: &Period{Start: "yesterday", End: "25/01/3000"}}
	ok, err := rule.Applies(IndexedCart{}, now)
	require.False(t, ok)
	require.True(t, errors.Is(err, ErrInvalidPeriod))

	var perr *PeriodError
	require.True(t, errors.As(err, &perr))
	require.Equal(t, "start", perr.Field)
	require.Equal(t, "yesterday", perr.Value)
}

func TestBulkThreshold(t *testing.T) {
	rule := Rule{Bulk: &Bulk{SKU: "ipd", Qty: 4}, Receive: Receive{SKU: "ipd"}}

	cases := []struct {
		name  string
		count int
		want  bool
	}{
		{"below", 3, false},
		{"equal", 4, true},
		{"above", 5, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			items := make([]pricing.Item, tc.count)
			for i := range items {
				items[i] = ipd
			}
			ok, err := rule.Applies(Index(items), now)
			require.NoError(t, err)
			require.Equal(t, tc.want, ok)
		})
	}
}

func TestBatchDisablesBulk(t *testing.T) {
	rule := Rule{
		Bulk:    &Bulk{SKU: "ipd", Qty: 10},
		Batch:   &Batch{SKU: "ipd", Qty: 2},
		Receive: Receive{SKU: "ipd"},
	}
	require.Equal(t, ModeBatch, rule.Mode())
	ok, err := rule.Applies(Index([]pricing.Item{ipd, ipd}), now)
	require.NoError(t, err)
	require.True(t, ok)
	requireMoney(t, "549.99", rule.Calc(Index([]pricing.Item{ipd, ipd})))
}

func TestBulkCalc(t *testing.T) {
	cart := IndexedCart{"ipd": {ipd, ipd}}

	cases := []struct {
		name    string
		receive Receive
		want    string
	}{
		{"discount", ReceiveFromFields("ipd", 0, money("50"), nil, nil), "100"},
		{"fixed", ReceiveFromFields("ipd", 0, nil, money("499.99"), nil), "100"},
		{"percent", ReceiveFromFields("ipd", 0, nil, nil, money("0.5")), "549.99"},
		{"free", ReceiveFromFields("ipd", 0, nil, nil, nil), "1099.98"},
		{"capped", ReceiveFromFields("ipd", 1, nil, nil, nil), "549.99"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rule := Rule{Bulk: &Bulk{SKU: "ipd"}, Receive: tc.receive}
			requireMoney(t, tc.want, rule.Calc(cart))
		})
	}
}

func TestBulkPairedItem(t *testing.T) {
	rule := Rule{Bulk: &Bulk{SKU: "ipd"}, Receive: Receive{SKU: "vga"}}
	requireMoney(t, "30", rule.Calc(IndexedCart{"ipd": {ipd, ipd}, "vga": {vga}}))
	requireMoney(t, "0", rule.Calc(IndexedCart{"ipd": {ipd, ipd}}))
}

func TestBatchBuyOneGetOneFree(t *testing.T) {
	rule := Rule{Batch: &Batch{SKU: "ipd", Qty: 2}, Receive: Receive{SKU: "ipd"}}
	requireMoney(t, "1099.98", rule.Calc(IndexedCart{"ipd": {ipd, ipd, ipd, ipd}}))
	requireMoney(t, "549.99", rule.Calc(IndexedCart{"ipd": {ipd, ipd, ipd}}))
}

func TestBatchCalc(t *testing.T) {
	cart := IndexedCart{"ipd": {ipd, ipd}}

	cases := []struct {
		name    string
		receive Receive
		want    string
	}{
		{"discount", ReceiveFromFields("ipd", 0, money("50"), nil, nil), "100"},
		{"fixed", ReceiveFromFields("ipd", 0, nil, money("499.99"), nil), "100"},
		{"percent", ReceiveFromFields("ipd", 0, nil, nil, money("0.5")), "549.99"},
		{"free", ReceiveFromFields("ipd", 0, nil, nil, nil), "1099.98"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rule := Rule{Batch: &Batch{SKU: "ipd"}, Receive: tc.receive}
			requireMoney(t, tc.want, rule.Calc(cart))
		})
	}
}

func TestBatchPairedItem(t *testing.T) {
	rule := Rule{Batch: &Batch{SKU: "ipd"}, Receive: Receive{SKU: "vga"}}
	requireMoney(t, "30", rule.Calc(IndexedCart{"ipd": {ipd, ipd}, "vga": {vga}}))
	requireMoney(t, "0", rule.Calc(IndexedCart{"ipd": {ipd, ipd}}))
}

func TestBatchReceiveQtyScalesPerBatch(t *testing.T) {
	rule := Rule{Batch: &Batch{SKU: "mbp", Qty: 1}, Receive: Receive{SKU: "vga", Qty: 2}}
	cart := Index([]pricing.Item{mbp, vga, vga, vga, mbp, vga, vga})
	require.Len(t, rule.DiscountedItems(cart), 4)
	requireMoney(t, "120", rule.Calc(cart))
}

func TestBatchArithmeticIsMonotonic(t *testing.T) {
	for _, group := range []int{1, 2, 3, 5} {
		prev := -1
		for count := 0; count <= 20; count++ {
			got := Batches(count, group) * 2
			require.Equal(t, (count/group)*2, got)
			require.GreaterOrEqual(t, got, prev)
			prev = got
		}
	}
	require.Equal(t, 0, Batches(-3, 2))
	require.Equal(t, 4, Batches(4, 0))
}

func TestSimpleRuleDiscountsReceiveQty(t *testing.T) {
	rule := Rule{Receive: Receive{SKU: "vga"}}
	require.Equal(t, ModeSimple, rule.Mode())

	ok, err := rule.Applies(IndexedCart{}, now)
	require.NoError(t, err)
	require.True(t, ok)

	requireMoney(t, "30", rule.Calc(IndexedCart{"vga": {vga, vga, vga}}))

	rule.Receive.Qty = 2
	requireMoney(t, "60", rule.Calc(IndexedCart{"vga": {vga, vga, vga}}))
}

func TestCalcIsZeroWithoutDiscountedItems(t *testing.T) {
	rules := []Rule{
		{Receive: ReceiveFromFields("vga", 0, money("5"), nil, nil)},
		{Bulk: &Bulk{SKU: "ipd", Qty: 1}, Receive: ReceiveFromFields("vga", 0, nil, money("1"), nil)},
		{Batch: &Batch{SKU: "ipd", Qty: 3}, Receive: ReceiveFromFields("ipd", 0, nil, nil, money("0.2"))},
		{Batch: &Batch{SKU: "mbp"}, Receive: Receive{SKU: "vga"}},
	}
	carts := []IndexedCart{
		{},
		{"ipd": {ipd, ipd}},
		{"mbp": {mbp}},
	}
	for _, rule := range rules {
		for _, cart := range carts {
			if len(rule.DiscountedItems(cart)) != 0 {
				continue
			}
			requireMoney(t, "0", rule.Calc(cart))
		}
	}
}

func TestPercentReturnsRemainingCharge(t *testing.T) {
	rule := Rule{Bulk: &Bulk{SKU: "atv"}, Receive: ReceiveFromFields("atv", 0, nil, nil, money("0.2"))}
	// 0.2 leaves 80% of 219.00 as the discount, not 20%.
	requireMoney(t, "175.2", rule.Calc(IndexedCart{"atv": {atv, atv}}))
}

func TestReceivePriority(t *testing.T) {
	r := ReceiveFromFields("ipd", 0, money("1"), money("2"), money("0.3"))
	require.Equal(t, KindDiscount, r.Kind)
	requireMoney(t, "1", r.Amount)

	r = ReceiveFromFields("ipd", 0, nil, money("2"), money("0.3"))
	require.Equal(t, KindFixed, r.Kind)

	r = ReceiveFromFields("ipd", 0, nil, nil, money("0.3"))
	require.Equal(t, KindPercent, r.Kind)

	r = ReceiveFromFields("ipd", 0, nil, nil, nil)
	require.Equal(t, KindFree, r.Kind)
}

func TestDiscountedItemsKeepScanOrder(t *testing.T) {
	cheap := pricing.MustItem("ipd", "Super iPad (demo)", "1.00")
	cart := Index([]pricing.Item{ipd, cheap, ipd})
	rule := Rule{Receive: Receive{SKU: "ipd", Qty: 2}}
	got := rule.DiscountedItems(cart)
	require.Equal(t, []pricing.Item{ipd, cheap}, got)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("Percent")
	require.NoError(t, err)
	require.Equal(t, KindPercent, k)
	require.Equal(t, "percent", k.String())

	_, err = ParseKind("bogus")
	require.Error(t, err)
}

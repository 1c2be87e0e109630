package promo

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-promo/internal/pricing"
)

// PeriodLayout is the day/month/year layout used by rule periods, e.g. "25/01/2020".
const PeriodLayout = "2/1/2006"

// ErrInvalidPeriod is returned when a rule period boundary cannot be parsed.
var ErrInvalidPeriod = errors.New("invalid rule period")

// PeriodError describes which period boundary failed to parse.
type PeriodError struct {
	Field string
	Value string
	Err   error
}

func (e *PeriodError) Error() string {
	return fmt.Sprintf("%s: period %s %q: %v", ErrInvalidPeriod, e.Field, e.Value, e.Err)
}

// Is lets errors.Is match ErrInvalidPeriod.
func (e *PeriodError) Is(target error) bool { return target == ErrInvalidPeriod }

func (e *PeriodError) Unwrap() error { return e.Err }

// Kind selects how the receive items are discounted.
type Kind int

const (
	// KindFree waives the full price of the received items.
	KindFree Kind = iota
	// KindDiscount takes a flat amount off per received unit.
	KindDiscount
	// KindFixed prices the received units as if each cost Amount less.
	KindFixed
	// KindPercent applies a fractional price factor.
	KindPercent
)

func (k Kind) String() string {
	switch k {
	case KindDiscount:
		return "discount"
	case KindFixed:
		return "fixed"
	case KindPercent:
		return "percent"
	default:
		return "free"
	}
}

// ParseKind maps a textual kind to its enum value.
func ParseKind(value string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "free":
		return KindFree, nil
	case "discount":
		return KindDiscount, nil
	case "fixed":
		return KindFixed, nil
	case "percent":
		return KindPercent, nil
	default:
		return KindFree, fmt.Errorf("unknown receive kind %q", value)
	}
}

// Mode is the trigger strategy derived from a rule's configuration.
type Mode int

const (
	ModeSimple Mode = iota
	ModeBulk
	ModeBatch
)

func (m Mode) String() string {
	switch m {
	case ModeBulk:
		return "bulk"
	case ModeBatch:
		return "batch"
	default:
		return "simple"
	}
}

// Period restricts a rule to an inclusive date range.
type Period struct {
	Start string
	End   string
}

// Bounds parses the period boundaries.
func (p Period) Bounds() (time.Time, time.Time, error) {
	start, err := time.ParseInLocation(PeriodLayout, strings.TrimSpace(p.Start), time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, &PeriodError{Field: "start", Value: p.Start, Err: err}
	}
	end, err := time.ParseInLocation(PeriodLayout, strings.TrimSpace(p.End), time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, &PeriodError{Field: "end", Value: p.End, Err: err}
	}
	return start, end, nil
}

// Contains reports whether now lies within [start, end].
func (p Period) Contains(now time.Time) (bool, error) {
	start, end, err := p.Bounds()
	if err != nil {
		return false, err
	}
	return !now.Before(start) && !now.After(end), nil
}

// Bulk is a threshold trigger: the rule applies once Qty units of SKU are present.
type Bulk struct {
	SKU pricing.SKU
	Qty int
}

// Batch is a repeating trigger: every complete group of Qty units of SKU earns the receive.
type Batch struct {
	SKU pricing.SKU
	Qty int
}

// Receive describes which items are discounted and how.
// A zero Qty means unset: unlimited in bulk mode, one unit per batch otherwise.
type Receive struct {
	SKU    pricing.SKU
	Qty    int
	Kind   Kind
	Amount pricing.Money
}

// ReceiveFromFields resolves the receive kind from optional amounts using the
// priority discount > fixed > percent > free.
func ReceiveFromFields(sku pricing.SKU, qty int, discount, fixed, percent *pricing.Money) Receive {
	r := Receive{SKU: sku, Qty: qty, Kind: KindFree}
	switch {
	case discount != nil:
		r.Kind, r.Amount = KindDiscount, *discount
	case fixed != nil:
		r.Kind, r.Amount = KindFixed, *fixed
	case percent != nil:
		r.Kind, r.Amount = KindPercent, *percent
	}
	return r
}

// Rule is a declarative promotion evaluated against an indexed cart.
type Rule struct {
	Name    string
	Period  *Period
	Bulk    *Bulk
	Batch   *Batch
	Receive Receive
}

// Mode reports the trigger strategy. A batch always wins over a bulk.
func (r Rule) Mode() Mode {
	switch {
	case r.Batch != nil:
		return ModeBatch
	case r.Bulk != nil:
		return ModeBulk
	default:
		return ModeSimple
	}
}

// Label returns the rule name or a description derived from its configuration.
func (r Rule) Label() string {
	if name := strings.TrimSpace(r.Name); name != "" {
		return name
	}
	return fmt.Sprintf("%s:%s:%s", r.Mode(), r.Receive.SKU, r.Receive.Kind)
}

// Applies reports whether the rule is active for the cart at the given instant.
// Period boundaries are parsed on every call; a malformed boundary is an error.
func (r Rule) Applies(cart IndexedCart, now time.Time) (bool, error) {
	if r.Period != nil {
		ok, err := r.Period.Contains(now)
		if err != nil || !ok {
			return false, err
		}
	}
	if r.Mode() != ModeBulk {
		return true, nil
	}
	return cart.Count(r.Bulk.SKU) >= r.Bulk.Qty, nil
}

// DiscountedItems returns the receive items the rule discounts, in scan order.
func (r Rule) DiscountedItems(cart IndexedCart) []pricing.Item {
	var count int
	switch r.Mode() {
	case ModeBulk:
		count = r.Receive.Qty
		if count <= 0 {
			count = cart.Count(r.Receive.SKU)
		}
	case ModeBatch:
		count = Batches(cart.Count(r.Batch.SKU), r.Batch.Qty) * receiveQty(r.Receive.Qty)
	default:
		count = receiveQty(r.Receive.Qty)
	}
	return cart.First(r.Receive.SKU, count)
}

// Calc returns the discount the rule yields for the cart. It does not check Applies.
func (r Rule) Calc(cart IndexedCart) pricing.Money {
	discounted := r.DiscountedItems(cart)
	if len(discounted) == 0 {
		return decimal.Zero
	}
	n := decimal.NewFromInt(int64(len(discounted)))
	switch r.Receive.Kind {
	case KindDiscount:
		return n.Mul(r.Receive.Amount)
	case KindFixed:
		return pricing.Sum(discounted).Sub(n.Mul(r.Receive.Amount))
	case KindPercent:
		// Returns the remaining charge rather than the amount saved; kept for
		// compatibility with existing rule sets.
		return pricing.Sum(discounted).Mul(decimal.NewFromInt(1).Sub(r.Receive.Amount))
	default:
		return pricing.Sum(discounted)
	}
}

// Batches returns the number of complete groups of size group within count.
// A non-positive group size counts as one.
func Batches(count, group int) int {
	if group <= 0 {
		group = 1
	}
	if count <= 0 {
		return 0
	}
	return count / group
}

func receiveQty(qty int) int {
	if qty <= 0 {
		return 1
	}
	return qty
}

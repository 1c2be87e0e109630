package checkout

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-promo/internal/pricing"
	"github.com/noah-isme/toko-promo/internal/promo"
)

// Observer receives evaluation outcomes, typically to feed metrics.
type Observer interface {
	ObserveRule(rule string, applied bool, discount pricing.Money)
	ObserveQuote(elapsed time.Duration, discount pricing.Money, err error)
}

// AppliedRule is one line of a summary: a rule that discounted the cart.
type AppliedRule struct {
	Name     string         `json:"name"`
	Discount pricing.Money  `json:"discount"`
	Items    []pricing.Item `json:"items"`
}

// Summary is the priced view of the cart.
type Summary struct {
	Items    []pricing.Item `json:"items"`
	Subtotal pricing.Money  `json:"subtotal"`
	Discount pricing.Money  `json:"discount"`
	Total    pricing.Money  `json:"total"`
	Applied  []AppliedRule  `json:"applied"`
}

// Checkout scans items and prices them against a fixed rule set.
// A Checkout is not safe for concurrent use.
type Checkout struct {
	rules    []promo.Rule
	cart     []pricing.Item
	now      func() time.Time
	logger   zerolog.Logger
	observer Observer
}

// Option customises a Checkout.
type Option func(*Checkout)

// WithClock overrides the clock used for rule periods.
func WithClock(now func() time.Time) Option {
	return func(c *Checkout) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger attaches a logger for rule evaluation tracing.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Checkout) { c.logger = logger }
}

// WithObserver attaches an evaluation observer.
func WithObserver(o Observer) Option {
	return func(c *Checkout) { c.observer = o }
}

// New creates a checkout with an empty cart.
func New(rules []promo.Rule, opts ...Option) *Checkout {
	c := &Checkout{
		rules:  append([]promo.Rule(nil), rules...),
		now:    time.Now,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Rules returns the configured rules.
func (c *Checkout) Rules() []promo.Rule {
	return append([]promo.Rule(nil), c.rules...)
}

// Scan adds an item to the cart.
func (c *Checkout) Scan(item pricing.Item) {
	c.cart = append(c.cart, item)
}

// Clear empties the cart.
func (c *Checkout) Clear() {
	c.cart = nil
}

// Items returns the scanned items in scan order.
func (c *Checkout) Items() []pricing.Item {
	return append([]pricing.Item(nil), c.cart...)
}

// Len returns the number of scanned items.
func (c *Checkout) Len() int { return len(c.cart) }

// Total returns the gross price minus the discount. An empty cart totals zero.
func (c *Checkout) Total() (pricing.Money, error) {
	if len(c.cart) == 0 {
		return decimal.Zero, nil
	}
	discount, err := c.Discount()
	if err != nil {
		return decimal.Zero, err
	}
	return pricing.Compute(c.cart, discount).Total, nil
}

// Discount sums the discount of every applicable rule against the current cart.
// Rules are independent; an item may be discounted by more than one rule.
func (c *Checkout) Discount() (pricing.Money, error) {
	applied, err := c.evaluate()
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, a := range applied {
		total = total.Add(a.Discount)
	}
	return total, nil
}

// Summary prices the cart and reports each rule that contributed a discount.
func (c *Checkout) Summary() (Summary, error) {
	applied, err := c.evaluate()
	if err != nil {
		return Summary{}, err
	}
	discount := decimal.Zero
	lines := make([]AppliedRule, 0, len(applied))
	for _, a := range applied {
		discount = discount.Add(a.Discount)
		if !a.Discount.IsZero() {
			lines = append(lines, a)
		}
	}
	computed := pricing.Compute(c.cart, discount)
	return Summary{
		Items:    c.Items(),
		Subtotal: computed.Subtotal,
		Discount: computed.Discount,
		Total:    computed.Total,
		Applied:  lines,
	}, nil
}

// evaluate runs every applicable rule over a fresh index of the cart. The first
// rule error aborts the evaluation.
func (c *Checkout) evaluate() (applied []AppliedRule, err error) {
	start := time.Now()
	defer func() {
		if c.observer == nil {
			return
		}
		discount := decimal.Zero
		for _, a := range applied {
			discount = discount.Add(a.Discount)
		}
		c.observer.ObserveQuote(time.Since(start), discount, err)
	}()

	cart := promo.Index(c.cart)
	now := c.now()
	for _, rule := range c.rules {
		name := rule.Label()
		ok, err := rule.Applies(cart, now)
		if err != nil {
			c.logger.Warn().Err(err).Str("rule", name).Msg("rule evaluation failed")
			return nil, fmt.Errorf("rule %q: %w", name, err)
		}
		if !ok {
			c.logger.Debug().Str("rule", name).Bool("applies", false).Msg("rule evaluated")
			c.observe(name, false, decimal.Zero)
			continue
		}
		amount := rule.Calc(cart)
		c.logger.Debug().
			Str("rule", name).
			Bool("applies", true).
			Str("discount", amount.String()).
			Msg("rule evaluated")
		c.observe(name, true, amount)
		applied = append(applied, AppliedRule{
			Name:     name,
			Discount: amount,
			Items:    rule.DiscountedItems(cart),
		})
	}
	return applied, nil
}

func (c *Checkout) observe(rule string, applied bool, discount pricing.Money) {
	if c.observer != nil {
		c.observer.ObserveRule(rule, applied, discount)
	}
}

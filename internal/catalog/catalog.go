package catalog

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/noah-isme/toko-promo/internal/pricing"
	"github.com/noah-isme/toko-promo/internal/promo"
)

// ErrUnknownSKU is returned when a SKU is not listed in the catalog.
var ErrUnknownSKU = errors.New("unknown sku")

// ErrInvalidCatalog wraps every validation failure of a catalog file.
var ErrInvalidCatalog = errors.New("invalid catalog")

type fileCatalog struct {
	Items []fileItem `yaml:"items" validate:"required,min=1,dive"`
	Rules []fileRule `yaml:"rules" validate:"dive"`
}

type fileItem struct {
	SKU   string `yaml:"sku" validate:"required"`
	Name  string `yaml:"name"`
	Price string `yaml:"price" validate:"required"`
}

type fileRule struct {
	Name    string       `yaml:"name"`
	Period  *filePeriod  `yaml:"period"`
	Bulk    *fileTrigger `yaml:"bulk"`
	Batch   *fileTrigger `yaml:"batch"`
	Receive *fileReceive `yaml:"receive" validate:"required"`
}

type filePeriod struct {
	Start string `yaml:"start" validate:"required"`
	End   string `yaml:"end" validate:"required"`
}

type fileTrigger struct {
	SKU string `yaml:"sku" validate:"required"`
	Qty int    `yaml:"qty" validate:"gte=0"`
}

// fileReceive accepts either one of discount/fixed/percent or an explicit
// kind with an amount. An omitted qty means unset; an explicit 0 is rejected.
type fileReceive struct {
	SKU      string  `yaml:"sku" validate:"required"`
	Qty      *int    `yaml:"qty" validate:"omitempty,gt=0"`
	Discount *string `yaml:"discount"`
	Fixed    *string `yaml:"fixed"`
	Percent  *string `yaml:"percent"`
	Kind     string  `yaml:"kind"`
	Amount   *string `yaml:"amount"`
}

// Catalog holds the sellable items and the pricing rules applied at checkout.
type Catalog struct {
	items map[pricing.SKU]pricing.Item
	order []pricing.SKU
	rules []promo.Rule
}

// New builds a catalog from already constructed items and rules.
func New(items []pricing.Item, rules []promo.Rule) (*Catalog, error) {
	c := &Catalog{items: make(map[pricing.SKU]pricing.Item, len(items))}
	for _, it := range items {
		if it.SKU == "" {
			return nil, fmt.Errorf("%w: item without sku", ErrInvalidCatalog)
		}
		if _, dup := c.items[it.SKU]; dup {
			return nil, fmt.Errorf("%w: duplicate sku %q", ErrInvalidCatalog, it.SKU)
		}
		if it.Price.IsNegative() {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidCatalog, it.SKU, pricing.ErrNegativePrice)
		}
		c.items[it.SKU] = it
		c.order = append(c.order, it.SKU)
	}
	for i, r := range rules {
		for _, sku := range ruleSKUs(r) {
			if _, ok := c.items[sku]; !ok {
				return nil, fmt.Errorf("%w: rule %d (%s): %w %q", ErrInvalidCatalog, i, r.Label(), ErrUnknownSKU, sku)
			}
		}
	}
	c.rules = append([]promo.Rule(nil), rules...)
	return c, nil
}

// Load reads and parses a YAML catalog file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse decodes a YAML catalog document.
func Parse(data []byte) (*Catalog, error) {
	var raw fileCatalog
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: decode yaml: %w", ErrInvalidCatalog, err)
	}
	if err := validator.New().Struct(raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
	}

	items := make([]pricing.Item, 0, len(raw.Items))
	for _, fi := range raw.Items {
		it, err := pricing.NewItem(fi.SKU, fi.Name, fi.Price)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
		}
		items = append(items, it)
	}

	rules := make([]promo.Rule, 0, len(raw.Rules))
	for i, fr := range raw.Rules {
		rule, err := fr.toRule()
		if err != nil {
			return nil, fmt.Errorf("%w: rule %d: %w", ErrInvalidCatalog, i, err)
		}
		rules = append(rules, rule)
	}
	return New(items, rules)
}

func (fr fileRule) toRule() (promo.Rule, error) {
	rule := promo.Rule{Name: strings.TrimSpace(fr.Name)}
	if fr.Period != nil {
		rule.Period = &promo.Period{Start: fr.Period.Start, End: fr.Period.End}
	}
	if fr.Bulk != nil {
		rule.Bulk = &promo.Bulk{SKU: pricing.SKU(strings.TrimSpace(fr.Bulk.SKU)), Qty: fr.Bulk.Qty}
	}
	if fr.Batch != nil {
		rule.Batch = &promo.Batch{SKU: pricing.SKU(strings.TrimSpace(fr.Batch.SKU)), Qty: fr.Batch.Qty}
	}
	receive, err := fr.Receive.toReceive()
	if err != nil {
		return promo.Rule{}, err
	}
	rule.Receive = receive
	return rule, nil
}

func (fr fileReceive) toReceive() (promo.Receive, error) {
	sku := pricing.SKU(strings.TrimSpace(fr.SKU))
	qty := 0
	if fr.Qty != nil {
		qty = *fr.Qty
	}
	if strings.TrimSpace(fr.Kind) != "" {
		return fr.explicitKind(sku, qty)
	}
	if fr.Amount != nil {
		return promo.Receive{}, errors.New("receive.amount requires receive.kind")
	}
	discount, err := optionalAmount("discount", fr.Discount)
	if err != nil {
		return promo.Receive{}, err
	}
	fixed, err := optionalAmount("fixed", fr.Fixed)
	if err != nil {
		return promo.Receive{}, err
	}
	percent, err := optionalAmount("percent", fr.Percent)
	if err != nil {
		return promo.Receive{}, err
	}
	return promo.ReceiveFromFields(sku, qty, discount, fixed, percent), nil
}

func (fr fileReceive) explicitKind(sku pricing.SKU, qty int) (promo.Receive, error) {
	if fr.Discount != nil || fr.Fixed != nil || fr.Percent != nil {
		return promo.Receive{}, errors.New("receive.kind cannot be combined with discount, fixed or percent")
	}
	kind, err := promo.ParseKind(fr.Kind)
	if err != nil {
		return promo.Receive{}, err
	}
	r := promo.Receive{SKU: sku, Qty: qty, Kind: kind}
	if kind == promo.KindFree {
		if fr.Amount != nil {
			return promo.Receive{}, errors.New("receive.amount is not used by kind free")
		}
		return r, nil
	}
	amount, err := optionalAmount("amount", fr.Amount)
	if err != nil {
		return promo.Receive{}, err
	}
	if amount == nil {
		return promo.Receive{}, fmt.Errorf("receive.amount is required for kind %s", kind)
	}
	r.Amount = *amount
	return r, nil
}

func optionalAmount(field string, value *string) (*pricing.Money, error) {
	if value == nil {
		return nil, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(*value))
	if err != nil {
		return nil, fmt.Errorf("receive.%s %q: %w", field, *value, err)
	}
	return &d, nil
}

func ruleSKUs(r promo.Rule) []pricing.SKU {
	skus := []pricing.SKU{r.Receive.SKU}
	if r.Bulk != nil {
		skus = append(skus, r.Bulk.SKU)
	}
	if r.Batch != nil {
		skus = append(skus, r.Batch.SKU)
	}
	return skus
}

// Lookup returns the item registered under sku.
func (c *Catalog) Lookup(sku string) (pricing.Item, error) {
	if c == nil {
		return pricing.Item{}, ErrUnknownSKU
	}
	it, ok := c.items[pricing.SKU(strings.TrimSpace(sku))]
	if !ok {
		return pricing.Item{}, fmt.Errorf("%w: %q", ErrUnknownSKU, sku)
	}
	return it, nil
}

// LookupAll resolves every sku in order, failing on the first unknown one.
func (c *Catalog) LookupAll(skus []string) ([]pricing.Item, error) {
	items := make([]pricing.Item, 0, len(skus))
	for _, sku := range skus {
		it, err := c.Lookup(sku)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, nil
}

// Items returns the catalog items in file order.
func (c *Catalog) Items() []pricing.Item {
	if c == nil {
		return nil
	}
	out := make([]pricing.Item, 0, len(c.order))
	for _, sku := range c.order {
		out = append(out, c.items[sku])
	}
	return out
}

// SKUs returns the registered SKUs sorted alphabetically.
func (c *Catalog) SKUs() []string {
	if c == nil {
		return nil
	}
	out := make([]string, 0, len(c.order))
	for _, sku := range c.order {
		out = append(out, string(sku))
	}
	sort.Strings(out)
	return out
}

// Rules returns the configured pricing rules in evaluation order.
func (c *Catalog) Rules() []promo.Rule {
	if c == nil {
		return nil
	}
	return append([]promo.Rule(nil), c.rules...)
}

// Check evaluates every rule against an empty cart so that malformed periods
// surface before the first checkout does.
func (c *Catalog) Check(now time.Time) error {
	var errs []error
	for _, r := range c.Rules() {
		if _, err := r.Applies(promo.IndexedCart{}, now); err != nil {
			errs = append(errs, fmt.Errorf("rule %q: %w", r.Label(), err))
		}
	}
	return errors.Join(errs...)
}

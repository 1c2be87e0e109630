package catalog

import (
	"net/http"

	"github.com/noah-isme/toko-promo/internal/common"
	"github.com/noah-isme/toko-promo/internal/promo"
)

// Handler exposes read-only catalog endpoints.
type Handler struct {
	catalog *Catalog
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Catalog *Catalog
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{catalog: cfg.Catalog}
}

// ProductView is the JSON shape of a catalog item.
type ProductView struct {
	SKU   string `json:"sku"`
	Name  string `json:"name"`
	Price string `json:"price"`
}

// RuleView is the JSON shape of a pricing rule.
type RuleView struct {
	Name    string       `json:"name"`
	Mode    string       `json:"mode"`
	Period  *periodView  `json:"period,omitempty"`
	Bulk    *triggerView `json:"bulk,omitempty"`
	Batch   *triggerView `json:"batch,omitempty"`
	Receive receiveView  `json:"receive"`
}

type periodView struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type triggerView struct {
	SKU string `json:"sku"`
	Qty int    `json:"qty"`
}

type receiveView struct {
	SKU    string `json:"sku"`
	Qty    int    `json:"qty,omitempty"`
	Kind   string `json:"kind"`
	Amount string `json:"amount,omitempty"`
}

// Products handles GET /api/v1/products.
func (h *Handler) Products(w http.ResponseWriter, _ *http.Request) {
	if h.catalog == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog not configured", nil)
		return
	}
	items := h.catalog.Items()
	out := make([]ProductView, 0, len(items))
	for _, it := range items {
		out = append(out, ProductView{SKU: string(it.SKU), Name: it.Name, Price: it.Price.StringFixed(2)})
	}
	common.Data(w, http.StatusOK, out)
}

// Rules handles GET /api/v1/rules.
func (h *Handler) Rules(w http.ResponseWriter, _ *http.Request) {
	if h.catalog == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog not configured", nil)
		return
	}
	rules := h.catalog.Rules()
	out := make([]RuleView, 0, len(rules))
	for _, r := range rules {
		out = append(out, NewRuleView(r))
	}
	common.Data(w, http.StatusOK, out)
}

// NewRuleView renders a rule for API responses.
func NewRuleView(r promo.Rule) RuleView {
	view := RuleView{
		Name: r.Label(),
		Mode: r.Mode().String(),
		Receive: receiveView{
			SKU:  string(r.Receive.SKU),
			Qty:  r.Receive.Qty,
			Kind: r.Receive.Kind.String(),
		},
	}
	if r.Receive.Kind != promo.KindFree {
		view.Receive.Amount = r.Receive.Amount.String()
	}
	if r.Period != nil {
		view.Period = &periodView{Start: r.Period.Start, End: r.Period.End}
	}
	if r.Bulk != nil {
		view.Bulk = &triggerView{SKU: string(r.Bulk.SKU), Qty: r.Bulk.Qty}
	}
	if r.Batch != nil {
		view.Batch = &triggerView{SKU: string(r.Batch.SKU), Qty: r.Batch.Qty}
	}
	return view
}

package checkout

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/toko-promo/internal/catalog"
	"github.com/noah-isme/toko-promo/internal/common"
	"github.com/noah-isme/toko-promo/internal/pricing"
	"github.com/noah-isme/toko-promo/internal/promo"
)

// Handler wires checkout sessions to HTTP.
type Handler struct {
	Sessions *Sessions
	Catalog  *catalog.Catalog
}

type scanRequest struct {
	SKU  string   `json:"sku"`
	SKUs []string `json:"skus"`
}

func (p scanRequest) list() []string {
	out := make([]string, 0, len(p.SKUs)+1)
	if sku := strings.TrimSpace(p.SKU); sku != "" {
		out = append(out, sku)
	}
	for _, sku := range p.SKUs {
		if trimmed := strings.TrimSpace(sku); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

type lineView struct {
	SKU   string `json:"sku"`
	Name  string `json:"name"`
	Price string `json:"price"`
}

type appliedView struct {
	Name     string   `json:"name"`
	Discount string   `json:"discount"`
	SKUs     []string `json:"skus"`
}

// SummaryView is the JSON shape of a priced cart.
type SummaryView struct {
	ID       string        `json:"id,omitempty"`
	Items    []lineView    `json:"items"`
	Subtotal string        `json:"subtotal"`
	Discount string        `json:"discount"`
	Total    string        `json:"total"`
	Applied  []appliedView `json:"applied"`
}

func newSummaryView(id string, s Summary) SummaryView {
	view := SummaryView{
		ID:       id,
		Items:    make([]lineView, 0, len(s.Items)),
		Subtotal: s.Subtotal.StringFixed(2),
		Discount: s.Discount.StringFixed(2),
		Total:    s.Total.StringFixed(2),
		Applied:  make([]appliedView, 0, len(s.Applied)),
	}
	for _, it := range s.Items {
		view.Items = append(view.Items, lineView{SKU: string(it.SKU), Name: it.Name, Price: it.Price.StringFixed(2)})
	}
	for _, a := range s.Applied {
		skus := make([]string, 0, len(a.Items))
		for _, it := range a.Items {
			skus = append(skus, string(it.SKU))
		}
		view.Applied = append(view.Applied, appliedView{Name: a.Name, Discount: a.Discount.StringFixed(2), SKUs: skus})
	}
	return view
}

func (h *Handler) ready(w http.ResponseWriter) bool {
	if h.Sessions == nil || h.Catalog == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "checkout service not configured", nil)
		return false
	}
	return true
}

// Create handles POST /api/v1/checkouts.
func (h *Handler) Create(w http.ResponseWriter, _ *http.Request) {
	if !h.ready(w) {
		return
	}
	id := h.Sessions.Create()
	common.Data(w, http.StatusCreated, map[string]string{"id": id})
}

// Get handles GET /api/v1/checkouts/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id := chi.URLParam(r, "id")
	var summary Summary
	err := h.Sessions.With(id, func(c *Checkout) error {
		var err error
		summary, err = c.Summary()
		return err
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, newSummaryView(id, summary))
}

// Scan handles POST /api/v1/checkouts/{id}/scan.
func (h *Handler) Scan(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id := chi.URLParam(r, "id")
	var payload scanRequest
	if err := common.DecodeJSON(r, &payload); err != nil {
		h.writeError(w, err)
		return
	}
	skus := payload.list()
	if len(skus) == 0 {
		h.writeError(w, common.BadRequest("sku or skus is required", nil))
		return
	}
	items, err := h.Catalog.LookupAll(skus)
	if err != nil {
		h.writeError(w, err)
		return
	}
	var summary Summary
	err = h.Sessions.With(id, func(c *Checkout) error {
		for _, it := range items {
			c.Scan(it)
		}
		var err error
		summary, err = c.Summary()
		return err
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, newSummaryView(id, summary))
}

// Clear handles DELETE /api/v1/checkouts/{id}/items.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id := chi.URLParam(r, "id")
	err := h.Sessions.With(id, func(c *Checkout) error {
		c.Clear()
		return nil
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /api/v1/checkouts/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	if !h.Sessions.Delete(chi.URLParam(r, "id")) {
		h.writeError(w, ErrSessionNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Quote handles POST /api/v1/quote: prices a list of SKUs without a session.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var payload scanRequest
	if err := common.DecodeJSON(r, &payload); err != nil {
		h.writeError(w, err)
		return
	}
	items, err := h.Catalog.LookupAll(payload.list())
	if err != nil {
		h.writeError(w, err)
		return
	}
	summary, err := Quote(h.Sessions.Fresh(), items)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, newSummaryView("", summary))
}

// Quote scans items into c and returns its summary.
func Quote(c *Checkout, items []pricing.Item) (Summary, error) {
	for _, it := range items {
		c.Scan(it)
	}
	return c.Summary()
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if err == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unknown error", nil)
		return
	}
	if common.WriteAppError(w, err) {
		return
	}
	switch {
	case errors.Is(err, ErrSessionNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "checkout not found", nil)
	case errors.Is(err, catalog.ErrUnknownSKU):
		common.JSONError(w, http.StatusUnprocessableEntity, "UNKNOWN_SKU", err.Error(), nil)
	case errors.Is(err, promo.ErrInvalidPeriod):
		common.JSONError(w, http.StatusInternalServerError, "RULE_ERROR", err.Error(), nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to price checkout", nil)
	}
}

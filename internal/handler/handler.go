// Package handler is the HTTP boundary: it decodes and validates request
// payloads into typed domain inputs, delegates to the order service, and maps
// domain errors onto status codes. All JSON responses are encoded with jx.
package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/vitrina/storefront/internal/domain/order"
	"github.com/vitrina/storefront/internal/domain/product"
	"github.com/vitrina/storefront/internal/domain/shop"
)

// Handler serves the public storefront API.
type Handler struct {
	shops    shop.Repository
	products product.Repository
	orders   *order.Service
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(shops shop.Repository, products product.Repository, orders *order.Service) *Handler {
	return &Handler{
		shops:    shops,
		products: products,
		orders:   orders,
	}
}

// shopBySlug resolves the {slug} path segment to a shop record.
func (h *Handler) shopBySlug(r *http.Request) (*shop.Shop, error) {
	return h.shops.GetBySlug(r.Context(), r.PathValue("slug"))
}

// Register mounts all routes on the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/shops/{slug}/orders", h.placeOrder)
	mux.HandleFunc("PATCH /api/orders/{id}/status", h.updateOrderStatus)
	mux.HandleFunc("GET /api/shops/{slug}/products", h.listProducts)
}

// writeJSON writes a jx-encoded object with the given status code.
func writeJSON(w http.ResponseWriter, status int, obj func(e *jx.Encoder)) {
	var e jx.Encoder
	e.Obj(obj)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// writeError writes the standard {code, message} error body.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.Field("code", func(e *jx.Encoder) { e.Int(status) })
		e.Field("message", func(e *jx.Encoder) { e.Str(message) })
	})
}

package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/vitrina/storefront/internal/domain/shop"
)

// listProducts serves a shop's public catalog. Prices are emitted as raw
// JSON numbers from their decimal representation, never through a float.
func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	sh, err := h.shopBySlug(r)
	if err != nil {
		if errors.Is(err, shop.ErrNotFound) {
			writeError(w, http.StatusNotFound, "shop not found")
			return
		}
		zctx.From(r.Context()).Error("Shop lookup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "catalog unavailable, please try again")
		return
	}

	products, err := h.products.ListByShop(r.Context(), sh.ID)
	if err != nil {
		zctx.From(r.Context()).Error("Catalog listing failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "catalog unavailable, please try again")
		return
	}

	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("shop", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("slug", func(e *jx.Encoder) { e.Str(sh.Slug) })
				e.Field("name", func(e *jx.Encoder) { e.Str(sh.Name) })
				e.Field("whatsappNumber", func(e *jx.Encoder) { e.Str(sh.WhatsAppNumber) })
			})
		})
		e.Field("products", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, p := range products {
					e.Obj(func(e *jx.Encoder) {
						e.Field("id", func(e *jx.Encoder) { e.Str(p.ID) })
						e.Field("name", func(e *jx.Encoder) { e.Str(p.Name) })
						e.Field("price", func(e *jx.Encoder) { e.RawStr(p.Price.String()) })
						e.Field("stockCount", func(e *jx.Encoder) { e.Int(p.StockCount) })
					})
				}
			})
		})
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(e.Bytes())
}

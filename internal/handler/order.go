package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/vitrina/storefront/internal/domain/order"
	"github.com/vitrina/storefront/internal/domain/shop"
)

// placeOrderRequest is the checkout payload. Items carry product IDs and
// quantities only; any price a client smuggles in is ignored by decoding.
type placeOrderRequest struct {
	Customer struct {
		Name    string `json:"name"`
		Phone   string `json:"phone"`
		City    string `json:"city"`
		Address string `json:"address"`
	} `json:"customer"`
	Items []struct {
		ProductID string `json:"productId"`
		Quantity  int    `json:"quantity"`
	} `json:"items"`
	CouponCode string `json:"couponCode"`
}

// Validate checks boundary-level constraints. Catalog and stock validation
// belong to the domain; this only rejects requests that are malformed on
// their face.
func (r *placeOrderRequest) Validate() error {
	if r.Customer.Name == "" {
		return errors.New("customer.name is required")
	}
	if r.Customer.Phone == "" {
		return errors.New("customer.phone is required")
	}
	for i, it := range r.Items {
		if it.ProductID == "" {
			return errors.Errorf("items[%d].productId is required", i)
		}
	}
	return nil
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	lines := make([]order.CartLine, len(req.Items))
	for i, it := range req.Items {
		lines[i] = order.CartLine{ProductID: it.ProductID, Quantity: it.Quantity}
	}

	o, err := h.orders.PlaceOrder(r.Context(), order.PlaceOrderRequest{
		ShopSlug: r.PathValue("slug"),
		Customer: order.Customer{
			Name:    req.Customer.Name,
			Phone:   req.Customer.Phone,
			City:    req.Customer.City,
			Address: req.Customer.Address,
		},
		Lines:          lines,
		CouponCode:     req.CouponCode,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	})
	if err != nil {
		writePlaceOrderError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		e.Field("orderId", func(e *jx.Encoder) { e.Str(o.ID) })
		e.Field("status", func(e *jx.Encoder) { e.Str(string(o.Status)) })
		e.Field("totalAmount", func(e *jx.Encoder) { e.RawStr(o.TotalAmount.String()) })
		e.Field("discountAmount", func(e *jx.Encoder) { e.RawStr(o.DiscountAmount.String()) })
		if o.CouponCode != "" {
			e.Field("couponCode", func(e *jx.Encoder) { e.Str(o.CouponCode) })
		}
		e.Field("createdAt", func(e *jx.Encoder) { e.Str(o.CreatedAt.UTC().Format(time.RFC3339)) })
	})
}

// writePlaceOrderError maps checkout pipeline errors onto status codes. The
// validation family is actionable by the customer (edit the cart, retry
// later); anything else is a generic retryable 500.
func writePlaceOrderError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, shop.ErrNotFound):
		writeError(w, http.StatusNotFound, "shop not found")
	case errors.Is(err, order.ErrShopClosed):
		writeError(w, http.StatusConflict, "shop is not accepting orders right now")
	case errors.Is(err, order.ErrDuplicateRequest):
		writeError(w, http.StatusConflict, "this order was already submitted")
	case errors.Is(err, order.ErrEmptyCart):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		var (
			notFound    *order.ProductsNotFoundError
			unavailable *order.ProductUnavailableError
			badQty      *order.InvalidQuantityError
			noStock     *order.InsufficientStockError
		)
		switch {
		case errors.As(err, &notFound),
			errors.As(err, &unavailable),
			errors.As(err, &badQty),
			errors.As(err, &noStock):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			zctx.From(r.Context()).Error("Order placement failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "order could not be saved, please try again")
		}
	}
}

// updateStatusRequest is the order status transition payload.
type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	// The upstream auth layer resolves the owner's session to their shop and
	// forwards it here. Ownership of the order is still checked against it.
	callerShopID := r.Header.Get("X-Shop-ID")
	if callerShopID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	next, ok := order.ParseStatus(req.Status)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown status: "+req.Status)
		return
	}

	err := h.orders.UpdateStatus(r.Context(), r.PathValue("id"), next, callerShopID)
	if err != nil {
		var badTransition *order.InvalidTransitionError
		switch {
		case errors.Is(err, order.ErrNotFound):
			writeError(w, http.StatusNotFound, "order not found")
		case errors.Is(err, order.ErrUnauthorized):
			// Deliberately indistinguishable from a missing order: owners of
			// other shops learn nothing about foreign order IDs.
			writeError(w, http.StatusNotFound, "order not found")
		case errors.As(err, &badTransition):
			writeError(w, http.StatusConflict, err.Error())
		default:
			zctx.From(r.Context()).Error("Status update failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "status could not be updated, please try again")
		}
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Field("ok", func(e *jx.Encoder) { e.Bool(true) })
		e.Field("status", func(e *jx.Encoder) { e.Str(string(next)) })
	})
}

package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitrina/storefront/internal/domain/coupon"
	"github.com/vitrina/storefront/internal/domain/order"
	"github.com/vitrina/storefront/internal/domain/product"
	"github.com/vitrina/storefront/internal/domain/shop"
)

// --- In-memory backends ---

type memShopRepo struct {
	shops map[string]*shop.Shop
}

func (m *memShopRepo) GetBySlug(_ context.Context, slug string) (*shop.Shop, error) {
	sh, ok := m.shops[slug]
	if !ok {
		return nil, shop.ErrNotFound
	}
	return sh, nil
}

type memProductRepo struct {
	byID map[string]*product.Product
}

func (m *memProductRepo) ListByShop(_ context.Context, shopID string) ([]product.Product, error) {
	var out []product.Product
	for _, p := range m.byID {
		if p.ShopID == shopID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memProductRepo) GetByIDs(_ context.Context, shopID string, ids []string) ([]product.Product, error) {
	var out []product.Product
	for _, id := range ids {
		if p, ok := m.byID[id]; ok && p.ShopID == shopID {
			out = append(out, *p)
		}
	}
	return out, nil
}

type memCouponResolver struct {
	applied coupon.Applied
}

func (m *memCouponResolver) Resolve(_ context.Context, _, code string, _ decimal.Decimal) (coupon.Applied, error) {
	if code == "" {
		return coupon.Applied{}, nil
	}
	return m.applied, nil
}

type memOrderRepo struct {
	products *memProductRepo
	orders   map[string]*order.Order
}

func (m *memOrderRepo) Create(_ context.Context, o *order.Order) error {
	for _, it := range o.Items {
		p, ok := m.products.byID[it.ProductID]
		if !ok || it.Quantity > p.StockCount {
			return &order.InsufficientStockError{ProductID: it.ProductID, Name: it.Name, Requested: it.Quantity}
		}
	}
	for _, it := range o.Items {
		m.products.byID[it.ProductID].StockCount -= it.Quantity
	}
	cp := *o
	m.orders[o.ID] = &cp
	return nil
}

func (m *memOrderRepo) GetByID(_ context.Context, id string) (*order.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *memOrderRepo) UpdateStatus(_ context.Context, id string, status order.Status) error {
	o, ok := m.orders[id]
	if !ok {
		return order.ErrNotFound
	}
	o.Status = status
	return nil
}

func (m *memOrderRepo) Cancel(_ context.Context, o *order.Order) error {
	stored, ok := m.orders[o.ID]
	if !ok {
		return order.ErrNotFound
	}
	if stored.Status == order.StatusCancelled {
		return nil
	}
	stored.Status = order.StatusCancelled
	for _, it := range o.Items {
		if p, exists := m.products.byID[it.ProductID]; exists {
			p.StockCount += it.Quantity
		}
	}
	return nil
}

// --- Environment ---

type testEnv struct {
	mux      *http.ServeMux
	products *memProductRepo
	orders   *memOrderRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	shops := &memShopRepo{shops: map[string]*shop.Shop{
		"grill": {
			ID:             "s1",
			Slug:           "grill",
			Name:           "Grill House",
			WhatsAppNumber: "+966500000000",
			IsOpen:         true,
			AutoClose:      true,
			OpeningTime:    "09:00",
			ClosingTime:    "21:00",
		},
	}}
	products := &memProductRepo{byID: map[string]*product.Product{
		"A": {ID: "A", ShopID: "s1", Name: "Kebab", Price: decimal.RequireFromString("100"), StockCount: 5},
		"B": {ID: "B", ShopID: "s1", Name: "Shawarma", Price: decimal.RequireFromString("25.50"), StockCount: 2},
	}}
	orders := &memOrderRepo{products: products, orders: make(map[string]*order.Order)}
	resolver := &memCouponResolver{applied: coupon.Applied{
		CouponID: "c1", Code: "WELCOME10", Amount: decimal.RequireFromString("20"),
	}}

	noon := func() time.Time {
		return time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)
	}
	svc := order.NewService(shops, products, resolver, orders, time.UTC, order.WithClock(noon))

	mux := http.NewServeMux()
	NewHandler(shops, products, svc).Register(mux)

	return &testEnv{mux: mux, products: products, orders: orders}
}

func (env *testEnv) do(method, target, body string, header map[string]string) *httptest.ResponseRecorder {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	for k, v := range header {
		r.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	env.mux.ServeHTTP(w, r)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]json.RawMessage {
	t.Helper()
	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), "body: %s", w.Body.String())
	return body
}

func rawStr(t *testing.T, raw json.RawMessage) string {
	t.Helper()
	var s string
	require.NoError(t, json.Unmarshal(raw, &s))
	return s
}

const validOrderBody = `{
	"customer": {"name": "Sara", "phone": "+966501112222", "city": "Riyadh", "address": "King Fahd Rd"},
	"items": [{"productId": "A", "quantity": 2}]
}`

// --- Order placement ---

func TestPlaceOrder_Created(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/shops/grill/orders", validOrderBody, nil)

	require.Equal(t, http.StatusCreated, w.Code, "body: %s", w.Body.String())
	body := decodeBody(t, w)
	assert.NotEmpty(t, rawStr(t, body["orderId"]))
	assert.Equal(t, "placed", rawStr(t, body["status"]))
	assert.Equal(t, "200", string(body["totalAmount"]), "price emitted as a JSON number")
	assert.Equal(t, "0", string(body["discountAmount"]))
	assert.NotContains(t, body, "couponCode")
	assert.Equal(t, 3, env.products.byID["A"].StockCount)
}

func TestPlaceOrder_WithCoupon(t *testing.T) {
	env := newTestEnv(t)

	body := `{
		"customer": {"name": "Sara", "phone": "+966501112222"},
		"items": [{"productId": "A", "quantity": 2}],
		"couponCode": "WELCOME10"
	}`
	w := env.do(http.MethodPost, "/api/shops/grill/orders", body, nil)

	require.Equal(t, http.StatusCreated, w.Code, "body: %s", w.Body.String())
	resp := decodeBody(t, w)
	assert.Equal(t, "180", string(resp["totalAmount"]))
	assert.Equal(t, "20", string(resp["discountAmount"]))
	assert.Equal(t, "WELCOME10", rawStr(t, resp["couponCode"]))
}

func TestPlaceOrder_ClientPriceIgnored(t *testing.T) {
	env := newTestEnv(t)

	// A smuggled price field is not part of the payload schema and is dropped.
	body := `{
		"customer": {"name": "Sara", "phone": "+966501112222"},
		"items": [{"productId": "A", "quantity": 1, "price": "0.01"}]
	}`
	w := env.do(http.MethodPost, "/api/shops/grill/orders", body, nil)

	require.Equal(t, http.StatusCreated, w.Code, "body: %s", w.Body.String())
	resp := decodeBody(t, w)
	assert.Equal(t, "100", string(resp["totalAmount"]), "catalog price wins")
}

func TestPlaceOrder_InvalidJSON(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/shops/grill/orders", `{not json`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPlaceOrder_MissingCustomerName(t *testing.T) {
	env := newTestEnv(t)

	body := `{"customer": {"phone": "+966501112222"}, "items": [{"productId": "A", "quantity": 1}]}`
	w := env.do(http.MethodPost, "/api/shops/grill/orders", body, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeBody(t, w)
	assert.Contains(t, rawStr(t, resp["message"]), "customer.name")
}

func TestPlaceOrder_UnknownShop(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/shops/nope/orders", validOrderBody, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	env := newTestEnv(t)

	body := `{"customer": {"name": "Sara", "phone": "+966501112222"}, "items": []}`
	w := env.do(http.MethodPost, "/api/shops/grill/orders", body, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPlaceOrder_UnknownProduct(t *testing.T) {
	env := newTestEnv(t)

	body := `{"customer": {"name": "Sara", "phone": "+966501112222"}, "items": [{"productId": "ghost", "quantity": 1}]}`
	w := env.do(http.MethodPost, "/api/shops/grill/orders", body, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestPlaceOrder_InsufficientStock(t *testing.T) {
	env := newTestEnv(t)

	body := `{"customer": {"name": "Sara", "phone": "+966501112222"}, "items": [{"productId": "B", "quantity": 3}]}`
	w := env.do(http.MethodPost, "/api/shops/grill/orders", body, nil)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	resp := decodeBody(t, w)
	assert.Contains(t, rawStr(t, resp["message"]), "Shawarma")
	assert.Equal(t, 2, env.products.byID["B"].StockCount, "no stock mutation")
}

// --- Status updates ---

func placeOrderForTest(t *testing.T, env *testEnv) string {
	t.Helper()
	w := env.do(http.MethodPost, "/api/shops/grill/orders", validOrderBody, nil)
	require.Equal(t, http.StatusCreated, w.Code, "body: %s", w.Body.String())
	return rawStr(t, decodeBody(t, w)["orderId"])
}

func TestUpdateOrderStatus_Confirm(t *testing.T) {
	env := newTestEnv(t)
	id := placeOrderForTest(t, env)

	w := env.do(http.MethodPatch, "/api/orders/"+id+"/status",
		`{"status": "confirmed"}`, map[string]string{"X-Shop-ID": "s1"})

	require.Equal(t, http.StatusOK, w.Code, "body: %s", w.Body.String())
	resp := decodeBody(t, w)
	assert.Equal(t, "true", string(resp["ok"]))
	assert.Equal(t, "confirmed", rawStr(t, resp["status"]))
}

func TestUpdateOrderStatus_CancelRestocks(t *testing.T) {
	env := newTestEnv(t)
	id := placeOrderForTest(t, env)
	require.Equal(t, 3, env.products.byID["A"].StockCount)

	w := env.do(http.MethodPatch, "/api/orders/"+id+"/status",
		`{"status": "cancelled"}`, map[string]string{"X-Shop-ID": "s1"})

	require.Equal(t, http.StatusOK, w.Code, "body: %s", w.Body.String())
	assert.Equal(t, 5, env.products.byID["A"].StockCount)
}

func TestUpdateOrderStatus_MissingAuth(t *testing.T) {
	env := newTestEnv(t)
	id := placeOrderForTest(t, env)

	w := env.do(http.MethodPatch, "/api/orders/"+id+"/status", `{"status": "confirmed"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUpdateOrderStatus_ForeignShopSeesNotFound(t *testing.T) {
	env := newTestEnv(t)
	id := placeOrderForTest(t, env)

	w := env.do(http.MethodPatch, "/api/orders/"+id+"/status",
		`{"status": "cancelled"}`, map[string]string{"X-Shop-ID": "someone-else"})

	// Same response as a genuinely missing order.
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 3, env.products.byID["A"].StockCount, "no restock")
}

func TestUpdateOrderStatus_UnknownOrder(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPatch, "/api/orders/ghost/status",
		`{"status": "cancelled"}`, map[string]string{"X-Shop-ID": "s1"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateOrderStatus_UnknownStatus(t *testing.T) {
	env := newTestEnv(t)
	id := placeOrderForTest(t, env)

	w := env.do(http.MethodPatch, "/api/orders/"+id+"/status",
		`{"status": "shipped"}`, map[string]string{"X-Shop-ID": "s1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateOrderStatus_IllegalTransition(t *testing.T) {
	env := newTestEnv(t)
	id := placeOrderForTest(t, env)

	w := env.do(http.MethodPatch, "/api/orders/"+id+"/status",
		`{"status": "delivered"}`, map[string]string{"X-Shop-ID": "s1"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

// --- Catalog ---

func TestListProducts(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/api/shops/grill/products", "", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp struct {
		Shop struct {
			Slug           string `json:"slug"`
			Name           string `json:"name"`
			WhatsAppNumber string `json:"whatsappNumber"`
		} `json:"shop"`
		Products []struct {
			ID         string          `json:"id"`
			Name       string          `json:"name"`
			Price      decimal.Decimal `json:"price"`
			StockCount int             `json:"stockCount"`
		} `json:"products"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "body: %s", w.Body.String())
	assert.Equal(t, "grill", resp.Shop.Slug)
	assert.Equal(t, "+966500000000", resp.Shop.WhatsAppNumber)
	assert.Len(t, resp.Products, 2)
}

func TestListProducts_UnknownShop(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/api/shops/nope/products", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

package httppresentation

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appauth "shopd/internal/application/auth"
	appcart "shopd/internal/application/cart"
	appcheckout "shopd/internal/application/checkout"
	"shopd/internal/domain/product"
	"shopd/internal/infrastructure/id"
	"shopd/internal/infrastructure/memory"
	"shopd/internal/infrastructure/stripe"
	"shopd/internal/rbac"
)

type testServer struct {
	*httptest.Server
	store *memory.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store := memory.NewStore()
	ids := id.NewUUIDGenerator()
	carts := appcart.NewService(store, store, nil, ids)
	checkouts := appcheckout.NewService(store, store, store, carts, stripe.NewStubGateway(), ids, nil,
		appcheckout.Config{
			SuccessURL: "http://localhost/checkout/success",
			CancelURL:  "http://localhost/checkout/cancel",
			Pricing: appcheckout.PricingConfig{
				ShippingFee:     2,
				TaxRate:         0.4,
				DiscountPercent: 2,
			},
			LowStockThreshold: 5,
		}, nil)
	auth := appauth.NewService(store, carts, ids, "test-secret", time.Hour)

	handler := NewHandler(carts, checkouts, auth, store, rbac.New(),
		appcheckout.PricingConfig{ShippingFee: 2, TaxRate: 0.4, DiscountPercent: 2},
		zap.NewNop())

	srv := httptest.NewServer(handler.Router(RouterConfig{}))
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, store: store}
}

func (s *testServer) seedProduct(t *testing.T, id string, price float64, stock int) {
	t.Helper()
	p, err := product.New(id, "product "+id, price, stock)
	require.NoError(t, err)
	require.NoError(t, s.store.Save(context.Background(), p))
}

type request struct {
	method    string
	path      string
	token     string
	sessionID string
	body      any
}

func (s *testServer) do(t *testing.T, req request) (int, map[string]any) {
	t.Helper()

	var payload *bytes.Buffer = bytes.NewBuffer(nil)
	if req.body != nil {
		require.NoError(t, json.NewEncoder(payload).Encode(req.body))
	}

	httpReq, err := http.NewRequest(req.method, s.URL+req.path, payload)
	require.NoError(t, err)
	httpReq.Header.Set("Content-Type", "application/json")
	if req.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.token)
	}
	if req.sessionID != "" {
		httpReq.Header.Set(headerSessionID, req.sessionID)
	}

	resp, err := http.DefaultClient.Do(httpReq)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp.StatusCode, decoded
}

func (s *testServer) registerUser(t *testing.T, name, email string) string {
	t.Helper()
	status, body := s.do(t, request{method: http.MethodPost, path: "/register", body: map[string]string{
		"name": name, "email": email, "password": "hunter22",
	}})
	require.Equal(t, http.StatusCreated, status)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	status, body := srv.do(t, request{method: http.MethodGet, path: "/health"})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["message"])
}

func TestAnonymousCartFlow(t *testing.T) {
	srv := newTestServer(t)
	srv.seedProduct(t, "p1", 20.00, 10)

	status, body := srv.do(t, request{method: http.MethodPost, path: "/cart/add", body: map[string]any{
		"product_id": "p1", "quantity": 3,
	}})
	require.Equal(t, http.StatusOK, status)
	sessionID, _ := body["session_id"].(string)
	require.NotEmpty(t, sessionID, "anonymous add must hand back a session token")

	status, body = srv.do(t, request{method: http.MethodGet, path: "/cart/items", sessionID: sessionID})
	require.Equal(t, http.StatusOK, status)

	items, _ := body["items"].([]any)
	require.Len(t, items, 1)

	totals, _ := body["totals"].(map[string]any)
	require.NotNil(t, totals)
	assert.InDelta(t, 84.32, totals["total_price"], 1e-9)
	assert.InDelta(t, 3, totals["total_quantity"], 1e-9)
}

func TestCartAddErrors(t *testing.T) {
	srv := newTestServer(t)
	srv.seedProduct(t, "p1", 20.00, 2)

	status, body := srv.do(t, request{method: http.MethodPost, path: "/cart/add", body: map[string]any{
		"product_id": "missing", "quantity": 1,
	}})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, kindNotFound, body["error"])

	status, body = srv.do(t, request{method: http.MethodPost, path: "/cart/add", body: map[string]any{
		"product_id": "p1", "quantity": 3,
	}})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, kindQuantityExceedsStock, body["error"])

	status, body = srv.do(t, request{method: http.MethodPost, path: "/cart/add", body: map[string]any{
		"product_id": "p1", "quantity": 0,
	}})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, kindValidationFailed, body["error"])
}

func TestCartRemoveUnknownLine(t *testing.T) {
	srv := newTestServer(t)

	status, body := srv.do(t, request{method: http.MethodDelete, path: "/cart/remove/nope"})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, kindNotFound, body["error"])
}

func TestCheckoutRequiresAuth(t *testing.T) {
	srv := newTestServer(t)

	status, body := srv.do(t, request{method: http.MethodPost, path: "/checkout"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, kindUnauthorized, body["error"])
}

func TestCheckoutEmptyCart(t *testing.T) {
	srv := newTestServer(t)
	token := srv.registerUser(t, "alice", "alice@example.com")

	status, body := srv.do(t, request{method: http.MethodPost, path: "/checkout", token: token})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, kindEmptyCart, body["error"])
}

func TestCheckoutEndToEnd(t *testing.T) {
	srv := newTestServer(t)
	srv.seedProduct(t, "p1", 20.00, 10)
	token := srv.registerUser(t, "alice", "alice@example.com")

	status, _ := srv.do(t, request{method: http.MethodPost, path: "/cart/add", token: token, body: map[string]any{
		"product_id": "p1", "quantity": 3,
	}})
	require.Equal(t, http.StatusOK, status)

	status, body := srv.do(t, request{method: http.MethodPost, path: "/checkout", token: token})
	require.Equal(t, http.StatusCreated, status)
	sessionID, _ := body["session_id"].(string)
	require.NotEmpty(t, sessionID)
	assert.NotEmpty(t, body["url"])
	assert.InDelta(t, 84.32, body["total"], 1e-9)

	status, body = srv.do(t, request{method: http.MethodGet, path: "/checkout/success?session_id=" + sessionID})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "payment successful", body["message"])
	assert.Equal(t, "in_process", body["status"])

	// Stock dropped and the cart is empty.
	p, err := srv.store.Get(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 7, p.Stock)

	status, body = srv.do(t, request{method: http.MethodGet, path: "/cart/items", token: token})
	require.Equal(t, http.StatusOK, status)
	items, _ := body["items"].([]any)
	assert.Empty(t, items)
}

func TestCheckoutSuccessRequiresSessionID(t *testing.T) {
	srv := newTestServer(t)

	status, body := srv.do(t, request{method: http.MethodGet, path: "/checkout/success"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, kindValidationFailed, body["error"])
}

func TestLoginMergesAnonymousCart(t *testing.T) {
	srv := newTestServer(t)
	srv.seedProduct(t, "p1", 20.00, 10)
	srv.registerUser(t, "alice", "alice@example.com")

	status, body := srv.do(t, request{method: http.MethodPost, path: "/cart/add", body: map[string]any{
		"product_id": "p1", "quantity": 2,
	}})
	require.Equal(t, http.StatusOK, status)
	sessionID, _ := body["session_id"].(string)

	status, body = srv.do(t, request{method: http.MethodPost, path: "/login", body: map[string]string{
		"email": "alice@example.com", "password": "hunter22", "session_id": sessionID,
	}})
	require.Equal(t, http.StatusOK, status)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)

	status, body = srv.do(t, request{method: http.MethodGet, path: "/cart/items", token: token})
	require.Equal(t, http.StatusOK, status)
	items, _ := body["items"].([]any)
	require.Len(t, items, 1, "the anonymous cart follows the user through login")

	status, body = srv.do(t, request{method: http.MethodGet, path: "/cart/items", sessionID: sessionID})
	require.Equal(t, http.StatusOK, status)
	items, _ = body["items"].([]any)
	assert.Empty(t, items)
}

func TestAdminEndpointsAreGated(t *testing.T) {
	srv := newTestServer(t)
	adminToken := srv.registerUser(t, "alice", "alice@example.com") // first user: super admin
	clientToken := srv.registerUser(t, "bob", "bob@example.com")

	status, _ := srv.do(t, request{method: http.MethodGet, path: "/admin/orders"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body := srv.do(t, request{method: http.MethodGet, path: "/admin/orders", token: clientToken})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, kindForbidden, body["error"])

	status, body = srv.do(t, request{method: http.MethodGet, path: "/admin/orders", token: adminToken})
	assert.Equal(t, http.StatusOK, status)
	assert.InDelta(t, 0, body["total"], 1e-9)
}

func TestAdminOrderLifecycle(t *testing.T) {
	srv := newTestServer(t)
	srv.seedProduct(t, "p1", 20.00, 10)
	adminToken := srv.registerUser(t, "alice", "alice@example.com")

	status, _ := srv.do(t, request{method: http.MethodPost, path: "/cart/add", token: adminToken, body: map[string]any{
		"product_id": "p1", "quantity": 1,
	}})
	require.Equal(t, http.StatusOK, status)
	status, body := srv.do(t, request{method: http.MethodPost, path: "/checkout", token: adminToken})
	require.Equal(t, http.StatusCreated, status)
	orderID, _ := body["order_id"].(string)
	require.NotEmpty(t, orderID)

	status, body = srv.do(t, request{method: http.MethodGet, path: "/admin/orders/" + orderID, token: adminToken})
	require.Equal(t, http.StatusOK, status)

	status, body = srv.do(t, request{method: http.MethodPut, path: "/admin/orders/" + orderID + "/status",
		token: adminToken, body: map[string]string{"status": "shipped"}})
	require.Equal(t, http.StatusOK, status)

	status, body = srv.do(t, request{method: http.MethodDelete, path: "/admin/orders/" + orderID, token: adminToken})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "cannot cancel an order that has shipped", body["message"])

	status, body = srv.do(t, request{method: http.MethodPut, path: "/admin/orders/" + orderID + "/status",
		token: adminToken, body: map[string]string{"status": "bogus"}})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, kindValidationFailed, body["error"])
}

func TestAdminCancelTwice(t *testing.T) {
	srv := newTestServer(t)
	srv.seedProduct(t, "p1", 20.00, 10)
	adminToken := srv.registerUser(t, "alice", "alice@example.com")

	status, _ := srv.do(t, request{method: http.MethodPost, path: "/cart/add", token: adminToken, body: map[string]any{
		"product_id": "p1", "quantity": 1,
	}})
	require.Equal(t, http.StatusOK, status)
	status, body := srv.do(t, request{method: http.MethodPost, path: "/checkout", token: adminToken})
	require.Equal(t, http.StatusCreated, status)
	orderID, _ := body["order_id"].(string)

	status, body = srv.do(t, request{method: http.MethodDelete, path: "/admin/orders/" + orderID, token: adminToken})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "order cancelled successfully", body["message"])

	status, body = srv.do(t, request{method: http.MethodDelete, path: "/admin/orders/" + orderID, token: adminToken})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "order already cancelled", body["message"])
}

func TestAdminSaveProduct(t *testing.T) {
	srv := newTestServer(t)
	adminToken := srv.registerUser(t, "alice", "alice@example.com")

	status, _ := srv.do(t, request{method: http.MethodPost, path: "/admin/products", token: adminToken, body: map[string]any{
		"id": "p9", "name": "new widget", "price": 9.99, "stock": 4,
	}})
	require.Equal(t, http.StatusCreated, status)

	status, body := srv.do(t, request{method: http.MethodGet, path: "/products"})
	require.Equal(t, http.StatusOK, status)
	products, _ := body["products"].([]any)
	require.Len(t, products, 1)
}

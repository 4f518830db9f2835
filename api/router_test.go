package api_test

import (
	"commerce_server/api"
	"commerce_server/config"
	"commerce_server/repository/memory"
	"commerce_server/services"
	"commerce_server/structs/tables"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pinger struct{ err error }

func (p pinger) PingContext(ctx context.Context) error { return p.err }

type testServer struct {
	router chi.Router
	store  *memory.Store
}

func newTestServer(t *testing.T, db pinger) *testServer {
	t.Helper()

	cfg := config.Load()
	cfg.Auth.TokenSecret = "test-secret"
	store := memory.NewStore()
	registry := prometheus.NewRegistry()
	sm := services.NewServiceManager(config.NewLogger(false), cfg, store, db, nil, registry)

	return &testServer{router: api.App(cfg, sm, registry), store: store}
}

type response struct {
	Code int
	Body map[string]any
	Raw  string
}

func (ts *testServer) do(t *testing.T, method, path, token, body string) response {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)

	res := response{Code: rec.Code, Raw: rec.Body.String()}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res.Body), res.Raw)
	}
	return res
}

// register creates a user and returns its token
func (ts *testServer) register(t *testing.T, email string) string {
	t.Helper()
	res := ts.do(t, http.MethodPost, "/register", "",
		fmt.Sprintf(`{"name":"Tester","email":%q,"password":"secret1","password_confirmation":"secret1"}`, email))
	require.Equal(t, http.StatusCreated, res.Code, res.Raw)
	return res.Body["token"].(string)
}

func (ts *testServer) createProduct(t *testing.T, token, name, price string) string {
	t.Helper()
	res := ts.do(t, http.MethodPost, "/products", token,
		fmt.Sprintf(`{"name":%q,"description":"desc","price":%s,"stock":10}`, name, price))
	require.Equal(t, http.StatusCreated, res.Code, res.Raw)
	return res.Body["product"].(map[string]any)["id"].(string)
}

func (ts *testServer) placeOrder(t *testing.T, token, productID string, qty int) map[string]any {
	t.Helper()
	res := ts.do(t, http.MethodPost, "/orders", token,
		fmt.Sprintf(`{"client_name":"Jane","client_phone":"0600000000","order_lines":[{"id":%q,"quantity":%d}]}`, productID, qty))
	require.Equal(t, http.StatusCreated, res.Code, res.Raw)
	return res.Body["order"].(map[string]any)
}

func errorsOf(t *testing.T, res response) map[string]any {
	t.Helper()
	errs, ok := res.Body["errors"].(map[string]any)
	require.True(t, ok, res.Raw)
	return errs
}

func TestApp_RootAndUnknownRoute(t *testing.T) {
	ts := newTestServer(t, pinger{})

	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/", "", "").Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/nowhere", "", "").Code)
}

func TestApp_Health(t *testing.T) {
	ts := newTestServer(t, pinger{})
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/health/server", "", "").Code)
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/health/database", "", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, ts.do(t, http.MethodGet, "/health/cache", "", "").Code)

	down := newTestServer(t, pinger{err: errors.New("connection refused")})
	assert.Equal(t, http.StatusServiceUnavailable, down.do(t, http.MethodGet, "/health/database", "", "").Code)
}

func TestApp_SecurityHeaders(t *testing.T) {
	ts := newTestServer(t, pinger{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestApp_BodyLimit(t *testing.T) {
	ts := newTestServer(t, pinger{})
	token := ts.register(t, "jane@example.com")

	huge := fmt.Sprintf(`{"name":%q,"description":"d","price":1,"stock":1}`, strings.Repeat("x", 2<<20))
	res := ts.do(t, http.MethodPost, "/products", token, huge)

	assert.Equal(t, http.StatusUnprocessableEntity, res.Code)
	assert.Contains(t, errorsOf(t, res), "body")
}

func TestAuth_RegisterValidation(t *testing.T) {
	ts := newTestServer(t, pinger{})

	res := ts.do(t, http.MethodPost, "/register", "",
		`{"name":"X","email":"not-an-email","password":"secret1","password_confirmation":"other"}`)

	assert.Equal(t, http.StatusUnprocessableEntity, res.Code)
	errs := errorsOf(t, res)
	assert.Contains(t, errs, "email")
	assert.Equal(t, []any{"The password field confirmation does not match."}, errs["password"])

	ts.register(t, "taken@example.com")
	res = ts.do(t, http.MethodPost, "/register", "",
		`{"name":"X","email":"taken@example.com","password":"secret1","password_confirmation":"secret1"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, res.Code)
	assert.Equal(t, []any{"The email has already been taken."}, errorsOf(t, res)["email"])
}

func TestAuth_SessionLifecycle(t *testing.T) {
	ts := newTestServer(t, pinger{})
	token := ts.register(t, "jane@example.com")

	res := ts.do(t, http.MethodGet, "/user", token, "")
	require.Equal(t, http.StatusOK, res.Code, res.Raw)
	assert.Equal(t, "jane@example.com", res.Body["user"].(map[string]any)["email"])
	assert.NotContains(t, res.Raw, "password")

	res = ts.do(t, http.MethodPost, "/login", "", `{"email":"jane@example.com","password":"secret1"}`)
	require.Equal(t, http.StatusOK, res.Code, res.Raw)
	second := res.Body["token"].(string)

	res = ts.do(t, http.MethodPost, "/logout", second, "")
	assert.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "Logged out successfully.", res.Body["message"])

	for _, tok := range []string{token, second} {
		res = ts.do(t, http.MethodGet, "/user", tok, "")
		assert.Equal(t, http.StatusUnauthorized, res.Code)
		assert.Equal(t, "Unauthenticated.", res.Body["message"])
	}

	res = ts.do(t, http.MethodGet, "/user", "", "")
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestAuth_LoginFailure(t *testing.T) {
	ts := newTestServer(t, pinger{})
	ts.register(t, "jane@example.com")

	wrong := ts.do(t, http.MethodPost, "/login", "", `{"email":"jane@example.com","password":"nope"}`)
	unknown := ts.do(t, http.MethodPost, "/login", "", `{"email":"ghost@example.com","password":"nope"}`)

	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, wrong.Body, unknown.Body)
	assert.Equal(t, []any{"The provided credentials are incorrect."}, errorsOf(t, wrong)["email"])
}

func TestProducts_RequireAuthentication(t *testing.T) {
	ts := newTestServer(t, pinger{})

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/products"},
		{http.MethodPost, "/products"},
		{http.MethodGet, "/orders"},
		{http.MethodDelete, "/orders/" + uuid.NewString()},
	} {
		res := ts.do(t, route.method, route.path, "", "")
		assert.Equal(t, http.StatusUnauthorized, res.Code, route.path)
	}
}

func TestProducts_CRUD(t *testing.T) {
	ts := newTestServer(t, pinger{})
	token := ts.register(t, "jane@example.com")

	res := ts.do(t, http.MethodPost, "/products", token, `{"name":"Lamp","price":"abc"}`)
	require.Equal(t, http.StatusUnprocessableEntity, res.Code)
	errs := errorsOf(t, res)
	assert.Equal(t, []any{"The price field must be a number."}, errs["price"])
	assert.Contains(t, errs, "description")
	assert.Contains(t, errs, "stock")

	id := ts.createProduct(t, token, "Lamp", "30.5")

	res = ts.do(t, http.MethodGet, "/products/"+id, token, "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "30.5", res.Body["product"].(map[string]any)["price"])

	res = ts.do(t, http.MethodPut, "/products/"+id, token, `{"name":"Desk Lamp"}`)
	require.Equal(t, http.StatusOK, res.Code, res.Raw)
	assert.Equal(t, "Desk Lamp", res.Body["product"].(map[string]any)["name"])
	assert.Equal(t, float64(10), res.Body["product"].(map[string]any)["stock"])

	ts.createProduct(t, token, "Chair", "12")
	res = ts.do(t, http.MethodGet, "/products?search=lamp", token, "")
	require.Equal(t, http.StatusOK, res.Code)
	page := res.Body["products"].(map[string]any)
	assert.Equal(t, float64(1), page["total"])
	assert.Len(t, page["data"], 1)

	res = ts.do(t, http.MethodGet, "/products?page=x", token, "")
	assert.Equal(t, http.StatusUnprocessableEntity, res.Code)

	res = ts.do(t, http.MethodDelete, "/products/"+id, token, "")
	assert.Equal(t, http.StatusOK, res.Code)

	res = ts.do(t, http.MethodGet, "/products/"+id, token, "")
	assert.Equal(t, http.StatusNotFound, res.Code)
	assert.Equal(t, "Product not found.", res.Body["message"])

	res = ts.do(t, http.MethodGet, "/products/not-a-uuid", token, "")
	assert.Equal(t, http.StatusNotFound, res.Code)
}

func TestOrders_Place(t *testing.T) {
	ts := newTestServer(t, pinger{})
	token := ts.register(t, "jane@example.com")
	productID := ts.createProduct(t, token, "Laptop", `"1200.99"`)

	res := ts.do(t, http.MethodPost, "/orders", token,
		fmt.Sprintf(`{"client_name":"Jane","client_phone":"0600000000","order_lines":[{"id":%q,"quantity":1},{"id":%q,"quantity":1}]}`,
			productID, uuid.NewString()))
	require.Equal(t, http.StatusUnprocessableEntity, res.Code, res.Raw)
	assert.Equal(t, []any{"The selected order_lines.1.id is invalid."}, errorsOf(t, res)["order_lines.1.id"])
	orders, lines := ts.store.Counts()
	assert.Zero(t, orders)
	assert.Zero(t, lines)

	order := ts.placeOrder(t, token, productID, 2)
	assert.Equal(t, "2401.98", order["total_price"])
	assert.Equal(t, "pending", order["status"])
	orderLines := order["order_lines"].([]any)
	require.Len(t, orderLines, 1)
	assert.Equal(t, "1200.99", orderLines[0].(map[string]any)["unit_price"])
	assert.Equal(t, "Laptop", orderLines[0].(map[string]any)["product"].(map[string]any)["name"])

	res = ts.do(t, http.MethodGet, "/orders/"+order["id"].(string), token, "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, order["id"], res.Body["order"].(map[string]any)["id"])

	res = ts.do(t, http.MethodGet, "/orders?client_name=jan", token, "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "Order list", res.Body["message"])
	assert.Equal(t, float64(1), res.Body["orders"].(map[string]any)["total"])
}

func TestOrders_AmendCheckOrder(t *testing.T) {
	ts := newTestServer(t, pinger{})
	owner := ts.register(t, "owner@example.com")
	other := ts.register(t, "other@example.com")
	productID := ts.createProduct(t, owner, "Pen", "2.50")
	order := ts.placeOrder(t, owner, productID, 2)
	orderID := order["id"].(string)
	invalid := `{"client_name":""}`

	res := ts.do(t, http.MethodPut, "/orders/"+uuid.NewString(), owner, invalid)
	assert.Equal(t, http.StatusNotFound, res.Code)
	assert.Equal(t, "Order not found.", res.Body["message"])

	res = ts.do(t, http.MethodPut, "/orders/"+orderID, other, invalid)
	assert.Equal(t, http.StatusForbidden, res.Code)
	assert.Equal(t, "You are not allowed to update this order.", res.Body["message"])

	res = ts.do(t, http.MethodPut, "/orders/"+orderID, owner, invalid)
	assert.Equal(t, http.StatusUnprocessableEntity, res.Code)
	assert.Contains(t, errorsOf(t, res), "client_name")

	res = ts.do(t, http.MethodPut, "/orders/"+orderID, owner,
		fmt.Sprintf(`{"client_phone":"0700000000","order_lines":[{"id":%q,"quantity":5}]}`, productID))
	require.Equal(t, http.StatusOK, res.Code, res.Raw)
	amended := res.Body["order"].(map[string]any)
	assert.Equal(t, "12.5", amended["total_price"])
	assert.Equal(t, "Jane", amended["client_name"])
	assert.Equal(t, "0700000000", amended["client_phone"])
	assert.Len(t, amended["order_lines"], 1)

	require.NoError(t, ts.store.SetStatus(uuid.MustParse(orderID), tables.OrderStatusPaid))
	res = ts.do(t, http.MethodPut, "/orders/"+orderID, owner, invalid)
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "Cannot update a paid order.", res.Body["message"])

	require.NoError(t, ts.store.SetStatus(uuid.MustParse(orderID), tables.OrderStatusDelivered))
	res = ts.do(t, http.MethodPut, "/orders/"+orderID, owner, `{"client_name":"Fine"}`)
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "Cannot update a delivered order.", res.Body["message"])
}

func TestOrders_Delete(t *testing.T) {
	ts := newTestServer(t, pinger{})
	owner := ts.register(t, "owner@example.com")
	other := ts.register(t, "other@example.com")
	productID := ts.createProduct(t, owner, "Pen", "2.50")
	orderID := ts.placeOrder(t, owner, productID, 1)["id"].(string)

	res := ts.do(t, http.MethodDelete, "/orders/"+orderID, other, "")
	assert.Equal(t, http.StatusForbidden, res.Code)
	assert.Equal(t, "You are not allowed to delete this order.", res.Body["message"])

	res = ts.do(t, http.MethodDelete, "/orders/"+orderID, owner, "")
	assert.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "Order deleted successfully.", res.Body["message"])

	res = ts.do(t, http.MethodDelete, "/orders/"+orderID, owner, "")
	assert.Equal(t, http.StatusNotFound, res.Code)

	orders, lines := ts.store.Counts()
	assert.Zero(t, orders)
	assert.Zero(t, lines)
}

func TestApp_MetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, pinger{})
	token := ts.register(t, "jane@example.com")
	productID := ts.createProduct(t, token, "Pen", "1")
	ts.placeOrder(t, token, productID, 1)

	res := ts.do(t, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Raw, "api_orders_placed_total 1")
	assert.Regexp(t, `api_http_requests_total\{method="POST",route="/orders/?",status="201"\} 1`, res.Raw)
}

package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Skotchmaster/ecoshop/internal/events"
	"github.com/Skotchmaster/ecoshop/internal/metrics"
	"github.com/Skotchmaster/ecoshop/internal/middleware/auth"
	"github.com/Skotchmaster/ecoshop/internal/models"
	"github.com/Skotchmaster/ecoshop/internal/repo"
	"github.com/Skotchmaster/ecoshop/internal/repo/repotest"
	"github.com/Skotchmaster/ecoshop/internal/revocation"
	"github.com/Skotchmaster/ecoshop/internal/service"
	"github.com/Skotchmaster/ecoshop/internal/tokens"
	"github.com/Skotchmaster/ecoshop/pkg/hash"
)

type testApp struct {
	t      *testing.T
	e      *echo.Echo
	store  *repo.GormRepo
	tokens *tokens.Service
	users  *service.UserService
	events *events.Recorder
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	store := repotest.NewSQLite(t)
	tokenSvc := tokens.NewService([]byte("test-jwt-secret"))
	revoked := revocation.NewMemory()
	rec := &events.Recorder{}

	users := &service.UserService{
		Repo:    store,
		Hasher:  hash.NewHasher(bcrypt.MinCost),
		Tokens:  tokenSvc,
		Revoked: revoked,
		Events:  rec,
	}

	e := echo.New()
	m := metrics.New("ecoshop_test")
	e.Use(m.Middleware())
	Register(e, &Deps{
		Users:    &UsersHTTP{Svc: users},
		Products: &ProductsHTTP{Svc: &service.ProductService{Repo: store, Events: rec}},
		Orders:   &OrdersHTTP{Svc: &service.OrderService{Repo: store, Events: rec}},
		Auth:     auth.New(tokenSvc, revoked),
		Store:    store,
		Metrics:  m,
	})

	return &testApp{t: t, e: e, store: store, tokens: tokenSvc, users: users, events: rec}
}

func (a *testApp) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(a.t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (a *testApp) register(username, email, password string) uuid.UUID {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/api/users/register", "", map[string]string{
		"username": username, "email": email, "password": password,
	})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode[map[string]any](a.t, rec)
	id, err := uuid.Parse(body["userId"].(string))
	require.NoError(a.t, err)
	return id
}

func (a *testApp) login(email, password string) string {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/api/users/login", "", map[string]string{"email": email, "password": password})
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[map[string]any](a.t, rec)["token"].(string)
}

func (a *testApp) adminToken() string {
	a.t.Helper()
	_, err := a.users.EnsureAdmin(context.Background(), "root", "root@x.com", "rootpw")
	require.NoError(a.t, err)
	return a.login("root@x.com", "rootpw")
}

func (a *testApp) createProduct(token, name string, price float64) uuid.UUID {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/api/products", token, map[string]any{"name": name, "price": price, "stock": 5})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	p := decode[models.Product](a.t, rec)
	return p.ID
}

func TestRegisterLoginProfile(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)

	rec := app.do(http.MethodPost, "/api/users/register", "", map[string]string{
		"username": "alice", "email": "a@x.com", "password": "pw123",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	reg := decode[map[string]any](t, rec)
	assert.Equal(t, "User registered successfully", reg["message"])
	assert.NotEmpty(t, reg["userId"])

	token := app.login("a@x.com", "pw123")
	require.NotEmpty(t, token)

	rec = app.do(http.MethodGet, "/api/users/profile", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	profile := decode[map[string]any](t, rec)
	assert.Equal(t, "alice", profile["username"])
	assert.Equal(t, reg["userId"], profile["id"])
	assert.NotContains(t, profile, "password")
	assert.NotContains(t, profile, "PasswordHash")
	assert.NotContains(t, rec.Body.String(), "$2a$")
}

func TestRegister_DuplicateEmailAndValidation(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	app.register("alice", "a@x.com", "pw123")

	rec := app.do(http.MethodPost, "/api/users/register", "", map[string]string{
		"username": "alice2", "email": "a@x.com", "password": "pw999",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"user already exists"}`, rec.Body.String())

	rec = app.do(http.MethodPost, "/api/users/register", "", map[string]string{"username": "x", "email": "nope", "password": "pw123"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "email")

	rec = app.do(http.MethodPost, "/api/users/register", "", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = app.do(http.MethodGet, "/api/users", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[map[string]any](t, rec)
	assert.Equal(t, "all users", list["message"])
	assert.Len(t, list["data"], 1)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	app.register("alice", "a@x.com", "pw123")

	rec := app.do(http.MethodPost, "/api/users/login", "", map[string]string{"email": "a@x.com", "password": "nope!"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"message":"invalid credentials"}`, rec.Body.String())

	rec = app.do(http.MethodPost, "/api/users/login", "", map[string]string{"email": "ghost@x.com", "password": "pw123"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProfile_TokenProblems(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	id := app.register("alice", "a@x.com", "pw123")

	expired, err := app.tokens.WithClock(func() time.Time { return time.Now().Add(-3 * time.Hour) }).Issue(id, models.RoleCustomer)
	require.NoError(t, err)

	rec := app.do(http.MethodGet, "/api/users/profile", expired.Value, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"message":"token expired"}`, rec.Body.String())

	rec = app.do(http.MethodGet, "/api/users/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"message":"missing or malformed token"}`, rec.Body.String())

	rec = app.do(http.MethodGet, "/api/users/profile", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"message":"invalid token"}`, rec.Body.String())
}

func TestLogout_RevokesToken(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	app.register("alice", "a@x.com", "pw123")
	token := app.login("a@x.com", "pw123")

	rec := app.do(http.MethodPost, "/api/users/logout", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"logged out"}`, rec.Body.String())

	rec = app.do(http.MethodGet, "/api/users/profile", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"message":"token revoked"}`, rec.Body.String())

	fresh := app.login("a@x.com", "pw123")
	rec = app.do(http.MethodGet, "/api/users/profile", fresh, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProducts_AdminGateAndRoundTrip(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	app.register("alice", "a@x.com", "pw123")
	customer := app.login("a@x.com", "pw123")
	admin := app.adminToken()

	rec := app.do(http.MethodPost, "/api/products", customer, map[string]any{"name": "Mug", "price": 4.5})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"message":"admin access required"}`, rec.Body.String())

	rec = app.do(http.MethodPost, "/api/products", "", map[string]any{"name": "Mug", "price": 4.5})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = app.do(http.MethodGet, "/api/products", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	id := app.createProduct(admin, "Mug", 4.5)

	rec = app.do(http.MethodGet, "/api/products/"+id.String(), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	p := decode[models.Product](t, rec)
	assert.Equal(t, "Mug", p.Name)
	assert.Equal(t, 4.5, p.Price)

	rec = app.do(http.MethodPut, "/api/products/"+id.String(), admin, map[string]any{"price": 5.25})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	p = decode[models.Product](t, rec)
	assert.Equal(t, 5.25, p.Price)
	assert.Equal(t, "Mug", p.Name)
	assert.Equal(t, 5, p.Stock)

	rec = app.do(http.MethodPut, "/api/products/"+id.String(), admin, map[string]any{"price": -1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = app.do(http.MethodPost, "/api/products", admin, map[string]any{"price": 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = app.do(http.MethodDelete, "/api/products/"+id.String(), admin, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = app.do(http.MethodGet, "/api/products/"+id.String(), "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"message":"product not found"}`, rec.Body.String())

	rec = app.do(http.MethodDelete, "/api/products/"+id.String(), admin, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = app.do(http.MethodGet, "/api/products/not-a-uuid", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, []string{"user.registered", "product.created", "product.updated", "product.deleted"}, app.events.Types())
}

func TestOrders_LifecycleAndEnrichment(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	app.register("alice", "a@x.com", "pw123")
	alice := app.login("a@x.com", "pw123")
	app.register("bob", "b@x.com", "pw123")
	bob := app.login("b@x.com", "pw123")
	admin := app.adminToken()

	mug := app.createProduct(admin, "Mug", 4.5)
	pen := app.createProduct(admin, "Pen", 1.25)

	rec := app.do(http.MethodPost, "/api/orders", alice, map[string]any{
		"items": []map[string]any{
			{"product_id": mug, "quantity": 2},
			{"product_id": pen, "quantity": 1},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[map[string]any](t, rec)
	orderID := created["id"].(string)
	assert.Equal(t, 10.25, created["total_price"])
	assert.Equal(t, "pending", created["status"])
	assert.Equal(t, "alice", created["user"].(map[string]any)["username"])

	rec = app.do(http.MethodGet, "/api/orders/"+orderID, alice, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = app.do(http.MethodGet, "/api/orders/"+orderID, bob, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = app.do(http.MethodGet, "/api/orders", alice, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = app.do(http.MethodPut, "/api/orders/"+orderID, alice, map[string]any{"status": "shipped"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = app.do(http.MethodPut, "/api/orders/"+orderID, admin, map[string]any{"status": "shipped"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "shipped", decode[map[string]any](t, rec)["status"])

	rec = app.do(http.MethodPut, "/api/orders/"+orderID, admin, map[string]any{"status": "teleported"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = app.do(http.MethodDelete, "/api/products/"+mug.String(), admin, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = app.do(http.MethodGet, "/api/orders", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]map[string]any](t, rec)
	require.Len(t, list, 1)
	items := list[0]["items"].([]any)
	require.Len(t, items, 2)
	first := items[0].(map[string]any)
	assert.Equal(t, mug.String(), first["product_id"])
	assert.Nil(t, first["product"])
	second := items[1].(map[string]any)
	assert.Equal(t, "Pen", second["product"].(map[string]any)["name"])

	rec = app.do(http.MethodGet, "/api/orders/"+uuid.NewString(), admin, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOrders_CreateValidation(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	app.register("alice", "a@x.com", "pw123")
	alice := app.login("a@x.com", "pw123")
	admin := app.adminToken()
	mug := app.createProduct(admin, "Mug", 4.5)

	tests := []struct {
		name string
		body any
	}{
		{name: "no items", body: map[string]any{"items": []any{}}},
		{name: "zero quantity", body: map[string]any{"items": []map[string]any{{"product_id": mug, "quantity": 0}}}},
		{name: "total mismatch", body: map[string]any{"items": []map[string]any{{"product_id": mug, "quantity": 1}}, "total_price": 99}},
	}
	for _, tt := range tests {
		rec := app.do(http.MethodPost, "/api/orders", alice, tt.body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, tt.name)
	}

	rec := app.do(http.MethodPost, "/api/orders", "", map[string]any{"items": []map[string]any{{"product_id": mug, "quantity": 1}}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOrders_CreateWithDeletedProductEnrichesNull(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	app.register("alice", "a@x.com", "pw123")
	alice := app.login("a@x.com", "pw123")
	admin := app.adminToken()

	mug := app.createProduct(admin, "Mug", 4.5)
	pen := app.createProduct(admin, "Pen", 1.25)

	rec := app.do(http.MethodDelete, "/api/products/"+mug.String(), admin, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = app.do(http.MethodPost, "/api/orders", alice, map[string]any{
		"items": []map[string]any{
			{"product_id": mug, "quantity": 1},
			{"product_id": pen, "quantity": 2},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[map[string]any](t, rec)
	assert.Equal(t, 2.5, created["total_price"])

	rec = app.do(http.MethodGet, "/api/orders/"+created["id"].(string), alice, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[map[string]any](t, rec)
	items := got["items"].([]any)
	require.Len(t, items, 2)
	first := items[0].(map[string]any)
	assert.Equal(t, mug.String(), first["product_id"])
	assert.Contains(t, first, "product")
	assert.Nil(t, first["product"])
	assert.Equal(t, "Pen", items[1].(map[string]any)["product"].(map[string]any)["name"])
}

func TestAdminGate_RejectedMutationsLeaveStateUnchanged(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	app.register("alice", "a@x.com", "pw123")
	alice := app.login("a@x.com", "pw123")
	admin := app.adminToken()

	mug := app.createProduct(admin, "Mug", 4.5)
	productPath := "/api/products/" + mug.String()

	rec := app.do(http.MethodPut, productPath, alice, map[string]any{"name": "Cup", "price": 99})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = app.do(http.MethodDelete, productPath, alice, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = app.do(http.MethodGet, productPath, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	p := decode[models.Product](t, rec)
	assert.Equal(t, "Mug", p.Name)
	assert.Equal(t, 4.5, p.Price)

	rec = app.do(http.MethodPost, "/api/orders", alice, map[string]any{
		"items": []map[string]any{{"product_id": mug, "quantity": 1}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	orderPath := "/api/orders/" + decode[map[string]any](t, rec)["id"].(string)

	rec = app.do(http.MethodPut, orderPath, alice, map[string]any{
		"status": "delivered",
		"items":  []map[string]any{{"product_id": mug, "quantity": 7}},
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = app.do(http.MethodGet, orderPath, alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	order := decode[map[string]any](t, rec)
	assert.Equal(t, "pending", order["status"])
	assert.Equal(t, 4.5, order["total_price"])
	items := order["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, float64(1), items[0].(map[string]any)["quantity"])

	assert.Equal(t, []string{"user.registered", "product.created", "order.created"}, app.events.Types())
}

func TestHealthAndMetrics(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)

	rec := app.do(http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = app.do(http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	app.do(http.MethodGet, "/api/products", "", nil)
	rec = app.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `ecoshop_test_http_requests_total{method="GET",path="/api/products",status="200"} 1`)

	sqlDB, err := app.store.DB.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())
	rec = app.do(http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

package app_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"shoporder/internal/app"
	"shoporder/internal/config"
	"shoporder/internal/domain/model"
	"shoporder/internal/infra/db/dbtest"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Error   string            `json:"error"`
	Errors  map[string]string `json:"errors"`
}

type testApp struct {
	h  http.Handler
	db *gorm.DB
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	db := dbtest.NewSQLite(t)

	//終日営業にしておく
	require.NoError(t, db.Create(&model.ShopInfo{
		ID:           model.ShopInfoID,
		Name:         "test shop",
		OpeningHours: "00:00-00:00",
		IsOpen:       true,
	}).Error)

	cfg := config.Config{
		App:  config.AppConfig{Env: config.AppEnvDev, BaseURL: "http://localhost:8080", Timezone: "UTC"},
		JWT:  config.JWTConfig{Secret: "integration-secret", AccessTTL: time.Hour},
		HTTP: config.HTTPConfig{CORSOrigins: []string{"*"}},
	}
	srv, err := app.Build(app.Options{
		Config:     cfg,
		DB:         db,
		Registry:   prometheus.NewRegistry(),
		BcryptCost: 4,
	})
	require.NoError(t, err)
	return &testApp{h: srv.Handler(), db: db}
}

func (a *testApp) do(t *testing.T, method, path, token string, body any, headers map[string]string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	a.h.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 && rec.Header().Get("Content-Type") != "" {
		_ = json.Unmarshal(rec.Body.Bytes(), &env)
	}
	return rec, env
}

func (a *testApp) registerAndLogin(t *testing.T, email string, role model.Role) string {
	t.Helper()
	rec, _ := a.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"email": email, "password": "Tr1cky-Latte!",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	if role != model.RoleUser {
		require.NoError(t, a.db.Model(&model.User{}).Where("email = ?", email).Update("role", role).Error)
	}

	rec, env := a.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email": email, "password": "Tr1cky-Latte!",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out struct {
		Token struct {
			AccessToken string `json:"access_token"`
		} `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &out))
	require.NotEmpty(t, out.Token.AccessToken)
	return out.Token.AccessToken
}

func (a *testApp) seedProduct(t *testing.T, stock int64) model.Product {
	t.Helper()
	p := model.Product{Name: "latte", Price: decimal.RequireFromString("4.50"), StockQuantity: stock, IsAvailable: true}
	require.NoError(t, a.db.Create(&p).Error)
	return p
}

func (a *testApp) stock(t *testing.T, id int64) int64 {
	t.Helper()
	var p model.Product
	require.NoError(t, a.db.First(&p, id).Error)
	return p.StockQuantity
}

type orderData struct {
	Order struct {
		ID          int64           `json:"id"`
		OrderNumber string          `json:"order_number"`
		Status      string          `json:"status"`
		TotalAmount decimal.Decimal `json:"total_amount"`
		PickupCode  *string         `json:"pickup_code"`
	} `json:"order"`
}

func TestHealthz(t *testing.T) {
	a := newTestApp(t)
	rec, _ := a.do(t, http.MethodGet, "/healthz", "", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestOrdersRequireToken(t *testing.T) {
	a := newTestApp(t)
	rec, env := a.do(t, http.MethodGet, "/orders", "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, env.Success)
}

func TestUnknownRouteUsesEnvelope(t *testing.T) {
	a := newTestApp(t)
	rec, env := a.do(t, http.MethodGet, "/nope", "", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, env.Success)
	assert.NotEmpty(t, env.Message)
}

func TestOrderLifecycle_CreateIdempotentCancel(t *testing.T) {
	a := newTestApp(t)
	token := a.registerAndLogin(t, "guest@example.com", model.RoleUser)
	p := a.seedProduct(t, 5)

	body := map[string]any{
		"order_type": "pickup",
		"items":      []map[string]any{{"product_id": p.ID, "quantity": 2}},
	}
	hdr := map[string]string{"X-Idempotency-Key": "checkout-1"}

	rec, env := a.do(t, http.MethodPost, "/orders", token, body, hdr)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.True(t, env.Success)

	var first orderData
	require.NoError(t, json.Unmarshal(env.Data, &first))
	assert.Equal(t, "pending", first.Order.Status)
	assert.True(t, first.Order.TotalAmount.Equal(decimal.NewFromInt(9)))
	assert.Regexp(t, `^ORD\d{12}$`, first.Order.OrderNumber)
	require.NotNil(t, first.Order.PickupCode)
	assert.EqualValues(t, 3, a.stock(t, p.ID))

	//同じキーの再送は同じ注文を返し在庫は動かない
	rec, env = a.do(t, http.MethodPost, "/orders", token, body, hdr)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var again orderData
	require.NoError(t, json.Unmarshal(env.Data, &again))
	assert.Equal(t, first.Order.ID, again.Order.ID)
	assert.EqualValues(t, 3, a.stock(t, p.ID))

	path := "/orders/" + jsonID(first.Order.ID) + "/cancel"
	rec, _ = a.do(t, http.MethodPost, path, token, map[string]string{"reason": "changed mind"}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 5, a.stock(t, p.ID))

	//二回目のキャンセルは在庫を戻さない
	rec, _ = a.do(t, http.MethodPost, path, token, nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.EqualValues(t, 5, a.stock(t, p.ID))
}

func TestCreateOrder_InsufficientStock(t *testing.T) {
	a := newTestApp(t)
	token := a.registerAndLogin(t, "guest@example.com", model.RoleUser)
	p := a.seedProduct(t, 1)

	rec, env := a.do(t, http.MethodPost, "/orders", token, map[string]any{
		"order_type": "pickup",
		"items":      []map[string]any{{"product_id": p.ID, "quantity": 3}},
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Success)
	assert.EqualValues(t, 1, a.stock(t, p.ID))
}

func TestCreateOrder_ValidationErrors(t *testing.T) {
	a := newTestApp(t)
	token := a.registerAndLogin(t, "guest@example.com", model.RoleUser)

	rec, env := a.do(t, http.MethodPost, "/orders", token, map[string]any{
		"items": []map[string]any{{"product_id": 1, "quantity": 0}},
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, env.Errors, "items[0].quantity")
}

func TestAdminRoutes_RoleGuard(t *testing.T) {
	a := newTestApp(t)
	userToken := a.registerAndLogin(t, "guest@example.com", model.RoleUser)
	adminToken := a.registerAndLogin(t, "owner@example.com", model.RoleAdmin)

	rec, _ := a.do(t, http.MethodGet, "/admin/dashboard", userToken, nil, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, env := a.do(t, http.MethodGet, "/admin/dashboard", adminToken, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, env.Success)
}

func TestForceLogoutRevokesToken(t *testing.T) {
	a := newTestApp(t)
	userToken := a.registerAndLogin(t, "guest@example.com", model.RoleUser)
	adminToken := a.registerAndLogin(t, "owner@example.com", model.RoleAdmin)

	var u model.User
	require.NoError(t, a.db.Where("email = ?", "guest@example.com").First(&u).Error)

	rec, _ := a.do(t, http.MethodPost, "/admin/users/"+jsonID(u.ID)+"/force-logout", adminToken, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, _ = a.do(t, http.MethodGet, "/auth/me", userToken, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	a := newTestApp(t)
	a.do(t, http.MethodGet, "/healthz", "", nil, nil)

	rec, _ := a.do(t, http.MethodGet, "/metrics", "", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_request_duration_seconds")
}

func jsonID(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}

func TestAddresses_FlowAndOwnership(t *testing.T) {
	a := newTestApp(t)
	owner := a.registerAndLogin(t, "owner@example.com", model.RoleUser)
	other := a.registerAndLogin(t, "other@example.com", model.RoleUser)

	rec, env := a.do(t, http.MethodPost, "/addresses", owner, map[string]any{
		"name": "Hanako", "phone": "09000000000", "city": "Osaka", "detail": "Umeda 1-1-1",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	require.Positive(t, created.ID)
	path := "/addresses/" + jsonID(created.ID)

	rec, _ = a.do(t, http.MethodPost, path+"/default", owner, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, env = a.do(t, http.MethodGet, "/addresses", owner, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []struct {
		ID        int64 `json:"id"`
		IsDefault bool  `json:"is_default"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 1)
	assert.True(t, list[0].IsDefault)

	//他人の住所は触れない
	rec, _ = a.do(t, http.MethodDelete, path, other, nil, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = a.do(t, http.MethodDelete, path, owner, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, env = a.do(t, http.MethodGet, "/addresses", owner, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Empty(t, list)
}

func TestCheckoutFromCartClearsOrderedLines(t *testing.T) {
	a := newTestApp(t)
	token := a.registerAndLogin(t, "guest@example.com", model.RoleUser)
	p := a.seedProduct(t, 10)

	rec, _ := a.do(t, http.MethodPost, "/cart/add", token, map[string]any{"product_id": p.ID, "quantity": 2}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, env := a.do(t, http.MethodGet, "/cart", token, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var cart struct {
		Items []struct {
			ID       int64 `json:"id"`
			Quantity int64 `json:"quantity"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &cart))
	require.Len(t, cart.Items, 1)

	rec, _ = a.do(t, http.MethodPost, "/orders", token, map[string]any{
		"order_type":    "dine_in",
		"table_number":  "A3",
		"items":         []map[string]any{{"product_id": p.ID, "quantity": cart.Items[0].Quantity}},
		"cart_item_ids": []int64{cart.Items[0].ID},
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.EqualValues(t, 8, a.stock(t, p.ID))

	rec, env = a.do(t, http.MethodGet, "/cart", token, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &cart))
	assert.Empty(t, cart.Items)
}

func TestDeactivatedUserIsLockedOutAndAudited(t *testing.T) {
	a := newTestApp(t)
	userToken := a.registerAndLogin(t, "guest@example.com", model.RoleUser)
	adminToken := a.registerAndLogin(t, "owner@example.com", model.RoleAdmin)

	var u model.User
	require.NoError(t, a.db.Where("email = ?", "guest@example.com").First(&u).Error)

	rec, _ := a.do(t, http.MethodPatch, "/admin/users/"+jsonID(u.ID)+"/active", adminToken, map[string]any{"is_active": false}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	//古いトークンはversion違いで401、再ログインは403
	rec, _ = a.do(t, http.MethodGet, "/auth/me", userToken, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec, _ = a.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "guest@example.com", "password": "Tr1cky-Latte!",
	}, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, env := a.do(t, http.MethodGet, "/admin/audit-logs?action=set_user_active", adminToken, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var logs struct {
		Items []struct {
			ResourceID int64 `json:"resource_id"`
		} `json:"items"`
		Pagination struct {
			Total int64 `json:"total"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &logs))
	require.Len(t, logs.Items, 1)
	assert.Equal(t, u.ID, logs.Items[0].ResourceID)
	assert.EqualValues(t, 1, logs.Pagination.Total)
}

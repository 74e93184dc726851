package middleware_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"shoporder/internal/domain/model"
	"shoporder/internal/logger"
	"shoporder/internal/metrics"
	"shoporder/internal/middleware"
	"shoporder/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

type mwErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type mwOKResponse struct {
	UserID       int64  `json:"user_id"`
	Role         string `json:"role"`
	TokenVersion int    `json:"token_version"`
	IsAdmin      bool   `json:"is_admin"`
}

type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Create(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockUserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockUserRepo) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func (m *MockUserRepo) SetActive(ctx context.Context, id int64, active bool) error {
	return m.Called(ctx, id, active).Error(0)
}

func (m *MockUserRepo) IncrementTokenVersion(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockUserRepo) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

var _ repository.UserRepository = (*MockUserRepo)(nil)

func mustMakeJWT(t *testing.T, key string, sub any, role string, tv int, method jwt.SigningMethod) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":  sub,
		"role": role,
		"tv":   tv,
		"iat":  1,
		"exp":  9999999999,
	}
	s, err := jwt.NewWithClaims(method, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return s
}

func runRequest(e *echo.Echo, path string, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) mwErrorResponse {
	t.Helper()
	var r mwErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&r))
	return r
}

func okHandler(c echo.Context) error {
	userID, _ := c.Get(middleware.CtxUserIDKey).(int64)
	role, _ := c.Get(middleware.CtxUserRoleKey).(string)
	tv, _ := c.Get(middleware.CtxTokenVersionKey).(int)
	return c.JSON(http.StatusOK, mwOKResponse{
		UserID:       userID,
		Role:         role,
		TokenVersion: tv,
		IsAdmin:      middleware.IsAdmin(c),
	})
}

func TestAuthJWT_Rejects(t *testing.T) {
	cases := map[string]string{
		"no header":      "",
		"bad scheme":     "Token abc.def.ghi",
		"bad signature":  "Bearer " + mustMakeJWT(t, "wrong-secret", "1", "USER", 0, jwt.SigningMethodHS256),
		"wrong alg":      "Bearer " + mustMakeJWT(t, secret, "1", "USER", 0, jwt.SigningMethodHS512),
		"empty role":     "Bearer " + mustMakeJWT(t, secret, "1", "", 0, jwt.SigningMethodHS256),
		"non-number sub": "Bearer " + mustMakeJWT(t, secret, "abc", "USER", 0, jwt.SigningMethodHS256),
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			e := echo.New()
			e.GET("/protected", okHandler, middleware.AuthJWT(secret))

			rec := runRequest(e, "/protected", header)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			body := decodeError(t, rec)
			assert.False(t, body.Success)
			assert.Equal(t, "unauthorized", body.Message)
		})
	}
}

func TestAuthJWT_SetsContext(t *testing.T) {
	for name, sub := range map[string]any{"string sub": "123", "numeric sub": 123} {
		t.Run(name, func(t *testing.T) {
			e := echo.New()
			e.GET("/protected", okHandler, middleware.AuthJWT(secret))

			rec := runRequest(e, "/protected", "Bearer "+mustMakeJWT(t, secret, sub, "ADMIN", 7, jwt.SigningMethodHS256))
			require.Equal(t, http.StatusOK, rec.Code)

			var body mwOKResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, int64(123), body.UserID)
			assert.Equal(t, "ADMIN", body.Role)
			assert.Equal(t, 7, body.TokenVersion)
			assert.True(t, body.IsAdmin)
		})
	}
}

func TestTokenVersionGuard(t *testing.T) {
	t.Run("missing context", func(t *testing.T) {
		e := echo.New()
		e.GET("/protected", okHandler, middleware.TokenVersionGuard(new(MockUserRepo), logger.Nop()))
		rec := runRequest(e, "/protected", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	cases := []struct {
		name   string
		dbTV   int
		active bool
		want   int
	}{
		{"version mismatch", 1, true, http.StatusUnauthorized},
		{"inactive user", 5, false, http.StatusForbidden},
		{"match", 5, true, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			users := new(MockUserRepo)
			users.On("FindByID", mock.Anything, int64(1)).Return(&model.User{
				ID:           1,
				Role:         model.RoleUser,
				TokenVersion: tc.dbTV,
				IsActive:     tc.active,
			}, nil).Once()

			e := echo.New()
			e.GET("/protected", okHandler, middleware.AuthJWT(secret), middleware.TokenVersionGuard(users, logger.Nop()))

			rec := runRequest(e, "/protected", "Bearer "+mustMakeJWT(t, secret, "1", "USER", 5, jwt.SigningMethodHS256))
			assert.Equal(t, tc.want, rec.Code)
			users.AssertExpectations(t)
		})
	}
}

func TestAdminRoleGuard(t *testing.T) {
	e := echo.New()
	e.GET("/admin", okHandler, middleware.AuthJWT(secret), middleware.AdminRoleGuard())

	rec := runRequest(e, "/admin", "Bearer "+mustMakeJWT(t, secret, "1", "USER", 0, jwt.SigningMethodHS256))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "admin only", decodeError(t, rec).Message)

	rec = runRequest(e, "/admin", "Bearer "+mustMakeJWT(t, secret, "1", "ADMIN", 0, jwt.SigningMethodHS256))
	assert.Equal(t, http.StatusOK, rec.Code)
}

// DBで降格されたらトークンのroleがADMINでも403
func TestTokenVersionGuard_RoleFromDatabase(t *testing.T) {
	users := new(MockUserRepo)
	users.On("FindByID", mock.Anything, int64(1)).Return(&model.User{
		ID: 1, Role: model.RoleUser, TokenVersion: 0, IsActive: true,
	}, nil)

	e := echo.New()
	e.GET("/admin", okHandler, middleware.AuthJWT(secret), middleware.TokenVersionGuard(users, logger.Nop()), middleware.AdminRoleGuard())

	rec := runRequest(e, "/admin", "Bearer "+mustMakeJWT(t, secret, "1", "ADMIN", 0, jwt.SigningMethodHS256))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireRole_MultipleRoles(t *testing.T) {
	e := echo.New()
	e.GET("/staff", okHandler, middleware.AuthJWT(secret), middleware.RequireRole("ADMIN", "STAFF"))

	rec := runRequest(e, "/staff", "Bearer "+mustMakeJWT(t, secret, "1", "STAFF", 0, jwt.SigningMethodHS256))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = runRequest(e, "/staff", "Bearer "+mustMakeJWT(t, secret, "1", "USER", 0, jwt.SigningMethodHS256))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	//AuthJWTなしではroleが無いので401
	e.GET("/bare", okHandler, middleware.RequireRole("ADMIN"))
	rec = runRequest(e, "/bare", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequestIDAndLogger(t *testing.T) {
	e := echo.New()
	e.Use(middleware.RequestID(logger.Nop()), middleware.RequestLogger(logger.Nop(), metrics.New(nil)))
	e.GET("/ping", func(c echo.Context) error {
		id, _ := c.Get(middleware.CtxRequestIDKey).(string)
		return c.String(http.StatusOK, id)
	})

	rec := runRequest(e, "/ping", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
	assert.Equal(t, rec.Header().Get(echo.HeaderXRequestID), rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(echo.HeaderXRequestID, "abc-123")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Body.String())
}

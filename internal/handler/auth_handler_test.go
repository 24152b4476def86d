package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"authgate/internal/auth"
	apperrors "authgate/internal/errors"
	"authgate/internal/middleware"
	"authgate/internal/model"
)

// MockAuthService is a mock implementation of service.AuthService.
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, name, email, password, role string) (*model.User, string, error) {
	args := m.Called(ctx, name, email, password, role)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).(*model.User), args.String(1), args.Error(2)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).(*model.User), args.String(1), args.Error(2)
}

func (m *MockAuthService) GetMe(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockAuthService) UpdatePassword(ctx context.Context, id uuid.UUID, currentPassword, newPassword string) (*model.User, string, error) {
	args := m.Called(ctx, id, currentPassword, newPassword)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).(*model.User), args.String(1), args.Error(2)
}

func (m *MockAuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	args := m.Called(ctx, claims)
	return args.Error(0)
}

type testValidator struct {
	validator *validator.Validate
}

func (v *testValidator) Validate(i interface{}) error {
	return v.validator.Struct(i)
}

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = &testValidator{validator: validator.New()}
	return e
}

func postJSON(e *echo.Echo, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func attachPrincipal(user *model.User, claims *auth.Claims) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(middleware.ContextKey, &middleware.Authenticated{User: user, Claims: claims})
			return next(c)
		}
	}
}

func TestAuthHandler_Register(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		svc := new(MockAuthService)
		user := &model.User{ID: uuid.New(), Name: "A", Email: "a@x.com", Role: model.RoleUser, Active: true}
		svc.On("Register", mock.Anything, "A", "a@x.com", "secret1", "").Return(user, "signed-token", nil)

		e := newTestEcho()
		e.POST("/auth/register", NewAuthHandler(svc).Register)

		rec := postJSON(e, "/auth/register", `{"name":"A","email":"a@x.com","password":"secret1"}`)
		require.Equal(t, http.StatusCreated, rec.Code)

		var resp struct {
			User  map[string]interface{} `json:"user"`
			Token string                 `json:"token"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "signed-token", resp.Token)
		assert.Equal(t, "user", resp.User["role"])
		assert.NotContains(t, resp.User, "password")
		assert.NotContains(t, resp.User, "password_hash")
		svc.AssertExpectations(t)
	})

	t.Run("duplicate email", func(t *testing.T) {
		svc := new(MockAuthService)
		svc.On("Register", mock.Anything, "A", "a@x.com", "secret1", "").Return(nil, "", apperrors.ErrEmailTaken)

		e := newTestEcho()
		e.POST("/auth/register", NewAuthHandler(svc).Register)

		rec := postJSON(e, "/auth/register", `{"name":"A","email":"a@x.com","password":"secret1"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "EMAIL_IN_USE")
	})

	t.Run("short password rejected before the service", func(t *testing.T) {
		svc := new(MockAuthService)

		e := newTestEcho()
		e.POST("/auth/register", NewAuthHandler(svc).Register)

		rec := postJSON(e, "/auth/register", `{"name":"A","email":"a@x.com","password":"abc"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		svc.AssertNotCalled(t, "Register", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestAuthHandler_Login(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		svc := new(MockAuthService)
		user := &model.User{ID: uuid.New(), Email: "a@x.com", Role: model.RoleUser, Active: true}
		svc.On("Login", mock.Anything, "a@x.com", "secret1").Return(user, "signed-token", nil)

		e := newTestEcho()
		e.POST("/auth/login", NewAuthHandler(svc).Login)

		rec := postJSON(e, "/auth/login", `{"email":"a@x.com","password":"secret1"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "signed-token")
	})

	t.Run("invalid credentials", func(t *testing.T) {
		svc := new(MockAuthService)
		svc.On("Login", mock.Anything, "a@x.com", "wrong").Return(nil, "", apperrors.ErrInvalidCredentials)

		e := newTestEcho()
		e.POST("/auth/login", NewAuthHandler(svc).Login)

		rec := postJSON(e, "/auth/login", `{"email":"a@x.com","password":"wrong"}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "INVALID_CREDENTIALS")
	})
}

func TestAuthHandler_Me(t *testing.T) {
	svc := new(MockAuthService)
	user := &model.User{ID: uuid.New(), Email: "me@x.com", Role: model.RoleUser, Active: true}
	svc.On("GetMe", mock.Anything, user.ID).Return(user, nil)

	e := newTestEcho()
	e.GET("/auth/me", NewAuthHandler(svc).Me, attachPrincipal(user, nil))

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "me@x.com")
}

func TestAuthHandler_UpdatePassword(t *testing.T) {
	user := &model.User{ID: uuid.New(), Email: "pw@x.com", Role: model.RoleUser, Active: true}

	t.Run("confirmation mismatch", func(t *testing.T) {
		svc := new(MockAuthService)
		e := newTestEcho()
		e.PUT("/auth/update-password", NewAuthHandler(svc).UpdatePassword, attachPrincipal(user, nil))

		req := httptest.NewRequest(http.MethodPut, "/auth/update-password",
			strings.NewReader(`{"currentPassword":"old","newPassword":"newpass1","confirmPassword":"different"}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "PASSWORD_MISMATCH")
		svc.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("wrong current password", func(t *testing.T) {
		svc := new(MockAuthService)
		svc.On("UpdatePassword", mock.Anything, user.ID, "wrong", "newpass1").Return(nil, "", apperrors.ErrIncorrectPassword)

		e := newTestEcho()
		e.PUT("/auth/update-password", NewAuthHandler(svc).UpdatePassword, attachPrincipal(user, nil))

		req := httptest.NewRequest(http.MethodPut, "/auth/update-password",
			strings.NewReader(`{"currentPassword":"wrong","newPassword":"newpass1","confirmPassword":"newpass1"}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "INCORRECT_PASSWORD")
	})

	t.Run("ok returns a fresh token", func(t *testing.T) {
		svc := new(MockAuthService)
		svc.On("UpdatePassword", mock.Anything, user.ID, "old", "newpass1").Return(user, "fresh-token", nil)

		e := newTestEcho()
		e.PUT("/auth/update-password", NewAuthHandler(svc).UpdatePassword, attachPrincipal(user, nil))

		req := httptest.NewRequest(http.MethodPut, "/auth/update-password",
			strings.NewReader(`{"currentPassword":"old","newPassword":"newpass1","confirmPassword":"newpass1"}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "fresh-token")
	})
}

func TestAuthHandler_Logout(t *testing.T) {
	user := &model.User{ID: uuid.New(), Email: "bye@x.com", Role: model.RoleUser, Active: true}
	jwtService := auth.NewJWTService("test-secret", time.Hour, "authgate-test")
	_, claims, err := jwtService.Generate(user.ID, user.Email, user.Role)
	require.NoError(t, err)

	svc := new(MockAuthService)
	svc.On("Logout", mock.Anything, claims).Return(nil)

	e := newTestEcho()
	e.POST("/auth/logout", NewAuthHandler(svc).Logout, attachPrincipal(user, claims))

	rec := postJSON(e, "/auth/logout", "")
	require.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

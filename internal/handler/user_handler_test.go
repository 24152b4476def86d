package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "authgate/internal/errors"
	"authgate/internal/model"
	"authgate/internal/service"
)

// MockUserService is a mock implementation of service.UserService.
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) ListUsers(ctx context.Context, offset, limit int) ([]model.User, int64, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]model.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserService) UpdateUser(ctx context.Context, id uuid.UUID, update service.UserUpdate) (*model.User, error) {
	args := m.Called(ctx, id, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func TestUserHandler_GetUser(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		svc := new(MockUserService)
		user := &model.User{ID: uuid.New(), Email: "a@x.com", Role: model.RoleUser, Active: true}
		svc.On("GetUser", mock.Anything, user.ID).Return(user, nil)

		e := newTestEcho()
		e.GET("/users/:id", NewUserHandler(svc).GetUser)

		req := httptest.NewRequest(http.MethodGet, "/users/"+user.ID.String(), nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "a@x.com")
		assert.NotContains(t, rec.Body.String(), "password")
	})

	t.Run("bad id", func(t *testing.T) {
		e := newTestEcho()
		e.GET("/users/:id", NewUserHandler(new(MockUserService)).GetUser)

		req := httptest.NewRequest(http.MethodGet, "/users/not-a-uuid", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing", func(t *testing.T) {
		svc := new(MockUserService)
		id := uuid.New()
		svc.On("GetUser", mock.Anything, id).Return(nil, apperrors.ErrUserNotFound)

		e := newTestEcho()
		e.GET("/users/:id", NewUserHandler(svc).GetUser)

		req := httptest.NewRequest(http.MethodGet, "/users/"+id.String(), nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "NOT_FOUND")
	})
}

func TestUserHandler_ListUsers(t *testing.T) {
	svc := new(MockUserService)
	users := []model.User{
		{ID: uuid.New(), Email: "a@x.com", Role: model.RoleUser, Active: true},
		{ID: uuid.New(), Email: "b@x.com", Role: model.RoleAdmin, Active: true},
	}
	// page=2, per_page=10 → offset 10
	svc.On("ListUsers", mock.Anything, 10, 10).Return(users, int64(12), nil)

	e := newTestEcho()
	e.GET("/users", NewUserHandler(svc).ListUsers)

	req := httptest.NewRequest(http.MethodGet, "/users?page=2&per_page=10", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp ListUsersResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Users, 2)
	assert.Equal(t, int64(12), resp.Total)
	assert.Equal(t, 2, resp.Page)
	assert.Equal(t, 10, resp.PerPage)
}

func TestUserHandler_UpdateUser_StripsPassword(t *testing.T) {
	svc := new(MockUserService)
	id := uuid.New()
	updated := &model.User{ID: id, Name: "New Name", Email: "a@x.com", Role: model.RoleUser, Active: true}
	svc.On("UpdateUser", mock.Anything, id, mock.MatchedBy(func(u service.UserUpdate) bool {
		return u.Name != nil && *u.Name == "New Name"
	})).Return(updated, nil)

	e := newTestEcho()
	e.PUT("/users/:id", NewUserHandler(svc).UpdateUser)

	// A password in the payload has no field to land in; the update DTO
	// simply does not carry one.
	req := httptest.NewRequest(http.MethodPut, "/users/"+id.String(),
		strings.NewReader(`{"name":"New Name","password":"evil-overwrite"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestUserHandler_DeleteUser(t *testing.T) {
	svc := new(MockUserService)
	id := uuid.New()
	svc.On("DeleteUser", mock.Anything, id).Return(nil)

	e := newTestEcho()
	e.DELETE("/users/:id", NewUserHandler(svc).DeleteUser)

	req := httptest.NewRequest(http.MethodDelete, "/users/"+id.String(), nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	svc.AssertExpectations(t)
}

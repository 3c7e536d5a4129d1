package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/institute-crm-api/internal/models"
	"github.com/noah-isme/institute-crm-api/internal/service"
	appErrors "github.com/noah-isme/institute-crm-api/pkg/errors"
)

type fakeUserSrv struct {
	filter  models.UserFilter
	created *service.CreateUserRequest
	err     error
}

func (f *fakeUserSrv) List(_ context.Context, filter models.UserFilter) ([]models.User, *models.Pagination) {
	f.filter = filter
	return []models.User{}, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize}
}

func (f *fakeUserSrv) Get(_ context.Context, id int64) (*models.User, error) {
	return &models.User{ID: id}, f.err
}

func (f *fakeUserSrv) Create(_ context.Context, _ models.Principal, req service.CreateUserRequest) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = &req
	return &models.User{ID: 9, Email: req.Email, Role: req.Role}, nil
}

func (f *fakeUserSrv) Delete(context.Context, models.Principal, int64) error {
	return f.err
}

func TestUserHandlerListRoleFilter(t *testing.T) {
	srv := &fakeUserSrv{}
	handler := NewUserHandler(srv)

	c, rec := newTestContext(http.MethodGet, "/users?role=staff&search=ali", nil)
	handler.List(c)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, srv.filter.Role)
	assert.Equal(t, models.RoleStaff, *srv.filter.Role)
	assert.Equal(t, "ali", srv.filter.Search)
}

func TestUserHandlerCreate(t *testing.T) {
	srv := &fakeUserSrv{}
	handler := NewUserHandler(srv)

	c, rec := newTestContext(http.MethodPost, "/users", map[string]interface{}{
		"email":     "staff@example.com",
		"full_name": "Staff",
		"role":      "staff",
		"password":  "password123",
	})
	asUser(c, 1, "Owner", models.RoleSuperAdmin)
	handler.Create(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, srv.created)
	assert.Equal(t, models.RoleStaff, srv.created.Role)
}

func TestUserHandlerCreateConflict(t *testing.T) {
	handler := NewUserHandler(&fakeUserSrv{err: appErrors.Clone(appErrors.ErrConflict, "email already registered")})

	c, rec := newTestContext(http.MethodPost, "/users", map[string]interface{}{"email": "a@b.co"})
	handler.Create(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/institute-crm-api/internal/models"
	appErrors "github.com/noah-isme/institute-crm-api/pkg/errors"
)

type mockUserRepo struct {
	users   map[int64]*models.User
	nextID  int64
	listErr error
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: map[int64]*models.User{}}
}

func (m *mockUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	var out []models.User
	for _, u := range m.users {
		if u.Active {
			out = append(out, *u)
		}
	}
	return out, len(out), nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id int64) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	m.nextID++
	user.ID = m.nextID
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *mockUserRepo) Delete(ctx context.Context, id int64) error {
	u, ok := m.users[id]
	if !ok || !u.Active {
		return sql.ErrNoRows
	}
	u.Active = false
	return nil
}

func TestUserServiceCreate(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewUserService(repo, nil, nil)
	ctx := context.Background()
	req := CreateUserRequest{Email: " Staff@Example.com ", FullName: "Hamza", Role: models.RoleStaff, Password: "longenough"}

	user, err := svc.Create(ctx, superAdmin, req)
	require.NoError(t, err)
	assert.Equal(t, "staff@example.com", user.Email)
	assert.True(t, user.Active)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("longenough")))

	_, err = svc.Create(ctx, superAdmin, req)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrConflict.Code))

	_, err = svc.Create(ctx, operator, CreateUserRequest{Email: "x@example.com", FullName: "X", Role: models.RoleStaff, Password: "longenough"})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrForbidden.Code))

	_, err = svc.Create(ctx, superAdmin, CreateUserRequest{Email: "y@example.com", FullName: "Y", Role: "owner", Password: "longenough"})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation.Code))
}

func TestUserServiceDelete(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewUserService(repo, nil, nil)
	ctx := context.Background()

	user, err := svc.Create(ctx, superAdmin, CreateUserRequest{Email: "staff@example.com", FullName: "Hamza", Role: models.RoleStaff, Password: "longenough"})
	require.NoError(t, err)

	err = svc.Delete(ctx, operator, user.ID)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrForbidden.Code))
	assert.True(t, repo.users[user.ID].Active)

	self := models.Principal{ID: user.ID, Name: "Hamza", Role: models.RoleSuperAdmin}
	err = svc.Delete(ctx, self, user.ID)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation.Code))

	require.NoError(t, svc.Delete(ctx, superAdmin, user.ID))
	assert.False(t, repo.users[user.ID].Active)

	err = svc.Delete(ctx, superAdmin, user.ID)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrNotFound.Code))
}

func TestUserServiceListDegrades(t *testing.T) {
	repo := newMockUserRepo()
	repo.listErr = errors.New("db down")
	svc := NewUserService(repo, nil, nil)

	users, pagination := svc.List(context.Background(), models.UserFilter{})
	assert.NotNil(t, users)
	assert.Empty(t, users)
	assert.Equal(t, 1, pagination.Page)
}

func TestUserServiceEnsureSuperAdmin(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewUserService(repo, nil, nil)
	ctx := context.Background()

	require.NoError(t, svc.EnsureSuperAdmin(ctx, "", "", ""))
	assert.Empty(t, repo.users)

	require.NoError(t, svc.EnsureSuperAdmin(ctx, "Owner@Example.com", "", "bootstrap-pass"))
	require.Len(t, repo.users, 1)
	assert.Equal(t, models.RoleSuperAdmin, repo.users[1].Role)
	assert.Equal(t, "Super Admin", repo.users[1].FullName)

	require.NoError(t, svc.EnsureSuperAdmin(ctx, "owner@example.com", "Owner", "bootstrap-pass"))
	assert.Len(t, repo.users, 1)
}

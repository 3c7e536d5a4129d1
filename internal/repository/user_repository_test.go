package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/institute-crm-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

var userRowColumns = []string{"id", "email", "password_hash", "full_name", "role", "active", "last_login", "created_at", "updated_at"}

func TestFindByEmail(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(userRowColumns).
		AddRow(int64(1), "owner@example.com", "hash", "Owner", string(models.RoleSuperAdmin), true, now, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = $1 LIMIT 1")).
		WithArgs("owner@example.com").
		WillReturnRows(rows)

	user, err := repo.FindByEmail(context.Background(), "Owner@Example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)
	assert.Equal(t, models.RoleSuperAdmin, user.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
		WithArgs(int64(9)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), 9)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestCreateUserReturnsID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	mock.ExpectQuery("INSERT INTO users").
		WithArgs("staff@example.com", "hash", "Staff", models.RoleStaff, true, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(5), now, now))

	user := &models.User{Email: "Staff@example.com", PasswordHash: "hash", FullName: "Staff", Role: models.RoleStaff, Active: true}
	require.NoError(t, repo.Create(context.Background(), user))
	assert.Equal(t, int64(5), user.ID)
	assert.Equal(t, "staff@example.com", user.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListUsers(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	role := models.RoleAdmin
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE active = TRUE AND role = $1 ORDER BY created_at DESC, id DESC LIMIT 20 OFFSET 0")).
		WithArgs(role).
		WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow(int64(2), "admin@example.com", "hash", "Admin", "admin", true, nil, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE active = TRUE AND role = $1")).
		WithArgs(role).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	users, total, err := repo.List(context.Background(), models.UserFilter{Role: &role})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Nil(t, users[0].LastLogin)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteUserMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("UPDATE users SET active = FALSE").
		WithArgs(int64(3), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), 3), sql.ErrNoRows)
}

func TestCreateAuditLog(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("INSERT INTO audit_logs").WillReturnResult(sqlmock.NewResult(1, 1))

	entry := &models.AuditLog{Action: models.AuditActionInquiryDelete, Resource: "inquiries"}
	require.NoError(t, repo.CreateAuditLog(context.Background(), entry))
	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

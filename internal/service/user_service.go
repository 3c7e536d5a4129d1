package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/institute-crm-api/internal/models"
	"github.com/noah-isme/institute-crm-api/internal/repository"
	appErrors "github.com/noah-isme/institute-crm-api/pkg/errors"
)

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id int64) error
}

// CreateUserRequest represents payload for creating operator accounts.
type CreateUserRequest struct {
	Email    string          `json:"email" validate:"required,email"`
	FullName string          `json:"full_name" validate:"required"`
	Role     models.UserRole `json:"role" validate:"required,oneof=super_admin admin staff"`
	Password string          `json:"password" validate:"required,min=8"`
}

// UserService handles operator account management.
type UserService struct {
	repo      userRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &UserService{repo: repo, validator: validate, logger: logger}
}

// List returns active users. A store failure yields an empty page.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination) {
	filter.Page, filter.PageSize = models.NormalisePage(filter.Page, filter.PageSize)
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize}

	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("list users failed", zap.Error(err))
		return []models.User{}, pagination
	}
	pagination.TotalCount = total
	return users, pagination
}

// Get returns a user by ID.
func (s *UserService) Get(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Internal(err, "failed to load user")
	}
	return user, nil
}

// Create adds an operator account. Super admin only.
func (s *UserService) Create(ctx context.Context, principal models.Principal, req CreateUserRequest) (*models.User, error) {
	if err := requireSuperAdmin(principal); err != nil {
		return nil, err
	}
	return s.create(ctx, req)
}

func (s *UserService) create(ctx context.Context, req CreateUserRequest) (*models.User, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.FullName = strings.TrimSpace(req.FullName)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid create user payload")
	}

	if _, err := s.repo.FindByEmail(ctx, req.Email); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already exists")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Internal(err, "failed to check email uniqueness")
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to hash password")
	}

	user := &models.User{
		Email:        req.Email,
		FullName:     req.FullName,
		Role:         req.Role,
		Active:       true,
		PasswordHash: string(passwordHash),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "email already exists")
		}
		return nil, appErrors.Internal(err, "failed to create user")
	}
	return user, nil
}

// Delete deactivates a user. Super admin only; operators cannot deactivate themselves.
func (s *UserService) Delete(ctx context.Context, principal models.Principal, id int64) error {
	if err := requireSuperAdmin(principal); err != nil {
		return err
	}
	if principal.ID == id {
		return appErrors.Clone(appErrors.ErrValidation, "cannot delete your own account")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Internal(err, "failed to delete user")
	}
	return nil
}

// EnsureSuperAdmin creates the bootstrap super admin when no account with that email exists.
func (s *UserService) EnsureSuperAdmin(ctx context.Context, email, fullName, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil
	}
	if _, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email))); err == nil {
		return nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return appErrors.Internal(err, "failed to look up bootstrap admin")
	}
	if strings.TrimSpace(fullName) == "" {
		fullName = "Super Admin"
	}
	user, err := s.create(ctx, CreateUserRequest{Email: email, FullName: fullName, Role: models.RoleSuperAdmin, Password: password})
	if err != nil {
		return err
	}
	s.logger.Info("bootstrap super admin created", zap.Int64("user_id", user.ID), zap.String("email", user.Email))
	return nil
}

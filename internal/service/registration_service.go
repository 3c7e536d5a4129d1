package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/institute-crm-api/internal/models"
	appErrors "github.com/noah-isme/institute-crm-api/pkg/errors"
	"github.com/noah-isme/institute-crm-api/pkg/receipt"
)

const (
	registrationSourceDirect     = "direct"
	registrationSourceConversion = "conversion"
)

type registrationRepository interface {
	Create(ctx context.Context, reg *models.Registration) error
	FindByID(ctx context.Context, id int64) (*models.Registration, error)
	List(ctx context.Context, filter models.RegistrationFilter) ([]models.Registration, int, error)
	Update(ctx context.Context, id int64, patch models.RegistrationPatch) (*models.Registration, error)
	MarkWhatsAppSent(ctx context.Context, id int64, column string, msgType models.WhatsAppMessageType, sentBy string) error
	Delete(ctx context.Context, id int64) error
}

// CreateRegistrationRequest creates a registration without a source inquiry.
type CreateRegistrationRequest struct {
	Name            string   `json:"name" validate:"required"`
	FatherName      string   `json:"father_name" validate:"required"`
	CNIC            *string  `json:"cnic" validate:"omitempty,max=20"`
	Phone           string   `json:"phone" validate:"required,max=32"`
	Email           *string  `json:"email" validate:"omitempty,email"`
	Address         *string  `json:"address"`
	Gender          *string  `json:"gender"`
	AcademicSession *string  `json:"academic_session"`
	FeePaid         *float64 `json:"fee_paid"`
	FeePending      *float64 `json:"fee_pending"`
	Concession      *float64 `json:"concession"`
	Comments        *string  `json:"comments"`
}

// UpdateRegistrationRequest carries a partial ledger or contact edit. Omitted fields keep their value.
type UpdateRegistrationRequest struct {
	Name            *string  `json:"name"`
	FatherName      *string  `json:"father_name"`
	CNIC            *string  `json:"cnic" validate:"omitempty,max=20"`
	Phone           *string  `json:"phone" validate:"omitempty,max=32"`
	Email           *string  `json:"email" validate:"omitempty,email"`
	Address         *string  `json:"address"`
	Gender          *string  `json:"gender"`
	AcademicSession *string  `json:"academic_session"`
	FeePaid         *float64 `json:"fee_paid"`
	FeePending      *float64 `json:"fee_pending"`
	Concession      *float64 `json:"concession"`
	Comments        *string  `json:"comments"`
}

// ReceiptLabels are the institute details printed on every voucher.
type ReceiptLabels struct {
	InstituteName    string
	InstituteAddress string
	InstitutePhone   string
}

// RegistrationService manages registrations and their fee ledger. It never
// rebalances the ledger: paid, pending and concession are set independently.
type RegistrationService struct {
	repo           registrationRepository
	cache          *CacheService
	metrics        *MetricsService
	validator      *validator.Validate
	logger         *zap.Logger
	defaultSession string
	labels         ReceiptLabels
}

// NewRegistrationService constructs the registration service.
func NewRegistrationService(repo registrationRepository, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, defaultSession string, labels ReceiptLabels) *RegistrationService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistrationService{
		repo:           repo,
		cache:          cache,
		metrics:        metrics,
		validator:      validate,
		logger:         logger,
		defaultSession: defaultSession,
		labels:         labels,
	}
}

// Create stores a registration entered directly by an operator.
func (s *RegistrationService) Create(ctx context.Context, principal models.Principal, req CreateRegistrationRequest) (*models.Registration, error) {
	if err := requireAuthenticated(principal); err != nil {
		return nil, err
	}
	req.Name = strings.TrimSpace(req.Name)
	req.FatherName = strings.TrimSpace(req.FatherName)
	req.Phone = strings.TrimSpace(req.Phone)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid registration payload")
	}
	if err := validateAmounts(req.FeePaid, req.FeePending, req.Concession); err != nil {
		return nil, err
	}

	reg := &models.Registration{
		Name:            req.Name,
		FatherName:      req.FatherName,
		CNIC:            optional(req.CNIC),
		Phone:           req.Phone,
		Email:           optional(req.Email),
		Address:         optional(req.Address),
		Gender:          optional(req.Gender),
		AcademicSession: s.session(req.AcademicSession),
		FeePaid:         amountOrZero(req.FeePaid),
		FeePending:      amountOrZero(req.FeePending),
		Concession:      amountOrZero(req.Concession),
		Comments:        optional(req.Comments),
	}
	if err := s.insert(ctx, reg, registrationSourceDirect); err != nil {
		return nil, err
	}
	return reg, nil
}

func (s *RegistrationService) insert(ctx context.Context, reg *models.Registration, source string) error {
	if err := s.repo.Create(ctx, reg); err != nil {
		s.logger.Error("create registration failed", zap.String("source", source), zap.Error(err))
		return appErrors.Internal(err, "failed to create registration")
	}
	s.metrics.RecordRegistration(source)
	s.cache.InvalidateReports(ctx)
	return nil
}

func (s *RegistrationService) session(requested *string) string {
	if v := optional(requested); v != nil {
		return *v
	}
	return s.defaultSession
}

// Get returns a registration by id.
func (s *RegistrationService) Get(ctx context.Context, id int64) (*models.Registration, error) {
	reg, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "registration not found")
		}
		s.logger.Error("load registration failed", zap.Int64("registration_id", id), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to load registration")
	}
	return reg, nil
}

// List returns registrations and pagination metadata. A store failure yields an empty page.
func (s *RegistrationService) List(ctx context.Context, filter models.RegistrationFilter) ([]models.Registration, *models.Pagination) {
	page, size := models.NormalisePage(filter.Page, filter.PageSize)
	filter.Page, filter.PageSize = page, size

	regs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("list registrations failed", zap.Error(err))
		return []models.Registration{}, &models.Pagination{Page: page, PageSize: size}
	}
	if regs == nil {
		regs = []models.Registration{}
	}
	return regs, &models.Pagination{Page: page, PageSize: size, TotalCount: total}
}

// Update merges the request into the stored registration.
func (s *RegistrationService) Update(ctx context.Context, principal models.Principal, id int64, req UpdateRegistrationRequest) (*models.Registration, error) {
	if err := requireAuthenticated(principal); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid registration payload")
	}
	if blank(req.Name) || blank(req.FatherName) || blank(req.Phone) || blank(req.AcademicSession) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "name, father_name, phone and academic_session cannot be empty")
	}
	if err := validateAmounts(req.FeePaid, req.FeePending, req.Concession); err != nil {
		return nil, err
	}

	patch := models.RegistrationPatch{
		Name:            trimmed(req.Name),
		FatherName:      trimmed(req.FatherName),
		CNIC:            req.CNIC,
		Phone:           trimmed(req.Phone),
		Email:           req.Email,
		Address:         req.Address,
		Gender:          req.Gender,
		AcademicSession: trimmed(req.AcademicSession),
		FeePaid:         req.FeePaid,
		FeePending:      req.FeePending,
		Concession:      req.Concession,
		Comments:        req.Comments,
	}
	reg, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "registration not found")
		}
		s.logger.Error("update registration failed", zap.Int64("registration_id", id), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to update registration")
	}
	s.cache.InvalidateReports(ctx)
	return reg, nil
}

// Delete hard deletes a registration. Only super admins may delete.
func (s *RegistrationService) Delete(ctx context.Context, principal models.Principal, id int64) error {
	if err := requireSuperAdmin(principal); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "registration not found")
		}
		s.logger.Error("delete registration failed", zap.Int64("registration_id", id), zap.Error(err))
		return appErrors.Internal(err, "failed to delete registration")
	}
	s.cache.InvalidateReports(ctx)
	return nil
}

// MarkWhatsAppSent records an outbound template message. Each type is sent at most once.
func (s *RegistrationService) MarkWhatsAppSent(ctx context.Context, principal models.Principal, id int64, msgType models.WhatsAppMessageType) error {
	if err := requireAuthenticated(principal); err != nil {
		return err
	}
	column, ok := models.RegistrationFlagColumn(msgType)
	if !ok {
		return appErrors.Clone(appErrors.ErrValidation, "unknown message type")
	}
	return mapWhatsAppError(s.logger, s.repo.MarkWhatsAppSent(ctx, id, column, msgType, principal.Name), "registration", id)
}

// Receipt builds the payment voucher for a registration. The amount received is fee_paid.
func (s *RegistrationService) Receipt(ctx context.Context, id int64, paymentMethod string) (*receipt.Voucher, error) {
	reg, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	totals := reg.Totals()
	method := strings.TrimSpace(paymentMethod)
	if method == "" {
		method = "Cash"
	}
	return &receipt.Voucher{
		InstituteName:      s.labels.InstituteName,
		InstituteAddress:   s.labels.InstituteAddress,
		InstitutePhone:     s.labels.InstitutePhone,
		ReceiptNumber:      receipt.Number(reg.ID, reg.CreatedAt),
		IssuedAt:           reg.UpdatedAt,
		StudentName:        reg.Name,
		FatherName:         reg.FatherName,
		Phone:              reg.Phone,
		AcademicSession:    reg.AcademicSession,
		PaymentMethod:      method,
		FeePaid:            reg.FeePaid,
		FeePending:         reg.FeePending,
		Concession:         reg.Concession,
		Subtotal:           totals.Subtotal,
		TotalAfterDiscount: totals.TotalAfterDiscount,
		ReceiptAmount:      totals.ReceiptAmount,
		FullyPaid:          totals.IsFullyPaid,
	}, nil
}

func validateAmounts(amounts ...*float64) error {
	for _, a := range amounts {
		if a != nil && !models.ValidAmount(*a) {
			return appErrors.Clone(appErrors.ErrValidation, "fee amounts must be non-negative numbers within ledger limits")
		}
	}
	return nil
}

func amountOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

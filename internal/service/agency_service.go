package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/institute-crm-api/internal/models"
	"github.com/noah-isme/institute-crm-api/internal/repository"
	appErrors "github.com/noah-isme/institute-crm-api/pkg/errors"
)

type agencyRepository interface {
	Create(ctx context.Context, agency *models.Agency) error
	List(ctx context.Context) ([]models.Agency, error)
	FindByID(ctx context.Context, id int64) (*models.Agency, error)
	UpdateTotals(ctx context.Context, id int64, totalStudents int, totalAmount float64) (*models.Agency, error)
	Delete(ctx context.Context, id int64) error
	RecordPayout(ctx context.Context, payout *models.AgencyPayout) (*models.Agency, error)
	ListPayouts(ctx context.Context, agencyID int64) ([]models.AgencyPayout, error)
}

// CreateAgencyRequest registers a referral partner.
type CreateAgencyRequest struct {
	Name           string  `json:"name" validate:"required"`
	ContactPerson  *string `json:"contact_person"`
	Phone          *string `json:"phone" validate:"omitempty,max=32"`
	CommissionRate float64 `json:"commission_rate" validate:"gte=0,lte=1"`
}

// UpdateAgencyTotalsRequest replaces the referral totals of an agency.
type UpdateAgencyTotalsRequest struct {
	TotalStudents int     `json:"total_students" validate:"gte=0"`
	TotalAmount   float64 `json:"total_amount" validate:"gte=0,lte=999999999999.99"`
}

// RecordPayoutRequest pays out part of an agency's earned commission.
type RecordPayoutRequest struct {
	Amount float64 `json:"amount" validate:"gt=0"`
	Note   *string `json:"note" validate:"omitempty,max=500"`
}

// AgencyDetail is an agency with its payout ledger.
type AgencyDetail struct {
	models.Agency
	Outstanding float64               `json:"outstanding"`
	Payouts     []models.AgencyPayout `json:"payouts"`
}

// AgencyService manages agencies and their commission payouts. All writes are super admin only.
type AgencyService struct {
	repo      agencyRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAgencyService constructs the agency service.
func NewAgencyService(repo agencyRepository, validate *validator.Validate, logger *zap.Logger) *AgencyService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AgencyService{repo: repo, validator: validate, logger: logger}
}

// Create adds an agency with zeroed totals.
func (s *AgencyService) Create(ctx context.Context, principal models.Principal, req CreateAgencyRequest) (*models.Agency, error) {
	if err := requireSuperAdmin(principal); err != nil {
		return nil, err
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid agency payload")
	}
	agency := &models.Agency{
		Name:           req.Name,
		ContactPerson:  optional(req.ContactPerson),
		Phone:          optional(req.Phone),
		CommissionRate: req.CommissionRate,
	}
	if err := s.repo.Create(ctx, agency); err != nil {
		s.logger.Error("create agency failed", zap.Error(err))
		return nil, appErrors.Internal(err, "failed to create agency")
	}
	return agency, nil
}

// List returns all agencies. A store failure yields an empty list.
func (s *AgencyService) List(ctx context.Context) []models.Agency {
	agencies, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("list agencies failed", zap.Error(err))
		return []models.Agency{}
	}
	return agencies
}

// Get returns an agency with its payouts.
func (s *AgencyService) Get(ctx context.Context, id int64) (*AgencyDetail, error) {
	agency, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	payouts, err := s.repo.ListPayouts(ctx, id)
	if err != nil {
		s.logger.Error("list payouts failed", zap.Int64("agency_id", id), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to load payouts")
	}
	return &AgencyDetail{Agency: *agency, Outstanding: agency.Outstanding(), Payouts: payouts}, nil
}

func (s *AgencyService) find(ctx context.Context, id int64) (*models.Agency, error) {
	agency, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "agency not found")
		}
		s.logger.Error("load agency failed", zap.Int64("agency_id", id), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to load agency")
	}
	return agency, nil
}

// UpdateTotals replaces referral totals; commission_earned is recomputed from the rate.
func (s *AgencyService) UpdateTotals(ctx context.Context, principal models.Principal, id int64, req UpdateAgencyTotalsRequest) (*models.Agency, error) {
	if err := requireSuperAdmin(principal); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid agency totals payload")
	}
	agency, err := s.repo.UpdateTotals(ctx, id, req.TotalStudents, req.TotalAmount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "agency not found")
		}
		s.logger.Error("update agency totals failed", zap.Int64("agency_id", id), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to update agency")
	}
	return agency, nil
}

// Delete removes an agency and its payout ledger.
func (s *AgencyService) Delete(ctx context.Context, principal models.Principal, id int64) error {
	if err := requireSuperAdmin(principal); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "agency not found")
		}
		s.logger.Error("delete agency failed", zap.Int64("agency_id", id), zap.Error(err))
		return appErrors.Internal(err, "failed to delete agency")
	}
	return nil
}

// RecordPayout appends a payout. The amount must be positive and no larger than
// commission_earned minus commission_paid.
func (s *AgencyService) RecordPayout(ctx context.Context, principal models.Principal, id int64, req RecordPayoutRequest) (*models.AgencyPayout, *models.Agency, error) {
	if err := requireSuperAdmin(principal); err != nil {
		return nil, nil, err
	}
	if err := s.validator.Struct(req); err != nil || !models.ValidAmount(req.Amount) {
		return nil, nil, appErrors.Validation(err, "payout amount must be greater than zero")
	}

	agency, err := s.find(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if !agency.CanPay(req.Amount) {
		return nil, nil, appErrors.Clone(appErrors.ErrInsufficientBalance, "")
	}

	payout := &models.AgencyPayout{AgencyID: id, Amount: req.Amount, Note: optional(req.Note), PaidBy: principal.Name}
	updated, err := s.repo.RecordPayout(ctx, payout)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrPayoutExceedsBalance):
			return nil, nil, appErrors.Clone(appErrors.ErrInsufficientBalance, "")
		case errors.Is(err, sql.ErrNoRows):
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "agency not found")
		}
		s.logger.Error("record payout failed", zap.Int64("agency_id", id), zap.Float64("amount", req.Amount), zap.Error(err))
		return nil, nil, appErrors.Internal(err, "failed to record payout")
	}
	s.logger.Info("agency payout recorded", zap.Int64("agency_id", id), zap.Float64("amount", req.Amount), zap.String("paid_by", principal.Name))
	return payout, updated, nil
}

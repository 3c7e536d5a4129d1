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
)

type inquiryReader interface {
	FindByID(ctx context.Context, id int64) (*models.InquiryDetail, error)
}

// ConversionSupplement holds the operator-supplied fields an inquiry does not carry.
type ConversionSupplement struct {
	FatherName      string   `json:"father_name" validate:"required"`
	CNIC            *string  `json:"cnic" validate:"omitempty,max=20"`
	Gender          *string  `json:"gender"`
	Address         *string  `json:"address"`
	AcademicSession *string  `json:"academic_session"`
	FeePaid         *float64 `json:"fee_paid"`
	FeePending      *float64 `json:"fee_pending"`
	Concession      *float64 `json:"concession"`
	Comments        *string  `json:"comments"`
}

// ConversionService materialises a registration from an inquiry. The inquiry is read
// once and never written; repeated conversions create independent registrations.
type ConversionService struct {
	inquiries     inquiryReader
	registrations *RegistrationService
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewConversionService constructs the conversion service.
func NewConversionService(inquiries inquiryReader, registrations *RegistrationService, validate *validator.Validate, logger *zap.Logger) *ConversionService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConversionService{inquiries: inquiries, registrations: registrations, validator: validate, logger: logger}
}

// Convert copies name, phone and email from the inquiry and takes everything else from the supplement.
func (s *ConversionService) Convert(ctx context.Context, principal models.Principal, inquiryID int64, supplement ConversionSupplement) (*models.Registration, error) {
	if err := requireAuthenticated(principal); err != nil {
		return nil, err
	}
	supplement.FatherName = strings.TrimSpace(supplement.FatherName)
	if err := s.validator.Struct(supplement); err != nil {
		return nil, appErrors.Validation(err, "invalid conversion payload")
	}
	if err := validateAmounts(supplement.FeePaid, supplement.FeePending, supplement.Concession); err != nil {
		return nil, err
	}

	inquiry, err := s.inquiries.FindByID(ctx, inquiryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "inquiry not found")
		}
		s.logger.Error("load inquiry for conversion failed", zap.Int64("inquiry_id", inquiryID), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to load inquiry")
	}
	if strings.TrimSpace(inquiry.Name) == "" || strings.TrimSpace(inquiry.Phone) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "inquiry is missing name or phone")
	}

	gender := optional(supplement.Gender)
	if gender == nil {
		gender = inquiry.Gender
	}
	reg := &models.Registration{
		Name:            inquiry.Name,
		FatherName:      supplement.FatherName,
		CNIC:            optional(supplement.CNIC),
		Phone:           inquiry.Phone,
		Email:           inquiry.Email,
		Address:         optional(supplement.Address),
		Gender:          gender,
		AcademicSession: s.registrations.session(supplement.AcademicSession),
		FeePaid:         amountOrZero(supplement.FeePaid),
		FeePending:      amountOrZero(supplement.FeePending),
		Concession:      amountOrZero(supplement.Concession),
		Comments:        optional(supplement.Comments),
	}
	if err := s.registrations.insert(ctx, reg, registrationSourceConversion); err != nil {
		return nil, err
	}
	s.logger.Info("inquiry converted", zap.Int64("inquiry_id", inquiryID), zap.Int64("registration_id", reg.ID))
	return reg, nil
}

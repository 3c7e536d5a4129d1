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

type inquiryRepository interface {
	Create(ctx context.Context, inquiry *models.Inquiry) error
	FindByID(ctx context.Context, id int64) (*models.InquiryDetail, error)
	List(ctx context.Context, filter models.InquiryFilter) ([]models.InquiryDetail, int, error)
	Update(ctx context.Context, id int64, patch models.InquiryPatch) (*models.Inquiry, error)
	SetRead(ctx context.Context, id int64, read bool) error
	MarkWhatsAppSent(ctx context.Context, id int64, column string, msgType models.WhatsAppMessageType, sentBy string) error
	Delete(ctx context.Context, id int64) error
}

// CreateInquiryRequest is the public inquiry form payload.
type CreateInquiryRequest struct {
	Name               string        `json:"name" validate:"required"`
	Phone              string        `json:"phone" validate:"required,max=32"`
	Email              *string       `json:"email" validate:"omitempty,email"`
	Course             models.Course `json:"course" validate:"required,oneof=MDCAT Intermediate"`
	HeardFrom          *string       `json:"heard_from"`
	Question           *string       `json:"question" validate:"omitempty,max=2000"`
	CheckboxField      bool          `json:"checkbox_field"`
	Gender             *string       `json:"gender"`
	MatricMarks        *int          `json:"matric_marks" validate:"omitempty,min=0"`
	OutOfMarks         *int          `json:"out_of_marks" validate:"omitempty,min=1"`
	IntermediateStream *string       `json:"intermediate_stream"`
}

// UpdateInquiryRequest carries a partial edit. Omitted fields are left untouched.
type UpdateInquiryRequest struct {
	Name               *string        `json:"name"`
	Phone              *string        `json:"phone" validate:"omitempty,max=32"`
	Email              *string        `json:"email" validate:"omitempty,email"`
	Course             *models.Course `json:"course" validate:"omitempty,oneof=MDCAT Intermediate"`
	HeardFrom          *string        `json:"heard_from"`
	Question           *string        `json:"question" validate:"omitempty,max=2000"`
	CheckboxField      *bool          `json:"checkbox_field"`
	Gender             *string        `json:"gender"`
	MatricMarks        *int           `json:"matric_marks" validate:"omitempty,min=0"`
	OutOfMarks         *int           `json:"out_of_marks" validate:"omitempty,min=1"`
	IntermediateStream *string        `json:"intermediate_stream"`
}

// InquiryService handles the inquiry store use-cases.
type InquiryService struct {
	repo      inquiryRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewInquiryService constructs the inquiry service.
func NewInquiryService(repo inquiryRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *InquiryService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InquiryService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// Create stores a new inquiry from the public form. It starts with no status history.
func (s *InquiryService) Create(ctx context.Context, req CreateInquiryRequest) (*models.Inquiry, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid inquiry payload")
	}
	if req.MatricMarks != nil && req.OutOfMarks != nil && *req.MatricMarks > *req.OutOfMarks {
		return nil, appErrors.Clone(appErrors.ErrValidation, "matric_marks cannot exceed out_of_marks")
	}

	inquiry := &models.Inquiry{
		Name:               req.Name,
		Phone:              req.Phone,
		Email:              optional(req.Email),
		Course:             req.Course,
		HeardFrom:          optional(req.HeardFrom),
		Question:           optional(req.Question),
		CheckboxField:      req.CheckboxField,
		Gender:             optional(req.Gender),
		MatricMarks:        req.MatricMarks,
		OutOfMarks:         req.OutOfMarks,
		IntermediateStream: optional(req.IntermediateStream),
	}
	if err := s.repo.Create(ctx, inquiry); err != nil {
		s.logger.Error("create inquiry failed", zap.Error(err))
		return nil, appErrors.Internal(err, "failed to create inquiry")
	}
	s.cache.InvalidateReports(ctx)
	return inquiry, nil
}

// Get returns an inquiry with its derived current status.
func (s *InquiryService) Get(ctx context.Context, id int64) (*models.InquiryDetail, error) {
	inquiry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "inquiry not found")
		}
		s.logger.Error("load inquiry failed", zap.Int64("inquiry_id", id), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to load inquiry")
	}
	return inquiry, nil
}

// List returns inquiries and pagination metadata. A store failure yields an empty page.
func (s *InquiryService) List(ctx context.Context, filter models.InquiryFilter) ([]models.InquiryDetail, *models.Pagination) {
	page, size := models.NormalisePage(filter.Page, filter.PageSize)
	filter.Page, filter.PageSize = page, size

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("list inquiries failed", zap.Error(err))
		return []models.InquiryDetail{}, &models.Pagination{Page: page, PageSize: size}
	}
	if items == nil {
		items = []models.InquiryDetail{}
	}
	return items, &models.Pagination{Page: page, PageSize: size, TotalCount: total}
}

// Update applies a partial edit to contact and qualification fields.
func (s *InquiryService) Update(ctx context.Context, id int64, req UpdateInquiryRequest) (*models.Inquiry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid inquiry payload")
	}
	if blank(req.Name) || blank(req.Phone) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "name and phone cannot be empty")
	}

	patch := models.InquiryPatch{
		Name:               trimmed(req.Name),
		Phone:              trimmed(req.Phone),
		Email:              trimmed(req.Email),
		Course:             req.Course,
		HeardFrom:          req.HeardFrom,
		Question:           req.Question,
		CheckboxField:      req.CheckboxField,
		Gender:             req.Gender,
		MatricMarks:        req.MatricMarks,
		OutOfMarks:         req.OutOfMarks,
		IntermediateStream: req.IntermediateStream,
	}
	inquiry, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "inquiry not found")
		}
		s.logger.Error("update inquiry failed", zap.Int64("inquiry_id", id), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to update inquiry")
	}
	s.cache.InvalidateReports(ctx)
	return inquiry, nil
}

// MarkRead sets the read flag.
func (s *InquiryService) MarkRead(ctx context.Context, id int64, read bool) error {
	if err := s.repo.SetRead(ctx, id, read); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "inquiry not found")
		}
		s.logger.Error("mark inquiry read failed", zap.Int64("inquiry_id", id), zap.Error(err))
		return appErrors.Internal(err, "failed to update inquiry")
	}
	return nil
}

// MarkWhatsAppSent records an outbound template message. Each type is sent at most once.
func (s *InquiryService) MarkWhatsAppSent(ctx context.Context, principal models.Principal, id int64, msgType models.WhatsAppMessageType) error {
	if err := requireAuthenticated(principal); err != nil {
		return err
	}
	column, ok := models.InquiryFlagColumn(msgType)
	if !ok {
		return appErrors.Clone(appErrors.ErrValidation, "unknown message type")
	}
	return mapWhatsAppError(s.logger, s.repo.MarkWhatsAppSent(ctx, id, column, msgType, principal.Name), "inquiry", id)
}

// Delete hard deletes an inquiry and its status history. Only super admins may delete.
func (s *InquiryService) Delete(ctx context.Context, principal models.Principal, id int64) error {
	if err := requireSuperAdmin(principal); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "inquiry not found")
		}
		s.logger.Error("delete inquiry failed", zap.Int64("inquiry_id", id), zap.Error(err))
		return appErrors.Internal(err, "failed to delete inquiry")
	}
	s.cache.InvalidateReports(ctx)
	return nil
}

func mapWhatsAppError(logger *zap.Logger, err error, resource string, id int64) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.Clone(appErrors.ErrNotFound, resource+" not found")
	case errors.Is(err, repository.ErrAlreadySent):
		return appErrors.Clone(appErrors.ErrConflict, "message already sent")
	default:
		logger.Error("mark whatsapp sent failed", zap.String("resource", resource), zap.Int64("id", id), zap.Error(err))
		return appErrors.Internal(err, "failed to record whatsapp message")
	}
}

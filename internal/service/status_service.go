package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/institute-crm-api/internal/dto"
	"github.com/noah-isme/institute-crm-api/internal/models"
	"github.com/noah-isme/institute-crm-api/internal/repository"
	appErrors "github.com/noah-isme/institute-crm-api/pkg/errors"
)

type statusHistoryRepository interface {
	Append(ctx context.Context, entry *models.StatusHistoryEntry) error
	ListByInquiry(ctx context.Context, inquiryID int64) ([]models.StatusHistoryEntry, error)
	CurrentStatusCounts(ctx context.Context) ([]models.StatusCount, error)
	UpdateCounts(ctx context.Context) ([]models.StatusCount, error)
	TopUpdaters(ctx context.Context, limit int) ([]models.UpdaterCount, error)
	Count(ctx context.Context) (int, error)
}

type inquiryCounter interface {
	Exists(ctx context.Context, id int64) (bool, error)
	Count(ctx context.Context) (int, error)
}

// AppendStatusRequest records one status transition. Reasons only apply to not_interested.
type AppendStatusRequest struct {
	Status   models.InquiryStatus `json:"status" validate:"required,inquiry_status"`
	Comments *string              `json:"comments" validate:"omitempty,max=4000"`
	Reasons  []string             `json:"reasons" validate:"omitempty,dive,max=200"`
}

// StatusService is the status history engine. The log is append-only and the
// current status of an inquiry is always derived from it.
type StatusService struct {
	history   statusHistoryRepository
	inquiries inquiryCounter
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStatusService constructs the status service.
func NewStatusService(history statusHistoryRepository, inquiries inquiryCounter, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *StatusService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatusService{history: history, inquiries: inquiries, cache: cache, metrics: metrics, validator: validate, logger: logger}
}

// Append inserts a new history entry for the inquiry. Any status may follow any other.
// The acting operator's display name is recorded as updated_by.
func (s *StatusService) Append(ctx context.Context, principal models.Principal, inquiryID int64, req AppendStatusRequest) (*models.StatusHistoryEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid status payload")
	}
	updatedBy := strings.TrimSpace(principal.Name)
	if updatedBy == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "updated_by is required")
	}

	exists, err := s.inquiries.Exists(ctx, inquiryID)
	if err != nil {
		s.logger.Error("check inquiry failed", zap.Int64("inquiry_id", inquiryID), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to append status")
	}
	if !exists {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "inquiry not found")
	}

	entry := &models.StatusHistoryEntry{
		InquiryID: inquiryID,
		Status:    req.Status,
		Comments:  statusComments(req),
		UpdatedBy: updatedBy,
	}
	if err := s.history.Append(ctx, entry); err != nil {
		if repository.IsForeignKeyViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "inquiry not found")
		}
		s.logger.Error("append status failed", zap.Int64("inquiry_id", inquiryID), zap.String("status", string(req.Status)), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to append status")
	}

	s.metrics.RecordStatusAppend(entry.Status)
	s.cache.InvalidateReports(ctx)
	s.logger.Info("inquiry status appended",
		zap.Int64("inquiry_id", inquiryID),
		zap.String("status", string(entry.Status)),
		zap.String("updated_by", updatedBy))
	return entry, nil
}

// statusComments keeps the supplied comments. For not_interested with reasons and no
// comments, the reasons block is synthesised.
func statusComments(req AppendStatusRequest) *string {
	if req.Comments != nil && strings.TrimSpace(*req.Comments) != "" {
		return req.Comments
	}
	if req.Status == models.StatusNotInterested && hasReason(req.Reasons) {
		block := models.NotInterestedComment(req.Reasons)
		return &block
	}
	return req.Comments
}

func hasReason(reasons []string) bool {
	for _, r := range reasons {
		if strings.TrimSpace(r) != "" {
			return true
		}
	}
	return false
}

// History returns the inquiry's log newest first. An inquiry without history yields an empty slice.
func (s *StatusService) History(ctx context.Context, inquiryID int64) ([]models.StatusHistoryEntry, error) {
	exists, err := s.inquiries.Exists(ctx, inquiryID)
	if err != nil {
		s.logger.Error("check inquiry failed", zap.Int64("inquiry_id", inquiryID), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to load status history")
	}
	if !exists {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "inquiry not found")
	}
	entries, err := s.history.ListByInquiry(ctx, inquiryID)
	if err != nil {
		s.logger.Error("list status history failed", zap.Int64("inquiry_id", inquiryID), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to load status history")
	}
	if entries == nil {
		entries = []models.StatusHistoryEntry{}
	}
	return entries, nil
}

// Current derives the inquiry's status from the head of its history.
func (s *StatusService) Current(ctx context.Context, inquiryID int64) (models.InquiryStatus, error) {
	entries, err := s.History(ctx, inquiryID)
	if err != nil {
		return "", err
	}
	return CurrentStatus(entries), nil
}

// CurrentStatus returns the status of the newest entry, or StatusNone for an empty history.
// entries must be ordered newest first.
func CurrentStatus(entries []models.StatusHistoryEntry) models.InquiryStatus {
	if len(entries) == 0 {
		return models.StatusNone
	}
	return entries[0].Status
}

// Distribution counts inquiries by current status, including those with no history.
func (s *StatusService) Distribution(ctx context.Context) (dto.InquiryStatusReport, error) {
	counts, err := s.history.CurrentStatusCounts(ctx)
	if err != nil {
		return dto.InquiryStatusReport{}, appErrors.Internal(err, "failed to compute status distribution")
	}
	total := 0
	for _, c := range counts {
		total += c.Count
	}
	return dto.InquiryStatusReport{TotalInquiries: total, Distribution: models.BuildStatusDistribution(counts)}, nil
}

// UpdateCounts counts every recorded transition per status.
func (s *StatusService) UpdateCounts(ctx context.Context) ([]models.StatusCount, error) {
	counts, err := s.history.UpdateCounts(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to count status updates")
	}
	if counts == nil {
		counts = []models.StatusCount{}
	}
	return counts, nil
}

// TopUpdaters ranks operators by recorded entries.
func (s *StatusService) TopUpdaters(ctx context.Context, limit int) ([]models.UpdaterCount, error) {
	if limit <= 0 {
		limit = 10
	}
	updaters, err := s.history.TopUpdaters(ctx, limit)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to rank updaters")
	}
	if updaters == nil {
		updaters = []models.UpdaterCount{}
	}
	return updaters, nil
}

// BurnUnburnStats computes the burn metric from total inquiries and total history entries.
func (s *StatusService) BurnUnburnStats(ctx context.Context) (models.BurnStats, error) {
	inquiries, err := s.inquiries.Count(ctx)
	if err != nil {
		return models.BurnStats{}, appErrors.Internal(err, "failed to count inquiries")
	}
	burns, err := s.history.Count(ctx)
	if err != nil {
		return models.BurnStats{}, appErrors.Internal(err, "failed to count status updates")
	}
	return models.ComputeBurnStats(inquiries, burns), nil
}

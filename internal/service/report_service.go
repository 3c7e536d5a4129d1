package service

import (
	"context"
	"math"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/institute-crm-api/internal/dto"
	"github.com/noah-isme/institute-crm-api/internal/models"
)

const (
	reportKeyInquiryStatus = reportCachePrefix + "inquiry_status"
	reportKeyButtonStats   = reportCachePrefix + "button_stats"
	reportKeyConversions   = reportCachePrefix + "conversions"
	reportKeyFees          = reportCachePrefix + "fees"

	defaultTopUpdaters = 10
)

type statusReporter interface {
	Distribution(ctx context.Context) (dto.InquiryStatusReport, error)
	UpdateCounts(ctx context.Context) ([]models.StatusCount, error)
	TopUpdaters(ctx context.Context, limit int) ([]models.UpdaterCount, error)
	BurnUnburnStats(ctx context.Context) (models.BurnStats, error)
}

type reportRepository interface {
	ConversionCounts(ctx context.Context) (*dto.ConversionReport, error)
	FeeTotals(ctx context.Context) (*dto.FeeSummary, error)
}

// ReportService serves the dashboard reports. Every report degrades to an empty
// result when the store fails; errors are logged and counted but never returned.
type ReportService struct {
	status  statusReporter
	repo    reportRepository
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
	top     int
}

// NewReportService constructs the report service.
func NewReportService(status statusReporter, repo reportRepository, cache *CacheService, metrics *MetricsService, logger *zap.Logger, topUpdaters int) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if topUpdaters <= 0 {
		topUpdaters = defaultTopUpdaters
	}
	return &ReportService{status: status, repo: repo, cache: cache, metrics: metrics, logger: logger, top: topUpdaters}
}

// InquiryStatus returns the current-status distribution.
func (s *ReportService) InquiryStatus(ctx context.Context) dto.InquiryStatusReport {
	report, _, err := cached(ctx, s.cache, reportKeyInquiryStatus, s.status.Distribution)
	if err != nil {
		s.degraded("inquiry_status", err)
		return dto.InquiryStatusReport{Distribution: []models.StatusBucket{}}
	}
	if report.Distribution == nil {
		report.Distribution = []models.StatusBucket{}
	}
	return report
}

// ButtonStats gathers status-update activity. The three sources are queried concurrently
// and any failure zeroes the whole response.
func (s *ReportService) ButtonStats(ctx context.Context) dto.ButtonStatsResponse {
	stats, _, err := cached(ctx, s.cache, reportKeyButtonStats, s.loadButtonStats)
	if err != nil {
		s.degraded("button_stats", err)
		return emptyButtonStats()
	}
	return stats
}

func (s *ReportService) loadButtonStats(ctx context.Context) (dto.ButtonStatsResponse, error) {
	var (
		counts   []models.StatusCount
		updaters []models.UpdaterCount
		burns    models.BurnStats
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		counts, err = s.status.UpdateCounts(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		updaters, err = s.status.TopUpdaters(gctx, s.top)
		return err
	})
	g.Go(func() error {
		var err error
		burns, err = s.status.BurnUnburnStats(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return dto.ButtonStatsResponse{}, err
	}
	if counts == nil {
		counts = []models.StatusCount{}
	}
	if updaters == nil {
		updaters = []models.UpdaterCount{}
	}
	return dto.ButtonStatsResponse{
		TotalBurns:         burns.TotalBurns,
		TopUpdaters:        updaters,
		StatusUpdateCounts: counts,
		BurnStats:          burns,
	}, nil
}

func emptyButtonStats() dto.ButtonStatsResponse {
	return dto.ButtonStatsResponse{
		TopUpdaters:        []models.UpdaterCount{},
		StatusUpdateCounts: []models.StatusCount{},
		BurnStats:          models.ComputeBurnStats(0, 0),
	}
}

// Conversions estimates how many inquiries became registrations, matched by phone.
func (s *ReportService) Conversions(ctx context.Context) dto.ConversionReport {
	report, _, err := cached(ctx, s.cache, reportKeyConversions, func(ctx context.Context) (dto.ConversionReport, error) {
		counts, err := s.repo.ConversionCounts(ctx)
		if err != nil {
			return dto.ConversionReport{}, err
		}
		if counts.TotalInquiries > 0 {
			counts.ConversionRate = round2(float64(counts.ConvertedInquiries) / float64(counts.TotalInquiries) * 100)
		}
		return *counts, nil
	})
	if err != nil {
		s.degraded("conversions", err)
		return dto.ConversionReport{}
	}
	return report
}

// Fees sums the registration fee ledger.
func (s *ReportService) Fees(ctx context.Context) dto.FeeSummary {
	summary, _, err := cached(ctx, s.cache, reportKeyFees, func(ctx context.Context) (dto.FeeSummary, error) {
		totals, err := s.repo.FeeTotals(ctx)
		if err != nil {
			return dto.FeeSummary{}, err
		}
		totals.NetAfterDiscount = round2(totals.TotalPaid + totals.TotalPending - totals.TotalConcession)
		return *totals, nil
	})
	if err != nil {
		s.degraded("fees", err)
		return dto.FeeSummary{}
	}
	return summary
}

func (s *ReportService) degraded(report string, err error) {
	s.logger.Error("report degraded to empty result", zap.String("report", report), zap.Error(err))
	s.metrics.RecordReportDegraded(report)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

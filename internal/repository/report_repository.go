package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/institute-crm-api/internal/dto"
)

// ReportRepository runs read-only aggregate queries across inquiries and registrations.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository constructs the repository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// ConversionCounts infers conversions by matching phone numbers, since registrations keep no inquiry reference.
func (r *ReportRepository) ConversionCounts(ctx context.Context) (*dto.ConversionReport, error) {
	const query = `SELECT
        (SELECT COUNT(*) FROM inquiries) AS total_inquiries,
        (SELECT COUNT(*) FROM registrations) AS total_registrations,
        (SELECT COUNT(DISTINCT i.id) FROM inquiries i
            WHERE EXISTS (SELECT 1 FROM registrations r WHERE r.phone = i.phone)) AS converted_inquiries`
	var report dto.ConversionReport
	if err := r.db.GetContext(ctx, &report, query); err != nil {
		return nil, fmt.Errorf("conversion counts: %w", err)
	}
	return &report, nil
}

// FeeTotals sums the stored ledger fields across all registrations.
func (r *ReportRepository) FeeTotals(ctx context.Context) (*dto.FeeSummary, error) {
	const query = `SELECT COUNT(*) AS registrations,
        COALESCE(SUM(fee_paid), 0) AS total_paid,
        COALESCE(SUM(fee_pending), 0) AS total_pending,
        COALESCE(SUM(concession), 0) AS total_concession,
        COUNT(*) FILTER (WHERE fee_pending = 0) AS fully_paid
        FROM registrations`
	var summary dto.FeeSummary
	if err := r.db.GetContext(ctx, &summary, query); err != nil {
		return nil, fmt.Errorf("fee totals: %w", err)
	}
	return &summary, nil
}

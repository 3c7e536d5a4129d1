package dto

import "github.com/noah-isme/institute-crm-api/internal/models"

// InquiryStatusReport is the current-status distribution across all inquiries.
type InquiryStatusReport struct {
	TotalInquiries int                   `json:"total_inquiries"`
	Distribution   []models.StatusBucket `json:"distribution"`
}

// ButtonStatsResponse aggregates status-update activity for the dashboard.
type ButtonStatsResponse struct {
	TotalBurns         int                   `json:"total_burns"`
	TopUpdaters        []models.UpdaterCount `json:"top_updaters"`
	StatusUpdateCounts []models.StatusCount  `json:"status_update_counts"`
	BurnStats          models.BurnStats      `json:"burn_stats"`
}

// ConversionReport estimates inquiry to registration conversion by phone match.
type ConversionReport struct {
	TotalInquiries     int     `db:"total_inquiries" json:"total_inquiries"`
	TotalRegistrations int     `db:"total_registrations" json:"total_registrations"`
	ConvertedInquiries int     `db:"converted_inquiries" json:"converted_inquiries"`
	ConversionRate     float64 `db:"-" json:"conversion_rate"`
}

// FeeSummary sums the fee ledger across registrations.
type FeeSummary struct {
	Registrations    int     `db:"registrations" json:"registrations"`
	TotalPaid        float64 `db:"total_paid" json:"total_paid"`
	TotalPending     float64 `db:"total_pending" json:"total_pending"`
	TotalConcession  float64 `db:"total_concession" json:"total_concession"`
	FullyPaid        int     `db:"fully_paid" json:"fully_paid"`
	NetAfterDiscount float64 `db:"-" json:"net_after_discount"`
}

// ExportFormat selects the registrations export encoding.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportResult is a rendered export ready to be sent as an attachment.
type ExportResult struct {
	Filename    string
	ContentType string
	Body        []byte
}

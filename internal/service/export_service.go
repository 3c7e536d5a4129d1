package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/institute-crm-api/internal/dto"
	"github.com/noah-isme/institute-crm-api/internal/models"
	appErrors "github.com/noah-isme/institute-crm-api/pkg/errors"
	"github.com/noah-isme/institute-crm-api/pkg/export"
	"github.com/noah-isme/institute-crm-api/pkg/receipt"
)

type registrationLister interface {
	ListAll(ctx context.Context) ([]models.Registration, error)
}

type voucherSource interface {
	Receipt(ctx context.Context, id int64, paymentMethod string) (*receipt.Voucher, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ReceiptFormat selects how a payment voucher is rendered.
type ReceiptFormat string

const (
	ReceiptFormatHTML ReceiptFormat = "html"
	ReceiptFormatPDF  ReceiptFormat = "pdf"
)

var registrationExportHeaders = []string{
	"ID", "Name", "Father Name", "Phone", "Email", "Academic Session",
	"Fee Paid", "Fee Pending", "Concession", "Total After Discount", "Fully Paid", "Created At",
}

// ExportService renders registration exports and payment vouchers.
type ExportService struct {
	registrations registrationLister
	vouchers      voucherSource
	csv           csvRenderer
	pdf           pdfRenderer
	logger        *zap.Logger
	now           func() time.Time
}

// NewExportService constructs an ExportService. Nil renderers fall back to the defaults.
func NewExportService(registrations registrationLister, vouchers voucherSource, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		registrations: registrations,
		vouchers:      vouchers,
		csv:           csv,
		pdf:           pdf,
		logger:        logger,
		now:           time.Now,
	}
}

// Registrations exports every registration with its ledger totals. Super admin only.
func (s *ExportService) Registrations(ctx context.Context, principal models.Principal, format dto.ExportFormat) (*dto.ExportResult, error) {
	if err := requireSuperAdmin(principal); err != nil {
		return nil, err
	}
	if format == "" {
		format = dto.ExportFormatCSV
	}
	if format != dto.ExportFormatCSV && format != dto.ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	regs, err := s.registrations.ListAll(ctx)
	if err != nil {
		s.logger.Error("load registrations for export failed", zap.Error(err))
		return nil, appErrors.Internal(err, "failed to load registrations")
	}
	dataset := registrationDataset(regs)

	var (
		body        []byte
		contentType string
	)
	switch format {
	case dto.ExportFormatPDF:
		body, err = s.pdf.Render(dataset, "Registrations")
		contentType = "application/pdf"
	default:
		body, err = s.csv.Render(dataset)
		contentType = "text/csv; charset=utf-8"
	}
	if err != nil {
		s.logger.Error("render registrations export failed", zap.String("format", string(format)), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to render export")
	}

	return &dto.ExportResult{
		Filename:    fmt.Sprintf("registrations_%s.%s", s.now().UTC().Format("20060102_150405"), format),
		ContentType: contentType,
		Body:        body,
	}, nil
}

func registrationDataset(regs []models.Registration) export.Dataset {
	rows := make([]map[string]string, 0, len(regs))
	for _, reg := range regs {
		totals := reg.Totals()
		rows = append(rows, map[string]string{
			"ID":                   strconv.FormatInt(reg.ID, 10),
			"Name":                 reg.Name,
			"Father Name":          reg.FatherName,
			"Phone":                reg.Phone,
			"Email":                deref(reg.Email),
			"Academic Session":     reg.AcademicSession,
			"Fee Paid":             receipt.FormatAmount(reg.FeePaid),
			"Fee Pending":          receipt.FormatAmount(reg.FeePending),
			"Concession":           receipt.FormatAmount(reg.Concession),
			"Total After Discount": receipt.FormatAmount(totals.TotalAfterDiscount),
			"Fully Paid":           strconv.FormatBool(totals.IsFullyPaid),
			"Created At":           reg.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return export.Dataset{Headers: registrationExportHeaders, Rows: rows}
}

// Receipt renders the payment voucher of a registration as HTML or PDF.
func (s *ExportService) Receipt(ctx context.Context, id int64, paymentMethod string, format ReceiptFormat) (*dto.ExportResult, error) {
	if format == "" {
		format = ReceiptFormatHTML
	}
	if format != ReceiptFormatHTML && format != ReceiptFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be html or pdf")
	}
	voucher, err := s.vouchers.Receipt(ctx, id, paymentMethod)
	if err != nil {
		return nil, err
	}

	result := &dto.ExportResult{Filename: fmt.Sprintf("%s.%s", voucher.ReceiptNumber, format)}
	if format == ReceiptFormatPDF {
		result.Body, err = export.RenderReceipt(*voucher)
		result.ContentType = "application/pdf"
	} else {
		result.Body, err = receipt.RenderHTML(*voucher)
		result.ContentType = "text/html; charset=utf-8"
	}
	if err != nil {
		s.logger.Error("render receipt failed", zap.Int64("registration_id", id), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to render receipt")
	}
	return result, nil
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/institute-crm-api/internal/dto"
	"github.com/noah-isme/institute-crm-api/internal/middleware"
	"github.com/noah-isme/institute-crm-api/pkg/response"
)

type reportService interface {
	InquiryStatus(ctx context.Context) dto.InquiryStatusReport
	ButtonStats(ctx context.Context) dto.ButtonStatsResponse
	Conversions(ctx context.Context) dto.ConversionReport
	Fees(ctx context.Context) dto.FeeSummary
}

// ReportHandler serves dashboard reports. Reports never fail: a store outage yields empty values.
type ReportHandler struct {
	reports reportService
}

// NewReportHandler constructs the handler.
func NewReportHandler(reports reportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// InquiryStatus godoc
// @Summary Current status distribution
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /reports/inquiry-status [get]
func (h *ReportHandler) InquiryStatus(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.reports.InquiryStatus(c.Request.Context()), nil, middleware.ExtractMeta(c))
}

// ButtonStats godoc
// @Summary Status update activity
// @Description Update counts per status, top updaters and the burn/unburn metric.
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /reports/inquiry-button-stats [get]
func (h *ReportHandler) ButtonStats(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.reports.ButtonStats(c.Request.Context()), nil, middleware.ExtractMeta(c))
}

// Conversions godoc
// @Summary Inquiry to registration conversion
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /reports/conversions [get]
func (h *ReportHandler) Conversions(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.reports.Conversions(c.Request.Context()), nil, middleware.ExtractMeta(c))
}

// Fees godoc
// @Summary Fee ledger summary
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /reports/fees [get]
func (h *ReportHandler) Fees(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.reports.Fees(c.Request.Context()), nil, middleware.ExtractMeta(c))
}

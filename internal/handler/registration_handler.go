package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/institute-crm-api/internal/dto"
	"github.com/noah-isme/institute-crm-api/internal/models"
	"github.com/noah-isme/institute-crm-api/internal/service"
	"github.com/noah-isme/institute-crm-api/pkg/response"
)

type registrationService interface {
	Create(ctx context.Context, principal models.Principal, req service.CreateRegistrationRequest) (*models.Registration, error)
	Get(ctx context.Context, id int64) (*models.Registration, error)
	List(ctx context.Context, filter models.RegistrationFilter) ([]models.Registration, *models.Pagination)
	Update(ctx context.Context, principal models.Principal, id int64, req service.UpdateRegistrationRequest) (*models.Registration, error)
	Delete(ctx context.Context, principal models.Principal, id int64) error
	MarkWhatsAppSent(ctx context.Context, principal models.Principal, id int64, msgType models.WhatsAppMessageType) error
}

type conversionService interface {
	Convert(ctx context.Context, principal models.Principal, inquiryID int64, supplement service.ConversionSupplement) (*models.Registration, error)
}

type documentService interface {
	Receipt(ctx context.Context, id int64, paymentMethod string, format service.ReceiptFormat) (*dto.ExportResult, error)
	Registrations(ctx context.Context, principal models.Principal, format dto.ExportFormat) (*dto.ExportResult, error)
}

// createRegistrationPayload converts the inquiry named by inquiry_id when present,
// otherwise creates a registration directly.
type createRegistrationPayload struct {
	InquiryID *int64 `json:"inquiry_id"`
	service.CreateRegistrationRequest
}

func (p createRegistrationPayload) supplement() service.ConversionSupplement {
	return service.ConversionSupplement{
		FatherName:      p.FatherName,
		CNIC:            p.CNIC,
		Gender:          p.Gender,
		Address:         p.Address,
		AcademicSession: p.AcademicSession,
		FeePaid:         p.FeePaid,
		FeePending:      p.FeePending,
		Concession:      p.Concession,
		Comments:        p.Comments,
	}
}

// RegistrationHandler exposes registration and fee ledger endpoints.
type RegistrationHandler struct {
	registrations registrationService
	conversions   conversionService
	documents     documentService
}

// NewRegistrationHandler constructs RegistrationHandler.
func NewRegistrationHandler(registrations registrationService, conversions conversionService, documents documentService) *RegistrationHandler {
	return &RegistrationHandler{registrations: registrations, conversions: conversions, documents: documents}
}

// Create godoc
// @Summary Create registration
// @Description Creates a registration. When inquiry_id is set the inquiry's name, phone and email are copied.
// @Tags Registrations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body createRegistrationPayload true "Registration payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /registrations [post]
func (h *RegistrationHandler) Create(c *gin.Context) {
	var payload createRegistrationPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, bindError(err))
		return
	}
	var (
		reg *models.Registration
		err error
	)
	if payload.InquiryID != nil {
		reg, err = h.conversions.Convert(c.Request.Context(), principalFromContext(c), *payload.InquiryID, payload.supplement())
	} else {
		reg, err = h.registrations.Create(c.Request.Context(), principalFromContext(c), payload.CreateRegistrationRequest)
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, reg.WithTotals())
}

// List godoc
// @Summary List registrations
// @Tags Registrations
// @Produce json
// @Security BearerAuth
// @Param search query string false "Search by name, father name, phone or CNIC"
// @Param academic_session query string false "Academic session"
// @Param fully_paid query bool false "Only fully paid or only pending"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /registrations [get]
func (h *RegistrationHandler) List(c *gin.Context) {
	var filter models.RegistrationFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.AcademicSession = strings.TrimSpace(c.Query("academic_session"))
	filter.FullyPaid = queryBool(c, "fully_paid")
	filter.Page, filter.PageSize = queryPage(c)
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	regs, pagination := h.registrations.List(c.Request.Context(), filter)
	items := make([]models.RegistrationWithTotals, 0, len(regs))
	for _, reg := range regs {
		items = append(items, reg.WithTotals())
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get registration
// @Tags Registrations
// @Produce json
// @Security BearerAuth
// @Param id path int true "Registration ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /registrations/{id} [get]
func (h *RegistrationHandler) Get(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	reg, err := h.registrations.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reg.WithTotals(), nil)
}

// Update godoc
// @Summary Update registration
// @Description Omitted fields keep their value. Ledger amounts are never rebalanced.
// @Tags Registrations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Registration ID"
// @Param payload body service.UpdateRegistrationRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Router /registrations/{id} [patch]
func (h *RegistrationHandler) Update(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.UpdateRegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	reg, err := h.registrations.Update(c.Request.Context(), principalFromContext(c), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reg.WithTotals(), nil)
}

// Delete godoc
// @Summary Delete registration
// @Description Super admin only.
// @Tags Registrations
// @Security BearerAuth
// @Param id path int true "Registration ID"
// @Success 204
// @Failure 403 {object} response.Envelope
// @Router /registrations/{id} [delete]
func (h *RegistrationHandler) Delete(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.registrations.Delete(c.Request.Context(), principalFromContext(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// MarkWhatsApp godoc
// @Summary Record a WhatsApp template message
// @Tags Registrations
// @Accept json
// @Security BearerAuth
// @Param id path int true "Registration ID"
// @Param payload body whatsAppRequest true "welcome, payment or reminder"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /registrations/{id}/whatsapp [post]
func (h *RegistrationHandler) MarkWhatsApp(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req whatsAppRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	if err := h.registrations.MarkWhatsAppSent(c.Request.Context(), principalFromContext(c), id, req.Type); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Receipt godoc
// @Summary Payment voucher
// @Description Renders the fee receipt of a registration. The amount received is fee_paid.
// @Tags Registrations
// @Produce html
// @Produce application/pdf
// @Security BearerAuth
// @Param id path int true "Registration ID"
// @Param paymentMethod query string false "Defaults to Cash"
// @Param format query string false "html or pdf"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /registrations/{id}/pdf [get]
func (h *RegistrationHandler) Receipt(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	format := service.ReceiptFormat(strings.ToLower(c.DefaultQuery("format", string(service.ReceiptFormatHTML))))
	doc, err := h.documents.Receipt(c.Request.Context(), id, c.Query("paymentMethod"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, doc.ContentType, doc.Filename, doc.Body, format == service.ReceiptFormatHTML)
}

// Export godoc
// @Summary Export registrations
// @Description Super admin only.
// @Tags Reports
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Router /reports/registrations/export [get]
func (h *RegistrationHandler) Export(c *gin.Context) {
	format := dto.ExportFormat(strings.ToLower(c.DefaultQuery("format", string(dto.ExportFormatCSV))))
	doc, err := h.documents.Registrations(c.Request.Context(), principalFromContext(c), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, doc.ContentType, doc.Filename, doc.Body, false)
}

package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/institute-crm-api/internal/models"
	"github.com/noah-isme/institute-crm-api/internal/service"
	"github.com/noah-isme/institute-crm-api/pkg/response"
)

type inquiryService interface {
	Create(ctx context.Context, req service.CreateInquiryRequest) (*models.Inquiry, error)
	Get(ctx context.Context, id int64) (*models.InquiryDetail, error)
	List(ctx context.Context, filter models.InquiryFilter) ([]models.InquiryDetail, *models.Pagination)
	Update(ctx context.Context, id int64, req service.UpdateInquiryRequest) (*models.Inquiry, error)
	MarkRead(ctx context.Context, id int64, read bool) error
	MarkWhatsAppSent(ctx context.Context, principal models.Principal, id int64, msgType models.WhatsAppMessageType) error
	Delete(ctx context.Context, principal models.Principal, id int64) error
}

type markReadRequest struct {
	IsRead *bool `json:"is_read"`
}

type whatsAppRequest struct {
	Type models.WhatsAppMessageType `json:"type" binding:"required"`
}

// InquiryHandler exposes inquiry endpoints.
type InquiryHandler struct {
	inquiries inquiryService
}

// NewInquiryHandler constructs InquiryHandler.
func NewInquiryHandler(inquiries inquiryService) *InquiryHandler {
	return &InquiryHandler{inquiries: inquiries}
}

// Create godoc
// @Summary Submit inquiry
// @Description Public inquiry form submission
// @Tags Inquiries
// @Accept json
// @Produce json
// @Param payload body service.CreateInquiryRequest true "Inquiry payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /inquiries [post]
func (h *InquiryHandler) Create(c *gin.Context) {
	var req service.CreateInquiryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	inquiry, err := h.inquiries.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, inquiry)
}

// List godoc
// @Summary List inquiries
// @Tags Inquiries
// @Produce json
// @Security BearerAuth
// @Param search query string false "Search by name, phone or email"
// @Param course query string false "MDCAT or Intermediate"
// @Param status query string false "Current status"
// @Param is_read query bool false "Read state"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Param sort query string false "created_at, updated_at or name"
// @Param order query string false "asc or desc"
// @Success 200 {object} response.Envelope
// @Router /inquiries [get]
func (h *InquiryHandler) List(c *gin.Context) {
	var filter models.InquiryFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.Course = models.Course(strings.TrimSpace(c.Query("course")))
	filter.Status = models.InquiryStatus(strings.TrimSpace(c.Query("status")))
	filter.IsRead = queryBool(c, "is_read")
	filter.Page, filter.PageSize = queryPage(c)
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	items, pagination := h.inquiries.List(c.Request.Context(), filter)
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get inquiry detail
// @Tags Inquiries
// @Produce json
// @Security BearerAuth
// @Param id path int true "Inquiry ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /inquiries/{id} [get]
func (h *InquiryHandler) Get(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	inquiry, err := h.inquiries.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, inquiry, nil)
}

// Update godoc
// @Summary Update inquiry
// @Tags Inquiries
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Inquiry ID"
// @Param payload body service.UpdateInquiryRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Router /inquiries/{id} [patch]
func (h *InquiryHandler) Update(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.UpdateInquiryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	inquiry, err := h.inquiries.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, inquiry, nil)
}

// MarkRead godoc
// @Summary Set inquiry read state
// @Tags Inquiries
// @Accept json
// @Security BearerAuth
// @Param id path int true "Inquiry ID"
// @Param payload body markReadRequest false "Defaults to read"
// @Success 204
// @Router /inquiries/{id}/read [patch]
func (h *InquiryHandler) MarkRead(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req markReadRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, bindError(err))
			return
		}
	}
	read := req.IsRead == nil || *req.IsRead
	if err := h.inquiries.MarkRead(c.Request.Context(), id, read); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// MarkWhatsApp godoc
// @Summary Record a WhatsApp template message
// @Tags Inquiries
// @Accept json
// @Security BearerAuth
// @Param id path int true "Inquiry ID"
// @Param payload body whatsAppRequest true "welcome, followup or reminder"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /inquiries/{id}/whatsapp [post]
func (h *InquiryHandler) MarkWhatsApp(c *gin.Context) {
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
	if err := h.inquiries.MarkWhatsAppSent(c.Request.Context(), principalFromContext(c), id, req.Type); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Delete godoc
// @Summary Delete inquiry
// @Description Deletes the inquiry and its status history. Super admin only.
// @Tags Inquiries
// @Security BearerAuth
// @Param id path int true "Inquiry ID"
// @Success 204
// @Failure 403 {object} response.Envelope
// @Router /inquiries/{id} [delete]
func (h *InquiryHandler) Delete(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.inquiries.Delete(c.Request.Context(), principalFromContext(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

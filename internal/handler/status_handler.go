package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/institute-crm-api/internal/models"
	"github.com/noah-isme/institute-crm-api/internal/service"
	"github.com/noah-isme/institute-crm-api/pkg/response"
)

type statusService interface {
	Append(ctx context.Context, principal models.Principal, inquiryID int64, req service.AppendStatusRequest) (*models.StatusHistoryEntry, error)
	History(ctx context.Context, inquiryID int64) ([]models.StatusHistoryEntry, error)
}

// StatusHistoryResponse is an inquiry's log with its derived current status.
type StatusHistoryResponse struct {
	InquiryID     int64                       `json:"inquiry_id"`
	CurrentStatus models.InquiryStatus        `json:"current_status"`
	History       []models.StatusHistoryEntry `json:"history"`
}

// StatusHandler exposes the status history endpoints of an inquiry.
type StatusHandler struct {
	statuses statusService
}

// NewStatusHandler constructs StatusHandler.
func NewStatusHandler(statuses statusService) *StatusHandler {
	return &StatusHandler{statuses: statuses}
}

// Append godoc
// @Summary Record a status update
// @Description Appends an entry to the inquiry's status log. Any status may follow any other.
// @Tags Status History
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Inquiry ID"
// @Param payload body service.AppendStatusRequest true "Status payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /inquiries/{id}/status [post]
func (h *StatusHandler) Append(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.AppendStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	entry, err := h.statuses.Append(c.Request.Context(), principalFromContext(c), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, entry)
}

// History godoc
// @Summary Get status history
// @Tags Status History
// @Produce json
// @Security BearerAuth
// @Param id path int true "Inquiry ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /inquiries/{id}/status [get]
func (h *StatusHandler) History(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	entries, err := h.statuses.History(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, StatusHistoryResponse{
		InquiryID:     id,
		CurrentStatus: service.CurrentStatus(entries),
		History:       entries,
	}, nil)
}

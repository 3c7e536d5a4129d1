package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/institute-crm-api/internal/models"
	"github.com/noah-isme/institute-crm-api/internal/service"
	"github.com/noah-isme/institute-crm-api/pkg/response"
)

type agencyService interface {
	Create(ctx context.Context, principal models.Principal, req service.CreateAgencyRequest) (*models.Agency, error)
	List(ctx context.Context) []models.Agency
	Get(ctx context.Context, id int64) (*service.AgencyDetail, error)
	UpdateTotals(ctx context.Context, principal models.Principal, id int64, req service.UpdateAgencyTotalsRequest) (*models.Agency, error)
	Delete(ctx context.Context, principal models.Principal, id int64) error
	RecordPayout(ctx context.Context, principal models.Principal, id int64, req service.RecordPayoutRequest) (*models.AgencyPayout, *models.Agency, error)
}

// AgencyHandler exposes referral agency endpoints.
type AgencyHandler struct {
	agencies agencyService
}

// NewAgencyHandler constructs AgencyHandler.
func NewAgencyHandler(agencies agencyService) *AgencyHandler {
	return &AgencyHandler{agencies: agencies}
}

// List godoc
// @Summary List agencies
// @Tags Agencies
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /agencies [get]
func (h *AgencyHandler) List(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.agencies.List(c.Request.Context()), nil)
}

// Get godoc
// @Summary Get agency with payouts
// @Tags Agencies
// @Produce json
// @Security BearerAuth
// @Param id path int true "Agency ID"
// @Success 200 {object} response.Envelope
// @Router /agencies/{id} [get]
func (h *AgencyHandler) Get(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	agency, err := h.agencies.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, agency, nil)
}

// Create godoc
// @Summary Create agency
// @Tags Agencies
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateAgencyRequest true "Agency payload"
// @Success 201 {object} response.Envelope
// @Router /agencies [post]
func (h *AgencyHandler) Create(c *gin.Context) {
	var req service.CreateAgencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	agency, err := h.agencies.Create(c.Request.Context(), principalFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, agency)
}

// UpdateTotals godoc
// @Summary Update agency referral totals
// @Tags Agencies
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Agency ID"
// @Param payload body service.UpdateAgencyTotalsRequest true "Totals"
// @Success 200 {object} response.Envelope
// @Router /agencies/{id} [put]
func (h *AgencyHandler) UpdateTotals(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.UpdateAgencyTotalsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	agency, err := h.agencies.UpdateTotals(c.Request.Context(), principalFromContext(c), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, agency, nil)
}

// Delete godoc
// @Summary Delete agency
// @Tags Agencies
// @Security BearerAuth
// @Param id path int true "Agency ID"
// @Success 204
// @Router /agencies/{id} [delete]
func (h *AgencyHandler) Delete(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.agencies.Delete(c.Request.Context(), principalFromContext(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// RecordPayout godoc
// @Summary Pay out agency commission
// @Tags Agencies
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Agency ID"
// @Param payload body service.RecordPayoutRequest true "Payout"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /agencies/{id}/payouts [post]
func (h *AgencyHandler) RecordPayout(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.RecordPayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	payout, agency, err := h.agencies.RecordPayout(c.Request.Context(), principalFromContext(c), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"payout": payout, "agency": agency})
}

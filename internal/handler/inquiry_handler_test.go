package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/institute-crm-api/internal/models"
	"github.com/noah-isme/institute-crm-api/internal/service"
	appErrors "github.com/noah-isme/institute-crm-api/pkg/errors"
)

type fakeInquirySrv struct {
	created    *service.CreateInquiryRequest
	filter     models.InquiryFilter
	readID     int64
	readValue  bool
	whatsApp   models.WhatsAppMessageType
	deletedBy  models.Principal
	err        error
	listResult []models.InquiryDetail
}

func (f *fakeInquirySrv) Create(_ context.Context, req service.CreateInquiryRequest) (*models.Inquiry, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = &req
	return &models.Inquiry{ID: 11, Name: req.Name, Phone: req.Phone, Course: req.Course}, nil
}

func (f *fakeInquirySrv) Get(_ context.Context, id int64) (*models.InquiryDetail, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.InquiryDetail{Inquiry: models.Inquiry{ID: id}, CurrentStatus: models.StatusNone}, nil
}

func (f *fakeInquirySrv) List(_ context.Context, filter models.InquiryFilter) ([]models.InquiryDetail, *models.Pagination) {
	f.filter = filter
	return f.listResult, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: len(f.listResult)}
}

func (f *fakeInquirySrv) Update(_ context.Context, id int64, _ service.UpdateInquiryRequest) (*models.Inquiry, error) {
	return &models.Inquiry{ID: id}, f.err
}

func (f *fakeInquirySrv) MarkRead(_ context.Context, id int64, read bool) error {
	f.readID, f.readValue = id, read
	return f.err
}

func (f *fakeInquirySrv) MarkWhatsAppSent(_ context.Context, _ models.Principal, _ int64, msgType models.WhatsAppMessageType) error {
	f.whatsApp = msgType
	return f.err
}

func (f *fakeInquirySrv) Delete(_ context.Context, principal models.Principal, _ int64) error {
	f.deletedBy = principal
	return f.err
}

func TestInquiryHandlerCreateIsPublic(t *testing.T) {
	srv := &fakeInquirySrv{}
	handler := NewInquiryHandler(srv)

	c, rec := newTestContext(http.MethodPost, "/inquiries", map[string]interface{}{
		"name":   "Hina",
		"phone":  "03001234567",
		"course": "MDCAT",
	})
	handler.Create(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, srv.created)
	assert.Equal(t, models.CourseMDCAT, srv.created.Course)
}

func TestInquiryHandlerCreateRejectsMalformedBody(t *testing.T) {
	handler := NewInquiryHandler(&fakeInquirySrv{})

	c, rec := newTestContext(http.MethodPost, "/inquiries", nil)
	handler.Create(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, appErrors.ErrValidation.Code, decodeEnvelope(rec).Error.Code)
}

func TestInquiryHandlerListParsesFilters(t *testing.T) {
	srv := &fakeInquirySrv{listResult: []models.InquiryDetail{{Inquiry: models.Inquiry{ID: 1}}}}
	handler := NewInquiryHandler(srv)

	c, rec := newTestContext(http.MethodGet, "/inquiries?course=Intermediate&status=not_interested&is_read=false&page=2&limit=5", nil)
	asUser(c, 3, "Staff", models.RoleStaff)
	handler.List(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.CourseIntermediate, srv.filter.Course)
	assert.Equal(t, models.StatusNotInterested, srv.filter.Status)
	require.NotNil(t, srv.filter.IsRead)
	assert.False(t, *srv.filter.IsRead)
	assert.Equal(t, 2, srv.filter.Page)
	assert.Equal(t, 5, srv.filter.PageSize)
}

func TestInquiryHandlerGetInvalidID(t *testing.T) {
	handler := NewInquiryHandler(&fakeInquirySrv{})

	c, rec := newTestContext(http.MethodGet, "/inquiries/abc", nil)
	withParam(c, "id", "abc")
	handler.Get(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInquiryHandlerGetNotFound(t *testing.T) {
	handler := NewInquiryHandler(&fakeInquirySrv{err: appErrors.ErrNotFound})

	c, rec := newTestContext(http.MethodGet, "/inquiries/9", nil)
	withParam(c, "id", "9")
	handler.Get(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInquiryHandlerMarkReadDefaultsToRead(t *testing.T) {
	srv := &fakeInquirySrv{}
	handler := NewInquiryHandler(srv)

	c, _ := newTestContext(http.MethodPatch, "/inquiries/4/read", map[string]interface{}{})
	withParam(c, "id", "4")
	handler.MarkRead(c)

	assert.Equal(t, http.StatusNoContent, c.Writer.Status())
	assert.Equal(t, int64(4), srv.readID)
	assert.True(t, srv.readValue)
}

func TestInquiryHandlerMarkWhatsApp(t *testing.T) {
	srv := &fakeInquirySrv{}
	handler := NewInquiryHandler(srv)

	c, _ := newTestContext(http.MethodPost, "/inquiries/4/whatsapp", map[string]interface{}{"type": "welcome"})
	withParam(c, "id", "4")
	asUser(c, 3, "Staff", models.RoleStaff)
	handler.MarkWhatsApp(c)

	assert.Equal(t, http.StatusNoContent, c.Writer.Status())
	assert.Equal(t, models.WhatsAppMessageType("welcome"), srv.whatsApp)
}

func TestInquiryHandlerDeletePassesPrincipal(t *testing.T) {
	srv := &fakeInquirySrv{err: appErrors.Clone(appErrors.ErrForbidden, "unauthorized")}
	handler := NewInquiryHandler(srv)

	c, rec := newTestContext(http.MethodDelete, "/inquiries/4", nil)
	withParam(c, "id", "4")
	asUser(c, 3, "Staff", models.RoleStaff)
	handler.Delete(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "unauthorized", decodeEnvelope(rec).Error.Message)
	assert.Equal(t, models.RoleStaff, srv.deletedBy.Role)
}

func TestStatusHandlerHistoryDerivesCurrentStatus(t *testing.T) {
	handler := NewStatusHandler(&fakeStatusSrv{entries: []models.StatusHistoryEntry{
		{ID: 1, InquiryID: 5, Status: models.StatusInquiryCalled},
		{ID: 2, InquiryID: 5, Status: models.StatusNotInterested},
	}})

	c, rec := newTestContext(http.MethodGet, "/inquiries/5/status", nil)
	withParam(c, "id", "5")
	handler.History(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var body StatusHistoryResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(rec).Data, &body))
	assert.Equal(t, int64(5), body.InquiryID)
	assert.Len(t, body.History, 2)
	assert.Equal(t, service.CurrentStatus(body.History), body.CurrentStatus)
}

func TestStatusHandlerHistoryEmpty(t *testing.T) {
	handler := NewStatusHandler(&fakeStatusSrv{})

	c, rec := newTestContext(http.MethodGet, "/inquiries/5/status", nil)
	withParam(c, "id", "5")
	handler.History(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var body StatusHistoryResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(rec).Data, &body))
	assert.Equal(t, models.StatusNone, body.CurrentStatus)
}

func TestStatusHandlerAppend(t *testing.T) {
	srv := &fakeStatusSrv{}
	handler := NewStatusHandler(srv)

	c, rec := newTestContext(http.MethodPost, "/inquiries/5/status", map[string]interface{}{
		"status":  "not_interested",
		"reasons": []string{"Fee too high"},
	})
	withParam(c, "id", "5")
	asUser(c, 3, "Ayesha", models.RoleStaff)
	handler.Append(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Ayesha", srv.by.Name)
	assert.Equal(t, []string{"Fee too high"}, srv.req.Reasons)
}

type fakeStatusSrv struct {
	entries []models.StatusHistoryEntry
	by      models.Principal
	req     service.AppendStatusRequest
}

func (f *fakeStatusSrv) Append(_ context.Context, principal models.Principal, inquiryID int64, req service.AppendStatusRequest) (*models.StatusHistoryEntry, error) {
	f.by, f.req = principal, req
	return &models.StatusHistoryEntry{ID: 1, InquiryID: inquiryID, Status: req.Status, UpdatedBy: principal.Name}, nil
}

func (f *fakeStatusSrv) History(context.Context, int64) ([]models.StatusHistoryEntry, error) {
	return f.entries, nil
}

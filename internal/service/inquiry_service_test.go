package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/institute-crm-api/internal/models"
	"github.com/noah-isme/institute-crm-api/internal/repository"
	appErrors "github.com/noah-isme/institute-crm-api/pkg/errors"
)

type memoryInquiries struct {
	rows    map[int64]*models.Inquiry
	nextID  int64
	writes  int
	listErr error
}

func newMemoryInquiries() *memoryInquiries {
	return &memoryInquiries{rows: map[int64]*models.Inquiry{}}
}

func (m *memoryInquiries) Create(ctx context.Context, inquiry *models.Inquiry) error {
	m.nextID++
	inquiry.ID = m.nextID
	inquiry.CreatedAt = time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC)
	inquiry.UpdatedAt = inquiry.CreatedAt
	stored := *inquiry
	m.rows[inquiry.ID] = &stored
	return nil
}

func (m *memoryInquiries) FindByID(ctx context.Context, id int64) (*models.InquiryDetail, error) {
	inquiry, ok := m.rows[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &models.InquiryDetail{Inquiry: *inquiry, CurrentStatus: models.StatusNone}, nil
}

func (m *memoryInquiries) List(ctx context.Context, filter models.InquiryFilter) ([]models.InquiryDetail, int, error) {
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	out := make([]models.InquiryDetail, 0, len(m.rows))
	for _, inquiry := range m.rows {
		out = append(out, models.InquiryDetail{Inquiry: *inquiry, CurrentStatus: models.StatusNone})
	}
	return out, len(out), nil
}

func (m *memoryInquiries) Update(ctx context.Context, id int64, patch models.InquiryPatch) (*models.Inquiry, error) {
	inquiry, ok := m.rows[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	m.writes++
	if patch.Name != nil {
		inquiry.Name = *patch.Name
	}
	if patch.Phone != nil {
		inquiry.Phone = *patch.Phone
	}
	out := *inquiry
	return &out, nil
}

func (m *memoryInquiries) SetRead(ctx context.Context, id int64, read bool) error {
	inquiry, ok := m.rows[id]
	if !ok {
		return sql.ErrNoRows
	}
	m.writes++
	inquiry.IsRead = read
	return nil
}

func (m *memoryInquiries) MarkWhatsAppSent(ctx context.Context, id int64, column string, msgType models.WhatsAppMessageType, sentBy string) error {
	inquiry, ok := m.rows[id]
	if !ok {
		return sql.ErrNoRows
	}
	if inquiry.WhatsAppWelcomeSent {
		return repository.ErrAlreadySent
	}
	m.writes++
	inquiry.WhatsAppWelcomeSent = true
	return nil
}

func (m *memoryInquiries) Delete(ctx context.Context, id int64) error {
	if _, ok := m.rows[id]; !ok {
		return sql.ErrNoRows
	}
	m.writes++
	delete(m.rows, id)
	return nil
}

func validInquiry() CreateInquiryRequest {
	return CreateInquiryRequest{Name: "Sara Khan", Phone: "03001112223", Course: models.CourseMDCAT}
}

func TestInquiryServiceCreate(t *testing.T) {
	repo := newMemoryInquiries()
	svc := NewInquiryService(repo, nil, nil, nil)

	inquiry, err := svc.Create(context.Background(), validInquiry())
	require.NoError(t, err)
	assert.Equal(t, int64(1), inquiry.ID)
	assert.False(t, inquiry.IsRead)

	detail, err := svc.Get(context.Background(), inquiry.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusNone, detail.CurrentStatus)
}

func TestInquiryServiceCreateValidation(t *testing.T) {
	svc := NewInquiryService(newMemoryInquiries(), nil, nil, nil)

	req := validInquiry()
	req.Course = "FSc"
	_, err := svc.Create(context.Background(), req)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation.Code))

	req = validInquiry()
	req.Name = "   "
	_, err = svc.Create(context.Background(), req)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation.Code))

	req = validInquiry()
	matric, outOf := 1200, 1100
	req.MatricMarks, req.OutOfMarks = &matric, &outOf
	_, err = svc.Create(context.Background(), req)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation.Code))
}

func TestInquiryServiceDeleteRequiresSuperAdmin(t *testing.T) {
	repo := newMemoryInquiries()
	svc := NewInquiryService(repo, nil, nil, nil)
	ctx := context.Background()

	inquiry, err := svc.Create(ctx, validInquiry())
	require.NoError(t, err)

	err = svc.Delete(ctx, operator, inquiry.ID)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrForbidden.Code))
	_, err = svc.Get(ctx, inquiry.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, superAdmin, inquiry.ID))
	_, err = svc.Get(ctx, inquiry.ID)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrNotFound.Code))

	err = svc.Delete(ctx, superAdmin, inquiry.ID)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrNotFound.Code))
}

func TestInquiryServiceUpdateRejectsBlankRequired(t *testing.T) {
	repo := newMemoryInquiries()
	svc := NewInquiryService(repo, nil, nil, nil)
	ctx := context.Background()

	inquiry, err := svc.Create(ctx, validInquiry())
	require.NoError(t, err)

	_, err = svc.Update(ctx, inquiry.ID, UpdateInquiryRequest{Phone: strPtr(" ")})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation.Code))

	updated, err := svc.Update(ctx, inquiry.ID, UpdateInquiryRequest{Name: strPtr(" Sara K. ")})
	require.NoError(t, err)
	assert.Equal(t, "Sara K.", updated.Name)
	assert.Equal(t, "03001112223", updated.Phone)
}

func TestInquiryServiceUpdateInvalidatesReports(t *testing.T) {
	store := newMemoryCache()
	cache := NewCacheService(store, NewMetricsService(), time.Minute, nil, true)
	repo := newMemoryInquiries()
	svc := NewInquiryService(repo, cache, nil, nil)
	ctx := context.Background()

	inquiry, err := svc.Create(ctx, validInquiry())
	require.NoError(t, err)

	require.NoError(t, store.Set(ctx, "reports:conversions", map[string]int{"total": 1}, time.Minute))
	_, err = svc.Update(ctx, 99, UpdateInquiryRequest{Phone: strPtr("03009998887")})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrNotFound.Code))
	assert.Contains(t, store.items, "reports:conversions")

	_, err = svc.Update(ctx, inquiry.ID, UpdateInquiryRequest{Phone: strPtr("03009998887")})
	require.NoError(t, err)
	assert.NotContains(t, store.items, "reports:conversions")
}

func TestInquiryServiceListDegrades(t *testing.T) {
	repo := newMemoryInquiries()
	repo.listErr = errors.New("timeout")
	svc := NewInquiryService(repo, nil, nil, nil)

	items, pagination := svc.List(context.Background(), models.InquiryFilter{})
	assert.NotNil(t, items)
	assert.Empty(t, items)
	assert.Zero(t, pagination.TotalCount)
}

func TestInquiryServiceMarkWhatsAppSent(t *testing.T) {
	repo := newMemoryInquiries()
	svc := NewInquiryService(repo, nil, nil, nil)
	ctx := context.Background()

	inquiry, err := svc.Create(ctx, validInquiry())
	require.NoError(t, err)

	require.NoError(t, svc.MarkWhatsAppSent(ctx, operator, inquiry.ID, models.WhatsAppWelcome))
	err = svc.MarkWhatsAppSent(ctx, operator, inquiry.ID, models.WhatsAppWelcome)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrConflict.Code))

	err = svc.MarkWhatsAppSent(ctx, operator, 77, models.WhatsAppWelcome)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrNotFound.Code))
}

package service

import (
	"context"
	"database/sql"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/institute-crm-api/internal/models"
	"github.com/noah-isme/institute-crm-api/internal/repository"
	appErrors "github.com/noah-isme/institute-crm-api/pkg/errors"
)

type memoryAgencies struct {
	rows    map[int64]*models.Agency
	payouts []models.AgencyPayout
	nextID  int64
	// staleBalance makes RecordPayout reject as if a concurrent payout won the row lock.
	staleBalance bool
}

func newMemoryAgencies() *memoryAgencies {
	return &memoryAgencies{rows: map[int64]*models.Agency{}}
}

func (m *memoryAgencies) Create(ctx context.Context, agency *models.Agency) error {
	m.nextID++
	agency.ID = m.nextID
	stored := *agency
	m.rows[agency.ID] = &stored
	return nil
}

func (m *memoryAgencies) List(ctx context.Context) ([]models.Agency, error) {
	out := []models.Agency{}
	for _, a := range m.rows {
		out = append(out, *a)
	}
	return out, nil
}

func (m *memoryAgencies) FindByID(ctx context.Context, id int64) (*models.Agency, error) {
	a, ok := m.rows[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	out := *a
	return &out, nil
}

func (m *memoryAgencies) UpdateTotals(ctx context.Context, id int64, totalStudents int, totalAmount float64) (*models.Agency, error) {
	a, ok := m.rows[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	a.TotalStudents = totalStudents
	a.TotalAmount = totalAmount
	a.CommissionEarned = math.Round(totalAmount*a.CommissionRate*100) / 100
	out := *a
	return &out, nil
}

func (m *memoryAgencies) Delete(ctx context.Context, id int64) error {
	if _, ok := m.rows[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.rows, id)
	return nil
}

func (m *memoryAgencies) RecordPayout(ctx context.Context, payout *models.AgencyPayout) (*models.Agency, error) {
	a, ok := m.rows[payout.AgencyID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if m.staleBalance || !a.CanPay(payout.Amount) {
		return nil, repository.ErrPayoutExceedsBalance
	}
	payout.ID = int64(len(m.payouts) + 1)
	m.payouts = append(m.payouts, *payout)
	a.CommissionPaid += payout.Amount
	out := *a
	return &out, nil
}

func (m *memoryAgencies) ListPayouts(ctx context.Context, agencyID int64) ([]models.AgencyPayout, error) {
	out := []models.AgencyPayout{}
	for _, p := range m.payouts {
		if p.AgencyID == agencyID {
			out = append(out, p)
		}
	}
	return out, nil
}

func seedAgency(t *testing.T, svc *AgencyService) *models.Agency {
	t.Helper()
	ctx := context.Background()
	agency, err := svc.Create(ctx, superAdmin, CreateAgencyRequest{Name: "City Referrals", CommissionRate: 0.1})
	require.NoError(t, err)
	agency, err = svc.UpdateTotals(ctx, superAdmin, agency.ID, UpdateAgencyTotalsRequest{TotalStudents: 4, TotalAmount: 40000})
	require.NoError(t, err)
	return agency
}

func TestAgencyServiceWritesRequireSuperAdmin(t *testing.T) {
	repo := newMemoryAgencies()
	svc := NewAgencyService(repo, nil, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, operator, CreateAgencyRequest{Name: "City Referrals"})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrForbidden.Code))

	agency := seedAgency(t, svc)
	assert.Equal(t, 4000.0, agency.CommissionEarned)

	err = svc.Delete(ctx, operator, agency.ID)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrForbidden.Code))
	assert.Len(t, svc.List(ctx), 1)

	_, _, err = svc.RecordPayout(ctx, operator, agency.ID, RecordPayoutRequest{Amount: 100})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrForbidden.Code))
}

func TestAgencyServiceRecordPayout(t *testing.T) {
	repo := newMemoryAgencies()
	svc := NewAgencyService(repo, nil, nil)
	ctx := context.Background()
	agency := seedAgency(t, svc)

	payout, updated, err := svc.RecordPayout(ctx, superAdmin, agency.ID, RecordPayoutRequest{Amount: 1500, Note: strPtr("March")})
	require.NoError(t, err)
	assert.Equal(t, "Owner", payout.PaidBy)
	assert.Equal(t, 1500.0, updated.CommissionPaid)
	assert.Equal(t, 2500.0, updated.Outstanding())

	_, _, err = svc.RecordPayout(ctx, superAdmin, agency.ID, RecordPayoutRequest{Amount: 2500.01})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrInsufficientBalance.Code))

	_, _, err = svc.RecordPayout(ctx, superAdmin, agency.ID, RecordPayoutRequest{Amount: 0})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation.Code))

	repo.staleBalance = true
	_, _, err = svc.RecordPayout(ctx, superAdmin, agency.ID, RecordPayoutRequest{Amount: 10})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrInsufficientBalance.Code))

	detail, err := svc.Get(ctx, agency.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Payouts, 1)
	assert.Equal(t, 2500.0, detail.Outstanding)

	_, _, err = svc.RecordPayout(ctx, superAdmin, 99, RecordPayoutRequest{Amount: 10})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrNotFound.Code))
}

func TestAgencyServiceRecordPayoutExactRemainder(t *testing.T) {
	repo := newMemoryAgencies()
	svc := NewAgencyService(repo, nil, nil)
	ctx := context.Background()

	agency, err := svc.Create(ctx, superAdmin, CreateAgencyRequest{Name: "Small Referrals", CommissionRate: 0.1})
	require.NoError(t, err)
	agency, err = svc.UpdateTotals(ctx, superAdmin, agency.ID, UpdateAgencyTotalsRequest{TotalStudents: 1, TotalAmount: 3})
	require.NoError(t, err)
	require.Equal(t, 0.3, agency.CommissionEarned)

	_, updated, err := svc.RecordPayout(ctx, superAdmin, agency.ID, RecordPayoutRequest{Amount: 0.1})
	require.NoError(t, err)
	assert.Equal(t, 0.2, updated.Outstanding())

	_, updated, err = svc.RecordPayout(ctx, superAdmin, agency.ID, RecordPayoutRequest{Amount: 0.2})
	require.NoError(t, err)
	assert.Equal(t, 0.0, updated.Outstanding())

	_, _, err = svc.RecordPayout(ctx, superAdmin, agency.ID, RecordPayoutRequest{Amount: 0.01})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrInsufficientBalance.Code))
}

func TestAgencyServiceUpdateTotalsRejectsOversizedAmount(t *testing.T) {
	repo := newMemoryAgencies()
	svc := NewAgencyService(repo, nil, nil)
	ctx := context.Background()

	agency, err := svc.Create(ctx, superAdmin, CreateAgencyRequest{Name: "Huge Referrals", CommissionRate: 0.1})
	require.NoError(t, err)
	_, err = svc.UpdateTotals(ctx, superAdmin, agency.ID, UpdateAgencyTotalsRequest{TotalStudents: 1, TotalAmount: 1e13})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation.Code))
}

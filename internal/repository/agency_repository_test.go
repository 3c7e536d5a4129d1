package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/institute-crm-api/internal/models"
)

var agencyRowColumns = []string{"id", "name", "contact_person", "phone", "commission_rate", "total_students", "total_amount",
	"commission_earned", "commission_paid", "created_at", "updated_at"}

func TestAgencyRepositoryRecordPayout(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAgencyRepository(db)

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM agencies WHERE id = $1 FOR UPDATE")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(agencyRowColumns).AddRow(int64(1), "Bright Future", nil, nil, 0.1, 20, 100000.0, 10000.0, 4000.0, now, now))
	mock.ExpectQuery("INSERT INTO agency_payouts").
		WithArgs(int64(1), 6000.0, nil, "Owner", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(8), now))
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE agencies SET commission_paid = commission_paid + $2")).
		WithArgs(int64(1), 6000.0, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(agencyRowColumns).AddRow(int64(1), "Bright Future", nil, nil, 0.1, 20, 100000.0, 10000.0, 10000.0, now, now))
	mock.ExpectCommit()

	payout := &models.AgencyPayout{AgencyID: 1, Amount: 6000, PaidBy: "Owner"}
	agency, err := repo.RecordPayout(context.Background(), payout)
	require.NoError(t, err)
	assert.Equal(t, int64(8), payout.ID)
	assert.Equal(t, 0.0, agency.Outstanding())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAgencyRepositoryRecordPayoutOverBalance(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAgencyRepository(db)

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WillReturnRows(sqlmock.NewRows(agencyRowColumns).AddRow(int64(1), "Bright Future", nil, nil, 0.1, 20, 100000.0, 10000.0, 9000.0, now, now))
	mock.ExpectRollback()

	_, err := repo.RecordPayout(context.Background(), &models.AgencyPayout{AgencyID: 1, Amount: 1000.01, PaidBy: "Owner"})
	assert.ErrorIs(t, err, ErrPayoutExceedsBalance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAgencyRepositoryRecordPayoutExactRemainder(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAgencyRepository(db)

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows(agencyRowColumns).AddRow(int64(3), "Small Referrals", nil, nil, 0.1, 1, 3.0, 0.3, 0.1, now, now))
	mock.ExpectQuery("INSERT INTO agency_payouts").
		WithArgs(int64(3), 0.2, nil, "Owner", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(9), now))
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE agencies SET commission_paid = commission_paid + $2")).
		WithArgs(int64(3), 0.2, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(agencyRowColumns).AddRow(int64(3), "Small Referrals", nil, nil, 0.1, 1, 3.0, 0.3, 0.3, now, now))
	mock.ExpectCommit()

	agency, err := repo.RecordPayout(context.Background(), &models.AgencyPayout{AgencyID: 3, Amount: 0.2, PaidBy: "Owner"})
	require.NoError(t, err)
	assert.Equal(t, 0.0, agency.Outstanding())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAgencyRepositoryUpdateTotals(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAgencyRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("commission_earned = ROUND($3 * commission_rate, 2)")).
		WithArgs(int64(2), 12, 240000.0, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(agencyRowColumns).AddRow(int64(2), "Apex", nil, nil, 0.05, 12, 240000.0, 12000.0, 0.0, now, now))

	agency, err := repo.UpdateTotals(context.Background(), 2, 12, 240000)
	require.NoError(t, err)
	assert.Equal(t, 12000.0, agency.CommissionEarned)
	assert.NoError(t, mock.ExpectationsWereMet())
}

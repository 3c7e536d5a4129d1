package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportRepositoryFeeTotals(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("COUNT(*) FILTER (WHERE fee_pending = 0) AS fully_paid")).
		WillReturnRows(sqlmock.NewRows([]string{"registrations", "total_paid", "total_pending", "total_concession", "fully_paid"}).
			AddRow(3, 15000.0, 2000.0, 500.0, 2))

	summary, err := repo.FeeTotals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Registrations)
	assert.Equal(t, 15000.0, summary.TotalPaid)
	assert.Equal(t, 2, summary.FullyPaid)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryConversionCounts(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE EXISTS (SELECT 1 FROM registrations r WHERE r.phone = i.phone)")).
		WillReturnRows(sqlmock.NewRows([]string{"total_inquiries", "total_registrations", "converted_inquiries"}).AddRow(10, 4, 3))

	report, err := repo.ConversionCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, report.TotalInquiries)
	assert.Equal(t, 3, report.ConvertedInquiries)
	assert.NoError(t, mock.ExpectationsWereMet())
}

package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/institute-crm-api/internal/models"
)

func TestStatusHistoryAppend(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStatusHistoryRepository(db)

	now := time.Now()
	comments := "called twice"
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO inquiry_status_history (inquiry_id, status, comments, updated_by)")).
		WithArgs(int64(1), models.StatusInquiryCalled, &comments, "Hina").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(30), now))

	entry := &models.StatusHistoryEntry{InquiryID: 1, Status: models.StatusInquiryCalled, Comments: &comments, UpdatedBy: "Hina"}
	require.NoError(t, repo.Append(context.Background(), entry))
	assert.Equal(t, int64(30), entry.ID)
	assert.Equal(t, now, entry.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatusHistoryListNewestFirst(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStatusHistoryRepository(db)

	t0 := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "inquiry_id", "status", "comments", "updated_by", "created_at"}).
		AddRow(int64(3), int64(1), "converted_enrolled", nil, "Hina", t0.Add(time.Hour)).
		AddRow(int64(2), int64(1), "inquiry_called", "left voicemail", "Bilal", t0)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE inquiry_id = $1 ORDER BY created_at DESC, id DESC")).
		WithArgs(int64(1)).
		WillReturnRows(rows)

	entries, err := repo.ListByInquiry(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, models.StatusConvertedEnrolled, entries[0].Status)
	assert.Nil(t, entries[0].Comments)
	assert.Equal(t, "left voicemail", *entries[1].Comments)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatusHistoryListEmptyIsNotNil(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStatusHistoryRepository(db)

	mock.ExpectQuery("FROM inquiry_status_history WHERE inquiry_id").
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "inquiry_id", "status", "comments", "updated_by", "created_at"}))

	entries, err := repo.ListByInquiry(context.Background(), 5)
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestStatusHistoryCurrentStatusCounts(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStatusHistoryRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT DISTINCT ON (inquiry_id) inquiry_id, status")).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("no_status", 4).
			AddRow("inquiry_called", 6))

	counts, err := repo.CurrentStatusCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.StatusCount{{Status: models.StatusNone, Count: 4}, {Status: models.StatusInquiryCalled, Count: 6}}, counts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatusHistoryTopUpdatersPassesLimit(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStatusHistoryRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY updated_by ORDER BY count DESC, updated_by LIMIT $1")).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"updated_by", "count"}).AddRow("Hina", 9).AddRow("Bilal", 2))

	updaters, err := repo.TopUpdaters(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, updaters, 2)
	assert.Equal(t, "Hina", updaters[0].UpdatedBy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatusHistoryCountWrapsErrors(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStatusHistoryRepository(db)

	boom := errors.New("connection reset")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM inquiry_status_history")).WillReturnError(boom)

	_, err := repo.Count(context.Background())
	assert.ErrorIs(t, err, boom)
}

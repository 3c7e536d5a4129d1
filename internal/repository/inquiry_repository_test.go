package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/institute-crm-api/internal/models"
)

var inquiryRowColumns = []string{"id", "name", "phone", "email", "course", "heard_from", "question", "checkbox_field", "gender",
	"matric_marks", "out_of_marks", "intermediate_stream", "is_read", "whatsapp_welcome_sent", "whatsapp_followup_sent",
	"whatsapp_reminder_sent", "created_at", "updated_at"}

func TestInquiryRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewInquiryRepository(db)

	now := time.Now()
	mock.ExpectQuery("INSERT INTO inquiries").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(11), now, now))

	inquiry := &models.Inquiry{Name: "Sara", Phone: "03001234567", Course: models.CourseMDCAT}
	require.NoError(t, repo.Create(context.Background(), inquiry))
	assert.Equal(t, int64(11), inquiry.ID)
	assert.Equal(t, now, inquiry.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInquiryRepositoryFindByIDDerivesStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewInquiryRepository(db)

	now := time.Now()
	cols := append(append([]string{}, inquiryRowColumns...), "current_status", "status_updated_at")
	mock.ExpectQuery(regexp.QuoteMeta("COALESCE(latest.status, 'no_status') AS current_status")).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(int64(4), "Ali", "0300", nil, "Intermediate", nil, nil, false, "male",
			900, 1100, "pre-medical", false, false, false, false, now, now, "no_status", nil))

	detail, err := repo.FindByID(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, models.StatusNone, detail.CurrentStatus)
	assert.Nil(t, detail.StatusUpdatedAt)
	require.NotNil(t, detail.MatricMarks)
	assert.Equal(t, 900, *detail.MatricMarks)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInquiryRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewInquiryRepository(db)

	mock.ExpectQuery("FROM inquiries i").WithArgs(int64(404)).WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), 404)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestInquiryRepositoryListFiltersByCurrentStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewInquiryRepository(db)

	cols := append(append([]string{}, inquiryRowColumns...), "current_status", "status_updated_at")
	mock.ExpectQuery(regexp.QuoteMeta("WHERE 1=1 AND i.course = $1 AND COALESCE(latest.status, 'no_status') = $2 ORDER BY i.created_at DESC, i.id DESC LIMIT 20 OFFSET 0")).
		WithArgs(models.CourseMDCAT, models.StatusInquiryCalled).
		WillReturnRows(sqlmock.NewRows(cols))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM inquiries i")).
		WithArgs(models.CourseMDCAT, models.StatusInquiryCalled).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	items, total, err := repo.List(context.Background(), models.InquiryFilter{Course: models.CourseMDCAT, Status: models.StatusInquiryCalled})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInquiryRepositoryUpdateNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewInquiryRepository(db)

	name := "New Name"
	mock.ExpectQuery("UPDATE inquiries i SET").WillReturnError(sql.ErrNoRows)

	_, err := repo.Update(context.Background(), 3, models.InquiryPatch{Name: &name})
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestInquiryRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewInquiryRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM inquiries WHERE id = $1")).WithArgs(int64(8)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM inquiries WHERE id = $1")).WithArgs(int64(9)).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Delete(context.Background(), 8))
	assert.ErrorIs(t, repo.Delete(context.Background(), 9), sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInquiryRepositoryMarkWhatsAppSent(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewInquiryRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE inquiries SET whatsapp_welcome_sent = TRUE, updated_at = $2 WHERE id = $1 AND whatsapp_welcome_sent = FALSE")).
		WithArgs(int64(2), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO whatsapp_messages (inquiry_id, message_type, sent_by, sent_at)")).
		WithArgs(int64(2), models.WhatsAppWelcome, "Hina", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.MarkWhatsAppSent(context.Background(), 2, "whatsapp_welcome_sent", models.WhatsAppWelcome, "Hina")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInquiryRepositoryMarkWhatsAppSentTwice(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewInquiryRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE inquiries SET whatsapp_reminder_sent = TRUE").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM inquiries WHERE id = $1")).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectRollback()

	err := repo.MarkWhatsAppSent(context.Background(), 2, "whatsapp_reminder_sent", models.WhatsAppReminder, "Hina")
	assert.True(t, errors.Is(err, ErrAlreadySent))
	assert.NoError(t, mock.ExpectationsWereMet())
}

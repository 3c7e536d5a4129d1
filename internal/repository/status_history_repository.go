package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/institute-crm-api/internal/models"
)

// StatusHistoryRepository stores the append-only inquiry status log. It exposes no update or delete.
type StatusHistoryRepository struct {
	db *sqlx.DB
}

// NewStatusHistoryRepository constructs a StatusHistoryRepository.
func NewStatusHistoryRepository(db *sqlx.DB) *StatusHistoryRepository {
	return &StatusHistoryRepository{db: db}
}

// Append inserts a new entry. created_at is assigned by the database clock.
func (r *StatusHistoryRepository) Append(ctx context.Context, entry *models.StatusHistoryEntry) error {
	const query = `INSERT INTO inquiry_status_history (inquiry_id, status, comments, updated_by)
        VALUES ($1, $2, $3, $4) RETURNING id, created_at`
	row := r.db.QueryRowxContext(ctx, query, entry.InquiryID, entry.Status, entry.Comments, entry.UpdatedBy)
	if err := row.Scan(&entry.ID, &entry.CreatedAt); err != nil {
		return fmt.Errorf("append status: %w", err)
	}
	return nil
}

// ListByInquiry returns the log for one inquiry, newest first.
func (r *StatusHistoryRepository) ListByInquiry(ctx context.Context, inquiryID int64) ([]models.StatusHistoryEntry, error) {
	const query = `SELECT id, inquiry_id, status, comments, updated_by, created_at
        FROM inquiry_status_history WHERE inquiry_id = $1 ORDER BY created_at DESC, id DESC`
	entries := []models.StatusHistoryEntry{}
	if err := r.db.SelectContext(ctx, &entries, query, inquiryID); err != nil {
		return nil, fmt.Errorf("list status history: %w", err)
	}
	return entries, nil
}

// CurrentStatusCounts counts inquiries by the status of their latest entry.
// Inquiries without history are reported under the no_status bucket.
func (r *StatusHistoryRepository) CurrentStatusCounts(ctx context.Context) ([]models.StatusCount, error) {
	query := fmt.Sprintf(`SELECT COALESCE(latest.status, '%s') AS status, COUNT(*) AS count
        FROM inquiries i
        LEFT JOIN (
            SELECT DISTINCT ON (inquiry_id) inquiry_id, status
            FROM inquiry_status_history
            ORDER BY inquiry_id, created_at DESC, id DESC
        ) latest ON latest.inquiry_id = i.id
        GROUP BY 1`, models.StatusNone)
	var counts []models.StatusCount
	if err := r.db.SelectContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("current status counts: %w", err)
	}
	return counts, nil
}

// UpdateCounts counts every recorded entry per status over the whole log.
func (r *StatusHistoryRepository) UpdateCounts(ctx context.Context) ([]models.StatusCount, error) {
	const query = `SELECT status, COUNT(*) AS count FROM inquiry_status_history GROUP BY status ORDER BY count DESC, status`
	var counts []models.StatusCount
	if err := r.db.SelectContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("status update counts: %w", err)
	}
	return counts, nil
}

// TopUpdaters groups entries by operator, highest count first.
func (r *StatusHistoryRepository) TopUpdaters(ctx context.Context, limit int) ([]models.UpdaterCount, error) {
	const query = `SELECT updated_by, COUNT(*) AS count FROM inquiry_status_history
        GROUP BY updated_by ORDER BY count DESC, updated_by LIMIT $1`
	var updaters []models.UpdaterCount
	if err := r.db.SelectContext(ctx, &updaters, query, limit); err != nil {
		return nil, fmt.Errorf("top updaters: %w", err)
	}
	return updaters, nil
}

// Count returns the total number of entries, i.e. total burns.
func (r *StatusHistoryRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM inquiry_status_history`); err != nil {
		return 0, fmt.Errorf("count status history: %w", err)
	}
	return total, nil
}

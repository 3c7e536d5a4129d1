package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/institute-crm-api/internal/models"
)

const agencyColumns = `id, name, contact_person, phone, commission_rate, total_students, total_amount,
        commission_earned, commission_paid, created_at, updated_at`

// AgencyRepository persists agencies and their payout ledger.
type AgencyRepository struct {
	db *sqlx.DB
}

// NewAgencyRepository constructs an AgencyRepository.
func NewAgencyRepository(db *sqlx.DB) *AgencyRepository {
	return &AgencyRepository{db: db}
}

// Create inserts a new agency with zeroed totals.
func (r *AgencyRepository) Create(ctx context.Context, agency *models.Agency) error {
	const query = `INSERT INTO agencies (name, contact_person, phone, commission_rate, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $5) RETURNING id, created_at, updated_at`
	row := r.db.QueryRowxContext(ctx, query, agency.Name, agency.ContactPerson, agency.Phone, agency.CommissionRate, time.Now().UTC())
	if err := row.Scan(&agency.ID, &agency.CreatedAt, &agency.UpdatedAt); err != nil {
		return fmt.Errorf("create agency: %w", err)
	}
	return nil
}

// List returns all agencies by name.
func (r *AgencyRepository) List(ctx context.Context) ([]models.Agency, error) {
	query := fmt.Sprintf("SELECT %s FROM agencies ORDER BY name, id", agencyColumns)
	agencies := []models.Agency{}
	if err := r.db.SelectContext(ctx, &agencies, query); err != nil {
		return nil, fmt.Errorf("list agencies: %w", err)
	}
	return agencies, nil
}

// FindByID fetches an agency by id.
func (r *AgencyRepository) FindByID(ctx context.Context, id int64) (*models.Agency, error) {
	query := fmt.Sprintf("SELECT %s FROM agencies WHERE id = $1", agencyColumns)
	var agency models.Agency
	if err := r.db.GetContext(ctx, &agency, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find agency: %w", err)
	}
	return &agency, nil
}

// UpdateTotals replaces the referral totals and recomputes the earned commission from the stored rate.
func (r *AgencyRepository) UpdateTotals(ctx context.Context, id int64, totalStudents int, totalAmount float64) (*models.Agency, error) {
	query := fmt.Sprintf(`UPDATE agencies SET total_students = $2, total_amount = $3,
        commission_earned = ROUND($3 * commission_rate, 2), updated_at = $4
        WHERE id = $1 RETURNING %s`, agencyColumns)
	var agency models.Agency
	if err := r.db.GetContext(ctx, &agency, query, id, totalStudents, totalAmount, time.Now().UTC()); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("update agency totals: %w", err)
	}
	return &agency, nil
}

// Delete removes an agency and its payouts.
func (r *AgencyRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM agencies WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete agency: %w", err)
	}
	return requireAffected(res)
}

// RecordPayout appends a payout and increments commission_paid atomically.
// The agency row is locked so the balance check holds for concurrent payouts.
func (r *AgencyRepository) RecordPayout(ctx context.Context, payout *models.AgencyPayout) (*models.Agency, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin payout tx: %w", err)
	}

	var agency models.Agency
	lockQuery := fmt.Sprintf("SELECT %s FROM agencies WHERE id = $1 FOR UPDATE", agencyColumns)
	if err := tx.GetContext(ctx, &agency, lockQuery, payout.AgencyID); err != nil {
		_ = tx.Rollback()
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("lock agency: %w", err)
	}
	if !agency.CanPay(payout.Amount) {
		_ = tx.Rollback()
		return nil, ErrPayoutExceedsBalance
	}

	now := time.Now().UTC()
	const insert = `INSERT INTO agency_payouts (agency_id, amount, note, paid_by, created_at)
        VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at`
	if err := tx.QueryRowxContext(ctx, insert, payout.AgencyID, payout.Amount, payout.Note, payout.PaidBy, now).Scan(&payout.ID, &payout.CreatedAt); err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("insert payout: %w", err)
	}

	update := fmt.Sprintf(`UPDATE agencies SET commission_paid = commission_paid + $2, updated_at = $3
        WHERE id = $1 RETURNING %s`, agencyColumns)
	if err := tx.GetContext(ctx, &agency, update, payout.AgencyID, payout.Amount, now); err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("increment commission paid: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit payout tx: %w", err)
	}
	return &agency, nil
}

// ListPayouts returns the payout ledger for an agency, newest first.
func (r *AgencyRepository) ListPayouts(ctx context.Context, agencyID int64) ([]models.AgencyPayout, error) {
	const query = `SELECT id, agency_id, amount, note, paid_by, created_at FROM agency_payouts
        WHERE agency_id = $1 ORDER BY created_at DESC, id DESC`
	payouts := []models.AgencyPayout{}
	if err := r.db.SelectContext(ctx, &payouts, query, agencyID); err != nil {
		return nil, fmt.Errorf("list payouts: %w", err)
	}
	return payouts, nil
}

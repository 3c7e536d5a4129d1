package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/institute-crm-api/internal/models"
)

const registrationColumns = `id, name, father_name, cnic, phone, email, address, gender, academic_session,
        fee_paid, fee_pending, concession, whatsapp_welcome_sent, whatsapp_payment_sent, whatsapp_reminder_sent,
        comments, created_at, updated_at`

// RegistrationRepository persists registrations and their fee ledger.
type RegistrationRepository struct {
	db *sqlx.DB
}

// NewRegistrationRepository constructs a RegistrationRepository.
func NewRegistrationRepository(db *sqlx.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// Create inserts a registration and fills its generated identity and timestamps.
func (r *RegistrationRepository) Create(ctx context.Context, reg *models.Registration) error {
	const query = `INSERT INTO registrations (name, father_name, cnic, phone, email, address, gender, academic_session,
        fee_paid, fee_pending, concession, comments, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)
        RETURNING id, created_at, updated_at`
	row := r.db.QueryRowxContext(ctx, query,
		reg.Name, reg.FatherName, reg.CNIC, reg.Phone, reg.Email, reg.Address, reg.Gender, reg.AcademicSession,
		reg.FeePaid, reg.FeePending, reg.Concession, reg.Comments, time.Now().UTC())
	if err := row.Scan(&reg.ID, &reg.CreatedAt, &reg.UpdatedAt); err != nil {
		return fmt.Errorf("create registration: %w", err)
	}
	return nil
}

// FindByID fetches a registration by id.
func (r *RegistrationRepository) FindByID(ctx context.Context, id int64) (*models.Registration, error) {
	query := fmt.Sprintf(`SELECT %s FROM registrations WHERE id = $1`, registrationColumns)
	var reg models.Registration
	if err := r.db.GetContext(ctx, &reg, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find registration: %w", err)
	}
	return &reg, nil
}

// List returns registrations matching the filter.
func (r *RegistrationRepository) List(ctx context.Context, filter models.RegistrationFilter) ([]models.Registration, int, error) {
	base := "FROM registrations"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.AcademicSession != "" {
		args = append(args, filter.AcademicSession)
		conditions = append(conditions, fmt.Sprintf("academic_session = $%d", len(args)))
	}
	if filter.FullyPaid != nil {
		if *filter.FullyPaid {
			conditions = append(conditions, "fee_pending = 0")
		} else {
			conditions = append(conditions, "fee_pending > 0")
		}
	}
	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		conditions = append(conditions, fmt.Sprintf("(LOWER(name) LIKE $%d OR LOWER(father_name) LIKE $%d OR phone LIKE $%d OR COALESCE(cnic, '') LIKE $%d)", len(args), len(args), len(args), len(args)))
	}
	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	order := sortClause(filter.SortBy, filter.SortOrder, map[string]string{
		"name":        "name",
		"created_at":  "created_at",
		"fee_paid":    "fee_paid",
		"fee_pending": "fee_pending",
	}, "created_at")
	limit, offset := pageBounds(filter.Page, filter.PageSize)

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s, id DESC LIMIT %d OFFSET %d", registrationColumns, base, order, limit, offset)
	var regs []models.Registration
	if err := r.db.SelectContext(ctx, &regs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list registrations: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count registrations: %w", err)
	}
	return regs, total, nil
}

// ListAll returns every registration ordered by creation time, for exports.
func (r *RegistrationRepository) ListAll(ctx context.Context) ([]models.Registration, error) {
	query := fmt.Sprintf("SELECT %s FROM registrations ORDER BY created_at, id", registrationColumns)
	var regs []models.Registration
	if err := r.db.SelectContext(ctx, &regs, query); err != nil {
		return nil, fmt.Errorf("list all registrations: %w", err)
	}
	return regs, nil
}

// Update merges the patch into the stored row in one statement. Ledger fields are
// written independently; none is recomputed from the others.
func (r *RegistrationRepository) Update(ctx context.Context, id int64, patch models.RegistrationPatch) (*models.Registration, error) {
	query := fmt.Sprintf(`UPDATE registrations SET
        name = COALESCE($2, name),
        father_name = COALESCE($3, father_name),
        cnic = COALESCE($4, cnic),
        phone = COALESCE($5, phone),
        email = COALESCE($6, email),
        address = COALESCE($7, address),
        gender = COALESCE($8, gender),
        academic_session = COALESCE($9, academic_session),
        fee_paid = COALESCE($10, fee_paid),
        fee_pending = COALESCE($11, fee_pending),
        concession = COALESCE($12, concession),
        comments = COALESCE($13, comments),
        updated_at = $14
        WHERE id = $1
        RETURNING %s`, registrationColumns)
	var reg models.Registration
	err := r.db.GetContext(ctx, &reg, query, id,
		patch.Name, patch.FatherName, patch.CNIC, patch.Phone, patch.Email, patch.Address, patch.Gender,
		patch.AcademicSession, patch.FeePaid, patch.FeePending, patch.Concession, patch.Comments, time.Now().UTC())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("update registration: %w", err)
	}
	return &reg, nil
}

// MarkWhatsAppSent sets the flag for the message type and logs the send.
func (r *RegistrationRepository) MarkWhatsAppSent(ctx context.Context, id int64, column string, msgType models.WhatsAppMessageType, sentBy string) error {
	return markWhatsAppSent(ctx, r.db, whatsAppTarget{table: "registrations", owner: "registration_id", flag: column}, id, msgType, sentBy)
}

// Delete hard deletes a registration.
func (r *RegistrationRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM registrations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete registration: %w", err)
	}
	return requireAffected(res)
}

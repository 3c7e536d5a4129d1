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

const inquiryColumns = `i.id, i.name, i.phone, i.email, i.course, i.heard_from, i.question, i.checkbox_field, i.gender,
        i.matric_marks, i.out_of_marks, i.intermediate_stream, i.is_read, i.whatsapp_welcome_sent, i.whatsapp_followup_sent,
        i.whatsapp_reminder_sent, i.created_at, i.updated_at`

// latestStatusJoin resolves the newest history entry per inquiry. Ties on created_at fall back to insertion order.
const latestStatusJoin = `LEFT JOIN LATERAL (
        SELECT h.status, h.created_at FROM inquiry_status_history h
        WHERE h.inquiry_id = i.id ORDER BY h.created_at DESC, h.id DESC LIMIT 1
    ) latest ON TRUE`

// InquiryRepository manages persistence for inquiry records.
type InquiryRepository struct {
	db *sqlx.DB
}

// NewInquiryRepository constructs an InquiryRepository.
func NewInquiryRepository(db *sqlx.DB) *InquiryRepository {
	return &InquiryRepository{db: db}
}

// Create inserts a new inquiry and fills its generated identity and timestamps.
func (r *InquiryRepository) Create(ctx context.Context, inquiry *models.Inquiry) error {
	now := time.Now().UTC()
	const query = `INSERT INTO inquiries (name, phone, email, course, heard_from, question, checkbox_field, gender,
        matric_marks, out_of_marks, intermediate_stream, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
        RETURNING id, created_at, updated_at`
	row := r.db.QueryRowxContext(ctx, query,
		inquiry.Name, inquiry.Phone, inquiry.Email, inquiry.Course, inquiry.HeardFrom, inquiry.Question,
		inquiry.CheckboxField, inquiry.Gender, inquiry.MatricMarks, inquiry.OutOfMarks, inquiry.IntermediateStream, now)
	if err := row.Scan(&inquiry.ID, &inquiry.CreatedAt, &inquiry.UpdatedAt); err != nil {
		return fmt.Errorf("create inquiry: %w", err)
	}
	return nil
}

// FindByID fetches an inquiry together with its derived current status.
func (r *InquiryRepository) FindByID(ctx context.Context, id int64) (*models.InquiryDetail, error) {
	query := fmt.Sprintf(`SELECT %s,
        COALESCE(latest.status, '%s') AS current_status, latest.created_at AS status_updated_at
        FROM inquiries i %s WHERE i.id = $1`, inquiryColumns, models.StatusNone, latestStatusJoin)
	var detail models.InquiryDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find inquiry: %w", err)
	}
	return &detail, nil
}

// Exists reports whether an inquiry with the id is present.
func (r *InquiryRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists int
	if err := r.db.GetContext(ctx, &exists, `SELECT 1 FROM inquiries WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check inquiry: %w", err)
	}
	return true, nil
}

// List returns inquiries matching the filter, each with its derived current status.
func (r *InquiryRepository) List(ctx context.Context, filter models.InquiryFilter) ([]models.InquiryDetail, int, error) {
	base := "FROM inquiries i " + latestStatusJoin
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.Course != "" {
		args = append(args, filter.Course)
		conditions = append(conditions, fmt.Sprintf("i.course = $%d", len(args)))
	}
	if filter.IsRead != nil {
		args = append(args, *filter.IsRead)
		conditions = append(conditions, fmt.Sprintf("i.is_read = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("COALESCE(latest.status, '%s') = $%d", models.StatusNone, len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		conditions = append(conditions, fmt.Sprintf("(LOWER(i.name) LIKE $%d OR i.phone LIKE $%d OR LOWER(COALESCE(i.email, '')) LIKE $%d)", len(args), len(args), len(args)))
	}
	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	order := sortClause(filter.SortBy, filter.SortOrder, map[string]string{
		"name":       "i.name",
		"created_at": "i.created_at",
		"updated_at": "i.updated_at",
	}, "i.created_at")
	limit, offset := pageBounds(filter.Page, filter.PageSize)

	query := fmt.Sprintf(`SELECT %s,
        COALESCE(latest.status, '%s') AS current_status, latest.created_at AS status_updated_at
        %s ORDER BY %s, i.id DESC LIMIT %d OFFSET %d`, inquiryColumns, models.StatusNone, base, order, limit, offset)

	var inquiries []models.InquiryDetail
	if err := r.db.SelectContext(ctx, &inquiries, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list inquiries: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count inquiries: %w", err)
	}
	return inquiries, total, nil
}

// Update merges the patch into the stored inquiry. Nil fields keep their value.
func (r *InquiryRepository) Update(ctx context.Context, id int64, patch models.InquiryPatch) (*models.Inquiry, error) {
	query := fmt.Sprintf(`UPDATE inquiries i SET
        name = COALESCE($2, i.name),
        phone = COALESCE($3, i.phone),
        email = COALESCE($4, i.email),
        course = COALESCE($5, i.course),
        heard_from = COALESCE($6, i.heard_from),
        question = COALESCE($7, i.question),
        checkbox_field = COALESCE($8, i.checkbox_field),
        gender = COALESCE($9, i.gender),
        matric_marks = COALESCE($10, i.matric_marks),
        out_of_marks = COALESCE($11, i.out_of_marks),
        intermediate_stream = COALESCE($12, i.intermediate_stream),
        updated_at = $13
        WHERE i.id = $1
        RETURNING %s`, inquiryColumns)
	var inquiry models.Inquiry
	err := r.db.GetContext(ctx, &inquiry, query, id,
		patch.Name, patch.Phone, patch.Email, patch.Course, patch.HeardFrom, patch.Question, patch.CheckboxField,
		patch.Gender, patch.MatricMarks, patch.OutOfMarks, patch.IntermediateStream, time.Now().UTC())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("update inquiry: %w", err)
	}
	return &inquiry, nil
}

// SetRead toggles the read flag.
func (r *InquiryRepository) SetRead(ctx context.Context, id int64, read bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE inquiries SET is_read = $2, updated_at = $3 WHERE id = $1`, id, read, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("mark inquiry read: %w", err)
	}
	return requireAffected(res)
}

// MarkWhatsAppSent sets the flag for the message type and logs the send.
func (r *InquiryRepository) MarkWhatsAppSent(ctx context.Context, id int64, column string, msgType models.WhatsAppMessageType, sentBy string) error {
	return markWhatsAppSent(ctx, r.db, whatsAppTarget{table: "inquiries", owner: "inquiry_id", flag: column}, id, msgType, sentBy)
}

// Delete hard deletes an inquiry. Its history and message log cascade.
func (r *InquiryRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM inquiries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete inquiry: %w", err)
	}
	return requireAffected(res)
}

// Count returns the number of stored inquiries.
func (r *InquiryRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM inquiries`); err != nil {
		return 0, fmt.Errorf("count inquiries: %w", err)
	}
	return total, nil
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/institute-crm-api/internal/models"
)

type whatsAppTarget struct {
	table string
	owner string
	flag  string
}

// markWhatsAppSent flips a sent flag only if it is still unset, then records the message.
// The conditional update makes concurrent sends of the same type resolve to one winner.
func markWhatsAppSent(ctx context.Context, db *sqlx.DB, target whatsAppTarget, id int64, msgType models.WhatsAppMessageType, sentBy string) error {
	now := time.Now().UTC()
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin whatsapp tx: %w", err)
	}

	update := fmt.Sprintf(`UPDATE %s SET %s = TRUE, updated_at = $2 WHERE id = $1 AND %s = FALSE`, target.table, target.flag, target.flag)
	res, err := tx.ExecContext(ctx, update, id, now)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("set whatsapp flag: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("set whatsapp flag: %w", err)
	}
	if affected == 0 {
		var exists int
		err := tx.GetContext(ctx, &exists, fmt.Sprintf(`SELECT 1 FROM %s WHERE id = $1`, target.table), id)
		_ = tx.Rollback()
		if err == sql.ErrNoRows {
			return err
		}
		if err != nil {
			return fmt.Errorf("check whatsapp target: %w", err)
		}
		return ErrAlreadySent
	}

	insert := fmt.Sprintf(`INSERT INTO whatsapp_messages (%s, message_type, sent_by, sent_at) VALUES ($1, $2, $3, $4)`, target.owner)
	if _, err := tx.ExecContext(ctx, insert, id, msgType, sentBy, now); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("log whatsapp message: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit whatsapp tx: %w", err)
	}
	return nil
}

func requireAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

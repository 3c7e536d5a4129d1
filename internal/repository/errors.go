package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// ErrAlreadySent is returned when a WhatsApp flag is already set for the record.
var ErrAlreadySent = errors.New("whatsapp message already sent")

// ErrPayoutExceedsBalance is returned when a payout is larger than the outstanding commission.
var ErrPayoutExceedsBalance = errors.New("payout exceeds outstanding commission")

const (
	pqForeignKeyViolation = "23503"
	pqUniqueViolation     = "23505"
)

// IsForeignKeyViolation reports whether err was raised by a missing referenced row.
func IsForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == pqForeignKeyViolation
}

// IsUniqueViolation reports whether err was raised by a duplicate key.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation
}

func pageBounds(page, size int) (limit, offset int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return size, (page - 1) * size
}

func sortClause(sortBy, sortOrder string, allowed map[string]string, fallback string) string {
	column, ok := allowed[sortBy]
	if !ok {
		column = fallback
	}
	order := strings.ToUpper(sortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	return fmt.Sprintf("%s %s", column, order)
}

package models

import (
	"math"
	"time"
)

// Registration is a converted, paying student with an operator-maintained fee ledger.
// FeePaid, FeePending and Concession are independent; nothing keeps them balanced.
type Registration struct {
	ID                   int64     `db:"id" json:"id"`
	Name                 string    `db:"name" json:"name"`
	FatherName           string    `db:"father_name" json:"father_name"`
	CNIC                 *string   `db:"cnic" json:"cnic,omitempty"`
	Phone                string    `db:"phone" json:"phone"`
	Email                *string   `db:"email" json:"email,omitempty"`
	Address              *string   `db:"address" json:"address,omitempty"`
	Gender               *string   `db:"gender" json:"gender,omitempty"`
	AcademicSession      string    `db:"academic_session" json:"academic_session"`
	FeePaid              float64   `db:"fee_paid" json:"fee_paid"`
	FeePending           float64   `db:"fee_pending" json:"fee_pending"`
	Concession           float64   `db:"concession" json:"concession"`
	WhatsAppWelcomeSent  bool      `db:"whatsapp_welcome_sent" json:"whatsapp_welcome_sent"`
	WhatsAppPaymentSent  bool      `db:"whatsapp_payment_sent" json:"whatsapp_payment_sent"`
	WhatsAppReminderSent bool      `db:"whatsapp_reminder_sent" json:"whatsapp_reminder_sent"`
	Comments             *string   `db:"comments" json:"comments,omitempty"`
	CreatedAt            time.Time `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time `db:"updated_at" json:"updated_at"`
}

// LedgerTotals are read-time derivations over the stored fee triple.
type LedgerTotals struct {
	Subtotal           float64 `json:"subtotal"`
	TotalAfterDiscount float64 `json:"total_after_discount"`
	ReceiptAmount      float64 `json:"receipt_amount"`
	IsFullyPaid        bool    `json:"is_fully_paid"`
}

// Totals computes the ledger view. The receipt amount is always FeePaid.
func (r Registration) Totals() LedgerTotals {
	subtotal := r.FeePaid + r.FeePending
	return LedgerTotals{
		Subtotal:           subtotal,
		TotalAfterDiscount: subtotal - r.Concession,
		ReceiptAmount:      r.FeePaid,
		IsFullyPaid:        r.FeePending == 0,
	}
}

// RegistrationWithTotals is the API shape of a registration.
type RegistrationWithTotals struct {
	Registration
	Totals LedgerTotals `json:"totals"`
}

// WithTotals attaches the derived ledger view.
func (r Registration) WithTotals() RegistrationWithTotals {
	return RegistrationWithTotals{Registration: r, Totals: r.Totals()}
}

// RegistrationPatch lists editable registration fields. Nil fields keep their stored value.
type RegistrationPatch struct {
	Name            *string
	FatherName      *string
	CNIC            *string
	Phone           *string
	Email           *string
	Address         *string
	Gender          *string
	AcademicSession *string
	FeePaid         *float64
	FeePending      *float64
	Concession      *float64
	Comments        *string
}

// Amounts returns the financial fields present on the patch.
func (p RegistrationPatch) Amounts() []*float64 {
	return []*float64{p.FeePaid, p.FeePending, p.Concession}
}

// RegistrationFilter encapsulates allowed search parameters for listing registrations.
type RegistrationFilter struct {
	Search          string
	AcademicSession string
	FullyPaid       *bool
	Page            int
	PageSize        int
	SortBy          string
	SortOrder       string
}

// MaxLedgerAmount is the largest value a NUMERIC(12,2) fee column can hold.
const MaxLedgerAmount = 9_999_999_999.99

// ValidAmount reports whether a ledger amount is a finite, non-negative number
// that fits the fee columns.
func ValidAmount(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0 && v <= MaxLedgerAmount
}

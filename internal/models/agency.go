package models

import (
	"math"
	"time"
)

// Agency is a partner that refers students in exchange for commission.
type Agency struct {
	ID               int64     `db:"id" json:"id"`
	Name             string    `db:"name" json:"name"`
	ContactPerson    *string   `db:"contact_person" json:"contact_person,omitempty"`
	Phone            *string   `db:"phone" json:"phone,omitempty"`
	CommissionRate   float64   `db:"commission_rate" json:"commission_rate"`
	TotalStudents    int       `db:"total_students" json:"total_students"`
	TotalAmount      float64   `db:"total_amount" json:"total_amount"`
	CommissionEarned float64   `db:"commission_earned" json:"commission_earned"`
	CommissionPaid   float64   `db:"commission_paid" json:"commission_paid"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// Outstanding is the commission still owed to the agency, rounded to cents.
func (a Agency) Outstanding() float64 {
	return float64(cents(a.CommissionEarned)-cents(a.CommissionPaid)) / 100
}

// CanPay reports whether amount fits within the outstanding commission.
// The comparison is done in whole cents to match the NUMERIC columns.
func (a Agency) CanPay(amount float64) bool {
	return cents(amount) <= cents(a.CommissionEarned)-cents(a.CommissionPaid)
}

func cents(v float64) int64 {
	return int64(math.Round(v * 100))
}

// AgencyPayout is an append-only commission payment.
type AgencyPayout struct {
	ID        int64     `db:"id" json:"id"`
	AgencyID  int64     `db:"agency_id" json:"agency_id"`
	Amount    float64   `db:"amount" json:"amount"`
	Note      *string   `db:"note" json:"note,omitempty"`
	PaidBy    string    `db:"paid_by" json:"paid_by"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

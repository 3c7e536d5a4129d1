package models

import "time"

// Course discriminates which qualification fields an inquiry carries.
type Course string

const (
	CourseMDCAT        Course = "MDCAT"
	CourseIntermediate Course = "Intermediate"
)

// Inquiry is a prospective student's initial contact record. It has no status column;
// its status is derived from inquiry_status_history.
type Inquiry struct {
	ID                   int64     `db:"id" json:"id"`
	Name                 string    `db:"name" json:"name"`
	Phone                string    `db:"phone" json:"phone"`
	Email                *string   `db:"email" json:"email,omitempty"`
	Course               Course    `db:"course" json:"course"`
	HeardFrom            *string   `db:"heard_from" json:"heard_from,omitempty"`
	Question             *string   `db:"question" json:"question,omitempty"`
	CheckboxField        bool      `db:"checkbox_field" json:"checkbox_field"`
	Gender               *string   `db:"gender" json:"gender,omitempty"`
	MatricMarks          *int      `db:"matric_marks" json:"matric_marks,omitempty"`
	OutOfMarks           *int      `db:"out_of_marks" json:"out_of_marks,omitempty"`
	IntermediateStream   *string   `db:"intermediate_stream" json:"intermediate_stream,omitempty"`
	IsRead               bool      `db:"is_read" json:"is_read"`
	WhatsAppWelcomeSent  bool      `db:"whatsapp_welcome_sent" json:"whatsapp_welcome_sent"`
	WhatsAppFollowupSent bool      `db:"whatsapp_followup_sent" json:"whatsapp_followup_sent"`
	WhatsAppReminderSent bool      `db:"whatsapp_reminder_sent" json:"whatsapp_reminder_sent"`
	CreatedAt            time.Time `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time `db:"updated_at" json:"updated_at"`
}

// InquiryDetail is an inquiry with its derived current status.
type InquiryDetail struct {
	Inquiry
	CurrentStatus   InquiryStatus `db:"current_status" json:"current_status"`
	StatusUpdatedAt *time.Time    `db:"status_updated_at" json:"status_updated_at,omitempty"`
}

// InquiryFilter encapsulates allowed search parameters for listing inquiries.
type InquiryFilter struct {
	Search    string
	Course    Course
	Status    InquiryStatus
	IsRead    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// InquiryPatch lists editable inquiry fields. Nil fields keep their stored value.
type InquiryPatch struct {
	Name               *string
	Phone              *string
	Email              *string
	Course             *Course
	HeardFrom          *string
	Question           *string
	CheckboxField      *bool
	Gender             *string
	MatricMarks        *int
	OutOfMarks         *int
	IntermediateStream *string
}

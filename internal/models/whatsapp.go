package models

import "time"

// WhatsAppMessageType names one of the outbound templates tracked per record.
type WhatsAppMessageType string

const (
	WhatsAppWelcome  WhatsAppMessageType = "welcome"
	WhatsAppFollowup WhatsAppMessageType = "followup"
	WhatsAppPayment  WhatsAppMessageType = "payment"
	WhatsAppReminder WhatsAppMessageType = "reminder"
)

// InquiryFlagColumn maps an inquiry message type to its sent flag column.
func InquiryFlagColumn(t WhatsAppMessageType) (string, bool) {
	switch t {
	case WhatsAppWelcome:
		return "whatsapp_welcome_sent", true
	case WhatsAppFollowup, WhatsAppPayment:
		return "whatsapp_followup_sent", true
	case WhatsAppReminder:
		return "whatsapp_reminder_sent", true
	}
	return "", false
}

// RegistrationFlagColumn maps a registration message type to its sent flag column.
func RegistrationFlagColumn(t WhatsAppMessageType) (string, bool) {
	switch t {
	case WhatsAppWelcome:
		return "whatsapp_welcome_sent", true
	case WhatsAppPayment:
		return "whatsapp_payment_sent", true
	case WhatsAppReminder:
		return "whatsapp_reminder_sent", true
	}
	return "", false
}

// WhatsAppMessage records one outbound message so it is not sent twice.
type WhatsAppMessage struct {
	ID             int64               `db:"id" json:"id"`
	InquiryID      *int64              `db:"inquiry_id" json:"inquiry_id,omitempty"`
	RegistrationID *int64              `db:"registration_id" json:"registration_id,omitempty"`
	MessageType    WhatsAppMessageType `db:"message_type" json:"message_type"`
	SentBy         string              `db:"sent_by" json:"sent_by"`
	SentAt         time.Time           `db:"sent_at" json:"sent_at"`
}

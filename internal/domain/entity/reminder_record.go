package entity

import "time"

// Resultado de un intento de envío de recordatorio.
const (
	ReminderOutcomeSent   = "sent"
	ReminderOutcomeFailed = "failed"
)

// ReminderRecord es la entrada inmutable del log de auditoría: una por intento,
// incluidos los fallidos. Nunca se actualiza después de insertarse.
type ReminderRecord struct {
	ID           string
	InvoiceID    string
	Bucket       string
	Recipient    string
	Subject      string
	Outcome      string // sent | failed
	ErrorMessage string
	Channels     string // ej: "email,whatsapp"
	CreatedAt    time.Time
}

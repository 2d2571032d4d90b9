package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de factura. Un viaje se factura completo (standard) o partido en depósito + saldo final.
const (
	InvoiceTypeStandard = "standard"
	InvoiceTypeDeposit  = "deposit"
	InvoiceTypeFinal    = "final"
)

// Estados del ciclo de vida de la factura.
const (
	InvoiceStatusDraft     = "draft"
	InvoiceStatusSent      = "sent"
	InvoiceStatusViewed    = "viewed"
	InvoiceStatusPartial   = "partial"
	InvoiceStatusPaid      = "paid"
	InvoiceStatusOverdue   = "overdue"
	InvoiceStatusCancelled = "cancelled"
)

// Invoice representa una factura de viaje con su estado de recordatorios.
// Los campos monetarios solo los modifica el registro de pagos; el ciclo de
// recordatorios solo avanza ReminderCount, LastReminderSent y NextReminderDate.
type Invoice struct {
	ID              string
	Number          string
	Type            string // standard | deposit | final
	Status          string
	Currency        string // ISO 4217, ej: COP, USD
	TotalAmount     decimal.Decimal
	AmountPaid      decimal.Decimal
	BalanceDue      decimal.Decimal
	DepositPercent  decimal.Decimal // solo deposit/final
	ParentInvoiceID string          // final → depósito hermano (opcional)
	DueDate         *time.Time      // fecha sin hora; nil = no elegible para recordatorios

	ClientName  string
	ClientEmail string
	ClientPhone string // WhatsApp (opcional)

	ReminderPaused   bool
	ReminderCount    int
	LastReminderSent *time.Time
	NextReminderDate *time.Time // nil = elegible ya

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsSplit indica si la factura forma parte de un par depósito/final.
func (i *Invoice) IsSplit() bool {
	return i.Type == InvoiceTypeDeposit || i.Type == InvoiceTypeFinal
}

// IsClosed indica si la factura ya no admite cobros (pagada o anulada).
func (i *Invoice) IsClosed() bool {
	return i.Status == InvoiceStatusPaid || i.Status == InvoiceStatusCancelled
}

package dto

import "time"

// DispatchRequest body para POST /api/reminders/dispatch.
// Se acepta {invoiceIds:[...]} o {sendAll:true}; si vienen ambos mandan los ids.
type DispatchRequest struct {
	InvoiceIDs []string `json:"invoiceIds,omitempty"`
	SendAll    bool     `json:"sendAll,omitempty"`
}

// HasSelection indica si la solicitud elige candidatos de alguna forma.
func (r DispatchRequest) HasSelection() bool {
	return len(r.InvoiceIDs) > 0 || r.SendAll
}

// DispatchResult resumen de un ciclo de envío. Un fallo individual nunca hace fallar el ciclo.
type DispatchResult struct {
	Sent     int               `json:"sent"`
	Failed   int               `json:"failed"`
	Skipped  int               `json:"skipped"` // no procesados por cancelación del ciclo
	Details  []DispatchDetail  `json:"details"`
	Excluded []ExcludedInvoice `json:"excluded"`
}

// DispatchDetail resultado por factura.
type DispatchDetail struct {
	InvoiceID     string `json:"invoiceId"`
	InvoiceNumber string `json:"invoiceNumber"`
	Recipient     string `json:"recipient"`
	Outcome       string `json:"outcome"` // sent | failed | skipped
	Bucket        string `json:"bucket,omitempty"`
	Error         string `json:"error,omitempty"`
	RecordError   string `json:"recordError,omitempty"` // envío ok pero no se pudo persistir el avance
}

// ExcludedInvoice factura pedida explícitamente que no cumple la elegibilidad.
type ExcludedInvoice struct {
	InvoiceID string `json:"invoiceId"`
	Reason    string `json:"reason"`
}

// PreviewRequest filtros de GET /api/reminders/preview.
type PreviewRequest struct {
	Date       *time.Time // nil = hoy
	InvoiceIDs []string   // vacío = barrido completo
}

// PreviewResult lo que enviaría un dispatch, sin enviar ni escribir.
type PreviewResult struct {
	Date     string            `json:"date"`
	Items    []PreviewItem     `json:"items"`
	Excluded []ExcludedInvoice `json:"excluded"`
}

// PreviewItem una factura candidata con su clasificación.
type PreviewItem struct {
	InvoiceID     string `json:"invoiceId"`
	InvoiceNumber string `json:"invoiceNumber"`
	ClientName    string `json:"clientName"`
	Recipient     string `json:"recipient"`
	DueDate       string `json:"dueDate"`
	DaysUntilDue  int    `json:"daysUntilDue"`
	Bucket        string `json:"bucket"`
	Urgency       string `json:"urgency"`
	Subject       string `json:"subject"`
	BalanceDue    string `json:"balanceDue"`
	Currency      string `json:"currency"`
	Error         string `json:"error,omitempty"` // invariante rota: dispatch la registraría como fallida
}

// ReminderRecordResponse entrada del historial de GET /api/invoices/:id/reminders.
type ReminderRecordResponse struct {
	ID           string    `json:"id"`
	Bucket       string    `json:"bucket"`
	Recipient    string    `json:"recipient"`
	Subject      string    `json:"subject"`
	Outcome      string    `json:"outcome"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
	Channels     string    `json:"channels,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// PauseRemindersRequest body de PUT /api/invoices/:id/reminders/pause.
type PauseRemindersRequest struct {
	Paused *bool `json:"paused"`
}

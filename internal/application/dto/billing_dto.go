package dto

// SplitResponse cifras de pago partido de GET /api/invoices/:id/split.
// Montos redondeados a 2 decimales, solo para mostrar.
type SplitResponse struct {
	InvoiceID       string `json:"invoiceId"`
	InvoiceNumber   string `json:"invoiceNumber"`
	Type            string `json:"type"`
	Currency        string `json:"currency"`
	DepositPercent  string `json:"depositPercent,omitempty"`
	ParentInvoiceID string `json:"parentInvoiceId,omitempty"`
	InvoiceTotal    string `json:"invoiceTotal"`
	AmountPaid      string `json:"amountPaid"`
	BalanceDue      string `json:"balanceDue"`
	FullTripCost    string `json:"fullTripCost"`
	Deposit         string `json:"deposit"`
	Balance         string `json:"balance"`
}

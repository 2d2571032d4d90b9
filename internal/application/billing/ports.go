package billing

import (
	"context"

	"github.com/jhoicas/viajes-backoffice/internal/domain/entity"
	"github.com/jhoicas/viajes-backoffice/internal/domain/money"
)

// Issuer datos de la agencia que emite la factura.
type Issuer struct {
	Name    string
	TaxID   string
	Email   string
	Phone   string
	Address string
}

// InvoicePDFGenerator genera la representación PDF de una factura con su pago partido.
// split llega sin redondear; el generador redondea solo para mostrar.
type InvoicePDFGenerator interface {
	GenerateInvoicePDF(ctx context.Context, inv *entity.Invoice, split money.Split, issuer Issuer) ([]byte, error)
}

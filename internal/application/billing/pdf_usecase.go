package billing

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhoicas/viajes-backoffice/internal/domain"
	"github.com/jhoicas/viajes-backoffice/internal/domain/entity"
	"github.com/jhoicas/viajes-backoffice/internal/domain/money"
	"github.com/jhoicas/viajes-backoffice/internal/domain/repository"
)

// PDFUseCase genera el PDF de una factura de viaje con el desglose de pago partido.
// No se genera para borradores ni anuladas.
type PDFUseCase struct {
	invoiceRepo repository.InvoiceRepository
	generator   InvoicePDFGenerator
	issuer      Issuer
}

// NewPDFUseCase construye el caso de uso inyectando sus dependencias.
func NewPDFUseCase(invoiceRepo repository.InvoiceRepository, generator InvoicePDFGenerator, issuer Issuer) *PDFUseCase {
	return &PDFUseCase{invoiceRepo: invoiceRepo, generator: generator, issuer: issuer}
}

// DownloadInvoicePDF devuelve los bytes y el nombre de archivo.
//
// Retorna:
//   - domain.ErrNotFound     si la factura no existe.
//   - domain.ErrInvalidInput si está en borrador o anulada.
func (uc *PDFUseCase) DownloadInvoicePDF(ctx context.Context, invoiceID string) (pdfBytes []byte, filename string, err error) {
	inv, err := uc.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: obtener factura: %w", err)
	}
	if inv == nil {
		return nil, "", domain.ErrNotFound
	}
	if inv.Status == entity.InvoiceStatusDraft || inv.Status == entity.InvoiceStatusCancelled {
		return nil, "", fmt.Errorf("%w: la factura está en estado %s", domain.ErrInvalidInput, inv.Status)
	}

	split, err := money.SplitForInvoice(inv)
	if err != nil {
		return nil, "", err
	}

	pdfBytes, err = uc.generator.GenerateInvoicePDF(ctx, inv, split, uc.issuer)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: generación fallida: %w", err)
	}

	filename = fmt.Sprintf("factura_%s.pdf", strings.ReplaceAll(inv.Number, "/", "-"))
	return pdfBytes, filename, nil
}

package http

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/viajes-backoffice/internal/application/dto"
)

// SplitGetter lo implementa *billing.SplitUseCase.
type SplitGetter interface {
	GetSplit(ctx context.Context, invoiceID string) (*dto.SplitResponse, error)
}

// PDFDownloader lo implementa *billing.PDFUseCase.
type PDFDownloader interface {
	DownloadInvoicePDF(ctx context.Context, invoiceID string) ([]byte, string, error)
}

// InvoiceHandler consultas de facturas: pago partido y PDF.
type InvoiceHandler struct {
	split SplitGetter
	pdf   PDFDownloader
}

// NewInvoiceHandler construye el handler.
func NewInvoiceHandler(split SplitGetter, pdf PDFDownloader) *InvoiceHandler {
	return &InvoiceHandler{split: split, pdf: pdf}
}

// GetSplit costo total, depósito y saldo final (redondeados para mostrar).
// GET /api/invoices/:id/split
func (h *InvoiceHandler) GetSplit(c *fiber.Ctx) error {
	res, err := h.split.GetSplit(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(res)
}

// DownloadPDF GET /api/invoices/:id/pdf
func (h *InvoiceHandler) DownloadPDF(c *fiber.Ctx) error {
	body, filename, err := h.pdf.DownloadInvoicePDF(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Send(body)
}

package billing

import (
	"context"
	"fmt"

	"github.com/jhoicas/viajes-backoffice/internal/application/dto"
	"github.com/jhoicas/viajes-backoffice/internal/domain"
	"github.com/jhoicas/viajes-backoffice/internal/domain/money"
	"github.com/jhoicas/viajes-backoffice/internal/domain/repository"
)

// SplitUseCase expone las cifras de pago partido (costo total, depósito, saldo) de una factura.
type SplitUseCase struct {
	invoiceRepo repository.InvoiceRepository
}

// NewSplitUseCase construye el caso de uso.
func NewSplitUseCase(invoiceRepo repository.InvoiceRepository) *SplitUseCase {
	return &SplitUseCase{invoiceRepo: invoiceRepo}
}

// GetSplit devuelve domain.ErrNotFound si la factura no existe y
// domain.ErrInvalidPercentage si el porcentaje guardado está fuera de rango.
func (uc *SplitUseCase) GetSplit(ctx context.Context, invoiceID string) (*dto.SplitResponse, error) {
	inv, err := uc.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("split: obtener factura: %w", err)
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	split, err := money.SplitForInvoice(inv)
	if err != nil {
		return nil, err
	}
	r := split.Rounded()

	resp := &dto.SplitResponse{
		InvoiceID:       inv.ID,
		InvoiceNumber:   inv.Number,
		Type:            inv.Type,
		Currency:        inv.Currency,
		ParentInvoiceID: inv.ParentInvoiceID,
		InvoiceTotal:    money.RoundDisplay(inv.TotalAmount).StringFixed(2),
		AmountPaid:      money.RoundDisplay(inv.AmountPaid).StringFixed(2),
		BalanceDue:      money.RoundDisplay(inv.BalanceDue).StringFixed(2),
		FullTripCost:    r.FullTripCost.StringFixed(2),
		Deposit:         r.Deposit.StringFixed(2),
		Balance:         r.Balance.StringFixed(2),
	}
	if inv.IsSplit() {
		resp.DepositPercent = inv.DepositPercent.String()
	}
	return resp, nil
}

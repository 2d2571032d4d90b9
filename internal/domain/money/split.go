// Package money deriva las tres cifras de una reserva con pago partido
// (costo total del viaje, depósito y saldo) a partir de una factura y su porcentaje.
// Solo se usa para presentación (PDF/UI/recordatorios), nunca como estado contable.
//
// Toda la aritmética es decimal. No se redondea ningún valor intermedio: el
// redondeo a 2 decimales (half-up) se aplica una única vez con Split.Rounded o RoundDisplay.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/viajes-backoffice/internal/domain"
	"github.com/jhoicas/viajes-backoffice/internal/domain/entity"
)

// divisionScale cifras decimales que se conservan en cada división intermedia.
const divisionScale = 20

var hundred = decimal.NewFromInt(100)

// Split las tres cifras de una reserva partida, sin redondear.
type Split struct {
	FullTripCost decimal.Decimal
	Deposit      decimal.Decimal
	Balance      decimal.Decimal
}

// Rounded devuelve una copia con las tres cifras redondeadas para mostrar.
func (s Split) Rounded() Split {
	return Split{
		FullTripCost: RoundDisplay(s.FullTripCost),
		Deposit:      RoundDisplay(s.Deposit),
		Balance:      RoundDisplay(s.Balance),
	}
}

// ValidatePercent exige 0 < p < 100. Es la guarda de frontera: ningún porcentaje
// fuera de rango debe llegar a una división.
func ValidatePercent(p decimal.Decimal) error {
	if !p.GreaterThan(decimal.Zero) || !p.LessThan(hundred) {
		return fmt.Errorf("%w: %s", domain.ErrInvalidPercentage, p.String())
	}
	return nil
}

// DeriveFullTripCost reconstruye el costo total del viaje desde el total de una factura.
//
//	deposit: full = total * 100 / p
//	final:   full = total + total * p / (100 - p)
//	standard: full = total (no hay partición)
func DeriveFullTripCost(invoiceTotal, depositPercent decimal.Decimal, invoiceType string) (decimal.Decimal, error) {
	if invoiceTotal.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: %s", domain.ErrInvalidAmount, invoiceTotal.String())
	}
	switch invoiceType {
	case entity.InvoiceTypeStandard, "":
		return invoiceTotal, nil
	case entity.InvoiceTypeDeposit:
		if err := ValidatePercent(depositPercent); err != nil {
			return decimal.Zero, err
		}
		return invoiceTotal.Mul(hundred).DivRound(depositPercent, divisionScale), nil
	case entity.InvoiceTypeFinal:
		if err := ValidatePercent(depositPercent); err != nil {
			return decimal.Zero, err
		}
		depositShare := invoiceTotal.Mul(depositPercent).DivRound(hundred.Sub(depositPercent), divisionScale)
		return invoiceTotal.Add(depositShare), nil
	default:
		return decimal.Zero, fmt.Errorf("%w: tipo de factura %q", domain.ErrInvalidInput, invoiceType)
	}
}

// DeriveDepositAndBalance parte el costo total en depósito y saldo.
// balance = full - deposit, de modo que deposit + balance == full exactamente.
func DeriveDepositAndBalance(fullTripCost, depositPercent decimal.Decimal) (deposit, balance decimal.Decimal, err error) {
	if fullTripCost.IsNegative() {
		return decimal.Zero, decimal.Zero, fmt.Errorf("%w: %s", domain.ErrInvalidAmount, fullTripCost.String())
	}
	if err := ValidatePercent(depositPercent); err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	deposit = fullTripCost.Mul(depositPercent).DivRound(hundred, divisionScale)
	balance = fullTripCost.Sub(deposit)
	return deposit, balance, nil
}

// SplitFor calcula las tres cifras sin redondear. Para facturas standard el
// depósito es cero y el saldo es el total.
func SplitFor(invoiceTotal, depositPercent decimal.Decimal, invoiceType string) (Split, error) {
	full, err := DeriveFullTripCost(invoiceTotal, depositPercent, invoiceType)
	if err != nil {
		return Split{}, err
	}
	if invoiceType == entity.InvoiceTypeStandard || invoiceType == "" {
		return Split{FullTripCost: full, Deposit: decimal.Zero, Balance: full}, nil
	}
	deposit, balance, err := DeriveDepositAndBalance(full, depositPercent)
	if err != nil {
		return Split{}, err
	}
	return Split{FullTripCost: full, Deposit: deposit, Balance: balance}, nil
}

// SplitForInvoice atajo sobre los campos de la entidad.
func SplitForInvoice(inv *entity.Invoice) (Split, error) {
	if inv == nil {
		return Split{}, domain.ErrInvalidInput
	}
	return SplitFor(inv.TotalAmount, inv.DepositPercent, inv.Type)
}

// RoundDisplay redondea a 2 decimales, mitad alejándose de cero (2.345 → 2.35, -2.345 → -2.35).
// Para los montos no negativos del dominio equivale a half-up.
func RoundDisplay(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

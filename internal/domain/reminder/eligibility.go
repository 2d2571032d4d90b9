package reminder

import (
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/viajes-backoffice/internal/domain"
	"github.com/jhoicas/viajes-backoffice/internal/domain/entity"
)

// Reason motivo por el que una factura no es elegible para recordatorio.
type Reason string

const (
	ReasonNone         Reason = ""
	ReasonNotFound     Reason = "not_found"
	ReasonStatusClosed Reason = "status_closed"
	ReasonNoBalance    Reason = "no_balance"
	ReasonPaused       Reason = "paused"
	ReasonNoEmail      Reason = "no_email"
	ReasonNoDueDate    Reason = "no_due_date"
	ReasonNotScheduled Reason = "not_scheduled"
)

// CheckEligible evalúa el predicado de elegibilidad y devuelve el primer motivo que
// falla, o ReasonNone. Con ignoreSchedule se omite solo el filtro de fecha
// (next_reminder_date), que es lo que permite el envío manual por ids.
func CheckEligible(inv *entity.Invoice, today time.Time, ignoreSchedule bool) Reason {
	if inv == nil {
		return ReasonNotFound
	}
	if inv.IsClosed() {
		return ReasonStatusClosed
	}
	if !inv.BalanceDue.IsPositive() {
		return ReasonNoBalance
	}
	if inv.ReminderPaused {
		return ReasonPaused
	}
	if strings.TrimSpace(inv.ClientEmail) == "" {
		return ReasonNoEmail
	}
	if inv.DueDate == nil {
		return ReasonNoDueDate
	}
	if !ignoreSchedule && inv.NextReminderDate != nil {
		if DateOf(*inv.NextReminderDate, nil).After(DateOf(today, nil)) {
			return ReasonNotScheduled
		}
	}
	return ReasonNone
}

// ValidateInvariants verifica la consistencia de los datos antes de enviar.
// Un error aquí es un fallo local del candidato, nunca aborta el barrido.
func ValidateInvariants(inv *entity.Invoice) error {
	if inv == nil {
		return fmt.Errorf("%w: factura nula", domain.ErrInvariantViolation)
	}
	if inv.BalanceDue.IsNegative() {
		return fmt.Errorf("%w: saldo negativo %s", domain.ErrInvariantViolation, inv.BalanceDue.String())
	}
	if expected := inv.TotalAmount.Sub(inv.AmountPaid); !expected.Equal(inv.BalanceDue) {
		return fmt.Errorf("%w: saldo %s distinto de total - pagado (%s)",
			domain.ErrInvariantViolation, inv.BalanceDue.String(), expected.String())
	}
	if strings.TrimSpace(inv.ClientEmail) == "" {
		return fmt.Errorf("%w: cliente sin email", domain.ErrInvariantViolation)
	}
	if inv.DueDate == nil {
		return fmt.Errorf("%w: factura sin fecha de vencimiento", domain.ErrInvariantViolation)
	}
	return nil
}

package repository

import (
	"context"
	"time"

	"github.com/jhoicas/viajes-backoffice/internal/domain/entity"
)

// InvoiceRepository define el puerto de persistencia de facturas para el ciclo de recordatorios.
// Nunca escribe campos monetarios: esos los mantiene el registro de pagos.
type InvoiceRepository interface {
	// ListReminderEligible devuelve las facturas elegibles a la fecha asOf
	// (estado abierto, saldo > 0, sin pausa, con email y vencimiento,
	// next_reminder_date nulo o <= asOf), ordenadas por vencimiento y número.
	ListReminderEligible(ctx context.Context, asOf time.Time) ([]*entity.Invoice, error)
	// ListByIDs devuelve las facturas encontradas; los ids inexistentes se omiten.
	ListByIDs(ctx context.Context, ids []string) ([]*entity.Invoice, error)
	// GetByID devuelve nil, nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.Invoice, error)
	// RecordReminderOutcome avanza el estado de recordatorios tras un envío exitoso.
	// Falla con domain.ErrConflict si reminder_count ya es >= newCount.
	RecordReminderOutcome(ctx context.Context, invoiceID string, newCount int, lastSentAt, nextDate time.Time) error
	// SetReminderPaused pausa o reanuda los recordatorios de una factura.
	SetReminderPaused(ctx context.Context, invoiceID string, paused bool) error
}

package repository

import (
	"context"

	"github.com/jhoicas/viajes-backoffice/internal/domain/entity"
)

// ReminderRecordRepository log de auditoría de intentos de recordatorio. Solo inserción.
type ReminderRecordRepository interface {
	Append(ctx context.Context, rec *entity.ReminderRecord) error
	// ListByInvoice historial más reciente primero; limit <= 0 usa un tope por defecto.
	ListByInvoice(ctx context.Context, invoiceID string, limit int) ([]*entity.ReminderRecord, error)
}

package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jhoicas/viajes-backoffice/internal/domain"
	"github.com/jhoicas/viajes-backoffice/internal/domain/entity"
	"github.com/jhoicas/viajes-backoffice/internal/domain/repository"
)

var _ repository.ReminderRecordRepository = (*ReminderRecordRepo)(nil)

const defaultRecordLimit = 50

// ReminderRecordRepo log de auditoría en reminder_records. Solo INSERT y SELECT.
type ReminderRecordRepo struct {
	q Querier
}

// NewReminderRecordRepository construye el adaptador. Pasar pool o tx (Querier).
func NewReminderRecordRepository(q Querier) *ReminderRecordRepo {
	return &ReminderRecordRepo{q: q}
}

// Append inserta un intento. Un ID repetido devuelve domain.ErrConflict.
func (r *ReminderRecordRepo) Append(ctx context.Context, rec *entity.ReminderRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	const query = `
		INSERT INTO reminder_records (id, invoice_id, bucket, recipient, subject, outcome, error_message, channels, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		rec.ID, rec.InvoiceID, rec.Bucket, rec.Recipient, rec.Subject, rec.Outcome,
		nullIfEmpty(rec.ErrorMessage), nullIfEmpty(rec.Channels), rec.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: registro %s duplicado", domain.ErrConflict, rec.ID)
		}
		return fmt.Errorf("insert reminder record: %w", err)
	}
	return nil
}

// ListByInvoice historial de una factura, más reciente primero.
func (r *ReminderRecordRepo) ListByInvoice(ctx context.Context, invoiceID string, limit int) ([]*entity.ReminderRecord, error) {
	if limit <= 0 {
		limit = defaultRecordLimit
	}
	const query = `
		SELECT id, invoice_id, bucket, recipient, subject, outcome, error_message, channels, created_at
		FROM reminder_records
		WHERE invoice_id = $1
		ORDER BY created_at DESC
		LIMIT $2`
	rows, err := r.q.Query(ctx, query, invoiceID, limit)
	if err != nil {
		return nil, fmt.Errorf("list reminder records: %w", err)
	}
	defer rows.Close()

	var list []*entity.ReminderRecord
	for rows.Next() {
		var (
			rec      entity.ReminderRecord
			errMsg   *string
			channels *string
		)
		if err := rows.Scan(&rec.ID, &rec.InvoiceID, &rec.Bucket, &rec.Recipient, &rec.Subject,
			&rec.Outcome, &errMsg, &channels, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan reminder record: %w", err)
		}
		rec.ErrorMessage = derefStr(errMsg)
		rec.Channels = derefStr(channels)
		list = append(list, &rec)
	}
	return list, rows.Err()
}

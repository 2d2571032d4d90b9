package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/viajes-backoffice/internal/domain"
	"github.com/jhoicas/viajes-backoffice/internal/domain/entity"
	"github.com/jhoicas/viajes-backoffice/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

const invoiceColumns = `
		id, number, type, status, currency,
		total_amount, amount_paid, balance_due, deposit_percent, parent_invoice_id,
		due_date, client_name, client_email, client_phone,
		reminder_paused, reminder_count, last_reminder_sent, next_reminder_date,
		created_at, updated_at`

// InvoiceRepo implementación de InvoiceRepository (usable con pool o tx).
type InvoiceRepo struct {
	q Querier
}

// NewInvoiceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

// ListReminderEligible aplica en SQL el predicado de elegibilidad completo.
func (r *InvoiceRepo) ListReminderEligible(ctx context.Context, asOf time.Time) ([]*entity.Invoice, error) {
	query := `
		SELECT` + invoiceColumns + `
		FROM invoices
		WHERE status NOT IN ('paid', 'cancelled')
		  AND balance_due > 0
		  AND reminder_paused = FALSE
		  AND COALESCE(client_email, '') <> ''
		  AND due_date IS NOT NULL
		  AND (next_reminder_date IS NULL OR next_reminder_date <= $1)
		ORDER BY due_date ASC, number ASC`
	rows, err := r.q.Query(ctx, query, asOf)
	if err != nil {
		return nil, fmt.Errorf("list reminder eligible invoices: %w", err)
	}
	return collectInvoices(rows)
}

// ListByIDs devuelve solo las facturas existentes, en orden de vencimiento.
func (r *InvoiceRepo) ListByIDs(ctx context.Context, ids []string) ([]*entity.Invoice, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `
		SELECT` + invoiceColumns + `
		FROM invoices
		WHERE id = ANY($1)
		ORDER BY due_date ASC NULLS LAST, number ASC`
	rows, err := r.q.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("list invoices by ids: %w", err)
	}
	return collectInvoices(rows)
}

// GetByID obtiene una factura por ID; nil, nil si no existe.
func (r *InvoiceRepo) GetByID(ctx context.Context, id string) (*entity.Invoice, error) {
	query := `
		SELECT` + invoiceColumns + `
		FROM invoices WHERE id = $1`
	inv, err := scanInvoice(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	return inv, nil
}

// RecordReminderOutcome avanza contador y fechas. La condición sobre reminder_count
// hace que dos envíos concurrentes no avancen dos veces la misma factura.
func (r *InvoiceRepo) RecordReminderOutcome(ctx context.Context, invoiceID string, newCount int, lastSentAt, nextDate time.Time) error {
	const query = `
		UPDATE invoices
		SET reminder_count     = $2,
		    last_reminder_sent = $3,
		    next_reminder_date = $4,
		    updated_at         = $3
		WHERE id = $1 AND reminder_count < $2`
	tag, err := r.q.Exec(ctx, query, invoiceID, newCount, lastSentAt, nextDate)
	if err != nil {
		return fmt.Errorf("record reminder outcome: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: factura %s ya avanzada o inexistente", domain.ErrConflict, invoiceID)
	}
	return nil
}

// SetReminderPaused pausa/reanuda recordatorios.
func (r *InvoiceRepo) SetReminderPaused(ctx context.Context, invoiceID string, paused bool) error {
	const query = `UPDATE invoices SET reminder_paused = $2, updated_at = NOW() WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, invoiceID, paused)
	if err != nil {
		return fmt.Errorf("set reminder paused: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func collectInvoices(rows pgx.Rows) ([]*entity.Invoice, error) {
	defer rows.Close()
	var list []*entity.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		list = append(list, inv)
	}
	return list, rows.Err()
}

func scanInvoice(row pgx.Row) (*entity.Invoice, error) {
	var (
		inv            entity.Invoice
		depositPercent decimal.NullDecimal
		parentID       *string
		clientName     *string
		clientEmail    *string
		clientPhone    *string
	)
	err := row.Scan(
		&inv.ID, &inv.Number, &inv.Type, &inv.Status, &inv.Currency,
		&inv.TotalAmount, &inv.AmountPaid, &inv.BalanceDue, &depositPercent, &parentID,
		&inv.DueDate, &clientName, &clientEmail, &clientPhone,
		&inv.ReminderPaused, &inv.ReminderCount, &inv.LastReminderSent, &inv.NextReminderDate,
		&inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if depositPercent.Valid {
		inv.DepositPercent = depositPercent.Decimal
	}
	inv.ParentInvoiceID = derefStr(parentID)
	inv.ClientName = derefStr(clientName)
	inv.ClientEmail = derefStr(clientEmail)
	inv.ClientPhone = derefStr(clientPhone)
	return &inv, nil
}

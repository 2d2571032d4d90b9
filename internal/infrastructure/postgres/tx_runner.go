package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/viajes-backoffice/internal/application/reminder"
	"github.com/jhoicas/viajes-backoffice/internal/domain/repository"
)

var _ reminder.ReminderTxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	db TxBeginner
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(db TxBeginner) *TxRunner {
	return &TxRunner{db: db}
}

// RunReminder abre una transacción, ejecuta fn con los repos de facturas y auditoría
// atados a ella y hace Commit; ante cualquier error, Rollback.
func (r *TxRunner) RunReminder(ctx context.Context, fn func(
	invoiceRepo repository.InvoiceRepository,
	recordRepo repository.ReminderRecordRepository,
) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewInvoiceRepository(tx), NewReminderRecordRepository(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

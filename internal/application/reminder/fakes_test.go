package reminder_test

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jhoicas/viajes-backoffice/internal/application/reminder"
	"github.com/jhoicas/viajes-backoffice/internal/domain"
	"github.com/jhoicas/viajes-backoffice/internal/domain/entity"
	"github.com/jhoicas/viajes-backoffice/internal/domain/repository"
)

// ─── Facturas ────────────────────────────────────────────────────────────────

// fakeInvoices guarda copias: el servicio nunca recibe punteros al estado interno.
// ListReminderEligible devuelve todas las filas, así se ejercita el filtro propio del servicio.
type fakeInvoices struct {
	mu       sync.Mutex
	rows     map[string]entity.Invoice
	order    []string
	listErr  error
	outcomes int
	dupes    bool // el listado repite cada fila, como un JOIN mal acotado
}

func newFakeInvoices(invs ...*entity.Invoice) *fakeInvoices {
	f := &fakeInvoices{rows: map[string]entity.Invoice{}}
	for _, inv := range invs {
		f.rows[inv.ID] = *inv
		f.order = append(f.order, inv.ID)
	}
	return f
}

func (f *fakeInvoices) get(id string) entity.Invoice {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows[id]
}

func (f *fakeInvoices) ListReminderEligible(_ context.Context, _ time.Time) ([]*entity.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]*entity.Invoice, 0, len(f.order))
	for _, id := range f.order {
		inv := f.rows[id]
		out = append(out, &inv)
		if f.dupes {
			again := f.rows[id]
			out = append(out, &again)
		}
	}
	return out, nil
}

func (f *fakeInvoices) ListByIDs(_ context.Context, ids []string) ([]*entity.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.Invoice
	for _, id := range ids {
		if inv, ok := f.rows[id]; ok {
			out = append(out, &inv)
		}
	}
	return out, nil
}

func (f *fakeInvoices) GetByID(_ context.Context, id string) (*entity.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.rows[id]
	if !ok {
		return nil, nil
	}
	return &inv, nil
}

func (f *fakeInvoices) RecordReminderOutcome(_ context.Context, id string, newCount int, lastSentAt, nextDate time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.rows[id]
	if !ok {
		return domain.ErrNotFound
	}
	if inv.ReminderCount >= newCount {
		return domain.ErrConflict
	}
	inv.ReminderCount = newCount
	inv.LastReminderSent = &lastSentAt
	inv.NextReminderDate = &nextDate
	f.rows[id] = inv
	f.outcomes++
	return nil
}

func (f *fakeInvoices) SetReminderPaused(_ context.Context, id string, paused bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.rows[id]
	if !ok {
		return domain.ErrNotFound
	}
	inv.ReminderPaused = paused
	f.rows[id] = inv
	return nil
}

// ─── Auditoría ───────────────────────────────────────────────────────────────

type fakeRecords struct {
	mu        sync.Mutex
	recs      []entity.ReminderRecord
	appendErr error
	panicMsg  string // si no es vacío, Append entra en panic
}

func (f *fakeRecords) Append(_ context.Context, rec *entity.ReminderRecord) error {
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return f.appendErr
	}
	f.recs = append(f.recs, *rec)
	return nil
}

func (f *fakeRecords) ListByInvoice(_ context.Context, invoiceID string, limit int) ([]*entity.ReminderRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.ReminderRecord
	for i := len(f.recs) - 1; i >= 0 && len(out) < limit; i-- {
		if f.recs[i].InvoiceID == invoiceID {
			r := f.recs[i]
			out = append(out, &r)
		}
	}
	return out, nil
}

func (f *fakeRecords) all() []entity.ReminderRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]entity.ReminderRecord(nil), f.recs...)
	sort.Slice(out, func(i, j int) bool { return out[i].InvoiceID < out[j].InvoiceID })
	return out
}

// ─── Transacción ─────────────────────────────────────────────────────────────

type fakeTx struct {
	invoices repository.InvoiceRepository
	records  repository.ReminderRecordRepository
	err      error  // si no es nil, la transacción falla sin ejecutar fn
	panicMsg string // si no es vacío, la transacción entra en panic sin ejecutar fn
}

func (t *fakeTx) RunReminder(_ context.Context, fn func(repository.InvoiceRepository, repository.ReminderRecordRepository) error) error {
	if t.panicMsg != "" {
		panic(t.panicMsg)
	}
	if t.err != nil {
		return t.err
	}
	return fn(t.invoices, t.records)
}

// ─── Notificación ────────────────────────────────────────────────────────────

type fakeNotifier struct {
	mu     sync.Mutex
	sent   []reminder.Message
	failTo map[string]string // email → mensaje de error
	panics map[string]bool
	blocks map[string]bool // espera hasta que venza el contexto del envío
}

func (n *fakeNotifier) Send(ctx context.Context, msg reminder.Message) error {
	if n.panics[msg.To] {
		panic("smtp caído")
	}
	if n.blocks[msg.To] {
		<-ctx.Done()
		return ctx.Err()
	}
	if reason, ok := n.failTo[msg.To]; ok {
		return errors.New(reason)
	}
	n.mu.Lock()
	n.sent = append(n.sent, msg)
	n.mu.Unlock()
	return nil
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

func (n *fakeNotifier) subjects() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var s []string
	for _, m := range n.sent {
		s = append(s, m.Subject)
	}
	return strings.Join(s, "|")
}

type heldLocker struct{}

func (heldLocker) Acquire(context.Context, string, time.Duration) (func(), error) {
	return nil, domain.ErrSweepInProgress
}

type countingRecorder struct {
	mu       sync.Mutex
	excluded map[string]int
}

func (r *countingRecorder) ObserveAttempt(string, string) {}
func (r *countingRecorder) ObservePersistFailure()        {}
func (r *countingRecorder) ObserveSweep(time.Duration)    {}

func (r *countingRecorder) ObserveExcluded(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.excluded == nil {
		r.excluded = map[string]int{}
	}
	r.excluded[reason]++
}

func (r *countingRecorder) excludedCount(reason string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.excluded[reason]
}

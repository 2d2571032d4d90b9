package reminder

import (
	"context"
	"time"

	"github.com/jhoicas/viajes-backoffice/internal/domain/repository"
)

// ReminderTxRunner ejecuta fn en una transacción con los repos de facturas y auditoría
// atados a ella: el avance de la factura y su registro se confirman juntos o ninguno.
type ReminderTxRunner interface {
	RunReminder(ctx context.Context, fn func(
		invoiceRepo repository.InvoiceRepository,
		recordRepo repository.ReminderRecordRepository,
	) error) error
}

// Message mensaje ya renderizado para un cliente.
type Message struct {
	To      string // email
	Phone   string // opcional, canal secundario
	Subject string
	Body    string
}

// Notifier entrega un mensaje. nil = entregado; un error no nil es el motivo del fallo
// y su texto queda en la auditoría. Sin reintentos dentro del mismo ciclo.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// ChannelDescriber lo implementan los notifiers que pueden decir por qué canales
// saldría un mensaje (ej: "email", "whatsapp"). Es opcional.
type ChannelDescriber interface {
	Channels(msg Message) []string
}

// Locker exclusión mutua del ciclo de envío. Acquire devuelve domain.ErrSweepInProgress
// si otro proceso ya lo tiene; unlock libera y es seguro llamarlo una sola vez.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}

// Recorder métricas del ciclo. Opcional.
type Recorder interface {
	ObserveAttempt(outcome, bucket string)
	ObserveExcluded(reason string)
	ObservePersistFailure()
	ObserveSweep(elapsed time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ObserveAttempt(string, string) {}
func (nopRecorder) ObserveExcluded(string)        {}
func (nopRecorder) ObservePersistFailure()        {}
func (nopRecorder) ObserveSweep(time.Duration)    {}

type nopLocker struct{}

func (nopLocker) Acquire(context.Context, string, time.Duration) (func(), error) {
	return func() {}, nil
}

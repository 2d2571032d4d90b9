package notification

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/jhoicas/viajes-backoffice/internal/application/reminder"
)

var _ reminder.Notifier = (*LogNotifier)(nil)

// LogNotifier no envía nada: escribe el mensaje en el log. Para APP_ENV=development
// o cuando no hay SMTP configurado.
type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Send(ctx context.Context, msg reminder.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.log.Info().
		Str("to", msg.To).
		Str("phone", msg.Phone).
		Str("subject", msg.Subject).
		Int("body_len", len(msg.Body)).
		Msg("recordatorio (modo log, no enviado)")
	return nil
}

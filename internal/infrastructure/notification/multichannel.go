package notification

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jhoicas/viajes-backoffice/internal/application/reminder"
)

var (
	_ reminder.Notifier         = (*MultiChannel)(nil)
	_ reminder.ChannelDescriber = (*MultiChannel)(nil)
)

// MultiChannel email como canal primario y WhatsApp como acompañante opcional.
// El resultado del envío lo decide solo el email; un fallo de WhatsApp se registra en log.
type MultiChannel struct {
	primary   reminder.Notifier
	secondary reminder.Notifier // puede ser nil
	log       zerolog.Logger
}

// NewMultiChannel arma el notifier compuesto. secondary puede ser nil.
func NewMultiChannel(primary, secondary reminder.Notifier, log zerolog.Logger) *MultiChannel {
	return &MultiChannel{primary: primary, secondary: secondary, log: log}
}

// Send entrega por email y, si hubo éxito y el cliente tiene teléfono, por WhatsApp.
func (m *MultiChannel) Send(ctx context.Context, msg reminder.Message) error {
	if err := m.primary.Send(ctx, msg); err != nil {
		return err
	}
	if !m.useSecondary(msg) {
		return nil
	}
	if err := m.secondary.Send(ctx, msg); err != nil {
		m.log.Warn().Err(err).Str("to", msg.To).Msg("whatsapp: envío secundario fallido")
	}
	return nil
}

// Channels canales que intentaría Send para msg.
func (m *MultiChannel) Channels(msg reminder.Message) []string {
	if m.useSecondary(msg) {
		return []string{ChannelEmail, ChannelWhatsApp}
	}
	return []string{ChannelEmail}
}

func (m *MultiChannel) useSecondary(msg reminder.Message) bool {
	return m.secondary != nil && strings.TrimSpace(msg.Phone) != ""
}

package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/jhoicas/viajes-backoffice/internal/application/reminder"
)

// ChannelEmail nombre del canal en la auditoría.
const ChannelEmail = "email"

var _ reminder.Notifier = (*EmailNotifier)(nil)

// mailSender lo cumple *gomail.Dialer; en tests se inyecta un doble.
type mailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

// EmailNotifier canal primario vía SMTP.
type EmailNotifier struct {
	sender mailSender
	from   string
}

// NewEmailNotifier construye el notifier con un dialer SMTP.
func NewEmailNotifier(host string, port int, user, password, from string) *EmailNotifier {
	return &EmailNotifier{
		sender: gomail.NewDialer(host, port, user, password),
		from:   from,
	}
}

// Send arma el mensaje en texto plano y lo entrega. gomail no acepta contexto:
// si ctx ya terminó no se intenta el envío.
func (n *EmailNotifier) Send(ctx context.Context, msg reminder.Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return errors.New("email: destinatario vacío")
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("email: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)

	done := make(chan error, 1)
	go func() { done <- n.sender.DialAndSend(m) }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("email: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("email: %w", ctx.Err())
	}
}

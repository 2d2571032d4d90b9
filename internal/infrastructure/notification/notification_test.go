package notification

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"github.com/jhoicas/viajes-backoffice/internal/application/reminder"
)

type senderStub struct {
	err  error
	sent []*gomail.Message
}

func (s *senderStub) DialAndSend(m ...*gomail.Message) error {
	s.sent = append(s.sent, m...)
	return s.err
}

type notifierStub struct {
	err   error
	calls int
}

func (n *notifierStub) Send(context.Context, reminder.Message) error {
	n.calls++
	return n.err
}

var msg = reminder.Message{
	To:      "ana@example.com",
	Phone:   "+57 300 123 4567",
	Subject: "Su factura F-1 vence hoy",
	Body:    "Saldo pendiente: USD 1,000.00",
}

func TestEmailNotifier_Send(t *testing.T) {
	stub := &senderStub{}
	n := &EmailNotifier{sender: stub, from: "cobranzas@viajes.test"}

	require.NoError(t, n.Send(context.Background(), msg))
	require.Len(t, stub.sent, 1)
	assert.Equal(t, []string{"ana@example.com"}, stub.sent[0].GetHeader("To"))
	assert.Equal(t, []string{msg.Subject}, stub.sent[0].GetHeader("Subject"))
	assert.Equal(t, []string{"cobranzas@viajes.test"}, stub.sent[0].GetHeader("From"))
}

func TestEmailNotifier_Errores(t *testing.T) {
	stub := &senderStub{err: errors.New("535 auth failed")}
	n := &EmailNotifier{sender: stub, from: "x@y.z"}

	err := n.Send(context.Background(), msg)
	assert.ErrorContains(t, err, "535 auth failed")

	err = n.Send(context.Background(), reminder.Message{To: "  "})
	assert.ErrorContains(t, err, "destinatario vacío")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	before := len(stub.sent)
	assert.ErrorIs(t, n.Send(ctx, msg), context.Canceled)
	assert.Len(t, stub.sent, before)
}

func TestWhatsAppNotifier_Send(t *testing.T) {
	var got waTextMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/123/messages", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.1"}]}`))
	}))
	defer srv.Close()

	c := NewWhatsAppNotifier(srv.URL+"/", "123", "tok", time.Second)
	require.NoError(t, c.Send(context.Background(), msg))
	assert.Equal(t, "whatsapp", got.MessagingProduct)
	assert.Equal(t, "573001234567", got.To)
	assert.Equal(t, "text", got.Type)
	assert.Contains(t, got.Text.Body, msg.Subject)
	assert.Contains(t, got.Text.Body, msg.Body)
}

func TestWhatsAppNotifier_ErrorAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid parameter","code":100}}`))
	}))
	defer srv.Close()

	c := NewWhatsAppNotifier(srv.URL, "123", "tok", time.Second)
	err := c.Send(context.Background(), msg)
	assert.ErrorContains(t, err, "HTTP 400: Invalid parameter (code 100)")

	err = c.Send(context.Background(), reminder.Message{Phone: "sin dígitos"})
	assert.ErrorContains(t, err, "teléfono vacío")
}

func TestMultiChannel(t *testing.T) {
	t.Run("email ok, whatsapp falla: entregado", func(t *testing.T) {
		email, wa := &notifierStub{}, &notifierStub{err: errors.New("HTTP 500")}
		m := NewMultiChannel(email, wa, zerolog.Nop())

		assert.NoError(t, m.Send(context.Background(), msg))
		assert.Equal(t, 1, email.calls)
		assert.Equal(t, 1, wa.calls)
		assert.Equal(t, []string{ChannelEmail, ChannelWhatsApp}, m.Channels(msg))
	})

	t.Run("email falla: no intenta whatsapp", func(t *testing.T) {
		email, wa := &notifierStub{err: errors.New("smtp caído")}, &notifierStub{}
		m := NewMultiChannel(email, wa, zerolog.Nop())

		assert.ErrorContains(t, m.Send(context.Background(), msg), "smtp caído")
		assert.Equal(t, 0, wa.calls)
	})

	t.Run("sin teléfono o sin secundario: solo email", func(t *testing.T) {
		email, wa := &notifierStub{}, &notifierStub{}
		m := NewMultiChannel(email, wa, zerolog.Nop())
		noPhone := msg
		noPhone.Phone = ""

		assert.NoError(t, m.Send(context.Background(), noPhone))
		assert.Equal(t, 0, wa.calls)
		assert.Equal(t, []string{ChannelEmail}, m.Channels(noPhone))
		assert.Equal(t, []string{ChannelEmail}, NewMultiChannel(email, nil, zerolog.Nop()).Channels(msg))
	})
}

func TestLogNotifier(t *testing.T) {
	n := NewLogNotifier(zerolog.Nop())
	assert.NoError(t, n.Send(context.Background(), msg))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, n.Send(ctx, msg), context.Canceled)
}

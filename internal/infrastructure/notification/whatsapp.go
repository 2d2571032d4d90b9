package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jhoicas/viajes-backoffice/internal/application/reminder"
)

// ChannelWhatsApp nombre del canal en la auditoría.
const ChannelWhatsApp = "whatsapp"

var _ reminder.Notifier = (*WhatsAppNotifier)(nil)

// WhatsAppNotifier envía mensajes de texto por la WhatsApp Cloud API.
// Usa net/http de la stdlib: la API es un único POST JSON.
type WhatsAppNotifier struct {
	httpClient    *http.Client
	baseURL       string
	phoneNumberID string
	token         string
}

// NewWhatsAppNotifier construye el cliente. timeout <= 0 usa 10 s.
func NewWhatsAppNotifier(baseURL, phoneNumberID, token string, timeout time.Duration) *WhatsAppNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WhatsAppNotifier{
		httpClient:    &http.Client{Timeout: timeout},
		baseURL:       strings.TrimRight(baseURL, "/"),
		phoneNumberID: phoneNumberID,
		token:         token,
	}
}

type waTextMessage struct {
	MessagingProduct string `json:"messaging_product"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Text             waText `json:"text"`
}

type waText struct {
	Body string `json:"body"`
}

type waErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// Send publica el asunto y el cuerpo como un solo texto.
func (c *WhatsAppNotifier) Send(ctx context.Context, msg reminder.Message) error {
	phone := normalizePhone(msg.Phone)
	if phone == "" {
		return errors.New("whatsapp: teléfono vacío")
	}

	payload, err := json.Marshal(waTextMessage{
		MessagingProduct: "whatsapp",
		To:               phone,
		Type:             "text",
		Text:             waText{Body: msg.Subject + "\n\n" + msg.Body},
	})
	if err != nil {
		return fmt.Errorf("whatsapp: serializar: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", c.baseURL, c.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("whatsapp: crear request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var apiErr waErrorResponse
	if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error.Message != "" {
		return fmt.Errorf("whatsapp: HTTP %d: %s (code %d)", resp.StatusCode, apiErr.Error.Message, apiErr.Error.Code)
	}
	return fmt.Errorf("whatsapp: HTTP %d", resp.StatusCode)
}

// normalizePhone deja solo dígitos (formato E.164 sin "+").
func normalizePhone(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

package http

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/viajes-backoffice/internal/application/dto"
)

// ReminderService lo implementa *reminder.Service.
type ReminderService interface {
	Preview(ctx context.Context, req dto.PreviewRequest) (*dto.PreviewResult, error)
	Dispatch(ctx context.Context, req dto.DispatchRequest) (*dto.DispatchResult, error)
	History(ctx context.Context, invoiceID string, limit int) ([]dto.ReminderRecordResponse, error)
	SetPaused(ctx context.Context, invoiceID string, paused bool) error
}

// ReminderHandler endpoints de recordatorios de cobro.
type ReminderHandler struct {
	svc ReminderService
}

func NewReminderHandler(svc ReminderService) *ReminderHandler {
	return &ReminderHandler{svc: svc}
}

// Preview GET /api/reminders/preview?date=YYYY-MM-DD&invoice_ids=a,b
func (h *ReminderHandler) Preview(c *fiber.Ctx) error {
	var req dto.PreviewRequest
	if raw := strings.TrimSpace(c.Query("date")); raw != "" {
		d, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "date debe tener formato YYYY-MM-DD"})
		}
		req.Date = &d
	}
	if raw := c.Query("invoice_ids"); raw != "" {
		req.InvoiceIDs = splitIDs(raw)
	}
	res, err := h.svc.Preview(c.UserContext(), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(res)
}

// Dispatch POST /api/reminders/dispatch
// Un fallo individual no cambia el status: 200 con el resumen.
func (h *ReminderHandler) Dispatch(c *fiber.Ctx) error {
	var in dto.DispatchRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	res, err := h.svc.Dispatch(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(res)
}

// History GET /api/invoices/:id/reminders?limit=N
func (h *ReminderHandler) History(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "limit inválido"})
	}
	if page.Limit <= 0 {
		page.Limit = 50
	}
	page.DefaultPage()

	recs, err := h.svc.History(c.UserContext(), c.Params("id"), page.Limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"items": recs})
}

// Pause PUT /api/invoices/:id/reminders/pause
func (h *ReminderHandler) Pause(c *fiber.Ctx) error {
	var in dto.PauseRemindersRequest
	if err := c.BodyParser(&in); err != nil || in.Paused == nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "se requiere {\"paused\": bool}"})
	}
	id := c.Params("id")
	if err := h.svc.SetPaused(c.UserContext(), id, *in.Paused); err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"invoiceId": id, "paused": *in.Paused})
}

func splitIDs(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

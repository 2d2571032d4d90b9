package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/viajes-backoffice/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Reminders ReminderService
	Split     SplitGetter
	PDF       PDFDownloader
	JWTSecret string
}

// Router registra las rutas de la API. Todas requieren Bearer Token.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))
	operators := RequireRole(jwt.RoleAdmin, jwt.RoleCobranzas)

	reminderHandler := NewReminderHandler(deps.Reminders)
	reminders := api.Group("/reminders")
	reminders.Get("/preview", reminderHandler.Preview)
	reminders.Post("/dispatch", operators, reminderHandler.Dispatch)

	invoiceHandler := NewInvoiceHandler(deps.Split, deps.PDF)
	invoices := api.Group("/invoices")
	invoices.Get("/:id/split", invoiceHandler.GetSplit)
	invoices.Get("/:id/pdf", invoiceHandler.DownloadPDF)
	invoices.Get("/:id/reminders", reminderHandler.History)
	invoices.Put("/:id/reminders/pause", operators, reminderHandler.Pause)
}

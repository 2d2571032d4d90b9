// Package pdf genera la factura de viaje en PDF con el desglose de pago partido.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Agencia + NIT       │  N° Factura + Tipo + Fechas  │
//	│  ─────────────────────────────────────────────────────────  │
//	│  EMISOR: Dirección / Tel / Email                            │
//	│  CLIENTE: Nombre + contacto                                 │
//	│  ─────────────────────────────────────────────────────────  │
//	│  ESTADO DE CUENTA: Total / Pagado / Saldo pendiente         │
//	│  ─────────────────────────────────────────────────────────  │
//	│  PAGO PARTIDO: Costo total / Depósito (p%) / Saldo final    │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: condiciones de pago                                │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	appbilling "github.com/jhoicas/viajes-backoffice/internal/application/billing"
	"github.com/jhoicas/viajes-backoffice/internal/domain/entity"
	"github.com/jhoicas/viajes-backoffice/internal/domain/money"
)

var _ appbilling.InvoicePDFGenerator = (*MarotoPDFGenerator)(nil)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorAlert   = &props.Color{Red: 170, Green: 30, Blue: 30}
)

var typeLabels = map[string]string{
	entity.InvoiceTypeStandard: "FACTURA DE VIAJE",
	entity.InvoiceTypeDeposit:  "FACTURA DE DEPÓSITO",
	entity.InvoiceTypeFinal:    "FACTURA DE SALDO FINAL",
}

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoPDFGenerator implementa billing.InvoicePDFGenerator usando Maroto v2.
type MarotoPDFGenerator struct{}

// NewMarotoPDFGenerator construye el generador.
func NewMarotoPDFGenerator() *MarotoPDFGenerator { return &MarotoPDFGenerator{} }

// GenerateInvoicePDF genera el PDF y devuelve sus bytes.
func (g *MarotoPDFGenerator) GenerateInvoicePDF(
	_ context.Context,
	inv *entity.Invoice,
	split money.Split,
	issuer appbilling.Issuer,
) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Factura "+inv.Number, true).
		WithAuthor(nonEmpty(issuer.Name, "Agencia"), true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(inv, issuer))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(issuerRow(issuer))
	m.AddRows(clientRow(inv))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(sectionTitle("ESTADO DE CUENTA"))
	m.AddRows(amountRows(inv.Currency, []amountLine{
		{"Total de la factura:", inv.TotalAmount, false},
		{"Pagado:", inv.AmountPaid, false},
		{"Saldo pendiente:", inv.BalanceDue, true},
	})...)

	if inv.IsSplit() {
		r := split.Rounded()
		m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
		m.AddRows(sectionTitle(fmt.Sprintf("PAGO PARTIDO (DEPÓSITO %s%%)", inv.DepositPercent.String())))
		m.AddRows(amountRows(inv.Currency, []amountLine{
			{"Costo total del viaje:", r.FullTripCost, false},
			{"Depósito:", r.Deposit, inv.Type == entity.InvoiceTypeDeposit},
			{"Saldo final:", r.Balance, inv.Type == entity.InvoiceTypeFinal},
		})...)
	}

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(footerRow(inv))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(inv *entity.Invoice, issuer appbilling.Issuer) core.Row {
	label, ok := typeLabels[inv.Type]
	if !ok {
		label = typeLabels[entity.InvoiceTypeStandard]
	}
	due := "-"
	if inv.DueDate != nil {
		due = inv.DueDate.Format("02/01/2006")
	}

	return row.New(22).Add(
		col.New(7).Add(
			text.New(nonEmpty(issuer.Name, "Agencia de viajes"), props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("NIT: "+nonEmpty(issuer.TaxID, "-"), props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New(label, props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New(inv.Number, props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
			}),
			text.New("Emisión: "+inv.CreatedAt.Format("02/01/2006"), props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
			text.New("Vence: "+due, props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Top: 18,
			}),
		),
	)
}

func issuerRow(issuer appbilling.Issuer) core.Row {
	return row.New(12).Add(
		col.New(12).Add(
			text.New("DATOS DE LA AGENCIA", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("Dirección: %s   |   Tel: %s   |   Email: %s",
				nonEmpty(issuer.Address, "-"),
				nonEmpty(issuer.Phone, "-"),
				nonEmpty(issuer.Email, "-"),
			), props.Text{Size: 8, Top: 7, Color: colorGray}),
		),
	)
}

func clientRow(inv *entity.Invoice) core.Row {
	return row.New(14).Add(
		col.New(12).Add(
			text.New("CLIENTE", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(nonEmpty(inv.ClientName, "-"), props.Text{
				Style: fontstyle.Bold, Size: 10, Top: 6,
			}),
			text.New(fmt.Sprintf("Email: %s   |   Tel: %s",
				nonEmpty(inv.ClientEmail, "-"),
				nonEmpty(inv.ClientPhone, "-"),
			), props.Text{Size: 8, Top: 12, Color: colorGray}),
		),
	)
}

func sectionTitle(s string) core.Row {
	return row.New(7).Add(col.New(12).Add(
		text.New(s, props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 2}),
	))
}

type amountLine struct {
	label     string
	amount    decimal.Decimal
	highlight bool
}

// amountRows montos alineados a la derecha; el destacado va en negrita.
func amountRows(currency string, lines []amountLine) []core.Row {
	rows := make([]core.Row, 0, len(lines))
	for _, l := range lines {
		p := props.Text{Size: 9, Align: align.Right, Right: 1, Top: 1}
		lp := props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2, Top: 1}
		if l.highlight {
			p.Style = fontstyle.Bold
			p.Color = colorPrimary
			p.Size = 10
			lp.Color = colorPrimary
			lp.Size = 10
		}
		rows = append(rows, row.New(6).Add(
			col.New(4),
			col.New(4).Add(text.New(l.label, lp)),
			col.New(4).Add(text.New(currency+" "+formatMoney(l.amount), p)),
		))
	}
	return rows
}

func footerRow(inv *entity.Invoice) core.Row {
	msg := "Conserve este documento como soporte de su reserva."
	if inv.Type == entity.InvoiceTypeDeposit {
		msg = "El depósito confirma la reserva. El saldo final se factura por separado antes del viaje."
	}
	color := colorGray
	if inv.Status == entity.InvoiceStatusOverdue {
		msg = "FACTURA VENCIDA. " + msg
		color = colorAlert
	}
	return row.New(10).Add(col.New(12).Add(
		text.New(msg, props.Text{Size: 7, Color: color, Top: 2}),
	))
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if strings.TrimSpace(s) != "" {
		return s
	}
	return fallback
}

// formatMoney redondea (half-up) y agrega puntos de miles y coma decimal.
// Ej: 25000 → "25.000,00", 3333.333 → "3.333,33"
func formatMoney(d decimal.Decimal) string {
	s := money.RoundDisplay(d).StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	intPart, frac, _ := strings.Cut(s, ".")

	n := len(intPart)
	buf := make([]byte, 0, n+n/3+4)
	for i, c := range []byte(intPart) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	out := string(buf) + "," + frac
	if neg {
		return "-" + out
	}
	return out
}

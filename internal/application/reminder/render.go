package reminder

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/jhoicas/viajes-backoffice/internal/domain/entity"
	"github.com/jhoicas/viajes-backoffice/internal/domain/money"
	domrem "github.com/jhoicas/viajes-backoffice/internal/domain/reminder"
)

const dateLayout = "02/01/2006"

// plantillas de asunto por bucket
var subjectTemplates = map[domrem.Bucket]string{
	domrem.BucketBeforeDue7: `Recordatorio: su factura {{.Number}} vence el {{.DueDate}}`,
	domrem.BucketBeforeDue3: `Su factura {{.Number}} vence en {{.Days}} días`,
	domrem.BucketOnDue:      `Su factura {{.Number}} vence {{if eq .Days 0}}hoy{{else}}mañana{{end}}`,
	domrem.BucketOverdue7:   `Factura {{.Number}} vencida hace {{.Days}} días`,
	domrem.BucketOverdue14:  `Urgente: factura {{.Number}} con {{.Days}} días de mora`,
	domrem.BucketOverdue30:  `Aviso final: factura {{.Number}} pendiente de pago`,
}

var introByBucket = map[domrem.Bucket]string{
	domrem.BucketBeforeDue7: "Le recordamos que su factura está próxima a vencer.",
	domrem.BucketBeforeDue3: "Su factura vence en pocos días. Si ya realizó el pago, ignore este mensaje.",
	domrem.BucketOnDue:      "Su factura vence en este momento. Le agradecemos realizar el pago a tiempo para conservar su reserva.",
	domrem.BucketOverdue7:   "Su factura se encuentra vencida. Por favor regularice el pago a la brevedad.",
	domrem.BucketOverdue14:  "Su factura presenta una mora importante. Comuníquese con nosotros para evitar la liberación de sus servicios.",
	domrem.BucketOverdue30:  "Este es un aviso final. De no recibir el pago, su reserva podrá ser cancelada.",
}

const bodyTemplate = `Hola {{.ClientName}},

{{.Intro}}

Factura: {{.Number}}
Vencimiento: {{.DueDate}}
Saldo pendiente: {{.Currency}} {{.BalanceDue}}
{{- if .Split}}

Costo total del viaje: {{.Currency}} {{.Split.FullTripCost}}
Depósito ({{.Split.Percent}}%): {{.Currency}} {{.Split.Deposit}}
Saldo final: {{.Currency}} {{.Split.Balance}}
{{- end}}

{{.Agency}}
`

// Renderer arma asunto y cuerpo del recordatorio según el bucket.
type Renderer struct {
	agency   string
	printer  *message.Printer
	decSep   string
	subjects map[domrem.Bucket]*template.Template
	body     *template.Template
}

// NewRenderer compila las plantillas. tag define el formato de los montos (ej: language.Spanish).
func NewRenderer(agency string, tag language.Tag) (*Renderer, error) {
	r := &Renderer{
		agency:   agency,
		printer:  message.NewPrinter(tag),
		decSep:   ".",
		subjects: make(map[domrem.Bucket]*template.Template, len(subjectTemplates)),
	}
	for b, src := range subjectTemplates {
		t, err := template.New(string(b)).Option("missingkey=error").Parse(src)
		if err != nil {
			return nil, fmt.Errorf("plantilla de asunto %s: %w", b, err)
		}
		r.subjects[b] = t
	}
	body, err := template.New("body").Option("missingkey=error").Parse(bodyTemplate)
	if err != nil {
		return nil, fmt.Errorf("plantilla de cuerpo: %w", err)
	}
	r.body = body
	// 1.5 es exacto en binario; solo se usa para conocer el separador decimal del idioma.
	if sep := strings.Trim(r.printer.Sprint(number.Decimal(1.5, number.Scale(1))), "15"); sep != "" {
		r.decSep = sep
	}
	return r, nil
}

type splitView struct {
	Percent      string
	FullTripCost string
	Deposit      string
	Balance      string
}

type messageView struct {
	ClientName string
	Number     string
	DueDate    string
	Days       int // siempre positivo
	Currency   string
	BalanceDue string
	Intro      string
	Agency     string
	Split      *splitView
}

// Render devuelve asunto y cuerpo. daysUntilDue con signo; la plantilla recibe el valor absoluto.
func (r *Renderer) Render(inv *entity.Invoice, bucket domrem.Bucket, daysUntilDue int) (subject, body string, err error) {
	st, ok := r.subjects[bucket]
	if !ok {
		return "", "", fmt.Errorf("bucket desconocido %q", bucket)
	}
	if inv.DueDate == nil {
		return "", "", fmt.Errorf("factura %s sin fecha de vencimiento", inv.Number)
	}

	days := daysUntilDue
	if days < 0 {
		days = -days
	}
	name := strings.TrimSpace(inv.ClientName)
	if name == "" {
		name = "cliente"
	}
	view := messageView{
		ClientName: name,
		Number:     inv.Number,
		DueDate:    inv.DueDate.Format(dateLayout),
		Days:       days,
		Currency:   inv.Currency,
		BalanceDue: r.FormatAmount(inv.BalanceDue),
		Intro:      introByBucket[bucket],
		Agency:     r.agency,
	}
	if inv.IsSplit() {
		split, err := money.SplitForInvoice(inv)
		if err != nil {
			return "", "", fmt.Errorf("calcular pago partido: %w", err)
		}
		split = split.Rounded()
		view.Split = &splitView{
			Percent:      inv.DepositPercent.String(),
			FullTripCost: r.FormatAmount(split.FullTripCost),
			Deposit:      r.FormatAmount(split.Deposit),
			Balance:      r.FormatAmount(split.Balance),
		}
	}

	var sb, bb bytes.Buffer
	if err := st.Execute(&sb, view); err != nil {
		return "", "", fmt.Errorf("renderizar asunto: %w", err)
	}
	if err := r.body.Execute(&bb, view); err != nil {
		return "", "", fmt.Errorf("renderizar cuerpo: %w", err)
	}
	return sb.String(), bb.String(), nil
}

// FormatAmount redondea a 2 decimales y formatea según el idioma del renderer.
// La parte entera se agrupa como entero y los centavos salen del texto del decimal.
func (r *Renderer) FormatAmount(d decimal.Decimal) string {
	rounded := money.RoundDisplay(d)
	abs := rounded.Abs()
	whole := abs.Truncate(0)
	if !whole.BigInt().IsInt64() {
		return rounded.StringFixed(2)
	}
	_, cents, _ := strings.Cut(abs.StringFixed(2), ".")
	out := r.printer.Sprint(number.Decimal(whole.IntPart())) + r.decSep + cents
	if rounded.IsNegative() {
		return "-" + out
	}
	return out
}

// dueLabel fecha de vencimiento para previews.
func dueLabel(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

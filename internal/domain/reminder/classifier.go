// Package reminder clasifica facturas en buckets de recordatorio según su fecha de
// vencimiento y define el predicado de elegibilidad. Todo es puro: "hoy" siempre
// llega como parámetro.
package reminder

import "time"

// Bucket clasificación de proximidad al vencimiento; selecciona la plantilla del mensaje.
type Bucket string

const (
	BucketBeforeDue7 Bucket = "before_due_7"
	BucketBeforeDue3 Bucket = "before_due_3"
	BucketOnDue      Bucket = "on_due"
	BucketOverdue7   Bucket = "overdue_7"
	BucketOverdue14  Bucket = "overdue_14"
	BucketOverdue30  Bucket = "overdue_30"
)

// Urgency nivel de tono del mensaje. Solo afecta la presentación, nunca el flujo.
type Urgency string

const (
	UrgencyInfo        Urgency = "info"
	UrgencyWarning     Urgency = "warning"
	UrgencyUrgent      Urgency = "urgent"
	UrgencyFinalNotice Urgency = "final_notice"
)

// Buckets en orden de evaluación.
var Buckets = []Bucket{
	BucketBeforeDue7, BucketBeforeDue3, BucketOnDue,
	BucketOverdue7, BucketOverdue14, BucketOverdue30,
}

var urgencyByBucket = map[Bucket]Urgency{
	BucketBeforeDue7: UrgencyInfo,
	BucketBeforeDue3: UrgencyInfo,
	BucketOnDue:      UrgencyWarning,
	BucketOverdue7:   UrgencyWarning,
	BucketOverdue14:  UrgencyUrgent,
	BucketOverdue30:  UrgencyFinalNotice,
}

// Urgency devuelve el nivel fijo asociado al bucket.
func (b Bucket) Urgency() Urgency {
	if u, ok := urgencyByBucket[b]; ok {
		return u
	}
	return UrgencyInfo
}

// Valid indica si b es uno de los seis buckets conocidos.
func (b Bucket) Valid() bool {
	_, ok := urgencyByBucket[b]
	return ok
}

// Classify mapea días hasta el vencimiento (positivo = aún no vence, negativo = vencida)
// a exactamente un bucket. Es total: todo entero cae en un único rango.
//
//	d > 5          before_due_7
//	1 < d <= 5     before_due_3
//	0 <= d <= 1    on_due
//	-7 <= d < 0    overdue_7
//	-14 <= d < -7  overdue_14
//	d < -14        overdue_30
func Classify(daysUntilDue int) Bucket {
	switch {
	case daysUntilDue > 5:
		return BucketBeforeDue7
	case daysUntilDue > 1:
		return BucketBeforeDue3
	case daysUntilDue >= 0:
		return BucketOnDue
	case daysUntilDue >= -7:
		return BucketOverdue7
	case daysUntilDue >= -14:
		return BucketOverdue14
	default:
		return BucketOverdue30
	}
}

// DateOf devuelve la fecha civil de t en loc, representada como medianoche UTC.
// Con loc nil se usa la zona de t.
func DateOf(t time.Time, loc *time.Location) time.Time {
	if loc != nil {
		t = t.In(loc)
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysUntilDue cantidad de días civiles entre today y due (floor de la diferencia).
// Ambos se truncan a fecha antes de restar, así la hora nunca cambia el bucket.
func DaysUntilDue(due, today time.Time) int {
	d := DateOf(due, nil)
	t := DateOf(today, nil)
	return int(d.Sub(t).Hours() / 24)
}

// ClassifyDue atajo: clasifica una fecha de vencimiento respecto de hoy.
func ClassifyDue(due, today time.Time) (Bucket, int) {
	days := DaysUntilDue(due, today)
	return Classify(days), days
}

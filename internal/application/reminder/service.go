// Package reminder orquesta el ciclo de recordatorios de cobro: resuelve candidatos,
// clasifica, renderiza, envía y deja auditoría de cada intento.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"

	"github.com/jhoicas/viajes-backoffice/internal/application/dto"
	"github.com/jhoicas/viajes-backoffice/internal/domain"
	"github.com/jhoicas/viajes-backoffice/internal/domain/entity"
	domrem "github.com/jhoicas/viajes-backoffice/internal/domain/reminder"
	"github.com/jhoicas/viajes-backoffice/internal/domain/repository"
	"github.com/jhoicas/viajes-backoffice/pkg/clock"
)

// DefaultCadenceDays días hasta el siguiente recordatorio tras un envío exitoso.
// La cadencia fija es una decisión de producto pendiente; por ahora solo es configurable.
const DefaultCadenceDays = 7

const (
	defaultWorkers      = 4
	defaultSendTimeout  = 15 * time.Second
	defaultStoreTimeout = 5 * time.Second
	defaultLockTTL      = 10 * time.Minute
	defaultHistoryLimit = 50

	// LockKey clave del lock del ciclo de envío.
	LockKey = "reminders:dispatch"

	OutcomeSkipped = "skipped"

	DefaultAgencyName = "Equipo de cobranzas"
)

// Config parámetros del ciclo.
type Config struct {
	CadenceDays  int
	Workers      int
	SendTimeout  time.Duration
	StoreTimeout time.Duration
	LockTTL      time.Duration
	Location     *time.Location // zona que define "hoy"; nil = UTC
}

func (c Config) withDefaults() Config {
	if c.CadenceDays <= 0 {
		c.CadenceDays = DefaultCadenceDays
	}
	if c.Workers <= 0 {
		c.Workers = defaultWorkers
	}
	if c.SendTimeout <= 0 {
		c.SendTimeout = defaultSendTimeout
	}
	if c.StoreTimeout <= 0 {
		c.StoreTimeout = defaultStoreTimeout
	}
	if c.LockTTL <= 0 {
		c.LockTTL = defaultLockTTL
	}
	if c.Location == nil {
		c.Location = time.UTC
	}
	if floor := 2 * c.inFlight(); c.LockTTL < floor {
		c.LockTTL = floor
	}
	return c
}

// inFlight lo máximo que puede tardar un candidato ya iniciado: un envío y dos escrituras.
func (c Config) inFlight() time.Duration {
	return c.SendTimeout + 2*c.StoreTimeout
}

// sweepBudget plazo para iniciar candidatos, con margen para que el último termine
// dentro del TTL del lock.
func (c Config) sweepBudget() time.Duration {
	return c.LockTTL - c.inFlight() - c.LockTTL/10
}

// Deps dependencias del servicio. Clock, Locker y Metrics son opcionales.
type Deps struct {
	Invoices repository.InvoiceRepository
	Records  repository.ReminderRecordRepository
	Tx       ReminderTxRunner
	Notifier Notifier
	Renderer *Renderer
	Clock    clock.Clock
	Locker   Locker
	Metrics  Recorder
	Logger   zerolog.Logger
}

// Service preview y dispatch de recordatorios. Ambos comparten resolución de candidatos
// y clasificación; solo dispatch envía y escribe.
type Service struct {
	invoices repository.InvoiceRepository
	records  repository.ReminderRecordRepository
	tx       ReminderTxRunner
	notifier Notifier
	renderer *Renderer
	clock    clock.Clock
	locker   Locker
	metrics  Recorder
	log      zerolog.Logger
	cfg      Config
}

// NewService construye el servicio.
func NewService(d Deps, cfg Config) *Service {
	s := &Service{
		invoices: d.Invoices,
		records:  d.Records,
		tx:       d.Tx,
		notifier: d.Notifier,
		renderer: d.Renderer,
		clock:    d.Clock,
		locker:   d.Locker,
		metrics:  d.Metrics,
		log:      d.Logger,
		cfg:      cfg.withDefaults(),
	}
	if s.clock == nil {
		s.clock = clock.System{}
	}
	if s.locker == nil {
		s.locker = nopLocker{}
	}
	if s.metrics == nil {
		s.metrics = nopRecorder{}
	}
	if s.renderer == nil {
		s.renderer, _ = NewRenderer(DefaultAgencyName, language.Spanish)
	}
	return s
}

// Today fecha civil actual en la zona de la agencia.
func (s *Service) Today() time.Time {
	return domrem.DateOf(s.clock.Now(), s.cfg.Location)
}

// ─── Dispatch ────────────────────────────────────────────────────────────────

// Dispatch envía recordatorios a los candidatos elegidos. Solo falla por solicitud
// inválida, lock tomado o error al listar; los fallos por factura van en el resultado.
func (s *Service) Dispatch(ctx context.Context, req dto.DispatchRequest) (*dto.DispatchResult, error) {
	if !req.HasSelection() {
		return nil, fmt.Errorf("%w: indique invoiceIds o sendAll", domain.ErrInvalidRequest)
	}

	unlock, err := s.locker.Acquire(ctx, LockKey, s.cfg.LockTTL)
	if err != nil {
		return nil, err
	}
	defer unlock()

	// El ciclo termina antes de que expire el lock: pasado el plazo no arrancan candidatos
	// nuevos y los que están en curso quedan acotados por sus propios timeouts.
	ctx, cancelSweep := context.WithTimeout(ctx, s.cfg.sweepBudget())
	defer cancelSweep()

	started := s.clock.Now()
	today := domrem.DateOf(started, s.cfg.Location)

	candidates, excluded, err := s.resolve(ctx, req, today)
	if err != nil {
		return nil, err
	}
	for _, e := range excluded {
		s.metrics.ObserveExcluded(e.Reason)
	}

	details := make([]dto.DispatchDetail, len(candidates))
	g := new(errgroup.Group)
	g.SetLimit(s.cfg.Workers)
	for i, inv := range candidates {
		if ctx.Err() != nil {
			details[i] = skippedDetail(ctx, inv)
			continue
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				details[i] = skippedDetail(ctx, inv)
				return nil
			}
			details[i] = s.dispatchOne(ctx, inv, today)
			return nil
		})
	}
	_ = g.Wait()

	res := &dto.DispatchResult{Details: details, Excluded: excluded}
	for _, d := range details {
		switch d.Outcome {
		case entity.ReminderOutcomeSent:
			res.Sent++
		case entity.ReminderOutcomeFailed:
			res.Failed++
		default:
			res.Skipped++
		}
	}

	elapsed := s.clock.Now().Sub(started)
	s.metrics.ObserveSweep(elapsed)
	s.log.Info().
		Bool("send_all", len(req.InvoiceIDs) == 0).
		Int("sent", res.Sent).
		Int("failed", res.Failed).
		Int("skipped", res.Skipped).
		Int("excluded", len(res.Excluded)).
		Dur("elapsed", elapsed).
		Msg("ciclo de recordatorios finalizado")
	return res, nil
}

// RunSweep barrido completo; es lo que ejecuta el job diario.
func (s *Service) RunSweep(ctx context.Context) (*dto.DispatchResult, error) {
	return s.Dispatch(ctx, dto.DispatchRequest{SendAll: true})
}

// attempt estado de un candidato en curso. El recover lo consulta para no perder
// un envío que el notifier ya entregó.
type attempt struct {
	inv       *entity.Invoice
	bucket    domrem.Bucket
	subject   string
	channels  string
	failure   string                 // motivo del fallo ya decidido, si lo hay
	delivered *entity.ReminderRecord // no nil una vez entregado el mensaje
	audited   bool                   // la auditoría del intento ya quedó escrita
}

// dispatchOne procesa un candidato aislado: nunca propaga errores ni panics.
func (s *Service) dispatchOne(ctx context.Context, inv *entity.Invoice, today time.Time) (detail dto.DispatchDetail) {
	at := &attempt{inv: inv}
	detail = baseDetail(inv)
	log := s.log.With().Str("invoice_id", inv.ID).Str("invoice_number", inv.Number).Logger()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bool("delivered", at.delivered != nil).Msg("panic procesando recordatorio")
			detail = s.recovered(ctx, log, at, fmt.Sprintf("error interno: %v", r))
		}
	}()

	fail := func(msg string) dto.DispatchDetail {
		at.failure = msg
		detail.Outcome = entity.ReminderOutcomeFailed
		detail.Error = msg
		if err := s.appendFailure(ctx, inv, at.bucket, at.subject, msg, ""); err != nil {
			log.Error().Err(err).Msg("no se pudo registrar el intento fallido")
			detail.RecordError = err.Error()
		} else {
			at.audited = true
		}
		s.metrics.ObserveAttempt(entity.ReminderOutcomeFailed, string(at.bucket))
		log.Warn().Str("bucket", string(at.bucket)).Str("outcome", detail.Outcome).Str("error", msg).Msg("recordatorio no enviado")
		return detail
	}

	if inv.DueDate == nil {
		return fail(domrem.ValidateInvariants(inv).Error())
	}
	var days int
	at.bucket, days = domrem.ClassifyDue(*inv.DueDate, today)
	detail.Bucket = string(at.bucket)
	if err := domrem.ValidateInvariants(inv); err != nil {
		return fail(err.Error())
	}
	subject, body, err := s.renderer.Render(inv, at.bucket, days)
	if err != nil {
		return fail(err.Error())
	}
	at.subject = subject
	return s.deliver(ctx, log, at, detail, body, today)
}

func (s *Service) deliver(
	ctx context.Context,
	log zerolog.Logger,
	at *attempt,
	detail dto.DispatchDetail,
	body string,
	today time.Time,
) dto.DispatchDetail {
	inv, bucket := at.inv, at.bucket
	msg := Message{To: inv.ClientEmail, Phone: inv.ClientPhone, Subject: at.subject, Body: body}
	at.channels = s.channels(msg)
	channels := at.channels

	// El envío en curso termina aunque el ciclo se cancele; solo lo acota su timeout.
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.SendTimeout)
	err := s.notifier.Send(sendCtx, msg)
	cancel()
	if err != nil {
		at.failure = err.Error()
		detail.Outcome = entity.ReminderOutcomeFailed
		detail.Error = err.Error()
		if rerr := s.appendFailure(ctx, inv, bucket, at.subject, err.Error(), channels); rerr != nil {
			log.Error().Err(rerr).Msg("no se pudo registrar el intento fallido")
			detail.RecordError = rerr.Error()
		} else {
			at.audited = true
		}
		s.metrics.ObserveAttempt(entity.ReminderOutcomeFailed, string(bucket))
		log.Warn().Str("bucket", string(bucket)).Str("outcome", detail.Outcome).Err(err).Msg("recordatorio no enviado")
		return detail
	}

	now := s.clock.Now()
	at.delivered = &entity.ReminderRecord{
		ID:        uuid.New().String(),
		InvoiceID: inv.ID,
		Bucket:    string(bucket),
		Recipient: inv.ClientEmail,
		Subject:   at.subject,
		Outcome:   entity.ReminderOutcomeSent,
		Channels:  channels,
		CreatedAt: now,
	}
	detail.Outcome = entity.ReminderOutcomeSent
	next := today.AddDate(0, 0, s.cfg.CadenceDays)

	if err := s.persistSent(ctx, inv, at.delivered, now, next); err != nil {
		s.metrics.ObservePersistFailure()
		detail.RecordError = err.Error()
		log.Error().Err(err).Str("bucket", string(bucket)).Msg("recordatorio enviado pero no se pudo persistir el avance")

		// Auditoría al menos una vez: la factura queda elegible y puede repetirse el envío.
		if aerr := s.appendRecord(ctx, at.delivered); aerr != nil {
			log.Error().Err(aerr).Msg("reintento de auditoría fallido")
			detail.RecordError = detail.RecordError + "; " + aerr.Error()
		} else {
			at.audited = true
		}
	} else {
		at.audited = true
	}

	s.metrics.ObserveAttempt(entity.ReminderOutcomeSent, string(bucket))
	log.Info().Str("bucket", string(bucket)).Str("outcome", detail.Outcome).Time("next_reminder_date", next).Msg("recordatorio enviado")
	return detail
}

// recovered arma el detalle tras un panic. Si el mensaje ya salió el resultado sigue
// siendo sent y se asegura su auditoría. Cada escritura va protegida por guard: un
// repositorio que vuelve a entrar en panic no puede tumbar el proceso.
func (s *Service) recovered(ctx context.Context, log zerolog.Logger, at *attempt, msg string) dto.DispatchDetail {
	detail := baseDetail(at.inv)
	detail.Bucket = string(at.bucket)

	if at.delivered != nil {
		detail.Outcome = entity.ReminderOutcomeSent
		detail.RecordError = msg
		if !at.audited {
			if err := guard(func() error { return s.appendRecord(ctx, at.delivered) }); err != nil {
				log.Error().Err(err).Msg("reintento de auditoría fallido")
				detail.RecordError = detail.RecordError + "; " + err.Error()
			}
		}
		_ = guard(func() error {
			s.metrics.ObservePersistFailure()
			s.metrics.ObserveAttempt(entity.ReminderOutcomeSent, string(at.bucket))
			return nil
		})
		return detail
	}

	// Un fallo ya decidido conserva su motivo; el panic solo afecta a la auditoría.
	detail.Outcome = entity.ReminderOutcomeFailed
	detail.Error = msg
	if at.failure != "" {
		detail.Error = at.failure
		detail.RecordError = msg
	}
	if !at.audited {
		if err := guard(func() error {
			return s.appendFailure(ctx, at.inv, at.bucket, at.subject, detail.Error, at.channels)
		}); err != nil {
			log.Error().Err(err).Msg("no se pudo registrar el intento fallido")
			if detail.RecordError != "" {
				detail.RecordError += "; "
			}
			detail.RecordError += err.Error()
		}
	}
	_ = guard(func() error {
		s.metrics.ObserveAttempt(entity.ReminderOutcomeFailed, string(at.bucket))
		return nil
	})
	return detail
}

// guard convierte un panic de fn en error.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("error interno: %v", r)
		}
	}()
	return fn()
}

func baseDetail(inv *entity.Invoice) dto.DispatchDetail {
	return dto.DispatchDetail{
		InvoiceID:     inv.ID,
		InvoiceNumber: inv.Number,
		Recipient:     inv.ClientEmail,
	}
}

// persistSent escribe auditoría y avance de la factura en una sola transacción.
func (s *Service) persistSent(ctx context.Context, inv *entity.Invoice, rec *entity.ReminderRecord, now, next time.Time) error {
	storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.StoreTimeout)
	defer cancel()
	return s.tx.RunReminder(storeCtx, func(invoiceRepo repository.InvoiceRepository, recordRepo repository.ReminderRecordRepository) error {
		if err := recordRepo.Append(storeCtx, rec); err != nil {
			return fmt.Errorf("registrar auditoría: %w", err)
		}
		if err := invoiceRepo.RecordReminderOutcome(storeCtx, inv.ID, inv.ReminderCount+1, now, next); err != nil {
			return fmt.Errorf("avanzar recordatorio: %w", err)
		}
		return nil
	})
}

func (s *Service) appendFailure(ctx context.Context, inv *entity.Invoice, bucket domrem.Bucket, subject, msg, channels string) error {
	return s.appendRecord(ctx, &entity.ReminderRecord{
		ID:           uuid.New().String(),
		InvoiceID:    inv.ID,
		Bucket:       string(bucket),
		Recipient:    inv.ClientEmail,
		Subject:      subject,
		Outcome:      entity.ReminderOutcomeFailed,
		ErrorMessage: msg,
		Channels:     channels,
		CreatedAt:    s.clock.Now(),
	})
}

// appendRecord escribe auditoría fuera de transacción, con su propio timeout.
func (s *Service) appendRecord(ctx context.Context, rec *entity.ReminderRecord) error {
	storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.StoreTimeout)
	defer cancel()
	return s.records.Append(storeCtx, rec)
}

func (s *Service) channels(msg Message) string {
	if cd, ok := s.notifier.(ChannelDescriber); ok {
		return strings.Join(cd.Channels(msg), ",")
	}
	return "email"
}

func skippedDetail(ctx context.Context, inv *entity.Invoice) dto.DispatchDetail {
	d := baseDetail(inv)
	d.Outcome = OutcomeSkipped
	d.Error = "ciclo cancelado antes de procesar la factura"
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		d.Error = "plazo del ciclo agotado antes de procesar la factura"
	}
	return d
}

// ─── Preview ─────────────────────────────────────────────────────────────────

// Preview muestra qué haría Dispatch para la misma selección, sin enviar ni escribir.
// Sin ids es un barrido; req.Date permite simular otro día.
func (s *Service) Preview(ctx context.Context, req dto.PreviewRequest) (*dto.PreviewResult, error) {
	today := s.Today()
	if req.Date != nil {
		today = domrem.DateOf(*req.Date, nil)
	}

	sel := dto.DispatchRequest{InvoiceIDs: req.InvoiceIDs, SendAll: len(req.InvoiceIDs) == 0}
	candidates, excluded, err := s.resolve(ctx, sel, today)
	if err != nil {
		return nil, err
	}

	items := make([]dto.PreviewItem, 0, len(candidates))
	for _, inv := range candidates {
		item := dto.PreviewItem{
			InvoiceID:     inv.ID,
			InvoiceNumber: inv.Number,
			ClientName:    inv.ClientName,
			Recipient:     inv.ClientEmail,
			DueDate:       dueLabel(inv.DueDate),
			BalanceDue:    s.renderer.FormatAmount(inv.BalanceDue),
			Currency:      inv.Currency,
		}
		if inv.DueDate != nil {
			bucket, days := domrem.ClassifyDue(*inv.DueDate, today)
			item.Bucket = string(bucket)
			item.Urgency = string(bucket.Urgency())
			item.DaysUntilDue = days
			if subject, _, rerr := s.renderer.Render(inv, bucket, days); rerr == nil {
				item.Subject = subject
			} else {
				item.Error = rerr.Error()
			}
		}
		if verr := domrem.ValidateInvariants(inv); verr != nil {
			item.Error = verr.Error()
		}
		items = append(items, item)
	}
	return &dto.PreviewResult{Date: today.Format("2006-01-02"), Items: items, Excluded: excluded}, nil
}

// ─── Resolución de candidatos ────────────────────────────────────────────────

// resolve devuelve los candidatos (sin duplicados) y los excluidos.
// Con ids se omite solo el filtro de fecha; sin ids se hace barrido con él.
func (s *Service) resolve(ctx context.Context, req dto.DispatchRequest, today time.Time) ([]*entity.Invoice, []dto.ExcludedInvoice, error) {
	excluded := []dto.ExcludedInvoice{}
	exclude := func(id string, reason domrem.Reason) {
		excluded = append(excluded, dto.ExcludedInvoice{InvoiceID: id, Reason: string(reason)})
	}

	if len(req.InvoiceIDs) > 0 {
		ids := dedupeIDs(req.InvoiceIDs)
		if len(ids) == 0 {
			return nil, nil, fmt.Errorf("%w: invoiceIds vacío", domain.ErrInvalidRequest)
		}
		found, err := s.invoices.ListByIDs(ctx, ids)
		if err != nil {
			return nil, nil, fmt.Errorf("listar facturas por id: %w", err)
		}
		byID := make(map[string]*entity.Invoice, len(found))
		for _, inv := range found {
			if inv != nil {
				byID[inv.ID] = inv
			}
		}
		candidates := make([]*entity.Invoice, 0, len(ids))
		for _, id := range ids {
			inv := byID[id]
			if reason := domrem.CheckEligible(inv, today, true); reason != domrem.ReasonNone {
				exclude(id, reason)
				continue
			}
			candidates = append(candidates, inv)
		}
		return candidates, excluded, nil
	}

	if !req.SendAll {
		return nil, nil, domain.ErrInvalidRequest
	}
	rows, err := s.invoices.ListReminderEligible(ctx, today)
	if err != nil {
		return nil, nil, fmt.Errorf("listar facturas elegibles: %w", err)
	}
	seen := make(map[string]struct{}, len(rows))
	candidates := make([]*entity.Invoice, 0, len(rows))
	for _, inv := range rows {
		if inv == nil {
			continue
		}
		if _, dup := seen[inv.ID]; dup {
			continue
		}
		seen[inv.ID] = struct{}{}
		// Una invariante rota queda como candidato para registrarse como fallo local.
		if domrem.ValidateInvariants(inv) != nil {
			candidates = append(candidates, inv)
			continue
		}
		if reason := domrem.CheckEligible(inv, today, false); reason != domrem.ReasonNone {
			exclude(inv.ID, reason)
			continue
		}
		candidates = append(candidates, inv)
	}
	return candidates, excluded, nil
}

func dedupeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// ─── Operaciones de operador ─────────────────────────────────────────────────

// History historial de intentos de una factura, más reciente primero.
func (s *Service) History(ctx context.Context, invoiceID string, limit int) ([]dto.ReminderRecordResponse, error) {
	inv, err := s.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	recs, err := s.records.ListByInvoice(ctx, invoiceID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ReminderRecordResponse, 0, len(recs))
	for _, r := range recs {
		out = append(out, dto.ReminderRecordResponse{
			ID:           r.ID,
			Bucket:       r.Bucket,
			Recipient:    r.Recipient,
			Subject:      r.Subject,
			Outcome:      r.Outcome,
			ErrorMessage: r.ErrorMessage,
			Channels:     r.Channels,
			CreatedAt:    r.CreatedAt,
		})
	}
	return out, nil
}

// SetPaused pausa o reanuda los recordatorios de una factura.
func (s *Service) SetPaused(ctx context.Context, invoiceID string, paused bool) error {
	if strings.TrimSpace(invoiceID) == "" {
		return domain.ErrInvalidInput
	}
	if err := s.invoices.SetReminderPaused(ctx, invoiceID, paused); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return err
	}
	s.log.Info().Str("invoice_id", invoiceID).Bool("paused", paused).Msg("estado de pausa de recordatorios actualizado")
	return nil
}

// Package bootstrap arma los adaptadores y casos de uso a partir de la configuración.
// Lo comparten cmd/api y cmd/remindctl.
package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/text/language"

	"github.com/jhoicas/viajes-backoffice/internal/application/billing"
	"github.com/jhoicas/viajes-backoffice/internal/application/reminder"
	"github.com/jhoicas/viajes-backoffice/internal/infrastructure/metrics"
	"github.com/jhoicas/viajes-backoffice/internal/infrastructure/notification"
	infrapdf "github.com/jhoicas/viajes-backoffice/internal/infrastructure/pdf"
	"github.com/jhoicas/viajes-backoffice/internal/infrastructure/postgres"
	"github.com/jhoicas/viajes-backoffice/internal/infrastructure/redislock"
	"github.com/jhoicas/viajes-backoffice/pkg/config"
	"github.com/jhoicas/viajes-backoffice/pkg/logger"
)

// Container dependencias ya construidas.
type Container struct {
	Pool      *pgxpool.Pool
	Reminders *reminder.Service
	Split     *billing.SplitUseCase
	PDF       *billing.PDFUseCase

	closers []func()
}

// Options ajustes por binario.
type Options struct {
	// Registerer para las métricas; nil = no se registran (CLI).
	Registerer prometheus.Registerer
}

// New conecta a PostgreSQL (y Redis si hay REDIS_ADDR) y arma los casos de uso.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger, opts Options) (*Container, error) {
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
	}
	c := &Container{Pool: pool}
	c.closers = append(c.closers, pool.Close)

	locker, closeLocker, err := NewLocker(ctx, cfg.Redis)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.closers = append(c.closers, closeLocker)

	renderer, err := NewRenderer(cfg.Agency)
	if err != nil {
		c.Close()
		return nil, err
	}

	var recorder reminder.Recorder
	if opts.Registerer != nil {
		recorder = metrics.NewReminderMetrics(opts.Registerer)
	}

	invoiceRepo := postgres.NewInvoiceRepository(pool)
	c.Reminders = reminder.NewService(reminder.Deps{
		Invoices: invoiceRepo,
		Records:  postgres.NewReminderRecordRepository(pool),
		Tx:       postgres.NewTxRunner(pool),
		Notifier: NewNotifier(cfg, log.WithComponent("notification")),
		Renderer: renderer,
		Locker:   locker,
		Metrics:  recorder,
		Logger:   log.WithComponent("reminders"),
	}, ReminderConfig(cfg))

	c.Split = billing.NewSplitUseCase(invoiceRepo)
	c.PDF = billing.NewPDFUseCase(invoiceRepo, infrapdf.NewMarotoPDFGenerator(), billing.Issuer{
		Name:    cfg.Agency.Name,
		TaxID:   cfg.Agency.TaxID,
		Email:   cfg.Agency.Email,
		Phone:   cfg.Agency.Phone,
		Address: cfg.Agency.Address,
	})
	return c, nil
}

// Close libera conexiones en orden inverso.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

// ReminderConfig traduce la configuración al servicio de recordatorios.
func ReminderConfig(cfg *config.Config) reminder.Config {
	return reminder.Config{
		CadenceDays:  cfg.Reminder.CadenceDays,
		Workers:      cfg.Reminder.Workers,
		SendTimeout:  cfg.Reminder.SendTimeout,
		StoreTimeout: cfg.Reminder.StoreTimeout,
		LockTTL:      cfg.Reminder.LockTTL,
		Location:     cfg.App.Location(),
	}
}

// NewNotifier elige el canal: sin SMTP los mensajes solo van al log.
func NewNotifier(cfg *config.Config, log zerolog.Logger) reminder.Notifier {
	if !cfg.SMTP.Enabled() {
		log.Warn().Msg("SMTP_HOST vacío: recordatorios en modo log, no se envían")
		return notification.NewLogNotifier(log)
	}
	email := notification.NewEmailNotifier(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Password, cfg.SMTP.From)

	var secondary reminder.Notifier
	if cfg.WhatsApp.Enabled() {
		secondary = notification.NewWhatsAppNotifier(cfg.WhatsApp.BaseURL, cfg.WhatsApp.PhoneNumberID, cfg.WhatsApp.Token, cfg.WhatsApp.Timeout)
	}
	return notification.NewMultiChannel(email, secondary, log)
}

// NewLocker lock de Redis si hay REDIS_ADDR; si no, lock local del proceso.
func NewLocker(ctx context.Context, cfg config.RedisConfig) (reminder.Locker, func(), error) {
	if strings.TrimSpace(cfg.Addr) == "" {
		return redislock.NewLocalLocker(), func() {}, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("conexión a Redis %s: %w", cfg.Addr, err)
	}
	return redislock.NewRedisLocker(client, "viajes:"), func() { _ = client.Close() }, nil
}

// NewRenderer plantillas con el nombre y el locale de la agencia.
func NewRenderer(cfg config.AgencyConfig) (*reminder.Renderer, error) {
	tag := language.Spanish
	if cfg.Locale != "" {
		parsed, err := language.Parse(cfg.Locale)
		if err != nil {
			return nil, fmt.Errorf("AGENCY_LOCALE inválido %q: %w", cfg.Locale, err)
		}
		tag = parsed
	}
	name := cfg.Name
	if name == "" {
		name = reminder.DefaultAgencyName
	}
	return reminder.NewRenderer(name, tag)
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/viajes-backoffice/internal/bootstrap"
	"github.com/jhoicas/viajes-backoffice/internal/infrastructure/scheduler"
	httpRouter "github.com/jhoicas/viajes-backoffice/internal/interfaces/http"
	"github.com/jhoicas/viajes-backoffice/pkg/config"
	"github.com/jhoicas/viajes-backoffice/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("timezone", cfg.App.Location().String()).
		Msg("iniciando aplicación")

	ctx := context.Background()
	container, err := bootstrap.New(ctx, cfg, log, bootstrap.Options{Registerer: prometheus.DefaultRegisterer})
	if err != nil {
		log.Fatal().Err(err).Msg("inicialización")
	}
	defer container.Close()

	// Barrido diario; REMINDER_SWEEP_AT vacío lo desactiva.
	var job *scheduler.ReminderJob
	if cfg.Reminder.SweepAt != "" {
		hour, minute, _ := config.ParseClock(cfg.Reminder.SweepAt)
		job, err = scheduler.NewReminderJob(container.Reminders, cfg.App.Location(), hour, minute,
			cfg.Reminder.LockTTL, log.WithComponent("scheduler"))
		if err != nil {
			log.Fatal().Err(err).Msg("scheduler de recordatorios")
		}
		job.Start()
		if next, err := job.NextRun(); err == nil {
			log.Info().Time("next_run", next).Msg("barrido de recordatorios programado")
		}
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Minute * 5, // un dispatch manual puede tardar
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Viajes Back-Office API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		if err := container.Pool.Ping(c.UserContext()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "db": err.Error()})
		}
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	httpRouter.Router(app, httpRouter.RouterDeps{
		Reminders: container.Reminders,
		Split:     container.Split,
		PDF:       container.PDF,
		JWTSecret: cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	if job != nil {
		if err := job.Stop(); err != nil {
			log.Error().Err(err).Msg("apagado del scheduler")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

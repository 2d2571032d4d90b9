package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/jhoicas/viajes-backoffice/internal/application/dto"
	"github.com/jhoicas/viajes-backoffice/internal/bootstrap"
	"github.com/jhoicas/viajes-backoffice/pkg/config"
	"github.com/jhoicas/viajes-backoffice/pkg/logger"
)

var version = "1.0.0"

// reminderRunner lo cumple *reminder.Service.
type reminderRunner interface {
	Preview(ctx context.Context, req dto.PreviewRequest) (*dto.PreviewResult, error)
	Dispatch(ctx context.Context, req dto.DispatchRequest) (*dto.DispatchResult, error)
}

// runnerFactory construye el servicio y devuelve cómo liberarlo.
type runnerFactory func(ctx context.Context) (reminderRunner, func(), error)

// defaultRunner conecta a la base con la misma configuración que la API.
func defaultRunner(ctx context.Context) (reminderRunner, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})
	c, err := bootstrap.New(ctx, cfg, log, bootstrap.Options{})
	if err != nil {
		return nil, nil, err
	}
	return c.Reminders, c.Close, nil
}

func newRootCmd(factory runnerFactory) *cobra.Command {
	root := &cobra.Command{
		Use:   "remindctl",
		Short: "Recordatorios de cobro: preview y envío manual",
		Long: `remindctl usa el mismo servicio que la API y el barrido diario.

Variables de entorno: las mismas de la API (DATABASE_URL o DB_*, SMTP_*, WHATSAPP_*,
REDIS_ADDR, APP_TIMEZONE, REMINDER_*).`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newPreviewCmd(factory), newDispatchCmd(factory))
	return root
}

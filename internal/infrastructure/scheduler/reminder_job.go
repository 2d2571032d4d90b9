// Package scheduler barrido diario automático de recordatorios sobre gocron.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/viajes-backoffice/internal/application/dto"
	"github.com/jhoicas/viajes-backoffice/internal/domain"
)

// JobName nombre del job en gocron y en los logs.
const JobName = "reminder-daily-sweep"

// Sweeper lo cumple *reminder.Service.
type Sweeper interface {
	RunSweep(ctx context.Context) (*dto.DispatchResult, error)
}

// ReminderJob ejecuta un barrido "sendAll" una vez al día a la hora configurada
// en la zona de la agencia.
type ReminderJob struct {
	scheduler gocron.Scheduler
	job       gocron.Job
	sweeper   Sweeper
	timeout   time.Duration
	log       zerolog.Logger
}

// NewReminderJob registra el job diario a hour:minute en loc. timeout acota cada corrida.
func NewReminderJob(sweeper Sweeper, loc *time.Location, hour, minute uint, timeout time.Duration, log zerolog.Logger) (*ReminderJob, error) {
	if loc == nil {
		loc = time.UTC
	}
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	s, err := gocron.NewScheduler(gocron.WithLocation(loc))
	if err != nil {
		return nil, fmt.Errorf("scheduler: %w", err)
	}

	rj := &ReminderJob{scheduler: s, sweeper: sweeper, timeout: timeout, log: log}
	rj.job, err = s.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(hour, minute, 0))),
		gocron.NewTask(rj.run),
		gocron.WithName(JobName),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("scheduler: registrar %s: %w", JobName, err)
	}
	return rj, nil
}

// Start arranca el scheduler (no bloquea).
func (j *ReminderJob) Start() {
	j.log.Info().Str("job", JobName).Msg("scheduler iniciado")
	j.scheduler.Start()
}

// Stop espera a que termine la corrida en curso.
func (j *ReminderJob) Stop() error {
	return j.scheduler.Shutdown()
}

// RunNow dispara una corrida fuera de horario.
func (j *ReminderJob) RunNow() error {
	return j.job.RunNow()
}

// NextRun próxima ejecución programada.
func (j *ReminderJob) NextRun() (time.Time, error) {
	return j.job.NextRun()
}

func (j *ReminderJob) run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	res, err := j.sweeper.RunSweep(ctx)
	switch {
	case errors.Is(err, domain.ErrSweepInProgress):
		j.log.Warn().Str("job", JobName).Msg("barrido omitido: otro ciclo en curso")
	case err != nil:
		j.log.Error().Err(err).Str("job", JobName).Msg("barrido fallido")
	default:
		j.log.Info().Str("job", JobName).
			Int("sent", res.Sent).Int("failed", res.Failed).Int("skipped", res.Skipped).
			Msg("barrido completado")
	}
}

package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/jeovahfialho/b3-darf/pkg/logger"
	"github.com/jeovahfialho/b3-darf/pkg/metrics"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job is a unit of background work.
type Job interface {
	Run(ctx context.Context) error
	Name() string
}

// Scheduler runs jobs on standard five-field cron expressions.
type Scheduler struct {
	cron    *cron.Cron
	timeout time.Duration
}

func New(timeout time.Duration) *Scheduler {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Scheduler{
		cron:    cron.New(cron.WithLocation(time.UTC)),
		timeout: timeout,
	}
}

func (s *Scheduler) Start() {
	s.cron.Start()
	logger.Info("scheduler iniciado", zap.Int("jobs", len(s.cron.Entries())))
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("scheduler parado")
}

func (s *Scheduler) AddJob(schedule string, job Job) error {
	_, err := s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		if err := s.RunNow(ctx, job); err != nil {
			logger.Error("job falhou", zap.String("job", job.Name()), zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("agendamento inválido %q para %s: %w", schedule, job.Name(), err)
	}

	logger.Info("job registrado",
		zap.String("schedule", schedule),
		zap.String("job", job.Name()))

	return nil
}

// RunNow executes a job outside its schedule.
func (s *Scheduler) RunNow(ctx context.Context, job Job) error {
	timer := metrics.NewTimer()
	logger.Debug("executando job", zap.String("job", job.Name()))

	err := job.Run(ctx)
	metrics.RecordScheduledJob(job.Name(), err)

	logger.Debug("job concluído",
		zap.String("job", job.Name()),
		zap.Duration("duration", timer.Elapsed()),
		zap.Bool("ok", err == nil))

	return err
}

package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/jeovahfialho/b3-darf/internal/domain"
	"github.com/jeovahfialho/b3-darf/internal/service"
	"github.com/jeovahfialho/b3-darf/pkg/logger"
	"go.uber.org/zap"
)

type DarfCalculator interface {
	Calculate(ctx context.Context, year, month int) (service.DarfReport, error)
}

type SummaryProvider interface {
	Summary(ctx context.Context) (domain.PortfolioSummary, error)
}

// DarfWarmupJob computes the previous month's DARF and the portfolio
// summary so the first requests of the month hit the cache.
type DarfWarmupJob struct {
	darf      DarfCalculator
	portfolio SummaryProvider
	now       func() time.Time
}

func NewDarfWarmupJob(darf DarfCalculator, portfolio SummaryProvider) *DarfWarmupJob {
	return &DarfWarmupJob{
		darf:      darf,
		portfolio: portfolio,
		now:       time.Now,
	}
}

func (j *DarfWarmupJob) Name() string {
	return "darf_warmup"
}

func (j *DarfWarmupJob) Run(ctx context.Context) error {
	year, month := PreviousMonth(j.now())

	report, err := j.darf.Calculate(ctx, year, month)
	if err != nil {
		return fmt.Errorf("erro ao calcular DARF de %04d-%02d: %w", year, month, err)
	}

	if _, err := j.portfolio.Summary(ctx); err != nil {
		return fmt.Errorf("erro ao calcular resumo da carteira: %w", err)
	}

	logger.Info("cache de DARF aquecido",
		zap.String("period", report.Period),
		zap.String("net_tax_due", report.Totals.NetTaxDue.StringFixed(2)))

	return nil
}

// PreviousMonth returns the calendar month before t, in UTC.
func PreviousMonth(t time.Time) (year, month int) {
	first := time.Date(t.UTC().Year(), t.UTC().Month(), 1, 0, 0, 0, 0, time.UTC)
	prev := first.AddDate(0, -1, 0)
	return prev.Year(), int(prev.Month())
}

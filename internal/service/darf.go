package service

import (
	"context"
	"fmt"

	"github.com/jeovahfialho/b3-darf/internal/darf"
	"github.com/jeovahfialho/b3-darf/internal/domain"
	"github.com/jeovahfialho/b3-darf/internal/storage/cache"
	"github.com/jeovahfialho/b3-darf/pkg/logger"
	"github.com/jeovahfialho/b3-darf/pkg/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const NoSalesMessage = "Nenhuma operação de venda encontrada para este mês"

type DarfReport struct {
	Period       string                        `json:"period"`
	Calculations []domain.TaxCalculationResult `json:"calculations"`
	Totals       darf.Summary                  `json:"totals"`
	Message      string                        `json:"message,omitempty"`
}

type AnnualReport struct {
	Year   int          `json:"year"`
	Months []DarfReport `json:"months"`
	Totals darf.Summary `json:"totals"`
}

type DarfService struct {
	store   OperationStore
	cache   Cache
	workers int
}

func NewDarfService(store OperationStore, cache Cache, workers int) *DarfService {
	if workers <= 0 {
		workers = 1
	}
	return &DarfService{store: store, cache: cache, workers: workers}
}

// Calculate builds the DARF report of a month. Profit uses the average cost
// over every operation up to the end of the month for the assets sold in it.
func (s *DarfService) Calculate(ctx context.Context, year, month int) (DarfReport, error) {
	start, end, err := darf.Period(year, month)
	if err != nil {
		return DarfReport{}, err
	}

	key := cache.MonthKey(year, month)

	var report DarfReport
	if cacheGet(ctx, s.cache, key, &report) {
		return report, nil
	}

	ops, err := s.store.ListHistoryForSales(ctx, start, end)
	if err != nil {
		return DarfReport{}, fmt.Errorf("erro ao buscar operações do período: %w", err)
	}

	report = s.build(year, month, ops)

	logger.WithContext(ctx).Info("DARF calculado",
		zap.String("period", report.Period),
		zap.Int("groups", len(report.Calculations)),
		zap.String("net_tax_due", report.Totals.NetTaxDue.StringFixed(2)))

	cacheSet(ctx, s.cache, key, report)
	return report, nil
}

func (s *DarfService) build(year, month int, ops []domain.Operation) DarfReport {
	calculations := darf.Aggregate(year, month, ops)

	for _, c := range calculations {
		metrics.RecordDarfCalculation(string(c.AssetType), string(c.TradeCategory), c.ExemptionApplied)
	}

	report := DarfReport{
		Period:       darf.PeriodLabel(year, month),
		Calculations: calculations,
		Totals:       darf.Totals(year, calculations),
	}
	if len(calculations) == 0 {
		report.Message = NoSalesMessage
	}
	return report
}

// CalculateYear computes the twelve monthly reports of a year concurrently.
func (s *DarfService) CalculateYear(ctx context.Context, year int) (AnnualReport, error) {
	if _, _, err := darf.Period(year, 1); err != nil {
		return AnnualReport{}, err
	}

	key := cache.YearKey(year)

	var annual AnnualReport
	if cacheGet(ctx, s.cache, key, &annual) {
		return annual, nil
	}

	months := make([]DarfReport, 12)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i := range months {
		month := i + 1
		g.Go(func() error {
			report, err := s.Calculate(gctx, year, month)
			if err != nil {
				return fmt.Errorf("erro ao calcular %s: %w", darf.PeriodLabel(year, month), err)
			}
			months[month-1] = report
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return AnnualReport{}, err
	}

	all := make([]domain.TaxCalculationResult, 0)
	for _, m := range months {
		all = append(all, m.Calculations...)
	}

	annual = AnnualReport{
		Year:   year,
		Months: months,
		Totals: darf.Totals(year, all),
	}

	cacheSet(ctx, s.cache, key, annual)
	return annual, nil
}

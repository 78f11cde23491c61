package ingestion

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/jeovahfialho/b3-darf/internal/domain"
	"github.com/jeovahfialho/b3-darf/pkg/logger"
	"github.com/jeovahfialho/b3-darf/pkg/metrics"
	"go.uber.org/zap"
)

// Loader persists parsed operations.
type Loader interface {
	Load(ctx context.Context, operations []domain.Operation) (int64, error)
}

// WorkerPool imports several export files at once. Each file is loaded in
// its own transaction.
type WorkerPool struct {
	workers  int
	parser   *Parser
	loader   Loader
	jobQueue chan Job
	wg       sync.WaitGroup
}

type Job struct {
	FilePath string
	Result   chan<- JobResult
}

type JobResult struct {
	FilePath     string
	RecordsCount int64
	Rejected     []error
	Error        error
}

func NewWorkerPool(workers int, parser *Parser, loader Loader) *WorkerPool {
	if workers <= 0 {
		workers = 1
	}
	return &WorkerPool{
		workers:  workers,
		parser:   parser,
		loader:   loader,
		jobQueue: make(chan Job, workers*2),
	}
}

func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.workers; i++ {
		wp.wg.Add(1)
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) Stop() {
	close(wp.jobQueue)
	wp.wg.Wait()
}

func (wp *WorkerPool) Submit(job Job) {
	wp.jobQueue <- job
}

// ImportFiles runs every file through the pool and returns results in the
// order the files were given. The pool cannot be reused afterwards.
func (wp *WorkerPool) ImportFiles(ctx context.Context, paths []string) []JobResult {
	wp.Start(ctx)

	channels := make([]chan JobResult, len(paths))
	for i, path := range paths {
		channels[i] = make(chan JobResult, 1)
		select {
		case wp.jobQueue <- Job{FilePath: path, Result: channels[i]}:
		case <-ctx.Done():
		}
	}
	wp.Stop()

	results := make([]JobResult, len(paths))
	for i, ch := range channels {
		select {
		case r := <-ch:
			results[i] = r
		default:
			results[i] = JobResult{FilePath: paths[i], Error: ctx.Err()}
		}
	}
	return results
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	defer wp.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return

		case job, ok := <-wp.jobQueue:
			if !ok {
				return
			}

			logger.Debug("processando arquivo",
				zap.Int("worker", id),
				zap.String("file", job.FilePath))

			job.Result <- wp.processFile(ctx, job.FilePath)
		}
	}
}

func (wp *WorkerPool) processFile(ctx context.Context, filePath string) JobResult {
	file, err := os.Open(filePath)
	if err != nil {
		return JobResult{
			FilePath: filePath,
			Error:    fmt.Errorf("erro ao abrir arquivo: %w", err),
		}
	}
	defer file.Close()

	timer := metrics.NewTimer()
	parseResult, err := wp.parser.ParseFile(ctx, file)
	timer.ObserveDuration(metrics.ImportDuration.WithLabelValues("parse"))
	if err != nil {
		return JobResult{
			FilePath: filePath,
			Error:    fmt.Errorf("erro no parse: %w", err),
		}
	}

	metrics.RecordOperationsIngested("file", "rejected", len(parseResult.Errors))

	count, err := wp.loader.Load(ctx, parseResult.Operations)
	if err != nil {
		metrics.RecordOperationsIngested("file", "error", len(parseResult.Operations))
		return JobResult{
			FilePath: filePath,
			Rejected: parseResult.Errors,
			Error:    fmt.Errorf("erro ao carregar: %w", err),
		}
	}

	metrics.RecordOperationsIngested("file", "success", int(count))

	return JobResult{
		FilePath:     filePath,
		RecordsCount: count,
		Rejected:     parseResult.Errors,
	}
}

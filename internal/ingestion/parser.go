package ingestion

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jeovahfialho/b3-darf/internal/domain"
	"github.com/shopspring/decimal"
)

// Columns of the broker export, in order.
var Header = []string{"data", "codigo", "tipo", "categoria", "operacao", "quantidade", "preco", "custo_total"}

var dateLayouts = []string{"2006-01-02", "02/01/2006"}

type Parser struct {
	batchSize int
	workers   int
}

func NewParser(batchSize, workers int) *Parser {
	if batchSize <= 0 {
		batchSize = 1000
	}
	if workers <= 0 {
		workers = 1
	}
	return &Parser{
		batchSize: batchSize,
		workers:   workers,
	}
}

// LineError reports a row that could not be turned into an operation.
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("linha %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

type ParseResult struct {
	Operations []domain.Operation
	Errors     []error
}

type record struct {
	line   int
	fields []string
}

type parsed struct {
	line int
	op   domain.Operation
	err  error
}

// ParseFile reads a semicolon separated export. Rows are parsed
// concurrently and returned in file order; invalid rows end up in Errors.
func (p *Parser) ParseFile(ctx context.Context, reader io.Reader) (*ParseResult, error) {
	csvReader := csv.NewReader(reader)
	csvReader.Comma = ';'
	csvReader.LazyQuotes = true
	csvReader.FieldsPerRecord = -1
	csvReader.TrimLeadingSpace = true

	header, err := csvReader.Read()
	if err == io.EOF {
		return &ParseResult{Operations: []domain.Operation{}, Errors: []error{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("erro ao ler cabeçalho: %w", err)
	}
	if err := checkHeader(header); err != nil {
		return nil, err
	}

	jobs := make(chan record, p.workers*2)
	results := make(chan []parsed, p.workers)
	readErrs := make([]error, 0)

	var wg sync.WaitGroup

	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go p.worker(ctx, jobs, results, &wg)
	}

	go func() {
		defer close(jobs)

		line := 1
		for {
			fields, err := csvReader.Read()
			line++
			if err == io.EOF {
				return
			}
			if err != nil {
				readErrs = append(readErrs, &LineError{Line: line, Err: err})
				continue
			}
			select {
			case <-ctx.Done():
				return
			case jobs <- record{line: line, fields: fields}:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	all := make([]parsed, 0, p.batchSize)
	for batch := range results {
		all = append(all, batch...)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(all, func(i, j int) bool { return all[i].line < all[j].line })

	final := &ParseResult{
		Operations: make([]domain.Operation, 0, len(all)),
		Errors:     readErrs,
	}
	for _, r := range all {
		if r.err != nil {
			final.Errors = append(final.Errors, &LineError{Line: r.line, Err: r.err})
			continue
		}
		final.Operations = append(final.Operations, r.op)
	}
	sort.SliceStable(final.Errors, func(i, j int) bool {
		return lineOf(final.Errors[i]) < lineOf(final.Errors[j])
	})

	return final, nil
}

func lineOf(err error) int {
	if le, ok := err.(*LineError); ok {
		return le.Line
	}
	return 0
}

func checkHeader(header []string) error {
	if len(header) < len(Header) {
		return fmt.Errorf("cabeçalho inválido: esperado %s", strings.Join(Header, ";"))
	}
	for i, col := range Header {
		if !strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(header[i], "\uFEFF")), col) {
			return fmt.Errorf("cabeçalho inválido: coluna %d deveria ser %q", i+1, col)
		}
	}
	return nil
}

func (p *Parser) worker(ctx context.Context, jobs <-chan record,
	results chan<- []parsed, wg *sync.WaitGroup) {

	defer wg.Done()

	batch := make([]parsed, 0, p.batchSize)

	for {
		select {
		case <-ctx.Done():
			if len(batch) > 0 {
				results <- batch
			}
			return

		case rec, ok := <-jobs:
			if !ok {
				if len(batch) > 0 {
					results <- batch
				}
				return
			}

			op, err := ParseRecord(rec.fields)
			batch = append(batch, parsed{line: rec.line, op: op, err: err})

			if len(batch) >= p.batchSize {
				results <- batch
				batch = make([]parsed, 0, p.batchSize)
			}
		}
	}
}

// ParseRecord turns one export row into a validated operation with a fresh
// id.
func ParseRecord(fields []string) (domain.Operation, error) {
	if len(fields) < len(Header) {
		return domain.Operation{}, fmt.Errorf("registro inválido: %d colunas", len(fields))
	}

	date, err := parseDate(fields[0])
	if err != nil {
		return domain.Operation{}, err
	}

	assetType, err := domain.ParseAssetType(fields[2])
	if err != nil {
		return domain.Operation{}, err
	}

	category, err := domain.ParseTradeCategory(fields[3])
	if err != nil {
		return domain.Operation{}, err
	}

	kind, err := domain.ParseOperationKind(fields[4])
	if err != nil {
		return domain.Operation{}, err
	}

	quantity, err := parseDecimal(fields[5])
	if err != nil {
		return domain.Operation{}, fmt.Errorf("quantidade inválida: %w", err)
	}

	price, err := parseDecimal(fields[6])
	if err != nil {
		return domain.Operation{}, fmt.Errorf("preço inválido: %w", err)
	}

	total, err := parseDecimal(fields[7])
	if err != nil {
		return domain.Operation{}, fmt.Errorf("custo total inválido: %w", err)
	}

	op := domain.Operation{
		ID:            uuid.NewString(),
		AssetCode:     fields[1],
		AssetType:     assetType,
		TradeCategory: category,
		Kind:          kind,
		Quantity:      quantity,
		UnitPrice:     price,
		TotalCost:     total,
		OperationDate: date,
		CreatedAt:     time.Now().UTC(),
	}.Normalize()

	if err := op.Validate(); err != nil {
		return domain.Operation{}, err
	}
	return op, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("data inválida: %q", s)
}

// parseDecimal accepts both 1234.56 and 1.234,56.
func parseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}
	return decimal.NewFromString(s)
}

package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jeovahfialho/b3-darf/internal/domain"
	"github.com/jeovahfialho/b3-darf/internal/service"
	"github.com/jeovahfialho/b3-darf/internal/storage/postgres"
	"github.com/jeovahfialho/b3-darf/pkg/logger"
	"go.uber.org/zap"
)

const (
	serviceName = "b3-darf"
	version     = "1.0.0"
)

// CacheAdmin is the part of the cache the admin routes use.
type CacheAdmin interface {
	HealthCheck(ctx context.Context) error
	DeletePattern(ctx context.Context, pattern string) (int64, error)
}

type Handler struct {
	db         *postgres.DB
	cache      CacheAdmin
	operations *service.OperationService
	portfolio  *service.PortfolioService
	darf       *service.DarfService
}

// NewHandler wires the HTTP handlers. db and cache may be nil; readiness
// reports them as unavailable.
func NewHandler(
	db *postgres.DB,
	cache CacheAdmin,
	operations *service.OperationService,
	portfolio *service.PortfolioService,
	darf *service.DarfService,
) *Handler {
	return &Handler{
		db:         db,
		cache:      cache,
		operations: operations,
		portfolio:  portfolio,
		darf:       darf,
	}
}

func (h *Handler) HealthCheck(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status:    "healthy",
		Service:   serviceName,
		Version:   version,
		Timestamp: time.Now(),
	})
}

func (h *Handler) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	services := make(map[string]ServiceHealth)

	if h.db == nil {
		services["database"] = ServiceHealth{Status: "unhealthy", Error: "não configurado"}
	} else {
		dbStart := time.Now()
		if err := h.db.HealthCheck(ctx); err != nil {
			services["database"] = ServiceHealth{
				Status: "unhealthy",
				Error:  err.Error(),
			}
		} else {
			services["database"] = ServiceHealth{
				Status:  "healthy",
				Latency: time.Since(dbStart).String(),
			}
		}
	}

	// Redis is optional: without it the API runs uncached.
	if h.cache == nil {
		services["redis"] = ServiceHealth{Status: "disabled"}
	} else {
		redisStart := time.Now()
		if err := h.cache.HealthCheck(ctx); err != nil {
			services["redis"] = ServiceHealth{
				Status: "unhealthy",
				Error:  err.Error(),
			}
		} else {
			services["redis"] = ServiceHealth{
				Status:  "healthy",
				Latency: time.Since(redisStart).String(),
			}
		}
	}

	status := "ready"
	for _, s := range services {
		if s.Status == "unhealthy" {
			status = "not_ready"
			break
		}
	}

	response := HealthResponse{
		Status:    status,
		Service:   serviceName,
		Version:   version,
		Timestamp: time.Now(),
		Services:  services,
	}

	if status != "ready" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(response)
	}

	return c.JSON(response)
}

func (h *Handler) CreateOperation(c *fiber.Ctx) error {
	var req CreateOperationRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.NewError(fiber.StatusBadRequest, "corpo da requisição inválido"))
	}

	op, err := req.toOperation()
	if err != nil {
		return respondError(c, err)
	}

	created, err := h.operations.Create(c.UserContext(), op)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(CreateOperationResponse{
		ID:      created.ID,
		Message: "Operação registrada com sucesso",
	})
}

func (h *Handler) ListOperations(c *fiber.Ctx) error {
	filter := domain.OperationFilter{
		AssetCode: c.Query("asset_code"),
		AssetType: domain.AssetType(strings.ToLower(c.Query("asset_type"))),
		Limit:     c.QueryInt("limit", 0),
	}

	operations, err := h.operations.List(c.UserContext(), filter)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(OperationsResponse{
		Operations: operations,
		Count:      len(operations),
	})
}

func (h *Handler) DeleteOperation(c *fiber.Ctx) error {
	if err := h.operations.Delete(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, err)
	}

	return c.JSON(MessageResponse{Message: "Operação removida com sucesso"})
}

func (h *Handler) GetPortfolioSummary(c *fiber.Ctx) error {
	summary, err := h.portfolio.Summary(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(summary)
}

func (h *Handler) GetPositions(c *fiber.Ctx) error {
	positions, err := h.portfolio.Positions(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(PositionsResponse{
		Positions: positions,
		Count:     len(positions),
	})
}

func (h *Handler) GetPosition(c *fiber.Ctx) error {
	position, err := h.portfolio.Position(c.UserContext(), c.Params("asset_code"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(position)
}

func (h *Handler) CalculateDarf(c *fiber.Ctx) error {
	year, err := c.ParamsInt("year")
	if err != nil {
		return respondError(c, fmt.Errorf("%w: ano inválido", domain.ErrInvalidPeriod))
	}
	month, err := c.ParamsInt("month")
	if err != nil {
		return respondError(c, fmt.Errorf("%w: mês inválido", domain.ErrInvalidPeriod))
	}

	report, err := h.darf.Calculate(c.UserContext(), year, month)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}

func (h *Handler) CalculateAnnualDarf(c *fiber.Ctx) error {
	year, err := c.ParamsInt("year")
	if err != nil {
		return respondError(c, fmt.Errorf("%w: ano inválido", domain.ErrInvalidPeriod))
	}

	report, err := h.darf.CalculateYear(c.UserContext(), year)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}

func (h *Handler) GetAssetTypes(c *fiber.Ctx) error {
	return c.JSON(AssetTypesResponse{
		AssetTypes:      domain.AssetTypes,
		TradeCategories: domain.TradeCategories,
		OperationTypes:  domain.OperationKinds,
	})
}

func (h *Handler) InvalidateCache(c *fiber.Ctx) error {
	pattern := c.Params("pattern", "*")

	if h.cache == nil {
		return respondError(c, fiber.NewError(fiber.StatusServiceUnavailable, "cache não disponível"))
	}

	removed, err := h.cache.DeletePattern(c.UserContext(), pattern)
	if err != nil {
		logger.Error("erro ao invalidar cache", zap.String("pattern", pattern), zap.Error(err))
		return respondError(c, fiber.NewError(fiber.StatusInternalServerError, "erro ao invalidar cache"))
	}

	return c.JSON(InvalidateCacheResponse{
		Pattern: pattern,
		Removed: removed,
		Message: fmt.Sprintf("cache invalidado para padrão: %s", pattern),
	})
}

func (h *Handler) GetSystemStats(c *fiber.Ctx) error {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := SystemStatsResponse{
		Runtime: RuntimeStats{
			MemoryUsed:       fmt.Sprintf("%d MB", m.Alloc/1024/1024),
			ActiveGoroutines: runtime.NumGoroutine(),
		},
	}

	if h.db != nil {
		dbStats := h.db.Stats()
		response.Database = DatabaseStats{
			Available:         true,
			ActiveConnections: dbStats.AcquiredConns(),
			IdleConnections:   dbStats.IdleConns(),
			TotalConnections:  dbStats.TotalConns(),
			WaitCount:         dbStats.EmptyAcquireCount(),
			WaitDuration:      dbStats.AcquireDuration().String(),
		}
	}

	return c.JSON(response)
}

// ImportOperations accepts either a multipart "file" field or a raw CSV
// body.
func (h *Handler) ImportOperations(c *fiber.Ctx) error {
	var (
		reader io.Reader
		source = "upload"
	)

	if fh, err := c.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return respondError(c, fiber.NewError(fiber.StatusBadRequest, "arquivo inválido"))
		}
		defer f.Close()
		reader = f
		source = fh.Filename
	} else {
		body := c.Body()
		if len(body) == 0 {
			return respondError(c, fiber.NewError(fiber.StatusBadRequest, "arquivo CSV é obrigatório"))
		}
		reader = bytes.NewReader(body)
	}

	result, err := h.operations.Import(c.UserContext(), reader, source)
	if err != nil {
		logger.Error("erro ao importar operações", zap.String("source", source), zap.Error(err))
		return respondError(c, fiber.NewError(fiber.StatusUnprocessableEntity, err.Error()))
	}

	return c.JSON(result)
}

func (r CreateOperationRequest) toOperation() (domain.Operation, error) {
	assetType, err := domain.ParseAssetType(r.AssetType)
	if err != nil {
		return domain.Operation{}, err
	}
	category, err := domain.ParseTradeCategory(r.TradeCategory)
	if err != nil {
		return domain.Operation{}, err
	}
	kind, err := domain.ParseOperationKind(r.OperationType)
	if err != nil {
		return domain.Operation{}, err
	}
	if r.TotalCost == nil {
		return domain.Operation{}, fmt.Errorf("%w: custo total é obrigatório", domain.ErrInvalidOperation)
	}

	date, err := parseDate(r.OperationDate)
	if err != nil {
		return domain.Operation{}, err
	}

	return domain.Operation{
		AssetCode:     r.AssetCode,
		AssetType:     assetType,
		TradeCategory: category,
		Kind:          kind,
		Quantity:      r.Quantity,
		UnitPrice:     r.UnitPrice,
		TotalCost:     *r.TotalCost,
		OperationDate: date,
	}, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: formato de data inválido (use YYYY-MM-DD)", domain.ErrInvalidOperation)
}

func errorStatus(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, domain.ErrInvalidOperation),
		errors.Is(err, domain.ErrUnknownAssetType),
		errors.Is(err, domain.ErrUnknownTradeCategory),
		errors.Is(err, domain.ErrUnknownOperationKind):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrOperationNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrInvalidPeriod):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

func respondError(c *fiber.Ctx, err error) error {
	code := errorStatus(err)
	message := err.Error()

	if code == fiber.StatusInternalServerError {
		logger.Error("erro interno",
			zap.String("path", c.Path()),
			zap.String("request_id", getRequestID(c)),
			zap.Error(err))
		message = "erro interno do servidor"
	}

	return c.Status(code).JSON(ErrorResponse{
		Error:     message,
		Code:      code,
		RequestID: getRequestID(c),
		Timestamp: time.Now(),
	})
}

func getRequestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestID").(string); ok {
		return id
	}
	return ""
}

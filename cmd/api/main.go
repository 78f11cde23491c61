package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/jeovahfialho/b3-darf/internal/api"
	"github.com/jeovahfialho/b3-darf/internal/config"
	"github.com/jeovahfialho/b3-darf/internal/ingestion"
	"github.com/jeovahfialho/b3-darf/internal/scheduler"
	"github.com/jeovahfialho/b3-darf/internal/service"
	"github.com/jeovahfialho/b3-darf/internal/storage/cache"
	"github.com/jeovahfialho/b3-darf/internal/storage/postgres"
	pkglogger "github.com/jeovahfialho/b3-darf/pkg/logger"
)

// @title B3 DARF API
// @version 1.0
// @description API para controle de operações em bolsa e cálculo mensal de DARF

// @host localhost:8001
// @BasePath /api/v1
// @schemes http https
func main() {
	cfg := config.Load()

	if err := pkglogger.Init(cfg.LogLevel, cfg.IsDevelopment()); err != nil {
		log.Fatal("Erro ao inicializar logger:", err)
	}
	defer pkglogger.Close()

	db, err := connectPostgres(cfg)
	if err != nil {
		pkglogger.Fatal("erro ao conectar PostgreSQL", zap.Error(err))
	}
	defer db.Close()

	redisCache := connectRedis(cfg)
	var (
		svcCache   service.Cache
		adminCache api.CacheAdmin
	)
	if redisCache != nil {
		defer redisCache.Close()
		svcCache = redisCache
		adminCache = redisCache
	}

	// Services
	repo := postgres.NewOperationRepository(db.Pool())
	parser := ingestion.NewParser(cfg.BatchSize, cfg.Workers)
	loader := ingestion.NewBulkLoader(db.Pool(), cfg.BatchSize)

	operationService := service.NewOperationService(repo, svcCache, parser, loader, cfg.Workers, cfg.OperationsLimit)
	portfolioService := service.NewPortfolioService(repo, svcCache)
	darfService := service.NewDarfService(repo, svcCache, cfg.Workers)

	// Scheduler
	var sched *scheduler.Scheduler
	if cfg.SchedulerEnabled {
		sched = scheduler.New(5 * time.Minute)
		if err := sched.AddJob(cfg.DarfWarmupSchedule, scheduler.NewDarfWarmupJob(darfService, portfolioService)); err != nil {
			pkglogger.Fatal("erro ao registrar job", zap.Error(err))
		}
		sched.Start()
	}

	handler := api.NewHandler(db, adminCache, operationService, portfolioService, darfService)

	app := fiber.New(fiber.Config{
		Prefork:                 false,
		ServerHeader:            "B3-DARF",
		AppName:                 "B3 DARF v1.0.0",
		ReadTimeout:             cfg.APIReadTimeout,
		WriteTimeout:            cfg.APIWriteTimeout,
		IdleTimeout:             120 * time.Second,
		ReadBufferSize:          8192,
		WriteBufferSize:         8192,
		ProxyHeader:             "X-Forwarded-For",
		EnableTrustedProxyCheck: true,
		BodyLimit:               10 * 1024 * 1024, // 10MB
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-Request-ID",
	}))

	api.SetupRoutes(app, handler, cfg)

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		pkglogger.Info("encerrando servidor")
		if sched != nil {
			sched.Stop()
		}
		if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
			pkglogger.Error("erro ao encerrar servidor", zap.Error(err))
		}
	}()

	addr := fmt.Sprintf("%s:%s", cfg.APIHost, cfg.APIPort)
	pkglogger.Info("iniciando servidor", zap.String("addr", addr))

	if err := app.Listen(addr); err != nil {
		pkglogger.Fatal("erro no servidor", zap.Error(err))
	}
}

func connectPostgres(cfg *config.Config) (*postgres.DB, error) {
	db, err := postgres.NewDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("erro ao criar conexão: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.HealthCheck(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("erro ao testar conexão: %w", err)
	}

	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("erro ao aplicar migrações: %w", err)
	}

	pkglogger.Info("conectado ao PostgreSQL")
	return db, nil
}

func connectRedis(cfg *config.Config) *cache.RedisCache {
	redisCache, err := cache.NewRedisCache(cfg)
	if err != nil {
		pkglogger.Warn("Redis não disponível, continuando sem cache", zap.Error(err))
		return nil
	}

	pkglogger.Info("conectado ao Redis")
	return redisCache
}

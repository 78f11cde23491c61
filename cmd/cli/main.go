package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeovahfialho/b3-darf/internal/config"
	"github.com/jeovahfialho/b3-darf/internal/domain"
	"github.com/jeovahfialho/b3-darf/internal/ingestion"
	"github.com/jeovahfialho/b3-darf/internal/report"
	"github.com/jeovahfialho/b3-darf/internal/service"
	"github.com/jeovahfialho/b3-darf/internal/storage/cache"
	"github.com/jeovahfialho/b3-darf/internal/storage/postgres"
	pkglogger "github.com/jeovahfialho/b3-darf/pkg/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var rootCmd = &cobra.Command{
		Use:   "b3-darf",
		Short: "Controle de operações e DARF de renda variável",
		Long: `CLI para registrar operações em bolsa e cripto,
acompanhar preço médio e calcular o DARF mensal.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			return pkglogger.Init(cfg.LogLevel, cfg.IsDevelopment())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			pkglogger.Close()
		},
	}

	// Comando migrate
	var migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Aplica as migrações do banco",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd.Context())
		},
	}

	// Comando import
	var importCmd = &cobra.Command{
		Use:   "import [files...]",
		Short: "Importa arquivos CSV de operações",
		Long: `Importa arquivos CSV separados por ponto e vírgula com o cabeçalho
data;codigo;tipo;categoria;operacao;quantidade;preco;custo_total
Aceita múltiplos arquivos e wildcards (ex: data/*.csv)`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args)
		},
	}

	// Comando darf
	var darfCmd = &cobra.Command{
		Use:   "darf YEAR [MONTH]",
		Short: "Calcula o DARF de um mês ou de um ano inteiro",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDarf(cmd, args)
		},
	}

	// Comando position
	var positionCmd = &cobra.Command{
		Use:   "position CODE",
		Short: "Mostra preço médio e lucro realizado de um ativo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPosition(cmd, args[0])
		},
	}

	// Comando summary
	var summaryCmd = &cobra.Command{
		Use:   "summary",
		Short: "Mostra o resumo da carteira",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSummary(cmd)
		},
	}

	// Comando health
	var healthCmd = &cobra.Command{
		Use:   "health",
		Short: "Verifica saúde do sistema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return checkHealth(cmd)
		},
	}

	rootCmd.AddCommand(migrateCmd, importCmd, darfCmd, positionCmd, summaryCmd, healthCmd)
	return rootCmd
}

type app struct {
	cfg        *config.Config
	db         *postgres.DB
	operations *service.OperationService
	portfolio  *service.PortfolioService
	darf       *service.DarfService
}

// newApp connects to the database and builds the services. The CLI runs
// without cache so results always reflect the database.
func newApp(ctx context.Context) (*app, error) {
	cfg := config.Load()

	db, err := postgres.NewDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("erro ao conectar ao banco: %w", err)
	}

	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	repo := postgres.NewOperationRepository(db.Pool())
	parser := ingestion.NewParser(cfg.BatchSize, cfg.Workers)
	loader := ingestion.NewBulkLoader(db.Pool(), cfg.BatchSize)

	return &app{
		cfg:        cfg,
		db:         db,
		operations: service.NewOperationService(repo, nil, parser, loader, cfg.Workers, 0),
		portfolio:  service.NewPortfolioService(repo, nil),
		darf:       service.NewDarfService(repo, nil, cfg.Workers),
	}, nil
}

func (a *app) Close() {
	a.db.Close()
}

func runMigrate(ctx context.Context) error {
	cfg := config.Load()

	db, err := postgres.NewDB(cfg)
	if err != nil {
		return fmt.Errorf("erro ao conectar ao banco: %w", err)
	}
	defer db.Close()

	fmt.Println("🔄 Aplicando migrações...")
	if err := db.Migrate(ctx); err != nil {
		return err
	}
	fmt.Println("✅ Banco atualizado!")
	return nil
}

func runImport(cmd *cobra.Command, patterns []string) error {
	files, err := expandFiles(patterns)
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	fmt.Printf("📥 Importando %d arquivo(s)...\n\n", len(files))

	var total int64
	failed := 0
	for _, result := range a.operations.ImportFiles(cmd.Context(), files) {
		if result.Error != nil {
			failed++
			fmt.Printf("❌ Erro em %s: %v\n", result.FilePath, result.Error)
			continue
		}

		fmt.Printf("✅ %d operações de %s\n", result.RecordsCount, result.FilePath)
		total += result.RecordsCount

		for _, rejected := range result.Rejected {
			fmt.Printf("   ⚠️  %v\n", rejected)
		}
	}

	fmt.Printf("\n📊 Total: %d operações importadas\n", total)

	// Caches the API may hold are stale after a bulk import.
	invalidateRemoteCache(cmd.Context(), a.cfg)

	if failed > 0 {
		return fmt.Errorf("%d arquivo(s) com erro", failed)
	}
	return nil
}

func expandFiles(patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("padrão inválido %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("nenhum arquivo encontrado para %q", pattern)
		}
		files = append(files, matches...)
	}
	return files, nil
}

func invalidateRemoteCache(ctx context.Context, cfg *config.Config) {
	redisCache, err := cache.NewRedisCache(cfg)
	if err != nil {
		return
	}
	defer redisCache.Close()

	for _, pattern := range []string{cache.DarfPattern, cache.PortfolioPattern} {
		if _, err := redisCache.DeletePattern(ctx, pattern); err != nil {
			fmt.Printf("⚠️  Erro ao invalidar cache %s: %v\n", pattern, err)
		}
	}
}

func parsePeriodArgs(args []string) (year, month int, err error) {
	year, err = strconv.Atoi(args[0])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: ano %q", domain.ErrInvalidPeriod, args[0])
	}
	if len(args) == 1 {
		return year, 0, nil
	}
	month, err = strconv.Atoi(args[1])
	if err != nil || month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("%w: mês %q", domain.ErrInvalidPeriod, args[1])
	}
	return year, month, nil
}

func runDarf(cmd *cobra.Command, args []string) error {
	year, month, err := parsePeriodArgs(args)
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	if month == 0 {
		annual, err := a.darf.CalculateYear(ctx, year)
		if err != nil {
			return err
		}
		return report.WriteAnnual(cmd.OutOrStdout(), annual)
	}

	monthly, err := a.darf.Calculate(ctx, year, month)
	if err != nil {
		return err
	}
	return report.WriteDarf(cmd.OutOrStdout(), monthly)
}

func runPosition(cmd *cobra.Command, code string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	position, err := a.portfolio.Position(cmd.Context(), code)
	if errors.Is(err, domain.ErrOperationNotFound) {
		return fmt.Errorf("nenhuma operação encontrada para %s", code)
	}
	if err != nil {
		return err
	}
	return report.WritePosition(cmd.OutOrStdout(), position)
}

func runSummary(cmd *cobra.Command) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	summary, err := a.portfolio.Summary(cmd.Context())
	if err != nil {
		return err
	}
	return report.WriteSummary(cmd.OutOrStdout(), summary)
}

// checkHealth verifica a saúde do sistema
func checkHealth(cmd *cobra.Command) error {
	ctx := cmd.Context()
	cfg := config.Load()

	fmt.Println("🏥 Verificando saúde do sistema...")
	fmt.Println()

	fmt.Print("PostgreSQL: ")
	db, err := postgres.NewDB(cfg)
	if err != nil {
		fmt.Printf("❌ Erro: %v\n", err)
	} else {
		defer db.Close()

		if err := db.HealthCheck(ctx); err != nil {
			fmt.Printf("❌ Erro: %v\n", err)
		} else {
			fmt.Println("✅ OK")
		}
	}

	fmt.Print("Redis: ")
	redisCache, err := cache.NewRedisCache(cfg)
	if err != nil {
		fmt.Println("❌ Não disponível")
	} else {
		defer redisCache.Close()

		if err := redisCache.HealthCheck(ctx); err != nil {
			fmt.Printf("❌ Erro: %v\n", err)
		} else {
			fmt.Println("✅ OK")
		}
	}

	fmt.Println("\n✅ Verificação concluída!")
	return nil
}

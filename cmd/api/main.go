package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	appanalytics "github.com/jhoicas/inventario-ledger/internal/application/analytics"
	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/application/usecase"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/postgres"
	infraredis "github.com/jhoicas/inventario-ledger/internal/infrastructure/redis"
	httpRouter "github.com/jhoicas/inventario-ledger/internal/interfaces/http"
	"github.com/jhoicas/inventario-ledger/pkg/config"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
	"github.com/jhoicas/inventario-ledger/pkg/metrics"
)

// storage agrupa los repositorios de lectura y el TxRunner del driver elegido.
type storage struct {
	txRunner  inventory.TxRunner
	products  repository.ProductRepository
	locations repository.LocationRepository
	movements repository.MovementRepository
	audit     repository.AuditRepository
	health    httpRouter.HealthCheck
	close     func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.Storage.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()
	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Storage.Driver).Msg("inicializar almacenamiento")
	}
	defer store.close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	movementMetrics := metrics.NewMovementMetrics(registry)

	healthChecks := map[string]httpRouter.HealthCheck{"storage": store.health}

	// Idempotency-Key: solo si REDIS_URL está configurado.
	var idem httpRouter.IdempotencyStore
	if cfg.Redis.Enabled() {
		redisStore, err := infraredis.NewIdempotencyStore(ctx, cfg.Redis, cfg.App.Name)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer redisStore.Close()
		idem = redisStore
		healthChecks["redis"] = redisStore.Ping
		log.Info().Dur("ttl", cfg.Redis.IdempotencyTTL).Msg("idempotencia habilitada")
	}

	engine := inventory.NewMovementEngine(store.txRunner, store.products, store.locations, store.movements, log, movementMetrics)
	productUC := usecase.NewProductUseCase(store.products, store.txRunner)
	locationUC := usecase.NewLocationUseCase(store.locations, store.txRunner)
	warehouseUC := usecase.NewWarehouseUseCase(store.locations, store.txRunner)
	importUC := usecase.NewProductImportUseCase(productUC, store.locations, engine)
	auditUC := usecase.NewAuditUseCase(store.audit)
	dashboardUC := appanalytics.NewDashboardUseCase(store.products, store.movements)
	stockStateUC := appanalytics.NewStockStateUseCase(store.products, store.locations)

	app := httpRouter.NewApp(httpRouter.RouterDeps{
		AppName:        cfg.App.Name,
		Engine:         engine,
		ProductUC:      productUC,
		LocationUC:     locationUC,
		WarehouseUC:    warehouseUC,
		ImportUC:       importUC,
		AuditUC:        auditUC,
		DashboardUC:    dashboardUC,
		StockStateUC:   stockStateUC,
		JWTSecret:      cfg.JWT.Secret,
		Idempotency:    idem,
		IdempotencyTTL: cfg.Redis.IdempotencyTTL,
		Metrics:        registry,
		HealthChecks:   healthChecks,
		Log:            log,
	})

	go func() {
		addr := cfg.HTTP.Addr()
		log.Info().Str("addr", addr).Msg("servidor HTTP escuchando")
		if err := app.Listen(addr); err != nil {
			log.Error().Err(err).Msg("servidor HTTP")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("apagando servidor...")
	if err := app.ShutdownWithTimeout(cfg.HTTP.ShutdownTimeout); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
	log.Info().Msg("servidor detenido")
}

func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (*storage, error) {
	if cfg.Storage.Driver == config.StorageDriverMemory {
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
		s := memory.NewStore()
		return &storage{
			txRunner:  s,
			products:  s.Products(),
			locations: s.Locations(),
			movements: s.Movements(),
			audit:     s.Audit(),
			health:    func(context.Context) error { return nil },
			close:     func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	if cfg.DB.AutoMigrate {
		migrateCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()
		if err := postgres.Migrate(migrateCtx, pool, "up"); err != nil {
			pool.Close()
			return nil, err
		}
		log.Info().Msg("migraciones aplicadas")
	}
	return &storage{
		txRunner:  postgres.NewTxRunner(pool),
		products:  postgres.NewProductRepository(pool),
		locations: postgres.NewLocationRepository(pool),
		movements: postgres.NewMovementRepository(pool),
		audit:     postgres.NewAuditRepository(pool),
		health:    pool.Ping,
		close:     pool.Close,
	}, nil
}

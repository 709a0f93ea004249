package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	appanalytics "github.com/jhoicas/inventario-ledger/internal/application/analytics"
	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/application/usecase"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

// HealthCheck verifica una dependencia (base de datos, Redis). nil = sana.
type HealthCheck func(ctx context.Context) error

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AppName        string
	Engine         *inventory.MovementEngine
	ProductUC      *usecase.ProductUseCase
	LocationUC     *usecase.LocationUseCase
	WarehouseUC    *usecase.WarehouseUseCase
	ImportUC       *usecase.ProductImportUseCase
	AuditUC        *usecase.AuditUseCase
	DashboardUC    *appanalytics.DashboardUseCase
	StockStateUC   *appanalytics.StockStateUseCase
	JWTSecret      string
	Idempotency    IdempotencyStore // nil deshabilita Idempotency-Key
	IdempotencyTTL time.Duration
	Metrics        prometheus.Gatherer // nil = sin /metrics
	HealthChecks   map[string]HealthCheck
	Log            *logger.Logger
}

// NewApp construye la aplicación Fiber con los middlewares comunes y registra las rutas.
func NewApp(deps RouterDeps) *fiber.App {
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	app := fiber.New(fiber.Config{
		AppName:      deps.AppName,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return c.Status(fe.Code).JSON(dto.ErrorResponse{Code: "HTTP_ERROR", Message: fe.Message})
			}
			return writeError(c, err)
		},
	})
	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{ContextKey: LocalRequestID}))
	app.Use(cors.New())
	app.Use(RequestLogger(deps.Log))

	app.Get("/health", healthHandler(deps.AppName, deps.HealthChecks))
	if deps.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{})))
	}

	Router(app, deps)
	return app
}

// Router registra las rutas de la API.
//
// Roles: admin administra el catálogo; admin y bodeguero registran movimientos;
// auditor solo lee. Todas las rutas /api requieren Bearer Token.
func Router(app *fiber.App, deps RouterDeps) {
	protected := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	writers := RequireRole(RoleAdmin, RoleBodeguero)
	admins := RequireRole(RoleAdmin)
	readers := RequireRole(RoleAdmin, RoleBodeguero, RoleAuditor)
	idem := Idempotency(deps.Idempotency, deps.IdempotencyTTL, deps.Log)

	// Movimientos (ledger)
	inv := protected.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.Engine)
	inv.Post("/receipts", writers, idem, inventoryHandler.Receipts)
	inv.Post("/deliveries", writers, idem, inventoryHandler.Deliveries)
	inv.Post("/transfers", writers, idem, inventoryHandler.Transfers)
	inv.Post("/adjustments", writers, idem, inventoryHandler.Adjustments)
	inv.Get("/movements", readers, inventoryHandler.ListMovements)
	inv.Get("/movements/:id", readers, inventoryHandler.GetMovement)

	// Products
	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC, deps.ImportUC)
	products.Post("/", admins, productHandler.Create)
	products.Post("/import", admins, productHandler.Import)
	products.Get("/", readers, productHandler.List)
	products.Get("/:id", readers, productHandler.GetByID)
	products.Get("/:id/stock", readers, inventoryHandler.GetProductStock)
	products.Put("/:id", admins, productHandler.Update)
	products.Delete("/:id", admins, productHandler.Delete)

	// Locations
	locations := protected.Group("/locations")
	locationHandler := NewLocationHandler(deps.LocationUC)
	locations.Post("/", admins, locationHandler.Create)
	locations.Get("/", readers, locationHandler.List)
	locations.Get("/:id", readers, locationHandler.GetByID)
	locations.Put("/:id", admins, locationHandler.Update)
	locations.Delete("/:id", admins, locationHandler.Delete)

	// Warehouses (agrupan ubicaciones)
	warehouses := protected.Group("/warehouses")
	warehouseHandler := NewWarehouseHandler(deps.WarehouseUC)
	warehouses.Post("/", admins, warehouseHandler.Create)
	warehouses.Get("/", readers, warehouseHandler.List)
	warehouses.Get("/:id", readers, warehouseHandler.GetByID)
	warehouses.Get("/:id/locations", readers, warehouseHandler.ListLocations)
	warehouses.Put("/:id", admins, warehouseHandler.Update)
	warehouses.Delete("/:id", admins, warehouseHandler.Delete)

	// Dashboard y auditoría
	dashboardHandler := NewDashboardHandler(deps.DashboardUC, deps.StockStateUC, deps.AuditUC)
	protected.Get("/dashboard", readers, dashboardHandler.GetDashboard)
	protected.Get("/debug/state", admins, dashboardHandler.GetStockState)
	protected.Get("/audit", RequireRole(RoleAdmin, RoleAuditor), dashboardHandler.ListAudit)
}

func healthHandler(appName string, checks map[string]HealthCheck) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
		defer cancel()

		status := "ok"
		results := fiber.Map{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status = "degraded"
				results[name] = err.Error()
				continue
			}
			results[name] = "ok"
		}
		code := fiber.StatusOK
		if status != "ok" {
			code = fiber.StatusServiceUnavailable
		}
		return c.Status(code).JSON(fiber.Map{"status": status, "service": appName, "checks": results})
	}
}

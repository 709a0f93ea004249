package http

import (
	"github.com/gofiber/fiber/v2"

	appanalytics "github.com/jhoicas/inventario-ledger/internal/application/analytics"
	"github.com/jhoicas/inventario-ledger/internal/application/usecase"
)

// DashboardHandler maneja los endpoints de reportes: dashboard y bitácora de auditoría.
type DashboardHandler struct {
	uc      *appanalytics.DashboardUseCase
	stateUC *appanalytics.StockStateUseCase
	auditUC *usecase.AuditUseCase
}

// NewDashboardHandler construye el handler.
func NewDashboardHandler(uc *appanalytics.DashboardUseCase, stateUC *appanalytics.StockStateUseCase, auditUC *usecase.AuditUseCase) *DashboardHandler {
	return &DashboardHandler{uc: uc, stateUC: stateUC, auditUC: auditUC}
}

// GetDashboard devuelve el resumen operativo del inventario.
// GET /api/dashboard
//
// Respuesta: DashboardDTO (total_products, total_stock, low_stock_items,
// recent_movements[10]).
func (h *DashboardHandler) GetDashboard(c *fiber.Ctx) error {
	out, err := h.uc.GetDashboard(c.Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetStockState vuelca el stock por producto y por ubicación (diagnóstico).
// GET /api/debug/state
func (h *DashboardHandler) GetStockState(c *fiber.Ctx) error {
	out, err := h.stateUC.GetStockState(c.Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ListAudit devuelve la bitácora de una entidad, de la más reciente a la más antigua.
// GET /api/audit?entity_type=Product&entity_id=...&limit=50
func (h *DashboardHandler) ListAudit(c *fiber.Ctx) error {
	items, err := h.auditUC.ListByEntity(c.Context(), c.Query("entity_type"), c.Query("entity_id"), c.QueryInt("limit", 0))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"items": items})
}

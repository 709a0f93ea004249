package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/inventario-ledger/pkg/validator"
)

// InventoryHandler maneja las peticiones HTTP de movimientos y consultas del ledger (protegido).
type InventoryHandler struct {
	engine *inventory.MovementEngine
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(engine *inventory.MovementEngine) *InventoryHandler {
	return &InventoryHandler{engine: engine}
}

// Receipts godoc
// @Summary      Registrar recepción (entrada a una ubicación)
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string  false  "Clave de idempotencia"
// @Param        body  body  dto.RegisterMovementRequest  true  "lines: product_id, quantity, to_location_id"
// @Success      201   {object}  map[string][]dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/receipts [post]
func (h *InventoryHandler) Receipts(c *fiber.Ctx) error {
	return h.register(c, entity.MovementTypeReceipt)
}

// Deliveries godoc
// @Summary      Registrar despacho (salida desde una ubicación)
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string  false  "Clave de idempotencia"
// @Param        body  body  dto.RegisterMovementRequest  true  "lines: product_id, quantity, from_location_id"
// @Success      201   {object}  map[string][]dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse  "stock insuficiente o producto inactivo"
// @Router       /api/inventory/deliveries [post]
func (h *InventoryHandler) Deliveries(c *fiber.Ctx) error {
	return h.register(c, entity.MovementTypeDelivery)
}

// Transfers godoc
// @Summary      Registrar traslado entre ubicaciones
// @Description  Mueve cantidad de from_location_id a to_location_id; el total del producto no cambia.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string  false  "Clave de idempotencia"
// @Param        body  body  dto.RegisterMovementRequest  true  "lines: product_id, quantity, from_location_id, to_location_id"
// @Success      201   {object}  map[string][]dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse  "origen igual a destino o cantidad no positiva"
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse  "stock insuficiente en el origen"
// @Router       /api/inventory/transfers [post]
func (h *InventoryHandler) Transfers(c *fiber.Ctx) error {
	return h.register(c, entity.MovementTypeTransfer)
}

// Adjustments godoc
// @Summary      Registrar ajuste de inventario
// @Description  Cantidad con signo sobre to_location_id: positiva suma, negativa resta. Cero no es válido.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string  false  "Clave de idempotencia"
// @Param        body  body  dto.RegisterMovementRequest  true  "lines: product_id, quantity (con signo), to_location_id"
// @Success      201   {object}  map[string][]dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse  "el ajuste dejaría stock negativo"
// @Router       /api/inventory/adjustments [post]
func (h *InventoryHandler) Adjustments(c *fiber.Ctx) error {
	return h.register(c, entity.MovementTypeAdjustment)
}

func (h *InventoryHandler) register(c *fiber.Ctx, t entity.MovementType) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	var in dto.RegisterMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if fields := validator.ValidateStruct(in); fields != nil {
		return invalidFields(c, fields)
	}

	raws := make([]inventory.RawLine, 0, len(in.Lines))
	for _, l := range in.Lines {
		raws = append(raws, inventory.RawLine{
			ProductID:      l.ProductID,
			Quantity:       l.Quantity,
			FromLocationID: l.FromLocationID,
			ToLocationID:   l.ToLocationID,
		})
	}
	lines, err := inventory.ParseLines(t, raws)
	if err != nil {
		return writeError(c, err)
	}

	created, err := h.engine.ProcessMovement(c.Context(), inventory.ProcessInput{
		Type:        t,
		Lines:       lines,
		ActorID:     userID,
		ReferenceID: in.ReferenceID,
		Note:        in.Note,
	})
	if err != nil {
		return writeError(c, err)
	}

	items := make([]dto.MovementResponse, 0, len(created))
	for i := range created {
		items = append(items, dto.ToMovementResponse(&created[i]))
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"items": items})
}

// ListMovements godoc
// @Summary      Listar movimientos del ledger
// @Description  Del más reciente al más antiguo. location_id coincide con origen o destino.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        type         query  string  false  "receipt | delivery | transfer | adjustment"
// @Param        product_id   query  string  false  "ID del producto"
// @Param        location_id  query  string  false  "ID de la ubicación"
// @Param        status       query  string  false  "completed"
// @Param        limit        query  int     false  "Máximo 100 (default 20)"
// @Success      200  {object}  dto.MovementListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	filter := repository.MovementFilter{
		Type:       entity.MovementType(c.Query("type")),
		ProductID:  c.Query("product_id"),
		LocationID: c.Query("location_id"),
		Status:     entity.MovementStatus(c.Query("status")),
	}
	limit := c.QueryInt("limit", 0)
	list, err := h.engine.ListMovements(c.Context(), filter, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.MovementListResponse{
		Items: dto.ToMovementResponses(list),
		Limit: dto.NormalizeLimit(limit),
	})
}

// GetMovement devuelve una entrada del ledger por ID.
func (h *InventoryHandler) GetMovement(c *fiber.Ctx) error {
	m, err := h.engine.GetMovement(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToMovementResponse(m))
}

// GetProductStock godoc
// @Summary      Stock agregado de un producto
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {object}  dto.AggregateStockResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id}/stock [get]
func (h *InventoryHandler) GetProductStock(c *fiber.Ctx) error {
	out, err := h.engine.GetAggregateStock(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// WarehouseUseCase casos de uso CRUD para bodegas. Las bodegas viven en el directorio de
// ubicaciones, por eso usan el mismo repositorio.
type WarehouseUseCase struct {
	repo     repository.LocationRepository
	txRunner inventory.TxRunner
}

// NewWarehouseUseCase construye el caso de uso.
func NewWarehouseUseCase(repo repository.LocationRepository, txRunner inventory.TxRunner) *WarehouseUseCase {
	return &WarehouseUseCase{repo: repo, txRunner: txRunner}
}

// Create crea una bodega activa con código único.
func (uc *WarehouseUseCase) Create(ctx context.Context, actorID string, in dto.CreateWarehouseRequest) (*dto.WarehouseResponse, error) {
	code := normalizeCode(in.Code)
	if code == "" {
		return nil, fmt.Errorf("%w: code vacío", domain.ErrInvalidInput)
	}
	existing, err := uc.repo.FindWarehouseByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: bodega %s", domain.ErrDuplicate, code)
	}

	now := time.Now().UTC()
	warehouse := &entity.Warehouse{
		ID:        uuid.New().String(),
		Code:      code,
		Name:      strings.TrimSpace(in.Name),
		Address:   strings.TrimSpace(in.Address),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err = uc.txRunner.Run(ctx, func(_ repository.ProductRepository, locations repository.LocationRepository, _ repository.MovementRepository, audit repository.AuditRepository) error {
		if err := locations.CreateWarehouse(ctx, warehouse); err != nil {
			return err
		}
		return audit.Append(ctx, catalogAudit(actorID, entity.AuditActionCreate, entity.AuditEntityWarehouse, warehouse.ID, toWarehouseResponse(warehouse)))
	})
	if err != nil {
		return nil, err
	}
	return toWarehouseResponse(warehouse), nil
}

// GetByID obtiene una bodega por ID.
func (uc *WarehouseUseCase) GetByID(ctx context.Context, id string) (*dto.WarehouseResponse, error) {
	warehouse, err := uc.repo.FindWarehouseByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if warehouse == nil {
		return nil, nil
	}
	return toWarehouseResponse(warehouse), nil
}

// Update actualiza nombre, dirección o reactiva la bodega.
func (uc *WarehouseUseCase) Update(ctx context.Context, actorID, id string, in dto.UpdateWarehouseRequest) (*dto.WarehouseResponse, error) {
	warehouse, err := uc.repo.FindWarehouseByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if warehouse == nil {
		return nil, nil
	}
	if in.Name != nil {
		warehouse.Name = strings.TrimSpace(*in.Name)
	}
	if in.Address != nil {
		warehouse.Address = strings.TrimSpace(*in.Address)
	}
	if in.IsActive != nil {
		warehouse.IsActive = *in.IsActive
	}
	warehouse.UpdatedAt = time.Now().UTC()

	err = uc.txRunner.Run(ctx, func(_ repository.ProductRepository, locations repository.LocationRepository, _ repository.MovementRepository, audit repository.AuditRepository) error {
		if err := locations.UpdateWarehouse(ctx, warehouse); err != nil {
			return err
		}
		return audit.Append(ctx, catalogAudit(actorID, entity.AuditActionUpdate, entity.AuditEntityWarehouse, warehouse.ID, in))
	})
	if err != nil {
		return nil, err
	}
	return toWarehouseResponse(warehouse), nil
}

// List lista bodegas por código.
func (uc *WarehouseUseCase) List(ctx context.Context, activeOnly bool) (*dto.WarehouseListResponse, error) {
	list, err := uc.repo.ListWarehouses(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	items := make([]dto.WarehouseResponse, 0, len(list))
	for _, w := range list {
		items = append(items, *toWarehouseResponse(w))
	}
	return &dto.WarehouseListResponse{Items: items}, nil
}

// ListLocations lista las ubicaciones de la bodega. domain.ErrNotFound si la bodega no existe.
func (uc *WarehouseUseCase) ListLocations(ctx context.Context, id string) (*dto.LocationListResponse, error) {
	warehouse, err := uc.repo.FindWarehouseByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if warehouse == nil {
		return nil, fmt.Errorf("%w: bodega %s", domain.ErrNotFound, id)
	}
	list, err := uc.repo.ListByWarehouse(ctx, id)
	if err != nil {
		return nil, err
	}
	items := make([]dto.LocationResponse, 0, len(list))
	for _, l := range list {
		items = append(items, *toLocationResponse(l))
	}
	return &dto.LocationListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: len(items), Total: len(items)},
	}, nil
}

// Delete desactiva la bodega (borrado lógico). Sus ubicaciones y su stock no cambian.
func (uc *WarehouseUseCase) Delete(ctx context.Context, actorID, id string) error {
	return uc.txRunner.Run(ctx, func(_ repository.ProductRepository, locations repository.LocationRepository, _ repository.MovementRepository, audit repository.AuditRepository) error {
		warehouse, err := locations.FindWarehouseByID(ctx, id)
		if err != nil {
			return err
		}
		if warehouse == nil {
			return fmt.Errorf("%w: bodega %s", domain.ErrNotFound, id)
		}
		if !warehouse.IsActive {
			return nil
		}
		warehouse.IsActive = false
		warehouse.UpdatedAt = time.Now().UTC()
		if err := locations.UpdateWarehouse(ctx, warehouse); err != nil {
			return err
		}
		return audit.Append(ctx, catalogAudit(actorID, entity.AuditActionDelete, entity.AuditEntityWarehouse, id, map[string]any{"is_active": false}))
	})
}

func toWarehouseResponse(w *entity.Warehouse) *dto.WarehouseResponse {
	if w == nil {
		return nil
	}
	return &dto.WarehouseResponse{
		ID:        w.ID,
		Code:      w.Code,
		Name:      w.Name,
		Address:   w.Address,
		IsActive:  w.IsActive,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
}

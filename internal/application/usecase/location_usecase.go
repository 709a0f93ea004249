package usecase

import (
	"context"
	"encoding/json"
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

// LocationUseCase casos de uso CRUD para el directorio de ubicaciones. Cada mutación deja una
// entrada de auditoría en la misma transacción.
type LocationUseCase struct {
	repo     repository.LocationRepository
	txRunner inventory.TxRunner
}

// NewLocationUseCase construye el caso de uso.
func NewLocationUseCase(repo repository.LocationRepository, txRunner inventory.TxRunner) *LocationUseCase {
	return &LocationUseCase{repo: repo, txRunner: txRunner}
}

// Create crea una ubicación. El código se normaliza a mayúsculas y debe ser único. Si trae
// warehouse_id la bodega debe existir y estar activa.
func (uc *LocationUseCase) Create(ctx context.Context, actorID string, in dto.CreateLocationRequest) (*dto.LocationResponse, error) {
	code := normalizeCode(in.Code)
	if code == "" {
		return nil, fmt.Errorf("%w: code vacío", domain.ErrInvalidInput)
	}
	existing, err := uc.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: ubicación %s", domain.ErrDuplicate, code)
	}

	now := time.Now().UTC()
	location := &entity.Location{
		ID:          uuid.New().String(),
		Code:        code,
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		WarehouseID: strings.TrimSpace(in.WarehouseID),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err = uc.txRunner.Run(ctx, func(_ repository.ProductRepository, locations repository.LocationRepository, _ repository.MovementRepository, audit repository.AuditRepository) error {
		if err := checkWarehouseActive(ctx, locations, location.WarehouseID); err != nil {
			return err
		}
		if err := locations.Create(ctx, location); err != nil {
			return err
		}
		return audit.Append(ctx, catalogAudit(actorID, entity.AuditActionCreate, entity.AuditEntityLocation, location.ID, toLocationResponse(location)))
	})
	if err != nil {
		return nil, err
	}
	return toLocationResponse(location), nil
}

// GetByID obtiene una ubicación por ID.
func (uc *LocationUseCase) GetByID(ctx context.Context, id string) (*dto.LocationResponse, error) {
	location, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if location == nil {
		return nil, nil
	}
	return toLocationResponse(location), nil
}

// Update actualiza nombre, descripción y bodega.
func (uc *LocationUseCase) Update(ctx context.Context, actorID, id string, in dto.UpdateLocationRequest) (*dto.LocationResponse, error) {
	location, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if location == nil {
		return nil, nil
	}
	if in.Name != nil {
		location.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		location.Description = strings.TrimSpace(*in.Description)
	}
	warehouseChanged := in.WarehouseID != nil && strings.TrimSpace(*in.WarehouseID) != location.WarehouseID
	if in.WarehouseID != nil {
		location.WarehouseID = strings.TrimSpace(*in.WarehouseID)
	}
	location.UpdatedAt = time.Now().UTC()

	err = uc.txRunner.Run(ctx, func(_ repository.ProductRepository, locations repository.LocationRepository, _ repository.MovementRepository, audit repository.AuditRepository) error {
		if warehouseChanged {
			if err := checkWarehouseActive(ctx, locations, location.WarehouseID); err != nil {
				return err
			}
		}
		if err := locations.Update(ctx, location); err != nil {
			return err
		}
		return audit.Append(ctx, catalogAudit(actorID, entity.AuditActionUpdate, entity.AuditEntityLocation, location.ID, in))
	})
	if err != nil {
		return nil, err
	}
	return toLocationResponse(location), nil
}

// List lista ubicaciones ordenadas por código.
func (uc *LocationUseCase) List(ctx context.Context, page dto.PageRequest) (*dto.LocationListResponse, error) {
	page.DefaultPage()
	list, err := uc.repo.List(ctx, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.LocationResponse, 0, len(list))
	for _, l := range list {
		items = append(items, *toLocationResponse(l))
	}
	return &dto.LocationListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}, nil
}

// Delete elimina una ubicación. Falla con domain.ErrConflict si tiene stock o movimientos.
func (uc *LocationUseCase) Delete(ctx context.Context, actorID, id string) error {
	return uc.txRunner.Run(ctx, func(_ repository.ProductRepository, locations repository.LocationRepository, _ repository.MovementRepository, audit repository.AuditRepository) error {
		location, err := locations.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if location == nil {
			return fmt.Errorf("%w: ubicación %s", domain.ErrNotFound, id)
		}
		if err := locations.Delete(ctx, id); err != nil {
			return err
		}
		return audit.Append(ctx, catalogAudit(actorID, entity.AuditActionDelete, entity.AuditEntityLocation, id, toLocationResponse(location)))
	})
}

func toLocationResponse(l *entity.Location) *dto.LocationResponse {
	if l == nil {
		return nil
	}
	return &dto.LocationResponse{
		ID:          l.ID,
		Code:        l.Code,
		Name:        l.Name,
		Description: l.Description,
		WarehouseID: l.WarehouseID,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
}

// checkWarehouseActive exige que la bodega exista y esté activa. "" no tiene bodega.
func checkWarehouseActive(ctx context.Context, locations repository.LocationRepository, warehouseID string) error {
	if warehouseID == "" {
		return nil
	}
	warehouse, err := locations.FindWarehouseByID(ctx, warehouseID)
	if err != nil {
		return err
	}
	if warehouse == nil {
		return fmt.Errorf("%w: bodega %s", domain.ErrNotFound, warehouseID)
	}
	if !warehouse.IsActive {
		return fmt.Errorf("%w: la bodega %s está inactiva", domain.ErrConflict, warehouse.Code)
	}
	return nil
}

// catalogAudit arma la entrada de auditoría de una mutación del catálogo.
func catalogAudit(actorID, action, entityType, entityID string, payload any) *entity.AuditEntry {
	raw, err := json.Marshal(payload)
	if err != nil {
		raw = []byte("null")
	}
	return &entity.AuditEntry{
		ID:         uuid.New().String(),
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Payload:    raw,
		CreatedAt:  time.Now().UTC(),
	}
}

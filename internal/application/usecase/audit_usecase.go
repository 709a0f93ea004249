package usecase

import (
	"context"
	"fmt"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// AuditUseCase consulta de la bitácora de auditoría (solo lectura).
type AuditUseCase struct {
	repo repository.AuditRepository
}

// NewAuditUseCase construye el caso de uso.
func NewAuditUseCase(repo repository.AuditRepository) *AuditUseCase {
	return &AuditUseCase{repo: repo}
}

// ListByEntity devuelve las entradas de una entidad, de la más reciente a la más antigua.
// entityID vacío lista todas las entradas del tipo.
func (uc *AuditUseCase) ListByEntity(ctx context.Context, entityType, entityID string, limit int) ([]dto.AuditEntryResponse, error) {
	switch entityType {
	case entity.AuditEntityMovement, entity.AuditEntityProduct, entity.AuditEntityLocation:
	default:
		return nil, fmt.Errorf("%w: entity_type %q", domain.ErrInvalidInput, entityType)
	}
	list, err := uc.repo.ListByEntity(ctx, entityType, entityID, dto.NormalizeLimit(limit))
	if err != nil {
		return nil, err
	}
	out := make([]dto.AuditEntryResponse, 0, len(list))
	for _, e := range list {
		out = append(out, dto.AuditEntryResponse{
			ID:         e.ID,
			ActorID:    e.ActorID,
			Action:     e.Action,
			EntityType: e.EntityType,
			EntityID:   e.EntityID,
			Payload:    e.Payload,
			CreatedAt:  e.CreatedAt,
		})
	}
	return out, nil
}

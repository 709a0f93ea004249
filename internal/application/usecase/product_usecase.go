package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// ProductUseCase casos de uso del catálogo de productos. Cantidades y versión se manejan solo
// vía movimientos.
type ProductUseCase struct {
	repo     repository.ProductRepository
	txRunner inventory.TxRunner
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(repo repository.ProductRepository, txRunner inventory.TxRunner) *ProductUseCase {
	return &ProductUseCase{repo: repo, txRunner: txRunner}
}

// Create crea un producto activo, sin stock y en versión 0. Sin categoría queda como finished_goods.
func (uc *ProductUseCase) Create(ctx context.Context, actorID string, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	sku := normalizeCode(in.SKU)
	if sku == "" {
		return nil, fmt.Errorf("%w: sku vacío", domain.ErrInvalidInput)
	}
	category, err := productCategory(in.Category)
	if err != nil {
		return nil, err
	}
	if in.ReorderLevel.IsNegative() {
		return nil, fmt.Errorf("%w: reorder_level negativo", domain.ErrInvalidInput)
	}
	existing, err := uc.repo.FindBySKU(ctx, sku)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: sku %s", domain.ErrDuplicate, sku)
	}

	now := time.Now().UTC()
	product := &entity.Product{
		ID:                 uuid.New().String(),
		SKU:                sku,
		Name:               strings.TrimSpace(in.Name),
		Category:           category,
		UOM:                strings.TrimSpace(in.UOM),
		ReorderLevel:       in.ReorderLevel,
		IsActive:           true,
		LocationQuantities: map[string]decimal.Decimal{},
		TotalQuantity:      decimal.Zero,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	err = uc.txRunner.Run(ctx, func(products repository.ProductRepository, _ repository.LocationRepository, _ repository.MovementRepository, audit repository.AuditRepository) error {
		if err := products.Create(ctx, product); err != nil {
			return err
		}
		return audit.Append(ctx, catalogAudit(actorID, entity.AuditActionCreate, entity.AuditEntityProduct, product.ID, toProductResponse(product)))
	})
	if err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// GetByID obtiene un producto por ID (activo o no).
func (uc *ProductUseCase) GetByID(ctx context.Context, id string) (*dto.ProductResponse, error) {
	product, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, nil
	}
	return toProductResponse(product), nil
}

// Update actualiza nombre, categoría, unidad y nivel de reorden. No toca cantidades ni versión.
func (uc *ProductUseCase) Update(ctx context.Context, actorID, id string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	if in.ReorderLevel != nil && in.ReorderLevel.IsNegative() {
		return nil, fmt.Errorf("%w: reorder_level negativo", domain.ErrInvalidInput)
	}
	product, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, nil
	}
	if in.Name != nil {
		product.Name = strings.TrimSpace(*in.Name)
	}
	if in.Category != nil {
		category, err := productCategory(*in.Category)
		if err != nil {
			return nil, err
		}
		product.Category = category
	}
	if in.UOM != nil {
		product.UOM = strings.TrimSpace(*in.UOM)
	}
	if in.ReorderLevel != nil {
		product.ReorderLevel = *in.ReorderLevel
	}
	product.UpdatedAt = time.Now().UTC()

	err = uc.txRunner.Run(ctx, func(products repository.ProductRepository, _ repository.LocationRepository, _ repository.MovementRepository, audit repository.AuditRepository) error {
		if err := products.UpdateDetails(ctx, product); err != nil {
			return err
		}
		return audit.Append(ctx, catalogAudit(actorID, entity.AuditActionUpdate, entity.AuditEntityProduct, product.ID, in))
	})
	if err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// List lista productos con búsqueda opcional por nombre o SKU y filtro por categoría.
func (uc *ProductUseCase) List(ctx context.Context, filter repository.ProductFilter, page dto.PageRequest) (*dto.ProductListResponse, error) {
	page.DefaultPage()
	list, total, err := uc.repo.List(ctx, filter, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		items = append(items, *toProductResponse(p))
	}
	return &dto.ProductListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: total},
	}, nil
}

// Delete desactiva el producto (borrado lógico). Su stock y su historial se conservan.
func (uc *ProductUseCase) Delete(ctx context.Context, actorID, id string) error {
	return uc.txRunner.Run(ctx, func(products repository.ProductRepository, _ repository.LocationRepository, _ repository.MovementRepository, audit repository.AuditRepository) error {
		product, err := products.FindForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if product == nil {
			return fmt.Errorf("%w: producto %s", domain.ErrNotFound, id)
		}
		if !product.IsActive {
			return nil
		}
		product.IsActive = false
		product.UpdatedAt = time.Now().UTC()
		if err := products.UpdateDetails(ctx, product); err != nil {
			return err
		}
		return audit.Append(ctx, catalogAudit(actorID, entity.AuditActionDelete, entity.AuditEntityProduct, id, map[string]any{"is_active": false}))
	})
}

// productCategory normaliza la categoría; vacío equivale a finished_goods.
func productCategory(raw string) (string, error) {
	c := strings.ToLower(strings.TrimSpace(raw))
	if c == "" {
		return entity.ProductCategoryFinishedGoods, nil
	}
	if !entity.IsValidProductCategory(c) {
		return "", fmt.Errorf("%w: categoría %q", domain.ErrInvalidInput, raw)
	}
	return c, nil
}

func toProductResponse(p *entity.Product) *dto.ProductResponse {
	if p == nil {
		return nil
	}
	return &dto.ProductResponse{
		ID:            p.ID,
		SKU:           p.SKU,
		Name:          p.Name,
		Category:      p.Category,
		UOM:           p.UOM,
		ReorderLevel:  p.ReorderLevel,
		IsActive:      p.IsActive,
		TotalQuantity: p.TotalQuantity,
		Version:       p.Version,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

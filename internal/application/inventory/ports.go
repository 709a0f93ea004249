package inventory

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de almacenamiento, pasando repositorios
// atados a esa transacción. Si fn devuelve error nada de lo escrito es visible para otros lectores;
// si devuelve nil, todo se confirma junto.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		productRepo repository.ProductRepository,
		locationRepo repository.LocationRepository,
		movementRepo repository.MovementRepository,
		auditRepo repository.AuditRepository,
	) error) error
}

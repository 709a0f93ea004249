package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias de infraestructura).
var (
	ErrNotFound               = errors.New("recurso no encontrado")
	ErrInvalidInput           = errors.New("entrada inválida")
	ErrDuplicate              = errors.New("recurso duplicado")
	ErrUnauthorized           = errors.New("no autorizado")
	ErrForbidden              = errors.New("acceso denegado")
	ErrConflict               = errors.New("conflicto con el estado actual")
	ErrValidation             = errors.New("movimiento inválido")
	ErrProductNotFound        = errors.New("producto no encontrado")
	ErrLocationNotFound       = errors.New("ubicación no encontrada")
	ErrProductInactive        = errors.New("producto inactivo")
	ErrInsufficientStock      = errors.New("stock insuficiente")
	ErrConcurrentModification = errors.New("modificación concurrente, reintente la operación")
	ErrStorage                = errors.New("error de almacenamiento")
)

// ValidationError describe una solicitud de movimiento mal formada.
// Line es el índice (base 0) de la línea afectada, o -1 si aplica a la solicitud completa.
type ValidationError struct {
	Line   int
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Line < 0 {
		return fmt.Sprintf("%s: %s %s", ErrValidation, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s: línea %d: %s %s", ErrValidation, e.Line, e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation || target == ErrInvalidInput
}

// NewValidationError construye un ValidationError para la línea indicada.
func NewValidationError(line int, field, reason string) *ValidationError {
	return &ValidationError{Line: line, Field: field, Reason: reason}
}

// InsufficientStockError indica que un delta dejaría negativa la cantidad de una ubicación.
type InsufficientStockError struct {
	ProductID  string
	LocationID string
	Requested  decimal.Decimal
	Available  decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("%s: producto %s en ubicación %s (solicitado %s, disponible %s)",
		ErrInsufficientStock, e.ProductID, e.LocationID, e.Requested.String(), e.Available.String())
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// StorageError envuelve una falla del motor de almacenamiento. Un StorageError nunca implica
// que la operación se haya confirmado.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrStorage, e.Op, e.Err)
}

func (e *StorageError) Unwrap() []error {
	return []error{ErrStorage, e.Err}
}

// NewStorageError envuelve err como StorageError; devuelve nil si err es nil.
// Los errores de dominio ya clasificados se devuelven sin envolver.
func NewStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsDomainError(err) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// IsDomainError indica si err pertenece a la taxonomía de errores del ledger.
func IsDomainError(err error) bool {
	for _, target := range []error{
		ErrValidation, ErrProductNotFound, ErrLocationNotFound, ErrProductInactive,
		ErrInsufficientStock, ErrConcurrentModification, ErrStorage,
		ErrNotFound, ErrDuplicate, ErrConflict,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/application/usecase"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/memory"
)

func TestAuditUseCase_ListByEntity(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	locations := usecase.NewLocationUseCase(store.Locations(), store)
	audit := usecase.NewAuditUseCase(store.Audit())

	created, err := locations.Create(ctx, "u1", dto.CreateLocationRequest{Code: "X", Name: "X"})
	require.NoError(t, err)
	_, err = locations.Update(ctx, "u1", created.ID, dto.UpdateLocationRequest{Name: strPtr("Y")})
	require.NoError(t, err)

	list, err := audit.ListByEntity(ctx, entity.AuditEntityLocation, created.ID, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, entity.AuditActionUpdate, list[0].Action)
	assert.Contains(t, string(list[1].Payload), `"code":"X"`)

	_, err = audit.ListByEntity(ctx, "Invoice", "", 0)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

package usecase_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/application/usecase"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/memory"
)

func TestParseProductCSV_EncabezadoYSeparador(t *testing.T) {
	in := "sku;name;category;uom;reorder_level;location_code;qty\n" +
		"A-1;Tornillo;raw_material;pcs;5;WH-A;10\n" +
		";Sin sku;;pcs;;;\n" +
		"B-1;Perno;;kg;x;;\n" +
		"C-1;Tuerca;;pcs;;WH-A;-3\n"
	rows, err := usecase.ParseProductCSV(strings.NewReader(in), "utf8")
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(t, "A-1", rows[0].SKU)
	assert.Equal(t, "WH-A", rows[0].LocationCode)
	assert.Equal(t, "10", rows[0].Quantity.String())
	assert.Equal(t, "5", rows[0].ReorderLevel.String())
	assert.Empty(t, rows[0].Invalid)
	assert.Equal(t, 2, rows[0].Line)

	assert.NotEmpty(t, rows[1].Invalid)
	assert.Contains(t, rows[2].Invalid, "reorder_level")
	assert.Contains(t, rows[3].Invalid, "qty")

	// Coma como separador y columnas en otro orden.
	rows, err = usecase.ParseProductCSV(strings.NewReader("name,uom,sku\nArandela,pcs,D-1\n"), "")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "D-1", rows[0].SKU)
	assert.Equal(t, "Arandela", rows[0].Name)
}

func TestParseProductCSV_Latin1YColumnasFaltantes(t *testing.T) {
	encoded, err := charmap.ISO8859_1.NewEncoder().String("sku;name;uom\nE-1;Válvula de presión;pcs\n")
	require.NoError(t, err)
	rows, err := usecase.ParseProductCSV(bytes.NewReader([]byte(encoded)), "latin1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Válvula de presión", rows[0].Name)

	_, err = usecase.ParseProductCSV(strings.NewReader("sku;name\nA;B\n"), "utf8")
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	_, err = usecase.ParseProductCSV(strings.NewReader(""), "ebcdic")
	assert.Error(t, err)
}

func TestProductImportUseCase_StockInicialPorRecepcion(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	engine := inventory.NewMovementEngine(store, store.Products(), store.Locations(), store.Movements(), nil, nil)
	products := usecase.NewProductUseCase(store.Products(), store)
	locations := usecase.NewLocationUseCase(store.Locations(), store)
	importer := usecase.NewProductImportUseCase(products, store.Locations(), engine)

	wh, err := locations.Create(ctx, "u1", dto.CreateLocationRequest{Code: "WH-A", Name: "A"})
	require.NoError(t, err)
	_, err = products.Create(ctx, "u1", dto.CreateProductRequest{SKU: "OLD", Name: "Existente", UOM: "pcs"})
	require.NoError(t, err)

	in := "sku;name;category;uom;reorder_level;location_code;qty\n" +
		"new-1;Tornillo;raw_material;pcs;5;wh-a;10\n" +
		"OLD;Existente;;pcs;;WH-A;99\n" +
		"new-2;Sin ubicación;;pcs;;WH-X;4\n" +
		"new-3;Sin stock;;kg;;;\n" +
		"new-4;Mala categoría;gift;kg;;;\n" +
		";;;pcs;;;\n"
	rows, err := usecase.ParseProductCSV(strings.NewReader(in), "utf8")
	require.NoError(t, err)

	res, err := importer.Import(ctx, "importer", rows)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Created)
	assert.Equal(t, 1, res.SkippedExisting)
	assert.Equal(t, 2, res.SkippedInvalid)
	assert.Equal(t, 1, res.Received)
	require.Len(t, res.Issues, 3)

	p, err := store.Products().FindBySKU(ctx, "NEW-1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, entity.ProductCategoryRawMaterial, p.Category)
	assert.Equal(t, "10", p.QuantityAt(wh.ID).String())
	assert.Equal(t, int64(1), p.Version)

	// El existente no recibe stock: reimportar no duplica existencias.
	old, err := store.Products().FindBySKU(ctx, "OLD")
	require.NoError(t, err)
	assert.True(t, old.TotalQuantity.IsZero())

	// El stock inicial quedó en el ledger como recepción.
	movs, err := store.Movements().List(ctx, repository.MovementFilter{ProductID: p.ID}, 0)
	require.NoError(t, err)
	require.Len(t, movs, 1)
	assert.Equal(t, entity.MovementTypeReceipt, movs[0].Type)
	assert.Equal(t, usecase.ImportReferenceID, movs[0].ReferenceID)
	assert.Equal(t, "importer", movs[0].ActorID)

	again, err := importer.Import(ctx, "importer", rows)
	require.NoError(t, err)
	assert.Zero(t, again.Created)
	assert.Zero(t, again.Received)
	assert.Equal(t, 4, again.SkippedExisting)
}

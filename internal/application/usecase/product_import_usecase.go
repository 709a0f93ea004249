package usecase

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// ImportReferenceID referencia con la que quedan en el ledger las recepciones de stock inicial.
const ImportReferenceID = "csv-import"

// ProductImportRow fila ya interpretada del CSV de productos.
type ProductImportRow struct {
	Line         int // línea del archivo, para reportar errores
	SKU          string
	Name         string
	Category     string
	UOM          string
	ReorderLevel decimal.Decimal
	LocationCode string
	Quantity     decimal.Decimal
	// Invalid motivo por el que la fila no se importa ("" = válida).
	Invalid string
}

// Columnas reconocidas en el encabezado y sus alias.
var importColumns = map[string]string{
	"sku":           "sku",
	"name":          "name",
	"nombre":        "name",
	"category":      "category",
	"categoria":     "category",
	"uom":           "uom",
	"reorder_level": "reorder_level",
	"reorderlevel":  "reorder_level",
	"location_code": "location_code",
	"locationcode":  "location_code",
	"qty":           "qty",
	"quantity":      "qty",
}

// ParseProductCSV lee el CSV de productos. La primera fila es el encabezado con los nombres de
// columna (sku, name, category, uom, reorder_level, location_code, qty); el separador es ';' o ','
// según aparezca en el encabezado. charset: utf8 | latin1.
func ParseProductCSV(r io.Reader, charset string) ([]ProductImportRow, error) {
	switch strings.ToLower(charset) {
	case "latin1", "iso-8859-1", "iso8859-1":
		r = transform.NewReader(r, charmap.ISO8859_1.NewDecoder())
	case "", "utf8", "utf-8":
	default:
		return nil, fmt.Errorf("%w: charset no soportado: %s", domain.ErrInvalidInput, charset)
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	raw = bytes.TrimPrefix(raw, []byte("\uFEFF"))

	cr := csv.NewReader(bytes.NewReader(raw))
	cr.Comma = ','
	if header, _, _ := bytes.Cut(raw, []byte("\n")); bytes.Count(header, []byte(";")) > bytes.Count(header, []byte(",")) {
		cr.Comma = ';'
	}
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: encabezado: %v", domain.ErrInvalidInput, err)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		if col, ok := importColumns[strings.ToLower(strings.TrimSpace(h))]; ok {
			index[col] = i
		}
	}
	for _, required := range []string{"sku", "name", "uom"} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("%w: falta la columna %s", domain.ErrInvalidInput, required)
		}
	}

	var out []ProductImportRow
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}
		line, _ := cr.FieldPos(0)
		get := func(col string) string {
			i, ok := index[col]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}
		row := ProductImportRow{
			Line:         line,
			SKU:          get("sku"),
			Name:         get("name"),
			Category:     get("category"),
			UOM:          get("uom"),
			LocationCode: get("location_code"),
		}
		if row.SKU == "" && row.Name == "" && row.UOM == "" {
			continue
		}
		if row.SKU == "" || row.Name == "" || row.UOM == "" {
			row.Invalid = "sku, name y uom son obligatorios"
		}
		if v := get("reorder_level"); v != "" && row.Invalid == "" {
			if row.ReorderLevel, err = decimal.NewFromString(v); err != nil {
				row.Invalid = "reorder_level no es numérico"
			}
		}
		if v := get("qty"); v != "" && row.Invalid == "" {
			if row.Quantity, err = decimal.NewFromString(v); err != nil {
				row.Invalid = "qty no es numérico"
			} else if row.Quantity.IsNegative() {
				row.Invalid = "qty negativo"
			}
		}
		out = append(out, row)
	}
	return out, nil
}

// ProductImportUseCase da de alta productos en lote. El stock inicial de cada producto nuevo
// entra como una recepción del motor de movimientos, así queda en el ledger y en la auditoría.
type ProductImportUseCase struct {
	products  *ProductUseCase
	locations repository.LocationRepository
	engine    *inventory.MovementEngine
}

// NewProductImportUseCase construye el caso de uso.
func NewProductImportUseCase(products *ProductUseCase, locations repository.LocationRepository, engine *inventory.MovementEngine) *ProductImportUseCase {
	return &ProductImportUseCase{products: products, locations: locations, engine: engine}
}

// Import procesa las filas en orden. Un SKU existente se omite sin tocar su stock, por lo que
// reimportar el mismo archivo no duplica existencias. Los errores por fila se reportan en
// Issues; solo una falla de almacenamiento aborta la importación.
func (uc *ProductImportUseCase) Import(ctx context.Context, actorID string, rows []ProductImportRow) (*dto.ProductImportResult, error) {
	res := &dto.ProductImportResult{}
	locationIDs := map[string]string{}
	for _, row := range rows {
		if row.Invalid != "" {
			res.SkippedInvalid++
			res.Issues = append(res.Issues, dto.ProductImportIssue{Row: row.Line, SKU: row.SKU, Message: row.Invalid})
			continue
		}

		created, err := uc.products.Create(ctx, actorID, dto.CreateProductRequest{
			SKU:          row.SKU,
			Name:         row.Name,
			Category:     row.Category,
			UOM:          row.UOM,
			ReorderLevel: row.ReorderLevel,
		})
		switch {
		case errors.Is(err, domain.ErrDuplicate):
			res.SkippedExisting++
			continue
		case errors.Is(err, domain.ErrInvalidInput):
			res.SkippedInvalid++
			res.Issues = append(res.Issues, dto.ProductImportIssue{Row: row.Line, SKU: row.SKU, Message: err.Error()})
			continue
		case err != nil:
			return res, err
		}
		res.Created++

		if row.LocationCode == "" || !row.Quantity.IsPositive() {
			continue
		}
		code := normalizeCode(row.LocationCode)
		locationID, ok := locationIDs[code]
		if !ok {
			loc, err := uc.locations.FindByCode(ctx, code)
			if err != nil {
				return res, err
			}
			if loc != nil {
				locationID = loc.ID
			}
			locationIDs[code] = locationID
		}
		if locationID == "" {
			res.Issues = append(res.Issues, dto.ProductImportIssue{Row: row.Line, SKU: created.SKU, Message: "ubicación " + code + " no existe; producto creado sin stock"})
			continue
		}
		_, err = uc.engine.ProcessMovement(ctx, inventory.ProcessInput{
			Type:        entity.MovementTypeReceipt,
			ActorID:     actorID,
			ReferenceID: ImportReferenceID,
			Note:        "stock inicial",
			Lines:       []inventory.Line{inventory.ReceiptLine{ProductID: created.ID, Quantity: row.Quantity, ToLocationID: locationID}},
		})
		if err != nil {
			if errors.Is(err, domain.ErrStorage) {
				return res, err
			}
			res.Issues = append(res.Issues, dto.ProductImportIssue{Row: row.Line, SKU: created.SKU, Message: err.Error()})
			continue
		}
		res.Received++
	}
	return res, nil
}

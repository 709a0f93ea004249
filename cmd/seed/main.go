// seed carga datos maestros desde CSV. Los archivos exportados por los sistemas de bodega
// suelen venir en ISO-8859-1.
//
//	go run ./cmd/seed -file ubicaciones.csv [-charset latin1] [-actor seed]
//	go run ./cmd/seed -kind products -file productos.csv
//
// locations: filas code;name;description; los códigos existentes se omiten.
// products: encabezado sku;name;category;uom;reorder_level;location_code;qty. El stock inicial
// entra como recepción en el ledger; los SKU existentes se omiten.
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/application/usecase"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/inventario-ledger/pkg/config"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

func main() {
	kind := flag.String("kind", "locations", "qué cargar: locations | products")
	path := flag.String("file", "ubicaciones.csv", "ruta del CSV")
	charset := flag.String("charset", "utf8", "codificación del archivo: utf8 | latin1")
	actor := flag.String("actor", "seed", "actor registrado en la auditoría")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	f, err := os.Open(*path)
	if err != nil {
		log.Fatal().Err(err).Str("file", *path).Msg("abrir CSV")
	}
	defer f.Close()

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	switch *kind {
	case "locations":
		seedLocations(ctx, pool, f, *charset, *actor, log)
	case "products":
		seedProducts(ctx, pool, f, *charset, *actor, log)
	default:
		log.Fatal().Str("kind", *kind).Msg("tipo de seed desconocido")
	}
}

func seedProducts(ctx context.Context, pool *pgxpool.Pool, r io.Reader, charset, actor string, log *logger.Logger) {
	rows, err := usecase.ParseProductCSV(r, charset)
	if err != nil {
		log.Fatal().Err(err).Msg("leer CSV")
	}
	txRunner := postgres.NewTxRunner(pool)
	products := postgres.NewProductRepository(pool)
	locations := postgres.NewLocationRepository(pool)
	engine := inventory.NewMovementEngine(txRunner, products, locations, postgres.NewMovementRepository(pool), log, nil)
	importer := usecase.NewProductImportUseCase(usecase.NewProductUseCase(products, txRunner), locations, engine)

	res, err := importer.Import(ctx, actor, rows)
	if err != nil {
		log.Fatal().Err(err).Msg("importar productos")
	}
	for _, issue := range res.Issues {
		log.Warn().Int("fila", issue.Row).Str("sku", issue.SKU).Msg(issue.Message)
	}
	log.Info().
		Int("creados", res.Created).
		Int("existentes", res.SkippedExisting).
		Int("inválidos", res.SkippedInvalid).
		Int("con_stock", res.Received).
		Msg("seed de productos")
}

func seedLocations(ctx context.Context, pool *pgxpool.Pool, r io.Reader, charset, actor string, log *logger.Logger) {
	rows, err := parseLocations(r, charset)
	if err != nil {
		log.Fatal().Err(err).Msg("leer CSV")
	}
	uc := usecase.NewLocationUseCase(postgres.NewLocationRepository(pool), postgres.NewTxRunner(pool))
	created, skipped := 0, 0
	for _, row := range rows {
		if _, err := uc.Create(ctx, actor, row); err != nil {
			if errors.Is(err, domain.ErrDuplicate) {
				skipped++
				continue
			}
			log.Error().Err(err).Str("code", row.Code).Msg("crear ubicación")
			continue
		}
		created++
	}
	log.Info().Int("creadas", created).Int("omitidas", skipped).Int("filas", len(rows)).Msg("seed de ubicaciones")
}

// parseLocations lee filas code;name;description. La primera fila se toma como encabezado si su
// primera columna es "code". Las filas sin código o sin nombre se descartan.
func parseLocations(r io.Reader, charset string) ([]dto.CreateLocationRequest, error) {
	switch strings.ToLower(charset) {
	case "latin1", "iso-8859-1", "iso8859-1":
		r = transform.NewReader(r, charmap.ISO8859_1.NewDecoder())
	case "", "utf8", "utf-8":
	default:
		return nil, fmt.Errorf("charset no soportado: %s", charset)
	}

	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var out []dto.CreateLocationRequest
	for i := 0; ; i++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if i == 0 && len(rec) > 0 && strings.EqualFold(strings.TrimSpace(rec[0]), "code") {
			continue
		}
		if len(rec) < 2 || strings.TrimSpace(rec[0]) == "" || strings.TrimSpace(rec[1]) == "" {
			continue
		}
		row := dto.CreateLocationRequest{Code: strings.TrimSpace(rec[0]), Name: strings.TrimSpace(rec[1])}
		if len(rec) > 2 {
			row.Description = strings.TrimSpace(rec[2])
		}
		out = append(out, row)
	}
	return out, nil
}

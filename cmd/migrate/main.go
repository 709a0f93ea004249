// migrate aplica las migraciones SQL embebidas (goose) sobre la base configurada.
//
// Uso: go run ./cmd/migrate -cmd=up
//
//	go run ./cmd/migrate -cmd=down
//	go run ./cmd/migrate -cmd=up-to -version=1
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jhoicas/inventario-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/inventario-ledger/pkg/config"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

func main() {
	cmd := flag.String("cmd", "up", "comando goose: up|up-to|down|down-to|redo|reset|status|version")
	version := flag.String("version", "", "versión destino para up-to / down-to")
	timeout := flag.Duration("timeout", 5*time.Minute, "tiempo máximo de ejecución")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	var args []string
	switch *cmd {
	case "up-to", "down-to":
		if *version == "" {
			fmt.Fprintf(os.Stderr, "falta -version para %s\n", *cmd)
			os.Exit(1)
		}
		args = append(args, *version)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool, *cmd, args...); err != nil {
		log.Error().Err(err).Str("cmd", *cmd).Msg("migración fallida")
		pool.Close()
		os.Exit(1)
	}
	log.Info().Str("cmd", *cmd).Msg("migración completada")
}

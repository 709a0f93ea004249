// Package redis guarda las respuestas de los endpoints de movimientos por Idempotency-Key.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/jhoicas/inventario-ledger/pkg/config"
)

const idempotencyPrefix = "idem"

// IdempotencyStore store de claves de idempotencia sobre Redis (SET NX con TTL).
type IdempotencyStore struct {
	client    goredis.UniversalClient
	namespace string
}

// NewIdempotencyStore conecta a cfg.URL y verifica la conexión.
func NewIdempotencyStore(ctx context.Context, cfg config.RedisConfig, namespace string) (*IdempotencyStore, error) {
	opts, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewIdempotencyStoreWithClient(client, namespace), nil
}

// NewIdempotencyStoreWithClient usa un cliente ya construido.
func NewIdempotencyStoreWithClient(client goredis.UniversalClient, namespace string) *IdempotencyStore {
	return &IdempotencyStore{client: client, namespace: namespace}
}

// Key arma la clave de Redis para la combinación scope + Idempotency-Key.
func (s *IdempotencyStore) Key(scope, id string) string {
	parts := []string{idempotencyPrefix, scope, id}
	if s.namespace != "" {
		parts = append([]string{s.namespace}, parts...)
	}
	return strings.Join(parts, ":")
}

// Get devuelve el valor guardado; found es false si la clave no existe o expiró.
func (s *IdempotencyStore) Get(ctx context.Context, key string) (value string, found bool, err error) {
	value, err = s.client.Get(ctx, key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get: %w", err)
	}
	return value, true, nil
}

// SetNX guarda value solo si la clave no existe. Devuelve false si otra solicitud ganó.
func (s *IdempotencyStore) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	return ok, nil
}

// Set sobrescribe el valor (respuesta definitiva tras la reserva).
func (s *IdempotencyStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Del libera la clave.
func (s *IdempotencyStore) Del(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Ping verifica la conexión (usado por /health).
func (s *IdempotencyStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close cierra el cliente.
func (s *IdempotencyStore) Close() error {
	return s.client.Close()
}

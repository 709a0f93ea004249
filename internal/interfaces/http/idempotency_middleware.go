package http

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

const (
	headerIdempotencyKey    = "Idempotency-Key"
	headerIdempotentReplay  = "Idempotent-Replay"
	defaultIdempotencyTTL   = 24 * time.Hour
	maxIdempotencyKeyLength = 200
)

// IdempotencyStore contrato del almacén de respuestas. Lo implementa
// internal/infrastructure/redis.IdempotencyStore.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, key string) error
	Key(scope, id string) string
}

const (
	idempotencyPending = "pending"
	idempotencyDone    = "done"
)

type idempotencyRecord struct {
	State       string `json:"state"`
	Status      int    `json:"status,omitempty"`
	Body        string `json:"body,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	RequestHash string `json:"request_hash"`
}

// Idempotency repite la respuesta guardada cuando llega de nuevo la misma Idempotency-Key con el
// mismo cuerpo, sin volver a registrar el movimiento. Sin header la petición pasa tal cual.
//
// La clave se reserva con SETNX (estado pending) antes de ejecutar el handler, así dos peticiones
// simultáneas con la misma clave no registran el movimiento dos veces.
//
//   - 409 IDEMPOTENCY_IN_PROGRESS → otra petición con la misma clave sigue en curso (retryable).
//   - 422 IDEMPOTENCY_KEY_REUSED → misma clave con otro cuerpo.
//   - 503 IDEMPOTENCY_UNAVAILABLE → el almacén no responde; no se procesa para no duplicar.
//
// Solo se guardan respuestas 2xx: ante un rechazo se libera la clave y puede reintentarse.
func Idempotency(store IdempotencyStore, ttl time.Duration, log *logger.Logger) fiber.Handler {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	if log == nil {
		log = logger.Nop()
	}
	return func(c *fiber.Ctx) error {
		if store == nil {
			return c.Next()
		}
		idemKey := strings.TrimSpace(c.Get(headerIdempotencyKey))
		if idemKey == "" {
			return c.Next()
		}
		if len(idemKey) > maxIdempotencyKeyLength {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "Idempotency-Key demasiado larga"})
		}

		ctx := c.Context()
		requestHash := hashBody(c.Body())
		key := store.Key(buildScope(c), idemKey)
		log := log.With("idempotency_key", idemKey)

		stored, found, err := store.Get(ctx, key)
		if err != nil {
			log.Error().Err(err).Msg("consultar idempotencia")
			return idempotencyUnavailable(c)
		}
		if found {
			return replayOrReject(c, stored, requestHash, log)
		}

		pending, _ := json.Marshal(idempotencyRecord{State: idempotencyPending, RequestHash: requestHash})
		claimed, err := store.SetNX(ctx, key, string(pending), ttl)
		if err != nil {
			log.Error().Err(err).Msg("reservar idempotencia")
			return idempotencyUnavailable(c)
		}
		if !claimed {
			// Otra petición ganó la reserva entre Get y SetNX.
			stored, found, err = store.Get(ctx, key)
			if err != nil {
				log.Error().Err(err).Msg("consultar idempotencia")
				return idempotencyUnavailable(c)
			}
			if !found {
				return idempotencyInProgress(c)
			}
			return replayOrReject(c, stored, requestHash, log)
		}

		if err := c.Next(); err != nil {
			release(ctx, store, key, log)
			return err
		}

		status := c.Response().StatusCode()
		if status < 200 || status >= 300 {
			release(ctx, store, key, log)
			return nil
		}
		payload, err := json.Marshal(idempotencyRecord{
			State:       idempotencyDone,
			Status:      status,
			Body:        base64.StdEncoding.EncodeToString(c.Response().Body()),
			ContentType: string(c.Response().Header.ContentType()),
			RequestHash: requestHash,
		})
		if err != nil {
			log.Error().Err(err).Msg("serializar registro de idempotencia")
			return nil
		}
		if err := store.Set(ctx, key, string(payload), ttl); err != nil {
			log.Error().Err(err).Msg("guardar registro de idempotencia")
		}
		return nil
	}
}

func replayOrReject(c *fiber.Ctx, stored, requestHash string, log *logger.Logger) error {
	var record idempotencyRecord
	if err := json.Unmarshal([]byte(stored), &record); err != nil {
		log.Error().Err(err).Msg("decodificar registro de idempotencia")
		return idempotencyUnavailable(c)
	}
	if record.RequestHash != requestHash {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{
			Code:    "IDEMPOTENCY_KEY_REUSED",
			Message: "la Idempotency-Key ya se usó con otro cuerpo",
		})
	}
	if record.State == idempotencyPending {
		return idempotencyInProgress(c)
	}
	return writeStoredResponse(c, record)
}

// release libera la reserva para que el cliente pueda reintentar con la misma clave.
func release(ctx context.Context, store IdempotencyStore, key string, log *logger.Logger) {
	if err := store.Del(ctx, key); err != nil {
		log.Error().Err(err).Msg("liberar idempotencia")
	}
}

func buildScope(c *fiber.Ctx) string {
	return strings.Join([]string{GetUserID(c), c.Method(), c.Path()}, "|")
}

func hashBody(payload []byte) string {
	sum := sha256.Sum256(payload)
	return base64.StdEncoding.EncodeToString(sum[:])
}

func writeStoredResponse(c *fiber.Ctx, record idempotencyRecord) error {
	body, err := base64.StdEncoding.DecodeString(record.Body)
	if err != nil {
		return idempotencyUnavailable(c)
	}
	if record.ContentType != "" {
		c.Set(fiber.HeaderContentType, record.ContentType)
	}
	c.Set(headerIdempotentReplay, "true")
	return c.Status(record.Status).Send(body)
}

func idempotencyInProgress(c *fiber.Ctx) error {
	return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
		Code:      "IDEMPOTENCY_IN_PROGRESS",
		Message:   "hay otra petición en curso con la misma Idempotency-Key",
		Retryable: true,
	})
}

func idempotencyUnavailable(c *fiber.Ctx) error {
	return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
		Code:      "IDEMPOTENCY_UNAVAILABLE",
		Message:   "no se pudo verificar la Idempotency-Key, intente más tarde",
		Retryable: true,
	})
}

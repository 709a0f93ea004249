package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appanalytics "github.com/jhoicas/inventario-ledger/internal/application/analytics"
	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/application/usecase"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/inventario-ledger/internal/interfaces/http"
	"github.com/jhoicas/inventario-ledger/pkg/metrics"
)

// fakeIdempotencyStore almacén en memoria para el middleware de idempotencia.
type fakeIdempotencyStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeIdempotencyStore() *fakeIdempotencyStore {
	return &fakeIdempotencyStore{data: map[string]string{}}
}

func (s *fakeIdempotencyStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *fakeIdempotencyStore) SetNX(_ context.Context, key, value string, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[key]; ok {
		return false, nil
	}
	s.data[key] = value
	return true, nil
}

func (s *fakeIdempotencyStore) Set(_ context.Context, key, value string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

func (s *fakeIdempotencyStore) Del(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func (s *fakeIdempotencyStore) Key(scope, id string) string { return scope + ":" + id }

func (s *fakeIdempotencyStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

// barrierIdempotencyStore retiene las primeras n lecturas hasta que todas llegan, de modo que
// las peticiones concurrentes ven la clave vacía al mismo tiempo.
type barrierIdempotencyStore struct {
	*fakeIdempotencyStore
	mu      sync.Mutex
	pending int
	arrived sync.WaitGroup
}

func newBarrierIdempotencyStore(n int) *barrierIdempotencyStore {
	b := &barrierIdempotencyStore{fakeIdempotencyStore: newFakeIdempotencyStore(), pending: n}
	b.arrived.Add(n)
	return b
}

func (b *barrierIdempotencyStore) Get(ctx context.Context, key string) (string, bool, error) {
	b.mu.Lock()
	wait := b.pending > 0
	if wait {
		b.pending--
	}
	b.mu.Unlock()
	if wait {
		b.arrived.Done()
		b.arrived.Wait()
	}
	return b.fakeIdempotencyStore.Get(ctx, key)
}

type testServer struct {
	app      *fiber.App
	registry *prometheus.Registry
	admin    string
	worker   string
	auditor  string
}

func newTestServer(t *testing.T, idem apphttp.IdempotencyStore) *testServer {
	t.Helper()
	store := memory.NewStore()
	registry := prometheus.NewRegistry()
	engine := inventory.NewMovementEngine(store, store.Products(), store.Locations(), store.Movements(), nil, metrics.NewMovementMetrics(registry))
	productUC := usecase.NewProductUseCase(store.Products(), store)

	app := apphttp.NewApp(apphttp.RouterDeps{
		AppName:      "inventario-ledger-test",
		Engine:       engine,
		ProductUC:    productUC,
		ImportUC:     usecase.NewProductImportUseCase(productUC, store.Locations(), engine),
		LocationUC:   usecase.NewLocationUseCase(store.Locations(), store),
		WarehouseUC:  usecase.NewWarehouseUseCase(store.Locations(), store),
		AuditUC:      usecase.NewAuditUseCase(store.Audit()),
		DashboardUC:  appanalytics.NewDashboardUseCase(store.Products(), store.Movements()),
		StockStateUC: appanalytics.NewStockStateUseCase(store.Products(), store.Locations()),
		JWTSecret:    testJWTSecret,
		Idempotency:  idem,
		Metrics:      registry,
		HealthChecks: map[string]apphttp.HealthCheck{
			"storage": func(context.Context) error { return nil },
		},
	})
	return &testServer{
		app:      app,
		registry: registry,
		admin:    tokenForRole(t, apphttp.RoleAdmin),
		worker:   tokenForRole(t, apphttp.RoleBodeguero),
		auditor:  tokenForRole(t, apphttp.RoleAuditor),
	}
}

// do lanza la petición y decodifica el cuerpo JSON (si lo hay) en un mapa.
func (s *testServer) do(t *testing.T, method, path, token string, body any, headers ...string) (*http.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp, out
}

func (s *testServer) createLocation(t *testing.T, code string) string {
	t.Helper()
	resp, body := s.do(t, http.MethodPost, "/api/locations", s.admin, map[string]any{"code": code, "name": "Bodega " + code})
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	return body["id"].(string)
}

func (s *testServer) createProduct(t *testing.T, sku string) string {
	t.Helper()
	resp, body := s.do(t, http.MethodPost, "/api/products", s.admin, map[string]any{
		"sku": sku, "name": "Producto " + sku, "uom": "kg", "reorder_level": "10",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	return body["id"].(string)
}

func line(productID string, qty any, from, to string) map[string]any {
	l := map[string]any{"product_id": productID, "quantity": qty}
	if from != "" {
		l["from_location_id"] = from
	}
	if to != "" {
		l["to_location_id"] = to
	}
	return l
}

func lines(ls ...map[string]any) map[string]any {
	return map[string]any{"lines": ls}
}

func TestRouter_EscenarioCompleto(t *testing.T) {
	s := newTestServer(t, nil)
	l1 := s.createLocation(t, "wh-a")
	l2 := s.createLocation(t, "wh-b")
	p := s.createProduct(t, "sku-1")

	resp, body := s.do(t, http.MethodPost, "/api/inventory/receipts", s.worker, lines(line(p, 100, "", l1)))
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	items := body["items"].([]any)
	require.Len(t, items, 1)
	mov := items[0].(map[string]any)
	assert.Equal(t, "receipt", mov["type"])
	assert.Equal(t, "completed", mov["status"])
	assert.Equal(t, testUserID, mov["actor_id"])

	resp, body = s.do(t, http.MethodPost, "/api/inventory/transfers", s.worker, lines(line(p, "40", l1, l2)))
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)

	resp, body = s.do(t, http.MethodPost, "/api/inventory/deliveries", s.worker, lines(line(p, 70, l1, "")))
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "INSUFFICIENT_STOCK", body["code"])
	details := body["details"].(map[string]any)
	assert.Equal(t, l1, details["location_id"])
	assert.Equal(t, "60", details["available"])

	resp, body = s.do(t, http.MethodPost, "/api/inventory/adjustments", s.admin, lines(line(p, -5, "", l2)))
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)

	resp, body = s.do(t, http.MethodGet, "/api/products/"+p+"/stock", s.auditor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "95", body["total_quantity"])
	assert.EqualValues(t, 3, body["version"])
	perLocation := body["per_location"].([]any)
	require.Len(t, perLocation, 2)
	assert.Equal(t, "WH-A", perLocation[0].(map[string]any)["code"])
	assert.Equal(t, "60", perLocation[0].(map[string]any)["quantity"])
	assert.Equal(t, "35", perLocation[1].(map[string]any)["quantity"])

	resp, body = s.do(t, http.MethodGet, "/api/inventory/movements?product_id="+p, s.auditor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := body["items"].([]any)
	require.Len(t, list, 3)
	assert.Equal(t, "adjustment", list[0].(map[string]any)["type"])
	assert.Equal(t, "receipt", list[2].(map[string]any)["type"])
	assert.EqualValues(t, 20, body["limit"])

	movID := list[0].(map[string]any)["id"].(string)
	resp, body = s.do(t, http.MethodGet, "/api/inventory/movements/"+movID, s.auditor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "-5", body["quantity"])

	resp, body = s.do(t, http.MethodGet, "/api/dashboard", s.auditor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, body["total_products"])
	assert.Equal(t, "95", body["total_stock"])
	assert.Len(t, body["recent_movements"].([]any), 3)
}

func TestRouter_ValidacionDeLineas(t *testing.T) {
	s := newTestServer(t, nil)
	l1 := s.createLocation(t, "WH-A")
	p := s.createProduct(t, "SKU-1")

	resp, body := s.do(t, http.MethodPost, "/api/inventory/receipts", s.worker, lines(
		line(p, 5, "", l1),
		line(p, 0, "", l1),
	))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", body["code"])
	details := body["details"].(map[string]any)
	assert.EqualValues(t, 1, details["line"])
	assert.Equal(t, "quantity", details["field"])

	resp, body = s.do(t, http.MethodPost, "/api/inventory/transfers", s.worker, lines(line(p, 5, l1, l1)))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", body["code"])

	resp, _ = s.do(t, http.MethodPost, "/api/inventory/receipts", s.worker, lines())
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Nada se registró.
	resp, body = s.do(t, http.MethodGet, "/api/inventory/movements", s.worker, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, body["items"])
}

func TestRouter_ReferenciasInexistentes(t *testing.T) {
	s := newTestServer(t, nil)
	l1 := s.createLocation(t, "WH-A")
	p := s.createProduct(t, "SKU-1")

	resp, body := s.do(t, http.MethodPost, "/api/inventory/receipts", s.worker, lines(line("no-existe", 1, "", l1)))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "PRODUCT_NOT_FOUND", body["code"])

	resp, body = s.do(t, http.MethodPost, "/api/inventory/receipts", s.worker, lines(line(p, 1, "", "no-existe")))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "LOCATION_NOT_FOUND", body["code"])

	resp, body = s.do(t, http.MethodGet, "/api/inventory/movements/no-existe", s.worker, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", body["code"])

	resp, _ = s.do(t, http.MethodGet, "/api/products/no-existe", s.worker, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRouter_ProductoInactivo(t *testing.T) {
	s := newTestServer(t, nil)
	l1 := s.createLocation(t, "WH-A")
	p := s.createProduct(t, "SKU-1")

	resp, _ := s.do(t, http.MethodDelete, "/api/products/"+p, s.admin, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body := s.do(t, http.MethodPost, "/api/inventory/receipts", s.worker, lines(line(p, 1, "", l1)))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "PRODUCT_INACTIVE", body["code"])

	resp, body = s.do(t, http.MethodGet, "/api/products?active=true", s.worker, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, body["items"])
}

func TestRouter_CatalogoYAuditoria(t *testing.T) {
	s := newTestServer(t, nil)
	l1 := s.createLocation(t, "WH-A")
	p := s.createProduct(t, "SKU-1")

	resp, body := s.do(t, http.MethodPost, "/api/locations", s.admin, map[string]any{"code": " wh-a ", "name": "Otra"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "DUPLICATE", body["code"])

	resp, body = s.do(t, http.MethodPut, "/api/products/"+p, s.admin, map[string]any{"name": "Tornillo 3/8"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Tornillo 3/8", body["name"])

	resp, _ = s.do(t, http.MethodPost, "/api/inventory/receipts", s.worker, lines(line(p, 3, "", l1)))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body = s.do(t, http.MethodDelete, "/api/locations/"+l1, s.admin, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "CONFLICT", body["code"])

	resp, body = s.do(t, http.MethodGet, "/api/audit?entity_type=Product&entity_id="+p, s.auditor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	entries := body["items"].([]any)
	require.Len(t, entries, 2)
	assert.Equal(t, "update", entries[0].(map[string]any)["action"])

	resp, _ = s.do(t, http.MethodGet, "/api/audit?entity_type=Invoice", s.auditor, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRouter_Roles(t *testing.T) {
	s := newTestServer(t, nil)
	l1 := s.createLocation(t, "WH-A")
	p := s.createProduct(t, "SKU-1")

	resp, _ := s.do(t, http.MethodPost, "/api/inventory/receipts", s.auditor, lines(line(p, 1, "", l1)))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = s.do(t, http.MethodPost, "/api/products", s.worker, map[string]any{"sku": "X", "name": "X", "uom": "u"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = s.do(t, http.MethodGet, "/api/audit?entity_type=Product", s.worker, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = s.do(t, http.MethodGet, "/api/inventory/movements", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRouter_IdempotencyKey(t *testing.T) {
	s := newTestServer(t, newFakeIdempotencyStore())
	l1 := s.createLocation(t, "WH-A")
	p := s.createProduct(t, "SKU-1")
	req := lines(line(p, 10, "", l1))

	first, firstBody := s.do(t, http.MethodPost, "/api/inventory/receipts", s.worker, req, "Idempotency-Key", "k-1")
	require.Equal(t, http.StatusCreated, first.StatusCode)

	second, secondBody := s.do(t, http.MethodPost, "/api/inventory/receipts", s.worker, req, "Idempotency-Key", "k-1")
	require.Equal(t, http.StatusCreated, second.StatusCode)
	assert.Equal(t, "true", second.Header.Get("Idempotent-Replay"))
	assert.Equal(t, firstBody, secondBody)

	resp, body := s.do(t, http.MethodPost, "/api/inventory/receipts", s.worker, lines(line(p, 11, "", l1)), "Idempotency-Key", "k-1")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "IDEMPOTENCY_KEY_REUSED", body["code"])

	_, stock := s.do(t, http.MethodGet, "/api/products/"+p+"/stock", s.worker, nil)
	assert.Equal(t, "10", stock["total_quantity"])
	assert.EqualValues(t, 1, stock["version"])

	// Sin clave cada petición es un movimiento nuevo.
	resp, _ = s.do(t, http.MethodPost, "/api/inventory/receipts", s.worker, req)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	_, stock = s.do(t, http.MethodGet, "/api/products/"+p+"/stock", s.worker, nil)
	assert.Equal(t, "20", stock["total_quantity"])
}

func TestRouter_IdempotencyKeyConcurrente(t *testing.T) {
	store := newBarrierIdempotencyStore(2)
	s := newTestServer(t, store)
	l1 := s.createLocation(t, "WH-A")
	p := s.createProduct(t, "SKU-1")
	raw, err := json.Marshal(lines(line(p, 10, "", l1)))
	require.NoError(t, err)

	codes := make([]int, 2)
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range codes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodPost, "/api/inventory/receipts", bytes.NewReader(raw))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", s.worker)
			req.Header.Set("Idempotency-Key", "k-race")
			resp, err := s.app.Test(req, -1)
			if err != nil {
				errs[i] = err
				return
			}
			resp.Body.Close()
			codes[i] = resp.StatusCode
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	created := 0
	for _, code := range codes {
		switch code {
		case http.StatusCreated:
			created++
		case http.StatusConflict:
		default:
			t.Fatalf("código inesperado %d (%v)", code, codes)
		}
	}
	assert.GreaterOrEqual(t, created, 1, codes)

	_, stock := s.do(t, http.MethodGet, "/api/products/"+p+"/stock", s.worker, nil)
	assert.Equal(t, "10", stock["total_quantity"])
	assert.EqualValues(t, 1, stock["version"])

	// La clave quedó con la respuesta definitiva: un reintento la repite.
	resp, _ := s.do(t, http.MethodPost, "/api/inventory/receipts", s.worker, lines(line(p, 10, "", l1)), "Idempotency-Key", "k-race")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "true", resp.Header.Get("Idempotent-Replay"))
}

func TestRouter_IdempotencyNoGuardaRechazos(t *testing.T) {
	store := newFakeIdempotencyStore()
	s := newTestServer(t, store)
	l1 := s.createLocation(t, "WH-A")
	p := s.createProduct(t, "SKU-1")
	req := lines(line(p, 5, l1, ""))

	resp, _ := s.do(t, http.MethodPost, "/api/inventory/deliveries", s.worker, req, "Idempotency-Key", "k-2")
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Zero(t, store.len(), "el rechazo libera la reserva")

	resp, _ = s.do(t, http.MethodPost, "/api/inventory/receipts", s.worker, lines(line(p, 5, "", l1)))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := s.do(t, http.MethodPost, "/api/inventory/deliveries", s.worker, req, "Idempotency-Key", "k-2")
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	assert.Empty(t, resp.Header.Get("Idempotent-Replay"))
}

func TestRouter_HealthYMetrics(t *testing.T) {
	s := newTestServer(t, nil)
	l1 := s.createLocation(t, "WH-A")
	p := s.createProduct(t, "SKU-1")
	resp, _ := s.do(t, http.MethodPost, "/api/inventory/receipts", s.worker, lines(line(p, 1, "", l1)))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := s.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	mresp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer mresp.Body.Close()
	raw, err := io.ReadAll(mresp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, mresp.StatusCode)
	assert.Contains(t, string(raw), "inventory_movement_requests_total")
}

func TestRouter_BodegasYUbicaciones(t *testing.T) {
	s := newTestServer(t, nil)

	resp, wh := s.do(t, http.MethodPost, "/api/warehouses", s.admin, map[string]any{"code": "main", "name": "Principal", "address": "Calle 1"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, wh)
	assert.Equal(t, "MAIN", wh["code"])
	whID := wh["id"].(string)

	resp, _ = s.do(t, http.MethodPost, "/api/warehouses", s.worker, map[string]any{"code": "x", "name": "x"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, loc := s.do(t, http.MethodPost, "/api/locations", s.admin, map[string]any{"code": "main-a", "name": "Estante A", "warehouse_id": whID})
	require.Equal(t, http.StatusCreated, resp.StatusCode, loc)
	assert.Equal(t, whID, loc["warehouse_id"])

	resp, body := s.do(t, http.MethodPost, "/api/locations", s.admin, map[string]any{"code": "main-z", "name": "Z", "warehouse_id": "nope"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, body)

	resp, list := s.do(t, http.MethodGet, "/api/warehouses/"+whID+"/locations", s.auditor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	items := list["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "MAIN-A", items[0].(map[string]any)["code"])

	resp, _ = s.do(t, http.MethodDelete, "/api/warehouses/"+whID, s.admin, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, got := s.do(t, http.MethodGet, "/api/warehouses/"+whID, s.worker, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, got["is_active"])

	resp, body = s.do(t, http.MethodPost, "/api/locations", s.admin, map[string]any{"code": "main-b", "name": "B", "warehouse_id": whID})
	assert.Equal(t, http.StatusConflict, resp.StatusCode, body)

	resp, _ = s.do(t, http.MethodGet, "/api/warehouses/nope", s.admin, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRouter_CategoriaDeProducto(t *testing.T) {
	s := newTestServer(t, nil)

	resp, body := s.do(t, http.MethodPost, "/api/products", s.admin, map[string]any{
		"sku": "res-1", "name": "Resina", "uom": "kg", "category": "raw_material",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	assert.Equal(t, "raw_material", body["category"])
	s.createProduct(t, "caja-1")

	resp, body = s.do(t, http.MethodPost, "/api/products", s.admin, map[string]any{
		"sku": "x-1", "name": "X", "uom": "kg", "category": "gift",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)

	resp, list := s.do(t, http.MethodGet, "/api/products?category=raw_material", s.auditor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	items := list["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "RES-1", items[0].(map[string]any)["sku"])
}

func TestRouter_EstadoDeStock(t *testing.T) {
	s := newTestServer(t, nil)
	l1 := s.createLocation(t, "WH-A")
	l2 := s.createLocation(t, "WH-B")
	p := s.createProduct(t, "SKU-1")
	resp, _ := s.do(t, http.MethodPost, "/api/inventory/receipts", s.worker, lines(line(p, 8, "", l1), line(p, 2, "", l2)))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = s.do(t, http.MethodGet, "/api/debug/state", s.auditor, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp, _ = s.do(t, http.MethodGet, "/api/debug/state", s.worker, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, state := s.do(t, http.MethodGet, "/api/debug/state", s.admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	perProduct := state["per_product"].([]any)
	require.Len(t, perProduct, 1)
	prod := perProduct[0].(map[string]any)
	assert.Equal(t, "10", prod["total_quantity"])
	assert.Len(t, prod["locations"].([]any), 2)

	perLocation := state["per_location"].([]any)
	require.Len(t, perLocation, 2)
	whA := perLocation[0].(map[string]any)
	assert.Equal(t, "WH-A", whA["location_code"])
	assert.Equal(t, "8", whA["total_quantity"])
}

func TestRouter_ImportarProductosCSV(t *testing.T) {
	s := newTestServer(t, nil)
	l1 := s.createLocation(t, "WH-A")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "productos.csv")
	require.NoError(t, err)
	_, err = io.WriteString(fw, "sku;name;uom;location_code;qty\nimp-1;Tornillo;pcs;WH-A;12\nimp-2;Perno;pcs;;\n")
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	send := func(token string) (*http.Response, map[string]any) {
		req := httptest.NewRequest(http.MethodPost, "/api/products/import", bytes.NewReader(buf.Bytes()))
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", token)
		resp, err := s.app.Test(req, -1)
		require.NoError(t, err)
		defer resp.Body.Close()
		out := map[string]any{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		return resp, out
	}

	resp, _ := send(s.worker)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body := send(s.admin)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.EqualValues(t, 2, body["created"])
	assert.EqualValues(t, 1, body["received"])

	_, stock := s.do(t, http.MethodGet, "/api/inventory/movements?location_id="+l1, s.auditor, nil)
	items := stock["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "receipt", items[0].(map[string]any)["type"])

	// Sin archivo.
	resp, _ = s.do(t, http.MethodPost, "/api/products/import", s.admin, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/custodia-api/internal/application/apptest"
	"github.com/jhoicas/custodia-api/internal/application/audit"
	"github.com/jhoicas/custodia-api/internal/application/auth"
	"github.com/jhoicas/custodia-api/internal/application/catalog"
	"github.com/jhoicas/custodia-api/internal/application/custody"
	"github.com/jhoicas/custodia-api/internal/application/sales"
	"github.com/jhoicas/custodia-api/internal/application/shift"
	"github.com/jhoicas/custodia-api/internal/domain/entity"
	"github.com/jhoicas/custodia-api/internal/domain/repository"
	apphttp "github.com/jhoicas/custodia-api/internal/interfaces/http"
	"github.com/jhoicas/custodia-api/pkg/logger"
)

const apiSecret = "api-test-secret"

type apiEnv struct {
	f    *apptest.Fixture
	app  *fiber.App
	logs *bytes.Buffer
}

func newAPI(t *testing.T) *apiEnv {
	t.Helper()
	f := apptest.New(t)
	logs := &bytes.Buffer{}
	log := logger.NewWriter(logs, "debug")
	repos := f.Store.Repos()

	app := fiber.New()
	app.Use(apphttp.RequestLogger(log))
	apphttp.Router(app, apphttp.RouterDeps{
		AuthUC:    auth.NewAuthUseCase(repos.Users, auth.JWTConfig{Secret: apiSecret, ExpMinutes: 30, Issuer: testIssuer}, log),
		CatalogUC: catalog.NewUseCase(f.Store, repos, log),
		CustodyUC: custody.NewUseCase(f.Store, repos, log),
		SalesUC:   sales.NewUseCase(f.Store, repos, log),
		ShiftUC:   shift.NewUseCase(f.Store, repos, log),
		AuditUC:   audit.NewQueryUseCase(repos.Events),
		JWTSecret: apiSecret,
	})
	return &apiEnv{f: f, app: app, logs: logs}
}

func (e *apiEnv) login(t *testing.T, u *entity.User) string {
	t.Helper()
	resp, body := e.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"phone": u.Phone, "password": apptest.Password}, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, body)
	var out struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &out))
	require.NotEmpty(t, out.Token)
	return out.Token
}

func (e *apiEnv) do(t *testing.T, method, path, token string, payload any, headers map[string]string) (*http.Response, string) {
	t.Helper()
	var rd io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(raw)
}

func decode(t *testing.T, body string) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &out), body)
	return out
}

func TestAPI_LoginInvalido(t *testing.T) {
	e := newAPI(t)

	resp, body := e.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"phone": e.f.Owner.Phone, "password": "mala"}, nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", decode(t, body)["code"])

	resp, body = e.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"phone": e.f.Owner.Phone}, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", decode(t, body)["code"])
}

func TestAPI_EntregaYAsignacion(t *testing.T) {
	e := newAPI(t)
	mgr := e.login(t, e.f.Manager)

	resp, body := e.do(t, http.MethodPost, "/api/movements/deliveries", mgr,
		map[string]any{"product_id": e.f.Product.ID, "quantity": 40}, nil)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, body)
	assert.Equal(t, "delivery", decode(t, body)["type"])

	resp, body = e.do(t, http.MethodPost, "/api/movements/allocations", mgr,
		map[string]any{"product_id": e.f.Product.ID, "bartender_id": e.f.Bartender.ID, "quantity": 25}, nil)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, body)

	resp, body = e.do(t, http.MethodPost, "/api/movements/allocations", mgr,
		map[string]any{"product_id": e.f.Product.ID, "bartender_id": e.f.Bartender2.ID, "quantity": 20}, nil)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode, body)
	errBody := decode(t, body)
	assert.Equal(t, "INSUFFICIENT_BALANCE", errBody["code"])
	details, ok := errBody["details"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 15, details["available"])
	assert.EqualValues(t, 20, details["requested"])

	resp, body = e.do(t, http.MethodGet, "/api/stock/"+e.f.Product.ID+"/holders", mgr, nil, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, body)
	assert.EqualValues(t, 15, decode(t, body)["available"])
}

func TestAPI_CuerpoInvalido(t *testing.T) {
	e := newAPI(t)
	mgr := e.login(t, e.f.Manager)

	resp, body := e.do(t, http.MethodPost, "/api/movements/deliveries", mgr,
		map[string]any{"product_id": "no-es-uuid", "quantity": 0}, nil)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	errBody := decode(t, body)
	assert.Equal(t, "VALIDATION", errBody["code"])
	fields := errBody["details"].(map[string]any)["fields"].(map[string]any)
	assert.Contains(t, fields, "ProductID")
	assert.Contains(t, fields, "Quantity")
}

func TestAPI_HeadersDeDispositivoInvalidos(t *testing.T) {
	e := newAPI(t)
	mgr := e.login(t, e.f.Manager)

	resp, body := e.do(t, http.MethodGet, "/api/products", mgr, nil, map[string]string{apphttp.HeaderShiftID: "turno-1"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, apphttp.HeaderShiftID, decode(t, body)["details"].(map[string]any)["header"])

	resp, _ = e.do(t, http.MethodGet, "/api/products", mgr, nil, map[string]string{apphttp.HeaderClientTime: "ayer"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = e.do(t, http.MethodGet, "/api/products", mgr, nil, map[string]string{apphttp.HeaderIdempotencyKey: strings.Repeat("k", 201)})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestAPI_VentaConTurnoDesdeHeader(t *testing.T) {
	e := newAPI(t)
	sh := e.f.OpenShift(t)
	mgr := e.login(t, e.f.Manager)
	bt := e.login(t, e.f.Bartender)
	srv := e.login(t, e.f.Server)

	for _, req := range []struct {
		path string
		body map[string]any
	}{
		{"/api/movements/deliveries", map[string]any{"product_id": e.f.Product.ID, "quantity": 10}},
		{"/api/movements/allocations", map[string]any{"product_id": e.f.Product.ID, "bartender_id": e.f.Bartender.ID, "quantity": 10}},
	} {
		resp, body := e.do(t, http.MethodPost, req.path, mgr, req.body, nil)
		require.Equal(t, fiber.StatusCreated, resp.StatusCode, body)
	}

	sale := map[string]any{"product_id": e.f.Product.ID, "server_id": e.f.Server.ID, "quantity": 2}
	resp, body := e.do(t, http.MethodPost, "/api/sales", bt, sale, nil)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode, "sin X-Shift-ID no hay turno: %s", body)

	headers := map[string]string{
		apphttp.HeaderShiftID:        sh.ID,
		apphttp.HeaderDeviceID:       "tablet-barra",
		apphttp.HeaderIdempotencyKey: "venta-1",
	}
	resp, body = e.do(t, http.MethodPost, "/api/sales", bt, sale, headers)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, body)
	created := decode(t, body)
	assert.Equal(t, "pending", created["status"])
	assert.Equal(t, "16000", created["total_price"])
	assert.Equal(t, sh.ID, created["shift_id"])
	saleID := created["id"].(string)

	resp, body = e.do(t, http.MethodPost, "/api/sales", bt, sale, headers)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, "reintento con la misma clave: %s", body)
	assert.Equal(t, saleID, decode(t, body)["id"])
	assert.Equal(t, true, decode(t, body)["replayed"])

	collect := map[string]any{"amount": "16000", "payment_method": "cash"}
	resp, body = e.do(t, http.MethodPost, "/api/sales/"+saleID+"/collect", srv, collect, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "collected", decode(t, body)["status"])

	resp, body = e.do(t, http.MethodPost, "/api/sales/"+saleID+"/collect", srv, collect, nil)
	require.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode, body)
	assert.Equal(t, "ILLEGAL_TRANSITION", decode(t, body)["code"])

	resp, body = e.do(t, http.MethodGet, "/api/stock/"+e.f.Product.ID+"?holder_id="+e.f.Server.ID, srv, nil, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, body)
	assert.EqualValues(t, 2, decode(t, body)["quantity"])
}

func TestAPI_RolesEnRutas(t *testing.T) {
	e := newAPI(t)
	srv := e.login(t, e.f.Server)

	resp, _ := e.do(t, http.MethodPost, "/api/movements/deliveries", srv,
		map[string]any{"product_id": e.f.Product.ID, "quantity": 1}, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, _ = e.do(t, http.MethodGet, "/api/events", srv, nil, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, _ = e.do(t, http.MethodGet, "/api/products", "", nil, nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, body := e.do(t, http.MethodGet, "/api/me", srv, nil, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, body)
	assert.Equal(t, e.f.Server.ID, decode(t, body)["id"])
}

func TestAPI_RequestLoggerRegistraStatus(t *testing.T) {
	e := newAPI(t)
	mgr := e.login(t, e.f.Manager)
	e.logs.Reset()

	resp, _ := e.do(t, http.MethodPost, "/api/movements/allocations", mgr,
		map[string]any{"product_id": e.f.Product.ID, "bartender_id": e.f.Bartender.ID, "quantity": 5},
		map[string]string{apphttp.HeaderDeviceID: "tablet-1"})
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)

	var line map[string]any
	for _, raw := range strings.Split(strings.TrimSpace(e.logs.String()), "\n") {
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(raw), &m), raw)
		if m["message"] == "request" {
			line = m
		}
	}
	require.NotNil(t, line, "falta la línea de request")
	assert.Equal(t, "warn", line["level"])
	assert.Equal(t, "http", line["component"])
	assert.EqualValues(t, 409, line["status"])
	assert.Equal(t, "/api/movements/allocations", line["path"])
	assert.Equal(t, "tablet-1", line["device_id"])
	assert.Equal(t, e.f.Bar.ID, line["bar_id"])
	assert.Contains(t, line["error"], "saldo insuficiente")
}

func TestAPI_HeadersGuardadosNoCambianConRequestsPosteriores(t *testing.T) {
	e := newAPI(t)
	first := e.f.OpenShift(t)
	second := e.f.OpenShift(t)
	mgr := e.login(t, e.f.Manager)
	delivery := map[string]any{"product_id": e.f.Product.ID, "quantity": 5}

	resp, body := e.do(t, http.MethodPost, "/api/movements/deliveries", mgr, delivery, map[string]string{
		apphttp.HeaderDeviceID:       "tablet-AAAA",
		apphttp.HeaderShiftID:        first.ID,
		apphttp.HeaderIdempotencyKey: "key-AAAAAAAA",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, body)
	movementID := decode(t, body)["id"].(string)

	for i := range 20 {
		resp, body := e.do(t, http.MethodPost, "/api/movements/deliveries", mgr,
			map[string]any{"product_id": e.f.Product.ID, "quantity": 1}, map[string]string{
				apphttp.HeaderDeviceID:       "tablet-ZZZZ",
				apphttp.HeaderShiftID:        second.ID,
				apphttp.HeaderIdempotencyKey: fmt.Sprintf("key-ZZZZZZ%02d", i),
			})
		require.Equal(t, fiber.StatusCreated, resp.StatusCode, body)
	}

	ctx := context.Background()
	repos := e.f.Store.Repos()
	stored, err := repos.Movements.GetByID(ctx, e.f.Bar.ID, movementID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "tablet-AAAA", stored.DeviceID)
	require.NotNil(t, stored.DedupID)
	assert.Equal(t, "key-AAAAAAAA", *stored.DedupID)
	require.NotNil(t, stored.ShiftID)
	assert.Equal(t, first.ID, *stored.ShiftID)

	byKey, err := repos.Movements.GetByDedup(ctx, e.f.Bar.ID, "key-AAAAAAAA")
	require.NoError(t, err)
	require.NotNil(t, byKey)
	assert.Equal(t, movementID, byKey.ID)

	events, err := repos.Events.List(ctx, repository.EventFilter{BarID: e.f.Bar.ID, EntityID: movementID})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "tablet-AAAA", events[0].DeviceID)
	require.NotNil(t, events[0].ShiftID)
	assert.Equal(t, first.ID, *events[0].ShiftID)
}

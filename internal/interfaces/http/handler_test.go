package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/viajes-backoffice/internal/application/dto"
	"github.com/jhoicas/viajes-backoffice/internal/domain"
	apphttp "github.com/jhoicas/viajes-backoffice/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/viajes-backoffice/pkg/jwt"
)

const (
	testJWTSecret = "test-secret-key-for-unit-tests"
	testUserID    = "00000000-0000-0000-0000-000000000001"
	testAgencyID  = "00000000-0000-0000-0000-000000000002"
	testIssuer    = "viajes-backoffice-test"
)

// ─── Stubs ────────────────────────────────────────────────────────────────────

type reminderStub struct {
	previewReq  dto.PreviewRequest
	dispatchReq dto.DispatchRequest
	historyID   string
	historyLim  int
	pausedID    string
	paused      *bool
	err         error
}

func (s *reminderStub) Preview(_ context.Context, req dto.PreviewRequest) (*dto.PreviewResult, error) {
	s.previewReq = req
	if s.err != nil {
		return nil, s.err
	}
	return &dto.PreviewResult{Date: "2025-03-01", Items: []dto.PreviewItem{{InvoiceID: "a", Bucket: "on_due"}}}, nil
}

func (s *reminderStub) Dispatch(_ context.Context, req dto.DispatchRequest) (*dto.DispatchResult, error) {
	s.dispatchReq = req
	if s.err != nil {
		return nil, s.err
	}
	return &dto.DispatchResult{Sent: 1, Failed: 1, Details: []dto.DispatchDetail{}, Excluded: []dto.ExcludedInvoice{}}, nil
}

func (s *reminderStub) History(_ context.Context, id string, limit int) ([]dto.ReminderRecordResponse, error) {
	s.historyID, s.historyLim = id, limit
	if s.err != nil {
		return nil, s.err
	}
	return []dto.ReminderRecordResponse{{ID: "r1", Outcome: "sent"}}, nil
}

func (s *reminderStub) SetPaused(_ context.Context, id string, paused bool) error {
	s.pausedID, s.paused = id, &paused
	return s.err
}

type billingStub struct {
	err error
}

func (b billingStub) GetSplit(_ context.Context, id string) (*dto.SplitResponse, error) {
	if b.err != nil {
		return nil, b.err
	}
	return &dto.SplitResponse{InvoiceID: id, Deposit: "1000.00", Balance: "2333.33", FullTripCost: "3333.33"}, nil
}

func (b billingStub) DownloadInvoicePDF(_ context.Context, id string) ([]byte, string, error) {
	if b.err != nil {
		return nil, "", b.err
	}
	return []byte("%PDF-1.3 test"), "factura_DEP-001.pdf", nil
}

// ─── Helpers ──────────────────────────────────────────────────────────────────

func newApp(rem *reminderStub, bill billingStub) *fiber.App {
	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		Reminders: rem,
		Split:     bill,
		PDF:       bill,
		JWTSecret: testJWTSecret,
	})
	return app
}

func token(t *testing.T, role string) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, testUserID, testAgencyID, role, testIssuer, 60)
	require.NoError(t, err)
	return "Bearer " + tok
}

func do(t *testing.T, app *fiber.App, method, path, body, auth string) *http.Response {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

// ─── Recordatorios ────────────────────────────────────────────────────────────

func TestDispatch_ResumenConFallosParciales(t *testing.T) {
	rem := &reminderStub{}
	app := newApp(rem, billingStub{})

	resp := do(t, app, http.MethodPost, "/api/reminders/dispatch", `{"invoiceIds":["a","b"]}`, token(t, pkgjwt.RoleCobranzas))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out dto.DispatchResult
	decode(t, resp, &out)
	assert.Equal(t, 1, out.Sent)
	assert.Equal(t, 1, out.Failed)
	assert.Equal(t, []string{"a", "b"}, rem.dispatchReq.InvoiceIDs)
}

func TestDispatch_MapeoDeErrores(t *testing.T) {
	cases := []struct {
		err  error
		want int
		code string
	}{
		{fmt.Errorf("%w: vacío", domain.ErrInvalidRequest), http.StatusBadRequest, "INVALID_REQUEST"},
		{domain.ErrSweepInProgress, http.StatusConflict, "SWEEP_IN_PROGRESS"},
		{errors.New("db caída"), http.StatusInternalServerError, "INTERNAL"},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			app := newApp(&reminderStub{err: tc.err}, billingStub{})
			resp := do(t, app, http.MethodPost, "/api/reminders/dispatch", `{"sendAll":true}`, token(t, pkgjwt.RoleAdmin))
			assert.Equal(t, tc.want, resp.StatusCode)

			var body dto.ErrorResponse
			decode(t, resp, &body)
			assert.Equal(t, tc.code, body.Code)
		})
	}
}

func TestDispatch_CuerpoInvalido(t *testing.T) {
	app := newApp(&reminderStub{}, billingStub{})
	resp := do(t, app, http.MethodPost, "/api/reminders/dispatch", `{"invoiceIds":`, token(t, pkgjwt.RoleAdmin))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDispatch_AsesorNoPuedeEnviar(t *testing.T) {
	rem := &reminderStub{}
	app := newApp(rem, billingStub{})
	resp := do(t, app, http.MethodPost, "/api/reminders/dispatch", `{"sendAll":true}`, token(t, pkgjwt.RoleAsesor))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.False(t, rem.dispatchReq.SendAll)
}

func TestPreview_Parametros(t *testing.T) {
	rem := &reminderStub{}
	app := newApp(rem, billingStub{})

	resp := do(t, app, http.MethodGet, "/api/reminders/preview?date=2025-03-10&invoice_ids=a,%20b,,a", "", token(t, pkgjwt.RoleAsesor))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out dto.PreviewResult
	decode(t, resp, &out)
	require.Len(t, out.Items, 1)
	require.NotNil(t, rem.previewReq.Date)
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), *rem.previewReq.Date)
	assert.Equal(t, []string{"a", "b", "a"}, rem.previewReq.InvoiceIDs)
}

func TestPreview_FechaInvalida(t *testing.T) {
	app := newApp(&reminderStub{}, billingStub{})
	resp := do(t, app, http.MethodGet, "/api/reminders/preview?date=10/03/2025", "", token(t, pkgjwt.RoleAdmin))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHistory(t *testing.T) {
	rem := &reminderStub{}
	app := newApp(rem, billingStub{})

	resp := do(t, app, http.MethodGet, "/api/invoices/inv-1/reminders?limit=500", "", token(t, pkgjwt.RoleAsesor))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "inv-1", rem.historyID)
	assert.Equal(t, 100, rem.historyLim)

	app = newApp(&reminderStub{err: domain.ErrNotFound}, billingStub{})
	resp = do(t, app, http.MethodGet, "/api/invoices/ghost/reminders", "", token(t, pkgjwt.RoleAsesor))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPause(t *testing.T) {
	rem := &reminderStub{}
	app := newApp(rem, billingStub{})

	resp := do(t, app, http.MethodPut, "/api/invoices/inv-1/reminders/pause", `{"paused":true}`, token(t, pkgjwt.RoleCobranzas))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "inv-1", rem.pausedID)
	require.NotNil(t, rem.paused)
	assert.True(t, *rem.paused)

	resp = do(t, app, http.MethodPut, "/api/invoices/inv-1/reminders/pause", `{}`, token(t, pkgjwt.RoleCobranzas))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// ─── Facturas ─────────────────────────────────────────────────────────────────

func TestGetSplit(t *testing.T) {
	app := newApp(&reminderStub{}, billingStub{})
	resp := do(t, app, http.MethodGet, "/api/invoices/dep-1/split", "", token(t, pkgjwt.RoleAsesor))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out dto.SplitResponse
	decode(t, resp, &out)
	assert.Equal(t, "dep-1", out.InvoiceID)
	assert.Equal(t, "2333.33", out.Balance)
}

func TestSplitYPDF_MontosInvalidosSon400(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code string
	}{
		{"porcentaje", fmt.Errorf("%w: 100", domain.ErrInvalidPercentage), "INVALID_PERCENTAGE"},
		{"monto", fmt.Errorf("%w: -5", domain.ErrInvalidAmount), "INVALID_AMOUNT"},
	}
	for _, tc := range cases {
		for _, path := range []string{"/api/invoices/dep-1/split", "/api/invoices/dep-1/pdf"} {
			t.Run(tc.name+path, func(t *testing.T) {
				app := newApp(&reminderStub{}, billingStub{err: tc.err})
				resp := do(t, app, http.MethodGet, path, "", token(t, pkgjwt.RoleAsesor))
				require.Equal(t, http.StatusBadRequest, resp.StatusCode)

				var out dto.ErrorResponse
				decode(t, resp, &out)
				assert.Equal(t, tc.code, out.Code)
			})
		}
	}
}

func TestDownloadPDF(t *testing.T) {
	app := newApp(&reminderStub{}, billingStub{})
	resp := do(t, app, http.MethodGet, "/api/invoices/dep-1/pdf", "", token(t, pkgjwt.RoleAsesor))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "factura_DEP-001.pdf")

	app = newApp(&reminderStub{}, billingStub{err: domain.ErrInvalidInput})
	resp = do(t, app, http.MethodGet, "/api/invoices/draft/pdf", "", token(t, pkgjwt.RoleAsesor))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// ─── Auth ─────────────────────────────────────────────────────────────────────

func TestAuth_SinTokenOInvalido(t *testing.T) {
	app := newApp(&reminderStub{}, billingStub{})

	resp := do(t, app, http.MethodGet, "/api/reminders/preview", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = do(t, app, http.MethodGet, "/api/reminders/preview", "", "Bearer token.invalido.aqui")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = do(t, app, http.MethodGet, "/api/reminders/preview", "", "Basic abc")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuth_TokenSinRol(t *testing.T) {
	app := newApp(&reminderStub{}, billingStub{})
	resp := do(t, app, http.MethodPost, "/api/reminders/dispatch", `{"sendAll":true}`, token(t, ""))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "MISSING_ROLE")
}

func TestAuthMiddleware_ExtraeClaims(t *testing.T) {
	app := fiber.New()
	app.Get("/me", apphttp.AuthMiddleware(testJWTSecret), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"user_id":   apphttp.GetUserID(c),
			"agency_id": apphttp.GetAgencyID(c),
			"role":      apphttp.GetRole(c),
		})
	})
	resp := do(t, app, http.MethodGet, "/me", "", token(t, pkgjwt.RoleAdmin))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	decode(t, resp, &body)
	assert.Equal(t, testUserID, body["user_id"])
	assert.Equal(t, testAgencyID, body["agency_id"])
	assert.Equal(t, pkgjwt.RoleAdmin, body["role"])
}

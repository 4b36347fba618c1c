package quote_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/quotecalc/internal/catalog"
	"github.com/noah-isme/quotecalc/internal/pricing"
	"github.com/noah-isme/quotecalc/internal/quote"
)

func newRouter(t *testing.T) (http.Handler, *quote.Service) {
	t.Helper()
	svc := quote.NewService(quote.NewMemoryStore(), zerolog.Nop())
	h := &quote.Handler{Svc: svc, Catalog: catalog.New([]pricing.Item{hosting, website, logo})}
	r := chi.NewRouter()
	r.Route("/api/v1/quote", h.Routes)
	return r, svc
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

type rowResponse struct {
	Data pricing.Row    `json:"data"`
	Meta pricing.Totals `json:"meta"`
}

func TestHandlerAddUpdateRemove(t *testing.T) {
	router, svc := newRouter(t)

	rr := do(t, router, http.MethodPost, "/api/v1/quote/rows", `{"name":"website"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var added rowResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &added))
	require.Equal(t, "Website", added.Data.Name)
	require.Equal(t, 500.0, added.Meta.Grand)

	rr = do(t, router, http.MethodPatch, "/api/v1/quote/rows/"+added.Data.ID, `{"quantity":3,"convertToSubscription":true}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var updated rowResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &updated))
	require.Equal(t, 3, updated.Data.Quantity)
	require.Equal(t, 3000.0, updated.Meta.Full)

	rr = do(t, router, http.MethodDelete, "/api/v1/quote/rows/"+added.Data.ID, "")
	require.Equal(t, http.StatusNoContent, rr.Code)
	require.Zero(t, svc.Summary().RowCount)
}

func TestHandlerAddInlineItem(t *testing.T) {
	router, _ := newRouter(t)
	rr := do(t, router, http.MethodPost, "/api/v1/quote/rows", `{"item":{"name":"Custom","price":42,"paymentType":"full"}}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = do(t, router, http.MethodPost, "/api/v1/quote/rows", `{"item":{"name":"Custom","price":42,"paymentType":"barter"}}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandlerErrors(t *testing.T) {
	router, svc := newRouter(t)

	rr := do(t, router, http.MethodPost, "/api/v1/quote/rows", `{"name":"nothing"}`)
	require.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(t, router, http.MethodPost, "/api/v1/quote/rows", `{}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, router, http.MethodPatch, "/api/v1/quote/rows/missing", `{"quantity":1}`)
	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Contains(t, rr.Body.String(), "NOT_FOUND")

	rr = do(t, router, http.MethodPost, "/api/v1/quote/rows", `{"name":"Logo"}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	id := svc.Rows()[0].ID

	rr = do(t, router, http.MethodPatch, "/api/v1/quote/rows/"+id, `{"discount":150}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, router, http.MethodPatch, "/api/v1/quote/rows/"+id, `{"convertToSubscription":true}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, router, http.MethodPatch, "/api/v1/quote/rows/"+id, `{}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, router, http.MethodDelete, "/api/v1/quote/rows/missing", "")
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandlerGetAndClear(t *testing.T) {
	router, _ := newRouter(t)
	do(t, router, http.MethodPost, "/api/v1/quote/rows", `{"name":"Hosting"}`)
	do(t, router, http.MethodPost, "/api/v1/quote/rows", `{"name":"Website"}`)

	rr := do(t, router, http.MethodGet, "/api/v1/quote", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		Data quote.Summary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, 2, body.Data.RowCount)
	require.Equal(t, 620.0, body.Data.Totals.Grand)
	require.Equal(t, 500.0, body.Data.BalanceOnDelivery)

	rr = do(t, router, http.MethodDelete, "/api/v1/quote", "")
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = do(t, router, http.MethodGet, "/api/v1/quote", "")
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Zero(t, body.Data.RowCount)
}

func TestHandlerPutConfig(t *testing.T) {
	router, svc := newRouter(t)
	payload, err := json.Marshal(validConfig())
	require.NoError(t, err)

	rr := do(t, router, http.MethodPut, "/api/v1/quote/config", string(payload))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.Equal(t, "ACME", svc.Config().ClientName)

	rr = do(t, router, http.MethodPut, "/api/v1/quote/config", `{"clientName":""}`)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	require.Contains(t, rr.Body.String(), "VALIDATION_FAILED")
	require.Contains(t, rr.Body.String(), "companyEmail")
}

func TestHandlerExportImport(t *testing.T) {
	router, _ := newRouter(t)
	do(t, router, http.MethodPost, "/api/v1/quote/rows", `{"name":"Website"}`)
	do(t, router, http.MethodPost, "/api/v1/quote/rows", `{"name":"Logo"}`)

	rr := do(t, router, http.MethodGet, "/api/v1/quote/export", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Header().Get("Content-Disposition"), "quote.json")
	exported := rr.Body.String()

	other, otherSvc := newRouter(t)
	rr = do(t, other, http.MethodPost, "/api/v1/quote/import", exported)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.Equal(t, 2, otherSvc.Summary().RowCount)

	snap, err := quote.DecodeSnapshot(bytes.NewBufferString(exported))
	require.NoError(t, err)
	require.Equal(t, snap.Totals, otherSvc.Summary().Totals)

	rr = do(t, other, http.MethodPost, "/api/v1/quote/import", `{"rows":`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandlerImportRejectsBrokenRows(t *testing.T) {
	router, svc := newRouter(t)
	do(t, router, http.MethodPost, "/api/v1/quote/rows", `{"name":"Website"}`)

	body := `{"rows":[{"id":"r1","name":"Retainer","price":100,"paymentType":"full","quantity":-3,"discount":250}]}`
	rr := do(t, router, http.MethodPost, "/api/v1/quote/import", body)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), "quantity")
	require.Equal(t, 1, svc.Summary().RowCount)
	require.Equal(t, 500.0, svc.Summary().Totals.Grand)

	body = `{"rows":[],"invoiceConfig":{"companyEmail":"nope"}}`
	rr = do(t, router, http.MethodPost, "/api/v1/quote/import", body)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	require.Contains(t, rr.Body.String(), "companyEmail")
	require.Equal(t, 1, svc.Summary().RowCount)
}

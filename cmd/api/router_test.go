package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/quotecalc/internal/catalog"
	"github.com/noah-isme/quotecalc/internal/config"
	"github.com/noah-isme/quotecalc/internal/pricing"
	"github.com/noah-isme/quotecalc/internal/quote"
	"github.com/noah-isme/quotecalc/internal/ratelimit"
)

func testRouter(t *testing.T) (http.Handler, *quote.Service) {
	t.Helper()
	cfg := &config.Config{ImportMaxBytes: 256, PDFEnabled: false, RateLimitMax: 5, RateLimitWindow: time.Minute}
	cat := catalog.New([]pricing.Item{
		{Name: "Hosting", Price: 120, Category: "Infrastructure", PaymentType: pricing.Subscription},
		{Name: "Website", Price: 1000, Category: "Web", PaymentType: pricing.Deposit},
	})
	store := quote.NewMemoryStore()
	svc := quote.NewService(store, zerolog.Nop())
	inv, err := newInvoiceHandler(cfg, svc, zerolog.Nop())
	require.NoError(t, err)
	return newRouter(routerDeps{
		Config:  cfg,
		Logger:  zerolog.Nop(),
		Catalog: cat,
		Quote:   svc,
		Limiter: ratelimit.NewMemoryLimiter(),
		Invoice: inv,
	}), svc
}

func serve(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
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

func TestRouterQuoteFlow(t *testing.T) {
	router, svc := testRouter(t)

	rr := serve(router, http.MethodGet, "/api/v1/catalog?category=Web", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "Website")
	require.NotContains(t, rr.Body.String(), "Hosting")

	rr = serve(router, http.MethodPost, "/api/v1/quote/rows", `{"name":"Website"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	rr = serve(router, http.MethodPost, "/api/v1/quote/rows", `{"name":"Hosting"}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	require.Equal(t, 620.0, svc.Summary().Totals.Grand)

	rr = serve(router, http.MethodGet, "/quote/preview", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "SGD$620.00")
	require.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))

	rr = serve(router, http.MethodGet, "/quote/print", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "50% Deposit - Website")

	rr = serve(router, http.MethodGet, "/api/v1/quote/document", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var doc struct {
		Data struct {
			Lines []struct{ Name string }
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &doc))
	require.Len(t, doc.Data.Lines, 2)
	require.Equal(t, "Hosting", doc.Data.Lines[0].Name)
}

func TestRouterPDFDisabled(t *testing.T) {
	router, _ := testRouter(t)
	rr := serve(router, http.MethodGet, "/quote/print.pdf", "")
	require.Equal(t, http.StatusNotImplemented, rr.Code)
}

func TestRouterUploadLimit(t *testing.T) {
	router, _ := testRouter(t)
	big := `{"rows":[],"invoiceConfig":{"notes":"` + strings.Repeat("x", 512) + `"}}`
	rr := serve(router, http.MethodPost, "/api/v1/quote/import", big)
	require.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)

	rr = serve(router, http.MethodPost, "/api/v1/catalog/import?format=csv", "name,price\n"+strings.Repeat("Item,1\n", 64))
	require.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
}

func TestRouterHealth(t *testing.T) {
	router, _ := testRouter(t)
	rr := serve(router, http.MethodGet, "/health/live", "")
	require.Equal(t, http.StatusOK, rr.Code)
	rr = serve(router, http.MethodGet, "/health/ready", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "2 items")
}

func TestProtectPprof(t *testing.T) {
	h := protectPprof(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}), "admin", "secret")

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil))
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	req := httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil)
	req.SetBasicAuth("admin", "secret")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestRouterThrottlesUploads(t *testing.T) {
	router, _ := testRouter(t)
	for i := 0; i < 5; i++ {
		rr := serve(router, http.MethodPost, "/api/v1/catalog/import?format=csv", "name,price\nItem,1\n")
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	}
	rr := serve(router, http.MethodPost, "/api/v1/quote/import", `{"rows":[]}`)
	require.Equal(t, http.StatusTooManyRequests, rr.Code)

	// PDF export has its own budget.
	rr = serve(router, http.MethodGet, "/quote/print.pdf", "")
	require.Equal(t, http.StatusNotImplemented, rr.Code)
}

func TestOpenStoreDrivers(t *testing.T) {
	backend, err := openStore(&config.Config{StoreDriver: config.StoreMemory})
	require.NoError(t, err)
	require.NotNil(t, backend.Store)
	require.Nil(t, backend.Probe)
	require.NotNil(t, backend.Limiter)
	backend.Close()

	backend, err = openStore(&config.Config{StoreDriver: config.StoreFile, StorePath: t.TempDir() + "/quote.json"})
	require.NoError(t, err)
	require.NotNil(t, backend.Store)
	require.NotNil(t, backend.Probe)
	backend.Close()

	mr := miniredis.RunT(t)
	backend, err = openStore(&config.Config{StoreDriver: config.StoreRedis, RedisURL: "redis://" + mr.Addr()})
	require.NoError(t, err)
	require.IsType(t, ratelimit.RedisLimiter{}, backend.Limiter)
	require.NoError(t, backend.Probe.Ping(context.Background()))
	backend.Close()

	_, err = openStore(&config.Config{StoreDriver: config.StoreRedis, RedisURL: "not a url"})
	require.Error(t, err)
}

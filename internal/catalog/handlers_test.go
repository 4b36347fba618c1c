package catalog_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/quotecalc/internal/catalog"
)

func newHandler(maxBytes int64) *catalog.Handler {
	return &catalog.Handler{Catalog: catalog.New(sampleItems()), Logger: zerolog.Nop(), MaxBytes: maxBytes}
}

func TestListHandlerFilters(t *testing.T) {
	h := newHandler(0)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog?category=all&q=site", nil)
	rr := httptest.NewRecorder()
	h.List(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		Data []struct {
			Name string `json:"name"`
		} `json:"data"`
		Meta struct {
			Count int `json:"count"`
			Total int `json:"total"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	require.Equal(t, "Website", body.Data[0].Name)
	require.Equal(t, 1, body.Meta.Count)
	require.Equal(t, 4, body.Meta.Total)
}

func TestCategoriesHandler(t *testing.T) {
	h := newHandler(0)
	rr := httptest.NewRecorder()
	h.Categories(rr, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/categories", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		Data []string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Contains(t, body.Data, "Web")
}

func TestImportHandlerReplacesCatalog(t *testing.T) {
	h := newHandler(1 << 20)
	src := "name,price,category\nAudit,250,full\n"
	req := httptest.NewRequest(http.MethodPost, "/api/v1/catalog/import?format=csv", strings.NewReader(src))
	rr := httptest.NewRecorder()
	h.Import(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.Equal(t, 1, h.Catalog.Len())
	require.Equal(t, "Audit", h.Catalog.Items()[0].Name)
}

func TestImportHandlerUsesContentType(t *testing.T) {
	h := newHandler(0)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/catalog/import", strings.NewReader(`[{"name":"X","price":1,"paymentType":"full"}]`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.Import(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.Equal(t, 1, h.Catalog.Len())
}

func TestImportHandlerErrors(t *testing.T) {
	t.Run("unsupported format", func(t *testing.T) {
		h := newHandler(0)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/catalog/import?format=xls", strings.NewReader("x"))
		rr := httptest.NewRecorder()
		h.Import(rr, req)
		require.Equal(t, http.StatusUnsupportedMediaType, rr.Code)
		require.Equal(t, 4, h.Catalog.Len())
	})

	t.Run("bad price keeps catalog", func(t *testing.T) {
		h := newHandler(0)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/catalog/import?format=csv", strings.NewReader("name,price\nX,abc\n"))
		rr := httptest.NewRecorder()
		h.Import(rr, req)
		require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		require.Contains(t, rr.Body.String(), "INVALID_CATALOG")
		require.Equal(t, 4, h.Catalog.Len())
	})

	t.Run("body too large", func(t *testing.T) {
		h := newHandler(16)
		src := "name,price,category\n" + strings.Repeat("Item,1,full\n", 20)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/catalog/import?format=csv", strings.NewReader(src))
		rr := httptest.NewRecorder()
		h.Import(rr, req)
		require.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	})
}

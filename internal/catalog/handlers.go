package catalog

import (
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/quotecalc/internal/common"
	"github.com/noah-isme/quotecalc/internal/obs"
)

// Handler exposes catalog browsing and import over HTTP.
type Handler struct {
	Catalog  *Catalog
	Logger   zerolog.Logger
	MaxBytes int64
}

// List returns catalog items filtered by the category and q query parameters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Catalog == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog not configured", nil)
		return
	}
	q := r.URL.Query()
	items := h.Catalog.Filter(q.Get("category"), q.Get("q"))
	common.Data(w, http.StatusOK, items, map[string]int{"count": len(items), "total": h.Catalog.Len()})
}

// Categories returns the distinct display categories.
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	if h.Catalog == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog not configured", nil)
		return
	}
	common.Data(w, http.StatusOK, h.Catalog.Categories(), nil)
}

// Import replaces the catalog with the uploaded spreadsheet or JSON list. The format
// comes from the format query parameter, falling back to Content-Type.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	if h.Catalog == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog not configured", nil)
		return
	}
	label := strings.TrimSpace(r.URL.Query().Get("format"))
	if label == "" {
		label = r.Header.Get("Content-Type")
	}
	format, err := ParseFormat(label)
	if err != nil {
		obs.ObserveCatalogImport("unknown", "rejected")
		common.JSONError(w, http.StatusUnsupportedMediaType, "UNSUPPORTED_FORMAT", "catalog format must be csv, xlsx or json", nil)
		return
	}

	body := r.Body
	if h.MaxBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, h.MaxBytes)
	}
	items, err := Import(body, format)
	if err != nil {
		obs.ObserveCatalogImport(string(format), "error")
		h.Logger.Warn().Err(err).Str("format", string(format)).Msg("catalog import failed")
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			common.JSONError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "catalog upload too large", nil)
		case common.IsAppError(err):
			common.WriteAppError(w, err, http.StatusUnprocessableEntity, "INVALID_CATALOG")
		default:
			common.JSONError(w, http.StatusUnprocessableEntity, "INVALID_CATALOG", err.Error(), nil)
		}
		return
	}

	h.Catalog.Replace(items)
	obs.ObserveCatalogImport(string(format), "ok")
	h.Logger.Info().Str("format", string(format)).Int("items", len(items)).Msg("catalog imported")
	common.Data(w, http.StatusOK, map[string]any{"items": len(items), "categories": h.Catalog.Categories()}, nil)
}

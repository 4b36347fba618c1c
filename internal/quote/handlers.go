package quote

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/quotecalc/internal/common"
	"github.com/noah-isme/quotecalc/internal/invoice"
	"github.com/noah-isme/quotecalc/internal/pricing"
)

// ItemFinder resolves catalog items by name.
type ItemFinder interface {
	Find(name string) (pricing.Item, bool)
}

// Handler wires the quote service to HTTP.
type Handler struct {
	Svc     *Service
	Catalog ItemFinder
	// ImportMiddleware wraps the snapshot upload route, e.g. with a body limit.
	ImportMiddleware []func(http.Handler) http.Handler
}

// Routes mounts the quote API on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.Get)
	r.Delete("/", h.Clear)
	r.Post("/rows", h.AddRow)
	r.Patch("/rows/{id}", h.UpdateRow)
	r.Delete("/rows/{id}", h.RemoveRow)
	r.Put("/config", h.PutConfig)
	r.Get("/export", h.Export)
	r.With(h.ImportMiddleware...).Post("/import", h.Import)
}

// Get returns the rows and their totals.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	common.Data(w, http.StatusOK, h.Svc.Summary(), map[string]any{"invoiceConfig": h.Svc.Config()})
}

// AddRow adds a catalog item, either by name or as a full item payload.
func (h *Handler) AddRow(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var payload struct {
		Name string        `json:"name"`
		Item *pricing.Item `json:"item"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	var item pricing.Item
	switch {
	case payload.Item != nil:
		item = *payload.Item
	case strings.TrimSpace(payload.Name) != "" && h.Catalog != nil:
		found, ok := h.Catalog.Find(payload.Name)
		if !ok {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "catalog item not found", nil)
			return
		}
		item = found
	default:
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "name or item is required", nil)
		return
	}
	row, err := h.Svc.Add(r.Context(), item)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusCreated, row, h.Svc.Summary().Totals)
}

// UpdateRow patches quantity, discount or the subscription conversion of a row.
func (h *Handler) UpdateRow(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var patch Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if patch.Empty() {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "nothing to update", nil)
		return
	}
	row, err := h.Svc.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, row, h.Svc.Summary().Totals)
}

// RemoveRow deletes a row.
func (h *Handler) RemoveRow(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	if err := h.Svc.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Clear empties the quote.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	h.Svc.Clear(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// PutConfig replaces the document configuration.
func (h *Handler) PutConfig(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var cfg invoice.Config
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if err := h.Svc.SetConfig(r.Context(), cfg); err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, h.Svc.Config(), nil)
}

// Export downloads the quote snapshot.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	snap := h.Svc.Export()
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="quote.json"`)
	w.WriteHeader(http.StatusOK)
	_ = snap.Encode(w)
}

// Import replaces the quote with an uploaded snapshot.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	snap, err := DecodeSnapshot(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			common.JSONError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "snapshot too large", nil)
			return
		}
		h.writeError(w, err)
		return
	}
	if err := h.Svc.Import(r.Context(), snap); err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, h.Svc.Summary(), nil)
}

func (h *Handler) ready(w http.ResponseWriter) bool {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "quote service not configured", nil)
		return false
	}
	return true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "quote row not found", nil)
	case common.IsAppError(err):
		common.WriteAppError(w, err, http.StatusUnprocessableEntity, "VALIDATION_FAILED")
	case errors.Is(err, ErrInvalidInput):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to process quote", nil)
	}
}

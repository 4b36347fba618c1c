package invoice

import (
	"bytes"
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/noah-isme/quotecalc/internal/common"
	"github.com/noah-isme/quotecalc/internal/obs"
	"github.com/noah-isme/quotecalc/internal/resilience"
)

// DocumentSource supplies the document for the current quote.
type DocumentSource interface {
	Document(ctx context.Context) (Document, error)
}

// Handler exposes the rendered document over HTTP.
type Handler struct {
	Source  DocumentSource
	Screen  Renderer
	Print   Renderer
	PDF     *PDFExporter
	// Breaker, when set, stops launching Chrome after repeated export failures.
	Breaker *resilience.Breaker
	Logger  zerolog.Logger
}

// JSON returns the document view-model.
func (h *Handler) JSON(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.document(w, r)
	if !ok {
		return
	}
	common.Data(w, http.StatusOK, doc, nil)
}

// Preview renders the on-screen preview.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	h.renderHTML(w, r, h.Screen)
}

// PrintView renders the print layout.
func (h *Handler) PrintView(w http.ResponseWriter, r *http.Request) {
	h.renderHTML(w, r, h.Print)
}

// PrintPDF streams the print layout as a PDF attachment.
func (h *Handler) PrintPDF(w http.ResponseWriter, r *http.Request) {
	if h.PDF == nil {
		common.JSONError(w, http.StatusNotImplemented, "PDF_DISABLED", "pdf export not configured", nil)
		return
	}
	doc, ok := h.document(w, r)
	if !ok {
		return
	}
	var data []byte
	export := func(ctx context.Context) error {
		var err error
		data, err = h.PDF.Export(ctx, doc)
		return err
	}
	var err error
	if h.Breaker != nil {
		err = h.Breaker.Do(r.Context(), export)
	} else {
		err = export(r.Context())
	}
	if errors.Is(err, resilience.ErrOpenCircuit) {
		obs.ObserveRender("pdf", "rejected")
		w.Header().Set("Retry-After", "30")
		common.JSONError(w, http.StatusServiceUnavailable, "PDF_UNAVAILABLE", "pdf export temporarily unavailable", nil)
		return
	}
	if err != nil {
		obs.ObserveRender("pdf", "error")
		h.Logger.Error().Err(err).Msg("export pdf")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to export pdf", nil)
		return
	}
	obs.ObserveRender("pdf", "ok")
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+fileName(doc)+`.pdf"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) renderHTML(w http.ResponseWriter, r *http.Request, renderer Renderer) {
	if renderer == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "renderer not configured", nil)
		return
	}
	doc, ok := h.document(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := renderer.Render(&buf, doc); err != nil {
		obs.ObserveRender(renderer.Target(), "error")
		h.Logger.Error().Err(err).Str("target", renderer.Target()).Msg("render document")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to render document", nil)
		return
	}
	obs.ObserveRender(renderer.Target(), "ok")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) document(w http.ResponseWriter, r *http.Request) (Document, bool) {
	if h.Source == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "document source not configured", nil)
		return Document{}, false
	}
	doc, err := h.Source.Document(r.Context())
	if err != nil {
		h.Logger.Error().Err(err).Msg("build document")
		common.WriteAppError(w, err, http.StatusInternalServerError, "INTERNAL")
		return Document{}, false
	}
	return doc, true
}

func fileName(doc Document) string {
	for _, row := range doc.Info {
		if row.Label == "#" || row.Label == "Quote #" {
			if safe := sanitizeFileName(row.Value); safe != "" {
				return safe
			}
		}
	}
	return "document"
}

func sanitizeFileName(value string) string {
	out := make([]rune, 0, len(value))
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			out = append(out, r)
		}
	}
	return string(out)
}

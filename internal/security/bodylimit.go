package security

import (
	"net/http"

	"github.com/noah-isme/quotecalc/internal/common"
)

// BodyLimit caps upload sizes for the catalog and snapshot import routes.
type BodyLimit struct {
	Max int64
}

// Middleware answers 413 straight away when the declared Content-Length is over
// the limit. Other bodies are wrapped in http.MaxBytesReader; handlers turn the
// resulting *http.MaxBytesError into 413 themselves.
func (b BodyLimit) Middleware(next http.Handler) http.Handler {
	if b.Max <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > b.Max {
			TooLarge(w, b.Max)
			return
		}
		if r.Body != nil && r.Body != http.NoBody {
			r.Body = http.MaxBytesReader(w, r.Body, b.Max)
		}
		next.ServeHTTP(w, r)
	})
}

// TooLarge writes the 413 error body.
func TooLarge(w http.ResponseWriter, max int64) {
	common.JSONError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "request entity too large", map[string]any{"maxBytes": max})
}

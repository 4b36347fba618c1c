package security

import "net/http"

// DefaultContentSecurityPolicy lets the document views load inline styles and uploaded
// data-URL logos while blocking scripts.
const DefaultContentSecurityPolicy = "default-src 'none'; style-src 'unsafe-inline'; img-src data: https: http:; frame-ancestors 'self'"

// Headers sets the response headers shared by the API and the document views.
type Headers struct {
	Enable                bool
	ContentSecurityPolicy string
	// NoStore keeps client details in quotes and invoices out of browser and proxy caches.
	NoStore bool
}

// Middleware attaches the configured headers to each response.
func (h Headers) Middleware(next http.Handler) http.Handler {
	if !h.Enable {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers := w.Header()
		headers.Set("X-Content-Type-Options", "nosniff")
		// the screen preview is embedded by the local front-end
		headers.Set("X-Frame-Options", "SAMEORIGIN")
		headers.Set("Referrer-Policy", "no-referrer")
		headers.Set("Cross-Origin-Opener-Policy", "same-origin")
		if h.ContentSecurityPolicy != "" {
			headers.Set("Content-Security-Policy", h.ContentSecurityPolicy)
		}
		if h.NoStore {
			headers.Set("Cache-Control", "no-store")
		}
		next.ServeHTTP(w, r)
	})
}

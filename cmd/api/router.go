package main

import (
	"crypto/subtle"
	"net/http"
	"net/http/pprof"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/noah-isme/quotecalc/internal/catalog"
	"github.com/noah-isme/quotecalc/internal/config"
	"github.com/noah-isme/quotecalc/internal/health"
	"github.com/noah-isme/quotecalc/internal/invoice"
	"github.com/noah-isme/quotecalc/internal/obs"
	"github.com/noah-isme/quotecalc/internal/quote"
	"github.com/noah-isme/quotecalc/internal/ratelimit"
	"github.com/noah-isme/quotecalc/internal/security"
)

type routerDeps struct {
	Config      *config.Config
	Logger      zerolog.Logger
	Metrics     *obs.HTTPMetrics
	Catalog     *catalog.Catalog
	Quote       *quote.Service
	StoreProbe  health.Pinger
	Limiter     ratelimit.Limiter
	Invoice     *invoice.Handler
	MetricsPath http.Handler
}

func newRouter(d routerDeps) http.Handler {
	cfg := d.Config

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if d.Metrics != nil {
		r.Use(obs.HTTPObs{Metrics: d.Metrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: d.Logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins(cfg),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"Content-Disposition", "X-Request-ID"},
		MaxAge:         300,
	}))
	r.Use(security.Headers{Enable: true, ContentSecurityPolicy: security.DefaultContentSecurityPolicy, NoStore: true}.Middleware)

	if d.MetricsPath != nil {
		r.Handle("/metrics", d.MetricsPath)
	}
	if cfg.PprofEnabled {
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), cfg.PprofUser, cfg.PprofPass))
	}

	healthHandler := health.Handler{Store: d.StoreProbe, Catalog: d.Catalog}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	uploadLimit := throttle(d, "upload")
	bodyLimit := security.BodyLimit{Max: cfg.ImportMaxBytes}.Middleware
	catalogHandler := &catalog.Handler{Catalog: d.Catalog, Logger: d.Logger, MaxBytes: cfg.ImportMaxBytes}
	quoteHandler := &quote.Handler{Svc: d.Quote, Catalog: d.Catalog, ImportMiddleware: []func(http.Handler) http.Handler{uploadLimit, bodyLimit}}

	r.Route("/api/v1", func(v chi.Router) {
		v.Route("/catalog", func(c chi.Router) {
			c.Get("/", catalogHandler.List)
			c.Get("/categories", catalogHandler.Categories)
			c.With(uploadLimit, bodyLimit).Post("/import", catalogHandler.Import)
		})
		v.Route("/quote", func(q chi.Router) {
			q.Get("/document", d.Invoice.JSON)
			quoteHandler.Routes(q)
		})
	})

	r.Get("/quote/preview", d.Invoice.Preview)
	r.Get("/quote/print", d.Invoice.PrintView)
	r.With(throttle(d, "pdf")).Get("/quote/print.pdf", d.Invoice.PrintPDF)

	return r
}

// throttle budgets an expensive route group per client IP.
func throttle(d routerDeps, scope string) func(http.Handler) http.Handler {
	logger := d.Logger
	return ratelimit.Handler{
		Limiter: d.Limiter,
		Window:  d.Config.RateLimitWindow,
		Max:     d.Config.RateLimitMax,
		Scope:   scope,
		OnError: func(err error) { logger.Warn().Err(err).Str("scope", scope).Msg("rate limiter unavailable") },
	}.Middleware
}

func metricsHandler(cfg *config.Config) http.Handler {
	if !cfg.MetricsEnabled {
		return nil
	}
	return promhttp.Handler()
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"http://localhost:*", "http://127.0.0.1:*"}
	}
	return cfg.CORSAllowedOrigins
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", pprof.Index)
	mux.HandleFunc("/cmdline", pprof.Cmdline)
	mux.HandleFunc("/profile", pprof.Profile)
	mux.HandleFunc("/symbol", pprof.Symbol)
	mux.HandleFunc("/trace", pprof.Trace)
	mux.Handle("/allocs", pprof.Handler("allocs"))
	mux.Handle("/goroutine", pprof.Handler("goroutine"))
	mux.Handle("/heap", pprof.Handler("heap"))
	mux.Handle("/mutex", pprof.Handler("mutex"))
	return mux
}

func protectPprof(handler http.Handler, user, pass string) http.Handler {
	user = strings.TrimSpace(user)
	pass = strings.TrimSpace(pass)
	if user == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 || subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", "Basic realm=restricted")
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}

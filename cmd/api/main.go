package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/quotecalc/internal/catalog"
	"github.com/noah-isme/quotecalc/internal/config"
	"github.com/noah-isme/quotecalc/internal/health"
	"github.com/noah-isme/quotecalc/internal/invoice"
	"github.com/noah-isme/quotecalc/internal/obs"
	"github.com/noah-isme/quotecalc/internal/pricing"
	"github.com/noah-isme/quotecalc/internal/quote"
	"github.com/noah-isme/quotecalc/internal/ratelimit"
	"github.com/noah-isme/quotecalc/internal/resilience"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("env", cfg.AppEnv).Logger()

	obs.MustRegisterDomainMetrics(cfg.MetricsNamespace, nil)
	resilience.MustRegisterMetrics(cfg.MetricsNamespace, nil)
	var httpMetrics *obs.HTTPMetrics
	if cfg.MetricsEnabled {
		httpMetrics = obs.NewHTTPMetrics(cfg.MetricsNamespace, obs.ParseBucketsCSV(cfg.MetricsBucketsMS), nil)
	}

	items := loadCatalog(cfg, logger)
	cat := catalog.New(items)

	backend, err := openStore(cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("open quote store")
	}
	defer backend.Close()

	svc := quote.NewService(backend.Store, logger.With().Str("component", "quote").Logger())
	svc.Money = invoice.Money{Symbol: cfg.CurrencySymbol, Code: cfg.CurrencyCode}
	if err := svc.Load(context.Background()); err != nil {
		logger.Error().Err(err).Msg("restore quote; starting empty")
	}

	invoiceHandler, err := newInvoiceHandler(cfg, svc, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("load document templates")
	}

	handler := newRouter(routerDeps{
		Config:      cfg,
		Logger:      logger,
		Metrics:     httpMetrics,
		Catalog:     cat,
		Quote:       svc,
		StoreProbe:  backend.Probe,
		Limiter:     backend.Limiter,
		Invoice:     invoiceHandler,
		MetricsPath: metricsHandler(cfg),
	})

	srv := &http.Server{
		Addr:    cfg.HTTPAddr(),
		Handler: handler,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		health.SetReady(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown server")
		}
	}()

	logger.Info().Str("addr", srv.Addr).Int("catalog_items", cat.Len()).Str("store", cfg.StoreDriver).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server exited unexpectedly")
	}

	if err := svc.Save(context.Background()); err != nil {
		logger.Error().Err(err).Msg("final quote save")
	}
	logger.Info().Msg("server stopped")
}

func loadCatalog(cfg *config.Config, logger zerolog.Logger) []pricing.Item {
	if cfg.CatalogPath == "" {
		logger.Warn().Msg("CATALOG_PATH not set; catalog starts empty")
		return nil
	}
	items, err := catalog.LoadFile(cfg.CatalogPath)
	if err != nil {
		obs.ObserveCatalogImport("file", "error")
		logger.Error().Err(err).Str("path", cfg.CatalogPath).Msg("load catalog; starting empty")
		return nil
	}
	obs.ObserveCatalogImport("file", "ok")
	logger.Info().Str("path", cfg.CatalogPath).Int("items", len(items)).Msg("catalog loaded")
	return items
}

type storeBackend struct {
	Store   quote.Store
	Probe   health.Pinger
	Limiter ratelimit.Limiter
	Close   func()
}

// openStore builds the quote store for STORE_DRIVER. A Redis deployment also
// shares its rate-limit counters through Redis.
func openStore(cfg *config.Config) (storeBackend, error) {
	switch cfg.StoreDriver {
	case config.StoreMemory:
		return storeBackend{Store: quote.NewMemoryStore(), Limiter: ratelimit.NewMemoryLimiter(), Close: func() {}}, nil
	case config.StoreRedis:
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return storeBackend{}, err
		}
		client := redis.NewClient(opts)
		store := quote.NewRedisStore(client, cfg.StoreKey, cfg.StoreTTL)
		return storeBackend{
			Store:   store,
			Probe:   store,
			Limiter: ratelimit.RedisLimiter{Client: client, Prefix: "quotecalc:ratelimit:"},
			Close:   func() { _ = client.Close() },
		}, nil
	default:
		store := quote.NewFileStore(cfg.StorePath)
		return storeBackend{Store: store, Probe: store, Limiter: ratelimit.NewMemoryLimiter(), Close: func() {}}, nil
	}
}

func newInvoiceHandler(cfg *config.Config, src invoice.DocumentSource, logger zerolog.Logger) (*invoice.Handler, error) {
	screen, err := invoice.NewScreenRenderer()
	if err != nil {
		return nil, err
	}
	printer, err := invoice.NewPrintRenderer()
	if err != nil {
		return nil, err
	}
	h := &invoice.Handler{Source: src, Screen: screen, Print: printer, Logger: logger.With().Str("component", "invoice").Logger()}
	if cfg.PDFEnabled {
		h.PDF = &invoice.PDFExporter{Print: printer, ChromePath: cfg.ChromePath, Timeout: cfg.PDFTimeout}
		h.Breaker = resilience.NewBreaker(3, 0.5, time.Minute).WithTarget("chrome").WithLogger(h.Logger)
	}
	return h, nil
}

package health

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"
)

var ready atomic.Bool

func init() {
	ready.Store(true)
}

// SetReady flips the readiness flag, e.g. to drain traffic during shutdown.
func SetReady(v bool) {
	ready.Store(v)
}

// Pinger is a dependency that can be probed for readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Counter reports how many items a dependency holds.
type Counter interface {
	Len() int
}

// Handler exposes HTTP handlers for health endpoints.
type Handler struct {
	Store        Pinger
	Catalog      Counter
	StoreTimeout time.Duration
}

// Live reports liveness status.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready reports readiness based on the quote store probe.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"store": "ok"}
	ok := ready.Load()
	if !ok {
		status["server"] = "shutting down"
	}
	if h.Store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), h.storeTimeout())
		err := h.Store.Ping(ctx)
		cancel()
		if err != nil {
			status["store"] = err.Error()
			ok = false
		}
	}
	if h.Catalog != nil {
		status["catalog"] = strconv.Itoa(h.Catalog.Len()) + " items"
	}
	w.Header().Set("Content-Type", "application/json")
	if ok {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(status)
}

func (h Handler) storeTimeout() time.Duration {
	if h.StoreTimeout <= 0 {
		return 500 * time.Millisecond
	}
	return h.StoreTimeout
}

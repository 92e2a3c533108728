// Package server exposes the bot's small operational HTTP surface: liveness,
// status, and Prometheus metrics.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/onnwee/clip-courier/db"
	"github.com/onnwee/clip-courier/pipeline"
)

// Deps are the collaborators surfaced by the status endpoints. Store may be
// nil when no database is configured.
type Deps struct {
	Store   *db.Store
	Limiter *pipeline.Limiter
	Started time.Time
}

// NewMux builds the operational route table.
func NewMux(deps Deps) *http.ServeMux {
	h := &handlers{deps: deps}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", h.handleHealthz)
	mux.HandleFunc("/status", h.handleStatus)
	return mux
}

// Start runs the HTTP server and shuts down gracefully on context
// cancellation.
func Start(ctx context.Context, addr string, deps Deps) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      NewMux(deps),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("http server shutdown error", slog.Any("err", err))
		}
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("http server error", slog.Any("err", err))
		return err
	}
	return nil
}

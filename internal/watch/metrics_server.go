package watch

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"git.home.luguber.info/inful/docgallery/internal/logfields"
)

// ServeMetrics exposes the Prometheus handler on addr until the context is
// canceled. Intended for watch mode, where the process is long-lived.
func ServeMetrics(ctx context.Context, addr string, handler http.Handler) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("metrics server shutdown failed", logfields.Error(err))
		}
	}()

	slog.Info("serving metrics", slog.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("metrics server failed", logfields.Error(err))
	}
}

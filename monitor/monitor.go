package monitor

import (
	"context"
	"fmt"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Config structure
type Config struct {
	Enabled bool
	Port    int
}

var srv *http.Server

// NewHandler exposes prometheus metrics and the profiling endpoints
func NewHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	return mux
}

// LoopProfilingServer blocks serving the monitoring endpoints when enabled
func LoopProfilingServer(cfg Config) {
	if !cfg.Enabled {
		return
	}
	srv = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           NewHandler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	log.Info().Str("section", "monitor").Int("port", cfg.Port).Msg("Starting monitoring server")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Str("section", "monitor").Msg("Monitoring server stopped")
	}
}

func ShutdownServer() {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Str("section", "monitor").Msg("Unable to shutdown monitoring server")
	}
}

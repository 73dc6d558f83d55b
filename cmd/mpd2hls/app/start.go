package app

import (
	"context"
	"fmt"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/streambridge/mpd2hls/internal"
	"github.com/streambridge/mpd2hls/pkg/drm"
	"github.com/streambridge/mpd2hls/pkg/logging"
	"github.com/streambridge/mpd2hls/pkg/origin"
	"github.com/streambridge/mpd2hls/pkg/prefetch"
	"github.com/streambridge/mpd2hls/pkg/proxyurl"
)

// SetupServer sets up router, middleware, and server, given koanf configuration.
func SetupServer(ctx context.Context, cfg *ServerConfig) (*Server, error) {
	logger := logging.GetGlobalLogger()

	codec, err := proxyurl.New(cfg.URLSecret)
	if err != nil {
		return nil, fmt.Errorf("url codec: %w", err)
	}
	originClient := origin.New(time.Duration(cfg.OriginTimeoutS) * time.Second)
	var prefetcher *prefetch.Prefetcher
	if cfg.Prefetch {
		prefetcher = prefetch.New(ctx, originClient, cfg.PrefetchSegments,
			time.Duration(cfg.PrefetchTTLS)*time.Second)
	}

	server := Server{
		Cfg:        cfg,
		codec:      codec,
		decrypter:  drm.NewDecrypter(),
		origin:     originClient,
		prefetcher: prefetcher,
		startTime:  time.Now(),
	}

	// All middleware must be registered before the first route is mounted.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(logging.ZerologMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(addVersionAndCORSHeaders)
	r.Use(NewPrometheusMiddleware())

	// Set a timeout value on the request context (ctx), that will signal
	// through ctx.Done() that the request has timed out and further
	// processing should be stopped.
	if cfg.TimeoutS > 0 {
		r.Use(middleware.Timeout(time.Duration(cfg.TimeoutS) * time.Second))
	}

	// Expand encrypted proxy URLs before any handler sees the query.
	r.Use(server.expandTokenParams)

	r.Mount("/metrics", promhttp.Handler())

	server.Router = r
	if err := server.Routes(ctx); err != nil {
		return nil, fmt.Errorf("routes: %w", err)
	}

	logger.Info().Str("version", internal.GetVersion()).Int("port", cfg.Port).
		Bool("prefetch", cfg.Prefetch).Msg("mpd2hls starting")

	return &server, nil
}

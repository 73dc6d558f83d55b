package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"

	"github.com/streambridge/mpd2hls/internal"
)

type statusResponse struct {
	Body struct {
		Version       string `json:"version" doc:"Server version"`
		UptimeS       int64  `json:"uptimeS" doc:"Uptime in seconds"`
		Prefetch      bool   `json:"prefetch" doc:"Whether background cache warming is enabled"`
		CachedEntries int    `json:"cachedEntries" doc:"Entries in the prefetch cache"`
	}
}

type prefetchRequest struct {
	Body struct {
		ManifestURL string `json:"manifestURL" doc:"MPD URL to warm" example:"https://origin.example.com/Manifest.mpd"`
	}
}

type prefetchResponse struct {
	Body struct {
		Started bool `json:"started" doc:"Whether warming was started"`
	}
}

// apiRoutes registers the status API via huma.
func (s *Server) apiRoutes() {
	config := huma.DefaultConfig("mpd2hls API", internal.GetVersion())
	api := humachi.New(s.Router, config)

	huma.Register(api, huma.Operation{
		OperationID: "get-status",
		Method:      http.MethodGet,
		Path:        "/api/status",
		Summary:     "Server status",
	}, func(ctx context.Context, _ *struct{}) (*statusResponse, error) {
		resp := &statusResponse{}
		resp.Body.Version = internal.GetVersion()
		resp.Body.UptimeS = int64(time.Since(s.startTime).Seconds())
		resp.Body.Prefetch = s.prefetcher != nil
		if s.prefetcher != nil {
			resp.Body.CachedEntries = s.prefetcher.CacheLen()
		}
		return resp, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "start-prefetch",
		Method:      http.MethodPost,
		Path:        "/api/prefetch",
		Summary:     "Warm the segment cache for a manifest",
	}, func(ctx context.Context, req *prefetchRequest) (*prefetchResponse, error) {
		if s.prefetcher == nil {
			return nil, huma.Error409Conflict("prefetch is disabled")
		}
		if req.Body.ManifestURL == "" {
			return nil, huma.Error400BadRequest("manifestURL is required")
		}
		mpdURL := req.Body.ManifestURL
		go func() {
			if err := s.prefetcher.Warm(context.Background(), mpdURL, nil); err != nil {
				slog.Error("prefetch failed", "url", mpdURL, "err", err)
			}
		}()
		resp := &prefetchResponse{}
		resp.Body.Started = true
		return resp, nil
	})
}

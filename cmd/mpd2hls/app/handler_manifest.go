package app

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/streambridge/mpd2hls/pkg/hls"
	"github.com/streambridge/mpd2hls/pkg/logging"
)

// manifestHandlerFunc translates the origin MPD into an HLS master playlist.
// When prefetch is enabled, cache warming runs detached and never delays or
// fails the response.
func (s *Server) manifestHandlerFunc(w http.ResponseWriter, r *http.Request) {
	log := logging.SubLoggerWithRequestID(slog.Default(), r)
	q := r.URL.Query()
	mpdURL := q.Get(manifestURLParam)
	if mpdURL == "" {
		http.Error(w, "missing d parameter", http.StatusBadRequest)
		return
	}
	headers := forwardHeaders(q)
	man, err := s.loadManifest(r.Context(), mpdURL, headers)
	if err != nil {
		log.Error("load manifest", "url", mpdURL, "err", err)
		http.Error(w, "cannot load manifest from origin", http.StatusBadGateway)
		return
	}
	master, err := hls.BuildMaster(man, s.requestInfo(r), s.codec, q.Get("key_id"), q.Get("key"))
	if err != nil {
		log.Error("build master playlist", "url", mpdURL, "err", err)
		http.Error(w, "cannot build master playlist", http.StatusInternalServerError)
		return
	}

	if s.prefetcher != nil {
		// Detached from the request lifetime on purpose: the response goes
		// out regardless of how warming fares.
		go func() {
			if err := s.prefetcher.Warm(context.Background(), mpdURL, headers); err != nil {
				slog.Error("prefetch failed", "url", mpdURL, "err", err)
			}
		}()
	}

	s.writePlaylist(w, master)
}

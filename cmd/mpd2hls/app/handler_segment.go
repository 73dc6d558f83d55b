package app

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/streambridge/mpd2hls/pkg/logging"
	"github.com/streambridge/mpd2hls/pkg/segment"
)

// segmentHandlerFunc delivers one media segment: decrypted when key material
// is present, otherwise with the init segment prefixed.
func (s *Server) segmentHandlerFunc(w http.ResponseWriter, r *http.Request) {
	log := logging.SubLoggerWithRequestID(slog.Default(), r)
	q := r.URL.Query()
	initURL := q.Get("init_url")
	segURL := q.Get("segment_url")
	mimeType := q.Get("mime_type")
	if initURL == "" || segURL == "" {
		http.Error(w, "missing init_url or segment_url parameter", http.StatusBadRequest)
		return
	}
	if mimeType == "" {
		mimeType = "video/mp4"
	}
	headers := forwardHeaders(q)
	initData, err := s.fetchMedia(r.Context(), initURL, headers)
	if err != nil {
		log.Error("fetch init segment", "url", initURL, "err", err)
		http.Error(w, "cannot fetch init segment from origin", http.StatusBadGateway)
		return
	}
	segData, err := s.fetchMedia(r.Context(), segURL, headers)
	if err != nil {
		log.Error("fetch media segment", "url", segURL, "err", err)
		http.Error(w, "cannot fetch media segment from origin", http.StatusBadGateway)
		return
	}

	keyID, key := q.Get("key_id"), q.Get("key")
	start := time.Now()
	out, err := segment.Deliver(s.decrypter, initData, segData, mimeType, keyID, key)
	if err != nil {
		log.Error("segment delivery", "url", segURL, "err", err)
		http.Error(w, "segment decryption failed", http.StatusInternalServerError)
		return
	}
	if keyID != "" && key != "" {
		decryptLatency.Observe(float64(time.Since(start).Nanoseconds()) * 1e-6)
	}

	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Length", strconv.Itoa(len(out)))
	if _, err := w.Write(out); err != nil {
		log.Error("could not write segment response", "err", err)
	}
}

// fetchMedia serves segment bytes from the prefetch cache when possible.
func (s *Server) fetchMedia(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	if s.prefetcher != nil {
		if data, ok := s.prefetcher.Cached(url); ok {
			return data, nil
		}
	}
	return s.origin.Fetch(ctx, url, headers)
}

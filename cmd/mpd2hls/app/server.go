package app

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/streambridge/mpd2hls/pkg/drm"
	"github.com/streambridge/mpd2hls/pkg/origin"
	"github.com/streambridge/mpd2hls/pkg/prefetch"
	"github.com/streambridge/mpd2hls/pkg/proxyurl"
)

const hlsMediaType = "application/vnd.apple.mpegurl"

type Server struct {
	Router     *chi.Mux
	Cfg        *ServerConfig
	codec      *proxyurl.Codec
	decrypter  *drm.Decrypter
	origin     *origin.Client
	prefetcher *prefetch.Prefetcher
	startTime  time.Time
}

func (s *Server) healthzHandlerFunc(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, true, http.StatusOK)
}

func (s *Server) optionsHandlerFunc(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "*")
	w.WriteHeader(http.StatusNoContent)
}

// jsonResponse marshals message and gives a response with code
//
// Don't add any more content after this since Content-Length is set
func (s *Server) jsonResponse(w http.ResponseWriter, message any, code int) {
	raw, err := json.Marshal(message)
	if err != nil {
		http.Error(w, fmt.Sprintf("{message: \"%s\"}", err), http.StatusInternalServerError)
		slog.Error(err.Error())
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(raw)))
	w.WriteHeader(code)
	_, err = w.Write(raw)
	if err != nil {
		slog.Error("could not write HTTP response", "err", err)
	}
}

// writePlaylist responds with HLS playlist text.
func (s *Server) writePlaylist(w http.ResponseWriter, text string) {
	w.Header().Set("Content-Type", hlsMediaType)
	w.Header().Set("Content-Length", strconv.Itoa(len(text)))
	_, err := w.Write([]byte(text))
	if err != nil {
		slog.Error("could not write playlist response", "err", err)
	}
}

package app

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/streambridge/mpd2hls/pkg/hls"
	"github.com/streambridge/mpd2hls/pkg/logging"
)

// playlistHandlerFunc renders the HLS media playlist for one profile id.
func (s *Server) playlistHandlerFunc(w http.ResponseWriter, r *http.Request) {
	log := logging.SubLoggerWithRequestID(slog.Default(), r)
	q := r.URL.Query()
	mpdURL := q.Get(manifestURLParam)
	profileID := q.Get("profile_id")
	if mpdURL == "" || profileID == "" {
		http.Error(w, "missing d or profile_id parameter", http.StatusBadRequest)
		return
	}
	man, err := s.loadManifest(r.Context(), mpdURL, forwardHeaders(q))
	if err != nil {
		log.Error("load manifest", "url", mpdURL, "err", err)
		http.Error(w, "cannot load manifest from origin", http.StatusBadGateway)
		return
	}
	profiles, err := matchProfiles(man, profileID)
	if err != nil {
		if errors.Is(err, errNotFound) {
			http.Error(w, "profile not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	media, err := hls.BuildMedia(man, profiles, s.requestInfo(r), s.codec)
	if err != nil {
		log.Error("build media playlist", "url", mpdURL, "profile", profileID, "err", err)
		http.Error(w, "cannot build media playlist", http.StatusInternalServerError)
		return
	}
	s.writePlaylist(w, media)
}

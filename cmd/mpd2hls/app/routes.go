package app

import (
	"context"

	"github.com/streambridge/mpd2hls/pkg/logging"
)

// Paths of the three proxy endpoints. The playlist and segment URLs emitted
// into generated playlists point back at these.
const (
	manifestPath = "/proxy/mpd/manifest.m3u8"
	playlistPath = "/proxy/mpd/playlist.m3u8"
	segmentPath  = "/proxy/mpd/segment.mp4"
)

// Routes defines dispatches for all routes.
func (s *Server) Routes(ctx context.Context) error {
	for _, route := range logging.LogRoutes {
		s.Router.MethodFunc(route.Method, route.Path, route.Handler)
	}
	s.Router.MethodFunc("GET", "/healthz", s.healthzHandlerFunc)
	s.Router.MethodFunc("GET", manifestPath, s.manifestHandlerFunc)
	s.Router.MethodFunc("HEAD", manifestPath, s.manifestHandlerFunc)
	s.Router.MethodFunc("GET", playlistPath, s.playlistHandlerFunc)
	s.Router.MethodFunc("GET", segmentPath, s.segmentHandlerFunc)
	s.Router.MethodFunc("OPTIONS", "/*", s.optionsHandlerFunc)
	s.apiRoutes()
	return nil
}

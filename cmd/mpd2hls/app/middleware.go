package app

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/streambridge/mpd2hls/internal"
	"github.com/streambridge/mpd2hls/pkg/proxyurl"
)

func addVersionAndCORSHeaders(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Mpd2hls-Version", internal.GetVersion())
		w.Header().Add("Access-Control-Allow-Origin", "*")
		next.ServeHTTP(w, r)
	}
	return http.HandlerFunc(fn)
}

// expandTokenParams restores the query parameters of encrypted proxy URLs.
// Requests carrying a token parameter get their query replaced with the
// sealed parameter set, plus has_encrypted=true so that playlists generated
// from this request keep emitting encrypted URLs.
func (s *Server) expandTokenParams(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get(proxyurl.TokenParam)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}
		params, err := s.codec.Decode(token)
		if err != nil {
			slog.Warn("bad proxy url token", "err", err)
			http.Error(w, "bad token", http.StatusBadRequest)
			return
		}
		vals := url.Values{}
		for k, v := range params {
			vals.Set(k, v)
		}
		vals.Set("has_encrypted", "true")
		r.URL.RawQuery = vals.Encode()
		next.ServeHTTP(w, r)
	}
	return http.HandlerFunc(fn)
}

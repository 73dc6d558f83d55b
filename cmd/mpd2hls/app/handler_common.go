package app

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/streambridge/mpd2hls/pkg/hls"
	"github.com/streambridge/mpd2hls/pkg/mpd"
)

// manifestURLParam carries the origin MPD URL on every proxied request.
const manifestURLParam = "d"

// forwardHeaderPrefix marks query parameters that should be forwarded to the
// origin as HTTP headers, with the prefix stripped.
const forwardHeaderPrefix = "h_"

// originalScheme returns the scheme of the original client request, looking
// through TLS-terminating proxies.
func originalScheme(r *http.Request) string {
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		return proto
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}

// requestInfo captures the query parameters and the absolute proxy endpoint
// URLs for one request.
func (s *Server) requestInfo(r *http.Request) hls.RequestInfo {
	query := make(map[string]string)
	for k, v := range r.URL.Query() {
		if len(v) > 0 {
			query[k] = v[0]
		}
	}
	base := originalScheme(r) + "://" + r.Host
	return hls.RequestInfo{
		Query:            query,
		PlaylistEndpoint: base + playlistPath,
		SegmentEndpoint:  base + segmentPath,
	}
}

// forwardHeaders extracts h_-prefixed query parameters as origin headers.
func forwardHeaders(query url.Values) map[string]string {
	headers := make(map[string]string)
	for k, v := range query {
		if strings.HasPrefix(k, forwardHeaderPrefix) && len(v) > 0 {
			headers[strings.TrimPrefix(k, forwardHeaderPrefix)] = v[0]
		}
	}
	return headers
}

// loadManifest fetches and parses the MPD named by the d query parameter.
func (s *Server) loadManifest(ctx context.Context, mpdURL string, headers map[string]string) (*mpd.Manifest, error) {
	data, err := s.origin.Fetch(ctx, mpdURL, headers)
	if err != nil {
		return nil, fmt.Errorf("fetch manifest: %w", err)
	}
	man, err := mpd.Parse(data, mpdURL)
	if err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return man, nil
}

// matchProfiles returns the profiles with the given id, in manifest order.
func matchProfiles(man *mpd.Manifest, profileID string) ([]*mpd.Profile, error) {
	matching := man.ProfilesByID(profileID)
	if len(matching) == 0 {
		return nil, fmt.Errorf("profile %q: %w", profileID, errNotFound)
	}
	return matching, nil
}

// Package hls builds HLS master and media playlists from a parsed DASH
// manifest, rewriting all media references into proxy URLs.
package hls

import (
	"fmt"
	"strings"
)

// URLEncoder builds an opaque proxy URL from an endpoint and query
// parameters. When encrypt is true the full parameter set is hidden inside
// an opaque token.
type URLEncoder interface {
	Encode(endpoint string, params map[string]string, encrypt bool) (string, error)
}

// RequestInfo carries the request-scoped data the builders need: the current
// query parameters and the absolute playlist/segment endpoint URLs honoring
// the original request scheme.
type RequestInfo struct {
	Query            map[string]string
	PlaylistEndpoint string
	SegmentEndpoint  string
}

// playlist is an append-only line buffer for m3u8 text.
// Lines are joined with \n and there is no trailing newline.
type playlist struct {
	lines []string
}

func newPlaylist() *playlist {
	return &playlist{lines: []string{"#EXTM3U", "#EXT-X-VERSION:6"}}
}

func (p *playlist) add(line string) {
	p.lines = append(p.lines, line)
}

func (p *playlist) addf(format string, args ...any) {
	p.lines = append(p.lines, fmt.Sprintf(format, args...))
}

func (p *playlist) String() string {
	return strings.Join(p.lines, "\n")
}

func cloneParams(params map[string]string) map[string]string {
	out := make(map[string]string, len(params))
	for k, v := range params {
		out[k] = v
	}
	return out
}

// popHasEncrypted removes the has_encrypted flag from params and reports
// whether it was set to "true" (case-insensitive).
func popHasEncrypted(params map[string]string) bool {
	v, ok := params["has_encrypted"]
	if !ok {
		return false
	}
	delete(params, "has_encrypted")
	return strings.EqualFold(v, "true")
}

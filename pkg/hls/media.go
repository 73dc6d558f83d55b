package hls

import (
	"fmt"
	"log/slog"

	"github.com/streambridge/mpd2hls/pkg/mpd"
)

// BuildMedia renders one HLS media playlist from the given profiles, normally
// the set sharing a profile id. Profiles are processed in the given order and
// are never reordered or deduplicated: the first profile with segments drives
// the target-duration and media-sequence header tags. Profiles without
// segments are skipped with a warning.
func BuildMedia(man *mpd.Manifest, profiles []*mpd.Profile, req RequestInfo, enc URLEncoder) (string, error) {
	params := cloneParams(req.Query)
	delete(params, "profile_id")
	delete(params, "d")
	hasEncrypted := popHasEncrypted(params)

	pl := newPlaylist()
	wroteHeader := false
	added := 0
	for _, p := range profiles {
		if len(p.Segments) == 0 {
			slog.Warn("no segments found for profile", "profile", p.ID)
			continue
		}
		if !wroteHeader {
			targetDuration, sequence := DeriveSequence(p, man.IsLive)
			pl.addf("#EXT-X-TARGETDURATION:%d", targetDuration)
			pl.addf("#EXT-X-MEDIA-SEQUENCE:%d", sequence)
			playlistType := "VOD"
			if man.IsLive {
				playlistType = "LIVE"
			}
			pl.addf("#EXT-X-PLAYLIST-TYPE:%s", playlistType)
			wroteHeader = true
		}
		for _, seg := range p.Segments {
			sp := cloneParams(params)
			sp["init_url"] = p.InitURL
			sp["segment_url"] = seg.Media
			sp["mime_type"] = p.MimeType
			segmentURL, err := enc.Encode(req.SegmentEndpoint, sp, hasEncrypted)
			if err != nil {
				return "", fmt.Errorf("encode segment url for profile %s: %w", p.ID, err)
			}
			pl.addf("#EXTINF:%.3f,", seg.ExtInf)
			pl.add(segmentURL)
			added++
		}
	}
	if !man.IsLive {
		pl.add("#EXT-X-ENDLIST")
	}
	slog.Info("built media playlist", "segments", added)
	return pl.String(), nil
}

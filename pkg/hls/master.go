package hls

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/streambridge/mpd2hls/pkg/mpd"
)

type profileURL struct {
	profile *mpd.Profile
	url     string
}

// BuildMaster renders the HLS master playlist for a manifest. Every profile
// gets a proxied media-playlist URL carrying the current query parameters
// plus profile_id, key_id, and key. Profiles whose mimeType names neither
// video nor audio are left out.
func BuildMaster(man *mpd.Manifest, req RequestInfo, enc URLEncoder, keyID, key string) (string, error) {
	params := cloneParams(req.Query)
	hasEncrypted := popHasEncrypted(params)

	var audio, video []profileURL
	for _, p := range man.Profiles {
		pp := cloneParams(params)
		pp["profile_id"] = p.ID
		pp["key_id"] = keyID
		pp["key"] = key
		playlistURL, err := enc.Encode(req.PlaylistEndpoint, pp, hasEncrypted)
		if err != nil {
			return "", fmt.Errorf("encode playlist url for profile %s: %w", p.ID, err)
		}
		switch {
		case strings.Contains(p.MimeType, "video"):
			video = append(video, profileURL{profile: p, url: playlistURL})
		case strings.Contains(p.MimeType, "audio"):
			audio = append(audio, profileURL{profile: p, url: playlistURL})
		default:
			slog.Debug("profile not representable in master playlist",
				"profile", p.ID, "mimeType", p.MimeType)
		}
	}

	pl := newPlaylist()
	for i, a := range audio {
		isDefault := "NO"
		if i == 0 {
			isDefault = "YES"
		}
		lang := a.profile.Lang
		if lang == "" {
			lang = "und"
		}
		pl.addf(`#EXT-X-MEDIA:TYPE=AUDIO,GROUP-ID="audio",NAME="%s",DEFAULT=%s,AUTOSELECT=%s,LANGUAGE="%s",URI="%s"`,
			a.profile.ID, isDefault, isDefault, lang, a.url)
	}
	for _, v := range video {
		p := v.profile
		if p.Bandwidth == 0 {
			slog.Warn("skipping video profile without bandwidth", "profile", p.ID)
			continue
		}
		audioAttr := ""
		if len(audio) > 0 {
			audioAttr = `,AUDIO="audio"`
		}
		pl.addf(`#EXT-X-STREAM-INF:BANDWIDTH=%d,RESOLUTION=%dx%d,CODECS="%s",FRAME-RATE=%s%s`,
			p.Bandwidth, p.Width, p.Height, p.Codecs, p.FrameRate, audioAttr)
		pl.add(v.url)
	}
	return pl.String(), nil
}

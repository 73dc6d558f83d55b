package hls

import (
	"fmt"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streambridge/mpd2hls/pkg/mpd"
)

// queryEncoder renders params as a plain sorted query string. The encrypt
// flag is recorded so tests can check that has_encrypted is honored.
type queryEncoder struct {
	sawEncrypt bool
}

func (e *queryEncoder) Encode(endpoint string, params map[string]string, encrypt bool) (string, error) {
	if encrypt {
		e.sawEncrypt = true
	}
	vals := url.Values{}
	for k, v := range params {
		vals.Set(k, v)
	}
	return endpoint + "?" + vals.Encode(), nil
}

type failEncoder struct{}

func (failEncoder) Encode(string, map[string]string, bool) (string, error) {
	return "", fmt.Errorf("encoder broken")
}

func testRequestInfo(query map[string]string) RequestInfo {
	return RequestInfo{
		Query:            query,
		PlaylistEndpoint: "https://proxy.example.com/proxy/mpd/playlist.m3u8",
		SegmentEndpoint:  "https://proxy.example.com/proxy/mpd/segment.mp4",
	}
}

func avManifest() *mpd.Manifest {
	return &mpd.Manifest{
		Profiles: []*mpd.Profile{
			{
				ID: "video=1", MimeType: "video/mp4", Bandwidth: 3_000_000,
				Width: 1280, Height: 720, Codecs: "avc1.64001f", FrameRate: "25",
			},
			{
				ID: "audio=1", MimeType: "audio/mp4", Bandwidth: 96_000,
				Codecs: "mp4a.40.2", Lang: "en",
			},
			{
				ID: "audio=2", MimeType: "audio/mp4", Bandwidth: 96_000,
				Codecs: "mp4a.40.2", Lang: "sv",
			},
		},
	}
}

func TestBuildMaster(t *testing.T) {
	enc := &queryEncoder{}
	req := testRequestInfo(map[string]string{"d": "https://origin.example.com/a.mpd"})
	out, err := BuildMaster(avManifest(), req, enc, "", "")
	require.NoError(t, err)
	lines := strings.Split(out, "\n")
	require.Equal(t, "#EXTM3U", lines[0])
	require.Equal(t, "#EXT-X-VERSION:6", lines[1])

	assert.Contains(t, out, `#EXT-X-MEDIA:TYPE=AUDIO,GROUP-ID="audio",NAME="audio=1",DEFAULT=YES,AUTOSELECT=YES,LANGUAGE="en"`)
	assert.Contains(t, out, `NAME="audio=2",DEFAULT=NO,AUTOSELECT=NO,LANGUAGE="sv"`)
	assert.Equal(t, 1, strings.Count(out, "DEFAULT=YES"), "exactly one default audio track")

	assert.Contains(t, out, `#EXT-X-STREAM-INF:BANDWIDTH=3000000,RESOLUTION=1280x720,CODECS="avc1.64001f",FRAME-RATE=25,AUDIO="audio"`)
	assert.Contains(t, out, "profile_id=video%3D1")
	assert.Contains(t, out, "d=https%3A%2F%2Forigin.example.com%2Fa.mpd")
	assert.False(t, enc.sawEncrypt)
	assert.False(t, strings.HasSuffix(out, "\n"), "no trailing newline")
}

func TestBuildMasterVideoOnly(t *testing.T) {
	man := &mpd.Manifest{
		Profiles: []*mpd.Profile{
			{
				ID: "v0", MimeType: "video/mp4", Bandwidth: 1_000_000,
				Width: 640, Height: 360, Codecs: "avc1.64001e", FrameRate: "25",
			},
		},
	}
	out, err := BuildMaster(man, testRequestInfo(nil), &queryEncoder{}, "", "")
	require.NoError(t, err)
	assert.NotContains(t, out, "#EXT-X-MEDIA")
	assert.NotContains(t, out, `AUDIO="audio"`, "no audio group reference without audio tracks")
	assert.Contains(t, out, "#EXT-X-STREAM-INF:BANDWIDTH=1000000")
}

func TestBuildMasterSkipsMalformedAndForeignProfiles(t *testing.T) {
	man := &mpd.Manifest{
		Profiles: []*mpd.Profile{
			{ID: "v0", MimeType: "video/mp4", Bandwidth: 0},
			{ID: "t0", MimeType: "application/ttml+xml", Bandwidth: 2000},
			{
				ID: "v1", MimeType: "video/mp4", Bandwidth: 2_000_000,
				Width: 1280, Height: 720, Codecs: "avc1.64001f", FrameRate: "25",
			},
		},
	}
	out, err := BuildMaster(man, testRequestInfo(nil), &queryEncoder{}, "", "")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "#EXT-X-STREAM-INF"))
	assert.NotContains(t, out, "ttml")
}

func TestBuildMasterKeyAndEncryptForwarding(t *testing.T) {
	enc := &queryEncoder{}
	req := testRequestInfo(map[string]string{"has_encrypted": "true"})
	out, err := BuildMaster(avManifest(), req, enc, "kid01", "key01")
	require.NoError(t, err)
	assert.True(t, enc.sawEncrypt, "has_encrypted=true must request encrypted URLs")
	assert.NotContains(t, out, "has_encrypted", "flag itself is not forwarded")
	assert.Contains(t, out, "key_id=kid01")
	assert.Contains(t, out, "key=key01")
}

func TestBuildMasterDeterministic(t *testing.T) {
	enc := &queryEncoder{}
	req := testRequestInfo(map[string]string{"d": "https://origin.example.com/a.mpd"})
	first, err := BuildMaster(avManifest(), req, enc, "", "")
	require.NoError(t, err)
	second, err := BuildMaster(avManifest(), req, enc, "", "")
	require.NoError(t, err)
	assert.Equal(t, first, second, "same input gives byte-identical playlist")
}

func TestBuildMasterEncoderError(t *testing.T) {
	_, err := BuildMaster(avManifest(), testRequestInfo(nil), failEncoder{}, "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "encoder broken")
}

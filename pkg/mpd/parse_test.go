package mpd

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mpdURL = "https://origin.example.com/path/manifest.mpd"

const timelineTimeMPD = `<?xml version="1.0" encoding="utf-8"?>
<MPD xmlns="urn:mpeg:dash:schema:mpd:2011" type="static" mediaPresentationDuration="PT8S"
     minBufferTime="PT2S" profiles="urn:mpeg:dash:profile:isoff-live:2011">
  <Period id="P0">
    <AdaptationSet mimeType="video/mp4" frameRate="25" contentType="video" segmentAlignment="true">
      <SegmentTemplate timescale="1000" initialization="$RepresentationID$/init.mp4"
                       media="$RepresentationID$/$Time$.m4s">
        <SegmentTimeline>
          <S t="0" d="4000" r="1"/>
        </SegmentTimeline>
      </SegmentTemplate>
      <Representation id="video=1" bandwidth="3000000" width="1280" height="720" codecs="avc1.64001f"/>
    </AdaptationSet>
    <AdaptationSet mimeType="audio/mp4" lang="en" contentType="audio" segmentAlignment="true">
      <SegmentTemplate timescale="48000" initialization="$RepresentationID$/init.mp4"
                       media="$RepresentationID$/$Time$.m4s">
        <SegmentTimeline>
          <S t="0" d="192000" r="1"/>
        </SegmentTimeline>
      </SegmentTemplate>
      <Representation id="audio=1" bandwidth="96000" codecs="mp4a.40.2"/>
    </AdaptationSet>
  </Period>
</MPD>`

func TestParseTimelineTime(t *testing.T) {
	man, err := Parse([]byte(timelineTimeMPD), mpdURL)
	require.NoError(t, err)
	assert.False(t, man.IsLive)
	assert.Empty(t, man.DefaultKID)
	require.Len(t, man.Profiles, 2)

	want := &Profile{
		ID:        "video=1",
		MimeType:  "video/mp4",
		Bandwidth: 3_000_000,
		Width:     1280,
		Height:    720,
		Codecs:    "avc1.64001f",
		FrameRate: "25",
		Lang:      "und",
		InitURL:   "https://origin.example.com/path/video=1/init.mp4",
		Segments: []Segment{
			{ExtInf: 4, Media: "https://origin.example.com/path/video=1/0.m4s", Time: ptr(int64(0)), Duration: ptr(int64(4000))},
			{ExtInf: 4, Media: "https://origin.example.com/path/video=1/4000.m4s", Time: ptr(int64(4000)), Duration: ptr(int64(4000))},
		},
	}
	if diff := cmp.Diff(want, man.Profiles[0]); diff != "" {
		t.Errorf("video profile mismatch (-want +got):\n%s", diff)
	}

	audio := man.Profiles[1]
	assert.Equal(t, "audio=1", audio.ID)
	assert.Equal(t, "en", audio.Lang)
	require.Len(t, audio.Segments, 2)
	assert.Equal(t, 4.0, audio.Segments[0].ExtInf)
}

const timelineNumberLiveMPD = `<?xml version="1.0" encoding="utf-8"?>
<MPD xmlns="urn:mpeg:dash:schema:mpd:2011" type="dynamic"
     availabilityStartTime="1970-01-01T00:00:00Z" minimumUpdatePeriod="PT2S"
     minBufferTime="PT2S" profiles="urn:mpeg:dash:profile:isoff-live:2011">
  <Period id="P0" start="PT0S">
    <AdaptationSet mimeType="video/mp4" contentType="video" segmentAlignment="true">
      <SegmentTemplate timescale="1000" startNumber="100" initialization="init.mp4"
                       media="seg_$Number%05d$.m4s">
        <SegmentTimeline>
          <S t="6000" d="2000" r="2"/>
        </SegmentTimeline>
      </SegmentTemplate>
      <Representation id="video=1" bandwidth="1000000" width="640" height="360" codecs="avc1.64001e" frameRate="25"/>
    </AdaptationSet>
  </Period>
</MPD>`

func TestParseTimelineNumberLive(t *testing.T) {
	man, err := Parse([]byte(timelineNumberLiveMPD), mpdURL)
	require.NoError(t, err)
	assert.True(t, man.IsLive)
	require.Len(t, man.Profiles, 1)
	p := man.Profiles[0]
	require.NotNil(t, p.StartNumber)
	assert.Equal(t, 100, *p.StartNumber)
	require.Len(t, p.Segments, 3)
	assert.Equal(t, "https://origin.example.com/path/seg_00100.m4s", p.Segments[0].Media)
	assert.Equal(t, "https://origin.example.com/path/seg_00102.m4s", p.Segments[2].Media)
	require.NotNil(t, p.Segments[1].Number)
	assert.Equal(t, 101, *p.Segments[1].Number)
	assert.Equal(t, 2.0, p.Segments[0].ExtInf)
}

const numberRangeMPD = `<?xml version="1.0" encoding="utf-8"?>
<MPD xmlns="urn:mpeg:dash:schema:mpd:2011" xmlns:cenc="urn:mpeg:cenc:2013" type="static"
     mediaPresentationDuration="PT8S" minBufferTime="PT2S"
     profiles="urn:mpeg:dash:profile:isoff-live:2011">
  <Period id="P0">
    <AdaptationSet mimeType="video/mp4" contentType="video" segmentAlignment="true">
      <ContentProtection schemeIdUri="urn:mpeg:dash:mp4protection:2011" value="cenc"
                         cenc:default_KID="00112233-4455-6677-8899-aabbccddeeff"/>
      <SegmentTemplate timescale="1000" duration="2000" startNumber="1"
                       initialization="init.mp4" media="seg_$Number$.m4s"/>
      <Representation id="video=1" bandwidth="1000000" width="640" height="360" codecs="avc1.64001e" frameRate="25"/>
    </AdaptationSet>
  </Period>
</MPD>`

func TestParseNumberRange(t *testing.T) {
	man, err := Parse([]byte(numberRangeMPD), mpdURL)
	require.NoError(t, err)
	assert.Equal(t, "00112233-4455-6677-8899-aabbccddeeff", man.DefaultKID)
	require.Len(t, man.Profiles, 1)
	p := man.Profiles[0]
	require.Len(t, p.Segments, 4, "period duration over segment duration")
	assert.Equal(t, "https://origin.example.com/path/seg_1.m4s", p.Segments[0].Media)
	assert.Equal(t, "https://origin.example.com/path/seg_4.m4s", p.Segments[3].Media)
	assert.Equal(t, 2.0, p.Segments[0].ExtInf)
}

const unsupportedLiveMPD = `<?xml version="1.0" encoding="utf-8"?>
<MPD xmlns="urn:mpeg:dash:schema:mpd:2011" type="dynamic"
     availabilityStartTime="1970-01-01T00:00:00Z" minimumUpdatePeriod="PT2S"
     minBufferTime="PT2S" profiles="urn:mpeg:dash:profile:isoff-live:2011">
  <Period id="P0" start="PT0S">
    <AdaptationSet mimeType="video/mp4" contentType="video">
      <SegmentTemplate timescale="1000" duration="2000" startNumber="1"
                       initialization="init.mp4" media="seg_$Number$.m4s"/>
      <Representation id="video=1" bandwidth="1000000" width="640" height="360" codecs="avc1.64001e"/>
    </AdaptationSet>
  </Period>
</MPD>`

func TestParseUnsupportedAddressing(t *testing.T) {
	// Duration-based numbering cannot be expanded for a live stream without
	// a timeline, so the only representation is dropped.
	_, err := Parse([]byte(unsupportedLiveMPD), mpdURL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no usable representations")
}

func TestParseBadXML(t *testing.T) {
	_, err := Parse([]byte("not an MPD"), mpdURL)
	require.Error(t, err)
}

func TestReplaceNumber(t *testing.T) {
	assert.Equal(t, "seg_7.m4s", replaceNumber("seg_$Number$.m4s", 7))
	assert.Equal(t, "seg_00007.m4s", replaceNumber("seg_$Number%05d$.m4s", 7))
	assert.Equal(t, "seg.m4s", replaceNumber("seg.m4s", 7))
}

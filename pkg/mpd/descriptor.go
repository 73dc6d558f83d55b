// Package mpd turns a DASH Media Presentation Description into a flat
// manifest descriptor that the HLS builders can work on.
package mpd

// Manifest is the parsed view of one MPD document.
// Profile order follows MPD document order and is semantically meaningful:
// the first profile drives playlist sequence derivation and the first audio
// profile becomes the default audio track.
type Manifest struct {
	IsLive   bool
	Profiles []*Profile
	// DefaultKID is the cenc:default_KID found in the first ContentProtection
	// element, if any. Empty for clear content.
	DefaultKID string
}

// Profile is one encoded rendition (bitrate/resolution/codec/language).
type Profile struct {
	ID        string
	MimeType  string
	Bandwidth int
	Width     int
	Height    int
	Codecs    string
	FrameRate string
	Lang      string
	// InitURL is the absolute URL of the initialization segment.
	InitURL string
	// StartNumber is SegmentTemplate@startNumber when the profile uses
	// number-based addressing.
	StartNumber *int
	Segments    []Segment
}

// Segment is one addressable media segment.
// At most one addressing mode (Number or Time+Duration) is populated,
// depending on what the MPD carries. All of them may be absent.
type Segment struct {
	// ExtInf is the segment duration in seconds.
	ExtInf float64
	// Media is the absolute URL of the media segment.
	Media string
	// Number is the resolved $Number$ value.
	Number *int
	// Time is the segment start time in MPD timescale units.
	Time *int64
	// Duration is the segment duration in MPD timescale units.
	Duration *int64
}

// ProfilesByID returns all profiles with the given id, in manifest order.
func (m *Manifest) ProfilesByID(id string) []*Profile {
	var matches []*Profile
	for _, p := range m.Profiles {
		if p.ID == id {
			matches = append(matches, p)
		}
	}
	return matches
}

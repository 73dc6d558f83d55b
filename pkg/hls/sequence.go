package hls

import (
	"math"

	"github.com/streambridge/mpd2hls/pkg/mpd"
)

// defaultTargetDuration is used when no segment carries a duration.
const defaultTargetDuration = 3

// liveSequenceBound caps the media-sequence number for long-running live
// streams. Sequences above the bound wrap around and are therefore not
// monotonic across the next boundary.
const liveSequenceBound = 100_000

// DeriveSequence maps the DASH addressing metadata of a profile to the HLS
// target duration and starting media-sequence number. Only the first segment
// is consulted for the sequence number. Every branch has a fallback, so the
// derivation never fails.
func DeriveSequence(p *mpd.Profile, isLive bool) (targetDuration, mediaSequence int) {
	targetDuration = defaultTargetDuration
	maxExtInf := 0.0
	for _, s := range p.Segments {
		if s.ExtInf > maxExtInf {
			maxExtInf = s.ExtInf
		}
	}
	if maxExtInf > 0 {
		targetDuration = int(math.Ceil(maxExtInf))
	}
	if len(p.Segments) == 0 {
		return targetDuration, 1
	}
	first := p.Segments[0]

	// A large startNumber marks number-based addressing as intentional.
	if p.StartNumber != nil && *p.StartNumber >= 1000 {
		if first.Number != nil {
			return targetDuration, *first.Number
		}
		return targetDuration, *p.StartNumber
	}
	if first.Time != nil && first.Duration != nil && *first.Duration > 0 {
		calc := int(*first.Time / *first.Duration)
		if isLive && calc > liveSequenceBound {
			return targetDuration, calc % liveSequenceBound
		}
		return targetDuration, calc
	}
	if first.Number != nil {
		return targetDuration, *first.Number
	}
	return targetDuration, 1
}

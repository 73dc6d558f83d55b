package mpd

import (
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	m "github.com/Eyevinn/dash-mpd/mpd"
	"github.com/beevik/etree"
)

var numberPattern = regexp.MustCompile(`\$Number(%0\d+d)?\$`)

// Parse reads an MPD document and flattens it into a Manifest.
// mpdURL is the URL the document was fetched from and is used to resolve
// relative init and media URLs.
func Parse(data []byte, mpdURL string) (*Manifest, error) {
	doc, err := m.ReadFromString(string(data))
	if err != nil {
		return nil, fmt.Errorf("read mpd: %w", err)
	}
	base, err := url.Parse(mpdURL)
	if err != nil {
		return nil, fmt.Errorf("parse mpd url: %w", err)
	}
	man := &Manifest{
		IsLive:     doc.Type != nil && *doc.Type == "dynamic",
		DefaultKID: findDefaultKID(data),
	}
	for _, period := range doc.Periods {
		periodDurMS := int64(0)
		if d, err := period.GetDuration(); err == nil {
			periodDurMS = int64(d) / 1_000_000
		} else if doc.MediaPresentationDuration != nil {
			periodDurMS = int64(*doc.MediaPresentationDuration) / 1_000_000
		}
		for _, as := range period.AdaptationSets {
			for _, rep := range as.Representations {
				p, err := makeProfile(as, rep, base, periodDurMS, man.IsLive)
				if err != nil {
					slog.Warn("skipping representation", "rep", rep.Id, "err", err)
					continue
				}
				man.Profiles = append(man.Profiles, p)
			}
		}
	}
	if len(man.Profiles) == 0 {
		return nil, fmt.Errorf("no usable representations in MPD")
	}
	return man, nil
}

func makeProfile(as *m.AdaptationSetType, rep *m.RepresentationType, base *url.URL,
	periodDurMS int64, isLive bool) (*Profile, error) {
	st := as.SegmentTemplate
	if rep.SegmentTemplate != nil {
		st = rep.SegmentTemplate
	}
	if st == nil {
		return nil, fmt.Errorf("no SegmentTemplate")
	}
	mimeType := rep.MimeType
	if mimeType == "" {
		mimeType = as.MimeType
	}
	codecs := as.Codecs
	if rep.Codecs != "" {
		codecs = rep.Codecs
	}
	frameRate := string(rep.FrameRate)
	if frameRate == "" {
		frameRate = string(as.FrameRate)
	}
	lang := as.Lang
	if lang == "" {
		lang = "und"
	}
	p := &Profile{
		ID:        rep.Id,
		MimeType:  mimeType,
		Bandwidth: int(rep.Bandwidth),
		Width:     int(rep.Width),
		Height:    int(rep.Height),
		Codecs:    codecs,
		FrameRate: frameRate,
		Lang:      lang,
		InitURL:   resolveURL(base, replaceIdentifiers(rep, st.Initialization)),
	}
	if st.StartNumber != nil {
		n := int(*st.StartNumber)
		p.StartNumber = &n
	}
	timescale := int64(1)
	if st.Timescale != nil {
		timescale = int64(*st.Timescale)
	}
	media := replaceIdentifiers(rep, st.Media)
	switch {
	case st.SegmentTimeline != nil && strings.Contains(media, "$Time$"):
		p.Segments = timelineTimeSegments(st.SegmentTimeline, media, base, timescale)
	case st.SegmentTimeline != nil && numberPattern.MatchString(media):
		startNr := 1
		if p.StartNumber != nil {
			startNr = *p.StartNumber
		}
		p.Segments = timelineNumberSegments(st.SegmentTimeline, media, base, timescale, startNr)
	case numberPattern.MatchString(media) && st.Duration != nil && !isLive:
		p.Segments = numberRangeSegments(st, media, base, timescale, periodDurMS, p.StartNumber)
	default:
		return nil, fmt.Errorf("unsupported segment addressing for media pattern %q", st.Media)
	}
	return p, nil
}

// timelineTimeSegments expands a SegmentTimeline addressed with $Time$.
func timelineTimeSegments(stl *m.SegmentTimelineType, media string, base *url.URL,
	timescale int64) []Segment {
	var segs []Segment
	var t int64
	for _, s := range stl.S {
		if s.T != nil {
			t = int64(*s.T)
		}
		d := int64(s.D)
		for i := 0; i <= s.R; i++ {
			segs = append(segs, Segment{
				ExtInf:   float64(d) / float64(timescale),
				Media:    resolveURL(base, replaceTime(media, t)),
				Time:     ptr(t),
				Duration: ptr(d),
			})
			t += d
		}
	}
	return segs
}

// timelineNumberSegments expands a SegmentTimeline addressed with $Number$,
// numbering consecutively from startNr.
func timelineNumberSegments(stl *m.SegmentTimelineType, media string, base *url.URL,
	timescale int64, startNr int) []Segment {
	var segs []Segment
	nr := startNr
	for _, s := range stl.S {
		d := int64(s.D)
		for i := 0; i <= s.R; i++ {
			segs = append(segs, Segment{
				ExtInf: float64(d) / float64(timescale),
				Media:  resolveURL(base, replaceNumber(media, nr)),
				Number: ptr(nr),
			})
			nr++
		}
	}
	return segs
}

// numberRangeSegments expands a plain duration-based $Number$ template over
// the period duration. Only meaningful for static MPDs.
func numberRangeSegments(st *m.SegmentTemplateType, media string, base *url.URL,
	timescale int64, periodDurMS int64, startNumber *int) []Segment {
	startNr := 1
	if startNumber != nil {
		startNr = *startNumber
	}
	dur := int64(*st.Duration)
	if dur == 0 || periodDurMS == 0 {
		return nil
	}
	nrSegs := periodDurMS * timescale / (dur * 1000)
	var segs []Segment
	for i := int64(0); i < nrSegs; i++ {
		nr := startNr + int(i)
		segs = append(segs, Segment{
			ExtInf: float64(dur) / float64(timescale),
			Media:  resolveURL(base, replaceNumber(media, nr)),
			Number: ptr(nr),
		})
	}
	return segs
}

func replaceIdentifiers(r *m.RepresentationType, str string) string {
	str = strings.ReplaceAll(str, "$RepresentationID$", r.Id)
	str = strings.ReplaceAll(str, "$Bandwidth$", strconv.Itoa(int(r.Bandwidth)))
	return str
}

func replaceTime(media string, t int64) string {
	return strings.ReplaceAll(media, "$Time$", strconv.FormatInt(t, 10))
}

// replaceNumber handles both $Number$ and width-formatted $Number%0Nd$.
func replaceNumber(media string, nr int) string {
	return numberPattern.ReplaceAllStringFunc(media, func(match string) string {
		sub := numberPattern.FindStringSubmatch(match)
		if sub[1] == "" {
			return strconv.Itoa(nr)
		}
		return fmt.Sprintf(sub[1], nr)
	})
}

func resolveURL(base *url.URL, ref string) string {
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}

// findDefaultKID scans the raw MPD for a cenc:default_KID attribute on any
// ContentProtection element. etree is used since the attribute lives in the
// cenc namespace and may carry any prefix.
func findDefaultKID(data []byte) string {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return ""
	}
	for _, cp := range doc.FindElements("//ContentProtection") {
		for _, attr := range cp.Attr {
			if attr.Key == "default_KID" {
				return attr.Value
			}
		}
	}
	return ""
}

func ptr[T any](v T) *T {
	return &v
}

// Package prefetch warms a segment cache from a DASH manifest so that the
// first client requests can be served without an origin round trip.
package prefetch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/streambridge/mpd2hls/pkg/mpd"
	"github.com/streambridge/mpd2hls/pkg/origin"
)

// Prefetcher fetches the initialization segment and the first few media
// segments of every profile in a manifest into an in-memory cache.
// Warming is best effort: it is run detached from request handling and its
// errors are only ever logged.
type Prefetcher struct {
	client      *origin.Client
	cache       *Cache
	maxSegments int
}

// New returns a Prefetcher whose cache lives until ctx is canceled.
func New(ctx context.Context, client *origin.Client, maxSegments int, ttl time.Duration) *Prefetcher {
	return &Prefetcher{
		client:      client,
		cache:       NewCache(ctx, ttl),
		maxSegments: maxSegments,
	}
}

// Warm fetches the manifest at mpdURL and pulls the leading segments of each
// profile into the cache. headers are forwarded on every origin fetch.
func (p *Prefetcher) Warm(ctx context.Context, mpdURL string, headers map[string]string) error {
	data, err := p.client.Fetch(ctx, mpdURL, headers)
	if err != nil {
		return fmt.Errorf("fetch manifest: %w", err)
	}
	man, err := mpd.Parse(data, mpdURL)
	if err != nil {
		return fmt.Errorf("parse manifest: %w", err)
	}
	fetched := 0
	for _, prof := range man.Profiles {
		urls := []string{prof.InitURL}
		for i, seg := range prof.Segments {
			if i >= p.maxSegments {
				break
			}
			urls = append(urls, seg.Media)
		}
		for _, u := range urls {
			if u == "" || p.cache.Has(u) {
				continue
			}
			data, err := p.client.Fetch(ctx, u, headers)
			if err != nil {
				slog.Warn("prefetch of segment failed", "url", u, "err", err)
				continue
			}
			p.cache.Set(u, data)
			fetched++
		}
	}
	slog.Debug("prefetch done", "manifest", mpdURL, "fetched", fetched)
	return nil
}

// Cached returns the cached bytes for url, if any.
func (p *Prefetcher) Cached(url string) ([]byte, bool) {
	return p.cache.Get(url)
}

// CacheLen returns the number of cached entries.
func (p *Prefetcher) CacheLen() int {
	return p.cache.Len()
}

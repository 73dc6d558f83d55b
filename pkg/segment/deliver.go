// Package segment decides how a media segment is delivered to the client.
package segment

import (
	"fmt"
	"log/slog"
	"time"
)

// Decrypter decrypts a protected media segment given its init segment and
// raw key material.
type Decrypter interface {
	DecryptSegment(initData, segData []byte, keyID, key string) ([]byte, error)
}

// Deliver returns the bytes to send to the client for one media segment.
// When both keyID and key are set, the segment is decrypted and any failure
// propagates; there is no fallback to plain delivery. Otherwise the init
// segment is prefixed byte-for-byte to the media segment, since fragmented
// segments are served independently and each response must be decodable on
// its own.
func Deliver(dec Decrypter, initData, segData []byte, mimeType, keyID, key string) ([]byte, error) {
	if keyID != "" && key != "" {
		start := time.Now()
		out, err := dec.DecryptSegment(initData, segData, keyID, key)
		if err != nil {
			return nil, fmt.Errorf("decrypt %s segment: %w", mimeType, err)
		}
		slog.Info("decrypted segment", "mimeType", mimeType,
			"elapsed", fmt.Sprintf("%.4fs", time.Since(start).Seconds()))
		return out, nil
	}
	out := make([]byte, 0, len(initData)+len(segData))
	out = append(out, initData...)
	out = append(out, segData...)
	return out, nil
}

// Package drm decrypts common-encryption protected fragmented MP4 segments.
package drm

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
)

// id16 is a 128-bit value typically used as key or key ID.
type id16 [16]byte

func (k id16) String() string {
	s := hex.EncodeToString(k[:])
	return fmt.Sprintf("%s-%s-%s-%s-%s", s[:8], s[8:12], s[12:16], s[16:20], s[20:])
}

// ParseID16 reads a 128-bit key or key ID from its common string forms:
// 32 hex characters (with or without dashes) or URL-safe base64 with the
// padding stripped.
func ParseID16(s string) (id16, error) {
	plain := strings.ReplaceAll(s, "-", "")
	if len(plain) == 32 {
		if b, err := hex.DecodeString(plain); err == nil {
			return id16(b), nil
		}
	}
	b, err := base64.StdEncoding.DecodeString(unpackBase64(s))
	if err != nil {
		return id16{}, fmt.Errorf("key is neither hex nor base64: %w", err)
	}
	if len(b) != 16 {
		return id16{}, fmt.Errorf("decoded key is %d bytes, not 16", len(b))
	}
	return id16(b), nil
}

// unpackBase64 converts URL-safe base64 without padding to standard base64.
func unpackBase64(b64 string) string {
	b64 = strings.ReplaceAll(b64, "-", "+")
	b64 = strings.ReplaceAll(b64, "_", "/")
	missing := 4 - len(b64)%4
	if missing != 4 {
		for i := 0; i < missing; i++ {
			b64 += "="
		}
	}
	return b64
}

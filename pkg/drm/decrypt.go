package drm

import (
	"bytes"
	"fmt"

	"github.com/Eyevinn/mp4ff/bits"
	"github.com/Eyevinn/mp4ff/mp4"
)

// Decrypter decrypts cenc/cbcs protected segments given raw key material.
type Decrypter struct{}

func NewDecrypter() *Decrypter {
	return &Decrypter{}
}

// DecryptSegment decrypts one media segment using the key material from the
// request. initData must hold the profile's initialization segment, since it
// carries the protection scheme information. The returned bytes are the
// decrypted init segment followed by the decrypted media segment, ready for
// independent playback.
func (d *Decrypter) DecryptSegment(initData, segData []byte, keyIDStr, keyStr string) ([]byte, error) {
	key, err := ParseID16(keyStr)
	if err != nil {
		return nil, fmt.Errorf("parse key: %w", err)
	}
	if _, err := ParseID16(keyIDStr); err != nil {
		return nil, fmt.Errorf("parse key id: %w", err)
	}

	initFile, err := mp4.DecodeFileSR(bits.NewFixedSliceReader(initData))
	if err != nil {
		return nil, fmt.Errorf("decode init segment: %w", err)
	}
	if initFile.Init == nil {
		return nil, fmt.Errorf("no moov box in init segment")
	}
	decryptInfo, err := mp4.DecryptInit(initFile.Init)
	if err != nil {
		return nil, fmt.Errorf("decrypt init: %w", err)
	}

	segFile, err := mp4.DecodeFileSR(bits.NewFixedSliceReader(segData))
	if err != nil {
		return nil, fmt.Errorf("decode media segment: %w", err)
	}
	if len(segFile.Segments) == 0 {
		return nil, fmt.Errorf("no movie fragment in media segment")
	}

	var buf bytes.Buffer
	if err := initFile.Init.Encode(&buf); err != nil {
		return nil, fmt.Errorf("encode init segment: %w", err)
	}
	for _, seg := range segFile.Segments {
		if err := mp4.DecryptSegment(seg, decryptInfo, key[:]); err != nil {
			return nil, fmt.Errorf("decrypt segment: %w", err)
		}
		if err := seg.Encode(&buf); err != nil {
			return nil, fmt.Errorf("encode segment: %w", err)
		}
	}
	return buf.Bytes(), nil
}

// Package proxyurl encodes proxy URLs that carry their target and options as
// query parameters, either in the clear or sealed inside an opaque token.
package proxyurl

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
)

// TokenParam is the query parameter holding the sealed parameter set.
const TokenParam = "token"

// Codec builds and restores proxy URLs. The zero value is not usable;
// create one with New.
type Codec struct {
	aead cipher.AEAD
}

// New returns a Codec whose encryption key is derived from secret.
func New(secret string) (*Codec, error) {
	sum := sha256.Sum256([]byte(secret))
	block, err := aes.NewCipher(sum[:])
	if err != nil {
		return nil, fmt.Errorf("aes cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("gcm: %w", err)
	}
	return &Codec{aead: aead}, nil
}

// Encode builds a proxy URL for endpoint with the given query parameters.
// With encrypt false the parameters are emitted as a normal query string in
// sorted key order. With encrypt true they are JSON-marshalled and sealed
// with AES-GCM into a single token parameter. The nonce is derived from the
// plaintext, so identical inputs give identical URLs and playlist output
// stays cacheable.
func (c *Codec) Encode(endpoint string, params map[string]string, encrypt bool) (string, error) {
	if !encrypt {
		vals := url.Values{}
		for k, v := range params {
			vals.Set(k, v)
		}
		if len(vals) == 0 {
			return endpoint, nil
		}
		return endpoint + "?" + vals.Encode(), nil
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("marshal params: %w", err)
	}
	nonce := deriveNonce(raw, c.aead.NonceSize())
	sealed := c.aead.Seal(nonce, nonce, raw, nil)
	token := base64.RawURLEncoding.EncodeToString(sealed)
	return endpoint + "?" + TokenParam + "=" + token, nil
}

// Decode restores the parameter set sealed inside a token.
func (c *Codec) Decode(token string) (map[string]string, error) {
	sealed, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	ns := c.aead.NonceSize()
	if len(sealed) < ns {
		return nil, fmt.Errorf("token too short")
	}
	raw, err := c.aead.Open(nil, sealed[:ns], sealed[ns:], nil)
	if err != nil {
		return nil, fmt.Errorf("open token: %w", err)
	}
	var params map[string]string
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, fmt.Errorf("unmarshal params: %w", err)
	}
	return params, nil
}

func deriveNonce(plaintext []byte, size int) []byte {
	sum := sha256.Sum256(plaintext)
	return sum[:size]
}

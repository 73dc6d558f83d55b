package proxyurl

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testEndpoint = "https://proxy.example.com/proxy/mpd/segment.mp4"

func TestEncodePlain(t *testing.T) {
	c, err := New("secret")
	require.NoError(t, err)
	u, err := c.Encode(testEndpoint, map[string]string{
		"segment_url": "https://origin.example.com/1.m4s",
		"init_url":    "https://origin.example.com/init.mp4",
	}, false)
	require.NoError(t, err)
	assert.Equal(t, testEndpoint+
		"?init_url=https%3A%2F%2Forigin.example.com%2Finit.mp4"+
		"&segment_url=https%3A%2F%2Forigin.example.com%2F1.m4s", u,
		"plain query parameters come out in sorted key order")
}

func TestEncodePlainNoParams(t *testing.T) {
	c, err := New("secret")
	require.NoError(t, err)
	u, err := c.Encode(testEndpoint, nil, false)
	require.NoError(t, err)
	assert.Equal(t, testEndpoint, u)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	c, err := New("secret")
	require.NoError(t, err)
	params := map[string]string{
		"segment_url": "https://origin.example.com/1.m4s",
		"init_url":    "https://origin.example.com/init.mp4",
		"key_id":      "11111111222233334444555555555555",
		"key":         "aaaaaaaabbbbccccddddeeeeeeeeeeee",
	}
	u, err := c.Encode(testEndpoint, params, true)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(u, testEndpoint+"?"+TokenParam+"="))
	token := strings.TrimPrefix(u, testEndpoint+"?"+TokenParam+"=")
	assert.NotContains(t, token, "origin.example.com", "target URL is hidden")

	got, err := c.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, params, got)
}

func TestEncodeDeterministic(t *testing.T) {
	c, err := New("secret")
	require.NoError(t, err)
	params := map[string]string{"segment_url": "https://origin.example.com/1.m4s"}
	first, err := c.Encode(testEndpoint, params, true)
	require.NoError(t, err)
	second, err := c.Encode(testEndpoint, params, true)
	require.NoError(t, err)
	assert.Equal(t, first, second, "same params must give the same token")
}

func TestDecodeRejectsBadToken(t *testing.T) {
	c, err := New("secret")
	require.NoError(t, err)
	_, err = c.Decode("not-base64!!")
	assert.Error(t, err)
	_, err = c.Decode("c2hvcnQ")
	assert.Error(t, err)
}

func TestDecodeRejectsWrongSecret(t *testing.T) {
	c1, err := New("secret-one")
	require.NoError(t, err)
	c2, err := New("secret-two")
	require.NoError(t, err)
	u, err := c1.Encode(testEndpoint, map[string]string{"segment_url": "x"}, true)
	require.NoError(t, err)
	token := strings.TrimPrefix(u, testEndpoint+"?"+TokenParam+"=")
	_, err = c2.Decode(token)
	assert.Error(t, err)
}

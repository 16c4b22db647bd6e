package middleware_test

import (
	"testing"

	"github.com/serroba/eventstats-api/internal/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIPKey(t *testing.T) {
	tests := []struct {
		name       string
		trustProxy bool
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{
			name:       "remote address without port",
			remoteAddr: "192.168.1.1:12345",
			want:       "192.168.1.1",
		},
		{
			name:       "ipv6 remote address",
			remoteAddr: "[2001:db8::1]:443",
			want:       "2001:db8::1",
		},
		{
			name:       "address without port is used as is",
			remoteAddr: "192.168.1.1",
			want:       "192.168.1.1",
		},
		{
			name:       "forwarding headers ignored without trusted proxy",
			remoteAddr: "10.0.0.1:12345",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.195"},
			want:       "10.0.0.1",
		},
		{
			name:       "first forwarded address behind trusted proxy",
			trustProxy: true,
			remoteAddr: "10.0.0.1:12345",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.195, 70.41.3.18, 150.172.238.178"},
			want:       "203.0.113.195",
		},
		{
			name:       "real ip behind trusted proxy",
			trustProxy: true,
			remoteAddr: "10.0.0.1:12345",
			headers:    map[string]string{"X-Real-IP": "198.51.100.7"},
			want:       "198.51.100.7",
		},
		{
			name: "no identity",
			want: middleware.UnknownClient,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := newRequest(tt.remoteAddr)

			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}

			assert.Equal(t, tt.want, middleware.IPKey(tt.trustProxy)(req))
		})
	}
}

func TestIPUserAgentKey(t *testing.T) {
	keyFn := middleware.IPUserAgentKey(false)

	key := func(addr, ua string) string {
		req := newRequest(addr)
		req.Header.Set("User-Agent", ua)

		return keyFn(req)
	}

	assert.Equal(t, key("192.168.1.1:1", testUserAgent), key("192.168.1.1:2", testUserAgent),
		"same IP and User-Agent should produce same key")
	assert.NotEqual(t, key("192.168.1.1:1", testUserAgent), key("192.168.1.1:1", "DifferentAgent/2.0"),
		"different User-Agent should produce different key")
	assert.Len(t, key("192.168.1.1:1", testUserAgent), 64)
	assert.Equal(t, middleware.UnknownClient, key("", ""))
}

func TestNewKeyFunc(t *testing.T) {
	for _, name := range []string{"", middleware.KeyIP, middleware.KeyIPUserAgent} {
		fn, err := middleware.NewKeyFunc(name, false)
		require.NoError(t, err, name)
		assert.NotNil(t, fn)
	}

	_, err := middleware.NewKeyFunc("cookie", false)
	assert.ErrorContains(t, err, `unknown client key strategy "cookie"`)
}

package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"cloudflare header wins", map[string]string{"CF-Connecting-IP": "198.51.100.9", "X-Forwarded-For": "203.0.113.7"}, "10.0.0.2:5555", "198.51.100.9"},
		{"forwarded for takes first hop", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.2"}, "10.0.0.2:5555", "203.0.113.7"},
		{"forwarded hop with port", map[string]string{"X-Forwarded-For": "[2001:db8::1]:8443"}, "10.0.0.2:5555", "2001:db8::1"},
		{"skips garbage hop", map[string]string{"X-Forwarded-For": "nope, 203.0.113.8"}, "10.0.0.2:5555", "203.0.113.8"},
		{"invalid forwarded falls back to real ip", map[string]string{"X-Forwarded-For": "nope", "X-Real-IP": "198.51.100.4"}, "10.0.0.2:5555", "198.51.100.4"},
		{"mapped v4 is unmapped", nil, "[::ffff:192.0.2.1]:443", "192.0.2.1"},
		{"remote addr", nil, "192.0.2.10:443", "192.0.2.10"},
		{"garbage remote addr", nil, "???", UnknownIP},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ClientIP(req))
		})
	}
}

func TestJoinWithAnd(t *testing.T) {
	assert.Equal(t, "1=1 AND o.status = $1", JoinWithAnd([]string{"1=1", "o.status = $1"}))
	assert.Equal(t, "1=1", JoinWithAnd([]string{"1=1"}))
}

package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

func TestForceHTTPS(t *testing.T) {
	h := ForceHTTPS(ok)

	tests := []struct {
		name   string
		host   string
		tls    bool
		proto  string
		status int
	}{
		{"plain http redirects", "chat.example.org", false, "", http.StatusPermanentRedirect},
		{"tls passes", "chat.example.org", true, "", http.StatusOK},
		{"proxy https passes", "chat.example.org", false, "https", http.StatusOK},
		{"localhost passes", "localhost:8080", false, "", http.StatusOK},
		{"ipv6 loopback passes", "[::1]:8080", false, "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/config.json?x=1", nil)
			r.Host = tt.host
			if tt.tls {
				r.TLS = &tls.ConnectionState{}
			}
			if tt.proto != "" {
				r.Header.Set("X-Forwarded-Proto", tt.proto)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, r)
			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusPermanentRedirect {
				assert.Equal(t, "https://chat.example.org/config.json?x=1", rec.Header().Get("Location"))
			}
		})
	}
}

func TestSecurity(t *testing.T) {
	rec := httptest.NewRecorder()
	Security(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, DefaultCSP, rec.Header().Get("Content-Security-Policy"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	override := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Security-Policy", CSPWithNonce("n0nce"))
		w.WriteHeader(http.StatusOK)
	})
	rec = httptest.NewRecorder()
	Security(override).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "'nonce-n0nce'")
}

package requestinfo

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanizio/vector/internal/routing"
)

const (
	uaIPhone  = "Mozilla/5.0 (iPhone; CPU iPhone OS 13_3 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/13.0.5 Mobile/15E148 Safari/604.1"
	uaAndroid = "Mozilla/5.0 (Linux; Android 10; SM-G973F) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/80.0.3987.149 Mobile Safari/537.36"
	uaDesktop = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/80.0.3987.149 Safari/537.36"
)

func TestParseUA(t *testing.T) {
	ios := ParseUA(uaIPhone, "en-GB,en;q=0.9")
	assert.Equal(t, "iOS", ios.OS)
	assert.Equal(t, "Phone", ios.Device)
	assert.True(t, ios.IsMobile())
	assert.Equal(t, "en-gb", ios.PrimaryLang)

	android := ParseUA(uaAndroid, "")
	assert.Equal(t, "Android", android.OS)
	assert.True(t, android.IsMobile())
	assert.Equal(t, "", android.PrimaryLang)

	desktop := ParseUA(uaDesktop, "fr")
	assert.Equal(t, "Chrome", desktop.Browser)
	assert.False(t, desktop.IsMobile())
	assert.Equal(t, "Desktop", desktop.Device)
}

func enrichAndCapture(t *testing.T, r *http.Request) *RequestInfo {
	t.Helper()
	var got *RequestInfo
	h := Enrich(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), r)
	require.NotNil(t, got)
	return got
}

func TestEnrich(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("User-Agent", uaIPhone)
	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")

	info := enrichAndCapture(t, r)
	assert.Equal(t, "iOS", info.UA.OS)
	assert.True(t, info.IP.Equal(net.ParseIP("203.0.113.7")))
	assert.False(t, info.Timestamp.IsZero())

	assert.Nil(t, FromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context()))
}

func TestClientIPFallbacks(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Real-Ip", "198.51.100.2")
	assert.True(t, clientIP(r).Equal(net.ParseIP("198.51.100.2")))

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.1:1234"
	assert.True(t, clientIP(r).Equal(net.ParseIP("192.0.2.1")))
}

func TestWantsMobileGuide(t *testing.T) {
	req := func(target, ua string) (*http.Request, *RequestInfo) {
		r := httptest.NewRequest(http.MethodGet, target, nil)
		info := &RequestInfo{UA: ParseUA(ua, "")}
		return r, info
	}

	r, info := req("/", uaIPhone)
	assert.True(t, WantsMobileGuide(r, info, routing.Fragment{}))

	r, info = req("/", uaDesktop)
	assert.False(t, WantsMobileGuide(r, info, routing.Fragment{}))

	r, info = req("/", uaAndroid)
	r.AddCookie(&http.Cookie{Name: MobileGuideCookie, Value: "false"})
	assert.False(t, WantsMobileGuide(r, info, routing.Fragment{}))

	r, info = req("/?client_secret=abc", uaAndroid)
	assert.False(t, WantsMobileGuide(r, info, routing.Fragment{}))

	r, info = req("/", uaAndroid)
	assert.False(t, WantsMobileGuide(r, info, routing.ParseFragment("/room/!a:b")))

	assert.False(t, WantsMobileGuide(r, nil, routing.Fragment{}))
}

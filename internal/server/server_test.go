// internal/server/server_test.go
//
// Router tests.  Each case builds a bootstrap.State by hand and fires an
// httptest request through Routes().
//
// Run: go test ./internal/server -v

package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yanizio/vector/internal/bootstrap"
	"github.com/yanizio/vector/internal/config"
	"github.com/yanizio/vector/internal/discovery"
	"github.com/yanizio/vector/internal/platform"
	"github.com/yanizio/vector/internal/serverconf"
	"github.com/yanizio/vector/internal/view"
)

const uaIE11 = "Mozilla/5.0 (Windows NT 10.0; WOW64; Trident/7.0; rv:11.0) like Gecko"

const uaIPhone = "Mozilla/5.0 (iPhone; CPU iPhone OS 13_3 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/13.0.5 Mobile/15E148 Safari/604.1"

type fakeDiscoverer struct {
	res *discovery.Result
	err error
}

func (f fakeDiscoverer) FindClientConfig(context.Context, string) (*discovery.Result, error) {
	return f.res, f.err
}

func readyState(p platform.Platform) *bootstrap.State {
	raw := config.Raw{config.KeyBrand: "Gateway", config.KeyDisableGuests: true}
	return &bootstrap.State{
		Platform: p,
		Raw:      raw,
		Client: config.NewClient(raw, discovery.ValidatedServerConfig{
			HSURL:     "https://matrix.example.org",
			HSName:    "matrix.example.org",
			IsDefault: true,
		}),
	}
}

func newTestServer(t *testing.T, st *bootstrap.State, d Discoverer) http.Handler {
	t.Helper()
	views, err := view.New("")
	require.NoError(t, err)
	return New(Options{
		State:     st,
		Discovery: d,
		Views:     views,
		Logger:    zap.NewNop().Sugar(),
	}).Routes()
}

func do(h http.Handler, method, target string, mod ...func(*http.Request)) *httptest.ResponseRecorder {
	r := httptest.NewRequest(method, target, nil)
	for _, m := range mod {
		m(r)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

func web() platform.Platform { return platform.NewWeb(platform.Options{Logger: zap.NewNop().Sugar()}) }

/* -------------------------------------------------------------------------
   App shell and error pages
   ------------------------------------------------------------------------- */

func TestApp_Ready(t *testing.T) {
	h := newTestServer(t, readyState(web()), nil)

	rec := do(h, http.MethodGet, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<title>Gateway</title>")
	assert.NotContains(t, rec.Body.String(), "mobile_guide")
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestApp_MobileGuide(t *testing.T) {
	h := newTestServer(t, readyState(web()), nil)

	rec := do(h, http.MethodGet, "/", func(r *http.Request) { r.Header.Set("User-Agent", uaIPhone) })
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "mobile_guide")
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "'nonce-")

	rec = do(h, http.MethodGet, "/", func(r *http.Request) {
		r.Header.Set("User-Agent", uaIPhone)
		r.AddCookie(&http.Cookie{Name: "riot_mobile_redirect_to_guide", Value: "false"})
	})
	assert.NotContains(t, rec.Body.String(), "mobile_guide")
}

func TestApp_CompatibilityPage(t *testing.T) {
	h := newTestServer(t, readyState(web()), nil)
	ie := func(r *http.Request) { r.Header.Set("User-Agent", uaIE11) }

	rec := do(h, http.MethodGet, "/", ie)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "your browser is <b>not</b> able to run Gateway")
	assert.Contains(t, rec.Body.String(), `action="compatibility/accept"`)
	assert.NotContains(t, rec.Body.String(), "bundles/vector.js")

	rec = do(h, http.MethodPost, "/compatibility/accept", ie)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "mx_accepts_unsupported_browser", cookies[0].Name)
	assert.Equal(t, "true", cookies[0].Value)

	rec = do(h, http.MethodGet, "/", ie, func(r *http.Request) { r.AddCookie(cookies[0]) })
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "bundles/vector.js")
}

func TestApp_CompatibilityBeforeMisconfigured(t *testing.T) {
	st := &bootstrap.State{Platform: web(), ResolveErr: &serverconf.ShapeError{Err: serverconf.ErrNoDefault}}
	h := newTestServer(t, st, nil)
	ie := func(r *http.Request) { r.Header.Set("User-Agent", uaIE11) }

	rec := do(h, http.MethodGet, "/", ie)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "not</b> able to run")

	accepted := func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "mx_accepts_unsupported_browser", Value: "true"})
	}
	rec = do(h, http.MethodGet, "/", ie, accepted)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "no default server specified")

	// A config that does not load blocks every browser.
	st = &bootstrap.State{Platform: web(), LoadErr: &config.LoadError{Err: errors.New("denied")}}
	h = newTestServer(t, st, nil)
	rec = do(h, http.MethodGet, "/", ie)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Unable to load config file")
}

func TestApp_ErrorPages(t *testing.T) {
	syntaxErr := &config.LoadError{Path: "config.json", Err: json.Unmarshal([]byte(`{`), &struct{}{})}

	tests := []struct {
		name  string
		state *bootstrap.State
		want  string
	}{
		{"syntax", &bootstrap.State{Platform: web(), LoadErr: syntaxErr}, "contains invalid JSON"},
		{"load", &bootstrap.State{Platform: web(), LoadErr: &config.LoadError{Err: errors.New("denied")}}, "Unable to load config file"},
		{"resolve", &bootstrap.State{
			Platform:   web(),
			ResolveErr: &serverconf.ShapeError{Err: serverconf.ErrMultipleDefaults},
		}, "can only specify one of default_server_config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(t, tt.state, nil)
			rec := do(h, http.MethodGet, "/")
			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)

			cfg := do(h, http.MethodGet, "/config.json")
			assert.Equal(t, http.StatusServiceUnavailable, cfg.Code)
		})
	}
}

/* -------------------------------------------------------------------------
   config.json
   ------------------------------------------------------------------------- */

func TestConfigJSON(t *testing.T) {
	h := newTestServer(t, readyState(web()), nil)

	rec := do(h, http.MethodGet, "/config.json")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Gateway", body["brand"])

	vsc, ok := body["validated_server_config"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "https://matrix.example.org", vsc["hsUrl"])
	assert.Equal(t, true, vsc["isDefault"])
}

/* -------------------------------------------------------------------------
   API
   ------------------------------------------------------------------------- */

func TestDiscover(t *testing.T) {
	ok := fakeDiscoverer{res: &discovery.Result{
		Homeserver:     discovery.Entry{State: discovery.StateSuccess, BaseURL: "https://matrix.example.org"},
		IdentityServer: discovery.Entry{State: discovery.StatePrompt},
	}}
	h := newTestServer(t, readyState(web()), ok)

	rec := do(h, http.MethodGet, "/api/discover?server_name=example.org")
	require.Equal(t, http.StatusOK, rec.Code)
	var got discovery.ValidatedServerConfig
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "example.org", got.HSName)
	assert.False(t, got.IsDefault)

	assert.Equal(t, http.StatusBadRequest, do(h, http.MethodGet, "/api/discover").Code)

	missing := fakeDiscoverer{res: &discovery.Result{
		Homeserver: discovery.Entry{State: discovery.StatePrompt, Error: discovery.ErrMissingWellKnown},
	}}
	h = newTestServer(t, readyState(web()), missing)
	rec = do(h, http.MethodGet, "/api/discover?server_name=example.org")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), string(discovery.ErrMissingWellKnown))

	unreachable := fakeDiscoverer{res: &discovery.Result{
		Homeserver: discovery.Entry{
			State:   discovery.StateFailError,
			Error:   discovery.ErrInvalidHomeserver,
			BaseURL: "https://matrix.example.org",
		},
	}}
	h = newTestServer(t, readyState(web()), unreachable)
	rec = do(h, http.MethodGet, "/api/discover?server_name=example.org")
	assert.Equal(t, http.StatusBadGateway, rec.Code, "runtime lookups are not syntax-only")
}

func TestMenu(t *testing.T) {
	h := newTestServer(t, readyState(web()), nil)
	assert.Equal(t, http.StatusNotFound, do(h, http.MethodGet, "/api/menu").Code)

	desktop := platform.NewDesktop(platform.Options{GOOS: "linux", Logger: zap.NewNop().Sugar()})
	h = newTestServer(t, readyState(desktop), nil)
	rec := do(h, http.MethodGet, "/api/menu")
	require.Equal(t, http.StatusOK, rec.Code)
	var items []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	assert.Equal(t, "&File", items[0]["label"])
}

func TestPlatformAndUpdateCheck(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "version"), []byte("1.0.0"), 0o644))
	p := platform.NewWeb(platform.Options{WebappDir: dir, PublicHost: "chat.example.org", Logger: zap.NewNop().Sugar()})
	h := newTestServer(t, readyState(p), nil)

	rec := do(h, http.MethodGet, "/api/platform")
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Web Platform", body["name"])
	assert.Equal(t, true, body["canSelfUpdate"])
	assert.Equal(t, false, body["enableGuest"])

	rec = do(h, http.MethodPost, "/api/update-check")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"active":true,"status":"NOTAVAILABLE"}`, rec.Body.String())

	rec = do(h, http.MethodDelete, "/api/update-check")
	assert.JSONEq(t, `{"active":false}`, rec.Body.String())

	desktop := platform.NewDesktop(platform.Options{GOOS: "linux"})
	h = newTestServer(t, readyState(desktop), nil)
	assert.Equal(t, http.StatusConflict, do(h, http.MethodPost, "/api/update-check").Code)
}

func TestRegistrationURL(t *testing.T) {
	h := newTestServer(t, readyState(web()), nil)

	target := "/api/registration-url?page=" + url.QueryEscape("https://chat.example.org/riot/") +
		"&sid=abc&client_secret=a+b"
	rec := do(h, http.MethodGet, target)
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "https://chat.example.org/riot/#/register?client_secret=a%20b&sid=abc", body["url"])

	assert.Equal(t, http.StatusBadRequest, do(h, http.MethodGet, "/api/registration-url?page=relative").Code)

	desktop := platform.NewDesktop(platform.Options{GOOS: "linux", Logger: zap.NewNop().Sugar()})
	h = newTestServer(t, readyState(desktop), nil)
	rec = do(h, http.MethodGet, target)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "https://riot.im/app/#/register?client_secret=a%20b&sid=abc", body["url"])
}

func TestScreen(t *testing.T) {
	h := newTestServer(t, readyState(web()), nil)

	target := "/api/screen?url=" + url.QueryEscape("https://chat.example.org/#/room/!abc:example.org?via=example.org")
	rec := do(h, http.MethodGet, target)
	require.Equal(t, http.StatusOK, rec.Code)
	var got struct {
		Screen string              `json:"screen"`
		Params map[string][]string `json:"params"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "room/!abc:example.org", got.Screen)
	assert.Equal(t, []string{"example.org"}, got.Params["via"])
}

func TestBadge(t *testing.T) {
	h := newTestServer(t, readyState(web()), nil)
	put := func(body string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodPut, "/api/badge", strings.NewReader(body))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		return rec
	}

	rec := put(`{"count":3}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"text":"3","color":"#d00"}`, rec.Body.String())

	rec = put(`{"error":true}`)
	assert.JSONEq(t, `{"text":"3","color":"#f00"}`, rec.Body.String())

	rec = put(`{"count":0}`)
	assert.JSONEq(t, `{"text":"×","color":"#f00"}`, rec.Body.String())

	assert.Equal(t, http.StatusBadRequest, put(`{`).Code)
}

func TestMetricsAndStatic(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "manifest.json"), []byte(`{"name":"riot"}`), 0o644))

	views, err := view.New("")
	require.NoError(t, err)
	h := New(Options{State: readyState(web()), Views: views, WebappDir: dir}).Routes()

	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/metrics").Code)

	rec := do(h, http.MethodGet, "/manifest.json")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "riot")
}

func TestForceHTTPSOption(t *testing.T) {
	views, err := view.New("")
	require.NoError(t, err)
	h := New(Options{State: readyState(web()), Views: views, ForceHTTPS: true}).Routes()

	rec := do(h, http.MethodGet, "http://chat.example.org/config.json")
	assert.Equal(t, http.StatusPermanentRedirect, rec.Code)
}

func TestNewHTTPServer(t *testing.T) {
	srv := NewHTTPServer(":0", http.NotFoundHandler())
	assert.Equal(t, ReadTimeout, srv.ReadTimeout)
	assert.Equal(t, WriteTimeout, srv.WriteTimeout)
	assert.Equal(t, IdleTimeout, srv.IdleTimeout)
}

package bootstrap

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/yanizio/vector/internal/config"
	"github.com/yanizio/vector/internal/discovery"
	"github.com/yanizio/vector/internal/metrics"
	"github.com/yanizio/vector/internal/platform"
	"github.com/yanizio/vector/internal/serverconf"
)

type stubResolver struct {
	calls int
	err   error
}

func (s *stubResolver) Resolve(_ context.Context, raw config.Raw) (*config.Client, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return config.NewClient(raw, discovery.ValidatedServerConfig{
		HSURL:     "https://matrix.example.org",
		HSName:    "matrix.example.org",
		IsDefault: true,
	}), nil
}

func webWith(t *testing.T, body string) platform.Platform {
	t.Helper()
	dir := t.TempDir()
	if body != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(body), 0o644))
	}
	return platform.NewWeb(platform.Options{WebappDir: dir, Logger: zap.NewNop().Sugar()})
}

func boot(p platform.Platform, r Resolver) *State {
	return Boot(context.Background(), Deps{Platform: p, Resolver: r, Logger: zap.NewNop().Sugar()})
}

func TestBoot_Ready(t *testing.T) {
	res := &stubResolver{}
	st := boot(webWith(t, `{"brand":"Gateway","default_hs_url":"https://matrix.example.org"}`), res)

	require.True(t, st.Ready())
	assert.Nil(t, st.LoadErr)
	assert.NoError(t, st.ResolveErr)
	assert.Equal(t, "Gateway", st.Brand())
	assert.True(t, st.Client.Server().IsDefault)
	assert.Equal(t, 1, res.calls)
}

func TestBoot_LogsReadyOnce(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	Boot(context.Background(), Deps{
		Platform: webWith(t, `{"default_hs_url":"https://matrix.example.org"}`),
		Resolver: &stubResolver{},
		Logger:   zap.New(core).Sugar(),
	})

	ready := logs.FilterMessage("client config ready").All()
	require.Len(t, ready, 1)
	fields := ready[0].ContextMap()
	assert.Equal(t, "https://matrix.example.org", fields["hs_url"])
	assert.Equal(t, "matrix.example.org", fields["hs_name"])
}

func TestBoot_SyntaxError(t *testing.T) {
	before := testutil.ToFloat64(metrics.ConfigLoadErrors.WithLabelValues("syntax"))
	res := &stubResolver{}
	st := boot(webWith(t, `{"brand": "Riot",}`), res)

	assert.False(t, st.Ready())
	require.NotNil(t, st.LoadErr)
	assert.True(t, st.LoadErr.Syntax())
	assert.Equal(t, 0, res.calls, "no resolve after a load failure")
	assert.Equal(t, config.Raw{}, st.Raw)
	assert.Equal(t, "Riot", st.Brand())
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.ConfigLoadErrors.WithLabelValues("syntax")))
}

type failingPlatform struct{ platform.Platform }

func (failingPlatform) Name() string { return "failing" }
func (failingPlatform) GetConfig(context.Context) (config.Raw, error) {
	return nil, errors.New("permission denied")
}

func TestBoot_LoadError(t *testing.T) {
	st := boot(failingPlatform{}, &stubResolver{})

	require.NotNil(t, st.LoadErr)
	assert.False(t, st.LoadErr.Syntax())
	assert.EqualError(t, errors.Unwrap(st.LoadErr), "permission denied")
}

func TestBoot_ResolveError(t *testing.T) {
	res := &stubResolver{err: &serverconf.ShapeError{Err: serverconf.ErrNoDefault}}
	st := boot(webWith(t, `{"brand":"Riot"}`), res)

	assert.False(t, st.Ready())
	assert.Nil(t, st.LoadErr)
	assert.ErrorIs(t, st.ResolveErr, serverconf.ErrNoDefault)
	assert.Equal(t, "Invalid configuration: no default server specified.", st.UserMessage())
}

func TestBoot_MissingConfigStillResolves(t *testing.T) {
	res := &stubResolver{err: &serverconf.ShapeError{Err: serverconf.ErrNoDefault}}
	st := boot(webWith(t, ""), res)

	assert.Nil(t, st.LoadErr, "a missing config.json is an empty config")
	assert.Equal(t, 1, res.calls)
}

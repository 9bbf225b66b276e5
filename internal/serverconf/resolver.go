// internal/serverconf/resolver.go
//
// Resolve the client's default homeserver at startup.
//
// Context
// -------
// Resolve turns a loaded config.json into a *config.Client whose
// validated_server_config names the homeserver (and optionally identity
// server) the client should use by default.
//
// Flow
//
//  1. ParseSource picks default_server_config, default_server_name, or
//     default_hs_url; anything but exactly one is a *ShapeError.
//  2. The source becomes a discovery Result, either directly from the
//     well-known object or by fetching /.well-known/matrix/client.
//  3. BuildValidatedConfig folds the Result with syntaxOnly set, so a
//     well-formed but unreachable server still boots with a Warning.
//  4. If any of that fails and the session store shows a logged-in user,
//     the session's homeserver is validated instead.  Otherwise the first
//     error is returned.
//
// Notes
// -----
//   • Deprecated options go to Diagnostics and never fail resolution.
//   • Resolve holds no state between calls; equal inputs give equal output.
//   • Oxford commas, two spaces after periods.
//
// Instrumentation
// ---------------
//   - metrics.ServerConfigResolutions{source}
//   - metrics.ServerConfigErrors{kind}

package serverconf

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/yanizio/vector/internal/config"
	"github.com/yanizio/vector/internal/discovery"
	"github.com/yanizio/vector/internal/metrics"
	"github.com/yanizio/vector/internal/session"
)

// Discoverer is the subset of *discovery.Client the resolver needs.
type Discoverer interface {
	FromDiscoveryConfig(ctx context.Context, wellKnown any) *discovery.Result
	FindClientConfig(ctx context.Context, serverName string) (*discovery.Result, error)
	ValidateServerConfigWithStaticURLs(ctx context.Context, hsURL, isURL string, syntaxOnly bool) (discovery.ValidatedServerConfig, error)
}

// Resolver resolves default server configuration.  The zero value is not
// usable; use New.
type Resolver struct {
	disco    Discoverer
	sessions session.Store
	diag     Diagnostics
	log      *zap.SugaredLogger
}

// Option customizes a Resolver.
type Option func(*Resolver)

// WithDiagnostics replaces the default zap/metrics diagnostics sink.
func WithDiagnostics(d Diagnostics) Option { return func(r *Resolver) { r.diag = d } }

// WithLogger sets the logger.  Defaults to zap.S().
func WithLogger(l *zap.SugaredLogger) Option { return func(r *Resolver) { r.log = l } }

// New builds a Resolver.  A nil sessions store means no session.
func New(disco Discoverer, sessions session.Store, opts ...Option) *Resolver {
	r := &Resolver{disco: disco, sessions: sessions}
	for _, o := range opts {
		o(r)
	}
	if r.sessions == nil {
		r.sessions = session.None{}
	}
	if r.log == nil {
		r.log = zap.S()
	}
	if r.diag == nil {
		r.diag = logDiagnostics{log: r.log}
	}
	return r
}

// Resolve validates the default server in raw and returns the client config
// with validated_server_config set and marked as the default.
func (r *Resolver) Resolve(ctx context.Context, raw config.Raw) (*config.Client, error) {
	label := "session"
	validated, src, err := r.fromConfig(ctx, raw)
	if err == nil {
		label = src.Label()
	} else {
		validated, err = r.fromSession(ctx, err)
		if err != nil {
			return nil, err
		}
	}

	validated.IsDefault = true
	metrics.ServerConfigResolutions.WithLabelValues(label).Inc()
	r.log.Infow("using homeserver config",
		"source", label,
		"hs_url", validated.HSURL,
		"hs_name", validated.HSName,
		"is_url", validated.ISURL,
	)
	if validated.Warning != "" {
		r.log.Warnw("homeserver config accepted with warning", "warning", string(validated.Warning))
	}
	return config.NewClient(raw, validated), nil
}

func (r *Resolver) fromConfig(ctx context.Context, raw config.Raw) (discovery.ValidatedServerConfig, Source, error) {
	src, err := ParseSource(raw)
	if err != nil {
		return discovery.ValidatedServerConfig{}, nil, err
	}
	checkIgnored(raw, src, r.diag)
	if opt := src.DeprecatedOption(); opt != "" {
		r.diag.Deprecated(opt, config.KeyDefaultServerConfig)
	}

	var (
		serverName string
		result     *discovery.Result
	)
	switch s := src.(type) {
	case WellKnownSource:
		result = r.disco.FromDiscoveryConfig(ctx, s.Config)
	case LegacyHSURLSource:
		result = r.disco.FromDiscoveryConfig(ctx, s.WellKnown())
	case ServerNameSource:
		serverName = s.Name
		result, err = r.disco.FindClientConfig(ctx, s.Name)
		if err != nil {
			return discovery.ValidatedServerConfig{}, src, err
		}
	}

	validated, err := discovery.BuildValidatedConfig(serverName, result, true)
	return validated, src, err
}

// fromSession falls back to a logged-in session's homeserver.  cause is
// returned unchanged when there is no session to fall back to.
func (r *Resolver) fromSession(ctx context.Context, cause error) (discovery.ValidatedServerConfig, error) {
	vars, err := r.sessions.Vars(ctx)
	if err != nil {
		r.log.Warnw("session store unavailable", "err", err)
	}
	if err != nil || !vars.HasSession() {
		metrics.ServerConfigErrors.WithLabelValues(errorKind(cause)).Inc()
		return discovery.ValidatedServerConfig{}, cause
	}

	r.log.Errorw("default homeserver config invalid; using previous session",
		"err", cause,
		"hs_url", vars.HSURL,
		"user_id", vars.UserID,
	)
	validated, err := r.disco.ValidateServerConfigWithStaticURLs(ctx, vars.HSURL, vars.ISURL, true)
	if err != nil {
		metrics.ServerConfigErrors.WithLabelValues("fallback").Inc()
		return discovery.ValidatedServerConfig{}, err
	}
	return validated, nil
}

func errorKind(err error) string {
	var shape *ShapeError
	if errors.As(err, &shape) {
		return "shape"
	}
	return "discovery"
}

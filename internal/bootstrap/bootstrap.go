// internal/bootstrap/bootstrap.go
//
// Startup sequence that turns config.json into a ready client config.
//
// Context
// -------
// Boot runs once, before the HTTP listener starts:
//
//  1. Ask the platform for the client config.
//  2. A load failure is recorded and stops the sequence.  A syntax error
//     and a read error are kept apart because the user sees different
//     pages for them.
//  3. Start the platform updater.
//  4. Resolve the default homeserver.  A failure is recorded; the HTTP
//     layer shows it as the blocking "misconfigured" page.
//
// Boot never returns an error.  Every outcome is a *State the HTTP layer
// renders.
//
// Instrumentation
// ---------------
//   - metrics.ConfigLoadErrors{kind}
//   - INFO "client config ready" / ERROR on every failure.

package bootstrap

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/yanizio/vector/internal/config"
	"github.com/yanizio/vector/internal/metrics"
	"github.com/yanizio/vector/internal/platform"
	"github.com/yanizio/vector/internal/serverconf"
)

// Resolver resolves the default homeserver.  *serverconf.Resolver
// implements it.
type Resolver interface {
	Resolve(ctx context.Context, raw config.Raw) (*config.Client, error)
}

// Deps are Boot's collaborators.
type Deps struct {
	Platform platform.Platform
	Resolver Resolver
	Logger   *zap.SugaredLogger
}

// State is the outcome of Boot.  Exactly one of Client, LoadErr, and
// ResolveErr is set.
type State struct {
	Platform   platform.Platform
	Raw        config.Raw
	Client     *config.Client
	LoadErr    *config.LoadError
	ResolveErr error
}

// Ready reports whether the client config resolved.
func (s *State) Ready() bool { return s.Client != nil }

// Brand returns the configured brand, falling back to "Riot".
func (s *State) Brand() string {
	if s.Client != nil {
		return s.Client.Brand()
	}
	if b := s.Raw.String(config.KeyBrand); b != "" {
		return b
	}
	return "Riot"
}

// UserMessage is the text shown for a failed resolve.
func (s *State) UserMessage() string {
	if s.ResolveErr == nil {
		return ""
	}
	return serverconf.UserMessage(s.ResolveErr)
}

// Boot runs the startup sequence.
func Boot(ctx context.Context, d Deps) *State {
	log := d.Logger
	if log == nil {
		log = zap.S()
	}
	st := &State{Platform: d.Platform, Raw: config.Raw{}}

	log.Infow("loading client config", "platform", d.Platform.Name())
	raw, err := d.Platform.GetConfig(ctx)
	if err != nil {
		var le *config.LoadError
		if !errors.As(err, &le) {
			le = &config.LoadError{Err: err}
		}
		st.LoadErr = le

		kind := "load"
		if le.Syntax() {
			kind = "syntax"
		}
		metrics.ConfigLoadErrors.WithLabelValues(kind).Inc()
		log.Errorw("client config load failed", "kind", kind, "err", err)
		return st
	}
	st.Raw = raw

	d.Platform.StartUpdater(ctx)

	client, err := d.Resolver.Resolve(ctx, raw)
	if err != nil {
		st.ResolveErr = err
		log.Errorw("default homeserver unusable", "err", err)
		return st
	}

	st.Client = client
	srv := client.Server()
	log.Infow("client config ready",
		"hs_url", srv.HSURL,
		"hs_name", srv.HSName,
		"is_url", srv.ISURL,
		"guests", client.EnableGuest(),
	)
	return st
}

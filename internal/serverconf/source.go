// internal/serverconf/source.go
//
// The three ways a client config can name its default homeserver.
//
// Context
// -------
// config.json may carry exactly one of:
//
//   • default_server_config – a well-known object (canonical),
//   • default_server_name   – a domain to look up (deprecated),
//   • default_hs_url        – a bare homeserver URL, optionally paired with
//     default_is_url (deprecated).
//
// ParseSource picks one and returns it as a Source variant.  Zero or several
// candidates is a *ShapeError, so past parsing the "more than one" state
// cannot exist.
//
// Presence follows the client's truthiness rules: "", false, 0, and null
// are absent; any object, even an empty one, is present.

package serverconf

import (
	"fmt"

	"github.com/yanizio/vector/internal/config"
	"github.com/yanizio/vector/internal/discovery"
)

// Source is one of WellKnownSource, ServerNameSource, or LegacyHSURLSource.
type Source interface {
	// Label names the source in logs and metrics.
	Label() string
	// DeprecatedOption is the config key this source is read from when that
	// key is deprecated, else "".
	DeprecatedOption() string
}

// WellKnownSource carries default_server_config as loaded.  Config is
// normally a map[string]any; discovery rejects anything else.
type WellKnownSource struct {
	Config any
}

func (WellKnownSource) Label() string            { return "well_known" }
func (WellKnownSource) DeprecatedOption() string { return "" }

// ServerNameSource carries default_server_name.
type ServerNameSource struct {
	Name string
}

func (ServerNameSource) Label() string            { return "server_name" }
func (ServerNameSource) DeprecatedOption() string { return config.KeyDefaultServerName }

// LegacyHSURLSource carries default_hs_url and the optional default_is_url.
type LegacyHSURLSource struct {
	HSURL string
	ISURL string
}

func (LegacyHSURLSource) Label() string            { return "hs_url" }
func (LegacyHSURLSource) DeprecatedOption() string { return config.KeyDefaultHSURL }

// WellKnown translates the legacy URLs into the canonical well-known shape.
// m.identity_server is only present when ISURL is set.
func (s LegacyHSURLSource) WellKnown() map[string]any {
	wk := map[string]any{
		discovery.KeyHomeserver: map[string]any{discovery.KeyBaseURL: s.HSURL},
	}
	if s.ISURL != "" {
		wk[discovery.KeyIdentityServer] = map[string]any{discovery.KeyBaseURL: s.ISURL}
	}
	return wk
}

var candidateKeys = []string{
	config.KeyDefaultServerConfig,
	config.KeyDefaultServerName,
	config.KeyDefaultHSURL,
}

// ParseSource selects the single homeserver source in raw.
func ParseSource(raw config.Raw) (Source, error) {
	var present []string
	for _, key := range candidateKeys {
		if truthy(raw[key]) {
			present = append(present, key)
		}
	}

	switch {
	case len(present) > 1:
		return nil, &ShapeError{Err: ErrMultipleDefaults, Fields: present}
	case len(present) < 1:
		return nil, &ShapeError{Err: ErrNoDefault}
	}

	switch present[0] {
	case config.KeyDefaultServerConfig:
		return WellKnownSource{Config: raw[config.KeyDefaultServerConfig]}, nil
	case config.KeyDefaultServerName:
		return ServerNameSource{Name: stringify(raw[config.KeyDefaultServerName])}, nil
	default:
		is := ""
		if truthy(raw[config.KeyDefaultISURL]) {
			is = stringify(raw[config.KeyDefaultISURL])
		}
		return LegacyHSURLSource{HSURL: stringify(raw[config.KeyDefaultHSURL]), ISURL: is}, nil
	}
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case float64:
		return t != 0
	case int:
		return t != 0
	default:
		return true
	}
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

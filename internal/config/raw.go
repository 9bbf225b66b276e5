// internal/config/raw.go
//
// Client configuration (`config.json`) as loaded from disk.
//
// Context
// -------
// The web app ships a JSON file describing brand, default homeserver, and
// feature flags.  The service reads it once at boot, hands it to the
// homeserver resolver, and serves the merged result back to the client.
//
// Loading goes through Koanf with the JSON parser, but with "/" as the key
// delimiter: well-known keys such as `m.homeserver` contain dots and must
// survive as single keys.
//
// Errors
// ------
// A missing file is not an error; it yields an empty Raw, the same way the
// browser treats a 404.  Everything else is wrapped in *LoadError, and
// `Syntax()` tells the caller whether to show the "invalid JSON" page or the
// generic "unable to load config" one.
//
// Notes
// -----
//   • Raw is treated as read-only once loaded.  Use Clone before mutating.
//   • Oxford commas, two spaces after periods.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"

	kjson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
)

// Client config keys the resolver reads.
const (
	KeyDefaultServerConfig = "default_server_config"
	KeyDefaultServerName   = "default_server_name"
	KeyDefaultHSURL        = "default_hs_url"
	KeyDefaultISURL        = "default_is_url"
	KeyValidatedServer     = "validated_server_config"
	KeyDisableGuests       = "disable_guests"
	KeyBrand               = "brand"
)

const rawDelim = "/"

// Raw is the as-loaded client configuration mapping.
type Raw map[string]any

// Clone returns a shallow copy.  Nested values are shared.
func (r Raw) Clone() Raw {
	if r == nil {
		return Raw{}
	}
	return maps.Clone(r)
}

// String returns r[key] when it is a string, else "".
func (r Raw) String(key string) string {
	s, _ := r[key].(string)
	return s
}

// Bool returns r[key] when it is a bool, else false.
func (r Raw) Bool(key string) bool {
	b, _ := r[key].(bool)
	return b
}

// LoadError wraps a failure to load a client config file.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load client config %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Syntax reports whether the file was read but is not valid JSON.
func (e *LoadError) Syntax() bool {
	var se *json.SyntaxError
	return errors.As(e.Err, &se)
}

// SyntaxMessage returns the parser's message, or "Invalid JSON".
func (e *LoadError) SyntaxMessage() string {
	var se *json.SyntaxError
	if errors.As(e.Err, &se) {
		return se.Error()
	}
	return "Invalid JSON"
}

// LoadRaw reads one JSON client config file.  A missing file yields an
// empty Raw and no error.
func LoadRaw(path string) (Raw, error) {
	return LoadRawLayers(path)
}

// LoadRawLayers reads each file in order and merges later files over
// earlier ones.  Missing files are skipped.
func LoadRawLayers(paths ...string) (Raw, error) {
	k := koanf.New(rawDelim)
	for _, p := range paths {
		if err := k.Load(file.Provider(p), kjson.Parser()); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, &LoadError{Path: p, Err: err}
		}
	}
	return Raw(k.Raw()), nil
}

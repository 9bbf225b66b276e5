// internal/config/model.go
//
// Typed settings model for the Vector service.
//
// Context
// -------
// These structs define the shape of the settings tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `.env`                          – dotenv values,
//   • `conf/vector.yaml`                       – primary static file,
//   • `VECTOR_`-prefixed environment overrides – highest precedence.
//
// Settings describe how the *service* runs.  The client configuration the
// web app consumes (`config.json`) is a different document; see raw.go.
//
// Any value whose string begins with `vault:` is resolved through the
// Vault client by the caller before use, so downstream code never sees
// Vault references.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`.
//   • The `Paths` block is filled at runtime; YAML must not try to set it.
//   • Oxford commas, two spaces after periods.  No em-dash.

package config

import "time"

//
// HTTP section
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr string `koanf:"listen_addr" validate:"required,hostname_port"`
	ForceHTTPS bool   `koanf:"force_https"`
	PublicHost string `koanf:"public_host" validate:"omitempty,hostname"`
}

//
// Platform section
//

// Platform selects the web or desktop glue and where each finds its files.
type Platform struct {
	Kind        string `koanf:"kind"          validate:"required,oneof=web desktop"`
	WebappDir   string `koanf:"webapp_dir"    validate:"required"`
	UserDataDir string `koanf:"user_data_dir" validate:"required_if=Kind desktop"`
	AppName     string `koanf:"app_name"`
}

//
// Session section
//

// Session points at the database holding persisted client session vars.
// An empty DSN means no session store; the resolver then never falls back.
type Session struct {
	DSN      string `koanf:"dsn"`
	Password string `koanf:"password"`
}

//
// Discovery section
//

// Discovery tunes well-known lookups and server probes.
type Discovery struct {
	Timeout   time.Duration `koanf:"timeout"    validate:"gte=0"`
	CacheSize int           `koanf:"cache_size" validate:"gte=0"`
	CacheTTL  time.Duration `koanf:"cache_ttl"  validate:"gte=0"`
}

//
// Log section
//

// Log selects the log directory and level.
type Log struct {
	Dir   string `koanf:"dir"`
	Level string `koanf:"level" validate:"omitempty,oneof=debug info warn error"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime.  The loader discovers `Root` (repo root or
// VECTOR_ROOT override) so later code can build absolute file paths.
type Paths struct {
	Root string
}

//
// Root aggregate
//

// Settings is the aggregate returned by Load().  Boot resolves secrets in
// place; after that it is read-only.
type Settings struct {
	HTTP      HTTP      `koanf:"http"`
	Platform  Platform  `koanf:"platform"`
	Session   Session   `koanf:"session"`
	Discovery Discovery `koanf:"discovery"`
	Log       Log       `koanf:"log"`
	Paths     Paths     `koanf:"-"`
}

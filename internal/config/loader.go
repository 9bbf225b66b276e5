// internal/config/loader.go
//
// Settings loader.
//
/*
Context
--------
`Load()` builds one immutable `Settings` struct from four layers (highest
precedence last):

  0. Built-in defaults (listen address, platform kind, discovery timings).
  1. Optional `.env` file at `<root>/conf/.env`.
  2. `conf/vector.yaml`.
  3. Environment variables prefixed `VECTOR_`, where `__` maps to "."
     (e.g., `VECTOR_HTTP__LISTEN_ADDR → http.listen_addr`).

After merging, the tree is unmarshalled into typed structs, validated,
and enriched with the runtime root path.  The caller owns the returned
*Settings; the service reads it once at boot and hands each component its
own section.

Instrumentation
---------------
  • DEBUG spans: root discovery, YAML read.
  • ERROR spans: YAML parse, env overlay, unmarshal, validation failures.
  • INFO  span: final "settings loaded" with key highlights.
  • Logs use the global sugared logger (`zap.S()`) so early boot issues
    surface even before the file logger is installed.
*/
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

const (
	envPrefix    = "VECTOR_"
	settingsFile = "vector.yaml"
)

var defaults = map[string]any{
	"http.listen_addr":     ":8080",
	"platform.kind":        "web",
	"platform.webapp_dir":  "webapp",
	"platform.app_name":    "Riot",
	"discovery.timeout":    "10s",
	"discovery.cache_size": 256,
	"discovery.cache_ttl":  "5m",
	"log.dir":              "logs",
	"log.level":            "info",
}

/*──────────────────────────── root discovery ───────────────────────────────*/

// rootDir resolves VECTOR_ROOT or climbs directories until conf/vector.yaml
// is found.  Falls back to an executable heuristic for the production
// layout (<root>/bin/vector).
func rootDir() string {
	if r := os.Getenv("VECTOR_ROOT"); r != "" {
		return r
	}

	wd, _ := os.Getwd()
	dir := wd
	for {
		if _, err := os.Stat(filepath.Join(dir, "conf", settingsFile)); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	exe, _ := os.Executable()
	if filepath.Base(filepath.Dir(exe)) == "bin" {
		return filepath.Dir(filepath.Dir(exe))
	}
	return wd
}

/*─────────────────────────────── loader ───────────────────────────────────*/

// Load discovers the root directory and loads Settings from it.
func Load() (*Settings, error) {
	return LoadFrom(rootDir())
}

// LoadFrom reads defaults, .env, YAML, and env overrides beneath root,
// validates, and caches the result.
func LoadFrom(root string) (*Settings, error) {
	zap.S().Debugw("settings root resolved", "root", root)

	// .env (optional, no error if missing)
	_ = godotenv.Load(filepath.Join(root, "conf", ".env"))

	k := koanf.New(".")
	for key, val := range defaults {
		if err := k.Set(key, val); err != nil {
			return nil, err
		}
	}

	yamlPath := filepath.Join(root, "conf", settingsFile)
	if err := k.Load(file.Provider(yamlPath), yaml.Parser()); err != nil {
		zap.S().Errorw("settings yaml load failed", "file", yamlPath, "err", err)
		return nil, err
	}
	zap.S().Debugw("settings yaml loaded", "file", yamlPath)

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		zap.S().Errorw("settings env overlay failed", "err", err)
		return nil, err
	}

	var s Settings
	if err := k.Unmarshal("", &s); err != nil {
		zap.S().Errorw("settings unmarshal failed", "err", err)
		return nil, err
	}

	s.Paths.Root = root
	s.Platform.WebappDir = absUnder(root, s.Platform.WebappDir)
	if s.Platform.UserDataDir != "" {
		s.Platform.UserDataDir = absUnder(root, s.Platform.UserDataDir)
	}
	s.Log.Dir = absUnder(root, s.Log.Dir)

	if err := validateStruct(&s); err != nil {
		zap.S().Errorw("settings validation failed", "err", err)
		return nil, err
	}

	zap.S().Infow("settings loaded",
		"listen_addr", s.HTTP.ListenAddr,
		"platform", s.Platform.Kind,
		"webapp_dir", s.Platform.WebappDir,
		"session_store", s.Session.DSN != "",
		"discovery_timeout", s.Discovery.Timeout.String(),
	)
	return &s, nil
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

// envKey maps VECTOR_HTTP__LISTEN_ADDR to http.listen_addr.
func envKey(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	return strings.ToLower(strings.ReplaceAll(s, "__", "."))
}

func absUnder(root, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

// DiscoveryTimeout returns the probe timeout, never zero.
func (s *Settings) DiscoveryTimeout() time.Duration {
	if s.Discovery.Timeout <= 0 {
		return 10 * time.Second
	}
	return s.Discovery.Timeout
}

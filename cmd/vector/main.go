// cmd/vector/main.go
//
// Vector – HTTP entry point.
//
// Boot sequence
// -------------
//
//  1. Load env vars (jail-wide file → .env fallback).
//
//  2. Load settings, then start the daily rotating logger (tees to console
//     when running in a TTY).
//
//  3. Resolve vault: refs in secret settings, if any.
//
//  4. Open the session store (optional; boot continues without it).
//
//  5. Build the discovery client, the server-config resolver, and the
//     platform glue.
//
//  6. Boot: load the client config and resolve the default homeserver.
//     A failure here is not fatal; the app shell renders the error page.
//
//  7. Serve the chi router until SIGINT or SIGTERM, then drain.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/yanizio/vector/internal/bootstrap"
	"github.com/yanizio/vector/internal/config"
	"github.com/yanizio/vector/internal/discovery"
	"github.com/yanizio/vector/internal/logger"
	"github.com/yanizio/vector/internal/platform"
	"github.com/yanizio/vector/internal/server"
	"github.com/yanizio/vector/internal/serverconf"
	"github.com/yanizio/vector/internal/vault"
	"github.com/yanizio/vector/internal/view"
)

const (
	serverEnvPath   = "/usr/local/etc/vector/vector.env"
	shutdownTimeout = 15 * time.Second
)

// loadEnv prefers the jail-wide env file; on dev it falls back to .env.
func loadEnv() {
	if _, err := os.Stat(serverEnvPath); err == nil {
		_ = godotenv.Load(serverEnvPath)
		return
	}
	_ = godotenv.Load()
}

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func init() { loadEnv() }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	boot := logger.Console()
	s, err := config.Load()
	if err != nil {
		boot.Fatalw("load settings", "err", err)
	}

	log, err := logger.New(logger.Options{Dir: s.Log.Dir, Level: s.Log.Level, Tee: runningInTTY()})
	if err != nil {
		boot.Fatalw("start logger", "err", err)
	}
	defer func() { _ = log.Sync() }()

	//
	// ── 1.  Secrets ──────────────────────────────────────────────────────
	//
	if bootstrap.NeedsVault(s) {
		vc, err := vault.New(ctx, log)
		if err != nil {
			log.Fatalw("connect vault", "err", err)
		}
		if err := bootstrap.ResolveSecrets(ctx, s, vc); err != nil {
			log.Fatalw("resolve secrets", "err", err)
		}
	}

	//
	// ── 2.  Session store and discovery ──────────────────────────────────
	//
	sessions, closeSessions := bootstrap.OpenSessionStore(ctx, s.Session, log)
	defer closeSessions()

	disco := discovery.NewClient(discovery.ClientConfig{
		Timeout:   s.DiscoveryTimeout(),
		CacheSize: s.Discovery.CacheSize,
		CacheTTL:  s.Discovery.CacheTTL,
		Logger:    log,
	})
	resolver := serverconf.New(disco, sessions, serverconf.WithLogger(log))

	//
	// ── 3.  Platform and client config ───────────────────────────────────
	//
	plat, err := platform.New(platform.FromSettings(s, runtime.GOOS, log))
	if err != nil {
		log.Fatalw("select platform", "err", err)
	}
	if sub, ok := plat.(interface{ Subscribe(func(platform.UpdateEvent)) }); ok {
		sub.Subscribe(func(ev platform.UpdateEvent) {
			log.Infow("update check", "active", ev.Active, "status", ev.Status)
		})
	}
	state := bootstrap.Boot(ctx, bootstrap.Deps{Platform: plat, Resolver: resolver, Logger: log})

	//
	// ── 4.  HTTP ─────────────────────────────────────────────────────────
	//
	views, err := view.New(filepath.Join(s.Platform.WebappDir, "templates"))
	if err != nil {
		log.Fatalw("load templates", "err", err)
	}
	handler := server.New(server.Options{
		State:      state,
		Discovery:  disco,
		Views:      views,
		WebappDir:  s.Platform.WebappDir,
		ForceHTTPS: s.HTTP.ForceHTTPS,
		Logger:     log,
	}).Routes()
	srv := server.NewHTTPServer(s.HTTP.ListenAddr, handler)

	go func() {
		log.Infow("listening", "addr", s.HTTP.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("http server", "err", err)
		}
	}()

	<-ctx.Done()
	log.Infow("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Errorw("shutdown", "err", err)
	}
}

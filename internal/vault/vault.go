// internal/vault/vault.go
//
// Vault client wrapper for Vector.
//
// Context
// -------
//   - Provides a concurrency-safe wrapper around the HashiCorp Vault Go SDK.
//   - Adds background token renewal, a KV-v2 read helper, and per-key
//     caching.
//   - Settings values of the form `vault:<mount>/<path>#<key>` are secret
//     references.  `Resolve` swaps them for the stored value and passes
//     every other string through unchanged.
//
// Public workflow
// ---------------
//  1. cli, err := vault.New(ctx, zap.S())             // during boot.
//  2. dsn, err := cli.Resolve(ctx, s.Session.DSN)     // for each setting.
//
// Notes
// -----
//   • Oxford commas, two spaces after periods.
package vault

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	vault "github.com/hashicorp/vault/api"
	"go.uber.org/zap"
)

// RefPrefix marks a settings value as a secret reference.
const RefPrefix = "vault:"

// CacheTTL bounds how long a resolved secret is reused.
const CacheTTL = 5 * time.Minute

//
// SECTION 1.  Public façade
//

// KV reads a single string from a KV-v2 secret.
type KV interface {
	GetKV(ctx context.Context, secretPath, key string, ttl time.Duration) (string, error)
}

// Client is safe for concurrent use.  Create once at startup.  Zero value is
// invalid.
type Client struct {
	api *vault.Client
	log *zap.SugaredLogger

	cacheMu sync.RWMutex
	cache   map[string]cached // canonical path#key → value + expiry.
	now     func() time.Time
}

type cached struct {
	val string
	exp time.Time
}

// New constructs a Vault client and starts a background token-renewal loop.
//
// Environment expectations
// ------------------------
// • VAULT_ADDR   – scheme and host of the Vault server.
// • VAULT_TOKEN  – initial token (falls back to ~/.vault-token).
func New(ctx context.Context, log *zap.SugaredLogger) (*Client, error) {
	if log == nil {
		log = zap.S()
	}

	cfg := vault.DefaultConfig()
	if err := cfg.ReadEnvironment(); err != nil {
		return nil, fmt.Errorf("vault env cfg: %w", err)
	}

	apiCli, err := vault.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("vault api: %w", err)
	}

	if tok := os.Getenv("VAULT_TOKEN"); tok != "" {
		apiCli.SetToken(tok)
	}

	c := &Client{
		api:   apiCli,
		log:   log,
		cache: make(map[string]cached),
		now:   time.Now,
	}

	go c.renewLoop(ctx)

	return c, nil
}

// GetKV fetches a single key from a KV-v2 secret.  If ttl > 0 the result is
// cached for that duration.
func (c *Client) GetKV(ctx context.Context, secretPath, key string, ttl time.Duration) (string, error) {
	if secretPath == "" || key == "" {
		return "", errors.New("secret path and key must be non-empty")
	}

	canonical := secretPath + "#" + key

	if ttl > 0 {
		c.cacheMu.RLock()
		if cv, ok := c.cache[canonical]; ok && c.now().Before(cv.exp) {
			c.cacheMu.RUnlock()
			return cv.val, nil
		}
		c.cacheMu.RUnlock()
	}

	mount, rel := splitMount(secretPath)
	sec, err := c.api.KVv2(mount).Get(ctx, rel)
	if err != nil {
		return "", fmt.Errorf("vault get %s: %w", secretPath, err)
	}

	raw, ok := sec.Data[key]
	if !ok {
		return "", fmt.Errorf("key %q not found in secret %q", key, secretPath)
	}

	sval, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("value at %s#%s is not a string", secretPath, key)
	}

	if ttl > 0 {
		c.cacheMu.Lock()
		c.cache[canonical] = cached{val: sval, exp: c.now().Add(ttl)}
		c.cacheMu.Unlock()
	}

	return sval, nil
}

// Resolve returns value, or the secret it references when it starts with
// RefPrefix.
func (c *Client) Resolve(ctx context.Context, value string) (string, error) {
	return Resolve(ctx, c, value)
}

// Resolve dereferences value through kv.  Plain values are returned as is.
func Resolve(ctx context.Context, kv KV, value string) (string, error) {
	path, key, ok, err := ParseRef(value)
	if err != nil {
		return "", err
	}
	if !ok {
		return value, nil
	}
	return kv.GetKV(ctx, path, key, CacheTTL)
}

// ParseRef splits `vault:<path>#<key>`.  ok is false for plain values; err
// is set for a value that has the prefix but not the shape.
func ParseRef(value string) (path, key string, ok bool, err error) {
	if !strings.HasPrefix(value, RefPrefix) {
		return "", "", false, nil
	}
	ref := strings.TrimPrefix(value, RefPrefix)
	path, key, found := strings.Cut(ref, "#")
	if !found || path == "" || key == "" || !strings.Contains(path, "/") {
		return "", "", false, fmt.Errorf("vault: malformed reference %q (want vault:<mount>/<path>#<key>)", value)
	}
	return path, key, true, nil
}

//
// SECTION 2.  Background token renewal
//

func (c *Client) renewLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		sec, err := c.api.Auth().Token().RenewSelf(0)
		if err != nil {
			c.log.Warnw("vault token renew failed", "err", err)
			backoff(ctx, 30*time.Second)
			continue
		}

		if sec == nil || sec.Auth == nil || !sec.Auth.Renewable {
			c.log.Infow("vault token is not renewable; sleeping", "for", time.Hour)
			backoff(ctx, time.Hour)
			continue
		}

		watcher, err := c.api.NewLifetimeWatcher(&vault.LifetimeWatcherInput{
			Secret: sec,
		})
		if err != nil {
			c.log.Warnw("vault watcher init failed", "err", err)
			backoff(ctx, 30*time.Second)
			continue
		}

		if !c.watch(ctx, watcher) {
			return
		}
	}
}

// watch runs one watcher until it stops.  It returns false when ctx is done.
func (c *Client) watch(ctx context.Context, w *vault.LifetimeWatcher) bool {
	go w.Start()
	defer w.Stop()

	for {
		select {
		case <-ctx.Done():
			return false
		case err := <-w.DoneCh():
			if err != nil {
				c.log.Warnw("vault token renewal stopped", "err", err)
			}
			backoff(ctx, 15*time.Second)
			return ctx.Err() == nil
		case ev := <-w.RenewCh():
			if ev != nil && ev.Secret != nil && ev.Secret.Auth != nil {
				c.log.Debugw("vault token renewed", "ttl_s", ev.Secret.Auth.LeaseDuration)
			}
		}
	}
}

//
// SECTION 3.  Helpers
//

func splitMount(p string) (mount, rel string) {
	if p == "" {
		return "", ""
	}
	mount, rel, _ = strings.Cut(p, "/")
	return
}

func backoff(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

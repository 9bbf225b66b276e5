package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/yanizio/vector/internal/config"
	"github.com/yanizio/vector/internal/database"
	"github.com/yanizio/vector/internal/session"
	"github.com/yanizio/vector/internal/vault"
)

// NeedsVault reports whether any secret-bearing setting is a vault ref.
func NeedsVault(s *config.Settings) bool {
	return strings.HasPrefix(s.Session.DSN, vault.RefPrefix) ||
		strings.HasPrefix(s.Session.Password, vault.RefPrefix)
}

// ResolveSecrets replaces vault refs in s with their values.
func ResolveSecrets(ctx context.Context, s *config.Settings, kv vault.KV) error {
	for name, field := range map[string]*string{
		"session.dsn":      &s.Session.DSN,
		"session.password": &s.Session.Password,
	} {
		v, err := vault.Resolve(ctx, kv, *field)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", name, err)
		}
		*field = v
	}
	return nil
}

// OpenSessionStore opens the session database named in cfg.  With no DSN,
// or when the database cannot be reached, it returns session.None so boot
// continues without the session fallback.  The returned func closes the
// pool.
func OpenSessionStore(ctx context.Context, cfg config.Session, log *zap.SugaredLogger) (session.Store, func()) {
	noop := func() {}
	if cfg.DSN == "" {
		log.Infow("no session store configured")
		return session.None{}, noop
	}

	dsn, err := database.WithPassword(cfg.DSN, cfg.Password)
	if err != nil {
		log.Warnw("session store disabled", "err", err)
		return session.None{}, noop
	}
	db, err := database.Open(ctx, dsn)
	if err != nil {
		log.Warnw("session store unreachable; continuing without it", "err", err)
		return session.None{}, noop
	}
	log.Infow("session store online")
	return session.NewSQLStore(db), func() { _ = db.Close() }
}

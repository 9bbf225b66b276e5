// Package database centralises sqlx connection helpers.  The default driver
// is go-sql-driver/mysql, which also works with MariaDB when configured for
// the MySQL wire protocol.
//
// Public entry points:
//
//	Open(ctx, dsn)                      – conservative pool for the session store.
//	OpenWithOptions(ctx, dsn, Options)  – fine-grained control.
//
// Both helpers Ping the database before returning so callers can fail fast
// during bootstrap.  Callers should Close() the returned *sqlx.DB when no
// longer needed.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

// Options tunes one connection pool.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	Retries         int           // extra Ping attempts after the first
	RetryBackoff    time.Duration // wait between attempts
}

// DefaultOptions suits a read-mostly pool touched once per boot.
var DefaultOptions = Options{
	MaxOpenConns:    4,
	MaxIdleConns:    1,
	ConnMaxLifetime: 30 * time.Minute,
	Retries:         2,
	RetryBackoff:    500 * time.Millisecond,
}

// Open returns a *sqlx.DB using DefaultOptions.
func Open(ctx context.Context, dsn string) (*sqlx.DB, error) {
	return OpenWithOptions(ctx, dsn, DefaultOptions)
}

// OpenWithOptions opens a MySQL pool and pings it, retrying per opts.
func OpenWithOptions(ctx context.Context, dsn string, opts Options) (*sqlx.DB, error) {
	db, err := sqlx.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxIdleConns)
	db.SetConnMaxLifetime(opts.ConnMaxLifetime)

	if err := pingWithRetry(ctx, db, opts); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

type pinger interface {
	PingContext(ctx context.Context) error
}

func pingWithRetry(ctx context.Context, db pinger, opts Options) error {
	var err error
	for attempt := 0; attempt <= opts.Retries; attempt++ {
		if err = db.PingContext(ctx); err == nil {
			return nil
		}
		if attempt == opts.Retries {
			break
		}
		t := time.NewTimer(opts.RetryBackoff)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
	return fmt.Errorf("database ping failed after %d attempt(s): %w", opts.Retries+1, err)
}

// WithPassword returns dsn with its password replaced.  An empty password
// leaves dsn untouched.  Secrets are kept out of the DSN setting this way.
func WithPassword(dsn, password string) (string, error) {
	if password == "" {
		return dsn, nil
	}
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parse dsn: %w", err)
	}
	cfg.Passwd = password
	return cfg.FormatDSN(), nil
}

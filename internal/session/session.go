// internal/session/session.go
//
// Persisted client session variables.
//
// Context
// -------
// The web client keeps `mx_hs_url`, `mx_is_url`, and `mx_user_id` in its
// local storage once a user has logged in.  The service mirrors that
// key/value table in SQL so the homeserver resolver can tell whether a
// previously authenticated session exists and, if so, which homeserver it
// used.  The store is read-only from the service's point of view.
//
//	CREATE TABLE local_storage (
//	    `key`  VARCHAR(128) PRIMARY KEY,
//	    value  TEXT         NOT NULL
//	);
//
// Notes
// -----
//   • Unknown keys are ignored; missing keys leave the field empty.
//   • `None` is used when no DSN is configured.
//   • Oxford commas, two spaces after periods.

package session

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// Local storage keys written by the client.
const (
	KeyHSURL  = "mx_hs_url"
	KeyISURL  = "mx_is_url"
	KeyUserID = "mx_user_id"
)

// Vars is a previously persisted session.  Any field may be empty.
type Vars struct {
	HSURL  string
	ISURL  string
	UserID string
}

// HasSession reports whether Vars describe a logged-in session: both a
// homeserver and a user are known.
func (v Vars) HasSession() bool { return v.HSURL != "" && v.UserID != "" }

// Store yields the persisted session, if any.
type Store interface {
	Vars(ctx context.Context) (Vars, error)
}

// None is a Store with no session.
type None struct{}

func (None) Vars(context.Context) (Vars, error) { return Vars{}, nil }

// Static is a Store that always returns the same Vars.
type Static Vars

func (s Static) Vars(context.Context) (Vars, error) { return Vars(s), nil }

// SQLStore reads Vars from the local_storage table.
type SQLStore struct {
	db *sqlx.DB
}

// NewSQLStore wraps an open pool.
func NewSQLStore(db *sqlx.DB) *SQLStore { return &SQLStore{db: db} }

// Vars runs one query for the three keys.
func (s *SQLStore) Vars(ctx context.Context) (Vars, error) {
	const q = `
	    SELECT  ` + "`key`, value" + `
	    FROM    local_storage
	    WHERE   ` + "`key`" + ` IN (?, ?, ?)`

	rows := make([]struct {
		Key   string `db:"key"`
		Value string `db:"value"`
	}, 0, 3)
	if err := s.db.SelectContext(ctx, &rows, q, KeyHSURL, KeyISURL, KeyUserID); err != nil {
		return Vars{}, err
	}

	var v Vars
	for _, r := range rows {
		switch r.Key {
		case KeyHSURL:
			v.HSURL = r.Value
		case KeyISURL:
			v.ISURL = r.Value
		case KeyUserID:
			v.UserID = r.Value
		}
	}
	return v, nil
}

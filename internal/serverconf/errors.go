package serverconf

import (
	"errors"
	"strings"
)

var (
	// ErrMultipleDefaults means more than one default server option is set.
	ErrMultipleDefaults = errors.New("multiple default server options specified")
	// ErrNoDefault means no default server option is set.
	ErrNoDefault = errors.New("no default server specified")
)

// ShapeError reports a config that does not name exactly one default
// server.  It unwraps to ErrMultipleDefaults or ErrNoDefault.
type ShapeError struct {
	Err    error
	Fields []string // the options found, when more than one
}

func (e *ShapeError) Error() string {
	if len(e.Fields) > 0 {
		return "configuration error: " + e.Err.Error() + " (" + strings.Join(e.Fields, ", ") + ")"
	}
	return "configuration error: " + e.Err.Error()
}

func (e *ShapeError) Unwrap() error { return e.Err }

// Message returns the text shown to the user.
func (e *ShapeError) Message() string {
	if errors.Is(e.Err, ErrMultipleDefaults) {
		return "Invalid configuration: can only specify one of default_server_config, " +
			"default_server_name, or default_hs_url."
	}
	return "Invalid configuration: no default server specified."
}

// UserMessage extracts a user-facing message from err, falling back to a
// generic one.
func UserMessage(err error) string {
	var m interface{ Message() string }
	if errors.As(err, &m) {
		return m.Message()
	}
	return "Unexpected error preparing the app. See console for details."
}

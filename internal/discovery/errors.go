package discovery

import (
	"errors"
	"fmt"
)

// Code identifies why discovery of a service failed.  Codes double as the
// user-facing message.
type Code string

const (
	ErrInvalid               Code = "Invalid homeserver discovery response"
	ErrGenericFailure        Code = "Failed to get autodiscovery configuration from server"
	ErrInvalidHSBaseURL      Code = "Invalid base_url for m.homeserver"
	ErrInvalidHomeserver     Code = "Homeserver URL does not appear to be a valid Matrix homeserver"
	ErrInvalidISBaseURL      Code = "Invalid base_url for m.identity_server"
	ErrInvalidIdentityServer Code = "Identity server URL does not appear to be a valid identity server"
	ErrInvalidIS             Code = "Invalid identity server discovery response"
	ErrMissingWellKnown      Code = "No .well-known JSON file found"
	ErrInvalidJSON           Code = "Invalid JSON"

	ErrUnexpectedHS Code = "Unexpected error resolving homeserver configuration"
	ErrUnexpectedIS Code = "Unexpected error resolving identity server configuration"
)

var knownCodes = map[Code]bool{
	ErrInvalid:               true,
	ErrGenericFailure:        true,
	ErrInvalidHSBaseURL:      true,
	ErrInvalidHomeserver:     true,
	ErrInvalidISBaseURL:      true,
	ErrInvalidIdentityServer: true,
	ErrInvalidIS:             true,
	ErrMissingWellKnown:      true,
	ErrInvalidJSON:           true,
}

// reachability reports whether c describes a server that is well-formed but
// did not answer like a Matrix server.  syntaxOnly validation tolerates it.
func (c Code) reachability() bool {
	return c == ErrInvalidHomeserver || c == ErrInvalidIdentityServer
}

// DiscoveryError is returned when a discovery Result cannot be turned into
// a validated config.
type DiscoveryError struct {
	Service string // KeyHomeserver or KeyIdentityServer
	Code    Code
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("discovery: %s: %s", e.Service, e.Code)
}

// Message returns the text shown to the user.
func (e *DiscoveryError) Message() string { return string(e.Code) }

// MatrixError is a structured error response from a homeserver.
type MatrixError struct {
	Code       string `json:"errcode"`
	Message    string `json:"error"`
	StatusCode int    `json:"-"`
}

func (e *MatrixError) Error() string {
	return fmt.Sprintf("matrix: %s (%d): %s", e.Code, e.StatusCode, e.Message)
}

// IsMatrixError checks whether err is a *MatrixError with the given code.
func IsMatrixError(err error, code string) bool {
	var matrixErr *MatrixError
	if errors.As(err, &matrixErr) {
		return matrixErr.Code == code
	}
	return false
}

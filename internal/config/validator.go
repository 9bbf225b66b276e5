// internal/config/validator.go
//
// Thin wrapper around go-playground/validator.
//
// Context
// -------
// `Load` calls `validateStruct` immediately after it unmarshals the merged
// Koanf tree into `Settings`.  Any tag mismatch aborts startup, so the
// binary never serves with a malformed listen address or an unknown
// platform kind.
//
// Errors are flattened into one line per field so the console logger shows
// every problem at once instead of the first.

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var v = validator.New()

// validateStruct returns nil, or an error naming every failing field.
func validateStruct(s *Settings) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("invalid settings: %s", strings.Join(msgs, "; "))
}

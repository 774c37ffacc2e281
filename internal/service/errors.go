// Package service holds the application operations behind the HTTP surface:
// the user store, token issuing, and the per-user tag, ingredient and recipe
// collections.  Every collection operation takes the acting user's id
// explicitly and scopes its reads and writes to it.
package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrInvalidCredentials is returned when a token is requested for an
	// unknown email, a wrong password or an inactive account.
	ErrInvalidCredentials = errors.New("unable to authenticate with provided credentials")

	// ErrUnauthenticated is returned when a token does not resolve to an
	// active user.
	ErrUnauthenticated = errors.New("invalid token")
)

// Field error messages shared by the services and the HTTP validator.
const (
	MsgRequired     = "This field is required."
	MsgBlank        = "This field may not be blank."
	MsgNull         = "This field may not be null."
	MsgInteger      = "A valid integer is required."
	MsgInvalidEmail = "Enter a valid email address."
	MsgEmailTaken   = "user with this email already exists."
)

// NonFieldErrors is the key used for errors not tied to a single field.
const NonFieldErrors = "non_field_errors"

// ValidationError reports malformed or missing input, keyed by field name.
type ValidationError struct {
	Fields map[string][]string
}

// NewValidationError returns a ValidationError with a single message.
func NewValidationError(field, msg string) *ValidationError {
	v := &ValidationError{}
	v.Add(field, msg)
	return v
}

// Add records msg against field.
func (v *ValidationError) Add(field, msg string) {
	if v.Fields == nil {
		v.Fields = make(map[string][]string)
	}
	v.Fields[field] = append(v.Fields[field], msg)
}

// Empty reports whether no field errors were recorded.
func (v *ValidationError) Empty() bool { return len(v.Fields) == 0 }

// Err returns v, or nil when no errors were recorded.
func (v *ValidationError) Err() error {
	if v.Empty() {
		return nil
	}
	return v
}

func (v *ValidationError) Error() string {
	keys := make([]string, 0, len(v.Fields))
	for k := range v.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(v.Fields[k], " ")))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func maxLengthMsg(n int) string {
	return fmt.Sprintf("Ensure this field has no more than %d characters.", n)
}

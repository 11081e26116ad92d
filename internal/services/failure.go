package services

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/desertthunder/listkit/internal/models"
)

// Failure is the error returned by every [ProviderRepository] call.
//
// StatusCode is the provider's HTTP status, or 0 when the request never got a response.
type Failure struct {
	Provider   models.Provider
	Op         string
	StatusCode int
	Message    string
	Err        error
}

// NewFailure builds a Failure for op.
func NewFailure(provider models.Provider, op string, status int, err error) *Failure {
	return &Failure{Provider: provider, Op: op, StatusCode: status, Err: err}
}

func (f *Failure) Error() string {
	msg := fmt.Sprintf("%s %s failed", f.Provider, f.Op)
	if f.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", f.StatusCode)
	}
	if f.Message != "" {
		msg += ": " + f.Message
	} else if f.Err != nil {
		msg += ": " + f.Err.Error()
	}
	return msg
}

func (f *Failure) Unwrap() error { return f.Err }

// Expired reports whether the failure means the credential is expired or invalid.
// These are never retried.
func (f *Failure) Expired() bool {
	return f.StatusCode == http.StatusUnauthorized
}

// Retryable reports whether another attempt may succeed.
func (f *Failure) Retryable() bool {
	return !f.Expired()
}

// AsFailure extracts a [*Failure] from err's chain.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

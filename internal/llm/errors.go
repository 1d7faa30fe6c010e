package llm

import (
	"errors"
	"fmt"
)

var (
	// ErrProviderUnavailable means the credential is absent or malformed.
	ErrProviderUnavailable = errors.New("provider unavailable")
	// ErrUnsupportedProviderKind rejects a provider kind the registry does not implement.
	ErrUnsupportedProviderKind = errors.New("unsupported provider kind")
	// ErrEmptyResponse is wrapped in a CallError when a vendor answers with no text.
	ErrEmptyResponse = errors.New("empty response")
)

// CallError reports a failed generate call: network, timeout, a 4xx/5xx from
// the vendor, or an empty answer.
type CallError struct {
	Kind Kind
	Err  error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("%s call failed: %v", e.Kind, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }

func callFailed(k Kind, err error) error {
	return &CallError{Kind: k, Err: err}
}

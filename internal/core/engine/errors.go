package engine

import (
	"errors"
	"fmt"
)

// ErrorKind identifies a terminal call failure category.
type ErrorKind string

const (
	// KindCredentialDisabled means the credential was disabled before any
	// attempt; no budget was consumed and no network request was made.
	KindCredentialDisabled ErrorKind = "credential-disabled"

	// KindAuth means the remote service rejected the credential on this call.
	KindAuth ErrorKind = "auth"

	// KindPermanent means the call will not succeed on retry.
	KindPermanent ErrorKind = "permanent"

	// KindTransientExhausted means the retry budget ran out on a failure that
	// might resolve on its own later.
	KindTransientExhausted ErrorKind = "transient-exhausted"

	// KindStoreWrite means the audit store rejected the write for this cycle.
	KindStoreWrite ErrorKind = "store-write-failure"
)

// Error is the structured failure returned by Client.Call. Callers branch on
// Kind; Detail is already redacted and truncated.
type Error struct {
	Kind       ErrorKind
	StatusCode int
	Detail     string
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s (http %d): %s", e.Kind, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

// IsKind reports whether err is an engine Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind == kind
	}
	return false
}

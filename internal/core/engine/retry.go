package engine

import (
	"math/rand"
	"time"
)

// Class buckets a failed attempt for the retry decision.
type Class int

const (
	// ClassTransient covers network errors, timeouts, HTTP 429 and 5xx.
	ClassTransient Class = iota
	// ClassPermanent covers other 4xx responses and malformed bodies.
	ClassPermanent
	// ClassAuth covers HTTP 401/403 and API-reported invalid-key errors.
	ClassAuth
)

func (c Class) String() string {
	switch c {
	case ClassTransient:
		return "transient"
	case ClassPermanent:
		return "permanent"
	case ClassAuth:
		return "auth"
	default:
		return "unknown"
	}
}

// ClassifyHTTP buckets an attempt from its transport error and status code.
// A non-nil transport error always wins.
func ClassifyHTTP(status int, transportErr error) Class {
	if transportErr != nil {
		return ClassTransient
	}

	switch {
	case status == 429:
		return ClassTransient
	case status >= 500 && status <= 599:
		return ClassTransient
	case status == 401 || status == 403:
		return ClassAuth
	default:
		return ClassPermanent
	}
}

// Decision is the explicit outcome of a retry-policy evaluation.
type Decision struct {
	Retry bool
	Delay time.Duration
}

// RetryPolicy decides whether a failed transient attempt is retried, and how
// long to wait first. Auth and permanent failures are never retried.
type RetryPolicy struct {
	MaxAttempts int
	Base        time.Duration
	Cap         time.Duration

	// Jitter maps a backoff delay to the random addition in [0, delay);
	// overridable for tests. Nil uses math/rand.
	Jitter func(delay time.Duration) time.Duration
}

// Next evaluates the policy after a failed attempt (1-based). The returned
// delay is base*2^(attempt-1) capped at Cap, plus jitter in [0, delay).
func (p RetryPolicy) Next(attempt int, class Class) Decision {
	if class != ClassTransient {
		return Decision{}
	}
	if attempt >= p.MaxAttempts {
		return Decision{}
	}

	delay := p.Base << uint(attempt-1)
	if delay > p.Cap || delay <= 0 {
		delay = p.Cap
	}

	return Decision{Retry: true, Delay: delay + p.jitter(delay)}
}

func (p RetryPolicy) jitter(delay time.Duration) time.Duration {
	if delay <= 0 {
		return 0
	}
	if p.Jitter != nil {
		return p.Jitter(delay)
	}
	return time.Duration(rand.Int63n(int64(delay)))
}

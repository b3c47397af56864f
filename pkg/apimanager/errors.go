package apimanager

import (
	"fmt"
	"time"
)

// RateLimitError is returned when the local quota window denies admission.
// No network call was made and no quota was consumed; callers should back
// off for at least RetryAfter.
type RateLimitError struct {
	RetryAfter     time.Duration
	WindowStart    time.Time
	WindowDuration time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("apimanager: rate limit exceeded, retry after %s", e.RetryAfter)
}

// TransportError wraps a failure from the Client collaborator. The call
// reached the network, so the quota slot was consumed regardless.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("apimanager: client request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// CacheError wraps a failure from the Cache collaborator. A failed read
// fails the request closed rather than bypassing the cache, so a cache
// outage never turns into a load spike on the remote API.
type CacheError struct {
	Op  string // "get" or "put"
	Err error
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("apimanager: cache %s failed: %v", e.Op, e.Err)
}

func (e *CacheError) Unwrap() error { return e.Err }

package apimanager

import (
	"context"

	"github.com/libcommon/apimanager/pkg/quota"
)

// Request describes a logical request against the remote API, independent of
// whether serving it requires a live network call.
type Request struct {
	Method   string
	Endpoint string
	Headers  map[string]string
	Params   map[string]string
	Body     []byte
}

// RawResponse is the provider-agnostic shape of a live response.
type RawResponse struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
}

// Result is what a logical request yields. Cache hits carry only Value;
// live calls carry the raw response plus the value that was written to the
// cache (nil when the client suppressed caching).
type Result struct {
	Value     []byte
	Response  *RawResponse
	FromCache bool
}

// Client performs live calls against the remote API. Implementations decide
// what counts as failure (typically non-2xx statuses) and how responses are
// shaped for caching.
type Client interface {
	// Do executes the request and returns the raw response, or an error for
	// transport problems and non-success outcomes.
	Do(ctx context.Context, req Request) (*RawResponse, error)

	// ProcessResponseForCache derives the cacheable representation of a
	// response. resp is nil when a failed call is being considered for
	// caching. Returning ok=false suppresses caching for this response.
	ProcessResponseForCache(resp *RawResponse) (value []byte, ok bool)
}

// Cache is the key/value capability the manager consults before admitting a
// live call. The ok flag is distinct from the value so that an empty (or
// nil) value can still be a valid cached entry.
type Cache interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Put(ctx context.Context, key string, value []byte) error
}

// ResyncFunc refreshes local quota state from an authoritative external
// signal, typically by calling w.SetCount with usage reported by the remote
// service itself. Used to keep independent processes roughly aligned; there
// is no distributed lock, so the alignment is best-effort only.
type ResyncFunc func(ctx context.Context, w *quota.Window) error

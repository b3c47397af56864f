package apimanager

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/libcommon/apimanager/pkg/fingerprint"
	"github.com/libcommon/apimanager/pkg/quota"
)

// Config holds the explicit construction options for a Manager.
type Config struct {
	// WindowDuration is the quota window length (e.g. time.Hour for a
	// 5000 req/hour API).
	WindowDuration time.Duration

	// WindowBuffer pads the window to absorb clock skew against the remote
	// limiter. Zero is fine for APIs that report their own reset times.
	WindowBuffer time.Duration

	// Threshold is the maximum live calls admitted per window.
	Threshold int

	// Client performs live calls. Required.
	Client Client

	// Cache is consulted before every admission check. Required.
	Cache Cache

	// Fingerprint derives cache keys. The zero value excludes headers.
	Fingerprint fingerprint.Fingerprinter

	// Resync refreshes quota state from an authoritative external signal.
	// Nil means no resync.
	Resync ResyncFunc

	// ResyncBeforeRequest invokes Resync at the top of every Request call.
	// Without it, Resync runs only when the caller invokes UpdateState.
	ResyncBeforeRequest bool

	// CacheFailedResponses lets the client cache a representation of failed
	// calls (ProcessResponseForCache is handed a nil response). Off by
	// default: failures are normally propagated and never cached.
	CacheFailedResponses bool

	// Logger defaults to a no-op logger.
	Logger *zap.Logger
}

// Manager orchestrates logical requests against a rate-limited remote API:
// it serves repeats from the cache, admits live calls against a quota
// window, and records every attempt so the local window tracks the remote
// limiter. Safe for concurrent use by multiple goroutines sharing one
// instance.
type Manager struct {
	cfg    Config
	window *quota.Window
	log    *zap.Logger
}

// New validates cfg and builds a Manager.
func New(cfg Config) (*Manager, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("apimanager: config requires a Client")
	}
	if cfg.Cache == nil {
		return nil, fmt.Errorf("apimanager: config requires a Cache")
	}
	w, err := quota.NewWithBuffer(cfg.WindowDuration, cfg.WindowBuffer, cfg.Threshold)
	if err != nil {
		return nil, err
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{cfg: cfg, window: w, log: log}, nil
}

// Window exposes the quota window, primarily so callers can inspect
// remaining capacity and reset timing when backing off.
func (m *Manager) Window() *quota.Window {
	return m.window
}

// UpdateState runs the configured resync strategy once. No-op without one.
func (m *Manager) UpdateState(ctx context.Context) error {
	if m.cfg.Resync == nil {
		return nil
	}
	return m.cfg.Resync(ctx, m.window)
}

// Request serves one logical request. The cache is consulted first; hits
// return immediately and never touch the quota. On a miss, a window slot is
// reserved atomically before the live call, and the slot stays consumed
// whether or not the call succeeds, because the remote limiter counted the
// attempt either way. Failures surface to the caller unchanged; the manager
// never retries or sleeps.
func (m *Manager) Request(ctx context.Context, req Request) (*Result, error) {
	log := m.log.With(
		zap.String("request_id", uuid.NewString()),
		zap.String("method", req.Method),
		zap.String("endpoint", req.Endpoint),
	)

	if m.cfg.ResyncBeforeRequest && m.cfg.Resync != nil {
		// Resync is best-effort cross-process alignment; a failed resync
		// must not take down requests that local state can still decide.
		if err := m.cfg.Resync(ctx, m.window); err != nil {
			log.Warn("quota resync failed, continuing with local state", zap.Error(err))
		}
	}

	key := m.cfg.Fingerprint.Key(req.Method, req.Endpoint, req.Headers, req.Params, req.Body)

	cached, ok, err := m.cfg.Cache.Get(ctx, key)
	if err != nil {
		// Fail closed: silently bypassing a broken cache would turn a cache
		// outage into a load spike on the remote API.
		log.Error("cache read failed", zap.Error(err))
		return nil, &CacheError{Op: "get", Err: err}
	}
	if ok {
		CacheHits.Inc()
		log.Debug("served from cache", zap.String("key", key))
		return &Result{Value: cached, FromCache: true}, nil
	}
	CacheMisses.Inc()

	if !m.window.Reserve() {
		RateLimited.Inc()
		retryAfter := m.window.RemainingTime()
		log.Debug("rate limit window exhausted",
			zap.Duration("retry_after", retryAfter),
			zap.Int("threshold", m.window.Threshold()),
		)
		return nil, &RateLimitError{
			RetryAfter:     retryAfter,
			WindowStart:    m.window.WindowStart(),
			WindowDuration: m.window.Duration(),
		}
	}
	QuotaRemaining.Set(float64(m.window.Remaining()))

	resp, err := m.cfg.Client.Do(ctx, req)
	if err != nil {
		LiveCalls.WithLabelValues("error").Inc()
		log.Debug("live call failed", zap.Error(err))
		if m.cfg.CacheFailedResponses {
			if value, cacheable := m.cfg.Client.ProcessResponseForCache(nil); cacheable {
				if perr := m.cfg.Cache.Put(ctx, key, value); perr != nil {
					log.Warn("caching failed response failed", zap.Error(perr))
				}
			}
		}
		return nil, &TransportError{Err: err}
	}
	LiveCalls.WithLabelValues("success").Inc()

	value, cacheable := m.cfg.Client.ProcessResponseForCache(resp)
	if cacheable {
		if err := m.cfg.Cache.Put(ctx, key, value); err != nil {
			log.Error("cache write failed", zap.Error(err))
			return nil, &CacheError{Op: "put", Err: err}
		}
	} else {
		value = nil
	}

	log.Debug("live call served",
		zap.Int("status", resp.StatusCode),
		zap.Int("quota_count", m.window.Count()),
	)
	return &Result{Value: value, Response: resp}, nil
}

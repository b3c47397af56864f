// Package redis shares quota usage between processes through a Redis
// counter. Each process publishes its locally recorded calls into a
// per-window bucket and overwrites its local count with the shared total.
//
// The alignment is best-effort only: there is no distributed lock, so two
// processes can still race between a resync and their own admitted call.
// The guarantee is that they converge on the shared total at every resync,
// not that they can never jointly exceed the threshold.
package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/libcommon/apimanager/pkg/apimanager"
	"github.com/libcommon/apimanager/pkg/quota"
)

const defaultPrefix = "apimanager:quota:"

// SharedWindow mirrors one quota window into a Redis counter. One
// SharedWindow must pair with exactly one quota.Window; sharing it across
// windows would double-publish their counts.
type SharedWindow struct {
	client *redis.Client
	name   string

	mu        sync.Mutex
	bucket    int64 // rounded window-start timestamp currently tracked
	lastTotal int   // shared total at the last resync

	now func() time.Time
}

// New wraps client. name scopes the shared counter, e.g. "github-core";
// every process cooperating on the same remote quota must use the same name.
func New(client *redis.Client, name string) *SharedWindow {
	return &SharedWindow{client: client, name: name, now: time.Now}
}

// Func returns the SharedWindow as an apimanager.ResyncFunc.
func (s *SharedWindow) Func() apimanager.ResyncFunc {
	return s.Resync
}

// Resync publishes the calls recorded locally since the previous resync,
// reads back the shared total, and overwrites the local count with it.
// Buckets are keyed by wall-clock windows rounded to the window duration,
// so cooperating processes land in the same bucket without coordination.
func (s *SharedWindow) Resync(ctx context.Context, w *quota.Window) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dur := w.Duration()
	secs := int64(dur / time.Second)
	if secs <= 0 {
		secs = 1
	}
	nowUnix := s.now().Unix()
	bucket := nowUnix - nowUnix%secs
	if bucket != s.bucket {
		s.bucket = bucket
		s.lastTotal = 0
	}
	key := fmt.Sprintf("%s%s:%d", defaultPrefix, s.name, bucket)

	delta := w.Count() - s.lastTotal
	if delta < 0 {
		// The local window rolled mid-bucket; nothing new to publish.
		delta = 0
	}

	pipe := s.client.TxPipeline()
	incr := pipe.IncrBy(ctx, key, int64(delta))
	pipe.Expire(ctx, key, 2*dur)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to publish quota delta to %s: %w", key, err)
	}

	total := int(incr.Val())
	w.SetCount(total)
	s.lastTotal = total
	return nil
}

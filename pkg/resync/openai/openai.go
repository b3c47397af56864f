// Package openai resyncs a quota window against the x-ratelimit-* headers
// OpenAI attaches to responses. There is no free rate-limit endpoint, so
// resyncing probes a cheap request; the probe itself consumes one call.
package openai

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/libcommon/apimanager/pkg/apimanager"
	"github.com/libcommon/apimanager/pkg/quota"
)

// Resyncer probes /models and reads the request-quota headers.
type Resyncer struct {
	token   string
	orgID   string
	baseURL string
	client  *http.Client
}

// New builds a Resyncer. baseURL defaults to the public API.
func New(token, orgID, baseURL string) *Resyncer {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &Resyncer{
		token:   token,
		orgID:   orgID,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Func returns the Resyncer as an apimanager.ResyncFunc.
func (r *Resyncer) Func() apimanager.ResyncFunc {
	return r.Resync
}

// Resync probes a cheap endpoint and overwrites the local count from the
// x-ratelimit-limit-requests / x-ratelimit-remaining-requests pair. A 429
// still carries the headers, so it counts as a successful resync.
func (r *Resyncer) Resync(ctx context.Context, w *quota.Window) error {
	url := strings.TrimRight(r.baseURL, "/") + "/models"

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return err
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}
	if r.orgID != "" {
		req.Header.Set("OpenAI-Organization", r.orgID)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusTooManyRequests {
		return fmt.Errorf("openai probe returned HTTP %d", resp.StatusCode)
	}

	remStr := resp.Header.Get("x-ratelimit-remaining-requests")
	if remStr == "" {
		return fmt.Errorf("openai probe response missing x-ratelimit-remaining-requests")
	}
	rem, err := strconv.Atoi(remStr)
	if err != nil {
		return fmt.Errorf("failed to parse remaining-requests header %q: %w", remStr, err)
	}

	w.SetCount(w.Threshold() - rem)
	return nil
}

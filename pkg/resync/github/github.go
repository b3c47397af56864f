// Package github resyncs a quota window against GitHub's own rate-limit
// accounting. The /rate_limit endpoint is free: calls to it do not count
// against the core quota, so resyncing costs nothing.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/libcommon/apimanager/pkg/apimanager"
	"github.com/libcommon/apimanager/pkg/quota"
)

// Resyncer polls /rate_limit and overwrites the local window count with the
// usage GitHub reports for the chosen resource.
type Resyncer struct {
	token         string
	enterpriseURL string

	// Resource selects which rate-limit pool to track: "core" (default),
	// "search" or "graphql".
	Resource string

	client *http.Client
}

// New builds a Resyncer. enterpriseURL overrides api.github.com for GHE.
func New(token string, enterpriseURL string) *Resyncer {
	return &Resyncer{
		token:         token,
		enterpriseURL: enterpriseURL,
		Resource:      "core",
		client:        &http.Client{Timeout: 10 * time.Second},
	}
}

// Func returns the Resyncer as an apimanager.ResyncFunc.
func (r *Resyncer) Func() apimanager.ResyncFunc {
	return r.Resync
}

// Resync fetches the remaining-call signal and aligns w with it. When GitHub
// reports fewer remaining calls than the local threshold implies, the count
// lands above the threshold and admission stays denied until the reset.
func (r *Resyncer) Resync(ctx context.Context, w *quota.Window) error {
	baseURL := "https://api.github.com"
	if r.enterpriseURL != "" {
		baseURL = r.enterpriseURL
	}

	req, err := http.NewRequestWithContext(ctx, "GET", baseURL+"/rate_limit", nil)
	if err != nil {
		return err
	}
	if r.token != "" {
		req.Header.Set("Authorization", "token "+r.token)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("github rate_limit returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var rateLimitResp struct {
		Resources map[string]struct {
			Limit     int   `json:"limit"`
			Remaining int   `json:"remaining"`
			Reset     int64 `json:"reset"`
		} `json:"resources"`
	}
	if err := json.Unmarshal(body, &rateLimitResp); err != nil {
		return fmt.Errorf("failed to parse rate_limit response: %w", err)
	}

	res, ok := rateLimitResp.Resources[r.Resource]
	if !ok {
		return fmt.Errorf("github rate_limit response missing resource %q", r.Resource)
	}

	// Express the remote's remaining count in terms of the local threshold.
	w.SetCount(w.Threshold() - res.Remaining)
	return nil
}

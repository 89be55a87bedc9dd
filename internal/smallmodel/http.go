package smallmodel

import (
	"context"
	"net/http"
	"time"
)

// probeHTTPTimeout is the connection budget for local-provider
// availability checks.
const probeHTTPTimeout = 500 * time.Millisecond

// probeHTTP reports whether a connection to url succeeds within
// probeHTTPTimeout. Any response counts as available, including error
// pages — the spec only asks whether something is listening.
func probeHTTP(ctx context.Context, url string) bool {
	probeCtx, cancel := context.WithTimeout(ctx, probeHTTPTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	client := &http.Client{Timeout: probeHTTPTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return true
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared by the model backends.
package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// PollBaseDelay controls the first wait between readiness probes. Tests
// override this to avoid real sleeps.
var PollBaseDelay = 250 * time.Millisecond

// maxPollDelay caps the exponential backoff between probes.
const maxPollDelay = 4 * time.Second

// WaitReady polls url with GET until it answers 200 OK or ctx is done. The
// delay between probes starts at PollBaseDelay and doubles up to 4 s.
// Connection errors and non-200 answers count as "not ready yet". When ctx
// ends first the last probe failure is included in the returned error.
func WaitReady(ctx context.Context, client *http.Client, url string) error {
	delay := PollBaseDelay
	var lastErr error

	for attempt := 1; ; attempt++ {
		lastErr = probe(ctx, client, url)
		if lastErr == nil {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for %s after %d probes: %w (last: %v)", url, attempt, ctx.Err(), lastErr)
		case <-time.After(delay):
		}

		delay *= 2
		if delay > maxPollDelay {
			delay = maxPollDelay
		}
	}
}

func probe(ctx context.Context, client *http.Client, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}

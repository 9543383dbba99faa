package testutil

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// WaitForHTTPReady polls url until it answers 200 OK or timeout expires.
// Use it after starting a server in a goroutine instead of time.Sleep.
func WaitForHTTPReady(url string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	client := &http.Client{Timeout: 200 * time.Millisecond}
	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for %s: %w", url, ctx.Err())
		case <-ticker.C:
			resp, err := client.Get(url)
			if err != nil {
				continue
			}
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
	}
}

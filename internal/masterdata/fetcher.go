package masterdata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"

	"github.com/stockboard/marketdata-go/internal/config"
)

// Fetcher downloads compressed master files from the vendor CDN. Downloads
// are idempotent and occasionally flaky, so unlike the credential exchange
// they retry with backoff.
type Fetcher struct {
	client  *retryablehttp.Client
	timeout time.Duration
}

func NewFetcher(cfg config.MasterDataConfig) *Fetcher {
	client := retryablehttp.NewClient()
	client.RetryMax = cfg.MaxRetries
	client.RetryWaitMin = 500 * time.Millisecond
	client.RetryWaitMax = 5 * time.Second
	client.Logger = nil // retry noise goes through our own log line below

	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	client.HTTPClient.Timeout = timeout

	return &Fetcher{client: client, timeout: timeout}
}

// FetchSegment downloads one segment archive. The per-call timeout bounds
// the whole attempt including retries.
func (f *Fetcher) FetchSegment(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create segment request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("segment download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("segment download returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read segment body: %w", err)
	}

	logrus.WithFields(logrus.Fields{"url": url, "bytes": len(data)}).Debug("downloaded master segment")
	return data, nil
}

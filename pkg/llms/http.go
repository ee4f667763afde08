package llms

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/lexalign/concordance/internal"
)

var log = internal.GetLogger()

// maxErrorBody caps how much of an error response body is kept.
const maxErrorBody = 4 << 10

// NewRetryableHTTPClient returns an HTTP client that retries transient
// failures up to retryMax times.
func NewRetryableHTTPClient(retryMax int, timeout time.Duration) *retryablehttp.Client {
	retryableHTTPClient := retryablehttp.NewClient()
	retryableHTTPClient.RetryMax = retryMax
	retryableHTTPClient.HTTPClient.Timeout = timeout
	retryableHTTPClient.Logger = internal.NewLeveledLogrus(log)
	retryableHTTPClient.Backoff = retryablehttp.DefaultBackoff
	retryableHTTPClient.CheckRetry = retryPolicy
	// hand the last response to the caller so its status and body survive
	retryableHTTPClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return retryableHTTPClient
}

// retryPolicy is a retryablehttp.CheckRetry function. It is used to determine
// whether a request should be retried or not.
func retryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	// do not retry on context.Canceled or context.DeadlineExceeded
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	// a 400 means the payload itself is wrong, retrying will not help
	if resp != nil && resp.StatusCode == http.StatusBadRequest {
		return false, err
	}

	shouldRetry, _ := retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	return shouldRetry, nil
}

// readBody reads a response body, keeping at most limit bytes.
func readBody(resp *http.Response, limit int64) (string, error) {
	b, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return "", fmt.Errorf("reading response body: %w", err)
	}
	log.Debugf("read %s response body, status %d", humanize.Bytes(uint64(len(b))), resp.StatusCode)
	return string(b), nil
}

package llms

import (
	"context"
	"net/http"
	"testing"

	"github.com/lexalign/concordance/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedGenerator returns the scripted errors in order, then "done".
type scriptedGenerator struct {
	errs  []error
	calls int
}

func (s *scriptedGenerator) Generate(_ context.Context, _ models.GenerationRequest) (string, error) {
	s.calls++
	if s.calls <= len(s.errs) {
		return "", s.errs[s.calls-1]
	}
	return "done", nil
}

func TestWithRetry_RetriesUpstreamErrors(t *testing.T) {
	gen := &scriptedGenerator{errs: []error{
		models.NewUpstreamError(http.StatusServiceUnavailable, "busy", nil),
		models.NewAuthError("identity service down", nil),
	}}

	out, err := WithRetry(gen, RetryPolicy{MaxAttempts: 3}).
		Generate(context.Background(), models.GenerationRequest{Purpose: models.PurposeJudge})
	require.NoError(t, err)
	assert.Equal(t, "done", out)
	assert.Equal(t, 3, gen.calls)
}

func TestWithRetry_GivesUpAfterMaxAttempts(t *testing.T) {
	lastErr := models.NewUpstreamError(http.StatusBadGateway, "third", nil)
	gen := &scriptedGenerator{errs: []error{
		models.NewUpstreamError(http.StatusBadGateway, "first", nil),
		models.NewUpstreamError(http.StatusBadGateway, "second", nil),
		lastErr,
		models.NewUpstreamError(http.StatusBadGateway, "never", nil),
	}}

	_, err := WithRetry(gen, RetryPolicy{MaxAttempts: 3}).
		Generate(context.Background(), models.GenerationRequest{})
	assert.Equal(t, lastErr, err)
	assert.Equal(t, 3, gen.calls)
}

func TestWithRetry_StopsOnNonRetryableErrors(t *testing.T) {
	for _, e := range []error{
		models.NewValidationError("paragraphs", "length mismatch"),
		models.NewExtractionError("raw", nil),
		models.NewUpstreamError(http.StatusBadRequest, "bad", nil),
		context.Canceled,
	} {
		gen := &scriptedGenerator{errs: []error{e}}
		_, err := WithRetry(gen, RetryPolicy{MaxAttempts: 5}).
			Generate(context.Background(), models.GenerationRequest{})
		assert.ErrorIs(t, err, e)
		assert.Equal(t, 1, gen.calls, e.Error())
	}
}

func TestWithRetry_NoRetryIsIdentity(t *testing.T) {
	gen := &scriptedGenerator{}
	assert.Same(t, gen, WithRetry(gen, NoRetry))
}

func TestWithRetry_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gen := &scriptedGenerator{}
	_, err := WithRetry(gen, RetryPolicy{MaxAttempts: 3}).Generate(ctx, models.GenerationRequest{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, gen.calls)
}

func TestRetryPolicy(t *testing.T) {
	ctx := context.Background()

	retry, err := retryPolicy(ctx, &http.Response{StatusCode: http.StatusBadRequest}, nil)
	assert.False(t, retry)
	assert.NoError(t, err)

	retry, _ = retryPolicy(ctx, &http.Response{StatusCode: http.StatusServiceUnavailable}, nil)
	assert.True(t, retry)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	retry, err = retryPolicy(canceled, nil, nil)
	assert.False(t, retry)
	assert.ErrorIs(t, err, context.Canceled)
}

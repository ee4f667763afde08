package llms

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/lexalign/concordance/config"
	"github.com/lexalign/concordance/pkg/models"
)

// RetryPolicy bounds how often a failed generation call is repeated.
// MaxAttempts counts the first call, so 1 disables retries.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
	MaxBackoff  time.Duration
}

// NoRetry calls the generator exactly once.
var NoRetry = RetryPolicy{MaxAttempts: 1}

func RetryPolicyFromConfig(cfg config.RetryConfig) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: cfg.MaxAttempts,
		Backoff:     cfg.Backoff,
		MaxBackoff:  cfg.MaxBackoff,
	}
}

// Retryable reports whether an error is worth another attempt. Validation,
// extraction and context errors never are, nor are upstream 400s.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, models.ErrValidation) || errors.Is(err, models.ErrExtraction) {
		return false
	}
	var upstream *models.UpstreamError
	if errors.As(err, &upstream) && upstream.StatusCode == http.StatusBadRequest {
		return false
	}
	return errors.Is(err, models.ErrUpstream) || errors.Is(err, models.ErrAuth)
}

func (p RetryPolicy) build() retrypolicy.RetryPolicy[string] {
	maxRetries := p.MaxAttempts - 1
	if maxRetries < 0 {
		maxRetries = 0
	}
	builder := retrypolicy.Builder[string]().
		HandleIf(func(_ string, err error) bool {
			return Retryable(err)
		}).
		WithMaxRetries(maxRetries)

	if p.Backoff > 0 {
		maxBackoff := p.MaxBackoff
		if maxBackoff <= p.Backoff {
			maxBackoff = p.Backoff * 2
		}
		builder = builder.WithBackoff(p.Backoff, maxBackoff)
	}

	return builder.Build()
}

type retryingGenerator struct {
	next   models.Generator
	policy RetryPolicy
}

// WithRetry wraps a generator so that retryable failures are repeated
// according to policy. A policy with MaxAttempts <= 1 returns gen unchanged.
func WithRetry(gen models.Generator, policy RetryPolicy) models.Generator {
	if policy.MaxAttempts <= 1 {
		return gen
	}
	return &retryingGenerator{next: gen, policy: policy}
}

func (r *retryingGenerator) Generate(ctx context.Context, req models.GenerationRequest) (string, error) {
	attempt := 0
	var lastErr error

	result, err := failsafe.Get(func() (string, error) {
		if err := ctx.Err(); err != nil {
			lastErr = err
			return "", err
		}
		attempt++
		if attempt > 1 {
			log.Debugf("retrying %s generation, attempt %d of %d", req.Purpose, attempt, r.policy.MaxAttempts)
		}
		out, err := r.next.Generate(ctx, req)
		lastErr = err
		return out, err
	}, r.policy.build())
	if err != nil {
		if lastErr != nil {
			return "", lastErr
		}
		return "", err
	}

	return result, nil
}

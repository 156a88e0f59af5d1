package llm

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimited wraps a Service so that generation requests never exceed a
// configured rate. Useful against hosted providers with request quotas.
type RateLimited struct {
	Service
	limiter *rate.Limiter
}

// NewRateLimited returns svc throttled to rps requests per second with the
// given burst. A burst below one is treated as one.
func NewRateLimited(svc Service, rps float64, burst int) *RateLimited {
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{
		Service: svc,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Generate waits for a token and then delegates.
func (r *RateLimited) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}
	return r.Service.Generate(ctx, prompt, opts)
}

package channels

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimitedSMS throttles an SMSSender to the provider's throughput.
type RateLimitedSMS struct {
	next    SMSSender
	limiter *rate.Limiter
}

// NewRateLimitedSMS wraps next. A non-positive perSecond disables limiting.
func NewRateLimitedSMS(next SMSSender, perSecond float64, burst int) SMSSender {
	if perSecond <= 0 {
		return next
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedSMS{next: next, limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

func (r *RateLimitedSMS) SendSMS(ctx context.Context, to, body string) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("sms rate limit: %w", err)
	}
	return r.next.SendSMS(ctx, to, body)
}

// Package gapi holds the call discipline shared by the Sheets and Drive
// adapters: rate-limit backoff, circuit breaking and call metrics.
package gapi

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"opsboard/pkg/breaker"
	"opsboard/pkg/metrics"

	log "github.com/sirupsen/logrus"
	"google.golang.org/api/googleapi"
)

const (
	maxRetries = 6
	maxBackoff = 60 * time.Second
)

var sleep = func(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// IsRateLimited reports whether err is a Google quota rejection.
func IsRateLimited(err error) bool {
	var gErr *googleapi.Error
	if !errors.As(err, &gErr) {
		return false
	}
	if gErr.Code == http.StatusTooManyRequests {
		return true
	}
	if gErr.Code == http.StatusForbidden {
		for _, e := range gErr.Errors {
			if e.Reason == "rateLimitExceeded" || e.Reason == "userRateLimitExceeded" {
				return true
			}
		}
	}
	return false
}

// IsNotFound reports whether err is a Google 404.
func IsNotFound(err error) bool {
	var gErr *googleapi.Error
	return errors.As(err, &gErr) && gErr.Code == http.StatusNotFound
}

// NewBreaker returns a breaker whose state is exported as a metric.
func NewBreaker(name string, maxFailures int, resetTimeout time.Duration) *breaker.Breaker {
	b := breaker.New(name, maxFailures, resetTimeout)
	b.OnStateChange = func(name string, s breaker.State) {
		metrics.SetBreakerState(name, int(s))
	}
	metrics.SetBreakerState(name, int(breaker.Closed))
	return b
}

// Call runs fn through b, retrying only rate-limited attempts. Any other
// failure is returned to the caller straight away.
func Call(ctx context.Context, b *breaker.Breaker, api, op string, fn func() error) error {
	err := b.Execute(func() error { return retry(ctx, api, op, fn) }, IsNotFound)
	metrics.ObserveGoogleCall(api, op, err)
	return err
}

func retry(ctx context.Context, api, op string, fn func() error) error {
	var err error
	for attempt := 0; attempt < maxRetries; attempt++ {
		err = fn()
		if err == nil || !IsRateLimited(err) {
			return err
		}
		backoff := time.Duration(math.Pow(2, float64(attempt))) * time.Second
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
		log.WithFields(log.Fields{"api": api, "op": op}).Warnf("Rate limited by Google, retrying in %v...", backoff)
		if serr := sleep(ctx, backoff); serr != nil {
			return serr
		}
	}
	return fmt.Errorf("%s %s: rate limited after %d attempts: %w", api, op, maxRetries, err)
}

// CallOnce is Call without retries, for requests whose body cannot be
// replayed such as media uploads.
func CallOnce(b *breaker.Breaker, api, op string, fn func() error) error {
	err := b.Execute(fn, IsNotFound)
	metrics.ObserveGoogleCall(api, op, err)
	return err
}

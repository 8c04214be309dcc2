// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared by the backend clients.
package httputil

import (
	"context"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"
)

// RetryBaseDelay controls the base duration for exponential backoff on
// retryable responses. Tests override this to avoid real sleeps.
var RetryBaseDelay = 2 * time.Second

// MaxRetryAfter caps how long a server-supplied Retry-After may delay us.
var MaxRetryAfter = 60 * time.Second

const defaultMaxRetries = 5

// Retryable reports whether a response status is worth retrying: 429 (Too
// Many Requests) and 503 (Service Unavailable).
func Retryable(status int) bool {
	return status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable
}

// Notify is called before each backoff wait.
type Notify func(attempt, maxRetries int, status int, wait time.Duration)

// DoWithRetry executes an HTTP request and retries retryable responses
// with exponential backoff starting at RetryBaseDelay and doubling each
// attempt. An integer Retry-After header, when present, replaces the
// computed delay (capped at MaxRetryAfter).
//
// When maxRetries is 0 the default (5) is used. The request body, if any,
// must be replayable via req.GetBody (http.NewRequest sets it for the
// common body types). On each retry the response body is drained and
// closed before sleeping. If the context is cancelled during a wait the
// function returns ctx.Err(). After exhausting retries the last response
// is returned so the caller can inspect it.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int, notify Notify) (*http.Response, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	for attempt := 0; ; attempt++ {
		r := req.Clone(ctx)
		if attempt > 0 && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, err
			}
			r.Body = body
		}

		resp, err := client.Do(r)
		if err != nil {
			return nil, err
		}

		if !Retryable(resp.StatusCode) || attempt >= maxRetries {
			return resp, nil
		}

		wait := backoff(attempt, resp.Header.Get("Retry-After"))

		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		if notify != nil {
			notify(attempt+1, maxRetries, resp.StatusCode, wait)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}

func backoff(attempt int, retryAfter string) time.Duration {
	if secs, err := strconv.Atoi(retryAfter); err == nil && secs >= 0 {
		d := time.Duration(secs) * time.Second
		if d > MaxRetryAfter {
			d = MaxRetryAfter
		}
		return d
	}
	return time.Duration(math.Pow(2, float64(attempt))) * RetryBaseDelay
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers for fetching remote reports.
package httputil

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// RetryBaseDelay is the first backoff interval after an HTTP 429 or 503.
// Tests override this to avoid real sleeps.
var RetryBaseDelay = 2 * time.Second

// MaxRetryAfter caps a server-supplied Retry-After delay.
var MaxRetryAfter = 2 * time.Minute

const defaultMaxRetries = 5

// DoWithRetry executes req and retries on HTTP 429 (Too Many Requests) and
// 503 (Service Unavailable). The wait doubles each attempt starting at
// RetryBaseDelay, unless the response carries a longer Retry-After in
// seconds.
//
// When maxRetries is 0 the default (5) is used. The body of each retried
// response is drained and closed. If ctx is cancelled during a wait the
// function returns ctx.Err(). After the last retry the final response is
// returned unchanged so the caller can inspect it. log may be nil.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int, log logrus.FieldLogger) (*http.Response, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	for attempt := 0; ; attempt++ {
		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			return nil, err
		}
		if !retryable(resp.StatusCode) || attempt >= maxRetries {
			return resp, nil
		}

		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		wait := backoff(attempt, resp.Header.Get("Retry-After"))
		if log != nil {
			log.WithFields(logrus.Fields{
				"url":     req.URL.Redacted(),
				"status":  resp.StatusCode,
				"attempt": attempt + 1,
				"wait":    wait,
			}).Warn("remote server busy, retrying")
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable
}

func backoff(attempt int, retryAfter string) time.Duration {
	wait := MaxRetryAfter
	if attempt < 32 {
		if d := RetryBaseDelay << attempt; d > 0 && d < wait {
			wait = d
		}
	}
	if secs, err := strconv.Atoi(retryAfter); err == nil && secs > 0 {
		if ra := time.Duration(secs) * time.Second; ra > wait {
			wait = ra
		}
	}
	if wait > MaxRetryAfter {
		wait = MaxRetryAfter
	}
	return wait
}

package codesearch

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/go-github/v59/github"
	"github.com/stretchr/testify/require"
)

func TestRetryBackOffGrowsAndCaps(testInstance *testing.T) {
	policy := RetryPolicy{InitialInterval: time.Second, MaxInterval: 3 * time.Second, Multiplier: 2, MaxAttempts: 5}
	_, retryBackOff := newRetryBackOff(context.Background(), policy)
	retryBackOff.Reset()

	observedIntervals := []time.Duration{}
	for {
		nextInterval := retryBackOff.NextBackOff()
		if nextInterval == backoff.Stop {
			break
		}
		observedIntervals = append(observedIntervals, nextInterval)
	}

	require.Equal(testInstance, []time.Duration{time.Second, 2 * time.Second, 3 * time.Second, 3 * time.Second}, observedIntervals)
}

func TestRetryBackOffHonorsServerHint(testInstance *testing.T) {
	testCases := []struct {
		name             string
		hint             time.Duration
		expectedInterval time.Duration
	}{
		{name: "hint_shorter_than_backoff", hint: 100 * time.Millisecond, expectedInterval: time.Second},
		{name: "hint_longer_than_backoff", hint: 2 * time.Second, expectedInterval: 2 * time.Second},
		{name: "hint_capped_at_max_interval", hint: time.Hour, expectedInterval: 10 * time.Second},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			policy := RetryPolicy{InitialInterval: time.Second, MaxInterval: 10 * time.Second, Multiplier: 2, MaxAttempts: 3}
			hintedBackOff, retryBackOff := newRetryBackOff(context.Background(), policy)
			retryBackOff.Reset()

			hintedBackOff.observe(RateLimitError{RetryAfter: testCase.hint})
			require.Equal(testInstance, testCase.expectedInterval, retryBackOff.NextBackOff())
			require.Equal(testInstance, 2*time.Second, retryBackOff.NextBackOff())
		})
	}
}

func TestRetryBackOffSingleAttemptStopsImmediately(testInstance *testing.T) {
	policy := RetryPolicy{InitialInterval: time.Second, MaxInterval: time.Second, Multiplier: 2, MaxAttempts: 1}
	_, retryBackOff := newRetryBackOff(context.Background(), policy)
	retryBackOff.Reset()
	require.Equal(testInstance, backoff.Stop, retryBackOff.NextBackOff())
}

func TestRetryPolicySanitize(testInstance *testing.T) {
	sanitized := RetryPolicy{MaxInterval: time.Second, Multiplier: 0.5}.sanitize()
	require.Equal(testInstance, DefaultRetryPolicy().InitialInterval, sanitized.InitialInterval)
	require.Equal(testInstance, DefaultRetryPolicy().InitialInterval, sanitized.MaxInterval)
	require.Equal(testInstance, DefaultRetryPolicy().Multiplier, sanitized.Multiplier)
	require.Equal(testInstance, DefaultRetryPolicy().MaxAttempts, sanitized.MaxAttempts)
}

func TestClientRetryAfter(testInstance *testing.T) {
	fixedNow := time.Unix(1_700_000_000, 0)

	testCases := []struct {
		name     string
		headers  map[string]string
		expected time.Duration
	}{
		{name: "no_headers", headers: map[string]string{}, expected: 0},
		{name: "retry_after_seconds", headers: map[string]string{"Retry-After": "30"}, expected: 30 * time.Second},
		{name: "retry_after_invalid", headers: map[string]string{"Retry-After": "soon"}, expected: 0},
		{
			name: "reset_epoch_when_quota_spent",
			headers: map[string]string{
				"X-RateLimit-Remaining": "0",
				"X-RateLimit-Reset":     strconv.FormatInt(fixedNow.Add(45*time.Second).Unix(), 10),
			},
			expected: 45 * time.Second,
		},
		{
			name: "reset_epoch_ignored_with_quota_left",
			headers: map[string]string{
				"X-RateLimit-Remaining": "3",
				"X-RateLimit-Reset":     strconv.FormatInt(fixedNow.Add(45*time.Second).Unix(), 10),
			},
			expected: 0,
		},
		{
			name: "reset_epoch_in_past",
			headers: map[string]string{
				"X-RateLimit-Remaining": "0",
				"X-RateLimit-Reset":     strconv.FormatInt(fixedNow.Add(-time.Minute).Unix(), 10),
			},
			expected: 0,
		},
	}

	client := &Client{now: func() time.Time { return fixedNow }}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			headers := http.Header{}
			for headerName, headerValue := range testCase.headers {
				headers.Set(headerName, headerValue)
			}
			require.Equal(testInstance, testCase.expected, client.retryAfter(headers))
		})
	}
}

func TestClientClassifyError(testInstance *testing.T) {
	fixedNow := time.Unix(1_700_000_000, 0)
	secondaryWait := 20 * time.Second

	testCases := []struct {
		name               string
		response           *github.Response
		searchError        error
		expectedRateLimit  *RateLimitError
		expectedStatusCode int
		expectOperation    bool
		expectDecoding     bool
	}{
		{
			name: "primary_rate_limit_uses_reset",
			searchError: &github.RateLimitError{
				Rate:     github.Rate{Remaining: 0, Reset: github.Timestamp{Time: fixedNow.Add(90 * time.Second)}},
				Response: &http.Response{StatusCode: http.StatusForbidden},
				Message:  "API rate limit exceeded",
			},
			expectedRateLimit: &RateLimitError{StatusCode: http.StatusForbidden, Message: "API rate limit exceeded", RetryAfter: 90 * time.Second},
		},
		{
			name: "secondary_rate_limit_uses_retry_after",
			searchError: &github.AbuseRateLimitError{
				Response:   &http.Response{StatusCode: http.StatusTooManyRequests, Header: http.Header{}},
				Message:    "You have exceeded a secondary rate limit",
				RetryAfter: &secondaryWait,
			},
			expectedRateLimit: &RateLimitError{StatusCode: http.StatusTooManyRequests, Message: "You have exceeded a secondary rate limit", RetryAfter: secondaryWait},
		},
		{
			name: "forbidden_error_response_reads_headers",
			searchError: &github.ErrorResponse{
				Response: &http.Response{StatusCode: http.StatusForbidden, Header: http.Header{"Retry-After": []string{"15"}}},
				Message:  "slow down",
			},
			expectedRateLimit: &RateLimitError{StatusCode: http.StatusForbidden, Message: "slow down", RetryAfter: 15 * time.Second},
		},
		{
			name: "other_status_is_not_retried",
			searchError: &github.ErrorResponse{
				Response: &http.Response{StatusCode: http.StatusNotFound, Status: "404 Not Found"},
			},
			expectedStatusCode: http.StatusNotFound,
		},
		{
			name:            "transport_failure",
			searchError:     &url.Error{Op: "Get", URL: "https://api.github.com/search/code", Err: errors.New("connection refused")},
			expectOperation: true,
		},
		{
			name:           "decoding_failure",
			response:       &github.Response{Response: &http.Response{StatusCode: http.StatusOK}},
			searchError:    io.ErrUnexpectedEOF,
			expectDecoding: true,
		},
	}

	client := &Client{now: func() time.Time { return fixedNow }}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			classifiedError := client.classifyError(context.Background(), testCase.response, testCase.searchError)

			switch {
			case testCase.expectedRateLimit != nil:
				var rateLimitError RateLimitError
				require.ErrorAs(testInstance, classifiedError, &rateLimitError)
				require.Equal(testInstance, testCase.expectedRateLimit.StatusCode, rateLimitError.StatusCode)
				require.Equal(testInstance, testCase.expectedRateLimit.Message, rateLimitError.Message)
				require.Equal(testInstance, testCase.expectedRateLimit.RetryAfter, rateLimitError.RetryAfter)
			case testCase.expectedStatusCode != 0:
				var statusError HTTPStatusError
				require.ErrorAs(testInstance, classifiedError, &statusError)
				require.Equal(testInstance, testCase.expectedStatusCode, statusError.StatusCode)
				require.Equal(testInstance, "404 Not Found", statusError.Message)
			case testCase.expectOperation:
				var operationError OperationError
				require.ErrorAs(testInstance, classifiedError, &operationError)
			case testCase.expectDecoding:
				var decodingError ResponseDecodingError
				require.ErrorAs(testInstance, classifiedError, &decodingError)
				require.ErrorIs(testInstance, classifiedError, io.ErrUnexpectedEOF)
			}
		})
	}
}

func TestClientClassifyErrorPrefersContextError(testInstance *testing.T) {
	canceledContext, cancel := context.WithCancel(context.Background())
	cancel()

	client := &Client{now: time.Now}
	classifiedError := client.classifyError(canceledContext, nil, &url.Error{Op: "Get", URL: "https://api.github.com", Err: context.Canceled})
	require.ErrorIs(testInstance, classifiedError, context.Canceled)
	require.NotErrorAs(testInstance, classifiedError, &OperationError{})
}

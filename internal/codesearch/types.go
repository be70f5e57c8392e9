package codesearch

import (
	"net/http"
	"time"
)

// Repository identifies the repository that owns a search hit.
type Repository struct {
	FullName string
}

// TextMatch carries a snippet of file content surrounding a query hit.
// Fragment may span several lines separated by newline characters.
type TextMatch struct {
	Fragment string
}

// Item is a single code search hit.
type Item struct {
	Path        string
	Repository  Repository
	TextMatches []TextMatch
}

// Page is one decoded page of code search results together with its response headers.
type Page struct {
	TotalCount        int
	IncompleteResults bool
	Items             []Item
	Headers           http.Header
}

// RetryPolicy configures the capped exponential backoff applied to rate-limited requests.
type RetryPolicy struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	MaxAttempts     int
}

// ClientConfiguration customizes the code search client.
type ClientConfiguration struct {
	BaseURL         string
	PageSize        int
	RequestInterval time.Duration
	RetryPolicy     RetryPolicy
	UserAgent       string
}

// DefaultRetryPolicy waits 60s after the first rate-limited attempt, doubling up to 5m, for at most 5 attempts.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		InitialInterval: defaultRetryInitialIntervalConstant,
		MaxInterval:     defaultRetryMaxIntervalConstant,
		Multiplier:      defaultRetryMultiplierConstant,
		MaxAttempts:     defaultRetryMaxAttemptsConstant,
	}
}

func (policy RetryPolicy) sanitize() RetryPolicy {
	sanitized := policy
	defaults := DefaultRetryPolicy()
	if sanitized.InitialInterval <= 0 {
		sanitized.InitialInterval = defaults.InitialInterval
	}
	if sanitized.MaxInterval < sanitized.InitialInterval {
		sanitized.MaxInterval = sanitized.InitialInterval
	}
	if sanitized.Multiplier < 1 {
		sanitized.Multiplier = defaults.Multiplier
	}
	if sanitized.MaxAttempts <= 0 {
		sanitized.MaxAttempts = defaults.MaxAttempts
	}
	return sanitized
}

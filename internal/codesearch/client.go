package codesearch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/go-github/v59/github"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/temirov/actions-audit/internal/githubauth"
)

const (
	defaultBaseURLConstant                = "https://api.github.com/"
	defaultPageSizeConstant               = 100
	firstPageNumberConstant               = 1
	maximumPageSizeConstant               = 100
	defaultUserAgentConstant              = "actions-audit"
	defaultRetryInitialIntervalConstant   = 60 * time.Second
	defaultRetryMaxIntervalConstant       = 5 * time.Minute
	defaultRetryMultiplierConstant        = 2.0
	defaultRetryMaxAttemptsConstant       = 5
	searchQueryTemplateConstant           = "org:%s path:.github NOT is_fork uses:"
	urlPathSeparatorConstant              = "/"
	retryAfterHeaderConstant              = "Retry-After"
	rateLimitRemainingHeaderConstant      = "X-RateLimit-Remaining"
	rateLimitResetHeaderConstant          = "X-RateLimit-Reset"
	organizationFieldNameConstant         = "organization"
	pageFieldNameConstant                 = "page"
	requiredValueMessageConstant          = "value required"
	pageRangeMessageConstant              = "must be at least 1"
	baseURLParseErrorTemplateConstant     = "invalid base URL %q: %w"
	requestPacingErrorTemplateConstant    = "request pacing interrupted: %w"
	retriesExhaustedErrorTemplateConstant = "%w after %d attempts: %w"
	requestingMessageConstant             = "requesting code search page"
	responseReceivedMessageConstant       = "code search page received"
	rateLimitedMessageConstant            = "rate limited, waiting to retry"
	logFieldQueryConstant                 = "query"
	logFieldPageConstant                  = "page"
	logFieldAttemptConstant               = "attempt"
	logFieldStatusCodeConstant            = "status_code"
	logFieldItemCountConstant             = "item_count"
	logFieldRateLimitRemainingConstant    = "rate_limit_remaining"
	logFieldRetryInConstant               = "retry_in"
)

// Client queries the GitHub code search API for workflow files referencing actions.
type Client struct {
	logger       *zap.Logger
	githubClient *github.Client
	pageSize     int
	retryPolicy  RetryPolicy
	limiter      *rate.Limiter
	now          func() time.Time
}

// NewClient validates collaborators and constructs a Client that authenticates every request with token.
// An empty token yields githubauth.ErrTokenMissing.
func NewClient(logger *zap.Logger, httpClient *http.Client, token string, configuration ClientConfiguration) (*Client, error) {
	if httpClient == nil {
		return nil, ErrHTTPClientNotConfigured
	}

	trimmedToken := strings.TrimSpace(token)
	if len(trimmedToken) == 0 {
		return nil, githubauth.ErrTokenMissing
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	baseURL := strings.TrimSpace(configuration.BaseURL)
	if len(baseURL) == 0 {
		baseURL = defaultBaseURLConstant
	}
	if !strings.HasSuffix(baseURL, urlPathSeparatorConstant) {
		baseURL += urlPathSeparatorConstant
	}
	parsedBaseURL, parseError := url.Parse(baseURL)
	if parseError != nil {
		return nil, fmt.Errorf(baseURLParseErrorTemplateConstant, baseURL, parseError)
	}

	pageSize := configuration.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSizeConstant
	}
	if pageSize > maximumPageSizeConstant {
		pageSize = maximumPageSizeConstant
	}

	userAgent := strings.TrimSpace(configuration.UserAgent)
	if len(userAgent) == 0 {
		userAgent = defaultUserAgentConstant
	}

	tokenSource := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: trimmedToken})
	authenticatedHTTPClient := oauth2.NewClient(context.WithValue(context.Background(), oauth2.HTTPClient, httpClient), tokenSource)
	authenticatedHTTPClient.Timeout = httpClient.Timeout

	githubClient := github.NewClient(authenticatedHTTPClient)
	githubClient.BaseURL = parsedBaseURL
	githubClient.UserAgent = userAgent

	var limiter *rate.Limiter
	if configuration.RequestInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(configuration.RequestInterval), 1)
	}

	return &Client{
		logger:       logger,
		githubClient: githubClient,
		pageSize:     pageSize,
		retryPolicy:  configuration.RetryPolicy.sanitize(),
		limiter:      limiter,
		now:          time.Now,
	}, nil
}

// SearchQuery returns the code search query used for an organization.
func SearchQuery(organization string) string {
	return fmt.Sprintf(searchQueryTemplateConstant, organization)
}

// FetchPage retrieves one 1-based page of results, retrying rate-limited responses per the retry policy.
func (client *Client) FetchPage(executionContext context.Context, organization string, pageNumber int) (Page, error) {
	trimmedOrganization := strings.TrimSpace(organization)
	if len(trimmedOrganization) == 0 {
		return Page{}, InvalidInputError{FieldName: organizationFieldNameConstant, Message: requiredValueMessageConstant}
	}
	if pageNumber < firstPageNumberConstant {
		return Page{}, InvalidInputError{FieldName: pageFieldNameConstant, Message: pageRangeMessageConstant}
	}

	query := SearchQuery(trimmedOrganization)
	hintedBackOff, retryBackOff := newRetryBackOff(executionContext, client.retryPolicy)

	var fetchedPage Page
	attemptCount := 0
	operation := func() error {
		attemptCount++
		page, fetchError := client.fetchOnce(executionContext, query, pageNumber, attemptCount)
		if fetchError != nil {
			var rateLimitError RateLimitError
			if errors.As(fetchError, &rateLimitError) {
				hintedBackOff.observe(rateLimitError)
				return fetchError
			}
			return backoff.Permanent(fetchError)
		}
		fetchedPage = page
		return nil
	}

	notify := func(retryError error, waitDuration time.Duration) {
		client.logger.Info(
			rateLimitedMessageConstant,
			zap.Int(logFieldPageConstant, pageNumber),
			zap.Int(logFieldAttemptConstant, attemptCount),
			zap.Duration(logFieldRetryInConstant, waitDuration),
			zap.Error(retryError),
		)
	}

	retryError := backoff.RetryNotify(operation, retryBackOff, notify)
	if retryError != nil {
		var rateLimitError RateLimitError
		if errors.As(retryError, &rateLimitError) {
			return Page{}, fmt.Errorf(retriesExhaustedErrorTemplateConstant, ErrRetriesExhausted, attemptCount, retryError)
		}
		return Page{}, retryError
	}

	return fetchedPage, nil
}

func (client *Client) fetchOnce(executionContext context.Context, query string, pageNumber int, attemptNumber int) (Page, error) {
	if client.limiter != nil {
		if waitError := client.limiter.Wait(executionContext); waitError != nil {
			return Page{}, fmt.Errorf(requestPacingErrorTemplateConstant, waitError)
		}
	}

	client.logger.Debug(
		requestingMessageConstant,
		zap.String(logFieldQueryConstant, query),
		zap.Int(logFieldPageConstant, pageNumber),
		zap.Int(logFieldAttemptConstant, attemptNumber),
	)

	// A zero page is left out of the query string; the API treats that as page 1.
	requestedPage := pageNumber
	if requestedPage == firstPageNumberConstant {
		requestedPage = 0
	}
	searchOptions := &github.SearchOptions{
		TextMatch:   true,
		ListOptions: github.ListOptions{Page: requestedPage, PerPage: client.pageSize},
	}
	searchResult, response, searchError := client.githubClient.Search.Code(executionContext, query, searchOptions)
	if searchError != nil {
		return Page{}, client.classifyError(executionContext, response, searchError)
	}

	page := convertSearchResult(searchResult)
	page.Headers = response.Header.Clone()

	client.logger.Debug(
		responseReceivedMessageConstant,
		zap.Int(logFieldPageConstant, pageNumber),
		zap.Int(logFieldStatusCodeConstant, response.StatusCode),
		zap.Int(logFieldItemCountConstant, len(page.Items)),
		zap.Int(logFieldRateLimitRemainingConstant, response.Rate.Remaining),
	)

	return page, nil
}

// classifyError maps go-github failures onto the package error types.
// Rate limits become RateLimitError so the retry loop can wait them out.
func (client *Client) classifyError(executionContext context.Context, response *github.Response, searchError error) error {
	if contextError := executionContext.Err(); contextError != nil {
		return contextError
	}

	var primaryRateLimitError *github.RateLimitError
	if errors.As(searchError, &primaryRateLimitError) {
		return RateLimitError{
			Operation:  searchCodeOperationNameConstant,
			StatusCode: statusCodeOf(primaryRateLimitError.Response, http.StatusForbidden),
			Message:    primaryRateLimitError.Message,
			RetryAfter: client.untilReset(primaryRateLimitError.Rate.Reset.Time),
		}
	}

	var secondaryRateLimitError *github.AbuseRateLimitError
	if errors.As(searchError, &secondaryRateLimitError) {
		retryAfter := client.retryAfter(headersOf(secondaryRateLimitError.Response))
		if hintedWait := secondaryRateLimitError.GetRetryAfter(); hintedWait > 0 {
			retryAfter = hintedWait
		}
		return RateLimitError{
			Operation:  searchCodeOperationNameConstant,
			StatusCode: statusCodeOf(secondaryRateLimitError.Response, http.StatusForbidden),
			Message:    secondaryRateLimitError.Message,
			RetryAfter: retryAfter,
		}
	}

	var responseError *github.ErrorResponse
	if errors.As(searchError, &responseError) && responseError.Response != nil {
		statusCode := responseError.Response.StatusCode
		message := responseError.Message
		if len(message) == 0 {
			message = responseError.Response.Status
		}
		if statusCode == http.StatusForbidden || statusCode == http.StatusTooManyRequests {
			return RateLimitError{
				Operation:  searchCodeOperationNameConstant,
				StatusCode: statusCode,
				Message:    message,
				RetryAfter: client.retryAfter(responseError.Response.Header),
			}
		}
		return HTTPStatusError{Operation: searchCodeOperationNameConstant, StatusCode: statusCode, Message: message}
	}

	if errors.Is(searchError, context.Canceled) || errors.Is(searchError, context.DeadlineExceeded) {
		return searchError
	}

	if response == nil {
		return OperationError{Operation: searchCodeOperationNameConstant, Cause: searchError}
	}
	return ResponseDecodingError{Operation: searchCodeOperationNameConstant, Cause: searchError}
}

// retryAfter prefers Retry-After seconds and falls back to the X-RateLimit-Reset epoch when the quota is spent.
func (client *Client) retryAfter(headers http.Header) time.Duration {
	if retryAfterSeconds, parseError := strconv.Atoi(strings.TrimSpace(headers.Get(retryAfterHeaderConstant))); parseError == nil && retryAfterSeconds > 0 {
		return time.Duration(retryAfterSeconds) * time.Second
	}

	if strings.TrimSpace(headers.Get(rateLimitRemainingHeaderConstant)) != "0" {
		return 0
	}
	resetEpoch, parseError := strconv.ParseInt(strings.TrimSpace(headers.Get(rateLimitResetHeaderConstant)), 10, 64)
	if parseError != nil {
		return 0
	}
	return client.untilReset(time.Unix(resetEpoch, 0))
}

func (client *Client) untilReset(resetTime time.Time) time.Duration {
	if resetTime.IsZero() {
		return 0
	}
	untilReset := resetTime.Sub(client.now())
	if untilReset < 0 {
		return 0
	}
	return untilReset
}

func convertSearchResult(searchResult *github.CodeSearchResult) Page {
	if searchResult == nil {
		return Page{}
	}
	page := Page{
		TotalCount:        searchResult.GetTotal(),
		IncompleteResults: searchResult.GetIncompleteResults(),
		Items:             make([]Item, 0, len(searchResult.CodeResults)),
	}
	for _, codeResult := range searchResult.CodeResults {
		if codeResult == nil {
			continue
		}
		item := Item{
			Path:       codeResult.GetPath(),
			Repository: Repository{FullName: codeResult.GetRepository().GetFullName()},
		}
		for _, textMatch := range codeResult.TextMatches {
			item.TextMatches = append(item.TextMatches, TextMatch{Fragment: textMatch.GetFragment()})
		}
		page.Items = append(page.Items, item)
	}
	return page
}

func statusCodeOf(response *http.Response, fallback int) int {
	if response == nil {
		return fallback
	}
	return response.StatusCode
}

func headersOf(response *http.Response) http.Header {
	if response == nil {
		return http.Header{}
	}
	return response.Header
}

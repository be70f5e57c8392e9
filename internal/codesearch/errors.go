package codesearch

import (
	"errors"
	"fmt"
	"time"
)

const (
	httpClientNotConfiguredMessageConstant  = "http client not configured"
	retriesExhaustedMessageConstant         = "rate limit retries exhausted"
	operationErrorWithCauseTemplateConstant = "%s operation failed: %s"
	responseDecodingErrorTemplateConstant   = "%s response decoding failed: %s"
	invalidInputErrorTemplateConstant       = "%s: %s"
	httpStatusErrorTemplateConstant         = "%s request returned status %d: %s"
	rateLimitErrorTemplateConstant          = "%s request rate limited with status %d: %s"
	searchCodeOperationNameConstant         = OperationName("SearchCode")
)

// OperationName describes a named GitHub API workflow supported by the client.
type OperationName string

var (
	// ErrHTTPClientNotConfigured indicates the client was constructed without an HTTP client.
	ErrHTTPClientNotConfigured = errors.New(httpClientNotConfiguredMessageConstant)
	// ErrRetriesExhausted indicates that a request stayed rate limited for every permitted attempt.
	ErrRetriesExhausted = errors.New(retriesExhaustedMessageConstant)
)

// InvalidInputError surfaces validation issues for operation inputs.
type InvalidInputError struct {
	FieldName string
	Message   string
}

// Error describes the invalid input.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf(invalidInputErrorTemplateConstant, inputError.FieldName, inputError.Message)
}

// OperationError wraps transport failures.
type OperationError struct {
	Operation OperationName
	Cause     error
}

// Error describes the operation failure.
func (operationError OperationError) Error() string {
	return fmt.Sprintf(operationErrorWithCauseTemplateConstant, operationError.Operation, operationError.Cause)
}

// Unwrap exposes the underlying cause.
func (operationError OperationError) Unwrap() error {
	return operationError.Cause
}

// ResponseDecodingError indicates JSON decoding failures.
type ResponseDecodingError struct {
	Operation OperationName
	Cause     error
}

// Error describes the decoding failure.
func (decodingError ResponseDecodingError) Error() string {
	return fmt.Sprintf(responseDecodingErrorTemplateConstant, decodingError.Operation, decodingError.Cause)
}

// Unwrap exposes the underlying JSON error.
func (decodingError ResponseDecodingError) Unwrap() error {
	return decodingError.Cause
}

// HTTPStatusError reports a non-success status that is not retried.
type HTTPStatusError struct {
	Operation  OperationName
	StatusCode int
	Message    string
}

// Error describes the rejected request.
func (statusError HTTPStatusError) Error() string {
	return fmt.Sprintf(httpStatusErrorTemplateConstant, statusError.Operation, statusError.StatusCode, statusError.Message)
}

// RateLimitError reports a 403 or 429 response. RetryAfter holds the server's wait hint, zero when absent.
type RateLimitError struct {
	Operation  OperationName
	StatusCode int
	Message    string
	RetryAfter time.Duration
}

// Error describes the rate-limited request.
func (rateLimitError RateLimitError) Error() string {
	return fmt.Sprintf(rateLimitErrorTemplateConstant, rateLimitError.Operation, rateLimitError.StatusCode, rateLimitError.Message)
}

package model

import "fmt"

// RateLimitExceededError is returned when a request is still throttled after
// the executor's retry budget is spent.
type RateLimitExceededError struct {
	Account  string
	Attempts int
}

func (e *RateLimitExceededError) Error() string {
	return fmt.Sprintf("rate limited after %d attempts (account %s)", e.Attempts, e.Account)
}

// TokenExpiredError signals an HTTP 401 from the provider. Never retried: the
// same expired credential cannot succeed; the caller must re-capture.
type TokenExpiredError struct {
	Account string
}

func (e *TokenExpiredError) Error() string {
	return fmt.Sprintf("provider rejected credentials for account %s (token expired)", e.Account)
}

// DuplicateRequestError is returned when the dedup cache rejects a submission
// before it reaches the provider.
type DuplicateRequestError struct{}

func (e *DuplicateRequestError) Error() string {
	return "identical request already in flight"
}

// ProviderError carries a non-retryable provider response for diagnostics.
type ProviderError struct {
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider returned %d: %s", e.StatusCode, e.Body)
}

// PollTimeoutError marks a job abandoned after the poll attempt budget ran
// out without a successful operation. The chain step is skipped, not retried.
type PollTimeoutError struct {
	JobID    string
	Attempts int
}

func (e *PollTimeoutError) Error() string {
	return fmt.Sprintf("job %s still unresolved after %d poll attempts", e.JobID, e.Attempts)
}

package httpexec

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"flowfarm/domain/model"
	"flowfarm/infrastructure/logger"
)

// DefaultMaxRetries is the retry budget for throttled requests.
const DefaultMaxRetries = 5

const (
	baseBackoff = 1000 * time.Millisecond
	maxBackoff  = 32000 * time.Millisecond
)

// RequestSpec describes one outbound provider call.
type RequestSpec struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Response is the raw provider reply for a 2xx call.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Stats are the process-wide request counters, kept for observability. They
// only reset via an explicit Reset call.
type Stats struct {
	TotalRequests       int64            `json:"total_requests"`
	RateLimitedRequests int64            `json:"rate_limited_requests"`
	RetriedRequests     int64            `json:"retried_requests"`
	FailedAfterRetry    int64            `json:"failed_after_retry"`
	PerAccount          map[string]int64 `json:"per_account"`
}

// Executor wraps outbound HTTP with exponential backoff on 429, per-lane
// proxy binding, and usage accounting. The same account/proxy pair is kept
// across retries of one request.
type Executor struct {
	mu      sync.Mutex
	stats   Stats
	clients map[string]*http.Client // keyed by proxy string, "" = direct
	timeout time.Duration

	// sleep is replaced in tests to observe backoff without waiting.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewExecutor(timeout time.Duration) *Executor {
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	return &Executor{
		stats:   Stats{PerAccount: make(map[string]int64)},
		clients: make(map[string]*http.Client),
		timeout: timeout,
		sleep:   sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Execute runs the request, retrying up to maxRetries times on HTTP 429 with
// exponential backoff (min(1s*2^attempt, 32s), or the provider's Retry-After
// when present). 401 surfaces as TokenExpiredError and any other non-2xx
// fails immediately with status and body attached. A malformed proxy string
// downgrades to a direct connection with a warning, never a hard failure.
func (e *Executor) Execute(ctx context.Context, spec RequestSpec, account, proxy string, maxRetries int) (*Response, error) {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	client := e.clientFor(proxy)

	for attempt := 0; ; attempt++ {
		e.countRequest(account)

		req, err := http.NewRequestWithContext(ctx, spec.Method, spec.URL, bytes.NewReader(spec.Body))
		if err != nil {
			return nil, err
		}
		for k, vs := range spec.Header {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}

		res, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		body, readErr := io.ReadAll(res.Body)
		res.Body.Close()
		if readErr != nil {
			return nil, readErr
		}

		switch {
		case res.StatusCode >= 200 && res.StatusCode < 300:
			return &Response{StatusCode: res.StatusCode, Header: res.Header, Body: body}, nil

		case res.StatusCode == http.StatusTooManyRequests:
			e.countRateLimited()
			if attempt >= maxRetries {
				e.countFailedAfterRetry()
				return nil, &model.RateLimitExceededError{Account: account, Attempts: attempt + 1}
			}
			wait := backoffDelay(attempt, res.Header.Get("Retry-After"))
			logger.GetLogger().WithFields(map[string]interface{}{
				"account": account,
				"attempt": attempt,
				"wait":    wait.String(),
			}).Warn("Rate limited, backing off")
			e.countRetried()
			if err := e.sleep(ctx, wait); err != nil {
				return nil, err
			}

		case res.StatusCode == http.StatusUnauthorized:
			return nil, &model.TokenExpiredError{Account: account}

		default:
			return nil, &model.ProviderError{StatusCode: res.StatusCode, Body: string(body)}
		}
	}
}

// backoffDelay prefers the provider's Retry-After header (seconds) over the
// computed exponential delay.
func backoffDelay(attempt int, retryAfter string) time.Duration {
	if retryAfter != "" {
		if secs, err := strconv.Atoi(retryAfter); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	d := baseBackoff << attempt
	if d > maxBackoff || d <= 0 {
		d = maxBackoff
	}
	return d
}

// clientFor returns the HTTP client bound to the given proxy string, building
// and caching it on first use.
func (e *Executor) clientFor(proxy string) *http.Client {
	parsed, err := ParseProxy(proxy)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Unparseable proxy, proceeding without one")
		proxy = ""
		parsed = nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if c, ok := e.clients[proxy]; ok {
		return c
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if parsed != nil {
		proxyURL := parsed.URL()
		transport.Proxy = http.ProxyURL(proxyURL)
	}
	c := &http.Client{Timeout: e.timeout, Transport: transport}
	e.clients[proxy] = c
	return c
}

func (e *Executor) countRequest(account string) {
	e.mu.Lock()
	e.stats.TotalRequests++
	e.stats.PerAccount[account]++
	e.mu.Unlock()
}

func (e *Executor) countRateLimited() {
	e.mu.Lock()
	e.stats.RateLimitedRequests++
	e.mu.Unlock()
}

func (e *Executor) countRetried() {
	e.mu.Lock()
	e.stats.RetriedRequests++
	e.mu.Unlock()
}

func (e *Executor) countFailedAfterRetry() {
	e.mu.Lock()
	e.stats.FailedAfterRetry++
	e.mu.Unlock()
}

// Stats returns a snapshot of the running counters.
func (e *Executor) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	snapshot := e.stats
	snapshot.PerAccount = make(map[string]int64, len(e.stats.PerAccount))
	for k, v := range e.stats.PerAccount {
		snapshot.PerAccount[k] = v
	}
	return snapshot
}

// Reset zeroes all counters.
func (e *Executor) Reset() {
	e.mu.Lock()
	e.stats = Stats{PerAccount: make(map[string]int64)}
	e.mu.Unlock()
}

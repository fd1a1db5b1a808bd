package httpexec

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowfarm/domain/model"
)

func newTestExecutor() (*Executor, *[]time.Duration) {
	e := NewExecutor(time.Minute)
	var sleeps []time.Duration
	e.sleep = func(_ context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return nil
	}
	return e, &sleeps
}

func TestExecuteSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	e, sleeps := newTestExecutor()
	header := http.Header{}
	header.Set("Authorization", "Bearer tok")
	res, err := e.Execute(context.Background(), RequestSpec{Method: http.MethodGet, URL: srv.URL, Header: header}, "acct-a", "", 5)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, `{"ok":true}`, string(res.Body))
	assert.Empty(t, *sleeps)

	stats := e.Stats()
	assert.Equal(t, int64(1), stats.TotalRequests)
	assert.Equal(t, int64(1), stats.PerAccount["acct-a"])
}

func TestExecuteRetriesOn429WithExponentialBackoff(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if hits <= 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	e, sleeps := newTestExecutor()
	res, err := e.Execute(context.Background(), RequestSpec{Method: http.MethodPost, URL: srv.URL}, "acct-a", "", 5)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, 4, hits)
	assert.Equal(t, []time.Duration{1000 * time.Millisecond, 2000 * time.Millisecond, 4000 * time.Millisecond}, *sleeps)

	stats := e.Stats()
	assert.Equal(t, int64(4), stats.TotalRequests)
	assert.Equal(t, int64(3), stats.RateLimitedRequests)
	assert.Equal(t, int64(3), stats.RetriedRequests)
	assert.Equal(t, int64(0), stats.FailedAfterRetry)
}

func TestExecuteHonorsRetryAfterHeader(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if hits == 1 {
			w.Header().Set("Retry-After", "9")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	e, sleeps := newTestExecutor()
	_, err := e.Execute(context.Background(), RequestSpec{Method: http.MethodPost, URL: srv.URL}, "acct-a", "", 5)
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{9 * time.Second}, *sleeps)
}

func TestExecuteRateLimitBudgetExhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	e, sleeps := newTestExecutor()
	_, err := e.Execute(context.Background(), RequestSpec{Method: http.MethodPost, URL: srv.URL}, "acct-a", "", 2)
	var limited *model.RateLimitExceededError
	require.ErrorAs(t, err, &limited)
	assert.Equal(t, "acct-a", limited.Account)
	assert.Equal(t, 3, limited.Attempts)
	assert.Len(t, *sleeps, 2)

	stats := e.Stats()
	assert.Equal(t, int64(1), stats.FailedAfterRetry)
}

func TestExecute401NeverRetried(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	e, sleeps := newTestExecutor()
	_, err := e.Execute(context.Background(), RequestSpec{Method: http.MethodPost, URL: srv.URL}, "acct-b", "", 5)
	var expired *model.TokenExpiredError
	require.ErrorAs(t, err, &expired)
	assert.Equal(t, "acct-b", expired.Account)
	assert.Equal(t, 1, hits, "expired credentials must not be retried")
	assert.Empty(t, *sleeps)
}

func TestExecuteOtherErrorsCarryBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("backend exploded"))
	}))
	defer srv.Close()

	e, _ := newTestExecutor()
	_, err := e.Execute(context.Background(), RequestSpec{Method: http.MethodPost, URL: srv.URL}, "acct-a", "", 5)
	var provider *model.ProviderError
	require.ErrorAs(t, err, &provider)
	assert.Equal(t, http.StatusInternalServerError, provider.StatusCode)
	assert.Equal(t, "backend exploded", provider.Body)
}

func TestBackoffDelayCaps(t *testing.T) {
	assert.Equal(t, 1000*time.Millisecond, backoffDelay(0, ""))
	assert.Equal(t, 2000*time.Millisecond, backoffDelay(1, ""))
	assert.Equal(t, 4000*time.Millisecond, backoffDelay(2, ""))
	assert.Equal(t, 32000*time.Millisecond, backoffDelay(5, ""))
	assert.Equal(t, 32000*time.Millisecond, backoffDelay(30, ""), "shift overflow clamps to cap")
	assert.Equal(t, 3*time.Second, backoffDelay(0, "3"))
	assert.Equal(t, 1000*time.Millisecond, backoffDelay(0, "soon"), "junk Retry-After falls back to exponential")
}

func TestExecuteMalformedProxyFallsBackToDirect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	e, _ := newTestExecutor()
	res, err := e.Execute(context.Background(), RequestSpec{Method: http.MethodGet, URL: srv.URL}, "acct-a", "only-a-host", 5)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowfarm/domain/dto"
	"flowfarm/domain/model"
)

func perform(t *testing.T, err error) (int, dto.Res) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(w)
	ctx.Request = httptest.NewRequest(http.MethodPost, "/", nil)

	respondError(ctx, err)

	var res dto.Res
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	return w.Code, res
}

func TestRespondErrorDuplicate(t *testing.T) {
	code, res := perform(t, &model.DuplicateRequestError{})
	assert.Equal(t, http.StatusConflict, code)
	assert.False(t, res.Success)
	assert.True(t, res.Duplicate)
	assert.False(t, res.TokenExpired)
}

func TestRespondErrorTokenExpired(t *testing.T) {
	code, res := perform(t, &model.TokenExpiredError{Account: "alpha"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.True(t, res.TokenExpired)
}

func TestRespondErrorRateLimited(t *testing.T) {
	code, _ := perform(t, &model.RateLimitExceededError{Account: "alpha", Attempts: 6})
	assert.Equal(t, http.StatusTooManyRequests, code)
}

func TestRespondErrorPollTimeout(t *testing.T) {
	code, _ := perform(t, &model.PollTimeoutError{JobID: "job-1", Attempts: 120})
	assert.Equal(t, http.StatusGatewayTimeout, code)
}

func TestRespondErrorProvider(t *testing.T) {
	code, _ := perform(t, &model.ProviderError{StatusCode: 500, Body: "boom"})
	assert.Equal(t, http.StatusBadGateway, code)
}

func TestRespondErrorWrapped(t *testing.T) {
	wrapped := errors.Join(errors.New("submit NEW job"), &model.TokenExpiredError{Account: "alpha"})
	code, res := perform(t, wrapped)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.True(t, res.TokenExpired)
}

func TestRespondErrorUnknown(t *testing.T) {
	code, res := perform(t, errors.New("something else"))
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "something else", res.Message)
}

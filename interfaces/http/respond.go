package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"flowfarm/domain/dto"
	"flowfarm/domain/model"
)

// errorResponse maps domain error types onto an HTTP status and envelope
// flags. Callers may attach extra payload to the returned Res before sending.
func errorResponse(err error) (int, dto.Res) {
	res := dto.Fail(err.Error())
	status := http.StatusInternalServerError

	var dup *model.DuplicateRequestError
	var expired *model.TokenExpiredError
	var limited *model.RateLimitExceededError
	var timeout *model.PollTimeoutError
	var provider *model.ProviderError
	switch {
	case errors.As(err, &dup):
		status = http.StatusConflict
		res.Duplicate = true
	case errors.As(err, &expired):
		status = http.StatusUnauthorized
		res.TokenExpired = true
	case errors.As(err, &limited):
		status = http.StatusTooManyRequests
	case errors.As(err, &timeout):
		status = http.StatusGatewayTimeout
	case errors.As(err, &provider):
		status = http.StatusBadGateway
	}
	return status, res
}

func respondError(ctx *gin.Context, err error) {
	status, res := errorResponse(err)
	ctx.JSON(status, res)
}

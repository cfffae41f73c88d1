package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/orderledger/internal/domain/errors"
	"github.com/polkiloo/orderledger/internal/domain/model"
	"github.com/polkiloo/orderledger/internal/server/http/dto"
	"github.com/polkiloo/orderledger/internal/server/http/middleware"
)

// CurrentIdentity extracts the caller identity stored by the auth middleware.
func CurrentIdentity(c *gin.Context) model.Identity {
	val, ok := c.Get(middleware.IdentityContextKey)
	if !ok {
		return model.Identity{}
	}
	id, _ := val.(model.Identity)
	return id
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domainErrors.ErrValidation),
		errors.Is(err, domainErrors.ErrUnknownPayment),
		errors.Is(err, domainErrors.ErrAuthenticity):
		return http.StatusBadRequest
	case errors.Is(err, domainErrors.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domainErrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domainErrors.ErrUpstream):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// writeError responds with the mapped status. Only client errors carry the
// underlying message; server-side failures get a fixed one.
func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	switch {
	case errors.Is(err, domainErrors.ErrConfiguration):
		msg = "payment provider is not configured"
	case status == http.StatusBadGateway:
		msg = "payment provider is unavailable, please try again"
	case status >= http.StatusInternalServerError:
		msg = "internal server error"
	}
	c.AbortWithStatusJSON(status, dto.ErrorResponse{Error: msg})
}

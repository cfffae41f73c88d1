package handlers

import (
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/orderledger/internal/domain/errors"
	"github.com/polkiloo/orderledger/internal/server/http/dto"
)

const signatureHeader = "Stripe-Signature"

// WebhookHandler receives provider notifications.
type WebhookHandler struct {
	facade WebhookFacade
}

// NewWebhookHandler constructs WebhookHandler.
func NewWebhookHandler(facade WebhookFacade) *WebhookHandler {
	return &WebhookHandler{facade: facade}
}

// Card handles POST /webhook. The raw body is passed through untouched for
// signature verification. Any failure other than a rejected event answers
// 500 so the provider retries.
func (h *WebhookHandler) Card(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, dto.ErrorResponse{Error: "unreadable request body"})
		return
	}

	res, err := h.facade.HandleCardWebhook(c.Request.Context(), payload, c.GetHeader(signatureHeader))
	if err != nil {
		switch {
		case errors.Is(err, domainErrors.ErrAuthenticity), errors.Is(err, domainErrors.ErrConfiguration):
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.ErrorResponse{Error: "webhook rejected"})
		default:
			c.AbortWithStatusJSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "webhook processing failed"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.WebhookResponse{Received: true, Ignored: res.Ignored})
}

// MobileMoney handles GET|POST /webhook/pesapal.
func (h *WebhookHandler) MobileMoney(c *gin.Context) {
	var ipn dto.MobileMoneyIPN
	if _, err := url.ParseQuery(c.Request.URL.RawQuery); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid notification query"})
		return
	}
	if err := c.ShouldBindQuery(&ipn); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid notification query"})
		return
	}
	if c.Request.Method != http.MethodGet && c.Request.ContentLength != 0 {
		if err := c.ShouldBind(&ipn); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid notification body"})
			return
		}
	}

	n := ipn.Notification()
	order, err := h.facade.HandleMobileMoneyNotification(c.Request.Context(), n)
	if err != nil {
		if errors.Is(err, domainErrors.ErrValidation) {
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "failed to process notification"})
		return
	}

	c.JSON(http.StatusOK, dto.NewMobileMoneyAck(n, order))
}

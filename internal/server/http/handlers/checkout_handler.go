package handlers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/orderledger/internal/domain/errors"
	"github.com/polkiloo/orderledger/internal/domain/model"
	"github.com/polkiloo/orderledger/internal/server/http/dto"
)

// CheckoutHandler opens provider sessions for storefront carts.
type CheckoutHandler struct {
	facade CheckoutFacade
}

// NewCheckoutHandler constructs CheckoutHandler.
func NewCheckoutHandler(facade CheckoutFacade) *CheckoutHandler {
	return &CheckoutHandler{facade: facade}
}

// Create handles POST /checkout.
func (h *CheckoutHandler) Create(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		writeError(c, fmt.Errorf("%w: unreadable request body", domainErrors.ErrValidation))
		return
	}
	req, err := dto.ParseCheckout(body)
	if err != nil {
		writeError(c, err)
		return
	}

	res, err := h.facade.Checkout(c.Request.Context(), model.CheckoutRequest{
		Cart:          req.Cart(),
		Email:         req.Email,
		PaymentMethod: req.Method(),
		Identity:      CurrentIdentity(c),
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.CheckoutResponse{URL: res.URL, SessionID: res.SessionID})
}

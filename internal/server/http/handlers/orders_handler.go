package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/orderledger/internal/server/http/dto"
)

// OrderHandler manages order-related endpoints.
type OrderHandler struct {
	facade OrderFacade
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(facade OrderFacade) *OrderHandler {
	return &OrderHandler{facade: facade}
}

// List handles GET /orders[?session_id=].
func (h *OrderHandler) List(c *gin.Context) {
	sessionID := strings.TrimSpace(c.Query("session_id"))
	orders, err := h.facade.Orders(c.Request.Context(), CurrentIdentity(c), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewOrdersResponse(orders))
}

// Claim handles POST /orders/claim.
func (h *OrderHandler) Claim(c *gin.Context) {
	claimed, err := h.facade.ClaimOrders(c.Request.Context(), CurrentIdentity(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ClaimResponse{OK: true, Claimed: claimed})
}

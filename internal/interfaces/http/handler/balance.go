package handler

import (
	"github.com/gin-gonic/gin"
)

// BalanceHandler serves live balances of the current period
type BalanceHandler struct {
	BaseHandler
	balances BalanceService
}

// NewBalanceHandler creates a new BalanceHandler
func NewBalanceHandler(balances BalanceService) *BalanceHandler {
	return &BalanceHandler{balances: balances}
}

// Statement returns every member's line for the mess.
// GET /mess/balances
func (h *BalanceHandler) Statement(c *gin.Context) {
	_, tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	stmt, err := h.balances.Statement(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, stmt)
}

// Mine returns the caller's own line.
// GET /mess/balances/me
func (h *BalanceHandler) Mine(c *gin.Context) {
	session, tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	memberID, err := session.Member()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	line, err := h.balances.MemberBalance(c.Request.Context(), tenantID, memberID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, line)
}

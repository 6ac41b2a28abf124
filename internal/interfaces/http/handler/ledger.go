package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appmess "github.com/messmate/backend/internal/application/mess"
)

// LedgerHandler serves the working data of the current period: meals,
// bazar purchases, deposits and additional costs
type LedgerHandler struct {
	BaseHandler
	ledger LedgerService
}

// NewLedgerHandler creates a new LedgerHandler
func NewLedgerHandler(ledger LedgerService) *LedgerHandler {
	return &LedgerHandler{ledger: ledger}
}

// ==================== Meals ====================

// RecordMeals upserts a member's meal counts for one day.
// PUT /mess/meals
func (h *LedgerHandler) RecordMeals(c *gin.Context) {
	_, tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	var req appmess.RecordMealsRequest
	if !h.bindJSON(c, &req) {
		return
	}

	rec, err := h.ledger.RecordMeals(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, rec)
}

// ListMeals lists meal rows. Members only ever see their own.
// GET /mess/meals
func (h *LedgerHandler) ListMeals(c *gin.Context) {
	session, tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	filter, ok := h.ledgerFilter(c)
	if !ok {
		return
	}
	if !session.IsManager() {
		memberID, err := session.Member()
		if err != nil {
			h.HandleError(c, err)
			return
		}
		filter.MemberID = &memberID
	}

	page, err := h.ledger.ListMeals(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	Page(&h.BaseHandler, c, page)
}

// DeleteMeals removes one day's meal row.
// DELETE /mess/meals/:id
func (h *LedgerHandler) DeleteMeals(c *gin.Context) {
	h.delete(c, h.ledger.DeleteMeals)
}

// ==================== Bazar ====================

// AddBazar records a shared purchase.
// POST /mess/bazar
func (h *LedgerHandler) AddBazar(c *gin.Context) {
	_, tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	var req appmess.AddBazarRequest
	if !h.bindJSON(c, &req) {
		return
	}

	b, err := h.ledger.AddBazar(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, b)
}

// ListBazar lists purchases.
// GET /mess/bazar
func (h *LedgerHandler) ListBazar(c *gin.Context) {
	_, tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	filter, ok := h.ledgerFilter(c)
	if !ok {
		return
	}

	page, err := h.ledger.ListBazar(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	Page(&h.BaseHandler, c, page)
}

// DeleteBazar removes a purchase.
// DELETE /mess/bazar/:id
func (h *LedgerHandler) DeleteBazar(c *gin.Context) {
	h.delete(c, h.ledger.DeleteBazar)
}

// ==================== Deposits ====================

// AddDeposit records money a member paid in.
// POST /mess/deposits
func (h *LedgerHandler) AddDeposit(c *gin.Context) {
	_, tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	var req appmess.AddDepositRequest
	if !h.bindJSON(c, &req) {
		return
	}

	d, err := h.ledger.AddDeposit(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, d)
}

// ListDeposits lists deposits.
// GET /mess/deposits
func (h *LedgerHandler) ListDeposits(c *gin.Context) {
	_, tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	filter, ok := h.ledgerFilter(c)
	if !ok {
		return
	}

	page, err := h.ledger.ListDeposits(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	Page(&h.BaseHandler, c, page)
}

// DeleteDeposit removes a deposit.
// DELETE /mess/deposits/:id
func (h *LedgerHandler) DeleteDeposit(c *gin.Context) {
	h.delete(c, h.ledger.DeleteDeposit)
}

// ==================== Additional costs ====================

// AddAdditionalCost records a cost split per active head.
// POST /mess/additional-costs
func (h *LedgerHandler) AddAdditionalCost(c *gin.Context) {
	_, tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	var req appmess.AddAdditionalCostRequest
	if !h.bindJSON(c, &req) {
		return
	}

	cost, err := h.ledger.AddAdditionalCost(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, cost)
}

// ListAdditionalCosts lists additional costs.
// GET /mess/additional-costs
func (h *LedgerHandler) ListAdditionalCosts(c *gin.Context) {
	_, tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	filter, ok := h.ledgerFilter(c)
	if !ok {
		return
	}

	page, err := h.ledger.ListAdditionalCosts(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	Page(&h.BaseHandler, c, page)
}

// DeleteAdditionalCost removes an additional cost.
// DELETE /mess/additional-costs/:id
func (h *LedgerHandler) DeleteAdditionalCost(c *gin.Context) {
	h.delete(c, h.ledger.DeleteAdditionalCost)
}

func (h *LedgerHandler) ledgerFilter(c *gin.Context) (appmess.LedgerListFilter, bool) {
	var filter appmess.LedgerListFilter
	if !h.bindQuery(c, &filter) {
		return filter, false
	}
	memberID, ok := h.uuidQuery(c, "member_id")
	if !ok {
		return filter, false
	}
	filter.MemberID = memberID
	return filter, true
}

func (h *LedgerHandler) delete(c *gin.Context, fn func(ctx context.Context, tenantID, id uuid.UUID) error) {
	_, tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	if err := fn(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

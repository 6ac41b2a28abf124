package handler

import (
	"github.com/gin-gonic/gin"
	appsettlement "github.com/messmate/backend/internal/application/settlement"
	"github.com/messmate/backend/internal/domain/mess"
)

// TriggerManual tags rollovers started over HTTP
const TriggerManual = "manual"

// SettlementHandler serves on-demand rollovers and the archive of closed
// periods
type SettlementHandler struct {
	BaseHandler
	rollover RolloverService
	archives ArchiveService
}

// NewSettlementHandler creates a new SettlementHandler
func NewSettlementHandler(rollover RolloverService, archives ArchiveService) *SettlementHandler {
	return &SettlementHandler{rollover: rollover, archives: archives}
}

// RolloverRequest names the period to roll into. Empty means the current
// calendar month.
type RolloverRequest struct {
	Target string `json:"target" binding:"omitempty,period"`
}

func (h *SettlementHandler) target(c *gin.Context) (mess.Period, bool) {
	var req RolloverRequest
	if c.Request.ContentLength > 0 && !h.bindJSON(c, &req) {
		return mess.Period{}, false
	}
	target, err := h.rollover.ResolveTarget(req.Target)
	if err != nil {
		h.HandleError(c, err)
		return mess.Period{}, false
	}
	return target, true
}

// RolloverAll rolls every mess over.
// POST /admin/settlement/rollover
func (h *SettlementHandler) RolloverAll(c *gin.Context) {
	target, ok := h.target(c)
	if !ok {
		return
	}

	batch, err := h.rollover.RunAll(c.Request.Context(), target, TriggerManual)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, batch)
}

// RolloverMine rolls the caller's mess over. A skipped rollover is a
// success; a failed one reports its cause.
// POST /mess/settlement/rollover
func (h *SettlementHandler) RolloverMine(c *gin.Context) {
	_, tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	target, ok := h.target(c)
	if !ok {
		return
	}

	res := h.rollover.RolloverTenant(c.Request.Context(), tenantID, target)
	if res.Status == appsettlement.RolloverFailed {
		h.HandleError(c, res.Err)
		return
	}

	h.Success(c, res)
}

// ListArchives lists the closed periods of the mess, newest first.
// GET /mess/archives
func (h *SettlementHandler) ListArchives(c *gin.Context) {
	_, tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	filter, ok := h.listFilter(c)
	if !ok {
		return
	}

	page, err := h.archives.ListArchives(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	Page(&h.BaseHandler, c, page)
}

// GetArchive returns one closed period in full.
// GET /mess/archives/:period
func (h *SettlementHandler) GetArchive(c *gin.Context) {
	_, tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	period, ok := h.periodParam(c)
	if !ok {
		return
	}

	archive, err := h.archives.GetArchive(c.Request.Context(), tenantID, period)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, archive)
}

// ExportLink returns a download link of the exported archive document.
// GET /mess/archives/:period/export
func (h *SettlementHandler) ExportLink(c *gin.Context) {
	_, tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	period, ok := h.periodParam(c)
	if !ok {
		return
	}

	link, err := h.archives.ExportLink(c.Request.Context(), tenantID, period)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, link)
}

// MemberHistory returns a member's lines across closed periods. Members may
// only read their own.
// GET /mess/archives/members/:id
func (h *SettlementHandler) MemberHistory(c *gin.Context) {
	session, tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	memberID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	if !session.IsManager() {
		own, err := session.Member()
		if err != nil || own != memberID {
			h.Forbidden(c, "Members can only read their own history")
			return
		}
	}

	history, err := h.archives.GetMemberHistory(c.Request.Context(), tenantID, memberID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if history == nil {
		history = []appsettlement.MemberHistoryEntry{}
	}

	h.Success(c, history)
}

func (h *SettlementHandler) periodParam(c *gin.Context) (mess.Period, bool) {
	period, err := mess.ParsePeriod(c.Param("period"))
	if err != nil {
		h.HandleError(c, err)
		return mess.Period{}, false
	}
	return period, true
}

package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appmess "github.com/messmate/backend/internal/application/mess"
)

// MemberHandler serves a manager's roster operations. The mess is always
// the caller's own.
type MemberHandler struct {
	BaseHandler
	memberService MemberService
}

// NewMemberHandler creates a new MemberHandler
func NewMemberHandler(memberService MemberService) *MemberHandler {
	return &MemberHandler{memberService: memberService}
}

// Add puts a new member on the roster.
// POST /mess/members
func (h *MemberHandler) Add(c *gin.Context) {
	_, tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	var req appmess.AddMemberRequest
	if !h.bindJSON(c, &req) {
		return
	}

	m, err := h.memberService.Add(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, m)
}

// List returns a page of the roster.
// GET /mess/members
func (h *MemberHandler) List(c *gin.Context) {
	_, tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	var filter appmess.MemberListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	page, err := h.memberService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	Page(&h.BaseHandler, c, page)
}

// GetByID returns one member.
// GET /mess/members/:id
func (h *MemberHandler) GetByID(c *gin.Context) {
	h.withMember(c, h.memberService.GetByID)
}

// Update edits a member's profile.
// PUT /mess/members/:id
func (h *MemberHandler) Update(c *gin.Context) {
	_, tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	memberID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	var req appmess.UpdateMemberRequest
	if !h.bindJSON(c, &req) {
		return
	}

	m, err := h.memberService.Update(c.Request.Context(), tenantID, memberID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, m)
}

// Activate counts the member in head splits again.
// POST /mess/members/:id/activate
func (h *MemberHandler) Activate(c *gin.Context) {
	h.withMember(c, h.memberService.Activate)
}

// Deactivate removes the member from head splits.
// POST /mess/members/:id/deactivate
func (h *MemberHandler) Deactivate(c *gin.Context) {
	h.withMember(c, h.memberService.Deactivate)
}

// Promote makes the member a manager.
// POST /mess/members/:id/promote
func (h *MemberHandler) Promote(c *gin.Context) {
	h.withMember(c, h.memberService.Promote)
}

// Demote makes a manager an ordinary member.
// POST /mess/members/:id/demote
func (h *MemberHandler) Demote(c *gin.Context) {
	h.withMember(c, h.memberService.Demote)
}

func (h *MemberHandler) withMember(c *gin.Context, fn func(context.Context, uuid.UUID, uuid.UUID) (*appmess.MemberResponse, error)) {
	_, tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	memberID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	m, err := fn(c.Request.Context(), tenantID, memberID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, m)
}

package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appmess "github.com/messmate/backend/internal/application/mess"
)

// MessHandler serves the platform admin's mess administration
type MessHandler struct {
	BaseHandler
	messService MessService
}

// NewMessHandler creates a new MessHandler
func NewMessHandler(messService MessService) *MessHandler {
	return &MessHandler{messService: messService}
}

// Create onboards a mess together with its first manager.
// POST /admin/messes
func (h *MessHandler) Create(c *gin.Context) {
	var req appmess.CreateMessRequest
	if !h.bindJSON(c, &req) {
		return
	}

	created, err := h.messService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, created)
}

// List returns a page of messes.
// GET /admin/messes
func (h *MessHandler) List(c *gin.Context) {
	var filter appmess.MessListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	page, err := h.messService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	Page(&h.BaseHandler, c, page)
}

// GetByID returns one mess.
// GET /admin/messes/:id
func (h *MessHandler) GetByID(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	m, err := h.messService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, m)
}

// Update edits a mess.
// PUT /admin/messes/:id
func (h *MessHandler) Update(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	var req appmess.UpdateMessRequest
	if !h.bindJSON(c, &req) {
		return
	}

	m, err := h.messService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, m)
}

// Activate reopens a mess.
// POST /admin/messes/:id/activate
func (h *MessHandler) Activate(c *gin.Context) {
	h.transition(c, h.messService.Activate)
}

// Deactivate closes a mess; its data is kept.
// POST /admin/messes/:id/deactivate
func (h *MessHandler) Deactivate(c *gin.Context) {
	h.transition(c, h.messService.Deactivate)
}

// Suspend blocks every login of a mess.
// POST /admin/messes/:id/suspend
func (h *MessHandler) Suspend(c *gin.Context) {
	h.transition(c, h.messService.Suspend)
}

func (h *MessHandler) transition(c *gin.Context, fn func(context.Context, uuid.UUID) (*appmess.MessResponse, error)) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	m, err := fn(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, m)
}

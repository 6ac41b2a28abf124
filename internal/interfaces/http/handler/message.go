package handler

import (
	"github.com/gin-gonic/gin"
	appmessaging "github.com/messmate/backend/internal/application/messaging"
)

// MessageHandler serves messaging between the admin, managers and members
type MessageHandler struct {
	BaseHandler
	messages MessageService
}

// NewMessageHandler creates a new MessageHandler
func NewMessageHandler(messages MessageService) *MessageHandler {
	return &MessageHandler{messages: messages}
}

// InboxQuery narrows the inbox listing
type InboxQuery struct {
	Unread bool `form:"unread"`
}

// Send posts a message to its target's recipients.
// POST /messages
func (h *MessageHandler) Send(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	var req appmessaging.SendMessageRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.messages.Send(c.Request.Context(), session, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// Inbox lists the caller's deliveries, newest first.
// GET /messages/inbox
func (h *MessageHandler) Inbox(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	var q InboxQuery
	if !h.bindQuery(c, &q) {
		return
	}
	filter, ok := h.listFilter(c)
	if !ok {
		return
	}

	page, err := h.messages.Inbox(c.Request.Context(), session, q.Unread, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	Page(&h.BaseHandler, c, page)
}

// MarkRead marks one delivery read.
// POST /messages/:id/read
func (h *MessageHandler) MarkRead(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	deliveryID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.messages.MarkRead(c.Request.Context(), session, deliveryID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

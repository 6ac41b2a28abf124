package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/messmate/backend/internal/domain/identity"
	"github.com/messmate/backend/internal/domain/shared"
	"github.com/messmate/backend/internal/infrastructure/logger"
	"github.com/messmate/backend/internal/interfaces/http/dto"
	"github.com/messmate/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID returns the ID set by the RequestID middleware, falling back
// to the inbound header
func getRequestID(c *gin.Context) string {
	if id := c.GetString("request_id"); id != "" {
		return id
	}
	return c.GetHeader(middleware.RequestIDHeader)
}

// session returns the authenticated caller. Routes behind JWTAuthMiddleware
// always have one; ok is false only on misrouted public endpoints.
func (h *BaseHandler) session(c *gin.Context) (identity.Session, bool) {
	s, ok := middleware.GetSession(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
	}
	return s, ok
}

// tenant returns the caller's session and mess ID
func (h *BaseHandler) tenant(c *gin.Context) (identity.Session, uuid.UUID, bool) {
	s, ok := h.session(c)
	if !ok {
		return s, uuid.Nil, false
	}
	tenantID, err := s.Tenant()
	if err != nil {
		h.HandleError(c, err)
		return s, uuid.Nil, false
	}
	return s, tenantID, true
}

// uuidParam parses a path parameter as a UUID
func (h *BaseHandler) uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, "Invalid "+name+" in path")
		return uuid.Nil, false
	}
	return id, true
}

// uuidQuery parses an optional UUID query parameter
func (h *BaseHandler) uuidQuery(c *gin.Context, name string) (*uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, "Invalid "+name)
		return nil, false
	}
	return &id, true
}

// bindJSON binds the body into req and writes the validation error response
// on failure
func (h *BaseHandler) bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}

// bindQuery binds query parameters into req
func (h *BaseHandler) bindQuery(c *gin.Context, req any) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}

// listFilter binds the common paging parameters
func (h *BaseHandler) listFilter(c *gin.Context) (shared.Filter, bool) {
	var req dto.ListRequest
	if !h.bindQuery(c, &req) {
		return shared.Filter{}, false
	}
	f := shared.DefaultFilter()
	if req.Page > 0 {
		f.Page = req.Page
	}
	if req.PageSize > 0 {
		f.PageSize = req.PageSize
	}
	if req.OrderBy != "" {
		f.OrderBy = req.OrderBy
	}
	if req.OrderDir != "" {
		f.OrderDir = req.OrderDir
	}
	return f, true
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Page sends one page of a listing with its meta
func Page[T any](h *BaseHandler, c *gin.Context, p *shared.Paginated[T]) {
	items := p.Items
	if items == nil {
		items = []T{}
	}
	h.SuccessWithMeta(c, items, p.Total, p.Page, p.PageSize)
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// Unauthorized sends a 401 unauthorized response
func (h *BaseHandler) Unauthorized(c *gin.Context, message string) {
	h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, message)
}

// Forbidden sends a 403 forbidden response
func (h *BaseHandler) Forbidden(c *gin.Context, message string) {
	h.Error(c, http.StatusForbidden, dto.ErrCodeForbidden, message)
}

// HandleError maps domain errors to their HTTP status and hides everything
// else behind a logged 500
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		status := dto.GetHTTPStatus(code)
		if status >= http.StatusInternalServerError {
			logger.GetGinLogger(c).Error("Request failed", zap.String("code", domainErr.Code), zap.Error(err))
		}
		c.JSON(status, dto.NewErrorResponseWithRequestID(code, domainErr.Message, getRequestID(c)))
		return
	}

	_ = c.Error(err)
	logger.GetGinLogger(c).Error("Unexpected error", zap.Error(err))
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred")
}

package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/messmate/backend/internal/interfaces/http/dto"
)

// BodyLimit returns a middleware that limits request body size. Declared
// lengths are rejected up front; chunked bodies fail when read past the limit.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge,
				dto.NewErrorResponseWithRequestID(dto.ErrCodeRequestTooLarge,
					"Request body exceeds maximum allowed size", c.GetString("request_id")))
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

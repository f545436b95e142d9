package middleware

import (
	"Attestor/internal/pkg/response"
	"Attestor/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

// BodyLimitMiddleware rejects declared oversize bodies up front and caps the
// reader for chunked ones; handlers see *http.MaxBytesError past the cap.
func BodyLimitMiddleware(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			response.Error(c, service.ErrBodyTooLarge)
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}

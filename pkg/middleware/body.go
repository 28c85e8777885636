package middleware

import (
	"net/http"

	"mangrovewatch/report-api/pkg/response"

	"github.com/gin-gonic/gin"
)

// BodySizeLimiter rejects requests declaring a larger body up front and caps
// the reader for the rest. Handlers see a read error once the cap is hit.
func BodySizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Fast reject for legit requests
		if c.Request.ContentLength > maxBytes {
			response.Fail(c, http.StatusRequestEntityTooLarge, response.CodePayloadTooLarge, "Request body size exceeds limit")
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

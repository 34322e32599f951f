package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
)

const advisoryIDHeader = "X-Advisory-ID"

// Recovery turns a panic into a 500. A panic in the middle of an advisory
// run is logged under its advisory id, which is also echoed back.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			attrs := []any{
				"error", rec,
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"stack", string(debug.Stack()),
			}
			body := gin.H{"error": "internal server error"}
			if advisoryID := c.GetHeader(advisoryIDHeader); advisoryID != "" {
				attrs = append(attrs, "advisory_id", advisoryID)
				body["advisory_id"] = advisoryID
				c.Header(advisoryIDHeader, advisoryID)
			}

			slog.ErrorContext(c.Request.Context(), "panic recovered", attrs...)
			c.AbortWithStatusJSON(http.StatusInternalServerError, body)
		}()
		c.Next()
	}
}

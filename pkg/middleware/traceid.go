package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"shoply/pkg/utils"
)

// TraceIDMiddleware tags every request with a trace id that the response
// envelope and the X-Trace-ID header echo back. An id supplied by the caller
// is kept so a client can correlate a retry with its first attempt.
func TraceIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader("X-Trace-ID")
		if traceID == "" {
			traceID = uuid.NewString()
		}
		c.Set(utils.TraceIDKey, traceID)
		c.Writer.Header().Set("X-Trace-ID", traceID)
		c.Next()
	}
}

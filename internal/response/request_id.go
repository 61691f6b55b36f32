package response

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ContextKeyRequestID is the Gin context key (and log field) of the request id.
const ContextKeyRequestID = "request_id"

// HeaderRequestID is honoured on the way in when it holds a UUID and always
// echoed on the way out.
const HeaderRequestID = "X-Request-ID"

// RequestIDMiddleware tags the request with an id and stores a logger
// carrying it in the request context, so handlers and services log through
// zerolog.Ctx without threading the id by hand.
func RequestIDMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader(HeaderRequestID)
		if _, err := uuid.Parse(reqID); err != nil {
			reqID = uuid.NewString()
		}
		c.Set(ContextKeyRequestID, reqID)
		c.Header(HeaderRequestID, reqID)

		ctx := log.With().Str(ContextKeyRequestID, reqID).Logger().WithContext(c.Request.Context())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

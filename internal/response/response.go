package response

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Response is the envelope of every JSON body the API returns. Exactly one
// of Data and Error is meaningful.
type Response struct {
	Data     interface{} `json:"data"`
	Error    *ErrorBody  `json:"error,omitempty"`
	Metadata Metadata    `json:"metadata"`
}

// ErrorBody carries the machine code, the localized message and, when the
// failure has one, the domain reason (a gate denial, a stale save).
type ErrorBody struct {
	Code    ErrCode           `json:"code"`
	Message string            `json:"message"`
	Reason  string            `json:"reason,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Metadata ties a body back to the request log line.
type Metadata struct {
	RequestID string `json:"request_id"`
	Timestamp string `json:"timestamp"`
}

// Success writes data with the given status.
func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, Response{Data: data, Metadata: BuildMetadata(c)})
}

// Fail writes an error body holding only the code and its message.
func Fail(c *gin.Context, statusCode int, code ErrCode) {
	fail(c, statusCode, newError(code), false)
}

// FailWithReason writes an error body that also names the domain reason.
func FailWithReason(c *gin.Context, statusCode int, code ErrCode, reason string) {
	body := newError(code)
	body.Reason = reason
	fail(c, statusCode, body, false)
}

// FailWithFields writes a validation failure keyed by JSON field name.
func FailWithFields(c *gin.Context, statusCode int, code ErrCode, fields map[string]string) {
	body := newError(code)
	body.Fields = fields
	fail(c, statusCode, body, false)
}

// AbortFail stops the handler chain and writes the error body. Middleware
// uses it so nothing downstream runs after a rejection.
func AbortFail(c *gin.Context, statusCode int, code ErrCode) {
	fail(c, statusCode, newError(code), true)
}

func newError(code ErrCode) *ErrorBody {
	return &ErrorBody{Code: code, Message: GetMessage(code)}
}

func fail(c *gin.Context, statusCode int, body *ErrorBody, abort bool) {
	resp := Response{Error: body, Metadata: BuildMetadata(c)}
	if abort {
		c.AbortWithStatusJSON(statusCode, resp)
		return
	}
	c.JSON(statusCode, resp)
}

// BuildMetadata returns the request id set by RequestIDMiddleware, minting a
// fresh one for routes mounted outside it.
func BuildMetadata(c *gin.Context) Metadata {
	id := c.GetString(ContextKeyRequestID)
	if id == "" {
		id = uuid.NewString()
	}
	return Metadata{
		RequestID: id,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

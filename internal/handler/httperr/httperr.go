// Package httperr shapes the error body every handler returns. Handlers
// never write error JSON themselves; they abort through AbortWithError so
// the body stays uniform and the cause reaches the logging middleware.
package httperr

import (
	"github.com/gin-gonic/gin"
)

// Response is the error payload. Detail carries machine-readable context,
// such as an OTP failure code or the canonical server total on a price
// mismatch, and is omitted when nil.
type Response struct {
	Status int       `json:"-"`
	Error  errorBody `json:"error"`
	Detail any       `json:"detail,omitempty"`
}

type errorBody struct {
	Message string `json:"message"`
}

// AbortWithError writes the JSON body and aborts the chain. err is attached
// to the gin context for the logging middleware, never sent to the client.
func AbortWithError(c *gin.Context, status int, err error, msg string, detail any) {
	if err == nil {
		panic("AbortWithError: err cannot be nil")
	}

	resp := Response{
		Status: status,
		Error:  errorBody{Message: msg},
		Detail: detail,
	}

	_ = c.Error(gin.Error{
		Err:  err,
		Type: gin.ErrorTypePublic,
		Meta: resp,
	})
	c.AbortWithStatusJSON(status, resp)
}

// Package handlers implements the status API endpoints.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/protflow/pkg/errors"
	dto "github.com/turtacn/protflow/pkg/types/docking"
)

// parseLimit reads a positive integer query parameter, falling back to def
// and capping at max.
func parseLimit(c *gin.Context, key string, def, max int) int {
	v := c.Query(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return def
	}
	if n > max {
		return max
	}
	return n
}

// writeError writes a structured error body.
func writeError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, dto.ErrorResponse{Code: code, Message: message})
}

// writeAppError maps application errors to HTTP status codes.  Internal
// errors are masked.
func writeAppError(c *gin.Context, err error) {
	code := errors.GetCode(err)
	status := errors.HTTPStatusForCode(code)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
		writeError(c, status, string(errors.ErrCodeInternal), "internal server error")
		return
	}
	writeError(c, status, string(code), err.Error())
}

//Personal.AI order the ending

// Package handlers implements the gin handlers of the FieldScout HTTP API.
package handlers

import (
	stderrors "errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/FieldScout-Intelligence/internal/interfaces/http/middleware"
	"github.com/turtacn/FieldScout-Intelligence/pkg/errors"
	"github.com/turtacn/FieldScout-Intelligence/pkg/types/common"
)

// Clock returns the current time. Handlers take it so tests can pin "today".
type Clock func() time.Time

func utcNow() time.Time { return time.Now().UTC() }

// respondError maps an error to its HTTP status and writes the error
// envelope. Server-side failures are reported with the code's default
// message only.
func respondError(c *gin.Context, err error) {
	code := errors.ErrCodeInternal
	message := errors.DefaultMessageForCode(code)
	detail := ""

	var ae *errors.AppError
	if stderrors.As(err, &ae) {
		code = ae.Code
		message = ae.Message
		detail = ae.Detail
	}
	status := errors.HTTPStatusForCode(code)
	if status >= http.StatusInternalServerError {
		message = errors.DefaultMessageForCode(code)
		detail = ""
	}

	resp := common.NewErrorResponse(string(code), message)
	if detail != "" {
		resp.Error.Details = map[string]interface{}{"detail": detail}
	}
	resp.RequestID = middleware.GetRequestID(c)
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, resp)
}

// requiredQuery returns a trimmed, non-empty query parameter.
func requiredQuery(c *gin.Context, name string) (string, error) {
	v := strings.TrimSpace(c.Query(name))
	if v == "" {
		return "", errors.NewValidation("query parameter %s is required", name)
	}
	return v, nil
}

// dateQuery returns the date parameter, defaulting to today's UTC date.
func dateQuery(c *gin.Context, now time.Time) (string, error) {
	v := strings.TrimSpace(c.Query("date"))
	if v == "" {
		return common.DateKey(now), nil
	}
	if _, err := common.ParseDate(v); err != nil {
		return "", errors.NewValidation("date %q must be formatted YYYY-MM-DD", v)
	}
	return v, nil
}

// daysQuery returns the days parameter, def when absent.
func daysQuery(c *gin.Context, def int) (int, error) {
	v := strings.TrimSpace(c.Query("days"))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.NewValidation("days must be an integer, got %q", v)
	}
	return n, nil
}

//Personal.AI order the ending

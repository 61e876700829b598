package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/FieldScout-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FieldScout-Intelligence/pkg/errors"
	"github.com/turtacn/FieldScout-Intelligence/pkg/types/common"
)

// Recovery turns a handler panic into a 500 response.
func Recovery(logger logging.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.Error("Panic recovered",
			logging.Any("panic", recovered),
			logging.String("method", c.Request.Method),
			logging.String("path", c.Request.URL.Path),
			logging.String("request_id", GetRequestID(c)))

		resp := common.NewErrorResponse(string(errors.ErrCodeInternal), "internal server error")
		resp.RequestID = GetRequestID(c)
		c.AbortWithStatusJSON(http.StatusInternalServerError, resp)
	})
}

//Personal.AI order the ending

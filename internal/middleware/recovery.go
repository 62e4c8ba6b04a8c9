package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/revdash/revdash/internal/domain/dto"
	"github.com/revdash/revdash/internal/logger"
)

// Recovery returns a middleware that converts a handler panic into a 500
// response, logging the panic with enough request context to find the
// offending endpoint.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				requestID := GetRequestID(c)
				log := logger.Logger()
				log.Error().
					Str("request_id", requestID).
					Str("method", c.Request.Method).
					Str("path", c.Request.URL.Path).
					Interface("panic", err).
					Msg("PANIC recovered")

				errorResp := dto.NewError(dto.ErrCodeInternal, "An unexpected error occurred").
					WithRequestID(requestID)
				c.AbortWithStatusJSON(http.StatusInternalServerError, errorResp)
			}
		}()
		c.Next()
	}
}

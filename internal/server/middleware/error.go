package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/gemini-bridge/pkg/api"
	"go.uber.org/zap"
)

// ErrorHandler translates errors attached by handlers into RFC 9457 problem
// responses or the standard error shape.
func ErrorHandler(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		var problem *api.Problem
		if errors.As(err, &problem) {
			if problem.Log != nil {
				logger.Error("request problem", zap.Error(problem.Log))
			}

			// RFC 9457 dictates the json is at the root
			c.JSON(problem.Status, problem)
			c.Abort()
			return
		}

		var appErr *api.Error
		if errors.As(err, &appErr) {
			if appErr.Log != nil {
				logger.Error("request failed", zap.Int("code", appErr.Code), zap.Error(appErr.Log))
			}

			c.JSON(appErr.Code, api.ErrorResponse{Code: appErr.Code, Message: appErr.Message})
			c.Abort()
			return
		}

		// Unknown error, catch-all 500
		logger.Error("unhandled error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, api.NewProblem(
			http.StatusInternalServerError,
			"Internal Server Error",
			"An unexpected error occurred.",
		))
		c.Abort()
	}
}

package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"blog-be/internal/apperrors"
)

// ErrorHandler is the terminal error handler. Handlers and middleware below it
// report failures with c.Error and return; it renders the last one as
// {"message", "data"} with the error's status, unless a response was already written.
func ErrorHandler(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		appErr := apperrors.From(c.Errors.Last().Err)
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", appErr.Status),
			zap.String("kind", appErr.Kind.String()),
		}
		if appErr.Kind == apperrors.KindInternal {
			log.Error("request failed", append(fields, zap.Error(appErr))...)
		} else {
			log.Debug("request rejected", append(fields, zap.String("message", appErr.Message))...)
		}

		if c.Writer.Written() {
			return
		}
		c.JSON(appErr.Status, gin.H{
			"message": appErr.Message,
			"data":    appErr.Data,
		})
	}
}

// Recovery turns a panic below it into an internal error for ErrorHandler.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}
				_ = c.Error(fmt.Errorf("panic recovered: %v", rec))
				c.Abort()
			}
		}()
		c.Next()
	}
}

// NotFound handles unmatched routes.
func NotFound(c *gin.Context) {
	_ = c.Error(apperrors.NotFound("Not found."))
}

package sse

import (
	"github.com/gin-gonic/gin"

	goerrors "github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/flow"
	"github.com/kbukum/flowkit/logger"
)

// Source builds the flow served for one request.
type Source[T any] func(c *gin.Context) (*flow.Flow[T], error)

// Handler adapts Stream to Gin. Each request gets its own collection of the
// flow returned by source. A source error is answered with a JSON error body
// before any event is written.
func Handler[T any](source Source[T], encode Encoder[T], opts ...Option) gin.HandlerFunc {
	return func(c *gin.Context) {
		f, err := source(c)
		if err != nil {
			appErr := goerrors.Normalize(err)
			c.AbortWithStatusJSON(goerrors.StatusOf(appErr), appErr.ToResponse())
			return
		}
		ctx := c.Request.Context()
		if err := Stream(ctx, c.Writer, f, encode, opts...); err != nil {
			logger.Get("sse").WithContext(ctx).Debug("stream ended with error", logger.Fields(
				"path", c.FullPath(),
				logger.FieldError, err.Error(),
			))
		}
	}
}

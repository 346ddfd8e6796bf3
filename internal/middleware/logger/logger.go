package logger

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Logger logs every request once it has been served. Bodies are not read:
// upload requests carry whole media files.
func Logger(logger *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		uri := c.Request.RequestURI
		method := c.Request.Method

		t := time.Now()
		c.Next()
		duration := time.Since(t)

		logger.Infoln(
			"URI", uri,
			"Method", method,
			"Duration", duration,
			"Status", c.Writer.Status(),
			"Size", c.Writer.Size(),
			"RequestSize", c.Request.ContentLength,
		)
		if len(c.Errors) > 0 {
			logger.Debugln("Errors", c.Errors.String())
		}
	}
}

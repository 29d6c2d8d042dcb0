package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"mememeow/logger"
)

const (
	requestIDHeader = "X-Request-ID"
	loggerKey       = "logger"
)

// requestContext 为每个请求分配ID，并把带ID的日志对象放入上下文
func requestContext(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)

		entry := log.WithField("request_id", id)
		c.Set(loggerKey, entry)

		start := time.Now()
		c.Next()

		entry.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		}).Debug("请求完成")
	}
}

func requestLogger(c *gin.Context) logrus.FieldLogger {
	if v, ok := c.Get(loggerKey); ok {
		if l, ok := v.(logrus.FieldLogger); ok {
			return l
		}
	}
	return logger.GetLogger()
}

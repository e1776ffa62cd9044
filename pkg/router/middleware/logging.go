package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oceanlens/enginewatch/pkg/logger/log"
)

func HandleLogging() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		c.Next()

		duration := time.Since(startTime)
		statusCode := c.Writer.Status()
		method := c.Request.Method
		path := c.Request.URL.Path
		clientIP := c.ClientIP()

		log.Infof(
			"Request: Method=%s | Path=%s | Status=%d | IP=%s | Duration=%v",
			method,
			path,
			statusCode,
			clientIP,
			duration,
		)
	}
}

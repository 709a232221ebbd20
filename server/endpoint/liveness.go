package endpoint

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
)

// Liveness answers liveness checks. It confirms the process can serve HTTP
// and reports the goroutine count, which climbs when streams leak.
func Liveness(serviceName string) gin.HandlerFunc {
	mounted := time.Now()
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":     "alive",
			"service":    serviceName,
			"uptime":     time.Since(mounted).Round(time.Second).String(),
			"goroutines": runtime.NumGoroutine(),
		})
	}
}

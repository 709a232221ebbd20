package endpoint

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/flowkit/observability"
)

// Health returns a handler that reports service health aggregated from checkers.
// A component that is down turns the response into 503.
func Health(serviceName, version string, checkers ...observability.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		sh := check(c, serviceName, version, checkers)
		httpStatus := http.StatusOK
		if sh.Status == observability.HealthStatusDown {
			httpStatus = http.StatusServiceUnavailable
		}
		c.JSON(httpStatus, sh)
	}
}

func check(c *gin.Context, serviceName, version string, checkers []observability.HealthChecker) *observability.ServiceHealth {
	sh := observability.NewServiceHealth(serviceName, version)
	for _, hc := range checkers {
		sh.AddComponent(hc.CheckHealth(c.Request.Context()))
	}
	return sh
}

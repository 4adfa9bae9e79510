package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthHandler reports the latest dependency check.
func (hb *HandlerBundle) HealthHandler(c *gin.Context) {
	if hb.Health == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}
	st := hb.Health.Status()
	if st.CheckedAt.IsZero() {
		st = hb.Health.Check(c.Request.Context())
	}
	code, status := http.StatusOK, "ok"
	if !st.Mongo || !st.Redis {
		code, status = http.StatusServiceUnavailable, "degraded"
	}
	c.JSON(code, gin.H{"status": status, "dependencies": st})
}

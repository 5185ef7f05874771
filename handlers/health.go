package handlers

import (
	"net/http"

	"medminder/utils"

	"github.com/gin-gonic/gin"
)

// HealthHandler reports liveness plus the last dependency health snapshot.
func HealthHandler(c *gin.Context) {
	status := utils.GetHealthStatus()
	body := gin.H{"status": "ok", "message": "medminder dispatcher", "dependencies": status}
	if status.CheckedAt.IsZero() {
		c.JSON(http.StatusOK, body)
		return
	}
	if !status.Mongo || (status.Redis != nil && !*status.Redis) {
		body["status"] = "degraded"
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}
	c.JSON(http.StatusOK, body)
}

package handlers

import (
	"net/http"
	"strconv"

	notificationRepo "medminder/database/repository/notification"
	"medminder/models"
	"medminder/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxListLimit = 200

type NotificationHandler struct {
	repo notificationRepo.NotificationRepository
}

func NewNotificationHandler(repo notificationRepo.NotificationRepository) *NotificationHandler {
	return &NotificationHandler{repo: repo}
}

// ListNotificationsHandler returns recent reminder events for a medication,
// newest first, with their logs.
func (h *NotificationHandler) ListNotificationsHandler(c *gin.Context) {
	logger := getLogger(c)

	medicationID := c.Query("medicationId")
	if medicationID == "" {
		utils.JSONError(c, logger, http.StatusBadRequest, "Missing medicationId", "medicationId query parameter is required")
		return
	}

	var limit int64
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 1 || n > maxListLimit {
			utils.JSONError(c, logger, http.StatusBadRequest, "Invalid limit", "limit must be between 1 and 200")
			return
		}
		limit = n
	}

	items, err := h.repo.ListByMedication(c.Request.Context(), medicationID, limit)
	if err != nil {
		logger.Error("Failed to list notifications", zap.String("medicationId", medicationID), zap.Error(err))
		utils.JSONError(c, logger, http.StatusInternalServerError, "Failed to list notifications", err.Error())
		return
	}
	if items == nil {
		items = []models.NotificationWithLogs{}
	}
	c.JSON(http.StatusOK, gin.H{"medicationId": medicationID, "notifications": items})
}

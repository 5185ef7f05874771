package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups the ops endpoint handlers for route registration.
type HandlerBundle struct {
	HealthHandler gin.HandlerFunc

	// Dispatcher endpoints
	RunDispatchHandler gin.HandlerFunc

	// Reminder history endpoints
	ListNotificationsHandler gin.HandlerFunc
}

package handlers

import (
	"net/http"
	"strconv"

	"backend/services"
	"backend/utils"

	"github.com/gin-gonic/gin"
)

// GetNotificationsHandler returns notifications, newest first.
// @Summary      List notifications
// @Tags         notifications
// @Produce      json
// @Param        unread  query  bool  false  "Only unread"
// @Success      200  {object}  models.APIResponse
// @Router       /api/notifications [get]
func GetNotificationsHandler(svc *services.NotificationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		unreadOnly := c.Query("unread") == "true"
		notifs, err := svc.List(unreadOnly)
		if err != nil {
			utils.ErrorResponse(c, http.StatusInternalServerError, "failed to fetch notifications")
			return
		}
		utils.SuccessResponse(c, notifs)
	}
}

// MarkNotificationAsReadHandler marks a notification as read.
// @Summary      Mark notification as read
// @Tags         notifications
// @Param        id  path  int  true  "Notification ID"
// @Success      200  {object}  models.MessageResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/notifications/{id}/read [put]
func MarkNotificationAsReadHandler(svc *services.NotificationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "invalid notification id")
			return
		}
		if err := svc.MarkRead(uint(id)); err != nil {
			quotationError(c, err)
			return
		}
		utils.MessageResponse(c, "notification marked as read")
	}
}

// MarkAllNotificationsAsReadHandler marks every unread notification as read.
// @Summary      Mark all notifications as read
// @Tags         notifications
// @Success      200  {object}  models.APIResponse
// @Router       /api/notifications/read-all [put]
func MarkAllNotificationsAsReadHandler(svc *services.NotificationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		affected, err := svc.MarkAllRead()
		if err != nil {
			utils.ErrorResponse(c, http.StatusInternalServerError, "failed to update notifications")
			return
		}
		utils.SuccessResponse(c, gin.H{"rows_affected": affected})
	}
}

// DeleteNotificationHandler removes a notification.
// @Summary      Delete notification
// @Tags         notifications
// @Param        id  path  int  true  "Notification ID"
// @Success      200  {object}  models.MessageResponse
// @Router       /api/notifications/{id} [delete]
func DeleteNotificationHandler(svc *services.NotificationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "invalid notification id")
			return
		}
		if err := svc.Delete(uint(id)); err != nil {
			quotationError(c, err)
			return
		}
		utils.MessageResponse(c, "notification deleted")
	}
}

// GenerateNotificationsHandler triggers the scan rules manually, outside the
// hourly schedule.
// @Summary      Run notification scans now
// @Tags         notifications
// @Success      200  {object}  models.APIResponse
// @Router       /api/notifications/generate [post]
func GenerateNotificationsHandler(svc *services.NotificationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		counts := svc.GenerateNotifications()
		utils.SuccessResponse(c, counts)
	}
}

// RegisterFCMTokenHandler stores a device token for push delivery.
// @Summary      Register FCM token
// @Tags         notifications
// @Success      200  {object}  models.MessageResponse
// @Router       /api/fcm/register-token [post]
func RegisterFCMTokenHandler(push *services.PushService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		var request struct {
			Token string `json:"token" binding:"required"`
		}
		if err := c.BindJSON(&request); err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "token is required")
			return
		}
		if push != nil {
			if err := push.SaveToken(userID, request.Token); err != nil {
				utils.ErrorResponse(c, http.StatusInternalServerError, "failed to save FCM token")
				return
			}
		}
		utils.MessageResponse(c, "FCM token registered")
	}
}

// RemoveFCMTokenHandler clears the caller's device token.
// @Summary      Remove FCM token
// @Tags         notifications
// @Success      200  {object}  models.MessageResponse
// @Router       /api/fcm/remove-token [delete]
func RemoveFCMTokenHandler(push *services.PushService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		if push != nil {
			if err := push.RemoveToken(userID); err != nil {
				utils.ErrorResponse(c, http.StatusInternalServerError, "failed to remove FCM token")
				return
			}
		}
		utils.MessageResponse(c, "FCM token removed")
	}
}

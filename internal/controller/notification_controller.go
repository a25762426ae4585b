package controller

import (
	"LykkeLoopAPI/internal/helper"
	"LykkeLoopAPI/internal/middleware"
	"LykkeLoopAPI/internal/service"
	"net/http"
)

type NotificationController struct {
	notificationService *service.NotificationService
}

func NewNotificationController(notificationService *service.NotificationService) *NotificationController {
	return &NotificationController{
		notificationService: notificationService,
	}
}

// UnreadCount godoc
// @Summary      Unread Count
// @Description  Total unread messages for the caller's badge.
// @Tags         notification
// @Produce      json
// @Success      200  {object}  helper.ResponseSuccess{data=model.UnreadCountResponse}
// @Failure      401  {object}  helper.ResponseError
// @Failure      500  {object}  helper.ResponseError
// @Security     BearerAuth
// @Router       /api/notifications/unread-count [get]
func (c *NotificationController) UnreadCount(w http.ResponseWriter, r *http.Request) {
	authUser, ok := middleware.GetAuthUser(r.Context())
	if !ok {
		helper.WriteError(w, helper.NewUnauthorizedError(""))
		return
	}

	resp, err := c.notificationService.UnreadCount(r.Context(), authUser)
	if err != nil {
		helper.WriteError(w, err)
		return
	}

	helper.WriteSuccess(w, resp)
}

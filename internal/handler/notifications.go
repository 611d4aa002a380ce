package handler

import (
	"net/http"

	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/domain"
	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/policy"
)

func (h *Handler) GetMyNotifications(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	notifications := h.stores.Notifications.GetNotificationsForUser(myInfo.ID, myInfo.Role)
	if r.URL.Query().Get("unread") == "true" {
		unread := make([]domain.Notification, 0, len(notifications))
		for _, n := range notifications {
			if !n.Read {
				unread = append(unread, n)
			}
		}
		notifications = unread
	}

	h.successResponse(w, r, "获取通知成功", notifications)
}

func (h *Handler) GetUnreadNotificationCount(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	count := h.stores.Notifications.GetUnreadCountForUser(myInfo.ID, myInfo.Role)
	h.successResponse(w, r, "获取未读通知数量成功", map[string]int{"count": count})
}

func (h *Handler) MarkNotificationAsRead(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	n := r.Context().Value(NotificationCtx).(*domain.Notification)

	if !policy.IsNotificationAddressedTo(n, myInfo) {
		h.errorResponse(w, r, "只能标记发给自己的通知")
		return
	}

	if err := h.stores.Notifications.MarkAsRead(r.Context(), n.ID); err != nil {
		h.storeError(w, r, err)
		return
	}

	h.successResponse(w, r, "已标记为已读", nil)
}

func (h *Handler) MarkAllNotificationsAsRead(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	changed, err := h.stores.Notifications.MarkAllAsRead(r.Context(), myInfo.ID, myInfo.Role)
	if err != nil {
		h.storeError(w, r, err)
		return
	}

	h.successResponse(w, r, "已全部标记为已读", map[string]int{"count": changed})
}

// DeleteNotification 广播通知只有管理员可以删除
func (h *Handler) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	n := r.Context().Value(NotificationCtx).(*domain.Notification)

	if n.UserID == "" && myInfo.Role != domain.RoleAdmin {
		h.errorResponse(w, r, "权限不足")
		return
	}

	if err := h.stores.Notifications.DeleteNotification(r.Context(), n.ID); err != nil {
		h.storeError(w, r, err)
		return
	}

	h.successResponse(w, r, "删除通知成功", nil)
}

package policy

import (
	"slices"

	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/domain"
)

// CanViewNotification 管理员可以看到所有通知，其他人只能看到发给自己的、发给自己角色的或全员广播的通知
func CanViewNotification(n *domain.Notification, user *domain.User) bool {
	if user == nil || user.ID == "" {
		return false
	}
	if user.Role == domain.RoleAdmin {
		return true
	}
	if n.UserID != "" {
		return n.UserID == user.ID
	}
	return len(n.TargetRoles) == 0 || slices.Contains(n.TargetRoles, user.Role)
}

// IsNotificationAddressedTo 判断通知是否发给 user 本人或 user 所在的角色。
// 管理员虽然能看到所有通知，但只能修改发给自己的通知的已读状态
func IsNotificationAddressedTo(n *domain.Notification, user *domain.User) bool {
	if user == nil || user.ID == "" {
		return false
	}
	if n.UserID != "" {
		return n.UserID == user.ID
	}
	return len(n.TargetRoles) == 0 || slices.Contains(n.TargetRoles, user.Role)
}

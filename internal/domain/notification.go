package domain

import (
	"slices"
	"time"
)

type NotificationType string

const (
	NotificationJobCreated               NotificationType = "job_created"
	NotificationJobAssigned              NotificationType = "job_assigned"
	NotificationJobUpdated               NotificationType = "job_updated"
	NotificationJobStatusChanged         NotificationType = "job_status_changed"
	NotificationJobCompleted             NotificationType = "job_completed"
	NotificationJobApproved              NotificationType = "job_approved"
	NotificationJobRejected              NotificationType = "job_rejected"
	NotificationJobCancelled             NotificationType = "job_cancelled"
	NotificationTaskCompleted            NotificationType = "task_completed"
	NotificationReportCreated            NotificationType = "report_created"
	NotificationReportResolved           NotificationType = "report_resolved"
	NotificationInventoryLow             NotificationType = "inventory_low"
	NotificationInventoryOut             NotificationType = "inventory_out"
	NotificationInventoryRequest         NotificationType = "inventory_request"
	NotificationInventoryRequestApproved NotificationType = "inventory_request_approved"
	NotificationUserCreated              NotificationType = "user_created"
)

type Notification struct {
	ID          string           `json:"id"`
	Type        NotificationType `json:"type"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	UserID      string           `json:"userId,omitempty"`      // 为空表示按角色或全员广播
	TargetRoles []Role           `json:"targetRoles,omitempty"` // 为空表示所有角色
	JobID       string           `json:"jobId,omitempty"`
	ReportID    string           `json:"reportId,omitempty"`
	InventoryID string           `json:"inventoryId,omitempty"`
	Read        bool             `json:"read"`
	CreatedAt   time.Time        `json:"createdAt"`
}

func (n *Notification) Clone() Notification {
	c := *n
	c.TargetRoles = slices.Clone(n.TargetRoles)
	return c
}

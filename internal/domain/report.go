package domain

import "time"

type ReportType string

const (
	ReportTypeIssue       ReportType = "issue"
	ReportTypeRequest     ReportType = "request"
	ReportTypeIncident    ReportType = "incident"
	ReportTypeImprovement ReportType = "improvement"
)

type ReportStatus string

const (
	ReportStatusOpen       ReportStatus = "open"
	ReportStatusInProgress ReportStatus = "in_progress"
	ReportStatusResolved   ReportStatus = "resolved"
	ReportStatusClosed     ReportStatus = "closed"
)

type ReportPriority string

const (
	ReportPriorityLow    ReportPriority = "low"
	ReportPriorityMedium ReportPriority = "medium"
	ReportPriorityHigh   ReportPriority = "high"
)

type Report struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Type        ReportType     `json:"type"`
	Status      ReportStatus   `json:"status"`
	Priority    ReportPriority `json:"priority"`
	JobID       string         `json:"jobId,omitempty"`
	InventoryID string         `json:"inventoryId,omitempty"`
	Reporter    UserSnapshot   `json:"reporter"`
	Assignee    *UserSnapshot  `json:"assignee,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

func (r *Report) Clone() Report {
	c := *r
	if r.Assignee != nil {
		a := *r.Assignee
		c.Assignee = &a
	}
	return c
}

type NewReport struct {
	Title       string
	Description string
	Type        ReportType
	Priority    ReportPriority
	JobID       string
	InventoryID string
	ReporterID  string
	AssigneeID  string
}

// ReportPatch 中 AssigneeID 指向空字符串时表示取消指派
type ReportPatch struct {
	Title       *string
	Description *string
	Type        *ReportType
	Status      *ReportStatus
	Priority    *ReportPriority
	JobID       *string
	InventoryID *string
	AssigneeID  *string
}

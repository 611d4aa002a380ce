package handler

import (
	"net/http"

	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/domain"
	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/policy"
)

type Dashboard struct {
	TotalJobs           int                      `json:"totalJobs"`
	JobsByStatus        map[domain.JobStatus]int `json:"jobsByStatus"`
	MyActiveJobs        int                      `json:"myActiveJobs"`
	PendingApproval     int                      `json:"pendingApproval"`
	LowStockItems       int                      `json:"lowStockItems"`
	OpenReports         int                      `json:"openReports"`
	UnreadNotifications int                      `json:"unreadNotifications"`
}

// GetDashboard 汇总当前用户可见范围内的数据
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	jobs := policy.VisibleJobs(h.stores.Jobs.ListJobs(), myInfo)
	dashboard := Dashboard{
		TotalJobs:           len(jobs),
		JobsByStatus:        make(map[domain.JobStatus]int, len(domain.JobStatuses)),
		LowStockItems:       len(h.stores.Inventory.LowStock()),
		UnreadNotifications: h.stores.Notifications.GetUnreadCountForUser(myInfo.ID, myInfo.Role),
	}
	for _, s := range domain.JobStatuses {
		dashboard.JobsByStatus[s] = 0
	}

	for i := range jobs {
		dashboard.JobsByStatus[jobs[i].Status]++
		if jobs[i].Status == domain.JobStatusPendingApproval {
			dashboard.PendingApproval++
		}
		if !jobs[i].Status.Terminal() && (jobs[i].IsAssigned(myInfo.ID) || jobs[i].IsLeadTechnician(myInfo.ID)) {
			dashboard.MyActiveJobs++
		}
	}

	for _, report := range policy.VisibleReports(h.stores.Reports.ListReports(), myInfo, h.stores.Jobs) {
		if report.Status == domain.ReportStatusOpen || report.Status == domain.ReportStatusInProgress {
			dashboard.OpenReports++
		}
	}

	h.successResponse(w, r, "获取看板数据成功", dashboard)
}

package policy

import "github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/domain"

// JobLookup 用于根据报告关联的工单判断可见性
type JobLookup interface {
	GetJobByID(id string) (domain.Job, bool)
}

func CanViewReport(r *domain.Report, user *domain.User, jobs JobLookup) bool {
	if user == nil || user.ID == "" {
		return false
	}
	if user.Role == domain.RoleAdmin || user.Role == domain.RoleManager {
		return true
	}
	if r.Reporter.ID == user.ID || (r.Assignee != nil && r.Assignee.ID == user.ID) {
		return true
	}
	if r.JobID != "" && jobs != nil {
		if job, ok := jobs.GetJobByID(r.JobID); ok {
			return CanViewJob(&job, user)
		}
	}
	return false
}

func VisibleReports(reports []domain.Report, user *domain.User, jobs JobLookup) []domain.Report {
	visible := make([]domain.Report, 0, len(reports))
	for i := range reports {
		if CanViewReport(&reports[i], user, jobs) {
			visible = append(visible, reports[i])
		}
	}
	return visible
}

// CanEditReport 报告人、被指派人以及管理员、经理可以修改报告
func CanEditReport(r *domain.Report, user *domain.User) bool {
	if user.Role == domain.RoleAdmin || user.Role == domain.RoleManager {
		return true
	}
	return r.Reporter.ID == user.ID || (r.Assignee != nil && r.Assignee.ID == user.ID)
}

// Package policy 集中了按角色过滤可见数据的规则，工单列表、日历、看板和搜索共用同一套判断
package policy

import (
	"slices"

	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/domain"
)

// CanViewJob 判断 user 是否可以看到 job
func CanViewJob(job *domain.Job, user *domain.User) bool {
	if user == nil || user.ID == "" {
		return false
	}

	related := job.IsAssigned(user.ID) || job.IsCreator(user.ID)

	switch user.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleManager:
		return related || job.IsLeadTechnician(user.ID) || job.InDepartment(user.Department)
	case domain.RoleLeadTechnician:
		return related || job.IsLeadTechnician(user.ID)
	default:
		return related
	}
}

func VisibleJobs(jobs []domain.Job, user *domain.User) []domain.Job {
	visible := make([]domain.Job, 0, len(jobs))
	for i := range jobs {
		if CanViewJob(&jobs[i], user) {
			visible = append(visible, jobs[i])
		}
	}
	return visible
}

// CanApproveJob 只有管理员和经理可以审批或驳回待审批的工单
func CanApproveJob(user *domain.User) bool {
	return user.Role == domain.RoleAdmin || user.Role == domain.RoleManager
}

// CanCreateJob 员工不能直接创建工单
func CanCreateJob(user *domain.User) bool {
	return user.Role != domain.RoleEmployee
}

func CanDeleteJob(user *domain.User) bool {
	return CanApproveJob(user)
}

// CanChangeJobStatus 判断 user 是否可以把 job 改成 next 状态
func CanChangeJobStatus(job *domain.Job, user *domain.User, next domain.JobStatus) bool {
	if !CanViewJob(job, user) {
		return false
	}
	switch {
	case job.Status == domain.JobStatusPendingApproval:
		// 审批、驳回和退回都需要审批权限
		return CanApproveJob(user)
	case next == domain.JobStatusCancelled || next == domain.JobStatusRejected:
		return CanApproveJob(user) || job.IsCreator(user.ID)
	default:
		return true
	}
}

func CanManageInventory(user *domain.User) bool {
	return slices.Contains([]domain.Role{domain.RoleAdmin, domain.RoleManager}, user.Role)
}

func CanManageUsers(user *domain.User) bool {
	return user.Role == domain.RoleAdmin
}

package policy

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/domain"
)

func snap(u *domain.User) domain.UserSnapshot {
	return u.Snapshot()
}

func testUsers() (admin, manager, lead, emp1, emp2 *domain.User) {
	admin = &domain.User{ID: "admin", Name: "管理员", Role: domain.RoleAdmin}
	manager = &domain.User{ID: "manager", Name: "经理", Role: domain.RoleManager, Department: "A"}
	lead = &domain.User{ID: "lead", Name: "组长", Role: domain.RoleLeadTechnician, Department: "A"}
	emp1 = &domain.User{ID: "emp1", Name: "员工一", Role: domain.RoleEmployee, Department: "A"}
	emp2 = &domain.User{ID: "emp2", Name: "员工二", Role: domain.RoleEmployee, Department: "B"}
	return
}

func TestVisibleJobsManagerScenario(t *testing.T) {
	admin, manager, lead, emp1, emp2 := testUsers()
	leadSnap := snap(lead)

	jobA := domain.Job{ID: "jobA", Departments: []string{"A"}, Creator: snap(admin), AssignedEmployees: []domain.UserSnapshot{snap(emp1)}}
	jobB := domain.Job{ID: "jobB", Departments: []string{"B"}, Creator: snap(admin), AssignedEmployees: []domain.UserSnapshot{snap(emp2)}, LeadTechnician: &leadSnap}
	jobBManaged := domain.Job{ID: "jobB2", Departments: []string{"B"}, Creator: snap(manager), AssignedEmployees: []domain.UserSnapshot{snap(emp2)}}
	jobs := []domain.Job{jobA, jobB, jobBManaged}

	ids := func(js []domain.Job) []string {
		out := []string{}
		for _, j := range js {
			out = append(out, j.ID)
		}
		return out
	}

	assert.Equal(t, []string{"jobA", "jobB", "jobB2"}, ids(VisibleJobs(jobs, admin)))
	assert.Equal(t, []string{"jobA", "jobB2"}, ids(VisibleJobs(jobs, manager)))
	assert.Equal(t, []string{"jobB"}, ids(VisibleJobs(jobs, lead)))
	assert.Equal(t, []string{"jobA"}, ids(VisibleJobs(jobs, emp1)))
	assert.Equal(t, []string{"jobB", "jobB2"}, ids(VisibleJobs(jobs, emp2)))
}

func TestLeadTechnicianDepartmentDoesNotGrantAccess(t *testing.T) {
	admin, _, lead, _, _ := testUsers()
	job := domain.Job{ID: "j", Departments: []string{"A"}, Creator: snap(admin)}

	assert.False(t, CanViewJob(&job, lead))
}

func TestEmployeeSeesCreatedJobs(t *testing.T) {
	_, _, _, emp1, _ := testUsers()
	job := domain.Job{ID: "j", Creator: snap(emp1)}

	assert.True(t, CanViewJob(&job, emp1))
}

func TestManagerWithoutDepartment(t *testing.T) {
	admin, _, _, _, _ := testUsers()
	manager := &domain.User{ID: "m2", Role: domain.RoleManager}
	job := domain.Job{ID: "j", Departments: []string{""}, Creator: snap(admin)}

	assert.False(t, CanViewJob(&job, manager))
}

func TestAnonymousSeesNothing(t *testing.T) {
	job := domain.Job{ID: "j"}
	assert.False(t, CanViewJob(&job, nil))
	assert.False(t, CanViewJob(&job, &domain.User{Role: domain.RoleAdmin}))
}

// 对所有角色和一组组合出来的工单检查结果恰好等于谓词为真的子集
func TestVisibleJobsMatchesPredicate(t *testing.T) {
	users := []*domain.User{}
	admin, manager, lead, emp1, emp2 := testUsers()
	users = append(users, admin, manager, lead, emp1, emp2)

	jobs := []domain.Job{}
	n := 0
	for _, creator := range users {
		for _, assignee := range users {
			for _, dept := range []string{"A", "B"} {
				for _, withLead := range []bool{false, true} {
					job := domain.Job{
						ID:                fmt.Sprintf("job-%d", n),
						Departments:       []string{dept},
						Creator:           snap(creator),
						AssignedEmployees: []domain.UserSnapshot{snap(assignee)},
					}
					if withLead {
						s := snap(lead)
						job.LeadTechnician = &s
					}
					jobs = append(jobs, job)
					n++
				}
			}
		}
	}

	expected := func(job domain.Job, u *domain.User) bool {
		assigned := job.AssignedEmployees[0].ID == u.ID
		creator := job.Creator.ID == u.ID
		isLead := job.LeadTechnician != nil && job.LeadTechnician.ID == u.ID
		switch u.Role {
		case domain.RoleAdmin:
			return true
		case domain.RoleManager:
			return job.Departments[0] == u.Department || assigned || creator || isLead
		case domain.RoleLeadTechnician:
			return isLead || assigned || creator
		default:
			return assigned || creator
		}
	}

	for _, u := range users {
		visible := VisibleJobs(jobs, u)
		got := map[string]bool{}
		for _, j := range visible {
			got[j.ID] = true
		}
		for _, j := range jobs {
			assert.Equal(t, expected(j, u), got[j.ID], "user %s job %s", u.ID, j.ID)
		}
	}
}

func TestCanChangeJobStatus(t *testing.T) {
	admin, manager, lead, emp1, _ := testUsers()
	job := domain.Job{
		ID:                "j",
		Status:            domain.JobStatusPendingApproval,
		Departments:       []string{"A"},
		Creator:           snap(lead),
		AssignedEmployees: []domain.UserSnapshot{snap(emp1)},
	}

	assert.True(t, CanChangeJobStatus(&job, admin, domain.JobStatusCompleted))
	assert.True(t, CanChangeJobStatus(&job, manager, domain.JobStatusRejected))
	assert.False(t, CanChangeJobStatus(&job, emp1, domain.JobStatusCompleted))
	assert.False(t, CanChangeJobStatus(&job, lead, domain.JobStatusCompleted))

	job.Status = domain.JobStatusPending
	assert.True(t, CanChangeJobStatus(&job, emp1, domain.JobStatusInProgress))
	assert.False(t, CanChangeJobStatus(&job, emp1, domain.JobStatusCancelled))
	assert.True(t, CanChangeJobStatus(&job, lead, domain.JobStatusCancelled))
}

func TestRoleGates(t *testing.T) {
	admin, manager, lead, emp1, _ := testUsers()

	assert.True(t, CanManageUsers(admin))
	assert.False(t, CanManageUsers(manager))
	assert.True(t, CanManageInventory(manager))
	assert.False(t, CanManageInventory(lead))
	assert.True(t, CanCreateJob(lead))
	assert.False(t, CanCreateJob(emp1))
	assert.True(t, CanDeleteJob(manager))
	assert.False(t, CanDeleteJob(lead))
}

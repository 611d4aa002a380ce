package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/domain"
)

type jobMap map[string]domain.Job

func (m jobMap) GetJobByID(id string) (domain.Job, bool) {
	j, ok := m[id]
	return j, ok
}

func TestCanViewReport(t *testing.T) {
	admin, manager, lead, emp1, emp2 := testUsers()
	jobs := jobMap{
		"job1": {ID: "job1", Creator: snap(admin), AssignedEmployees: []domain.UserSnapshot{snap(emp2)}},
	}
	leadSnap := snap(lead)

	own := domain.Report{ID: "r1", Reporter: snap(emp1)}
	assigned := domain.Report{ID: "r2", Reporter: snap(admin), Assignee: &leadSnap}
	linked := domain.Report{ID: "r3", Reporter: snap(admin), JobID: "job1"}

	assert.True(t, CanViewReport(&own, emp1, jobs))
	assert.False(t, CanViewReport(&own, emp2, jobs))
	assert.True(t, CanViewReport(&own, manager, jobs))
	assert.True(t, CanViewReport(&assigned, lead, jobs))
	assert.False(t, CanViewReport(&assigned, emp1, jobs))
	assert.True(t, CanViewReport(&linked, emp2, jobs))
	assert.False(t, CanViewReport(&linked, emp1, jobs))

	visible := VisibleReports([]domain.Report{own, assigned, linked}, emp2, jobs)
	assert.Len(t, visible, 1)
	assert.Equal(t, "r3", visible[0].ID)
}

func TestCanEditReport(t *testing.T) {
	_, manager, _, emp1, emp2 := testUsers()
	r := domain.Report{Reporter: snap(emp1)}

	assert.True(t, CanEditReport(&r, emp1))
	assert.True(t, CanEditReport(&r, manager))
	assert.False(t, CanEditReport(&r, emp2))
}

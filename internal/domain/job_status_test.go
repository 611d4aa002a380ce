package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJobStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to JobStatus
		ok       bool
	}{
		{JobStatusPending, JobStatusInProgress, true},
		{JobStatusPending, JobStatusCancelled, true},
		{JobStatusPending, JobStatusRejected, true},
		{JobStatusPending, JobStatusCompleted, false},
		{JobStatusPending, JobStatusPendingApproval, false},
		{JobStatusInProgress, JobStatusPendingApproval, true},
		{JobStatusInProgress, JobStatusCancelled, true},
		{JobStatusInProgress, JobStatusCompleted, false},
		{JobStatusPendingApproval, JobStatusCompleted, true},
		{JobStatusPendingApproval, JobStatusRejected, true},
		{JobStatusPendingApproval, JobStatusInProgress, true},
		{JobStatusCompleted, JobStatusInProgress, false},
		{JobStatusCancelled, JobStatusPending, false},
		{JobStatusRejected, JobStatusPending, false},
		{JobStatusCompleted, JobStatusCompleted, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			err := ValidateJobTransition(tt.from, tt.to)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.True(t, errors.Is(err, ErrIllegalTransition))
			}
		})
	}
}

func TestJobStatusTerminal(t *testing.T) {
	for _, s := range JobStatuses {
		assert.Equal(t, s.Terminal(), len(NextJobStatuses(s)) == 0, string(s))
	}
}

func TestValidateJobTransitionUnknownStatus(t *testing.T) {
	err := ValidateJobTransition(JobStatusPending, JobStatus("archived"))
	assert.ErrorIs(t, err, ErrIllegalTransition)
}

func TestDeriveInventoryStatus(t *testing.T) {
	assert.Equal(t, InventoryStatusOut, DeriveInventoryStatus(0, 5))
	assert.Equal(t, InventoryStatusOut, DeriveInventoryStatus(-1, 5))
	assert.Equal(t, InventoryStatusLow, DeriveInventoryStatus(5, 5))
	assert.Equal(t, InventoryStatusLow, DeriveInventoryStatus(1, 5))
	assert.Equal(t, InventoryStatusReady, DeriveInventoryStatus(6, 5))
}

func TestJobCloneIsDeep(t *testing.T) {
	lead := UserSnapshot{ID: "l1", Name: "lead"}
	j := Job{
		Departments:       []string{"A"},
		AssignedEmployees: []UserSnapshot{{ID: "e1"}},
		LeadTechnician:    &lead,
		Tasks:             []Task{{ID: "t1"}},
	}

	c := j.Clone()
	c.Departments[0] = "B"
	c.AssignedEmployees[0].ID = "e2"
	c.LeadTechnician.Name = "changed"
	c.Tasks[0].Completed = true

	assert.Equal(t, "A", j.Departments[0])
	assert.Equal(t, "e1", j.AssignedEmployees[0].ID)
	assert.Equal(t, "lead", j.LeadTechnician.Name)
	assert.False(t, j.Tasks[0].Completed)
}

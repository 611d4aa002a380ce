package domain

import (
	"fmt"
	"slices"
)

type JobStatus string

const (
	JobStatusPending         JobStatus = "pending"
	JobStatusInProgress      JobStatus = "in_progress"
	JobStatusPendingApproval JobStatus = "pending_approval"
	JobStatusCompleted       JobStatus = "completed"
	JobStatusCancelled       JobStatus = "cancelled"
	JobStatusRejected        JobStatus = "rejected"
)

var JobStatuses = []JobStatus{
	JobStatusPending,
	JobStatusInProgress,
	JobStatusPendingApproval,
	JobStatusCompleted,
	JobStatusCancelled,
	JobStatusRejected,
}

// 合法的状态变更，completed、cancelled、rejected 为终止状态
var jobTransitions = map[JobStatus][]JobStatus{
	JobStatusPending:         {JobStatusInProgress, JobStatusCancelled, JobStatusRejected},
	JobStatusInProgress:      {JobStatusPendingApproval, JobStatusCancelled},
	JobStatusPendingApproval: {JobStatusCompleted, JobStatusRejected, JobStatusInProgress},
}

func (s JobStatus) Valid() bool {
	return slices.Contains(JobStatuses, s)
}

func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusCancelled || s == JobStatusRejected
}

func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	if s == next {
		return true
	}
	return slices.Contains(jobTransitions[s], next)
}

// NextJobStatuses 返回从 s 出发可以到达的状态
func NextJobStatuses(s JobStatus) []JobStatus {
	return slices.Clone(jobTransitions[s])
}

func ValidateJobTransition(from, to JobStatus) error {
	if !to.Valid() {
		return fmt.Errorf("%w: 未知状态 %q", ErrIllegalTransition, to)
	}
	if !from.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
	}
	return nil
}

package store

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/domain"
	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/events"
	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/storage"
)

// 版本 2 把单个 department 字段改成了 departments 数组
const jobStorageVersion = 2

// UserDirectory 用于把用户 ID 解析成快照
type UserDirectory interface {
	GetUserByID(id string) (domain.User, bool)
}

type jobState struct {
	Jobs []domain.Job `json:"jobs"`
}

type JobStore struct {
	mu        sync.RWMutex
	jobs      []domain.Job
	hydrated  bool
	persisted *storage.Persisted[jobState]
	users     UserDirectory
	options
}

func NewJobStore(backend storage.Backend, users UserDirectory, opts ...Option) *JobStore {
	return &JobStore{
		jobs:      make([]domain.Job, 0),
		persisted: storage.NewPersisted[jobState](backend, JobStorageKey, jobStorageVersion, migrateJobState),
		users:     users,
		options:   newOptions(opts),
	}
}

func migrateJobState(state map[string]any, fromVersion int) (map[string]any, error) {
	if fromVersion < 2 {
		jobs, _ := state["jobs"].([]any)
		for _, item := range jobs {
			job, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if _, exists := job["departments"]; !exists {
				departments := []any{}
				if d, ok := job["department"].(string); ok && d != "" {
					departments = append(departments, d)
				}
				job["departments"] = departments
			}
			delete(job, "department")
		}
	}
	return state, nil
}

func (s *JobStore) Hydrate(ctx context.Context, seed func() []domain.NewJob) error {
	state, _, err := s.persisted.Load(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	jobs := state.Jobs
	if jobs == nil {
		jobs = make([]domain.Job, 0)
	}

	if len(jobs) == 0 && seed != nil {
		for _, data := range seed() {
			job, err := s.buildJob(data)
			if err != nil {
				s.logger.Warn("跳过无效的种子工单", "title", data.Title, "error", err)
				continue
			}
			jobs = append(jobs, job)
		}
		if err := s.commit(ctx, jobs); err != nil {
			return err
		}
		s.logger.Info("已写入种子工单", "count", len(jobs))
	} else {
		s.jobs = jobs
	}

	s.hydrated = true
	return nil
}

func (s *JobStore) IsHydrated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hydrated
}

func (s *JobStore) commit(ctx context.Context, next []domain.Job) error {
	if err := s.persisted.Save(ctx, jobState{Jobs: next}); err != nil {
		return fmt.Errorf("无法保存工单数据: %w", err)
	}
	s.jobs = next
	return nil
}

func (s *JobStore) indexByID(id string) int {
	return slices.IndexFunc(s.jobs, func(j domain.Job) bool { return j.ID == id })
}

func (s *JobStore) resolve(id string) (domain.UserSnapshot, error) {
	u, ok := s.users.GetUserByID(id)
	if !ok {
		return domain.UserSnapshot{}, fmt.Errorf("%w: 用户 %s", domain.ErrUnresolvedReference, id)
	}
	return u.Snapshot(), nil
}

func (s *JobStore) resolveAll(ids []string) ([]domain.UserSnapshot, error) {
	snapshots := make([]domain.UserSnapshot, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true

		snapshot, err := s.resolve(id)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snapshot)
	}
	return snapshots, nil
}

// normalizeTasks 补全任务 ID，并按 order 排序后重新编号
func (s *JobStore) normalizeTasks(tasks []domain.Task) []domain.Task {
	out := slices.Clone(tasks)
	if out == nil {
		return []domain.Task{}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	for i := range out {
		if out[i].ID == "" {
			out[i].ID = s.newID()
		}
		out[i].Order = i
	}
	return out
}

func (s *JobStore) buildJob(data domain.NewJob) (domain.Job, error) {
	creator, err := s.resolve(data.CreatorID)
	if err != nil {
		return domain.Job{}, err
	}

	assignees, err := s.resolveAll(data.AssignedEmployeeIDs)
	if err != nil {
		return domain.Job{}, err
	}

	var lead *domain.UserSnapshot
	if data.LeadTechnicianID != "" {
		snapshot, err := s.resolve(data.LeadTechnicianID)
		if err != nil {
			return domain.Job{}, err
		}
		lead = &snapshot
	}

	departments := slices.Clone(data.Departments)
	if departments == nil {
		departments = []string{}
	}
	attachments := slices.Clone(data.Attachments)
	if attachments == nil {
		attachments = []domain.Attachment{}
	}

	now := s.now()
	job := domain.Job{
		ID:                s.newID(),
		Title:             data.Title,
		Description:       data.Description,
		Status:            domain.JobStatusPending, // 无论传入什么状态，新工单都是 pending
		Departments:       departments,
		Creator:           creator,
		AssignedEmployees: assignees,
		LeadTechnician:    lead,
		Tasks:             s.normalizeTasks(data.Tasks),
		Attachments:       attachments,
		StartDate:         data.StartDate,
		EndDate:           data.EndDate,
		Location:          data.Location,
		Customer:          data.Customer,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	return job.Clone(), nil
}

func (s *JobStore) CreateJob(ctx context.Context, data domain.NewJob) (domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, err := s.buildJob(data)
	if err != nil {
		s.logger.Error("创建工单失败", "title", data.Title, "creator", data.CreatorID, "error", err)
		return domain.Job{}, err
	}

	next := append(slices.Clone(s.jobs), job)
	if err := s.commit(ctx, next); err != nil {
		return domain.Job{}, err
	}

	return job.Clone(), nil
}

func (s *JobStore) UpdateJob(ctx context.Context, id string, patch domain.JobPatch) (domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexByID(id)
	if i < 0 {
		s.logger.Warn("更新工单失败，工单不存在", "id", id)
		return domain.Job{}, fmt.Errorf("%w: 工单 %s", domain.ErrNotFound, id)
	}

	job := s.jobs[i].Clone()

	if patch.Status != nil {
		if err := domain.ValidateJobTransition(job.Status, *patch.Status); err != nil {
			s.logger.Warn("更新工单失败，非法的状态变更", "id", id, "from", job.Status, "to", *patch.Status)
			return domain.Job{}, err
		}
		job.Status = *patch.Status
	}

	// 只有显式传入 ID 时才重新解析快照
	if patch.CreatorID != nil {
		creator, err := s.resolve(*patch.CreatorID)
		if err != nil {
			return domain.Job{}, err
		}
		job.Creator = creator
	}
	if patch.AssignedEmployeeIDs != nil {
		assignees, err := s.resolveAll(*patch.AssignedEmployeeIDs)
		if err != nil {
			return domain.Job{}, err
		}
		job.AssignedEmployees = assignees
	}
	if patch.LeadTechnicianID != nil {
		if *patch.LeadTechnicianID == "" {
			job.LeadTechnician = nil
		} else {
			lead, err := s.resolve(*patch.LeadTechnicianID)
			if err != nil {
				return domain.Job{}, err
			}
			job.LeadTechnician = &lead
		}
	}

	if patch.Title != nil {
		job.Title = *patch.Title
	}
	if patch.Description != nil {
		job.Description = *patch.Description
	}
	if patch.Departments != nil {
		job.Departments = slices.Clone(*patch.Departments)
	}
	if patch.Tasks != nil {
		job.Tasks = s.normalizeTasks(*patch.Tasks)
	}
	if patch.Attachments != nil {
		job.Attachments = slices.Clone(*patch.Attachments)
	}
	if patch.StartDate != nil {
		t := *patch.StartDate
		job.StartDate = &t
	}
	if patch.EndDate != nil {
		t := *patch.EndDate
		job.EndDate = &t
	}
	if patch.Location != nil {
		l := *patch.Location
		job.Location = &l
	}
	if patch.WorkLogs != nil {
		job.WorkLogs = slices.Clone(*patch.WorkLogs)
	}
	if patch.Customer != nil {
		c := *patch.Customer
		job.Customer = &c
	}
	if patch.Signature != nil {
		sig := *patch.Signature
		job.Signature = &sig
	}
	job.UpdatedAt = s.now()

	next := slices.Clone(s.jobs)
	next[i] = job
	if err := s.commit(ctx, next); err != nil {
		return domain.Job{}, err
	}

	return job.Clone(), nil
}

func (s *JobStore) DeleteJob(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexByID(id)
	if i < 0 {
		s.logger.Warn("删除工单失败，工单不存在", "id", id)
		return fmt.Errorf("%w: 工单 %s", domain.ErrNotFound, id)
	}

	next := slices.Delete(slices.Clone(s.jobs), i, i+1)
	return s.commit(ctx, next)
}

func (s *JobStore) GetJobByID(id string) (domain.Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexByID(id)
	if i < 0 {
		return domain.Job{}, false
	}
	return s.jobs[i].Clone(), true
}

func (s *JobStore) ListJobs() []domain.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]domain.Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		jobs = append(jobs, j.Clone())
	}
	return jobs
}

// mutate 对单个工单执行修改并持久化，fn 返回错误时不会写入
func (s *JobStore) mutate(ctx context.Context, id string, fn func(job *domain.Job) error) (domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexByID(id)
	if i < 0 {
		s.logger.Warn("工单不存在", "id", id)
		return domain.Job{}, fmt.Errorf("%w: 工单 %s", domain.ErrNotFound, id)
	}

	job := s.jobs[i].Clone()
	if err := fn(&job); err != nil {
		return domain.Job{}, err
	}
	job.UpdatedAt = s.now()

	next := slices.Clone(s.jobs)
	next[i] = job
	if err := s.commit(ctx, next); err != nil {
		return domain.Job{}, err
	}
	return job.Clone(), nil
}

func (s *JobStore) SetTaskCompleted(ctx context.Context, jobID, taskID string, completed bool) (domain.Job, error) {
	return s.mutate(ctx, jobID, func(job *domain.Job) error {
		for i := range job.Tasks {
			if job.Tasks[i].ID == taskID {
				job.Tasks[i].Completed = completed
				return nil
			}
		}
		return fmt.Errorf("%w: 任务 %s", domain.ErrNotFound, taskID)
	})
}

func (s *JobStore) AddWorkLog(ctx context.Context, jobID string, log domain.WorkLog) (domain.Job, error) {
	return s.mutate(ctx, jobID, func(job *domain.Job) error {
		if log.ID == "" {
			log.ID = s.newID()
		}
		if log.CreatedAt.IsZero() {
			log.CreatedAt = s.now()
		}
		job.WorkLogs = append(job.WorkLogs, log)
		return nil
	})
}

// RecordInventoryUsage 累加工单使用的物料数量，quantity 为负数时表示退回
func (s *JobStore) RecordInventoryUsage(ctx context.Context, jobID, inventoryID string, quantity int) (domain.Job, error) {
	return s.mutate(ctx, jobID, func(job *domain.Job) error {
		for i := range job.UsedInventory {
			if job.UsedInventory[i].InventoryID == inventoryID {
				job.UsedInventory[i].Quantity += quantity
				if job.UsedInventory[i].Quantity <= 0 {
					job.UsedInventory = slices.Delete(job.UsedInventory, i, i+1)
				}
				return nil
			}
		}
		if quantity <= 0 {
			return fmt.Errorf("%w: 工单未使用物料 %s", domain.ErrNotFound, inventoryID)
		}
		job.UsedInventory = append(job.UsedInventory, domain.UsedInventory{InventoryID: inventoryID, Quantity: quantity})
		return nil
	})
}

// latestSnapshot 以用户目录中的当前资料为准，事件乱序到达时不会写回旧资料
func latestSnapshot(users UserDirectory, e events.UserProfileChanged) domain.UserSnapshot {
	if users != nil {
		if u, ok := users.GetUserByID(e.After.ID); ok {
			return u.Snapshot()
		}
	}
	return e.After
}

// ApplyUserProfile 在用户资料变化后刷新所有相关工单中的快照
func (s *JobStore) ApplyUserProfile(e events.UserProfileChanged) {
	snap := latestSnapshot(s.users, e)

	s.mu.Lock()
	defer s.mu.Unlock()

	next := slices.Clone(s.jobs)
	changed := 0
	for i := range next {
		job := next[i].Clone()
		touched := false

		if job.Creator.ID == snap.ID {
			job.Creator = snap
			touched = true
		}
		for k := range job.AssignedEmployees {
			if job.AssignedEmployees[k].ID == snap.ID {
				job.AssignedEmployees[k] = snap
				touched = true
			}
		}
		if job.LeadTechnician != nil && job.LeadTechnician.ID == snap.ID {
			lead := snap
			job.LeadTechnician = &lead
			touched = true
		}

		if touched {
			next[i] = job
			changed++
		}
	}

	if changed == 0 {
		return
	}

	if err := s.commit(context.Background(), next); err != nil {
		s.logger.Error("刷新工单中的用户快照失败", "user", e.After.ID, "error", err)
		return
	}
	s.logger.Info("已刷新工单中的用户快照", "user", e.After.ID, "count", changed)
}

package store

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/domain"
	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/events"
	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/storage"
)

const reportStorageVersion = 1

type reportState struct {
	Reports []domain.Report `json:"reports"`
}

type ReportStore struct {
	mu        sync.RWMutex
	reports   []domain.Report
	hydrated  bool
	persisted *storage.Persisted[reportState]
	users     UserDirectory
	options
}

func NewReportStore(backend storage.Backend, users UserDirectory, opts ...Option) *ReportStore {
	return &ReportStore{
		reports:   make([]domain.Report, 0),
		persisted: storage.NewPersisted[reportState](backend, ReportStorageKey, reportStorageVersion, nil),
		users:     users,
		options:   newOptions(opts),
	}
}

func (s *ReportStore) Hydrate(ctx context.Context, seed func() []domain.NewReport) error {
	state, _, err := s.persisted.Load(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	reports := state.Reports
	if reports == nil {
		reports = make([]domain.Report, 0)
	}

	if len(reports) == 0 && seed != nil {
		for _, data := range seed() {
			report, err := s.buildReport(data)
			if err != nil {
				s.logger.Warn("跳过无效的种子报告", "title", data.Title, "error", err)
				continue
			}
			reports = append(reports, report)
		}
		if err := s.commit(ctx, reports); err != nil {
			return err
		}
		s.logger.Info("已写入种子报告", "count", len(reports))
	} else {
		s.reports = reports
	}

	s.hydrated = true
	return nil
}

func (s *ReportStore) IsHydrated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hydrated
}

func (s *ReportStore) commit(ctx context.Context, next []domain.Report) error {
	if err := s.persisted.Save(ctx, reportState{Reports: next}); err != nil {
		return fmt.Errorf("无法保存报告数据: %w", err)
	}
	s.reports = next
	return nil
}

func (s *ReportStore) indexByID(id string) int {
	return slices.IndexFunc(s.reports, func(r domain.Report) bool { return r.ID == id })
}

func (s *ReportStore) resolve(id string) (domain.UserSnapshot, error) {
	u, ok := s.users.GetUserByID(id)
	if !ok {
		return domain.UserSnapshot{}, fmt.Errorf("%w: 用户 %s", domain.ErrUnresolvedReference, id)
	}
	return u.Snapshot(), nil
}

func (s *ReportStore) buildReport(data domain.NewReport) (domain.Report, error) {
	reporter, err := s.resolve(data.ReporterID)
	if err != nil {
		return domain.Report{}, err
	}

	var assignee *domain.UserSnapshot
	if data.AssigneeID != "" {
		snapshot, err := s.resolve(data.AssigneeID)
		if err != nil {
			return domain.Report{}, err
		}
		assignee = &snapshot
	}

	reportType := data.Type
	if reportType == "" {
		reportType = domain.ReportTypeIssue
	}
	priority := data.Priority
	if priority == "" {
		priority = domain.ReportPriorityMedium
	}

	now := s.now()
	return domain.Report{
		ID:          s.newID(),
		Title:       data.Title,
		Description: data.Description,
		Type:        reportType,
		Status:      domain.ReportStatusOpen,
		Priority:    priority,
		JobID:       data.JobID,
		InventoryID: data.InventoryID,
		Reporter:    reporter,
		Assignee:    assignee,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (s *ReportStore) CreateReport(ctx context.Context, data domain.NewReport) (domain.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report, err := s.buildReport(data)
	if err != nil {
		s.logger.Error("创建报告失败", "title", data.Title, "error", err)
		return domain.Report{}, err
	}

	next := append(slices.Clone(s.reports), report)
	if err := s.commit(ctx, next); err != nil {
		return domain.Report{}, err
	}
	return report.Clone(), nil
}

func (s *ReportStore) UpdateReport(ctx context.Context, id string, patch domain.ReportPatch) (domain.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexByID(id)
	if i < 0 {
		s.logger.Warn("更新报告失败，报告不存在", "id", id)
		return domain.Report{}, fmt.Errorf("%w: 报告 %s", domain.ErrNotFound, id)
	}

	report := s.reports[i].Clone()
	if patch.AssigneeID != nil {
		if *patch.AssigneeID == "" {
			report.Assignee = nil
		} else {
			assignee, err := s.resolve(*patch.AssigneeID)
			if err != nil {
				return domain.Report{}, err
			}
			report.Assignee = &assignee
		}
	}
	if patch.Title != nil {
		report.Title = *patch.Title
	}
	if patch.Description != nil {
		report.Description = *patch.Description
	}
	if patch.Type != nil {
		report.Type = *patch.Type
	}
	if patch.Status != nil {
		report.Status = *patch.Status
	}
	if patch.Priority != nil {
		report.Priority = *patch.Priority
	}
	if patch.JobID != nil {
		report.JobID = *patch.JobID
	}
	if patch.InventoryID != nil {
		report.InventoryID = *patch.InventoryID
	}
	report.UpdatedAt = s.now()

	next := slices.Clone(s.reports)
	next[i] = report
	if err := s.commit(ctx, next); err != nil {
		return domain.Report{}, err
	}
	return report.Clone(), nil
}

func (s *ReportStore) DeleteReport(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexByID(id)
	if i < 0 {
		s.logger.Warn("删除报告失败，报告不存在", "id", id)
		return fmt.Errorf("%w: 报告 %s", domain.ErrNotFound, id)
	}

	next := slices.Delete(slices.Clone(s.reports), i, i+1)
	return s.commit(ctx, next)
}

func (s *ReportStore) GetReportByID(id string) (domain.Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexByID(id)
	if i < 0 {
		return domain.Report{}, false
	}
	return s.reports[i].Clone(), true
}

func (s *ReportStore) ListReports() []domain.Report {
	return s.filter(func(domain.Report) bool { return true })
}

func (s *ReportStore) ReportsByJob(jobID string) []domain.Report {
	return s.filter(func(r domain.Report) bool { return r.JobID == jobID })
}

func (s *ReportStore) ReportsByInventory(inventoryID string) []domain.Report {
	return s.filter(func(r domain.Report) bool { return r.InventoryID == inventoryID })
}

func (s *ReportStore) filter(keep func(domain.Report) bool) []domain.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reports := make([]domain.Report, 0)
	for _, r := range s.reports {
		if keep(r) {
			reports = append(reports, r.Clone())
		}
	}
	return reports
}

func (s *ReportStore) ApplyUserProfile(e events.UserProfileChanged) {
	snap := latestSnapshot(s.users, e)

	s.mu.Lock()
	defer s.mu.Unlock()

	next := slices.Clone(s.reports)
	changed := 0
	for i := range next {
		report := next[i].Clone()
		touched := false

		if report.Reporter.ID == snap.ID {
			report.Reporter = snap
			touched = true
		}
		if report.Assignee != nil && report.Assignee.ID == snap.ID {
			assignee := snap
			report.Assignee = &assignee
			touched = true
		}

		if touched {
			next[i] = report
			changed++
		}
	}

	if changed == 0 {
		return
	}

	if err := s.commit(context.Background(), next); err != nil {
		s.logger.Error("刷新报告中的用户快照失败", "user", e.After.ID, "error", err)
	}
}

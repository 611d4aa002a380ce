package handler

import (
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/domain"
	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/policy"
	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/utils"
)

type taskRequest struct {
	ID        string `json:"id"`
	Title     string `json:"title" validate:"required,max=200"`
	Completed bool   `json:"completed"`
	Order     int    `json:"order" validate:"min=0"`
}

func toTasks(reqs []taskRequest) []domain.Task {
	tasks := make([]domain.Task, 0, len(reqs))
	for _, t := range reqs {
		tasks = append(tasks, domain.Task{ID: t.ID, Title: t.Title, Completed: t.Completed, Order: t.Order})
	}
	return tasks
}

// relatedUserIDs 返回创建人、被指派人和负责人，不含 exceptID
func relatedUserIDs(job *domain.Job, exceptID string) []string {
	ids := []string{job.Creator.ID}
	for _, e := range job.AssignedEmployees {
		ids = append(ids, e.ID)
	}
	if job.LeadTechnician != nil {
		ids = append(ids, job.LeadTechnician.ID)
	}

	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != exceptID && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}

// assigneeIDs 返回被指派人和负责人
func assigneeIDs(job *domain.Job) []string {
	ids := make([]string, 0, len(job.AssignedEmployees)+1)
	for _, e := range job.AssignedEmployees {
		ids = append(ids, e.ID)
	}
	if job.LeadTechnician != nil && !slices.Contains(ids, job.LeadTechnician.ID) {
		ids = append(ids, job.LeadTechnician.ID)
	}
	return ids
}

func (h *Handler) GetAllJobs(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	jobs := policy.VisibleJobs(h.stores.Jobs.ListJobs(), myInfo)

	status := domain.JobStatus(r.URL.Query().Get("status"))
	department := r.URL.Query().Get("department")
	if status != "" || department != "" {
		filtered := make([]domain.Job, 0, len(jobs))
		for _, job := range jobs {
			if status != "" && job.Status != status {
				continue
			}
			if department != "" && !job.InDepartment(department) {
				continue
			}
			filtered = append(filtered, job)
		}
		jobs = filtered
	}

	h.successResponse(w, r, "获取工单列表成功", jobs)
}

// parseDate 同时接受 RFC3339 和 YYYY-MM-DD，后者返回 dateOnly 为 true
func parseDate(s string) (t time.Time, dateOnly bool, err error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, false, nil
	}
	t, err = time.Parse(time.DateOnly, s)
	return t, err == nil, err
}

// GetJobCalendar 返回时间范围与 [from, to] 有交集的可见工单，没有开始时间的工单不会出现在日历中
func (h *Handler) GetJobCalendar(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	from, _, err := parseDate(r.URL.Query().Get("from"))
	if err != nil {
		h.errorResponse(w, r, "开始日期格式错误")
		return
	}
	to, toDateOnly, err := parseDate(r.URL.Query().Get("to"))
	if err != nil {
		h.errorResponse(w, r, "结束日期格式错误")
		return
	}
	if err := utils.ValidateCalendarRange(from, to); err != nil {
		h.badRequest(w, r, err)
		return
	}
	// 只给日期时包含结束日当天
	if toDateOnly {
		to = to.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}

	jobs := make([]domain.Job, 0)
	for _, job := range policy.VisibleJobs(h.stores.Jobs.ListJobs(), myInfo) {
		if job.StartDate == nil {
			continue
		}
		end := *job.StartDate
		if job.EndDate != nil {
			end = *job.EndDate
		}
		if job.StartDate.After(to) || end.Before(from) {
			continue
		}
		jobs = append(jobs, job)
	}

	h.successResponse(w, r, "获取工单日历成功", jobs)
}

func (h *Handler) CreateJob(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	var req struct {
		Title               string              `json:"title" validate:"required,max=200"`
		Description         string              `json:"description" validate:"max=5000"`
		Departments         []string            `json:"departments" validate:"omitempty,dive,min=1"`
		AssignedEmployeeIDs []string            `json:"assignedEmployeeIds" validate:"omitempty,dive,required"`
		LeadTechnicianID    string              `json:"leadTechnicianId"`
		Tasks               []taskRequest       `json:"tasks" validate:"omitempty,dive"`
		Attachments         []domain.Attachment `json:"attachments"`
		StartDate           *time.Time          `json:"startDate"`
		EndDate             *time.Time          `json:"endDate"`
		Location            *domain.GeoLocation `json:"location"`
		Customer            *domain.Customer    `json:"customer"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	tasks := toTasks(req.Tasks)
	if err := utils.ValidateJobDraft(req.StartDate, req.EndDate, tasks, req.Location); err != nil {
		h.badRequest(w, r, err)
		return
	}

	job, err := h.stores.Jobs.CreateJob(r.Context(), domain.NewJob{
		Title:               req.Title,
		Description:         req.Description,
		Departments:         req.Departments,
		CreatorID:           myInfo.ID,
		AssignedEmployeeIDs: req.AssignedEmployeeIDs,
		LeadTechnicianID:    req.LeadTechnicianID,
		Tasks:               tasks,
		Attachments:         req.Attachments,
		StartDate:           req.StartDate,
		EndDate:             req.EndDate,
		Location:            req.Location,
		Customer:            req.Customer,
	})
	if err != nil {
		h.storeError(w, r, err)
		return
	}

	h.notify(r.Context(), domain.Notification{
		Type:        domain.NotificationJobCreated,
		Title:       "新工单",
		Description: job.Title,
		TargetRoles: approvers,
		JobID:       job.ID,
	})
	h.notifyAssigned(r.Context(), &job, assigneeIDs(&job))

	h.successResponse(w, r, "创建工单成功", job)
}

func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	job := r.Context().Value(JobCtx).(*domain.Job)
	h.successResponse(w, r, "获取工单成功", job)
}

func (h *Handler) UpdateJob(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	job := r.Context().Value(JobCtx).(*domain.Job)

	// 技术组长只能修改自己创建或负责的工单
	if !policy.CanApproveJob(myInfo) && !job.IsCreator(myInfo.ID) && !job.IsLeadTechnician(myInfo.ID) {
		h.errorResponse(w, r, "权限不足")
		return
	}

	var req struct {
		Title               *string                 `json:"title" validate:"omitempty,min=1,max=200"`
		Description         *string                 `json:"description" validate:"omitempty,max=5000"`
		Departments         *[]string               `json:"departments" validate:"omitempty,dive,min=1"`
		AssignedEmployeeIDs *[]string               `json:"assignedEmployeeIds" validate:"omitempty,dive,required"`
		LeadTechnicianID    *string                 `json:"leadTechnicianId"`
		Tasks               *[]taskRequest          `json:"tasks" validate:"omitempty,dive"`
		Attachments         *[]domain.Attachment    `json:"attachments"`
		StartDate           *time.Time              `json:"startDate"`
		EndDate             *time.Time              `json:"endDate"`
		Location            *domain.GeoLocation     `json:"location"`
		Customer            *domain.Customer        `json:"customer"`
		Signature           *domain.Signature       `json:"signature"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	patch := domain.JobPatch{
		Title:               req.Title,
		Description:         req.Description,
		Departments:         req.Departments,
		AssignedEmployeeIDs: req.AssignedEmployeeIDs,
		LeadTechnicianID:    req.LeadTechnicianID,
		Attachments:         req.Attachments,
		StartDate:           req.StartDate,
		EndDate:             req.EndDate,
		Location:            req.Location,
		Customer:            req.Customer,
		Signature:           req.Signature,
	}

	// 用合并后的结果检查跨字段的约束
	start, end, tasks := job.StartDate, job.EndDate, job.Tasks
	if req.StartDate != nil {
		start = req.StartDate
	}
	if req.EndDate != nil {
		end = req.EndDate
	}
	if req.Tasks != nil {
		t := toTasks(*req.Tasks)
		patch.Tasks = &t
		tasks = t
	}
	if err := utils.ValidateJobDraft(start, end, tasks, req.Location); err != nil {
		h.badRequest(w, r, err)
		return
	}

	updated, err := h.stores.Jobs.UpdateJob(r.Context(), job.ID, patch)
	if err != nil {
		h.storeError(w, r, err)
		return
	}

	// 只通知新加入的被指派人
	before := assigneeIDs(job)
	added := make([]string, 0)
	for _, id := range assigneeIDs(&updated) {
		if !slices.Contains(before, id) {
			added = append(added, id)
		}
	}
	h.notifyAssigned(r.Context(), &updated, added)

	for _, id := range relatedUserIDs(&updated, myInfo.ID) {
		if slices.Contains(added, id) {
			continue
		}
		h.notify(r.Context(), domain.Notification{
			Type:        domain.NotificationJobUpdated,
			Title:       "工单已更新",
			Description: updated.Title,
			UserID:      id,
			JobID:       updated.ID,
		})
	}

	h.successResponse(w, r, "更新工单成功", updated)
}

func (h *Handler) DeleteJob(w http.ResponseWriter, r *http.Request) {
	job := r.Context().Value(JobCtx).(*domain.Job)

	if err := h.stores.Jobs.DeleteJob(r.Context(), job.ID); err != nil {
		h.storeError(w, r, err)
		return
	}

	h.successResponse(w, r, "删除工单成功", nil)
}

func statusNotificationType(from, to domain.JobStatus) domain.NotificationType {
	switch {
	case from == domain.JobStatusPendingApproval && to == domain.JobStatusCompleted:
		return domain.NotificationJobApproved
	case to == domain.JobStatusCompleted:
		return domain.NotificationJobCompleted
	case to == domain.JobStatusRejected:
		return domain.NotificationJobRejected
	case to == domain.JobStatusCancelled:
		return domain.NotificationJobCancelled
	default:
		return domain.NotificationJobStatusChanged
	}
}

func (h *Handler) UpdateJobStatus(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	job := r.Context().Value(JobCtx).(*domain.Job)

	var req struct {
		Status string `json:"status" validate:"required,oneof=pending in_progress pending_approval completed cancelled rejected"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	next := domain.JobStatus(req.Status)
	if !policy.CanChangeJobStatus(job, myInfo, next) {
		h.errorResponse(w, r, "权限不足")
		return
	}

	updated, err := h.stores.Jobs.UpdateJob(r.Context(), job.ID, domain.JobPatch{Status: &next})
	if err != nil {
		h.storeError(w, r, err)
		return
	}

	if job.Status != updated.Status {
		typ := statusNotificationType(job.Status, updated.Status)
		for _, id := range relatedUserIDs(&updated, myInfo.ID) {
			h.notify(r.Context(), domain.Notification{
				Type:        typ,
				Title:       "工单状态已变更",
				Description: updated.Title + "：" + string(updated.Status),
				UserID:      id,
				JobID:       updated.ID,
			})
		}
		if updated.Status == domain.JobStatusPendingApproval {
			h.notify(r.Context(), domain.Notification{
				Type:        domain.NotificationJobStatusChanged,
				Title:       "工单等待审批",
				Description: updated.Title,
				TargetRoles: approvers,
				JobID:       updated.ID,
			})
		}
	}

	h.successResponse(w, r, "更新工单状态成功", updated)
}

func (h *Handler) UpdateJobTask(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	job := r.Context().Value(JobCtx).(*domain.Job)

	var req struct {
		Completed *bool `json:"completed" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if job.Status.Terminal() {
		h.errorResponse(w, r, "工单已结束，不能修改任务")
		return
	}

	taskID := chi.URLParam(r, "taskID")
	updated, err := h.stores.Jobs.SetTaskCompleted(r.Context(), job.ID, taskID, *req.Completed)
	if err != nil {
		h.storeError(w, r, err)
		return
	}

	if *req.Completed && !updated.IsCreator(myInfo.ID) {
		h.notify(r.Context(), domain.Notification{
			Type:        domain.NotificationTaskCompleted,
			Title:       "任务已完成",
			Description: myInfo.Name + " 完成了 " + updated.Title + " 中的任务",
			UserID:      updated.Creator.ID,
			JobID:       updated.ID,
		})
	}

	h.successResponse(w, r, "更新任务成功", updated)
}

func (h *Handler) AddJobWorkLog(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	job := r.Context().Value(JobCtx).(*domain.Job)

	var req struct {
		Note  string  `json:"note" validate:"required,max=2000"`
		Hours float64 `json:"hours" validate:"gte=0,lte=24"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	updated, err := h.stores.Jobs.AddWorkLog(r.Context(), job.ID, domain.WorkLog{
		UserID:   myInfo.ID,
		UserName: myInfo.Name,
		Note:     req.Note,
		Hours:    req.Hours,
	})
	if err != nil {
		h.storeError(w, r, err)
		return
	}

	h.successResponse(w, r, "添加工作记录成功", updated)
}

// RecordJobInventoryUsage 扣减库存并记录到工单中，quantity 为负数时表示退回；
// 写入工单失败时会把库存改回去
func (h *Handler) RecordJobInventoryUsage(w http.ResponseWriter, r *http.Request) {
	job := r.Context().Value(JobCtx).(*domain.Job)

	var req struct {
		InventoryID string `json:"inventoryId" validate:"required"`
		Quantity    int    `json:"quantity" validate:"required,ne=0"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	before, ok := h.stores.Inventory.GetItemByID(req.InventoryID)
	if !ok {
		h.errorResponse(w, r, "物料不存在")
		return
	}

	item, err := h.stores.Inventory.AdjustQuantity(r.Context(), req.InventoryID, -req.Quantity)
	if err != nil {
		h.storeError(w, r, err)
		return
	}

	updated, err := h.stores.Jobs.RecordInventoryUsage(r.Context(), job.ID, req.InventoryID, req.Quantity)
	if err != nil {
		if _, rollbackErr := h.stores.Inventory.AdjustQuantity(r.Context(), req.InventoryID, req.Quantity); rollbackErr != nil {
			h.logInternalServerError(r, rollbackErr)
		}
		h.storeError(w, r, err)
		return
	}

	if item.Status != before.Status {
		h.notifyStockLevel(r, &item)
	}

	h.successResponse(w, r, "记录物料使用成功", updated)
}

func (h *Handler) GetJobReports(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	job := r.Context().Value(JobCtx).(*domain.Job)

	reports := policy.VisibleReports(h.stores.Reports.ReportsByJob(job.ID), myInfo, h.stores.Jobs)
	h.successResponse(w, r, "获取工单报告成功", reports)
}

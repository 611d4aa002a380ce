package handler

import (
	"net/http"

	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/domain"
	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/policy"
)

func (h *Handler) GetAllReports(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	reports := policy.VisibleReports(h.stores.Reports.ListReports(), myInfo, h.stores.Jobs)

	status := domain.ReportStatus(r.URL.Query().Get("status"))
	if status != "" {
		filtered := make([]domain.Report, 0, len(reports))
		for _, report := range reports {
			if report.Status == status {
				filtered = append(filtered, report)
			}
		}
		reports = filtered
	}

	h.successResponse(w, r, "获取报告列表成功", reports)
}

func (h *Handler) CreateReport(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	var req struct {
		Title       string `json:"title" validate:"required,max=200"`
		Description string `json:"description" validate:"max=5000"`
		Type        string `json:"type" validate:"omitempty,oneof=issue request incident improvement"`
		Priority    string `json:"priority" validate:"omitempty,oneof=low medium high"`
		JobID       string `json:"jobId"`
		InventoryID string `json:"inventoryId"`
		AssigneeID  string `json:"assigneeId"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 只能关联自己看得到的工单
	if req.JobID != "" {
		job, ok := h.stores.Jobs.GetJobByID(req.JobID)
		if !ok || !policy.CanViewJob(&job, myInfo) {
			h.errorResponse(w, r, "工单不存在")
			return
		}
	}
	if req.InventoryID != "" {
		if _, ok := h.stores.Inventory.GetItemByID(req.InventoryID); !ok {
			h.errorResponse(w, r, "物料不存在")
			return
		}
	}

	report, err := h.stores.Reports.CreateReport(r.Context(), domain.NewReport{
		Title:       req.Title,
		Description: req.Description,
		Type:        domain.ReportType(req.Type),
		Priority:    domain.ReportPriority(req.Priority),
		JobID:       req.JobID,
		InventoryID: req.InventoryID,
		ReporterID:  myInfo.ID,
		AssigneeID:  req.AssigneeID,
	})
	if err != nil {
		h.storeError(w, r, err)
		return
	}

	h.notify(r.Context(), domain.Notification{
		Type:        domain.NotificationReportCreated,
		Title:       "新报告",
		Description: report.Title,
		TargetRoles: approvers,
		ReportID:    report.ID,
		JobID:       report.JobID,
	})
	if report.Assignee != nil && report.Assignee.ID != myInfo.ID {
		h.notify(r.Context(), domain.Notification{
			Type:        domain.NotificationReportCreated,
			Title:       "你被指派处理报告",
			Description: report.Title,
			UserID:      report.Assignee.ID,
			ReportID:    report.ID,
		})
	}

	h.successResponse(w, r, "创建报告成功", report)
}

func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	report := r.Context().Value(ReportCtx).(*domain.Report)
	h.successResponse(w, r, "获取报告成功", report)
}

func (h *Handler) UpdateReport(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	report := r.Context().Value(ReportCtx).(*domain.Report)

	if !policy.CanEditReport(report, myInfo) {
		h.errorResponse(w, r, "权限不足")
		return
	}

	var req struct {
		Title       *string `json:"title" validate:"omitempty,min=1,max=200"`
		Description *string `json:"description" validate:"omitempty,max=5000"`
		Type        *string `json:"type" validate:"omitempty,oneof=issue request incident improvement"`
		Status      *string `json:"status" validate:"omitempty,oneof=open in_progress resolved closed"`
		Priority    *string `json:"priority" validate:"omitempty,oneof=low medium high"`
		AssigneeID  *string `json:"assigneeId"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	patch := domain.ReportPatch{
		Title:       req.Title,
		Description: req.Description,
		AssigneeID:  req.AssigneeID,
	}
	if req.Type != nil {
		t := domain.ReportType(*req.Type)
		patch.Type = &t
	}
	if req.Status != nil {
		s := domain.ReportStatus(*req.Status)
		patch.Status = &s
	}
	if req.Priority != nil {
		p := domain.ReportPriority(*req.Priority)
		patch.Priority = &p
	}

	updated, err := h.stores.Reports.UpdateReport(r.Context(), report.ID, patch)
	if err != nil {
		h.storeError(w, r, err)
		return
	}

	if report.Status != domain.ReportStatusResolved && updated.Status == domain.ReportStatusResolved && updated.Reporter.ID != myInfo.ID {
		h.notify(r.Context(), domain.Notification{
			Type:        domain.NotificationReportResolved,
			Title:       "报告已解决",
			Description: updated.Title,
			UserID:      updated.Reporter.ID,
			ReportID:    updated.ID,
		})
	}

	h.successResponse(w, r, "更新报告成功", updated)
}

func (h *Handler) DeleteReport(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	report := r.Context().Value(ReportCtx).(*domain.Report)

	// 只有报告人本人、管理员和经理可以删除
	if !policy.CanApproveJob(myInfo) && report.Reporter.ID != myInfo.ID {
		h.errorResponse(w, r, "权限不足")
		return
	}

	if err := h.stores.Reports.DeleteReport(r.Context(), report.ID); err != nil {
		h.storeError(w, r, err)
		return
	}

	h.successResponse(w, r, "删除报告成功", nil)
}

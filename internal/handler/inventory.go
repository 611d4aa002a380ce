package handler

import (
	"fmt"
	"net/http"

	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/domain"
)

// notifyStockLevel 在物料进入 low 或 out 状态时通知管理员和经理
func (h *Handler) notifyStockLevel(r *http.Request, item *domain.InventoryItem) {
	var typ domain.NotificationType
	switch item.Status {
	case domain.InventoryStatusLow:
		typ = domain.NotificationInventoryLow
	case domain.InventoryStatusOut:
		typ = domain.NotificationInventoryOut
	default:
		return
	}

	h.notify(r.Context(), domain.Notification{
		Type:        typ,
		Title:       "库存不足",
		Description: fmt.Sprintf("%s 剩余 %d %s", item.Name, item.Quantity, item.Unit),
		TargetRoles: inventoryAdmins,
		InventoryID: item.ID,
	})
}

func (h *Handler) GetAllInventoryItems(w http.ResponseWriter, r *http.Request) {
	items := h.stores.Inventory.ListItems()

	category := r.URL.Query().Get("category")
	if category != "" {
		filtered := make([]domain.InventoryItem, 0, len(items))
		for _, item := range items {
			if item.Category == category {
				filtered = append(filtered, item)
			}
		}
		items = filtered
	}

	h.successResponse(w, r, "获取物料列表成功", items)
}

func (h *Handler) GetLowStockItems(w http.ResponseWriter, r *http.Request) {
	h.successResponse(w, r, "获取库存不足物料成功", h.stores.Inventory.LowStock())
}

func (h *Handler) CreateInventoryItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name              string  `json:"name" validate:"required,max=100"`
		Description       string  `json:"description" validate:"max=2000"`
		Category          string  `json:"category" validate:"required,max=50"`
		Quantity          int     `json:"quantity" validate:"min=0"`
		Unit              string  `json:"unit" validate:"required,max=20"`
		Location          string  `json:"location" validate:"max=100"`
		LowStockThreshold *int    `json:"lowStockThreshold" validate:"omitempty,min=0"`
		Price             float64 `json:"price" validate:"min=0"`
		RequiredFrom      string  `json:"requiredFrom" validate:"max=100"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	item, err := h.stores.Inventory.CreateItem(r.Context(), domain.NewInventoryItem{
		Name:              req.Name,
		Description:       req.Description,
		Category:          req.Category,
		Quantity:          req.Quantity,
		Unit:              req.Unit,
		Location:          req.Location,
		LowStockThreshold: req.LowStockThreshold,
		Price:             req.Price,
		RequiredFrom:      req.RequiredFrom,
	})
	if err != nil {
		h.storeError(w, r, err)
		return
	}

	h.successResponse(w, r, "创建物料成功", item)
}

func (h *Handler) GetInventoryItem(w http.ResponseWriter, r *http.Request) {
	item := r.Context().Value(InventoryItemCtx).(*domain.InventoryItem)
	h.successResponse(w, r, "获取物料成功", item)
}

func (h *Handler) UpdateInventoryItem(w http.ResponseWriter, r *http.Request) {
	item := r.Context().Value(InventoryItemCtx).(*domain.InventoryItem)

	var req struct {
		Name              *string  `json:"name" validate:"omitempty,min=1,max=100"`
		Description       *string  `json:"description" validate:"omitempty,max=2000"`
		Category          *string  `json:"category" validate:"omitempty,min=1,max=50"`
		Quantity          *int     `json:"quantity" validate:"omitempty,min=0"`
		Unit              *string  `json:"unit" validate:"omitempty,min=1,max=20"`
		Location          *string  `json:"location" validate:"omitempty,max=100"`
		LowStockThreshold *int     `json:"lowStockThreshold" validate:"omitempty,min=0"`
		Price             *float64 `json:"price" validate:"omitempty,min=0"`
		RequiredFrom      *string  `json:"requiredFrom" validate:"omitempty,max=100"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	updated, err := h.stores.Inventory.UpdateItem(r.Context(), item.ID, domain.InventoryPatch{
		Name:              req.Name,
		Description:       req.Description,
		Category:          req.Category,
		Quantity:          req.Quantity,
		Unit:              req.Unit,
		Location:          req.Location,
		LowStockThreshold: req.LowStockThreshold,
		Price:             req.Price,
		RequiredFrom:      req.RequiredFrom,
	})
	if err != nil {
		h.storeError(w, r, err)
		return
	}

	if updated.Status != item.Status {
		h.notifyStockLevel(r, &updated)
	}

	h.successResponse(w, r, "更新物料成功", updated)
}

func (h *Handler) DeleteInventoryItem(w http.ResponseWriter, r *http.Request) {
	item := r.Context().Value(InventoryItemCtx).(*domain.InventoryItem)

	if err := h.stores.Inventory.DeleteItem(r.Context(), item.ID); err != nil {
		h.storeError(w, r, err)
		return
	}

	h.successResponse(w, r, "删除物料成功", nil)
}

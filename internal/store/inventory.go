package store

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/domain"
	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/storage"
)

const inventoryStorageVersion = 1

type inventoryState struct {
	Items []domain.InventoryItem `json:"items"`
}

type InventoryStore struct {
	mu        sync.RWMutex
	items     []domain.InventoryItem
	hydrated  bool
	persisted *storage.Persisted[inventoryState]
	options
}

func NewInventoryStore(backend storage.Backend, opts ...Option) *InventoryStore {
	return &InventoryStore{
		items:     make([]domain.InventoryItem, 0),
		persisted: storage.NewPersisted[inventoryState](backend, InventoryStorageKey, inventoryStorageVersion, nil),
		options:   newOptions(opts),
	}
}

func (s *InventoryStore) Hydrate(ctx context.Context, seed func() []domain.NewInventoryItem) error {
	state, _, err := s.persisted.Load(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items := state.Items
	if items == nil {
		items = make([]domain.InventoryItem, 0)
	}

	if len(items) == 0 && seed != nil {
		for _, data := range seed() {
			items = append(items, s.buildItem(data))
		}
		if err := s.commit(ctx, items); err != nil {
			return err
		}
		s.logger.Info("已写入种子物料", "count", len(items))
	} else {
		s.items = items
	}

	s.hydrated = true
	return nil
}

func (s *InventoryStore) IsHydrated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hydrated
}

func (s *InventoryStore) commit(ctx context.Context, next []domain.InventoryItem) error {
	if err := s.persisted.Save(ctx, inventoryState{Items: next}); err != nil {
		return fmt.Errorf("无法保存物料数据: %w", err)
	}
	s.items = next
	return nil
}

func (s *InventoryStore) indexByID(id string) int {
	return slices.IndexFunc(s.items, func(item domain.InventoryItem) bool { return item.ID == id })
}

func (s *InventoryStore) buildItem(data domain.NewInventoryItem) domain.InventoryItem {
	threshold := domain.DefaultLowStockThreshold
	if data.LowStockThreshold != nil {
		threshold = *data.LowStockThreshold
	}

	now := s.now()
	return domain.InventoryItem{
		ID:                s.newID(),
		Name:              data.Name,
		Description:       data.Description,
		Category:          data.Category,
		Quantity:          data.Quantity,
		Unit:              data.Unit,
		Location:          data.Location,
		LowStockThreshold: threshold,
		Price:             data.Price,
		RequiredFrom:      data.RequiredFrom,
		Status:            domain.DeriveInventoryStatus(data.Quantity, threshold),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

func (s *InventoryStore) CreateItem(ctx context.Context, data domain.NewInventoryItem) (domain.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.buildItem(data)
	next := append(slices.Clone(s.items), item)
	if err := s.commit(ctx, next); err != nil {
		return domain.InventoryItem{}, err
	}
	return item, nil
}

func (s *InventoryStore) UpdateItem(ctx context.Context, id string, patch domain.InventoryPatch) (domain.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexByID(id)
	if i < 0 {
		s.logger.Warn("更新物料失败，物料不存在", "id", id)
		return domain.InventoryItem{}, fmt.Errorf("%w: 物料 %s", domain.ErrNotFound, id)
	}

	item := s.items[i]
	if patch.Name != nil {
		item.Name = *patch.Name
	}
	if patch.Description != nil {
		item.Description = *patch.Description
	}
	if patch.Category != nil {
		item.Category = *patch.Category
	}
	if patch.Quantity != nil {
		item.Quantity = *patch.Quantity
	}
	if patch.Unit != nil {
		item.Unit = *patch.Unit
	}
	if patch.Location != nil {
		item.Location = *patch.Location
	}
	if patch.LowStockThreshold != nil {
		item.LowStockThreshold = *patch.LowStockThreshold
	}
	if patch.Price != nil {
		item.Price = *patch.Price
	}
	if patch.RequiredFrom != nil {
		item.RequiredFrom = *patch.RequiredFrom
	}
	item.Status = domain.DeriveInventoryStatus(item.Quantity, item.LowStockThreshold)
	item.UpdatedAt = s.now()

	next := slices.Clone(s.items)
	next[i] = item
	if err := s.commit(ctx, next); err != nil {
		return domain.InventoryItem{}, err
	}
	return item, nil
}

// AdjustQuantity 按 delta 增减库存，结果不能小于 0
func (s *InventoryStore) AdjustQuantity(ctx context.Context, id string, delta int) (domain.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexByID(id)
	if i < 0 {
		s.logger.Warn("调整库存失败，物料不存在", "id", id)
		return domain.InventoryItem{}, fmt.Errorf("%w: 物料 %s", domain.ErrNotFound, id)
	}

	item := s.items[i]
	if item.Quantity+delta < 0 {
		return domain.InventoryItem{}, fmt.Errorf("%w: %s 剩余 %d，需要 %d", domain.ErrInsufficientStock, item.Name, item.Quantity, -delta)
	}
	item.Quantity += delta
	item.Status = domain.DeriveInventoryStatus(item.Quantity, item.LowStockThreshold)
	item.UpdatedAt = s.now()

	next := slices.Clone(s.items)
	next[i] = item
	if err := s.commit(ctx, next); err != nil {
		return domain.InventoryItem{}, err
	}
	return item, nil
}

func (s *InventoryStore) DeleteItem(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexByID(id)
	if i < 0 {
		s.logger.Warn("删除物料失败，物料不存在", "id", id)
		return fmt.Errorf("%w: 物料 %s", domain.ErrNotFound, id)
	}

	next := slices.Delete(slices.Clone(s.items), i, i+1)
	return s.commit(ctx, next)
}

func (s *InventoryStore) GetItemByID(id string) (domain.InventoryItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexByID(id)
	if i < 0 {
		return domain.InventoryItem{}, false
	}
	return s.items[i], true
}

func (s *InventoryStore) ListItems() []domain.InventoryItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items)
}

// LowStock 返回状态为 low 或 out 的物料
func (s *InventoryStore) LowStock() []domain.InventoryItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]domain.InventoryItem, 0)
	for _, item := range s.items {
		if item.Status != domain.InventoryStatusReady {
			items = append(items, item)
		}
	}
	return items
}

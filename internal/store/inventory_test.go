package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/domain"
	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/storage"
)

func newTestInventoryStore(t *testing.T, backend storage.Backend) *InventoryStore {
	t.Helper()
	s := NewInventoryStore(backend, testOptions()...)
	require.NoError(t, s.Hydrate(context.Background(), nil))
	return s
}

func TestCreateItemDerivesStatus(t *testing.T) {
	s := newTestInventoryStore(t, storage.NewMemory())
	ctx := context.Background()

	tests := []struct {
		name      string
		quantity  int
		threshold *int
		want      domain.InventoryStatus
	}{
		{"充足", 20, nil, domain.InventoryStatusReady},
		{"默认阈值", domain.DefaultLowStockThreshold, nil, domain.InventoryStatusLow},
		{"自定义阈值", 8, ptr(10), domain.InventoryStatusLow},
		{"缺货", 0, nil, domain.InventoryStatusOut},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, err := s.CreateItem(ctx, domain.NewInventoryItem{Name: tt.name, Quantity: tt.quantity, LowStockThreshold: tt.threshold})
			require.NoError(t, err)
			assert.Equal(t, tt.want, item.Status)
		})
	}

	assert.Len(t, s.LowStock(), 3)
}

func TestUpdateItemRecomputesStatus(t *testing.T) {
	s := newTestInventoryStore(t, storage.NewMemory())
	ctx := context.Background()

	item, err := s.CreateItem(ctx, domain.NewInventoryItem{Name: "螺丝", Quantity: 100, Unit: "个"})
	require.NoError(t, err)

	item, err = s.UpdateItem(ctx, item.ID, domain.InventoryPatch{Quantity: ptr(3)})
	require.NoError(t, err)
	assert.Equal(t, domain.InventoryStatusLow, item.Status)

	item, err = s.UpdateItem(ctx, item.ID, domain.InventoryPatch{LowStockThreshold: ptr(2)})
	require.NoError(t, err)
	assert.Equal(t, domain.InventoryStatusReady, item.Status)

	_, err = s.UpdateItem(ctx, "missing", domain.InventoryPatch{Quantity: ptr(1)})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAdjustQuantity(t *testing.T) {
	s := newTestInventoryStore(t, storage.NewMemory())
	ctx := context.Background()

	item, err := s.CreateItem(ctx, domain.NewInventoryItem{Name: "滤网", Quantity: 6})
	require.NoError(t, err)

	item, err = s.AdjustQuantity(ctx, item.ID, -6)
	require.NoError(t, err)
	assert.Equal(t, 0, item.Quantity)
	assert.Equal(t, domain.InventoryStatusOut, item.Status)

	_, err = s.AdjustQuantity(ctx, item.ID, -1)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	item, err = s.AdjustQuantity(ctx, item.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, domain.InventoryStatusReady, item.Status)

	_, err = s.AdjustQuantity(ctx, "missing", 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestInventoryRoundTripAndDelete(t *testing.T) {
	backend := storage.NewMemory()
	s := newTestInventoryStore(t, backend)
	ctx := context.Background()

	a, err := s.CreateItem(ctx, domain.NewInventoryItem{Name: "A", Quantity: 1, Price: 9.5})
	require.NoError(t, err)
	_, err = s.CreateItem(ctx, domain.NewInventoryItem{Name: "B", Quantity: 50})
	require.NoError(t, err)

	reloaded := newTestInventoryStore(t, backend)
	assert.Equal(t, s.ListItems(), reloaded.ListItems())

	require.NoError(t, reloaded.DeleteItem(ctx, a.ID))
	_, ok := reloaded.GetItemByID(a.ID)
	assert.False(t, ok)
	assert.ErrorIs(t, reloaded.DeleteItem(ctx, a.ID), domain.ErrNotFound)
}

func TestInventorySeed(t *testing.T) {
	s := NewInventoryStore(storage.NewMemory(), testOptions()...)
	require.NoError(t, s.Hydrate(context.Background(), func() []domain.NewInventoryItem {
		return []domain.NewInventoryItem{{Name: "A", Quantity: 1}, {Name: "B", Quantity: 10}}
	}))
	assert.True(t, s.IsHydrated())
	assert.Len(t, s.ListItems(), 2)
}

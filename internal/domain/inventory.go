package domain

import "time"

type InventoryStatus string

const (
	InventoryStatusReady InventoryStatus = "ready"
	InventoryStatusLow   InventoryStatus = "low"
	InventoryStatusOut   InventoryStatus = "out"
)

const DefaultLowStockThreshold = 5

type InventoryItem struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	Category          string          `json:"category"`
	Quantity          int             `json:"quantity"`
	Unit              string          `json:"unit"`
	Location          string          `json:"location"`
	LowStockThreshold int             `json:"lowStockThreshold"`
	Price             float64         `json:"price"`
	RequiredFrom      string          `json:"requiredFrom"`
	Status            InventoryStatus `json:"status"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// DeriveInventoryStatus 根据数量和阈值计算库存状态
func DeriveInventoryStatus(quantity, threshold int) InventoryStatus {
	switch {
	case quantity <= 0:
		return InventoryStatusOut
	case quantity <= threshold:
		return InventoryStatusLow
	default:
		return InventoryStatusReady
	}
}

type NewInventoryItem struct {
	Name              string
	Description       string
	Category          string
	Quantity          int
	Unit              string
	Location          string
	LowStockThreshold *int
	Price             float64
	RequiredFrom      string
}

type InventoryPatch struct {
	Name              *string
	Description       *string
	Category          *string
	Quantity          *int
	Unit              *string
	Location          *string
	LowStockThreshold *int
	Price             *float64
	RequiredFrom      *string
}

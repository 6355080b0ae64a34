package models

import "time"

// MarketItemSnapshot archives one ItemSnapshot so history outlives the cache
// retention window.
type MarketItemSnapshot struct {
	ID     uint   `json:"id" gorm:"primaryKey"`
	ItemID string `json:"item_id" gorm:"size:16;index:idx_mis_item_label;not null"`
	// Collection label, e.g. 0319-1403
	Label         string `json:"label" gorm:"size:32;index:idx_mis_item_label;not null"`
	CurrentStock  int64  `json:"current_stock"`
	LastSalePrice int64  `json:"last_sale_price"`
	TotalTrades   int64  `json:"total_trades"`
	BidSalePrice  int64  `json:"bid_sale_price"`
	BidBuyPrice   int64  `json:"bid_buy_price"`
	// Source timestamp
	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

// MarketGroupCheapest archives the cheapest-in-group decision of one run.
type MarketGroupCheapest struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Group        string    `json:"group" gorm:"column:group_name;size:32;index;not null"`
	ItemID       string    `json:"item_id" gorm:"size:16;not null"`
	ItemName     string    `json:"item_name" gorm:"size:64"`
	Label        string    `json:"label" gorm:"size:32;index;not null"`
	CurrentStock int64     `json:"current_stock"`
	BidSalePrice int64     `json:"bid_sale_price"`
	CreatedAt    time.Time `json:"created_at" gorm:"index"`
}

func NewMarketItemSnapshot(label string, s ItemSnapshot, at time.Time) MarketItemSnapshot {
	return MarketItemSnapshot{
		ItemID:        s.ItemID,
		Label:         label,
		CurrentStock:  s.CurrentStock,
		LastSalePrice: s.LastSalePrice,
		TotalTrades:   s.TotalTrades,
		BidSalePrice:  s.BidSalePrice,
		BidBuyPrice:   s.BidBuyPrice,
		CreatedAt:     at,
	}
}

func NewMarketGroupCheapest(label string, g GroupCheapest, at time.Time) MarketGroupCheapest {
	return MarketGroupCheapest{
		Group:        g.Group,
		ItemID:       g.ItemID,
		ItemName:     g.ItemName,
		Label:        label,
		CurrentStock: g.CurrentStock,
		BidSalePrice: g.BidSalePrice,
		CreatedAt:    at,
	}
}

package models

import (
	"fmt"
	"strconv"
	"time"

	"bdo-market/internal/apperrors"
)

// LastSettingTimestampKey holds the label of the most recent completed
// cheapest-selection run.
const LastSettingTimestampKey = "last_setting_timestamp"

// DefaultLabelLayout formats collection timestamps as MMDD-HHMM.
const DefaultLabelLayout = "0102-1504"

// MarketSummary is one record of a category listing.
type MarketSummary struct {
	ItemID       string `json:"item_id"`
	CurrentStock int64  `json:"current_stock"`
	TotalTrades  int64  `json:"total_trades"`
	BasePrice    int64  `json:"base_price"`
}

// ItemDetail is one record of the sub-list endpoint. Items with enhancement
// levels return one record per grade range.
type ItemDetail struct {
	ItemID          string `json:"id"`
	MinEnhance      int64  `json:"min_enhance"`
	MaxEnhance      int64  `json:"max_enhance"`
	BasePrice       int64  `json:"base_price"`
	CurrentStock    int64  `json:"current_stock"`
	TotalTrades     int64  `json:"total_trades"`
	PriceHardCapMin int64  `json:"price_hardcap_min"`
	PriceHardCapMax int64  `json:"price_hardcap_max"`
	LastSalePrice   int64  `json:"last_sale_price"`
	// Unix seconds
	LastSaleTime int64 `json:"last_sale_time"`
}

func (d ItemDetail) LastSaleAt() time.Time {
	return time.Unix(d.LastSaleTime, 0)
}

// LadderLevel holds the order counts at one price level. Counts keep the
// wire representation; "0" means no orders.
type LadderLevel struct {
	SaleCount string
	BuyCount  string
}

// PriceLadder maps a price level (decimal string) to its order counts.
type PriceLadder map[string]LadderLevel

// ItemSnapshot is the per-item statistics record written once per cycle.
type ItemSnapshot struct {
	ItemID        string `json:"item_id"`
	CurrentStock  int64  `json:"current_stock"`
	LastSalePrice int64  `json:"last_sale_price"`
	TotalTrades   int64  `json:"total_trades"`
	BidSalePrice  int64  `json:"bid_sale_price"`
	BidBuyPrice   int64  `json:"bid_buy_price"`
}

// GroupCheapest is the derived record naming the cheapest qualifying item of
// a substitute group.
type GroupCheapest struct {
	Group    string `json:"group"`
	ItemName string `json:"item_name"`
	ItemSnapshot
}

func SnapshotKey(itemID, label string) string {
	return itemID + ":" + label
}

func CheapestKey(group, label string) string {
	return "cheap_" + group + ":" + label
}

var snapshotFields = []string{"current_stock", "last_sale_price", "total_trades", "bid_sale_price", "bid_buy_price"}

// Record flattens the snapshot into the cache hash layout.
func (s ItemSnapshot) Record() map[string]string {
	return map[string]string{
		"current_stock":   strconv.FormatInt(s.CurrentStock, 10),
		"last_sale_price": strconv.FormatInt(s.LastSalePrice, 10),
		"total_trades":    strconv.FormatInt(s.TotalTrades, 10),
		"bid_sale_price":  strconv.FormatInt(s.BidSalePrice, 10),
		"bid_buy_price":   strconv.FormatInt(s.BidBuyPrice, 10),
	}
}

// ParseItemSnapshot rebuilds a snapshot from its cache hash.
func ParseItemSnapshot(itemID string, record map[string]string) (ItemSnapshot, error) {
	vals := make([]int64, len(snapshotFields))
	for i, field := range snapshotFields {
		raw, ok := record[field]
		if !ok {
			return ItemSnapshot{}, apperrors.NewDecodeError("models.ParseItemSnapshot", fmt.Sprintf("item %s: missing %s", itemID, field), nil)
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return ItemSnapshot{}, apperrors.NewDecodeError("models.ParseItemSnapshot", fmt.Sprintf("item %s: %s", itemID, field), err)
		}
		vals[i] = n
	}
	return ItemSnapshot{
		ItemID:        itemID,
		CurrentStock:  vals[0],
		LastSalePrice: vals[1],
		TotalTrades:   vals[2],
		BidSalePrice:  vals[3],
		BidBuyPrice:   vals[4],
	}, nil
}

// Record flattens the cheapest record: the snapshot fields plus item id and
// display name.
func (g GroupCheapest) Record() map[string]string {
	rec := g.ItemSnapshot.Record()
	rec["item_id"] = g.ItemID
	rec["item_name"] = g.ItemName
	return rec
}

// ParseGroupCheapest rebuilds a cheapest record from its cache hash.
func ParseGroupCheapest(group string, record map[string]string) (GroupCheapest, error) {
	snap, err := ParseItemSnapshot(record["item_id"], record)
	if err != nil {
		return GroupCheapest{}, err
	}
	return GroupCheapest{Group: group, ItemName: record["item_name"], ItemSnapshot: snap}, nil
}

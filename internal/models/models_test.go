package models

import (
	"testing"
	"time"

	"bdo-market/internal/apperrors"
)

func TestSnapshotRecordRoundTrip(t *testing.T) {
	snap := ItemSnapshot{ItemID: "6214", CurrentStock: 15000, LastSalePrice: 480, TotalTrades: 912345, BidSalePrice: 500, BidBuyPrice: 470}
	rec := snap.Record()
	if len(rec) != 5 {
		t.Fatalf("record has %d fields, want 5", len(rec))
	}
	got, err := ParseItemSnapshot("6214", rec)
	if err != nil {
		t.Fatal(err)
	}
	if got != snap {
		t.Fatalf("got %+v, want %+v", got, snap)
	}
}

func TestParseItemSnapshotRejectsBadRecords(t *testing.T) {
	rec := ItemSnapshot{ItemID: "1"}.Record()
	delete(rec, "bid_buy_price")
	if _, err := ParseItemSnapshot("1", rec); !apperrors.IsDecodeError(err) {
		t.Fatalf("missing field: expected decode error, got %v", err)
	}

	rec = ItemSnapshot{ItemID: "1"}.Record()
	rec["current_stock"] = "n/a"
	if _, err := ParseItemSnapshot("1", rec); !apperrors.IsDecodeError(err) {
		t.Fatalf("bad number: expected decode error, got %v", err)
	}
}

func TestGroupCheapestRecord(t *testing.T) {
	g := GroupCheapest{
		Group:        "wolf",
		ItemName:     "늑대 피",
		ItemSnapshot: ItemSnapshot{ItemID: "6214", CurrentStock: 20000, BidSalePrice: 510},
	}
	rec := g.Record()
	if rec["item_name"] != "늑대 피" || rec["item_id"] != "6214" || rec["bid_sale_price"] != "510" {
		t.Fatalf("unexpected record %v", rec)
	}
	back, err := ParseGroupCheapest("wolf", rec)
	if err != nil {
		t.Fatal(err)
	}
	if back != g {
		t.Fatalf("got %+v, want %+v", back, g)
	}
}

func TestKeys(t *testing.T) {
	if got := SnapshotKey("6214", "0319-1403"); got != "6214:0319-1403" {
		t.Fatalf("SnapshotKey = %s", got)
	}
	if got := CheapestKey("wolf", "0319-1403"); got != "cheap_wolf:0319-1403" {
		t.Fatalf("CheapestKey = %s", got)
	}
	at := time.Date(2026, 3, 19, 14, 3, 0, 0, time.UTC)
	if got := at.Format(DefaultLabelLayout); got != "0319-1403" {
		t.Fatalf("label = %s", got)
	}
}

func TestArchiveRows(t *testing.T) {
	at := time.Date(2026, 3, 19, 14, 3, 0, 0, time.UTC)
	row := NewMarketItemSnapshot("0319-1403", ItemSnapshot{ItemID: "7913", CurrentStock: 3, BidSalePrice: 9}, at)
	if row.ItemID != "7913" || row.Label != "0319-1403" || row.BidSalePrice != 9 || !row.CreatedAt.Equal(at) {
		t.Fatalf("unexpected row %+v", row)
	}
	g := NewMarketGroupCheapest("0319-1403", GroupCheapest{Group: "meat", ItemName: "늑대 고기", ItemSnapshot: ItemSnapshot{ItemID: "7913"}}, at)
	if g.Group != "meat" || g.ItemID != "7913" || g.ItemName != "늑대 고기" {
		t.Fatalf("unexpected row %+v", g)
	}
}

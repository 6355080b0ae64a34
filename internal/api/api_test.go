package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"bdo-market/internal/cache"
	"bdo-market/internal/config"
	"bdo-market/internal/models"

	"github.com/gin-gonic/gin"
)

const label = "0319-1403"

type fakeHistory struct {
	items []models.MarketItemSnapshot
}

func (f *fakeHistory) ItemHistory(_ context.Context, itemID string, limit int) ([]models.MarketItemSnapshot, error) {
	var out []models.MarketItemSnapshot
	for _, r := range f.items {
		if r.ItemID == itemID && len(out) < limit {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeHistory) GroupHistory(context.Context, string, int) ([]models.MarketGroupCheapest, error) {
	return nil, nil
}

func newRouter(t *testing.T, history History) (*gin.Engine, *cache.MemoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := cache.NewMemoryStore()
	r := gin.New()
	SetupRoutes(r.Group("/api/v1"), store, config.DefaultTables(), history)
	return r, store
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	r.ServeHTTP(w, req)
	return w
}

type envelope[T any] struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data T      `json:"data"`
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var env envelope[T]
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return env.Data
}

func TestGetItemSnapshot(t *testing.T) {
	r, store := newRouter(t, nil)
	snap := models.ItemSnapshot{ItemID: "7913", CurrentStock: 15000, LastSalePrice: 470, TotalTrades: 912345, BidSalePrice: 490, BidBuyPrice: 470}
	if err := store.SetRecord(context.Background(), models.SnapshotKey("7913", label), snap.Record(), 0); err != nil {
		t.Fatal(err)
	}

	w := get(r, "/api/v1/items/7913?ts="+label)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	data := decode[struct {
		TS       string              `json:"ts"`
		ItemName string              `json:"item_name"`
		Snapshot models.ItemSnapshot `json:"snapshot"`
	}](t, w)
	if data.TS != label || data.ItemName != "늑대 고기" || data.Snapshot != snap {
		t.Fatalf("data = %+v", data)
	}
}

func TestGetItemSnapshotDefaultsToLastRun(t *testing.T) {
	r, store := newRouter(t, nil)

	// no completed run yet
	if w := get(r, "/api/v1/items/7913"); w.Code != http.StatusNotFound {
		t.Fatalf("status %d, want 404", w.Code)
	}

	ctx := context.Background()
	_ = store.SetScalar(ctx, models.LastSettingTimestampKey, label, 0)
	_ = store.SetRecord(ctx, models.SnapshotKey("7913", label), models.ItemSnapshot{ItemID: "7913", CurrentStock: 1}.Record(), 0)

	if w := get(r, "/api/v1/items/7913"); w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	if w := get(r, "/api/v1/items/7961"); w.Code != http.StatusNotFound {
		t.Fatalf("status %d, want 404", w.Code)
	}
}

func TestCheapestRoutes(t *testing.T) {
	r, store := newRouter(t, nil)
	ctx := context.Background()
	g := models.GroupCheapest{
		Group:        "meat",
		ItemName:     "가젤 고기",
		ItemSnapshot: models.ItemSnapshot{ItemID: "7925", CurrentStock: 30000, BidSalePrice: 410},
	}
	_ = store.SetRecord(ctx, models.CheapestKey("meat", label), g.Record(), 0)
	_ = store.SetScalar(ctx, models.LastSettingTimestampKey, label, 0)

	w := get(r, "/api/v1/cheapest/meat")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	one := decode[struct {
		Cheapest models.GroupCheapest `json:"cheapest"`
	}](t, w)
	if one.Cheapest != g {
		t.Fatalf("cheapest = %+v, want %+v", one.Cheapest, g)
	}

	if w := get(r, "/api/v1/cheapest/wolf"); w.Code != http.StatusNotFound {
		t.Fatalf("missing record: status %d", w.Code)
	}
	if w := get(r, "/api/v1/cheapest/unicorn"); w.Code != http.StatusNotFound {
		t.Fatalf("unknown group: status %d", w.Code)
	}

	w = get(r, "/api/v1/cheapest")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	all := decode[struct {
		Groups  map[string]models.GroupCheapest `json:"groups"`
		Missing []string                        `json:"missing"`
	}](t, w)
	if len(all.Groups) != 1 || all.Groups["meat"].ItemID != "7925" {
		t.Fatalf("groups = %+v", all.Groups)
	}
	if len(all.Missing) != len(config.DefaultTables().Groups)-1 {
		t.Fatalf("missing = %v", all.Missing)
	}
}

func TestListCategoriesAndGroups(t *testing.T) {
	r, _ := newRouter(t, nil)

	cats := decode[[]struct {
		Key          string `json:"key"`
		MainCategory int    `json:"main_category"`
		SubCategory  int    `json:"sub_category"`
	}](t, get(r, "/api/v1/categories"))
	if len(cats) != 13 || cats[0].Key != "blood" {
		t.Fatalf("categories = %+v", cats)
	}

	groups := decode[[]struct {
		Group   string `json:"group"`
		Members []struct {
			ItemID string `json:"item_id"`
		} `json:"members"`
	}](t, get(r, "/api/v1/groups"))
	if len(groups) != 9 || groups[0].Group != "bear" {
		t.Fatalf("groups = %+v", groups)
	}
}

func TestHistoryRoutes(t *testing.T) {
	r, _ := newRouter(t, nil)
	if w := get(r, "/api/v1/items/7913/history"); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status %d, want 503", w.Code)
	}

	history := &fakeHistory{items: []models.MarketItemSnapshot{
		{ItemID: "7913", Label: "0319-1358", BidSalePrice: 480},
		{ItemID: "7913", Label: label, BidSalePrice: 490},
		{ItemID: "7961", Label: label, BidSalePrice: 350},
	}}
	r, _ = newRouter(t, history)
	rows := decode[[]models.MarketItemSnapshot](t, get(r, "/api/v1/items/7913/history?limit=10"))
	if len(rows) != 2 || rows[1].BidSalePrice != 490 {
		t.Fatalf("rows = %+v", rows)
	}
	if w := get(r, "/api/v1/groups/unicorn/history"); w.Code != http.StatusNotFound {
		t.Fatalf("status %d, want 404", w.Code)
	}
}

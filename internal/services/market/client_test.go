package market

import (
	"context"
	"net/http"
	"testing"
	"time"

	"bdo-market/internal/apperrors"
	"bdo-market/internal/config"
	"bdo-market/internal/logger"
	"bdo-market/internal/services/market/markettest"
)

func newTestClient(t *testing.T) (*Client, *markettest.Server) {
	t.Helper()
	srv := markettest.NewServer()
	t.Cleanup(srv.Close)
	c := NewClient(srv.URL, config.DefaultTables(), markettest.PlainText{},
		WithTimeout(2*time.Second), WithLogger(logger.Discard()))
	return c, srv
}

func TestMarketList(t *testing.T) {
	c, srv := newTestClient(t)
	srv.SetListing(25, 6, "7913-15000-912345-480|7961-200-1500-350|")

	got, err := c.MarketList(context.Background(), "meat")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got["7913"].TotalTrades != 912345 || got["7961"].CurrentStock != 200 {
		t.Fatalf("unexpected listing %+v", got)
	}
}

func TestMarketListErrors(t *testing.T) {
	c, srv := newTestClient(t)
	ctx := context.Background()

	if _, err := c.MarketList(ctx, "weapons"); !apperrors.IsConfigError(err) {
		t.Fatalf("unknown category: expected config error, got %v", err)
	}

	srv.Fail("GetWorldMarketList", markettest.ListingKey(25, 6), http.StatusServiceUnavailable)
	if _, err := c.MarketList(ctx, "meat"); !apperrors.IsTransportError(err) {
		t.Fatalf("503: expected transport error, got %v", err)
	}

	srv.SetListing(25, 5, "6214-15000|")
	if _, err := c.MarketList(ctx, "blood"); !apperrors.IsDecodeError(err) {
		t.Fatalf("short record: expected decode error, got %v", err)
	}
}

func TestItemDetail(t *testing.T) {
	c, srv := newTestClient(t)
	srv.SetDetail("7913", "7913-0-0-480-15000-912345-300-700-470-1773900000|")

	d, err := c.ItemDetail(context.Background(), "7913", 0)
	if err != nil {
		t.Fatal(err)
	}
	if d.ItemID != "7913" || d.CurrentStock != 15000 || d.LastSalePrice != 470 || d.PriceHardCapMax != 700 {
		t.Fatalf("unexpected detail %+v", d)
	}
	if d.LastSaleAt().Unix() != 1773900000 {
		t.Fatalf("last sale time = %v", d.LastSaleAt())
	}
}

func TestItemDetailPicksGrade(t *testing.T) {
	c, srv := newTestClient(t)
	srv.SetDetail("11101", "11101-0-7-1000-5-10-900-1100-990-1|11101-8-8-3000-2-4-2700-3300-3100-2|")

	d, err := c.ItemDetail(context.Background(), "11101", 8)
	if err != nil {
		t.Fatal(err)
	}
	if d.BasePrice != 3000 {
		t.Fatalf("grade 8 detail = %+v", d)
	}
	d, err = c.ItemDetail(context.Background(), "11101", 3)
	if err != nil {
		t.Fatal(err)
	}
	if d.BasePrice != 1000 {
		t.Fatalf("fallback detail = %+v", d)
	}
}

func TestItemDetailErrors(t *testing.T) {
	c, srv := newTestClient(t)
	ctx := context.Background()

	srv.SetDetail("7913", "7913-0-0-480|")
	if _, err := c.ItemDetail(ctx, "7913", 0); !apperrors.IsDecodeError(err) {
		t.Fatalf("expected decode error, got %v", err)
	}

	if _, err := c.ItemDetail(ctx, "abc", 0); !apperrors.IsConfigError(err) {
		t.Fatalf("expected config error, got %v", err)
	}

	if _, err := c.ItemDetail(ctx, "1", 0); !apperrors.IsTransportError(err) {
		t.Fatalf("404: expected transport error, got %v", err)
	}
}

func TestParseSubListEnvelope(t *testing.T) {
	if _, err := parseSubList([]byte("not json")); !apperrors.IsParseError(err) {
		t.Fatalf("expected parse error, got %v", err)
	}
	if _, err := parseSubList([]byte(`{"resultCode":0}`)); !apperrors.IsParseError(err) {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestBiddingPrices(t *testing.T) {
	c, srv := newTestClient(t)
	srv.SetLadder("7913", "460-0-12|470-0-5|480-0-0|490-31-0|500-8-0|")

	ask, bid, err := c.BiddingPrices(context.Background(), "7913", 0)
	if err != nil {
		t.Fatal(err)
	}
	if ask != "490" || bid != "470" {
		t.Fatalf("ask/bid = %s/%s, want 490/470", ask, bid)
	}
}

func TestBiddingPricesTransportError(t *testing.T) {
	c, srv := newTestClient(t)
	srv.Fail("GetBiddingInfoList", "7913", http.StatusInternalServerError)
	if _, _, err := c.BiddingPrices(context.Background(), "7913", 0); !apperrors.IsTransportError(err) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

type failingUnpacker struct{}

func (failingUnpacker) Unpack([]byte) (string, error) { return "", context.DeadlineExceeded }

func TestUnpackFailureIsDecodeError(t *testing.T) {
	srv := markettest.NewServer()
	defer srv.Close()
	srv.SetLadder("7913", "anything")
	c := NewClient(srv.URL, config.DefaultTables(), failingUnpacker{}, WithLogger(logger.Discard()))
	if _, _, err := c.BiddingPrices(context.Background(), "7913", 0); !apperrors.IsDecodeError(err) {
		t.Fatalf("expected decode error, got %v", err)
	}
}

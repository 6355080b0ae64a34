package market

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"bdo-market/internal/apperrors"
	"bdo-market/internal/models"
)

type mainKeyPayload struct {
	KeyType int `json:"keyType"`
	MainKey int `json:"mainKey"`
}

// The sub-list endpoint answers in plain JSON; only resultMsg is encoded.
type subListResponse struct {
	ResultCode int     `json:"resultCode"`
	ResultMsg  *string `json:"resultMsg"`
}

func mainKey(op, itemID string) (int, error) {
	id, err := strconv.Atoi(itemID)
	if err != nil {
		return 0, apperrors.NewConfigError(op, fmt.Sprintf("item id %q is not numeric", itemID), err)
	}
	return id, nil
}

// MarketSubList fetches every detail record (one per enhancement range) of
// an item.
func (c *Client) MarketSubList(ctx context.Context, itemID string) ([]models.ItemDetail, error) {
	id, err := mainKey("market.MarketSubList", itemID)
	if err != nil {
		return nil, err
	}

	body, err := c.post(ctx, DetailGrammar.Endpoint, mainKeyPayload{KeyType: 0, MainKey: id})
	if err != nil {
		return nil, fmt.Errorf("item %s: %w", itemID, err)
	}
	details, err := parseSubList(body)
	if err != nil {
		return nil, fmt.Errorf("item %s: %w", itemID, err)
	}
	return details, nil
}

// ItemDetail returns the detail record covering grade, or the first record
// when no range starts at grade.
func (c *Client) ItemDetail(ctx context.Context, itemID string, grade int) (models.ItemDetail, error) {
	details, err := c.MarketSubList(ctx, itemID)
	if err != nil {
		return models.ItemDetail{}, err
	}
	for _, d := range details {
		if d.MinEnhance == int64(grade) {
			return d, nil
		}
	}
	return details[0], nil
}

func parseSubList(body []byte) ([]models.ItemDetail, error) {
	var resp subListResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, apperrors.NewParseError("market.GetWorldMarketSubList", "malformed response envelope", err)
	}
	if resp.ResultMsg == nil {
		return nil, apperrors.NewParseError("market.GetWorldMarketSubList", "response has no resultMsg", nil)
	}

	var out []models.ItemDetail
	for rec, err := range Decode(*resp.ResultMsg, DetailGrammar) {
		if err != nil {
			return nil, err
		}
		d, err := detailFromRecord(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func detailFromRecord(rec Record) (models.ItemDetail, error) {
	d := models.ItemDetail{ItemID: rec.Get("id")}
	targets := []struct {
		field string
		dst   *int64
	}{
		{"min_enhance", &d.MinEnhance},
		{"max_enhance", &d.MaxEnhance},
		{"base_price", &d.BasePrice},
		{"current_stock", &d.CurrentStock},
		{"total_trades", &d.TotalTrades},
		{"price_hardcap_min", &d.PriceHardCapMin},
		{"price_hardcap_max", &d.PriceHardCapMax},
		{"last_sale_price", &d.LastSalePrice},
		{"last_sale_time", &d.LastSaleTime},
	}
	for _, t := range targets {
		n, err := rec.Int(t.field)
		if err != nil {
			return models.ItemDetail{}, err
		}
		*t.dst = n
	}
	return d, nil
}

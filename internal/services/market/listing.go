package market

import (
	"context"
	"fmt"

	"bdo-market/internal/models"
)

// MarketList fetches a category listing and returns the summaries keyed by
// item id.
func (c *Client) MarketList(ctx context.Context, category string) (map[string]models.MarketSummary, error) {
	payload, err := c.tables.Category(category)
	if err != nil {
		return nil, err
	}

	text, err := c.postUnpacked(ctx, ListingGrammar.Endpoint, payload)
	if err != nil {
		return nil, fmt.Errorf("category %s: %w", category, err)
	}

	out, err := parseListing(text)
	if err != nil {
		return nil, fmt.Errorf("category %s: %w", category, err)
	}
	return out, nil
}

func parseListing(text string) (map[string]models.MarketSummary, error) {
	out := make(map[string]models.MarketSummary)
	for rec, err := range Decode(text, ListingGrammar) {
		if err != nil {
			return nil, err
		}
		s := models.MarketSummary{ItemID: rec.Get("item_id")}
		if s.CurrentStock, err = rec.Int("current_stock"); err != nil {
			return nil, err
		}
		if s.TotalTrades, err = rec.Int("total_trades"); err != nil {
			return nil, err
		}
		if s.BasePrice, err = rec.Int("base_price"); err != nil {
			return nil, err
		}
		out[s.ItemID] = s
	}
	return out, nil
}

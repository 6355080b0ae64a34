package market

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"bdo-market/internal/apperrors"
	"bdo-market/internal/models"
)

// LadderOrder decides how price levels are compared when picking ask/bid.
//
// LadderLexical compares the level strings, so "9" sorts after "100" and the
// all-empty fallback returns the lexicographic extreme. Stored history was
// produced this way; LadderNumeric compares the values as integers.
type LadderOrder string

const (
	LadderLexical LadderOrder = "lexical"
	LadderNumeric LadderOrder = "numeric"
)

func ParseLadderOrder(s string) (LadderOrder, error) {
	switch LadderOrder(s) {
	case LadderLexical, "":
		return LadderLexical, nil
	case LadderNumeric:
		return LadderNumeric, nil
	}
	return "", apperrors.NewConfigError("market.ParseLadderOrder", fmt.Sprintf("unknown ladder order %q", s), nil)
}

type mainSubKeyPayload struct {
	KeyType int `json:"keyType"`
	MainKey int `json:"mainKey"`
	SubKey  int `json:"subKey"`
}

// BiddingLadder fetches the order ladder of an item at an enhancement grade.
func (c *Client) BiddingLadder(ctx context.Context, itemID string, grade int) (models.PriceLadder, error) {
	id, err := mainKey("market.BiddingLadder", itemID)
	if err != nil {
		return nil, err
	}
	text, err := c.postUnpacked(ctx, BiddingGrammar.Endpoint, mainSubKeyPayload{KeyType: 0, MainKey: id, SubKey: grade})
	if err != nil {
		return nil, fmt.Errorf("item %s grade %d: %w", itemID, grade, err)
	}
	ladder, err := parseLadder(text)
	if err != nil {
		return nil, fmt.Errorf("item %s grade %d: %w", itemID, grade, err)
	}
	return ladder, nil
}

// BiddingPrices returns the lowest ask and highest bid of an item's ladder.
func (c *Client) BiddingPrices(ctx context.Context, itemID string, grade int) (ask, bid string, err error) {
	ladder, err := c.BiddingLadder(ctx, itemID, grade)
	if err != nil {
		return "", "", err
	}
	return LowestAsk(ladder, c.order), HighestBid(ladder, c.order), nil
}

func parseLadder(text string) (models.PriceLadder, error) {
	ladder := make(models.PriceLadder)
	for rec, err := range Decode(text, BiddingGrammar) {
		if err != nil {
			return nil, err
		}
		for _, field := range BiddingGrammar.Fields {
			if _, err := rec.Int(field); err != nil {
				return nil, err
			}
		}
		ladder[rec.Get("price_level")] = models.LadderLevel{
			SaleCount: rec.Get("sale_count"),
			BuyCount:  rec.Get("buy_count"),
		}
	}
	return ladder, nil
}

// sortedLevels returns the ladder's price levels in ascending order.
func sortedLevels(ladder models.PriceLadder, order LadderOrder) []string {
	levels := make([]string, 0, len(ladder))
	for level := range ladder {
		levels = append(levels, level)
	}
	if order == LadderNumeric {
		sort.Slice(levels, func(i, j int) bool {
			a, _ := strconv.ParseInt(levels[i], 10, 64)
			b, _ := strconv.ParseInt(levels[j], 10, 64)
			return a < b
		})
	} else {
		sort.Strings(levels)
	}
	return levels
}

// LowestAsk returns the lowest level with sell orders. With no sell orders
// at all it returns the highest level under the same ordering.
func LowestAsk(ladder models.PriceLadder, order LadderOrder) string {
	levels := sortedLevels(ladder, order)
	if len(levels) == 0 {
		return ""
	}
	for _, level := range levels {
		if ladder[level].SaleCount != "0" {
			return level
		}
	}
	return levels[len(levels)-1]
}

// HighestBid returns the highest level with buy orders. With no buy orders
// at all it returns the lowest level under the same ordering.
func HighestBid(ladder models.PriceLadder, order LadderOrder) string {
	levels := sortedLevels(ladder, order)
	if len(levels) == 0 {
		return ""
	}
	for i := len(levels) - 1; i >= 0; i-- {
		if ladder[levels[i]].BuyCount != "0" {
			return levels[i]
		}
	}
	return levels[0]
}

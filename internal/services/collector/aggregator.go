// Package collector turns market responses into cached per-item snapshots
// and derives the cheapest item of each substitute group.
package collector

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"bdo-market/internal/apperrors"
	"bdo-market/internal/cache"
	"bdo-market/internal/models"
)

// Market is the part of market.Client the collector needs.
type Market interface {
	MarketList(ctx context.Context, category string) (map[string]models.MarketSummary, error)
	ItemDetail(ctx context.Context, itemID string, grade int) (models.ItemDetail, error)
	BiddingPrices(ctx context.Context, itemID string, grade int) (ask, bid string, err error)
}

// Archive receives a copy of every written record. Optional.
type Archive interface {
	SaveItemSnapshot(ctx context.Context, label string, snap models.ItemSnapshot) error
	SaveGroupCheapest(ctx context.Context, label string, g models.GroupCheapest) error
}

type Settings struct {
	// Concurrent items per category; 1 fetches sequentially.
	Workers int
	// Expiry of every cache write.
	Retention time.Duration
	// Minimum stock (exclusive) for an item to compete for cheapest.
	StockThreshold int64
	// Enhancement grade used for detail and bidding queries.
	Grade int
}

func DefaultSettings() Settings {
	return Settings{
		Workers:        10,
		Retention:      48 * time.Hour,
		StockThreshold: 10000,
		Grade:          0,
	}
}

// ItemFailure records an item skipped during aggregation.
type ItemFailure struct {
	ItemID string
	Err    error
}

// Report summarises one category run.
type Report struct {
	Category string
	Label    string
	Written  []string
	Failed   []ItemFailure
	Elapsed  time.Duration
}

type Aggregator struct {
	market   Market
	store    cache.Store
	archive  Archive
	settings Settings
	logger   *slog.Logger
}

// NewAggregator wires the aggregator; archive may be nil.
func NewAggregator(market Market, store cache.Store, archive Archive, settings Settings, logger *slog.Logger) *Aggregator {
	if settings.Workers < 1 {
		settings.Workers = 1
	}
	return &Aggregator{
		market:   market,
		store:    store,
		archive:  archive,
		settings: settings,
		logger:   logger,
	}
}

// Collect lists a category and writes one snapshot per listed item under
// label. Item failures are logged and reported, not returned; listing
// failures abort the category.
func (a *Aggregator) Collect(ctx context.Context, category, label string) (*Report, error) {
	ids, err := a.ItemIDs(ctx, category)
	if err != nil {
		return nil, err
	}
	return a.CollectItems(ctx, category, ids, label)
}

// ItemIDs returns the sorted item ids of a category listing.
func (a *Aggregator) ItemIDs(ctx context.Context, category string) ([]string, error) {
	listing, err := a.market.MarketList(ctx, category)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(listing))
	for id := range listing {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// CollectItems fetches, merges and writes each item with at most
// Settings.Workers in flight. It returns early only if ctx is cancelled.
func (a *Aggregator) CollectItems(ctx context.Context, category string, ids []string, label string) (*Report, error) {
	start := time.Now()
	report := &Report{Category: category, Label: label}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(a.settings.Workers)

	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			err := a.collectItem(ctx, id, label)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failed = append(report.Failed, ItemFailure{ItemID: id, Err: err})
				a.logger.Error("item skipped", "category", category, "item_id", id, "label", label,
					"error_type", string(apperrors.TypeOf(err)), "error", err)
				return nil
			}
			report.Written = append(report.Written, id)
			return nil
		})
	}
	_ = g.Wait()

	sort.Strings(report.Written)
	sort.Slice(report.Failed, func(i, j int) bool { return report.Failed[i].ItemID < report.Failed[j].ItemID })
	report.Elapsed = time.Since(start)

	a.logger.Info("category collected", "category", category, "label", label,
		"written", len(report.Written), "failed", len(report.Failed), "elapsed", report.Elapsed)

	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("category %s: %w", category, err)
	}
	return report, nil
}

func (a *Aggregator) collectItem(ctx context.Context, itemID, label string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	snap, err := a.Snapshot(ctx, itemID)
	if err != nil {
		return err
	}

	if err := a.store.SetRecord(ctx, models.SnapshotKey(itemID, label), snap.Record(), a.settings.Retention); err != nil {
		return err
	}
	if a.archive != nil {
		if err := a.archive.SaveItemSnapshot(ctx, label, snap); err != nil {
			a.logger.Warn("archive write failed", "item_id", itemID, "label", label, "error", err)
		}
	}
	return nil
}

// Snapshot fetches the detail and bidding ladder of one item and merges them.
func (a *Aggregator) Snapshot(ctx context.Context, itemID string) (models.ItemSnapshot, error) {
	detail, err := a.market.ItemDetail(ctx, itemID, a.settings.Grade)
	if err != nil {
		return models.ItemSnapshot{}, err
	}
	ask, bid, err := a.market.BiddingPrices(ctx, itemID, a.settings.Grade)
	if err != nil {
		return models.ItemSnapshot{}, err
	}

	askPrice, err := strconv.ParseInt(ask, 10, 64)
	if err != nil {
		return models.ItemSnapshot{}, apperrors.NewDecodeError("collector.Snapshot", fmt.Sprintf("item %s: ask %q", itemID, ask), err)
	}
	bidPrice, err := strconv.ParseInt(bid, 10, 64)
	if err != nil {
		return models.ItemSnapshot{}, apperrors.NewDecodeError("collector.Snapshot", fmt.Sprintf("item %s: bid %q", itemID, bid), err)
	}

	return models.ItemSnapshot{
		ItemID:        itemID,
		CurrentStock:  detail.CurrentStock,
		LastSalePrice: detail.LastSalePrice,
		TotalTrades:   detail.TotalTrades,
		BidSalePrice:  askPrice,
		BidBuyPrice:   bidPrice,
	}, nil
}

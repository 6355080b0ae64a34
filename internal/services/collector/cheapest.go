package collector

import (
	"context"
	"fmt"
	"log/slog"

	"bdo-market/internal/cache"
	"bdo-market/internal/config"
	"bdo-market/internal/models"
)

// candidate is the best qualifying member seen so far; ok is false until one
// member passes the stock filter.
type candidate struct {
	ok   bool
	snap models.ItemSnapshot
}

func (c candidate) beats(s models.ItemSnapshot) bool {
	return c.ok && c.snap.BidSalePrice <= s.BidSalePrice
}

// pickCheapest returns the lowest-ask member whose stock exceeds threshold,
// or the first member when none does. Ties keep the earlier member.
func pickCheapest(members []models.ItemSnapshot, threshold int64) models.ItemSnapshot {
	var best candidate
	for _, s := range members {
		if s.CurrentStock > threshold && !best.beats(s) {
			best = candidate{ok: true, snap: s}
		}
	}
	if !best.ok {
		return members[0]
	}
	return best.snap
}

type Selector struct {
	store    cache.Store
	tables   *config.Tables
	archive  Archive
	settings Settings
	logger   *slog.Logger
}

// NewSelector wires the selector; archive may be nil.
func NewSelector(store cache.Store, tables *config.Tables, archive Archive, settings Settings, logger *slog.Logger) *Selector {
	return &Selector{
		store:    store,
		tables:   tables,
		archive:  archive,
		settings: settings,
		logger:   logger,
	}
}

// SelectCheapest reads every group member's snapshot at label, picks one item
// per group, writes the cheap_<group> records and then marks label as the
// last completed run. A missing snapshot fails the whole run before anything
// is written.
func (s *Selector) SelectCheapest(ctx context.Context, label string) (map[string]models.GroupCheapest, error) {
	out := make(map[string]models.GroupCheapest, len(s.tables.Groups))
	for _, group := range s.tables.GroupNames() {
		g, err := s.groupCheapest(ctx, group, label)
		if err != nil {
			return nil, err
		}
		out[group] = g
	}

	for _, group := range s.tables.GroupNames() {
		g := out[group]
		if err := s.store.SetRecord(ctx, models.CheapestKey(group, label), g.Record(), s.settings.Retention); err != nil {
			return nil, fmt.Errorf("group %s: %w", group, err)
		}
		if s.archive != nil {
			if err := s.archive.SaveGroupCheapest(ctx, label, g); err != nil {
				s.logger.Warn("archive write failed", "group", group, "label", label, "error", err)
			}
		}
		s.logger.Debug("cheapest selected", "group", group, "item_id", g.ItemID, "item_name", g.ItemName,
			"bid_sale_price", g.BidSalePrice, "current_stock", g.CurrentStock)
	}

	if err := s.store.SetScalar(ctx, models.LastSettingTimestampKey, label, s.settings.Retention); err != nil {
		return nil, err
	}
	s.logger.Info("cheapest records written", "label", label, "groups", len(out))
	return out, nil
}

func (s *Selector) groupCheapest(ctx context.Context, group, label string) (models.GroupCheapest, error) {
	members := s.tables.Groups[group]
	snaps := make([]models.ItemSnapshot, 0, len(members))
	for _, id := range members {
		rec, err := s.store.GetRecord(ctx, models.SnapshotKey(id, label))
		if err != nil {
			return models.GroupCheapest{}, fmt.Errorf("group %s: %w", group, err)
		}
		snap, err := models.ParseItemSnapshot(id, rec)
		if err != nil {
			return models.GroupCheapest{}, fmt.Errorf("group %s: %w", group, err)
		}
		snaps = append(snaps, snap)
	}

	best := pickCheapest(snaps, s.settings.StockThreshold)
	name, err := s.tables.Name(best.ItemID)
	if err != nil {
		return models.GroupCheapest{}, err
	}
	return models.GroupCheapest{Group: group, ItemName: name, ItemSnapshot: best}, nil
}

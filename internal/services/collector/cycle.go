package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"bdo-market/internal/models"
)

// State is the stage a collection cycle is in.
type State int32

const (
	StateIdle State = iota
	StateFetching
	StateAggregating
	StateDeriving
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateAggregating:
		return "aggregating"
	case StateDeriving:
		return "deriving"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// CycleReport is the outcome of one Run.
type CycleReport struct {
	Label      string
	Categories []*Report
	// Categories whose listing failed, keyed by category.
	Failed   map[string]error
	Cheapest map[string]models.GroupCheapest
	Elapsed  time.Duration
}

// Cycle runs every category through the aggregator, waits for all of them,
// then runs the cheapest selection.
type Cycle struct {
	aggregator *Aggregator
	selector   *Selector
	categories []string
	logger     *slog.Logger

	state   atomic.Int32
	running atomic.Bool
}

func NewCycle(aggregator *Aggregator, selector *Selector, categories []string, logger *slog.Logger) *Cycle {
	return &Cycle{
		aggregator: aggregator,
		selector:   selector,
		categories: categories,
		logger:     logger,
	}
}

func (c *Cycle) State() State { return State(c.state.Load()) }

func (c *Cycle) setState(s State) { c.state.Store(int32(s)) }

var ErrCycleRunning = errors.New("collection cycle already running")

// Run collects every category under label. Category failures are logged and
// joined into the returned error; they do not stop other categories or the
// deriving stage, which fails on its own if it lacks snapshots.
func (c *Cycle) Run(ctx context.Context, label string) (*CycleReport, error) {
	if !c.running.CompareAndSwap(false, true) {
		return nil, ErrCycleRunning
	}
	defer c.running.Store(false)
	defer c.setState(StateIdle)

	start := time.Now()
	report := &CycleReport{Label: label, Failed: make(map[string]error)}
	var errs []error

	for _, category := range c.categories {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		c.setState(StateFetching)
		ids, err := c.aggregator.ItemIDs(ctx, category)
		if err != nil {
			c.logger.Error("category listing failed", "category", category, "label", label, "error", err)
			report.Failed[category] = err
			errs = append(errs, err)
			continue
		}

		c.setState(StateAggregating)
		catReport, err := c.aggregator.CollectItems(ctx, category, ids, label)
		if catReport != nil {
			report.Categories = append(report.Categories, catReport)
		}
		if err != nil {
			return report, err
		}
	}

	c.setState(StateDeriving)
	cheapest, err := c.selector.SelectCheapest(ctx, label)
	if err != nil {
		c.logger.Error("cheapest selection failed", "label", label, "error", err)
		errs = append(errs, fmt.Errorf("derive cheapest: %w", err))
	}
	report.Cheapest = cheapest
	report.Elapsed = time.Since(start)

	c.logger.Info("collection cycle finished", "label", label, "categories", len(report.Categories),
		"failed_categories", len(report.Failed), "elapsed", report.Elapsed)
	return report, errors.Join(errs...)
}

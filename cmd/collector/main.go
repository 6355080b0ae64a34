package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"bdo-market/internal/cache"
	"bdo-market/internal/config"
	"bdo-market/internal/database"
	"bdo-market/internal/logger"
	"bdo-market/internal/services/collector"
	"bdo-market/internal/services/market"
	"bdo-market/internal/services/unpack"
)

var (
	interval   = flag.Duration("interval", 0, "collection interval (default COLLECT_INTERVAL)")
	once       = flag.Bool("once", false, "run a single cycle and exit")
	categories = flag.String("category", "", "comma separated categories to collect (default all)")
	dryRun     = flag.Bool("dry-run", false, "write to an in-memory store instead of redis")
)

func main() {
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	cfg := config.Load()
	if *interval > 0 {
		cfg.Interval = *interval
	}

	lg, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}

	if err := run(cfg, lg); err != nil {
		lg.Error("collector stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, lg *slog.Logger) error {
	tables, err := config.LoadTables(cfg.TablesFile)
	if err != nil {
		return err
	}
	order, err := market.ParseLadderOrder(cfg.LadderOrder)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store cache.Store
	if *dryRun {
		store = cache.NewMemoryStore()
	} else {
		rs, err := cache.NewRedisStore(ctx, cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return err
		}
		store = rs
	}
	defer store.Close()

	var archive collector.Archive
	if cfg.DatabaseURL != "" && !*dryRun {
		db, err := database.Initialize(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		archive = database.NewArchive(db)
	}

	client := market.NewClient(cfg.MarketBaseURL, tables, unpack.Huffman{},
		market.WithTimeout(cfg.MarketTimeout),
		market.WithUserAgent(cfg.UserAgent),
		market.WithLadderOrder(order),
		market.WithLogger(lg),
	)

	settings := collector.Settings{
		Workers:        cfg.Workers,
		Retention:      cfg.Retention,
		StockThreshold: cfg.StockThreshold,
		Grade:          cfg.Grade,
	}
	agg := collector.NewAggregator(client, store, archive, settings, lg)
	sel := collector.NewSelector(store, tables, archive, settings, lg)

	keys := tables.CategoryKeys()
	if *categories != "" {
		keys = keys[:0]
		for _, k := range strings.Split(*categories, ",") {
			k = strings.TrimSpace(k)
			if _, err := tables.Category(k); err != nil {
				return err
			}
			keys = append(keys, k)
		}
	}
	cycle := collector.NewCycle(agg, sel, keys, lg)

	lg.Info("collector started", "pid", os.Getpid(), "interval", cfg.Interval, "categories", len(keys),
		"workers", settings.Workers, "ladder_order", string(order), "dry_run", *dryRun, "archive", archive != nil)

	runOnce := func() {
		label := time.Now().Format(cfg.TimestampLayout)
		report, err := cycle.Run(ctx, label)
		if err != nil {
			lg.Error("collection cycle incomplete", "label", label, "error", err)
		}
		if report != nil {
			lg.Info("collection cycle report", "label", label, "failed_categories", len(report.Failed),
				"groups", len(report.Cheapest), "elapsed", report.Elapsed)
		}
	}

	runOnce()
	if *once {
		return nil
	}

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			lg.Info("shutdown signal received")
			return nil
		case <-ticker.C:
			runOnce()
		}
	}
}

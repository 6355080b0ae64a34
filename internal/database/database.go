package database

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"bdo-market/internal/models"
)

// Initialize opens the MySQL archive and migrates its tables.
func Initialize(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(databaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&models.MarketItemSnapshot{}, &models.MarketGroupCheapest{}); err != nil {
		return nil, fmt.Errorf("failed to migrate archive tables: %w", err)
	}
	return db, nil
}

// Archive appends collector output to MySQL so it outlives the cache expiry.
type Archive struct {
	db  *gorm.DB
	now func() time.Time
}

func NewArchive(db *gorm.DB) *Archive {
	return &Archive{db: db, now: time.Now}
}

func (a *Archive) SaveItemSnapshot(ctx context.Context, label string, snap models.ItemSnapshot) error {
	row := models.NewMarketItemSnapshot(label, snap, a.now())
	if err := a.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("archive snapshot %s: %w", models.SnapshotKey(snap.ItemID, label), err)
	}
	return nil
}

func (a *Archive) SaveGroupCheapest(ctx context.Context, label string, g models.GroupCheapest) error {
	row := models.NewMarketGroupCheapest(label, g, a.now())
	if err := a.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("archive cheapest %s: %w", models.CheapestKey(g.Group, label), err)
	}
	return nil
}

// ItemHistory returns the newest limit snapshots of an item, oldest first.
func (a *Archive) ItemHistory(ctx context.Context, itemID string, limit int) ([]models.MarketItemSnapshot, error) {
	var rows []models.MarketItemSnapshot
	err := a.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Order("created_at desc").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("item history %s: %w", itemID, err)
	}
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return rows, nil
}

// GroupHistory returns the newest limit cheapest decisions of a group,
// oldest first.
func (a *Archive) GroupHistory(ctx context.Context, group string, limit int) ([]models.MarketGroupCheapest, error) {
	var rows []models.MarketGroupCheapest
	err := a.db.WithContext(ctx).
		Where("group_name = ?", group).
		Order("created_at desc").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("group history %s: %w", group, err)
	}
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return rows, nil
}

package models

import "time"

// DBAccountDoc is the stored form of an account snapshot. The terminal
// payload is kept whole in Document and replaced on every push; the
// indexed columns exist for queries only.
type DBAccountDoc struct {
	AccountID   string `gorm:"primaryKey"`
	AccountName string `gorm:"index"`
	Status      string `gorm:"index"`
	Document    string
	UpdatedAt   time.Time
}

// DBCommand is the single pending command slot for one account
type DBCommand struct {
	AccountID string `gorm:"primaryKey"`
	Document  string
	UpdatedAt time.Time
}

// DBHistoryDoc holds an account's full trade-history batch as one
// replaceable document, keyed by account.
type DBHistoryDoc struct {
	AccountID   string `gorm:"primaryKey"`
	AccountName string `gorm:"index"`
	Document    string
	UpdatedAt   time.Time
}

// DBActivityEntry is one append-only robot-activity observation
type DBActivityEntry struct {
	ID          string `gorm:"primaryKey"`
	AccountID   string `gorm:"index:idx_activity_account_time"`
	MagicNumber int64
	Timestamp   time.Time `gorm:"index:idx_activity_account_time"`
}

// DBDashboardOrder is the single stored display-order list
type DBDashboardOrder struct {
	ID        uint `gorm:"primaryKey"`
	Document  string
	UpdatedAt time.Time
}

// DBEAStatsCache is the materialized EA rollup, overwritten whole on
// every recalculation.
type DBEAStatsCache struct {
	ID          uint `gorm:"primaryKey"`
	Document    string
	GeneratedAt time.Time
}

// TableName overrides for cleaner table names
func (DBAccountDoc) TableName() string {
	return "accounts"
}

func (DBCommand) TableName() string {
	return "commands"
}

func (DBHistoryDoc) TableName() string {
	return "trade_history"
}

func (DBActivityEntry) TableName() string {
	return "activity_log"
}

func (DBDashboardOrder) TableName() string {
	return "dashboard_order"
}

func (DBEAStatsCache) TableName() string {
	return "ea_stats_cache"
}

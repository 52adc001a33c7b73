package interfaces

import (
	"time"

	"ea-dashboard/models"
)

// Store is the persistence boundary for the dashboard relay. All snapshot
// and history writes are full replacements; the command slot is
// read-then-delete (at most once, not atomic across the two operations).
type Store interface {
	// Account snapshots
	SaveAccountSnapshot(snap *models.AccountSnapshot) error
	GetAccountSnapshots() (map[string]*models.AccountSnapshot, error)
	DeleteAccount(accountID string) error

	// Command slot (single pending instruction per account)
	SaveCommand(accountID string, cmd *models.Command) error
	ConsumeCommand(accountID string) (*models.Command, error)

	// Trade history (full replace per account)
	ReplaceTradeHistory(accountID, accountName string, records []models.TradeRecord) error
	GetTradeHistory() (map[string][]models.TradeRecord, error)

	// Activity log (append only)
	AppendActivity(entry *models.ActivityEntry) error
	GetAllActivity() (map[string][]models.ActivityEntry, error)

	// Dashboard display order
	SaveDashboardOrder(accountIDs []string) error
	GetDashboardOrder() ([]string, error)

	// EA stats cache (whole-document overwrite)
	SaveEAStatsCache(stats []models.EAStats, generatedAt time.Time) error
	GetEAStatsCache() ([]models.EAStats, time.Time, error)
}

package database

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"ea-dashboard/models"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DocumentStore implements the Store interface using SQLite. Terminal
// payloads are persisted as whole JSON documents so that every write keeps
// the full-replace semantics of the ingress contract.
type DocumentStore struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewDocumentStore opens the SQLite database and migrates the schema
func NewDocumentStore(dbPath string) (*DocumentStore, error) {
	// Ensure the directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Auto-migrate schemas
	if err := db.AutoMigrate(
		&models.DBAccountDoc{},
		&models.DBCommand{},
		&models.DBHistoryDoc{},
		&models.DBActivityEntry{},
		&models.DBDashboardOrder{},
		&models.DBEAStatsCache{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	return &DocumentStore{
		db:     db,
		logger: log,
	}, nil
}

// SaveAccountSnapshot replaces an account's stored snapshot wholesale
func (s *DocumentStore) SaveAccountSnapshot(snap *models.AccountSnapshot) error {
	doc, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	row := &models.DBAccountDoc{
		AccountID:   snap.AccountID,
		AccountName: snap.AccountName,
		Status:      snap.Status,
		Document:    string(doc),
		UpdatedAt:   time.Now(),
	}

	if result := s.db.Save(row); result.Error != nil {
		return fmt.Errorf("failed to save snapshot: %w", result.Error)
	}

	return nil
}

// GetAccountSnapshots returns every stored snapshot keyed by account ID
func (s *DocumentStore) GetAccountSnapshots() (map[string]*models.AccountSnapshot, error) {
	var rows []models.DBAccountDoc
	if result := s.db.Find(&rows); result.Error != nil {
		return nil, fmt.Errorf("failed to get snapshots: %w", result.Error)
	}

	accounts := make(map[string]*models.AccountSnapshot, len(rows))
	for _, row := range rows {
		var snap models.AccountSnapshot
		if err := json.Unmarshal([]byte(row.Document), &snap); err != nil {
			s.logger.WithFields(logrus.Fields{
				"account_id": row.AccountID,
			}).WithError(err).Warn("Skipping unreadable snapshot document")
			continue
		}
		accounts[row.AccountID] = &snap
	}

	return accounts, nil
}

// DeleteAccount removes an account's snapshot together with its pending
// command, trade history and activity log
func (s *DocumentStore) DeleteAccount(accountID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.DBAccountDoc{}, "account_id = ?", accountID).Error; err != nil {
			return fmt.Errorf("failed to delete snapshot: %w", err)
		}
		if err := tx.Delete(&models.DBCommand{}, "account_id = ?", accountID).Error; err != nil {
			return fmt.Errorf("failed to delete pending command: %w", err)
		}
		if err := tx.Delete(&models.DBHistoryDoc{}, "account_id = ?", accountID).Error; err != nil {
			return fmt.Errorf("failed to delete trade history: %w", err)
		}
		if err := tx.Delete(&models.DBActivityEntry{}, "account_id = ?", accountID).Error; err != nil {
			return fmt.Errorf("failed to delete activity log: %w", err)
		}
		return nil
	})
}

// SaveCommand writes the account's command slot, overwriting any pending
// command (last write wins)
func (s *DocumentStore) SaveCommand(accountID string, cmd *models.Command) error {
	doc, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("failed to marshal command: %w", err)
	}

	row := &models.DBCommand{
		AccountID: accountID,
		Document:  string(doc),
		UpdatedAt: time.Now(),
	}

	if result := s.db.Save(row); result.Error != nil {
		return fmt.Errorf("failed to save command: %w", result.Error)
	}

	return nil
}

// ConsumeCommand reads and deletes the account's pending command. Returns
// nil when the slot is empty. The read and the delete are two operations;
// only one terminal polls a given slot so the window is accepted.
func (s *DocumentStore) ConsumeCommand(accountID string) (*models.Command, error) {
	var row models.DBCommand
	result := s.db.Where("account_id = ?", accountID).First(&row)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read command: %w", result.Error)
	}

	var cmd models.Command
	if err := json.Unmarshal([]byte(row.Document), &cmd); err != nil {
		return nil, fmt.Errorf("failed to parse command: %w", err)
	}

	if err := s.db.Delete(&models.DBCommand{}, "account_id = ?", accountID).Error; err != nil {
		return nil, fmt.Errorf("failed to consume command: %w", err)
	}

	return &cmd, nil
}

// ReplaceTradeHistory overwrites an account's full trade-history document
func (s *DocumentStore) ReplaceTradeHistory(accountID, accountName string, records []models.TradeRecord) error {
	doc, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	row := &models.DBHistoryDoc{
		AccountID:   accountID,
		AccountName: accountName,
		Document:    string(doc),
		UpdatedAt:   time.Now(),
	}

	if result := s.db.Save(row); result.Error != nil {
		return fmt.Errorf("failed to save history: %w", result.Error)
	}

	s.logger.WithFields(logrus.Fields{
		"account_id": accountID,
		"records":    len(records),
	}).Info("Trade history replaced")

	return nil
}

// GetTradeHistory returns all trade history grouped by account ID
func (s *DocumentStore) GetTradeHistory() (map[string][]models.TradeRecord, error) {
	var rows []models.DBHistoryDoc
	if result := s.db.Find(&rows); result.Error != nil {
		return nil, fmt.Errorf("failed to get history: %w", result.Error)
	}

	history := make(map[string][]models.TradeRecord, len(rows))
	for _, row := range rows {
		var records []models.TradeRecord
		if err := json.Unmarshal([]byte(row.Document), &records); err != nil {
			s.logger.WithFields(logrus.Fields{
				"account_id": row.AccountID,
			}).WithError(err).Warn("Skipping unreadable history document")
			continue
		}
		history[row.AccountID] = records
	}

	return history, nil
}

// AppendActivity appends one robot-activity observation
func (s *DocumentStore) AppendActivity(entry *models.ActivityEntry) error {
	row := &models.DBActivityEntry{
		ID:          entry.ID,
		AccountID:   entry.AccountID,
		MagicNumber: entry.MagicNumber,
		Timestamp:   entry.Timestamp,
	}

	if result := s.db.Create(row); result.Error != nil {
		return fmt.Errorf("failed to append activity: %w", result.Error)
	}

	return nil
}

// GetAllActivity returns the activity log grouped by account ID, ordered
// by observation time
func (s *DocumentStore) GetAllActivity() (map[string][]models.ActivityEntry, error) {
	var rows []models.DBActivityEntry
	if result := s.db.Order("timestamp ASC").Find(&rows); result.Error != nil {
		return nil, fmt.Errorf("failed to get activity log: %w", result.Error)
	}

	activity := make(map[string][]models.ActivityEntry)
	for _, row := range rows {
		activity[row.AccountID] = append(activity[row.AccountID], models.ActivityEntry{
			ID:          row.ID,
			AccountID:   row.AccountID,
			MagicNumber: row.MagicNumber,
			Timestamp:   row.Timestamp,
		})
	}

	return activity, nil
}

// SaveDashboardOrder overwrites the stored display-order list
func (s *DocumentStore) SaveDashboardOrder(accountIDs []string) error {
	doc, err := json.Marshal(accountIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal order list: %w", err)
	}

	row := &models.DBDashboardOrder{
		ID:        1,
		Document:  string(doc),
		UpdatedAt: time.Now(),
	}

	if result := s.db.Save(row); result.Error != nil {
		return fmt.Errorf("failed to save order list: %w", result.Error)
	}

	return nil
}

// GetDashboardOrder returns the stored display-order list, empty when
// none has been saved yet
func (s *DocumentStore) GetDashboardOrder() ([]string, error) {
	var row models.DBDashboardOrder
	result := s.db.First(&row, 1)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to get order list: %w", result.Error)
	}

	var accountIDs []string
	if err := json.Unmarshal([]byte(row.Document), &accountIDs); err != nil {
		return nil, fmt.Errorf("failed to parse order list: %w", err)
	}

	return accountIDs, nil
}

// SaveEAStatsCache overwrites the materialized EA rollup document
func (s *DocumentStore) SaveEAStatsCache(stats []models.EAStats, generatedAt time.Time) error {
	doc, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal EA stats: %w", err)
	}

	row := &models.DBEAStatsCache{
		ID:          1,
		Document:    string(doc),
		GeneratedAt: generatedAt,
	}

	if result := s.db.Save(row); result.Error != nil {
		return fmt.Errorf("failed to save EA stats cache: %w", result.Error)
	}

	return nil
}

// GetEAStatsCache returns the cached EA rollup and when it was generated.
// An empty slice and zero time mean nothing has been cached yet.
func (s *DocumentStore) GetEAStatsCache() ([]models.EAStats, time.Time, error) {
	var row models.DBEAStatsCache
	result := s.db.First(&row, 1)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return []models.EAStats{}, time.Time{}, nil
		}
		return nil, time.Time{}, fmt.Errorf("failed to get EA stats cache: %w", result.Error)
	}

	var stats []models.EAStats
	if err := json.Unmarshal([]byte(row.Document), &stats); err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to parse EA stats cache: %w", err)
	}

	return stats, row.GeneratedAt, nil
}

// Close closes the database connection
func (s *DocumentStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

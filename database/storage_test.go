package database

import (
	"path/filepath"
	"testing"
	"time"

	"ea-dashboard/models"
)

func newTestStore(t *testing.T) *DocumentStore {
	t.Helper()
	store, err := NewDocumentStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSaveAccountSnapshot_FullReplace(t *testing.T) {
	store := newTestStore(t)

	first := &models.AccountSnapshot{
		AccountID:   "A1",
		AccountName: "Main",
		Status:      models.AccountStatusActive,
		Balance:     1000,
		Positions: []models.Position{
			{Ticket: "1", Pair: "EURUSD", Profit: 12},
		},
	}
	if err := store.SaveAccountSnapshot(first); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Second push has no positions; the stored document must not retain
	// the old ones
	second := &models.AccountSnapshot{
		AccountID:   "A1",
		AccountName: "Main",
		Status:      models.AccountStatusActive,
		Balance:     1012,
	}
	if err := store.SaveAccountSnapshot(second); err != nil {
		t.Fatalf("save: %v", err)
	}

	accounts, err := store.GetAccountSnapshots()
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(accounts) != 1 {
		t.Fatalf("expected 1 account, got %d", len(accounts))
	}

	snap := accounts["A1"]
	if snap == nil {
		t.Fatal("account A1 missing")
	}
	if len(snap.Positions) != 0 {
		t.Errorf("positions should be gone after replace, got %d", len(snap.Positions))
	}
	if snap.Balance.Float64() != 1012 {
		t.Errorf("Balance = %v, want 1012", snap.Balance.Float64())
	}
}

func TestConsumeCommand(t *testing.T) {
	store := newTestStore(t)

	// Empty slot yields nil without error
	cmd, err := store.ConsumeCommand("A1")
	if err != nil {
		t.Fatalf("consume empty: %v", err)
	}
	if cmd != nil {
		t.Fatalf("expected nil command, got %+v", cmd)
	}

	if err := store.SaveCommand("A1", &models.Command{
		Command: models.CommandToggleRobot,
		Status:  "off",
	}); err != nil {
		t.Fatalf("save: %v", err)
	}

	cmd, err = store.ConsumeCommand("A1")
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if cmd == nil || cmd.Command != models.CommandToggleRobot || cmd.Status != "off" {
		t.Fatalf("unexpected command: %+v", cmd)
	}

	// Consumed exactly once
	cmd, err = store.ConsumeCommand("A1")
	if err != nil {
		t.Fatalf("re-consume: %v", err)
	}
	if cmd != nil {
		t.Fatalf("slot should be empty after consume, got %+v", cmd)
	}
}

func TestSaveCommand_LastWriteWins(t *testing.T) {
	store := newTestStore(t)

	if err := store.SaveCommand("A1", &models.Command{
		Command: models.CommandToggleRobot,
		Status:  "off",
	}); err != nil {
		t.Fatalf("save first: %v", err)
	}
	if err := store.SaveCommand("A1", &models.Command{
		Command: models.CommandCancelOrder,
		Ticket:  "42",
	}); err != nil {
		t.Fatalf("save second: %v", err)
	}

	cmd, err := store.ConsumeCommand("A1")
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if cmd == nil || cmd.Command != models.CommandCancelOrder || cmd.Ticket != "42" {
		t.Fatalf("expected the second command to win, got %+v", cmd)
	}
}

func TestReplaceTradeHistory(t *testing.T) {
	store := newTestStore(t)

	batch1 := []models.TradeRecord{
		{Ticket: "1", AccountName: "Main", PL: 10, CloseDate: "2025.08.20 10:00:00"},
		{Ticket: "2", AccountName: "Main", PL: -5, CloseDate: "2025.08.21 10:00:00"},
	}
	if err := store.ReplaceTradeHistory("A1", "Main", batch1); err != nil {
		t.Fatalf("replace: %v", err)
	}

	// Re-submitting a smaller batch overwrites, never appends
	batch2 := []models.TradeRecord{
		{Ticket: "3", AccountName: "Main", PL: 7, CloseDate: "2025.08.22 10:00:00"},
	}
	if err := store.ReplaceTradeHistory("A1", "Main", batch2); err != nil {
		t.Fatalf("replace: %v", err)
	}

	history, err := store.GetTradeHistory()
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(history["A1"]) != 1 {
		t.Fatalf("expected 1 record after replace, got %d", len(history["A1"]))
	}
	if string(history["A1"][0].Ticket) != "3" {
		t.Errorf("ticket = %q, want 3", history["A1"][0].Ticket)
	}
}

func TestDeleteAccount_RemovesEverything(t *testing.T) {
	store := newTestStore(t)

	if err := store.SaveAccountSnapshot(&models.AccountSnapshot{AccountID: "A1"}); err != nil {
		t.Fatalf("save snapshot: %v", err)
	}
	if err := store.SaveCommand("A1", &models.Command{Command: models.CommandToggleRobot}); err != nil {
		t.Fatalf("save command: %v", err)
	}
	if err := store.ReplaceTradeHistory("A1", "Main", []models.TradeRecord{
		{Ticket: "1", AccountName: "Main", PL: 1, CloseDate: "2025.08.20"},
	}); err != nil {
		t.Fatalf("save history: %v", err)
	}
	if err := store.AppendActivity(&models.ActivityEntry{
		ID:        "act-1",
		AccountID: "A1",
		Timestamp: time.Now(),
	}); err != nil {
		t.Fatalf("append activity: %v", err)
	}

	if err := store.DeleteAccount("A1"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	accounts, _ := store.GetAccountSnapshots()
	if len(accounts) != 0 {
		t.Errorf("snapshot survived delete")
	}
	cmd, _ := store.ConsumeCommand("A1")
	if cmd != nil {
		t.Errorf("command survived delete")
	}
	history, _ := store.GetTradeHistory()
	if len(history["A1"]) != 0 {
		t.Errorf("history survived delete")
	}
	activity, _ := store.GetAllActivity()
	if len(activity["A1"]) != 0 {
		t.Errorf("activity survived delete")
	}
}

func TestGetAllActivity_OrderedByTime(t *testing.T) {
	store := newTestStore(t)

	base := time.Date(2025, 8, 20, 10, 0, 0, 0, time.UTC)
	for i, offset := range []int{2, 0, 1} {
		if err := store.AppendActivity(&models.ActivityEntry{
			ID:          string(rune('a' + i)),
			AccountID:   "A1",
			MagicNumber: 1001,
			Timestamp:   base.Add(time.Duration(offset) * time.Hour),
		}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	activity, err := store.GetAllActivity()
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	entries := activity["A1"]
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].Timestamp.Before(entries[i-1].Timestamp) {
			t.Fatalf("entries not in chronological order: %v", entries)
		}
	}
}

func TestDashboardOrder(t *testing.T) {
	store := newTestStore(t)

	order, err := store.GetDashboardOrder()
	if err != nil {
		t.Fatalf("get empty: %v", err)
	}
	if len(order) != 0 {
		t.Fatalf("expected empty order, got %v", order)
	}

	if err := store.SaveDashboardOrder([]string{"A2", "A1"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.SaveDashboardOrder([]string{"A1", "A2", "A3"}); err != nil {
		t.Fatalf("re-save: %v", err)
	}

	order, err = store.GetDashboardOrder()
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(order) != 3 || order[0] != "A1" {
		t.Fatalf("unexpected order: %v", order)
	}
}

func TestEAStatsCache(t *testing.T) {
	store := newTestStore(t)

	stats, generatedAt, err := store.GetEAStatsCache()
	if err != nil {
		t.Fatalf("get empty: %v", err)
	}
	if len(stats) != 0 || !generatedAt.IsZero() {
		t.Fatalf("expected empty cache, got %d stats at %v", len(stats), generatedAt)
	}

	now := time.Now().Truncate(time.Second)
	if err := store.SaveEAStatsCache([]models.EAStats{
		{EAName: "RoboX (1001)", Identity: "1001", AccountsReach: 2},
	}, now); err != nil {
		t.Fatalf("save: %v", err)
	}

	stats, generatedAt, err = store.GetEAStatsCache()
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(stats) != 1 || stats[0].Identity != "1001" {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if !generatedAt.Equal(now) {
		t.Errorf("generatedAt = %v, want %v", generatedAt, now)
	}
}

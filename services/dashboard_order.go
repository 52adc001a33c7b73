package services

import (
	"sort"

	"ea-dashboard/models"
)

// MergeDashboardOrder reconciles the stored display order with the
// accounts that actually exist: stored identifiers keep their position,
// stale identifiers are dropped, and accounts missing from the list are
// appended in alphabetical order.
func MergeDashboardOrder(stored []string, accounts map[string]*models.AccountSnapshot) []string {
	merged := make([]string, 0, len(accounts))
	seen := make(map[string]bool, len(accounts))

	for _, id := range stored {
		if _, exists := accounts[id]; exists && !seen[id] {
			merged = append(merged, id)
			seen[id] = true
		}
	}

	missing := make([]string, 0)
	for id := range accounts {
		if !seen[id] {
			missing = append(missing, id)
		}
	}
	sort.Strings(missing)

	return append(merged, missing...)
}

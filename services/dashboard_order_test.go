package services

import (
	"reflect"
	"testing"

	"ea-dashboard/models"
)

func TestMergeDashboardOrder(t *testing.T) {
	accounts := map[string]*models.AccountSnapshot{
		"A1": {AccountID: "A1"},
		"A2": {AccountID: "A2"},
		"A3": {AccountID: "A3"},
	}

	tests := []struct {
		name   string
		stored []string
		want   []string
	}{
		{
			name:   "stored order kept",
			stored: []string{"A3", "A1", "A2"},
			want:   []string{"A3", "A1", "A2"},
		},
		{
			name:   "stale ids dropped",
			stored: []string{"A2", "GONE", "A1"},
			want:   []string{"A2", "A1", "A3"},
		},
		{
			name:   "missing accounts appended alphabetically",
			stored: []string{"A2"},
			want:   []string{"A2", "A1", "A3"},
		},
		{
			name:   "empty stored yields alphabetical",
			stored: nil,
			want:   []string{"A1", "A2", "A3"},
		},
		{
			name:   "duplicates collapse to first position",
			stored: []string{"A2", "A2", "A1"},
			want:   []string{"A2", "A1", "A3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MergeDashboardOrder(tt.stored, accounts)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("MergeDashboardOrder(%v) = %v, want %v", tt.stored, got, tt.want)
			}
		})
	}
}

func TestMergeDashboardOrder_NoAccounts(t *testing.T) {
	got := MergeDashboardOrder([]string{"A1"}, map[string]*models.AccountSnapshot{})
	if len(got) != 0 {
		t.Errorf("expected empty result, got %v", got)
	}
}

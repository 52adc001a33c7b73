package models

import (
	"encoding/json"
	"testing"
)

func TestFlexFloat_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{`123.45`, 123.45},
		{`"123.45"`, 123.45},
		{`"-15.50"`, -15.5},
		{`0`, 0},
		{`null`, 0},
		{`"not a number"`, 0},
		{`""`, 0},
		{`" 42 "`, 42},
	}

	for _, tt := range tests {
		var f FlexFloat
		if err := json.Unmarshal([]byte(tt.input), &f); err != nil {
			t.Errorf("Unmarshal(%s) returned error: %v", tt.input, err)
			continue
		}
		if f.Float64() != tt.want {
			t.Errorf("Unmarshal(%s) = %v, want %v", tt.input, f.Float64(), tt.want)
		}
	}
}

func TestFlexString_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`"12345"`, "12345"},
		{`12345`, "12345"},
		{`12.5`, "12.5"},
		{`null`, ""},
		{`""`, ""},
	}

	for _, tt := range tests {
		var s FlexString
		if err := json.Unmarshal([]byte(tt.input), &s); err != nil {
			t.Errorf("Unmarshal(%s) returned error: %v", tt.input, err)
			continue
		}
		if string(s) != tt.want {
			t.Errorf("Unmarshal(%s) = %q, want %q", tt.input, s, tt.want)
		}
	}
}

func TestAccountSnapshot_LooseDecoding(t *testing.T) {
	payload := `{
		"accountId": "A1",
		"accountName": "Main",
		"status": "active",
		"balance": "1000.50",
		"positions": [
			{"ticket": 123456, "pair": "EURUSD", "profit": "12.30"},
			{"ticket": "789", "pair": "GBPUSD", "profit": -4}
		]
	}`

	var snap AccountSnapshot
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if snap.Balance.Float64() != 1000.50 {
		t.Errorf("Balance = %v, want 1000.50", snap.Balance.Float64())
	}
	if string(snap.Positions[0].Ticket) != "123456" {
		t.Errorf("numeric ticket = %q, want 123456", snap.Positions[0].Ticket)
	}
	if snap.Positions[0].Profit.Float64() != 12.30 {
		t.Errorf("string profit = %v, want 12.30", snap.Positions[0].Profit.Float64())
	}
	if snap.Positions[1].Profit.Float64() != -4 {
		t.Errorf("numeric profit = %v, want -4", snap.Positions[1].Profit.Float64())
	}
}

func TestTradeRecord_IsTrade(t *testing.T) {
	tests := []struct {
		name   string
		record TradeRecord
		want   bool
	}{
		{"explicit trade type", TradeRecord{Type: "trade"}, true},
		{"explicit deposit type with ticket", TradeRecord{Type: "deposit", Ticket: "1"}, false},
		{"ticket implies trade", TradeRecord{Ticket: "1"}, true},
		{"no ticket no type", TradeRecord{}, false},
		{"balance type", TradeRecord{Type: "balance"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.record.IsTrade(); got != tt.want {
				t.Errorf("IsTrade() = %v, want %v", got, tt.want)
			}
		})
	}
}

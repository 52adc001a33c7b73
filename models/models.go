package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Account status values reported by terminals
const (
	AccountStatusActive   = "active"
	AccountStatusInactive = "inactive"
)

// Command names understood by the polling terminals
const (
	CommandToggleRobot = "toggle_robot"
	CommandCancelOrder = "cancel_order"
)

// FlexFloat is a float64 that tolerates the loose typing of terminal
// payloads: JSON numbers, numeric strings, null and garbage all decode
// without error. Non-numeric values become 0.
type FlexFloat float64

// UnmarshalJSON implements defensive numeric coercion
func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	s = strings.Trim(s, `"`)
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = FlexFloat(v)
	return nil
}

// Float64 returns the plain float value
func (f FlexFloat) Float64() float64 {
	return float64(f)
}

// FlexString is a string that also accepts JSON numbers, which terminals
// commonly emit for ticket fields.
type FlexString string

// UnmarshalJSON accepts a JSON string, number or null
func (s *FlexString) UnmarshalJSON(data []byte) error {
	b := bytes.TrimSpace(data)
	if len(b) == 0 || string(b) == "null" {
		*s = ""
		return nil
	}
	if b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			*s = ""
			return nil
		}
		*s = FlexString(v)
		return nil
	}
	*s = FlexString(string(b))
	return nil
}

// Position is an open trade or a pending order inside a snapshot. Pending
// variants (*_stop, *_limit) carry no profit.
type Position struct {
	Ticket        FlexString `json:"ticket"`
	Pair          string     `json:"pair"`
	ExecutionType string     `json:"executionType"`
	LotSize       FlexFloat  `json:"lotSize"`
	EntryPrice    FlexFloat  `json:"entryPrice"`
	CurrentPrice  FlexFloat  `json:"currentPrice,omitempty"`
	Profit        FlexFloat  `json:"profit,omitempty"`
}

// AccountSnapshot is the full state of one trading account as last pushed
// by its terminal. Every push replaces the previous snapshot wholesale.
type AccountSnapshot struct {
	AccountID        string     `json:"accountId"`
	AccountName      string     `json:"accountName"`
	Status           string     `json:"status"`
	Balance          FlexFloat  `json:"balance"`
	RobotStatus      string     `json:"robotStatus"`
	TradingRobotName string     `json:"tradingRobotName,omitempty"`
	MagicNumber      *int64     `json:"magicNumber,omitempty"`
	Platform         string     `json:"platform,omitempty"`
	Positions        []Position `json:"positions,omitempty"`
	Orders           []Position `json:"orders,omitempty"`
}

// TradeRecord is one closed trade or balance operation from an account's
// history batch. Ticket may be empty for deposit/withdraw entries.
type TradeRecord struct {
	Ticket      FlexString `json:"ticket,omitempty"`
	AccountName string     `json:"accountName"`
	Pair        string     `json:"pair,omitempty"`
	PL          FlexFloat  `json:"pl"`
	CloseDate   string     `json:"closeDate"`
	OpenDate    string     `json:"openDate,omitempty"`
	Type        string     `json:"type,omitempty"`
}

// IsTrade reports whether the record counts toward trade statistics.
// An explicit type discriminator wins; without one, a ticket implies a trade.
func (r *TradeRecord) IsTrade() bool {
	if r.Type != "" {
		return r.Type == "trade"
	}
	return r.Ticket != ""
}

// ActivityEntry marks a moment a robot was observed active on an account.
// Entries are append-only.
type ActivityEntry struct {
	ID          string    `json:"id"`
	AccountID   string    `json:"accountId"`
	MagicNumber int64     `json:"magicNumber"`
	Timestamp   time.Time `json:"timestamp"`
}

// Command is the single pending instruction for one account. The slot is
// last-write-wins and consumed (deleted) by the terminal on its next poll.
type Command struct {
	Command string `json:"command"`
	Status  string `json:"status,omitempty"`
	Ticket  string `json:"ticket,omitempty"`
}

// AccountDerivation is the per-account output of the aggregation engine
type AccountDerivation struct {
	TotalFloatingPL float64 `json:"totalFloatingPL"`
	IsProfitable    bool    `json:"isProfitable"`
	IsLosing        bool    `json:"isLosing"`
	PendingOrders   int     `json:"pendingOrders"`
}

// GlobalSummary aggregates all accounts for the dashboard header
type GlobalSummary struct {
	TotalAccounts       int     `json:"totalAccounts"`
	ActiveAccountsCount int     `json:"activeAccountsCount"`
	ProfitableAccounts  int     `json:"profitableAccounts"`
	LosingAccounts      int     `json:"losingAccounts"`
	PendingOrdersCount  int     `json:"pendingOrdersCount"`
	TotalPL             float64 `json:"totalPL"`
}

// EquityPoint is one point of a reconstructed equity curve
type EquityPoint struct {
	Label  string  `json:"label"`
	Equity float64 `json:"equity"`
}

// EAStats is the rollup for one robot across all accounts it runs on
type EAStats struct {
	EAName           string        `json:"eaName"`
	Identity         string        `json:"identity"`
	Accounts         []string      `json:"accounts"`
	AccountsReach    int           `json:"accountsReach"`
	TotalFloatingPL  float64       `json:"totalFloatingPL"`
	TotalEquity      float64       `json:"totalEquity"`
	TotalClosedPL    float64       `json:"totalClosedPL"`
	TotalTrades      int           `json:"totalTrades"`
	Winrate          float64       `json:"winrate"`
	AvgDrawdown      float64       `json:"avgDrawdown"`
	WeeklyTradeRatio float64       `json:"weeklyTradeRatio"`
	EquityCurve      []EquityPoint `json:"equityCurve"`
}

// PeriodSummary aggregates closed trades over a time window
type PeriodSummary struct {
	TradeCount int     `json:"tradeCount"`
	TotalPL    float64 `json:"totalPL"`
	Winrate    float64 `json:"winrate"`
}

// AccountExport is one account's row in the monthly export
type AccountExport struct {
	AccountID     string  `json:"accountId"`
	AccountName   string  `json:"accountName"`
	EAName        string  `json:"eaName,omitempty"`
	TradeCount    int     `json:"tradeCount"`
	TotalPL       float64 `json:"totalPL"`
	Winrate       float64 `json:"winrate"`
	ReturnPercent float64 `json:"returnPercent"`
	ActiveHours   float64 `json:"activeHours"`
	TradesPerHour float64 `json:"tradesPerHour"`
}

// MonthlyExport bundles the 30-day summary with per-account rows
type MonthlyExport struct {
	Since    time.Time       `json:"since"`
	Summary  PeriodSummary   `json:"summary"`
	Accounts []AccountExport `json:"accounts"`
}

// ChangeEvent is published to the WebSocket bridge whenever stored state
// changes, so dashboards can refresh without polling.
type ChangeEvent struct {
	Type      string          `json:"type"`
	AccountID string          `json:"accountId,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Change event types
const (
	EventAccountUpdated = "account_updated"
	EventAccountDeleted = "account_deleted"
	EventCommandIssued  = "command_issued"
	EventHistoryUpdated = "history_updated"
	EventOrderSaved     = "order_saved"
)

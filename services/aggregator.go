package services

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"ea-dashboard/models"
)

// Aggregator derives dashboard statistics from stored documents. Every
// method is a pure function of its inputs, so recomputation is always safe
// and repeatable.
type Aggregator struct {
	noEASentinel string
}

// NewAggregator creates an aggregator. Accounts whose robot name equals
// noEASentinel are excluded from EA rollups.
func NewAggregator(noEASentinel string) *Aggregator {
	return &Aggregator{
		noEASentinel: noEASentinel,
	}
}

// robotSuffixPattern matches a magic-number suffix encoded in the robot
// display name, e.g. "RoboX (1001)".
var robotSuffixPattern = regexp.MustCompile(`\((\d+)\)\s*$`)

// terminalTimeLayouts are the shapes terminal dates take after their
// dot separators are normalized to dashes.
var terminalTimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTerminalTime normalizes the terminal's dot-separated locale format
// ("2025.08.29 14:03:11") and parses it in local time. ok is false for
// anything that does not yield a valid date.
func ParseTerminalTime(s string) (time.Time, bool) {
	normalized := strings.ReplaceAll(strings.TrimSpace(s), ".", "-")
	for _, layout := range terminalTimeLayouts {
		if t, err := time.ParseInLocation(layout, normalized, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// StartOfISOWeek returns Monday 00:00 in t's location for the week
// containing t.
func StartOfISOWeek(t time.Time) time.Time {
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return day.AddDate(0, 0, -(weekday - 1))
}

// DeriveAccount computes the per-account floating view. Orders carry no
// profit and are excluded from the sum.
func (a *Aggregator) DeriveAccount(snap *models.AccountSnapshot) models.AccountDerivation {
	total := 0.0
	for _, pos := range snap.Positions {
		total += pos.Profit.Float64()
	}

	return models.AccountDerivation{
		TotalFloatingPL: total,
		IsProfitable:    total > 0,
		IsLosing:        total < 0,
		PendingOrders:   len(snap.Orders),
	}
}

// GlobalSummary aggregates active accounts for the dashboard header.
// Accounts with floating P/L exactly 0 count toward neither the profitable
// nor the losing bucket.
func (a *Aggregator) GlobalSummary(accounts map[string]*models.AccountSnapshot) models.GlobalSummary {
	summary := models.GlobalSummary{
		TotalAccounts: len(accounts),
	}

	for _, snap := range accounts {
		if snap.Status != models.AccountStatusActive {
			continue
		}
		summary.ActiveAccountsCount++

		derived := a.DeriveAccount(snap)
		if derived.IsProfitable {
			summary.ProfitableAccounts++
		}
		if derived.IsLosing {
			summary.LosingAccounts++
		}
		summary.PendingOrdersCount += derived.PendingOrders
		summary.TotalPL += derived.TotalFloatingPL
	}

	return summary
}

// ResolveEAIdentity returns the grouping key and display name for the
// robot running on an account. Precedence: explicit magic number, then a
// parenthesized numeric suffix in the robot name, then the raw name. ok is
// false when nothing is derivable or the name is the "no active EA"
// sentinel.
func (a *Aggregator) ResolveEAIdentity(snap *models.AccountSnapshot) (identity, displayName string, ok bool) {
	name := strings.TrimSpace(snap.TradingRobotName)
	if name != "" && name == a.noEASentinel {
		return "", "", false
	}

	if snap.MagicNumber != nil {
		identity = strconv.FormatInt(*snap.MagicNumber, 10)
		if name == "" {
			name = "EA " + identity
		}
		return identity, name, true
	}

	if m := robotSuffixPattern.FindStringSubmatch(name); m != nil {
		return m[1], name, true
	}

	if name != "" {
		return name, name, true
	}

	return "", "", false
}

// eaGroup is the working state for one EA while rolling up
type eaGroup struct {
	identity     string
	displayName  string
	accountIDs   []string
	accountNames []string
	floatingPL   float64
	equity       float64
	trades       []tradeAt
	closedPL     float64
	totalTrades  int
	wins         int
	losses       int
	drawdownSum  float64
	weeklyTrades int
}

// tradeAt pairs a trade with its parsed close time for curve building
type tradeAt struct {
	pl       float64
	closedAt time.Time
}

// BuildEAStats groups accounts by EA identity and rolls up floating,
// closed and risk statistics per robot, including a reconstructed equity
// curve. History records that cannot be attributed to a known account are
// dropped silently.
func (a *Aggregator) BuildEAStats(accounts map[string]*models.AccountSnapshot, history map[string][]models.TradeRecord, now time.Time) []models.EAStats {
	groups := make(map[string]*eaGroup)
	nameToIdentity := make(map[string]string)
	accountToIdentity := make(map[string]string)

	// Deterministic account walk so group membership order is stable
	accountIDs := make([]string, 0, len(accounts))
	for id := range accounts {
		accountIDs = append(accountIDs, id)
	}
	sort.Strings(accountIDs)

	for _, id := range accountIDs {
		snap := accounts[id]
		identity, displayName, ok := a.ResolveEAIdentity(snap)
		if !ok {
			continue
		}

		group, exists := groups[identity]
		if !exists {
			group = &eaGroup{identity: identity, displayName: displayName}
			groups[identity] = group
		}

		group.accountIDs = append(group.accountIDs, id)
		group.accountNames = append(group.accountNames, snap.AccountName)
		group.floatingPL += a.DeriveAccount(snap).TotalFloatingPL
		group.equity += snap.Balance.Float64()

		nameToIdentity[snap.AccountName] = identity
		accountToIdentity[id] = identity
	}

	weekStart := StartOfISOWeek(now)

	// Deterministic history walk
	historyIDs := make([]string, 0, len(history))
	for id := range history {
		historyIDs = append(historyIDs, id)
	}
	sort.Strings(historyIDs)

	for _, accountID := range historyIDs {
		for _, record := range history[accountID] {
			// Attribute by the record's account name, falling back to the
			// account the batch was pushed under
			identity, ok := nameToIdentity[record.AccountName]
			if !ok {
				identity, ok = accountToIdentity[accountID]
			}
			if !ok {
				continue
			}
			group := groups[identity]

			if !record.IsTrade() {
				continue
			}

			pl := record.PL.Float64()
			group.closedPL += pl
			group.totalTrades++
			if pl >= 0 {
				group.wins++
			} else {
				group.losses++
				group.drawdownSum += -pl
			}

			closedAt, valid := ParseTerminalTime(record.CloseDate)
			if !valid {
				continue
			}
			group.trades = append(group.trades, tradeAt{pl: pl, closedAt: closedAt})
			if !closedAt.Before(weekStart) {
				group.weeklyTrades++
			}
		}
	}

	stats := make([]models.EAStats, 0, len(groups))
	for _, group := range groups {
		winrate := 0.0
		if group.totalTrades > 0 {
			winrate = float64(group.wins) / float64(group.totalTrades) * 100
		}
		avgDrawdown := 0.0
		if group.losses > 0 {
			avgDrawdown = group.drawdownSum / float64(group.losses)
		}

		stats = append(stats, models.EAStats{
			EAName:           group.displayName,
			Identity:         group.identity,
			Accounts:         group.accountNames,
			AccountsReach:    len(group.accountIDs),
			TotalFloatingPL:  group.floatingPL,
			TotalEquity:      group.equity,
			TotalClosedPL:    group.closedPL,
			TotalTrades:      group.totalTrades,
			Winrate:          winrate,
			AvgDrawdown:      avgDrawdown,
			WeeklyTradeRatio: float64(group.weeklyTrades),
			EquityCurve:      buildEquityCurve(group.trades, group.equity),
		})
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].EAName != stats[j].EAName {
			return stats[i].EAName < stats[j].EAName
		}
		return stats[i].Identity < stats[j].Identity
	})

	return stats
}

// buildEquityCurve reconstructs an EA's equity series by backing all
// realized P/L out of the present-day equity sum and walking forward
// through the trades in close order.
func buildEquityCurve(trades []tradeAt, currentEquity float64) []models.EquityPoint {
	sorted := make([]tradeAt, len(trades))
	copy(sorted, trades)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].closedAt.Before(sorted[j].closedAt)
	})

	realized := 0.0
	for _, trade := range sorted {
		realized += trade.pl
	}

	equity := currentEquity - realized
	curve := make([]models.EquityPoint, 0, len(sorted)+1)
	curve = append(curve, models.EquityPoint{Label: "Start", Equity: equity})

	for _, trade := range sorted {
		equity += trade.pl
		curve = append(curve, models.EquityPoint{
			Label:  trade.closedAt.Format("2006-01-02"),
			Equity: equity,
		})
	}

	return curve
}

// WeeklySummary aggregates trades closed in the current ISO week. since is
// the operator's optional client-local cutover; trades closed at or before
// it are ignored.
func (a *Aggregator) WeeklySummary(history map[string][]models.TradeRecord, since *time.Time, now time.Time) models.PeriodSummary {
	weekStart := StartOfISOWeek(now)
	summary := models.PeriodSummary{}
	wins := 0

	for _, records := range history {
		for i := range records {
			record := &records[i]
			if !record.IsTrade() {
				continue
			}
			closedAt, valid := ParseTerminalTime(record.CloseDate)
			if !valid || closedAt.Before(weekStart) {
				continue
			}
			if since != nil && !closedAt.After(*since) {
				continue
			}

			summary.TradeCount++
			pl := record.PL.Float64()
			summary.TotalPL += pl
			if pl >= 0 {
				wins++
			}
		}
	}

	if summary.TradeCount > 0 {
		summary.Winrate = float64(wins) / float64(summary.TradeCount) * 100
	}

	return summary
}

// BuildMonthlyExport aggregates the last 30 days per account, adding the
// percentage return against the current balance and the trades-per-active-
// hour ratio estimated from the activity log. The active-hours figure is
// the span between the first and last observation in the period; restarts
// within the span are not detected, which is the accepted approximation.
func (a *Aggregator) BuildMonthlyExport(accounts map[string]*models.AccountSnapshot, history map[string][]models.TradeRecord, activity map[string][]models.ActivityEntry, since *time.Time, now time.Time) models.MonthlyExport {
	cutoff := now.AddDate(0, 0, -30)
	if since != nil && since.After(cutoff) {
		cutoff = *since
	}

	export := models.MonthlyExport{
		Since:    cutoff,
		Accounts: make([]models.AccountExport, 0, len(accounts)),
	}
	totalWins := 0

	accountIDs := make([]string, 0, len(accounts))
	for id := range accounts {
		accountIDs = append(accountIDs, id)
	}
	sort.Strings(accountIDs)

	for _, id := range accountIDs {
		snap := accounts[id]
		row := models.AccountExport{
			AccountID:   id,
			AccountName: snap.AccountName,
		}
		if _, displayName, ok := a.ResolveEAIdentity(snap); ok {
			row.EAName = displayName
		}

		wins := 0
		for i := range history[id] {
			record := &history[id][i]
			if !record.IsTrade() {
				continue
			}
			closedAt, valid := ParseTerminalTime(record.CloseDate)
			if !valid || closedAt.Before(cutoff) {
				continue
			}

			row.TradeCount++
			pl := record.PL.Float64()
			row.TotalPL += pl
			if pl >= 0 {
				wins++
			}
		}

		if row.TradeCount > 0 {
			row.Winrate = float64(wins) / float64(row.TradeCount) * 100
		}

		balance := snap.Balance.Float64()
		if balance > 0 {
			row.ReturnPercent = row.TotalPL / balance * 100
		}

		row.ActiveHours, row.TradesPerHour = activityRatio(activity[id], cutoff, row.TradeCount)

		export.Summary.TradeCount += row.TradeCount
		export.Summary.TotalPL += row.TotalPL
		totalWins += wins

		export.Accounts = append(export.Accounts, row)
	}

	if export.Summary.TradeCount > 0 {
		export.Summary.Winrate = float64(totalWins) / float64(export.Summary.TradeCount) * 100
	}

	return export
}

// activityRatio estimates active hours and trades per active hour from the
// activity observations after the cutoff. Fewer than two samples yields 0.
func activityRatio(entries []models.ActivityEntry, cutoff time.Time, tradeCount int) (activeHours, tradesPerHour float64) {
	var first, last time.Time
	samples := 0

	for _, entry := range entries {
		if entry.Timestamp.Before(cutoff) {
			continue
		}
		if samples == 0 || entry.Timestamp.Before(first) {
			first = entry.Timestamp
		}
		if samples == 0 || entry.Timestamp.After(last) {
			last = entry.Timestamp
		}
		samples++
	}

	if samples < 2 {
		return 0, 0
	}

	activeHours = last.Sub(first).Hours()
	if activeHours > 0 {
		tradesPerHour = float64(tradeCount) / activeHours
	}

	return activeHours, tradesPerHour
}

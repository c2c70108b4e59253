package advisory

import "github.com/anime-shed/gridbot-inspector-go/internal/extractor"

const minutesPerDay = 24 * 60

// Projection linearly extrapolates the average historical P&L rate. No
// compounding and no trend detection.
type Projection struct {
	ActiveDays float64 `json:"active_days"`
	Daily      float64 `json:"daily"`
	Weekly     float64 `json:"weekly"`
	Monthly    float64 `json:"monthly"`
	// DailyReturnPct is set only when a positive investment is known.
	DailyReturnPct *float64 `json:"daily_return_pct,omitempty"`
}

// Project needs active_minutes and pnl_usdt. It returns the names of the
// missing inputs when it cannot project.
func Project(rec extractor.Record) (Projection, []string) {
	var missing []string
	minutes, hasMinutes := rec.Int(extractor.FieldActiveMinutes)
	if !hasMinutes {
		missing = append(missing, "active time")
	}
	pnl, hasPnL := rec.Float(extractor.FieldPnLUSDT)
	if !hasPnL {
		missing = append(missing, "P&L")
	}
	if len(missing) > 0 {
		return Projection{}, missing
	}

	if minutes < 1 {
		minutes = 1
	}
	days := float64(minutes) / minutesPerDay
	daily := pnl / days

	p := Projection{
		ActiveDays: days,
		Daily:      daily,
		Weekly:     daily * 7,
		Monthly:    daily * 30,
	}
	if inv, ok := rec.Float(extractor.FieldTotalInvestment); ok && inv > 0 {
		pct := daily / inv * 100
		p.DailyReturnPct = &pct
	}
	return p, nil
}

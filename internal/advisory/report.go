// Package advisory derives projections and setup advice from an extracted
// record. Everything here is a pure function of its input.
package advisory

import (
	"fmt"
	"strings"

	"github.com/anime-shed/gridbot-inspector-go/internal/extractor"
)

// Report is the ordered list of lines returned to the caller.
type Report []string

func (r Report) String() string {
	return strings.Join(r, "\n")
}

// Tier is the leverage bracket that selects the range/grid advice.
type Tier string

const (
	TierHigh Tier = "high"
	TierMid  Tier = "mid"
	TierLow  Tier = "low"
)

// Thresholds are the leverage boundaries, both inclusive on the lower side.
type Thresholds struct {
	HighLeverage float64
	MidLeverage  float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{HighLeverage: 10, MidLeverage: 5}
}

const (
	symbolPlaceholder = "ASSET"
	disclaimer        = "Note: projections are a linear extrapolation of past performance and do not guarantee returns. Leveraged positions carry liquidation risk; manage it first."
)

type Engine struct {
	th Thresholds
}

func New(th Thresholds) *Engine {
	if th.MidLeverage <= 0 || th.HighLeverage <= th.MidLeverage {
		th = DefaultThresholds()
	}
	return &Engine{th: th}
}

// LeverageTier classifies lev; unknown leverage should be passed as 1.
func (e *Engine) LeverageTier(lev float64) Tier {
	switch {
	case lev >= e.th.HighLeverage:
		return TierHigh
	case lev >= e.th.MidLeverage:
		return TierMid
	default:
		return TierLow
	}
}

// BuildReport never fails; every section has a fallback for missing fields.
func (e *Engine) BuildReport(rec extractor.Record) Report {
	var lines Report

	symbol, ok := rec.StringValue(extractor.FieldSymbol)
	if !ok {
		symbol = symbolPlaceholder
	}
	lines = append(lines, "Grid Bot Analysis - "+symbol)
	lines = append(lines, summary(rec)...)

	lines = append(lines, "", "Projection (based on performance so far)")
	lines = append(lines, projectionLines(rec)...)

	lines = append(lines, "", "Setup adjustment (heuristic)")
	lines = append(lines, e.adviceLines(rec)...)

	lines = append(lines, "", disclaimer)
	return lines
}

func summary(rec extractor.Record) []string {
	var lines []string
	if v, ok := rec.Float(extractor.FieldTotalInvestment); ok {
		lines = append(lines, fmt.Sprintf("• Investment: %.2f USDT", v))
	}
	if v, ok := rec.Float(extractor.FieldEquity); ok {
		lines = append(lines, fmt.Sprintf("• Equity: %.2f USDT", v))
	}
	pnl, hasPnL := rec.Float(extractor.FieldPnLUSDT)
	pct, hasPct := rec.Float(extractor.FieldPnLPct)
	if hasPnL && hasPct {
		lines = append(lines, fmt.Sprintf("• Total P&L: %.2f USDT (%.2f%%)", pnl, pct))
	}
	if v, ok := rec.Float(extractor.FieldGridProfit); ok {
		lines = append(lines, fmt.Sprintf("• Grid profit: %.2f USDT", v))
	}
	if v, ok := rec.Int(extractor.FieldProfitableTrades); ok {
		lines = append(lines, fmt.Sprintf("• Profitable trades: %d", v))
	}
	if v, ok := rec.Float(extractor.FieldLeverage); ok {
		lines = append(lines, fmt.Sprintf("• Leverage: Long %dx", int(v)))
	}

	low, hasLow := rec.Float(extractor.FieldLow)
	high, hasHigh := rec.Float(extractor.FieldHigh)
	if hasLow && hasHigh {
		lines = append(lines, fmt.Sprintf("• Current range: %.4f - %.4f", low, high))
	}
	grids, hasGrids := rec.Int(extractor.FieldGrids)
	gridType, hasType := rec.StringValue(extractor.FieldGridType)
	if hasGrids && hasType {
		lines = append(lines, fmt.Sprintf("• Grids: %d (%s)", grids, gridType))
	}

	up, hasUp := rec.Float(extractor.FieldTrailUp)
	down, hasDown := rec.Float(extractor.FieldTrailDown)
	if hasUp && hasDown {
		lines = append(lines, fmt.Sprintf("• Trailing limits: %g <-> %g", down, up))
	}
	return lines
}

func projectionLines(rec extractor.Record) []string {
	p, missing := Project(rec)
	if len(missing) > 0 {
		return []string{
			fmt.Sprintf("• Insufficient data: could not read %s with confidence in this screenshot.", strings.Join(missing, " and ")),
			"  Send a sharper, zoomed-in screenshot to calculate projections.",
		}
	}

	lines := []string{
		fmt.Sprintf("• Estimated active time: %.2f days", p.ActiveDays),
		fmt.Sprintf("• Average: %.2f USDT/day", p.Daily),
		fmt.Sprintf("• 7d projection: %.2f USDT", p.Weekly),
		fmt.Sprintf("• 30d projection: %.2f USDT", p.Monthly),
	}
	if p.DailyReturnPct != nil {
		lines = append(lines, fmt.Sprintf("• Average return: %.2f%% per day (on investment)", *p.DailyReturnPct))
	}
	return lines
}

func (e *Engine) adviceLines(rec extractor.Record) []string {
	low, hasLow := rec.Float(extractor.FieldLow)
	high, hasHigh := rec.Float(extractor.FieldHigh)
	if !hasLow || !hasHigh {
		return []string{"• Could not identify the Price Range in this screenshot. Send another one with the parameters area clearly visible."}
	}

	var lines []string
	if low > 0 {
		width := (high - low) / low * 100
		lines = append(lines, fmt.Sprintf("• Range width: %.2f%%", width))
	}

	lev, ok := rec.Float(extractor.FieldLeverage)
	if !ok {
		lev = 1
	}
	switch e.LeverageTier(lev) {
	case TierHigh:
		lines = append(lines,
			fmt.Sprintf("• At %gx+ leverage, prefer a wider range and fewer grids to reduce liquidation risk.", e.th.HighLeverage),
			"  Practical reference: range >= 18% and 20-35 grids (depends on the asset's volatility).")
	case TierMid:
		lines = append(lines,
			fmt.Sprintf("• At %gx leverage, aim for balance: range 12%%-20%% and 30-60 grids.", e.th.MidLeverage))
	default:
		lines = append(lines, "• With low leverage you can use more grids and a moderate range.")
	}

	gridType, _ := rec.StringValue(extractor.FieldGridType)
	switch extractor.GridType(gridType) {
	case extractor.GridArithmetic:
		lines = append(lines,
			"• Arithmetic type: fixed spacing, good for stable ranges, but levels get tight in strong moves.",
			"  If volatility rises, consider Geometric to spread the levels better.")
	case extractor.GridGeometric:
		lines = append(lines, "• Geometric type: percentage spacing, usually adapts better to crypto volatility.")
	}

	if rec.Has(extractor.FieldTrailUp) && rec.Has(extractor.FieldTrailDown) {
		lines = append(lines, "• Trailing: keep the down limit below key support; if price breaks upward, raise the up limit gradually.")
	}
	return lines
}

var defaultEngine = New(DefaultThresholds())

// BuildReport uses DefaultThresholds.
func BuildReport(rec extractor.Record) Report {
	return defaultEngine.BuildReport(rec)
}

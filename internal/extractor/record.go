package extractor

import (
	"encoding/json"
	"sort"
)

// Field names a value the extractor can pull out of a dashboard screenshot.
type Field string

const (
	// FieldRaw is reserved for the whitespace-collapsed recognized text and is
	// present on every record.
	FieldRaw Field = "raw"

	FieldSymbol           Field = "symbol"
	FieldLeverage         Field = "leverage"
	FieldTotalInvestment  Field = "total_investment"
	FieldPnLUSDT          Field = "pnl_usdt"
	FieldPnLPct           Field = "pnl_pct"
	FieldCurrentPnLUSDT   Field = "current_pnl_usdt"
	FieldCurrentPnLPct    Field = "current_pnl_pct"
	FieldEquity           Field = "equity"
	FieldGridProfit       Field = "grid_profit"
	FieldProfitableTrades Field = "profitable_trades"
	FieldActiveMinutes    Field = "active_minutes"
	FieldOrigLow          Field = "orig_low"
	FieldOrigHigh         Field = "orig_high"
	FieldLow              Field = "low"
	FieldHigh             Field = "high"
	FieldGrids            Field = "grids"
	FieldGridType         Field = "grid_type"
	FieldTrailUp          Field = "trail_up"
	FieldTrailDown        Field = "trail_down"
)

// GridType is the level spacing of a grid bot.
type GridType string

const (
	GridArithmetic GridType = "arithmetic"
	GridGeometric  GridType = "geometric"
)

// Record is the immutable outcome of one extraction. Absent fields mean the
// pattern did not match.
type Record struct {
	raw    string
	values map[Field]any
}

// NewRecord builds a record from already-typed values. Values must be
// float64, int, string or GridType; FieldRaw in values is ignored.
func NewRecord(raw string, values map[Field]any) Record {
	copied := make(map[Field]any, len(values))
	for f, v := range values {
		if f == FieldRaw {
			continue
		}
		copied[f] = v
	}
	return Record{raw: raw, values: copied}
}

// Raw returns the recognized text the record was extracted from.
func (r Record) Raw() string { return r.raw }

func (r Record) Has(f Field) bool {
	if f == FieldRaw {
		return true
	}
	_, ok := r.values[f]
	return ok
}

// Len counts the raw-text key plus every extracted field.
func (r Record) Len() int { return len(r.values) + 1 }

func (r Record) Float(f Field) (float64, bool) {
	switch v := r.values[f].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

func (r Record) Int(f Field) (int, bool) {
	v, ok := r.values[f].(int)
	return v, ok
}

func (r Record) StringValue(f Field) (string, bool) {
	if f == FieldRaw {
		return r.raw, true
	}
	switch v := r.values[f].(type) {
	case string:
		return v, true
	case GridType:
		return string(v), true
	}
	return "", false
}

// Fields lists the extracted fields in name order, without FieldRaw.
func (r Record) Fields() []Field {
	out := make([]Field, 0, len(r.values))
	for f := range r.values {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Map returns a copy keyed by field name, including "raw".
func (r Record) Map() map[string]any {
	out := make(map[string]any, len(r.values)+1)
	for f, v := range r.values {
		if gt, ok := v.(GridType); ok {
			v = string(gt)
		}
		out[string(f)] = v
	}
	out[string(FieldRaw)] = r.raw
	return out
}

func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Map())
}

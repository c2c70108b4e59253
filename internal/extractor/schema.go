package extractor

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	number       = `([0-9]+(?:\.[0-9]+)?)`
	signedNumber = `([+-]?[0-9]+(?:\.[0-9]+)?)`
)

// pnlTail matches "<amount> <percent>%" with optional parentheses.
const pnlTail = `.*?` + signedNumber + `\s*\(?\s*` + signedNumber + `\s*%\s*\)?`

var precededByOriginal = regexp.MustCompile(`(?i)original\s*$`)

// Rule extracts one or more fields from a single pattern match. Anchors and
// payloads may be separated by arbitrary OCR noise.
type Rule struct {
	Name    string
	Fields  []Field
	Pattern *regexp.Regexp
	// Skip rejects a candidate match given all text before it; the search
	// then resumes right after the candidate's start.
	Skip func(prefix string) bool
	// Bind converts the capture groups (group 0 excluded) to typed values.
	Bind func(groups []string) (map[Field]any, bool)
}

// Apply returns the values bound from the first acceptable match.
func (r Rule) Apply(text string) (map[Field]any, bool) {
	pos := 0
	for pos <= len(text) {
		loc := r.Pattern.FindStringSubmatchIndex(text[pos:])
		if loc == nil {
			return nil, false
		}
		start := pos + loc[0]
		if r.Skip != nil && r.Skip(text[:start]) {
			pos = start + 1
			continue
		}

		groups := make([]string, 0, len(loc)/2-1)
		for i := 2; i < len(loc); i += 2 {
			if loc[i] < 0 {
				groups = append(groups, "")
				continue
			}
			groups = append(groups, text[pos+loc[i]:pos+loc[i+1]])
		}
		return r.Bind(groups)
	}
	return nil, false
}

// Schema is an ordered, enumerable set of rules.
type Schema struct {
	rules []Rule
}

// NewSchema rejects rules without a pattern or binder and duplicate field
// ownership, so every field has exactly one source.
func NewSchema(rules ...Rule) (*Schema, error) {
	owner := make(map[Field]string)
	for _, r := range rules {
		if r.Pattern == nil || r.Bind == nil {
			return nil, fmt.Errorf("rule %q: pattern and bind are required", r.Name)
		}
		if len(r.Fields) == 0 {
			return nil, fmt.Errorf("rule %q: declares no fields", r.Name)
		}
		for _, f := range r.Fields {
			if f == FieldRaw {
				return nil, fmt.Errorf("rule %q: field %q is reserved", r.Name, f)
			}
			if prev, ok := owner[f]; ok {
				return nil, fmt.Errorf("rule %q: field %q already bound by %q", r.Name, f, prev)
			}
			owner[f] = r.Name
		}
	}
	return &Schema{rules: append([]Rule(nil), rules...)}, nil
}

// Rules returns a copy of the schema's rules.
func (s *Schema) Rules() []Rule {
	return append([]Rule(nil), s.rules...)
}

// Fields lists every field the schema can produce, in rule order.
func (s *Schema) Fields() []Field {
	var out []Field
	for _, r := range s.rules {
		out = append(out, r.Fields...)
	}
	return out
}

// DefaultSchema covers the status and parameters panels of a futures grid bot.
func DefaultSchema() *Schema {
	s, err := NewSchema(
		Rule{
			Name:    "symbol",
			Fields:  []Field{FieldSymbol},
			Pattern: regexp.MustCompile(`\b([A-Z]{3,10}USDT)\b`),
			Bind:    bindStrings(FieldSymbol),
		},
		Rule{
			Name:    "leverage",
			Fields:  []Field{FieldLeverage},
			Pattern: regexp.MustCompile(`(?i)\bLong\s*(\d{1,2})x\b`),
			Bind:    bindFloats(FieldLeverage),
		},
		Rule{
			Name:    "total_investment",
			Fields:  []Field{FieldTotalInvestment},
			Pattern: regexp.MustCompile(`(?i)Total\s*Investment.*?` + number),
			Bind:    bindFloats(FieldTotalInvestment),
		},
		Rule{
			Name:    "pnl",
			Fields:  []Field{FieldPnLUSDT, FieldPnLPct},
			Pattern: regexp.MustCompile(`(?i)P&L` + pnlTail),
			Bind:    bindFloats(FieldPnLUSDT, FieldPnLPct),
		},
		Rule{
			Name:    "current_pnl",
			Fields:  []Field{FieldCurrentPnLUSDT, FieldCurrentPnLPct},
			Pattern: regexp.MustCompile(`(?i)Current\s*P&L` + pnlTail),
			Bind:    bindFloats(FieldCurrentPnLUSDT, FieldCurrentPnLPct),
		},
		Rule{
			Name:    "equity",
			Fields:  []Field{FieldEquity},
			Pattern: regexp.MustCompile(`(?i)Equity.*?` + number),
			Bind:    bindFloats(FieldEquity),
		},
		Rule{
			Name:    "grid_profit",
			Fields:  []Field{FieldGridProfit},
			Pattern: regexp.MustCompile(`(?i)Grid\s*Profit.*?` + signedNumber),
			Bind:    bindFloats(FieldGridProfit),
		},
		Rule{
			Name:    "profitable_trades",
			Fields:  []Field{FieldProfitableTrades},
			Pattern: regexp.MustCompile(`(?i)Profitable\s*Trades.*?([0-9]{1,6})`),
			Bind:    bindInts(FieldProfitableTrades),
		},
		Rule{
			Name:    "active_time",
			Fields:  []Field{FieldActiveMinutes},
			Pattern: regexp.MustCompile(`(?i)Active\s*-\s*(\d+)\s*D\s*(\d+)\s*h\s*(\d+)\s*m`),
			Bind:    bindActiveMinutes,
		},
		Rule{
			Name:    "original_price_range",
			Fields:  []Field{FieldOrigLow, FieldOrigHigh},
			Pattern: regexp.MustCompile(`(?i)Original\s*price\s*range.*?` + number + `\s*-\s*` + number),
			Bind:    bindFloats(FieldOrigLow, FieldOrigHigh),
		},
		Rule{
			Name:    "price_range",
			Fields:  []Field{FieldLow, FieldHigh},
			Pattern: regexp.MustCompile(`(?i)\bPrice\s*Range.*?` + number + `\s*-\s*` + number),
			Skip:    precededByOriginal.MatchString,
			Bind:    bindFloats(FieldLow, FieldHigh),
		},
		Rule{
			Name:    "grids",
			Fields:  []Field{FieldGrids, FieldGridType},
			Pattern: regexp.MustCompile(`(?i)\bGrids\s*([0-9]{1,4})\s*\((Arithmetic|Geometric)\)`),
			Bind:    bindGrids,
		},
		Rule{
			Name:    "trailing_limits",
			Fields:  []Field{FieldTrailUp, FieldTrailDown},
			Pattern: regexp.MustCompile(`(?i)Trailing\s*up/down\s*limit\s*price\s*` + number + `[/ ]` + number),
			Bind:    bindFloats(FieldTrailUp, FieldTrailDown),
		},
	)
	if err != nil {
		panic(err)
	}
	return s
}

func bindStrings(fields ...Field) func([]string) (map[Field]any, bool) {
	return func(groups []string) (map[Field]any, bool) {
		if len(groups) < len(fields) {
			return nil, false
		}
		out := make(map[Field]any, len(fields))
		for i, f := range fields {
			out[f] = groups[i]
		}
		return out, true
	}
}

func bindFloats(fields ...Field) func([]string) (map[Field]any, bool) {
	return func(groups []string) (map[Field]any, bool) {
		if len(groups) < len(fields) {
			return nil, false
		}
		out := make(map[Field]any, len(fields))
		for i, f := range fields {
			v, err := strconv.ParseFloat(groups[i], 64)
			if err != nil {
				return nil, false
			}
			out[f] = v
		}
		return out, true
	}
}

func bindInts(fields ...Field) func([]string) (map[Field]any, bool) {
	return func(groups []string) (map[Field]any, bool) {
		if len(groups) < len(fields) {
			return nil, false
		}
		out := make(map[Field]any, len(fields))
		for i, f := range fields {
			v, err := strconv.Atoi(groups[i])
			if err != nil {
				return nil, false
			}
			out[f] = v
		}
		return out, true
	}
}

func bindActiveMinutes(groups []string) (map[Field]any, bool) {
	if len(groups) < 3 {
		return nil, false
	}
	var parts [3]int
	for i := range parts {
		v, err := strconv.Atoi(groups[i])
		if err != nil {
			return nil, false
		}
		parts[i] = v
	}
	return map[Field]any{FieldActiveMinutes: parts[0]*24*60 + parts[1]*60 + parts[2]}, true
}

func bindGrids(groups []string) (map[Field]any, bool) {
	if len(groups) < 2 {
		return nil, false
	}
	n, err := strconv.Atoi(groups[0])
	if err != nil {
		return nil, false
	}
	return map[Field]any{
		FieldGrids:    n,
		FieldGridType: GridType(strings.ToLower(groups[1])),
	}, true
}

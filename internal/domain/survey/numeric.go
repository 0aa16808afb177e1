package survey

import (
	"encoding/json"
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// leadingNumber matches the numeric prefix of strings such as "120 acres".
var leadingNumber = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)`)

// ParseOrZero coerces a survey leaf into a finite number. Missing, empty and
// unparseable values are 0; the function never panics.
func ParseOrZero(v any) float64 {
	f, _ := parseLeaf(v)
	return f
}

// DecimalOrZero is ParseOrZero with decimal precision, used for money.
func DecimalOrZero(v any) decimal.Decimal {
	d, _ := parseDecimal(v)
	return d
}

// parseLeaf returns the coerced number and whether the value was usable.
// Empty values are usable (they are simply zero); garbage text is not.
func parseLeaf(v any) (float64, bool) {
	d, ok := parseDecimal(v)
	f := d.InexactFloat64()
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, ok
}

func parseDecimal(v any) (decimal.Decimal, bool) {
	switch t := v.(type) {
	case nil:
		return decimal.Zero, true
	case float64:
		return finite(t)
	case float32:
		return finite(float64(t))
	case int:
		return decimal.NewFromInt(int64(t)), true
	case int32:
		return decimal.NewFromInt(int64(t)), true
	case int64:
		return decimal.NewFromInt(t), true
	case uint:
		return decimal.NewFromInt(int64(t)), true
	case uint32:
		return decimal.NewFromInt(int64(t)), true
	case uint64:
		if t > math.MaxInt64 {
			return decimal.Zero, false
		}
		return decimal.NewFromInt(int64(t)), true
	case decimal.Decimal:
		return t, true
	case json.Number:
		return parseNumericString(t.String())
	case string:
		return parseNumericString(t)
	default:
		return decimal.Zero, false
	}
}

func finite(f float64) (decimal.Decimal, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(f), true
}

func parseNumericString(s string) (decimal.Decimal, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return decimal.Zero, true
	}
	if d, err := decimal.NewFromString(s); err == nil {
		return d, true
	}
	if m := leadingNumber.FindString(s); m != "" {
		if d, err := decimal.NewFromString(m); err == nil {
			return d, true
		}
	}
	return decimal.Zero, false
}

//Personal.AI order the ending

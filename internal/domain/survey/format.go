package survey

import (
	"strings"

	"github.com/shopspring/decimal"
)

var (
	crore = decimal.NewFromInt(10_000_000)
	lakh  = decimal.NewFromInt(100_000)
)

// FormatIndianNumber groups digits the Indian way (12,34,567) and keeps up
// to two decimal places when the value is fractional.
func FormatIndianNumber(v float64) string {
	d, _ := finite(v)
	return formatIndianDecimal(d.Round(2))
}

// FormatIndianCurrency renders rupees with a crore or lakh suffix for large
// amounts, e.g. "₹1.25 Cr", "₹3.40 L", "₹45,000".
func FormatIndianCurrency(v float64) string {
	d, _ := finite(v)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	switch {
	case d.GreaterThanOrEqual(crore):
		return sign + "₹" + d.Div(crore).StringFixed(2) + " Cr"
	case d.GreaterThanOrEqual(lakh):
		return sign + "₹" + d.Div(lakh).StringFixed(2) + " L"
	default:
		return sign + "₹" + formatIndianDecimal(d.Round(2))
	}
}

func formatIndianDecimal(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	s := d.StringFixed(2)
	intPart, frac, _ := strings.Cut(s, ".")
	if strings.Trim(frac, "0") == "" {
		frac = ""
	}

	grouped := intPart
	if len(intPart) > 3 {
		head, tail := intPart[:len(intPart)-3], intPart[len(intPart)-3:]
		var groups []string
		for len(head) > 2 {
			groups = append([]string{head[len(head)-2:]}, groups...)
			head = head[:len(head)-2]
		}
		if head != "" {
			groups = append([]string{head}, groups...)
		}
		grouped = strings.Join(groups, ",") + "," + tail
	}
	if frac != "" {
		return sign + grouped + "." + frac
	}
	return sign + grouped
}

//Personal.AI order the ending

package strategy

import (
	"strings"

	"github.com/shopspring/decimal"
)

// metalPrefixes are base currencies quoted in dollars with cent precision.
var metalPrefixes = []string{"XAU", "XAG", "XPT", "XPD"}

// PrecisionFor returns the number of decimals used for a symbol's levels:
// 2 for metals quoted in dollars, 4 for currency pairs.
func PrecisionFor(symbol string) int {
	s := strings.ToUpper(strings.ReplaceAll(symbol, "/", ""))
	for _, p := range metalPrefixes {
		if strings.HasPrefix(s, p) {
			return 2
		}
	}
	return 4
}

// Round rounds half away from zero to the given number of decimals.
func Round(v float64, places int) float64 {
	f, _ := decimal.NewFromFloat(v).Round(int32(places)).Float64()
	return f
}

// FormatPrice renders a price with exactly `places` decimals.
func FormatPrice(v float64, places int) string {
	return decimal.NewFromFloat(v).StringFixed(int32(places))
}

package deviation

import (
	"math"

	"github.com/shopspring/decimal"
)

// DefaultThreshold is used when no threshold is configured.
const DefaultThreshold = 1.0

// Decide reports whether the standard deviation strictly exceeds threshold.
// Zero and negative thresholds are valid and simply trigger more often;
// -Inf always triggers, +Inf and NaN never do.
func Decide(result Result, threshold float64) bool {
	switch {
	case math.IsNaN(threshold):
		return false
	case math.IsInf(threshold, -1):
		return true
	case math.IsInf(threshold, 1):
		return false
	}
	return result.StdDev.GreaterThan(decimal.NewFromFloat(threshold))
}

package deviation

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"stddevalert/internal/market"
)

// MinSamples is the smallest window a sample standard deviation is defined for.
const MinSamples = 2

// Result holds the statistics derived from one price window.
type Result struct {
	LastPrice    decimal.Decimal
	AveragePrice decimal.Decimal
	StdDev       decimal.Decimal
	Change       decimal.Decimal
	Samples      int
}

// InsufficientDataError is returned when the window is too small to compute a deviation.
type InsufficientDataError struct {
	Samples int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: %d samples, need at least %d", e.Samples, MinSamples)
}

// Compute derives last price, mean, sample standard deviation and change from
// a window that is already ordered oldest first.
func Compute(window market.Window) (Result, error) {
	n := len(window)
	if n < MinSamples {
		return Result{}, &InsufficientDataError{Samples: n}
	}

	count := decimal.NewFromInt(int64(n))

	sum := decimal.Zero
	for _, s := range window {
		sum = sum.Add(s.Price)
	}
	mean := sum.Div(count)

	squares := decimal.Zero
	for _, s := range window {
		diff := s.Price.Sub(mean)
		squares = squares.Add(diff.Mul(diff))
	}

	// Bessel's correction: the window is a sample of the wider price series.
	variance := squares.Div(count.Sub(decimal.NewFromInt(1)))
	stddev := decimal.Zero
	if variance.IsPositive() {
		stddev = decimal.NewFromFloat(math.Sqrt(variance.InexactFloat64()))
	}

	first := window.First().Price
	last := window.Last().Price

	return Result{
		LastPrice:    last,
		AveragePrice: mean,
		StdDev:       stddev,
		Change:       last.Sub(first),
		Samples:      n,
	}, nil
}

package market

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// PriceSample is a single hourly price observation.
type PriceSample struct {
	Time  time.Time
	Price decimal.Decimal
}

// Window is a set of samples covering the trailing alert window.
type Window []PriceSample

// Sorted returns a copy of the window ordered oldest first.
func (w Window) Sorted() Window {
	out := make(Window, len(w))
	copy(out, w)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out
}

// IsChronological reports whether samples are ordered oldest first.
func (w Window) IsChronological() bool {
	return sort.SliceIsSorted(w, func(i, j int) bool { return w[i].Time.Before(w[j].Time) })
}

// Prices returns the sample prices in window order.
func (w Window) Prices() []decimal.Decimal {
	prices := make([]decimal.Decimal, len(w))
	for i, s := range w {
		prices[i] = s.Price
	}
	return prices
}

// First returns the oldest sample. Callers must check the window is non-empty.
func (w Window) First() PriceSample { return w[0] }

// Last returns the newest sample. Callers must check the window is non-empty.
func (w Window) Last() PriceSample { return w[len(w)-1] }

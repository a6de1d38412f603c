// Package formulas holds the small numeric helpers used by market quote generation.
package formulas

import (
	"math"

	"github.com/markcheno/go-talib"
	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// SMA returns the simple moving average of the last `length` closes.
//
// When fewer closes than `length` are available the mean of the whole
// series is returned instead. Returns nil for an empty series.
func SMA(closes []float64, length int) *float64 {
	if len(closes) == 0 || length <= 0 {
		return nil
	}

	if len(closes) < length {
		m := Mean(closes)
		return &m
	}

	sma := talib.Sma(closes, length)
	if len(sma) > 0 && !math.IsNaN(sma[len(sma)-1]) {
		result := sma[len(sma)-1]
		return &result
	}

	m := Mean(closes[len(closes)-length:])
	return &m
}

// Round rounds val to the given number of decimals.
func Round(val float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(val*p) / p
}

package calculator

import (
	"errors"

	"TickData/internal/tick"
)

// CalculateSMA computes the simple moving average of the last period prices.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// MidRates extracts the mid rate of each tick.
func MidRates(ticks []tick.Tick) []float64 {
	mids := make([]float64, len(ticks))
	for i, t := range ticks {
		mids[i] = t.MidRate()
	}
	return mids
}

// Spreads extracts the ask minus bid spread of each tick.
func Spreads(ticks []tick.Tick) []float64 {
	spreads := make([]float64, len(ticks))
	for i, t := range ticks {
		spreads[i] = t.AskRate() - t.BidRate()
	}
	return spreads
}

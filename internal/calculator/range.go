// Package calculator derives summary statistics from the ticks of a session.
package calculator

import (
	"errors"
	"math"

	"TickData/internal/tick"
)

// MidRange returns the highest and lowest mid rate of ticks.
func MidRange(ticks []tick.Tick) (high, low float64, err error) {
	if len(ticks) == 0 {
		return 0, 0, errors.New("no ticks provided")
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, t := range ticks {
		if t.MidRate() > high {
			high = t.MidRate()
		}
		if t.MidRate() < low {
			low = t.MidRate()
		}
	}
	return high, low, nil
}

// RangePosition returns where current sits within [low, high] (0.0~1.0).
func RangePosition(current, high, low float64) (float64, error) {
	if high == low {
		return 0.5, nil
	}
	if high < low {
		return 0, errors.New("high must be >= low")
	}
	pos := (current - low) / (high - low)
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	return pos, nil
}

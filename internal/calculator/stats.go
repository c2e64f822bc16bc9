package calculator

import (
	"errors"
	"slices"
	"time"

	"TickData/internal/asset"
	"TickData/internal/tick"
)

// SessionStats summarizes the ticks of one session. Spreads are in pips.
type SessionStats struct {
	Count     int
	First     time.Time
	Last      time.Time
	OpenMid   float64
	CloseMid  float64
	HighMid   float64
	LowMid    float64
	ClosePos  float64 // close within [LowMid, HighMid]
	AvgSpread float64
	MaxSpread float64
	// SMA is the mean mid rate of the last SMAPeriod ticks, or 0 when the
	// session is shorter.
	SMA       float64
	SMAPeriod int
}

// Summarize computes the statistics of ticks, which must be non-empty and of
// asset a.
func Summarize(a *asset.Asset, ticks []tick.Tick, smaPeriod int) (*SessionStats, error) {
	if a == nil {
		return nil, errors.New("nil asset")
	}
	high, low, err := MidRange(ticks)
	if err != nil {
		return nil, err
	}
	first, last := ticks[0], ticks[len(ticks)-1]

	s := &SessionStats{
		Count:     len(ticks),
		First:     first.TickOn(),
		Last:      last.TickOn(),
		OpenMid:   first.MidRate(),
		CloseMid:  last.MidRate(),
		HighMid:   high,
		LowMid:    low,
		SMAPeriod: smaPeriod,
	}
	if s.ClosePos, err = RangePosition(s.CloseMid, high, low); err != nil {
		return nil, err
	}

	spreads := Spreads(ticks)
	var sum float64
	for _, sp := range spreads {
		sum += sp
	}
	s.AvgSpread = a.RateToPips(sum / float64(len(spreads)))
	s.MaxSpread = a.RateToPips(slices.Max(spreads))

	if sma, err := CalculateSMA(MidRates(ticks), smaPeriod); err == nil {
		s.SMA = sma
	}
	return s, nil
}

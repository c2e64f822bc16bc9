// Package tick holds the validated bid/ask quote value.
package tick

import (
	"fmt"
	"time"

	"TickData/internal/asset"
	"TickData/internal/calendar"
	"TickData/internal/errs"
)

// Tick is one immutable quote. The zero Tick means "no tick".
type Tick struct {
	symbol  asset.Symbol
	tickOn  time.Time
	bidRate float64
	askRate float64
	midRate float64
}

// New validates and builds a tick. tickOn must fall on a whole millisecond and
// rates must already be exact at the asset precision; neither is rounded here.
func New(cal *calendar.Calendar, a *asset.Asset, tickOn time.Time, bid, ask float64) (Tick, error) {
	if cal == nil {
		return Tick{}, errs.Null("calendar")
	}
	if a == nil {
		return Tick{}, errs.Null("asset")
	}
	if !cal.IsValidTickOn(tickOn) {
		return Tick{}, errs.Range("tickOn", calendar.Text(tickOn), "not within a trading session")
	}
	if tickOn.Nanosecond()%int(time.Millisecond) != 0 {
		return Tick{}, errs.Range("tickOn", tickOn.Format(time.RFC3339Nano), "not a whole millisecond")
	}
	if !a.IsRate(bid) {
		return Tick{}, errs.Range("bidRate", bid, fmt.Sprintf("not a %s rate", a))
	}
	if !a.IsRate(ask) {
		return Tick{}, errs.Range("askRate", ask, fmt.Sprintf("not a %s rate", a))
	}
	return Tick{
		symbol:  a.Symbol(),
		tickOn:  tickOn,
		bidRate: bid,
		askRate: ask,
		midRate: a.Round((bid + ask) / 2),
	}, nil
}

func (t Tick) Symbol() asset.Symbol { return t.symbol }
func (t Tick) TickOn() time.Time    { return t.tickOn }
func (t Tick) BidRate() float64     { return t.bidRate }
func (t Tick) AskRate() float64     { return t.askRate }
func (t Tick) MidRate() float64     { return t.midRate }

// BaseDate returns the base date of the session the tick belongs to.
func (t Tick) BaseDate() time.Time { return calendar.ToBaseDate(t.tickOn) }

// IsZero reports whether t is the zero Tick.
func (t Tick) IsZero() bool { return t.symbol == 0 }

// Equal compares all five fields.
func (t Tick) Equal(other Tick) bool {
	return t.symbol == other.symbol &&
		t.tickOn.Equal(other.tickOn) &&
		t.bidRate == other.bidRate &&
		t.askRate == other.askRate &&
		t.midRate == other.midRate
}

// CSV renders the tick as SYMBOL,MM/dd/yyyy HH:mm:ss.fff,bid,ask using the
// asset's formatting.
func (t Tick) CSV(a *asset.Asset) string {
	return fmt.Sprintf("%s,%s,%s,%s", t.symbol, calendar.Text(t.tickOn), a.Format(t.bidRate), a.Format(t.askRate))
}

func (t Tick) String() string {
	return fmt.Sprintf("%s %s %v/%v", t.symbol, calendar.Text(t.tickOn), t.bidRate, t.askRate)
}

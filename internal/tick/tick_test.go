package tick

import (
	"testing"
	"time"

	"TickData/internal/asset"
	"TickData/internal/calendar"
	"TickData/internal/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var catalog = asset.MustLoadCatalog()

func testCalendar(t *testing.T) *calendar.Calendar {
	t.Helper()
	cal, err := calendar.New(2012, calendar.WithClock(func() time.Time {
		return time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	}))
	require.NoError(t, err)
	return cal
}

func TestNew(t *testing.T) {
	cal := testCalendar(t)
	eurUsd := catalog.Get(asset.EURUSD)
	at := calendar.At(2012, 1, 4, 17, 0, 0, 123)

	tk, err := New(cal, eurUsd, at, 1.29345, 1.29361)
	require.NoError(t, err)
	assert.Equal(t, asset.EURUSD, tk.Symbol())
	assert.Equal(t, at, tk.TickOn())
	assert.Equal(t, 1.29345, tk.BidRate())
	assert.Equal(t, 1.29361, tk.AskRate())
	assert.Equal(t, 1.29353, tk.MidRate())
	assert.Equal(t, calendar.Date(2012, 1, 4), tk.BaseDate())
	assert.False(t, tk.IsZero())
	assert.True(t, Tick{}.IsZero())
}

func TestNew_MidRateRoundsHalfToEven(t *testing.T) {
	cal := testCalendar(t)
	usdJpy := catalog.Get(asset.USDJPY)

	tk, err := New(cal, usdJpy, calendar.At(2012, 1, 4, 18, 0, 0, 0), 76.815, 76.816)
	require.NoError(t, err)
	assert.Equal(t, 76.816, tk.MidRate())
}

func TestNew_Rejects(t *testing.T) {
	cal := testCalendar(t)
	eurUsd := catalog.Get(asset.EURUSD)
	valid := calendar.At(2012, 1, 4, 17, 0, 0, 0)

	_, err := New(nil, eurUsd, valid, 1.2, 1.2)
	assert.ErrorIs(t, err, errs.ErrNull)
	_, err = New(cal, nil, valid, 1.2, 1.2)
	assert.ErrorIs(t, err, errs.ErrNull)

	tests := []struct {
		name     string
		at       time.Time
		bid, ask float64
		field    string
	}{
		{"saturday", calendar.At(2012, 1, 7, 12, 0, 0, 0), 1.2, 1.2, "tickOn"},
		{"holiday", calendar.At(2012, 12, 25, 18, 0, 0, 0), 1.2, 1.2, "tickOn"},
		{"sub-millisecond", valid.Add(50 * time.Nanosecond), 1.2, 1.2, "tickOn"},
		{"tenth of a millisecond", valid.Add(100 * time.Microsecond), 1.2, 1.2, "tickOn"},
		{"extra digit bid", valid, 1.293451, 1.2, "bidRate"},
		{"extra digit ask", valid, 1.2, 1.293451, "askRate"},
		{"zero bid", valid, 0, 1.2, "bidRate"},
		{"too large ask", valid, 1.2, 10, "askRate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(cal, eurUsd, tt.at, tt.bid, tt.ask)
			require.ErrorIs(t, err, errs.ErrOutOfRange)
			var rangeErr *errs.RangeError
			require.ErrorAs(t, err, &rangeErr)
			assert.Equal(t, tt.field, rangeErr.Field)
		})
	}
}

func TestTick_Equal(t *testing.T) {
	cal := testCalendar(t)
	eurUsd := catalog.Get(asset.EURUSD)
	at := calendar.At(2012, 1, 4, 17, 0, 0, 0)

	a, err := New(cal, eurUsd, at, 1.2, 1.3)
	require.NoError(t, err)
	b, err := New(cal, eurUsd, at, 1.2, 1.3)
	require.NoError(t, err)
	c, err := New(cal, eurUsd, at.Add(time.Millisecond), 1.2, 1.3)
	require.NoError(t, err)

	assert.True(t, a.Equal(b))
	assert.True(t, a.Equal(a))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(Tick{}))
}

func TestTick_CSV(t *testing.T) {
	cal := testCalendar(t)
	usdJpy := catalog.Get(asset.USDJPY)

	tk, err := New(cal, usdJpy, calendar.At(2012, 1, 4, 17, 0, 5, 7), 76.8, 76.815)
	require.NoError(t, err)
	assert.Equal(t, "USDJPY,01/04/2012 17:00:05.007,76.800,76.815", tk.CSV(usdJpy))
}

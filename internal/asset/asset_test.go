package asset

import (
	"testing"

	"TickData/internal/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DerivedConstants(t *testing.T) {
	tests := []struct {
		symbol    Symbol
		precision int
		factor    float64
		minValue  float64
		maxValue  float64
		onePip    float64
	}{
		{EURUSD, 5, 10000, 0.00001, 9.99999, 0.0001},
		{USDJPY, 3, 100, 0.001, 999.999, 0.01},
	}
	for _, tt := range tests {
		t.Run(tt.symbol.String(), func(t *testing.T) {
			a, err := New(tt.symbol, Forex, tt.precision, "XXX")
			require.NoError(t, err)
			assert.Equal(t, tt.symbol, a.Symbol())
			assert.Equal(t, Forex, a.Kind())
			assert.Equal(t, tt.precision, a.Precision())
			assert.Equal(t, "XXX", a.Description())
			assert.Equal(t, tt.factor, a.Factor())
			assert.Equal(t, tt.minValue, a.MinValue())
			assert.Equal(t, tt.minValue, a.OneTick())
			assert.Equal(t, tt.maxValue, a.MaxValue())
			assert.Equal(t, tt.onePip, a.OnePip())
		})
	}
}

func TestNew_BadArgs(t *testing.T) {
	tests := []struct {
		name        string
		symbol      Symbol
		kind        Kind
		precision   int
		description string
	}{
		{"undeclared symbol", 0, Forex, 5, "XXX"},
		{"symbol past the end", ZARJPY + 1, Forex, 5, "XXX"},
		{"undeclared kind", EURUSD, 0, 5, "XXX"},
		{"precision 2", EURUSD, Forex, 2, "XXX"},
		{"precision 4", EURUSD, Forex, 4, "XXX"},
		{"precision 6", EURUSD, Forex, 6, "XXX"},
		{"blank description", EURUSD, Forex, 5, " "},
		{"empty description", EURUSD, Forex, 5, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := New(tt.symbol, tt.kind, tt.precision, tt.description)
			assert.Nil(t, a)
			assert.ErrorIs(t, err, errs.ErrOutOfRange)
		})
	}
}

func TestAsset_EqualBySymbolOnly(t *testing.T) {
	a, err := New(EURUSD, Forex, 5, "one")
	require.NoError(t, err)
	b, err := New(EURUSD, Forex, 3, "two")
	require.NoError(t, err)
	c, err := New(USDJPY, Forex, 3, "two")
	require.NoError(t, err)

	assert.True(t, a.Equal(b))
	assert.False(t, b.Equal(c))
	assert.False(t, a.Equal(nil))
}

func TestAsset_IsRate(t *testing.T) {
	c := MustLoadCatalog()
	eurUsd := c.Get(EURUSD)
	usdJpy := c.Get(USDJPY)

	assert.True(t, eurUsd.IsRate(1.29345))
	assert.True(t, eurUsd.IsRate(eurUsd.MinValue()))
	assert.True(t, eurUsd.IsRate(eurUsd.MaxValue()))
	assert.False(t, eurUsd.IsRate(eurUsd.Round(eurUsd.MinValue()-eurUsd.OneTick())))
	assert.False(t, eurUsd.IsRate(eurUsd.Round(eurUsd.MaxValue()+eurUsd.OneTick())))
	assert.False(t, eurUsd.IsRate(eurUsd.MinValue()+0.000001))
	assert.False(t, eurUsd.IsRate(1.293451))

	assert.True(t, usdJpy.IsRate(76.815))
	assert.False(t, usdJpy.IsRate(usdJpy.MinValue()+0.0001))
	assert.False(t, usdJpy.IsRate(76.8151))
}

func TestAsset_RoundAndFormat(t *testing.T) {
	c := MustLoadCatalog()
	eurUsd := c.Get(EURUSD)
	usdJpy := c.Get(USDJPY)

	assert.Equal(t, 1.29345, eurUsd.Round(float64(float32(1.29345))))
	assert.Equal(t, 76.815, usdJpy.Round(float64(float32(76.815))))
	assert.Equal(t, "1.29300", eurUsd.Format(1.293))
	assert.Equal(t, "76.800", usdJpy.Format(76.8))
}

func TestPips(t *testing.T) {
	c := MustLoadCatalog()
	eurUsd := c.Get(EURUSD)

	assert.True(t, IsPips(0.1))
	assert.True(t, IsPips(999.9))
	assert.False(t, IsPips(0.05))
	assert.False(t, IsPips(1000))
	assert.False(t, IsPips(1.25))

	assert.Equal(t, 0.0015, eurUsd.PipsToRate(15))
	assert.Equal(t, 15.0, eurUsd.RateToPips(0.0015))
}

func TestSymbol_Parse(t *testing.T) {
	s, err := ParseSymbol(" eurusd ")
	require.NoError(t, err)
	assert.Equal(t, EURUSD, s)
	assert.Equal(t, "EURUSD", s.String())

	_, err = ParseSymbol("EURXXX")
	assert.Error(t, err)

	assert.Len(t, Symbols(), 71)
	assert.Equal(t, AUDCAD, Symbols()[0])
	assert.Equal(t, ZARJPY, Symbols()[70])
}

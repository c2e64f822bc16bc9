package tickfile

import (
	"bytes"
	"io"
	"math"
	"testing"
	"time"

	"TickData/internal/asset"
	"TickData/internal/calendar"
	"TickData/internal/errs"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	at       time.Time
	bid, ask float32
}

type payload struct {
	version  float32
	source   string
	symbol   string
	baseDate time.Time
	count    int32
	records  []record
}

func validPayload() payload {
	return payload{
		version:  Version,
		source:   "HISTDATA",
		symbol:   "EURUSD",
		baseDate: baseDate,
		count:    2,
		records: []record{
			{calendar.At(2012, 1, 4, 17, 0, 0, 0), 1.29345, 1.29361},
			{calendar.At(2012, 1, 4, 17, 0, 1, 0), 1.29346, 1.29362},
		},
	}
}

func (p payload) body() []byte {
	b := le.AppendUint32(nil, math.Float32bits(p.version))
	b = le.AppendUint64(b, uint64(toTicks(time.Now().UTC())))
	b = appendPadded(b, p.source, sourceWidth)
	b = appendPadded(b, p.symbol, symbolWidth)
	b = le.AppendUint64(b, uint64(toTicks(p.baseDate)))
	b = append(b, make([]byte, reservedSize)...)
	b = le.AppendUint32(b, uint32(p.count))
	for _, r := range p.records {
		b = le.AppendUint64(b, uint64(toTicks(r.at)))
		b = le.AppendUint32(b, math.Float32bits(r.bid))
		b = le.AppendUint32(b, math.Float32bits(r.ask))
	}
	return b
}

type entry struct {
	name string
	data []byte
}

func zipOf(t *testing.T, entries ...entry) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.Create(e.name)
		require.NoError(t, err)
		_, err = w.Write(e.data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestTicksConversion(t *testing.T) {
	assert.Equal(t, int64(634612320000000000), toTicks(baseDate))
	assert.Equal(t, baseDate, fromTicks(634612320000000000))

	at := calendar.At(2012, 1, 4, 17, 30, 1, 999)
	assert.Equal(t, at, fromTicks(toTicks(at)))
	assert.Equal(t, time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC), fromTicks(0))
}

func TestDecode_ValidPayload(t *testing.T) {
	cal := testCalendar(t)
	data := zipOf(t, entry{EntryName, validPayload().body()})

	ticks, err := Decode(cal, bytes.NewReader(data), HistData, catalog.Get(asset.EURUSD), baseDate)
	require.NoError(t, err)
	require.Len(t, ticks, 2)
	assert.Equal(t, 1.29345, ticks[0].BidRate())
	assert.Equal(t, 1.29362, ticks[1].AskRate())
}

func TestDecode_FormatDefense(t *testing.T) {
	cal := testCalendar(t)
	eurUsd := catalog.Get(asset.EURUSD)

	tests := []struct {
		name  string
		data  func(t *testing.T) []byte
		field string
		eof   bool
	}{
		{"not a zip", func(t *testing.T) []byte { return []byte("not a zip archive") }, "archive", false},
		{"no entries", func(t *testing.T) []byte { return zipOf(t) }, "entries", false},
		{"two entries", func(t *testing.T) []byte {
			body := validPayload().body()
			return zipOf(t, entry{EntryName, body}, entry{"Extra.data", body})
		}, "entries", false},
		{"entry name", func(t *testing.T) []byte {
			return zipOf(t, entry{"Other.data", validPayload().body()})
		}, "entryName", false},
		{"version", func(t *testing.T) []byte {
			p := validPayload()
			p.version = 2
			return zipOf(t, entry{EntryName, p.body()})
		}, "version", false},
		{"source", func(t *testing.T) []byte {
			p := validPayload()
			p.source = "DUKAS"
			return zipOf(t, entry{EntryName, p.body()})
		}, "source", false},
		{"unknown symbol", func(t *testing.T) []byte {
			p := validPayload()
			p.symbol = "EURXXX"
			return zipOf(t, entry{EntryName, p.body()})
		}, "symbol", false},
		{"other symbol", func(t *testing.T) []byte {
			p := validPayload()
			p.symbol = "USDJPY"
			return zipOf(t, entry{EntryName, p.body()})
		}, "symbol", false},
		{"base date", func(t *testing.T) []byte {
			p := validPayload()
			p.baseDate = calendar.Date(2012, 1, 5)
			return zipOf(t, entry{EntryName, p.body()})
		}, "baseDate", false},
		{"negative count", func(t *testing.T) []byte {
			p := validPayload()
			p.count = -1
			return zipOf(t, entry{EntryName, p.body()})
		}, "count", false},
		{"count past the records", func(t *testing.T) []byte {
			p := validPayload()
			p.count = 3
			return zipOf(t, entry{EntryName, p.body()})
		}, "count", true},
		{"truncated header", func(t *testing.T) []byte {
			return zipOf(t, entry{EntryName, validPayload().body()[:10]})
		}, "createdOn", true},
		{"truncated record", func(t *testing.T) []byte {
			body := validPayload().body()
			return zipOf(t, entry{EntryName, body[:len(body)-3]})
		}, "count", true},
		{"trailing bytes", func(t *testing.T) []byte {
			p := validPayload()
			p.count = 1
			return zipOf(t, entry{EntryName, p.body()})
		}, "entry", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(cal, bytes.NewReader(tt.data(t)), HistData, eurUsd, baseDate)
			require.ErrorIs(t, err, errs.ErrFormat)
			var formatErr *errs.FormatError
			require.ErrorAs(t, err, &formatErr)
			assert.Equal(t, tt.field, formatErr.Field)
			if tt.eof {
				assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
			}
		})
	}
}

func TestDecode_SemanticDefense(t *testing.T) {
	cal := testCalendar(t)
	eurUsd := catalog.Get(asset.EURUSD)

	tests := []struct {
		name    string
		records []record
	}{
		{"descending", []record{
			{calendar.At(2012, 1, 4, 17, 0, 1, 0), 1.29345, 1.29361},
			{calendar.At(2012, 1, 4, 17, 0, 0, 0), 1.29345, 1.29361},
		}},
		{"other session", []record{
			{calendar.At(2012, 1, 4, 17, 0, 0, 0), 1.29345, 1.29361},
			{calendar.At(2012, 1, 5, 17, 0, 0, 0), 1.29345, 1.29361},
		}},
		{"zero rate", []record{
			{calendar.At(2012, 1, 4, 17, 0, 0, 0), 0, 1.29361},
		}},
		{"rate out of bounds", []record{
			{calendar.At(2012, 1, 4, 17, 0, 0, 0), 1.29345, 12.5},
		}},
		{"saturday tick", []record{
			{calendar.At(2012, 1, 7, 12, 0, 0, 0), 1.29345, 1.29361},
		}},
		{"sub-millisecond tick", []record{
			{calendar.At(2012, 1, 4, 17, 0, 0, 5).Add(100 * time.Nanosecond), 1.29345, 1.29361},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPayload()
			p.records = tt.records
			p.count = int32(len(tt.records))
			data := zipOf(t, entry{EntryName, p.body()})

			_, err := Decode(cal, bytes.NewReader(data), HistData, eurUsd, baseDate)
			assert.ErrorIs(t, err, errs.ErrOutOfRange)
		})
	}
}

func TestLoadBytes_KeepsContentOnFailure(t *testing.T) {
	cal := testCalendar(t)
	f := newFile(t, cal)
	require.NoError(t, f.AddRange(sampleTicks(t, cal)...))
	before := f.Ticks()

	p := validPayload()
	p.version = 1.5
	err := f.LoadBytes(zipOf(t, entry{EntryName, p.body()}))
	require.ErrorIs(t, err, errs.ErrFormat)
	assert.Equal(t, before, f.Ticks())

	assert.ErrorIs(t, f.LoadBytes(nil), errs.ErrNull)
	assert.ErrorIs(t, f.Load(nil), errs.ErrNull)
}

func TestDecode_NilArguments(t *testing.T) {
	cal := testCalendar(t)
	eurUsd := catalog.Get(asset.EURUSD)

	_, err := Decode(nil, bytes.NewReader(nil), HistData, eurUsd, baseDate)
	assert.ErrorIs(t, err, errs.ErrNull)
	_, err = Decode(cal, bytes.NewReader(nil), HistData, nil, baseDate)
	assert.ErrorIs(t, err, errs.ErrNull)
	_, err = Decode(cal, nil, HistData, eurUsd, baseDate)
	assert.ErrorIs(t, err, errs.ErrNull)
}

func TestEncode_SingleWrite(t *testing.T) {
	cal := testCalendar(t)
	w := &countingWriter{}
	require.NoError(t, Encode(w, HistData, catalog.Get(asset.EURUSD), baseDate, sampleTicks(t, cal)))
	assert.Equal(t, 1, w.writes)

	zr, err := zip.NewReader(bytes.NewReader(w.buf.Bytes()), int64(w.buf.Len()))
	require.NoError(t, err)
	require.Len(t, zr.File, 1)
	assert.Equal(t, EntryName, zr.File[0].Name)
	assert.Equal(t, uint64(headerSize+4*recordSize), zr.File[0].UncompressedSize64)
}

type countingWriter struct {
	buf    bytes.Buffer
	writes int
}

func (w *countingWriter) Write(p []byte) (int, error) {
	w.writes++
	return w.buf.Write(p)
}

func TestDecode_RejectsOversizedEntry(t *testing.T) {
	cal := testCalendar(t)
	eurUsd := catalog.Get(asset.EURUSD)
	data := zipOf(t, entry{EntryName, validPayload().body()})

	defer func(prev int64) { maxEntrySize = prev }(maxEntrySize)
	maxEntrySize = headerSize + recordSize

	_, err := Decode(cal, bytes.NewReader(data), HistData, eurUsd, baseDate)
	require.ErrorIs(t, err, errs.ErrFormat)
	var formatErr *errs.FormatError
	require.ErrorAs(t, err, &formatErr)
	assert.Equal(t, "entry", formatErr.Field)

	maxEntrySize = headerSize + 2*recordSize
	ticks, err := Decode(cal, bytes.NewReader(data), HistData, eurUsd, baseDate)
	require.NoError(t, err)
	assert.Len(t, ticks, 2)
}

package tickfile

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"TickData/internal/asset"
	"TickData/internal/calendar"
	"TickData/internal/errs"
	"TickData/internal/tick"

	"github.com/klauspost/compress/zip"
)

// EntryName is the name of the single archive entry holding the ticks.
const EntryName = "Ticks.data"

// Version is the current payload format version.
const Version float32 = 1.0

const (
	sourceWidth  = 8
	symbolWidth  = 8
	reservedSize = 24

	// version, created-on, source, symbol, base date, reserved, count
	headerSize = 4 + 8 + sourceWidth + symbolWidth + 8 + reservedSize + 4
	// tick-on, bid, ask
	recordSize = 8 + 4 + 4
)

// Timestamps are stored as 100ns ticks since 0001-01-01, taken from the wall
// clock of the value.
const (
	ticksPerSecond = int64(time.Second / 100)
	unixEpochTicks = int64(62135596800) * ticksPerSecond
)

var le = binary.LittleEndian

func toTicks(t time.Time) int64 {
	wall := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
	return unixEpochTicks + wall.Unix()*ticksPerSecond + int64(wall.Nanosecond())/100
}

func fromTicks(n int64) time.Time {
	n -= unixEpochTicks
	sec, rem := n/ticksPerSecond, n%ticksPerSecond
	if rem < 0 {
		sec--
		rem += ticksPerSecond
	}
	return time.Unix(sec, rem*100).UTC()
}

// Encode writes ticks as a single-entry zip archive. The archive is built in
// memory and handed to w in one Write call.
func Encode(w io.Writer, source Source, a *asset.Asset, baseDate time.Time, ticks []tick.Tick) error {
	payload, err := encode(source, a, baseDate, ticks, time.Now().UTC())
	if err != nil {
		return err
	}
	_, err = w.Write(payload)
	return err
}

func encode(source Source, a *asset.Asset, baseDate time.Time, ticks []tick.Tick, createdOn time.Time) ([]byte, error) {
	if !source.IsValid() {
		return nil, errs.Range("source", int(source), "not a declared source")
	}
	if a == nil {
		return nil, errs.Null("asset")
	}
	if len(ticks) > math.MaxInt32 {
		return nil, errs.Range("ticks", len(ticks), "too many ticks for one file")
	}

	body := make([]byte, 0, headerSize+len(ticks)*recordSize)
	body = le.AppendUint32(body, math.Float32bits(Version))
	body = le.AppendUint64(body, uint64(toTicks(createdOn)))
	body = appendPadded(body, source.Tag(), sourceWidth)
	body = appendPadded(body, a.Symbol().String(), symbolWidth)
	body = le.AppendUint64(body, uint64(toTicks(baseDate)))
	body = append(body, make([]byte, reservedSize)...)
	body = le.AppendUint32(body, uint32(int32(len(ticks))))
	for _, t := range ticks {
		body = le.AppendUint64(body, uint64(toTicks(t.TickOn())))
		body = le.AppendUint32(body, math.Float32bits(float32(t.BidRate())))
		body = le.AppendUint32(body, math.Float32bits(float32(t.AskRate())))
	}

	var out bytes.Buffer
	zw := zip.NewWriter(&out)
	entry, err := zw.CreateHeader(&zip.FileHeader{
		Name:     EntryName,
		Method:   zip.Deflate,
		Modified: createdOn,
	})
	if err != nil {
		return nil, fmt.Errorf("create entry: %w", err)
	}
	if _, err := entry.Write(body); err != nil {
		return nil, fmt.Errorf("write entry: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close archive: %w", err)
	}
	return out.Bytes(), nil
}

func appendPadded(b []byte, s string, width int) []byte {
	field := make([]byte, width)
	for i := range field {
		field[i] = ' '
	}
	copy(field, s)
	return append(b, field...)
}

func trimPadded(b []byte) string {
	return strings.Trim(string(b), " \x00")
}

// Decode reads a whole archive from r and rebuilds its ticks. The header must
// match source, a and baseDate exactly; every record goes through a.Round and
// full tick validation and must keep the base date and ascending order.
func Decode(cal *calendar.Calendar, r io.Reader, source Source, a *asset.Asset, baseDate time.Time) ([]tick.Tick, error) {
	if cal == nil {
		return nil, errs.Null("calendar")
	}
	if a == nil {
		return nil, errs.Null("asset")
	}
	if r == nil {
		return nil, errs.Null("reader")
	}
	payload, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return decode(cal, payload, source, a, baseDate)
}

func decode(cal *calendar.Calendar, payload []byte, source Source, a *asset.Asset, baseDate time.Time) ([]tick.Tick, error) {
	zr, err := zip.NewReader(bytes.NewReader(payload), int64(len(payload)))
	if err != nil {
		return nil, errs.Format("archive", "zip archive", fmt.Sprintf("%d unreadable bytes", len(payload))).Wrap(err)
	}
	if len(zr.File) != 1 {
		return nil, errs.Format("entries", 1, len(zr.File))
	}
	entry := zr.File[0]
	if entry.Name != EntryName {
		return nil, errs.Format("entryName", EntryName, entry.Name)
	}
	body, err := readEntry(entry)
	if err != nil {
		return nil, errs.Format("entry", EntryName, "unreadable entry").Wrap(err)
	}

	rd := &payloadReader{b: body}

	p, err := rd.next("version", 4)
	if err != nil {
		return nil, err
	}
	if v := math.Float32frombits(le.Uint32(p)); v != Version {
		return nil, errs.Format("version", Version, v)
	}

	// created-on is advisory
	if _, err := rd.next("createdOn", 8); err != nil {
		return nil, err
	}

	if p, err = rd.next("source", sourceWidth); err != nil {
		return nil, err
	}
	if tag := trimPadded(p); !matchesSource(tag, source) {
		return nil, errs.Format("source", source.Tag(), tag)
	}

	if p, err = rd.next("symbol", symbolWidth); err != nil {
		return nil, err
	}
	code := trimPadded(p)
	symbol, err := asset.ParseSymbol(code)
	if err != nil {
		return nil, errs.Format("symbol", a.Symbol(), code).Wrap(err)
	}
	if symbol != a.Symbol() {
		return nil, errs.Format("symbol", a.Symbol(), symbol)
	}

	if p, err = rd.next("baseDate", 8); err != nil {
		return nil, err
	}
	if n := int64(le.Uint64(p)); n != toTicks(baseDate) {
		return nil, errs.Format("baseDate", baseDate.Format("01/02/2006"), fromTicks(n).Format("01/02/2006 15:04:05"))
	}

	if _, err := rd.next("reserved", reservedSize); err != nil {
		return nil, err
	}

	if p, err = rd.next("count", 4); err != nil {
		return nil, err
	}
	count := int(int32(le.Uint32(p)))
	if count < 0 {
		return nil, errs.Format("count", "a non-negative count", count)
	}
	if remaining := rd.remaining(); count > remaining/recordSize {
		return nil, errs.Format("count", fmt.Sprintf("at most %d records", remaining/recordSize), count).Wrap(io.ErrUnexpectedEOF)
	}

	ticks := make([]tick.Tick, 0, count)
	for i := 0; i < count; i++ {
		field := fmt.Sprintf("ticks[%d]", i)
		p, err := rd.next(field, recordSize)
		if err != nil {
			return nil, err
		}
		tickOn := fromTicks(int64(le.Uint64(p[0:8])))
		bid := a.Round(float64(math.Float32frombits(le.Uint32(p[8:12]))))
		ask := a.Round(float64(math.Float32frombits(le.Uint32(p[12:16]))))

		t, err := tick.New(cal, a, tickOn, bid, ask)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", field, err)
		}
		if !t.BaseDate().Equal(baseDate) {
			return nil, errs.Range(field+".baseDate", t.BaseDate().Format("01/02/2006"), "does not match the file base date")
		}
		if i > 0 && t.TickOn().Before(ticks[i-1].TickOn()) {
			return nil, errs.Range(field+".tickOn", calendar.Text(t.TickOn()), "before the previous tick")
		}
		ticks = append(ticks, t)
	}
	if n := rd.remaining(); n != 0 {
		return nil, errs.Format("entry", fmt.Sprintf("%d bytes", rd.off), fmt.Sprintf("%d trailing bytes", n))
	}
	return ticks, nil
}

func matchesSource(tag string, source Source) bool {
	s, err := ParseSource(tag)
	return err == nil && s == source
}

// maxEntrySize is the largest body a header and MaxInt32 records can fill.
var maxEntrySize int64 = headerSize + math.MaxInt32*recordSize

func readEntry(f *zip.File) ([]byte, error) {
	if f.UncompressedSize64 > uint64(maxEntrySize) {
		return nil, fmt.Errorf("entry declares %d bytes, at most %d allowed", f.UncompressedSize64, maxEntrySize)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	body, err := io.ReadAll(io.LimitReader(rc, maxEntrySize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > maxEntrySize {
		return nil, fmt.Errorf("entry holds more than %d bytes", maxEntrySize)
	}
	return body, nil
}

type payloadReader struct {
	b   []byte
	off int
}

func (r *payloadReader) remaining() int { return len(r.b) - r.off }

func (r *payloadReader) next(field string, n int) ([]byte, error) {
	if r.remaining() < n {
		return nil, errs.Format(field, fmt.Sprintf("%d bytes", n), fmt.Sprintf("%d bytes", r.remaining())).Wrap(io.ErrUnexpectedEOF)
	}
	p := r.b[r.off : r.off+n]
	r.off += n
	return p, nil
}

// WriteCSV writes one SYMBOL,tick-on,bid,ask line per tick. There is no
// matching reader.
func WriteCSV(w io.Writer, a *asset.Asset, ticks []tick.Tick) error {
	if a == nil {
		return errs.Null("asset")
	}
	var buf bytes.Buffer
	for _, t := range ticks {
		buf.WriteString(t.CSV(a))
		buf.WriteByte('\n')
	}
	_, err := w.Write(buf.Bytes())
	return err
}

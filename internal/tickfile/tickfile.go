// Package tickfile holds the ordered ticks of one asset for one trading
// session, and the binary and CSV forms they are stored in.
package tickfile

import (
	"bytes"
	"fmt"
	"io"
	"iter"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"TickData/internal/asset"
	"TickData/internal/calendar"
	"TickData/internal/errs"
	"TickData/internal/tick"

	"github.com/pkg/errors"
)

// TickFile is an append-only run of ticks bound to a source, an asset and a
// base date. It has a single writer; ticks only enter through Add and
// AddRange, or wholesale through Load.
type TickFile struct {
	cal       *calendar.Calendar
	source    Source
	asset     *asset.Asset
	baseDate  time.Time
	name      string
	minTickOn time.Time
	maxTickOn time.Time
	ticks     []tick.Tick
}

// New returns an empty tick file for the session starting on baseDate.
func New(cal *calendar.Calendar, source Source, a *asset.Asset, baseDate time.Time) (*TickFile, error) {
	if !source.IsValid() {
		return nil, errs.Range("source", int(source), "not a declared source")
	}
	if cal == nil {
		return nil, errs.Null("calendar")
	}
	if a == nil {
		return nil, errs.Null("asset")
	}
	if !cal.IsValidBaseDate(baseDate) {
		return nil, errs.Range("baseDate", baseDate.Format("01/02/2006"), "not a valid base date")
	}
	minTickOn, maxTickOn := calendar.Session(baseDate)
	return &TickFile{
		cal:       cal,
		source:    source,
		asset:     a,
		baseDate:  baseDate,
		name:      fmt.Sprintf("%s_%s_%s_%02d_24_EST", source.Tag(), a.Symbol(), baseDate.Format("20060102"), calendar.FirstHour),
		minTickOn: minTickOn,
		maxTickOn: maxTickOn,
	}, nil
}

func (f *TickFile) Source() Source       { return f.source }
func (f *TickFile) Asset() *asset.Asset  { return f.asset }
func (f *TickFile) BaseDate() time.Time  { return f.baseDate }
func (f *TickFile) Name() string         { return f.name }
func (f *TickFile) MinTickOn() time.Time { return f.minTickOn }
func (f *TickFile) MaxTickOn() time.Time { return f.maxTickOn }
func (f *TickFile) String() string       { return f.name }
func (f *TickFile) Len() int             { return len(f.ticks) }
func (f *TickFile) At(i int) tick.Tick   { return f.ticks[i] }
func (f *TickFile) Ticks() []tick.Tick   { return append([]tick.Tick(nil), f.ticks...) }

// Last returns the most recent tick, if any.
func (f *TickFile) Last() (tick.Tick, bool) {
	if len(f.ticks) == 0 {
		return tick.Tick{}, false
	}
	return f.ticks[len(f.ticks)-1], true
}

// All iterates over the ticks in order.
func (f *TickFile) All() iter.Seq2[int, tick.Tick] {
	return func(yield func(int, tick.Tick) bool) {
		for i, t := range f.ticks {
			if !yield(i, t) {
				return
			}
		}
	}
}

// Add appends t. Ticks with the same tick-on as the last one are accepted.
func (f *TickFile) Add(t tick.Tick) error {
	last, _ := f.Last()
	if err := f.check("tick", t, last); err != nil {
		return err
	}
	f.ticks = append(f.ticks, t)
	return nil
}

// AddRange appends ticks in order, or none of them if any fails.
func (f *TickFile) AddRange(ticks ...tick.Tick) error {
	prev, _ := f.Last()
	for i, t := range ticks {
		if err := f.check(fmt.Sprintf("ticks[%d]", i), t, prev); err != nil {
			return err
		}
		prev = t
	}
	f.ticks = append(f.ticks, ticks...)
	return nil
}

func (f *TickFile) check(field string, t, prev tick.Tick) error {
	if t.IsZero() {
		return errs.Null(field)
	}
	if t.Symbol() != f.asset.Symbol() {
		return errs.Range(field+".symbol", t.Symbol(), "file holds "+f.asset.String())
	}
	if !t.BaseDate().Equal(f.baseDate) {
		return errs.Range(field+".baseDate", t.BaseDate().Format("01/02/2006"), "file holds "+f.baseDate.Format("01/02/2006"))
	}
	if !prev.IsZero() && t.TickOn().Before(prev.TickOn()) {
		return errs.Range(field+".tickOn", calendar.Text(t.TickOn()), "before "+calendar.Text(prev.TickOn()))
	}
	return nil
}

// FileName is the name plus the kind extension.
func (f *TickFile) FileName(kind DataKind) string {
	return f.name + "." + kind.Extension()
}

// BlobName is the storage key {SOURCE}/{KIND}/{SYMBOL}/{year}/{file name}.
func (f *TickFile) BlobName(kind DataKind) string {
	return path.Join(f.source.Tag(), kind.Folder(), f.asset.Symbol().String(),
		strconv.Itoa(f.baseDate.Year()), f.FileName(kind))
}

// PathIn resolves BlobName under basePath.
func (f *TickFile) PathIn(basePath string, kind DataKind) string {
	return filepath.Join(basePath, filepath.FromSlash(f.BlobName(kind)))
}

// Exists reports whether the kind form of the file is stored under basePath.
func (f *TickFile) Exists(basePath string, kind DataKind) bool {
	info, err := os.Stat(f.PathIn(basePath, kind))
	return err == nil && !info.IsDir()
}

func (f *TickFile) marshal(kind DataKind) ([]byte, error) {
	switch kind {
	case Ticks:
		return encode(f.source, f.asset, f.baseDate, f.ticks, time.Now().UTC())
	case CSV:
		var buf bytes.Buffer
		if err := WriteCSV(&buf, f.asset, f.ticks); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, errs.Range("dataKind", kind, "only Ticks and CSV can be saved")
	}
}

// Save writes the kind form of the file to w in one Write call.
func (f *TickFile) Save(w io.Writer, kind DataKind) error {
	if w == nil {
		return errs.Null("writer")
	}
	data, err := f.marshal(kind)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// SaveTo writes the kind form under basePath, creating folders as needed, and
// returns the file path. An existing file is replaced.
func (f *TickFile) SaveTo(basePath string, kind DataKind) (string, error) {
	if !isDirectoryName(basePath) {
		return "", errs.Range("basePath", basePath, "not a directory name")
	}
	data, err := f.marshal(kind)
	if err != nil {
		return "", err
	}
	p := f.PathIn(basePath, kind)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", errors.Wrapf(err, "create folder for %s", f.FileName(kind))
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return "", errors.Wrapf(err, "write %s", p)
	}
	return p, nil
}

func isDirectoryName(s string) bool {
	return strings.TrimSpace(s) != "" && !strings.ContainsRune(s, 0)
}

// Bytes returns the binary form without touching the file system.
func (f *TickFile) Bytes() ([]byte, error) { return f.marshal(Ticks) }

// Load replaces the ticks with the ones decoded from r. On error the file
// keeps its previous content.
func (f *TickFile) Load(r io.Reader) error {
	if r == nil {
		return errs.Null("reader")
	}
	ticks, err := Decode(f.cal, r, f.source, f.asset, f.baseDate)
	if err != nil {
		return err
	}
	f.ticks = ticks
	return nil
}

// LoadBytes is Load over an in-memory payload.
func (f *TickFile) LoadBytes(b []byte) error {
	if b == nil {
		return errs.Null("bytes")
	}
	ticks, err := decode(f.cal, b, f.source, f.asset, f.baseDate)
	if err != nil {
		return err
	}
	f.ticks = ticks
	return nil
}

// LoadFrom loads the Ticks form stored under basePath.
func (f *TickFile) LoadFrom(basePath string) error {
	if !isDirectoryName(basePath) {
		return errs.Range("basePath", basePath, "not a directory name")
	}
	p := f.PathIn(basePath, Ticks)
	data, err := os.ReadFile(p)
	if err != nil {
		return errors.Wrapf(err, "read %s", p)
	}
	return f.LoadBytes(data)
}

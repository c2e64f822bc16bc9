package collector

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"TickData/internal/asset"
	"TickData/internal/calendar"
	"TickData/internal/errs"
	"TickData/internal/tick"
	"TickData/internal/tickfile"

	"github.com/dustin/go-humanize"
	"github.com/klauspost/compress/zip"
	pkgerrors "github.com/pkg/errors"
	"go.uber.org/zap"
)

// vendorOffset is the fixed EST offset of vendor timestamps; the vendor makes
// no DST adjustment.
const vendorOffset = 5 * time.Hour

// SavedFile describes one tick file written by the processor.
type SavedFile struct {
	Name     string
	Symbol   string
	BaseDate time.Time
	Ticks    int
	Path     string
	Kind     tickfile.DataKind
	Bytes    int64
}

// AssetResult summarizes the processing of one asset.
type AssetResult struct {
	Symbol   string
	Archives int
	Ticks    int
	Ignored  int
	Saved    []SavedFile
}

// Processor turns monthly vendor archives into per-session tick files.
type Processor struct {
	cal      *calendar.Calendar
	basePath string
	log      *zap.Logger
}

// NewProcessor creates a processor saving under basePath.
func NewProcessor(cal *calendar.Calendar, basePath string, log *zap.Logger) *Processor {
	return &Processor{cal: cal, basePath: basePath, log: log}
}

// ProcessAsset reads jobs in order, which must all belong to a. The session
// open when the first archive starts is incomplete and is not saved, nor is
// the session still open after the last archive. Processing stops quietly at
// the first archive missing from disk.
func (p *Processor) ProcessAsset(ctx context.Context, a *asset.Asset, jobs []ArchiveJob) (*AssetResult, error) {
	b := &sessionBuilder{p: p, asset: a, result: &AssetResult{Symbol: a.Symbol().String()}}
	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			return b.result, err
		}
		if !job.Asset.Equal(a) {
			return b.result, errs.Range("job.asset", job.Asset, "processing "+a.String())
		}
		err := p.processArchive(ctx, b, job)
		if errors.Is(err, fs.ErrNotExist) {
			p.log.Warn("archive missing, stopping", zap.String("archive", job.ArchiveName()))
			break
		}
		if err != nil {
			return b.result, fmt.Errorf("%s: %w", job.ArchiveName(), err)
		}
		b.result.Archives++
	}
	if b.current != nil {
		p.log.Debug("left open session unsaved", zap.String("file", b.current.Name()))
	}
	return b.result, nil
}

func (p *Processor) processArchive(ctx context.Context, b *sessionBuilder, job ArchiveJob) error {
	path := job.PathIn(p.basePath)
	data, err := os.ReadFile(path)
	if err != nil {
		return pkgerrors.Wrapf(err, "read %s", path)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	for _, f := range zr.File {
		if f.Name != job.EntryName() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("open entry: %w", err)
		}
		defer rc.Close()
		return p.processEntry(ctx, b, rc)
	}
	return errs.Format("entryName", job.EntryName(), "no such entry")
}

func (p *Processor) processEntry(ctx context.Context, b *sessionBuilder, r io.Reader) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true
	for line := 1; ; line++ {
		if line%100000 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		t, ok, err := p.parseRecord(b.asset, rec)
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if !ok {
			b.result.Ignored++
			continue
		}
		if err := b.add(t); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
	}
}

// parseRecord parses "yyyyMMdd HHmmssfff,bid,ask[,volume]". ok is false for
// instants outside any valid session.
func (p *Processor) parseRecord(a *asset.Asset, rec []string) (tick.Tick, bool, error) {
	if len(rec) < 3 {
		return tick.Tick{}, false, errs.Format("record", "at least 3 fields", len(rec))
	}
	vendorTime, err := parseVendorTime(strings.TrimSpace(rec[0]))
	if err != nil {
		return tick.Tick{}, false, err
	}
	tickOn := p.cal.ToSessionTime(vendorTime.Add(vendorOffset))
	if !p.cal.IsValidTickOn(tickOn) {
		return tick.Tick{}, false, nil
	}
	bid, err := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
	if err != nil {
		return tick.Tick{}, false, errs.Format("bid", "a number", rec[1]).Wrap(err)
	}
	ask, err := strconv.ParseFloat(strings.TrimSpace(rec[2]), 64)
	if err != nil {
		return tick.Tick{}, false, errs.Format("ask", "a number", rec[2]).Wrap(err)
	}
	t, err := tick.New(p.cal, a, tickOn, a.Round(bid), a.Round(ask))
	if err != nil {
		return tick.Tick{}, false, err
	}
	return t, true, nil
}

// parseVendorTime parses "yyyyMMdd HHmmssfff" as a UTC-located wall clock.
func parseVendorTime(s string) (time.Time, error) {
	if len(s) != 18 {
		return time.Time{}, errs.Format("tickOn", "yyyyMMdd HHmmssfff", s)
	}
	t, err := time.Parse("20060102 150405", s[:15])
	if err != nil {
		return time.Time{}, errs.Format("tickOn", "yyyyMMdd HHmmssfff", s).Wrap(err)
	}
	ms, err := strconv.Atoi(s[15:])
	if err != nil {
		return time.Time{}, errs.Format("tickOn", "yyyyMMdd HHmmssfff", s).Wrap(err)
	}
	return t.Add(time.Duration(ms) * time.Millisecond), nil
}

// sessionBuilder carries the open tick file of one asset across archives.
type sessionBuilder struct {
	p        *Processor
	asset    *asset.Asset
	current  *tickfile.TickFile
	skipSave bool
	result   *AssetResult
}

func (b *sessionBuilder) add(t tick.Tick) error {
	baseDate := t.BaseDate()
	switch {
	case b.current == nil:
		if err := b.open(baseDate); err != nil {
			return err
		}
		b.skipSave = true
	case baseDate.After(b.current.BaseDate()):
		if b.skipSave {
			b.p.log.Debug("skipped partial session", zap.String("file", b.current.Name()))
		} else if err := b.save(); err != nil {
			return err
		}
		if err := b.open(baseDate); err != nil {
			return err
		}
		b.skipSave = false
	case baseDate.Before(b.current.BaseDate()):
		return errs.Range("tickOn", calendar.Text(t.TickOn()), "before the session of "+b.current.Name())
	}
	if err := b.current.Add(t); err != nil {
		return err
	}
	b.result.Ticks++
	return nil
}

func (b *sessionBuilder) open(baseDate time.Time) error {
	f, err := tickfile.New(b.p.cal, tickfile.HistData, b.asset, baseDate)
	if err != nil {
		return err
	}
	b.current = f
	return nil
}

func (b *sessionBuilder) save() error {
	for _, kind := range []tickfile.DataKind{tickfile.CSV, tickfile.Ticks} {
		path, err := b.current.SaveTo(b.p.basePath, kind)
		if err != nil {
			return err
		}
		var size int64
		if info, err := os.Stat(path); err == nil {
			size = info.Size()
		}
		b.result.Saved = append(b.result.Saved, SavedFile{
			Name:     b.current.Name(),
			Symbol:   b.asset.Symbol().String(),
			BaseDate: b.current.BaseDate(),
			Ticks:    b.current.Len(),
			Path:     path,
			Kind:     kind,
			Bytes:    size,
		})
		b.p.log.Info("saved",
			zap.String("file", b.current.FileName(kind)),
			zap.String("ticks", humanize.Comma(int64(b.current.Len()))),
			zap.String("size", humanize.Bytes(uint64(size))))
	}
	return nil
}

// Package collector downloads monthly vendor archives and turns them into
// per-session tick files.
package collector

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"
	"time"

	"TickData/internal/asset"
	"TickData/internal/calendar"
	"TickData/internal/tickfile"

	"github.com/dustin/go-humanize"
	"github.com/klauspost/compress/zip"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// SearchPattern matches vendor archive names.
const SearchPattern = "DAT_ASCII_??????_T_20????.zip"

// FetchedArchive is one archive written by FetchAll.
type FetchedArchive struct {
	Job   ArchiveJob
	Path  string
	Bytes int
}

// FetchSummary reports a FetchAll run.
type FetchSummary struct {
	Queued  int
	Skipped int
	Fetched []FetchedArchive
}

// Collector orchestrates archive fetching and processing.
type Collector struct {
	cal         *calendar.Calendar
	fetcher     Fetcher
	basePath    string
	parallelism int
	now         func() time.Time
	log         *zap.Logger
}

// NewCollector creates a new Collector. A parallelism of 0 means one worker
// per CPU.
func NewCollector(cal *calendar.Calendar, fetcher Fetcher, basePath string, parallelism int, log *zap.Logger) *Collector {
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}
	return &Collector{
		cal:         cal,
		fetcher:     fetcher,
		basePath:    basePath,
		parallelism: parallelism,
		now:         time.Now,
		log:         log,
	}
}

// SetClock replaces time.Now when listing archive jobs.
func (c *Collector) SetClock(now func() time.Time) { c.now = now }

func (c *Collector) archiveRoot() string {
	return filepath.Join(c.basePath, tickfile.HistData.Tag(), tickfile.Archive.Folder())
}

// existingArchives returns the names of archives already on disk.
func (c *Collector) existingArchives() (map[string]bool, error) {
	root := c.archiveRoot()
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create %s", root)
	}
	names := map[string]bool{}
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if ok, _ := filepath.Match(SearchPattern, d.Name()); ok {
			names[d.Name()] = true
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "scan %s", root)
	}
	return names, nil
}

// uniqueAssets drops repeated assets, keeping the first occurrence, so each
// asset has a single writer.
func uniqueAssets(assets []*asset.Asset) []*asset.Asset {
	seen := make(map[asset.Symbol]bool, len(assets))
	out := make([]*asset.Asset, 0, len(assets))
	for _, a := range assets {
		if seen[a.Symbol()] {
			continue
		}
		seen[a.Symbol()] = true
		out = append(out, a)
	}
	return out
}

// FetchAll downloads every archive of assets not already on disk. Repeated
// assets are fetched once.
func (c *Collector) FetchAll(ctx context.Context, assets []*asset.Asset) (*FetchSummary, error) {
	assets = uniqueAssets(assets)
	existing, err := c.existingArchives()
	if err != nil {
		return nil, err
	}

	summary := &FetchSummary{}
	var pending []ArchiveJob
	for _, job := range ArchiveJobs(c.cal, assets, c.now()) {
		if existing[job.ArchiveName()] {
			summary.Skipped++
			continue
		}
		pending = append(pending, job)
	}
	summary.Queued = len(pending)

	c.log.Info("fetch queue",
		zap.String("fetcher", c.fetcher.Name()),
		zap.String("archives", humanize.Comma(int64(len(pending)))),
		zap.String("skipped", humanize.Comma(int64(summary.Skipped))))

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.parallelism)
	for _, job := range pending {
		g.Go(func() error {
			fetched, err := c.fetchOne(ctx, job)
			if err != nil {
				return err
			}
			mu.Lock()
			summary.Fetched = append(summary.Fetched, *fetched)
			mu.Unlock()
			c.log.Info("fetched",
				zap.String("archive", job.ArchiveName()),
				zap.String("size", humanize.Bytes(uint64(fetched.Bytes))))
			return nil
		})
	}
	err = g.Wait()
	return summary, err
}

func (c *Collector) fetchOne(ctx context.Context, job ArchiveJob) (*FetchedArchive, error) {
	path := job.PathIn(c.basePath)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrapf(err, "create folder for %s", job.ArchiveName())
	}
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("%s unexpectedly exists", path)
	}

	data, err := c.fetcher.Fetch(ctx, job)
	if err != nil {
		return nil, err
	}
	if _, err := zip.NewReader(bytes.NewReader(data), int64(len(data))); err != nil {
		return nil, fmt.Errorf("%s: response is not a zip archive: %w", job.ArchiveName(), err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "create %s", path)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return nil, errors.Wrapf(err, "write %s", path)
	}
	if err := f.Close(); err != nil {
		return nil, errors.Wrapf(err, "close %s", path)
	}
	return &FetchedArchive{Job: job, Path: path, Bytes: len(data)}, nil
}

// ProcessAll processes each asset's archives, one worker per asset. Repeated
// assets are processed once.
func (c *Collector) ProcessAll(ctx context.Context, assets []*asset.Asset) ([]*AssetResult, error) {
	assets = uniqueAssets(assets)
	p := NewProcessor(c.cal, c.basePath, c.log)
	now := c.now()

	results := make([]*AssetResult, len(assets))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.parallelism)
	for i, a := range assets {
		g.Go(func() error {
			jobs := ArchiveJobs(c.cal, []*asset.Asset{a}, now)
			c.log.Info("process queue",
				zap.String("asset", a.String()),
				zap.Int("archives", len(jobs)))
			res, err := p.ProcessAsset(ctx, a, jobs)
			results[i] = res
			if err != nil {
				return fmt.Errorf("process %s: %w", a, err)
			}
			c.log.Info("processed",
				zap.String("asset", a.String()),
				zap.String("ticks", humanize.Comma(int64(res.Ticks))),
				zap.Int("files", len(res.Saved)))
			return nil
		})
	}
	err := g.Wait()
	return results, err
}

// Purge deletes the CSV and Ticks year folders older than the calendar's
// first year and returns the deleted paths.
func (c *Collector) Purge() ([]string, error) {
	var purged []string
	for _, kind := range []tickfile.DataKind{tickfile.CSV, tickfile.Ticks} {
		root := filepath.Join(c.basePath, tickfile.HistData.Tag(), kind.Folder())
		symbols, err := os.ReadDir(root)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return purged, errors.Wrapf(err, "read %s", root)
		}
		for _, s := range symbols {
			if !s.IsDir() {
				continue
			}
			years, err := os.ReadDir(filepath.Join(root, s.Name()))
			if err != nil {
				return purged, errors.Wrapf(err, "read %s", s.Name())
			}
			for _, y := range years {
				year, err := strconv.Atoi(y.Name())
				if err != nil || !y.IsDir() || year >= c.cal.MinYear() {
					continue
				}
				dir := filepath.Join(root, s.Name(), y.Name())
				if err := os.RemoveAll(dir); err != nil {
					return purged, errors.Wrapf(err, "purge %s", dir)
				}
				c.log.Info("purged", zap.String("folder", dir))
				purged = append(purged, dir)
			}
		}
	}
	return purged, nil
}

package collector

import (
	"fmt"
	"path"
	"path/filepath"
	"strconv"
	"time"

	"TickData/internal/asset"
	"TickData/internal/calendar"
	"TickData/internal/tickfile"
)

// ArchiveJob is one monthly vendor archive of ticks for one asset.
type ArchiveJob struct {
	Asset *asset.Asset
	Year  int
	Month time.Month
}

func (j ArchiveJob) stem() string {
	return fmt.Sprintf("DAT_ASCII_%s_T_%d%02d", j.Asset.Symbol(), j.Year, int(j.Month))
}

// ArchiveName is the vendor file name, e.g. DAT_ASCII_EURUSD_T_201201.zip.
func (j ArchiveJob) ArchiveName() string { return j.stem() + ".zip" }

// EntryName is the CSV entry inside the archive.
func (j ArchiveJob) EntryName() string { return j.stem() + ".csv" }

// BlobName is the storage key HISTDATA/ARCHIVE/{SYMBOL}/{year}/{archive}.
func (j ArchiveJob) BlobName() string {
	return path.Join(tickfile.HistData.Tag(), tickfile.Archive.Folder(), j.Asset.Symbol().String(),
		strconv.Itoa(j.Year), j.ArchiveName())
}

// PathIn resolves BlobName under basePath.
func (j ArchiveJob) PathIn(basePath string) string {
	return filepath.Join(basePath, filepath.FromSlash(j.BlobName()))
}

func (j ArchiveJob) String() string {
	return fmt.Sprintf("%s %02d/%d", j.Asset.Symbol(), int(j.Month), j.Year)
}

// ArchiveJobs lists, per asset and in month order, every archive from January
// of the first base date year through the latest month the vendor can have
// published as of now.
func ArchiveJobs(cal *calendar.Calendar, assets []*asset.Asset, now time.Time) []ArchiveJob {
	first := calendar.Date(cal.MinBaseDate().Year(), time.January, 1)

	d := cal.ToSessionTime(now.AddDate(0, 0, -2).AddDate(0, -1, 0))
	last := calendar.Date(d.Year(), d.Month(), d.Day())
	last = last.AddDate(0, 0, daysIn(last.Year(), last.Month()))

	var jobs []ArchiveJob
	for _, a := range assets {
		for m := first; !m.After(last); m = m.AddDate(0, 1, 0) {
			jobs = append(jobs, ArchiveJob{Asset: a, Year: m.Year(), Month: m.Month()})
		}
	}
	return jobs
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

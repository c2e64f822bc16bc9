package tickfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"TickData/internal/asset"
	"TickData/internal/calendar"
	"TickData/internal/errs"

	"github.com/pkg/errors"
)

// FileKey identifies a stored tick file by the parts encoded in its name.
type FileKey struct {
	Source   Source
	Symbol   asset.Symbol
	BaseDate time.Time
	Kind     DataKind
}

// ParseFileName splits a file name such as
// HISTDATA_EURUSD_20120104_17_24_EST.ticks back into its parts.
func ParseFileName(name string) (FileKey, error) {
	ext := filepath.Ext(name)
	kind, err := ParseDataKind(strings.TrimPrefix(ext, "."))
	if err != nil || kind == Archive {
		return FileKey{}, errs.Format("fileName", "a .ticks or .csv extension", name)
	}
	parts := strings.Split(strings.TrimSuffix(name, ext), "_")
	suffix := fmt.Sprintf("%02d", calendar.FirstHour)
	if len(parts) != 6 || parts[3] != suffix || parts[4] != "24" || parts[5] != "EST" {
		return FileKey{}, errs.Format("fileName", "{SOURCE}_{SYMBOL}_{yyyyMMdd}_17_24_EST", name)
	}
	source, err := ParseSource(parts[0])
	if err != nil {
		return FileKey{}, err
	}
	symbol, err := asset.ParseSymbol(parts[1])
	if err != nil {
		return FileKey{}, err
	}
	baseDate, err := time.Parse("20060102", parts[2])
	if err != nil {
		return FileKey{}, errs.Format("fileName", "a yyyyMMdd base date", parts[2]).Wrap(err)
	}
	return FileKey{Source: source, Symbol: symbol, BaseDate: baseDate, Kind: kind}, nil
}

// Open loads the Ticks file at path, deriving its source, asset and base date
// from the file name.
func Open(cal *calendar.Calendar, catalog *asset.Catalog, path string) (*TickFile, error) {
	key, err := ParseFileName(filepath.Base(path))
	if err != nil {
		return nil, err
	}
	if key.Kind != Ticks {
		return nil, errs.Range("fileName", filepath.Base(path), "not a Ticks file")
	}
	a, ok := catalog.Lookup(key.Symbol)
	if !ok {
		return nil, errs.Range("symbol", key.Symbol.String(), "not in the catalog")
	}
	f, err := New(cal, key.Source, a, key.BaseDate)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	if err := f.LoadBytes(data); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return f, nil
}

package tickfile

import (
	"fmt"
	"strings"
)

// Source identifies the vendor a tick file was built from.
type Source int

const (
	HistData Source = iota + 1
)

func (s Source) String() string {
	switch s {
	case HistData:
		return "HistData"
	default:
		return fmt.Sprintf("Source(%d)", int(s))
	}
}

// Tag is the upper-case form used in names, paths and file headers.
func (s Source) Tag() string { return strings.ToUpper(s.String()) }

// IsValid reports whether s is a declared source.
func (s Source) IsValid() bool { return s == HistData }

// ParseSource parses a source name, ignoring case.
func ParseSource(str string) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(str)) {
	case "histdata":
		return HistData, nil
	default:
		return 0, fmt.Errorf("unknown source %q", str)
	}
}

// DataKind is the form a tick file is stored in.
type DataKind int

const (
	Ticks DataKind = iota + 1
	CSV
	Archive
)

func (k DataKind) String() string {
	switch k {
	case Ticks:
		return "Ticks"
	case CSV:
		return "CSV"
	case Archive:
		return "Archive"
	default:
		return fmt.Sprintf("DataKind(%d)", int(k))
	}
}

// IsValid reports whether k is a declared kind.
func (k DataKind) IsValid() bool { return k >= Ticks && k <= Archive }

// Extension is the file extension, without the dot.
func (k DataKind) Extension() string { return strings.ToLower(k.String()) }

// Folder is the storage folder holding files of this kind.
func (k DataKind) Folder() string { return strings.ToUpper(k.String()) }

// ParseDataKind parses a kind name or extension, ignoring case.
func ParseDataKind(str string) (DataKind, error) {
	switch strings.ToLower(strings.TrimSpace(str)) {
	case "ticks":
		return Ticks, nil
	case "csv":
		return CSV, nil
	case "archive":
		return Archive, nil
	default:
		return 0, fmt.Errorf("unknown data kind %q", str)
	}
}

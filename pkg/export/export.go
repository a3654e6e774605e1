// Package export writes fetched data, rejected combinations and master data
// to spreadsheet files.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Sternrassler/thema-client/pkg/catalog"
	"github.com/Sternrassler/thema-client/pkg/result"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// File names written by Writer.
const (
	MasterDataFile = "Master_data.xlsx"
	RejectedFile   = "Rejected_combinations.xlsx"
)

// maxSheetName is the spreadsheet limit on sheet name length.
const maxSheetName = 31

// defaultSheet is the sheet every new workbook starts with.
const defaultSheet = "Sheet1"

// ErrNoResult is returned when there is nothing to write.
var ErrNoResult = errors.New("no result to export")

// DataFile returns the file name for a family's data, e.g. Hourly_data.xlsx.
func DataFile(kind string) string {
	return kind + "_data.xlsx"
}

// Writer writes workbooks into one directory.
type Writer struct {
	dir    string
	logger zerolog.Logger
}

// NewWriter returns a Writer for dir. The directory is created on first
// write.
func NewWriter(dir string, logger zerolog.Logger) *Writer {
	if dir == "" {
		dir = "."
	}
	return &Writer{dir: dir, logger: logger}
}

// Dir returns the output directory.
func (w *Writer) Dir() string { return w.dir }

// WriteResult writes res.Table to <Kind>_data.xlsx and returns the path.
func (w *Writer) WriteResult(res *result.Result) (string, error) {
	if res == nil || res.Table == nil {
		return "", ErrNoResult
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := TableSheet(f, string(res.Kind), res.Table); err != nil {
		return "", err
	}
	return w.save(f, DataFile(string(res.Kind)), res.Table.Len())
}

// WriteRejected writes the ledger to Rejected_combinations.xlsx. An empty
// ledger writes nothing and returns an empty path.
func (w *Writer) WriteRejected(l *result.Ledger) (string, error) {
	if l == nil || l.IsEmpty() {
		w.logger.Debug().Msg("No rejected combinations to export")
		return "", nil
	}
	f := excelize.NewFile()
	defer f.Close()

	t := l.Table()
	if err := TableSheet(f, "Rejected", t); err != nil {
		return "", err
	}
	return w.save(f, RejectedFile, t.Len())
}

// WriteMasterData writes every relation of cat as its own sheet to
// Master_data.xlsx, or to name when given.
func (w *Writer) WriteMasterData(cat *catalog.Catalog, name string) (string, error) {
	if cat == nil {
		return "", ErrNoResult
	}
	if name == "" {
		name = MasterDataFile
	}
	f := excelize.NewFile()
	defer f.Close()

	n, err := CatalogSheets(f, cat)
	if err != nil {
		return "", err
	}
	return w.save(f, name, n)
}

func (w *Writer) save(f *excelize.File, name string, rows int) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	path := filepath.Join(w.dir, name)
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save %s: %w", name, err)
	}
	w.logger.Info().
		Str("file", path).
		Int("rows", rows).
		Msg("Spreadsheet written")
	return path, nil
}

// TableSheet writes t with a header row into sheet, replacing the
// workbook's default sheet when it is still present.
func TableSheet(f *excelize.File, sheet string, t *result.Table) error {
	name, err := addSheet(f, sheet)
	if err != nil {
		return err
	}
	return writeRows(f, name, t.Columns(), t.Records())
}

// CatalogSheets writes one sheet per relation of cat in catalog order and
// returns the total number of rows written.
func CatalogSheets(f *excelize.File, cat *catalog.Catalog) (int, error) {
	total := 0
	for _, relName := range cat.Names() {
		rel, ok := cat.Relation(relName)
		if !ok {
			continue
		}
		name, err := addSheet(f, relName)
		if err != nil {
			return total, err
		}

		rows := rel.Rows()
		records := make([][]any, len(rows))
		for i, row := range rows {
			rec := make([]any, len(row))
			for j, v := range row {
				if v != "" {
					rec[j] = v
				}
			}
			records[i] = rec
		}
		if err := writeRows(f, name, rel.Columns(), records); err != nil {
			return total, err
		}
		total += len(rows)
	}
	return total, nil
}

// addSheet creates a sheet with a legal, unique name derived from want. The
// first sheet of a workbook takes over the default sheet.
func addSheet(f *excelize.File, want string) (string, error) {
	name := uniqueSheetName(f, SheetName(want))

	list := f.GetSheetList()
	if len(list) == 1 && list[0] == defaultSheet && name != defaultSheet {
		if err := f.SetSheetName(defaultSheet, name); err != nil {
			return "", fmt.Errorf("rename sheet: %w", err)
		}
		return name, nil
	}
	if len(list) == 1 && list[0] == name {
		return name, nil
	}

	if _, err := f.NewSheet(name); err != nil {
		return "", fmt.Errorf("create sheet %s: %w", name, err)
	}
	return name, nil
}

func uniqueSheetName(f *excelize.File, name string) string {
	taken := make(map[string]bool)
	list := f.GetSheetList()
	// the untouched default sheet is about to be renamed
	if !(len(list) == 1 && list[0] == defaultSheet) {
		for _, s := range list {
			taken[strings.ToLower(s)] = true
		}
	}
	if !taken[strings.ToLower(name)] {
		return name
	}
	for i := 2; ; i++ {
		suffix := fmt.Sprintf(" (%d)", i)
		base := []rune(name)
		if len(base)+len(suffix) > maxSheetName {
			base = base[:maxSheetName-len(suffix)]
		}
		if candidate := string(base) + suffix; !taken[strings.ToLower(candidate)] {
			return candidate
		}
	}
}

// SheetName turns s into a legal sheet name.
func SheetName(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, strings.TrimSpace(s))
	s = strings.Trim(s, "'")
	if s == "" {
		return defaultSheet
	}
	if r := []rune(s); len(r) > maxSheetName {
		s = string(r[:maxSheetName])
	}
	return s
}

func writeRows(f *excelize.File, sheet string, columns []string, records [][]any) error {
	for i, h := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}

	for r, rec := range records {
		for c, v := range rec {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, cellValue(v)); err != nil {
				return fmt.Errorf("write %s!%s: %w", sheet, cell, err)
			}
		}
	}
	return nil
}

// cellValue renders lists and objects as JSON text; scalars pass through.
func cellValue(v any) any {
	switch v.(type) {
	case map[string]any, []any:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	default:
		return v
	}
}

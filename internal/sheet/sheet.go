// Package sheet reads price-list rows from spreadsheets and CSV files.
//
// The first row is the header. Columns are bound by name, ignoring case,
// so "GiaKm" and "GiaKM" both fill the promotional price. Unknown columns
// are ignored and absent columns leave the field missing.
package sheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/cases"

	"github.com/alnah/go-autoprice"
)

// Sentinel errors for row loading.
var (
	ErrUnsupportedFormat = errors.New("unsupported data file format")
	ErrNoHeader          = errors.New("data file has no header row")
	ErrNoKnownColumns    = errors.New("header has none of the expected columns")
)

type field func(*autoprice.Row) *autoprice.Cell

var fields = map[string]field{
	autoprice.KeyCategory:   func(r *autoprice.Row) *autoprice.Cell { return &r.Category },
	autoprice.KeyBrand:      func(r *autoprice.Row) *autoprice.Cell { return &r.Brand },
	autoprice.KeyCode:       func(r *autoprice.Row) *autoprice.Cell { return &r.Code },
	autoprice.KeyModel:      func(r *autoprice.Row) *autoprice.Cell { return &r.Model },
	autoprice.KeyListPrice:  func(r *autoprice.Row) *autoprice.Cell { return &r.ListPrice },
	autoprice.KeyPromoPrice: func(r *autoprice.Row) *autoprice.Cell { return &r.PromoPrice },
	autoprice.KeyDiscount:   func(r *autoprice.Row) *autoprice.Cell { return &r.Discount },
	autoprice.KeyGift:       func(r *autoprice.Row) *autoprice.Cell { return &r.Gift },
	autoprice.KeyValidity:   func(r *autoprice.Row) *autoprice.Cell { return &r.Validity },
}

// Columns returns the expected header names.
func Columns() []string {
	return []string{
		autoprice.KeyCategory, autoprice.KeyBrand, autoprice.KeyCode,
		autoprice.KeyModel, autoprice.KeyListPrice, autoprice.KeyPromoPrice,
		autoprice.KeyDiscount, autoprice.KeyGift, autoprice.KeyValidity,
	}
}

// Load reads rows from an .xlsx/.xlsm workbook (first sheet) or a .csv file.
func Load(path string) ([]autoprice.Row, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return LoadXLSX(path)
	case ".csv":
		f, err := os.Open(path) // #nosec G304 -- data path is user-provided
		if err != nil {
			return nil, err
		}
		defer func() { _ = f.Close() }()
		return ReadCSV(f)
	}
	return nil, fmt.Errorf("%w: %s (use .xlsx or .csv)", ErrUnsupportedFormat, filepath.Base(path))
}

// Loader adapts Load to autoprice.RowLoader.
var Loader autoprice.RowLoader = autoprice.RowLoaderFunc(Load)

// LoadXLSX reads the first worksheet of a workbook. Cells are read as raw
// values, so numbers keep their full precision regardless of display format.
// The validity column is the exception: it is read as displayed, so a date
// cell gives its date text rather than a serial number.
func LoadXLSX(path string) ([]autoprice.Row, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoHeader
	}
	records, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}
	shown, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}
	useDisplayed(records, shown, autoprice.KeyValidity)
	return FromRecords(records)
}

// useDisplayed overwrites the named columns of raw with their displayed text.
func useDisplayed(raw, shown [][]string, columns ...string) {
	if len(raw) == 0 {
		return
	}
	fold := cases.Fold()
	want := make(map[string]bool, len(columns))
	for _, c := range columns {
		want[fold.String(c)] = true
	}
	for col, h := range raw[0] {
		if !want[fold.String(strings.TrimSpace(h))] {
			continue
		}
		for i := 1; i < len(raw) && i < len(shown); i++ {
			if col < len(raw[i]) && col < len(shown[i]) {
				raw[i][col] = shown[i][col]
			}
		}
	}
}

// ReadCSV reads comma-separated rows. A UTF-8 byte order mark is ignored.
func ReadCSV(r io.Reader) ([]autoprice.Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}
	if len(records) > 0 && len(records[0]) > 0 {
		records[0][0] = strings.TrimPrefix(records[0][0], "\ufeff")
	}
	return FromRecords(records)
}

// FromRecords binds records to rows using the first record as header.
// Records with no non-empty cell are skipped.
func FromRecords(records [][]string) ([]autoprice.Row, error) {
	if len(records) == 0 {
		return nil, ErrNoHeader
	}

	fold := cases.Fold()
	known := make(map[string]field, len(fields))
	for name, f := range fields {
		known[fold.String(name)] = f
	}

	binding := make([]field, len(records[0]))
	bound := 0
	for i, h := range records[0] {
		if f, ok := known[fold.String(strings.TrimSpace(h))]; ok {
			binding[i] = f
			bound++
		}
	}
	if bound == 0 {
		return nil, fmt.Errorf("%w (want %s)", ErrNoKnownColumns, strings.Join(Columns(), ", "))
	}

	rows := make([]autoprice.Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		if blank(rec) {
			continue
		}
		var row autoprice.Row
		for i, v := range rec {
			if i >= len(binding) || binding[i] == nil || v == "" {
				continue
			}
			*binding[i](&row) = autoprice.Text(v)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

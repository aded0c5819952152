package sheet

// Notes:
// - Workbooks are generated with excelize in the test, so LoadXLSX is checked
//   against files written by the same library that reads them.
// These are acceptable gaps: we test observable behavior, not implementation details.

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/alnah/go-autoprice"
)

// ---------------------------------------------------------------------------
// TestFromRecords - Header binding
// ---------------------------------------------------------------------------

func TestFromRecords_CaseInsensitiveHeaders(t *testing.T) {
	t.Parallel()

	records := [][]string{
		{"nganhhang", "SAP", "GiaKm", "giaNiemYet", "Extra"},
		{"Tivi", "100", "9,990,000", "12000000", "ignored"},
	}
	rows, err := FromRecords(records)
	if err != nil {
		t.Fatalf("FromRecords() error = %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("len(rows) = %d, want 1", len(rows))
	}
	r := rows[0]
	if r.Category.String() != "Tivi" || r.Code.String() != "100" {
		t.Errorf("text fields = %+v", r)
	}
	if r.PromoPrice != autoprice.Text("9,990,000") {
		t.Errorf("PromoPrice = %+v, want bound from GiaKm", r.PromoPrice)
	}
	if r.ListPrice != autoprice.Text("12000000") {
		t.Errorf("ListPrice = %+v", r.ListPrice)
	}
	if r.Gift.Valid {
		t.Errorf("absent column should leave Gift missing, got %+v", r.Gift)
	}
}

func TestFromRecords_RaggedAndBlankRows(t *testing.T) {
	t.Parallel()

	records := [][]string{
		{"Model", "Qua", "G"},
		{"A1"},
		{"", " ", ""},
		{"A2", "", "10"},
	}
	rows, err := FromRecords(records)
	if err != nil {
		t.Fatalf("FromRecords() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2 (blank row skipped)", len(rows))
	}
	if rows[0].Model.String() != "A1" || rows[0].Gift.Valid || rows[0].Discount.Valid {
		t.Errorf("rows[0] = %+v", rows[0])
	}
	if rows[1].Gift.Valid {
		t.Errorf("empty cell should be missing, got %+v", rows[1].Gift)
	}
	if rows[1].Discount.String() != "10" {
		t.Errorf("rows[1].Discount = %+v", rows[1].Discount)
	}
}

func TestFromRecords_Errors(t *testing.T) {
	t.Parallel()

	if _, err := FromRecords(nil); !errors.Is(err, ErrNoHeader) {
		t.Errorf("FromRecords(nil) = %v, want ErrNoHeader", err)
	}
	if _, err := FromRecords([][]string{{"a", "b"}, {"1", "2"}}); !errors.Is(err, ErrNoKnownColumns) {
		t.Errorf("FromRecords(unknown header) = %v, want ErrNoKnownColumns", err)
	}
}

// ---------------------------------------------------------------------------
// TestReadCSV - CSV input
// ---------------------------------------------------------------------------

func TestReadCSV(t *testing.T) {
	t.Parallel()

	in := "\ufeffNganhHang,Model,GiaKM\n" +
		"Tủ lạnh,R-1,\"1,500,000\"\n" +
		"Máy giặt,W-2\n"
	rows, err := ReadCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	if rows[0].Category.String() != "Tủ lạnh" {
		t.Errorf("BOM not stripped from first header: %+v", rows[0])
	}
	if rows[0].PromoPrice.String() != "1,500,000" {
		t.Errorf("PromoPrice = %q", rows[0].PromoPrice.String())
	}
	if rows[1].PromoPrice.Valid {
		t.Errorf("short record should leave PromoPrice missing")
	}
}

// ---------------------------------------------------------------------------
// TestLoad - File dispatch
// ---------------------------------------------------------------------------

func TestLoad_XLSX(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "A4-Auto.xlsx")
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	values := [][]any{
		{"NganhHang", "Model", "GiaNiemYet", "G"},
		{"Tivi", "X1", 12990000, 15},
		{"Loa", "S2", 1500000.5, nil},
	}
	for i, row := range values {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatal(err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	_ = f.Close()

	rows, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	if got := autoprice.FormatCurrency(rows[0].ListPrice, "đ"); got != "12,990,000đ" {
		t.Errorf("ListPrice formatted = %q, want 12,990,000đ", got)
	}
	if got := autoprice.FormatPercentage(rows[0].Discount); got != "15%" {
		t.Errorf("Discount formatted = %q, want 15%%", got)
	}
	if rows[1].Discount.Valid {
		t.Errorf("empty cell should be missing, got %+v", rows[1].Discount)
	}
}

func TestLoad_XLSXDateColumn(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "A5-AUTO.xlsx")
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	row := []any{"Model", "GiaKM", "ThoiGian"}
	if err := f.SetSheetRow(sheet, "A1", &row); err != nil {
		t.Fatal(err)
	}
	row = []any{"X1", 9990000, 45677} // 45677 is 2025-01-20
	if err := f.SetSheetRow(sheet, "A2", &row); err != nil {
		t.Fatal(err)
	}
	dateFmt := "dd/mm/yyyy"
	dateStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &dateFmt})
	if err != nil {
		t.Fatal(err)
	}
	priceStyle, err := f.NewStyle(&excelize.Style{NumFmt: 3}) // #,##0
	if err != nil {
		t.Fatal(err)
	}
	if err := f.SetCellStyle(sheet, "C2", "C2", dateStyle); err != nil {
		t.Fatal(err)
	}
	if err := f.SetCellStyle(sheet, "B2", "B2", priceStyle); err != nil {
		t.Fatal(err)
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	_ = f.Close()

	rows, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("len(rows) = %d, want 1", len(rows))
	}
	if got := rows[0].Validity.Value; got != "20/01/2025" {
		t.Errorf("Validity = %q, want 20/01/2025", got)
	}
	if got := rows[0].PromoPrice.Value; got != "9990000" {
		t.Errorf("PromoPrice = %q, want the raw 9990000", got)
	}
}

func TestUseDisplayed(t *testing.T) {
	t.Parallel()

	raw := [][]string{{"Model", " thoigian "}, {"X1", "45677"}, {"X2"}}
	shown := [][]string{{"Model", " thoigian "}, {"X1", "20/01/2025"}, {"X2"}}
	useDisplayed(raw, shown, autoprice.KeyValidity)

	if raw[1][1] != "20/01/2025" || raw[1][0] != "X1" {
		t.Errorf("row 1 = %q", raw[1])
	}
	if len(raw[2]) != 1 {
		t.Errorf("short row changed: %q", raw[2])
	}
	useDisplayed(nil, shown, autoprice.KeyValidity)
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	txt := filepath.Join(dir, "rows.txt")
	if err := os.WriteFile(txt, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(txt); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Load(.txt) = %v, want ErrUnsupportedFormat", err)
	}
	if _, err := Load(filepath.Join(dir, "missing.csv")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load(missing) = %v, want os.ErrNotExist", err)
	}
	if _, err := Loader.Load(filepath.Join(dir, "missing.xlsx")); err == nil {
		t.Error("Loader.Load(missing) succeeded")
	}
}

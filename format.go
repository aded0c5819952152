package autoprice

import (
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// DefaultCurrency is appended to formatted prices.
const DefaultCurrency = "đ"

// Template placeholder names. Paired mode suffixes the second slot with "1".
const (
	KeyCategory   = "NganhHang"
	KeyBrand      = "Hang"
	KeyCode       = "SAP"
	KeyModel      = "Model"
	KeyListPrice  = "GiaNiemYet"
	KeyPromoPrice = "GiaKM"
	KeyDiscount   = "G"
	KeyGift       = "Qua"
	KeyValidity   = "ThoiGian"

	secondSlotSuffix = "1"
)

// FormatCurrency renders a price as a thousands-grouped integer followed by
// marker. Commas in the input are ignored. Input that is not a number is
// returned unchanged; a missing cell renders empty.
func FormatCurrency(c Cell, marker string) string {
	if !c.Valid {
		return ""
	}
	v, ok := parseNumber(strings.ReplaceAll(c.Value, ",", ""))
	if !ok {
		return c.Value
	}
	return humanize.Commaf(math.RoundToEven(v)) + marker
}

// FormatPercentage renders a number as an integer percentage. A "%" in the
// input is ignored, so "12" and "12%" both give "12%". Input that is not a
// number is returned unchanged; a missing cell renders empty.
func FormatPercentage(c Cell) string {
	if !c.Valid {
		return ""
	}
	v, ok := parseNumber(strings.ReplaceAll(c.Value, "%", ""))
	if !ok {
		return c.Value
	}
	return strconv.FormatFloat(v, 'f', 0, 64) + "%"
}

// Truncate shortens text longer than maxLen characters to its first
// maxLen-3 characters followed by "...". Length counts runes.
func Truncate(c Cell, maxLen int) string {
	if !c.Valid {
		return ""
	}
	r := []rune(c.Value)
	if len(r) <= maxLen {
		return c.Value
	}
	cut := max(maxLen-3, 0)
	return string(r[:cut]) + "..."
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Formatter turns rows into template contexts.
type Formatter struct {
	Currency    string
	MaxCategory int
}

// NewFormatter returns the default formatter for a mode.
func NewFormatter(mode FormatMode) Formatter {
	return Formatter{Currency: DefaultCurrency, MaxCategory: mode.DefaultMaxCategory()}
}

// SingleContext builds the context for a one-row document.
func (f Formatter) SingleContext(row Row) map[string]string {
	ctx := make(map[string]string, 9)
	f.fill(ctx, row, "")
	return ctx
}

// PairedContext builds the context for a two-row document. A nil second
// row fills the second slot with empty values.
func (f Formatter) PairedContext(first Row, second *Row) map[string]string {
	ctx := make(map[string]string, 18)
	f.fill(ctx, first, "")
	var tail Row
	if second != nil {
		tail = *second
	}
	f.fill(ctx, tail, secondSlotSuffix)
	return ctx
}

func (f Formatter) fill(ctx map[string]string, row Row, suffix string) {
	ctx[KeyCategory+suffix] = Truncate(row.Category, f.MaxCategory)
	ctx[KeyBrand+suffix] = row.Brand.String()
	ctx[KeyCode+suffix] = row.Code.String()
	ctx[KeyModel+suffix] = row.Model.String()
	ctx[KeyListPrice+suffix] = FormatCurrency(row.ListPrice, f.Currency)
	ctx[KeyPromoPrice+suffix] = FormatCurrency(row.PromoPrice, f.Currency)
	ctx[KeyDiscount+suffix] = FormatPercentage(row.Discount)
	ctx[KeyGift+suffix] = row.Gift.String()
	ctx[KeyValidity+suffix] = row.Validity.String()
}

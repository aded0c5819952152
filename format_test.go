package autoprice

// Notes:
// - Half-way percentages (0.5, 2.5) are not asserted: FormatFloat rounds
//   them to even, and the price lists never carry such discounts.
// These are acceptable gaps: we test observable behavior, not implementation details.

import (
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// TestFormatCurrency - Thousands grouping and currency marker
// ---------------------------------------------------------------------------

func TestFormatCurrency(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   Cell
		want string
	}{
		{"plain integer", Text("1234567"), "1,234,567đ"},
		{"already grouped", Text("1,000"), "1,000đ"},
		{"small value", Text("999"), "999đ"},
		{"zero", Text("0"), "0đ"},
		{"negative", Text("-1500"), "-1,500đ"},
		{"fraction rounds half to even down", Text("2.5"), "2đ"},
		{"fraction rounds half to even up", Text("3.5"), "4đ"},
		{"fraction rounds up", Text("1999.7"), "2,000đ"},
		{"surrounding spaces", Text(" 25000 "), "25,000đ"},
		{"text passes through", Text("Liên hệ"), "Liên hệ"},
		{"letters pass through", Text("abc"), "abc"},
		{"NaN is text", Text("NaN"), "NaN"},
		{"Inf is text", Text("Inf"), "Inf"},
		{"empty present cell", Text(""), ""},
		{"missing cell", Missing, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := FormatCurrency(tt.in, DefaultCurrency); got != tt.want {
				t.Errorf("FormatCurrency(%q) = %q, want %q", tt.in.Value, got, tt.want)
			}
		})
	}
}

func TestFormatCurrency_CustomMarker(t *testing.T) {
	t.Parallel()

	if got := FormatCurrency(Text("5000"), " VND"); got != "5,000 VND" {
		t.Errorf("FormatCurrency() = %q, want %q", got, "5,000 VND")
	}
	if got := FormatCurrency(Text("5000"), ""); got != "5,000" {
		t.Errorf("FormatCurrency() = %q, want %q", got, "5,000")
	}
}

// ---------------------------------------------------------------------------
// TestFormatPercentage - Integer percentages
// ---------------------------------------------------------------------------

func TestFormatPercentage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   Cell
		want string
	}{
		{"integer", Text("12"), "12%"},
		{"with percent sign", Text("12%"), "12%"},
		{"fraction rounds", Text("12.6"), "13%"},
		{"fraction truncates down", Text("7.2"), "7%"},
		{"zero", Text("0"), "0%"},
		{"text passes through", Text("x"), "x"},
		{"bare percent sign", Text("%"), "%"},
		{"missing cell", Missing, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := FormatPercentage(tt.in); got != tt.want {
				t.Errorf("FormatPercentage(%q) = %q, want %q", tt.in.Value, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestTruncate - Rune-based truncation with ellipsis
// ---------------------------------------------------------------------------

func TestTruncate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		in     Cell
		maxLen int
		want   string
	}{
		{"shorter than limit", Text("abc"), 5, "abc"},
		{"exactly the limit", Text("abcde"), 5, "abcde"},
		{"longer than limit", Text("abcdef"), 5, "ab..."},
		{"counts runes not bytes", Text("Máy lạnh"), 7, "Máy ..."},
		{"diacritics within limit", Text("Điện máy"), 8, "Điện máy"},
		{"limit below ellipsis", Text("abcdef"), 2, "..."},
		{"zero limit", Text("abc"), 0, "..."},
		{"missing cell", Missing, 5, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Truncate(tt.in, tt.maxLen); got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in.Value, tt.maxLen, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestFormatter - Template contexts
// ---------------------------------------------------------------------------

func sampleRow(model string) Row {
	return Row{
		Category:   Text("Tivi"),
		Brand:      Text("Sony"),
		Code:       Text("100" + model),
		Model:      Text(model),
		ListPrice:  Text("15990000"),
		PromoPrice: Text("12490000"),
		Discount:   Text("22"),
		Gift:       Text("Loa bluetooth"),
		Validity:   Text("01/10 - 31/10"),
	}
}

func TestFormatter_SingleContext(t *testing.T) {
	t.Parallel()

	ctx := NewFormatter(FormatSingle).SingleContext(sampleRow("KD-55X80L"))

	want := map[string]string{
		KeyCategory:   "Tivi",
		KeyBrand:      "Sony",
		KeyCode:       "100KD-55X80L",
		KeyModel:      "KD-55X80L",
		KeyListPrice:  "15,990,000đ",
		KeyPromoPrice: "12,490,000đ",
		KeyDiscount:   "22%",
		KeyGift:       "Loa bluetooth",
		KeyValidity:   "01/10 - 31/10",
	}
	if len(ctx) != len(want) {
		t.Errorf("context has %d keys, want %d", len(ctx), len(want))
	}
	for k, v := range want {
		if ctx[k] != v {
			t.Errorf("ctx[%q] = %q, want %q", k, ctx[k], v)
		}
	}
}

func TestFormatter_SingleContext_MissingCells(t *testing.T) {
	t.Parallel()

	ctx := NewFormatter(FormatSingle).SingleContext(Row{Model: Text("X1")})

	if ctx[KeyModel] != "X1" {
		t.Errorf("ctx[Model] = %q, want X1", ctx[KeyModel])
	}
	for _, k := range []string{KeyCategory, KeyListPrice, KeyPromoPrice, KeyDiscount, KeyGift} {
		v, ok := ctx[k]
		if !ok {
			t.Errorf("key %q absent, want empty value", k)
		}
		if v != "" {
			t.Errorf("ctx[%q] = %q, want empty", k, v)
		}
	}
}

func TestFormatter_CategoryLimitPerMode(t *testing.T) {
	t.Parallel()

	long := Text(strings.Repeat("x", 40))

	single := NewFormatter(FormatSingle).SingleContext(Row{Category: long})
	if got := len([]rune(single[KeyCategory])); got != 29 {
		t.Errorf("single category length = %d, want 29", got)
	}

	paired := NewFormatter(FormatPaired).PairedContext(Row{Category: long}, &Row{Category: long})
	if got := len([]rune(paired[KeyCategory])); got != 31 {
		t.Errorf("paired category length = %d, want 31", got)
	}
	if got := len([]rune(paired[KeyCategory+"1"])); got != 31 {
		t.Errorf("paired second category length = %d, want 31", got)
	}
}

func TestFormatter_PairedContext(t *testing.T) {
	t.Parallel()

	f := NewFormatter(FormatPaired)

	t.Run("two rows", func(t *testing.T) {
		t.Parallel()
		second := sampleRow("B")
		second.Discount = Text("10%")
		ctx := f.PairedContext(sampleRow("A"), &second)

		if len(ctx) != 18 {
			t.Errorf("context has %d keys, want 18", len(ctx))
		}
		if ctx[KeyModel] != "A" || ctx[KeyModel+"1"] != "B" {
			t.Errorf("models = %q, %q, want A, B", ctx[KeyModel], ctx[KeyModel+"1"])
		}
		if ctx[KeyPromoPrice+"1"] != "12,490,000đ" {
			t.Errorf("second promo price = %q", ctx[KeyPromoPrice+"1"])
		}
		if ctx[KeyDiscount+"1"] != "10%" {
			t.Errorf("second discount = %q, want 10%%", ctx[KeyDiscount+"1"])
		}
	})

	t.Run("odd tail leaves second slot empty", func(t *testing.T) {
		t.Parallel()
		ctx := f.PairedContext(sampleRow("A"), nil)

		if len(ctx) != 18 {
			t.Errorf("context has %d keys, want 18", len(ctx))
		}
		for _, k := range []string{KeyCategory, KeyBrand, KeyCode, KeyModel, KeyListPrice,
			KeyPromoPrice, KeyDiscount, KeyGift, KeyValidity} {
			if v := ctx[k+"1"]; v != "" {
				t.Errorf("ctx[%q] = %q, want empty", k+"1", v)
			}
		}
		if ctx[KeyModel] != "A" {
			t.Errorf("first model = %q, want A", ctx[KeyModel])
		}
	})
}

func TestFormatter_CustomCurrency(t *testing.T) {
	t.Parallel()

	f := Formatter{Currency: " VND", MaxCategory: 10}
	ctx := f.SingleContext(Row{ListPrice: Text("2000")})
	if ctx[KeyListPrice] != "2,000 VND" {
		t.Errorf("list price = %q, want %q", ctx[KeyListPrice], "2,000 VND")
	}
}

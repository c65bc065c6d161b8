package transfer

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/theirongolddev/subtrack/internal/model"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

func sample() []model.Subscription {
	return []model.Subscription{
		{ID: "a1", Name: "Netflix", Price: decimal.RequireFromString("15.49"), DayOfMonth: 5,
			Category: model.CategoryEntertainment, Color: "#8b5cf6"},
		{ID: "b2", Name: "Electric", Price: decimal.RequireFromString("0.10"), DayOfMonth: 31,
			Category: model.CategoryUtilities},
	}
}

func assertSame(t *testing.T, got, want []model.Subscription) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		g, w := got[i], want[i]
		if g.ID != w.ID || g.Name != w.Name || !g.Price.Equal(w.Price) ||
			g.DayOfMonth != w.DayOfMonth || g.Category != w.Category || g.Color != w.Color {
			t.Errorf("record %d = %+v, want %+v", i, g, w)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	for _, f := range []Format{FormatJSON, FormatYAML, FormatXLSX} {
		t.Run(string(f), func(t *testing.T) {
			var buf bytes.Buffer
			if err := Encode(&buf, f, sample()); err != nil {
				t.Fatalf("Encode: %v", err)
			}
			got, err := Decode(&buf, f)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			assertSame(t, got, sample())
		})
	}
}

func TestEncodeJSON_MatchesStoredShape(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, FormatJSON, sample()[:1]); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{`"id": "a1"`, `"dayOfMonth": 5`, `"category": "Entertainment"`, `"price": "15.49"`} {
		if !strings.Contains(out, want) {
			t.Errorf("json missing %s:\n%s", want, out)
		}
	}
}

func TestEncode_EmptyIsArray(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, FormatJSON, nil); err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(buf.String()); got != "[]" {
		t.Errorf("Encode(nil) = %q, want []", got)
	}
}

func TestDecodeYAML_AcceptsBarePrices(t *testing.T) {
	doc := "- id: x\n  name: Gym\n  price: 30\n  dayOfMonth: 1\n  category: Fitness\n"
	got, err := Decode(strings.NewReader(doc), FormatYAML)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Price.String() != "30" || got[0].Category != model.CategoryFitness {
		t.Errorf("Decode = %+v", got)
	}
}

func TestXLSX_WritesCategorySheet(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, FormatXLSX, sample()); err != nil {
		t.Fatal(err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(categorySheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 || rows[1][0] != "Entertainment" || rows[1][2] != "15.49" {
		t.Errorf("category rows = %v", rows)
	}
}

func TestDecodeXLSX_MissingColumn(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	_ = f.SetCellValue(sheet, "A1", "Name")
	_ = f.SetCellValue(sheet, "B1", "Price")
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatal(err)
	}
	if _, err := Decode(&buf, FormatXLSX); err == nil || !strings.Contains(err.Error(), "day") {
		t.Errorf("Decode err = %v, want missing day column", err)
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := FormatFromPath("/tmp/subs.YML"); err != nil || f != FormatYAML {
		t.Errorf("FormatFromPath(.YML) = %q, %v", f, err)
	}
	if _, err := ParseFormat("csv"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("ParseFormat(csv) err = %v, want ErrUnknownFormat", err)
	}
	if _, err := FormatFromPath("subs"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("FormatFromPath(no ext) err = %v, want ErrUnknownFormat", err)
	}
}

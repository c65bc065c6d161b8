package transfer

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/theirongolddev/subtrack/internal/model"
	"github.com/theirongolddev/subtrack/internal/pipeline"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	subscriptionSheet = "Subscriptions"
	categorySheet     = "Categories"
)

var headers = []string{"ID", "Name", "Price", "Day", "Category", "Color"}

// sheetWriter keeps the first error so cell writes can be chained.
type sheetWriter struct {
	f     *excelize.File
	sheet string
	err   error
}

func (s *sheetWriter) set(col, row int, v any) {
	if s.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		s.err = err
		return
	}
	s.err = s.f.SetCellValue(s.sheet, cell, v)
}

func (s *sheetWriter) width(col string, w float64) {
	if s.err != nil {
		return
	}
	s.err = s.f.SetColWidth(s.sheet, col, col, w)
}

func encodeXLSX(w io.Writer, subs []model.Subscription) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), subscriptionSheet); err != nil {
		return fmt.Errorf("transfer: naming sheet: %w", err)
	}

	sw := &sheetWriter{f: f, sheet: subscriptionSheet}
	for i, h := range headers {
		sw.set(i+1, 1, h)
	}
	for i, s := range subs {
		row := i + 2
		sw.set(1, row, s.ID)
		sw.set(2, row, s.Name)
		// Prices are written as text so decimals survive exactly.
		sw.set(3, row, s.Price.String())
		sw.set(4, row, s.DayOfMonth)
		sw.set(5, row, string(s.Category))
		sw.set(6, row, s.Color)
	}
	sw.width("A", 38)
	sw.width("B", 24)
	sw.width("C", 10)
	sw.width("D", 6)
	sw.width("E", 14)
	sw.width("F", 10)
	if sw.err != nil {
		return fmt.Errorf("transfer: writing subscriptions sheet: %w", sw.err)
	}

	if _, err := f.NewSheet(categorySheet); err != nil {
		return fmt.Errorf("transfer: creating categories sheet: %w", err)
	}
	cw := &sheetWriter{f: f, sheet: categorySheet}
	for i, h := range []string{"Category", "Count", "Monthly"} {
		cw.set(i+1, 1, h)
	}
	for i, ct := range pipeline.ByCategory(subs) {
		row := i + 2
		cw.set(1, row, string(ct.Category))
		cw.set(2, row, ct.Count)
		cw.set(3, row, ct.Total.String())
	}
	cw.width("A", 14)
	cw.width("C", 12)
	if cw.err != nil {
		return fmt.Errorf("transfer: writing categories sheet: %w", cw.err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("transfer: writing xlsx: %w", err)
	}
	return nil
}

func decodeXLSX(r io.Reader) ([]model.Subscription, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("transfer: opening xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("transfer: no sheets found in file")
	}
	sheet := sheets[0]
	for _, s := range sheets {
		if s == subscriptionSheet {
			sheet = s
		}
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("transfer: reading sheet: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	// Find columns by header so reordered sheets still import.
	col := make(map[string]int)
	for j, cell := range rows[0] {
		col[strings.ToLower(strings.TrimSpace(cell))] = j
	}
	for _, h := range []string{"name", "price", "day", "category"} {
		if _, ok := col[h]; !ok {
			return nil, fmt.Errorf("transfer: missing column %q", h)
		}
	}
	get := func(row []string, name string) string {
		j, ok := col[name]
		if !ok || j >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[j])
	}

	var subs []model.Subscription
	for i, row := range rows[1:] {
		if strings.Join(row, "") == "" {
			continue
		}
		line := i + 2

		price, err := decimal.NewFromString(get(row, "price"))
		if err != nil {
			return nil, fmt.Errorf("transfer: row %d: price: %w", line, err)
		}
		day, err := strconv.Atoi(get(row, "day"))
		if err != nil {
			return nil, fmt.Errorf("transfer: row %d: day: %w", line, err)
		}
		cat, err := model.ParseCategory(get(row, "category"))
		if err != nil {
			return nil, fmt.Errorf("transfer: row %d: %w", line, err)
		}
		subs = append(subs, model.Subscription{
			ID:         get(row, "id"),
			Name:       get(row, "name"),
			Price:      price,
			DayOfMonth: day,
			Category:   cat,
			Color:      get(row, "color"),
		})
	}
	return subs, nil
}

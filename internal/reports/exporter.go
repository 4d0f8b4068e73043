package reports

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	sheetName  = "Runners"
	titleRow   = "Surigao Runners – Exported Data"
	xlsxMIME   = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	headerBand = "00CC44"
	summaryBg  = "004400"
)

var columns = []string{"Name", "Email", "Distance", "Age", "Gender", "Shirt Size"}

// Row is one exported runner, denormalized to display values.
type Row struct {
	ID            string
	FirstName     string
	LastName      string
	Email         string
	DistanceLabel string
	Age           int
	Gender        string // display label, e.g. "Female"
	ShirtSize     string
}

// Export is everything the workbook builder needs.
type Export struct {
	Criteria    Criteria
	Summary     SummaryContext
	Rows        []Row
	GeneratedAt time.Time
	EventName   string // "" when no event filter; drives the filename
}

// ContentType is the MIME type of the generated document.
func ContentType() string { return xlsxMIME }

// SortRows orders rows by surname, given name, then id. The id keeps
// the order reproducible when two runners share a name.
func SortRows(rows []Row) {
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]

		if !strings.EqualFold(a.LastName, b.LastName) {
			return strings.ToLower(a.LastName) < strings.ToLower(b.LastName)
		}
		if !strings.EqualFold(a.FirstName, b.FirstName) {
			return strings.ToLower(a.FirstName) < strings.ToLower(b.FirstName)
		}
		return a.ID < b.ID
	})
}

// Filename encodes the selected event (or all_events) plus a
// generation timestamp.
func Filename(eventName string, generatedAt time.Time) string {
	name := "all_events"

	if eventName != "" {
		name = strings.ReplaceAll(eventName, " ", "_")
	}

	return fmt.Sprintf("%s_runners_%s.xlsx", name, generatedAt.Format("2006-01-02_15-04"))
}

// BuildWorkbook renders the export: title row, filter summary row, a
// header band and one data row per runner.
func BuildWorkbook(x Export) ([]byte, error) {
	SortRows(x.Rows)

	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", sheetName)

	summaryStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{summaryBg}},
		Alignment: &excelize.Alignment{Horizontal: "left"},
	})
	if err != nil {
		return nil, err
	}

	filterStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Italic: true, Color: "CCFFCC"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"002200"}},
	})
	if err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{headerBand}},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    boxBorder(),
	})
	if err != nil {
		return nil, err
	}

	cellStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Vertical: "center", WrapText: true},
		Border:    boxBorder(),
	})
	if err != nil {
		return nil, err
	}

	nameStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Vertical: "center", WrapText: true},
		Border:    boxBorder(),
	})
	if err != nil {
		return nil, err
	}

	// title + filter summary
	if err := f.MergeCell(sheetName, "A1", "F1"); err != nil {
		return nil, err
	}
	if err := f.SetCellValue(sheetName, "A1", titleRow); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheetName, "A1", "F1", summaryStyle); err != nil {
		return nil, err
	}

	if err := f.MergeCell(sheetName, "A2", "F2"); err != nil {
		return nil, err
	}
	if err := f.SetCellValue(sheetName, "A2", x.Criteria.Summary(x.Summary)); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheetName, "A2", "F2", filterStyle); err != nil {
		return nil, err
	}

	// column headers on row 4, one blank spacer row like the original sheet
	for col, header := range columns {
		cell, err := excelize.CoordinatesToCellName(col+1, 4)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			return nil, err
		}
	}

	for i, row := range x.Rows {
		rowNum := 5 + i

		values := []any{
			row.LastName + ", " + row.FirstName,
			row.Email,
			row.DistanceLabel,
			row.Age,
			row.Gender,
			row.ShirtSize,
		}

		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, rowNum)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return nil, err
			}

			style := cellStyle
			if col == 0 {
				style = nameStyle
			}
			if err := f.SetCellStyle(sheetName, cell, cell, style); err != nil {
				return nil, err
			}
		}
	}

	_ = f.SetColWidth(sheetName, "A", "A", 26)
	_ = f.SetColWidth(sheetName, "B", "B", 30)
	_ = f.SetColWidth(sheetName, "C", "C", 15)
	_ = f.SetColWidth(sheetName, "D", "D", 6)
	_ = f.SetColWidth(sheetName, "E", "E", 10)
	_ = f.SetColWidth(sheetName, "F", "F", 12)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func boxBorder() []excelize.Border {
	return []excelize.Border{
		{Type: "left", Style: 1, Color: "000000"},
		{Type: "right", Style: 1, Color: "000000"},
		{Type: "top", Style: 1, Color: "000000"},
		{Type: "bottom", Style: 1, Color: "000000"},
	}
}

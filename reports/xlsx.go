package reports

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	reportSheet  = "Report"
	summarySheet = "Summary"
)

// WriteXLSX renders the report as a workbook with a data sheet and a summary
// sheet. Numbers stay numeric cells.
func WriteXLSX(w io.Writer, r *Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", reportSheet); err != nil {
		return err
	}
	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#1F4E78"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return err
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return err
	}
	title, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	if err != nil {
		return err
	}

	if err := f.SetCellValue(reportSheet, "A1", r.Title); err != nil {
		return err
	}
	if err := f.SetCellStyle(reportSheet, "A1", "A1", title); err != nil {
		return err
	}
	if r.Ranged {
		if err := f.SetCellValue(reportSheet, "A2", dateRange(r)); err != nil {
			return err
		}
	}

	const headerRow = 4
	for i, col := range r.Columns {
		cell, err := excelize.CoordinatesToCellName(i+1, headerRow)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(reportSheet, cell, col.Title); err != nil {
			return err
		}
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(reportSheet, name, name, col.Width/2); err != nil {
			return err
		}
	}
	if len(r.Columns) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(r.Columns), headerRow)
		if err := f.SetCellStyle(reportSheet, "A4", last, header); err != nil {
			return err
		}
	}

	for i, row := range r.Rows {
		for j, value := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, headerRow+1+i)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(reportSheet, cell, value); err != nil {
				return err
			}
			if j < len(r.Columns) && r.Columns[j].Kind == Money {
				if err := f.SetCellStyle(reportSheet, cell, cell, money); err != nil {
					return err
				}
			}
		}
	}
	if err := f.SetPanes(reportSheet, &excelize.Panes{
		Freeze: true, YSplit: headerRow, TopLeftCell: fmt.Sprintf("A%d", headerRow+1), ActivePane: "bottomLeft",
	}); err != nil {
		return err
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}
	if err := f.SetColWidth(summarySheet, "A", "A", 28); err != nil {
		return err
	}
	if err := f.SetColWidth(summarySheet, "B", "B", 18); err != nil {
		return err
	}
	for i, line := range r.Summary {
		row := i + 1
		if err := f.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), line.Label); err != nil {
			return err
		}
		if err := f.SetCellValue(summarySheet, fmt.Sprintf("B%d", row), line.Value); err != nil {
			return err
		}
		if _, ok := line.Value.(float64); ok {
			if err := f.SetCellStyle(summarySheet, fmt.Sprintf("B%d", row), fmt.Sprintf("B%d", row), money); err != nil {
				return err
			}
		}
	}

	f.SetActiveSheet(0)
	return f.Write(w)
}

func dateRange(r *Report) string {
	from, to := "start", "today"
	if !r.From.IsZero() {
		from = r.From.Format("2006-01-02")
	}
	if !r.To.IsZero() {
		to = r.To.Format("2006-01-02")
	}
	return fmt.Sprintf("Date Range: %s to %s", from, to)
}

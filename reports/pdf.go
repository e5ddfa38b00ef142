package reports

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
)

// compressPDF is switched off by tests that inspect the page content.
var compressPDF = true

// WritePDF renders the report as a single table on A4 pages. Text is
// converted to cp1252, the encoding of the core fonts, so accented names
// print correctly.
func WritePDF(w io.Writer, r *Report) error {
	orientation := "P"
	if len(r.Columns) > 6 {
		orientation = "L"
	}
	pdf := gofpdf.New(orientation, "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 12)
	pdf.SetCompression(compressPDF)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	widths := columnWidths(r.Columns, pageW-left-right)

	drawHeader := func() {
		pdf.SetFont("Arial", "B", 10)
		pdf.SetFillColor(31, 78, 120)
		pdf.SetTextColor(255, 255, 255)
		for i, col := range r.Columns {
			pdf.CellFormat(widths[i], 8, tr(col.Title), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetTextColor(0, 0, 0)
		pdf.SetFont("Arial", "", 9)
	}

	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, tr(r.Title), "", 1, "C", false, 0, "")
	pdf.Ln(3)

	pdf.SetFont("Arial", "", 11)
	if r.Ranged {
		pdf.CellFormat(0, 7, dateRange(r), "", 1, "L", false, 0, "")
	}
	for _, line := range r.Summary {
		pdf.CellFormat(0, 7, tr(fmt.Sprintf("%s: %s", line.Label, formatValue(line.Value, r.Currency))), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	drawHeader()
	_, pageH := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	for _, row := range r.Rows {
		if pdf.GetY()+7 > pageH-bottom {
			pdf.AddPage()
			drawHeader()
		}
		for i, value := range row {
			if i >= len(widths) {
				break
			}
			align := "L"
			switch r.Columns[i].Kind {
			case Integer:
				align = "C"
			case Money:
				align = "R"
			}
			text := tr(formatValue(value, r.Currency))
			if r.Columns[i].Kind == Text {
				text = fit(pdf, text, widths[i]-2)
			}
			pdf.CellFormat(widths[i], 7, text, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	if len(r.Rows) == 0 {
		pdf.CellFormat(0, 7, "No data for this period.", "1", 1, "C", false, 0, "")
	}

	return pdf.Output(w)
}

func columnWidths(cols []Column, total float64) []float64 {
	var sum float64
	for _, c := range cols {
		sum += c.Width
	}
	widths := make([]float64, len(cols))
	for i, c := range cols {
		widths[i] = total * c.Width / sum
	}
	return widths
}

func formatValue(v interface{}, currency string) string {
	switch x := v.(type) {
	case float64:
		return fmt.Sprintf("%s %.2f", currency, x)
	case int:
		return fmt.Sprintf("%d", x)
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

// fit truncates translated, single-byte text to the cell width.
func fit(pdf *gofpdf.Fpdf, text string, width float64) string {
	if pdf.GetStringWidth(text) <= width {
		return text
	}
	for len(text) > 0 && pdf.GetStringWidth(text+"...") > width {
		text = text[:len(text)-1]
	}
	return text + "..."
}

package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

const (
	pdfMargin     = 10.0
	pdfLineHeight = 5.0
)

// PDFExporter renders tables as a landscape A4 document.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// ContentType is the MIME type of Render output.
func (e *PDFExporter) ContentType() string { return "application/pdf" }

// Extension is the file suffix for Render output.
func (e *PDFExporter) Extension() string { return "pdf" }

// Render draws the title block and a bordered grid. Cells wrap onto several lines.
func (e *PDFExporter) Render(table Table) ([]byte, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, 12, pdfMargin)
	pdf.SetAutoPageBreak(true, 12)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	if table.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 8, tr(table.Title), "", 1, "C", false, 0, "")
	}
	if table.Subtitle != "" {
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 6, tr(table.Subtitle), "", 1, "C", false, 0, "")
	}
	pdf.Ln(3)

	pageWidth, _ := pdf.GetPageSize()
	colWidth := (pageWidth - 2*pdfMargin) / float64(len(table.Headers))

	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(220, 230, 241)
	for _, header := range table.Headers {
		pdf.CellFormat(colWidth, 8, tr(header), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 8)
	for _, row := range table.Rows {
		lines := 1
		for _, cell := range row {
			if n := len(pdf.SplitLines([]byte(tr(cell)), colWidth-2)); n > lines {
				lines = n
			}
		}
		height := float64(lines) * pdfLineHeight
		x, y := pdf.GetXY()
		for i, cell := range row {
			pdf.Rect(x+float64(i)*colWidth, y, colWidth, height, "D")
			pdf.SetXY(x+float64(i)*colWidth, y)
			pdf.MultiCell(colWidth, pdfLineHeight, tr(cell), "", "C", false)
		}
		pdf.SetXY(x, y+height)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

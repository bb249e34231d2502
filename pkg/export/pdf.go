package export

import (
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/kilianp07/mgdispatch/core/model"
)

// pdfColumns are the table columns of the PDF report; prices and renewables
// are left to the other formats to fit a landscape page.
var pdfColumns = []struct {
	title string
	index int // into values(), -1 for t
}{
	{"t", -1}, {"Load", 0}, {"Buy", 1}, {"Sell", 2}, {"Grid in", 5}, {"Grid out", 6},
	{"SoC", 7}, {"Charge", 8}, {"Discharge", 9}, {"DG1", 10}, {"DG2", 11},
}

// WritePDF writes a one-table report of the dispatch.
func WritePDF(w io.Writer, res model.DispatchResult, conv SignConvention) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Microgrid Dispatch Report")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Run: %s", res.RunID))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Status: %s", res.Status))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Operating cost: %.2f", res.Objective))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Solved: %s (%d ms)", res.SolvedAt.Format(time.RFC3339), res.Elapsed.Milliseconds()))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Sign convention: %s", conv))
	pdf.Ln(8)

	const width = 24.0
	pdf.SetFont("Arial", "B", 9)
	for _, c := range pdfColumns {
		pdf.CellFormat(width, 6, c.title, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 9)
	for _, h := range res.Hours {
		v := values(h, conv)
		for _, c := range pdfColumns {
			text := fmt.Sprintf("%d", h.Hour)
			if c.index >= 0 {
				text = fmt.Sprintf("%.2f", v[c.index])
				if c.title == "SoC" {
					text = fmt.Sprintf("%.3f", v[c.index])
				}
			}
			pdf.CellFormat(width, 6, text, "1", 0, "R", false, 0, "")
		}
		pdf.Ln(-1)
	}
	return pdf.Output(w)
}

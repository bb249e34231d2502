package export

import (
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/kilianp07/mgdispatch/core/model"
)

const (
	dispatchSheet = "dispatch"
	summarySheet  = "summary"
)

// WriteXLSX writes a workbook with the hourly dispatch and a run summary.
func WriteXLSX(w io.Writer, res model.DispatchResult, conv SignConvention) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", dispatchSheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}

	if err := f.SetSheetRow(dispatchSheet, "A1", &Columns); err != nil {
		return err
	}
	for i, h := range res.Hours {
		row := []any{h.Hour}
		for _, v := range values(h, conv) {
			row = append(row, v)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(dispatchSheet, cell, &row); err != nil {
			return err
		}
	}

	summary := [][]any{
		{"Run", res.RunID},
		{"Status", res.Status.String()},
		{"Objective", res.Objective},
		{"Hours", len(res.Hours)},
		{"Final SoC", res.FinalSoC()},
		{"Elapsed (ms)", res.Elapsed.Milliseconds()},
		{"Solved at", res.SolvedAt.Format(time.RFC3339)},
		{"Sign convention", conv.String()},
	}
	for i, row := range summary {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return err
		}
	}
	return f.Write(w)
}
